package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
)

// TeamService принимает составы команд от редактора ростеров и отдаёт их при создании турнира.
type TeamService interface {
	GetTeam(ctx context.Context, id string) (*models.Team, error)
	SaveTeam(ctx context.Context, team *models.Team) (*models.Team, error)
}

type teamService struct {
	teamRepo repositories.TeamRepository
	catalog  *models.Catalog
	logger   *slog.Logger
}

func NewTeamService(teamRepo repositories.TeamRepository, catalog *models.Catalog, logger *slog.Logger) TeamService {
	if logger == nil {
		logger = slog.Default()
	}
	return &teamService{teamRepo: teamRepo, catalog: catalog, logger: logger}
}

func (s *teamService) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get team "+id, err)
	}
	return team, nil
}

// SaveTeam validates the roster against the catalog and creates or replaces the team.
func (s *teamService) SaveTeam(ctx context.Context, team *models.Team) (*models.Team, error) {
	team.ID = strings.TrimSpace(team.ID)
	team.Name = strings.TrimSpace(team.Name)
	if team.ID == "" {
		return nil, ErrTeamIDRequired
	}
	if team.Name == "" {
		return nil, ErrTeamNameRequired
	}
	if n := len(team.Members); n < models.MinTeamSize || n > models.MaxTeamSize {
		return nil, fmt.Errorf("%w, got %d", ErrTeamSize, n)
	}
	for _, memberID := range team.Members {
		if _, ok := s.catalog.Lookup(memberID); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTeamMember, memberID)
		}
	}

	if err := s.teamRepo.Upsert(ctx, team); err != nil {
		return nil, storeError("save team "+team.ID, err)
	}
	s.logger.InfoContext(ctx, "team saved", slog.String("team_id", team.ID), slog.Int("members", len(team.Members)))
	return team, nil
}

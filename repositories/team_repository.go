package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

var ErrTeamNotFound = fmt.Errorf("%w: team", models.ErrNotFound)

// TeamRepository reads saved teams written by the roster editor.
type TeamRepository interface {
	GetByID(ctx context.Context, id string) (*models.Team, error)
	Upsert(ctx context.Context, team *models.Team) error
}

type sqlTeamRepository struct {
	db *sql.DB
}

func NewTeamRepository(db *sql.DB) TeamRepository {
	return &sqlTeamRepository{db: db}
}

func (r *sqlTeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	team := &models.Team{}
	var members string
	err := r.db.QueryRowContext(ctx, `SELECT id, name, members FROM teams WHERE id = $1`, id).
		Scan(&team.ID, &team.Name, &members)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrTeamNotFound, id)
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(members), &team.Members); err != nil {
		return nil, fmt.Errorf("failed to decode members of team %s: %w", id, err)
	}
	return team, nil
}

func (r *sqlTeamRepository) Upsert(ctx context.Context, team *models.Team) error {
	members, err := json.Marshal(team.Members)
	if err != nil {
		return fmt.Errorf("failed to encode members of team %s: %w", team.ID, err)
	}
	query := `
		INSERT INTO teams (id, name, members) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, members = excluded.members`
	_, err = r.db.ExecContext(ctx, query, team.ID, team.Name, string(members))
	return mapWriteError(err)
}

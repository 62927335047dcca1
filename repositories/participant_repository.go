package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

type ParticipantRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, tournamentID string, participants []models.Participant) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) ([]models.Participant, error)
}

type sqlParticipantRepository struct {
	db *sql.DB
}

func NewParticipantRepository(db *sql.DB) ParticipantRepository {
	return &sqlParticipantRepository{db: db}
}

func (r *sqlParticipantRepository) BatchCreate(ctx context.Context, exec SQLExecutor, tournamentID string, participants []models.Participant) error {
	executor := getExecutor(r.db, exec)
	query := `
		INSERT INTO participants (tournament_id, id, seed, kind, team_id, display_name, roster)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, p := range participants {
		roster, err := json.Marshal(p.Roster)
		if err != nil {
			return fmt.Errorf("failed to encode roster of participant %s: %w", p.ID, err)
		}
		if _, err := executor.ExecContext(ctx, query,
			tournamentID, p.ID, p.Seed, string(p.Kind), p.TeamID, p.DisplayName, string(roster),
		); err != nil {
			return fmt.Errorf("failed to insert participant %s: %w", p.ID, mapWriteError(err))
		}
	}
	return nil
}

func (r *sqlParticipantRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) ([]models.Participant, error) {
	query := `
		SELECT id, seed, kind, team_id, display_name, roster
		FROM participants
		WHERE tournament_id = $1
		ORDER BY seed`

	rows, err := getExecutor(r.db, exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]models.Participant, 0, 16)
	for rows.Next() {
		var p models.Participant
		var kind, roster string
		if err := rows.Scan(&p.ID, &p.Seed, &kind, &p.TeamID, &p.DisplayName, &roster); err != nil {
			return nil, err
		}
		p.Kind = models.ParticipantKind(kind)
		if err := json.Unmarshal([]byte(roster), &p.Roster); err != nil {
			return nil, fmt.Errorf("failed to decode roster of participant %s: %w", p.ID, err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

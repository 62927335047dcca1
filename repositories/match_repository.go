package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

var ErrMatchNotFound = fmt.Errorf("%w: match", models.ErrNotFound)

type MatchRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, tournamentID string, matches []models.Match) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) ([]models.Match, error)
	Update(ctx context.Context, exec SQLExecutor, tournamentID string, m *models.Match) error
}

type sqlMatchRepository struct {
	db *sql.DB
}

func NewMatchRepository(db *sql.DB) MatchRepository {
	return &sqlMatchRepository{db: db}
}

func (r *sqlMatchRepository) BatchCreate(ctx context.Context, exec SQLExecutor, tournamentID string, matches []models.Match) error {
	executor := getExecutor(r.db, exec)
	query := `
		INSERT INTO matches (
			tournament_id, id, round, slot, participant_a, participant_b, status, winner_id, forfeited_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for _, m := range matches {
		if _, err := executor.ExecContext(ctx, query,
			tournamentID, m.ID, m.Round, m.Slot,
			nullString(m.ParticipantA), nullString(m.ParticipantB),
			string(m.Status), nullString(m.WinnerID), nullString(m.ForfeitedBy),
		); err != nil {
			return fmt.Errorf("failed to insert match %s: %w", m.ID, mapWriteError(err))
		}
	}
	return nil
}

// ListByTournament возвращает матчи, отсортированные по раунду и позиции.
func (r *sqlMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) ([]models.Match, error) {
	query := `
		SELECT id, round, slot, participant_a, participant_b, status, winner_id, forfeited_by
		FROM matches
		WHERE tournament_id = $1
		ORDER BY round, slot`

	rows, err := getExecutor(r.db, exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]models.Match, 0, 15)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *sqlMatchRepository) Update(ctx context.Context, exec SQLExecutor, tournamentID string, m *models.Match) error {
	query := `
		UPDATE matches
		SET participant_a = $1, participant_b = $2, status = $3, winner_id = $4, forfeited_by = $5
		WHERE tournament_id = $6 AND id = $7`

	result, err := getExecutor(r.db, exec).ExecContext(ctx, query,
		nullString(m.ParticipantA), nullString(m.ParticipantB), string(m.Status),
		nullString(m.WinnerID), nullString(m.ForfeitedBy), tournamentID, m.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, fmt.Errorf("%w: %s/%s", ErrMatchNotFound, tournamentID, m.ID))
}

func scanMatch(rows *sql.Rows) (models.Match, error) {
	var m models.Match
	var a, b, winner, forfeited sql.NullString
	var status string
	if err := rows.Scan(&m.ID, &m.Round, &m.Slot, &a, &b, &status, &winner, &forfeited); err != nil {
		return m, err
	}
	m.ParticipantA = stringPtr(a)
	m.ParticipantB = stringPtr(b)
	m.Status = models.MatchStatus(status)
	m.WinnerID = stringPtr(winner)
	m.ForfeitedBy = stringPtr(forfeited)
	return m, nil
}

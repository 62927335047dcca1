package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-engine/models"
)

var ErrStatsNotFound = fmt.Errorf("%w: stats", models.ErrNotFound)

type StatsRepository interface {
	Get(ctx context.Context, ownerID string) (*models.Stats, error)
	Increment(ctx context.Context, exec SQLExecutor, delta models.Stats, at time.Time) error
	// Reset clears one owner's counters, or every owner's when ownerID is empty.
	Reset(ctx context.Context, ownerID string) error
}

type sqlStatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) StatsRepository {
	return &sqlStatsRepository{db: db}
}

func (r *sqlStatsRepository) Get(ctx context.Context, ownerID string) (*models.Stats, error) {
	query := `
		SELECT owner_id, tournaments_entered, tournaments_won, matches_won, matches_lost, matches_forfeited, updated_at
		FROM stats
		WHERE owner_id = $1`

	s := &models.Stats{}
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(
		&s.OwnerID, &s.TournamentsEntered, &s.TournamentsWon,
		&s.MatchesWon, &s.MatchesLost, &s.MatchesForfeited, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrStatsNotFound, ownerID)
		}
		return nil, err
	}
	return s, nil
}

// Increment adds delta's counters to the owner's row, creating it if needed.
func (r *sqlStatsRepository) Increment(ctx context.Context, exec SQLExecutor, d models.Stats, at time.Time) error {
	query := `
		INSERT INTO stats (
			owner_id, tournaments_entered, tournaments_won, matches_won, matches_lost, matches_forfeited, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner_id) DO UPDATE SET
			tournaments_entered = stats.tournaments_entered + excluded.tournaments_entered,
			tournaments_won = stats.tournaments_won + excluded.tournaments_won,
			matches_won = stats.matches_won + excluded.matches_won,
			matches_lost = stats.matches_lost + excluded.matches_lost,
			matches_forfeited = stats.matches_forfeited + excluded.matches_forfeited,
			updated_at = excluded.updated_at`

	_, err := getExecutor(r.db, exec).ExecContext(ctx, query,
		d.OwnerID, d.TournamentsEntered, d.TournamentsWon, d.MatchesWon, d.MatchesLost, d.MatchesForfeited, at,
	)
	return err
}

func (r *sqlStatsRepository) Reset(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		_, err := r.db.ExecContext(ctx, `DELETE FROM stats`)
		return err
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM stats WHERE owner_id = $1`, ownerID)
	return err
}

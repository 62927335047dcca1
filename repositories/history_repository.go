package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/Dosada05/tournament-engine/models"
)

// HistoryCursor points at the last entry of a page; the next page starts strictly after it.
type HistoryCursor struct {
	CompletedAt  time.Time
	TournamentID string
}

type HistoryRepository interface {
	// Insert appends the entry and reports false if it was already recorded.
	Insert(ctx context.Context, exec SQLExecutor, entry *models.HistoryEntry) (bool, error)
	ListPage(ctx context.Context, after *HistoryCursor, limit int) ([]models.HistoryEntry, error)
}

type sqlHistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) HistoryRepository {
	return &sqlHistoryRepository{db: db}
}

func (r *sqlHistoryRepository) Insert(ctx context.Context, exec SQLExecutor, e *models.HistoryEntry) (bool, error) {
	query := `
		INSERT INTO history_entries (tournament_id, name, participant_count, champion_id, champion_name, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tournament_id) DO NOTHING`

	result, err := getExecutor(r.db, exec).ExecContext(ctx, query,
		e.TournamentID, e.Name, e.ParticipantCount, e.ChampionID, e.ChampionName, e.CompletedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListPage returns up to limit entries, newest first, strictly after the cursor.
func (r *sqlHistoryRepository) ListPage(ctx context.Context, after *HistoryCursor, limit int) ([]models.HistoryEntry, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if after == nil {
		rows, err = r.db.QueryContext(ctx, `
			SELECT tournament_id, name, participant_count, champion_id, champion_name, completed_at
			FROM history_entries
			ORDER BY completed_at DESC, tournament_id DESC
			LIMIT $1`, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT tournament_id, name, participant_count, champion_id, champion_name, completed_at
			FROM history_entries
			WHERE completed_at < $1 OR (completed_at = $1 AND tournament_id < $2)
			ORDER BY completed_at DESC, tournament_id DESC
			LIMIT $3`, after.CompletedAt, after.TournamentID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.HistoryEntry, 0, limit)
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.TournamentID, &e.Name, &e.ParticipantCount, &e.ChampionID, &e.ChampionName, &e.CompletedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

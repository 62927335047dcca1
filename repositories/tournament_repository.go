package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

var ErrTournamentNotFound = fmt.Errorf("%w: tournament", models.ErrNotFound)

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Tournament, error)
	Update(ctx context.Context, exec SQLExecutor, t *models.Tournament) error
	MarkHistoryRecorded(ctx context.Context, exec SQLExecutor, id string) error
	ListIDsByStatus(ctx context.Context, status models.TournamentStatus) ([]string, error)
	ListUnrecorded(ctx context.Context) ([]string, error)
}

type sqlTournamentRepository struct {
	db *sql.DB
}

func NewTournamentRepository(db *sql.DB) TournamentRepository {
	return &sqlTournamentRepository{db: db}
}

func (r *sqlTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			id, name, participant_count, team_id, player_participant_id,
			status, champion_id, created_at, completed_at, history_recorded
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := getExecutor(r.db, exec).ExecContext(ctx, query,
		t.ID, t.Name, t.ParticipantCount, t.TeamID, t.PlayerParticipantID,
		string(t.Status), nullString(t.ChampionID), t.CreatedAt, nullTime(t.CompletedAt), t.HistoryRecorded,
	)
	return mapWriteError(err)
}

func (r *sqlTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Tournament, error) {
	query := `
		SELECT
			id, name, participant_count, team_id, player_participant_id,
			status, champion_id, created_at, completed_at, history_recorded
		FROM tournaments
		WHERE id = $1`

	t := &models.Tournament{}
	var status string
	var champion sql.NullString
	var completedAt sql.NullTime
	err := getExecutor(r.db, exec).QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.ParticipantCount, &t.TeamID, &t.PlayerParticipantID,
		&status, &champion, &t.CreatedAt, &completedAt, &t.HistoryRecorded,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrTournamentNotFound, id)
		}
		return nil, err
	}
	t.Status = models.TournamentStatus(status)
	t.ChampionID = stringPtr(champion)
	if completedAt.Valid {
		ts := completedAt.Time
		t.CompletedAt = &ts
	}
	return t, nil
}

func (r *sqlTournamentRepository) Update(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	query := `
		UPDATE tournaments
		SET status = $1, champion_id = $2, completed_at = $3, history_recorded = $4
		WHERE id = $5`

	result, err := getExecutor(r.db, exec).ExecContext(ctx, query,
		string(t.Status), nullString(t.ChampionID), nullTime(t.CompletedAt), t.HistoryRecorded, t.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, fmt.Errorf("%w: %s", ErrTournamentNotFound, t.ID))
}

func (r *sqlTournamentRepository) MarkHistoryRecorded(ctx context.Context, exec SQLExecutor, id string) error {
	result, err := getExecutor(r.db, exec).ExecContext(ctx,
		`UPDATE tournaments SET history_recorded = $1 WHERE id = $2`, true, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, fmt.Errorf("%w: %s", ErrTournamentNotFound, id))
}

func (r *sqlTournamentRepository) ListIDsByStatus(ctx context.Context, status models.TournamentStatus) ([]string, error) {
	return r.listIDs(ctx, `SELECT id FROM tournaments WHERE status = $1 ORDER BY created_at`, string(status))
}

// ListUnrecorded возвращает завершённые турниры, которые ещё не попали в историю.
func (r *sqlTournamentRepository) ListUnrecorded(ctx context.Context) ([]string, error) {
	return r.listIDs(ctx,
		`SELECT id FROM tournaments WHERE status = $1 AND history_recorded = $2 ORDER BY completed_at`,
		string(models.StatusCompleted), false)
}

func (r *sqlTournamentRepository) listIDs(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

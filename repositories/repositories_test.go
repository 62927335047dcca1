package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/db"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Connect(db.DriverSQLite, ":memory:", time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn))
	return conn
}

func strPtr(s string) *string { return &s }

func TestTeamRepository_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewTeamRepository(openTestDB(t))

	require.NoError(t, repo.Upsert(ctx, &models.Team{ID: "team-1", Name: "Reds", Members: []string{"ember", "stone"}}))
	require.NoError(t, repo.Upsert(ctx, &models.Team{ID: "team-1", Name: "Reds II", Members: []string{"ember"}}))

	team, err := repo.GetByID(ctx, "team-1")
	require.NoError(t, err)
	assert.Equal(t, "Reds II", team.Name)
	assert.Equal(t, []string{"ember"}, team.Members)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrTeamNotFound)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTournamentRepositories_RoundTrip(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	tx := NewTransactor(conn, nil)
	tournaments := NewTournamentRepository(conn)
	participants := NewParticipantRepository(conn)
	matches := NewMatchRepository(conn)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tour := &models.Tournament{
		ID: "t1", Name: "Cup", ParticipantCount: 4, TeamID: "team-1",
		PlayerParticipantID: "p0", Status: models.StatusCreated, CreatedAt: created,
	}
	ps := []models.Participant{
		{ID: "p0", Kind: models.ParticipantPlayer, TeamID: "team-1", DisplayName: "Reds", Seed: 0, Roster: []string{"ember"}},
		{ID: "p1", Kind: models.ParticipantAI, TeamID: "ai-01", DisplayName: "AI 1", Seed: 1, Roster: []string{"tide", "gale"}},
	}
	ms := []models.Match{
		{ID: "m0", Round: 0, Slot: 0, ParticipantA: strPtr("p0"), ParticipantB: strPtr("p1"), Status: models.MatchReady},
		{ID: "m1", Round: 1, Slot: 0, Status: models.MatchPending},
	}

	err := tx.WithinTx(ctx, func(exec SQLExecutor) error {
		if err := tournaments.Create(ctx, exec, tour); err != nil {
			return err
		}
		if err := participants.BatchCreate(ctx, exec, tour.ID, ps); err != nil {
			return err
		}
		return matches.BatchCreate(ctx, exec, tour.ID, ms)
	})
	require.NoError(t, err)

	got, err := tournaments.GetByID(ctx, nil, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Cup", got.Name)
	assert.Equal(t, models.StatusCreated, got.Status)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Nil(t, got.ChampionID)
	assert.Nil(t, got.CompletedAt)

	gotPs, err := participants.ListByTournament(ctx, nil, "t1")
	require.NoError(t, err)
	assert.Equal(t, ps, gotPs)

	gotMs, err := matches.ListByTournament(ctx, nil, "t1")
	require.NoError(t, err)
	assert.Equal(t, ms, gotMs)

	ms[0].Status = models.MatchForfeited
	ms[0].WinnerID = strPtr("p1")
	ms[0].ForfeitedBy = strPtr("p0")
	require.NoError(t, matches.Update(ctx, nil, "t1", &ms[0]))

	completed := created.Add(time.Hour)
	got.Status = models.StatusCompleted
	got.ChampionID = strPtr("p1")
	got.CompletedAt = &completed
	require.NoError(t, tournaments.Update(ctx, nil, got))

	unrecorded, err := tournaments.ListUnrecorded(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, unrecorded)

	require.NoError(t, tournaments.MarkHistoryRecorded(ctx, nil, "t1"))
	unrecorded, err = tournaments.ListUnrecorded(ctx)
	require.NoError(t, err)
	assert.Empty(t, unrecorded)

	gotMs, err = matches.ListByTournament(ctx, nil, "t1")
	require.NoError(t, err)
	assert.Equal(t, ms[0], gotMs[0])

	err = matches.Update(ctx, nil, "t1", &models.Match{ID: "m9", Status: models.MatchReady})
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	tournaments := NewTournamentRepository(conn)
	boom := errors.New("boom")

	err := NewTransactor(conn, nil).WithinTx(ctx, func(exec SQLExecutor) error {
		if err := tournaments.Create(ctx, exec, &models.Tournament{ID: "t1", Name: "Cup", ParticipantCount: 4, Status: models.StatusCreated, CreatedAt: time.Now().UTC()}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = tournaments.GetByID(ctx, nil, "t1")
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestHistoryRepository_InsertIsIdempotentAndPaged(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepository(openTestDB(t))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		inserted, err := repo.Insert(ctx, nil, &models.HistoryEntry{
			TournamentID: fmt.Sprintf("t%d", i), Name: "Cup", ParticipantCount: 4,
			ChampionID: "p0", ChampionName: "Reds", CompletedAt: base.Add(time.Duration(i/2) * time.Minute),
		})
		require.NoError(t, err)
		assert.True(t, inserted)
	}
	inserted, err := repo.Insert(ctx, nil, &models.HistoryEntry{TournamentID: "t0", Name: "Other", ChampionID: "x", CompletedAt: base})
	require.NoError(t, err)
	assert.False(t, inserted)

	var ids []string
	var cursor *HistoryCursor
	for {
		page, err := repo.ListPage(ctx, cursor, 2)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		for _, e := range page {
			ids = append(ids, e.TournamentID)
		}
		last := page[len(page)-1]
		cursor = &HistoryCursor{CompletedAt: last.CompletedAt, TournamentID: last.TournamentID}
	}
	assert.Equal(t, []string{"t4", "t3", "t2", "t1", "t0"}, ids)
}

func TestStatsRepository_IncrementAndReset(t *testing.T) {
	ctx := context.Background()
	repo := NewStatsRepository(openTestDB(t))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := repo.Get(ctx, "team-1")
	assert.ErrorIs(t, err, ErrStatsNotFound)

	require.NoError(t, repo.Increment(ctx, nil, models.Stats{OwnerID: "team-1", TournamentsEntered: 1, MatchesWon: 2}, now))
	require.NoError(t, repo.Increment(ctx, nil, models.Stats{OwnerID: "team-1", TournamentsEntered: 1, TournamentsWon: 1, MatchesLost: 1}, now))
	require.NoError(t, repo.Increment(ctx, nil, models.Stats{OwnerID: "team-2", MatchesForfeited: 1}, now))

	s, err := repo.Get(ctx, "team-1")
	require.NoError(t, err)
	assert.Equal(t, 2, s.TournamentsEntered)
	assert.Equal(t, 1, s.TournamentsWon)
	assert.Equal(t, 2, s.MatchesWon)
	assert.Equal(t, 1, s.MatchesLost)

	require.NoError(t, repo.Reset(ctx, "team-1"))
	_, err = repo.Get(ctx, "team-1")
	assert.ErrorIs(t, err, ErrStatsNotFound)
	_, err = repo.Get(ctx, "team-2")
	require.NoError(t, err)

	require.NoError(t, repo.Reset(ctx, ""))
	_, err = repo.Get(ctx, "team-2")
	assert.ErrorIs(t, err, ErrStatsNotFound)
}

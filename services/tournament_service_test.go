package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/db"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testCatalog lists "titan" first, so with a one-member team a four-seat bracket
// never hands it to an AI seat. Larger teams or brackets wrap around to it.
func testCatalog() *models.Catalog {
	return models.NewCatalog([]models.Member{
		{ID: "titan", Name: "Titan", HP: 500, Attack: 100, Defense: 100, Speed: 100, Moves: []models.Move{{Name: "smash", Power: 100}}},
		{ID: "sprout", Name: "Sprout", HP: 100, Attack: 10, Defense: 10, Speed: 10, Moves: []models.Move{{Name: "tackle", Power: 40}}},
		{ID: "pebble", Name: "Pebble", HP: 100, Attack: 20, Defense: 10, Speed: 20, Moves: []models.Move{{Name: "tackle", Power: 40}}},
		{ID: "drizzle", Name: "Drizzle", HP: 100, Attack: 10, Defense: 10, Speed: 5, Moves: []models.Move{{Name: "splash", Power: 40}}},
	})
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.BracketEvent
}

func (n *recordingNotifier) Publish(e models.BracketEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) count(eventType models.EventType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.Type == eventType {
			c++
		}
	}
	return c
}

// flakyRecorder fails the first failures calls, then delegates.
type flakyRecorder struct {
	mu       sync.Mutex
	failures int
	next     CompletionRecorder
}

func (f *flakyRecorder) RecordCompletion(ctx context.Context, t *models.Tournament) error {
	f.mu.Lock()
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()
	if fail {
		return fmt.Errorf("%w: disk full", ErrHistoryWrite)
	}
	return f.next.RecordCompletion(ctx, t)
}

type testEnv struct {
	svc         TournamentService
	history     HistoryService
	teams       repositories.TeamRepository
	tournaments repositories.TournamentRepository
	pool        *SimulationPool
	matches     *MatchService
	events      *recordingNotifier
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Connect(db.DriverSQLite, ":memory:", time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn))
	return conn
}

func newTestEnv(t *testing.T, historyFailures int) *testEnv {
	t.Helper()
	conn := openTestDB(t)
	logger := discardLogger()
	catalog := testCatalog()

	tx := repositories.NewTransactor(conn, logger)
	tournamentRepo := repositories.NewTournamentRepository(conn)
	teamRepo := repositories.NewTeamRepository(conn)
	history := NewHistoryService(tx, repositories.NewHistoryRepository(conn), repositories.NewStatsRepository(conn), tournamentRepo, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	pool := NewSimulationPool(ctx, 2, logger)
	t.Cleanup(func() {
		pool.Wait()
		cancel()
	})

	events := &recordingNotifier{}
	matches := NewMatchService(catalog, logger)
	svc := NewTournamentService(
		tx, tournamentRepo,
		repositories.NewParticipantRepository(conn),
		repositories.NewMatchRepository(conn),
		teamRepo,
		matches,
		pool,
		&flakyRecorder{failures: historyFailures, next: history},
		events, catalog, logger,
	)

	require.NoError(t, teamRepo.Upsert(context.Background(), &models.Team{ID: "team-1", Name: "Reds", Members: []string{"titan"}}))
	return &testEnv{svc: svc, history: history, teams: teamRepo, tournaments: tournamentRepo, pool: pool, matches: matches, events: events}
}

func activePlayerMatch(tour *models.Tournament) *models.Match {
	for _, m := range tour.Matches() {
		if m.IsPlayerMatch && m.Status == models.MatchActive {
			return &m
		}
	}
	return nil
}

// playOut submits the first move in every player match until the player has nothing left to play.
func (e *testEnv) playOut(t *testing.T, id string) (*models.Tournament, error) {
	t.Helper()
	ctx := context.Background()
	for {
		e.pool.Wait()
		tour, err := e.svc.GetBracket(ctx, id)
		require.NoError(t, err)
		m := activePlayerMatch(tour)
		if m == nil {
			return tour, nil
		}
		for {
			res, err := e.svc.SubmitPlayerAction(ctx, id, m.ID, PlayerAction{Kind: ActionMove, Index: 0})
			if err != nil {
				if res != nil {
					return res.Tournament, err
				}
				return nil, err
			}
			if res.Outcome.Finished {
				break
			}
		}
	}
}

func TestCreateTournament_Validation(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	require.NoError(t, env.teams.Upsert(ctx, &models.Team{ID: "big", Name: "Big", Members: []string{"titan", "titan", "titan", "titan", "titan", "titan", "titan"}}))
	require.NoError(t, env.teams.Upsert(ctx, &models.Team{ID: "empty", Name: "Empty"}))
	require.NoError(t, env.teams.Upsert(ctx, &models.Team{ID: "odd", Name: "Odd", Members: []string{"titan", "ghost"}}))

	tests := []struct {
		name   string
		tName  string
		count  int
		teamID string
		want   error
	}{
		{"empty name wins over bad count", "  ", 5, "team-1", ErrTournamentNameRequired},
		{"count not a bracket size", "Cup", 5, "team-1", ErrInvalidParticipantCount},
		{"count too large", "Cup", 32, "team-1", ErrInvalidParticipantCount},
		{"unknown team", "Cup", 4, "nope", ErrTeamNotFound},
		{"team too big", "Cup", 4, "big", ErrTeamSize},
		{"team empty", "Cup", 4, "empty", ErrTeamSize},
		{"member not in catalog", "Cup", 4, "odd", ErrUnknownTeamMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CreateTournament(ctx, tt.tName, tt.count, tt.teamID)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestCreateTournament_SeatsPlayerAndAI(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()

	tour, err := env.svc.CreateTournament(ctx, " Spring Cup ", 8, "team-1")
	require.NoError(t, err)
	assert.Equal(t, "Spring Cup", tour.Name)
	assert.Equal(t, models.StatusCreated, tour.Status)
	require.Len(t, tour.Participants, 8)

	player := tour.Participants[0]
	assert.Equal(t, tour.PlayerParticipantID, player.ID)
	assert.Equal(t, models.ParticipantPlayer, player.Kind)
	assert.Equal(t, []string{"titan"}, player.Roster)
	for i, p := range tour.Participants[1:] {
		assert.Equal(t, models.ParticipantAI, p.Kind)
		require.Len(t, p.Roster, 1)
		assert.Equal(t, testCatalog().Members[(i+1)%4].ID, p.Roster[0])
		assert.Equal(t, AITeamID(p.Roster), p.TeamID)
	}

	loaded, err := env.svc.GetBracket(ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Rounds, 3)
	assert.Len(t, loaded.Rounds[0], 4)
	assert.Len(t, loaded.Rounds[1], 2)
	assert.Len(t, loaded.Rounds[2], 1)
	assert.True(t, loaded.Rounds[0][0].IsPlayerMatch)
	assert.False(t, loaded.Rounds[0][1].IsPlayerMatch)
	assert.Equal(t, tour.Participants, loaded.Participants)
}

func TestSeatParticipants_RostersWalkCatalog(t *testing.T) {
	members := make([]models.Member, 7)
	for i := range members {
		members[i] = models.Member{ID: fmt.Sprintf("c%d", i), Name: fmt.Sprintf("C%d", i), HP: 10, Moves: []models.Move{{Name: "hit", Power: 10}}}
	}
	svc := &tournamentService{catalog: models.NewCatalog(members)}
	team := &models.Team{ID: "trio", Name: "Trio", Members: []string{"c0", "c1", "c2"}}

	seats := svc.seatParticipants(team, 4)

	require.Len(t, seats, 4)
	assert.Equal(t, []string{"c3", "c4", "c5"}, seats[1].Roster)
	assert.Equal(t, []string{"c6", "c0", "c1"}, seats[2].Roster)
	assert.Equal(t, []string{"c2", "c3", "c4"}, seats[3].Roster)
	assert.Equal(t, "ai-c6-c0-c1", seats[2].TeamID)
	assert.Equal(t, "C6 (AI 2)", seats[2].DisplayName)
}

func TestGetBracket_NotFound(t *testing.T) {
	env := newTestEnv(t, 0)
	_, err := env.svc.GetBracket(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTournamentNotFound)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStart(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	tour, err := env.svc.CreateTournament(ctx, "Cup", 4, "team-1")
	require.NoError(t, err)

	_, err = env.svc.SubmitPlayerAction(ctx, tour.ID, "m0", PlayerAction{Kind: ActionMove})
	assert.ErrorIs(t, err, ErrTournamentNotActive)

	started, err := env.svc.Start(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, started.Status)
	assert.Equal(t, models.MatchActive, started.Rounds[0][0].Status)
	assert.Equal(t, 1, env.events.count(models.EventYourTurn))

	_, err = env.svc.Start(ctx, tour.ID)
	assert.ErrorIs(t, err, ErrTournamentInvalidStatusTransition)
	assert.ErrorIs(t, err, models.ErrInvalidState)

	env.pool.Wait()
	loaded, err := env.svc.GetBracket(ctx, tour.ID)
	require.NoError(t, err)
	aiMatch := loaded.Rounds[0][1]
	assert.Equal(t, models.MatchCompleted, aiMatch.Status)
	require.NotNil(t, aiMatch.WinnerID)
	require.NotNil(t, loaded.Rounds[1][0].ParticipantB)
	assert.Equal(t, *aiMatch.WinnerID, *loaded.Rounds[1][0].ParticipantB)
	assert.Equal(t, models.MatchPending, loaded.Rounds[1][0].Status)
}

func TestPlayerWinsTournament(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	tour, err := env.svc.CreateTournament(ctx, "Cup", 4, "team-1")
	require.NoError(t, err)
	_, err = env.svc.Start(ctx, tour.ID)
	require.NoError(t, err)

	final, err := env.playOut(t, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, final.Status)
	require.NotNil(t, final.ChampionID)
	assert.Equal(t, tour.PlayerParticipantID, *final.ChampionID)
	assert.NotNil(t, final.CompletedAt)
	assert.True(t, final.HistoryRecorded)
	for _, m := range final.Matches() {
		assert.True(t, m.IsFinished(), "match %s", m.ID)
	}
	assert.Equal(t, 1, env.events.count(models.EventTournamentCompleted))

	stats, err := env.history.GetStats(ctx, "team-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TournamentsEntered)
	assert.Equal(t, 1, stats.TournamentsWon)
	assert.Equal(t, 2, stats.MatchesWon)
	assert.Equal(t, 0, stats.MatchesLost)

	var entries []models.HistoryEntry
	for e, err := range env.history.ListHistory(ctx) {
		require.NoError(t, err)
		entries = append(entries, e)
	}
	require.Len(t, entries, 1)
	assert.Equal(t, tour.ID, entries[0].TournamentID)
	assert.Equal(t, "Reds", entries[0].ChampionName)

	// Completed tournaments are immutable.
	_, err = env.svc.ReportResult(ctx, tour.ID, "m2", MatchResult{WinnerID: tour.PlayerParticipantID})
	assert.ErrorIs(t, err, ErrTournamentNotActive)
}

func TestSubmitPlayerAction_InvalidActionConsumesNoTurn(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	tour, err := env.svc.CreateTournament(ctx, "Cup", 4, "team-1")
	require.NoError(t, err)
	_, err = env.svc.Start(ctx, tour.ID)
	require.NoError(t, err)

	_, err = env.svc.SubmitPlayerAction(ctx, tour.ID, "m0", PlayerAction{Kind: ActionMove, Index: 3})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = env.svc.SubmitPlayerAction(ctx, tour.ID, "m0", PlayerAction{Kind: "dance"})
	assert.ErrorIs(t, err, ErrInvalidPlayerAction)

	_, err = env.svc.SubmitPlayerAction(ctx, tour.ID, "m1", PlayerAction{Kind: ActionMove})
	assert.ErrorIs(t, err, ErrNotPlayerMatch)

	res, err := env.svc.SubmitPlayerAction(ctx, tour.ID, "m0", PlayerAction{Kind: ActionMove, Index: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Outcome.Turn)
	assert.True(t, res.Outcome.Finished)
	require.NotNil(t, res.Outcome.Result)
	assert.Equal(t, tour.PlayerParticipantID, res.Outcome.Result.WinnerID)
	assert.Equal(t, models.MatchCompleted, res.Tournament.Rounds[0][0].Status)

	_, err = env.svc.SubmitPlayerAction(ctx, tour.ID, "m0", PlayerAction{Kind: ActionMove})
	assert.ErrorIs(t, err, ErrMatchNotActive)
}

func TestForfeit_OpponentAdvances(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	tour, err := env.svc.CreateTournament(ctx, "Cup", 4, "team-1")
	require.NoError(t, err)
	_, err = env.svc.Start(ctx, tour.ID)
	require.NoError(t, err)

	after, err := env.svc.Forfeit(ctx, tour.ID, "m0")
	require.NoError(t, err)
	m0 := after.Rounds[0][0]
	assert.Equal(t, models.MatchForfeited, m0.Status)
	require.NotNil(t, m0.ForfeitedBy)
	assert.Equal(t, tour.PlayerParticipantID, *m0.ForfeitedBy)
	opponent := *m0.ParticipantB
	assert.Equal(t, opponent, *m0.WinnerID)
	assert.Equal(t, opponent, *after.Rounds[1][0].ParticipantA)

	// The rest of the bracket is AI-only and resolves in the background.
	env.pool.Wait()
	final, err := env.svc.GetBracket(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, final.Status)
	require.NotNil(t, final.ChampionID)
	assert.NotEqual(t, tour.PlayerParticipantID, *final.ChampionID)
	assert.True(t, final.HistoryRecorded)

	stats, err := env.history.GetStats(ctx, "team-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TournamentsEntered)
	assert.Equal(t, 0, stats.TournamentsWon)
	assert.Equal(t, 1, stats.MatchesLost)
	assert.Equal(t, 1, stats.MatchesForfeited)
}

func TestForfeitAction_MidBattle(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	require.NoError(t, env.teams.Upsert(ctx, &models.Team{ID: "duo", Name: "Duo", Members: []string{"sprout", "drizzle"}}))
	tour, err := env.svc.CreateTournament(ctx, "Cup", 4, "duo")
	require.NoError(t, err)
	_, err = env.svc.Start(ctx, tour.ID)
	require.NoError(t, err)

	res, err := env.svc.SubmitPlayerAction(ctx, tour.ID, "m0", PlayerAction{Kind: ActionMove, Index: 0})
	require.NoError(t, err)
	require.False(t, res.Outcome.Finished)
	res, err = env.svc.SubmitPlayerAction(ctx, tour.ID, "m0", PlayerAction{Kind: ActionSwitch, Index: 1})
	require.NoError(t, err)
	require.False(t, res.Outcome.Finished)
	assert.Equal(t, 2, res.Outcome.Turn)
	require.True(t, env.matches.HasSession(tour.ID, "m0"))

	res, err = env.svc.SubmitPlayerAction(ctx, tour.ID, "m0", PlayerAction{Kind: ActionForfeit})
	require.NoError(t, err)
	m0 := res.Tournament.Rounds[0][0]
	assert.Equal(t, models.MatchForfeited, m0.Status)
	require.NotNil(t, m0.WinnerID)
	assert.Equal(t, *m0.ParticipantB, *m0.WinnerID)
	require.NotNil(t, res.Tournament.Rounds[1][0].ParticipantA)
	assert.Equal(t, *m0.ParticipantB, *res.Tournament.Rounds[1][0].ParticipantA)
	assert.False(t, env.matches.HasSession(tour.ID, "m0"))
}

func TestPlayerLosesByTeamWipe(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	// Drizzle is slower than the sprout it meets in round one and falls first.
	require.NoError(t, env.teams.Upsert(ctx, &models.Team{ID: "slow", Name: "Slow", Members: []string{"drizzle"}}))
	tour, err := env.svc.CreateTournament(ctx, "Cup", 4, "slow")
	require.NoError(t, err)
	require.Equal(t, []string{"sprout"}, tour.Participants[1].Roster)
	_, err = env.svc.Start(ctx, tour.ID)
	require.NoError(t, err)

	_, err = env.playOut(t, tour.ID)
	require.NoError(t, err)
	env.pool.Wait()

	final, err := env.svc.GetBracket(ctx, tour.ID)
	require.NoError(t, err)
	m0 := final.Rounds[0][0]
	assert.Equal(t, models.MatchCompleted, m0.Status)
	require.NotNil(t, m0.WinnerID)
	assert.Equal(t, tour.Participants[1].ID, *m0.WinnerID)
	assert.Equal(t, models.StatusCompleted, final.Status)
	require.NotNil(t, final.ChampionID)
	assert.NotEqual(t, tour.PlayerParticipantID, *final.ChampionID)
	assert.True(t, final.HistoryRecorded)
	assert.False(t, env.matches.HasSession(tour.ID, "m0"))

	stats, err := env.history.GetStats(ctx, "slow")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TournamentsEntered)
	assert.Equal(t, 0, stats.TournamentsWon)
	assert.Equal(t, 0, stats.MatchesWon)
	assert.Equal(t, 1, stats.MatchesLost)
	assert.Equal(t, 0, stats.MatchesForfeited)

	count := 0
	for e, err := range env.history.ListHistory(ctx) {
		assert.NoError(t, err)
		assert.Equal(t, tour.ID, e.TournamentID)
		count++
	}
	assert.Equal(t, 1, count)
}

func TestForfeitAction(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	tour, err := env.svc.CreateTournament(ctx, "Cup", 4, "team-1")
	require.NoError(t, err)
	_, err = env.svc.Start(ctx, tour.ID)
	require.NoError(t, err)

	res, err := env.svc.SubmitPlayerAction(ctx, tour.ID, "m0", PlayerAction{Kind: ActionForfeit})
	require.NoError(t, err)
	assert.Nil(t, res.Outcome)
	assert.Equal(t, models.MatchForfeited, res.Tournament.Rounds[0][0].Status)
}

func TestReportResult_Errors(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	tour, err := env.svc.CreateTournament(ctx, "Cup", 4, "team-1")
	require.NoError(t, err)

	_, err = env.svc.ReportResult(ctx, tour.ID, "m0", MatchResult{WinnerID: tour.PlayerParticipantID})
	assert.ErrorIs(t, err, ErrTournamentNotActive)

	_, err = env.svc.Start(ctx, tour.ID)
	require.NoError(t, err)
	env.pool.Wait()

	player := tour.PlayerParticipantID
	opponent := tour.Participants[1].ID
	tests := []struct {
		name    string
		matchID string
		result  MatchResult
		want    error
	}{
		{"unknown match", "m9", MatchResult{WinnerID: player}, ErrMatchNotFound},
		{"already completed", "m1", MatchResult{WinnerID: tour.Participants[2].ID}, ErrMatchNotResolvable},
		{"final still pending", "m2", MatchResult{WinnerID: player}, ErrMatchNotResolvable},
		{"winner not in match", "m0", MatchResult{WinnerID: tour.Participants[3].ID}, ErrWinnerNotInMatch},
		{"no winner", "m0", MatchResult{}, ErrAmbiguousResult},
		{"forfeit with conflicting winner", "m0", MatchResult{WinnerID: player, ForfeitedBy: player}, ErrAmbiguousResult},
		{"forfeit by outsider", "m0", MatchResult{ForfeitedBy: "stranger"}, ErrWinnerNotInMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.ReportResult(ctx, tour.ID, tt.matchID, tt.result)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// None of the rejected results changed the bracket.
	loaded, err := env.svc.GetBracket(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchActive, loaded.Rounds[0][0].Status)

	after, err := env.svc.ReportResult(ctx, tour.ID, "m0", MatchResult{WinnerID: opponent})
	require.NoError(t, err)
	assert.Equal(t, models.MatchCompleted, after.Rounds[0][0].Status)
	assert.Equal(t, models.MatchReady, after.Rounds[1][0].Status)
	assert.False(t, after.Rounds[1][0].IsPlayerMatch)
}

func TestHistoryFailure_RetriedLater(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()
	tour, err := env.svc.CreateTournament(ctx, "Cup", 4, "team-1")
	require.NoError(t, err)
	_, err = env.svc.Start(ctx, tour.ID)
	require.NoError(t, err)

	final, err := env.playOut(t, tour.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrPersistence)
	require.NotNil(t, final)
	assert.Equal(t, models.StatusCompleted, final.Status)
	assert.False(t, final.HistoryRecorded)

	ids, err := env.tournaments.ListUnrecorded(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{tour.ID}, ids)

	require.NoError(t, env.svc.RetryPendingHistory(ctx))
	require.NoError(t, env.svc.RetryPendingHistory(ctx))

	ids, err = env.tournaments.ListUnrecorded(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	stats, err := env.history.GetStats(ctx, "team-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TournamentsEntered)
	assert.Equal(t, 1, stats.TournamentsWon)
}

func TestResumePending_RestoresReadyMatches(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	tour, err := env.svc.CreateTournament(ctx, "Cup", 4, "team-1")
	require.NoError(t, err)

	// Simulate a crash right after the start was persisted: status active, nothing dispatched.
	tour.Status = models.StatusActive
	require.NoError(t, env.tournaments.Update(ctx, nil, tour))

	require.NoError(t, env.svc.ResumePending(ctx))
	env.pool.Wait()

	loaded, err := env.svc.GetBracket(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchCompleted, loaded.Rounds[0][1].Status)
	assert.Equal(t, models.MatchActive, loaded.Rounds[0][0].Status)
	assert.Equal(t, 1, env.events.count(models.EventYourTurn))

	// The player can act again, and a second resume changes nothing.
	require.NoError(t, env.svc.ResumePending(ctx))
	assert.Equal(t, 1, env.events.count(models.EventYourTurn))
	res, err := env.svc.SubmitPlayerAction(ctx, tour.ID, "m0", PlayerAction{Kind: ActionMove, Index: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Outcome.Turn)
}

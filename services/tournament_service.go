package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/tournament-engine/battle"
	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/google/uuid"
)

// Notifier получает события изменения сетки (websocket hub).
type Notifier interface {
	Publish(event models.BracketEvent)
}

type CompletionRecorder interface {
	RecordCompletion(ctx context.Context, t *models.Tournament) error
}

type TeamProvider interface {
	GetByID(ctx context.Context, id string) (*models.Team, error)
}

// MatchResolver turns battles into MatchResults. *MatchService is the production implementation.
type MatchResolver interface {
	PlayerTurn(t *models.Tournament, m *models.Match, act battle.Action) (*TurnOutcome, error)
	Simulate(m *models.Match, a, b models.Participant) (MatchResult, error)
	Discard(tournamentID, matchID string)
}

type PlayerActionKind string

const (
	ActionMove    PlayerActionKind = "move"
	ActionSwitch  PlayerActionKind = "switch"
	ActionForfeit PlayerActionKind = "forfeit"
)

type PlayerAction struct {
	Kind  PlayerActionKind `json:"kind"`
	Index int              `json:"index"`
}

type PlayerTurnResult struct {
	Outcome    *TurnOutcome       `json:"outcome,omitempty"`
	Tournament *models.Tournament `json:"tournament,omitempty"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, name string, participantCount int, teamID string) (*models.Tournament, error)
	GetBracket(ctx context.Context, tournamentID string) (*models.Tournament, error)
	Start(ctx context.Context, tournamentID string) (*models.Tournament, error)
	ReportResult(ctx context.Context, tournamentID, matchID string, result MatchResult) (*models.Tournament, error)
	SubmitPlayerAction(ctx context.Context, tournamentID, matchID string, action PlayerAction) (*PlayerTurnResult, error)
	Forfeit(ctx context.Context, tournamentID, matchID string) (*models.Tournament, error)
	ResumePending(ctx context.Context) error
	RetryPendingHistory(ctx context.Context) error
}

type tournamentService struct {
	tx              repositories.Transactor
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	teams           TeamProvider
	generator       brackets.BracketGenerator
	resolver        MatchResolver
	pool            *SimulationPool
	history         CompletionRecorder
	notifier        Notifier
	catalog         *models.Catalog
	logger          *slog.Logger
	locks           *keyedMutex
	now             func() time.Time
}

func NewTournamentService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	teams TeamProvider,
	resolver MatchResolver,
	pool *SimulationPool,
	history CompletionRecorder,
	notifier Notifier,
	catalog *models.Catalog,
	logger *slog.Logger,
) TournamentService {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &tournamentService{
		tx:              tx,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		teams:           teams,
		generator:       brackets.NewSingleEliminationGenerator(),
		resolver:        resolver,
		pool:            pool,
		history:         history,
		notifier:        notifier,
		catalog:         catalog,
		logger:          logger,
		locks:           newKeyedMutex(),
		now:             time.Now,
	}
}

type noopNotifier struct{}

func (noopNotifier) Publish(models.BracketEvent) {}

func (s *tournamentService) CreateTournament(ctx context.Context, name string, participantCount int, teamID string) (*models.Tournament, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTournamentNameRequired
	}
	if !brackets.IsAllowedSize(participantCount) {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidParticipantCount, participantCount)
	}

	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTeamNotFound, teamID)
		}
		return nil, storeError("get team "+teamID, err)
	}
	if n := len(team.Members); n < models.MinTeamSize || n > models.MaxTeamSize {
		return nil, fmt.Errorf("%w, got %d", ErrTeamSize, n)
	}
	for _, memberID := range team.Members {
		if _, ok := s.catalog.Lookup(memberID); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTeamMember, memberID)
		}
	}

	participants := s.seatParticipants(team, participantCount)
	ids := make([]string, len(participants))
	for i := range participants {
		ids[i] = participants[i].ID
	}

	rounds, err := s.generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
		ParticipantIDs:      ids,
		PlayerParticipantID: participants[0].ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s bracket: %w", s.generator.GetName(), err)
	}

	t := &models.Tournament{
		ID:                  uuid.NewString(),
		Name:                name,
		ParticipantCount:    participantCount,
		TeamID:              team.ID,
		PlayerParticipantID: participants[0].ID,
		Status:              models.StatusCreated,
		CreatedAt:           s.now().UTC().Truncate(time.Millisecond),
		Participants:        participants,
		Rounds:              rounds,
	}
	t.RefreshPlayerFlags()

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.tournamentRepo.Create(ctx, exec, t); err != nil {
			return err
		}
		if err := s.participantRepo.BatchCreate(ctx, exec, t.ID, t.Participants); err != nil {
			return err
		}
		return s.matchRepo.BatchCreate(ctx, exec, t.ID, t.Matches())
	})
	if err != nil {
		return nil, storeError("create tournament", err)
	}

	s.logger.InfoContext(ctx, "tournament created",
		slog.String("tournament_id", t.ID),
		slog.Int("participants", participantCount),
		slog.String("team_id", team.ID))
	return t, nil
}

// seatParticipants puts the player's team at seed 0 and fills the remaining
// seats with AI opponents of the same roster size drawn from the catalog.
func (s *tournamentService) seatParticipants(team *models.Team, count int) []models.Participant {
	out := make([]models.Participant, 0, count)
	out = append(out, models.Participant{
		ID:          uuid.NewString(),
		Kind:        models.ParticipantPlayer,
		TeamID:      team.ID,
		DisplayName: team.Name,
		Seed:        0,
		Roster:      append([]string(nil), team.Members...),
	})

	// AI seat k takes the k-th consecutive run of len(team.Members) catalog
	// entries, wrapping around the catalog. Members within one roster are
	// distinct while the catalog has at least that many entries.
	pool := s.catalog.Members
	size := len(team.Members)
	for seed := 1; seed < count; seed++ {
		roster := make([]string, size)
		for j := range roster {
			roster[j] = pool[(seed*size+j)%len(pool)].ID
		}
		lead, _ := s.catalog.Lookup(roster[0])
		out = append(out, models.Participant{
			ID:          uuid.NewString(),
			Kind:        models.ParticipantAI,
			TeamID:      AITeamID(roster),
			DisplayName: fmt.Sprintf("%s (AI %d)", lead.Name, seed),
			Seed:        seed,
			Roster:      roster,
		})
	}
	return out
}

// AITeamID идентифицирует AI-команду по составу: одинаковые ростеры в разных
// турнирах копят общую статистику, разные не смешиваются.
func AITeamID(roster []string) string {
	return "ai-" + strings.Join(roster, "-")
}

func (s *tournamentService) GetBracket(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()
	return s.load(ctx, tournamentID)
}

func (s *tournamentService) load(ctx context.Context, id string) (*models.Tournament, error) {
	return loadTournament(ctx, id, s.tournamentRepo, s.participantRepo, s.matchRepo)
}

// Start переводит турнир в active: матчи игрока первого раунда становятся active,
// AI-матчи отправляются на симуляцию.
func (s *tournamentService) Start(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	t, err := s.load(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if !isValidStatusTransition(t.Status, models.StatusActive) {
		return nil, fmt.Errorf("%w: cannot start tournament in status %s", ErrTournamentInvalidStatusTransition, t.Status)
	}

	t.Status = models.StatusActive
	var changed, playerMatches, aiMatches []*models.Match
	for i := range t.Rounds[0] {
		m := &t.Rounds[0][i]
		if m.Status != models.MatchReady {
			continue
		}
		if m.IsPlayerMatch {
			m.Status = models.MatchActive
			changed = append(changed, m)
			playerMatches = append(playerMatches, m)
		} else {
			aiMatches = append(aiMatches, m)
		}
	}

	if err := s.save(ctx, t, changed); err != nil {
		return nil, storeError("start tournament", err)
	}
	s.logger.InfoContext(ctx, "tournament started", slog.String("tournament_id", t.ID))

	s.publish(t, models.EventBracketUpdated, "", t)
	for _, m := range playerMatches {
		s.publish(t, models.EventYourTurn, m.ID, m)
	}
	for _, m := range aiMatches {
		s.dispatchSimulation(t, m)
	}
	return t, nil
}

func (s *tournamentService) ReportResult(ctx context.Context, tournamentID, matchID string, result MatchResult) (*models.Tournament, error) {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	t, err := s.load(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return s.reportLocked(ctx, t, matchID, result)
}

// reportLocked applies a match result to an already loaded tournament. The caller holds the tournament lock.
func (s *tournamentService) reportLocked(ctx context.Context, t *models.Tournament, matchID string, result MatchResult) (*models.Tournament, error) {
	if t.Status != models.StatusActive {
		return nil, fmt.Errorf("%w: %s is %s", ErrTournamentNotActive, t.ID, t.Status)
	}
	m := t.Match(matchID)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	if m.Status != models.MatchReady && m.Status != models.MatchActive {
		return nil, fmt.Errorf("%w: %s is %s", ErrMatchNotResolvable, m.ID, m.Status)
	}

	winner, err := resolveWinner(m, result)
	if err != nil {
		return nil, err
	}
	m.WinnerID = &winner
	m.Status = models.MatchCompleted
	if result.ForfeitedBy != "" {
		forfeiter := result.ForfeitedBy
		m.ForfeitedBy = &forfeiter
		m.Status = models.MatchForfeited
	}

	changed := []*models.Match{m}
	next, err := brackets.ForwardWinner(t, m)
	if err != nil {
		return nil, err
	}

	var playerNext, aiNext *models.Match
	if next != nil {
		changed = append(changed, next)
		if next.Status == models.MatchReady {
			if next.IsPlayerMatch {
				next.Status = models.MatchActive
				playerNext = next
			} else {
				aiNext = next
			}
		}
	} else {
		if !isValidStatusTransition(t.Status, models.StatusCompleted) {
			return nil, fmt.Errorf("%w: cannot complete tournament in status %s", ErrTournamentInvalidStatusTransition, t.Status)
		}
		completedAt := s.now().UTC().Truncate(time.Millisecond)
		t.Status = models.StatusCompleted
		t.ChampionID = &winner
		t.CompletedAt = &completedAt
	}

	if err := s.save(ctx, t, changed); err != nil {
		return nil, storeError("report result", err)
	}
	s.resolver.Discard(t.ID, m.ID)

	s.logger.InfoContext(ctx, "match resolved",
		slog.String("tournament_id", t.ID),
		slog.String("match_id", m.ID),
		slog.String("winner_id", winner),
		slog.String("status", string(m.Status)))

	s.publish(t, models.EventMatchCompleted, m.ID, m)
	s.publish(t, models.EventBracketUpdated, "", t)
	if playerNext != nil {
		s.publish(t, models.EventYourTurn, playerNext.ID, playerNext)
	}
	if aiNext != nil {
		s.dispatchSimulation(t, aiNext)
	}

	if t.Status == models.StatusCompleted {
		s.logger.InfoContext(ctx, "tournament completed",
			slog.String("tournament_id", t.ID), slog.String("champion_id", winner))
		if err := s.history.RecordCompletion(ctx, t); err != nil {
			s.logger.ErrorContext(ctx, "failed to record tournament history, will retry",
				slog.String("tournament_id", t.ID), slog.Any("error", err))
			s.publish(t, models.EventTournamentCompleted, "", t)
			return t, err
		}
		t.HistoryRecorded = true
		s.publish(t, models.EventTournamentCompleted, "", t)
	}
	return t, nil
}

// resolveWinner returns the winning participant. A forfeit always makes the opponent the winner.
func resolveWinner(m *models.Match, result MatchResult) (string, error) {
	if result.ForfeitedBy != "" {
		if !m.HasParticipant(result.ForfeitedBy) {
			return "", fmt.Errorf("%w: %s cannot forfeit match %s", ErrWinnerNotInMatch, result.ForfeitedBy, m.ID)
		}
		opponent := m.Opponent(result.ForfeitedBy)
		if opponent == "" {
			return "", fmt.Errorf("%w: %s has an empty slot", ErrMatchNotResolvable, m.ID)
		}
		if result.WinnerID != "" && result.WinnerID != opponent {
			return "", fmt.Errorf("%w: %s forfeited but %s was reported as winner", ErrAmbiguousResult, result.ForfeitedBy, result.WinnerID)
		}
		return opponent, nil
	}
	if result.WinnerID == "" {
		return "", ErrAmbiguousResult
	}
	if !m.HasParticipant(result.WinnerID) {
		return "", fmt.Errorf("%w: %s in match %s", ErrWinnerNotInMatch, result.WinnerID, m.ID)
	}
	return result.WinnerID, nil
}

func (s *tournamentService) SubmitPlayerAction(ctx context.Context, tournamentID, matchID string, action PlayerAction) (*PlayerTurnResult, error) {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	t, err := s.load(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	m, err := playerMatch(t, matchID)
	if err != nil {
		return nil, err
	}

	var act battle.Action
	switch action.Kind {
	case ActionForfeit:
		t, err = s.reportLocked(ctx, t, m.ID, MatchResult{ForfeitedBy: t.PlayerParticipantID})
		return &PlayerTurnResult{Tournament: t}, err
	case ActionMove:
		act = battle.Move(action.Index)
	case ActionSwitch:
		act = battle.Switch(action.Index)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlayerAction, action.Kind)
	}

	outcome, err := s.resolver.PlayerTurn(t, m, act)
	if err != nil {
		return nil, err
	}
	if !outcome.Finished {
		return &PlayerTurnResult{Outcome: outcome, Tournament: t}, nil
	}

	t, err = s.reportLocked(ctx, t, m.ID, *outcome.Result)
	return &PlayerTurnResult{Outcome: outcome, Tournament: t}, err
}

func (s *tournamentService) Forfeit(ctx context.Context, tournamentID, matchID string) (*models.Tournament, error) {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	t, err := s.load(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	m, err := playerMatch(t, matchID)
	if err != nil {
		return nil, err
	}
	return s.reportLocked(ctx, t, m.ID, MatchResult{ForfeitedBy: t.PlayerParticipantID})
}

func playerMatch(t *models.Tournament, matchID string) (*models.Match, error) {
	if t.Status != models.StatusActive {
		return nil, fmt.Errorf("%w: %s is %s", ErrTournamentNotActive, t.ID, t.Status)
	}
	m := t.Match(matchID)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	if !m.IsPlayerMatch {
		return nil, fmt.Errorf("%w: %s", ErrNotPlayerMatch, m.ID)
	}
	if m.Status != models.MatchActive {
		return nil, fmt.Errorf("%w: %s is %s", ErrMatchNotActive, m.ID, m.Status)
	}
	return m, nil
}

// ResumePending восстанавливает активные турниры после перезапуска: готовые матчи игрока
// становятся active, готовые AI-матчи снова уходят на симуляцию.
func (s *tournamentService) ResumePending(ctx context.Context) error {
	ids, err := s.tournamentRepo.ListIDsByStatus(ctx, models.StatusActive)
	if err != nil {
		return storeError("list active tournaments", err)
	}

	var errs []error
	for _, id := range ids {
		if err := s.resumeTournament(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *tournamentService) resumeTournament(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	t, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if t.Status != models.StatusActive {
		return nil
	}

	var promoted, simulate []*models.Match
	for r := range t.Rounds {
		for i := range t.Rounds[r] {
			m := &t.Rounds[r][i]
			if m.Status != models.MatchReady {
				continue
			}
			if m.IsPlayerMatch {
				m.Status = models.MatchActive
				promoted = append(promoted, m)
			} else {
				simulate = append(simulate, m)
			}
		}
	}

	if len(promoted) > 0 {
		if err := s.save(ctx, t, promoted); err != nil {
			return storeError("resume tournament "+id, err)
		}
		s.publish(t, models.EventBracketUpdated, "", t)
		for _, m := range promoted {
			s.logger.InfoContext(ctx, "player match resumed",
				slog.String("tournament_id", t.ID), slog.String("match_id", m.ID))
			s.publish(t, models.EventYourTurn, m.ID, m)
		}
	}
	for _, m := range simulate {
		s.dispatchSimulation(t, m)
	}
	return nil
}

// RetryPendingHistory records history for completed tournaments whose earlier write failed.
func (s *tournamentService) RetryPendingHistory(ctx context.Context) error {
	ids, err := s.tournamentRepo.ListUnrecorded(ctx)
	if err != nil {
		return storeError("list unrecorded tournaments", err)
	}

	var errs []error
	for _, id := range ids {
		if err := s.retryHistory(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *tournamentService) retryHistory(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	t, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if t.Status != models.StatusCompleted || t.HistoryRecorded {
		return nil
	}
	if err := s.history.RecordCompletion(ctx, t); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "tournament history recorded on retry", slog.String("tournament_id", id))
	return nil
}

func (s *tournamentService) save(ctx context.Context, t *models.Tournament, changed []*models.Match) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.tournamentRepo.Update(ctx, exec, t); err != nil {
			return err
		}
		for _, m := range changed {
			if err := s.matchRepo.Update(ctx, exec, t.ID, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *tournamentService) publish(t *models.Tournament, eventType models.EventType, matchID string, payload interface{}) {
	s.notifier.Publish(models.BracketEvent{
		Type:         eventType,
		TournamentID: t.ID,
		MatchID:      matchID,
		Payload:      payload,
	})
}

// dispatchSimulation queues an AI-only match. The battle runs outside the tournament
// lock and its result goes through ReportResult like any other.
func (s *tournamentService) dispatchSimulation(t *models.Tournament, m *models.Match) {
	a := t.Participant(derefString(m.ParticipantA))
	b := t.Participant(derefString(m.ParticipantB))
	if a == nil || b == nil {
		s.logger.Error("cannot simulate match with unknown participants",
			slog.String("tournament_id", t.ID), slog.String("match_id", m.ID))
		return
	}

	tournamentID := t.ID
	match, pa, pb := *m, *a, *b
	key := tournamentID + "/" + match.ID
	dispatched := s.pool.Dispatch(key, func(ctx context.Context) {
		result, err := s.resolver.Simulate(&match, pa, pb)
		if err != nil {
			s.logger.Error("simulation failed",
				slog.String("tournament_id", tournamentID), slog.String("match_id", match.ID), slog.Any("error", err))
			return
		}
		if _, err := s.ReportResult(ctx, tournamentID, match.ID, result); err != nil {
			s.logger.Warn("failed to report simulated result",
				slog.String("tournament_id", tournamentID), slog.String("match_id", match.ID), slog.Any("error", err))
		}
	})
	if !dispatched {
		s.logger.Debug("simulation already queued", slog.String("job", key))
	}
}

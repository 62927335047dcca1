package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"golang.org/x/sync/errgroup"
)

func isValidStatusTransition(current, next models.TournamentStatus) bool {
	allowedTransitions := map[models.TournamentStatus][]models.TournamentStatus{
		models.StatusCreated:   {models.StatusActive},
		models.StatusActive:    {models.StatusCompleted},
		models.StatusCompleted: {},
	}
	for _, allowedNextStatus := range allowedTransitions[current] {
		if next == allowedNextStatus {
			return true
		}
	}
	return false
}

// storeError wraps a repository failure, keeping not-found errors as they are.
func storeError(op string, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

// loadTournament reads the tournament row, participants and matches concurrently
// and assembles the round arena.
func loadTournament(
	ctx context.Context,
	id string,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
) (*models.Tournament, error) {
	var (
		t            *models.Tournament
		participants []models.Participant
		matches      []models.Match
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		t, err = tournamentRepo.GetByID(gCtx, nil, id)
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrTournamentNotFound, id)
		}
		return err
	})
	g.Go(func() error {
		var err error
		participants, err = participantRepo.ListByTournament(gCtx, nil, id)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = matchRepo.ListByTournament(gCtx, nil, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeError("load tournament "+id, err)
	}

	t.Participants = participants
	rounds, err := assembleRounds(t.ParticipantCount, matches)
	if err != nil {
		return nil, fmt.Errorf("%w: tournament %s: %w", ErrStore, id, err)
	}
	t.Rounds = rounds
	t.RefreshPlayerFlags()
	return t, nil
}

func assembleRounds(participantCount int, matches []models.Match) ([][]models.Match, error) {
	if !brackets.IsAllowedSize(participantCount) {
		return nil, fmt.Errorf("stored participant count %d is not a bracket size", participantCount)
	}
	numRounds := brackets.RoundCount(participantCount)
	rounds := make([][]models.Match, numRounds)
	for _, m := range matches {
		if m.Round < 0 || m.Round >= numRounds {
			return nil, fmt.Errorf("match %s has round %d outside [0,%d)", m.ID, m.Round, numRounds)
		}
		if m.Slot != len(rounds[m.Round]) {
			return nil, fmt.Errorf("match %s has slot %d, expected %d", m.ID, m.Slot, len(rounds[m.Round]))
		}
		rounds[m.Round] = append(rounds[m.Round], m)
	}
	for r := range rounds {
		if want := participantCount >> (r + 1); len(rounds[r]) != want {
			return nil, fmt.Errorf("round %d has %d matches, expected %d", r, len(rounds[r]), want)
		}
	}
	return rounds, nil
}

// keyedMutex hands out one mutex per key and forgets it once nobody holds or waits on it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

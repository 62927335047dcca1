package brackets

import (
	"context"
	"fmt"
	"math/bits"

	"github.com/Dosada05/tournament-engine/models"
)

var (
	ErrInvalidParticipantCount = fmt.Errorf("%w: participant count must be 4, 8 or 16", models.ErrValidation)
	ErrDuplicateParticipant    = fmt.Errorf("%w: duplicate participant id", models.ErrValidation)
	ErrPlayerNotInBracket      = fmt.Errorf("%w: player participant is not in the bracket", models.ErrValidation)
	ErrMatchNotFinished        = fmt.Errorf("%w: match has no winner", models.ErrInvalidState)
	ErrSlotOccupied            = fmt.Errorf("%w: next match slot is already filled", models.ErrInvalidState)
)

// IsAllowedSize reports whether n is a supported bracket size.
func IsAllowedSize(n int) bool {
	return n == 4 || n == 8 || n == 16
}

// RoundCount returns log2(n) for a supported bracket size.
func RoundCount(n int) int {
	return bits.TrailingZeros(uint(n))
}

// NextSlot возвращает, куда уходит победитель матча slot раунда round:
// матч slot/2 раунда round+1, сторона 0 (A) или 1 (B).
func NextSlot(round, slot int) (nextRound, nextSlot, side int) {
	return round + 1, slot / 2, slot % 2
}

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([][]models.Match, error) {
	if err := validateParticipants(params.ParticipantIDs, params.PlayerParticipantID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(params.ParticipantIDs)
	numRounds := RoundCount(n)
	rounds := make([][]models.Match, numRounds)
	matchCounter := 0

	for r := 0; r < numRounds; r++ {
		matchesInRound := n >> (r + 1)
		rounds[r] = make([]models.Match, matchesInRound)
		for i := 0; i < matchesInRound; i++ {
			m := models.Match{
				ID:     fmt.Sprintf("m%d", matchCounter),
				Round:  r,
				Slot:   i,
				Status: models.MatchPending,
			}
			if r == 0 {
				a := params.ParticipantIDs[2*i]
				b := params.ParticipantIDs[2*i+1]
				m.ParticipantA = &a
				m.ParticipantB = &b
				m.Status = models.MatchReady
				m.IsPlayerMatch = a == params.PlayerParticipantID || b == params.PlayerParticipantID
			}
			rounds[r][i] = m
			matchCounter++
		}
	}

	return rounds, nil
}

// Build создаёт турнир в статусе created с полностью размеченной сеткой.
// Посев идёт в порядке participantIDs.
func Build(participantIDs []string, playerParticipantID string) (*models.Tournament, error) {
	rounds, err := NewSingleEliminationGenerator().GenerateBracket(context.Background(), GenerateBracketParams{
		ParticipantIDs:      participantIDs,
		PlayerParticipantID: playerParticipantID,
	})
	if err != nil {
		return nil, err
	}
	return &models.Tournament{
		ParticipantCount:    len(participantIDs),
		PlayerParticipantID: playerParticipantID,
		Status:              models.StatusCreated,
		Rounds:              rounds,
	}, nil
}

// ForwardWinner переносит победителя m в слот следующего раунда и переводит
// тот матч в ready, когда известны обе стороны. Для финала возвращает nil.
func ForwardWinner(t *models.Tournament, m *models.Match) (*models.Match, error) {
	if m.WinnerID == nil || !m.IsFinished() {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFinished, m.ID)
	}
	if t.IsFinalRound(m.Round) {
		return nil, nil
	}

	nr, ns, side := NextSlot(m.Round, m.Slot)
	next := &t.Rounds[nr][ns]
	winner := *m.WinnerID

	target := &next.ParticipantA
	if side == 1 {
		target = &next.ParticipantB
	}
	if *target != nil && **target != winner {
		return nil, fmt.Errorf("%w: %s side %d", ErrSlotOccupied, next.ID, side)
	}
	*target = &winner

	if next.ParticipantA != nil && next.ParticipantB != nil && next.Status == models.MatchPending {
		next.Status = models.MatchReady
	}
	next.IsPlayerMatch = t.PlayerParticipantID != "" && next.HasParticipant(t.PlayerParticipantID)
	return next, nil
}

func validateParticipants(ids []string, playerID string) error {
	if !IsAllowedSize(len(ids)) {
		return fmt.Errorf("%w, got %d", ErrInvalidParticipantCount, len(ids))
	}
	seen := make(map[string]struct{}, len(ids))
	playerFound := false
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateParticipant, id)
		}
		seen[id] = struct{}{}
		if id == playerID {
			playerFound = true
		}
	}
	if !playerFound {
		return fmt.Errorf("%w: %q", ErrPlayerNotInBracket, playerID)
	}
	return nil
}

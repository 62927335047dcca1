package brackets

import (
	"context"

	"github.com/Dosada05/tournament-engine/models"
)

type GenerateBracketParams struct {
	ParticipantIDs      []string
	PlayerParticipantID string
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([][]models.Match, error)

	GetName() string
}

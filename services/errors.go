package services

import (
	"fmt"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/models"
)

// Ошибки сервисного слоя. Каждая оборачивает одну из категорий models.Err*,
// по которой handlers выбирают HTTP-статус.
var (
	// Ошибки валидации при создании турнира
	ErrTournamentNameRequired  = fmt.Errorf("%w: tournament name is required", models.ErrValidation)
	ErrInvalidParticipantCount = brackets.ErrInvalidParticipantCount
	ErrTeamNotFound            = fmt.Errorf("%w: team not found", models.ErrValidation)
	ErrTeamSize                = fmt.Errorf("%w: team must have between %d and %d members", models.ErrValidation, models.MinTeamSize, models.MaxTeamSize)
	ErrUnknownTeamMember       = fmt.Errorf("%w: team member is not in the catalog", models.ErrValidation)
	ErrInvalidPlayerAction     = fmt.Errorf("%w: unknown player action", models.ErrValidation)

	// Ошибки валидации команды
	ErrTeamIDRequired   = fmt.Errorf("%w: team id is required", models.ErrValidation)
	ErrTeamNameRequired = fmt.Errorf("%w: team name is required", models.ErrValidation)

	ErrTournamentNotFound = fmt.Errorf("%w: tournament not found", models.ErrNotFound)
	ErrMatchNotFound      = fmt.Errorf("%w: match not found", models.ErrNotFound)

	// Ошибки состояния
	ErrTournamentInvalidStatusTransition = fmt.Errorf("%w: invalid tournament status transition", models.ErrInvalidState)
	ErrTournamentNotActive               = fmt.Errorf("%w: tournament is not active", models.ErrInvalidState)
	ErrTournamentNotCompleted            = fmt.Errorf("%w: tournament is not completed", models.ErrInvalidState)
	ErrMatchNotResolvable                = fmt.Errorf("%w: match is not ready or active", models.ErrInvalidState)
	ErrMatchNotActive                    = fmt.Errorf("%w: match is not active", models.ErrInvalidState)
	ErrNotPlayerMatch                    = fmt.Errorf("%w: match does not involve the player", models.ErrInvalidState)
	ErrWinnerNotInMatch                  = fmt.Errorf("%w: winner is not a participant of the match", models.ErrInvalidState)
	ErrAmbiguousResult                   = fmt.Errorf("%w: result needs exactly one winner or one forfeiting side", models.ErrInvalidState)

	// Ошибки хранилища
	ErrStore        = fmt.Errorf("%w: store operation failed", models.ErrPersistence)
	ErrHistoryWrite = fmt.Errorf("%w: history write failed", models.ErrPersistence)
)

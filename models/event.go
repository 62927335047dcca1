package models

type EventType string

const (
	EventBracketUpdated      EventType = "BRACKET_UPDATED"
	EventYourTurn            EventType = "YOUR_TURN"
	EventMatchCompleted      EventType = "MATCH_COMPLETED"
	EventTournamentCompleted EventType = "TOURNAMENT_COMPLETED"
)

// BracketEvent is published to subscribers of a tournament whenever its bracket changes.
type BracketEvent struct {
	Type         EventType   `json:"type"`
	TournamentID string      `json:"tournament_id"`
	MatchID      string      `json:"match_id,omitempty"`
	Payload      interface{} `json:"payload,omitempty"`
}

package models

type ParticipantKind string

const (
	ParticipantPlayer ParticipantKind = "player"
	ParticipantAI     ParticipantKind = "ai"
)

// Participant is one bracket entrant. Roster is a copy of the team's member
// ids taken when the tournament was created.
type Participant struct {
	ID          string          `json:"id" db:"id"`
	Kind        ParticipantKind `json:"kind" db:"kind"`
	TeamID      string          `json:"team_id" db:"team_id"`
	DisplayName string          `json:"display_name" db:"display_name"`
	Seed        int             `json:"seed" db:"seed"`
	Roster      []string        `json:"roster" db:"roster"`
}

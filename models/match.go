package models

type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchReady     MatchStatus = "ready"
	MatchActive    MatchStatus = "active"
	MatchCompleted MatchStatus = "completed"
	MatchForfeited MatchStatus = "forfeited"
)

// Match is one pairing of the bracket. Round is 0-indexed and Slot is the
// position within the round.
type Match struct {
	ID            string      `json:"id" db:"id"`
	Round         int         `json:"round" db:"round"`
	Slot          int         `json:"slot" db:"slot"`
	ParticipantA  *string     `json:"participant_a" db:"participant_a"`
	ParticipantB  *string     `json:"participant_b" db:"participant_b"`
	Status        MatchStatus `json:"status" db:"status"`
	WinnerID      *string     `json:"winner_id,omitempty" db:"winner_id"`
	ForfeitedBy   *string     `json:"forfeited_by,omitempty" db:"forfeited_by"`
	IsPlayerMatch bool        `json:"is_player_match" db:"-"`
}

func (m *Match) IsFinished() bool {
	return m.Status == MatchCompleted || m.Status == MatchForfeited
}

func (m *Match) HasParticipant(id string) bool {
	return (m.ParticipantA != nil && *m.ParticipantA == id) ||
		(m.ParticipantB != nil && *m.ParticipantB == id)
}

// Opponent returns the other participant of the match, or "" if id is not in it.
func (m *Match) Opponent(id string) string {
	switch {
	case m.ParticipantA != nil && *m.ParticipantA == id && m.ParticipantB != nil:
		return *m.ParticipantB
	case m.ParticipantB != nil && *m.ParticipantB == id && m.ParticipantA != nil:
		return *m.ParticipantA
	}
	return ""
}

// Loser returns the participant that did not win, if the match is finished.
func (m *Match) Loser() string {
	if m.WinnerID == nil {
		return ""
	}
	return m.Opponent(*m.WinnerID)
}

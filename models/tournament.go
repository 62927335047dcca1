package models

import "time"

// TournamentStatus представляет статусы турнира.
type TournamentStatus string

const (
	StatusCreated   TournamentStatus = "created"
	StatusActive    TournamentStatus = "active"
	StatusCompleted TournamentStatus = "completed"
)

// Tournament представляет турнир с сеткой на выбывание.
// Rounds хранит матчи по раундам, переходы между раундами вычисляются по индексам.
type Tournament struct {
	ID                  string           `json:"id" db:"id"`
	Name                string           `json:"name" db:"name"`
	ParticipantCount    int              `json:"participant_count" db:"participant_count"`
	TeamID              string           `json:"team_id" db:"team_id"`
	PlayerParticipantID string           `json:"player_participant_id" db:"player_participant_id"`
	Status              TournamentStatus `json:"status" db:"status"`
	ChampionID          *string          `json:"champion_id,omitempty" db:"champion_id"`
	CreatedAt           time.Time        `json:"created_at" db:"created_at"`
	CompletedAt         *time.Time       `json:"completed_at,omitempty" db:"completed_at"`
	HistoryRecorded     bool             `json:"-" db:"history_recorded"`

	Participants []Participant `json:"participants" db:"-"`
	Rounds       [][]Match     `json:"rounds" db:"-"`
}

func (t *Tournament) Match(id string) *Match {
	for r := range t.Rounds {
		for i := range t.Rounds[r] {
			if t.Rounds[r][i].ID == id {
				return &t.Rounds[r][i]
			}
		}
	}
	return nil
}

func (t *Tournament) Participant(id string) *Participant {
	for i := range t.Participants {
		if t.Participants[i].ID == id {
			return &t.Participants[i]
		}
	}
	return nil
}

// FinalMatch returns the single match of the last round.
func (t *Tournament) FinalMatch() *Match {
	if len(t.Rounds) == 0 || len(t.Rounds[len(t.Rounds)-1]) == 0 {
		return nil
	}
	return &t.Rounds[len(t.Rounds)-1][0]
}

func (t *Tournament) IsFinalRound(round int) bool {
	return round == len(t.Rounds)-1
}

// Matches returns every match ordered by round, then slot.
func (t *Tournament) Matches() []Match {
	out := make([]Match, 0, t.ParticipantCount)
	for _, round := range t.Rounds {
		out = append(out, round...)
	}
	return out
}

// RefreshPlayerFlags recomputes IsPlayerMatch on every match.
func (t *Tournament) RefreshPlayerFlags() {
	for r := range t.Rounds {
		for i := range t.Rounds[r] {
			t.Rounds[r][i].IsPlayerMatch = t.PlayerParticipantID != "" && t.Rounds[r][i].HasParticipant(t.PlayerParticipantID)
		}
	}
}

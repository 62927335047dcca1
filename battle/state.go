// Package battle resolves two-team battles one simultaneous turn at a time.
//
// Damage dealt by a move is 1 + (power*attack)/(4*max(1, defense)), using
// integer division, so every hit deals at least 1 point. Within a turn
// switches act before moves, then higher move priority, then higher speed of
// the active member; remaining ties go to side A.
package battle

import (
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

const (
	SideA = 0
	SideB = 1

	// NoWinner is the Winner value of an unfinished battle.
	NoWinner = -1
)

var (
	ErrInvalidAction  = fmt.Errorf("%w: invalid battle action", models.ErrValidation)
	ErrBattleFinished = fmt.Errorf("%w: battle already finished", models.ErrInvalidState)
	ErrUnknownMember  = fmt.Errorf("%w: unknown roster member", models.ErrValidation)
)

type Fighter struct {
	MemberID string
	Name     string
	MaxHP    int
	HP       int
	Attack   int
	Defense  int
	Speed    int
	Moves    []models.Move
}

func (f *Fighter) Fainted() bool {
	return f.HP <= 0
}

type Side struct {
	ParticipantID string
	Fighters      []Fighter
	Active        int
}

func (s *Side) ActiveFighter() *Fighter {
	return &s.Fighters[s.Active]
}

// Wiped reports whether every fighter of the side has fainted.
func (s *Side) Wiped() bool {
	for i := range s.Fighters {
		if !s.Fighters[i].Fainted() {
			return false
		}
	}
	return true
}

func (s *Side) remainingHP() (hp, max int) {
	for _, f := range s.Fighters {
		if f.HP > 0 {
			hp += f.HP
		}
		max += f.MaxHP
	}
	return hp, max
}

type State struct {
	Sides    [2]*Side
	Turn     int
	Log      []string
	Finished bool
	Winner   int
}

// NewSide собирает сторону боя из ростера (id бойцов каталога).
func NewSide(participantID string, roster []string, catalog *models.Catalog) (*Side, error) {
	if len(roster) == 0 {
		return nil, fmt.Errorf("%w: participant %s has an empty roster", ErrUnknownMember, participantID)
	}
	side := &Side{ParticipantID: participantID, Fighters: make([]Fighter, 0, len(roster))}
	for _, id := range roster {
		m, ok := catalog.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMember, id)
		}
		side.Fighters = append(side.Fighters, Fighter{
			MemberID: m.ID,
			Name:     m.Name,
			MaxHP:    m.HP,
			HP:       m.HP,
			Attack:   m.Attack,
			Defense:  m.Defense,
			Speed:    m.Speed,
			Moves:    m.Moves,
		})
	}
	return side, nil
}

func NewState(a, b *Side) *State {
	return &State{Sides: [2]*Side{a, b}, Winner: NoWinner}
}

// WinnerID returns the participant id of the winning side, or "" while the battle runs.
func (st *State) WinnerID() string {
	if !st.Finished || st.Winner == NoWinner {
		return ""
	}
	return st.Sides[st.Winner].ParticipantID
}

// SideOf возвращает индекс стороны участника или -1.
func (st *State) SideOf(participantID string) int {
	for i, s := range st.Sides {
		if s.ParticipantID == participantID {
			return i
		}
	}
	return -1
}

func (st *State) logf(format string, args ...interface{}) {
	st.Log = append(st.Log, fmt.Sprintf("T%d: ", st.Turn)+fmt.Sprintf(format, args...))
}

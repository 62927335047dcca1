package services

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Dosada05/tournament-engine/battle"
	"github.com/Dosada05/tournament-engine/models"
)

// MatchResult is what both resolution modes report to the tournament state machine.
// Exactly one of WinnerID and ForfeitedBy is normally set.
type MatchResult struct {
	WinnerID    string   `json:"winner_id,omitempty"`
	ForfeitedBy string   `json:"forfeited_by,omitempty"`
	Log         []string `json:"log,omitempty"`
}

type SideView struct {
	ParticipantID string `json:"participant_id"`
	Active        int    `json:"active"`
	HP            []int  `json:"hp"`
	MaxHP         []int  `json:"max_hp"`
}

// TurnOutcome describes the state of a player battle after one submitted action.
type TurnOutcome struct {
	Turn     int          `json:"turn"`
	Log      []string     `json:"log"`
	Sides    [2]SideView  `json:"sides"`
	Finished bool         `json:"finished"`
	Result   *MatchResult `json:"result,omitempty"`
}

// MatchService разрешает отдельные матчи. Бои игрока хранятся в памяти между
// ходами, симуляция проходит целиком за один вызов.
type MatchService struct {
	catalog  *models.Catalog
	logger   *slog.Logger
	mu       sync.Mutex
	sessions map[string]*battle.State
}

func NewMatchService(catalog *models.Catalog, logger *slog.Logger) *MatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchService{
		catalog:  catalog,
		logger:   logger,
		sessions: make(map[string]*battle.State),
	}
}

func sessionKey(tournamentID, matchID string) string {
	return tournamentID + "/" + matchID
}

// PlayerTurn applies the player's action plus the AI opponent's policy action
// as one turn of the match's battle. An invalid action consumes no turn.
func (s *MatchService) PlayerTurn(t *models.Tournament, m *models.Match, act battle.Action) (*TurnOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey(t.ID, m.ID)
	st, ok := s.sessions[key]
	if !ok {
		var err error
		st, err = s.newBattle(t, m)
		if err != nil {
			return nil, err
		}
		s.sessions[key] = st
	}

	playerSide := st.SideOf(t.PlayerParticipantID)
	if playerSide < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotPlayerMatch, m.ID)
	}
	if err := st.Validate(playerSide, act); err != nil {
		return nil, err
	}

	var actions [2]battle.Action
	actions[playerSide] = act
	actions[1-playerSide] = battle.ChooseAction(st, 1-playerSide)

	logStart := len(st.Log)
	if err := battle.ResolveTurn(st, actions[battle.SideA], actions[battle.SideB]); err != nil {
		return nil, err
	}

	outcome := &TurnOutcome{
		Turn:     st.Turn,
		Log:      append([]string(nil), st.Log[logStart:]...),
		Sides:    [2]SideView{viewSide(st.Sides[battle.SideA]), viewSide(st.Sides[battle.SideB])},
		Finished: st.Finished,
	}
	if st.Finished {
		res := st.Result()
		outcome.Result = &MatchResult{WinnerID: res.WinnerID, Log: res.Log}
		delete(s.sessions, key)
		s.logger.Info("player battle finished",
			slog.String("tournament_id", t.ID), slog.String("match_id", m.ID),
			slog.String("winner_id", res.WinnerID), slog.Int("turns", res.Turns))
	}
	return outcome, nil
}

// Simulate разрешает матч двух AI без внешнего ввода.
func (s *MatchService) Simulate(m *models.Match, a, b models.Participant) (MatchResult, error) {
	sideA, err := battle.NewSide(a.ID, a.Roster, s.catalog)
	if err != nil {
		return MatchResult{}, err
	}
	sideB, err := battle.NewSide(b.ID, b.Roster, s.catalog)
	if err != nil {
		return MatchResult{}, err
	}
	res := battle.Simulate(battle.NewState(sideA, sideB))
	s.logger.Debug("simulated match", slog.String("match_id", m.ID), slog.String("winner_id", res.WinnerID), slog.Int("turns", res.Turns))
	return MatchResult{WinnerID: res.WinnerID, Log: res.Log}, nil
}

// Discard удаляет бой матча из памяти.
func (s *MatchService) Discard(tournamentID, matchID string) {
	s.mu.Lock()
	delete(s.sessions, sessionKey(tournamentID, matchID))
	s.mu.Unlock()
}

func (s *MatchService) HasSession(tournamentID, matchID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[sessionKey(tournamentID, matchID)]
	return ok
}

func (s *MatchService) newBattle(t *models.Tournament, m *models.Match) (*battle.State, error) {
	if m.ParticipantA == nil || m.ParticipantB == nil {
		return nil, fmt.Errorf("%w: match %s has an empty slot", ErrMatchNotResolvable, m.ID)
	}
	var sides [2]*battle.Side
	for i, id := range []string{*m.ParticipantA, *m.ParticipantB} {
		p := t.Participant(id)
		if p == nil {
			return nil, fmt.Errorf("%w: participant %s of match %s", ErrStore, id, m.ID)
		}
		side, err := battle.NewSide(p.ID, p.Roster, s.catalog)
		if err != nil {
			return nil, err
		}
		sides[i] = side
	}
	return battle.NewState(sides[0], sides[1]), nil
}

func viewSide(s *battle.Side) SideView {
	v := SideView{ParticipantID: s.ParticipantID, Active: s.Active}
	for _, f := range s.Fighters {
		v.HP = append(v.HP, f.HP)
		v.MaxHP = append(v.MaxHP, f.MaxHP)
	}
	return v
}

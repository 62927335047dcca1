package battle

import "fmt"

type ActionKind string

const (
	ActionMove   ActionKind = "move"
	ActionSwitch ActionKind = "switch"
)

// Action - выбор одной стороны на ход. Index - номер приёма для ActionMove
// и номер бойца в ростере для ActionSwitch.
type Action struct {
	Kind  ActionKind `json:"kind"`
	Index int        `json:"index"`
}

func Move(i int) Action   { return Action{Kind: ActionMove, Index: i} }
func Switch(i int) Action { return Action{Kind: ActionSwitch, Index: i} }

// Damage возвращает урон, который attacker наносит defender приёмом силы power.
func Damage(attacker, defender *Fighter, power int) int {
	def := defender.Defense
	if def < 1 {
		def = 1
	}
	return 1 + (power*attacker.Attack)/(4*def)
}

// Validate проверяет, может ли сторона side сделать act в текущем состоянии.
func (st *State) Validate(side int, act Action) error {
	if st.Finished {
		return ErrBattleFinished
	}
	s := st.Sides[side]
	switch act.Kind {
	case ActionMove:
		moves := s.ActiveFighter().Moves
		if act.Index < 0 || act.Index >= len(moves) {
			return fmt.Errorf("%w: move index %d out of range [0,%d)", ErrInvalidAction, act.Index, len(moves))
		}
	case ActionSwitch:
		if act.Index < 0 || act.Index >= len(s.Fighters) {
			return fmt.Errorf("%w: member index %d out of range [0,%d)", ErrInvalidAction, act.Index, len(s.Fighters))
		}
		if act.Index == s.Active {
			return fmt.Errorf("%w: member %d is already active", ErrInvalidAction, act.Index)
		}
		if s.Fighters[act.Index].Fainted() {
			return fmt.Errorf("%w: member %d has fainted", ErrInvalidAction, act.Index)
		}
	default:
		return fmt.Errorf("%w: unknown action kind %q", ErrInvalidAction, act.Kind)
	}
	return nil
}

// turnOrder returns the side indices in the order they act.
func (st *State) turnOrder(actions [2]Action) [2]int {
	if st.actsBefore(SideB, SideA, actions) {
		return [2]int{SideB, SideA}
	}
	return [2]int{SideA, SideB}
}

// actsBefore reports whether side x strictly precedes side y this turn.
func (st *State) actsBefore(x, y int, actions [2]Action) bool {
	ax, ay := actions[x], actions[y]
	if ax.Kind == ActionSwitch && ay.Kind != ActionSwitch {
		return true
	}
	if ax.Kind != ActionSwitch && ay.Kind == ActionSwitch {
		return false
	}
	if ax.Kind == ActionMove && ay.Kind == ActionMove {
		px := st.Sides[x].ActiveFighter().Moves[ax.Index].Priority
		py := st.Sides[y].ActiveFighter().Moves[ay.Index].Priority
		if px != py {
			return px > py
		}
	}
	sx := st.Sides[x].ActiveFighter().Speed
	sy := st.Sides[y].ActiveFighter().Speed
	if sx != sy {
		return sx > sy
	}
	return x < y
}

// ResolveTurn применяет один одновременный ход. Оба действия проверяются до
// изменений: при недопустимом действии состояние не меняется.
func ResolveTurn(st *State, a, b Action) error {
	actions := [2]Action{a, b}
	for side, act := range actions {
		if err := st.Validate(side, act); err != nil {
			return err
		}
	}

	st.Turn++
	for _, side := range st.turnOrder(actions) {
		st.execute(side, actions[side])
	}
	for side := range st.Sides {
		st.bringReserve(side)
	}
	st.checkFinished()
	return nil
}

func (st *State) execute(side int, act Action) {
	self := st.Sides[side]
	if act.Kind == ActionSwitch {
		prev := self.ActiveFighter().Name
		self.Active = act.Index
		st.logf("%s switched %s for %s", self.ParticipantID, prev, self.ActiveFighter().Name)
		return
	}

	attacker := self.ActiveFighter()
	if attacker.Fainted() {
		return
	}
	defender := st.Sides[1-side].ActiveFighter()
	if defender.Fainted() {
		return
	}
	move := attacker.Moves[act.Index]
	dmg := Damage(attacker, defender, move.Power)
	defender.HP -= dmg
	if defender.HP < 0 {
		defender.HP = 0
	}
	st.logf("%s used %s on %s for %d damage", attacker.Name, move.Name, defender.Name, dmg)
	if defender.Fainted() {
		st.logf("%s fainted", defender.Name)
	}
}

// bringReserve выводит первого живого бойца, если активный выбыл.
func (st *State) bringReserve(side int) {
	s := st.Sides[side]
	if !s.ActiveFighter().Fainted() {
		return
	}
	for i := range s.Fighters {
		if !s.Fighters[i].Fainted() {
			s.Active = i
			st.logf("%s sent out %s", s.ParticipantID, s.Fighters[i].Name)
			return
		}
	}
}

func (st *State) checkFinished() {
	switch {
	case st.Sides[SideB].Wiped():
		st.finish(SideA)
	case st.Sides[SideA].Wiped():
		st.finish(SideB)
	}
}

func (st *State) finish(winner int) {
	st.Finished = true
	st.Winner = winner
	st.logf("%s wins", st.Sides[winner].ParticipantID)
}

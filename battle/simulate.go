package battle

// MaxTurns ограничивает длину симуляции. Любой удар наносит минимум 1 урона,
// поэтому реальные бои заканчиваются задолго до лимита.
const MaxTurns = 500

// Result is the outcome of a finished battle.
type Result struct {
	WinnerSide int
	WinnerID   string
	Turns      int
	Log        []string
}

// ChooseAction is the fixed AI policy: the move with the highest damage
// against the current opposing active member, ties broken by higher priority
// and then lower index. The policy never switches voluntarily.
func ChooseAction(st *State, side int) Action {
	attacker := st.Sides[side].ActiveFighter()
	defender := st.Sides[1-side].ActiveFighter()

	best, bestDmg, bestPrio := 0, -1, 0
	for i, mv := range attacker.Moves {
		dmg := Damage(attacker, defender, mv.Power)
		if dmg > bestDmg || (dmg == bestDmg && mv.Priority > bestPrio) {
			best, bestDmg, bestPrio = i, dmg, mv.Priority
		}
	}
	return Move(best)
}

// Simulate доигрывает бой до конца, обе стороны ходят по ChooseAction.
func Simulate(st *State) Result {
	for !st.Finished && st.Turn < MaxTurns {
		if err := ResolveTurn(st, ChooseAction(st, SideA), ChooseAction(st, SideB)); err != nil {
			break
		}
	}
	if !st.Finished {
		st.finish(st.leaderByHP())
	}
	return st.Result()
}

// Result snapshots the outcome of a finished battle.
func (st *State) Result() Result {
	log := make([]string, len(st.Log))
	copy(log, st.Log)
	return Result{WinnerSide: st.Winner, WinnerID: st.WinnerID(), Turns: st.Turn, Log: log}
}

// leaderByHP сравнивает оставшуюся долю HP; при равенстве побеждает сторона A.
func (st *State) leaderByHP() int {
	hpA, maxA := st.Sides[SideA].remainingHP()
	hpB, maxB := st.Sides[SideB].remainingHP()
	if hpB*maxA > hpA*maxB {
		return SideB
	}
	return SideA
}

package game

// Observation is everything a player may legitimately know when choosing an
// action. Dice reveals cover concluded rounds only, never the current one.
type Observation struct {
	// PreviousAction is the last non-noop action of the current round, nil
	// when the player opens the round.
	PreviousAction *Bid

	IsSingleDieRound bool
	NumPlayers       int
	NumLivingPlayers int
	NumDiceInPlay    int

	// NumDiceByPlayerHistory has one row per round, indexed by seat,
	// holding remaining dice at round start.
	NumDiceByPlayerHistory [][]int

	// AllRoundsActions holds every round's padded log, the current round
	// last. Index mod NumPlayers identifies the acting seat.
	AllRoundsActions []Actions

	// DiceRevealHistory holds the revealed hands of concluded rounds,
	// indexed by seat.
	DiceRevealHistory [][]DiceCounts
}

// Rotate re-seats the observation so indexToZero becomes seat zero. Action
// logs are padded rather than sliced so index mod NumPlayers still works.
func (o Observation) Rotate(indexToZero int) Observation {
	rotated := o
	rotated.NumDiceByPlayerHistory = make([][]int, len(o.NumDiceByPlayerHistory))
	for i, row := range o.NumDiceByPlayerHistory {
		rotated.NumDiceByPlayerHistory[i] = rotateSlice(row, indexToZero)
	}
	rotated.AllRoundsActions = make([]Actions, len(o.AllRoundsActions))
	for i, log := range o.AllRoundsActions {
		rotated.AllRoundsActions[i] = padRotateActions(log, indexToZero, o.NumPlayers)
	}
	rotated.DiceRevealHistory = make([][]DiceCounts, len(o.DiceRevealHistory))
	for i, row := range o.DiceRevealHistory {
		rotated.DiceRevealHistory[i] = rotateSlice(row, indexToZero)
	}
	return rotated
}

func rotateSlice[T any](s []T, indexToZero int) []T {
	out := make([]T, 0, len(s))
	out = append(out, s[indexToZero:]...)
	out = append(out, s[:indexToZero]...)
	return out
}

// padRotateActions shifts an aligned action log into local coordinates by
// prepending skips, so the entry at indexToZero lands at 0 mod numPlayers.
func padRotateActions(log Actions, indexToZero, numPlayers int) Actions {
	padAmount := (numPlayers - indexToZero) % numPlayers
	out := make(Actions, 0, padAmount+len(log))
	for i := 0; i < padAmount; i++ {
		out = append(out, NoOpFirstTurnSkip{})
	}
	return append(out, log...)
}

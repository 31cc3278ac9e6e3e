package game

// Player is the capability the engine needs from a participant. The engine
// never trusts a Player's own bookkeeping: every returned action is
// re-validated against the true round state.
type Player interface {
	Name() string

	// Initialize tells the player its seat and the table size before the
	// first round.
	Initialize(seat, numPlayers int)

	// SetDice hands the player its fresh roll at the start of each round.
	SetDice(dice DiceCounts)

	// GetAction asks for the player's move. Any result, including garbage,
	// is safe to return: validation downgrades illegal moves.
	GetAction(obs Observation) Action

	// ReactToRoundSummary is called after every round. Most players ignore
	// it.
	ReactToRoundSummary(summary RoundSummary)
}

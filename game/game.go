package game

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
)

// Game is the authoritative turn and round state machine. It owns dice
// counts, turn order, the action history, and elimination, and never trusts
// a Player to report any of those truthfully.
type Game struct {
	players []Player
	numDice []int

	cur            int
	singleDieRound bool

	allRoundsActions []Actions
	allRoundsDice    [][]DiceCounts
	allRoundsLiving  [][]int
	allRoundsLosers  [][]int
	singleDieHistory []bool
	numDiceHistory   [][]int

	rng *rand.Rand
	log *slog.Logger
}

// New builds a game where every player starts with the standard five dice.
func New(players []Player, rng *rand.Rand, logger *slog.Logger) *Game {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	numDice := make([]int, len(players))
	for i := range numDice {
		numDice[i] = StartingDice
	}
	return &Game{
		players: players,
		numDice: numDice,
		cur:     -1,
		rng:     rng,
		log:     logger,
	}
}

func (g *Game) NumPlayers() int { return len(g.players) }

// RemainingDice returns a copy of each seat's remaining die count.
func (g *Game) RemainingDice() []int {
	out := make([]int, len(g.numDice))
	copy(out, g.numDice)
	return out
}

func (g *Game) currentRoundActions() Actions {
	return g.allRoundsActions[len(g.allRoundsActions)-1]
}

func (g *Game) appendAction(a Action) {
	g.allRoundsActions[len(g.allRoundsActions)-1] = append(g.currentRoundActions(), a)
}

// previousBid returns the last non-noop action of the current round, which
// is always a bid while the round is live.
func (g *Game) previousBid() *Bid {
	log := g.currentRoundActions()
	for i := len(log) - 1; i >= 0; i-- {
		if IsNoOp(log[i]) {
			continue
		}
		if b, ok := log[i].(Bid); ok {
			return &b
		}
		return nil
	}
	return nil
}

func (g *Game) numLivingPlayers() int {
	living := 0
	for _, n := range g.numDice {
		if n > 0 {
			living++
		}
	}
	return living
}

func (g *Game) numDiceInPlay() int {
	total := 0
	for _, n := range g.numDice {
		total += n
	}
	return total
}

// nextLivingPlayer walks forward from the current seat. Panics when nobody
// else holds dice, which means the caller broke the game-over check.
func (g *Game) nextLivingPlayer() int {
	next := (g.cur + 1) % len(g.players)
	for g.numDice[next] == 0 {
		if next == g.cur {
			panic("no living player after current")
		}
		next = (next + 1) % len(g.players)
	}
	return next
}

// previousLivingPlayer walks backward from the current seat.
func (g *Game) previousLivingPlayer() int {
	prev := (g.cur - 1 + len(g.players)) % len(g.players)
	for g.numDice[prev] == 0 {
		if prev == g.cur {
			panic("no living player before current")
		}
		prev = (prev - 1 + len(g.players)) % len(g.players)
	}
	return prev
}

// StartNewRound rolls fresh dice for every seat, hands them out, and opens
// a padded action log so that index mod numPlayers is the acting seat.
func (g *Game) StartNewRound(firstPlayer int, singleDieRound bool) {
	if firstPlayer < 0 || firstPlayer >= len(g.players) {
		panic(fmt.Sprintf("first player %d out of range", firstPlayer))
	}
	if g.numDice[firstPlayer] < 1 {
		panic(fmt.Sprintf("first player %d has no dice", firstPlayer))
	}

	g.singleDieHistory = append(g.singleDieHistory, singleDieRound)
	g.singleDieRound = singleDieRound

	log := make(Actions, 0, len(g.players))
	for i := 0; i < firstPlayer; i++ {
		log = append(log, NoOpFirstTurnSkip{})
	}
	g.allRoundsActions = append(g.allRoundsActions, log)

	living := make([]int, 0, len(g.players))
	for offset := 0; offset < len(g.players); offset++ {
		seat := (firstPlayer + offset) % len(g.players)
		if g.numDice[seat] > 0 {
			living = append(living, seat)
		}
	}
	g.allRoundsLiving = append(g.allRoundsLiving, living)

	snapshot := make([]int, len(g.numDice))
	copy(snapshot, g.numDice)
	g.numDiceHistory = append(g.numDiceHistory, snapshot)

	rolls := make([]DiceCounts, len(g.players))
	for seat, player := range g.players {
		rolls[seat] = RollDice(g.rng, g.numDice[seat])
		player.SetDice(rolls[seat])
	}
	g.allRoundsDice = append(g.allRoundsDice, rolls)

	g.cur = firstPlayer
	g.log.Info("round started",
		"round", len(g.allRoundsActions),
		"first_player", g.players[firstPlayer].Name(),
		"single_die", singleDieRound,
		"dice_in_play", g.numDiceInPlay(),
	)
}

func (g *Game) observation() Observation {
	reveals := g.allRoundsDice[:len(g.allRoundsDice)-1]
	return Observation{
		PreviousAction:         g.previousBid(),
		IsSingleDieRound:       g.singleDieRound,
		NumPlayers:             len(g.players),
		NumLivingPlayers:       g.numLivingPlayers(),
		NumDiceInPlay:          g.numDiceInPlay(),
		NumDiceByPlayerHistory: g.numDiceHistory,
		AllRoundsActions:       g.allRoundsActions,
		DiceRevealHistory:      reveals,
	}
}

// TakeTurn runs one turn. It returns false once the game is over.
func (g *Game) TakeTurn() bool {
	player := g.players[g.cur]
	var prev Action
	if b := g.previousBid(); b != nil {
		prev = *b
	}

	action := player.GetAction(g.observation())
	if action == nil {
		action = InvalidAction{Attempted: "nil", Reason: "player returned no action"}
	}
	action = action.Validate(prev, g.singleDieRound)
	g.appendAction(action)
	g.log.Info("turn taken", "player", player.Name(), "action", action.String())

	if end, ok := action.(EndAction); ok {
		allDice := SumDice(g.allRoundsDice[len(g.allRoundsDice)-1])
		var others []int
		for seat, n := range g.numDice {
			if seat != g.cur && n > 0 {
				others = append(others, seat)
			}
		}
		losers := end.GetLosers(prev, allDice, g.singleDieRound, g.cur, g.previousLivingPlayer(), others)
		return g.endRound(losers)
	}

	next := g.nextLivingPlayer()
	for seat := (g.cur + 1) % len(g.players); seat != next; seat = (seat + 1) % len(g.players) {
		g.appendAction(NoOpDead{})
	}
	g.cur = next
	return true
}

// endRound takes a die from each loser, publishes the round summary, and
// either opens the next round or declares the game over.
func (g *Game) endRound(losers []int) bool {
	recorded := make([]int, len(losers))
	copy(recorded, losers)
	g.allRoundsLosers = append(g.allRoundsLosers, recorded)

	for _, seat := range losers {
		if g.numDice[seat] > 0 {
			g.numDice[seat]--
		}
	}

	summary := g.roundSummary(losers)
	for _, player := range g.players {
		player.ReactToRoundSummary(summary)
	}

	if g.numLivingPlayers() <= 1 {
		// The caller may have just lost its own last die, in which case
		// the winner is the one seat still holding dice.
		if g.numDice[g.cur] == 0 {
			g.cur = g.nextLivingPlayer()
		}
		g.log.Info("game over", "winner", g.players[g.cur].Name())
		return false
	}

	var losersWithDice []int
	for _, seat := range losers {
		if g.numDice[seat] > 0 {
			losersWithDice = append(losersWithDice, seat)
		}
	}

	var nextPlayer int
	if len(losersWithDice) > 0 {
		nextPlayer = losersWithDice[g.rng.Intn(len(losersWithDice))]
	} else {
		nextPlayer = g.nextLivingPlayer()
	}

	singleDie := false
	for _, seat := range losersWithDice {
		if g.numDice[seat] == 1 {
			singleDie = true
		}
	}

	g.StartNewRound(nextPlayer, singleDie)
	return true
}

func (g *Game) roundSummary(losers []int) RoundSummary {
	names := make([]string, len(g.players))
	for i, p := range g.players {
		names[i] = p.Name()
	}
	loserNames := make([]string, len(losers))
	for i, seat := range losers {
		loserNames[i] = g.players[seat].Name()
	}
	return RoundSummary{
		Players:        names,
		DiceByPlayer:   g.allRoundsDice[len(g.allRoundsDice)-1],
		Actions:        g.currentRoundActions(),
		SingleDieRound: g.singleDieHistory[len(g.singleDieHistory)-1],
		Losers:         loserNames,
	}
}

// Summary builds the whole-game record. Call only after MainLoop returns.
func (g *Game) Summary(winner int) GameSummary {
	livingNames := make([][]string, len(g.allRoundsLiving))
	for i, seats := range g.allRoundsLiving {
		names := make([]string, len(seats))
		for j, seat := range seats {
			names[j] = g.players[seat].Name()
		}
		livingNames[i] = names
	}
	loserNames := make([][]string, len(g.allRoundsLosers))
	for i, seats := range g.allRoundsLosers {
		names := make([]string, len(seats))
		for j, seat := range seats {
			names[j] = g.players[seat].Name()
		}
		loserNames[i] = names
	}
	return GameSummary{
		AllRoundsActions:      g.allRoundsActions,
		AllRoundsDice:         g.allRoundsDice,
		AllRoundsLivingNames:  livingNames,
		AllRoundsLoserNames:   loserNames,
		SingleDieRoundHistory: g.singleDieHistory,
		Winner:                g.players[winner].Name(),
	}
}

// MainLoop runs a full game and returns the winning seat. The optional
// callback fires once with the winner before returning.
func (g *Game) MainLoop(gameEnd func(winner Player)) int {
	for seat, player := range g.players {
		player.Initialize(seat, len(g.players))
	}
	g.StartNewRound(g.rng.Intn(len(g.players)), false)
	for g.TakeTurn() {
	}
	if gameEnd != nil {
		gameEnd(g.players[g.cur])
	}
	return g.cur
}

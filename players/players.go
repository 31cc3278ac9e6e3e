// Package players provides the bundled player implementations: two bots
// and an interactive human. All of them satisfy game.Player.
package players

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/perudo-net/perudo/game"
)

// Constructor builds a player from a display name. Used to pick a player
// implementation by its registered class name.
type Constructor func(name string) game.Player

var constructors = map[string]Constructor{
	"HumanPlayer": func(name string) game.Player {
		return NewHumanPlayer(name)
	},
	"RandomLegalPlayer": func(name string) game.Player {
		return NewRandomLegalPlayer(name, nil)
	},
	"ProbabilisticPlayer": func(name string) game.Player {
		return NewProbabilisticPlayer(name, nil)
	},
}

// FromClassName builds a player of the named class.
func FromClassName(class, name string) (game.Player, error) {
	constructor, ok := constructors[class]
	if !ok {
		return nil, fmt.Errorf("unknown player class %q", class)
	}
	return constructor(name), nil
}

// ClassNames lists the registered player classes.
func ClassNames() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	return names
}

func defaultRNG(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// base carries the bookkeeping every player shares.
type base struct {
	name       string
	seat       int
	numPlayers int
	dice       game.DiceCounts
}

func (b *base) Name() string { return b.name }

func (b *base) Initialize(seat, numPlayers int) {
	b.seat = seat
	b.numPlayers = numPlayers
}

func (b *base) SetDice(dice game.DiceCounts) { b.dice = dice }

func (b *base) ReactToRoundSummary(summary game.RoundSummary) {}

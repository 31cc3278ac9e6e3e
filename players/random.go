package players

import (
	"math/rand"

	"github.com/perudo-net/perudo/game"
)

// RandomLegalPlayer picks a random legal move. It never bids more dice than
// are in play, and flips a coin on whether to end the round at all.
type RandomLegalPlayer struct {
	base
	rng            *rand.Rand
	endPctChance   float64
	exactPctChance float64
}

func NewRandomLegalPlayer(name string, rng *rand.Rand) *RandomLegalPlayer {
	return &RandomLegalPlayer{
		base:           base{name: name},
		rng:            defaultRNG(rng),
		endPctChance:   0.5,
		exactPctChance: 0.5,
	}
}

func (p *RandomLegalPlayer) endAction() game.Action {
	if p.rng.Float64() < p.exactPctChance {
		return game.Exact{}
	}
	return game.Challenge{}
}

func (p *RandomLegalPlayer) GetAction(obs game.Observation) game.Action {
	if obs.PreviousAction != nil && p.rng.Float64() < p.endPctChance {
		return p.endAction()
	}

	var face, minCount int
	if obs.PreviousAction == nil {
		face = p.rng.Intn(game.NumFaces) + game.MinFace
		if !obs.IsSingleDieRound {
			for face == game.WildFace {
				face = p.rng.Intn(game.NumFaces) + game.MinFace
			}
		}
		minCount = 1
	} else {
		face = p.rng.Intn(game.NumFaces) + game.MinFace
		minCount = obs.PreviousAction.MinNextCount(face)
	}

	if minCount > obs.NumDiceInPlay {
		return p.endAction()
	}

	count := minCount + p.rng.Intn(obs.NumDiceInPlay-minCount+1)
	return game.Bid{Face: face, Count: count}
}

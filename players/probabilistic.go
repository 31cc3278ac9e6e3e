package players

import (
	"math"
	"math/rand"

	"github.com/perudo-net/perudo/game"
)

// ProbabilisticPlayer weighs each legal move by a simple binomial model of
// the unseen dice and plays the least risky one.
type ProbabilisticPlayer struct {
	base
	rng *rand.Rand
}

func NewProbabilisticPlayer(name string, rng *rand.Rand) *ProbabilisticPlayer {
	return &ProbabilisticPlayer{
		base: base{name: name},
		rng:  defaultRNG(rng),
	}
}

// matchProbability is the chance one unseen die matches the face: a flat
// sixth when wilds are off the table, a third otherwise.
func matchProbability(face int, singleDieRound bool) float64 {
	if singleDieRound || face == game.WildFace {
		return 1.0 / 6.0
	}
	return 1.0 / 3.0
}

func binomialTerm(n, k int, p float64) float64 {
	if k < 0 || k > n {
		return 0
	}
	// C(n, k) built up incrementally to dodge factorial overflow.
	c := 1.0
	for i := 0; i < k; i++ {
		c = c * float64(n-i) / float64(i+1)
	}
	return c * math.Pow(p, float64(k)) * math.Pow(1-p, float64(n-k))
}

// challengeSuccessProb is the chance fewer than count dice match the face,
// counting this player's own hand as known.
func (p *ProbabilisticPlayer) challengeSuccessProb(face, count int, singleDieRound bool, numOtherDice int) float64 {
	if p.dice.Count(face) >= count {
		return 0
	}
	prob := 0.0
	needed := count - p.dice.Count(face)
	match := matchProbability(face, singleDieRound)
	for k := 0; k < needed; k++ {
		prob += binomialTerm(numOtherDice, k, match)
	}
	return prob
}

// exactCountProb is the chance exactly count dice match the face.
func (p *ProbabilisticPlayer) exactCountProb(face, count int, singleDieRound bool, numOtherDice int) float64 {
	needed := count - p.dice.Count(face)
	if needed < 0 || needed > numOtherDice {
		return 0
	}
	return binomialTerm(numOtherDice, needed, matchProbability(face, singleDieRound))
}

// openingBid bids a bit under the expected count on a random face.
func (p *ProbabilisticPlayer) openingBid(singleDieRound bool, avgCount float64) game.Action {
	var face int
	if singleDieRound {
		face = p.rng.Intn(game.NumFaces) + game.MinFace
	} else {
		face = p.rng.Intn(game.NumFaces) + game.MinFace
		for face == game.WildFace {
			face = p.rng.Intn(game.NumFaces) + game.MinFace
		}
	}
	return game.Bid{Face: face, Count: int(math.Ceil(avgCount / 2))}
}

func (p *ProbabilisticPlayer) bestFollowUp(prev game.Bid, singleDieRound bool, numOtherDice int) game.Action {
	type candidate struct {
		action game.Action
		value  float64
	}

	candidates := []candidate{
		{game.Challenge{}, p.challengeSuccessProb(prev.Face, prev.Count, singleDieRound, numOtherDice)},
		{game.Exact{}, p.exactCountProb(prev.Face, prev.Count, singleDieRound, numOtherDice)},
	}

	// Bids are valued by how safe they are from the next player calling
	// them out at the minimum legal count.
	firstFace, lastFace := game.MinFace, game.MaxFace
	if singleDieRound {
		firstFace, lastFace = prev.Face, prev.Face
	}
	for face := firstFace; face <= lastFace; face++ {
		minCount := prev.MinNextCount(face)
		pChallenge := p.challengeSuccessProb(face, minCount, singleDieRound, numOtherDice)
		pExact := p.exactCountProb(face, minCount, singleDieRound, numOtherDice)
		candidates = append(candidates, candidate{
			action: game.Bid{Face: face, Count: minCount},
			value:  math.Min(1-pChallenge, 1-pExact),
		})
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.value > best.value {
			best = c
		}
	}
	return best.action
}

func (p *ProbabilisticPlayer) GetAction(obs game.Observation) game.Action {
	numOtherDice := obs.NumDiceInPlay - p.dice.NumDice()
	if numOtherDice == 0 {
		// Holding every die in play cannot happen in a live game. Challenge
		// is the safest answer either way: the engine settles it.
		return game.Challenge{}
	}

	var avgCount float64
	if obs.IsSingleDieRound {
		avgCount = 2 * float64(numOtherDice) / game.NumFaces
	} else {
		avgCount = float64(numOtherDice) / game.NumFaces
	}

	if obs.PreviousAction == nil {
		return p.openingBid(obs.IsSingleDieRound, avgCount)
	}
	return p.bestFollowUp(*obs.PreviousAction, obs.IsSingleDieRound, numOtherDice)
}

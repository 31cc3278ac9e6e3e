package game

import (
	"fmt"
)

// Action is anything a player can put into the round log. Validate checks
// the action against its context and returns the action itself when legal,
// or an InvalidAction describing the violation. It never returns an error:
// an illegal move is a game outcome, not a failure.
type Action interface {
	Tag() string
	Validate(previous Action, singleDieRound bool) Action
	String() string
}

// EndAction is an Action that terminates the round. GetLosers resolves who
// loses a die given the revealed aggregate dice. Seats are engine indices.
type EndAction interface {
	Action
	GetLosers(previous Action, allDice DiceCounts, singleDieRound bool, caller, previousPlayer int, otherPlayers []int) []int
}

// Bid claims there are at least Count dice showing Face across all hands.
type Bid struct {
	Face  int `json:"face"`
	Count int `json:"count"`
}

func (b Bid) Tag() string { return "Bid" }

func (b Bid) String() string { return fmt.Sprintf("Bid(face=%d, count=%d)", b.Face, b.Count) }

func (b Bid) Validate(previous Action, singleDieRound bool) Action {
	if !ValidFace(b.Face) {
		return InvalidAction{Attempted: b.String(), Reason: "invalid face"}
	}
	if b.Count <= 0 {
		return InvalidAction{Attempted: b.String(), Reason: "non-positive count"}
	}

	if previous == nil {
		if b.Face == WildFace && !singleDieRound {
			return InvalidAction{Attempted: b.String(), Reason: "cannot open on the wild face"}
		}
		return b
	}

	prev, ok := previous.(Bid)
	if !ok {
		return InvalidAction{Attempted: b.String(), Reason: "bid following a non-bid"}
	}

	minCount := prev.MinNextCount(b.Face)
	if b.Count < minCount {
		return InvalidAction{
			Attempted: b.String(),
			Reason:    fmt.Sprintf("count for face %d must be at least %d after %s", b.Face, minCount, prev),
		}
	}
	return b
}

// MinNextCount returns the lowest legal count for a follow-up bid on
// nextFace. Crossing the wild boundary halves the count going to wilds and
// doubles it coming back.
func (b Bid) MinNextCount(nextFace int) int {
	switch {
	case nextFace == b.Face:
		return b.Count + 1
	case nextFace > b.Face && b.Face != WildFace:
		return b.Count
	case nextFace == WildFace:
		return ceilDiv(b.Count, 2)
	case b.Face == WildFace:
		return b.Count*2 + 1
	default:
		return ceilDiv(b.Count, 2)*2 + 1
	}
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}

// matchingDice counts dice that satisfy a bid on face. Wilds count toward
// non-wild faces only outside single die rounds.
func matchingDice(allDice DiceCounts, face int, singleDieRound bool) int {
	matching := allDice.Count(face)
	if !singleDieRound && face != WildFace {
		matching += allDice.Count(WildFace)
	}
	return matching
}

// Challenge disputes the previous bid as an overstatement.
type Challenge struct{}

func (c Challenge) Tag() string { return "Challenge" }

func (c Challenge) String() string { return "Challenge" }

func (c Challenge) Validate(previous Action, singleDieRound bool) Action {
	if previous == nil {
		return InvalidAction{Attempted: c.String(), Reason: "cannot open a round with Challenge"}
	}
	return c
}

func (c Challenge) GetLosers(previous Action, allDice DiceCounts, singleDieRound bool, caller, previousPlayer int, otherPlayers []int) []int {
	prev, ok := previous.(Bid)
	if !ok {
		return []int{caller}
	}
	if matchingDice(allDice, prev.Face, singleDieRound) < prev.Count {
		return []int{previousPlayer}
	}
	return []int{caller}
}

// Exact claims the previous bid names the true count on the nose. A correct
// call costs every other living player a die.
type Exact struct{}

func (e Exact) Tag() string { return "Exact" }

func (e Exact) String() string { return "Exact" }

func (e Exact) Validate(previous Action, singleDieRound bool) Action {
	if previous == nil {
		return InvalidAction{Attempted: e.String(), Reason: "cannot open a round with Exact"}
	}
	return e
}

func (e Exact) GetLosers(previous Action, allDice DiceCounts, singleDieRound bool, caller, previousPlayer int, otherPlayers []int) []int {
	prev, ok := previous.(Bid)
	if !ok {
		return []int{caller}
	}
	if matchingDice(allDice, prev.Face, singleDieRound) == prev.Count {
		losers := make([]int, len(otherPlayers))
		copy(losers, otherPlayers)
		return losers
	}
	return []int{caller}
}

// InvalidAction records an illegal move. The engine produces it from
// Validate, players never construct it as a move, and it always ends the
// round against the acting player.
type InvalidAction struct {
	Attempted string `json:"attempted"`
	Reason    string `json:"reason"`
}

func (ia InvalidAction) Tag() string { return "InvalidAction" }

func (ia InvalidAction) String() string {
	return fmt.Sprintf("InvalidAction(%s: %s)", ia.Attempted, ia.Reason)
}

func (ia InvalidAction) Validate(previous Action, singleDieRound bool) Action { return ia }

func (ia InvalidAction) GetLosers(previous Action, allDice DiceCounts, singleDieRound bool, caller, previousPlayer int, otherPlayers []int) []int {
	return []int{caller}
}

// NoOp is a turn in which nothing happened. Used standalone as a liveness
// probe on the wire, and via its alignment variants in round logs.
type NoOp struct{}

func (n NoOp) Tag() string { return "NoOp" }

func (n NoOp) String() string { return "NoOp" }

func (n NoOp) Validate(previous Action, singleDieRound bool) Action {
	return InvalidAction{Attempted: n.String(), Reason: "no-op is not a playable action"}
}

// NoOpFirstTurnSkip pads the front of a round log when the round does not
// open at seat zero, keeping index mod numPlayers equal to the acting seat.
type NoOpFirstTurnSkip struct{}

func (n NoOpFirstTurnSkip) Tag() string { return "NoOpFirstTurnSkip" }

func (n NoOpFirstTurnSkip) String() string { return "NoOpFirstTurnSkip" }

func (n NoOpFirstTurnSkip) Validate(previous Action, singleDieRound bool) Action {
	return InvalidAction{Attempted: n.String(), Reason: "no-op is not a playable action"}
}

// NoOpDead marks a seat skipped because its player has no dice left.
type NoOpDead struct{}

func (n NoOpDead) Tag() string { return "NoOpDead" }

func (n NoOpDead) String() string { return "NoOpDead" }

func (n NoOpDead) Validate(previous Action, singleDieRound bool) Action {
	return InvalidAction{Attempted: n.String(), Reason: "no-op is not a playable action"}
}

// IsNoOp reports whether a is any of the no-op variants.
func IsNoOp(a Action) bool {
	switch a.(type) {
	case NoOp, NoOpFirstTurnSkip, NoOpDead:
		return true
	}
	return false
}

package players

import (
	"math"
	"math/rand"
	"testing"

	"github.com/perudo-net/perudo/game"
)

func TestFromClassName(t *testing.T) {
	p, err := FromClassName("RandomLegalPlayer", "Rando")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "Rando" {
		t.Fatalf("bad name: %s", p.Name())
	}
	if _, err := FromClassName("CheaterPlayer", "x"); err == nil {
		t.Fatal("expected error for unknown class")
	}
}

func TestRandomLegalPlayer_AlwaysLegal(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	p := NewRandomLegalPlayer("Rando", rng)
	p.SetDice(game.RollDice(rng, 5))

	prev := game.Bid{Face: 3, Count: 4}
	for i := 0; i < 500; i++ {
		obs := game.Observation{
			PreviousAction:   &prev,
			IsSingleDieRound: false,
			NumPlayers:       3,
			NumLivingPlayers: 3,
			NumDiceInPlay:    12,
		}
		action := p.GetAction(obs)
		validated := action.Validate(prev, false)
		if _, ok := validated.(game.InvalidAction); ok {
			t.Fatalf("iteration %d: produced illegal action %v", i, action)
		}
	}
}

func TestRandomLegalPlayer_OpeningNeverWildOutsideSingleDie(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	p := NewRandomLegalPlayer("Rando", rng)
	obs := game.Observation{NumPlayers: 2, NumLivingPlayers: 2, NumDiceInPlay: 10}
	for i := 0; i < 200; i++ {
		action := p.GetAction(obs)
		bid, ok := action.(game.Bid)
		if !ok {
			t.Fatalf("opener must bid, got %v", action)
		}
		if bid.Face == game.WildFace {
			t.Fatal("opening bid must not name the wild face")
		}
	}
}

func TestRandomLegalPlayer_EndsWhenNoBidFits(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	p := NewRandomLegalPlayer("Rando", rng)
	prev := game.Bid{Face: 6, Count: 10}
	obs := game.Observation{
		PreviousAction: &prev,
		NumPlayers:     2, NumLivingPlayers: 2,
		NumDiceInPlay: 2,
	}
	sawEnd := false
	for i := 0; i < 100; i++ {
		action := p.GetAction(obs)
		switch action.(type) {
		case game.Challenge, game.Exact:
			sawEnd = true
		case game.Bid:
			validated := action.Validate(prev, false)
			if _, bad := validated.(game.InvalidAction); bad {
				t.Fatalf("illegal bid %v with only 2 dice in play", action)
			}
		}
	}
	if !sawEnd {
		t.Fatal("expected at least one round-ending action")
	}
}

func TestBinomialTerm(t *testing.T) {
	cases := []struct {
		n, k int
		p    float64
		want float64
	}{
		{4, 0, 0.5, 0.0625},
		{4, 2, 0.5, 0.375},
		{4, 4, 0.5, 0.0625},
		{4, 5, 0.5, 0},
		{4, -1, 0.5, 0},
	}
	for _, c := range cases {
		if got := binomialTerm(c.n, c.k, c.p); math.Abs(got-c.want) > 1e-12 {
			t.Errorf("binomialTerm(%d, %d, %v) = %v, want %v", c.n, c.k, c.p, got, c.want)
		}
	}
}

func TestChallengeSuccessProb_OwnDiceSatisfyBid(t *testing.T) {
	p := NewProbabilisticPlayer("Prob", rand.New(rand.NewSource(6)))
	dice, _ := game.DiceFromFaces(3, 3, 3)
	p.SetDice(dice)

	// The bid is already met by our own hand, so a challenge cannot win.
	if got := p.challengeSuccessProb(3, 3, false, 10); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestExactCountProb_Bounds(t *testing.T) {
	p := NewProbabilisticPlayer("Prob", rand.New(rand.NewSource(7)))
	dice, _ := game.DiceFromFaces(2, 2)
	p.SetDice(dice)

	if got := p.exactCountProb(2, 1, false, 5); got != 0 {
		t.Fatalf("needing a negative number of matches must be impossible, got %v", got)
	}
	if got := p.exactCountProb(2, 10, false, 5); got != 0 {
		t.Fatalf("needing more matches than unseen dice must be impossible, got %v", got)
	}
}

func TestProbabilisticPlayer_AlwaysLegal(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	p := NewProbabilisticPlayer("Prob", rng)

	for i := 0; i < 200; i++ {
		p.SetDice(game.RollDice(rng, 5))
		prev := game.Bid{Face: rng.Intn(game.NumFaces) + game.MinFace, Count: rng.Intn(8) + 1}
		obs := game.Observation{
			PreviousAction:   &prev,
			IsSingleDieRound: i%2 == 0,
			NumPlayers:       3,
			NumLivingPlayers: 3,
			NumDiceInPlay:    15,
		}
		action := p.GetAction(obs)
		validated := action.Validate(prev, obs.IsSingleDieRound)
		if _, bad := validated.(game.InvalidAction); bad {
			t.Fatalf("iteration %d: illegal action %v after %v", i, action, prev)
		}
	}
}

func TestProbabilisticPlayer_NoOtherDice(t *testing.T) {
	p := NewProbabilisticPlayer("Prob", rand.New(rand.NewSource(9)))
	dice, _ := game.DiceFromFaces(2, 3, 4, 5, 6)
	p.SetDice(dice)
	obs := game.Observation{NumPlayers: 2, NumLivingPlayers: 1, NumDiceInPlay: 5}
	// A player never fabricates an InvalidAction; holding every die still
	// yields a real move.
	if _, ok := p.GetAction(obs).(game.Challenge); !ok {
		t.Fatalf("expected Challenge when no other dice remain, got %v", p.GetAction(obs))
	}
}

func TestProbabilisticPlayer_SingleDieFollowUpKeepsFace(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	p := NewProbabilisticPlayer("Prob", rng)
	dice, _ := game.DiceFromFaces(4)
	p.SetDice(dice)

	prev := game.Bid{Face: 4, Count: 1}
	obs := game.Observation{
		PreviousAction:   &prev,
		IsSingleDieRound: true,
		NumPlayers:       2,
		NumLivingPlayers: 2,
		NumDiceInPlay:    2,
	}
	for i := 0; i < 50; i++ {
		action := p.GetAction(obs)
		if bid, ok := action.(game.Bid); ok && bid.Face != prev.Face {
			t.Fatalf("single die follow-up bids must keep the face, got %v", bid)
		}
	}
}

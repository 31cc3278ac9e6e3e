package game

import (
	"math/rand"
	"testing"
)

func TestRollDice_CountMatches(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 0; n <= 10; n++ {
		dc := RollDice(rng, n)
		if dc.NumDice() != n {
			t.Fatalf("rolled %d dice, counted %d", n, dc.NumDice())
		}
	}
}

func TestRollDice_AllFacesReachable(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	dc := RollDice(rng, 10000)
	for face := MinFace; face <= MaxFace; face++ {
		if dc.Count(face) == 0 {
			t.Fatalf("face %d never rolled in 10000 dice", face)
		}
	}
}

func TestDiceFromFaces_RejectsBadFace(t *testing.T) {
	if _, err := DiceFromFaces(1, 2, 7); err == nil {
		t.Fatal("expected error for face 7")
	}
}

func TestDiceFromMap(t *testing.T) {
	dc, err := DiceFromMap(map[int]int{3: 2, 6: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dc.Count(3) != 2 || dc.Count(6) != 1 || dc.NumDice() != 3 {
		t.Fatalf("bad counts: %v", dc)
	}
	if _, err := DiceFromMap(map[int]int{0: 1}); err == nil {
		t.Fatal("expected error for face 0")
	}
}

func TestSumDice(t *testing.T) {
	a, _ := DiceFromFaces(1, 1, 3)
	b, _ := DiceFromFaces(3, 6)
	total := SumDice([]DiceCounts{a, b})
	if total.Count(1) != 2 || total.Count(3) != 2 || total.Count(6) != 1 {
		t.Fatalf("bad sum: %v", total)
	}
	if total.NumDice() != 5 {
		t.Fatalf("expected 5 dice, got %d", total.NumDice())
	}
}

func TestDiceCountsString_SkipsZeroFaces(t *testing.T) {
	dc, _ := DiceFromFaces(2, 2, 5)
	if got := dc.String(); got != "2: 2, 5: 1" {
		t.Fatalf("unexpected string: %q", got)
	}
}

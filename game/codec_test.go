package game

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestActionRoundTrip(t *testing.T) {
	cases := []Action{
		Bid{Face: 3, Count: 4},
		Challenge{},
		Exact{},
		InvalidAction{Attempted: "Bid(face=9, count=1)", Reason: "invalid face"},
		NoOp{},
		NoOpFirstTurnSkip{},
		NoOpDead{},
	}
	for _, a := range cases {
		b, err := MarshalAction(a)
		if err != nil {
			t.Fatalf("%s: marshal: %v", a.Tag(), err)
		}
		decoded, err := UnmarshalAction(b)
		if err != nil {
			t.Fatalf("%s: unmarshal: %v", a.Tag(), err)
		}
		if decoded != a {
			t.Fatalf("%s: got %v back", a.Tag(), decoded)
		}
	}
}

func TestUnmarshalAction_UnknownTagFailsClosed(t *testing.T) {
	_, err := UnmarshalAction([]byte(`{"type":"Steal","data":{}}`))
	if !errors.Is(err, ErrUnknownActionTag) {
		t.Fatalf("expected ErrUnknownActionTag, got %v", err)
	}
}

func TestActionsSliceRoundTrip(t *testing.T) {
	log := Actions{NoOpFirstTurnSkip{}, Bid{Face: 2, Count: 1}, NoOpDead{}, Challenge{}}
	b, err := json.Marshal(log)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Actions
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded) != len(log) {
		t.Fatalf("length mismatch: %d vs %d", len(decoded), len(log))
	}
	for i := range log {
		if decoded[i] != log[i] {
			t.Fatalf("entry %d: got %v, want %v", i, decoded[i], log[i])
		}
	}
}

func TestRoundSummaryJSONRoundTrip(t *testing.T) {
	dice, _ := DiceFromFaces(2, 2, 5)
	summary := RoundSummary{
		Players:        []string{"A", "B"},
		DiceByPlayer:   []DiceCounts{dice, {}},
		Actions:        Actions{Bid{Face: 2, Count: 1}, Challenge{}},
		SingleDieRound: true,
		Losers:         []string{"B"},
	}
	b, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded RoundSummary
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Players[1] != "B" || !decoded.SingleDieRound || decoded.DiceByPlayer[0] != dice {
		t.Fatalf("bad round trip: %+v", decoded)
	}
	if decoded.Actions[1] != Action(Challenge{}) {
		t.Fatalf("action lost its type: %v", decoded.Actions[1])
	}
}

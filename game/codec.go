package game

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Actions cross the wire as {"type": tag, "data": fields}. The decoder side
// is a closed registry so an unknown tag fails instead of guessing.

var ErrUnknownActionTag = errors.New("unknown action tag")

type actionEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

var actionDecoders = map[string]func(json.RawMessage) (Action, error){
	"Bid": func(data json.RawMessage) (Action, error) {
		var b Bid
		err := json.Unmarshal(data, &b)
		return b, err
	},
	"Challenge": func(json.RawMessage) (Action, error) { return Challenge{}, nil },
	"Exact":     func(json.RawMessage) (Action, error) { return Exact{}, nil },
	"InvalidAction": func(data json.RawMessage) (Action, error) {
		var ia InvalidAction
		err := json.Unmarshal(data, &ia)
		return ia, err
	},
	"NoOp":              func(json.RawMessage) (Action, error) { return NoOp{}, nil },
	"NoOpFirstTurnSkip": func(json.RawMessage) (Action, error) { return NoOpFirstTurnSkip{}, nil },
	"NoOpDead":          func(json.RawMessage) (Action, error) { return NoOpDead{}, nil },
}

func MarshalAction(a Action) ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return json.Marshal(actionEnvelope{Type: a.Tag(), Data: data})
}

func UnmarshalAction(b []byte) (Action, error) {
	var env actionEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	decode, ok := actionDecoders[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionTag, env.Type)
	}
	return decode(env.Data)
}

// Actions is an action log that round-trips through JSON keeping the
// concrete type of every entry.
type Actions []Action

func (as Actions) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, len(as))
	for i, a := range as {
		b, err := MarshalAction(a)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return json.Marshal(out)
}

func (as *Actions) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	decoded := make(Actions, len(raw))
	for i, r := range raw {
		a, err := UnmarshalAction(r)
		if err != nil {
			return err
		}
		decoded[i] = a
	}
	*as = decoded
	return nil
}

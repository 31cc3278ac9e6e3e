// Package protocol defines the records that cross the wire and the signed
// envelope that carries them. The record set is closed: decoding an
// unregistered tag is an error, never a guess.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/perudo-net/perudo/game"
)

// Record is anything that can travel as an envelope payload. Game actions
// satisfy it directly, so a Bid or Challenge can be a top-level message.
type Record interface {
	Tag() string
}

var ErrUnknownTag = errors.New("unknown record tag")

type recordEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func decodeInto[T Record](data json.RawMessage) (Record, error) {
	var rec T
	err := json.Unmarshal(data, &rec)
	return rec, err
}

var decoders = map[string]func(json.RawMessage) (Record, error){
	"Error":             decodeInto[Error],
	"NoOp":              func(json.RawMessage) (Record, error) { return game.NoOp{}, nil },
	"Corrupted":         decodeInto[Corrupted],
	"ServerHello":       decodeInto[ServerHello],
	"ClientHello":       decodeInto[ClientHello],
	"ActionRequest":     decodeInto[ActionRequest],
	"SetDice":           decodeInto[SetDice],
	"Initialize":        decodeInto[Initialize],
	"RequestRoomList":   decodeInto[RequestRoomList],
	"RoomsListResponse": decodeInto[RoomsListResponse],
	"JoinRoom":          decodeInto[JoinRoom],
	"CreateRoom":        decodeInto[CreateRoom],
	"RoundSummary":      decodeInto[RoundSummary],
	"GameSummary":       decodeInto[GameSummary],

	// Actions sent as stand-alone replies to an ActionRequest.
	"Bid": func(data json.RawMessage) (Record, error) {
		var b game.Bid
		err := json.Unmarshal(data, &b)
		return b, err
	},
	"Challenge":     func(json.RawMessage) (Record, error) { return game.Challenge{}, nil },
	"Exact":         func(json.RawMessage) (Record, error) { return game.Exact{}, nil },
	"InvalidAction": decodeInto[game.InvalidAction],
}

// Encode serializes a record as {"type": tag, "data": fields}.
func Encode(r Record) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return json.Marshal(recordEnvelope{Type: r.Tag(), Data: data})
}

// Decode parses an encoded record, failing closed on unknown tags.
func Decode(b []byte) (Record, error) {
	var env recordEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	decode, ok := decoders[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, env.Type)
	}
	return decode(env.Data)
}

package protocol

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perudo-net/perudo/game"
)

func newKeeper(t *testing.T) *EnvelopeKeeper {
	t.Helper()
	k, err := NewEnvelopeKeeper(nil)
	require.NoError(t, err)
	return k
}

func TestSealOpen_RoundTrip(t *testing.T) {
	sender := newKeeper(t)
	receiver := newKeeper(t)

	b, err := sender.Seal(ClientHello{Name: "Alice"})
	require.NoError(t, err)

	rec, pub, err := receiver.Open(b, nil)
	require.NoError(t, err)
	assert.Equal(t, ClientHello{Name: "Alice"}, rec)
	assert.True(t, pub.Equal(sender.PublicKey()))
}

func TestOpen_RejectsReplay(t *testing.T) {
	sender := newKeeper(t)
	receiver := newKeeper(t)

	b, err := sender.Seal(game.NoOp{})
	require.NoError(t, err)

	_, _, err = receiver.Open(b, nil)
	require.NoError(t, err)

	_, _, err = receiver.Open(b, nil)
	require.ErrorIs(t, err, ErrReplayedSalt)
}

func TestOpen_RejectsTamperedPayload(t *testing.T) {
	sender := newKeeper(t)
	receiver := newKeeper(t)

	b, err := sender.Seal(ClientHello{Name: "Alice"})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(b, &env))
	tampered, err := Encode(ClientHello{Name: "Mallory"})
	require.NoError(t, err)
	env.Data = string(tampered)
	forged, err := json.Marshal(env)
	require.NoError(t, err)

	_, _, err = receiver.Open(forged, nil)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestOpen_RejectsWrongSenderKey(t *testing.T) {
	sender := newKeeper(t)
	imposter := newKeeper(t)
	receiver := newKeeper(t)

	b, err := imposter.Seal(game.NoOp{})
	require.NoError(t, err)

	_, _, err = receiver.Open(b, sender.PublicKey())
	require.ErrorIs(t, err, ErrKeyMismatch)
}

func TestOpen_RejectsVersionMismatch(t *testing.T) {
	sender := newKeeper(t)
	receiver := newKeeper(t)

	b, err := sender.Seal(game.NoOp{})
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(b, &env))
	env.Version = "0.0"
	forged, err := json.Marshal(env)
	require.NoError(t, err)

	_, _, err = receiver.Open(forged, nil)
	require.ErrorIs(t, err, ErrVersionMismatch)
}

func TestOpen_RejectsShortSalt(t *testing.T) {
	sender := newKeeper(t)
	receiver := newKeeper(t)

	b, err := sender.Seal(game.NoOp{})
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(b, &env))
	env.Salt = hex.EncodeToString([]byte("short"))
	forged, err := json.Marshal(env)
	require.NoError(t, err)

	_, _, err = receiver.Open(forged, nil)
	require.ErrorIs(t, err, ErrBadEnvelope)
}

func TestOpen_RejectsMismatchedTypeTag(t *testing.T) {
	sender := newKeeper(t)
	receiver := newKeeper(t)

	// Sign an envelope whose declared type disagrees with the payload.
	data, err := Encode(ClientHello{Name: "Alice"})
	require.NoError(t, err)
	salt, err := sender.freshSalt()
	require.NoError(t, err)
	env := Envelope{
		Salt:      hex.EncodeToString(salt),
		PublicKey: hex.EncodeToString(sender.PublicKey()),
		Type:      "NoOp",
		Data:      string(data),
		Signature: "",
		Version:   Version,
	}
	signed := signEnvelopeForTest(sender, &env, salt, data)

	_, _, err = receiver.Open(signed, nil)
	require.ErrorIs(t, err, ErrBadEnvelope)
}

func signEnvelopeForTest(k *EnvelopeKeeper, env *Envelope, salt, data []byte) []byte {
	sig := ed25519.Sign(k.priv, signingBytes(salt, k.pub, env.Type, data))
	env.Signature = hex.EncodeToString(sig)
	b, _ := json.Marshal(env)
	return b
}

func TestFreshSalt_NeverRepeats(t *testing.T) {
	k := newKeeper(t)
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		salt, err := k.freshSalt()
		require.NoError(t, err)
		_, dup := seen[string(salt)]
		require.False(t, dup, "salt repeated at iteration %d", i)
		seen[string(salt)] = struct{}{}
	}
}

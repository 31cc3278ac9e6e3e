package protocol

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

const (
	// Version is bumped on any incompatible envelope change.
	Version = "0.1"

	// SaltLen is the nonce length in bytes.
	SaltLen = 32
)

var (
	ErrBadSignature    = errors.New("bad envelope signature")
	ErrReplayedSalt    = errors.New("replayed salt")
	ErrVersionMismatch = errors.New("envelope version mismatch")
	ErrKeyMismatch     = errors.New("unexpected sender key")
	ErrBadEnvelope     = errors.New("malformed envelope")
)

// Envelope is the signed wire form of a record. Data holds the codec
// encoding of the payload as a string; the signature covers
// salt, raw public key, type tag, and the data bytes, in that order.
type Envelope struct {
	Salt      string `json:"salt"`
	PublicKey string `json:"public_key"`
	Type      string `json:"type"`
	Data      string `json:"data"`
	Signature string `json:"signature"`
	Version   string `json:"version"`
}

func signingBytes(salt, publicKey []byte, tag string, data []byte) []byte {
	out := make([]byte, 0, len(salt)+len(publicKey)+len(tag)+len(data))
	out = append(out, salt...)
	out = append(out, publicKey...)
	out = append(out, tag...)
	out = append(out, data...)
	return out
}

// EnvelopeKeeper seals outbound records and opens inbound envelopes for one
// endpoint. It owns this side's private key and the replay state: salts it
// has sent never repeat, and a (sender key, salt) pair is accepted once.
type EnvelopeKeeper struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey

	mu            sync.Mutex
	sentSalts     map[string]struct{}
	receivedSalts map[string]map[string]struct{}
}

// NewEnvelopeKeeper wraps an existing key, or generates a fresh one when
// priv is nil.
func NewEnvelopeKeeper(priv ed25519.PrivateKey) (*EnvelopeKeeper, error) {
	if priv == nil {
		var err error
		_, priv, err = ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generating key: %w", err)
		}
	}
	return &EnvelopeKeeper{
		priv:          priv,
		pub:           priv.Public().(ed25519.PublicKey),
		sentSalts:     make(map[string]struct{}),
		receivedSalts: make(map[string]map[string]struct{}),
	}, nil
}

func (k *EnvelopeKeeper) PublicKey() ed25519.PublicKey { return k.pub }

func (k *EnvelopeKeeper) freshSalt() ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for {
		salt := make([]byte, SaltLen)
		if _, err := rand.Read(salt); err != nil {
			return nil, err
		}
		key := string(salt)
		if _, used := k.sentSalts[key]; used {
			continue
		}
		k.sentSalts[key] = struct{}{}
		return salt, nil
	}
}

// Seal wraps a record in a signed envelope and returns its wire bytes.
func (k *EnvelopeKeeper) Seal(r Record) ([]byte, error) {
	data, err := Encode(r)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", r.Tag(), err)
	}
	salt, err := k.freshSalt()
	if err != nil {
		return nil, fmt.Errorf("drawing salt: %w", err)
	}
	signature := ed25519.Sign(k.priv, signingBytes(salt, k.pub, r.Tag(), data))
	return json.Marshal(Envelope{
		Salt:      hex.EncodeToString(salt),
		PublicKey: hex.EncodeToString(k.pub),
		Type:      r.Tag(),
		Data:      string(data),
		Signature: hex.EncodeToString(signature),
		Version:   Version,
	})
}

// Open verifies an inbound envelope and decodes its payload. When expectKey
// is non-nil the envelope must be signed by exactly that key. The payload
// is only decoded after the signature checks out.
func (k *EnvelopeKeeper) Open(b []byte, expectKey ed25519.PublicKey) (Record, ed25519.PublicKey, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	if env.Version != Version {
		return nil, nil, fmt.Errorf("%w: got %q, want %q", ErrVersionMismatch, env.Version, Version)
	}
	salt, err := hex.DecodeString(env.Salt)
	if err != nil || len(salt) != SaltLen {
		return nil, nil, fmt.Errorf("%w: bad salt", ErrBadEnvelope)
	}
	pubBytes, err := hex.DecodeString(env.PublicKey)
	if err != nil || len(pubBytes) != ed25519.PublicKeySize {
		return nil, nil, fmt.Errorf("%w: bad public key", ErrBadEnvelope)
	}
	pub := ed25519.PublicKey(pubBytes)
	if expectKey != nil && !pub.Equal(expectKey) {
		return nil, nil, ErrKeyMismatch
	}
	signature, err := hex.DecodeString(env.Signature)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad signature encoding", ErrBadEnvelope)
	}

	if k.saltSeen(pubBytes, salt) {
		return nil, nil, ErrReplayedSalt
	}

	if !ed25519.Verify(pub, signingBytes(salt, pubBytes, env.Type, []byte(env.Data)), signature) {
		return nil, nil, ErrBadSignature
	}

	rec, err := Decode([]byte(env.Data))
	if err != nil {
		return nil, nil, err
	}
	if rec.Tag() != env.Type {
		return nil, nil, fmt.Errorf("%w: payload tag %q does not match envelope type %q", ErrBadEnvelope, rec.Tag(), env.Type)
	}

	// A salt is burned only after the envelope fully verifies.
	k.markSaltSeen(pubBytes, salt)
	return rec, pub, nil
}

func (k *EnvelopeKeeper) saltSeen(pub, salt []byte) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, seen := k.receivedSalts[string(pub)][string(salt)]
	return seen
}

func (k *EnvelopeKeeper) markSaltSeen(pub, salt []byte) {
	k.mu.Lock()
	defer k.mu.Unlock()
	senderSalts, ok := k.receivedSalts[string(pub)]
	if !ok {
		senderSalts = make(map[string]struct{})
		k.receivedSalts[string(pub)] = senderSalts
	}
	senderSalts[string(salt)] = struct{}{}
}

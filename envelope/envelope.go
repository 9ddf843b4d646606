// Package envelope builds and opens the three nested layers of a gift-wrapped
// direct message: an unsigned rumor, sealed under one ephemeral key, wrapped
// under a second ephemeral key and addressed to the recipient.
//
// The package does no I/O. Every cryptographic operation goes through a
// crypto.Gateway and every ephemeral key comes from a crypto.KeyGenerator.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nbd-wtf/go-nostr"
)

const (
	// KindRumor is the inner, unsigned direct-message payload.
	KindRumor = 14
	// KindSeal is the middle layer, signed by a single-use key.
	KindSeal = 13
	// KindGiftWrap is the outer, transport-visible layer.
	KindGiftWrap = 1059
)

var (
	// ErrInvalidEnvelopeKind indicates a layer whose kind does not match the expected constant.
	ErrInvalidEnvelopeKind = errors.New("envelope: invalid envelope kind")
	// ErrDecryption indicates the cipher rejected a ciphertext.
	ErrDecryption = errors.New("envelope: decryption failed")
	// ErrMalformedPayload indicates decrypted bytes that do not parse as the expected layer.
	ErrMalformedPayload = errors.New("envelope: malformed payload")
	// ErrEncryption indicates a malformed recipient key or cipher input while sealing or wrapping.
	ErrEncryption = errors.New("envelope: encryption failed")
)

// Rumor is the innermost message. It carries the sender's durable public key and is never signed.
type Rumor struct {
	PubKey    string          `json:"pubkey"`
	CreatedAt nostr.Timestamp `json:"created_at"`
	Kind      int             `json:"kind"`
	Tags      nostr.Tags      `json:"tags"`
	Content   string          `json:"content"`
}

// Opened is the result of unwrapping both layers of a gift wrap.
type Opened struct {
	Seal  *nostr.Event
	Rumor Rumor
	// SealVerified reports the advisory seal signature check. A false value
	// does not prevent decryption.
	SealVerified bool
}

// MarshalRumor serializes a rumor deterministically: fixed field order,
// empty tags as [] and no HTML escaping of the content.
func MarshalRumor(rumor Rumor) ([]byte, error) {
	if rumor.Tags == nil {
		rumor.Tags = nostr.Tags{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(rumor); err != nil {
		return nil, fmt.Errorf("marshal rumor: %w", err)
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func unmarshalRumor(raw string) (Rumor, error) {
	var rumor Rumor
	if err := json.Unmarshal([]byte(raw), &rumor); err != nil {
		return Rumor{}, fmt.Errorf("%w: parse rumor: %v", ErrMalformedPayload, err)
	}
	return rumor, nil
}

func unmarshalSeal(raw string) (*nostr.Event, error) {
	var seal nostr.Event
	if err := json.Unmarshal([]byte(raw), &seal); err != nil {
		return nil, fmt.Errorf("%w: parse seal: %v", ErrMalformedPayload, err)
	}
	return &seal, nil
}

// RecipientTag returns the value of the first "p" tag of a gift wrap.
func RecipientTag(gift *nostr.Event) (string, bool) {
	for _, tag := range gift.Tags {
		if len(tag) >= 2 && tag[0] == "p" {
			return tag[1], true
		}
	}
	return "", false
}

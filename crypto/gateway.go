package crypto

import (
	"fmt"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip44"
)

// Gateway is the set of primitives the envelope layers are built from.
// Keys are hex strings; ciphertexts are NIP-44 v2 base64 payloads.
type Gateway interface {
	Encrypt(secretKey, peerPublicKey, plaintext string) (string, error)
	Decrypt(secretKey, peerPublicKey, ciphertext string) (string, error)
	Sign(event *nostr.Event, secretKey string) error
	Verify(event *nostr.Event) bool
	DerivePublicKey(secretKey string) (string, error)
}

// NIP44Gateway implements Gateway with go-nostr's NIP-44 and Schnorr signing.
type NIP44Gateway struct{}

var _ Gateway = NIP44Gateway{}

// Encrypt encrypts plaintext from secretKey to peerPublicKey.
func (NIP44Gateway) Encrypt(secretKey, peerPublicKey, plaintext string) (string, error) {
	conversationKey, err := nip44.GenerateConversationKey(peerPublicKey, secretKey)
	if err != nil {
		return "", fmt.Errorf("derive conversation key: %w", err)
	}

	ciphertext, err := nip44.Encrypt(plaintext, conversationKey)
	if err != nil {
		return "", fmt.Errorf("nip44 encrypt: %w", err)
	}
	return ciphertext, nil
}

// Decrypt reverses Encrypt using the receiver's secret key and the sender's public key.
func (NIP44Gateway) Decrypt(secretKey, peerPublicKey, ciphertext string) (string, error) {
	conversationKey, err := nip44.GenerateConversationKey(peerPublicKey, secretKey)
	if err != nil {
		return "", fmt.Errorf("derive conversation key: %w", err)
	}

	plaintext, err := nip44.Decrypt(ciphertext, conversationKey)
	if err != nil {
		return "", fmt.Errorf("nip44 decrypt: %w", err)
	}
	return plaintext, nil
}

// Sign sets the event's pubkey, id and signature.
func (NIP44Gateway) Sign(event *nostr.Event, secretKey string) error {
	if err := event.Sign(secretKey); err != nil {
		return fmt.Errorf("sign event: %w", err)
	}
	return nil
}

// Verify reports whether the event id and signature are valid.
func (NIP44Gateway) Verify(event *nostr.Event) bool {
	if event == nil {
		return false
	}
	ok, err := event.CheckSignature()
	return err == nil && ok
}

// DerivePublicKey returns the hex public key for a hex secret key.
func (NIP44Gateway) DerivePublicKey(secretKey string) (string, error) {
	publicKey, err := nostr.GetPublicKey(secretKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return publicKey, nil
}

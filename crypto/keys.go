package crypto

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"github.com/nbd-wtf/go-nostr"
	"golang.org/x/crypto/hkdf"
)

// maxDeriveAttempts bounds retries when a derived scalar is not a valid secp256k1 key.
const maxDeriveAttempts = 16

// KeyPair is a single-use key pair.
type KeyPair struct {
	SecretKey string
	PublicKey string
}

// KeyGenerator produces ephemeral key pairs. Every call must return a new pair.
type KeyGenerator interface {
	GenerateKeyPair() (KeyPair, error)
}

// RandomKeys draws ephemeral keys from the system CSPRNG.
type RandomKeys struct{}

// GenerateKeyPair returns a fresh random key pair.
func (RandomKeys) GenerateKeyPair() (KeyPair, error) {
	secretKey := nostr.GeneratePrivateKey()
	publicKey, err := nostr.GetPublicKey(secretKey)
	if err != nil {
		return KeyPair{}, fmt.Errorf("derive ephemeral public key: %w", err)
	}
	return KeyPair{SecretKey: secretKey, PublicKey: publicKey}, nil
}

// SeededKeys derives a reproducible sequence of key pairs from a seed with HKDF-SHA256.
// It is meant for tests; two generators with the same seed yield the same sequence.
type SeededKeys struct {
	seed []byte

	mu      sync.Mutex
	counter uint64
}

// NewSeededKeys creates a deterministic generator.
func NewSeededKeys(seed []byte) *SeededKeys {
	return &SeededKeys{seed: append([]byte(nil), seed...)}
}

// GenerateKeyPair returns the next key pair in the sequence.
func (g *SeededKeys) GenerateKeyPair() (KeyPair, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for attempt := 0; attempt < maxDeriveAttempts; attempt++ {
		info := make([]byte, 8)
		binary.BigEndian.PutUint64(info, g.counter)
		g.counter++

		secret := make([]byte, 32)
		reader := hkdf.New(sha256.New, g.seed, nil, append([]byte("bitnostr ephemeral key "), info...))
		if _, err := io.ReadFull(reader, secret); err != nil {
			return KeyPair{}, fmt.Errorf("derive ephemeral key: %w", err)
		}

		secretKey := hex.EncodeToString(secret)
		publicKey, err := nostr.GetPublicKey(secretKey)
		if err != nil {
			continue
		}
		return KeyPair{SecretKey: secretKey, PublicKey: publicKey}, nil
	}

	return KeyPair{}, fmt.Errorf("derive ephemeral key: %w", ErrInvalidKey)
}

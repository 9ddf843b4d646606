package crypto

import (
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
)

const secretKeyPEMType = "NOSTR SECRET KEY"

// ErrInvalidKey indicates a secret or public key that is not a valid 32-byte secp256k1 value.
var ErrInvalidKey = errors.New("crypto: invalid key")

// Identity is the long-term key pair of a user. Keys are lowercase hex, as go-nostr expects.
type Identity struct {
	SecretKey string
	PublicKey string
}

// NewIdentity derives the public half of an identity from its secret key.
func NewIdentity(secretKey string) (Identity, error) {
	secretKey = strings.ToLower(strings.TrimSpace(secretKey))
	if len(secretKey) != 64 {
		return Identity{}, fmt.Errorf("%w: secret key must be 64 hex characters, got %d", ErrInvalidKey, len(secretKey))
	}
	if _, err := hex.DecodeString(secretKey); err != nil {
		return Identity{}, fmt.Errorf("%w: secret key is not hex: %v", ErrInvalidKey, err)
	}

	publicKey, err := nostr.GetPublicKey(secretKey)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: derive public key: %v", ErrInvalidKey, err)
	}

	return Identity{SecretKey: secretKey, PublicKey: publicKey}, nil
}

// GenerateIdentity creates a fresh random identity.
func GenerateIdentity() (Identity, error) {
	return NewIdentity(nostr.GeneratePrivateKey())
}

// Npub returns the bech32 form of the public key.
func (id Identity) Npub() string {
	npub, err := nip19.EncodePublicKey(id.PublicKey)
	if err != nil {
		return ""
	}
	return npub
}

// ShortKey returns the first 8 characters of a public key for log lines.
func ShortKey(publicKey string) string {
	if len(publicKey) > 8 {
		return publicKey[:8]
	}
	return publicKey
}

// ParseSecretKey accepts a hex secret key or an nsec string and returns the identity.
func ParseSecretKey(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "nsec") {
		prefix, value, err := nip19.Decode(raw)
		if err != nil {
			return Identity{}, fmt.Errorf("%w: decode nsec: %v", ErrInvalidKey, err)
		}
		if prefix != "nsec" {
			return Identity{}, fmt.Errorf("%w: expected nsec prefix, got %s", ErrInvalidKey, prefix)
		}
		secretKey, ok := value.(string)
		if !ok {
			return Identity{}, fmt.Errorf("%w: unexpected nsec payload %T", ErrInvalidKey, value)
		}
		raw = secretKey
	}

	return NewIdentity(raw)
}

// ParsePublicKey accepts a hex public key or an npub string and returns lowercase hex.
func ParsePublicKey(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "npub") {
		prefix, value, err := nip19.Decode(raw)
		if err != nil {
			return "", fmt.Errorf("%w: decode npub: %v", ErrInvalidKey, err)
		}
		if prefix != "npub" {
			return "", fmt.Errorf("%w: not an npub", ErrInvalidKey)
		}
		publicKey, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("%w: unexpected npub payload %T", ErrInvalidKey, value)
		}
		raw = publicKey
	}

	raw = strings.ToLower(raw)
	if !nostr.IsValidPublicKey(raw) {
		return "", fmt.Errorf("%w: %q is not a valid public key", ErrInvalidKey, ShortKey(raw))
	}
	return raw, nil
}

// EnsureIdentity loads an identity from disk, generating and saving it on first run.
func EnsureIdentity(path string) (Identity, error) {
	id, err := LoadIdentity(path)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return Identity{}, err
	}

	id, err = GenerateIdentity()
	if err != nil {
		return Identity{}, err
	}
	if err := SaveIdentity(path, id); err != nil {
		return Identity{}, err
	}

	return id, nil
}

// LoadIdentity reads a secret key PEM file.
func LoadIdentity(path string) (Identity, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Identity{}, fmt.Errorf("read secret key: %w", err)
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return Identity{}, fmt.Errorf("decode secret key PEM: no PEM block")
	}
	if block.Type != secretKeyPEMType {
		return Identity{}, fmt.Errorf("decode secret key PEM: unexpected type %q", block.Type)
	}
	if len(block.Bytes) != 32 {
		return Identity{}, fmt.Errorf("decode secret key PEM: invalid key size %d", len(block.Bytes))
	}

	return NewIdentity(hex.EncodeToString(block.Bytes))
}

// SaveIdentity writes the secret key PEM file with 0600 permissions.
func SaveIdentity(path string, id Identity) error {
	secret, err := hex.DecodeString(id.SecretKey)
	if err != nil || len(secret) != 32 {
		return fmt.Errorf("save secret key: %w", ErrInvalidKey)
	}

	block := &pem.Block{
		Type:  secretKeyPEMType,
		Bytes: secret,
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		return fmt.Errorf("write secret key: %w", err)
	}

	return nil
}

package crypto

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"
)

func TestGatewayEncryptDecryptRoundTrip(t *testing.T) {
	gateway := NIP44Gateway{}
	alice, err := GenerateIdentity()
	require.NoError(t, err)
	bob, err := GenerateIdentity()
	require.NoError(t, err)

	ciphertext, err := gateway.Encrypt(alice.SecretKey, bob.PublicKey, `{"content":"hello"}`)
	require.NoError(t, err)
	require.NotContains(t, ciphertext, "hello")

	plaintext, err := gateway.Decrypt(bob.SecretKey, alice.PublicKey, ciphertext)
	require.NoError(t, err)
	require.Equal(t, `{"content":"hello"}`, plaintext)
}

func TestGatewayDecryptWithWrongKeyFails(t *testing.T) {
	gateway := NIP44Gateway{}
	alice, _ := GenerateIdentity()
	bob, _ := GenerateIdentity()
	carol, _ := GenerateIdentity()

	ciphertext, err := gateway.Encrypt(alice.SecretKey, bob.PublicKey, "for bob only")
	require.NoError(t, err)

	_, err = gateway.Decrypt(carol.SecretKey, alice.PublicKey, ciphertext)
	require.Error(t, err)
}

func TestGatewayEncryptRejectsMalformedPeer(t *testing.T) {
	alice, _ := GenerateIdentity()
	_, err := NIP44Gateway{}.Encrypt(alice.SecretKey, "zz", "hello")
	require.Error(t, err)
}

func TestGatewaySignatureTamperingRejected(t *testing.T) {
	gateway := NIP44Gateway{}
	alice, _ := GenerateIdentity()

	event := nostr.Event{Kind: 1, CreatedAt: nostr.Now(), Tags: nostr.Tags{}, Content: "message to protect"}
	require.NoError(t, gateway.Sign(&event, alice.SecretKey))
	require.Equal(t, alice.PublicKey, event.PubKey)
	require.True(t, gateway.Verify(&event))

	event.Content = "message to protect!"
	require.False(t, gateway.Verify(&event))
	require.False(t, gateway.Verify(nil))
}

func TestSeededKeysAreDeterministicAndDistinct(t *testing.T) {
	first := NewSeededKeys([]byte("seed"))
	second := NewSeededKeys([]byte("seed"))

	a1, err := first.GenerateKeyPair()
	require.NoError(t, err)
	a2, err := first.GenerateKeyPair()
	require.NoError(t, err)
	b1, err := second.GenerateKeyPair()
	require.NoError(t, err)

	require.Equal(t, a1, b1)
	require.NotEqual(t, a1.SecretKey, a2.SecretKey)

	publicKey, err := NIP44Gateway{}.DerivePublicKey(a1.SecretKey)
	require.NoError(t, err)
	require.Equal(t, a1.PublicKey, publicKey)
}

func TestRandomKeysNeverRepeat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 16; i++ {
		pair, err := RandomKeys{}.GenerateKeyPair()
		require.NoError(t, err)
		require.False(t, seen[pair.SecretKey])
		seen[pair.SecretKey] = true
	}
}

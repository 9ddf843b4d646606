package envelope

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"bitnostr/crypto"
)

// Options configures a Codec. Zero values select the production defaults.
type Options struct {
	Gateway crypto.Gateway
	Keys    crypto.KeyGenerator
	Now     func() time.Time
}

// Codec constructs and opens rumor, seal and gift-wrap layers.
type Codec struct {
	gateway crypto.Gateway
	keys    crypto.KeyGenerator
	now     func() time.Time
}

// NewCodec returns a codec using go-nostr primitives unless overridden.
func NewCodec(options Options) *Codec {
	codec := &Codec{
		gateway: options.Gateway,
		keys:    options.Keys,
		now:     options.Now,
	}
	if codec.gateway == nil {
		codec.gateway = crypto.NIP44Gateway{}
	}
	if codec.keys == nil {
		codec.keys = crypto.RandomKeys{}
	}
	if codec.now == nil {
		codec.now = time.Now
	}
	return codec
}

// Gateway returns the primitives the codec was built with.
func (c *Codec) Gateway() crypto.Gateway {
	return c.gateway
}

func (c *Codec) timestamp() nostr.Timestamp {
	return nostr.Timestamp(c.now().Unix())
}

// BuildRumor stamps the current time on a new unsigned rumor.
func (c *Codec) BuildRumor(senderPublicKey, content string) Rumor {
	return Rumor{
		PubKey:    senderPublicKey,
		CreatedAt: c.timestamp(),
		Kind:      KindRumor,
		Tags:      nostr.Tags{},
		Content:   content,
	}
}

// WrapAsSeal encrypts the rumor to the recipient under a fresh ephemeral key
// and signs the seal with that same key.
func (c *Codec) WrapAsSeal(rumor Rumor, recipientPublicKey string) (*nostr.Event, error) {
	sealKeys, err := c.keys.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("%w: seal key: %v", ErrEncryption, err)
	}

	serialized, err := MarshalRumor(rumor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryption, err)
	}

	ciphertext, err := c.gateway.Encrypt(sealKeys.SecretKey, recipientPublicKey, string(serialized))
	if err != nil {
		return nil, fmt.Errorf("%w: seal: %v", ErrEncryption, err)
	}

	seal := &nostr.Event{
		CreatedAt: c.timestamp(),
		Kind:      KindSeal,
		Tags:      nostr.Tags{},
		Content:   ciphertext,
	}
	if err := c.gateway.Sign(seal, sealKeys.SecretKey); err != nil {
		return nil, fmt.Errorf("%w: seal: %v", ErrEncryption, err)
	}

	return seal, nil
}

// WrapAsGift encrypts the seal under a second, independent ephemeral key and
// tags the result with the recipient.
func (c *Codec) WrapAsGift(seal *nostr.Event, recipientPublicKey string) (*nostr.Event, error) {
	wrapKeys, err := c.keys.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("%w: wrap key: %v", ErrEncryption, err)
	}

	serialized, err := json.Marshal(seal)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal seal: %v", ErrEncryption, err)
	}

	ciphertext, err := c.gateway.Encrypt(wrapKeys.SecretKey, recipientPublicKey, string(serialized))
	if err != nil {
		return nil, fmt.Errorf("%w: gift wrap: %v", ErrEncryption, err)
	}

	gift := &nostr.Event{
		CreatedAt: c.timestamp(),
		Kind:      KindGiftWrap,
		Tags:      nostr.Tags{{"p", recipientPublicKey}},
		Content:   ciphertext,
	}
	if err := c.gateway.Sign(gift, wrapKeys.SecretKey); err != nil {
		return nil, fmt.Errorf("%w: gift wrap: %v", ErrEncryption, err)
	}

	return gift, nil
}

// Seal builds all three layers for one message.
func (c *Codec) Seal(senderPublicKey, recipientPublicKey, content string) (*nostr.Event, error) {
	rumor := c.BuildRumor(senderPublicKey, content)

	seal, err := c.WrapAsSeal(rumor, recipientPublicKey)
	if err != nil {
		return nil, err
	}

	return c.WrapAsGift(seal, recipientPublicKey)
}

// UnwrapGift decrypts a gift wrap with the identity secret and returns the seal inside.
// The seal signature is not checked here; see VerifySeal.
func (c *Codec) UnwrapGift(gift *nostr.Event, id crypto.Identity) (*nostr.Event, error) {
	if gift == nil || gift.Kind != KindGiftWrap {
		return nil, fmt.Errorf("%w: expected gift wrap kind %d, got %d", ErrInvalidEnvelopeKind, KindGiftWrap, kindOf(gift))
	}

	plaintext, err := c.gateway.Decrypt(id.SecretKey, gift.PubKey, gift.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: gift wrap %s: %v", ErrDecryption, crypto.ShortKey(gift.ID), err)
	}

	seal, err := unmarshalSeal(plaintext)
	if err != nil {
		return nil, err
	}
	if seal.Kind != KindSeal {
		return nil, fmt.Errorf("%w: expected seal kind %d, got %d", ErrInvalidEnvelopeKind, KindSeal, seal.Kind)
	}

	return seal, nil
}

// VerifySeal checks the seal signature. It only proves that some ephemeral key produced the seal.
func (c *Codec) VerifySeal(seal *nostr.Event) bool {
	return c.gateway.Verify(seal)
}

// UnwrapSeal decrypts a seal with the identity secret and returns the rumor inside.
func (c *Codec) UnwrapSeal(seal *nostr.Event, id crypto.Identity) (Rumor, error) {
	if seal == nil || seal.Kind != KindSeal {
		return Rumor{}, fmt.Errorf("%w: expected seal kind %d, got %d", ErrInvalidEnvelopeKind, KindSeal, kindOf(seal))
	}

	plaintext, err := c.gateway.Decrypt(id.SecretKey, seal.PubKey, seal.Content)
	if err != nil {
		return Rumor{}, fmt.Errorf("%w: seal: %v", ErrDecryption, err)
	}

	rumor, err := unmarshalRumor(plaintext)
	if err != nil {
		return Rumor{}, err
	}
	if rumor.Kind != KindRumor {
		return Rumor{}, fmt.Errorf("%w: expected rumor kind %d, got %d", ErrInvalidEnvelopeKind, KindRumor, rumor.Kind)
	}

	return rumor, nil
}

// Open unwraps both layers and reports the advisory seal signature check.
func (c *Codec) Open(gift *nostr.Event, id crypto.Identity) (Opened, error) {
	seal, err := c.UnwrapGift(gift, id)
	if err != nil {
		return Opened{}, err
	}

	rumor, err := c.UnwrapSeal(seal, id)
	if err != nil {
		return Opened{}, err
	}

	return Opened{
		Seal:         seal,
		Rumor:        rumor,
		SealVerified: c.VerifySeal(seal),
	}, nil
}

func kindOf(event *nostr.Event) int {
	if event == nil {
		return -1
	}
	return event.Kind
}

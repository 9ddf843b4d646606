// Package messaging sends and receives gift-wrapped direct messages and geohash
// channel messages over a relay fan-out.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/rs/zerolog"

	"bitnostr/channel"
	"bitnostr/crypto"
	"bitnostr/envelope"
	"bitnostr/models"
	"bitnostr/relay"
)

const (
	// DefaultDMLookback is how far back a direct message subscription starts when no since is given.
	DefaultDMLookback = 24 * time.Hour
	// DefaultChannelLookback is how far back a channel subscription starts when no since is given.
	DefaultChannelLookback = time.Hour
)

// ErrNoFanout indicates a client built without a relay fan-out.
var ErrNoFanout = errors.New("messaging: relay fanout is required")

// Options configures a Client.
type Options struct {
	Codec  *envelope.Codec
	Fanout *relay.Fanout
	Logger zerolog.Logger

	DMLookback      time.Duration
	ChannelLookback time.Duration

	// RequireVerifiedSeal drops subscribed direct messages whose seal signature fails.
	RequireVerifiedSeal bool
	// OnUnverifiedSeal is called for every subscribed direct message whose seal signature fails.
	OnUnverifiedSeal func(models.DirectMessage)

	Clock func() time.Time
}

// Client is the messaging surface used by applications.
type Client struct {
	codec  *envelope.Codec
	fanout *relay.Fanout
	logger zerolog.Logger

	dmLookback          time.Duration
	channelLookback     time.Duration
	requireVerifiedSeal bool
	onUnverifiedSeal    func(models.DirectMessage)
	clock               func() time.Time
}

// New validates options and applies defaults.
func New(options Options) (*Client, error) {
	if options.Fanout == nil {
		return nil, ErrNoFanout
	}
	if options.Codec == nil {
		options.Codec = envelope.NewCodec(envelope.Options{})
	}
	if options.DMLookback <= 0 {
		options.DMLookback = DefaultDMLookback
	}
	if options.ChannelLookback <= 0 {
		options.ChannelLookback = DefaultChannelLookback
	}
	if options.Clock == nil {
		options.Clock = time.Now
	}

	return &Client{
		codec:               options.Codec,
		fanout:              options.Fanout,
		logger:              options.Logger,
		dmLookback:          options.DMLookback,
		channelLookback:     options.ChannelLookback,
		requireVerifiedSeal: options.RequireVerifiedSeal,
		onUnverifiedSeal:    options.OnUnverifiedSeal,
		clock:               options.Clock,
	}, nil
}

// SendDirectMessage wraps content for the recipient and publishes the gift wrap to every relay.
// The gift wrap is returned whatever the per-relay outcomes; only construction errors fail the call.
func (c *Client) SendDirectMessage(ctx context.Context, id crypto.Identity, recipient, content string) (*nostr.Event, relay.Report, error) {
	recipientPublicKey, err := crypto.ParsePublicKey(recipient)
	if err != nil {
		return nil, relay.Report{}, fmt.Errorf("%w: %v", envelope.ErrEncryption, err)
	}

	gift, err := c.codec.Seal(id.PublicKey, recipientPublicKey, content)
	if err != nil {
		return nil, relay.Report{}, fmt.Errorf("build direct message: %w", err)
	}

	report := c.fanout.Publish(ctx, *gift)
	c.logger.Info().
		Str("event_id", gift.ID).
		Str("recipient", crypto.ShortKey(recipientPublicKey)).
		Int("accepted", report.Accepted()).
		Int("failed", len(report.Failed())).
		Msg("direct message published")

	return gift, report, nil
}

// ReceiveDirectMessage opens a gift wrap addressed to id.
func (c *Client) ReceiveDirectMessage(gift *nostr.Event, id crypto.Identity) (models.DirectMessage, error) {
	opened, err := c.codec.Open(gift, id)
	if err != nil {
		return models.DirectMessage{}, err
	}

	return models.DirectMessage{
		Gift:         gift,
		Content:      opened.Rumor.Content,
		SenderPubKey: opened.Rumor.PubKey,
		Timestamp:    int64(opened.Rumor.CreatedAt),
		SealVerified: opened.SealVerified,
	}, nil
}

// ReplyToDirectMessage opens the incoming gift wrap and answers its sender.
func (c *Client) ReplyToDirectMessage(ctx context.Context, id crypto.Identity, incoming *nostr.Event, content string) (*nostr.Event, relay.Report, error) {
	dm, err := c.ReceiveDirectMessage(incoming, id)
	if err != nil {
		return nil, relay.Report{}, err
	}
	return c.SendDirectMessage(ctx, id, dm.SenderPubKey, content)
}

// SubscribeDirectMessages delivers every gift wrap addressed to id that opens cleanly.
// Events that fail to open are logged at debug level and skipped.
func (c *Client) SubscribeDirectMessages(ctx context.Context, id crypto.Identity, since time.Time, callback func(models.DirectMessage)) *relay.Subscription {
	filter := nostr.Filter{
		Kinds: []int{envelope.KindGiftWrap},
		Tags:  nostr.TagMap{"p": []string{id.PublicKey}},
		Since: c.since(since, c.dmLookback),
	}

	return c.fanout.Subscribe(ctx, filter, func(event *nostr.Event) {
		dm, err := c.ReceiveDirectMessage(event, id)
		if err != nil {
			c.logger.Debug().Err(err).Str("event_id", event.ID).Msg("skipping gift wrap")
			return
		}

		if !dm.SealVerified {
			c.logger.Warn().
				Str("event_id", event.ID).
				Str("sender", crypto.ShortKey(dm.SenderPubKey)).
				Msg("seal signature verification failed")
			if c.onUnverifiedSeal != nil {
				c.onUnverifiedSeal(dm)
			}
			if c.requireVerifiedSeal {
				return
			}
		}

		callback(dm)
	})
}

// SendChannelMessage signs and publishes a geohash channel message.
func (c *Client) SendChannelMessage(ctx context.Context, id crypto.Identity, geohash, content string, opts channel.Options) (*nostr.Event, relay.Report, error) {
	event := channel.NewEvent(geohash, content, opts, nostr.Timestamp(c.clock().Unix()))
	if err := c.codec.Gateway().Sign(&event, id.SecretKey); err != nil {
		return nil, relay.Report{}, fmt.Errorf("sign channel message: %w", err)
	}

	report := c.fanout.Publish(ctx, event)
	c.logger.Info().
		Str("event_id", event.ID).
		Str("geohash", geohash).
		Int("accepted", report.Accepted()).
		Int("failed", len(report.Failed())).
		Msg("channel message published")

	return &event, report, nil
}

// ReplyInSameChannel publishes content to the geohash the incoming event was posted in.
func (c *Client) ReplyInSameChannel(ctx context.Context, id crypto.Identity, incoming *nostr.Event, content string, opts channel.Options) (*nostr.Event, relay.Report, error) {
	geohash, err := channel.Geohash(incoming)
	if err != nil {
		return nil, relay.Report{}, err
	}
	return c.SendChannelMessage(ctx, id, geohash, content, opts)
}

// SubscribeChannel delivers channel messages, optionally narrowed to the given geohashes.
func (c *Client) SubscribeChannel(ctx context.Context, since time.Time, callback func(models.ChannelMessage), geohashes ...string) *relay.Subscription {
	filter := nostr.Filter{
		Kinds: []int{channel.Kind},
		Since: c.since(since, c.channelLookback),
	}
	if len(geohashes) > 0 {
		filter.Tags = nostr.TagMap{"g": geohashes}
	}

	return c.fanout.Subscribe(ctx, filter, func(event *nostr.Event) {
		if event.Kind != channel.Kind {
			return
		}
		callback(channel.Parse(event))
	})
}

func (c *Client) since(since time.Time, lookback time.Duration) *nostr.Timestamp {
	if since.IsZero() {
		since = c.clock().Add(-lookback)
	}
	ts := nostr.Timestamp(since.Unix())
	return &ts
}

// Package channel tags and parses geohash-scoped public channel events.
package channel

import (
	"errors"
	"strings"

	"github.com/nbd-wtf/go-nostr"

	"bitnostr/models"
)

// Kind is the ephemeral event kind used for geohash channel messages.
const Kind = 20000

const teleportTag = "teleport"

var (
	// ErrMissingGeohash indicates a channel event without a "g" tag.
	ErrMissingGeohash = errors.New("channel: missing geohash tag")
	// ErrNotChannelEvent indicates an event of a kind other than Kind.
	ErrNotChannelEvent = errors.New("channel: not a channel event")
)

// Options are the optional presentation tags of a channel message.
type Options struct {
	Nickname   string
	Teleported bool
}

// Tags builds the tag list in wire order: geohash, nickname, teleport marker.
func Tags(geohash string, opts Options) nostr.Tags {
	tags := nostr.Tags{{"g", geohash}}
	if opts.Nickname != "" {
		tags = append(tags, nostr.Tag{"n", opts.Nickname})
	}
	if opts.Teleported {
		tags = append(tags, nostr.Tag{"t", teleportTag})
	}
	return tags
}

// NewEvent returns an unsigned channel event.
func NewEvent(geohash, content string, opts Options, now nostr.Timestamp) nostr.Event {
	return nostr.Event{
		CreatedAt: now,
		Kind:      Kind,
		Tags:      Tags(geohash, opts),
		Content:   content,
	}
}

// Parse decodes a channel event. It never fails; absent tags leave fields empty.
func Parse(event *nostr.Event) models.ChannelMessage {
	msg := models.ChannelMessage{Event: event, Content: event.Content}
	for _, tag := range event.Tags {
		if len(tag) < 2 {
			continue
		}
		switch tag[0] {
		case "g":
			if msg.Geohash == "" {
				msg.Geohash = tag[1]
			}
		case "n":
			if msg.Nickname == "" {
				msg.Nickname = tag[1]
			}
		case "t":
			if tag[1] == teleportTag {
				msg.Teleported = true
			}
		}
	}
	return msg
}

// Geohash returns the first "g" tag value of a channel event.
func Geohash(event *nostr.Event) (string, error) {
	if event.Kind != Kind {
		return "", ErrNotChannelEvent
	}
	if geohash := Parse(event).Geohash; geohash != "" {
		return geohash, nil
	}
	return "", ErrMissingGeohash
}

const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// ValidGeohash reports whether s is a plausible geohash of 1 to 12 characters.
func ValidGeohash(s string) bool {
	if s == "" || len(s) > 12 {
		return false
	}
	for _, r := range strings.ToLower(s) {
		if !strings.ContainsRune(geohashAlphabet, r) {
			return false
		}
	}
	return true
}

package models

import "github.com/nbd-wtf/go-nostr"

// DirectMessage is a decrypted gift-wrapped direct message.
type DirectMessage struct {
	Gift         *nostr.Event `json:"gift"`
	Content      string       `json:"content"`
	SenderPubKey string       `json:"sender_pubkey"`
	Timestamp    int64        `json:"timestamp"`
	// SealVerified reports whether the seal signature checked out. Decryption never depends on it.
	SealVerified bool `json:"seal_verified"`
}

// ChannelMessage is a geohash channel event with its tags decoded.
// Geohash and Nickname are empty when the event carries no such tag.
type ChannelMessage struct {
	Event      *nostr.Event `json:"event"`
	Geohash    string       `json:"geohash"`
	Nickname   string       `json:"nickname"`
	Teleported bool         `json:"teleported"`
	Content    string       `json:"content"`
}

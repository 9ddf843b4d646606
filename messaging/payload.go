package messaging

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// BitchatPrefix marks direct message content carrying a BitChat binary payload.
const BitchatPrefix = "bitchat1:"

// ErrNotBitchatPayload indicates content without the BitChat prefix.
var ErrNotBitchatPayload = errors.New("messaging: not a bitchat payload")

// EncodeBitchatPayload renders a binary payload as direct message content.
func EncodeBitchatPayload(payload []byte) string {
	return BitchatPrefix + base64.RawURLEncoding.EncodeToString(payload)
}

// DecodeBitchatPayload extracts the binary payload from direct message content.
// Padded base64url is accepted as well.
func DecodeBitchatPayload(content string) ([]byte, error) {
	encoded, ok := strings.CutPrefix(content, BitchatPrefix)
	if !ok {
		return nil, ErrNotBitchatPayload
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotBitchatPayload, err)
	}
	return payload, nil
}

package messaging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitchatPayload(t *testing.T) {
	raw := []byte{0x01, 0xfb, 0xff, 0x00, 0x7e}

	content := EncodeBitchatPayload(raw)
	require.Equal(t, "bitchat1:Afv_AH4", content)

	decoded, err := DecodeBitchatPayload(content)
	require.NoError(t, err)
	require.Equal(t, raw, decoded)

	decoded, err = DecodeBitchatPayload("bitchat1:Afv_AH4=")
	require.NoError(t, err)
	require.Equal(t, raw, decoded)

	_, err = DecodeBitchatPayload("hello")
	require.ErrorIs(t, err, ErrNotBitchatPayload)

	_, err = DecodeBitchatPayload("bitchat1:***")
	require.ErrorIs(t, err, ErrNotBitchatPayload)
}

package chain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashFromHex(t *testing.T) {
	hexStr := strings.Repeat("ab", HashSize)

	h, err := HashFromHex(hexStr)
	require.NoError(t, err)
	require.Equal(t, hexStr, h.String())
	require.False(t, h.IsZero())

	_, err = HashFromHex("abcd")
	require.Error(t, err)

	_, err = HashFromHex(strings.Repeat("zz", HashSize))
	require.Error(t, err)
}

func TestHashIsZero(t *testing.T) {
	require.True(t, Hash{}.IsZero())
}

func TestOutpointString(t *testing.T) {
	var h Hash
	h[0] = 0xff

	o := Outpoint{Hash: h, Index: 3}
	require.Equal(t, h.String()+":3", o.String())
}

func TestParseCovenantKind(t *testing.T) {
	tests := map[string]CovenantKind{
		"":         CovenantNone,
		"NONE":     CovenantNone,
		"OPEN":     CovenantOpen,
		"BID":      CovenantBid,
		"REVEAL":   CovenantReveal,
		"REGISTER": CovenantRegister,
		"REVOKE":   CovenantRevoke,
		"CLAIM":    CovenantOther,
		"REDEEM":   CovenantOther,
		"UPDATE":   CovenantOther,
		"RENEW":    CovenantOther,
		"TRANSFER": CovenantOther,
		"FINALIZE": CovenantOther,
	}

	for action, kind := range tests {
		require.Equal(t, kind, ParseCovenantKind(action), "action=%q", action)
	}
}

func TestCovenantKindString(t *testing.T) {
	for _, kind := range []CovenantKind{
		CovenantNone, CovenantOpen, CovenantBid, CovenantReveal,
		CovenantRegister, CovenantRevoke, CovenantOther,
	} {
		require.Equal(t, kind, ParseCovenantKind(kind.String()))
	}
}

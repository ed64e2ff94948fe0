package chain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	pkgchain "github.com/hns-tools/auctionwatch/pkg/chain"
)

func hexHash(fill string) string {
	return strings.Repeat(fill, 32)
}

func TestDecodeBlock(t *testing.T) {
	w := &wireBlock{
		Hash:      hexHash("aa"),
		PrevBlock: hexHash("bb"),
		Height:    1234,
		Txs: []wireTx{
			{
				Hash: hexHash("cc"),
				Outputs: []wireOutput{
					{
						Value: 5000,
						Covenant: wireCovenant{
							Action: "BID",
							Items:  []string{hexHash("dd"), "deadbeef"},
						},
					},
					{Value: 42},
				},
			},
		},
	}

	block, err := decodeBlock(w)
	require.NoError(t, err)

	require.Equal(t, uint64(1234), block.Height)
	require.Equal(t, hexHash("aa"), block.Hash.String())
	require.Equal(t, hexHash("bb"), block.PrevHash.String())
	require.Len(t, block.Txs, 1)

	tx := block.Txs[0]
	require.Equal(t, hexHash("cc"), tx.Hash.String())
	require.Len(t, tx.Outputs, 2)

	bid := tx.Outputs[0]
	require.Equal(t, pkgchain.CovenantBid, bid.Covenant.Kind)
	require.Equal(t, uint64(5000), bid.Value)
	require.Equal(t, hexHash("dd"), bid.Covenant.NameHash.String())

	plain := tx.Outputs[1]
	require.Equal(t, pkgchain.CovenantNone, plain.Covenant.Kind)
	require.True(t, plain.Covenant.NameHash.IsZero())
}

func TestDecodeBlock_RejectsBadHashes(t *testing.T) {
	_, err := decodeBlock(&wireBlock{Hash: "zz", PrevBlock: hexHash("bb")})
	require.Error(t, err)

	_, err = decodeBlock(&wireBlock{Hash: hexHash("aa"), PrevBlock: "short"})
	require.Error(t, err)
}

func TestDecodeOutput_UnknownActionIsOther(t *testing.T) {
	out, err := decodeOutput(wireOutput{
		Value:    100,
		Covenant: wireCovenant{Action: "FINALIZE", Items: []string{hexHash("aa")}},
	})
	require.NoError(t, err)
	require.Equal(t, pkgchain.CovenantOther, out.Covenant.Kind)
	// items of non-auction covenants are not interpreted
	require.True(t, out.Covenant.NameHash.IsZero())
}

func TestDecodeOutput_AuctionCovenantRequiresNameHash(t *testing.T) {
	_, err := decodeOutput(wireOutput{
		Covenant: wireCovenant{Action: "REVEAL"},
	})
	require.Error(t, err)
}

func TestDecodeOutput_AllAuctionActions(t *testing.T) {
	actions := map[string]pkgchain.CovenantKind{
		"OPEN":     pkgchain.CovenantOpen,
		"BID":      pkgchain.CovenantBid,
		"REVEAL":   pkgchain.CovenantReveal,
		"REGISTER": pkgchain.CovenantRegister,
		"REVOKE":   pkgchain.CovenantRevoke,
	}

	for action, kind := range actions {
		out, err := decodeOutput(wireOutput{
			Covenant: wireCovenant{Action: action, Items: []string{hexHash("ee")}},
		})
		require.NoError(t, err, action)
		require.Equal(t, kind, out.Covenant.Kind, action)
		require.Equal(t, hexHash("ee"), out.Covenant.NameHash.String(), action)
	}
}

package auction

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hns-tools/auctionwatch/pkg/chain"
)

func testOutpoint(fill byte, index uint32) chain.Outpoint {
	var h chain.Hash
	for i := range h {
		h[i] = fill
	}
	return chain.Outpoint{Hash: h, Index: index}
}

func TestMemberKeyLayout(t *testing.T) {
	outpoint := testOutpoint(0xab, 0x01020304)

	key := memberKey(Bid, "alice", outpoint)

	require.Len(t, key, 1+5+chain.HashSize+4)
	require.Equal(t, byte('B'), key[0])
	require.Equal(t, []byte("alice"), key[1:6])
	require.Equal(t, bytes.Repeat([]byte{0xab}, chain.HashSize), key[6:6+chain.HashSize])
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, key[6+chain.HashSize:])
}

func TestKeyFamilyTags(t *testing.T) {
	outpoint := testOutpoint(0x01, 0)

	require.Equal(t, byte('B'), memberKey(Bid, "x", outpoint)[0])
	require.Equal(t, byte('R'), memberKey(Reveal, "x", outpoint)[0])
	require.Equal(t, byte('b'), countKey(Bid, "x")[0])
	require.Equal(t, byte('r'), countKey(Reveal, "x")[0])
	require.Equal(t, []byte{'T'}, tipKey())
	require.Equal(t, []byte{'V'}, versionKey())
}

func TestMemberKeysSortContiguouslyPerName(t *testing.T) {
	// all keys of one name fall inside its range, keys of other names
	// outside it
	low, high := memberRange(Bid, "bob")

	inside := memberKey(Bid, "bob", testOutpoint(0x00, 0))
	require.True(t, bytes.Compare(inside, low) >= 0)
	require.True(t, bytes.Compare(inside, high) < 0)

	before := memberKey(Bid, "bo", testOutpoint(0xff, 0xffffffff))
	require.True(t, bytes.Compare(before, low) < 0)

	after := memberKey(Bid, "boc", testOutpoint(0x00, 0))
	require.True(t, bytes.Compare(after, high) >= 0)
}

func TestMemberRangeCoversExtendingNames(t *testing.T) {
	// "alicex" keys land inside the "alice" range; decodeMemberKey is
	// responsible for rejecting them
	low, high := memberRange(Bid, "alice")

	extending := memberKey(Bid, "alicex", testOutpoint(0x01, 0))
	require.True(t, bytes.Compare(extending, low) >= 0)
	require.True(t, bytes.Compare(extending, high) < 0)

	_, ok := decodeMemberKey(extending, "alice")
	require.False(t, ok)
}

func TestDecodeMemberKeyRoundTrip(t *testing.T) {
	outpoint := testOutpoint(0x5c, 7)

	key := memberKey(Reveal, "example", outpoint)
	decoded, ok := decodeMemberKey(key, "example")
	require.True(t, ok)
	require.Equal(t, outpoint, decoded)
}

func TestEncodeCountMinimalBigEndian(t *testing.T) {
	tests := []struct {
		n       uint64
		encoded []byte
	}{
		{0, []byte{}},
		{1, []byte{0x01}},
		{255, []byte{0xff}},
		{256, []byte{0x01, 0x00}},
		{0x01020304, []byte{0x01, 0x02, 0x03, 0x04}},
	}

	for _, tt := range tests {
		require.Equal(t, tt.encoded, encodeCount(tt.n), "n=%d", tt.n)
		require.Equal(t, tt.n, decodeCount(tt.encoded), "n=%d", tt.n)
	}
}

func TestFamilyRange(t *testing.T) {
	low, high := familyRange(tagBidMember)
	require.Equal(t, []byte{'B'}, low)
	require.Equal(t, []byte{'C'}, high)

	key := memberKey(Bid, "anything", testOutpoint(0xff, 0xffffffff))
	require.True(t, bytes.Compare(key, low) >= 0)
	require.True(t, bytes.Compare(key, high) < 0)
}

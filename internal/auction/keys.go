package auction

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/hns-tools/auctionwatch/pkg/chain"
)

// Key families. One tag byte per record family so that all records of a
// family sort contiguously, and within the member families all records
// for one name sort contiguously.
//
//	V                                      -> schema version counter
//	T                                      -> 32-byte tip hash
//	B <name> <32-byte tx hash> <BE uint32> -> empty (bid membership)
//	b <name>                               -> minimal big-endian bid count
//	R / r                                  -> same layout for reveals
const (
	tagVersion      byte = 'V'
	tagTip          byte = 'T'
	tagBidMember    byte = 'B'
	tagBidCount     byte = 'b'
	tagRevealMember byte = 'R'
	tagRevealCount  byte = 'r'
)

// schemaVersion is bumped whenever the key layout changes incompatibly.
const schemaVersion = 1

// Kind selects which of the two per-name records an operation targets.
type Kind uint8

const (
	Bid Kind = iota
	Reveal
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Bid:
		return "bid"
	case Reveal:
		return "reveal"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

func (k Kind) memberTag() byte {
	if k == Reveal {
		return tagRevealMember
	}
	return tagBidMember
}

func (k Kind) countTag() byte {
	if k == Reveal {
		return tagRevealCount
	}
	return tagBidCount
}

// tipKey returns the key of the global tip pointer.
func tipKey() []byte {
	return []byte{tagTip}
}

// versionKey returns the key of the schema version record.
func versionKey() []byte {
	return []byte{tagVersion}
}

// countKey returns the counter key for a name.
func countKey(kind Kind, name string) []byte {
	key := make([]byte, 0, 1+len(name))
	key = append(key, kind.countTag())
	key = append(key, name...)
	return key
}

// memberKey returns the membership marker key for one outpoint of a name.
func memberKey(kind Kind, name string, outpoint chain.Outpoint) []byte {
	key := make([]byte, 0, 1+len(name)+chain.HashSize+4)
	key = append(key, kind.memberTag())
	key = append(key, name...)
	key = append(key, outpoint.Hash[:]...)
	key = binary.BigEndian.AppendUint32(key, outpoint.Index)
	return key
}

// memberRange returns the [low, high) bounds covering every membership
// key of a name. The layout carries no name delimiter, so the range also
// covers names extending this one ("alice" covers "alicex"); decoding
// rejects those by length (see decodeMemberKey).
func memberRange(kind Kind, name string) (low, high []byte) {
	low = make([]byte, 0, 1+len(name))
	low = append(low, kind.memberTag())
	low = append(low, name...)

	high = make([]byte, len(low))
	copy(high, low)
	high[len(high)-1]++
	return low, high
}

// familyRange returns the [low, high) bounds covering an entire key family.
func familyRange(tag byte) (low, high []byte) {
	return []byte{tag}, []byte{tag + 1}
}

// decodeMemberKey extracts the outpoint from a membership key of name.
// Keys of names that merely extend this name are reported as not ours.
func decodeMemberKey(key []byte, name string) (chain.Outpoint, bool) {
	if len(key) != 1+len(name)+chain.HashSize+4 {
		return chain.Outpoint{}, false
	}

	var outpoint chain.Outpoint
	rest := key[1+len(name):]
	copy(outpoint.Hash[:], rest[:chain.HashSize])
	outpoint.Index = binary.BigEndian.Uint32(rest[chain.HashSize:])
	return outpoint, true
}

// encodeCount renders a counter as a minimal big-endian unsigned
// magnitude: no leading zero bytes, zero encodes as an empty value.
func encodeCount(n uint64) []byte {
	return new(big.Int).SetUint64(n).Bytes()
}

// decodeCount parses a minimal big-endian unsigned magnitude.
func decodeCount(value []byte) uint64 {
	return new(big.Int).SetBytes(value).Uint64()
}

package chain

import (
	"encoding/hex"
	"fmt"
)

// HashSize is the length of a Handshake block or transaction hash.
const HashSize = 32

// Hash is a 32-byte block, transaction or name hash.
type Hash [HashSize]byte

// HashFromHex parses a 64-character hex string into a Hash.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	if len(b) != HashSize {
		return h, fmt.Errorf("invalid hash length: expected %d bytes, got %d", HashSize, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// Bytes returns the hash as a byte slice.
func (h Hash) Bytes() []byte {
	return h[:]
}

// String returns the hex encoding of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is all zeroes.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Outpoint identifies one transaction output.
type Outpoint struct {
	Hash  Hash   `json:"hash"`
	Index uint32 `json:"index"`
}

// String returns "txhash:index".
func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.Hash, o.Index)
}

// CovenantKind is the closed set of spending conditions the watcher
// distinguishes. Covenant actions outside this set map to CovenantOther.
type CovenantKind uint8

const (
	CovenantNone CovenantKind = iota
	CovenantOpen
	CovenantBid
	CovenantReveal
	CovenantRegister
	CovenantRevoke
	CovenantOther
)

// String returns the covenant action name.
func (k CovenantKind) String() string {
	switch k {
	case CovenantNone:
		return "NONE"
	case CovenantOpen:
		return "OPEN"
	case CovenantBid:
		return "BID"
	case CovenantReveal:
		return "REVEAL"
	case CovenantRegister:
		return "REGISTER"
	case CovenantRevoke:
		return "REVOKE"
	case CovenantOther:
		return "OTHER"
	default:
		return fmt.Sprintf("CovenantKind(%d)", uint8(k))
	}
}

// ParseCovenantKind maps a node covenant action string to a CovenantKind.
// Unknown actions (CLAIM, REDEEM, UPDATE, RENEW, TRANSFER, FINALIZE, ...)
// map to CovenantOther.
func ParseCovenantKind(action string) CovenantKind {
	switch action {
	case "", "NONE":
		return CovenantNone
	case "OPEN":
		return CovenantOpen
	case "BID":
		return CovenantBid
	case "REVEAL":
		return CovenantReveal
	case "REGISTER":
		return CovenantRegister
	case "REVOKE":
		return CovenantRevoke
	default:
		return CovenantOther
	}
}

// Covenant is the typed spending condition attached to an output.
// NameHash is only meaningful for auction covenants.
type Covenant struct {
	Kind     CovenantKind
	NameHash Hash
}

// Output is one transaction output.
type Output struct {
	Value    uint64
	Covenant Covenant
}

// Tx is a transaction with its outputs.
type Tx struct {
	Hash    Hash
	Outputs []Output
}

// Block is a connected (or disconnected) block.
type Block struct {
	Hash     Hash
	PrevHash Hash
	Height   uint64
	Txs      []Tx
}

// NameState is the chain-maintained auction lifecycle record for a name.
type NameState struct {
	Name   string
	Height uint64
}

// Coin is an unspent output value.
type Coin struct {
	Value uint64
}

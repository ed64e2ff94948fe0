package events

import "github.com/hns-tools/auctionwatch/pkg/chain"

// Type names a domain event. The wire name is delivered verbatim to
// subscribers alongside the structured payload.
type Type string

const (
	TypeOpen       Type = "OPEN"
	TypeBid        Type = "BID"
	TypeReveal     Type = "REVEAL"
	TypeRegister   Type = "REGISTER"
	TypeRevoke     Type = "REVOKE"
	TypeBidBurned  Type = "BID_BURNED"
	TypeBigSpend   Type = "BIG_SPEND"
	TypeBlockStats Type = "BLOCK_STATS"
)

// Event is a typed domain event produced by the classifier.
type Event interface {
	Type() Type
}

// Open announces the opening of an auction.
type Open struct {
	Name string `json:"name"`
}

func (Open) Type() Type { return TypeOpen }

// Bid is a bid output observed in a connected block.
type Bid struct {
	Name     string         `json:"name"`
	Outpoint chain.Outpoint `json:"outpoint"`
	Value    uint64         `json:"value"`
}

func (Bid) Type() Type { return TypeBid }

// Reveal is a reveal output observed in a connected block.
type Reveal struct {
	Name     string         `json:"name"`
	Outpoint chain.Outpoint `json:"outpoint"`
	Value    uint64         `json:"value"`
}

func (Reveal) Type() Type { return TypeReveal }

// Register marks the close of an auction.
type Register struct {
	Name     string         `json:"name"`
	Outpoint chain.Outpoint `json:"outpoint"`
	Value    uint64         `json:"value"`
}

func (Register) Type() Type { return TypeRegister }

// Revoke marks a revoked name.
type Revoke struct {
	Name     string         `json:"name"`
	Outpoint chain.Outpoint `json:"outpoint"`
	Value    uint64         `json:"value"`
}

func (Revoke) Type() Type { return TypeRevoke }

// BidBurned reports a bid whose coin was spent without a matching
// reveal: the locked value is forfeited.
type BidBurned struct {
	Name     string         `json:"name"`
	Outpoint chain.Outpoint `json:"outpoint"`
	Value    uint64         `json:"value"`
}

func (BidBurned) Type() Type { return TypeBidBurned }

// BigSpend reports a plain (covenant-less) output at or above the
// configured threshold.
type BigSpend struct {
	Outpoint chain.Outpoint `json:"outpoint"`
	Value    uint64         `json:"value"`
}

func (BigSpend) Type() Type { return TypeBigSpend }

// BlockStats aggregates per-block covenant counts.
type BlockStats struct {
	TxCount uint64 `json:"txCount"`
	Opens   uint64 `json:"opens"`
	Bids    uint64 `json:"bids"`
	Reveals uint64 `json:"reveals"`
}

func (BlockStats) Type() Type { return TypeBlockStats }

package api

import "github.com/hns-tools/auctionwatch/pkg/chain"

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TipResponse carries the hash of the last fully indexed block.
type TipResponse struct {
	Tip string `json:"tip"`
}

// NameResponse carries the indexed auction records of one name.
type NameResponse struct {
	Name        string           `json:"name"`
	BidCount    uint64           `json:"bid_count"`
	RevealCount uint64           `json:"reveal_count"`
	Bids        []chain.Outpoint `json:"bids"`
	Reveals     []chain.Outpoint `json:"reveals"`
}

// WipeResponse reports the outcome of an administrative wipe.
type WipeResponse struct {
	Deleted int `json:"deleted"`
}

package chain

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a name state or coin does not exist
// on the chain. Absent coins are indistinguishable from spent coins.
var ErrNotFound = errors.New("chain: not found")

// BlockHandler is invoked once per connected or disconnected block,
// sequentially and in chain order.
type BlockHandler func(block *Block)

// Gateway is the read-only view of the host chain the watcher consumes.
// Block notifications are delivered one at a time: a handler runs to
// completion before the next block is dispatched.
type Gateway interface {
	// OnBlockConnected registers a handler for connected blocks.
	OnBlockConnected(handler BlockHandler)

	// OnBlockDisconnected registers a handler for blocks removed from
	// the best chain during a reorganization.
	OnBlockDisconnected(handler BlockHandler)

	// GetNameState looks up the auction record for a name hash.
	// Returns ErrNotFound if the chain has no state for the hash.
	GetNameState(ctx context.Context, nameHash Hash) (*NameState, error)

	// GetCoin looks up an unspent output. Returns ErrNotFound if the
	// coin is spent or never existed.
	GetCoin(ctx context.Context, outpoint Outpoint) (*Coin, error)
}

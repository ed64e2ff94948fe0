package classifier

import (
	"context"
	"errors"
	"time"

	"github.com/hns-tools/auctionwatch/internal/auction"
	"github.com/hns-tools/auctionwatch/internal/events"
	"github.com/hns-tools/auctionwatch/internal/logger"
	"github.com/hns-tools/auctionwatch/pkg/chain"
	"github.com/hns-tools/auctionwatch/pkg/config"
)

// Classifier walks every output of every connected block, interprets its
// covenant, drives the auction index and publishes domain events.
//
// Blocks arrive strictly one at a time in chain order; a block is fully
// processed (all index commits) before the next is dispatched. Store
// failures are fatal to the single mutation only: they are logged and
// processing continues with the next output. Event emission is decoupled
// from index persistence, so an event can be published for a mutation
// that failed to commit.
type Classifier struct {
	cfg     config.WatcherConfig
	gateway chain.Gateway
	index   *auction.Index
	hub     *events.Hub
	log     *logger.Logger
}

// New creates a classifier and subscribes it to the gateway's block
// notifications.
func New(
	cfg config.WatcherConfig,
	gateway chain.Gateway,
	index *auction.Index,
	hub *events.Hub,
	log *logger.Logger,
) *Classifier {
	c := &Classifier{
		cfg:     cfg,
		gateway: gateway,
		index:   index,
		hub:     hub,
		log:     log,
	}

	gateway.OnBlockConnected(c.HandleBlockConnected)
	gateway.OnBlockDisconnected(c.HandleBlockDisconnected)

	return c
}

// HandleBlockConnected indexes one connected block. The tip is advanced
// only after every mutation of the block has been committed, so after a
// crash the watcher resumes from the last fully indexed block;
// reprocessing a partially indexed block is safe because mutations are
// idempotent.
func (c *Classifier) HandleBlockConnected(block *chain.Block) {
	start := time.Now()
	ctx := context.Background()

	stats := events.BlockStats{TxCount: uint64(len(block.Txs))}

	for _, tx := range block.Txs {
		for vout, out := range tx.Outputs {
			outpoint := chain.Outpoint{Hash: tx.Hash, Index: uint32(vout)}
			c.classifyOutput(ctx, outpoint, out, &stats)
		}
	}

	if err := c.index.SetTip(block.Hash); err != nil {
		c.log.Errorf("failed to advance tip: block=%s height=%d err=%v", block.Hash, block.Height, err)
	}

	c.hub.Publish(events.ChannelStats, stats)

	blockProcessed(block.Height, time.Since(start))
	c.log.Debugf("block indexed: height=%d hash=%s txs=%d opens=%d bids=%d reveals=%d",
		block.Height, block.Hash, stats.TxCount, stats.Opens, stats.Bids, stats.Reveals)
}

// classifyOutput dispatches one output by covenant kind.
func (c *Classifier) classifyOutput(
	ctx context.Context,
	outpoint chain.Outpoint,
	out chain.Output,
	stats *events.BlockStats,
) {
	kind := out.Covenant.Kind
	outputClassified(kind.String())

	switch kind {
	case chain.CovenantNone:
		if c.cfg.BigSpendThreshold > 0 && out.Value >= c.cfg.BigSpendThreshold {
			c.hub.Publish(events.ChannelSpends, events.BigSpend{
				Outpoint: outpoint,
				Value:    out.Value,
			})
		}

	case chain.CovenantOpen:
		// counted for block stats only; OPEN has no event emission or
		// index mutation
		stats.Opens++

	case chain.CovenantBid:
		stats.Bids++
		name, ok := c.resolveName(ctx, out.Covenant.NameHash, outpoint)
		if !ok {
			return
		}
		if err := c.index.AddMember(name, auction.Bid, outpoint); err != nil {
			c.log.Errorf("failed to record bid: name=%s outpoint=%s err=%v", name, outpoint, err)
		}
		c.hub.Publish(events.ChannelAuctions, events.Bid{
			Name:     name,
			Outpoint: outpoint,
			Value:    out.Value,
		})

	case chain.CovenantReveal:
		stats.Reveals++
		name, ok := c.resolveName(ctx, out.Covenant.NameHash, outpoint)
		if !ok {
			return
		}
		if err := c.index.AddMember(name, auction.Reveal, outpoint); err != nil {
			c.log.Errorf("failed to record reveal: name=%s outpoint=%s err=%v", name, outpoint, err)
		}
		c.hub.Publish(events.ChannelAuctions, events.Reveal{
			Name:     name,
			Outpoint: outpoint,
			Value:    out.Value,
		})

	case chain.CovenantRegister:
		name, ok := c.resolveName(ctx, out.Covenant.NameHash, outpoint)
		if !ok {
			return
		}
		c.hub.Publish(events.ChannelAuctions, events.Register{
			Name:     name,
			Outpoint: outpoint,
			Value:    out.Value,
		})
		c.reconcileBurns(ctx, name)

	case chain.CovenantRevoke:
		name, ok := c.resolveName(ctx, out.Covenant.NameHash, outpoint)
		if !ok {
			return
		}
		c.hub.Publish(events.ChannelAuctions, events.Revoke{
			Name:     name,
			Outpoint: outpoint,
			Value:    out.Value,
		})

	case chain.CovenantOther:
		// actions outside the watcher's vocabulary
	}
}

// resolveName looks up the name behind an auction covenant. A missing
// name state is impossible under valid chain rules, so absence is logged
// as an integrity anomaly and the output is skipped without aborting the
// block.
func (c *Classifier) resolveName(ctx context.Context, nameHash chain.Hash, outpoint chain.Outpoint) (string, bool) {
	state, err := c.gateway.GetNameState(ctx, nameHash)
	if errors.Is(err, chain.ErrNotFound) {
		integrityViolationInc("unknown-name")
		c.log.Errorf("covenant references unknown name state: name_hash=%s outpoint=%s", nameHash, outpoint)
		return "", false
	}
	if err != nil {
		c.log.Errorf("name state lookup failed: name_hash=%s outpoint=%s err=%v", nameHash, outpoint, err)
		return "", false
	}
	return state.Name, true
}

// reconcileBurns runs at REGISTER time. Every recorded bid outpoint
// without a matching reveal is checked against the chain's coin set; a
// bid whose coin is already gone was spent without a reveal and its
// locked value is forfeited. The coin no longer exists, so the burned
// value cannot be recovered from the chain and is reported as 0.
func (c *Classifier) reconcileBurns(ctx context.Context, name string) {
	bids, err := c.index.Count(name, auction.Bid)
	if err != nil {
		c.log.Errorf("bid count failed: name=%s err=%v", name, err)
		return
	}
	reveals, err := c.index.Count(name, auction.Reveal)
	if err != nil {
		c.log.Errorf("reveal count failed: name=%s err=%v", name, err)
		return
	}

	if reveals == bids {
		return
	}
	if reveals > bids {
		// impossible under valid chain rules
		integrityViolationInc("reveals-exceed-bids")
		c.log.Errorf("integrity violation: name=%s reveals=%d bids=%d", name, reveals, bids)
		return
	}

	outpoints, err := c.index.ListMembers(name, auction.Bid)
	if err != nil {
		c.log.Errorf("bid listing failed: name=%s err=%v", name, err)
		return
	}

	for _, outpoint := range outpoints {
		_, err := c.gateway.GetCoin(ctx, outpoint)
		switch {
		case errors.Is(err, chain.ErrNotFound):
			bidBurnedInc()
			c.hub.Publish(events.ChannelAuctions, events.BidBurned{
				Name:     name,
				Outpoint: outpoint,
			})
		case err != nil:
			c.log.Errorf("coin lookup failed: outpoint=%s err=%v", outpoint, err)
		}
	}
}

// HandleBlockDisconnected rolls back a block removed from the best chain
// during a reorganization: every bid and reveal membership the block
// introduced is removed and the tip is moved to the block's parent.
func (c *Classifier) HandleBlockDisconnected(block *chain.Block) {
	ctx := context.Background()

	for _, tx := range block.Txs {
		for vout, out := range tx.Outputs {
			var kind auction.Kind
			switch out.Covenant.Kind {
			case chain.CovenantBid:
				kind = auction.Bid
			case chain.CovenantReveal:
				kind = auction.Reveal
			default:
				continue
			}

			outpoint := chain.Outpoint{Hash: tx.Hash, Index: uint32(vout)}
			name, ok := c.resolveName(ctx, out.Covenant.NameHash, outpoint)
			if !ok {
				continue
			}

			err := c.index.RemoveMember(name, kind, outpoint)
			if err != nil && !errors.Is(err, auction.ErrNotFound) {
				c.log.Errorf("failed to roll back %s: name=%s outpoint=%s err=%v", kind, name, outpoint, err)
			}
		}
	}

	if err := c.index.SetTip(block.PrevHash); err != nil {
		c.log.Errorf("failed to roll back tip: block=%s err=%v", block.Hash, err)
	}

	reorgRolledBack()
	c.log.Warnf("block disconnected, index rolled back: height=%d hash=%s", block.Height, block.Hash)
}

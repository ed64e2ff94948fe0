package chain

import (
	"fmt"

	pkgchain "github.com/hns-tools/auctionwatch/pkg/chain"
)

// Wire shapes of the node's websocket block notifications.

type wireCovenant struct {
	Action string   `json:"action"`
	Items  []string `json:"items"`
}

type wireOutput struct {
	Value    uint64       `json:"value"`
	Covenant wireCovenant `json:"covenant"`
}

type wireTx struct {
	Hash    string       `json:"hash"`
	Outputs []wireOutput `json:"outputs"`
}

type wireBlock struct {
	Hash      string   `json:"hash"`
	PrevBlock string   `json:"prevBlock"`
	Height    uint64   `json:"height"`
	Txs       []wireTx `json:"txs"`
}

// decodeBlock converts a wire block into the gateway's block type.
func decodeBlock(w *wireBlock) (*pkgchain.Block, error) {
	hash, err := pkgchain.HashFromHex(w.Hash)
	if err != nil {
		return nil, fmt.Errorf("block hash: %w", err)
	}
	prev, err := pkgchain.HashFromHex(w.PrevBlock)
	if err != nil {
		return nil, fmt.Errorf("prev block hash: %w", err)
	}

	block := &pkgchain.Block{
		Hash:     hash,
		PrevHash: prev,
		Height:   w.Height,
		Txs:      make([]pkgchain.Tx, 0, len(w.Txs)),
	}

	for _, wtx := range w.Txs {
		txHash, err := pkgchain.HashFromHex(wtx.Hash)
		if err != nil {
			return nil, fmt.Errorf("tx hash: %w", err)
		}

		tx := pkgchain.Tx{
			Hash:    txHash,
			Outputs: make([]pkgchain.Output, 0, len(wtx.Outputs)),
		}

		for _, wout := range wtx.Outputs {
			out, err := decodeOutput(wout)
			if err != nil {
				return nil, fmt.Errorf("tx %s: %w", wtx.Hash, err)
			}
			tx.Outputs = append(tx.Outputs, out)
		}

		block.Txs = append(block.Txs, tx)
	}

	return block, nil
}

// decodeOutput converts one wire output. For auction covenants the name
// hash is the covenant's first item.
func decodeOutput(w wireOutput) (pkgchain.Output, error) {
	out := pkgchain.Output{
		Value: w.Value,
		Covenant: pkgchain.Covenant{
			Kind: pkgchain.ParseCovenantKind(w.Covenant.Action),
		},
	}

	switch out.Covenant.Kind {
	case pkgchain.CovenantNone, pkgchain.CovenantOther:
		return out, nil
	default:
	}

	if len(w.Covenant.Items) == 0 {
		return out, fmt.Errorf("covenant %s without name hash item", w.Covenant.Action)
	}

	nameHash, err := pkgchain.HashFromHex(w.Covenant.Items[0])
	if err != nil {
		return out, fmt.Errorf("covenant name hash: %w", err)
	}
	out.Covenant.NameHash = nameHash

	return out, nil
}

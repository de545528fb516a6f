package block

import (
	"context"
	"fmt"

	"github.com/ardanlabs/blockminer/foundation/blockchain/hash"
	"github.com/ardanlabs/blockminer/foundation/blockchain/header"
	"github.com/ardanlabs/blockminer/foundation/blockchain/merkle"
	"github.com/ardanlabs/blockminer/foundation/blockchain/pow"
	"github.com/ardanlabs/blockminer/foundation/blockchain/tx"
	"github.com/holiman/uint256"
)

// Config holds the header metadata and the coinbase for a block.
type Config struct {
	Version   int32
	PrevBlock hash.Hash
	Bits      [header.BitsSize]byte
	Timestamp uint32
	Coinbase  tx.Tx
}

// Template is a block ready to be mined. The coinbase identifier is the
// first element of TxIDs and the first merkle leaf, followed by the accepted
// pool transactions in pool order.
type Template struct {
	Header   header.Header
	Coinbase tx.Tx
	TxIDs    []hash.Hash
	Tree     *merkle.Tree
}

// Assemble builds the merkle tree over the coinbase and the accepted
// transactions and assembles the header with a zero nonce.
func Assemble(cfg Config, accepted []Entry) (Template, error) {
	ids := make([]hash.Hash, 0, len(accepted)+1)
	ids = append(ids, tx.Identify(cfg.Coinbase))
	for _, e := range accepted {
		ids = append(ids, e.ID)
	}

	tree, err := merkle.NewTree(ids)
	if err != nil {
		return Template{}, fmt.Errorf("building merkle tree: %w", err)
	}

	root := tree.Root()
	h, err := header.Assemble(root[:], cfg.PrevBlock[:], cfg.Bits[:], cfg.Timestamp, cfg.Version)
	if err != nil {
		return Template{}, fmt.Errorf("assembling header: %w", err)
	}

	t := Template{
		Header:   h,
		Coinbase: cfg.Coinbase,
		TxIDs:    ids,
		Tree:     tree,
	}

	return t, nil
}

// Retimed returns a copy of the template using the specified timestamp.
// The merkle root is unaffected.
func (t Template) Retimed(timestamp uint32) Template {
	t.Header.Timestamp = timestamp
	return t
}

// Mine searches for a nonce that solves the template's header.
func (t Template) Mine(ctx context.Context, target *uint256.Int, maxAttempts uint64, workers int, evHandler func(v string, args ...any)) (Mined, error) {
	res, err := pow.MineParallel(ctx, t.Header, target, maxAttempts, workers, evHandler)
	if err != nil {
		return Mined{}, err
	}

	m := Mined{
		Header:   res.Header,
		Hash:     res.Hash,
		Coinbase: t.Coinbase,
		TxIDs:    t.TxIDs,
		Attempts: res.Attempts,
	}

	return m, nil
}

// =============================================================================

// Mined is a solved block. It is created once by a successful search and
// is not changed afterwards.
type Mined struct {
	Header   header.Header
	Hash     hash.Hash
	Coinbase tx.Tx
	TxIDs    []hash.Hash
	Attempts uint64
}

// String implements the fmt.Stringer interface for logging.
func (m Mined) String() string {
	return fmt.Sprintf("hash[%s]:nonce[%d]:txs[%d]", m.Hash, m.Header.Nonce, len(m.TxIDs))
}

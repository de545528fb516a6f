package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/blockminer/foundation/blockchain/block"
	"github.com/ardanlabs/blockminer/foundation/blockchain/mempool"
	"github.com/ardanlabs/blockminer/foundation/blockchain/policy"
	"github.com/ardanlabs/blockminer/foundation/blockchain/pow"
	"github.com/holiman/uint256"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// miner runs one block attempt from the pool folder to a mined block.
type miner struct {
	log       *zap.SugaredLogger
	ev        func(v string, args ...any)
	fsys      afero.Fs
	poolDir   string
	policy    policy.Policy
	workers   int
	target    *uint256.Int
	attempts  uint64
	retries   int
	blockConf block.Config
}

func (m miner) run(ctx context.Context) (block.Mined, error) {

	// Load the pool. Files that can't be decoded are logged and skipped.
	pool, err := mempool.Load(m.fsys, m.poolDir)
	if err != nil {
		return block.Mined{}, err
	}

	for _, pe := range pool.Skipped {
		m.log.Infow("mempool", "status", "skipped", "file", pe.Name, "ERROR", pe.Err)
	}

	m.log.Infow("mempool", "status", "loaded", "txs", len(pool.Records), "skipped", len(pool.Skipped))

	// Check the transactions against the policy.
	sel, err := block.Select(pool.Txs(), m.policy, m.workers)
	if err != nil {
		return block.Mined{}, fmt.Errorf("selecting transactions: %w", err)
	}

	for _, e := range sel.Rejected {
		m.log.Infow("policy", "status", "rejected", "file", pool.Records[e.Index].Name, "reason", e.Result)
	}

	m.log.Infow("policy", "status", "selected", "accepted", len(sel.Accepted), "rejected", len(sel.Rejected))

	// Assemble the template over the coinbase and the accepted transactions.
	tmpl, err := block.Assemble(m.blockConf, sel.Accepted)
	if err != nil {
		return block.Mined{}, err
	}

	m.log.Infow("block", "status", "assembled", "root", tmpl.Header.MerkleRoot, "txs", len(tmpl.TxIDs))

	// When the attempt budget runs out the timestamp is moved forward one
	// second, which changes every header digest, and the search starts over.
	for retry := 0; ; retry++ {
		mined, err := tmpl.Mine(ctx, m.target, m.attempts, m.workers, m.ev)
		if err == nil {
			m.log.Infow("block", "status", "mined", "block", mined, "attempts", mined.Attempts)
			return mined, nil
		}

		if !errors.Is(err, pow.ErrMiningExhausted) || retry >= m.retries {
			return block.Mined{}, fmt.Errorf("mining block: %w", err)
		}

		tmpl = tmpl.Retimed(tmpl.Header.Timestamp + 1)
		m.log.Infow("block", "status", "retrying", "retry", retry+1, "timestamp", tmpl.Header.Timestamp)
	}
}

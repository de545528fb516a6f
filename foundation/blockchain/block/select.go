// Package block ties the core engines together. It selects the pool
// transactions that satisfy policy, assembles the header template over their
// identifiers and mines it.
package block

import (
	"fmt"
	"sync"

	"github.com/ardanlabs/blockminer/foundation/blockchain/hash"
	"github.com/ardanlabs/blockminer/foundation/blockchain/policy"
	"github.com/ardanlabs/blockminer/foundation/blockchain/tx"
	"github.com/panjf2000/ants/v2"
)

// Entry is the outcome of checking one pool transaction.
type Entry struct {
	Index  int           // Position of the transaction in the pool.
	Tx     tx.Tx         // The transaction as it was read.
	ID     hash.Hash     // Identifier, only set for accepted transactions.
	Result policy.Result // Policy verdict.
}

// Selection splits the pool into accepted and rejected transactions. Both
// lists keep pool order.
type Selection struct {
	Accepted []Entry
	Rejected []Entry
}

// IDs returns the identifiers of the accepted transactions in pool order.
func (s Selection) IDs() []hash.Hash {
	ids := make([]hash.Hash, len(s.Accepted))
	for i, e := range s.Accepted {
		ids[i] = e.ID
	}
	return ids
}

// =============================================================================

// Selector checks pool transactions against a policy on a bounded goroutine
// pool.
type Selector struct {
	policy policy.Policy
	pool   *ants.Pool
}

// NewSelector constructs a selector that runs at most workers checks at a
// time. Release must be called when the selector is no longer needed.
func NewSelector(p policy.Policy, workers int) (*Selector, error) {
	if workers < 1 {
		workers = 1
	}

	pool, err := ants.NewPool(workers, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("creating validation pool: %w", err)
	}

	s := Selector{
		policy: p,
		pool:   pool,
	}

	return &s, nil
}

// Release shuts down the goroutine pool.
func (s *Selector) Release() {
	s.pool.Release()
}

// Select checks every transaction and identifies the accepted ones. Each
// outcome is written into the slot of its pool index, so the order of the
// selection does not depend on scheduling.
func (s *Selector) Select(txs []tx.Tx) (Selection, error) {
	entries := make([]Entry, len(txs))

	var wg sync.WaitGroup

	for i := range txs {
		wg.Add(1)

		task := func() {
			defer wg.Done()

			e := Entry{
				Index:  i,
				Tx:     txs[i],
				Result: policy.Check(txs[i], s.policy),
			}
			if e.Result.Accepted {
				e.ID = tx.Identify(txs[i])
			}

			entries[i] = e
		}

		if err := s.pool.Submit(task); err != nil {
			wg.Done()
			wg.Wait()
			return Selection{}, fmt.Errorf("submitting tx[%d]: %w", i, err)
		}
	}

	wg.Wait()

	var sel Selection
	for _, e := range entries {
		if e.Result.Accepted {
			sel.Accepted = append(sel.Accepted, e)
			continue
		}
		sel.Rejected = append(sel.Rejected, e)
	}

	return sel, nil
}

// Select is a convenience function that checks the transactions with a
// temporary selector.
func Select(txs []tx.Tx, p policy.Policy, workers int) (Selection, error) {
	s, err := NewSelector(p, workers)
	if err != nil {
		return Selection{}, err
	}
	defer s.Release()

	return s.Select(txs)
}

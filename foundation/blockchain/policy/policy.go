// Package policy provides the rules a pool transaction must satisfy to be
// included in a block. A policy is plain data so the ruleset can be swapped
// without touching the code that applies it.
package policy

import (
	"fmt"
	"slices"

	"github.com/ardanlabs/blockminer/foundation/blockchain/tx"
)

// List of the named policies.
const (
	StrategyDefault = "default"
	StrategyRelaxed = "relaxed"
)

// Map of named policies with the functions that construct them.
var strategies = map[string]func() Policy{
	StrategyDefault: Default,
	StrategyRelaxed: Relaxed,
}

// Retrieve returns the policy registered under the specified name.
func Retrieve(strategy string) (Policy, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return Policy{}, fmt.Errorf("policy %q does not exist", strategy)
	}
	return fn(), nil
}

// =============================================================================

// Policy describes what an acceptable transaction looks like. The kind lists
// are exhaustive: an empty list allows no kind at all.
type Policy struct {
	Version     int32
	Locktime    uint32
	InputKinds  []tx.ScriptKind
	OutputKinds []tx.ScriptKind
}

// Default returns the standard policy: version 2, locktime 0, every input
// spends a resolved P2WPKH or P2TR output with value and every output is a
// P2SH output with value.
func Default() Policy {
	return Policy{
		Version:     2,
		Locktime:    0,
		InputKinds:  []tx.ScriptKind{tx.KindP2WPKH, tx.KindP2TR},
		OutputKinds: []tx.ScriptKind{tx.KindP2SH},
	}
}

// Relaxed returns the default policy with the script kind rules opened up.
// Inputs may spend any kind and outputs may be P2SH or anything else.
func Relaxed() Policy {
	return Policy{
		Version:     2,
		Locktime:    0,
		InputKinds:  []tx.ScriptKind{tx.KindP2WPKH, tx.KindP2TR, tx.KindP2SH, tx.KindOther},
		OutputKinds: []tx.ScriptKind{tx.KindP2SH, tx.KindOther},
	}
}

// =============================================================================

// Check applies the policy to the transaction. The first failing rule
// decides the result.
func Check(t tx.Tx, p Policy) Result {
	if t.Version != p.Version {
		return reject(ReasonVersion, -1)
	}

	if t.Locktime != p.Locktime {
		return reject(ReasonLocktime, -1)
	}

	for i, in := range t.Inputs {
		switch {
		case in.PrevOut == nil:
			return reject(ReasonNoPrevOut, i)
		case in.PrevOut.Value == 0:
			return reject(ReasonInputValue, i)
		case !slices.Contains(p.InputKinds, in.PrevOut.ScriptKind):
			return reject(ReasonInputScript, i)
		}
	}

	for i, out := range t.Outputs {
		switch {
		case out.Value == 0:
			return reject(ReasonOutputValue, i)
		case !slices.Contains(p.OutputKinds, out.ScriptKind):
			return reject(ReasonOutputScript, i)
		}
	}

	return Result{Accepted: true, Reason: ReasonNone, Index: -1}
}

// IsValid reports whether the transaction satisfies the policy.
func IsValid(t tx.Tx, p Policy) bool {
	return Check(t, p).Accepted
}

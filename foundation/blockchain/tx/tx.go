// Package tx provides the transaction record used by the block builder and
// the canonical serialization that transaction identifiers are derived from.
package tx

import (
	"encoding/binary"
	"fmt"

	"github.com/ardanlabs/blockminer/foundation/blockchain/hash"
)

// Tx is a candidate transaction. A Tx is treated as immutable once
// constructed. The block builder only ever reads it.
type Tx struct {
	Version  int32    `json:"version"`  // Bitcoin: Transaction format version.
	Locktime uint32   `json:"locktime"` // Bitcoin: Earliest time or height the transaction can be mined.
	Inputs   []Input  `json:"vin"`      // Bitcoin: Outputs being spent.
	Outputs  []Output `json:"vout"`     // Bitcoin: Outputs being created.
}

// Input references the previous output a transaction spends.
type Input struct {
	TxID    hash.Hash `json:"txid"`    // Bitcoin: Transaction holding the output being spent.
	Vout    uint32    `json:"vout"`    // Bitcoin: Index of the output being spent.
	PrevOut *PrevOut  `json:"prevout"` // Resolved previous output, nil when it could not be resolved.
}

// PrevOut is the resolved value and script kind of a spent output.
type PrevOut struct {
	Value      uint64     `json:"value"`
	ScriptKind ScriptKind `json:"scriptpubkey_type"`
}

// Output is a new output created by a transaction.
type Output struct {
	Value      uint64     `json:"value"`
	ScriptKind ScriptKind `json:"scriptpubkey_type"`
	Script     []byte     `json:"script,omitempty"`
}

// =============================================================================

// Serialize returns the canonical byte form of the transaction. The field
// order is fixed by this function and never depends on how the value was
// constructed.
//
//	version:int32 LE | locktime:uint32 LE | uvarint(len(inputs)) |
//	  per input:  has_prevout:1 | txid:32 | vout:uint32 LE | value:uint64 LE | kind:1
//	uvarint(len(outputs)) |
//	  per output: value:uint64 LE | kind:1 | uvarint(len(script)) | script
func (tx Tx) Serialize() []byte {
	size := 8 + binary.MaxVarintLen64*2 + len(tx.Inputs)*46
	for _, out := range tx.Outputs {
		size += 9 + binary.MaxVarintLen64 + len(out.Script)
	}
	b := make([]byte, 0, size)

	b = binary.LittleEndian.AppendUint32(b, uint32(tx.Version))
	b = binary.LittleEndian.AppendUint32(b, tx.Locktime)

	b = binary.AppendUvarint(b, uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		var prev PrevOut
		var resolved byte
		if in.PrevOut != nil {
			prev = *in.PrevOut
			resolved = 1
		}

		b = append(b, resolved)
		b = append(b, in.TxID[:]...)
		b = binary.LittleEndian.AppendUint32(b, in.Vout)
		b = binary.LittleEndian.AppendUint64(b, prev.Value)
		b = append(b, byte(prev.ScriptKind))
	}

	b = binary.AppendUvarint(b, uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		b = binary.LittleEndian.AppendUint64(b, out.Value)
		b = append(b, byte(out.ScriptKind))
		b = binary.AppendUvarint(b, uint64(len(out.Script)))
		b = append(b, out.Script...)
	}

	return b
}

// Identify returns the identifier for the transaction: the sha256 digest of
// its canonical serialization.
func Identify(tx Tx) hash.Hash {
	return hash.Sum(tx.Serialize())
}

// ID is a convenience method for Identify.
func (tx Tx) ID() hash.Hash {
	return Identify(tx)
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:v%d:in[%d]:out[%d]", tx.ID(), tx.Version, len(tx.Inputs), len(tx.Outputs))
}

// Package mempool reads the folder of pending transaction files the block
// is built from.
package mempool

import (
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/ardanlabs/blockminer/foundation/blockchain/hash"
	"github.com/ardanlabs/blockminer/foundation/blockchain/tx"
	"github.com/spf13/afero"
)

// ErrMalformed is wrapped by every ParseError.
var ErrMalformed = errors.New("malformed transaction file")

// ParseError describes a pool file that could not be turned into a
// transaction. It is a different class of failure than a transaction that
// is rejected by policy.
type ParseError struct {
	Name string
	Err  error
}

// Error implements the error interface.
func (pe *ParseError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrMalformed, pe.Name, pe.Err)
}

// Unwrap allows errors.Is to match ErrMalformed and the cause.
func (pe *ParseError) Unwrap() []error {
	return []error{ErrMalformed, pe.Err}
}

// =============================================================================

// Record is a transaction read from the pool with the file it came from.
type Record struct {
	Name string
	Tx   tx.Tx
}

// Pool is the result of loading a pool folder.
type Pool struct {
	Records []Record
	Skipped []*ParseError
}

// Txs returns the transactions in pool order.
func (p Pool) Txs() []tx.Tx {
	txs := make([]tx.Tx, len(p.Records))
	for i, r := range p.Records {
		txs[i] = r.Tx
	}
	return txs
}

// Load reads every json file in the folder in lexical file name order.
// Files that can't be decoded are returned in Skipped and never stop the
// load. Only a folder that can't be read is an error.
func Load(fsys afero.Fs, dir string) (Pool, error) {
	infos, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return Pool{}, fmt.Errorf("reading pool folder: %w", err)
	}

	var pool Pool
	for _, info := range infos {
		if info.IsDir() || path.Ext(info.Name()) != ".json" {
			continue
		}

		data, err := afero.ReadFile(fsys, path.Join(dir, info.Name()))
		if err != nil {
			pool.Skipped = append(pool.Skipped, &ParseError{Name: info.Name(), Err: err})
			continue
		}

		t, err := Decode(info.Name(), data)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pool.Skipped = append(pool.Skipped, pe)
			}
			continue
		}

		pool.Records = append(pool.Records, Record{Name: info.Name(), Tx: t})
	}

	return pool, nil
}

// Decode turns the content of one pool file into a transaction. Any
// failure is returned as a *ParseError.
func Decode(name string, data []byte) (tx.Tx, error) {
	ft, err := decodeFile(data)
	if err != nil {
		return tx.Tx{}, &ParseError{Name: name, Err: err}
	}

	t, err := ft.toTx()
	if err != nil {
		return tx.Tx{}, &ParseError{Name: name, Err: err}
	}

	return t, nil
}

// =============================================================================

func (ft fileTx) toTx() (tx.Tx, error) {
	t := tx.Tx{
		Version:  *ft.Version,
		Locktime: *ft.Locktime,
		Inputs:   make([]tx.Input, len(ft.Vin)),
		Outputs:  make([]tx.Output, len(ft.Vout)),
	}

	for i, in := range ft.Vin {
		var txID hash.Hash
		if in.TxID != "" {
			id, err := hash.FromHex(in.TxID)
			if err != nil {
				return tx.Tx{}, fmt.Errorf("vin[%d].txid: %w", i, err)
			}
			txID = id
		}

		t.Inputs[i] = tx.Input{
			TxID: txID,
			Vout: in.Vout,
		}

		if in.PrevOut != nil {
			t.Inputs[i].PrevOut = &tx.PrevOut{
				Value:      *in.PrevOut.Value,
				ScriptKind: tx.ParseScriptKind(in.PrevOut.ScriptType),
			}
		}
	}

	for i, out := range ft.Vout {
		script, err := hex.DecodeString(strings.TrimPrefix(out.Script, "0x"))
		if err != nil {
			return tx.Tx{}, fmt.Errorf("vout[%d].scriptpubkey: %w", i, err)
		}

		t.Outputs[i] = tx.Output{
			Value:      *out.Value,
			ScriptKind: tx.ParseScriptKind(out.ScriptType),
			Script:     script,
		}
		if len(script) == 0 {
			t.Outputs[i].Script = nil
		}
	}

	return t, nil
}

// Package coinbase constructs the synthetic reward paying transaction that
// every block starts with, and manages the miner key it pays to.
package coinbase

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ardanlabs/blockminer/foundation/blockchain/tx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Version is the transaction version used for the coinbase.
const Version = 2

// New constructs the coinbase paying the reward to the specified address.
// It has no inputs and a single P2SH output carrying the address bytes.
func New(reward uint64, address common.Address) tx.Tx {
	return tx.Tx{
		Version:  Version,
		Locktime: 0,
		Outputs: []tx.Output{
			{
				Value:      reward,
				ScriptKind: tx.KindP2SH,
				Script:     address.Bytes(),
			},
		},
	}
}

// Address returns the address paid by a coinbase, if it carries one.
func Address(cb tx.Tx) (common.Address, bool) {
	if len(cb.Inputs) != 0 || len(cb.Outputs) != 1 {
		return common.Address{}, false
	}

	script := cb.Outputs[0].Script
	if len(script) != common.AddressLength {
		return common.Address{}, false
	}

	return common.BytesToAddress(script), true
}

// =============================================================================

// LoadAddress reads the private key at the specified path and returns the
// address derived from its public key.
func LoadAddress(path string) (common.Address, error) {
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return common.Address{}, fmt.Errorf("loading miner key: %w", err)
	}

	return crypto.PubkeyToAddress(privateKey.PublicKey), nil
}

// GenerateKey creates a new private key and saves it at the specified path,
// creating the parent folder when needed.
func GenerateKey(path string) (*ecdsa.PrivateKey, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating key folder: %w", err)
	}

	if err := crypto.SaveECDSA(path, privateKey); err != nil {
		return nil, fmt.Errorf("saving key: %w", err)
	}

	return privateKey, nil
}

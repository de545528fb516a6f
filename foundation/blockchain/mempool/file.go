package mempool

import (
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/blockminer/foundation/validate"
)

// fileTx is the shape of a transaction in a pool file. Pointers separate a
// missing field from a zero value. Fields the builder doesn't use, like
// witness data and fees, are ignored.
type fileTx struct {
	Version  *int32       `json:"version" validate:"required"`
	Locktime *uint32      `json:"locktime" validate:"required"`
	Vin      []fileInput  `json:"vin" validate:"dive"`
	Vout     []fileOutput `json:"vout" validate:"dive"`
}

type fileInput struct {
	TxID    string       `json:"txid" validate:"omitempty,hexadecimal,len=64"`
	Vout    uint32       `json:"vout"`
	PrevOut *filePrevOut `json:"prevout"`
}

type filePrevOut struct {
	Value      *uint64 `json:"value" validate:"required"`
	ScriptType string  `json:"scriptpubkey_type"`
}

type fileOutput struct {
	Value      *uint64 `json:"value" validate:"required"`
	ScriptType string  `json:"scriptpubkey_type"`
	Script     string  `json:"scriptpubkey" validate:"omitempty,hexadecimal"`
}

func decodeFile(data []byte) (fileTx, error) {
	var ft fileTx
	if err := json.Unmarshal(data, &ft); err != nil {
		return fileTx{}, fmt.Errorf("unmarshal: %w", err)
	}

	if err := validate.Check(ft); err != nil {
		return fileTx{}, fmt.Errorf("validate: %w", err)
	}

	return ft, nil
}

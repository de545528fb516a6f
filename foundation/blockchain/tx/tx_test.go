package tx_test

import (
	"encoding/json"
	"testing"

	"github.com/ardanlabs/blockminer/foundation/blockchain/hash"
	"github.com/ardanlabs/blockminer/foundation/blockchain/tx"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func newTx() tx.Tx {
	return tx.Tx{
		Version:  2,
		Locktime: 0,
		Inputs: []tx.Input{
			{
				TxID:    hash.Sum([]byte("funding")),
				Vout:    1,
				PrevOut: &tx.PrevOut{Value: 5000, ScriptKind: tx.KindP2WPKH},
			},
		},
		Outputs: []tx.Output{
			{Value: 4000, ScriptKind: tx.KindP2SH},
			{Value: 900, ScriptKind: tx.KindP2SH, Script: []byte{0xa9, 0x14}},
		},
	}
}

func Test_IdentifyDeterministic(t *testing.T) {
	t.Log("Given the need to identify transactions.")
	{
		t.Logf("\tTest 0:\tWhen two transactions are built independently with the same fields.")
		{
			a := newTx()

			// Same values, fields assigned in a different order.
			var b tx.Tx
			b.Outputs = []tx.Output{
				{ScriptKind: tx.KindP2SH, Value: 4000},
				{Script: []byte{0xa9, 0x14}, ScriptKind: tx.KindP2SH, Value: 900},
			}
			b.Inputs = []tx.Input{
				{
					PrevOut: &tx.PrevOut{ScriptKind: tx.KindP2WPKH, Value: 5000},
					Vout:    1,
					TxID:    hash.Sum([]byte("funding")),
				},
			}
			b.Locktime = 0
			b.Version = 2

			if tx.Identify(a) != tx.Identify(b) {
				t.Fatalf("\t%s\tTest 0:\tShould produce identical identifiers: %s != %s", failed, tx.Identify(a), tx.Identify(b))
			}
			t.Logf("\t%s\tTest 0:\tShould produce identical identifiers.", success)

			if tx.Identify(a) != tx.Identify(a) {
				t.Fatalf("\t%s\tTest 0:\tShould be stable across calls.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould be stable across calls.", success)

			if a.ID() != hash.Sum(a.Serialize()) {
				t.Fatalf("\t%s\tTest 0:\tShould be the sha256 of the serialization.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould be the sha256 of the serialization.", success)
		}
	}
}

func Test_IdentifyFieldSensitivity(t *testing.T) {
	type table struct {
		name   string
		mutate func(t *tx.Tx)
	}

	tt := []table{
		{name: "version", mutate: func(t *tx.Tx) { t.Version = 1 }},
		{name: "locktime", mutate: func(t *tx.Tx) { t.Locktime = 10 }},
		{name: "vout", mutate: func(t *tx.Tx) { t.Inputs[0].Vout = 2 }},
		{name: "input value", mutate: func(t *tx.Tx) { t.Inputs[0].PrevOut = &tx.PrevOut{Value: 5001, ScriptKind: tx.KindP2WPKH} }},
		{name: "input kind", mutate: func(t *tx.Tx) { t.Inputs[0].PrevOut = &tx.PrevOut{Value: 5000, ScriptKind: tx.KindP2TR} }},
		{name: "unresolved", mutate: func(t *tx.Tx) { t.Inputs[0].PrevOut = nil }},
		{name: "output value", mutate: func(t *tx.Tx) { t.Outputs = []tx.Output{{Value: 1, ScriptKind: tx.KindP2SH}, t.Outputs[1]} }},
		{name: "output order", mutate: func(t *tx.Tx) { t.Outputs = []tx.Output{t.Outputs[1], t.Outputs[0]} }},
		{name: "script", mutate: func(t *tx.Tx) { t.Outputs = []tx.Output{t.Outputs[0], {Value: 900, ScriptKind: tx.KindP2SH}} }},
	}

	t.Log("Given the need for every field to contribute to the identifier.")
	{
		base := tx.Identify(newTx())

		for testID, tst := range tt {
			f := func(t *testing.T) {
				changed := newTx()
				tst.mutate(&changed)

				if tx.Identify(changed) == base {
					t.Fatalf("\t%s\tTest %d:\tShould change the identifier when %s changes.", failed, testID, tst.name)
				}
				t.Logf("\t%s\tTest %d:\tShould change the identifier when %s changes.", success, testID, tst.name)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_ScriptKindJSON(t *testing.T) {
	type table struct {
		name string
		exp  tx.ScriptKind
	}

	tt := []table{
		{name: "v0_p2wpkh", exp: tx.KindP2WPKH},
		{name: "p2wpkh", exp: tx.KindP2WPKH},
		{name: "v1_p2tr", exp: tx.KindP2TR},
		{name: "p2sh", exp: tx.KindP2SH},
		{name: "P2SH", exp: tx.KindP2SH},
		{name: "p2pkh", exp: tx.KindOther},
		{name: "op_return", exp: tx.KindOther},
	}

	t.Log("Given the need to decode script kinds from mempool names.")
	{
		for testID, tst := range tt {
			var out tx.Output
			doc := `{"value": 10, "scriptpubkey_type": "` + tst.name + `"}`
			if err := json.Unmarshal([]byte(doc), &out); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould decode %q: %v", failed, testID, tst.name, err)
			}

			if out.ScriptKind != tst.exp {
				t.Fatalf("\t%s\tTest %d:\tShould map %q to %s, got %s.", failed, testID, tst.name, tst.exp, out.ScriptKind)
			}
			t.Logf("\t%s\tTest %d:\tShould map %q to %s.", success, testID, tst.name, tst.exp)
		}
	}
}

package mempool_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/ardanlabs/blockminer/foundation/blockchain/mempool"
	"github.com/ardanlabs/blockminer/foundation/blockchain/tx"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const validFile = `{
  "txid": "ignored",
  "version": 2,
  "locktime": 0,
  "vin": [
    {
      "txid": "fb7fe37919a55dfa45a062f88bd3c7412b54de759115cb58c3b9b46ac5f7c925",
      "vout": 1,
      "prevout": {
        "scriptpubkey": "0014286d8d56a0a6e8f5e9ad3e1b1e4a1b6b5f2b2c1a",
        "scriptpubkey_type": "v0_p2wpkh",
        "value": 100000
      },
      "witness": ["aa", "bb"],
      "sequence": 4294967293
    }
  ],
  "vout": [
    {
      "scriptpubkey": "a914286d8d56a0a6e8f5e9ad3e1b1e4a1b6b5f2b2c1a87",
      "scriptpubkey_type": "p2sh",
      "value": 90000
    }
  ],
  "fee": 10000
}`

func Test_Decode(t *testing.T) {
	t.Log("Given the need to decode a pool file.")
	{
		got, err := mempool.Decode("a.json", []byte(validFile))
		if err != nil {
			t.Fatalf("\t%s\tShould decode the file: %v", failed, err)
		}
		t.Logf("\t%s\tShould decode the file.", success)

		if got.Version != 2 || got.Locktime != 0 || len(got.Inputs) != 1 || len(got.Outputs) != 1 {
			t.Fatalf("\t%s\tShould decode the shape: %s", failed, got)
		}

		in := got.Inputs[0]
		if in.PrevOut == nil || in.PrevOut.Value != 100000 || in.PrevOut.ScriptKind != tx.KindP2WPKH || in.Vout != 1 {
			t.Fatalf("\t%s\tShould decode the input: %+v", failed, in)
		}
		if in.TxID.String() != "fb7fe37919a55dfa45a062f88bd3c7412b54de759115cb58c3b9b46ac5f7c925" {
			t.Fatalf("\t%s\tShould keep the spent txid bytes as given, got %s.", failed, in.TxID)
		}

		out := got.Outputs[0]
		if out.Value != 90000 || out.ScriptKind != tx.KindP2SH || len(out.Script) != 23 {
			t.Fatalf("\t%s\tShould decode the output: %+v", failed, out)
		}
		t.Logf("\t%s\tShould decode the inputs and outputs.", success)
	}
}

func Test_DecodeMalformed(t *testing.T) {
	type table struct {
		name string
		data string
	}

	tt := []table{
		{name: "not json", data: `{"version": 2,`},
		{name: "missing version", data: `{"locktime": 0, "vin": [], "vout": []}`},
		{name: "missing locktime", data: `{"version": 2, "vin": [], "vout": []}`},
		{name: "version type", data: `{"version": "2", "locktime": 0}`},
		{name: "missing output value", data: `{"version": 2, "locktime": 0, "vout": [{"scriptpubkey_type": "p2sh"}]}`},
		{name: "missing prevout value", data: `{"version": 2, "locktime": 0, "vin": [{"prevout": {"scriptpubkey_type": "p2tr"}}]}`},
		{name: "short txid", data: `{"version": 2, "locktime": 0, "vin": [{"txid": "abcd"}]}`},
		{name: "bad script", data: `{"version": 2, "locktime": 0, "vout": [{"value": 1, "scriptpubkey": "zz"}]}`},
		{name: "odd script", data: `{"version": 2, "locktime": 0, "vout": [{"value": 1, "scriptpubkey": "abc"}]}`},
	}

	t.Log("Given the need to reject malformed pool files.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				_, err := mempool.Decode("bad.json", []byte(tst.data))

				var pe *mempool.ParseError
				if !errors.As(err, &pe) || pe.Name != "bad.json" {
					t.Fatalf("\t%s\tTest %d:\tShould return a ParseError naming the file, got %v.", failed, testID, err)
				}
				if !errors.Is(err, mempool.ErrMalformed) {
					t.Fatalf("\t%s\tTest %d:\tShould match ErrMalformed.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould return a ParseError.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_DecodeUnresolved(t *testing.T) {
	t.Log("Given a pool file with an unresolved previous output.")
	{
		data := `{"version": 2, "locktime": 0, "vin": [{"vout": 0}], "vout": [{"value": 5, "scriptpubkey_type": "p2sh"}]}`

		got, err := mempool.Decode("a.json", []byte(data))
		if err != nil {
			t.Fatalf("\t%s\tShould decode the file: %v", failed, err)
		}

		if got.Inputs[0].PrevOut != nil {
			t.Fatalf("\t%s\tShould leave the previous output unset.", failed)
		}
		t.Logf("\t%s\tShould leave the previous output unset for the policy to reject.", success)
	}
}

func Test_Load(t *testing.T) {
	t.Log("Given the need to load a pool folder.")
	{
		fsys := afero.NewMemMapFs()

		files := map[string]string{
			"mempool/c.json":     validFile,
			"mempool/a.json":     strings.Replace(validFile, `"value": 90000`, `"value": 80000`, 1),
			"mempool/b.json":     `{"version": 2`,
			"mempool/notes.txt":  "not a transaction",
			"mempool/sub/d.json": validFile,
			"mempool/0-bad.json": `{"locktime": 0}`,
			"elsewhere/e.json":   validFile,
		}
		for name, data := range files {
			if err := afero.WriteFile(fsys, name, []byte(data), 0644); err != nil {
				t.Fatalf("\t%s\tShould write %s: %v", failed, name, err)
			}
		}

		pool, err := mempool.Load(fsys, "mempool")
		if err != nil {
			t.Fatalf("\t%s\tShould load the folder: %v", failed, err)
		}
		t.Logf("\t%s\tShould load the folder.", success)

		var names []string
		for _, r := range pool.Records {
			names = append(names, r.Name)
		}
		if diff := cmp.Diff([]string{"a.json", "c.json"}, names); diff != "" {
			t.Fatalf("\t%s\tShould load json files in name order:\n%s", failed, diff)
		}
		t.Logf("\t%s\tShould load json files in name order.", success)

		var skipped []string
		for _, pe := range pool.Skipped {
			skipped = append(skipped, pe.Name)
		}
		if diff := cmp.Diff([]string{"0-bad.json", "b.json"}, skipped); diff != "" {
			t.Fatalf("\t%s\tShould skip malformed files:\n%s", failed, diff)
		}
		t.Logf("\t%s\tShould skip malformed files without stopping.", success)

		txs := pool.Txs()
		if len(txs) != 2 || txs[0].Outputs[0].Value != 80000 || txs[1].Outputs[0].Value != 90000 {
			t.Fatalf("\t%s\tShould return the transactions in pool order.", failed)
		}
		t.Logf("\t%s\tShould return the transactions in pool order.", success)

		if _, err := mempool.Load(fsys, "missing"); err == nil {
			t.Fatalf("\t%s\tShould fail for a missing folder.", failed)
		}
		t.Logf("\t%s\tShould fail for a missing folder.", success)
	}
}

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardanlabs/blockminer/foundation/blockchain/hash"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func execute(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func Test_Merkle(t *testing.T) {
	t.Log("Given the need to print a merkle root.")
	{
		a := hash.Sum([]byte("a"))
		b := hash.Sum([]byte("b"))

		out, err := execute(t, "merkle", a.String(), b.String())
		if err != nil {
			t.Fatalf("\t%s\tShould run the command: %v", failed, err)
		}

		if exp := hash.Pair(a, b).String(); strings.TrimSpace(out) != exp {
			t.Fatalf("\t%s\tShould print %s, got %s.", failed, exp, out)
		}
		t.Logf("\t%s\tShould print the root.", success)

		if _, err := execute(t, "merkle", "abcd"); err == nil {
			t.Fatalf("\t%s\tShould reject a short identifier.", failed)
		}
		t.Logf("\t%s\tShould reject a short identifier.", success)
	}
}

func Test_Txid(t *testing.T) {
	t.Log("Given the need to identify a pool file.")
	{
		path := filepath.Join(t.TempDir(), "a.json")
		data := `{"version": 1, "locktime": 0, "vin": [], "vout": [{"value": 5, "scriptpubkey_type": "p2sh"}]}`
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatalf("\t%s\tShould write the file: %v", failed, err)
		}

		out, err := execute(t, "txid", path)
		if err != nil {
			t.Fatalf("\t%s\tShould run the command: %v", failed, err)
		}

		if !strings.Contains(out, "version") || !strings.Contains(out, "a.json") {
			t.Fatalf("\t%s\tShould print the rejection reason, got %s.", failed, out)
		}
		t.Logf("\t%s\tShould print the identifier and verdict.", success)
	}
}

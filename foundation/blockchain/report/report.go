// Package report writes a mined block to the plain text output format and
// reads it back for verification.
//
// The format is one value per line:
//
//	line 1:  the 80 byte header as 160 hex characters
//	line 2:  the canonical serialization of the coinbase in hex
//	line 3+: one transaction identifier per line in block order, starting
//	         with the coinbase identifier
package report

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/blockminer/foundation/blockchain/block"
	"github.com/ardanlabs/blockminer/foundation/blockchain/hash"
	"github.com/ardanlabs/blockminer/foundation/blockchain/header"
	"github.com/ardanlabs/blockminer/foundation/blockchain/merkle"
	"github.com/ardanlabs/blockminer/foundation/blockchain/pow"
	"github.com/holiman/uint256"
	"github.com/natefinch/atomic"
	"github.com/spf13/afero"
)

// Set of errors returned by Decode and Verify.
var (
	ErrInvalidReport    = errors.New("invalid report")
	ErrTargetNotMet     = errors.New("header hash does not meet target")
	ErrRootMismatch     = errors.New("merkle root does not match transactions")
	ErrCoinbaseMismatch = errors.New("coinbase does not match first transaction")
)

// Report is the content of a report file.
type Report struct {
	Header   header.Header
	Coinbase []byte
	TxIDs    []hash.Hash
}

// New constructs the report for a mined block.
func New(m block.Mined) Report {
	return Report{
		Header:   m.Header,
		Coinbase: m.Coinbase.Serialize(),
		TxIDs:    m.TxIDs,
	}
}

// =============================================================================

// Encode writes the report for the mined block.
func Encode(w io.Writer, m block.Mined) error {
	r := New(m)

	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, r.Header.Hex())
	fmt.Fprintln(bw, hex.EncodeToString(r.Coinbase))
	for _, id := range r.TxIDs {
		fmt.Fprintln(bw, id)
	}

	return bw.Flush()
}

// Write replaces the file at the specified path with the report for the
// mined block, creating the parent folder when needed. Readers never observe
// a partially written report: the content goes to a temporary file in the
// same folder that is then renamed over the path.
func Write(fsys afero.Fs, path string, m block.Mined) error {
	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating report folder: %w", err)
	}

	if _, ok := fsys.(*afero.OsFs); ok {
		if err := atomic.WriteFile(path, &buf); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		return nil
	}

	if err := replaceFile(fsys, dir, path, buf.Bytes()); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	return nil
}

// replaceFile performs the temporary file and rename sequence on a
// filesystem atomic.WriteFile can't reach.
func replaceFile(fsys afero.Fs, dir string, path string, data []byte) error {
	f, err := afero.TempFile(fsys, dir, filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}
	name := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		fsys.Remove(name)
		return err
	}

	if err := f.Close(); err != nil {
		fsys.Remove(name)
		return err
	}

	if err := fsys.Rename(name, path); err != nil {
		fsys.Remove(name)
		return err
	}

	return nil
}

// Decode parses a report.
func Decode(r io.Reader) (Report, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return Report{}, fmt.Errorf("reading report: %w", err)
	}

	if len(lines) < 3 {
		return Report{}, fmt.Errorf("%w: got %d lines, need at least 3", ErrInvalidReport, len(lines))
	}

	h, err := header.ParseHex(lines[0])
	if err != nil {
		return Report{}, fmt.Errorf("%w: line 1: %w", ErrInvalidReport, err)
	}

	coinbase, err := hex.DecodeString(lines[1])
	if err != nil {
		return Report{}, fmt.Errorf("%w: line 2: %w", ErrInvalidReport, err)
	}

	ids := make([]hash.Hash, 0, len(lines)-2)
	for i, line := range lines[2:] {
		id, err := hash.FromHex(line)
		if err != nil {
			return Report{}, fmt.Errorf("%w: line %d: %w", ErrInvalidReport, i+3, err)
		}
		ids = append(ids, id)
	}

	rpt := Report{
		Header:   h,
		Coinbase: coinbase,
		TxIDs:    ids,
	}

	return rpt, nil
}

// Read opens and decodes the report at the specified path.
func Read(fsys afero.Fs, path string) (Report, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// =============================================================================

// Verify checks the report on its own terms. The header must solve the
// target, its merkle root must commit to the listed identifiers and the
// first identifier must be the identifier of the coinbase.
func Verify(r Report, target *uint256.Int) error {
	digest := r.Header.Hash()
	if !pow.Solved(digest, target) {
		return fmt.Errorf("%w: hash[%s]: target[%s]", ErrTargetNotMet, digest, pow.TargetHex(target))
	}

	root, err := merkle.Root(r.TxIDs)
	if err != nil {
		return fmt.Errorf("computing root: %w", err)
	}
	if root != r.Header.MerkleRoot {
		return fmt.Errorf("%w: header[%s]: computed[%s]", ErrRootMismatch, r.Header.MerkleRoot, root)
	}

	if id := hash.Sum(r.Coinbase); id != r.TxIDs[0] {
		return fmt.Errorf("%w: coinbase[%s]: first[%s]", ErrCoinbaseMismatch, id, r.TxIDs[0])
	}

	return nil
}

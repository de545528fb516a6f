// Package header provides the fixed 80 byte block header that is committed
// to by proof of work.
package header

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ardanlabs/blockminer/foundation/blockchain/hash"
)

// Sizes and offsets of the header fields.
//
//	version:4 LE | prev_block:32 | merkle_root:32 | timestamp:4 LE | bits:4 | nonce:4 LE
const (
	Size = 80

	VersionSize   = 4
	PrevBlockSize = hash.Size
	RootSize      = hash.Size
	TimestampSize = 4
	BitsSize      = 4
	NonceSize     = 4

	prevBlockOffset = VersionSize
	rootOffset      = prevBlockOffset + PrevBlockSize
	timestampOffset = rootOffset + RootSize
	bitsOffset      = timestampOffset + TimestampSize

	// NonceOffset is where the nonce starts in the serialized header. It is
	// the only part of the header that changes while mining.
	NonceOffset = bitsOffset + BitsSize
)

// ErrInvalidFieldSize is returned when a header field is not its exact width.
var ErrInvalidFieldSize = errors.New("invalid field size")

// FieldSizeError describes which field had the wrong width.
type FieldSizeError struct {
	Field string
	Want  int
	Got   int
}

// Error implements the error interface.
func (fe *FieldSizeError) Error() string {
	return fmt.Sprintf("%s: field %s: got %d bytes, exp %d", ErrInvalidFieldSize, fe.Field, fe.Got, fe.Want)
}

// Unwrap allows errors.Is to match ErrInvalidFieldSize.
func (fe *FieldSizeError) Unwrap() error {
	return ErrInvalidFieldSize
}

// =============================================================================

// Header represents the block header. All fields are fixed for a mining
// attempt except the Nonce.
type Header struct {
	Version    int32          `json:"version"`     // Bitcoin: Block format version.
	PrevBlock  hash.Hash      `json:"prev_block"`  // Bitcoin: Hash of the previous block in the chain.
	MerkleRoot hash.Hash      `json:"merkle_root"` // Bitcoin: Root of the merkle tree of the block's transactions.
	Timestamp  uint32         `json:"timestamp"`   // Bitcoin: Time the block was mined.
	Bits       [BitsSize]byte `json:"bits"`        // Bitcoin: Compact form of the difficulty target.
	Nonce      uint32         `json:"nonce"`       // Bitcoin: Value identified to solve the hash solution.
}

// Assemble constructs a header with a zero nonce. Every byte field must be
// exactly its declared width. Nothing is padded or truncated.
func Assemble(root []byte, prevBlock []byte, bits []byte, timestamp uint32, version int32) (Header, error) {
	if err := checkSize("merkle_root", root, RootSize); err != nil {
		return Header{}, err
	}
	if err := checkSize("prev_block", prevBlock, PrevBlockSize); err != nil {
		return Header{}, err
	}
	if err := checkSize("bits", bits, BitsSize); err != nil {
		return Header{}, err
	}

	h := Header{
		Version:   version,
		Timestamp: timestamp,
		Nonce:     0,
	}
	copy(h.MerkleRoot[:], root)
	copy(h.PrevBlock[:], prevBlock)
	copy(h.Bits[:], bits)

	return h, nil
}

// Parse decodes a serialized header. The input must be exactly Size bytes.
func Parse(b []byte) (Header, error) {
	if err := checkSize("header", b, Size); err != nil {
		return Header{}, err
	}

	h := Header{
		Version:   int32(binary.LittleEndian.Uint32(b[:prevBlockOffset])),
		Timestamp: binary.LittleEndian.Uint32(b[timestampOffset:bitsOffset]),
		Nonce:     binary.LittleEndian.Uint32(b[NonceOffset:]),
	}
	copy(h.PrevBlock[:], b[prevBlockOffset:rootOffset])
	copy(h.MerkleRoot[:], b[rootOffset:timestampOffset])
	copy(h.Bits[:], b[bitsOffset:NonceOffset])

	return h, nil
}

// ParseHex decodes a header from its 160 character hex form.
func ParseHex(s string) (Header, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Header{}, fmt.Errorf("decoding header: %w", err)
	}

	return Parse(b)
}

// =============================================================================

// Bytes returns the serialized header.
func (h Header) Bytes() [Size]byte {
	var b [Size]byte

	binary.LittleEndian.PutUint32(b[:prevBlockOffset], uint32(h.Version))
	copy(b[prevBlockOffset:rootOffset], h.PrevBlock[:])
	copy(b[rootOffset:timestampOffset], h.MerkleRoot[:])
	binary.LittleEndian.PutUint32(b[timestampOffset:bitsOffset], h.Timestamp)
	copy(b[bitsOffset:NonceOffset], h.Bits[:])
	binary.LittleEndian.PutUint32(b[NonceOffset:], h.Nonce)

	return b
}

// WithNonce returns a copy of the header using the specified nonce.
func (h Header) WithNonce(nonce uint32) Header {
	h.Nonce = nonce
	return h
}

// Hash returns the double sha256 digest of the serialized header.
func (h Header) Hash() hash.Hash {
	b := h.Bytes()
	return hash.Double(b[:])
}

// Hex returns the serialized header as a 160 character hex string.
func (h Header) Hex() string {
	b := h.Bytes()
	return hex.EncodeToString(b[:])
}

// String implements the fmt.Stringer interface for logging.
func (h Header) String() string {
	return fmt.Sprintf("v%d:prev[%s]:root[%s]:ts[%d]:bits[%x]:nonce[%d]", h.Version, h.PrevBlock, h.MerkleRoot, h.Timestamp, h.Bits, h.Nonce)
}

// =============================================================================

func checkSize(field string, b []byte, want int) error {
	if len(b) != want {
		return &FieldSizeError{Field: field, Want: want, Got: len(b)}
	}
	return nil
}

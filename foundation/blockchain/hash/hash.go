// Package hash provides the fixed width digest used for transaction
// identifiers, merkle nodes and block header hashes.
package hash

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/minio/sha256-simd"
)

// Size is the number of bytes in a hash.
const Size = 32

// ErrInvalidLength is returned when a value being converted into a hash is
// not exactly Size bytes.
var ErrInvalidLength = errors.New("invalid hash length")

// Hash represents a 32 byte sha256 digest. Values are compared and combined
// as raw bytes. Hex is only used for display.
type Hash [Size]byte

// Zero represents a hash of all zeros.
var Zero Hash

// =============================================================================

// Sum returns the single sha256 digest of the data.
func Sum(data []byte) Hash {
	return sha256.Sum256(data)
}

// Double returns the sha256 digest of the sha256 digest of the data.
func Double(data []byte) Hash {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}

// Pair double hashes the binary concatenation left || right.
func Pair(left Hash, right Hash) Hash {
	var buf [2 * Size]byte
	copy(buf[:Size], left[:])
	copy(buf[Size:], right[:])

	return Double(buf[:])
}

// FromBytes copies the specified bytes into a hash. The slice must be exactly
// Size bytes long.
func FromBytes(b []byte) (Hash, error) {
	if len(b) != Size {
		return Hash{}, fmt.Errorf("%w: got %d bytes, exp %d", ErrInvalidLength, len(b), Size)
	}

	var h Hash
	copy(h[:], b)

	return h, nil
}

// FromHex decodes a 64 character hex string into a hash. A 0x prefix is
// accepted.
func FromHex(s string) (Hash, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return Hash{}, fmt.Errorf("decoding hash %q: %w", s, err)
	}

	return FromBytes(b)
}

// =============================================================================

// String returns the lowercase hex form of the hash without a prefix.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Hex returns the 0x prefixed hex form of the hash used in logs.
func (h Hash) Hex() string {
	return hexutil.Encode(h[:])
}

// Bytes returns a copy of the hash as a byte slice.
func (h Hash) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, h[:])
	return b
}

// IsZero reports whether the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Zero
}

// MarshalText implements the encoding.TextMarshaler interface.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (h *Hash) UnmarshalText(text []byte) error {
	v, err := FromHex(string(text))
	if err != nil {
		return err
	}

	*h = v
	return nil
}

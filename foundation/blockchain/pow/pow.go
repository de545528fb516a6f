// Package pow implements the proof of work search over the block header
// nonce.
//
// A header digest is the double sha256 of the 80 byte header. The digest
// bytes are read as a big endian unsigned 256 bit integer, with no byte
// reversal, and the header is solved when that integer is strictly less
// than the target.
package pow

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ardanlabs/blockminer/foundation/blockchain/hash"
	"github.com/ardanlabs/blockminer/foundation/blockchain/header"
	"github.com/holiman/uint256"
)

// ErrMiningExhausted is returned when the attempt budget or the nonce space
// runs out before a solution is found.
var ErrMiningExhausted = errors.New("mining attempts exhausted")

// nonceSpace is the number of distinct nonces a header can hold.
const nonceSpace uint64 = math.MaxUint32 + 1

// cancelCheck is how many attempts are made between context checks.
const cancelCheck = 1 << 10

// reportEvery is how many attempts are made between progress events.
const reportEvery = 1_000_000

// =============================================================================

// Result is a solved header.
type Result struct {
	Header   header.Header
	Hash     hash.Hash
	Nonce    uint32
	Attempts uint64
}

// Solved reports whether the digest read as a big endian integer is
// strictly below the target. This is the only comparison used for mining
// and for verification.
func Solved(digest hash.Hash, target *uint256.Int) bool {
	var v uint256.Int
	v.SetBytes32(digest[:])
	return v.Lt(target)
}

// MaxTarget returns the largest possible target, 2^256 - 1.
func MaxTarget() *uint256.Int {
	return new(uint256.Int).SetAllOne()
}

// ParseTarget decodes a target from its 64 character big endian hex form.
// A 0x prefix is accepted.
func ParseTarget(s string) (*uint256.Int, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decoding target: %w", err)
	}

	if len(b) != 32 {
		return nil, fmt.Errorf("decoding target: got %d bytes, exp 32", len(b))
	}

	return new(uint256.Int).SetBytes32(b), nil
}

// TargetHex returns the 64 character big endian hex form of the target.
func TargetHex(target *uint256.Int) string {
	b := target.Bytes32()
	return hex.EncodeToString(b[:])
}

// =============================================================================

// Mine searches nonces from 0 upwards for a header whose digest is below the
// target. At most maxAttempts nonces are tried and never more than the nonce
// space holds. The search can be cancelled through the context.
func Mine(ctx context.Context, h header.Header, target *uint256.Int, maxAttempts uint64, evHandler func(v string, args ...any)) (Result, error) {
	ev := handler(evHandler)

	limit := min(maxAttempts, nonceSpace)

	ev("pow: Mine: MINING: started: target[%s]: limit[%d]", TargetHex(target), limit)
	defer ev("pow: Mine: MINING: completed")

	buf := h.Bytes()

	for attempt := uint64(0); attempt < limit; attempt++ {
		if attempt%cancelCheck == 0 && ctx.Err() != nil {
			ev("pow: Mine: MINING: CANCELLED: attempts[%d]", attempt)
			return Result{}, ctx.Err()
		}

		if attempt > 0 && attempt%reportEvery == 0 {
			ev("pow: Mine: MINING: attempts[%d]", attempt)
		}

		nonce := uint32(attempt)
		binary.LittleEndian.PutUint32(buf[header.NonceOffset:], nonce)

		digest := hash.Double(buf[:])
		if !Solved(digest, target) {
			continue
		}

		ev("pow: Mine: MINING: SOLVED: nonce[%d]: hash[%s]: attempts[%d]", nonce, digest, attempt+1)

		res := Result{
			Header:   h.WithNonce(nonce),
			Hash:     digest,
			Nonce:    nonce,
			Attempts: attempt + 1,
		}

		return res, nil
	}

	ev("pow: Mine: MINING: EXHAUSTED: attempts[%d]", limit)

	return Result{}, fmt.Errorf("%w: attempts[%d]", ErrMiningExhausted, limit)
}

// handler returns a usable event handler when none was provided.
func handler(evHandler func(v string, args ...any)) func(v string, args ...any) {
	if evHandler == nil {
		return func(string, ...any) {}
	}
	return evHandler
}

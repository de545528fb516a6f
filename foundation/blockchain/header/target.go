package header

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// ErrInvalidTarget is returned when the bits do not describe a usable
// 256 bit target.
var ErrInvalidTarget = errors.New("invalid target")

// CompactToTarget converts the compact representation held in the bits field
// into the 256 bit target it describes. The bits are read big endian, so the
// bytes 1d 00 ff ff mean 0x1d00ffff.
//
// The compact form is a floating point style number with an unsigned 8 bit
// exponent and a 24 bit mantissa whose top bit is a sign bit:
//
//	-------------------------------------------------
//	|   Exponent     |    Sign    |    Mantissa     |
//	-------------------------------------------------
//	| 8 bits [31-24] | 1 bit [23] | 23 bits [22-00] |
//	-------------------------------------------------
//
//	N = (-1^sign) * mantissa * 256^(exponent-3)
func CompactToTarget(bits [BitsSize]byte) (*uint256.Int, error) {
	compact := binary.BigEndian.Uint32(bits[:])

	mantissa := compact & 0x007fffff
	isNegative := compact&0x00800000 != 0
	exponent := uint(compact >> 24)

	if isNegative && mantissa != 0 {
		return nil, fmt.Errorf("%w: bits %08x describe a negative number", ErrInvalidTarget, compact)
	}

	// Since the base for the exponent is 256, the exponent can be treated
	// as the number of bytes to represent the full 256-bit number.
	var bn *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		bn = big.NewInt(int64(mantissa))
	} else {
		bn = big.NewInt(int64(mantissa))
		bn.Lsh(bn, 8*(exponent-3))
	}

	target, overflow := uint256.FromBig(bn)
	if overflow {
		return nil, fmt.Errorf("%w: bits %08x overflow 256 bits", ErrInvalidTarget, compact)
	}

	return target, nil
}

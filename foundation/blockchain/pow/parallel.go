package pow

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ardanlabs/blockminer/foundation/blockchain/hash"
	"github.com/ardanlabs/blockminer/foundation/blockchain/header"
	"github.com/holiman/uint256"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// noSolution marks that no worker has found a nonce yet.
const noSolution uint64 = math.MaxUint64

// MineParallel performs the same search as Mine using the specified number
// of workers. Worker w tries the nonces w, w+workers, w+2*workers and so on.
//
// The lowest solving nonce found so far is shared between the workers. A
// worker stops once its next nonce is not below it, so workers still holding
// lower nonces keep going. The result is always the lowest solving nonce
// under the attempt limit, the same nonce Mine returns.
func MineParallel(ctx context.Context, h header.Header, target *uint256.Int, maxAttempts uint64, workers int, evHandler func(v string, args ...any)) (Result, error) {
	if workers <= 1 {
		return Mine(ctx, h, target, maxAttempts, evHandler)
	}

	ev := handler(evHandler)

	limit := min(maxAttempts, nonceSpace)
	stride := uint64(workers)

	ev("pow: MineParallel: MINING: started: target[%s]: limit[%d]: workers[%d]", TargetHex(target), limit, workers)
	defer ev("pow: MineParallel: MINING: completed")

	best := atomic.NewUint64(noSolution)
	attempts := atomic.NewUint64(0)

	g, ctx := errgroup.WithContext(ctx)

	for w := range workers {
		start := uint64(w)

		g.Go(func() error {
			buf := h.Bytes()

			var tried uint64
			defer func() { attempts.Add(tried) }()

			for nonce := start; nonce < limit; nonce += stride {
				if nonce >= best.Load() {
					return nil
				}

				if tried%cancelCheck == 0 && ctx.Err() != nil {
					return ctx.Err()
				}
				tried++

				binary.LittleEndian.PutUint32(buf[header.NonceOffset:], uint32(nonce))
				if !Solved(hash.Double(buf[:]), target) {
					continue
				}

				ev("pow: MineParallel: MINING: worker[%d]: candidate nonce[%d]", start, nonce)
				publishLowest(best, nonce)

				return nil
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		ev("pow: MineParallel: MINING: CANCELLED: attempts[%d]", attempts.Load())
		return Result{}, err
	}

	found := best.Load()
	if found == noSolution {
		ev("pow: MineParallel: MINING: EXHAUSTED: attempts[%d]", attempts.Load())
		return Result{}, fmt.Errorf("%w: attempts[%d]", ErrMiningExhausted, attempts.Load())
	}

	mined := h.WithNonce(uint32(found))
	res := Result{
		Header:   mined,
		Hash:     mined.Hash(),
		Nonce:    uint32(found),
		Attempts: attempts.Load(),
	}

	ev("pow: MineParallel: MINING: SOLVED: nonce[%d]: hash[%s]: attempts[%d]", res.Nonce, res.Hash, res.Attempts)

	return res, nil
}

// publishLowest records the nonce if it is lower than the current best.
func publishLowest(best *atomic.Uint64, nonce uint64) {
	for {
		cur := best.Load()
		if nonce >= cur {
			return
		}
		if best.CompareAndSwap(cur, nonce) {
			return
		}
	}
}

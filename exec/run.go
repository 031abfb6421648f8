package exec

import (
	"sort"

	"github.com/fenwick-labs/spdzmpc/field"
	"github.com/fenwick-labs/spdzmpc/share"
	"github.com/fenwick-labs/spdzmpc/spdz"
)

// Run drives a circuit to completion: it masks and distributes inputs, then
// repeatedly polls the circuit to quiescence, batches whatever opens are
// outstanding into one process_openings_unchecked round, and resumes every
// blocked branch, until the top-level computation returns. A final
// check_integrity always runs before the result is handed back, so a
// circuit never needs to call EnsureIntegrity itself just to validate its
// own output.
//
// circuitFn receives the input share matrix (row p holds party p's inputs,
// in the order ProcessInputs received them) and the root Scope.
func Run[T any](engine *spdz.Engine, inputs []field.Element, circuitFn func(s *Scope, inputShares [][]share.Share) T) (T, Stats, error) {
	var zero T

	matrix, err := engine.ProcessInputs(inputs)
	if err != nil {
		return zero, Stats{}, &ExecutorError{Engine: err}
	}

	d := engine.Dealer()
	mod := d.Modulus()

	ctx := &Context{
		engine: engine,
		mod:    mod,
		one:    d.ShareConstant(mod.One()),
		two:    d.ShareConstant(mod.FromUint64(2)),
	}
	root := &Scope{ctx: ctx}

	resultCh := make(chan T, 1)
	ctx.liveWG.Add(1)
	go func() {
		result := circuitFn(root, matrix)
		resultCh <- result
		ctx.liveWG.Done()
	}()

	for {
		ctx.liveWG.Wait()

		select {
		case result := <-resultCh:
			if err := engine.CheckIntegrity(); err != nil {
				return zero, ctx.stats, &ExecutorError{Engine: err}
			}
			ctx.stats.IntegrityChecks++
			return result, ctx.stats, nil
		default:
		}

		if ctx.forceCheck {
			if err := engine.CheckIntegrity(); err != nil {
				return zero, ctx.stats, &ExecutorError{Engine: err}
			}
			ctx.stats.IntegrityChecks++
			ctx.forceCheck = false
		}

		ctx.mu.Lock()
		batch := ctx.pending
		ctx.pending = nil
		ctx.mu.Unlock()

		if len(batch) == 0 {
			panic("exec: circuit didn't make progress")
		}

		sort.Slice(batch, func(i, j int) bool {
			return comparePaths(batch[i].path, batch[j].path) < 0
		})

		if d.IsExhausted() {
			return zero, ctx.stats, ErrDealerExhausted
		}

		shares := make([]share.Share, len(batch))
		for i, p := range batch {
			shares[i] = p.s
		}

		values, err := engine.ProcessOpeningsUnchecked(shares)
		if err != nil {
			return zero, ctx.stats, &ExecutorError{Engine: err}
		}

		ctx.stats.Openings += len(batch)
		ctx.stats.Rounds++

		for i, p := range batch {
			ctx.liveWG.Add(1)
			p.out <- values[i]
		}
	}
}

// RunBackground starts Run on a dedicated goroutine and returns a channel
// that receives exactly one Result once the circuit finishes. It lets a
// caller overlap circuit execution with other local work without having to
// reason about the executor's internal goroutines.
func RunBackground[T any](engine *spdz.Engine, inputs []field.Element, circuitFn func(s *Scope, inputShares [][]share.Share) T) <-chan Result[T] {
	out := make(chan Result[T], 1)
	go func() {
		result, stats, err := Run(engine, inputs, circuitFn)
		out <- Result[T]{Value: result, Stats: stats, Err: err}
	}()
	return out
}

// Result is the value RunBackground delivers once a circuit finishes.
type Result[T any] struct {
	Value T
	Stats Stats
	Err   error
}

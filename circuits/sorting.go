package circuits

import (
	"github.com/fenwick-labs/spdzmpc/exec"
	"github.com/fenwick-labs/spdzmpc/share"
)

// SwapPair is one comparator in a sorting schedule: positions I and J
// (relative to the sorted slice, 0-based) and the share of the comparison
// weights[I] > weights[J].
type SwapPair struct {
	I, J int
	Cond BitShare
}

// SwappingRound is one set of vertex-disjoint comparators: independent, so
// every comparator in a round is evaluated concurrently via the
// deterministic join.
type SwappingRound []SwapPair

// Schedule is an ordered sequence of rounds, reusable against any sequence
// indexed the same way the weights it was generated from were.
type Schedule []SwappingRound

// batcherStages generates the comparator-network index pairs of the
// iterative Batcher odd-even mergesort for n elements, grouped into
// vertex-disjoint (and therefore concurrently-evaluable) stages.
func batcherStages(n int) [][][2]int {
	var stages [][][2]int
	if n < 2 {
		return stages
	}

	t := 1
	for (1 << uint(t)) < n {
		t++
	}

	p := 1 << uint(t-1)
	for p > 0 {
		q := 1 << uint(t-1)
		r := 0
		d := p
		for d > 0 {
			var stage [][2]int
			for i := 0; i < n-d; i++ {
				if i&p == r {
					stage = append(stage, [2]int{i, i + d})
				}
			}
			if len(stage) > 0 {
				stages = append(stages, stage)
			}
			d = q - p
			q >>= 1
			r = p
		}
		p >>= 1
	}
	return stages
}

// GenerateSortingSwaps builds the ascending sorting schedule for weights
// (evaluating each comparator against the actual, running values, since
// later stages depend on earlier swaps having been applied) and returns
// both the schedule and the sorted copy of weights.
func GenerateSortingSwaps(s *exec.Scope, weights []IntShare) (Schedule, []IntShare) {
	n := len(weights)
	work := make([]IntShare, n)
	copy(work, weights)

	stages := batcherStages(n)
	schedule := make(Schedule, 0, len(stages))

	for _, pairs := range stages {
		thunks := make([]func(*exec.Scope) SwapPair, len(pairs))
		for idx, pr := range pairs {
			i, j := pr[0], pr[1]
			thunks[idx] = func(cs *exec.Scope) SwapPair {
				return SwapPair{I: i, J: j, Cond: Greater(cs, work[i], work[j])}
			}
		}
		round := exec.JoinAll(s, thunks)
		applySwapRoundInt(s, work, round)
		schedule = append(schedule, round)
	}

	return schedule, work
}

// Sort returns weights in non-decreasing order.
func Sort(s *exec.Scope, weights []IntShare) []IntShare {
	_, sorted := GenerateSortingSwaps(s, weights)
	return sorted
}

// applySwapRoundInt applies one round of conditional swaps to an IntShare
// slice, in place, concurrently.
func applySwapRoundInt(s *exec.Scope, ints []IntShare, round SwappingRound) {
	type pairResult struct {
		i, j int
		a, b share.Share
	}
	thunks := make([]func(*exec.Scope) pairResult, len(round))
	for idx, p := range round {
		p := p
		thunks[idx] = func(cs *exec.Scope) pairResult {
			a, b := SwapIf(cs, p.Cond, ints[p.I].Share, ints[p.J].Share)
			return pairResult{i: p.I, j: p.J, a: a, b: b}
		}
	}
	results := exec.JoinAll(s, thunks)
	for _, r := range results {
		ints[r.i] = IntShare{Share: r.a, N: ints[r.i].N}
		ints[r.j] = IntShare{Share: r.b, N: ints[r.j].N}
	}
}

// ApplySwaps applies a previously-generated schedule to any other Share
// sequence indexed the same way (e.g. a payload column riding alongside the
// sort key), concurrently within each round.
func ApplySwaps(s *exec.Scope, seq []share.Share, schedule Schedule) []share.Share {
	type pairResult struct {
		i, j int
		a, b share.Share
	}
	out := make([]share.Share, len(seq))
	copy(out, seq)

	for _, round := range schedule {
		thunks := make([]func(*exec.Scope) pairResult, len(round))
		for idx, p := range round {
			p := p
			thunks[idx] = func(cs *exec.Scope) pairResult {
				a, b := SwapIf(cs, p.Cond, out[p.I], out[p.J])
				return pairResult{i: p.I, j: p.J, a: a, b: b}
			}
		}
		results := exec.JoinAll(s, thunks)
		for _, r := range results {
			out[r.i], out[r.j] = r.a, r.b
		}
	}
	return out
}

// ApplySwapsToMatrix applies schedule to both the row and column order of a
// square matrix, restricted to indices >= offset (schedule indices are
// relative to that restricted range). Each round swaps rows i<->j fully,
// then columns i<->j fully, both conditioned on the same comparator share,
// which correctly composes into a single simultaneous permutation of
// vertex i and vertex j.
func ApplySwapsToMatrix(s *exec.Scope, matrix [][]share.Share, schedule Schedule, offset int) {
	type cellResult struct {
		row, col int
		a, b     share.Share
	}
	n := len(matrix)

	for _, round := range schedule {
		var rowThunks []func(*exec.Scope) cellResult
		for _, p := range round {
			i, j, cond := p.I+offset, p.J+offset, p.Cond
			for k := 0; k < n; k++ {
				k := k
				rowThunks = append(rowThunks, func(cs *exec.Scope) cellResult {
					a, b := SwapIf(cs, cond, matrix[i][k], matrix[j][k])
					return cellResult{row: i, col: k, a: a, b: b}
				})
			}
		}
		rowResults := exec.JoinAll(s, rowThunks)
		ri := 0
		for _, p := range round {
			i, j := p.I+offset, p.J+offset
			for k := 0; k < n; k++ {
				r := rowResults[ri]
				matrix[i][k] = r.a
				matrix[j][k] = r.b
				ri++
			}
		}

		var colThunks []func(*exec.Scope) cellResult
		for _, p := range round {
			i, j, cond := p.I+offset, p.J+offset, p.Cond
			for k := 0; k < n; k++ {
				k := k
				colThunks = append(colThunks, func(cs *exec.Scope) cellResult {
					a, b := SwapIf(cs, cond, matrix[k][i], matrix[k][j])
					return cellResult{row: k, col: i, a: a, b: b}
				})
			}
		}
		colResults := exec.JoinAll(s, colThunks)
		ci := 0
		for _, p := range round {
			i, j := p.I+offset, p.J+offset
			for k := 0; k < n; k++ {
				r := colResults[ci]
				matrix[k][i] = r.a
				matrix[k][j] = r.b
				ci++
			}
		}
	}
}

package circuits

import (
	"fmt"

	"github.com/fenwick-labs/spdzmpc/exec"
	"github.com/fenwick-labs/spdzmpc/share"
)

// ErrPickedInvalidVertex is returned when the oblivious Dijkstra vertex
// pick opens to an index outside the candidate range, or to an
// already-processed vertex: an adversary attempting to divert the
// algorithm by submitting an inconsistent masked value.
var ErrPickedInvalidVertex = fmt.Errorf("circuits: picked invalid vertex")

// tieBreakBits sizes the random tie-break weight drawn per vertex per
// augmentation; any width comfortably exceeding log2(n) avoids spurious
// collisions in practice, though the equal-gated combine below handles real
// ties correctly regardless of width.
const tieBreakBits = 32

// FlowNetwork is an index-addressed min-cost flow instance: unit
// capacities, a 0/1 adjacency matrix (preserved untouched for final flow
// extraction), and an antisymmetric cost matrix defined along existing
// edges.
type FlowNetwork struct {
	N         int
	Adjacency [][]share.Share
	Cost      [][]share.Share
}

func vertexWidth(n int) int {
	w := 2
	for (1 << uint(w-1)) < n {
		w++
	}
	return w
}

// MinCostFlow runs Successive Shortest Paths with Johnson reweighting,
// fully obliviously: up to flowLimit augmentations, each increasing flow by
// at most one unit. Returns the flow matrix (adjacency - residual).
func (fn *FlowNetwork) MinCostFlow(s *exec.Scope, source, sink, flowLimit int) ([][]IntShare, error) {
	n := fn.N
	mod := s.Modulus()
	idWidth := vertexWidth(n)
	valWidth := mod.SafeBits / 2

	residual := make([][]share.Share, n)
	cost := make([][]share.Share, n)
	for i := 0; i < n; i++ {
		residual[i] = make([]share.Share, n)
		cost[i] = make([]share.Share, n)
		copy(residual[i], fn.Adjacency[i])
		copy(cost[i], fn.Cost[i])
	}

	// Step 1: cost bound C = 1 + sum_{i,j} cost[i,j]*adjacency[i,j]. Both
	// operands are secret, so this is n^2 concurrent multiplications (one
	// round), not local arithmetic.
	prodThunks := make([]func(*exec.Scope) share.Share, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			ci, cj := i, j
			prodThunks = append(prodThunks, func(cs *exec.Scope) share.Share {
				return Mul(cs, cost[ci][cj], fn.Adjacency[ci][cj])
			})
		}
	}
	products := exec.JoinAll(s, prodThunks)
	costSum := share.Zero(mod)
	for _, p := range products {
		costSum = costSum.Add(p)
	}
	costBound := IntShare{Share: costSum.Add(s.Plain(mod.One())), N: valWidth}

	// Step 2: normalize so source sits at position 0, sink at position 1.
	// Source and sink are public parameters, so this permutation is a
	// plain index relabeling, not an MPC operation.
	perm := identityPerm(n)
	swapAt(perm, 0, indexOfValue(perm, source))
	swapAt(perm, 1, indexOfValue(perm, sink))
	residual = permuteMatrixShare(residual, perm)
	cost = permuteMatrixShare(cost, perm)
	invNormPerm := invertPerm(perm)

	var iterationSchedules []Schedule

	for iter := 0; iter < flowLimit; iter++ {
		// Step 3a: random permutation of positions 2..n-1, to hide which
		// vertex is "next" even if intermediate values leak.
		if n > 3 {
			weights := make([]IntShare, n-2)
			for i := range weights {
				weights[i] = IntShare{Share: s.NextUint(tieBreakBits), N: tieBreakBits}
			}
			schedule, _ := GenerateSortingSwaps(s, weights)
			ApplySwapsToMatrix(s, cost, schedule, 2)
			ApplySwapsToMatrix(s, residual, schedule, 2)
			iterationSchedules = append(iterationSchedules, schedule)
		}

		// Step 3b: oblivious Dijkstra from vertex 0.
		dist := make([]IntShare, n)
		prev := make([]IntShare, n)
		weight := make([]IntShare, n)
		onBestPath := make([]BitShare, n)
		processed := make([]bool, n)
		for v := 0; v < n; v++ {
			dist[v] = costBound
			prev[v] = IntShare{Share: s.Plain(mod.FromInt64(-1)), N: idWidth}
			weight[v] = IntShare{Share: s.NextUint(tieBreakBits), N: tieBreakBits}
			onBestPath[v] = BitShare{s.Plain(mod.Zero())}
		}
		dist[0] = IntShare{Share: s.Plain(mod.Zero()), N: valWidth}
		processed[0] = true
		processingOrder := []int{0}
		relax(s, 0, processed, residual, cost, dist, prev, valWidth)

		for step := 0; step < n-2; step++ {
			var candidates []argCandidate
			for v := 2; v < n; v++ {
				if processed[v] {
					continue
				}
				candidates = append(candidates, argCandidate{
					Dist:   dist[v],
					Weight: weight[v],
					ID:     IntShare{Share: s.Plain(mod.FromUint64(uint64(v))), N: idWidth},
				})
			}
			winner := argMinTree(s, candidates)

			s.EnsureIntegrity()
			openedID := winner.ID.OpenUnchecked(s)
			idx := int(openedID)
			if idx < 2 || idx >= n || processed[idx] {
				return nil, ErrPickedInvalidVertex
			}
			processed[idx] = true
			processingOrder = append(processingOrder, idx)
			relax(s, idx, processed, residual, cost, dist, prev, valWidth)
		}

		// Step 3c: path inversion.
		onBestPath[sinkPos] = Less(s, dist[sinkPos], costBound)
		order := append(append([]int{}, processingOrder...), sinkPos)
		for k := len(order) - 1; k >= 1; k-- {
			curV := order[k]
			earlier := order[:k]

			indThunks := make([]func(*exec.Scope) BitShare, len(earlier))
			for idx, id := range earlier {
				id := id
				indThunks[idx] = func(cs *exec.Scope) BitShare {
					return Equal(cs, prev[curV], IntShare{Share: cs.Plain(mod.FromUint64(uint64(id))), N: idWidth})
				}
			}
			indicators := exec.JoinAll(s, indThunks)

			contribThunks := make([]func(*exec.Scope) share.Share, len(earlier))
			for idx := range earlier {
				ind := indicators[idx]
				contribThunks[idx] = func(cs *exec.Scope) share.Share {
					return Mul(cs, onBestPath[curV].Share, ind.Share)
				}
			}
			contributions := exec.JoinAll(s, contribThunks)

			for idx, id := range earlier {
				c := contributions[idx]
				onBestPath[id] = BitShare{onBestPath[id].Share.Add(c)}
				residual[id][curV] = residual[id][curV].Sub(c)
				residual[curV][id] = residual[curV][id].Add(c)
			}
		}

		// Step 3d: Johnson reweighting, strictly local.
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				cost[i][j] = cost[i][j].Add(dist[i].Share).Sub(dist[j].Share)
			}
		}
	}

	// Step 4: undo every per-iteration random permutation (reverse
	// chronological order, reversed round order within each), then undo
	// the initial source/sink normalization, and extract the flow.
	for k := len(iterationSchedules) - 1; k >= 0; k-- {
		ApplySwapsToMatrix(s, residual, reverseSchedule(iterationSchedules[k]), 2)
	}
	residual = permuteMatrixShare(residual, invNormPerm)

	flow := make([][]IntShare, n)
	for i := 0; i < n; i++ {
		flow[i] = make([]IntShare, n)
		for j := 0; j < n; j++ {
			flow[i][j] = IntShare{Share: fn.Adjacency[i][j].Sub(residual[i][j]), N: valWidth}
		}
	}
	return flow, nil
}

const sinkPos = 1

type relaxState struct {
	v    int
	dist IntShare
	prev IntShare
}

// relax updates dist/prev for every unprocessed vertex other than cur, in
// one communication level.
func relax(s *exec.Scope, cur int, processed []bool, residual, cost [][]share.Share, dist, prev []IntShare, valWidth int) {
	var targets []int
	for v := range processed {
		if !processed[v] && v != cur {
			targets = append(targets, v)
		}
	}
	if len(targets) == 0 {
		return
	}

	mod := s.Modulus()
	thunks := make([]func(*exec.Scope) relaxState, len(targets))
	for idx, v := range targets {
		v := v
		thunks[idx] = func(cs *exec.Scope) relaxState {
			e := residual[cur][v]
			alt := IntShare{Share: dist[cur].Share.Add(cost[cur][v]), N: valWidth}
			better := Less(cs, alt, dist[v])
			betterAndE := Bit(Mul(cs, better.Share, e))
			curID := cs.Plain(mod.FromUint64(uint64(cur)))
			return relaxState{
				v:    v,
				dist: IntShare{Share: Select(cs, betterAndE, alt.Share, dist[v].Share), N: valWidth},
				prev: IntShare{Share: Select(cs, betterAndE, curID, prev[v].Share), N: prev[v].N},
			}
		}
	}
	results := exec.JoinAll(s, thunks)
	for _, r := range results {
		dist[r.v] = r.dist
		prev[r.v] = r.prev
	}
}

// argCandidate is one entrant in the lexicographic-min vertex pick: (dist,
// weight) ordered, carrying its own id share so the winner's id can be
// opened directly.
type argCandidate struct {
	Dist, Weight, ID IntShare
}

func combineArgMin(s *exec.Scope, a, b argCandidate) argCandidate {
	distLess := Less(s, a.Dist, b.Dist)
	distEq := Equal(s, a.Dist, b.Dist)
	weightLess := Less(s, a.Weight, b.Weight)
	aWins := distLess.Or(s, distEq.And(s, weightLess))

	return argCandidate{
		Dist:   IntShare{Share: Select(s, aWins, a.Dist.Share, b.Dist.Share), N: a.Dist.N},
		Weight: IntShare{Share: Select(s, aWins, a.Weight.Share, b.Weight.Share), N: a.Weight.N},
		ID:     IntShare{Share: Select(s, aWins, a.ID.Share, b.ID.Share), N: a.ID.N},
	}
}

func argMinTree(s *exec.Scope, items []argCandidate) argCandidate {
	level := make([]argCandidate, len(items))
	copy(level, items)

	for len(level) > 1 {
		pairs := len(level) / 2
		odd := len(level)%2 == 1

		thunks := make([]func(*exec.Scope) argCandidate, pairs)
		for i := 0; i < pairs; i++ {
			a, b := level[2*i], level[2*i+1]
			thunks[i] = func(cs *exec.Scope) argCandidate { return combineArgMin(cs, a, b) }
		}

		next := exec.JoinAll(s, thunks)
		if odd {
			next = append(next, level[len(level)-1])
		}
		level = next
	}
	return level[0]
}

func identityPerm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

func indexOfValue(p []int, v int) int {
	for i, x := range p {
		if x == v {
			return i
		}
	}
	panic(fmt.Sprintf("circuits: value %d not present in permutation", v))
}

func swapAt(p []int, i, j int) {
	p[i], p[j] = p[j], p[i]
}

func invertPerm(p []int) []int {
	inv := make([]int, len(p))
	for i, v := range p {
		inv[v] = i
	}
	return inv
}

func permuteMatrixShare(m [][]share.Share, perm []int) [][]share.Share {
	n := len(perm)
	out := make([][]share.Share, n)
	for i := range out {
		out[i] = make([]share.Share, n)
		for j := range out[i] {
			out[i][j] = m[perm[i]][perm[j]]
		}
	}
	return out
}

func reverseSchedule(schedule Schedule) Schedule {
	out := make(Schedule, len(schedule))
	for i, r := range schedule {
		out[len(schedule)-1-i] = r
	}
	return out
}

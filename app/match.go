// Package app implements the preference-matching consumer boundary: the
// one concrete application spec.md §6 describes end to end, grounded on
// original_source/matcher/src/main.rs and mpc_flow/src/matching.rs (the CLI
// entry point itself — flag parsing, process exit codes — stays out of
// scope per the Non-goals).
package app

import (
	"fmt"

	"github.com/fenwick-labs/spdzmpc/circuits"
	"github.com/fenwick-labs/spdzmpc/exec"
	"github.com/fenwick-labs/spdzmpc/field"
	"github.com/fenwick-labs/spdzmpc/share"
	"github.com/fenwick-labs/spdzmpc/spdz"
)

// PreferenceWidth bounds the IntShare width used for clamped preference
// coordinates. Large enough for any maxPreference a caller is likely to
// pass; squared differences are accumulated as raw field elements, not
// further width-checked IntShares, since the sum only needs to survive
// comparison inside min-cost flow, not a second round of clamping.
const PreferenceWidth = 24

// Match runs the preference-matching protocol for one party: n parties (n
// even) each contribute a clamped preference vector, split into a left n/2
// and right n/2 side, matched to minimize total squared L2 distance.
//
// Every opening in this engine is public, so the circuit masks each
// party's own result before opening it; mask is a field element this party
// chooses uniformly at random itself and rides along as input 0. Only the
// owning party can subtract its own mask back out, which this function
// does locally after the run completes, to recover its match index in the
// clear.
func Match(engine *spdz.Engine, preferences []uint64, maxPreference uint64, mask field.Element) (int64, exec.Stats, error) {
	mod := engine.Dealer().Modulus()
	n := engine.NumParties()
	if n%2 != 0 {
		return 0, exec.Stats{}, fmt.Errorf("app: match requires an even party count, got %d", n)
	}
	half := n / 2

	inputs := make([]field.Element, 0, len(preferences)+1)
	inputs = append(inputs, mask)
	for _, p := range preferences {
		inputs = append(inputs, mod.FromUint64(p))
	}

	outcome, stats, err := exec.Run(engine, inputs, func(s *exec.Scope, matrix [][]share.Share) matchOutcome {
		return runMatching(s, matrix, half, maxPreference)
	})
	if err != nil {
		return 0, stats, err
	}
	if outcome.err != nil {
		return 0, stats, outcome.err
	}

	myMasked := outcome.masked[engine.PartyID()]
	myMatch := myMasked.Sub(mask)
	return int64(myMatch.Uint64()), stats, nil
}

type matchOutcome struct {
	masked []field.Element
	err    error
}

type dimIndex struct{ p, d int }

func runMatching(s *exec.Scope, matrix [][]share.Share, half int, maxPreference uint64) matchOutcome {
	n := len(matrix)
	dims := len(matrix[0]) - 1

	lo := circuits.FromPlainInt(s, PreferenceWidth, 0)
	hi := circuits.FromPlainInt(s, PreferenceWidth, int64(maxPreference))

	var jobs []dimIndex
	for p := 0; p < n; p++ {
		for d := 0; d < dims; d++ {
			jobs = append(jobs, dimIndex{p: p, d: d})
		}
	}
	clampThunks := make([]func(*exec.Scope) circuits.IntShare, len(jobs))
	for idx, j := range jobs {
		j := j
		clampThunks[idx] = func(cs *exec.Scope) circuits.IntShare {
			raw := circuits.WrapInt(matrix[j.p][j.d+1], PreferenceWidth)
			return raw.Clamp(cs, lo, hi)
		}
	}
	clamped := exec.JoinAll(s, clampThunks)

	vectors := make([][]circuits.IntShare, n)
	for p := range vectors {
		vectors[p] = make([]circuits.IntShare, dims)
	}
	for idx, j := range jobs {
		vectors[j.p][j.d] = clamped[idx]
	}

	var pairs [][2]int
	for i := 0; i < half; i++ {
		for j := 0; j < half; j++ {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	costThunks := make([]func(*exec.Scope) share.Share, len(pairs))
	for k, pr := range pairs {
		i, j := pr[0], pr[1]
		costThunks[k] = func(cs *exec.Scope) share.Share {
			sum := share.Zero(cs.Modulus())
			for d := 0; d < dims; d++ {
				diff := vectors[i][d].Share.Sub(vectors[half+j][d].Share)
				sum = sum.Add(circuits.Mul(cs, diff, diff))
			}
			return sum
		}
	}
	costResults := exec.JoinAll(s, costThunks)
	cost := make([][]share.Share, half)
	for i := range cost {
		cost[i] = make([]share.Share, half)
	}
	for k, pr := range pairs {
		cost[pr[0]][pr[1]] = costResults[k]
	}

	leftMatch, rightMatch, err := circuits.MinCostMaxMatching(s, cost)
	if err != nil {
		return matchOutcome{err: err}
	}

	openThunks := make([]func(*exec.Scope) field.Element, n)
	for p := 0; p < n; p++ {
		var matchShare share.Share
		if p < half {
			matchShare = leftMatch[p].Share
		} else {
			matchShare = rightMatch[p-half].Share
		}
		maskedShare := matchShare.Add(matrix[p][0])
		openThunks[p] = func(cs *exec.Scope) field.Element { return cs.OpenUnchecked(maskedShare) }
	}
	masked := exec.JoinAll(s, openThunks)

	return matchOutcome{masked: masked}
}

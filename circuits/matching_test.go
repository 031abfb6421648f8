package circuits_test

import (
	"testing"

	"github.com/fenwick-labs/spdzmpc/circuits"
	"github.com/fenwick-labs/spdzmpc/exec"
	"github.com/fenwick-labs/spdzmpc/field"
	"github.com/fenwick-labs/spdzmpc/share"
	"github.com/fenwick-labs/spdzmpc/spdz"
	"github.com/fenwick-labs/spdzmpc/testutil"
)

// TestMinCostMaxMatching covers scenario 4: a 5x5 bipartite cost matrix
// resolves to left-match [3,2,0,4,1] and right-match [2,4,1,0,3], which
// are mutually inverse permutations (the matching optimality property).
func TestMinCostMaxMatching(t *testing.T) {
	mod := field.Mersenne61()
	engines := testutil.NewEngineSet(mod, 1, 98304, 98304, 0, 13)

	costs := [][]int64{
		{5, 5, 5, 1, 5},
		{5, 5, 1, 5, 5},
		{1, 5, 5, 5, 5},
		{5, 5, 5, 5, 1},
		{5, 1, 5, 5, 5},
	}
	wantLeft := []int64{3, 2, 0, 4, 1}
	wantRight := []int64{2, 4, 1, 0, 3}

	type outcome struct {
		left, right []int64
		err         error
	}

	results, err := testutil.RunAll(engines, func(_ int, e *spdz.Engine) (outcome, error) {
		out, _, runErr := exec.Run(e, nil, func(s *exec.Scope, _ [][]share.Share) outcome {
			n := len(costs)
			cost := make([][]share.Share, n)
			for i := range cost {
				cost[i] = make([]share.Share, n)
				for j := range cost[i] {
					cost[i][j] = s.Plain(s.Modulus().FromInt64(costs[i][j]))
				}
			}

			left, right, merr := circuits.MinCostMaxMatching(s, cost)
			if merr != nil {
				return outcome{err: merr}
			}

			leftOut := make([]int64, n)
			rightOut := make([]int64, n)
			for i := 0; i < n; i++ {
				leftOut[i] = left[i].OpenUnchecked(s)
				rightOut[i] = right[i].OpenUnchecked(s)
			}
			return outcome{left: leftOut, right: rightOut}
		})
		if runErr != nil {
			return outcome{}, runErr
		}
		return out, nil
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for p, o := range results {
		if o.err != nil {
			t.Fatalf("party %d: matching failed: %v", p, o.err)
		}
		for i := range wantLeft {
			if o.left[i] != wantLeft[i] {
				t.Errorf("party %d: leftMatch[%d] = %d, want %d", p, i, o.left[i], wantLeft[i])
			}
			if o.right[i] != wantRight[i] {
				t.Errorf("party %d: rightMatch[%d] = %d, want %d", p, i, o.right[i], wantRight[i])
			}
		}
		for i, l := range o.left {
			if o.right[l] != int64(i) {
				t.Errorf("party %d: leftMatch/rightMatch not mutually inverse at %d", p, i)
			}
		}
	}
}

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

// TestMinCostFlow covers scenario 3: a 5-node network with edges
// (0->2,1) (0->4,5) (2->4,1) (2->3,10) (2->1,5) (4->3,1) (3->1,1),
// source 0, sink 1, flow limit 5. Expects one unit of flow routed along
// 0->2, 0->4, 2->1, 4->3, 3->1, and none along 2->4 or 2->3.
func TestMinCostFlow(t *testing.T) {
	mod := field.Mersenne61()
	engines := testutil.NewEngineSet(mod, 1, 8192, 12288, 0, 11)

	type edge struct {
		from, to int
		cost     int64
	}
	edges := []edge{
		{0, 2, 1},
		{0, 4, 5},
		{2, 4, 1},
		{2, 3, 10},
		{2, 1, 5},
		{4, 3, 1},
		{3, 1, 1},
	}
	const n = 5

	type outcome struct {
		flow [][]int64
		err  error
	}

	results, err := testutil.RunAll(engines, func(_ int, e *spdz.Engine) (outcome, error) {
		out, _, runErr := exec.Run(e, nil, func(s *exec.Scope, _ [][]share.Share) outcome {
			mod := s.Modulus()
			zero := s.Plain(mod.Zero())
			one := s.Plain(mod.One())

			adjacency := make([][]share.Share, n)
			cost := make([][]share.Share, n)
			for i := 0; i < n; i++ {
				adjacency[i] = make([]share.Share, n)
				cost[i] = make([]share.Share, n)
				for j := 0; j < n; j++ {
					adjacency[i][j] = zero
					cost[i][j] = zero
				}
			}
			for _, ed := range edges {
				adjacency[ed.from][ed.to] = one
				cost[ed.from][ed.to] = s.Plain(mod.FromInt64(ed.cost))
				cost[ed.to][ed.from] = s.Plain(mod.FromInt64(-ed.cost))
			}

			network := &circuits.FlowNetwork{N: n, Adjacency: adjacency, Cost: cost}
			flow, ferr := network.MinCostFlow(s, 0, 1, n)
			if ferr != nil {
				return outcome{err: ferr}
			}

			flowOut := make([][]int64, n)
			for i := range flowOut {
				flowOut[i] = make([]int64, n)
				for j := range flowOut[i] {
					flowOut[i][j] = flow[i][j].OpenUnchecked(s)
				}
			}
			return outcome{flow: flowOut}
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
			t.Fatalf("party %d: min-cost flow failed: %v", p, o.err)
		}
	}

	want := map[[2]int]int64{
		{0, 2}: 1, {2, 0}: -1,
		{0, 4}: 1, {4, 0}: -1,
		{2, 1}: 1, {1, 2}: -1,
		{4, 3}: 1, {3, 4}: -1,
		{3, 1}: 1, {1, 3}: -1,
		{2, 4}: 0, {4, 2}: 0,
		{2, 3}: 0, {3, 2}: 0,
	}

	for p, o := range results {
		for pair, expected := range want {
			got := o.flow[pair[0]][pair[1]]
			if got != expected {
				t.Errorf("party %d: flow[%d][%d] = %d, want %d", p, pair[0], pair[1], got, expected)
			}
		}
	}
}

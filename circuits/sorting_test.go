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

// TestSort covers scenario 2: sorting [2,1,9,3,4,7,6,8,5] as IntShare<8>
// opens to [1..9] in non-decreasing order.
func TestSort(t *testing.T) {
	mod := field.Mersenne61()
	engines := testutil.NewEngineSet(mod, 1, 512, 2048, 0, 3)

	input := []int64{2, 1, 9, 3, 4, 7, 6, 8, 5}
	want := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9}

	results, err := testutil.RunAll(engines, func(_ int, e *spdz.Engine) ([]int64, error) {
		out, _, err := exec.Run(e, nil, func(s *exec.Scope, _ [][]share.Share) []int64 {
			weights := make([]circuits.IntShare, len(input))
			for i, v := range input {
				weights[i] = circuits.FromPlainInt(s, 8, v)
			}

			sorted := circuits.Sort(s, weights)

			out := make([]int64, len(sorted))
			for i, v := range sorted {
				out[i] = v.OpenUnchecked(s)
			}
			return out
		})
		return out, err
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for p, out := range results {
		for i, v := range out {
			if v != want[i] {
				t.Errorf("party %d: sorted[%d] = %d, want %d", p, i, v, want[i])
			}
		}
	}
}

// TestApplySwapsMatchesSortPermutation covers the sorting property: the
// same schedule applied to a payload sequence follows the same
// permutation as the sort of the weights.
func TestApplySwapsMatchesSortPermutation(t *testing.T) {
	mod := field.Mersenne61()
	engines := testutil.NewEngineSet(mod, 1, 512, 1024, 0, 5)

	weights := []int64{5, 3, 4, 1, 2}
	labels := []int64{50, 30, 40, 10, 20} // labels[i] = 10*weights[i]

	results, err := testutil.RunAll(engines, func(_ int, e *spdz.Engine) ([]int64, error) {
		out, _, err := exec.Run(e, nil, func(s *exec.Scope, _ [][]share.Share) []int64 {
			weightShares := make([]circuits.IntShare, len(weights))
			labelShares := make([]share.Share, len(labels))
			for i := range weights {
				weightShares[i] = circuits.FromPlainInt(s, 8, weights[i])
				labelShares[i] = circuits.Plain(s, s.Modulus().FromInt64(labels[i]))
			}

			schedule, _ := circuits.GenerateSortingSwaps(s, weightShares)
			permutedLabels := circuits.ApplySwaps(s, labelShares, schedule)

			out := make([]int64, len(permutedLabels))
			for i, l := range permutedLabels {
				out[i] = int64(s.OpenUnchecked(l).Uint64())
			}
			return out
		})
		return out, err
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for p, out := range results {
		for i := 1; i < len(out); i++ {
			if out[i-1] >= out[i] {
				t.Errorf("party %d: permuted labels not increasing at %d: %v", p, i, out)
			}
		}
	}
}

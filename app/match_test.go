package app_test

import (
	"testing"

	"github.com/fenwick-labs/spdzmpc/app"
	"github.com/fenwick-labs/spdzmpc/field"
	"github.com/fenwick-labs/spdzmpc/spdz"
	"github.com/fenwick-labs/spdzmpc/testutil"
)

// TestMatchFourParties runs the end-to-end preference-matching protocol
// with 4 parties (2 left, 2 right) over a single preference dimension.
// Left party 0 prefers 1, left party 1 prefers 10; right party 2 prefers
// 2, right party 3 prefers 9. The nearest pairing (0-2, 1-3) costs 1+1,
// far cheaper than the cross pairing's 64+64, so each party should
// recover the side-relative index of its nearest counterpart: parties 0
// and 2 get 0, parties 1 and 3 get 1.
func TestMatchFourParties(t *testing.T) {
	mod := field.Mersenne61()
	engines := testutil.NewEngineSet(mod, 4, 8192, 10240, 2, 17)

	preferences := [][]uint64{
		{1},
		{10},
		{2},
		{9},
	}
	const maxPreference = 100

	results, err := testutil.RunAll(engines, func(p int, e *spdz.Engine) (int64, error) {
		mask := mod.FromUint64(uint64(1000 + p))
		match, _, err := app.Match(e, preferences[p], maxPreference, mask)
		return match, err
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := []int64{0, 1, 0, 1}
	for p, v := range results {
		if v != want[p] {
			t.Errorf("party %d: match = %d, want %d", p, v, want[p])
		}
	}
}

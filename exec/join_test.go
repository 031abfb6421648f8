package exec_test

import (
	"testing"

	"github.com/fenwick-labs/spdzmpc/circuits"
	"github.com/fenwick-labs/spdzmpc/exec"
	"github.com/fenwick-labs/spdzmpc/field"
	"github.com/fenwick-labs/spdzmpc/share"
	"github.com/fenwick-labs/spdzmpc/spdz"
	"github.com/fenwick-labs/spdzmpc/testutil"
)

// TestJoinAllPreservesOrder checks that JoinAll's results line up with the
// thunks' input order regardless of how the underlying goroutines
// interleave.
func TestJoinAllPreservesOrder(t *testing.T) {
	mod := field.Mersenne61()
	engines := testutil.NewEngineSet(mod, 1, 0, 0, 0, 31)

	results, err := testutil.RunAll(engines, func(_ int, e *spdz.Engine) ([]int64, error) {
		out, _, err := exec.Run(e, nil, func(s *exec.Scope, _ [][]share.Share) []int64 {
			thunks := make([]func(*exec.Scope) field.Element, 10)
			for i := range thunks {
				i := i
				thunks[i] = func(cs *exec.Scope) field.Element {
					return cs.OpenUnchecked(cs.Plain(cs.Modulus().FromUint64(uint64(i))))
				}
			}
			opened := exec.JoinAll(s, thunks)
			out := make([]int64, len(opened))
			for i, v := range opened {
				out[i] = int64(v.Uint64())
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
			if v != int64(i) {
				t.Errorf("party %d: JoinAll result[%d] = %d, want %d", p, i, v, i)
			}
		}
	}
}

// TestJoin2And3 checks that Join2/Join3 return each branch's value paired
// correctly, not cross-wired.
func TestJoin2And3(t *testing.T) {
	mod := field.Mersenne61()
	engines := testutil.NewEngineSet(mod, 1, 0, 0, 0, 32)

	type out3 struct{ a, b, c int64 }
	results, err := testutil.RunAll(engines, func(_ int, e *spdz.Engine) (out3, error) {
		res, _, err := exec.Run(e, nil, func(s *exec.Scope, _ [][]share.Share) out3 {
			a, b := exec.Join2(s,
				func(cs *exec.Scope) field.Element { return cs.OpenUnchecked(cs.Plain(cs.Modulus().FromUint64(1))) },
				func(cs *exec.Scope) field.Element { return cs.OpenUnchecked(cs.Plain(cs.Modulus().FromUint64(2))) },
			)
			x, y, z := exec.Join3(s,
				func(cs *exec.Scope) field.Element { return cs.OpenUnchecked(cs.Plain(cs.Modulus().FromUint64(10))) },
				func(cs *exec.Scope) field.Element { return cs.OpenUnchecked(cs.Plain(cs.Modulus().FromUint64(20))) },
				func(cs *exec.Scope) field.Element { return cs.OpenUnchecked(cs.Plain(cs.Modulus().FromUint64(30))) },
			)
			return out3{a: int64(x.Uint64()) - int64(y.Uint64()), b: int64(z.Uint64()), c: int64(a.Uint64()) + int64(b.Uint64())}
		})
		return res, err
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for p, r := range results {
		if r.a != -10 {
			t.Errorf("party %d: x-y = %d, want -10", p, r.a)
		}
		if r.b != 30 {
			t.Errorf("party %d: z = %d, want 30", p, r.b)
		}
		if r.c != 3 {
			t.Errorf("party %d: a+b = %d, want 3", p, r.c)
		}
	}
}

// TestDeterminism covers the Determinism Testable Property: running the
// identical circuit against two independently-seeded fixtures yields the
// identical opened result.
func TestDeterminism(t *testing.T) {
	mod := field.Mersenne61()

	circuit := func(s *exec.Scope, _ [][]share.Share) int64 {
		x := s.Plain(s.Modulus().FromUint64(7))
		y := s.Plain(s.Modulus().FromUint64(6))
		thunks := []func(*exec.Scope) field.Element{
			func(cs *exec.Scope) field.Element { return cs.OpenUnchecked(cs.Plain(cs.Modulus().FromUint64(1))) },
		}
		exec.JoinAll(s, thunks)
		product := circuits.Mul(s, x, y)
		return int64(s.OpenUnchecked(product).Uint64())
	}

	for _, seed := range []int64{41, 999} {
		engines := testutil.NewEngineSet(mod, 1, 8, 0, 0, seed)
		results, err := testutil.RunAll(engines, func(_ int, e *spdz.Engine) (int64, error) {
			out, _, err := exec.Run(e, nil, circuit)
			return out, err
		})
		if err != nil {
			t.Fatalf("seed %d: run failed: %v", seed, err)
		}
		for p, v := range results {
			if v != 42 {
				t.Errorf("seed %d party %d: got %d, want 42", seed, p, v)
			}
		}
	}
}

package circuits

import (
	"github.com/fenwick-labs/spdzmpc/exec"
	"github.com/fenwick-labs/spdzmpc/share"
)

// cmpPair is the per-node state BitwiseCompare folds: a lexicographic
// comparison accumulator (Cmp) and a "differs so far" accumulator (Neq).
type cmpPair struct {
	Cmp, Neq share.Share
}

// BitwiseCompare compares a plaintext lhs against a shared bit vector rhs
// (most significant bit first), realizing lexicographic comparison from the
// high-order bit down. Returns (is_less, is_greater); log2(k) rounds,
// 2(k-1) multiplications for a k-bit rhs.
func BitwiseCompare(s *exec.Scope, lhs uint64, rhs []BitShare) (isLess, isGreater BitShare) {
	k := len(rhs)
	level := make([]cmpPair, k)
	for i, r := range rhs {
		bit := (lhs >> uint(k-1-i)) & 1
		if bit == 0 {
			level[i] = cmpPair{Cmp: r.Share.Neg(), Neq: r.Share}
		} else {
			notR := s.One().Sub(r.Share)
			level[i] = cmpPair{Cmp: notR, Neq: notR}
		}
	}

	for len(level) > 1 {
		pairs := len(level) / 2
		odd := len(level)%2 == 1

		thunks := make([]func(*exec.Scope) cmpPair, pairs)
		for i := 0; i < pairs; i++ {
			left, right := level[2*i], level[2*i+1]
			thunks[i] = func(cs *exec.Scope) cmpPair {
				a, b := exec.Join2(cs,
					func(css *exec.Scope) share.Share { return Mul(css, left.Neq, right.Cmp) },
					func(css *exec.Scope) share.Share { return Mul(css, left.Neq, right.Neq) },
				)
				return cmpPair{
					Cmp: left.Cmp.Add(right.Cmp).Sub(a),
					Neq: left.Neq.Add(right.Neq).Sub(b),
				}
			}
		}

		next := exec.JoinAll(s, thunks)
		if odd {
			next = append(next, level[len(level)-1])
		}
		level = next
	}

	root := level[0]
	invTwo := s.Modulus().PowerOfTwoInverse(1)
	isLess = BitShare{root.Neq.Sub(root.Cmp).MulPublic(invTwo)}
	isGreater = BitShare{root.Neq.Add(root.Cmp).MulPublic(invTwo)}
	return isLess, isGreater
}

// BitwiseEqual tests a plaintext lhs for equality against a shared bit
// vector rhs (most significant bit first), derived from BitwiseCompare: a
// value is neither less than nor greater than lhs exactly when it equals
// it.
func BitwiseEqual(s *exec.Scope, lhs uint64, rhs []BitShare) BitShare {
	isLess, isGreater := BitwiseCompare(s, lhs, rhs)
	sum := isLess.Share.Add(isGreater.Share)
	return BitShare{s.One().Sub(sum)}
}

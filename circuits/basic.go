// Package circuits implements the oblivious arithmetic, boolean, integer,
// sorting, and graph circuits built on top of the executor: everything a
// circuit author composes out of exec.Scope and share.Share, grounded on
// circuits/mod.rs, bit.rs, integer.rs, bitwise.rs, sorting.rs, flow.rs, and
// matching.rs in original_source.
package circuits

import (
	"github.com/fenwick-labs/spdzmpc/exec"
	"github.com/fenwick-labs/spdzmpc/field"
	"github.com/fenwick-labs/spdzmpc/share"
)

// Plain embeds a public field element as a Share.
func Plain(s *exec.Scope, c field.Element) share.Share {
	return s.Plain(c)
}

// Mul computes x*y via Beaver multiplication: one preprocessed triple, two
// concurrent openings, one round.
func Mul(s *exec.Scope, x, y share.Share) share.Share {
	t := s.NextBeaverTriple()

	e, d := exec.Join2(s,
		func(cs *exec.Scope) field.Element { return cs.OpenUnchecked(x.Sub(t.A)) },
		func(cs *exec.Scope) field.Element { return cs.OpenUnchecked(y.Sub(t.B)) },
	)

	return t.C.Add(t.B.MulPublic(e)).Add(t.A.MulPublic(d)).Add(s.Plain(e.Mul(d)))
}

// Product multiplies a slice of shares via a balanced binary tree: O(log n)
// rounds, n-1 multiplications. Empty input returns a share of 1; a
// singleton is returned unchanged; an odd element at any level is promoted
// unchanged to the next level.
func Product(s *exec.Scope, xs []share.Share) share.Share {
	return FoldTree(s, xs, s.One(), Mul)
}

// FoldTree is a general associative fold with the same pairwise
// binary-tree shape Product uses. combine may itself suspend (call
// OpenUnchecked); all combines at one tree level run concurrently via
// JoinAll, so they land in a single round.
func FoldTree(s *exec.Scope, xs []share.Share, identity share.Share, combine func(*exec.Scope, share.Share, share.Share) share.Share) share.Share {
	if len(xs) == 0 {
		return identity
	}

	level := make([]share.Share, len(xs))
	copy(level, xs)

	for len(level) > 1 {
		pairs := len(level) / 2
		odd := len(level)%2 == 1

		thunks := make([]func(*exec.Scope) share.Share, pairs)
		for i := 0; i < pairs; i++ {
			a, b := level[2*i], level[2*i+1]
			thunks[i] = func(cs *exec.Scope) share.Share { return combine(cs, a, b) }
		}

		next := exec.JoinAll(s, thunks)
		if odd {
			next = append(next, level[len(level)-1])
		}
		level = next
	}

	return level[0]
}

package circuits

import (
	"github.com/fenwick-labs/spdzmpc/exec"
	"github.com/fenwick-labs/spdzmpc/share"
)

// BitShare is a Share known to carry a value in {0,1}. Every operation here
// assumes, but does not verify, that both operands are boolean; callers
// that need that guarantee draw bits via Random or derive them from a
// comparison circuit, never from an arbitrary Share.
type BitShare struct {
	share.Share
}

// Bit wraps a raw Share as a BitShare without any check.
func Bit(s share.Share) BitShare { return BitShare{s} }

// RandomBit draws a single uniformly random bit share from the dealer.
func RandomBit(s *exec.Scope) BitShare {
	return BitShare{s.NextUint(1)}
}

// Not returns 1-x, a strictly local operation.
func (x BitShare) Not(s *exec.Scope) BitShare {
	return BitShare{s.One().Sub(x.Share)}
}

// And returns x*y, one multiplication.
func (x BitShare) And(s *exec.Scope, y BitShare) BitShare {
	return BitShare{Mul(s, x.Share, y.Share)}
}

// Or returns not(not(x) and not(y)), one multiplication (not is free).
func (x BitShare) Or(s *exec.Scope, y BitShare) BitShare {
	return x.Not(s).And(s, y.Not(s)).Not(s)
}

// Xor returns x xor y via s=x+y, t=2-s, result=s*t; one multiplication.
func (x BitShare) Xor(s *exec.Scope, y BitShare) BitShare {
	sum := x.Share.Add(y.Share)
	t := s.Two().Sub(sum)
	return BitShare{Mul(s, sum, t)}
}

// Select returns f if c is 0, t if c is 1: f + c*(t-f), one multiplication.
func Select(s *exec.Scope, c BitShare, t, f share.Share) share.Share {
	return f.Add(Mul(s, c.Share, t.Sub(f)))
}

// SwapIf conditionally swaps x and y: if c is 1, returns (y, x); if c is 0,
// returns (x, y). One multiplication: delta = c*(x-y), (x-delta, y+delta).
func SwapIf(s *exec.Scope, c BitShare, x, y share.Share) (share.Share, share.Share) {
	delta := Mul(s, c.Share, x.Sub(y))
	return x.Sub(delta), y.Add(delta)
}

// OpenUnchecked opens x and interprets any non-zero plaintext as true.
func (x BitShare) OpenUnchecked(s *exec.Scope) bool {
	return !s.OpenUnchecked(x.Share).IsZero()
}

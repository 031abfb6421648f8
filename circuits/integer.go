package circuits

import (
	"github.com/fenwick-labs/spdzmpc/exec"
	"github.com/fenwick-labs/spdzmpc/share"
)

// IntShare is a Share interpreted as a two's-complement N-bit signed
// integer embedded in the field, 2 <= N <= min(SafeBits-1, 64). Temporary
// additive overflow between operations is tolerated; multiplicative
// operations and comparisons require both operands in range.
type IntShare struct {
	share.Share
	N int
}

// FromPlainInt embeds a public signed integer as an N-bit IntShare.
func FromPlainInt(s *exec.Scope, n int, v int64) IntShare {
	return IntShare{Share: s.Plain(s.Modulus().FromInt64(v)), N: n}
}

// WrapInt wraps a raw Share as an N-bit IntShare without any check.
func WrapInt(raw share.Share, n int) IntShare {
	return IntShare{Share: raw, N: n}
}

// bitsToValue composes bits[0]..bits[len-1] as a little-endian field
// element: sum_i 2^i * bits[i]. Strictly local, no suspension.
func bitsToValue(s *exec.Scope, bits []BitShare) share.Share {
	mod := s.Modulus()
	sum := share.Zero(mod)
	for i, b := range bits {
		sum = sum.Add(b.Share.MulPublic(mod.PowerOfTwo(i)))
	}
	return sum
}

// FromBits composes a little-endian bit slice (bits[0] the least
// significant) into an IntShare of that width.
func FromBits(s *exec.Scope, bits []BitShare) IntShare {
	return IntShare{Share: bitsToValue(s, bits), N: len(bits)}
}

func reverseBits(bits []BitShare) []BitShare {
	out := make([]BitShare, len(bits))
	for i, b := range bits {
		out[len(bits)-1-i] = b
	}
	return out
}

// OpenUnchecked opens x and reinterprets the plaintext as a signed integer:
// add 2^(N-1), truncate to u64, subtract 2^(N-1).
func (x IntShare) OpenUnchecked(s *exec.Scope) int64 {
	mod := s.Modulus()
	shifted := s.OpenUnchecked(x.Share.Add(s.Plain(mod.PowerOfTwo(x.N - 1))))
	half := int64(1) << uint(x.N-1)
	return int64(shifted.Uint64()) - half
}

// ModPowerOfTwo realizes the Catrina-de Hoogh Mod2M protocol: returns a
// Share holding x mod 2^k, with statistical privacy SafeBits-N-1 bits.
func (x IntShare) ModPowerOfTwo(s *exec.Scope, k int) share.Share {
	mod := s.Modulus()

	nv := x.Share.Add(s.Plain(mod.PowerOfTwo(x.N)))

	high := s.NextUint(mod.SafeBits - k)
	lowBits := make([]BitShare, k)
	for i := range lowBits {
		lowBits[i] = RandomBit(s)
	}
	low := bitsToValue(s, lowBits)
	mask := high.MulPublic(mod.PowerOfTwo(k)).Add(low)

	s.EnsureIntegrity()
	yField := s.OpenUnchecked(nv.Add(mask))
	y := yField.Uint64()
	kMask := uint64(1)<<uint(k) - 1
	yModK := y & kMask

	lessBit, _ := BitwiseCompare(s, yModK, reverseBits(lowBits))

	yModKShare := s.Plain(mod.FromUint64(yModK))
	return yModKShare.Sub(low).Add(lessBit.MulPublic(mod.PowerOfTwo(k)))
}

// EqualZero is the EQZ variant: the same masked opening as ModPowerOfTwo(N)
// but a bitwise-equality test in place of bitwise-compare, returning
// whether x's low N bits (i.e. x itself, since x is N-bit signed) are zero.
func (x IntShare) EqualZero(s *exec.Scope) BitShare {
	k := x.N
	mod := s.Modulus()

	nv := x.Share.Add(s.Plain(mod.PowerOfTwo(k)))

	high := s.NextUint(mod.SafeBits - k)
	lowBits := make([]BitShare, k)
	for i := range lowBits {
		lowBits[i] = RandomBit(s)
	}
	low := bitsToValue(s, lowBits)
	mask := high.MulPublic(mod.PowerOfTwo(k)).Add(low)

	s.EnsureIntegrity()
	yField := s.OpenUnchecked(nv.Add(mask))
	y := yField.Uint64()
	kMask := uint64(1)<<uint(k) - 1
	yModK := y & kMask

	return BitwiseEqual(s, yModK, reverseBits(lowBits))
}

// DivPowerOfTwo returns floor(x / 2^k) (arithmetic shift): subtract
// x mod 2^min(k,N), then scale by the inverse of 2^k.
func (x IntShare) DivPowerOfTwo(s *exec.Scope, k int) IntShare {
	kk := k
	if x.N < kk {
		kk = x.N
	}
	m := x.ModPowerOfTwo(s, kk)
	diff := x.Share.Sub(m)
	inv := s.Modulus().PowerOfTwoInverse(k)
	return IntShare{Share: diff.MulPublic(inv), N: x.N}
}

// LessThanZero returns -div_power_of_two(N) as a bit: an N-bit signed value
// arithmetic-shifted right by N bits is -1 if negative, 0 otherwise.
func (x IntShare) LessThanZero(s *exec.Scope) BitShare {
	d := x.DivPowerOfTwo(s, x.N)
	return BitShare{d.Share.Neg()}
}

// Less returns a < b.
func Less(s *exec.Scope, a, b IntShare) BitShare {
	diff := IntShare{Share: a.Share.Sub(b.Share), N: a.N}
	return diff.LessThanZero(s)
}

// Greater returns a > b.
func Greater(s *exec.Scope, a, b IntShare) BitShare {
	return Less(s, b, a)
}

// LessEq returns a <= b.
func LessEq(s *exec.Scope, a, b IntShare) BitShare {
	return Greater(s, a, b).Not(s)
}

// GreaterEq returns a >= b.
func GreaterEq(s *exec.Scope, a, b IntShare) BitShare {
	return Less(s, a, b).Not(s)
}

// Equal returns a == b.
func Equal(s *exec.Scope, a, b IntShare) BitShare {
	diff := IntShare{Share: a.Share.Sub(b.Share), N: a.N}
	return diff.EqualZero(s)
}

// Clamp forces x into [lo, hi] obliviously.
func (x IntShare) Clamp(s *exec.Scope, lo, hi IntShare) IntShare {
	tooLow := Less(s, x, lo)
	lowered := IntShare{Share: Select(s, tooLow, lo.Share, x.Share), N: x.N}

	tooHigh := Greater(s, lowered, hi)
	result := Select(s, tooHigh, hi.Share, lowered.Share)

	return IntShare{Share: result, N: x.N}
}

// WrapSafe forces an out-of-range raw value into the representable N-bit
// signed window: mod_power_of_two(N) followed by subtracting the shift.
// This guarantees a representable result but, per the statistical-privacy
// degradation the mask provides, not full privacy in the presence of prior
// overflow.
func WrapSafe(s *exec.Scope, raw share.Share, n int) IntShare {
	x := IntShare{Share: raw, N: n}
	m := x.ModPowerOfTwo(s, n)
	shifted := m.Sub(s.Plain(s.Modulus().PowerOfTwo(n - 1)))
	return IntShare{Share: shifted, N: n}
}

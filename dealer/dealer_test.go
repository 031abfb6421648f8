package dealer_test

import (
	"testing"

	"github.com/fenwick-labs/spdzmpc/dealer"
	"github.com/fenwick-labs/spdzmpc/field"
	"github.com/fenwick-labs/spdzmpc/share"
)

func sumShares(mod *field.Modulus, shares []share.Share, pick func(share.Share) field.Element) field.Element {
	sum := mod.Zero()
	for _, s := range shares {
		sum = sum.Add(pick(s))
	}
	return sum
}

func TestFakeDealerSetTripleConsistency(t *testing.T) {
	mod := field.Mersenne61()
	const numParties = 4
	dealers := dealer.NewFakeDealerSet(mod, numParties, 3, 0, 0, 42)

	for i := 0; i < 3; i++ {
		triples := make([]share.BeaverTriple, numParties)
		for p := range dealers {
			triples[p] = dealers[p].NextBeaverTriple()
		}

		aShares := make([]share.Share, numParties)
		bShares := make([]share.Share, numParties)
		cShares := make([]share.Share, numParties)
		for p, tr := range triples {
			aShares[p], bShares[p], cShares[p] = tr.A, tr.B, tr.C
		}

		a := sumShares(mod, aShares, func(s share.Share) field.Element { return s.Value })
		b := sumShares(mod, bShares, func(s share.Share) field.Element { return s.Value })
		c := sumShares(mod, cShares, func(s share.Share) field.Element { return s.Value })

		if !a.Mul(b).Eq(c) {
			t.Errorf("triple %d: a*b != c (a=%v b=%v c=%v)", i, a, b, c)
		}

		authKey := sumShares(mod, dealerAuthKeys(dealers), identity)
		aMac := sumShares(mod, aShares, func(s share.Share) field.Element { return s.Mac })
		if !aMac.Eq(a.Mul(authKey)) {
			t.Errorf("triple %d: a's mac share sum != a * authKey", i)
		}
	}
}

func dealerAuthKeys(dealers []*dealer.FakeDealer) []share.Share {
	out := make([]share.Share, len(dealers))
	for i, d := range dealers {
		out[i] = share.Share{Value: d.AuthKeyShare()}
	}
	return out
}

func identity(s share.Share) field.Element { return s.Value }

func TestFakeDealerSetBitsAreZeroOrOne(t *testing.T) {
	mod := field.Mersenne61()
	const numParties = 3
	dealers := dealer.NewFakeDealerSet(mod, numParties, 0, 50, 0, 7)

	for i := 0; i < 50; i++ {
		shares := make([]share.Share, numParties)
		for p := range dealers {
			shares[p] = dealers[p].NextUint(1)
		}
		sum := sumShares(mod, shares, func(s share.Share) field.Element { return s.Value })
		if sum.Uint64() != 0 && sum.Uint64() != 1 {
			t.Fatalf("bit %d summed to %v, want 0 or 1", i, sum)
		}
	}
}

func TestFakeDealerNextUintComposesBits(t *testing.T) {
	mod := field.Mersenne61()
	const numParties = 2
	dealers := dealer.NewFakeDealerSet(mod, numParties, 0, 8*4, 0, 99)

	for i := 0; i < 4; i++ {
		shares := make([]share.Share, numParties)
		for p := range dealers {
			shares[p] = dealers[p].NextUint(8)
		}
		sum := sumShares(mod, shares, func(s share.Share) field.Element { return s.Value })
		if sum.Uint64() >= 256 {
			t.Errorf("next_uint(8) = %v, out of 8-bit range", sum)
		}
	}
}

func TestFakeDealerInputMaskConsistency(t *testing.T) {
	mod := field.Mersenne61()
	const numParties = 3
	dealers := dealer.NewFakeDealerSet(mod, numParties, 0, 0, 2, 123)

	ownShare, ownPlain := dealers[0].NextInputMaskOwn()
	sum := ownShare.Value
	for p := 1; p < numParties; p++ {
		sum = sum.Add(dealers[p].NextInputMaskFor(0).Value)
	}
	if !sum.Eq(ownPlain) {
		t.Errorf("sum of mask shares = %v, want owner's plaintext %v", sum, ownPlain)
	}
}

func TestFakeDealerExhaustion(t *testing.T) {
	mod := field.Mersenne61()
	dealers := dealer.NewFakeDealerSet(mod, 2, 1, 0, 0, 0)
	d := dealers[0]

	d.NextBeaverTriple()
	if d.IsExhausted() {
		t.Fatalf("exhausted after consuming exactly the supplied triple count")
	}
	d.NextBeaverTriple()
	if !d.IsExhausted() {
		t.Errorf("expected exhaustion after popping past the supply")
	}
}

func TestShareConstant(t *testing.T) {
	mod := field.Mersenne61()
	const numParties = 3
	dealers := dealer.NewFakeDealerSet(mod, numParties, 0, 0, 0, 1)

	c := mod.FromUint64(777)
	shares := make([]share.Share, numParties)
	for p, d := range dealers {
		shares[p] = d.ShareConstant(c)
	}

	value := sumShares(mod, shares, func(s share.Share) field.Element { return s.Value })
	if !value.Eq(c) {
		t.Errorf("sum of value shares = %v, want %v", value, c)
	}
	if value := shares[0].Value; !value.Eq(c) {
		t.Errorf("party 0 should carry the plaintext component, got %v", value)
	}
	for p := 1; p < numParties; p++ {
		if !shares[p].Value.IsZero() {
			t.Errorf("party %d should carry a zero value component, got %v", p, shares[p].Value)
		}
	}

	authKey := sumShares(mod, dealerAuthKeys(dealers), identity)
	mac := sumShares(mod, shares, func(s share.Share) field.Element { return s.Mac })
	if !mac.Eq(c.Mul(authKey)) {
		t.Errorf("sum of mac shares = %v, want c*authKey = %v", mac, c.Mul(authKey))
	}
}

package share_test

import (
	"testing"

	"github.com/fenwick-labs/spdzmpc/field"
	"github.com/fenwick-labs/spdzmpc/share"
)

func TestShareLinearOps(t *testing.T) {
	mod := field.Mersenne61()
	a := share.Share{Value: mod.FromUint64(10), Mac: mod.FromUint64(100)}
	b := share.Share{Value: mod.FromUint64(3), Mac: mod.FromUint64(30)}

	sum := a.Add(b)
	if sum.Value.Uint64() != 13 || sum.Mac.Uint64() != 130 {
		t.Errorf("a+b = %v, want (13,130)", sum)
	}

	diff := a.Sub(b)
	if diff.Value.Uint64() != 7 || diff.Mac.Uint64() != 70 {
		t.Errorf("a-b = %v, want (7,70)", diff)
	}

	neg := a.Neg()
	if !neg.Add(a).Value.IsZero() || !neg.Add(a).Mac.IsZero() {
		t.Errorf("a + (-a) != zero share")
	}

	dbl := a.Double()
	if dbl.Value.Uint64() != 20 || dbl.Mac.Uint64() != 200 {
		t.Errorf("a doubled = %v, want (20,200)", dbl)
	}

	scaled := a.MulPublic(mod.FromUint64(4))
	if scaled.Value.Uint64() != 40 || scaled.Mac.Uint64() != 400 {
		t.Errorf("a*4 = %v, want (40,400)", scaled)
	}
}

func TestZero(t *testing.T) {
	mod := field.Mersenne61()
	z := share.Zero(mod)
	if !z.Value.IsZero() || !z.Mac.IsZero() {
		t.Errorf("Zero() is not (0,0): %v", z)
	}
}

func TestShareMarshalRoundTrip(t *testing.T) {
	mod := field.Mersenne61()
	s := share.Share{Value: mod.FromUint64(555), Mac: mod.FromUint64(777)}

	buf := make([]byte, s.SizeHint())
	_, rem, err := s.Marshal(buf, len(buf))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if rem != 0 {
		t.Fatalf("marshal left %d rem", rem)
	}

	out := share.NewIn(mod)
	_, _, err = out.Unmarshal(buf, len(buf))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Value.Eq(s.Value) || !out.Mac.Eq(s.Mac) {
		t.Errorf("round trip mismatch: got %v, want %v", out, s)
	}
}

func TestBeaverTripleMarshalRoundTrip(t *testing.T) {
	mod := field.Mersenne61()
	tr := share.BeaverTriple{
		A: share.Share{Value: mod.FromUint64(2), Mac: mod.FromUint64(20)},
		B: share.Share{Value: mod.FromUint64(3), Mac: mod.FromUint64(30)},
		C: share.Share{Value: mod.FromUint64(6), Mac: mod.FromUint64(60)},
	}

	buf := make([]byte, tr.SizeHint())
	_, rem, err := tr.Marshal(buf, len(buf))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if rem != 0 {
		t.Fatalf("marshal left %d rem", rem)
	}

	out := share.BeaverTriple{A: share.NewIn(mod), B: share.NewIn(mod), C: share.NewIn(mod)}
	_, _, err = out.Unmarshal(buf, len(buf))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.A.Value.Eq(tr.A.Value) || !out.B.Value.Eq(tr.B.Value) || !out.C.Value.Eq(tr.C.Value) {
		t.Errorf("round trip mismatch: got %v, want %v", out, tr)
	}
}

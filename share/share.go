// Package share implements the authenticated additive share algebra: a pair
// (value, mac) of field elements with strictly local, linear operations. No
// Share operation in this package requires communication.
package share

import (
	"fmt"

	"github.com/fenwick-labs/spdzmpc/field"
	"github.com/renproject/surge"
)

// Share is an authenticated additive secret share: a party's piece of a
// value together with its piece of the value's MAC under the global key.
type Share struct {
	Value field.Element
	Mac   field.Element
}

// Zero returns the (0, 0) share in the given field.
func Zero(m *field.Modulus) Share {
	return Share{Value: m.Zero(), Mac: m.Zero()}
}

// NewIn returns a Share with both components tagged to m, ready for
// Unmarshal to fill in.
func NewIn(m *field.Modulus) Share {
	return Share{Value: field.NewElementIn(m), Mac: field.NewElementIn(m)}
}

// Add returns s + other, component-wise.
func (s Share) Add(other Share) Share {
	return Share{Value: s.Value.Add(other.Value), Mac: s.Mac.Add(other.Mac)}
}

// Sub returns s - other, component-wise.
func (s Share) Sub(other Share) Share {
	return Share{Value: s.Value.Sub(other.Value), Mac: s.Mac.Sub(other.Mac)}
}

// Neg returns -s, component-wise.
func (s Share) Neg() Share {
	return Share{Value: s.Value.Neg(), Mac: s.Mac.Neg()}
}

// Double returns s + s.
func (s Share) Double() Share {
	return Share{Value: s.Value.Double(), Mac: s.Mac.Double()}
}

// MulPublic returns s scaled by a public field element c.
func (s Share) MulPublic(c field.Element) Share {
	return Share{Value: s.Value.Mul(c), Mac: s.Mac.Mul(c)}
}

// SizeHint implements surge.SizeHinter.
func (s Share) SizeHint() int {
	return s.Value.SizeHint() + s.Mac.SizeHint()
}

// Marshal implements surge.Marshaler.
func (s Share) Marshal(buf []byte, rem int) ([]byte, int, error) {
	buf, rem, err := s.Value.Marshal(buf, rem)
	if err != nil {
		return buf, rem, fmt.Errorf("marshaling value: %v", err)
	}
	return s.Mac.Marshal(buf, rem)
}

// Unmarshal implements surge.Unmarshaler. Value and Mac must already be
// tagged with their Modulus (e.g. via field.NewElementIn) before calling.
func (s *Share) Unmarshal(buf []byte, rem int) ([]byte, int, error) {
	buf, rem, err := s.Value.Unmarshal(buf, rem)
	if err != nil {
		return buf, rem, fmt.Errorf("unmarshaling value: %v", err)
	}
	return s.Mac.Unmarshal(buf, rem)
}

var _ surge.Marshaler = Share{}
var _ surge.Unmarshaler = (*Share)(nil)

// BeaverTriple is a preprocessed authenticated (a, b, c) with c = a*b.
type BeaverTriple struct {
	A, B, C Share
}

// SizeHint implements surge.SizeHinter.
func (t BeaverTriple) SizeHint() int {
	return t.A.SizeHint() + t.B.SizeHint() + t.C.SizeHint()
}

// Marshal implements surge.Marshaler.
func (t BeaverTriple) Marshal(buf []byte, rem int) ([]byte, int, error) {
	buf, rem, err := t.A.Marshal(buf, rem)
	if err != nil {
		return buf, rem, err
	}
	buf, rem, err = t.B.Marshal(buf, rem)
	if err != nil {
		return buf, rem, err
	}
	return t.C.Marshal(buf, rem)
}

// Unmarshal implements surge.Unmarshaler.
func (t *BeaverTriple) Unmarshal(buf []byte, rem int) ([]byte, int, error) {
	buf, rem, err := t.A.Unmarshal(buf, rem)
	if err != nil {
		return buf, rem, err
	}
	buf, rem, err = t.B.Unmarshal(buf, rem)
	if err != nil {
		return buf, rem, err
	}
	return t.C.Unmarshal(buf, rem)
}

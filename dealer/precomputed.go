package dealer

import (
	"fmt"

	"github.com/fenwick-labs/spdzmpc/field"
	"github.com/fenwick-labs/spdzmpc/share"
	"github.com/renproject/surge"
)

// PrecomputedData is the dealer preprocessed-data file contract from the
// external interfaces: everything one party needs to run the online phase,
// as produced by an (out of scope) offline preprocessing run. Entries within
// Triples, Bits, and each InputMasksFor slice must be consumed in LIFO order
// (index len-1 first) to match the order the offline phase produced them.
type PrecomputedData struct {
	NumParties int
	PartyID    int
	AuthKey    field.Element

	Triples []share.BeaverTriple
	Bits    []share.Share

	// InputMasksFor[p] holds the shares of party p's input masks.
	InputMasksFor [][]share.Share
	// InputMasksPlain holds this party's own input-mask plaintexts, in the
	// same order as InputMasksFor[PartyID].
	InputMasksPlain []field.Element
}

// SizeHint implements surge.SizeHinter.
func (d *PrecomputedData) SizeHint() int {
	n := surge.SizeHint(uint32(d.NumParties)) + surge.SizeHint(uint32(d.PartyID)) + d.AuthKey.SizeHint()
	n += surge.SizeHint(uint32(len(d.Triples)))
	for _, t := range d.Triples {
		n += t.SizeHint()
	}
	n += surge.SizeHint(uint32(len(d.Bits)))
	for _, b := range d.Bits {
		n += b.SizeHint()
	}
	n += surge.SizeHint(uint32(len(d.InputMasksFor)))
	for _, col := range d.InputMasksFor {
		n += surge.SizeHint(uint32(len(col)))
		for _, s := range col {
			n += s.SizeHint()
		}
	}
	n += surge.SizeHint(uint32(len(d.InputMasksPlain)))
	for _, p := range d.InputMasksPlain {
		n += p.SizeHint()
	}
	return n
}

// Marshal implements surge.Marshaler. Marshaling is done field-by-field
// rather than via surge's generic slice helpers, since field.Element's
// encoded length depends on a Modulus that surge's reflection cannot see.
func (d *PrecomputedData) Marshal(buf []byte, rem int) ([]byte, int, error) {
	buf, rem, err := surge.MarshalU32(uint32(d.NumParties), buf, rem)
	if err != nil {
		return buf, rem, fmt.Errorf("marshaling num_parties: %v", err)
	}
	buf, rem, err = surge.MarshalU32(uint32(d.PartyID), buf, rem)
	if err != nil {
		return buf, rem, fmt.Errorf("marshaling party_id: %v", err)
	}
	buf, rem, err = d.AuthKey.Marshal(buf, rem)
	if err != nil {
		return buf, rem, fmt.Errorf("marshaling auth_key: %v", err)
	}

	buf, rem, err = surge.MarshalU32(uint32(len(d.Triples)), buf, rem)
	if err != nil {
		return buf, rem, err
	}
	for _, t := range d.Triples {
		if buf, rem, err = t.Marshal(buf, rem); err != nil {
			return buf, rem, fmt.Errorf("marshaling triple: %v", err)
		}
	}

	buf, rem, err = surge.MarshalU32(uint32(len(d.Bits)), buf, rem)
	if err != nil {
		return buf, rem, err
	}
	for _, b := range d.Bits {
		if buf, rem, err = b.Marshal(buf, rem); err != nil {
			return buf, rem, fmt.Errorf("marshaling bit: %v", err)
		}
	}

	buf, rem, err = surge.MarshalU32(uint32(len(d.InputMasksFor)), buf, rem)
	if err != nil {
		return buf, rem, err
	}
	for _, col := range d.InputMasksFor {
		if buf, rem, err = surge.MarshalU32(uint32(len(col)), buf, rem); err != nil {
			return buf, rem, err
		}
		for _, s := range col {
			if buf, rem, err = s.Marshal(buf, rem); err != nil {
				return buf, rem, fmt.Errorf("marshaling input mask: %v", err)
			}
		}
	}

	buf, rem, err = surge.MarshalU32(uint32(len(d.InputMasksPlain)), buf, rem)
	if err != nil {
		return buf, rem, err
	}
	for _, p := range d.InputMasksPlain {
		if buf, rem, err = p.Marshal(buf, rem); err != nil {
			return buf, rem, fmt.Errorf("marshaling input mask plaintext: %v", err)
		}
	}

	return buf, rem, nil
}

// Unmarshal follows surge.Unmarshaler's shape but takes an extra mod
// argument, so PrecomputedData does not satisfy that interface. mod must
// already describe the field the data was encoded with; it is used to tag
// each decoded element.
func (d *PrecomputedData) Unmarshal(buf []byte, rem int, mod *field.Modulus) ([]byte, int, error) {
	var numParties, partyID uint32
	buf, rem, err := surge.UnmarshalU32(&numParties, buf, rem)
	if err != nil {
		return buf, rem, err
	}
	buf, rem, err = surge.UnmarshalU32(&partyID, buf, rem)
	if err != nil {
		return buf, rem, err
	}
	d.NumParties, d.PartyID = int(numParties), int(partyID)

	d.AuthKey = field.NewElementIn(mod)
	if buf, rem, err = d.AuthKey.Unmarshal(buf, rem); err != nil {
		return buf, rem, err
	}

	var count uint32
	if buf, rem, err = surge.UnmarshalU32(&count, buf, rem); err != nil {
		return buf, rem, err
	}
	d.Triples = make([]share.BeaverTriple, count)
	for i := range d.Triples {
		d.Triples[i] = share.BeaverTriple{
			A: share.NewIn(mod),
			B: share.NewIn(mod),
			C: share.NewIn(mod),
		}
		if buf, rem, err = d.Triples[i].Unmarshal(buf, rem); err != nil {
			return buf, rem, err
		}
	}

	if buf, rem, err = surge.UnmarshalU32(&count, buf, rem); err != nil {
		return buf, rem, err
	}
	d.Bits = make([]share.Share, count)
	for i := range d.Bits {
		d.Bits[i] = share.NewIn(mod)
		if buf, rem, err = d.Bits[i].Unmarshal(buf, rem); err != nil {
			return buf, rem, err
		}
	}

	if buf, rem, err = surge.UnmarshalU32(&count, buf, rem); err != nil {
		return buf, rem, err
	}
	d.InputMasksFor = make([][]share.Share, count)
	for i := range d.InputMasksFor {
		var colCount uint32
		if buf, rem, err = surge.UnmarshalU32(&colCount, buf, rem); err != nil {
			return buf, rem, err
		}
		col := make([]share.Share, colCount)
		for j := range col {
			col[j] = share.NewIn(mod)
			if buf, rem, err = col[j].Unmarshal(buf, rem); err != nil {
				return buf, rem, err
			}
		}
		d.InputMasksFor[i] = col
	}

	if buf, rem, err = surge.UnmarshalU32(&count, buf, rem); err != nil {
		return buf, rem, err
	}
	d.InputMasksPlain = make([]field.Element, count)
	for i := range d.InputMasksPlain {
		d.InputMasksPlain[i] = field.NewElementIn(mod)
		if buf, rem, err = d.InputMasksPlain[i].Unmarshal(buf, rem); err != nil {
			return buf, rem, err
		}
	}

	return buf, rem, nil
}

// PrecomputedDealer implements Dealer by consuming a PrecomputedData file
// loaded for this party, popping every list in LIFO order exactly like the
// offline phase produced it.
type PrecomputedDealer struct {
	mod       *field.Modulus
	data      *PrecomputedData
	exhausted bool
}

// NewPrecomputedDealer wraps data for online consumption.
func NewPrecomputedDealer(mod *field.Modulus, data *PrecomputedData) *PrecomputedDealer {
	return &PrecomputedDealer{mod: mod, data: data}
}

// PartyID implements Dealer.
func (d *PrecomputedDealer) PartyID() int { return d.data.PartyID }

// NumParties implements Dealer.
func (d *PrecomputedDealer) NumParties() int { return d.data.NumParties }

// AuthKeyShare implements Dealer.
func (d *PrecomputedDealer) AuthKeyShare() field.Element { return d.data.AuthKey }

// Modulus implements Dealer.
func (d *PrecomputedDealer) Modulus() *field.Modulus { return d.mod }

// ShareConstant implements Dealer.
func (d *PrecomputedDealer) ShareConstant(c field.Element) share.Share {
	return ShareConstant(d.mod, d.data.PartyID, d.data.AuthKey, c)
}

// IsExhausted implements Dealer.
func (d *PrecomputedDealer) IsExhausted() bool { return d.exhausted }

// NextBeaverTriple implements Dealer.
func (d *PrecomputedDealer) NextBeaverTriple() share.BeaverTriple {
	if len(d.data.Triples) == 0 {
		d.exhausted = true
		return share.BeaverTriple{}
	}
	n := len(d.data.Triples) - 1
	t := d.data.Triples[n]
	d.data.Triples = d.data.Triples[:n]
	return t
}

func (d *PrecomputedDealer) nextBit() share.Share {
	if len(d.data.Bits) == 0 {
		d.exhausted = true
		return share.Zero(d.mod)
	}
	n := len(d.data.Bits) - 1
	b := d.data.Bits[n]
	d.data.Bits = d.data.Bits[:n]
	return b
}

// NextUint implements Dealer.
func (d *PrecomputedDealer) NextUint(k int) share.Share {
	if k < 1 || k > d.mod.SafeBits {
		panic("dealer: next_uint bit width out of range")
	}
	acc := share.Zero(d.mod)
	for i := 0; i < k; i++ {
		acc = acc.Double().Add(d.nextBit())
	}
	return acc
}

// NextInputMaskOwn implements Dealer.
func (d *PrecomputedDealer) NextInputMaskOwn() (share.Share, field.Element) {
	own := d.data.InputMasksFor[d.data.PartyID]
	if len(own) == 0 || len(d.data.InputMasksPlain) == 0 {
		d.exhausted = true
		return share.Zero(d.mod), d.mod.Zero()
	}
	n := len(own) - 1
	s := own[n]
	d.data.InputMasksFor[d.data.PartyID] = own[:n]
	m := len(d.data.InputMasksPlain) - 1
	plain := d.data.InputMasksPlain[m]
	d.data.InputMasksPlain = d.data.InputMasksPlain[:m]
	return s, plain
}

// NextInputMaskFor implements Dealer.
func (d *PrecomputedDealer) NextInputMaskFor(id int) share.Share {
	if id == d.data.PartyID {
		panic("dealer: tried to get own mask as third-party mask")
	}
	slice := d.data.InputMasksFor[id]
	if len(slice) == 0 {
		d.exhausted = true
		return share.Zero(d.mod)
	}
	n := len(slice) - 1
	s := slice[n]
	d.data.InputMasksFor[id] = slice[:n]
	return s
}

var _ Dealer = (*PrecomputedDealer)(nil)

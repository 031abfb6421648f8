package spdz

import (
	"fmt"

	"github.com/fenwick-labs/spdzmpc/field"
	"github.com/renproject/surge"
)

// Kind tags the variant a Message carries.
type Kind uint8

const (
	// KindMaskedInputs carries the input-phase deltas, one per owned input.
	KindMaskedInputs Kind = iota
	// KindSharesExchange carries a non-coordinator's raw value shares for an
	// opening batch.
	KindSharesExchange
	// KindShareSumExchange carries the coordinator's summed plaintexts.
	KindShareSumExchange
	// KindStateHashCheck carries the full state-digest hash at a checkpoint.
	KindStateHashCheck
	// KindCommitment carries H(salt || encode(value)).
	KindCommitment
	// KindDecommitment carries a value and its salt.
	KindDecommitment
)

func (k Kind) String() string {
	switch k {
	case KindMaskedInputs:
		return "MaskedInputs"
	case KindSharesExchange:
		return "SharesExchange"
	case KindShareSumExchange:
		return "ShareSumExchange"
	case KindStateHashCheck:
		return "StateHashCheck"
	case KindCommitment:
		return "Commitment"
	case KindDecommitment:
		return "Decommitment"
	default:
		return fmt.Sprintf("Unknown(%v)", uint8(k))
	}
}

// Message is the SPDZ wire message. Exactly one of the payload fields is
// meaningful, depending on Kind: Values for MaskedInputs/SharesExchange/
// ShareSumExchange, Hash for StateHashCheck/Commitment, and Value+Salt for
// Decommitment.
type Message struct {
	Kind   Kind
	Values []field.Element
	Hash   [32]byte
	Value  field.Element
	Salt   [32]byte
}

// SizeHint implements surge.SizeHinter.
func (m Message) SizeHint() int {
	n := 1
	switch m.Kind {
	case KindMaskedInputs, KindSharesExchange, KindShareSumExchange:
		n += surge.SizeHint(uint32(len(m.Values)))
		for _, v := range m.Values {
			n += v.SizeHint()
		}
	case KindStateHashCheck, KindCommitment:
		n += 32
	case KindDecommitment:
		n += m.Value.SizeHint() + 32
	}
	return n
}

// Marshal implements surge.Marshaler.
func (m Message) Marshal(buf []byte, rem int) ([]byte, int, error) {
	buf, rem, err := surge.MarshalU8(uint8(m.Kind), buf, rem)
	if err != nil {
		return buf, rem, err
	}
	switch m.Kind {
	case KindMaskedInputs, KindSharesExchange, KindShareSumExchange:
		buf, rem, err = surge.MarshalU32(uint32(len(m.Values)), buf, rem)
		if err != nil {
			return buf, rem, err
		}
		for _, v := range m.Values {
			if buf, rem, err = v.Marshal(buf, rem); err != nil {
				return buf, rem, err
			}
		}
	case KindStateHashCheck, KindCommitment:
		if rem < 32 || len(buf) < 32 {
			return buf, rem, fmt.Errorf("spdz: insufficient buffer for hash")
		}
		copy(buf[:32], m.Hash[:])
		buf, rem = buf[32:], rem-32
	case KindDecommitment:
		if buf, rem, err = m.Value.Marshal(buf, rem); err != nil {
			return buf, rem, err
		}
		if rem < 32 || len(buf) < 32 {
			return buf, rem, fmt.Errorf("spdz: insufficient buffer for salt")
		}
		copy(buf[:32], m.Salt[:])
		buf, rem = buf[32:], rem-32
	}
	return buf, rem, nil
}

// UnmarshalWithModulus decodes a Message, tagging any field elements with
// mod. Plain surge.Unmarshaler is not implemented because Kind determines
// which payload is present and field.Element decoding needs a Modulus that
// surge's reflection has no way to supply.
func (m *Message) UnmarshalWithModulus(buf []byte, rem int, mod *field.Modulus) ([]byte, int, error) {
	var kind uint8
	buf, rem, err := surge.UnmarshalU8(&kind, buf, rem)
	if err != nil {
		return buf, rem, err
	}
	m.Kind = Kind(kind)
	switch m.Kind {
	case KindMaskedInputs, KindSharesExchange, KindShareSumExchange:
		var count uint32
		if buf, rem, err = surge.UnmarshalU32(&count, buf, rem); err != nil {
			return buf, rem, err
		}
		m.Values = make([]field.Element, count)
		for i := range m.Values {
			m.Values[i] = field.NewElementIn(mod)
			if buf, rem, err = m.Values[i].Unmarshal(buf, rem); err != nil {
				return buf, rem, err
			}
		}
	case KindStateHashCheck, KindCommitment:
		if rem < 32 || len(buf) < 32 {
			return buf, rem, fmt.Errorf("spdz: insufficient buffer for hash")
		}
		copy(m.Hash[:], buf[:32])
		buf, rem = buf[32:], rem-32
	case KindDecommitment:
		m.Value = field.NewElementIn(mod)
		if buf, rem, err = m.Value.Unmarshal(buf, rem); err != nil {
			return buf, rem, err
		}
		if rem < 32 || len(buf) < 32 {
			return buf, rem, fmt.Errorf("spdz: insufficient buffer for salt")
		}
		copy(m.Salt[:], buf[:32])
		buf, rem = buf[32:], rem-32
	}
	return buf, rem, nil
}

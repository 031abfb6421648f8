// Package dealer supplies the preprocessed randomness the SPDZ online phase
// consumes: Beaver triples, random bit shares, and per-party input masks. All
// operations are non-suspending and purely local; the dealer never performs
// network I/O.
package dealer

import (
	"github.com/fenwick-labs/spdzmpc/field"
	"github.com/fenwick-labs/spdzmpc/share"
)

// Dealer is the capability set the SPDZ engine consumes for preprocessing.
// Concrete implementations are tagged variants (FakeDealer, PrecomputedDealer)
// rather than a class hierarchy, per the "deep inheritance" design note: the
// executor and engine are parameterized over this small interface, never over
// a concrete dealer type.
type Dealer interface {
	// ShareConstant embeds a public field element as a Share: (c, c*authKey)
	// for party 0, (0, c*authKey) for every other party.
	ShareConstant(c field.Element) share.Share

	// NextBeaverTriple pops the next authenticated (a, b, c=a*b) triple.
	NextBeaverTriple() share.BeaverTriple

	// NextUint pops a share of a uniform k-bit unsigned integer,
	// 1 <= k <= field.Modulus.SafeBits.
	NextUint(k int) share.Share

	// NextInputMaskOwn pops a fresh random mask for an input this party
	// owns: the authenticated share plus the plaintext only this party
	// learns.
	NextInputMaskOwn() (share.Share, field.Element)

	// NextInputMaskFor pops the share (without plaintext) of the next input
	// mask owned by party id. id must not be this dealer's own party.
	NextInputMaskFor(id int) share.Share

	// IsExhausted reports whether any supply has been fully consumed. Once
	// true it remains true; further calls into the dealer return defaults.
	IsExhausted() bool

	// PartyID is this dealer's party index.
	PartyID() int

	// NumParties is the total number of parties in the computation.
	NumParties() int

	// AuthKeyShare is this party's additive share of the global MAC key.
	AuthKeyShare() field.Element

	// Modulus is the field this dealer's material is drawn from.
	Modulus() *field.Modulus
}

// ShareConstant is the standalone form of Dealer.ShareConstant, usable by any
// party that only knows its own party index, auth key share, and modulus
// (e.g. during testing without a full Dealer). It implements the contract
// from the data model exactly: party 0 carries the plaintext component,
// every other party carries only the MAC component.
func ShareConstant(mod *field.Modulus, partyID int, authKeyShare, c field.Element) share.Share {
	if partyID == 0 {
		return share.Share{Value: c, Mac: c.Mul(authKeyShare)}
	}
	return share.Share{Value: mod.Zero(), Mac: c.Mul(authKeyShare)}
}

package dealer

import (
	"math/rand"

	"github.com/fenwick-labs/spdzmpc/field"
	"github.com/fenwick-labs/spdzmpc/share"
)

// FakeDealer is an insecure, seeded trusted-dealer stand-in: a single seed
// determines the entire supply for every party, generated once and split
// in memory. It exists to exercise the online protocol in tests and
// examples; it is explicitly not a secure offline-generation protocol (see
// Non-goals).
type FakeDealer struct {
	mod        *field.Modulus
	partyID    int
	numParties int
	authKey    field.Element

	triples []share.BeaverTriple
	bits    []share.Share

	// masksFor[p] holds the shares of party p's input masks, in the order
	// generated; masksForPlain holds the plaintexts, populated only for
	// p == partyID.
	masksFor      [][]share.Share
	masksForPlain []field.Element

	exhausted bool
}

// NewFakeDealerSet builds numParties FakeDealers sharing a single seed, with
// enough supply for numTriples Beaver triples, numBits random bits, and
// numMasksPerParty input masks per party. All parties see mutually
// consistent material: the same triple, bit, or mask decomposes into shares
// that sum to the same secret across the returned dealers.
func NewFakeDealerSet(mod *field.Modulus, numParties, numTriples, numBits, numMasksPerParty int, seed int64) []*FakeDealer {
	if numParties < 1 {
		panic("dealer: numParties must be at least 1")
	}
	rng := rand.New(rand.NewSource(seed))

	authKey := mod.RandomFromReader(rng)
	authKeyShares := splitAdditively(mod, authKey, numParties, rng)

	dealers := make([]*FakeDealer, numParties)
	for p := 0; p < numParties; p++ {
		dealers[p] = &FakeDealer{
			mod:           mod,
			partyID:       p,
			numParties:    numParties,
			authKey:       authKeyShares[p],
			triples:       make([]share.BeaverTriple, 0, numTriples),
			bits:          make([]share.Share, 0, numBits),
			masksFor:      make([][]share.Share, numParties),
			masksForPlain: make([]field.Element, 0, numMasksPerParty),
		}
		for q := 0; q < numParties; q++ {
			dealers[p].masksFor[q] = make([]share.Share, 0, numMasksPerParty)
		}
	}

	for i := 0; i < numTriples; i++ {
		a := mod.RandomFromReader(rng)
		b := mod.RandomFromReader(rng)
		c := a.Mul(b)
		aShares := splitAdditively(mod, a, numParties, rng)
		bShares := splitAdditively(mod, b, numParties, rng)
		cShares := splitAdditively(mod, c, numParties, rng)
		aMacShares := splitAdditively(mod, a.Mul(authKey), numParties, rng)
		bMacShares := splitAdditively(mod, b.Mul(authKey), numParties, rng)
		cMacShares := splitAdditively(mod, c.Mul(authKey), numParties, rng)
		for p := 0; p < numParties; p++ {
			dealers[p].triples = append(dealers[p].triples, share.BeaverTriple{
				A: share.Share{Value: aShares[p], Mac: aMacShares[p]},
				B: share.Share{Value: bShares[p], Mac: bMacShares[p]},
				C: share.Share{Value: cShares[p], Mac: cMacShares[p]},
			})
		}
	}

	for i := 0; i < numBits; i++ {
		var bit field.Element
		if rng.Intn(2) == 0 {
			bit = mod.Zero()
		} else {
			bit = mod.One()
		}
		bitShares := splitAdditively(mod, bit, numParties, rng)
		macShares := splitAdditively(mod, bit.Mul(authKey), numParties, rng)
		for p := 0; p < numParties; p++ {
			dealers[p].bits = append(dealers[p].bits, share.Share{Value: bitShares[p], Mac: macShares[p]})
		}
	}

	for owner := 0; owner < numParties; owner++ {
		for i := 0; i < numMasksPerParty; i++ {
			r := mod.RandomFromReader(rng)
			rShares := splitAdditively(mod, r, numParties, rng)
			macShares := splitAdditively(mod, r.Mul(authKey), numParties, rng)
			for p := 0; p < numParties; p++ {
				dealers[p].masksFor[owner] = append(dealers[p].masksFor[owner], share.Share{
					Value: rShares[p], Mac: macShares[p],
				})
			}
			dealers[owner].masksForPlain = append(dealers[owner].masksForPlain, r)
		}
	}

	return dealers
}

func splitAdditively(mod *field.Modulus, secret field.Element, n int, rng *rand.Rand) []field.Element {
	shares := make([]field.Element, n)
	sum := mod.Zero()
	for i := 0; i < n-1; i++ {
		shares[i] = mod.RandomFromReader(rng)
		sum = sum.Add(shares[i])
	}
	shares[n-1] = secret.Sub(sum)
	return shares
}

// PartyID implements Dealer.
func (d *FakeDealer) PartyID() int { return d.partyID }

// NumParties implements Dealer.
func (d *FakeDealer) NumParties() int { return d.numParties }

// AuthKeyShare implements Dealer.
func (d *FakeDealer) AuthKeyShare() field.Element { return d.authKey }

// Modulus implements Dealer.
func (d *FakeDealer) Modulus() *field.Modulus { return d.mod }

// ShareConstant implements Dealer.
func (d *FakeDealer) ShareConstant(c field.Element) share.Share {
	return ShareConstant(d.mod, d.partyID, d.authKey, c)
}

// IsExhausted implements Dealer.
func (d *FakeDealer) IsExhausted() bool { return d.exhausted }

// NextBeaverTriple implements Dealer.
func (d *FakeDealer) NextBeaverTriple() share.BeaverTriple {
	if len(d.triples) == 0 {
		d.exhausted = true
		return share.BeaverTriple{}
	}
	n := len(d.triples) - 1
	t := d.triples[n]
	d.triples = d.triples[:n]
	return t
}

// NextUint implements Dealer. It composes k independent random bit shares
// MSB-first via repeated doubling, matching the dealer's next_uint(k)
// contract exactly.
func (d *FakeDealer) NextUint(k int) share.Share {
	if k < 1 || k > d.mod.SafeBits {
		panic("dealer: next_uint bit width out of range")
	}
	acc := share.Zero(d.mod)
	for i := 0; i < k; i++ {
		acc = acc.Double().Add(d.nextBit())
	}
	return acc
}

func (d *FakeDealer) nextBit() share.Share {
	if len(d.bits) == 0 {
		d.exhausted = true
		return share.Zero(d.mod)
	}
	n := len(d.bits) - 1
	b := d.bits[n]
	d.bits = d.bits[:n]
	return b
}

// NextInputMaskOwn implements Dealer.
func (d *FakeDealer) NextInputMaskOwn() (share.Share, field.Element) {
	own := d.masksFor[d.partyID]
	if len(own) == 0 || len(d.masksForPlain) == 0 {
		d.exhausted = true
		return share.Zero(d.mod), d.mod.Zero()
	}
	n := len(own) - 1
	s := own[n]
	d.masksFor[d.partyID] = own[:n]
	m := len(d.masksForPlain) - 1
	plain := d.masksForPlain[m]
	d.masksForPlain = d.masksForPlain[:m]
	return s, plain
}

// NextInputMaskFor implements Dealer.
func (d *FakeDealer) NextInputMaskFor(id int) share.Share {
	if id == d.partyID {
		panic("dealer: tried to get own mask as third-party mask")
	}
	slice := d.masksFor[id]
	if len(slice) == 0 {
		d.exhausted = true
		return share.Zero(d.mod)
	}
	n := len(slice) - 1
	s := slice[n]
	d.masksFor[id] = slice[:n]
	return s
}

var _ Dealer = (*FakeDealer)(nil)

// Package spdz implements the MPC engine abstraction and SPDZ online
// protocol: authenticated opening with deferred MAC verification,
// commit-and-reveal broadcast consistency, and round-based message exchange
// over the dealer and transport capability sets.
package spdz

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"hash"

	"github.com/fenwick-labs/spdzmpc/dealer"
	"github.com/fenwick-labs/spdzmpc/field"
	"github.com/fenwick-labs/spdzmpc/share"
	"github.com/fenwick-labs/spdzmpc/transport"
)

// BatchCheckThreshold is the opened-values buffer length that triggers a
// synchronous integrity check during process_openings_unchecked.
const BatchCheckThreshold = 20000

// MaxBatchCheckSize is the largest chunk check_integrity processes with a
// single random linear combination.
const MaxBatchCheckSize = 40000

type openedValue struct {
	Plain    field.Element
	MacShare field.Element
}

// Engine is the SPDZ online-protocol state machine: it pulls preprocessed
// randomness from a Dealer and exchanges typed messages over a Transport.
// Engine state (the opened-values buffer, the state digest, and the local
// RNG) is mutated only by the engine itself, between suspension points of
// the single circuit task that drives it; no locking is required.
type Engine struct {
	mod       *field.Modulus
	dealer    dealer.Dealer
	transport transport.Transport[Message]

	partyID, numParties int

	opened []openedValue
	digest hash.Hash
}

// New constructs an Engine for the given dealer and transport. Both must
// agree on partyID and numParties.
func New(mod *field.Modulus, d dealer.Dealer, t transport.Transport[Message]) *Engine {
	if d.PartyID() != t.PartyID() || d.NumParties() != t.NumParties() {
		panic("spdz: dealer and transport disagree on party identity")
	}
	return &Engine{
		mod:        mod,
		dealer:     d,
		transport:  t,
		partyID:    d.PartyID(),
		numParties: d.NumParties(),
		digest:     sha256.New(),
	}
}

// Dealer exposes the underlying dealer, e.g. for is_exhausted checks from
// the executor.
func (e *Engine) Dealer() dealer.Dealer { return e.dealer }

// PartyID is this engine's party index.
func (e *Engine) PartyID() int { return e.partyID }

// NumParties is the total number of parties.
func (e *Engine) NumParties() int { return e.numParties }

// ProcessInputs runs the input phase: each party's own plaintext inputs are
// masked, exchanged, and absorbed into every other party's share matrix. It
// returns an n-row matrix where row p lists party p's input shares in the
// order it provided them.
func (e *Engine) ProcessInputs(inputs []field.Element) ([][]share.Share, error) {
	ownShares := make([]share.Share, len(inputs))
	deltas := make([]field.Element, len(inputs))
	for i, x := range inputs {
		rShare, rPlain := e.dealer.NextInputMaskOwn()
		delta := x.Sub(rPlain)
		ownShares[i] = rShare.Add(e.dealer.ShareConstant(delta))
		deltas[i] = delta
	}

	peers, err := e.transport.ExchangeWithAll(Message{Kind: KindMaskedInputs, Values: deltas})
	if err != nil {
		return nil, err
	}

	matrix := make([][]share.Share, e.numParties)
	matrix[e.partyID] = ownShares

	allDeltas := make([][]field.Element, e.numParties)
	allDeltas[e.partyID] = deltas

	for _, peer := range peers {
		if peer.Msg.Kind != KindMaskedInputs {
			return nil, &UnexpectedMessageError{ID: peer.ID}
		}
		allDeltas[peer.ID] = peer.Msg.Values
		row := make([]share.Share, len(peer.Msg.Values))
		for i, delta := range peer.Msg.Values {
			mask := e.dealer.NextInputMaskFor(peer.ID)
			row[i] = mask.Add(e.dealer.ShareConstant(delta))
		}
		matrix[peer.ID] = row
	}

	for p := 0; p < e.numParties; p++ {
		e.absorbLengthPrefixed(allDeltas[p])
	}

	if err := e.checkStateHashes(); err != nil {
		return nil, err
	}

	return matrix, nil
}

// ProcessOpeningsUnchecked reconstructs the plaintext of each share in the
// batch without verifying MACs; the corresponding MAC shares are queued for
// a later batched check_integrity. If the queue reaches BatchCheckThreshold,
// check_integrity runs synchronously before this call returns.
func (e *Engine) ProcessOpeningsUnchecked(shares []share.Share) ([]field.Element, error) {
	n := len(shares)
	values := make([]field.Element, n)
	for i, s := range shares {
		values[i] = s.Value
	}

	var sums []field.Element
	if e.partyID == 0 {
		sums = make([]field.Element, n)
		copy(sums, values)
		peers, err := e.transport.ReceiveFromAll()
		if err != nil {
			return nil, err
		}
		for _, peer := range peers {
			if peer.Msg.Kind != KindSharesExchange {
				return nil, &UnexpectedMessageError{ID: peer.ID}
			}
			if len(peer.Msg.Values) != n {
				return nil, &IncorrectNumberOfValuesError{ID: peer.ID}
			}
			for i, v := range peer.Msg.Values {
				sums[i] = sums[i].Add(v)
			}
		}
		if err := e.transport.SendToAll(Message{Kind: KindShareSumExchange, Values: sums}); err != nil {
			return nil, err
		}
	} else {
		if err := e.transport.SendTo(0, Message{Kind: KindSharesExchange, Values: values}); err != nil {
			return nil, err
		}
		resp, err := e.transport.ReceiveFrom(0)
		if err != nil {
			return nil, err
		}
		if resp.Kind != KindShareSumExchange {
			return nil, &UnexpectedMessageError{ID: 0}
		}
		if len(resp.Values) != n {
			return nil, &IncorrectNumberOfValuesError{ID: 0}
		}
		sums = resp.Values
	}

	for i, plain := range sums {
		e.opened = append(e.opened, openedValue{Plain: plain, MacShare: shares[i].Mac})
	}

	if len(e.opened) >= BatchCheckThreshold {
		if err := e.CheckIntegrity(); err != nil {
			return nil, err
		}
	}

	return sums, nil
}

// CheckIntegrity drains the opened-values buffer in chunks of at most
// MaxBatchCheckSize, verifies each chunk's random-linear-combination MAC
// check, and finishes with a state-hash consistency check across all
// parties.
func (e *Engine) CheckIntegrity() error {
	for len(e.opened) > 0 {
		chunkSize := len(e.opened)
		if chunkSize > MaxBatchCheckSize {
			chunkSize = MaxBatchCheckSize
		}
		chunk := e.opened[:chunkSize]
		e.opened = e.opened[chunkSize:]

		rho, err := e.genCommonRandomElement()
		if err != nil {
			return err
		}

		p := e.mod.Zero()
		m := e.mod.Zero()
		for i := len(chunk) - 1; i >= 0; i-- {
			p = p.Mul(rho).Add(chunk[i].Plain)
			m = m.Mul(rho).Add(chunk[i].MacShare)
		}

		sigma := m.Sub(p.Mul(e.dealer.AuthKeyShare()))
		sigmas, err := e.exchangeWithCommitment(sigma)
		if err != nil {
			return err
		}
		sum := e.mod.Zero()
		for _, s := range sigmas {
			sum = sum.Add(s)
		}
		if !sum.IsZero() {
			return ErrMacCheckFailed
		}

		e.digest.Write(p.Bytes())
	}

	return e.checkStateHashes()
}

// EnsureIntegrity is the executor-facing hook: it forces a check_integrity
// before the next batch of openings, guaranteeing that any opened plaintext
// used for control flow has been verified.
func (e *Engine) EnsureIntegrity() error {
	return e.CheckIntegrity()
}

func (e *Engine) absorbLengthPrefixed(values []field.Element) {
	var lenBuf [4]byte
	n := uint32(len(values))
	lenBuf[0] = byte(n >> 24)
	lenBuf[1] = byte(n >> 16)
	lenBuf[2] = byte(n >> 8)
	lenBuf[3] = byte(n)
	e.digest.Write(lenBuf[:])
	for _, v := range values {
		e.digest.Write(v.Bytes())
	}
}

// genCommonRandomElement realizes the "public random field element via
// commit-then-reveal" step used to derive rho: every party contributes an
// independently-sampled element and the result is their sum, so no party
// can bias it once commitments are fixed. check_integrity's sigma exchange
// calls exchangeWithCommitment directly rather than going through here.
func (e *Engine) genCommonRandomElement() (field.Element, error) {
	own := e.mod.Random()
	elems, err := e.exchangeWithCommitment(own)
	if err != nil {
		return field.Element{}, err
	}
	sum := e.mod.Zero()
	for _, el := range elems {
		sum = sum.Add(el)
	}
	return sum, nil
}

// exchangeWithCommitment performs a commit-then-reveal exchange of a single
// field element, returning the ordered (by party ID) vector of every
// party's revealed element.
func (e *Engine) exchangeWithCommitment(x field.Element) ([]field.Element, error) {
	var salt [32]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, fmt.Errorf("spdz: sampling salt: %v", err)
	}
	commitment := commitmentHash(salt, x)

	peerCommits, err := e.transport.ExchangeWithAll(Message{Kind: KindCommitment, Hash: commitment})
	if err != nil {
		return nil, err
	}
	commitments := make([][32]byte, e.numParties)
	commitments[e.partyID] = commitment
	for _, peer := range peerCommits {
		if peer.Msg.Kind != KindCommitment {
			return nil, &UnexpectedMessageError{ID: peer.ID}
		}
		commitments[peer.ID] = peer.Msg.Hash
	}
	for id := 0; id < e.numParties; id++ {
		e.digest.Write(commitments[id][:])
	}

	peerReveals, err := e.transport.ExchangeWithAll(Message{Kind: KindDecommitment, Value: x, Salt: salt})
	if err != nil {
		return nil, err
	}
	elems := make([]field.Element, e.numParties)
	elems[e.partyID] = x
	for _, peer := range peerReveals {
		if peer.Msg.Kind != KindDecommitment {
			return nil, &UnexpectedMessageError{ID: peer.ID}
		}
		if commitmentHash(peer.Msg.Salt, peer.Msg.Value) != commitments[peer.ID] {
			return nil, &CommitmentHashMismatchError{ID: peer.ID}
		}
		elems[peer.ID] = peer.Msg.Value
	}

	return elems, nil
}

func commitmentHash(salt [32]byte, x field.Element) [32]byte {
	h := sha256.New()
	h.Write(salt[:])
	h.Write(x.Bytes())
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// checkStateHashes finalizes the running digest, exchanges it with every
// peer, requires byte-equality across all parties, and resets the digest.
func (e *Engine) checkStateHashes() error {
	var own [32]byte
	copy(own[:], e.digest.Sum(nil))

	peers, err := e.transport.ExchangeWithAll(Message{Kind: KindStateHashCheck, Hash: own})
	if err != nil {
		return err
	}
	for _, peer := range peers {
		if peer.Msg.Kind != KindStateHashCheck {
			return &UnexpectedMessageError{ID: peer.ID}
		}
		if peer.Msg.Hash != own {
			return ErrStateHashMismatch
		}
	}

	e.digest = sha256.New()
	return nil
}

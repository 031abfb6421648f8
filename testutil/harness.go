// Package testutil provides in-process multiparty test fixtures: an
// in-memory transport fabric plus a shared FakeDealer supply, wired into
// ready-to-drive spdz.Engines, grounded on the teacher's pattern of
// spinning up a concurrent network of local peers for protocol tests
// (testutil/network.go's Machine set, reshaped around the SPDZ engine's
// synchronous call contract instead of a message-handler loop).
package testutil

import (
	"sync"

	"github.com/fenwick-labs/spdzmpc/dealer"
	"github.com/fenwick-labs/spdzmpc/field"
	"github.com/fenwick-labs/spdzmpc/spdz"
	"github.com/fenwick-labs/spdzmpc/transport"
)

// NewEngineSet builds numParties SPDZ engines sharing one in-memory
// transport fabric and one FakeDealer supply, ready to drive identical
// circuits concurrently in tests.
func NewEngineSet(mod *field.Modulus, numParties, numTriples, numBits, numMasksPerParty int, seed int64) []*spdz.Engine {
	dealers := dealer.NewFakeDealerSet(mod, numParties, numTriples, numBits, numMasksPerParty, seed)
	transports := transport.NewMockTransportSet[spdz.Message](numParties, numParties*8)

	engines := make([]*spdz.Engine, numParties)
	for p := 0; p < numParties; p++ {
		engines[p] = spdz.New(mod, dealers[p], transports[p])
	}
	return engines
}

// RunAll calls fn once per engine concurrently (every party must drive the
// same circuit in lockstep, since the mock transport's channels block on a
// matching send/receive pair) and returns each party's result in
// party-index order, or the first error encountered.
func RunAll[T any](engines []*spdz.Engine, fn func(partyID int, e *spdz.Engine) (T, error)) ([]T, error) {
	n := len(engines)
	results := make([]T, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for p := 0; p < n; p++ {
		p := p
		go func() {
			defer wg.Done()
			results[p], errs[p] = fn(p, engines[p])
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Package exec implements the cooperative circuit executor: an async driver
// that batches primitive openings into communication rounds, coordinates
// integrity checkpoints, and supports arbitrary composition of circuits.
//
// Go has no native async/await, so suspension is modeled with goroutines:
// every concurrently-joined branch of a circuit runs in its own goroutine,
// and OpenUnchecked blocks that goroutine on a private channel until the
// driver resolves its round. Determinism does not depend on the Go
// scheduler's interleaving: every branch carries a path (its sequence of
// join-branch indices from the root), and the driver sorts a round's
// requests by path before building the batch, so the batch content and
// order are identical regardless of which goroutine happened to register
// first. This is the executor's resolution of the "join primitive must be
// order-preserving" open question: order is imposed by the driver, not
// borrowed from the runtime.
package exec

import (
	"fmt"
	"sync"

	"github.com/fenwick-labs/spdzmpc/dealer"
	"github.com/fenwick-labs/spdzmpc/field"
	"github.com/fenwick-labs/spdzmpc/share"
	"github.com/fenwick-labs/spdzmpc/spdz"
)

// Stats are the counters the executor exposes alongside a circuit's result.
type Stats struct {
	Openings        int
	Rounds          int
	IntegrityChecks int
}

// ExecutorError wraps a fatal engine error as surfaced to a circuit's
// caller.
type ExecutorError struct {
	Engine error
}

func (e *ExecutorError) Error() string {
	return fmt.Sprintf("exec: engine error: %v", e.Engine)
}

func (e *ExecutorError) Unwrap() error { return e.Engine }

// ErrDealerExhausted signifies that the dealer's preprocessed supply ran out
// mid-circuit.
var ErrDealerExhausted = fmt.Errorf("exec: dealer exhausted")

type pendingOpen struct {
	path []int
	s    share.Share
	out  chan field.Element
}

// Context is the executor's shared round state: the engine, cached shares of
// 1 and 2, the force-integrity-check flag, statistics, and the round command
// buffer. It is never touched directly by circuit code; circuits receive a
// *Scope instead.
type Context struct {
	engine *spdz.Engine
	mod    *field.Modulus

	one, two share.Share

	mu         sync.Mutex
	pending    []pendingOpen
	forceCheck bool
	liveWG     sync.WaitGroup

	stats Stats
}

// Scope is the per-branch handle circuit functions operate on. Every
// concurrent branch created by JoinAll/Join2/Join3 receives its own Scope
// carrying a distinct path; sequential code within one branch shares a
// single Scope.
type Scope struct {
	ctx  *Context
	path []int
}

// One returns the cached share of the field's multiplicative identity.
func (s *Scope) One() share.Share { return s.ctx.one }

// Two returns the cached share of 1+1.
func (s *Scope) Two() share.Share { return s.ctx.two }

// Modulus returns the field the circuit is running over.
func (s *Scope) Modulus() *field.Modulus { return s.ctx.mod }

// Dealer exposes the engine's dealer, e.g. for NextUint/NextBeaverTriple
// calls made directly by circuit code.
func (s *Scope) Dealer() dealer.Dealer {
	return s.ctx.engine.Dealer()
}

// Plain embeds a public field element as a Share via the dealer.
func (s *Scope) Plain(c field.Element) share.Share {
	return s.ctx.engine.Dealer().ShareConstant(c)
}

// NextBeaverTriple pulls the next preprocessed Beaver triple.
func (s *Scope) NextBeaverTriple() share.BeaverTriple {
	return s.ctx.engine.Dealer().NextBeaverTriple()
}

// NextUint pulls a share of a uniform k-bit unsigned integer.
func (s *Scope) NextUint(k int) share.Share {
	return s.ctx.engine.Dealer().NextUint(k)
}

// EnsureIntegrity sets the force-check flag: the executor runs a
// check_integrity before resolving the next batch of openings, so any
// opened plaintext used subsequently for control flow is guaranteed
// verified.
func (s *Scope) EnsureIntegrity() {
	s.ctx.mu.Lock()
	s.ctx.forceCheck = true
	s.ctx.mu.Unlock()
}

// OpenUnchecked is the only suspension point in a circuit: it queues sh into
// the current round's request list (at this branch's path) and blocks until
// the driver resolves that round.
func (s *Scope) OpenUnchecked(sh share.Share) field.Element {
	out := make(chan field.Element, 1)
	path := make([]int, len(s.path))
	copy(path, s.path)

	s.ctx.mu.Lock()
	s.ctx.pending = append(s.ctx.pending, pendingOpen{path: path, s: sh, out: out})
	s.ctx.mu.Unlock()

	s.ctx.liveWG.Done()
	v := <-out
	return v
}

func appendPath(path []int, i int) []int {
	p := make([]int, len(path)+1)
	copy(p, path)
	p[len(path)] = i
	return p
}

func comparePaths(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

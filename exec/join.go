package exec

import (
	"sync"
	"sync/atomic"
)

// finishChild marks one child branch done. The last child hands a live count
// back to the waiting parent before dropping its own, so the driver never
// observes quiescence while the parent is about to resume.
func finishChild(ctx *Context, remaining *int32, childrenDone *sync.WaitGroup) {
	if atomic.AddInt32(remaining, -1) == 0 {
		ctx.liveWG.Add(1)
	}
	childrenDone.Done()
	ctx.liveWG.Done()
}

// JoinAll runs every thunk in thunks as its own branch, concurrently, and
// returns their results once all have completed. Circuits call this to fan
// out a variable-width batch of independent sub-computations (e.g. relaxing
// every vertex's distance in one pass); any opens the branches perform while
// they are all still live land in the same round.
func JoinAll[T any](s *Scope, thunks []func(*Scope) T) []T {
	n := len(thunks)
	if n == 0 {
		return nil
	}
	results := make([]T, n)

	var childrenDone sync.WaitGroup
	childrenDone.Add(n)
	remaining := int32(n)

	for i := 0; i < n; i++ {
		i := i
		childPath := appendPath(s.path, i)
		s.ctx.liveWG.Add(1)
		go func() {
			child := &Scope{ctx: s.ctx, path: childPath}
			results[i] = thunks[i](child)
			finishChild(s.ctx, &remaining, &childrenDone)
		}()
	}

	s.ctx.liveWG.Done() // this branch is now idle, waiting on its children
	childrenDone.Wait() // the last child re-added this branch's live count

	return results
}

// Join2 runs two differently-typed branches concurrently and returns both
// results once both have completed.
func Join2[A, B any](s *Scope, fa func(*Scope) A, fb func(*Scope) B) (A, B) {
	var a A
	var b B

	var childrenDone sync.WaitGroup
	childrenDone.Add(2)
	remaining := int32(2)

	s.ctx.liveWG.Add(1)
	go func() {
		child := &Scope{ctx: s.ctx, path: appendPath(s.path, 0)}
		a = fa(child)
		finishChild(s.ctx, &remaining, &childrenDone)
	}()
	s.ctx.liveWG.Add(1)
	go func() {
		child := &Scope{ctx: s.ctx, path: appendPath(s.path, 1)}
		b = fb(child)
		finishChild(s.ctx, &remaining, &childrenDone)
	}()

	s.ctx.liveWG.Done()
	childrenDone.Wait()

	return a, b
}

// Join3 runs three differently-typed branches concurrently and returns all
// three results once all have completed.
func Join3[A, B, C any](s *Scope, fa func(*Scope) A, fb func(*Scope) B, fc func(*Scope) C) (A, B, C) {
	var a A
	var b B
	var c C

	var childrenDone sync.WaitGroup
	childrenDone.Add(3)
	remaining := int32(3)

	branch := func(i int, run func(*Scope)) {
		s.ctx.liveWG.Add(1)
		go func() {
			child := &Scope{ctx: s.ctx, path: appendPath(s.path, i)}
			run(child)
			finishChild(s.ctx, &remaining, &childrenDone)
		}()
	}
	branch(0, func(cs *Scope) { a = fa(cs) })
	branch(1, func(cs *Scope) { b = fb(cs) })
	branch(2, func(cs *Scope) { c = fc(cs) })

	s.ctx.liveWG.Done()
	childrenDone.Wait()

	return a, b, c
}

package rpc

import (
	"context"
	"log"

	"golang.org/x/sync/semaphore"

	"github.com/five82/walletlink/internal/litelib"
)

const defaultPoolSize = 4

// Executor runs a single request against the daemon. It is only ever called
// from inside a tea.Cmd, never on the event loop.
type Executor struct {
	backend litelib.Backend
}

// NewExecutor builds an Executor for backend.
func NewExecutor(backend litelib.Backend) Executor {
	return Executor{backend: backend}
}

// Run executes req and produces exactly one Result.
func (e Executor) Run(ctx context.Context, req Request) Result {
	if e.backend == nil {
		return Failure("Error: no wallet backend configured")
	}
	raw := litelib.ProcessResponse(e.backend.Execute(ctx, req.Command, req.Args))
	res := ParseResult(raw)
	if res.Failed() {
		log.Printf("rpc %s %s failed: %s", req.ShortID(), req.Command, truncate(res.Err(), 200))
	}
	return res
}

// Pool bounds how many requests run against the daemon at once.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// NewPool creates a pool with size slots; size <= 0 uses the default.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = defaultPoolSize
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return p.size
}

// Do waits for a free slot and runs fn in the calling goroutine.
func (p *Pool) Do(ctx context.Context, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	fn()
	return nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}

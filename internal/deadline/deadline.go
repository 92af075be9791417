// Package deadline implements the process-wide deadline registry (C6): a
// timer per request id, a cooperative cancellation signal, and expiry
// checks. No component polls; cancellation is edge-triggered via the
// context's Done channel, generalizing the per-handler
// <-c.Request.Context().Done() checks the teacher's SSE handler uses.
package deadline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Context is the per-request deadline object. It is created by Start and
// destroyed by Complete; every component it is passed into treats it as
// read-only.
type Context struct {
	ID        uuid.UUID
	StartTime time.Time
	TimeoutMs int64

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	expired bool
}

// Done returns the cancellation signal. Any suspending operation (network
// I/O) must select on this rather than polling IsExpired.
func (c *Context) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Ctx returns the underlying context, for passing to functions that take a
// context.Context directly (http requests, provider calls).
func (c *Context) Ctx() context.Context {
	return c.ctx
}

// IsExpired reports whether the deadline has fired. Monotonic false→true.
func (c *Context) IsExpired() bool {
	select {
	case <-c.ctx.Done():
		c.mu.Lock()
		c.expired = true
		c.mu.Unlock()
		return true
	default:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.expired
	}
}

// RemainingMs returns the milliseconds left before expiry, 0 if already
// expired, or a very large value if the deadline never expires.
func (c *Context) RemainingMs() int64 {
	if c.IsExpired() {
		return 0
	}
	if c.TimeoutMs <= 0 {
		return 1 << 50
	}
	elapsed := time.Since(c.StartTime).Milliseconds()
	remaining := c.TimeoutMs - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Remaining returns RemainingMs as a time.Duration, useful for clamping
// sub-timeouts.
func (c *Context) Remaining() time.Duration {
	return time.Duration(c.RemainingMs()) * time.Millisecond
}

// Registry is the process-wide map of in-flight deadline contexts, keyed by
// request id. It is the module's only process-wide mutable state.
type Registry struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*entry
}

type entry struct {
	dctx  *Context
	timer *time.Timer
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[uuid.UUID]*entry)}
}

// Start begins a one-shot timer for id and returns its Context.
//
// enabled distinguishes globalTimer.enabled=false (the deadline never
// expires, regardless of timeoutSeconds) from globalTimer.enabled=true with
// timeoutSeconds==0 (spec §8's literal boundary case: the context is
// already expired, so every question gets the timeout placeholder). Without
// this distinction a genuinely-configured zero timeout is indistinguishable
// from "no timer at all".
func (r *Registry) Start(parent context.Context, id uuid.UUID, enabled bool, timeoutSeconds float64) *Context {
	var (
		ctx       context.Context
		cancel    context.CancelFunc
		timeoutMs int64
	)
	switch {
	case !enabled:
		ctx, cancel = context.WithCancel(parent)
	case timeoutSeconds <= 0:
		// Already-expired context: fires cancel immediately rather than
		// never, so IsExpired is true from the first check.
		ctx, cancel = context.WithCancel(parent)
		cancel()
	default:
		timeoutMs = int64(timeoutSeconds * 1000)
		ctx, cancel = context.WithTimeout(parent, time.Duration(timeoutMs)*time.Millisecond)
	}

	dctx := &Context{
		ID:        id,
		StartTime: time.Now(),
		TimeoutMs: timeoutMs,
		ctx:       ctx,
		cancel:    cancel,
	}

	r.mu.Lock()
	r.entries[id] = &entry{dctx: dctx}
	r.mu.Unlock()

	return dctx
}

// Complete is idempotent: it cancels the context (releasing its timer) and
// removes the registry entry if still present. Call this on every exit path
// from a request.
func (r *Registry) Complete(id uuid.UUID) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if ok {
		e.dctx.cancel()
	}
}

// Get returns the live Context for id, if any.
func (r *Registry) Get(id uuid.UUID) (*Context, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.dctx, true
}

// Len reports the number of in-flight requests, useful for a debug endpoint.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Package mailbox implements the request/result channels between
// clients and resolvers. Requests are append-only and keyed by a
// client-chosen idempotency token; every request gets exactly one
// result record, and resubmitting a finished request replays it.
package mailbox

import (
	"context"
	"errors"
	"sync"
)

// ErrFull is returned when the request queue cannot accept more work.
var ErrFull = errors.New("mailbox: request queue full")

// Request is any client-authored request carrying its idempotency token.
type Request interface {
	RequestID() string
}

// Mailbox pairs an inbound request queue with an outbound result table.
type Mailbox[Req Request, Res any] struct {
	mu      sync.Mutex
	queue   chan Req
	pending map[string]struct{}
	// results are retained for the life of the process: resubmits must
	// replay the recorded outcome for as long as a client can retry, so
	// there is no safe eviction point short of restart. One entry per
	// request id, bounded by however many requests the process has seen.
	results map[string]Res
	waiters map[string][]chan Res
}

func New[Req Request, Res any](size int) *Mailbox[Req, Res] {
	if size < 1 {
		size = 1
	}
	return &Mailbox[Req, Res]{
		queue:   make(chan Req, size),
		pending: make(map[string]struct{}),
		results: make(map[string]Res),
		waiters: make(map[string][]chan Res),
	}
}

// Submit appends a request. A request id that already completed or is
// still in flight is not re-queued; the caller reads the recorded
// result via Result or Await. Submitting is therefore always safe for
// a client that saw no timely answer.
func (m *Mailbox[Req, Res]) Submit(req Req) error {
	id := req.RequestID()

	m.mu.Lock()
	if _, done := m.results[id]; done {
		m.mu.Unlock()
		return nil
	}
	if _, inFlight := m.pending[id]; inFlight {
		m.mu.Unlock()
		return nil
	}
	m.pending[id] = struct{}{}
	m.mu.Unlock()

	select {
	case m.queue <- req:
		return nil
	default:
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
		return ErrFull
	}
}

// Queue is drained by resolver workers.
func (m *Mailbox[Req, Res]) Queue() <-chan Req {
	return m.queue
}

// Complete records the result for a request id. The first write wins;
// later writes for the same id are dropped, so duplicate resolver
// invocations cannot produce a second result record.
func (m *Mailbox[Req, Res]) Complete(id string, res Res) bool {
	m.mu.Lock()
	if _, done := m.results[id]; done {
		m.mu.Unlock()
		return false
	}
	m.results[id] = res
	delete(m.pending, id)
	waiters := m.waiters[id]
	delete(m.waiters, id)
	m.mu.Unlock()

	for _, w := range waiters {
		w <- res
	}
	return true
}

// Result returns the recorded result for a request id, if any.
func (m *Mailbox[Req, Res]) Result(id string) (Res, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.results[id]
	return res, ok
}

// Await blocks until the request id has a result or ctx is done.
func (m *Mailbox[Req, Res]) Await(ctx context.Context, id string) (Res, error) {
	m.mu.Lock()
	if res, ok := m.results[id]; ok {
		m.mu.Unlock()
		return res, nil
	}
	ch := make(chan Res, 1)
	m.waiters[id] = append(m.waiters[id], ch)
	m.mu.Unlock()

	select {
	case res := <-ch:
		return res, nil
	case <-ctx.Done():
		var zero Res
		return zero, ctx.Err()
	}
}

// Package reconcile drives the dispatch pipeline: it serializes every
// mutation-capable entry point behind one process-wide gate, runs
// reconciliation scans over the staging graphs, and debounces the
// post-placement follow-up scan.
package reconcile

import "context"

// Serializer is the single mutual-exclusion gate in front of the backing
// store. At most one dispatch-or-reconciliation pipeline holds it at a time;
// blocked acquirers are served in arrival order.
//
// Running more than one process instance breaks this guarantee by design;
// horizontal scaling is explicitly unsupported.
type Serializer struct {
	gate chan struct{}
}

// NewSerializer creates a released gate.
func NewSerializer() *Serializer {
	return &Serializer{gate: make(chan struct{}, 1)}
}

// Acquire blocks until the gate is free or the context ends.
func (s *Serializer) Acquire(ctx context.Context) error {
	select {
	case s.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire acquires the gate without blocking.
func (s *Serializer) TryAcquire() bool {
	select {
	case s.gate <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees the gate. Must only follow a successful Acquire.
func (s *Serializer) Release() {
	<-s.gate
}

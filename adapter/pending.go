package adapter

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

type result struct {
	payload json.RawMessage
	err     error
}

// correlator maps correlation identifiers to one-shot result channels.
// Identifiers are unique among outstanding requests; an entry is removed on
// first settlement and later responses for the same identifier find nothing.
type correlator struct {
	mu    sync.Mutex
	calls map[string]chan result
}

func newCorrelator() *correlator {
	return &correlator{calls: map[string]chan result{}}
}

// add registers a fresh pending entry and returns its identifier and the
// channel its result will arrive on.
func (c *correlator) add() (string, <-chan result) {
	ch := make(chan result, 1)
	id := uuid.NewString()
	c.mu.Lock()
	c.calls[id] = ch
	c.mu.Unlock()
	return id, ch
}

// settle delivers a result to the pending entry for id and removes it.
// Reports false when no entry exists (late or duplicate response).
func (c *correlator) settle(id string, res result) bool {
	c.mu.Lock()
	ch, ok := c.calls[id]
	if ok {
		delete(c.calls, id)
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	ch <- res
	return true
}

// drop abandons a pending entry without settling it. Used when the caller
// stops waiting (timeout, context cancellation, failed send).
func (c *correlator) drop(id string) {
	c.mu.Lock()
	delete(c.calls, id)
	c.mu.Unlock()
}

// failAll settles every outstanding entry with err. Called on teardown so no
// request is left waiting forever after the session dies.
func (c *correlator) failAll(err error) {
	c.mu.Lock()
	calls := c.calls
	c.calls = map[string]chan result{}
	c.mu.Unlock()
	for _, ch := range calls {
		ch <- result{err: err}
	}
}

// outstanding returns the number of unsettled entries.
func (c *correlator) outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

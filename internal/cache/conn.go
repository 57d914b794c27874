package cache

import (
	"context"
	"errors"
	"sync"
)

// ConnState is the lifecycle of the remote client a cache reads through.
type ConnState int

const (
	Unready ConnState = iota
	Ready
	Failed
)

func (s ConnState) String() string {
	switch s {
	case Unready:
		return "unready"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// ErrNotReady is returned by Current while no client is bound.
var ErrNotReady = errors.New("remote client not ready")

// Conn publishes the remote client once it becomes available. Readers block
// in Wait while it is unready; mutations use Current and never wait.
type Conn[C any] struct {
	mu     sync.Mutex
	state  ConnState
	client C
	err    error
	// changed is closed when the state leaves Unready.
	changed chan struct{}
}

func NewConn[C any]() *Conn[C] {
	return &Conn[C]{changed: make(chan struct{})}
}

// Set binds client and marks the connection ready.
func (c *Conn[C]) Set(client C) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = client
	c.err = nil
	c.transition(Ready)
}

// Fail marks the connection as permanently failed until the next Reset.
func (c *Conn[C]) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero C
	c.client = zero
	c.err = err
	c.transition(Failed)
}

// Reset unbinds the client. Subsequent reads wait for the next Set.
func (c *Conn[C]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero C
	c.client = zero
	c.err = nil
	if c.state != Unready {
		c.state = Unready
		c.changed = make(chan struct{})
	}
}

// caller holds mu
func (c *Conn[C]) transition(to ConnState) {
	if c.state == Unready {
		close(c.changed)
	} else {
		// Ready <-> Failed without passing through Unready; waiters are already released.
		c.changed = closedChan()
	}
	c.state = to
}

func (c *Conn[C]) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the bound client without blocking.
func (c *Conn[C]) Current() (C, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Ready:
		return c.client, nil
	case Failed:
		var zero C
		return zero, c.err
	}
	var zero C
	return zero, ErrNotReady
}

// Wait blocks until the connection is ready or failed, or ctx is done.
func (c *Conn[C]) Wait(ctx context.Context) (C, error) {
	for {
		c.mu.Lock()
		state, client, err, changed := c.state, c.client, c.err, c.changed
		c.mu.Unlock()

		switch state {
		case Ready:
			return client, nil
		case Failed:
			var zero C
			return zero, err
		}
		select {
		case <-changed:
		case <-ctx.Done():
			var zero C
			return zero, ctx.Err()
		}
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

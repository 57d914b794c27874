// Package cache keeps the client-side view of remote state consistent with
// the writes made through it.
//
// Reads go through Fetch: at most one remote call per key is in flight and
// concurrent readers share it. Writes go through Mutate: on success the
// declared targets are invalidated, on failure nothing changes. Invalidation
// bumps a per-key generation, and an identity switch (Reset) bumps the cache
// epoch; a flight only stores its result if neither moved while it ran, so a
// read issued after a mutation never observes a value fetched before it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrSuperseded is returned to readers whose flight outlived the identity it
// was started for.
var ErrSuperseded = errors.New("cache: read superseded by identity change")

// Status of a cached entry as seen by Peek.
type Status int

const (
	StatusAbsent Status = iota
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	}
	return "absent"
}

// Entry is a snapshot of one key.
type Entry struct {
	Key       Key
	Status    Status
	Value     any
	Err       error
	Stale     bool
	UpdatedAt time.Time
}

type entry struct {
	value any
	err   error
	stale bool
	at    time.Time
}

// Cache is a query/mutation cache reading through the client published by a Conn.
type Cache[C any] struct {
	conn   *Conn[C]
	logger *log.Logger
	now    func() time.Time

	mu      sync.Mutex
	epoch   uint64
	entries map[Key]*entry
	gens    map[Key]uint64
	group   singleflight.Group
}

type Option func(*options)

type options struct {
	logger *log.Logger
	now    func() time.Time
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func New[C any](conn *Conn[C], opts ...Option) *Cache[C] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard, "", 0)
	}
	return &Cache[C]{
		conn:    conn,
		logger:  o.logger,
		now:     o.now,
		entries: make(map[Key]*entry),
		gens:    make(map[Key]uint64),
	}
}

func (c *Cache[C]) Conn() *Conn[C] { return c.conn }

// Fetch returns the cached value for key, calling fn through the connection
// when the key is absent, stale or errored. The call runs detached from ctx:
// a caller that gives up stops waiting but the result still lands in the
// cache for later readers.
func Fetch[T any, C any](ctx context.Context, c *Cache[C], key Key, fn func(context.Context, C) (T, error)) (T, error) {
	var zero T

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && !e.stale && e.err == nil {
		c.mu.Unlock()
		v, ok := e.value.(T)
		if !ok {
			return zero, fmt.Errorf("cache: key %s holds %T", key, e.value)
		}
		return v, nil
	}
	epoch := c.epoch
	gen, ok := c.gens[key]
	if !ok {
		c.gens[key] = 0
	}
	c.mu.Unlock()

	flight := fmt.Sprintf("%d|%d|%s", epoch, gen, key)
	ch := c.group.DoChan(flight, func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		client, err := c.conn.Wait(fctx)
		if err != nil {
			return nil, err
		}
		if !c.current(epoch) {
			return nil, ErrSuperseded
		}
		v, err := fn(fctx, client)
		c.store(key, epoch, gen, v, err)
		return v, err
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("cache: flight %s returned %T", key, res.Val)
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Mutate runs fn against the live client and, only if it succeeds,
// invalidates targets. Mutations never wait for the connection.
func Mutate[T any, C any](ctx context.Context, c *Cache[C], fn func(context.Context, C) (T, error), targets ...Target) (T, error) {
	var zero T
	client, err := c.conn.Current()
	if err != nil {
		return zero, err
	}
	v, err := fn(ctx, client)
	if err != nil {
		c.logger.Printf("cache: mutation failed, nothing invalidated: %v", err)
		return zero, err
	}
	c.Invalidate(targets...)
	return v, nil
}

func (c *Cache[C]) current(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch == epoch
}

func (c *Cache[C]) store(key Key, epoch, gen uint64, v any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch || c.gens[key] != gen {
		c.logger.Printf("cache: dropping superseded result key=%s", key)
		return
	}
	c.entries[key] = &entry{value: v, err: err, at: c.now()}
}

// Invalidate marks every matching entry stale and retires in-flight reads
// for those keys so their results are not stored.
func (c *Cache[C]) Invalidate(targets ...Target) {
	if len(targets) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key := range c.gens {
		for _, t := range targets {
			if !t.Matches(key) {
				continue
			}
			c.gens[key]++
			if e, ok := c.entries[key]; ok {
				e.stale = true
			}
			n++
			break
		}
	}
	c.logger.Printf("cache: invalidated %d keys for %v", n, targets)
}

// Reset drops every entry and retires all in-flight reads. It is called on
// identity changes.
func (c *Cache[C]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.entries = make(map[Key]*entry)
	c.gens = make(map[Key]uint64)
	c.logger.Printf("cache: reset epoch=%d", c.epoch)
}

// Peek returns the current entry for key without triggering a read.
func (c *Cache[C]) Peek(key Key) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry{Key: key, Status: StatusAbsent}
	}
	out := Entry{Key: key, Value: e.value, Err: e.err, Stale: e.stale, UpdatedAt: e.at, Status: StatusReady}
	if e.err != nil {
		out.Status = StatusError
	}
	return out
}

// Entries returns a snapshot of all stored entries.
func (c *Cache[C]) Entries() []Entry {
	c.mu.Lock()
	keys := make([]Key, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.Unlock()

	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, c.Peek(k))
	}
	return out
}

// Epoch counts identity resets.
func (c *Cache[C]) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

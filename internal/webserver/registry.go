package webserver

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"storefront/internal/storefront"

	"github.com/google/uuid"
)

// ClientFactory builds the storefront client for a new visitor.
type ClientFactory func() *storefront.Client

type visitor struct {
	client   *storefront.Client
	lastSeen time.Time
}

// Registry holds one storefront client per visitor, keyed by an opaque id
// carried in a cookie. Visitors idle for longer than the TTL are dropped, and
// past the visitor limit the least recently seen one is evicted. Requests
// that only read are served by a shared anonymous guest client instead.
type Registry struct {
	factory ClientFactory
	ttl     time.Duration
	max     int
	logger  *log.Logger
	now     func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
	guest    *storefront.Client
}

type RegistryOption func(*Registry)

// WithMaxVisitors bounds how many visitors are kept. Zero means no bound.
func WithMaxVisitors(n int) RegistryOption {
	return func(r *Registry) { r.max = n }
}

func NewRegistry(factory ClientFactory, ttl time.Duration, logger *log.Logger, opts ...RegistryOption) *Registry {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	r := &Registry{
		factory:  factory,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lookup returns the live visitor for id without creating one.
func (r *Registry) Lookup(id string) (*storefront.Client, bool) {
	if id == "" {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	v, ok := r.visitors[id]
	if !ok || r.expired(v, now) {
		return nil, false
	}
	v.lastSeen = now
	return v.client, true
}

// Guest returns the shared anonymous client. It must never be logged in.
func (r *Registry) Guest() *storefront.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.guest == nil {
		r.guest = r.factory()
	}
	return r.guest
}

// Get returns the client for id, creating a visitor under a fresh id when id
// is unknown or expired. The returned id is the one to hand back to the
// visitor.
func (r *Registry) Get(id string) (*storefront.Client, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if v, ok := r.visitors[id]; ok && !r.expired(v, now) {
		v.lastSeen = now
		return v.client, id
	}
	if v, ok := r.visitors[id]; ok {
		v.client.Close()
		delete(r.visitors, id)
	}
	if r.max > 0 && len(r.visitors) >= r.max {
		r.evictOldest()
	}
	id = uuid.NewString()
	v := &visitor{client: r.factory(), lastSeen: now}
	r.visitors[id] = v
	r.logger.Printf("visitor created id=%s", id)
	return v.client, id
}

// caller holds mu
func (r *Registry) evictOldest() {
	var (
		oldestID string
		oldest   *visitor
	)
	for id, v := range r.visitors {
		if oldest == nil || v.lastSeen.Before(oldest.lastSeen) {
			oldestID, oldest = id, v
		}
	}
	if oldest == nil {
		return
	}
	oldest.client.Close()
	delete(r.visitors, oldestID)
	r.logger.Printf("visitor evicted id=%s", oldestID)
}

// caller holds mu
func (r *Registry) expired(v *visitor, now time.Time) bool {
	return r.ttl > 0 && now.Sub(v.lastSeen) > r.ttl
}

// Sweep drops idle visitors and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	n := 0
	for id, v := range r.visitors {
		if r.expired(v, now) {
			v.client.Close()
			delete(r.visitors, id)
			n++
		}
	}
	if n > 0 {
		r.logger.Printf("swept %d idle visitors", n)
	}
	return n
}

// Run sweeps periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	if r.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(r.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visitors)
}

// Close releases every visitor and the guest client.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, v := range r.visitors {
		v.client.Close()
		delete(r.visitors, id)
	}
	if r.guest != nil {
		r.guest.Close()
		r.guest = nil
	}
}

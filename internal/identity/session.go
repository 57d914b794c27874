// Package identity tracks who the storefront is acting for.
package identity

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"

	"github.com/samber/mo"
)

var (
	// ErrAlreadyAuthenticated is returned by Login while a principal is logged in.
	ErrAlreadyAuthenticated = errors.New("user is already authenticated")
	// ErrLoginInProgress is returned by Login while another attempt is outstanding.
	ErrLoginInProgress = errors.New("login already in progress")
	// ErrInvalidCredentials is returned when the provider rejects the credentials.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

// Listener observes identity changes. None means the session became anonymous.
type Listener func(id mo.Option[Identity])

// Session is the login state machine for one visitor.
//
//	anonymous -> authenticating -> authenticated
//	authenticating -> anonymous   (provider failure or cancellation)
//	authenticated -> anonymous    (logout)
//
// Listeners run synchronously on every identity change, before the new
// state is visible through State and Identity.
type Session struct {
	provider Provider
	logger   *log.Logger

	// switching serializes identity changes and listener calls.
	switching sync.Mutex

	mu        sync.Mutex
	state     State
	current   mo.Option[Identity]
	listeners []Listener
}

func NewSession(provider Provider, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Session{provider: provider, logger: logger, current: mo.None[Identity]()}
}

// OnChange registers l for subsequent identity changes.
func (s *Session) OnChange(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Identity() mo.Option[Identity] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Login authenticates creds. It fails with ErrAlreadyAuthenticated when a
// principal is already logged in; the session is unchanged in that case.
func (s *Session) Login(ctx context.Context, creds Credentials) (Identity, error) {
	s.mu.Lock()
	switch s.state {
	case Authenticated:
		s.mu.Unlock()
		return Identity{}, ErrAlreadyAuthenticated
	case Authenticating:
		s.mu.Unlock()
		return Identity{}, ErrLoginInProgress
	}
	s.state = Authenticating
	s.mu.Unlock()

	id, err := s.provider.Login(ctx, creds)
	if err != nil {
		s.mu.Lock()
		s.state = Anonymous
		s.mu.Unlock()
		s.logger.Printf("login failed user=%s: %v", creds.Username, err)
		return Identity{}, err
	}

	s.publish(Authenticated, mo.Some(id))
	s.logger.Printf("logged in principal=%s", id.Principal)
	return id, nil
}

// Logout ends the authenticated session. The session becomes anonymous even
// when the provider fails to revoke the token; that error is returned.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	id, ok := s.current.Get()
	authenticated := s.state == Authenticated
	s.mu.Unlock()
	if !authenticated || !ok {
		return nil
	}

	err := s.provider.Logout(ctx, id)
	if err != nil {
		s.logger.Printf("logout principal=%s: %v", id.Principal, err)
	}
	s.publish(Anonymous, mo.None[Identity]())
	s.logger.Printf("logged out principal=%s", id.Principal)
	return err
}

func (s *Session) publish(state State, id mo.Option[Identity]) {
	s.switching.Lock()
	defer s.switching.Unlock()

	s.mu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(id)
	}

	s.mu.Lock()
	s.state = state
	s.current = id
	s.mu.Unlock()
}

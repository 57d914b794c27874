// Package storefront binds a visitor's identity, remote connection and
// query cache into one client. Views read through it and every write goes
// through a mutation that invalidates what it changed.
package storefront

import (
	"context"
	"io"
	"log"
	"sync"

	"storefront/internal/cache"
	"storefront/internal/identity"
	"storefront/internal/rpc"

	"github.com/samber/mo"
)

// Dialer produces a remote client acting for token. The empty token is the
// anonymous caller.
type Dialer func(ctx context.Context, token string) (rpc.Client, error)

// HTTPDialer dials the backend over HTTP. Dialing never blocks.
func HTTPDialer(base *rpc.HTTPClient) Dialer {
	return func(_ context.Context, token string) (rpc.Client, error) {
		if token == "" {
			return base, nil
		}
		return base.WithToken(token), nil
	}
}

type Client struct {
	session *identity.Session
	conn    *cache.Conn[rpc.Client]
	cache   *cache.Cache[rpc.Client]
	dial    Dialer
	logger  *log.Logger

	mu      sync.Mutex
	bindSeq uint64
	cancel  context.CancelFunc
}

// New creates a client for one visitor, starting anonymous. The remote
// connection is established in the background; reads issued before it is
// ready wait for it.
func New(provider identity.Provider, dial Dialer, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	conn := cache.NewConn[rpc.Client]()
	c := &Client{
		session: identity.NewSession(provider, logger),
		conn:    conn,
		cache:   cache.New(conn, cache.WithLogger(logger)),
		dial:    dial,
		logger:  logger,
	}
	c.session.OnChange(c.identityChanged)
	c.bind("", false)
	return c
}

func (c *Client) Session() *identity.Session { return c.session }

func (c *Client) Cache() *cache.Cache[rpc.Client] { return c.cache }

func (c *Client) ConnState() cache.ConnState { return c.conn.State() }

func (c *Client) Identity() mo.Option[identity.Identity] { return c.session.Identity() }

func (c *Client) Authenticated() bool { return c.session.State() == identity.Authenticated }

func (c *Client) Login(ctx context.Context, creds identity.Credentials) (identity.Identity, error) {
	return c.session.Login(ctx, creds)
}

// Logout ends the session. Cached data of the previous principal is dropped
// before the session reports anonymous.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.Logout(ctx)
}

// Close stops any pending connection attempt.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindSeq++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Client) identityChanged(id mo.Option[identity.Identity]) {
	token := ""
	if v, ok := id.Get(); ok {
		token = v.Token
	}
	c.bind(token, true)
}

// bind unbinds the current remote client and dials a new one for token.
// The cache is reset before the new client can be published, so no read
// under the new identity runs against the old client. A dial that completes
// after a newer bind is discarded.
func (c *Client) bind(token string, resetCache bool) {
	c.mu.Lock()
	c.bindSeq++
	seq := c.bindSeq
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.conn.Reset()
	if resetCache {
		c.cache.Reset()
	}
	c.mu.Unlock()

	go func() {
		cl, err := c.dial(ctx, token)

		c.mu.Lock()
		defer c.mu.Unlock()
		if seq != c.bindSeq {
			return
		}
		if err != nil {
			c.logger.Printf("storefront: dial failed: %v", err)
			c.conn.Fail(err)
			return
		}
		c.conn.Set(cl)
	}()
}

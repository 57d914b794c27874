package views

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"storefront/internal/identity"
	"storefront/internal/storefront"
)

const Brand = "GLORY GADGETS"

type Header struct {
	Brand         string `json:"brand" yaml:"brand"`
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
	LoggingIn     bool   `json:"loggingIn" yaml:"loggingIn"`
	Username      string `json:"username,omitempty" yaml:"username,omitempty"`
	CartCount     uint64 `json:"cartCount" yaml:"cartCount"`
	ShowAdminLink bool   `json:"showAdminLink" yaml:"showAdminLink"`
	Search        string `json:"search,omitempty" yaml:"search,omitempty"`
}

type Footer struct {
	Brand     string `json:"brand" yaml:"brand"`
	Tagline   string `json:"tagline" yaml:"tagline"`
	Phone     string `json:"phone" yaml:"phone"`
	Address   string `json:"address" yaml:"address"`
	Copyright string `json:"copyright" yaml:"copyright"`
}

// ProfileGate asks a newly authenticated visitor for a display name.
type ProfileGate struct {
	Open bool `json:"open" yaml:"open"`
}

type Shell struct {
	Header      Header      `json:"header" yaml:"header"`
	Footer      Footer      `json:"footer" yaml:"footer"`
	ProfileGate ProfileGate `json:"profileGate" yaml:"profileGate"`
}

// Shell renders the chrome shared by every page. search echoes the current
// search box content.
func (r *Renderer) Shell(ctx context.Context, c *storefront.Client, search string) Shell {
	sess := c.Session()
	h := Header{
		Brand:         Brand,
		Authenticated: sess.State() == identity.Authenticated,
		LoggingIn:     sess.State() == identity.Authenticating,
		Search:        search,
	}
	if id, ok := c.Identity().Get(); ok {
		h.Username = id.Username
	}

	var (
		count   Section[uint64]
		admin   Section[bool]
		profile Section[bool]
	)
	var wg sync.WaitGroup
	wg.Go(func() {
		count = load(ctx, r, "cart count", c.CartCount)
	})
	wg.Go(func() {
		admin = load(ctx, r, "admin flag", c.IsAdmin)
	})
	if h.Authenticated {
		wg.Go(func() {
			profile = load(ctx, r, "profile", func(ctx context.Context) (bool, error) {
				p, err := c.CallerProfile(ctx)
				return p.IsAbsent(), err
			})
		})
	}
	wg.Wait()

	h.CartCount = count.Data
	h.ShowAdminLink = admin.Ready() && admin.Data
	return Shell{
		Header: h,
		Footer: r.footer(),
		// Open only once the profile read completed and found nothing.
		ProfileGate: ProfileGate{Open: h.Authenticated && profile.Ready() && profile.Data},
	}
}

func (r *Renderer) footer() Footer {
	return Footer{
		Brand:     Brand,
		Tagline:   "Your trusted destination for the latest gadgets and electronics.",
		Phone:     "9892246308",
		Address:   "R.N.15 DHARAVI MUMBAI",
		Copyright: fmt.Sprintf("© %d %s", r.now().Year(), Brand),
	}
}

// Login logs the visitor in from the header. A stale authenticated session
// is logged out and the login retried once. The session is anonymous after
// Logout even when revoking the old token failed, so the retry still runs;
// that failure is only reported if the retry fails too.
func Login(ctx context.Context, c *storefront.Client, creds identity.Credentials) (identity.Identity, error) {
	id, err := c.Login(ctx, creds)
	if !errors.Is(err, identity.ErrAlreadyAuthenticated) {
		return id, err
	}
	logoutErr := c.Logout(ctx)
	if logoutErr != nil && c.Session().State() != identity.Anonymous {
		return identity.Identity{}, fmt.Errorf("reset session: %w", logoutErr)
	}
	id, err = c.Login(ctx, creds)
	if err != nil && logoutErr != nil {
		err = errors.Join(err, fmt.Errorf("reset session: %w", logoutErr))
	}
	return id, err
}

package cli

import (
	"context"
	"io"
	"log"

	"storefront/internal/domain"
	"storefront/internal/identity"
	"storefront/internal/rpc"
	"storefront/internal/storefront"
	"storefront/internal/views"

	"github.com/spf13/cobra"
)

// Signer registers new principals.
type Signer interface {
	Signup(ctx context.Context, username, password string) (*domain.Account, error)
}

// Remote is what a command needs from the backend.
type Remote struct {
	Client *storefront.Client
	Signer Signer
}

// Connector builds a Remote for the given options.
type Connector func(opts *RootOptions, logger *log.Logger) (Remote, error)

// HTTPConnector reaches the backend at opts.Backend.
func HTTPConnector(opts *RootOptions, logger *log.Logger) (Remote, error) {
	base := rpc.NewHTTPClient(opts.Backend, rpc.WithLogger(logger))
	client := storefront.New(identity.NewRemoteProvider(base), storefront.HTTPDialer(base), logger)
	return Remote{Client: client, Signer: base}, nil
}

// session is one command invocation's connection to the storefront.
type session struct {
	Remote
	ctx      context.Context
	renderer *views.Renderer
	out      *OutputFormatter
	logger   *log.Logger
}

func (o *RootOptions) logger(cmd *cobra.Command) *log.Logger {
	if !o.Verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "[storefrontctl] ", log.LstdFlags|log.LUTC|log.Lshortfile)
}

// open connects and logs in when credentials are configured. requireLogin
// fails early when they are not.
func (o *RootOptions) open(cmd *cobra.Command, requireLogin bool) (*session, func(), error) {
	if requireLogin && o.Username == "" {
		return nil, nil, NewExitError(ExitAuthError, "this command needs --user and --password")
	}
	logger := o.logger(cmd)
	remote, err := o.connect(o, logger)
	if err != nil {
		return nil, nil, WrapExitError(ExitFailure, "connect", err)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), o.Timeout)
	s := &session{
		Remote:   remote,
		ctx:      ctx,
		renderer: views.NewRenderer(o.Timeout, logger),
		out:      &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: o.Verbose},
		logger:   logger,
	}
	closeFn := func() {
		if s.Client.Authenticated() {
			if err := s.Client.Logout(context.WithoutCancel(ctx)); err != nil {
				logger.Printf("logout: %v", err)
			}
		}
		s.Client.Close()
		cancel()
	}
	if o.Username != "" {
		id, err := views.Login(ctx, s.Client, identity.Credentials{Username: o.Username, Password: o.Password})
		if err != nil {
			closeFn()
			return nil, nil, classify("login", err)
		}
		s.out.VerboseLog("logged in as %s (%s)", id.Username, id.Principal)
	}
	return s, closeFn, nil
}

// run opens a session, calls fn and releases the session.
func (o *RootOptions) run(cmd *cobra.Command, requireLogin bool, fn func(s *session) error) error {
	s, closeFn, err := o.open(cmd, requireLogin)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(s)
}

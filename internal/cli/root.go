// Package cli implements storefrontctl, a terminal client that drives the
// same storefront client the web server holds per visitor.
package cli

import (
	"fmt"
	"os"
	"time"

	"storefront/internal/config"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Backend  string
	Format   string // "text" | "json" | "yaml"
	Username string
	Password string
	Timeout  time.Duration
	Verbose  bool

	connect Connector
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the storefrontctl root command talking to the
// backend over HTTP.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWith(HTTPConnector)
}

// NewRootCommandWith creates the root command with a custom connector.
func NewRootCommandWith(connect Connector) *cobra.Command {
	opts := &RootOptions{connect: connect}

	cmd := &cobra.Command{
		Use:   "storefrontctl",
		Short: "Browse and shop the storefront from a terminal",
		Long: `storefrontctl browses the catalog, manages the cart, checks out and
administers the store through the storefront backend.

Credentials come from --user/--password or STOREFRONT_USER and
STOREFRONT_PASSWORD. Each invocation logs in, runs one command and logs out.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cfg := config.FromEnv()
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", cfg.BackendURL, "backend base URL")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVarP(&opts.Username, "user", "u", os.Getenv("STOREFRONT_USER"), "username to log in as")
	cmd.PersistentFlags().StringVar(&opts.Password, "password", os.Getenv("STOREFRONT_PASSWORD"), "password to log in with")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "how long to wait for the backend")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewProductsCommand(opts))
	cmd.AddCommand(NewProductCommand(opts))
	cmd.AddCommand(NewCategoriesCommand(opts))
	cmd.AddCommand(NewCartCommand(opts))
	cmd.AddCommand(NewCheckoutCommand(opts))
	cmd.AddCommand(NewOrdersCommand(opts))
	cmd.AddCommand(NewReviewCommand(opts))
	cmd.AddCommand(NewProfileCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewSignupCommand(opts))
	cmd.AddCommand(NewAdminCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

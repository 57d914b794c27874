package cli

import (
	"fmt"
	"io"

	"storefront/internal/storefront"

	"github.com/spf13/cobra"
)

// NewReviewCommand adds a review to a product.
func NewReviewCommand(rootOpts *RootOptions) *cobra.Command {
	var form storefront.ReviewForm
	cmd := &cobra.Command{
		Use:   "review <product-id>",
		Short: "Review a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("product", args[0])
			if err != nil {
				return err
			}
			form.ProductID = id
			return rootOpts.run(cmd, true, func(s *session) error {
				if err := s.Client.AddReview(s.ctx, form); err != nil {
					return classify("add review", err)
				}
				return s.out.Done(fmt.Sprintf("Review added to #%d", id), map[string]any{"productId": id})
			})
		},
	}
	cmd.Flags().Uint8Var(&form.Rating, "rating", 5, "rating from 1 to 5")
	cmd.Flags().StringVar(&form.Comment, "comment", "", "review text")
	cmd.Flags().StringVar(&form.Reviewer, "as", "", "reviewer name (defaults to your profile name)")
	return cmd
}

// NewProfileCommand shows or sets the caller's display name.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, true, func(s *session) error {
				p, err := s.Client.CallerProfile(s.ctx)
				if err != nil {
					return classify("load profile", err)
				}
				prof, ok := p.Get()
				out := map[string]any{"exists": ok, "name": prof.Name}
				return s.out.Print(out, func(w io.Writer) error {
					if !ok {
						_, err := fmt.Fprintln(w, "No profile yet. Set one with: storefrontctl profile set <name>")
						return err
					}
					_, err := fmt.Fprintf(w, "Name: %s\n", prof.Name)
					return err
				})
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <name>",
		Short: "Set your display name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, true, func(s *session) error {
				if err := s.Client.SaveProfile(s.ctx, args[0]); err != nil {
					return classify("save profile", err)
				}
				return s.out.Done("Profile saved", map[string]any{"name": args[0]})
			})
		},
	})
	return cmd
}

// NewWhoamiCommand renders the shell header for the configured credentials.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who you are logged in as, your cart badge and admin access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, false, func(s *session) error {
				shell := s.renderer.Shell(s.ctx, s.Client, "")
				return s.out.Print(shell.Header, func(w io.Writer) error {
					h := shell.Header
					if !h.Authenticated {
						_, err := fmt.Fprintln(w, "anonymous")
						return err
					}
					fmt.Fprintf(w, "%s  cart: %d", h.Username, h.CartCount)
					if h.ShowAdminLink {
						fmt.Fprint(w, "  admin")
					}
					if shell.ProfileGate.Open {
						fmt.Fprint(w, "  (no profile)")
					}
					_, err := fmt.Fprintln(w)
					return err
				})
			})
		},
	}
}

// NewSignupCommand registers a new account with --user and --password.
func NewSignupCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create an account from --user and --password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rootOpts.Username == "" || rootOpts.Password == "" {
				return NewExitError(ExitCommandError, "signup needs --user and --password")
			}
			logger := rootOpts.logger(cmd)
			remote, err := rootOpts.connect(rootOpts, logger)
			if err != nil {
				return WrapExitError(ExitFailure, "connect", err)
			}
			defer remote.Client.Close()
			if remote.Signer == nil {
				return NewExitError(ExitFailure, "signup is not available")
			}
			acc, err := remote.Signer.Signup(cmd.Context(), rootOpts.Username, rootOpts.Password)
			if err != nil {
				return classify("signup", err)
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Done(fmt.Sprintf("Account %s created", acc.Username), map[string]any{
				"principal": acc.Principal,
				"username":  acc.Username,
			})
		},
	}
}

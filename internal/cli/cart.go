package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"storefront/internal/storefront"
	"storefront/internal/views"

	"github.com/spf13/cobra"
)

func writeCart(w io.Writer, sum views.CartSummary) error {
	if sum.Empty {
		_, err := fmt.Fprintln(w, "Your cart is empty.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tUNIT\tTOTAL")
	for _, l := range sum.Lines {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", l.ProductID, l.Name, l.Quantity, l.UnitPrice, l.LineTotal)
	}
	fmt.Fprintf(tw, "\t\t%d\t\t%s\n", sum.ItemCount, sum.Subtotal)
	return tw.Flush()
}

// NewCartCommand shows the cart and groups the cart actions.
func NewCartCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, true, func(s *session) error {
				cart := s.renderer.Cart(s.ctx, s.Client)
				if err := sectionErr("cart", cart.Summary); err != nil {
					return err
				}
				return s.out.Print(cart, func(w io.Writer) error {
					return writeCart(w, cart.Summary.Data)
				})
			})
		},
	}

	cmd.AddCommand(newCartAddCommand(rootOpts))
	cmd.AddCommand(newCartSetCommand(rootOpts))
	cmd.AddCommand(newCartRemoveCommand(rootOpts))
	cmd.AddCommand(newCartClearCommand(rootOpts))

	return cmd
}

func newCartAddCommand(rootOpts *RootOptions) *cobra.Command {
	var qty int
	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("product", args[0])
			if err != nil {
				return err
			}
			return rootOpts.run(cmd, true, func(s *session) error {
				n := views.ClampQuantity(qty)
				if err := s.Client.AddToCart(s.ctx, id, n); err != nil {
					return classify("add to cart", err)
				}
				return s.out.Done(fmt.Sprintf("Added %d x #%d to cart", n, id), map[string]any{"productId": id, "quantity": n})
			})
		},
	}
	cmd.Flags().IntVarP(&qty, "quantity", "q", views.MinQuantity, "quantity to add (1-99)")
	return cmd
}

func newCartSetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Set a cart line's quantity; 0 removes the line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("product", args[0])
			if err != nil {
				return err
			}
			qty, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid quantity %q", args[1]))
			}
			if qty > views.MaxQuantity {
				qty = views.MaxQuantity
			}
			return rootOpts.run(cmd, true, func(s *session) error {
				if err := s.Client.UpdateCartItem(s.ctx, id, qty); err != nil {
					return classify("update cart", err)
				}
				return s.out.Done(fmt.Sprintf("Set #%d to %d", id, qty), map[string]any{"productId": id, "quantity": qty})
			})
		},
	}
}

func newCartRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("product", args[0])
			if err != nil {
				return err
			}
			return rootOpts.run(cmd, true, func(s *session) error {
				if err := s.Client.RemoveFromCart(s.ctx, id); err != nil {
					return classify("remove from cart", err)
				}
				return s.out.Done(fmt.Sprintf("Removed #%d from cart", id), map[string]any{"productId": id})
			})
		},
	}
}

func newCartClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, true, func(s *session) error {
				if err := s.Client.ClearCart(s.ctx); err != nil {
					return classify("clear cart", err)
				}
				return s.out.Done("Cart cleared", nil)
			})
		},
	}
}

type CheckoutOptions struct {
	*RootOptions
	Form storefront.CheckoutForm
}

// NewCheckoutCommand places an order for the cart.
func NewCheckoutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckoutOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for everything in the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, true, func(s *session) error {
				if opts.Form.CustomerName == "" {
					if p, err := s.Client.CallerProfile(s.ctx); err == nil {
						opts.Form.CustomerName = p.OrEmpty().Name
					}
				}
				id, err := s.Client.PlaceOrder(s.ctx, opts.Form)
				if err != nil {
					return classify("place order", err)
				}
				return s.out.Done(fmt.Sprintf("Order #%d placed", id), map[string]any{"orderId": id})
			})
		},
	}

	cmd.Flags().StringVar(&opts.Form.CustomerName, "name", "", "customer name (defaults to your profile name)")
	cmd.Flags().StringVar(&opts.Form.Phone, "phone", "", "contact phone")
	cmd.Flags().StringVar(&opts.Form.Address, "address", "", "delivery address")
	cmd.Flags().StringVar(&opts.Form.PaymentMethod, "payment", "COD", "payment method (COD|UPI)")

	return cmd
}

// NewOrdersCommand lists the caller's orders.
func NewOrdersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, true, func(s *session) error {
				orders, err := s.Client.OrderHistory(s.ctx)
				if err != nil {
					return classify("order history", err)
				}
				return s.out.Print(orders, func(w io.Writer) error {
					if len(orders) == 0 {
						_, err := fmt.Fprintln(w, "No orders yet.")
						return err
					}
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tPLACED\tITEMS\tTOTAL\tPAYMENT")
					for _, o := range orders {
						placed := time.Unix(0, o.Timestamp).UTC().Format(time.RFC3339)
						fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", o.ID, placed, len(o.Items), views.Money(o.Total), o.PaymentMethod)
					}
					return tw.Flush()
				})
			})
		},
	}
}

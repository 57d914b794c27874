package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"storefront/internal/blob"
	"storefront/internal/domain"
	"storefront/internal/storefront"
	"storefront/internal/views"

	"github.com/spf13/cobra"
)

// NewAdminCommand renders the admin panel and groups the admin actions.
func NewAdminCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Show the admin panel: products, categories and all orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, true, func(s *session) error {
				panel := s.renderer.Admin(s.ctx, s.Client)
				if err := sectionErr("admin panel", views.Section[struct{}]{Status: panel.Access}); err != nil {
					return err
				}
				return s.out.Print(panel, func(w io.Writer) error {
					return writeAdmin(w, panel)
				})
			})
		},
	}

	category := &cobra.Command{Use: "category", Short: "Manage categories"}
	category.AddCommand(newCategoryCreateCommand(rootOpts))

	product := &cobra.Command{Use: "product", Short: "Manage products"}
	product.AddCommand(newProductCreateCommand(rootOpts))
	product.AddCommand(newProductUpdateCommand(rootOpts))
	product.AddCommand(newProductDeleteCommand(rootOpts))

	cmd.AddCommand(category, product, newRoleCommand(rootOpts))
	return cmd
}

func writeAdmin(w io.Writer, panel views.Admin) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Products (%s)\n", panel.Products.Status)
	for _, p := range panel.Products.Data {
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\n", p.ID, p.Name, p.Price, p.CategoryName)
	}
	fmt.Fprintf(tw, "Categories (%s)\n", panel.Categories.Status)
	for _, c := range panel.Categories.Data {
		fmt.Fprintf(tw, "  %d\t%s\n", c.ID, c.Name)
	}
	fmt.Fprintf(tw, "Orders (%s)\n", panel.Orders.Status)
	for _, o := range panel.Orders.Data {
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\n", o.ID, o.CustomerName, o.Total, o.PaymentMethod, o.PlacedAt)
	}
	return tw.Flush()
}

func newCategoryCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, true, func(s *session) error {
				id, err := s.Client.CreateCategory(s.ctx, args[0])
				if err != nil {
					return classify("create category", err)
				}
				return s.out.Done(fmt.Sprintf("Category #%d created", id), map[string]any{"id": id})
			})
		},
	}
}

type productFlags struct {
	draft storefront.ProductDraft
	image string
}

func (f *productFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.draft.Name, "name", "", "product name")
	cmd.Flags().StringVar(&f.draft.Description, "description", "", "product description")
	cmd.Flags().StringVar(&f.draft.Price, "price", "", "price, e.g. 9.99")
	cmd.Flags().Uint64Var(&f.draft.CategoryID, "category", 0, "category id")
	cmd.Flags().StringVar(&f.image, "image", "", "path to the product image")
}

// load reads the image file, reporting upload progress on verbose output.
func (f *productFlags) load(s *session) (storefront.ProductDraft, error) {
	d := f.draft
	if f.image == "" {
		return d, nil
	}
	data, err := os.ReadFile(f.image)
	if err != nil {
		return d, WrapExitError(ExitCommandError, "read image", err)
	}
	d.Image = blob.FromBytes(data, "").WithUploadProgress(func(p int) {
		s.out.VerboseLog("uploading image: %d%%", p)
	})
	return d, nil
}

func newProductCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var flags productFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, true, func(s *session) error {
				d, err := flags.load(s)
				if err != nil {
					return err
				}
				id, err := s.Client.CreateProduct(s.ctx, d)
				if err != nil {
					return classify("create product", err)
				}
				return s.out.Done(fmt.Sprintf("Product #%d created", id), map[string]any{"id": id})
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newProductUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	var flags productFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a product's fields; the image is kept unless --image is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("product", args[0])
			if err != nil {
				return err
			}
			return rootOpts.run(cmd, true, func(s *session) error {
				d, err := flags.load(s)
				if err != nil {
					return err
				}
				if err := s.Client.UpdateProduct(s.ctx, id, d); err != nil {
					return classify("update product", err)
				}
				return s.out.Done(fmt.Sprintf("Product #%d updated", id), map[string]any{"id": id})
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newProductDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("product", args[0])
			if err != nil {
				return err
			}
			return rootOpts.run(cmd, true, func(s *session) error {
				if err := s.Client.DeleteProduct(s.ctx, id); err != nil {
					return classify("delete product", err)
				}
				return s.out.Done(fmt.Sprintf("Product #%d deleted", id), map[string]any{"id": id})
			})
		},
	}
}

func newRoleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "role <principal> <admin|user|guest>",
		Short: "Assign a role to a principal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := domain.ParseRole(args[1])
			if err != nil {
				return classify("assign role", err)
			}
			return rootOpts.run(cmd, true, func(s *session) error {
				if err := s.Client.AssignRole(s.ctx, domain.Principal(args[0]), role); err != nil {
					return classify("assign role", err)
				}
				return s.out.Done(fmt.Sprintf("%s is now %s", args[0], role), map[string]any{"principal": args[0], "role": role})
			})
		},
	}
}

package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"storefront/internal/views"

	"github.com/spf13/cobra"
)

// sectionErr turns a section that did not load into a command error.
func sectionErr[T any](name string, s views.Section[T]) error {
	switch s.Status {
	case views.StatusReady:
		return nil
	case views.StatusNotFound:
		return NewExitError(ExitNotFound, name+" not found")
	case views.StatusAccessDenied, views.StatusLoginRequired:
		return NewExitError(ExitAuthError, fmt.Sprintf("%s: %s", name, s.Status))
	case views.StatusLoading:
		return NewExitError(ExitFailure, name+" is still loading, try a longer --timeout")
	}
	return NewExitError(ExitFailure, fmt.Sprintf("load %s: %s", name, s.Error))
}

func parseID(kind, raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid %s id %q", kind, raw))
	}
	return id, nil
}

func writeProducts(w io.Writer, cards []views.ProductCard) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tRATING\tCATEGORY")
	for _, p := range cards {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Price, p.RatingLabel, p.CategoryName)
	}
	return tw.Flush()
}

type ProductsOptions struct {
	*RootOptions
	Search   string
	Category uint64
}

// NewProductsCommand lists the catalog or search results.
func NewProductsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProductsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products, optionally searching or filtering by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, false, func(s *session) error {
				home := s.renderer.Home(s.ctx, s.Client, views.HomeQuery{Search: opts.Search, Category: opts.Category})
				if err := sectionErr("products", home.Products); err != nil {
					return err
				}
				return s.out.Print(home, func(w io.Writer) error {
					if home.ResultCount != nil {
						fmt.Fprintf(w, "%d result(s) for %q\n", *home.ResultCount, home.Search)
					}
					return writeProducts(w, home.Products.Data)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "search text")
	cmd.Flags().Uint64Var(&opts.Category, "category", 0, "only products in this category id")

	return cmd
}

// NewProductCommand shows one product with its reviews.
func NewProductCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show a product and its reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("product", args[0])
			if err != nil {
				return err
			}
			return rootOpts.run(cmd, false, func(s *session) error {
				page := s.renderer.ProductDetail(s.ctx, s.Client, id)
				if err := sectionErr("product", page.Product); err != nil {
					return err
				}
				return s.out.Print(page, func(w io.Writer) error {
					p := page.Product.Data
					fmt.Fprintf(w, "%s  (#%d)\n%s\n", p.Name, p.ID, p.Description)
					fmt.Fprintf(w, "Price: %s  Rating: %s  Category: %s\n", p.Price, p.RatingLabel, p.CategoryName)
					if !page.Reviews.Ready() {
						fmt.Fprintf(w, "Reviews: %s\n", page.Reviews.Status)
						return nil
					}
					fmt.Fprintf(w, "Reviews (%d):\n", len(page.Reviews.Data))
					for _, r := range page.Reviews.Data {
						fmt.Fprintf(w, "  %d/5 %s: %s\n", r.Rating, r.Reviewer, r.Comment)
					}
					return nil
				})
			})
		},
	}
}

// NewCategoriesCommand lists categories.
func NewCategoriesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List product categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, false, func(s *session) error {
				cats, err := s.Client.Categories(s.ctx)
				if err != nil {
					return classify("list categories", err)
				}
				return s.out.Print(cats, func(w io.Writer) error {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tNAME")
					for _, c := range cats {
						fmt.Fprintf(tw, "%d\t%s\n", c.ID, c.Name)
					}
					return tw.Flush()
				})
			})
		},
	}
}

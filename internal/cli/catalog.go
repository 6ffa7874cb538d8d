package cli

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"brasa/backend/internal/domain"
)

// catalogFile is the TOML layout accepted by `catalog import`:
//
//	[[products]]
//	id = "espeto-carne"
//	name = "Espetinho de carne"
//	price_cents = 1000
//	default_initial_qty = 40
type catalogFile struct {
	Products []catalogEntry `toml:"products"`
}

type catalogEntry struct {
	ID                string `toml:"id"`
	Name              string `toml:"name"`
	PriceCents        int64  `toml:"price_cents"`
	Note              string `toml:"note"`
	DefaultInitialQty *int   `toml:"default_initial_qty"`
}

// LoadCatalogFile reads products from a TOML file. Unknown keys are an error
// so typos do not silently drop data.
func LoadCatalogFile(path string) ([]domain.Product, error) {
	var file catalogFile
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("read catalog %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	products := make([]domain.Product, 0, len(file.Products))
	for _, entry := range file.Products {
		products = append(products, domain.Product{
			ID:                strings.TrimSpace(entry.ID),
			Name:              entry.Name,
			PriceCents:        entry.PriceCents,
			Note:              entry.Note,
			DefaultInitialQty: entry.DefaultInitialQty,
		})
	}
	return products, nil
}

func newCatalogCommand(a *app) *cobra.Command {
	catalog := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the product catalog",
	}

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the catalog with the products of a TOML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				return fmt.Errorf("catalog file required: brasa catalog import -f <file>")
			}
			products, err := LoadCatalogFile(path)
			if err != nil {
				return err
			}

			rt, err := a.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			imported, err := rt.service.ImportCatalog(cmd.Context(), products)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d product(s)\n", len(imported))
			return nil
		},
	}
	importCmd.Flags().StringP("file", "f", "", "Path to the catalog TOML file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := a.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			products, err := rt.service.ListProducts(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tPRICE\tDEFAULT QTY")
			for _, p := range products {
				qty := "-"
				if p.DefaultInitialQty != nil {
					qty = fmt.Sprint(*p.DefaultInitialQty)
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.ID, p.Name, p.PriceCents, qty)
			}
			return w.Flush()
		},
	}

	catalog.AddCommand(importCmd, listCmd)
	return catalog
}

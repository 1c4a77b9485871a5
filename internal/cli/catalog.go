package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zatekoja/productar/internal/application/services"
	"github.com/zatekoja/productar/internal/domain/entities"
)

func newCatalogCmd() *cobra.Command {
	var output string
	var reload bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Load the product catalog and report its source and warnings",
		Example: `  # Load from the static document
  productar catalog

  # Prefer the database and print the normalized catalog as YAML
  FEATURE_PRIMARY_BACKEND=true DB_ENABLED=true productar catalog -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			catalog, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			if reload {
				if catalog, err = a.provider.Reload(cmd.Context()); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			switch output {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(catalog)
			case "yaml":
				return writeYAML(out, catalog)
			default:
				return printCatalog(out, catalog, a.provider.LastWarnings())
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml")
	cmd.Flags().BoolVar(&reload, "reload", false, "Invalidate cached catalogs and load again")

	return cmd
}

func printCatalog(out io.Writer, catalog *entities.Catalog, warnings []services.ConfigValidationWarning) error {
	fmt.Fprintf(out, "source: %s\n", catalog.Source)
	fmt.Fprintf(out, "products: %d\n\n", len(catalog.Products))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tID\tNAME\tLABEL\tMODEL")
	for _, group := range catalog.Groups() {
		for _, p := range group.Products {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", group.TargetIndex, p.ID, p.Name, p.ClassifierLabel(), p.Model.Path)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(warnings) > 0 {
		fmt.Fprintf(out, "\nwarnings:\n")
		for _, w := range warnings {
			fmt.Fprintf(out, "  - %s\n", w.Message)
		}
	}
	return nil
}

func writeYAML(out io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

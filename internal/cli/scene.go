package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zatekoja/productar/internal/application/services"
)

// assetList records the assets a renderer would preload
type assetList struct {
	paths []string
}

func (l *assetList) Preload(paths []string) {
	l.paths = append(l.paths, paths...)
}

func newSceneCmd() *cobra.Command {
	var showAssets bool

	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Assemble the entity descriptors handed to the renderer",
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

			assets := &assetList{}
			descriptors := services.NewSceneAssembler(assets).Assemble(catalog)

			out := cmd.OutOrStdout()
			if showAssets {
				printAssets(out, assets.paths)
			}
			return writeYAML(out, map[string]interface{}{"entities": descriptors})
		},
	}

	cmd.Flags().BoolVar(&showAssets, "assets", false, "Also print the preload asset list")

	return cmd
}

func printAssets(out io.Writer, paths []string) {
	fmt.Fprintln(out, "# preload")
	for _, p := range paths {
		fmt.Fprintf(out, "#   %s\n", p)
	}
}

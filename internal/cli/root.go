package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zatekoja/productar/pkg/secrets"
)

func NewRootCmd() *cobra.Command {
	var envFile, vaultPath string

	cmd := &cobra.Command{
		Use:   "productar",
		Short: "Product box recognition pipeline",
		Long: `productar loads the product catalog, assembles the AR scene and drives
recognition of product boxes that share one printed target.

Configuration is read from the environment. A .env file is loaded first when present,
then secrets from Vault when VAULT_ENABLED=true.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				_ = godotenv.Load(envFile)
			} else {
				_ = godotenv.Load()
			}
			_, err := secrets.Apply(cmd.Context(), secrets.LoadVaultConfigFromEnv(vaultPath))
			return err
		},
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (default .env)")
	cmd.PersistentFlags().StringVar(&vaultPath, "vault-path", "", "Vault secret path (default VAULT_PATH)")

	cmd.AddCommand(newCatalogCmd())
	cmd.AddCommand(newSceneCmd())
	cmd.AddCommand(newClassifyCmd())
	cmd.AddCommand(newSimulateCmd())
	cmd.AddCommand(newEvaluateCmd())

	return cmd
}

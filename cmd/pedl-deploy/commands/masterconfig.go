package commands

import (
	"github.com/spf13/cobra"

	"github.com/determined-ai/pedl-deploy/cmd/pedl-deploy/handlers"
	"github.com/determined-ai/pedl-deploy/internal/config"
)

// MasterConfig returns the master-config command.
func MasterConfig(configPath *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "master-config",
		Short: "Render the master's provisioner configuration",
		Long: `Master-config renders the master.yaml the master reads from
` + config.MasterConfigPath + `, built from the deployed stack's outputs and the
agent AMI, instance type and key pair settings.

Example:
  pedl-deploy master-config --out master.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath, cmd.Flags())
			if err != nil {
				return err
			}
			return handlers.MasterConfig(cmd.Context(), cfg, out)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")

	return cmd
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/determined-ai/pedl-deploy/cmd/pedl-deploy/handlers"
	"github.com/determined-ai/pedl-deploy/internal/config"
)

// Outputs returns the outputs command.
func Outputs(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "outputs",
		Short: "Show the outputs of the deployed stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath, cmd.Flags())
			if err != nil {
				return err
			}
			return handlers.Outputs(cmd.Context(), cfg)
		},
	}
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/determined-ai/pedl-deploy/cmd/pedl-deploy/handlers"
	"github.com/determined-ai/pedl-deploy/internal/config"
)

// Images returns the images command.
func Images(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "images",
		Short: "Show the latest release master and agent AMIs",
		Long: `Images looks up the newest master and agent AMIs tagged as releases in the
current account and region. These are the AMIs a deploy uses when
--master-ami and --agent-ami are not given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath, cmd.Flags())
			if err != nil {
				return err
			}
			return handlers.Images(cmd.Context(), cfg)
		},
	}
}

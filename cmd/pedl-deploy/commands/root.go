// Package commands defines the CLI command structure and flag bindings.
//
// Commands parse flags and load the configuration; execution is delegated to
// the handlers package.
package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/determined-ai/pedl-deploy/cmd/pedl-deploy/handlers"
	"github.com/determined-ai/pedl-deploy/internal/config"
)

// Root returns the root command. Without a subcommand it deploys the stack,
// or deletes it with --delete.
func Root() *cobra.Command {
	var (
		configPath string
		del        bool
	)

	cmd := &cobra.Command{
		Use:   "pedl-deploy",
		Short: "Deploy PEDL to AWS with CloudFormation",
		Long: `Deploy creates or updates the PEDL CloudFormation stack for the calling
AWS user and prints how to reach the master.

Deployment types:
  simple  master and agents in the default VPC with public addresses
  secure  like simple, but the master is only reachable through a bastion host
  vpc     a dedicated VPC; master and agents in a private subnet behind a bastion

Examples:
  pedl-deploy --keypair my-key
  pedl-deploy --deployment-type vpc --identity-file ~/.ssh/my-key.pem
  pedl-deploy --delete --yes`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			if del {
				return handlers.Delete(cmd.Context(), cfg)
			}
			return handlers.Deploy(cmd.Context(), cfg)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (or $"+config.ConfigFileEnv+")")
	addConfigFlags(cmd.PersistentFlags())
	cmd.Flags().BoolVar(&del, "delete", false, "Delete the stack, its checkpoint bucket contents and the VPC stack")

	cmd.AddCommand(Images(&configPath))
	cmd.AddCommand(Outputs(&configPath))
	cmd.AddCommand(MasterConfig(&configPath))
	cmd.AddCommand(Version())

	return cmd
}

// addConfigFlags registers the flags config.Load binds to configuration keys.
func addConfigFlags(fs *pflag.FlagSet) {
	fs.String("deployment-type", config.DefaultDeploymentType,
		"Deployment type: "+strings.Join(config.ValidDeploymentTypes, ", "))
	fs.String("stack-name", "", "Stack name (default pedl-<user>)")
	fs.String("keypair", config.DefaultKeypair, "EC2 key pair for the master, agents and bastion")
	fs.String("master-ami", "", "Master AMI (default: latest release)")
	fs.String("agent-ami", "", "Agent AMI (default: latest release)")
	fs.String("bastion-ami", config.DefaultBastionAMI, "Bastion AMI")
	fs.String("master-instance-type", config.DefaultMasterInstanceType, "Master instance type")
	fs.String("agent-instance-type", config.DefaultAgentInstanceType, "Agent instance type")
	fs.String("identity-file", "", "Private key matching the key pair, used in the printed SSH commands")

	fs.String("profile", "", "AWS shared config profile")
	fs.String("region", "", "AWS region")
	fs.String("endpoint-url", "", "Override the AWS endpoint URL")

	fs.Duration("wait-delay", config.DefaultWaitDelay, "Delay between stack status polls")
	fs.Duration("wait-timeout", config.DefaultWaitTimeout, "Maximum time to wait for a stack operation")

	fs.String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	fs.String("log-format", config.DefaultLogFormat, "Log format: console, json")
	fs.String("log-file", "", "Write logs to this file")
	fs.String("metrics-file", "", "Write Prometheus textfile metrics to this file")

	fs.Bool("plain", false, "Disable the progress view and styled output")
	fs.BoolP("yes", "y", false, "Do not ask for confirmation")
}

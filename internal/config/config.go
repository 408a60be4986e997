package config

import (
	"fmt"
	"time"
)

// Config holds all pedl-deploy settings.
type Config struct {
	// DeploymentType selects the topology: simple, secure or vpc.
	DeploymentType string `mapstructure:"deployment_type"`

	// StackName overrides the default pedl-<user> stack name.
	StackName string `mapstructure:"stack_name"`

	Keypair            string `mapstructure:"keypair"`
	MasterAMI          string `mapstructure:"master_ami"`
	AgentAMI           string `mapstructure:"agent_ami"`
	BastionAMI         string `mapstructure:"bastion_ami"`
	MasterInstanceType string `mapstructure:"master_instance_type"`
	AgentInstanceType  string `mapstructure:"agent_instance_type"`

	// IdentityFile is the local private key matching Keypair. When set it is
	// checked before deploying and substituted into the printed SSH commands.
	IdentityFile string `mapstructure:"identity_file"`

	AWS  AWSConfig  `mapstructure:"aws"`
	Wait WaitConfig `mapstructure:"wait"`
	Log  LogConfig  `mapstructure:"log"`

	// MetricsFile receives Prometheus textfile-format metrics after a run.
	MetricsFile string `mapstructure:"metrics_file"`

	// Plain disables the progress view and styled output.
	Plain bool `mapstructure:"plain"`

	// AssumeYes skips interactive confirmations.
	AssumeYes bool `mapstructure:"yes"`
}

// AWSConfig selects credentials, region and endpoint.
type AWSConfig struct {
	Profile         string `mapstructure:"profile"`
	Region          string `mapstructure:"region"`
	EndpointURL     string `mapstructure:"endpoint_url"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// WaitConfig controls stack status polling.
type WaitConfig struct {
	Delay   time.Duration `mapstructure:"delay"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// StackNameFor returns the main stack name for user, honoring StackName.
func (c *Config) StackNameFor(user string) string {
	if c.StackName != "" {
		return c.StackName
	}
	return fmt.Sprintf(StackNameFormat, user)
}

// NetworkStackNameFor returns the VPC network stack name for user.
// With a custom StackName the network stack is named <stack>-vpc.
func (c *Config) NetworkStackNameFor(user string) string {
	if c.StackName != "" {
		return c.StackName + "-vpc"
	}
	return fmt.Sprintf(NetworkStackNameFormat, user)
}

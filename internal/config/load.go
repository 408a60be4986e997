package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PEDL_DEPLOY_KEYPAIR or
// PEDL_DEPLOY_AWS_REGION.
const EnvPrefix = "PEDL_DEPLOY"

// ConfigFileEnv names the config file when --config is not given.
const ConfigFileEnv = EnvPrefix + "_CONFIG"

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"deployment-type":      "deployment_type",
	"stack-name":           "stack_name",
	"keypair":              "keypair",
	"master-ami":           "master_ami",
	"agent-ami":            "agent_ami",
	"bastion-ami":          "bastion_ami",
	"master-instance-type": "master_instance_type",
	"agent-instance-type":  "agent_instance_type",
	"identity-file":        "identity_file",
	"profile":              "aws.profile",
	"region":               "aws.region",
	"endpoint-url":         "aws.endpoint_url",
	"wait-delay":           "wait.delay",
	"wait-timeout":         "wait.timeout",
	"log-level":            "log.level",
	"log-format":           "log.format",
	"log-file":             "log.file",
	"metrics-file":         "metrics_file",
	"plain":                "plain",
	"yes":                  "yes",
}

// Load assembles the configuration from defaults, the config file at path
// (or $PEDL_DEPLOY_CONFIG), the environment and the flags in fs that were
// set explicitly. fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment_type", DefaultDeploymentType)
	v.SetDefault("stack_name", "")
	v.SetDefault("keypair", DefaultKeypair)
	v.SetDefault("master_ami", "")
	v.SetDefault("agent_ami", "")
	v.SetDefault("bastion_ami", DefaultBastionAMI)
	v.SetDefault("master_instance_type", DefaultMasterInstanceType)
	v.SetDefault("agent_instance_type", DefaultAgentInstanceType)
	v.SetDefault("identity_file", "")

	v.SetDefault("aws.profile", "")
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.endpoint_url", "")
	v.SetDefault("aws.access_key_id", "")
	v.SetDefault("aws.secret_access_key", "")

	v.SetDefault("wait.delay", DefaultWaitDelay.String())
	v.SetDefault("wait.timeout", DefaultWaitTimeout.String())

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("log.file", "")

	v.SetDefault("metrics_file", "")
	v.SetDefault("plain", false)
	v.SetDefault("yes", false)
}

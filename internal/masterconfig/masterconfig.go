// Package masterconfig renders the provisioner section of the master's
// configuration file, which tells the master how to launch agent instances.
package masterconfig

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/determined-ai/pedl-deploy/internal/config"
)

// Path is where the master reads its configuration.
const Path = config.MasterConfigPath

// Provisioner defaults.
const (
	DefaultMasterURL          = "http://local-ipv4:8080"
	DefaultAgentDockerNetwork = "pedl"
	DefaultMaxIdleAgentPeriod = "1m"
	DefaultProvider           = "aws"
	DefaultRootVolumeSize     = 200
	DefaultMaxInstances       = 5
	DefaultTagKey             = "pedl"
	DefaultTagValue           = "pedl-agent"
	DefaultInstanceName       = "pedl-agent"
)

// Config is the master configuration file.
type Config struct {
	Provisioner Provisioner `yaml:"provisioner"`
}

// Provisioner controls how the master scales agents.
type Provisioner struct {
	MasterURL             string           `yaml:"master_url"`
	AgentDockerNetwork    string           `yaml:"agent_docker_network"`
	MaxIdleAgentPeriod    string           `yaml:"max_idle_agent_period"`
	Provider              string           `yaml:"provider"`
	RootVolumeSize        int              `yaml:"root_volume_size"`
	MaxInstances          int              `yaml:"max_instances"`
	TagKey                string           `yaml:"tag_key"`
	TagValue              string           `yaml:"tag_value"`
	InstanceName          string           `yaml:"instance_name"`
	ImageID               string           `yaml:"image_id,omitempty"`
	SSHKeyName            string           `yaml:"ssh_key_name,omitempty"`
	InstanceType          string           `yaml:"instance_type,omitempty"`
	SecurityGroupID       string           `yaml:"security_group_id,omitempty"`
	IAMInstanceProfileARN string           `yaml:"iam_instance_profile_arn,omitempty"`
	SubnetID              string           `yaml:"subnet_id,omitempty"`
	NetworkInterface      NetworkInterface `yaml:"network_interface"`
}

// NetworkInterface configures agent networking.
type NetworkInterface struct {
	PublicIP bool `yaml:"public_ip"`
}

// Agent describes the instances the master launches.
type Agent struct {
	AMI          string
	InstanceType string
	Keypair      string
}

// Default returns the config with every default set and no stack-specific
// values.
func Default() *Config {
	return &Config{Provisioner: Provisioner{
		MasterURL:          DefaultMasterURL,
		AgentDockerNetwork: DefaultAgentDockerNetwork,
		MaxIdleAgentPeriod: DefaultMaxIdleAgentPeriod,
		Provider:           DefaultProvider,
		RootVolumeSize:     DefaultRootVolumeSize,
		MaxInstances:       DefaultMaxInstances,
		TagKey:             DefaultTagKey,
		TagValue:           DefaultTagValue,
		InstanceName:       DefaultInstanceName,
	}}
}

// Build fills the defaults with the agent settings and the stack outputs.
// Agents launched into a private subnet get no public IP; otherwise they
// need one to reach the internet.
func Build(agent Agent, outputs map[string]string) (*Config, error) {
	var missing []string
	for _, key := range []string{config.OutputAgentSecurityGroupID, config.OutputAgentInstanceProfile} {
		if outputs[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("stack outputs missing %s", strings.Join(missing, ", "))
	}

	cfg := Default()
	p := &cfg.Provisioner
	p.ImageID = agent.AMI
	p.InstanceType = agent.InstanceType
	p.SSHKeyName = agent.Keypair
	p.SecurityGroupID = outputs[config.OutputAgentSecurityGroupID]
	p.IAMInstanceProfileARN = outputs[config.OutputAgentInstanceProfile]
	p.SubnetID = outputs[config.OutputPrivateSubnet]
	p.NetworkInterface.PublicIP = p.SubnetID == ""
	return cfg, nil
}

// Marshal renders the config as YAML with two-space indentation.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode master config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode master config: %w", err)
	}
	return buf.Bytes(), nil
}

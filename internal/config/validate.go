package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidDeploymentTypes lists the supported topologies in display order.
var ValidDeploymentTypes = []string{"simple", "secure", "vpc"}

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"console", "json"}
)

// Validate checks the configuration for common errors and returns the first
// problem found.
func (c *Config) Validate() error {
	// Matching is case-insensitive, the same as deployment.ParseType.
	typ := strings.ToLower(strings.TrimSpace(c.DeploymentType))
	if !slices.Contains(ValidDeploymentTypes, typ) {
		return fmt.Errorf("deployment type must be one of [%s], got %q",
			strings.Join(ValidDeploymentTypes, ", "), c.DeploymentType)
	}

	if c.Keypair == "" {
		return fmt.Errorf("keypair is required")
	}
	if c.MasterInstanceType == "" {
		return fmt.Errorf("master_instance_type is required")
	}
	if c.AgentInstanceType == "" {
		return fmt.Errorf("agent_instance_type is required")
	}
	if typ != "simple" && c.BastionAMI == "" {
		return fmt.Errorf("bastion_ami is required for %s deployments", typ)
	}

	if err := c.validateAWS(); err != nil {
		return fmt.Errorf("aws validation failed: %w", err)
	}

	if err := c.validateWait(); err != nil {
		return fmt.Errorf("wait validation failed: %w", err)
	}

	if !slices.Contains(validLogLevels, c.Log.Level) {
		return fmt.Errorf("invalid log level %q: must be one of %v", c.Log.Level, validLogLevels)
	}
	if !slices.Contains(validLogFormats, c.Log.Format) {
		return fmt.Errorf("invalid log format %q: must be one of %v", c.Log.Format, validLogFormats)
	}

	return nil
}

func (c *Config) validateAWS() error {
	// Static credentials come in pairs.
	if (c.AWS.AccessKeyID == "") != (c.AWS.SecretAccessKey == "") {
		return fmt.Errorf("access_key_id and secret_access_key must be set together")
	}
	if c.AWS.EndpointURL != "" &&
		!strings.HasPrefix(c.AWS.EndpointURL, "http://") &&
		!strings.HasPrefix(c.AWS.EndpointURL, "https://") {
		return fmt.Errorf("endpoint_url %q must start with http:// or https://", c.AWS.EndpointURL)
	}
	return nil
}

func (c *Config) validateWait() error {
	if c.Wait.Delay <= 0 {
		return fmt.Errorf("delay must be positive, got %s", c.Wait.Delay)
	}
	if c.Wait.Timeout < c.Wait.Delay {
		return fmt.Errorf("timeout %s must not be shorter than delay %s", c.Wait.Timeout, c.Wait.Delay)
	}
	return nil
}

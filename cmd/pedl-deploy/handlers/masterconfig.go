package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/determined-ai/pedl-deploy/internal/config"
	"github.com/determined-ai/pedl-deploy/internal/masterconfig"
)

// MasterConfig renders the master's provisioner config from the stack
// outputs and writes it to outPath, or stdout when outPath is empty.
func MasterConfig(ctx context.Context, cfg *config.Config, outPath string) error {
	e, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer e.close()

	outputs, err := e.stacks.Outputs(ctx, e.stackName())
	if err != nil {
		return err
	}

	agentAMI := cfg.AgentAMI
	if agentAMI == "" {
		images, err := e.instances.LatestReleaseImages(ctx)
		if err != nil {
			return err
		}
		agentAMI = images.AgentAMI
	}

	mc, err := masterconfig.Build(masterconfig.Agent{
		AMI:          agentAMI,
		InstanceType: cfg.AgentInstanceType,
		Keypair:      cfg.Keypair,
	}, outputs)
	if err != nil {
		return fmt.Errorf("stack %s: %w", e.stackName(), err)
	}

	data, err := mc.Marshal()
	if err != nil {
		return err
	}

	if outPath == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write master config: %w", err)
	}
	e.log.Info("Master config written", "path", outPath, "masterPath", masterconfig.Path)
	return nil
}

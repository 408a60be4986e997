package handlers

import (
	"context"
	"fmt"

	"github.com/determined-ai/pedl-deploy/internal/config"
)

// Images prints the latest release master and agent AMIs.
func Images(ctx context.Context, cfg *config.Config) error {
	e, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer e.close()

	images, err := e.instances.LatestReleaseImages(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Version:    %s\n", images.Version)
	fmt.Fprintf(stdout, "Master AMI: %s\n", images.MasterAMI)
	fmt.Fprintf(stdout, "Agent AMI:  %s\n", images.AgentAMI)
	return nil
}

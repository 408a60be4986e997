package handlers

import (
	"context"
	"fmt"

	"github.com/determined-ai/pedl-deploy/internal/config"
	"github.com/determined-ai/pedl-deploy/internal/ui/tui"
)

// Outputs prints the outputs of the caller's stack.
func Outputs(ctx context.Context, cfg *config.Config) error {
	e, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer e.close()

	outputs, err := e.stacks.Outputs(ctx, e.stackName())
	if err != nil {
		return err
	}

	fmt.Fprint(stdout, tui.RenderOutputs(outputs, e.styled))
	return nil
}

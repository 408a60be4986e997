package handlers

import (
	"context"
	"fmt"

	"github.com/determined-ai/pedl-deploy/internal/config"
	"github.com/determined-ai/pedl-deploy/internal/deployment"
	"github.com/determined-ai/pedl-deploy/internal/ui/tui"
)

// Delete empties the checkpoint bucket and deletes the main stack, then the
// network stack.
func Delete(ctx context.Context, cfg *config.Config) error {
	e, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer e.close()
	defer e.writeMetrics()

	stack, network := e.stackName(), e.networkStackName()

	if !cfg.AssumeYes && isTerminal() {
		ok, err := confirmDelete(ctx, []string{stack, network})
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(stdout, "Delete cancelled")
			return nil
		}
	}

	e.log.Info("Deleting", "stack", stack, "networkStack", network)

	err = e.withProgress(ctx, tui.NewDeleteModel(stack),
		func(ctx context.Context, report deployment.Reporter) error {
			d := deployment.NewDeployer(e.stacks, e.instances, e.buckets, e.log,
				deployment.WithReporter(report),
				deployment.WithObserver(e.metrics))
			return d.Delete(ctx, stack, network)
		})
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	fmt.Fprintln(stdout, tui.RenderSuccess("Delete Successful", e.styled))
	return nil
}

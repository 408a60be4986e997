package handlers

import (
	"context"
	"fmt"

	"github.com/determined-ai/pedl-deploy/internal/config"
	"github.com/determined-ai/pedl-deploy/internal/deployment"
	"github.com/determined-ai/pedl-deploy/internal/ui/tui"
)

// Deploy creates or updates the stacks for the configured deployment type and
// prints how to connect to the master.
func Deploy(ctx context.Context, cfg *config.Config) error {
	typ, err := deployment.ParseType(cfg.DeploymentType)
	if err != nil {
		return err
	}
	dep, err := deployment.New(typ)
	if err != nil {
		return err
	}

	e, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer e.close()
	defer e.writeMetrics()

	params, err := e.deployParams(ctx)
	if err != nil {
		return err
	}

	if err := e.instances.CheckKeyPair(ctx, params.Keypair); err != nil {
		return err
	}

	if err := e.checkIdentityFile(); err != nil {
		return err
	}

	e.log.Info("Deploying", "stack", params.StackName, "type", typ,
		"masterAMI", params.MasterAMI, "agentAMI", params.AgentAMI)

	var res *deployment.Result
	err = e.withProgress(ctx, tui.NewDeployModel(params.StackName, string(typ)),
		func(ctx context.Context, report deployment.Reporter) error {
			d := deployment.NewDeployer(e.stacks, e.instances, e.buckets, e.log,
				deployment.WithReporter(report),
				deployment.WithObserver(e.metrics))
			var err error
			res, err = d.Deploy(ctx, dep, params)
			return err
		})
	if err != nil {
		return fmt.Errorf("deployment failed: %w", err)
	}

	fmt.Fprintln(stdout, tui.RenderInstructions(res.Instructions, e.styled))
	fmt.Fprintln(stdout, tui.RenderSuccess("PEDL Deployment Successful", e.styled))
	return nil
}

// deployParams resolves the stack names and fills unset AMIs with the latest
// release images.
func (e *env) deployParams(ctx context.Context) (deployment.Params, error) {
	p := deployment.Params{
		User:               e.user,
		StackName:          e.stackName(),
		NetworkStackName:   e.networkStackName(),
		EnvironmentName:    config.DefaultEnvironmentName,
		Keypair:            e.cfg.Keypair,
		MasterAMI:          e.cfg.MasterAMI,
		AgentAMI:           e.cfg.AgentAMI,
		BastionAMI:         e.cfg.BastionAMI,
		MasterInstanceType: e.cfg.MasterInstanceType,
		AgentInstanceType:  e.cfg.AgentInstanceType,
		IdentityFile:       e.cfg.IdentityFile,
	}

	if p.MasterAMI != "" && p.AgentAMI != "" {
		return p, nil
	}

	images, err := e.instances.LatestReleaseImages(ctx)
	if err != nil {
		return p, err
	}
	e.log.Info("Using release images", "version", images.Version)
	if p.MasterAMI == "" {
		p.MasterAMI = images.MasterAMI
	}
	if p.AgentAMI == "" {
		p.AgentAMI = images.AgentAMI
	}
	return p, nil
}

// checkIdentityFile makes sure the identity file holds a usable private key.
func (e *env) checkIdentityFile() error {
	if e.cfg.IdentityFile == "" {
		return nil
	}
	id, err := inspectIdentity(e.cfg.IdentityFile)
	if err != nil {
		return fmt.Errorf("identity file %s: %w", e.cfg.IdentityFile, err)
	}
	if id.TooOpen {
		e.log.Info("Identity file is readable by other users; ssh will refuse it",
			"path", id.Path, "hint", "chmod 400 "+id.Path)
	}
	e.log.V(1).Info("Identity file", "path", id.Path, "type", id.Type, "fingerprint", id.Fingerprint)
	return nil
}

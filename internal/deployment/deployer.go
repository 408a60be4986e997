package deployment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/determined-ai/pedl-deploy/internal/config"
	"github.com/determined-ai/pedl-deploy/internal/metrics"
	"github.com/determined-ai/pedl-deploy/internal/platform/cloudformation"
	"github.com/determined-ai/pedl-deploy/internal/templates"
)

// Phase names a step of a deploy or delete run.
type Phase string

// Phases. Delete uses PhaseBucket, PhaseStack and PhaseNetwork.
const (
	PhaseTemplate  Phase = "template"
	PhaseNetwork   Phase = "network"
	PhaseStack     Phase = "stack"
	PhaseOutputs   Phase = "outputs"
	PhaseEndpoints Phase = "endpoints"
	PhaseBucket    Phase = "bucket"
)

// DeployPhases lists the deploy phases in order.
func DeployPhases() []Phase {
	return []Phase{PhaseTemplate, PhaseNetwork, PhaseStack, PhaseOutputs, PhaseEndpoints}
}

// DeletePhases lists the delete phases in order.
func DeletePhases() []Phase {
	return []Phase{PhaseBucket, PhaseStack, PhaseNetwork}
}

// Progress is one phase transition.
type Progress struct {
	Phase Phase
	Done  bool
	// Skipped marks a phase that did not apply to this run.
	Skipped bool
	Err     error
}

// Reporter receives progress. It is called synchronously.
type Reporter func(Progress)

// Stacks is the stack lifecycle the deployer drives.
type Stacks interface {
	Deploy(ctx context.Context, in cloudformation.StackInput) (cloudformation.Action, error)
	StackExists(ctx context.Context, name string) (bool, error)
	Outputs(ctx context.Context, name string) (map[string]string, error)
	DeleteStack(ctx context.Context, name string) error
}

// Buckets empties the checkpoint bucket before deletion.
type Buckets interface {
	EmptyBucket(ctx context.Context, bucket string) (int, error)
}

// Observer records operation outcomes.
type Observer interface {
	Observe(operation string, start time.Time, err error)
}

// Result is the outcome of a deploy.
type Result struct {
	Action        cloudformation.Action
	NetworkAction cloudformation.Action
	Outputs       map[string]string
	Instructions  *Instructions
}

// Deployer runs deployments and deletions.
type Deployer struct {
	stacks    Stacks
	instances InstanceLookup
	buckets   Buckets
	log       logr.Logger
	observer  Observer
	report    Reporter
	now       func() time.Time
}

// Option configures a Deployer.
type Option func(*Deployer)

// WithReporter sets the progress reporter.
func WithReporter(r Reporter) Option {
	return func(d *Deployer) { d.report = r }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(d *Deployer) { d.observer = o }
}

// NewDeployer creates a Deployer.
func NewDeployer(stacks Stacks, instances InstanceLookup, buckets Buckets, log logr.Logger, opts ...Option) *Deployer {
	d := &Deployer{
		stacks:    stacks,
		instances: instances,
		buckets:   buckets,
		log:       log,
		observer:  nopObserver{},
		report:    func(Progress) {},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deploy creates or updates the stacks of dep and returns its connection
// instructions.
func (d *Deployer) Deploy(ctx context.Context, dep Deployment, params Params) (res *Result, err error) {
	start := d.now()
	defer func() { d.observer.Observe(metrics.OpDeploy, start, err) }()

	log := d.log.WithValues("stack", params.StackName, "type", dep.Type())
	res = &Result{}

	// Template
	d.begin(PhaseTemplate)
	tmpl, err := templates.Load(dep.Template())
	if err != nil {
		return nil, d.fail(PhaseTemplate, err)
	}
	var networkTmpl *templates.Template
	if dep.NeedsNetwork() {
		networkTmpl, err = templates.Load(config.TemplateNetwork)
		if err != nil {
			return nil, d.fail(PhaseTemplate, err)
		}
	}
	d.done(PhaseTemplate)

	// Network
	if dep.NeedsNetwork() {
		d.begin(PhaseNetwork)
		network, action, err := d.deployNetwork(ctx, networkTmpl, params)
		if err != nil {
			return nil, d.fail(PhaseNetwork, err)
		}
		params.Network = network
		res.NetworkAction = action
		log.Info("Network ready", "vpc", network.VPC, "action", action)
		d.done(PhaseNetwork)
	} else {
		d.skip(PhaseNetwork)
	}

	// Stack
	d.begin(PhaseStack)
	values, err := dep.Parameters(params)
	if err == nil {
		err = tmpl.CheckParameters(values)
	}
	if err != nil {
		return nil, d.fail(PhaseStack, err)
	}
	stackStart := d.now()
	res.Action, err = d.stacks.Deploy(ctx, cloudformation.StackInput{
		Name:         params.StackName,
		TemplateBody: tmpl.Body,
		Parameters:   values,
		Tags:         stackTags(params, dep.Type()),
	})
	d.observer.Observe(metrics.OpStack, stackStart, err)
	if err != nil {
		return nil, d.fail(PhaseStack, err)
	}
	log.Info("Stack ready", "action", res.Action)
	d.done(PhaseStack)

	// Outputs
	d.begin(PhaseOutputs)
	res.Outputs, err = d.stacks.Outputs(ctx, params.StackName)
	if err != nil {
		return nil, d.fail(PhaseOutputs, err)
	}
	d.done(PhaseOutputs)

	// Endpoints
	d.begin(PhaseEndpoints)
	res.Instructions, err = dep.Instructions(ctx, res.Outputs, d.instances, params.IdentityFile)
	if err != nil {
		return nil, d.fail(PhaseEndpoints, err)
	}
	d.done(PhaseEndpoints)

	return res, nil
}

func (d *Deployer) deployNetwork(ctx context.Context, tmpl *templates.Template, params Params) (*Network, cloudformation.Action, error) {
	values := NetworkParameters(params)
	if err := tmpl.CheckParameters(values); err != nil {
		return nil, "", err
	}

	start := d.now()
	action, err := d.stacks.Deploy(ctx, cloudformation.StackInput{
		Name:         params.NetworkStackName,
		TemplateBody: tmpl.Body,
		Parameters:   values,
		Tags:         stackTags(params, TypeVPC),
	})
	d.observer.Observe(metrics.OpNetwork, start, err)
	if err != nil {
		return nil, "", err
	}

	outputs, err := d.stacks.Outputs(ctx, params.NetworkStackName)
	if err != nil {
		return nil, "", err
	}
	network, err := NetworkFromOutputs(outputs)
	if err != nil {
		return nil, "", fmt.Errorf("network stack %s: %w", params.NetworkStackName, err)
	}
	return network, action, nil
}

// Delete empties the checkpoint bucket, deletes the main stack and then the
// network stack when networkStackName is set. Stacks that do not exist are
// skipped.
func (d *Deployer) Delete(ctx context.Context, stackName, networkStackName string) (err error) {
	start := d.now()
	defer func() { d.observer.Observe(metrics.OpDelete, start, err) }()

	log := d.log.WithValues("stack", stackName)

	exists, err := d.stacks.StackExists(ctx, stackName)
	if err != nil {
		return d.fail(PhaseBucket, err)
	}

	if !exists {
		log.Info("Stack does not exist, skipping")
		d.skip(PhaseBucket)
		d.skip(PhaseStack)
	} else {
		d.begin(PhaseBucket)
		if err := d.emptyCheckpointBucket(ctx, stackName); err != nil {
			return d.fail(PhaseBucket, err)
		}
		d.done(PhaseBucket)

		d.begin(PhaseStack)
		stackStart := d.now()
		err := d.stacks.DeleteStack(ctx, stackName)
		d.observer.Observe(metrics.OpStack, stackStart, err)
		if err != nil {
			return d.fail(PhaseStack, err)
		}
		d.done(PhaseStack)
	}

	if networkStackName == "" {
		d.skip(PhaseNetwork)
		return nil
	}

	netExists, err := d.stacks.StackExists(ctx, networkStackName)
	if err != nil {
		return d.fail(PhaseNetwork, err)
	}
	if !netExists {
		d.log.V(1).Info("Network stack does not exist, skipping", "stack", networkStackName)
		d.skip(PhaseNetwork)
		return nil
	}

	d.begin(PhaseNetwork)
	netStart := d.now()
	err = d.stacks.DeleteStack(ctx, networkStackName)
	d.observer.Observe(metrics.OpNetwork, netStart, err)
	if err != nil {
		return d.fail(PhaseNetwork, err)
	}
	d.done(PhaseNetwork)
	return nil
}

func (d *Deployer) emptyCheckpointBucket(ctx context.Context, stackName string) error {
	outputs, err := d.stacks.Outputs(ctx, stackName)
	if err != nil {
		return err
	}
	bucket := outputs[config.OutputCheckpointBucket]
	if bucket == "" {
		d.log.Info("Stack has no checkpoint bucket", "stack", stackName)
		return nil
	}

	start := d.now()
	n, err := d.buckets.EmptyBucket(ctx, bucket)
	d.observer.Observe(metrics.OpEmptyBucket, start, err)
	if err != nil {
		return fmt.Errorf("failed to empty checkpoint bucket: %w", err)
	}
	d.log.Info("Emptied checkpoint bucket", "bucket", bucket, "objects", n)
	return nil
}

func (d *Deployer) begin(p Phase) {
	d.log.V(1).Info("Phase started", "phase", p)
	d.report(Progress{Phase: p})
}

func (d *Deployer) done(p Phase) {
	d.report(Progress{Phase: p, Done: true})
}

func (d *Deployer) skip(p Phase) {
	d.report(Progress{Phase: p, Done: true, Skipped: true})
}

func (d *Deployer) fail(p Phase, err error) error {
	d.report(Progress{Phase: p, Err: err})
	return err
}

func stackTags(p Params, t Type) map[string]string {
	return map[string]string{
		config.TagUser:           p.User,
		config.TagDeploymentType: string(t),
	}
}

type nopObserver struct{}

func (nopObserver) Observe(string, time.Time, error) {}

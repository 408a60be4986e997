// Package handlers implements the business logic behind the CLI commands.
//
// Each handler builds its AWS clients through the package-level factory
// variables below; tests replace them with fakes.
package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"

	"github.com/determined-ai/pedl-deploy/internal/config"
	"github.com/determined-ai/pedl-deploy/internal/deployment"
	"github.com/determined-ai/pedl-deploy/internal/logging"
	"github.com/determined-ai/pedl-deploy/internal/metrics"
	"github.com/determined-ai/pedl-deploy/internal/platform/cloudformation"
	"github.com/determined-ai/pedl-deploy/internal/platform/ec2"
	"github.com/determined-ai/pedl-deploy/internal/platform/s3"
	"github.com/determined-ai/pedl-deploy/internal/platform/session"
	"github.com/determined-ai/pedl-deploy/internal/platform/sts"
	"github.com/determined-ai/pedl-deploy/internal/ui/tui"
	"github.com/determined-ai/pedl-deploy/internal/util/keygen"
)

// CallerIdentity resolves the calling user.
type CallerIdentity interface {
	CallerUser(ctx context.Context) (string, error)
}

// StackClient is the CloudFormation surface the handlers use.
type StackClient interface {
	deployment.Stacks
}

// InstanceClient is the EC2 surface the handlers use.
type InstanceClient interface {
	deployment.InstanceLookup
	LatestReleaseImages(ctx context.Context) (*ec2.ReleaseImages, error)
	CheckKeyPair(ctx context.Context, name string) error
}

// Factory function variables - can be replaced in tests.
var (
	loadAWSConfig = session.Load

	newCallerIdentity = func(cfg aws.Config) CallerIdentity {
		return sts.NewFromConfig(cfg)
	}

	newStackClient = func(cfg aws.Config, log logr.Logger, opts cloudformation.Options) StackClient {
		return cloudformation.NewFromConfig(cfg, log, opts)
	}

	newInstanceClient = func(cfg aws.Config) InstanceClient {
		return ec2.NewFromConfig(cfg)
	}

	newBucketClient = func(cfg aws.Config) deployment.Buckets {
		return s3.NewFromConfig(cfg)
	}

	newLogger = logging.New

	inspectIdentity = keygen.Inspect

	isTerminal    = tui.IsTerminal
	confirmDelete = tui.ConfirmDelete
	runProgress   = tui.Run

	stdout io.Writer = os.Stdout
)

// env holds everything a handler needs for one run.
type env struct {
	cfg       *config.Config
	log       logr.Logger
	user      string
	stacks    StackClient
	instances InstanceClient
	buckets   deployment.Buckets
	metrics   *metrics.Recorder

	// styled is set when output goes to a terminal and --plain is off.
	styled bool

	closers []func()
}

// setup builds the logger and AWS clients and resolves the caller.
func setup(ctx context.Context, cfg *config.Config) (*env, error) {
	e := &env{
		cfg:     cfg,
		metrics: metrics.NewRecorder(),
		styled:  !cfg.Plain && isTerminal(),
	}

	if err := e.initLogger(); err != nil {
		return nil, err
	}

	awsCfg, err := loadAWSConfig(ctx, session.Options{
		Profile:         cfg.AWS.Profile,
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		EndpointURL:     cfg.AWS.EndpointURL,
	})
	if err != nil {
		e.close()
		return nil, err
	}

	e.user, err = newCallerIdentity(awsCfg).CallerUser(ctx)
	if err != nil {
		e.close()
		return nil, err
	}
	e.log = e.log.WithValues("user", e.user)

	e.stacks = newStackClient(awsCfg, e.log, cloudformation.Options{
		Delay:   cfg.Wait.Delay,
		Timeout: cfg.Wait.Timeout,
	})
	e.instances = newInstanceClient(awsCfg)
	e.buckets = newBucketClient(awsCfg)

	return e, nil
}

// initLogger writes to the log file when one is set. Without one, logs go to
// stderr unless the progress view owns the terminal.
func (e *env) initLogger() error {
	var out io.Writer = os.Stderr
	switch {
	case e.cfg.Log.File != "":
		f, err := logging.OpenFile(e.cfg.Log.File)
		if err != nil {
			return err
		}
		e.closers = append(e.closers, func() { _ = f.Close() })
		out = f
	case e.styled:
		out = io.Discard
	}

	log, flush, err := newLogger(logging.Options{
		Level:  e.cfg.Log.Level,
		Format: e.cfg.Log.Format,
		Output: out,
	})
	if err != nil {
		e.close()
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	e.log = log
	e.closers = append([]func(){flush}, e.closers...)
	return nil
}

func (e *env) close() {
	for _, c := range e.closers {
		c()
	}
	e.closers = nil
}

func (e *env) stackName() string {
	return e.cfg.StackNameFor(e.user)
}

func (e *env) networkStackName() string {
	return e.cfg.NetworkStackNameFor(e.user)
}

// writeMetrics writes the textfile when configured. Failures are logged.
func (e *env) writeMetrics() {
	if e.cfg.MetricsFile == "" {
		return
	}
	if err := e.metrics.WriteTextfile(e.cfg.MetricsFile); err != nil {
		e.log.Error(err, "Failed to write metrics", "path", e.cfg.MetricsFile)
	}
}

// logReporter logs phase transitions when the progress view is off.
func logReporter(log logr.Logger) deployment.Reporter {
	return func(p deployment.Progress) {
		switch {
		case p.Err != nil:
			log.Error(p.Err, "Phase failed", "phase", p.Phase)
		case p.Skipped:
			log.V(1).Info("Phase skipped", "phase", p.Phase)
		case p.Done:
			log.Info("Phase complete", "phase", p.Phase)
		default:
			log.Info("Phase started", "phase", p.Phase)
		}
	}
}

// withProgress runs work under the progress view or with logged phases.
func (e *env) withProgress(ctx context.Context, m tui.Model, work tui.Work) error {
	if e.styled {
		return runProgress(ctx, m, work, tea.WithAltScreen())
	}
	return work(ctx, logReporter(e.log))
}

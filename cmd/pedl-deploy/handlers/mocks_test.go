package handlers

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/mock"

	"github.com/determined-ai/pedl-deploy/internal/config"
	"github.com/determined-ai/pedl-deploy/internal/deployment"
	"github.com/determined-ai/pedl-deploy/internal/logging"
	"github.com/determined-ai/pedl-deploy/internal/platform/cloudformation"
	"github.com/determined-ai/pedl-deploy/internal/platform/ec2"
	"github.com/determined-ai/pedl-deploy/internal/platform/session"
	"github.com/determined-ai/pedl-deploy/internal/ui/tui"
	"github.com/determined-ai/pedl-deploy/internal/util/keygen"
)

type mockStacks struct {
	mock.Mock
}

func (m *mockStacks) Deploy(ctx context.Context, in cloudformation.StackInput) (cloudformation.Action, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(cloudformation.Action), args.Error(1)
}

func (m *mockStacks) StackExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *mockStacks) Outputs(ctx context.Context, name string) (map[string]string, error) {
	args := m.Called(ctx, name)
	if out := args.Get(0); out != nil {
		return out.(map[string]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStacks) DeleteStack(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

type mockInstances struct {
	mock.Mock
}

func (m *mockInstances) Instance(ctx context.Context, id string) (*ec2.Instance, error) {
	args := m.Called(ctx, id)
	if inst := args.Get(0); inst != nil {
		return inst.(*ec2.Instance), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInstances) LatestReleaseImages(ctx context.Context) (*ec2.ReleaseImages, error) {
	args := m.Called(ctx)
	if imgs := args.Get(0); imgs != nil {
		return imgs.(*ec2.ReleaseImages), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInstances) CheckKeyPair(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

type mockBuckets struct {
	mock.Mock
}

func (m *mockBuckets) EmptyBucket(ctx context.Context, bucket string) (int, error) {
	args := m.Called(ctx, bucket)
	return args.Int(0), args.Error(1)
}

type fakeIdentity struct {
	user string
	err  error
}

func (f fakeIdentity) CallerUser(context.Context) (string, error) {
	return f.user, f.err
}

// fakes holds the doubles installed by installFakes.
type fakes struct {
	stacks    *mockStacks
	instances *mockInstances
	buckets   *mockBuckets
	out       *bytes.Buffer
	awsOpts   session.Options
}

// installFakes replaces every factory variable and restores them when the
// test ends. Output is plain and captured in out.
func installFakes(t *testing.T) *fakes {
	t.Helper()

	origLoad := loadAWSConfig
	origIdentity := newCallerIdentity
	origStacks := newStackClient
	origInstances := newInstanceClient
	origBuckets := newBucketClient
	origLogger := newLogger
	origInspect := inspectIdentity
	origTerminal := isTerminal
	origConfirm := confirmDelete
	origProgress := runProgress
	origStdout := stdout
	t.Cleanup(func() {
		loadAWSConfig = origLoad
		newCallerIdentity = origIdentity
		newStackClient = origStacks
		newInstanceClient = origInstances
		newBucketClient = origBuckets
		newLogger = origLogger
		inspectIdentity = origInspect
		isTerminal = origTerminal
		confirmDelete = origConfirm
		runProgress = origProgress
		stdout = origStdout
	})

	f := &fakes{
		stacks:    &mockStacks{},
		instances: &mockInstances{},
		buckets:   &mockBuckets{},
		out:       &bytes.Buffer{},
	}

	loadAWSConfig = func(_ context.Context, opts session.Options) (aws.Config, error) {
		f.awsOpts = opts
		return aws.Config{Region: "us-west-2"}, nil
	}
	newCallerIdentity = func(aws.Config) CallerIdentity { return fakeIdentity{user: "alice"} }
	newStackClient = func(aws.Config, logr.Logger, cloudformation.Options) StackClient { return f.stacks }
	newInstanceClient = func(aws.Config) InstanceClient { return f.instances }
	newBucketClient = func(aws.Config) deployment.Buckets { return f.buckets }
	newLogger = func(logging.Options) (logr.Logger, func(), error) { return logr.Discard(), func() {}, nil }
	inspectIdentity = func(path string) (*keygen.Identity, error) {
		return &keygen.Identity{Path: path, Type: "ssh-ed25519", Fingerprint: "SHA256:abc"}, nil
	}
	isTerminal = func() bool { return false }
	confirmDelete = func(context.Context, []string) (bool, error) {
		t.Fatal("unexpected confirmation prompt")
		return false, nil
	}
	runProgress = func(context.Context, tui.Model, tui.Work, ...tea.ProgramOption) error {
		t.Fatal("unexpected progress view")
		return nil
	}
	stdout = f.out

	t.Cleanup(func() {
		f.stacks.AssertExpectations(t)
		f.instances.AssertExpectations(t)
		f.buckets.AssertExpectations(t)
	})
	return f
}

func testConfig() *config.Config {
	return &config.Config{
		DeploymentType:     "simple",
		Keypair:            "pedl-keypair",
		BastionAMI:         config.DefaultBastionAMI,
		MasterInstanceType: config.DefaultMasterInstanceType,
		AgentInstanceType:  config.DefaultAgentInstanceType,
		AWS:                config.AWSConfig{Region: "us-west-2"},
		Wait:               config.WaitConfig{Delay: time.Millisecond, Timeout: time.Second},
		Log:                config.LogConfig{Level: "info", Format: "console"},
		Plain:              true,
	}
}

func releaseImages() *ec2.ReleaseImages {
	return &ec2.ReleaseImages{MasterAMI: "ami-master", AgentAMI: "ami-agent", Version: "0.5.0"}
}

func simpleOutputs() map[string]string {
	return map[string]string{
		config.OutputMasterID:             "i-master",
		config.OutputCheckpointBucket:     "pedl-alice-checkpoints",
		config.OutputAgentInstanceProfile: "arn:aws:iam::123456789012:instance-profile/pedl-agent",
		config.OutputAgentSecurityGroupID: "sg-agent",
	}
}

func stackNamed(name string) any {
	return mock.MatchedBy(func(in cloudformation.StackInput) bool { return in.Name == name })
}

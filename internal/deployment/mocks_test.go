package deployment

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/determined-ai/pedl-deploy/internal/platform/cloudformation"
	"github.com/determined-ai/pedl-deploy/internal/platform/ec2"
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *mockStacks) DeleteStack(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

type mockBuckets struct {
	mock.Mock
}

func (m *mockBuckets) EmptyBucket(ctx context.Context, bucket string) (int, error) {
	args := m.Called(ctx, bucket)
	return args.Int(0), args.Error(1)
}

// fakeInstances serves instances from a map.
type fakeInstances map[string]*ec2.Instance

func (f fakeInstances) Instance(_ context.Context, id string) (*ec2.Instance, error) {
	inst, ok := f[id]
	if !ok {
		return nil, ec2.ErrInstanceNotFound
	}
	return inst, nil
}

// recorder collects progress and observations.
type recorder struct {
	mu       sync.Mutex
	progress []Progress
	observed map[string][]bool
}

func newRecorder() *recorder {
	return &recorder{observed: map[string][]bool{}}
}

func (r *recorder) report(p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, p)
}

func (r *recorder) Observe(operation string, _ time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observed[operation] = append(r.observed[operation], err == nil)
}

// trail renders progress as "phase:state" strings.
func (r *recorder) trail() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.progress))
	for _, p := range r.progress {
		state := "start"
		switch {
		case p.Err != nil:
			state = "error"
		case p.Skipped:
			state = "skipped"
		case p.Done:
			state = "done"
		}
		out = append(out, string(p.Phase)+":"+state)
	}
	return out
}

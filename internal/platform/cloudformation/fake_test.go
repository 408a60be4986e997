package cloudformation

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
)

// statusGone marks a stack that no longer exists.
const statusGone types.StackStatus = "GONE"

type fakeStack struct {
	// statuses is consumed one entry per DescribeStacks call; the last entry sticks.
	statuses []types.StackStatus
	reason   string
	outputs  map[string]string
	params   []types.Parameter
	tags     []types.Tag
	caps     []types.Capability
}

// fakeAPI is an in-memory CloudFormation.
type fakeAPI struct {
	mu     sync.Mutex
	stacks map[string]*fakeStack
	calls  []string

	validateErr error
	createErr   error
	updateErr   error
	deleteErr   error
	describeErr error

	createStatuses []types.StackStatus
	updateStatuses []types.StackStatus
	deleteStatuses []types.StackStatus
	createReason   string
	noUpdates      bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		stacks:         map[string]*fakeStack{},
		createStatuses: []types.StackStatus{types.StackStatusCreateInProgress, types.StackStatusCreateComplete},
		updateStatuses: []types.StackStatus{types.StackStatusUpdateInProgress, types.StackStatusUpdateComplete},
		deleteStatuses: []types.StackStatus{types.StackStatusDeleteInProgress, statusGone},
	}
}

func notExist(name string) error {
	return &smithy.GenericAPIError{
		Code:    "ValidationError",
		Message: fmt.Sprintf("Stack with id %s does not exist", name),
	}
}

func (f *fakeAPI) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) ValidateTemplate(_ context.Context, _ *cloudformation.ValidateTemplateInput, _ ...func(*cloudformation.Options)) (*cloudformation.ValidateTemplateOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ValidateTemplate")
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	return &cloudformation.ValidateTemplateOutput{}, nil
}

func (f *fakeAPI) DescribeStacks(_ context.Context, in *cloudformation.DescribeStacksInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DescribeStacks")
	if f.describeErr != nil {
		return nil, f.describeErr
	}

	name := aws.ToString(in.StackName)
	s, ok := f.stacks[name]
	if !ok {
		return nil, notExist(name)
	}

	status := s.statuses[0]
	if len(s.statuses) > 1 {
		s.statuses = s.statuses[1:]
	}
	if status == statusGone {
		delete(f.stacks, name)
		return nil, notExist(name)
	}

	stack := types.Stack{
		StackName:   aws.String(name),
		StackStatus: status,
	}
	if s.reason != "" {
		stack.StackStatusReason = aws.String(s.reason)
	}
	for k, v := range s.outputs {
		stack.Outputs = append(stack.Outputs, types.Output{OutputKey: aws.String(k), OutputValue: aws.String(v)})
	}
	return &cloudformation.DescribeStacksOutput{Stacks: []types.Stack{stack}}, nil
}

func (f *fakeAPI) CreateStack(_ context.Context, in *cloudformation.CreateStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateStack")
	if f.createErr != nil {
		return nil, f.createErr
	}
	name := aws.ToString(in.StackName)
	f.stacks[name] = &fakeStack{
		statuses: append([]types.StackStatus(nil), f.createStatuses...),
		reason:   f.createReason,
		params:   in.Parameters,
		tags:     in.Tags,
		caps:     in.Capabilities,
	}
	return &cloudformation.CreateStackOutput{StackId: aws.String("arn:aws:cloudformation:::stack/" + name)}, nil
}

func (f *fakeAPI) UpdateStack(_ context.Context, in *cloudformation.UpdateStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateStack")
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.noUpdates {
		return nil, &smithy.GenericAPIError{Code: "ValidationError", Message: "No updates are to be performed."}
	}
	name := aws.ToString(in.StackName)
	s, ok := f.stacks[name]
	if !ok {
		return nil, notExist(name)
	}
	s.statuses = append([]types.StackStatus(nil), f.updateStatuses...)
	s.params = in.Parameters
	s.caps = in.Capabilities
	return &cloudformation.UpdateStackOutput{}, nil
}

func (f *fakeAPI) DeleteStack(_ context.Context, in *cloudformation.DeleteStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteStack")
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	if s, ok := f.stacks[aws.ToString(in.StackName)]; ok {
		s.statuses = append([]types.StackStatus(nil), f.deleteStatuses...)
	}
	return &cloudformation.DeleteStackOutput{}, nil
}

// put seeds an existing stack.
func (f *fakeAPI) put(name string, status types.StackStatus, outputs map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stacks[name] = &fakeStack{statuses: []types.StackStatus{status}, outputs: outputs}
}

func (f *fakeAPI) stack(name string) *fakeStack {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stacks[name]
}

func (f *fakeAPI) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Package cloudformation drives the lifecycle of a CloudFormation stack:
// validate, create or update, wait for a terminal status, read outputs and
// delete. Waiting relies on the SDK's stack waiters with a fixed poll delay.
package cloudformation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/go-logr/logr"
)

// API is the subset of the CloudFormation client used by Client. It also
// satisfies cloudformation.DescribeStacksAPIClient, which the waiters need.
type API interface {
	ValidateTemplate(ctx context.Context, params *cloudformation.ValidateTemplateInput, optFns ...func(*cloudformation.Options)) (*cloudformation.ValidateTemplateOutput, error)
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
	CreateStack(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStack(ctx context.Context, params *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
	DeleteStack(ctx context.Context, params *cloudformation.DeleteStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error)
}

// Action describes what Deploy did to the stack.
type Action string

// Deploy outcomes.
const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
)

// StackInput describes the desired state of one stack.
type StackInput struct {
	Name         string
	TemplateBody string
	Parameters   map[string]string
	Tags         map[string]string
}

// Options tunes the waiters.
type Options struct {
	// Delay is the fixed interval between status polls.
	Delay time.Duration
	// Timeout bounds each wait.
	Timeout time.Duration
}

// Client wraps CloudFormation.
type Client struct {
	api     API
	log     logr.Logger
	delay   time.Duration
	timeout time.Duration
}

// NewFromConfig creates a Client from a loaded aws.Config.
func NewFromConfig(cfg aws.Config, log logr.Logger, opts Options) *Client {
	return New(cloudformation.NewFromConfig(cfg), log, opts)
}

// New wraps an existing API implementation.
func New(api API, log logr.Logger, opts Options) *Client {
	if opts.Delay <= 0 {
		opts.Delay = 10 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Minute
	}
	return &Client{api: api, log: log, delay: opts.Delay, timeout: opts.Timeout}
}

// ValidateTemplate asks CloudFormation to validate body.
func (c *Client) ValidateTemplate(ctx context.Context, body string) error {
	_, err := c.api.ValidateTemplate(ctx, &cloudformation.ValidateTemplateInput{
		TemplateBody: aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("template validation failed: %w", err)
	}
	return nil
}

// describe returns the named stack or ErrStackNotFound.
func (c *Client) describe(ctx context.Context, name string) (*types.Stack, error) {
	out, err := c.api.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(name),
	})
	if err != nil {
		if IsStackNotFound(err) {
			return nil, fmt.Errorf("%s: %w", name, ErrStackNotFound)
		}
		return nil, fmt.Errorf("failed to describe stack %s: %w", name, err)
	}
	if len(out.Stacks) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrStackNotFound)
	}
	return &out.Stacks[0], nil
}

// StackExists reports whether the named stack exists.
func (c *Client) StackExists(ctx context.Context, name string) (bool, error) {
	_, err := c.describe(ctx, name)
	if err != nil {
		if IsStackNotFound(err) {
			c.log.V(1).Info("Stack not found", "stack", name)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Status returns the stack status and its reason, if any.
func (c *Client) Status(ctx context.Context, name string) (types.StackStatus, string, error) {
	stack, err := c.describe(ctx, name)
	if err != nil {
		return "", "", err
	}
	return stack.StackStatus, aws.ToString(stack.StackStatusReason), nil
}

// Outputs returns the stack outputs keyed by OutputKey.
func (c *Client) Outputs(ctx context.Context, name string) (map[string]string, error) {
	stack, err := c.describe(ctx, name)
	if err != nil {
		return nil, err
	}
	outputs := make(map[string]string, len(stack.Outputs))
	for _, o := range stack.Outputs {
		outputs[aws.ToString(o.OutputKey)] = aws.ToString(o.OutputValue)
	}
	return outputs, nil
}

// CreateStack creates the stack and waits for CREATE_COMPLETE.
func (c *Client) CreateStack(ctx context.Context, in StackInput) error {
	c.log.Info("Creating stack", "stack", in.Name)

	_, err := c.api.CreateStack(ctx, &cloudformation.CreateStackInput{
		StackName:    aws.String(in.Name),
		TemplateBody: aws.String(in.TemplateBody),
		Parameters:   toParameters(in.Parameters),
		Tags:         toTags(in.Tags),
		Capabilities: []types.Capability{types.CapabilityCapabilityIam},
	})
	if err != nil {
		return fmt.Errorf("failed to create stack %s: %w", in.Name, err)
	}

	waiter := cloudformation.NewStackCreateCompleteWaiter(c.api, func(o *cloudformation.StackCreateCompleteWaiterOptions) {
		o.MinDelay = c.delay
		o.MaxDelay = c.delay
	})
	if err := waiter.Wait(ctx, describeInput(in.Name), c.timeout); err != nil {
		return c.waitError(ctx, in.Name, types.StackStatusCreateComplete, err)
	}

	c.log.Info("Stack created", "stack", in.Name)
	return nil
}

// UpdateStack updates the stack and waits for UPDATE_COMPLETE. An update
// that changes nothing returns ActionUnchanged without waiting.
func (c *Client) UpdateStack(ctx context.Context, in StackInput) (Action, error) {
	c.log.Info("Updating stack", "stack", in.Name)

	_, err := c.api.UpdateStack(ctx, &cloudformation.UpdateStackInput{
		StackName:    aws.String(in.Name),
		TemplateBody: aws.String(in.TemplateBody),
		Parameters:   toParameters(in.Parameters),
		Tags:         toTags(in.Tags),
		Capabilities: []types.Capability{types.CapabilityCapabilityIam},
	})
	if err != nil {
		if IsNoUpdates(err) {
			c.log.Info("No updates to stack", "stack", in.Name)
			return ActionUnchanged, nil
		}
		return "", fmt.Errorf("failed to update stack %s: %w", in.Name, err)
	}

	waiter := cloudformation.NewStackUpdateCompleteWaiter(c.api, func(o *cloudformation.StackUpdateCompleteWaiterOptions) {
		o.MinDelay = c.delay
		o.MaxDelay = c.delay
	})
	if err := waiter.Wait(ctx, describeInput(in.Name), c.timeout); err != nil {
		return "", c.waitError(ctx, in.Name, types.StackStatusUpdateComplete, err)
	}

	c.log.Info("Stack updated", "stack", in.Name)
	return ActionUpdated, nil
}

// DeleteStack deletes the stack and waits until it is gone.
func (c *Client) DeleteStack(ctx context.Context, name string) error {
	c.log.Info("Deleting stack", "stack", name)

	_, err := c.api.DeleteStack(ctx, &cloudformation.DeleteStackInput{
		StackName: aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("failed to delete stack %s: %w", name, err)
	}

	waiter := cloudformation.NewStackDeleteCompleteWaiter(c.api, func(o *cloudformation.StackDeleteCompleteWaiterOptions) {
		o.MinDelay = c.delay
		o.MaxDelay = c.delay
	})
	if err := waiter.Wait(ctx, describeInput(name), c.timeout); err != nil {
		return c.waitError(ctx, name, types.StackStatusDeleteComplete, err)
	}

	c.log.Info("Stack deleted", "stack", name)
	return nil
}

// Deploy validates the template, then creates the stack or updates it when
// it already exists.
func (c *Client) Deploy(ctx context.Context, in StackInput) (Action, error) {
	if err := c.ValidateTemplate(ctx, in.TemplateBody); err != nil {
		return "", err
	}

	exists, err := c.StackExists(ctx, in.Name)
	if err != nil {
		return "", err
	}
	if exists {
		return c.UpdateStack(ctx, in)
	}

	if err := c.CreateStack(ctx, in); err != nil {
		return "", err
	}
	return ActionCreated, nil
}

// waitError annotates a waiter failure with the stack's current status.
func (c *Client) waitError(ctx context.Context, name string, want types.StackStatus, waitErr error) error {
	// The waiter may have failed because ctx ended; report that directly.
	if ctx.Err() != nil {
		return fmt.Errorf("stopped waiting for stack %s to reach %s: %w", name, want, waitErr)
	}

	status, reason, err := c.Status(ctx, name)
	if err != nil {
		return fmt.Errorf("stack %s did not reach %s: %w", name, want, waitErr)
	}
	if reason != "" {
		return fmt.Errorf("stack %s did not reach %s (status %s: %s): %w", name, want, status, reason, waitErr)
	}
	return fmt.Errorf("stack %s did not reach %s (status %s): %w", name, want, status, waitErr)
}

func describeInput(name string) *cloudformation.DescribeStacksInput {
	return &cloudformation.DescribeStacksInput{StackName: aws.String(name)}
}

// toParameters converts params to the API shape, sorted by key for stable requests.
func toParameters(params map[string]string) []types.Parameter {
	if len(params) == 0 {
		return nil
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]types.Parameter, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Parameter{
			ParameterKey:   aws.String(k),
			ParameterValue: aws.String(params[k]),
		})
	}
	return out
}

func toTags(tags map[string]string) []types.Tag {
	if len(tags) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]types.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	return out
}

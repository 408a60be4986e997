// Package sts resolves the identity of the AWS caller.
package sts

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// API is the subset of the STS client used here.
type API interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Client wraps STS.
type Client struct {
	api API
}

// NewFromConfig creates a Client from a loaded aws.Config.
func NewFromConfig(cfg aws.Config) *Client {
	return &Client{api: sts.NewFromConfig(cfg)}
}

// New wraps an existing API implementation.
func New(api API) *Client {
	return &Client{api: api}
}

// CallerUser returns the short name of the caller: the last path segment of
// its ARN, e.g. "alice" for arn:aws:iam::123456789012:user/alice.
func (c *Client) CallerUser(ctx context.Context) (string, error) {
	out, err := c.api.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("failed to get caller identity: %w", err)
	}
	return UserFromARN(aws.ToString(out.Arn))
}

// UserFromARN extracts the segment after the last "/" of arn.
func UserFromARN(arn string) (string, error) {
	if arn == "" {
		return "", fmt.Errorf("caller identity has no ARN")
	}
	user := arn[strings.LastIndex(arn, "/")+1:]
	if user == "" {
		return "", fmt.Errorf("cannot derive user name from ARN %q", arn)
	}
	return user, nil
}

// Package ec2 looks up the instances, release images and key pairs a
// deployment depends on.
package ec2

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
)

// Image lookup filters.
const (
	ImageTypeTag     = "image_type"
	ImageTypeRelease = "release"
	ImageVersionTag  = "pedl-version"
	ImageOwnerSelf   = "self"
)

var (
	// ErrInstanceNotFound is returned when an instance ID matches nothing.
	ErrInstanceNotFound = errors.New("instance not found")
	// ErrNoReleaseImage is returned when no master or agent release image exists.
	ErrNoReleaseImage = errors.New("no release image found")
	// ErrVersionMismatch is returned when the latest master and agent images
	// carry different versions.
	ErrVersionMismatch = errors.New("master and agent image versions differ")
	// ErrKeyPairNotFound is returned by CheckKeyPair.
	ErrKeyPairNotFound = errors.New("key pair not found")
)

// API is the subset of the EC2 client used here.
type API interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	DescribeImages(ctx context.Context, params *ec2.DescribeImagesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error)
	DescribeKeyPairs(ctx context.Context, params *ec2.DescribeKeyPairsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeKeyPairsOutput, error)
}

// Instance holds the addresses of one EC2 instance.
type Instance struct {
	ID        string
	PublicIP  string
	PrivateIP string
	State     string
}

// ReleaseImages is the newest matching master/agent AMI pair.
type ReleaseImages struct {
	MasterAMI string
	AgentAMI  string
	Version   string
}

// Client wraps EC2.
type Client struct {
	api API
}

// NewFromConfig creates a Client from a loaded aws.Config.
func NewFromConfig(cfg aws.Config) *Client {
	return &Client{api: ec2.NewFromConfig(cfg)}
}

// New wraps an existing API implementation.
func New(api API) *Client {
	return &Client{api: api}
}

// Instance describes a single instance by ID.
func (c *Client) Instance(ctx context.Context, id string) (*Instance, error) {
	out, err := c.api.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{id},
	})
	if err != nil {
		if apiErrorCode(err) == "InvalidInstanceID.NotFound" {
			return nil, fmt.Errorf("%s: %w", id, ErrInstanceNotFound)
		}
		return nil, fmt.Errorf("failed to describe instance %s: %w", id, err)
	}

	for _, r := range out.Reservations {
		for _, inst := range r.Instances {
			if aws.ToString(inst.InstanceId) != id {
				continue
			}
			result := &Instance{
				ID:        id,
				PublicIP:  aws.ToString(inst.PublicIpAddress),
				PrivateIP: aws.ToString(inst.PrivateIpAddress),
			}
			if inst.State != nil {
				result.State = string(inst.State.Name)
			}
			return result, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", id, ErrInstanceNotFound)
}

// LatestReleaseImages finds the newest master and agent release AMIs owned by
// the caller and checks that both carry the same version.
func (c *Client) LatestReleaseImages(ctx context.Context) (*ReleaseImages, error) {
	out, err := c.api.DescribeImages(ctx, &ec2.DescribeImagesInput{
		Filters: []types.Filter{
			{Name: aws.String("tag:" + ImageTypeTag), Values: []string{ImageTypeRelease}},
		},
		Owners: []string{ImageOwnerSelf},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe images: %w", err)
	}

	images := out.Images
	// CreationDate is ISO 8601, so string order is time order.
	sort.SliceStable(images, func(i, j int) bool {
		return aws.ToString(images[i].CreationDate) > aws.ToString(images[j].CreationDate)
	})

	master := firstNamed(images, "master")
	agent := firstNamed(images, "agent")
	switch {
	case master == nil && agent == nil:
		return nil, fmt.Errorf("master and agent: %w", ErrNoReleaseImage)
	case master == nil:
		return nil, fmt.Errorf("master: %w", ErrNoReleaseImage)
	case agent == nil:
		return nil, fmt.Errorf("agent: %w", ErrNoReleaseImage)
	}

	masterVersion := tagValue(master.Tags, ImageVersionTag)
	agentVersion := tagValue(agent.Tags, ImageVersionTag)
	if masterVersion != agentVersion {
		return nil, fmt.Errorf("%w: master %s has %q, agent %s has %q", ErrVersionMismatch,
			aws.ToString(master.ImageId), masterVersion, aws.ToString(agent.ImageId), agentVersion)
	}

	return &ReleaseImages{
		MasterAMI: aws.ToString(master.ImageId),
		AgentAMI:  aws.ToString(agent.ImageId),
		Version:   masterVersion,
	}, nil
}

// KeyPairExists reports whether a key pair with the given name exists.
func (c *Client) KeyPairExists(ctx context.Context, name string) (bool, error) {
	out, err := c.api.DescribeKeyPairs(ctx, &ec2.DescribeKeyPairsInput{
		KeyNames: []string{name},
	})
	if err != nil {
		if apiErrorCode(err) == "InvalidKeyPair.NotFound" {
			return false, nil
		}
		return false, fmt.Errorf("failed to describe key pair %s: %w", name, err)
	}
	for _, kp := range out.KeyPairs {
		if aws.ToString(kp.KeyName) == name {
			return true, nil
		}
	}
	return false, nil
}

// CheckKeyPair returns ErrKeyPairNotFound when the key pair is missing.
func (c *Client) CheckKeyPair(ctx context.Context, name string) error {
	exists, err := c.KeyPairExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("Key pair %s not found. Please create key pair first: %w", name, ErrKeyPairNotFound) //nolint:staticcheck // user-facing message
	}
	return nil
}

func firstNamed(images []types.Image, fragment string) *types.Image {
	for i := range images {
		if strings.Contains(aws.ToString(images[i].Name), fragment) {
			return &images[i]
		}
	}
	return nil
}

func tagValue(tags []types.Tag, key string) string {
	for _, t := range tags {
		if aws.ToString(t.Key) == key {
			return aws.ToString(t.Value)
		}
	}
	return ""
}

func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

package ec2

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	instances []types.Instance
	images    []types.Image
	keyPairs  []string

	instancesErr error
	imagesErr    error
	keyPairsErr  error

	lastImages *ec2.DescribeImagesInput
}

func (f *fakeAPI) DescribeInstances(_ context.Context, in *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	if f.instancesErr != nil {
		return nil, f.instancesErr
	}
	var matched []types.Instance
	for _, inst := range f.instances {
		for _, id := range in.InstanceIds {
			if aws.ToString(inst.InstanceId) == id {
				matched = append(matched, inst)
			}
		}
	}
	if len(matched) == 0 {
		return &ec2.DescribeInstancesOutput{}, nil
	}
	return &ec2.DescribeInstancesOutput{Reservations: []types.Reservation{{Instances: matched}}}, nil
}

func (f *fakeAPI) DescribeImages(_ context.Context, in *ec2.DescribeImagesInput, _ ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error) {
	f.lastImages = in
	if f.imagesErr != nil {
		return nil, f.imagesErr
	}
	return &ec2.DescribeImagesOutput{Images: append([]types.Image(nil), f.images...)}, nil
}

func (f *fakeAPI) DescribeKeyPairs(_ context.Context, in *ec2.DescribeKeyPairsInput, _ ...func(*ec2.Options)) (*ec2.DescribeKeyPairsOutput, error) {
	if f.keyPairsErr != nil {
		return nil, f.keyPairsErr
	}
	out := &ec2.DescribeKeyPairsOutput{}
	for _, name := range in.KeyNames {
		for _, kp := range f.keyPairs {
			if kp == name {
				out.KeyPairs = append(out.KeyPairs, types.KeyPairInfo{KeyName: aws.String(kp)})
			}
		}
	}
	if len(out.KeyPairs) == 0 {
		return nil, &smithy.GenericAPIError{Code: "InvalidKeyPair.NotFound", Message: "The key pair does not exist"}
	}
	return out, nil
}

func image(id, name, created, version string) types.Image {
	img := types.Image{
		ImageId:      aws.String(id),
		Name:         aws.String(name),
		CreationDate: aws.String(created),
	}
	if version != "" {
		img.Tags = []types.Tag{{Key: aws.String(ImageVersionTag), Value: aws.String(version)}}
	}
	return img
}

func TestInstance(t *testing.T) {
	api := &fakeAPI{instances: []types.Instance{{
		InstanceId:       aws.String("i-0master"),
		PublicIpAddress:  aws.String("54.1.2.3"),
		PrivateIpAddress: aws.String("10.0.1.5"),
		State:            &types.InstanceState{Name: types.InstanceStateNameRunning},
	}}}
	c := New(api)

	inst, err := c.Instance(context.Background(), "i-0master")
	require.NoError(t, err)
	assert.Equal(t, &Instance{ID: "i-0master", PublicIP: "54.1.2.3", PrivateIP: "10.0.1.5", State: "running"}, inst)
}

func TestInstance_NotFound(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeAPI
	}{
		{"empty reservations", &fakeAPI{}},
		{"api not found code", &fakeAPI{instancesErr: &smithy.GenericAPIError{Code: "InvalidInstanceID.NotFound"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.api).Instance(context.Background(), "i-missing")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInstanceNotFound))
		})
	}
}

func TestInstance_Error(t *testing.T) {
	c := New(&fakeAPI{instancesErr: errors.New("throttled")})

	_, err := c.Instance(context.Background(), "i-0master")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInstanceNotFound))
	assert.Contains(t, err.Error(), "failed to describe instance i-0master")
}

func TestLatestReleaseImages(t *testing.T) {
	api := &fakeAPI{images: []types.Image{
		image("ami-master-old", "pedl-master-0.5.0", "2018-05-01T10:00:00.000Z", "0.5.0"),
		image("ami-agent-new", "pedl-agent-0.6.0", "2018-06-02T10:00:00.000Z", "0.6.0"),
		image("ami-master-new", "pedl-master-0.6.0", "2018-06-01T10:00:00.000Z", "0.6.0"),
		image("ami-agent-old", "pedl-agent-0.5.0", "2018-05-01T09:00:00.000Z", "0.5.0"),
	}}
	c := New(api)

	got, err := c.LatestReleaseImages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &ReleaseImages{MasterAMI: "ami-master-new", AgentAMI: "ami-agent-new", Version: "0.6.0"}, got)

	require.NotNil(t, api.lastImages)
	assert.Equal(t, []string{"self"}, api.lastImages.Owners)
	require.Len(t, api.lastImages.Filters, 1)
	assert.Equal(t, "tag:image_type", aws.ToString(api.lastImages.Filters[0].Name))
	assert.Equal(t, []string{"release"}, api.lastImages.Filters[0].Values)
}

func TestLatestReleaseImages_Errors(t *testing.T) {
	tests := []struct {
		name    string
		api     *fakeAPI
		wantErr error
		message string
	}{
		{
			name:    "no images",
			api:     &fakeAPI{},
			wantErr: ErrNoReleaseImage,
			message: "master and agent",
		},
		{
			name: "no agent",
			api: &fakeAPI{images: []types.Image{
				image("ami-m", "pedl-master-0.6.0", "2018-06-01T10:00:00.000Z", "0.6.0"),
			}},
			wantErr: ErrNoReleaseImage,
			message: "agent",
		},
		{
			name: "no master",
			api: &fakeAPI{images: []types.Image{
				image("ami-a", "pedl-agent-0.6.0", "2018-06-01T10:00:00.000Z", "0.6.0"),
			}},
			wantErr: ErrNoReleaseImage,
			message: "master",
		},
		{
			name: "version mismatch",
			api: &fakeAPI{images: []types.Image{
				image("ami-m", "pedl-master-0.6.0", "2018-06-01T10:00:00.000Z", "0.6.0"),
				image("ami-a", "pedl-agent-0.7.0", "2018-07-01T10:00:00.000Z", "0.7.0"),
			}},
			wantErr: ErrVersionMismatch,
			message: `"0.6.0"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.api).LatestReleaseImages(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLatestReleaseImages_APIError(t *testing.T) {
	c := New(&fakeAPI{imagesErr: errors.New("UnauthorizedOperation")})

	_, err := c.LatestReleaseImages(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to describe images")
}

func TestKeyPair(t *testing.T) {
	c := New(&fakeAPI{keyPairs: []string{"pedl-keypair"}})
	ctx := context.Background()

	exists, err := c.KeyPairExists(ctx, "pedl-keypair")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = c.KeyPairExists(ctx, "other")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, c.CheckKeyPair(ctx, "pedl-keypair"))

	err = c.CheckKeyPair(ctx, "other")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrKeyPairNotFound))
	assert.Contains(t, err.Error(), "Key pair other not found. Please create key pair first")
}

func TestKeyPair_APIError(t *testing.T) {
	c := New(&fakeAPI{keyPairsErr: &smithy.GenericAPIError{Code: "AuthFailure"}})

	_, err := c.KeyPairExists(context.Background(), "pedl-keypair")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to describe key pair pedl-keypair")

	err = c.CheckKeyPair(context.Background(), "pedl-keypair")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrKeyPairNotFound))
}

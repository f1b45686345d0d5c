package aws

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/sirupsen/logrus"
)

// fallbackImageID is returned when no AMI matches the description filters
const fallbackImageID = "ami-0c55b159cbfafe1f0"

// TagPair is a single resource tag
type TagPair struct {
	Key   string
	Value string
}

// RunInstancesParams describes an instance creation request
type RunInstancesParams struct {
	ImageID          string
	InstanceType     string
	MinCount         int32
	MaxCount         int32
	KeyName          string
	SecurityGroupIDs []string
	SubnetID         string
	UserData         string
	Tags             []TagPair
}

// StateChange records an instance state transition reported by the API
type StateChange struct {
	InstanceID    string `json:"instance_id"`
	PreviousState string `json:"previous_state"`
	CurrentState  string `json:"current_state"`
}

// InstanceStatus is the current state of an instance
type InstanceStatus struct {
	InstanceID string `json:"instance_id"`
	State      string `json:"state"`
	StateCode  int32  `json:"state_code"`
}

// ========== EC2 Instance Management Methods ==========

// RunInstances creates EC2 instances and returns the created instance IDs
func (c *Client) RunInstances(ctx context.Context, params RunInstancesParams) ([]string, error) {
	c.logger.WithFields(logrus.Fields{
		"imageId":      params.ImageID,
		"instanceType": params.InstanceType,
		"minCount":     params.MinCount,
		"maxCount":     params.MaxCount,
	}).Info("Creating EC2 instances")

	input := &ec2.RunInstancesInput{
		ImageId:      aws.String(params.ImageID),
		InstanceType: ec2types.InstanceType(params.InstanceType),
		MinCount:     aws.Int32(params.MinCount),
		MaxCount:     aws.Int32(params.MaxCount),
	}

	if params.KeyName != "" {
		input.KeyName = aws.String(params.KeyName)
	}
	if len(params.SecurityGroupIDs) > 0 {
		input.SecurityGroupIds = params.SecurityGroupIDs
	}
	if params.SubnetID != "" {
		input.SubnetId = aws.String(params.SubnetID)
	}
	if params.UserData != "" {
		input.UserData = aws.String(base64.StdEncoding.EncodeToString([]byte(params.UserData)))
	}

	if len(params.Tags) > 0 {
		tags := make([]ec2types.Tag, 0, len(params.Tags))
		for _, tag := range params.Tags {
			tags = append(tags, ec2types.Tag{
				Key:   aws.String(tag.Key),
				Value: aws.String(tag.Value),
			})
		}
		input.TagSpecifications = []ec2types.TagSpecification{
			{
				ResourceType: ec2types.ResourceTypeInstance,
				Tags:         tags,
			},
		}
	}

	result, err := c.ec2.RunInstances(ctx, input)
	if err != nil {
		c.logger.WithError(err).Error("Failed to create EC2 instances")
		return nil, fmt.Errorf("failed to create instances: %w", err)
	}

	if len(result.Instances) == 0 {
		return nil, fmt.Errorf("no instances created")
	}

	instanceIDs := make([]string, 0, len(result.Instances))
	for _, instance := range result.Instances {
		instanceIDs = append(instanceIDs, aws.ToString(instance.InstanceId))
	}

	c.logger.WithField("instanceIds", instanceIDs).Info("EC2 instances created successfully")
	return instanceIDs, nil
}

// StartInstance starts a stopped EC2 instance
func (c *Client) StartInstance(ctx context.Context, instanceID string) ([]StateChange, error) {
	result, err := c.ec2.StartInstances(ctx, &ec2.StartInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start instance %s: %w", instanceID, err)
	}

	c.logger.WithField("instanceId", instanceID).Info("EC2 instance start initiated")
	return convertStateChanges(result.StartingInstances), nil
}

// StopInstance stops a running EC2 instance
func (c *Client) StopInstance(ctx context.Context, instanceID string, force bool) ([]StateChange, error) {
	result, err := c.ec2.StopInstances(ctx, &ec2.StopInstancesInput{
		InstanceIds: []string{instanceID},
		Force:       aws.Bool(force),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to stop instance %s: %w", instanceID, err)
	}

	c.logger.WithFields(logrus.Fields{
		"instanceId": instanceID,
		"force":      force,
	}).Info("EC2 instance stop initiated")
	return convertStateChanges(result.StoppingInstances), nil
}

// RebootInstance reboots a running EC2 instance. The API reports no state
// changes for reboots; callers wanting the current state describe afterwards.
func (c *Client) RebootInstance(ctx context.Context, instanceID string) error {
	_, err := c.ec2.RebootInstances(ctx, &ec2.RebootInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return fmt.Errorf("failed to reboot instance %s: %w", instanceID, err)
	}

	c.logger.WithField("instanceId", instanceID).Info("EC2 instance reboot initiated")
	return nil
}

// TerminateInstance terminates an EC2 instance
func (c *Client) TerminateInstance(ctx context.Context, instanceID string) ([]StateChange, error) {
	result, err := c.ec2.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to terminate instance %s: %w", instanceID, err)
	}

	c.logger.WithField("instanceId", instanceID).Info("EC2 instance termination initiated")
	return convertStateChanges(result.TerminatingInstances), nil
}

// DescribeInstanceState returns the current state of an instance
func (c *Client) DescribeInstanceState(ctx context.Context, instanceID string) (*InstanceStatus, error) {
	result, err := c.ec2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe instance %s: %w", instanceID, err)
	}

	for _, reservation := range result.Reservations {
		for _, instance := range reservation.Instances {
			status := &InstanceStatus{InstanceID: instanceID}
			if instance.State != nil {
				status.State = string(instance.State.Name)
				status.StateCode = aws.ToInt32(instance.State.Code)
			}
			return status, nil
		}
	}

	return nil, fmt.Errorf("instance %s not found", instanceID)
}

// FindInstanceByName finds a non-terminated EC2 instance by Name tag and
// returns its ID, or "" when no instance matches
func (c *Client) FindInstanceByName(ctx context.Context, name string) (string, error) {
	result, err := c.ec2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("tag:Name"), Values: []string{name}},
			{Name: aws.String("instance-state-name"), Values: []string{"pending", "running", "stopping", "stopped"}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to find instance by name %s: %w", name, err)
	}

	for _, reservation := range result.Reservations {
		for _, instance := range reservation.Instances {
			return aws.ToString(instance.InstanceId), nil
		}
	}
	return "", nil
}

// imageFilterSpec groups the AMI name filter with the owning account
type imageFilterSpec struct {
	keywords   []string
	namePrefix string
	owner      string
}

var imageFilters = []imageFilterSpec{
	{keywords: []string{"amazon linux"}, namePrefix: "amzn2-ami-hvm-*-x86_64-gp2", owner: "amazon"},
	{keywords: []string{"ubuntu"}, namePrefix: "ubuntu/images/hvm-ssd/ubuntu-focal-20.04-amd64-server-*", owner: "099720109477"},
	{keywords: []string{"windows"}, namePrefix: "Windows_Server-2019-English-Full-Base-*", owner: "amazon"},
	{keywords: []string{"red hat", "rhel"}, namePrefix: "RHEL-8*-x86_64-*", owner: "309956199498"},
}

// FindImage resolves an image description to the latest matching AMI ID.
// Unmatched descriptions and lookup failures fall back to Amazon Linux.
func (c *Client) FindImage(ctx context.Context, description string) (string, error) {
	descriptionLower := strings.ToLower(description)

	spec := imageFilters[0]
matching:
	for _, candidate := range imageFilters {
		for _, keyword := range candidate.keywords {
			if strings.Contains(descriptionLower, keyword) {
				spec = candidate
				break matching
			}
		}
	}

	result, err := c.ec2.DescribeImages(ctx, &ec2.DescribeImagesInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("name"), Values: []string{spec.namePrefix}},
		},
		Owners: []string{spec.owner},
	})
	if err != nil {
		c.logger.WithError(err).Error("Error finding AMI, using fallback image")
		return fallbackImageID, nil
	}

	images := result.Images
	if len(images) == 0 {
		return fallbackImageID, nil
	}

	// Newest first
	sort.Slice(images, func(i, j int) bool {
		return aws.ToString(images[i].CreationDate) > aws.ToString(images[j].CreationDate)
	})

	return aws.ToString(images[0].ImageId), nil
}

func convertStateChanges(changes []ec2types.InstanceStateChange) []StateChange {
	out := make([]StateChange, 0, len(changes))
	for _, change := range changes {
		sc := StateChange{InstanceID: aws.ToString(change.InstanceId)}
		if change.PreviousState != nil {
			sc.PreviousState = string(change.PreviousState.Name)
		}
		if change.CurrentState != nil {
			sc.CurrentState = string(change.CurrentState.Name)
		}
		out = append(out, sc)
	}
	return out
}

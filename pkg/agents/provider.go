package agents

import (
	"context"
	"errors"

	"github.com/cloudprompt/aws-devops-agent/pkg/aws"
)

// ErrMissingTarget indicates a lifecycle operation without a resolvable
// instance identifier
var ErrMissingTarget = errors.New("instance ID is required for lifecycle operations")

// Provider is the boundary to the cloud resource API. Failures from the far
// side are opaque: agents wrap them into execution errors without inspection.
type Provider interface {
	RunInstances(ctx context.Context, params aws.RunInstancesParams) ([]string, error)
	StartInstance(ctx context.Context, instanceID string) ([]aws.StateChange, error)
	StopInstance(ctx context.Context, instanceID string, force bool) ([]aws.StateChange, error)
	RebootInstance(ctx context.Context, instanceID string) error
	TerminateInstance(ctx context.Context, instanceID string) ([]aws.StateChange, error)
	DescribeInstanceState(ctx context.Context, instanceID string) (*aws.InstanceStatus, error)
	FindInstanceByName(ctx context.Context, name string) (string, error)
	FindImage(ctx context.Context, description string) (string, error)
}

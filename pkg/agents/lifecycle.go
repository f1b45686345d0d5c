package agents

import (
	"context"
	"fmt"

	"github.com/cloudprompt/aws-devops-agent/internal/logging"
	"github.com/cloudprompt/aws-devops-agent/pkg/extract"
	"github.com/cloudprompt/aws-devops-agent/pkg/resolve"
	"github.com/cloudprompt/aws-devops-agent/pkg/types"
	"github.com/cloudprompt/aws-devops-agent/pkg/validate"
)

// EC2LifecycleAgent handles start/stop/reboot/terminate operations on
// existing EC2 instances
type EC2LifecycleAgent struct {
	extractor *extract.Extractor
	resolver  *resolve.EC2Resolver
	validator *validate.Validator
	provider  Provider
	logger    *logging.Logger
}

// NewEC2LifecycleAgent creates an EC2 lifecycle agent
func NewEC2LifecycleAgent(extractor *extract.Extractor, resolver *resolve.EC2Resolver, validator *validate.Validator, provider Provider, logger *logging.Logger) *EC2LifecycleAgent {
	return &EC2LifecycleAgent{
		extractor: extractor,
		resolver:  resolver,
		validator: validator,
		provider:  provider,
		logger:    logger,
	}
}

// ProcessPrompt runs the extract-resolve-validate pipeline for a lifecycle
// operation
func (a *EC2LifecycleAgent) ProcessPrompt(ctx context.Context, prompt, operationType string) *types.OperationEnvelope {
	a.logger.Info("Processing EC2 lifecycle prompt")

	params, err := a.extractor.Extract(ctx, prompt, "ec2", types.OperationLifecycle)
	if err != nil {
		env := types.NewErrorEnvelope("Failed to extract EC2 lifecycle parameters", err)
		env.Service = "ec2"
		env.OperationType = types.OperationLifecycle
		return env
	}

	params = a.resolver.ResolveLifecycle(prompt, params)

	validation := a.validator.Validate(ctx, "ec2", types.OperationLifecycle, params)
	if validation.Status == types.ValidationInvalid {
		return &types.OperationEnvelope{
			Status:        types.StatusInvalid,
			Message:       "Invalid configuration",
			Service:       "ec2",
			OperationType: types.OperationLifecycle,
			Parameters:    params,
			Validation:    validation,
			Errors:        validation.Errors,
		}
	}

	return &types.OperationEnvelope{
		Status:               types.StatusSuccess,
		Message:              "EC2 lifecycle operation parsed and validated",
		Service:              "ec2",
		OperationType:        types.OperationLifecycle,
		Parameters:           params,
		Validation:           validation,
		RequiresConfirmation: true,
	}
}

// Execute performs a confirmed lifecycle action. The target instance must
// resolve to a non-empty ID (directly or through a Name tag lookup) before
// any state-changing provider call is attempted.
func (a *EC2LifecycleAgent) Execute(ctx context.Context, envelope *types.OperationEnvelope) *types.ExecutionResult {
	if a.provider == nil {
		return types.NewErrorResult("AWS client not initialized", nil)
	}

	params := envelope.Parameters
	action := resolve.ResolveAction(params.GetString("Action"))
	instanceID := params.GetString("InstanceId")

	if instanceID == "" && params.Has("InstanceDescription") {
		found, err := a.provider.FindInstanceByName(ctx, params.GetString("InstanceDescription"))
		if err != nil {
			return types.NewErrorResult("Failed to look up instance by name", err)
		}
		instanceID = found
	}

	if instanceID == "" {
		return types.NewErrorResult("Instance ID is required for lifecycle operations", ErrMissingTarget)
	}

	a.logger.WithFields(map[string]interface{}{
		"action":     action,
		"instanceId": instanceID,
	}).Info("Executing EC2 lifecycle operation")

	result := map[string]interface{}{
		"instance_id": instanceID,
		"action":      action,
	}

	switch action {
	case types.ActionStart:
		changes, err := a.provider.StartInstance(ctx, instanceID)
		if err != nil {
			return types.NewErrorResult("Failed to execute EC2 lifecycle operation", err)
		}
		result["state_changes"] = changes

	case types.ActionStop:
		changes, err := a.provider.StopInstance(ctx, instanceID, params.GetBool("Force"))
		if err != nil {
			return types.NewErrorResult("Failed to execute EC2 lifecycle operation", err)
		}
		result["state_changes"] = changes

	case types.ActionReboot:
		if err := a.provider.RebootInstance(ctx, instanceID); err != nil {
			return types.NewErrorResult("Failed to execute EC2 lifecycle operation", err)
		}
		if status, err := a.provider.DescribeInstanceState(ctx, instanceID); err == nil {
			result["current_state"] = status
		}

	case types.ActionTerminate:
		changes, err := a.provider.TerminateInstance(ctx, instanceID)
		if err != nil {
			return types.NewErrorResult("Failed to execute EC2 lifecycle operation", err)
		}
		result["state_changes"] = changes

	default:
		return types.NewErrorResult("Unsupported action: "+action, nil)
	}

	return &types.ExecutionResult{
		Status:  types.StatusSuccess,
		Message: fmt.Sprintf("EC2 instance %s operation completed successfully", action),
		Result:  result,
	}
}

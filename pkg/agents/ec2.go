package agents

import (
	"context"

	"github.com/cloudprompt/aws-devops-agent/internal/logging"
	"github.com/cloudprompt/aws-devops-agent/pkg/aws"
	"github.com/cloudprompt/aws-devops-agent/pkg/extract"
	"github.com/cloudprompt/aws-devops-agent/pkg/resolve"
	"github.com/cloudprompt/aws-devops-agent/pkg/types"
	"github.com/cloudprompt/aws-devops-agent/pkg/validate"
)

// EC2CreateAgent handles EC2 instance creation operations
type EC2CreateAgent struct {
	extractor *extract.Extractor
	resolver  *resolve.EC2Resolver
	validator *validate.Validator
	provider  Provider
	logger    *logging.Logger
}

// NewEC2CreateAgent creates an EC2 creation agent
func NewEC2CreateAgent(extractor *extract.Extractor, resolver *resolve.EC2Resolver, validator *validate.Validator, provider Provider, logger *logging.Logger) *EC2CreateAgent {
	return &EC2CreateAgent{
		extractor: extractor,
		resolver:  resolver,
		validator: validator,
		provider:  provider,
		logger:    logger,
	}
}

// ProcessPrompt runs the extract-resolve-validate pipeline for an EC2
// operation. Confirmation is unconditionally required on success, even for
// clean validations.
func (a *EC2CreateAgent) ProcessPrompt(ctx context.Context, prompt, operationType string) *types.OperationEnvelope {
	if operationType == "" {
		operationType = types.OperationCreate
	}
	a.logger.WithField("operation", operationType).Info("Processing EC2 prompt")

	params, err := a.extractor.Extract(ctx, prompt, "ec2", operationType)
	if err != nil {
		env := types.NewErrorEnvelope("Failed to extract EC2 parameters", err)
		env.Service = "ec2"
		env.OperationType = operationType
		return env
	}

	params = a.resolver.Resolve(params, operationType)

	validation := a.validator.Validate(ctx, "ec2", operationType, params)
	if validation.Status == types.ValidationInvalid {
		return &types.OperationEnvelope{
			Status:        types.StatusInvalid,
			Message:       "Invalid configuration",
			Service:       "ec2",
			OperationType: operationType,
			Parameters:    params,
			Validation:    validation,
			Errors:        validation.Errors,
		}
	}

	return &types.OperationEnvelope{
		Status:               types.StatusSuccess,
		Message:              "EC2 configuration parsed and validated",
		Service:              "ec2",
		OperationType:        operationType,
		Parameters:           params,
		Validation:           validation,
		RequiresConfirmation: true,
	}
}

// Execute performs a confirmed EC2 operation against the provider
func (a *EC2CreateAgent) Execute(ctx context.Context, envelope *types.OperationEnvelope) *types.ExecutionResult {
	if a.provider == nil {
		return types.NewErrorResult("AWS client not initialized", nil)
	}

	switch envelope.OperationType {
	case types.OperationCreate:
		return a.executeCreate(ctx, envelope.Parameters)
	default:
		return types.NewErrorResult("Unsupported operation type: "+envelope.OperationType, nil)
	}
}

func (a *EC2CreateAgent) executeCreate(ctx context.Context, params types.ParameterSet) *types.ExecutionResult {
	runParams := buildRunParams(params)

	// Resolve a lingering image description through the provider when the
	// resolver produced no concrete ID
	if runParams.ImageID == "" && params.Has("ImageDescription") {
		imageID, err := a.provider.FindImage(ctx, params.GetString("ImageDescription"))
		if err != nil {
			return types.NewErrorResult("Failed to resolve image description", err)
		}
		runParams.ImageID = imageID
	}

	instanceIDs, err := a.provider.RunInstances(ctx, runParams)
	if err != nil {
		return types.NewErrorResult("Failed to execute EC2 operation", err)
	}

	return &types.ExecutionResult{
		Status:  types.StatusSuccess,
		Message: "EC2 instance created successfully",
		Result: map[string]interface{}{
			"instance_ids": instanceIDs,
		},
	}
}

// buildRunParams converts a validated parameter set into a provider request
func buildRunParams(params types.ParameterSet) aws.RunInstancesParams {
	out := aws.RunInstancesParams{
		ImageID:      params.GetString("ImageId"),
		InstanceType: params.GetString("InstanceType"),
		MinCount:     int32(intValue(params["MinCount"], 1)),
		MaxCount:     int32(intValue(params["MaxCount"], 1)),
		KeyName:      params.GetString("KeyName"),
		SubnetID:     params.GetString("SubnetId"),
		UserData:     params.GetString("UserData"),
	}

	switch groups := params["SecurityGroupIds"].(type) {
	case string:
		out.SecurityGroupIDs = []string{groups}
	case []interface{}:
		for _, g := range groups {
			if s, ok := g.(string); ok {
				out.SecurityGroupIDs = append(out.SecurityGroupIDs, s)
			}
		}
	case []string:
		out.SecurityGroupIDs = groups
	}

	if tags, ok := params["Tags"].([]interface{}); ok {
		for _, raw := range tags {
			record, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			key, _ := record["Key"].(string)
			value, _ := record["Value"].(string)
			if key != "" {
				out.Tags = append(out.Tags, aws.TagPair{Key: key, Value: value})
			}
		}
	}

	return out
}

// intValue coerces decoded-JSON numbers to int with a default
func intValue(v interface{}, def int) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

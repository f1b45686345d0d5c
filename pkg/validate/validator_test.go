package validate

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudprompt/aws-devops-agent/internal/logging"
	"github.com/cloudprompt/aws-devops-agent/pkg/types"
)

type scriptedOracle struct {
	response string
	err      error
}

func (o *scriptedOracle) Complete(ctx context.Context, system, user string) (string, error) {
	if o.err != nil {
		return "", o.err
	}
	return o.response, nil
}

const costResponse = `{
	"estimated_monthly_cost": "low",
	"estimated_cost_range": {"low": "$8.50", "high": "$12.00"},
	"cost_breakdown": [
		{"component": "EC2 instance", "description": "t2.micro on-demand", "estimated_cost": "$8.50"}
	],
	"cost_saving_recommendations": ["Consider a savings plan"]
}`

func newTestValidator(oracle *scriptedOracle) *Validator {
	return NewValidator(oracle, logging.NewLogger("error", "text"))
}

func TestValidateMissingRequiredFields(t *testing.T) {
	validator := newTestValidator(&scriptedOracle{response: costResponse})

	result := validator.Validate(context.Background(), "ec2", "create", types.ParameterSet{})

	assert.Equal(t, types.ValidationInvalid, result.Status)
	assert.Contains(t, result.Errors, "Required parameter 'InstanceType' is missing")
	assert.Contains(t, result.Errors, "Either ImageId or ImageDescription is required")
	// All failures accumulate in one pass
	assert.Len(t, result.Errors, 2)
	assert.Nil(t, result.CostEstimation)
}

func TestValidateTypeErrors(t *testing.T) {
	validator := newTestValidator(&scriptedOracle{response: costResponse})

	result := validator.Validate(context.Background(), "ec2", "create", types.ParameterSet{
		"InstanceType": 42,
		"ImageId":      "ami-12345678",
		"MinCount":     "three",
		"EbsOptimized": "yes",
	})

	assert.Equal(t, types.ValidationInvalid, result.Status)
	assert.Contains(t, result.Errors, "InstanceType must be a string")
	assert.Contains(t, result.Errors, "MinCount must be an integer")
	assert.Contains(t, result.Errors, "EbsOptimized must be a boolean")
}

func TestValidateIntegerAcceptsWholeFloat(t *testing.T) {
	validator := newTestValidator(&scriptedOracle{response: costResponse})

	result := validator.Validate(context.Background(), "ec2", "create", types.ParameterSet{
		"InstanceType":     "t2.micro",
		"ImageId":          "ami-12345678",
		"KeyName":          "deploy-key",
		"SecurityGroupIds": []interface{}{"sg-123"},
		"MinCount":         float64(2),
		"MaxCount":         float64(2),
	})

	assert.Equal(t, types.ValidationValid, result.Status)
	assert.Empty(t, result.Errors)
}

func TestValidateFractionalCountRejected(t *testing.T) {
	validator := newTestValidator(&scriptedOracle{response: costResponse})

	result := validator.Validate(context.Background(), "ec2", "create", types.ParameterSet{
		"InstanceType": "t2.micro",
		"ImageId":      "ami-12345678",
		"MinCount":     1.5,
	})

	assert.Equal(t, types.ValidationInvalid, result.Status)
	assert.Contains(t, result.Errors, "MinCount must be an integer")
}

func TestValidateSecurityWarnings(t *testing.T) {
	validator := newTestValidator(&scriptedOracle{response: costResponse})

	result := validator.Validate(context.Background(), "ec2", "create", types.ParameterSet{
		"InstanceType":             "t2.micro",
		"ImageId":                  "ami-12345678",
		"AssociatePublicIpAddress": true,
	})

	// Warnings downgrade to warning status but never to invalid
	assert.Equal(t, types.ValidationWarning, result.Status)
	assert.Empty(t, result.Errors)
	assert.Len(t, result.Warnings, 3)
	assert.Contains(t, result.Warnings[0], "security group")
}

func TestValidateS3PublicACL(t *testing.T) {
	validator := newTestValidator(&scriptedOracle{response: costResponse})

	result := validator.Validate(context.Background(), "s3", "create", types.ParameterSet{
		"BucketName": "my-data",
		"ACL":        "public-read",
	})

	assert.Equal(t, types.ValidationWarning, result.Status)
	assert.Contains(t, result.Warnings[0], "publicly accessible")
}

func TestValidateOptimizationSuggestions(t *testing.T) {
	validator := newTestValidator(&scriptedOracle{response: costResponse})

	result := validator.Validate(context.Background(), "ec2", "create", types.ParameterSet{
		"InstanceType":     "t2.micro",
		"ImageId":          "ami-12345678",
		"KeyName":          "deploy-key",
		"SecurityGroupIds": []interface{}{"sg-123"},
	})

	assert.Equal(t, types.ValidationValid, result.Status)
	assert.Contains(t, result.OptimizationSuggestions[0], "T3 instances")
}

func TestValidateCostEstimation(t *testing.T) {
	validator := newTestValidator(&scriptedOracle{response: costResponse})

	result := validator.Validate(context.Background(), "ec2", "create", types.ParameterSet{
		"InstanceType":     "t3.micro",
		"ImageId":          "ami-12345678",
		"KeyName":          "deploy-key",
		"SecurityGroupIds": []interface{}{"sg-123"},
	})

	require.NotNil(t, result.CostEstimation)
	assert.Equal(t, "low", result.CostEstimation.EstimatedMonthlyCost)
	assert.Equal(t, "$8.50", result.CostEstimation.EstimatedCostRange.Low)
	assert.True(t, result.CostEstimation.EstimatedCostRange.LowAmount.Equal(decimal.RequireFromString("8.50")))
	assert.True(t, result.CostEstimation.EstimatedCostRange.HighAmount.Equal(decimal.RequireFromString("12.00")))
	assert.Len(t, result.CostEstimation.CostBreakdown, 1)
}

func TestValidateCostEstimationDegrades(t *testing.T) {
	validator := newTestValidator(&scriptedOracle{err: errors.New("oracle down")})

	result := validator.Validate(context.Background(), "ec2", "create", types.ParameterSet{
		"InstanceType":     "t3.micro",
		"ImageId":          "ami-12345678",
		"KeyName":          "deploy-key",
		"SecurityGroupIds": []interface{}{"sg-123"},
	})

	// A failed estimation never fails the validation
	assert.Equal(t, types.ValidationValid, result.Status)
	require.NotNil(t, result.CostEstimation)
	assert.Equal(t, "unknown", result.CostEstimation.EstimatedMonthlyCost)
	assert.Equal(t, "unknown", result.CostEstimation.EstimatedCostRange.Low)
	assert.True(t, result.CostEstimation.EstimatedCostRange.LowAmount.IsZero())
	assert.NotEmpty(t, result.CostEstimation.CostSavingRecommendations)
}

func TestValidateUnknownServicePasses(t *testing.T) {
	validator := newTestValidator(&scriptedOracle{response: costResponse})

	result := validator.Validate(context.Background(), "rds", "create", types.ParameterSet{
		"DBInstanceClass": "db.t3.micro",
	})

	// No rule tables for the pair means nothing to fail on
	assert.Equal(t, types.ValidationValid, result.Status)
}

func TestParseDollarAmount(t *testing.T) {
	tests := []struct {
		figure   string
		expected string
	}{
		{"$8.50", "8.5"},
		{"$1,200/month", "1200"},
		{"about $15", "15"},
		{"unknown", "0"},
		{"", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.figure, func(t *testing.T) {
			got := parseDollarAmount(tt.figure)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)), got.String())
		})
	}
}

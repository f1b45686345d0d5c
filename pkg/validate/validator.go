package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudprompt/aws-devops-agent/internal/logging"
	"github.com/cloudprompt/aws-devops-agent/pkg/oracle"
	"github.com/cloudprompt/aws-devops-agent/pkg/types"
)

// Validator checks a parameter set before execution. The pass order is
// fixed: basic validation halts the pipeline when it fails; security
// findings and optimization suggestions are advisory and never turn the
// result invalid.
type Validator struct {
	oracle oracle.TextOracle
	logger *logging.Logger
}

// NewValidator creates a configuration validator
func NewValidator(textOracle oracle.TextOracle, logger *logging.Logger) *Validator {
	return &Validator{oracle: textOracle, logger: logger}
}

// requiredFields lists unconditionally required fields per {service, operation}
var requiredFields = map[string][]string{
	"ec2/create":    {"InstanceType"},
	"ec2/lifecycle": {"Action"},
	"s3/create":     {"BucketName"},
}

// eitherFields lists field pairs where at least one must be present
var eitherFields = map[string][][2]string{
	"ec2/create":    {{"ImageId", "ImageDescription"}},
	"ec2/lifecycle": {{"InstanceId", "InstanceDescription"}},
}

// fieldTypes declares the expected type of known fields per {service, operation}
var fieldTypes = map[string]map[string]string{
	"ec2/create": {
		"InstanceType":             "string",
		"ImageId":                  "string",
		"KeyName":                  "string",
		"SubnetId":                 "string",
		"MinCount":                 "integer",
		"MaxCount":                 "integer",
		"EbsOptimized":             "boolean",
		"AssociatePublicIpAddress": "boolean",
		"SecurityGroupIds":         "list",
		"Tags":                     "list",
	},
	"ec2/lifecycle": {
		"Action":     "string",
		"InstanceId": "string",
		"Force":      "boolean",
	},
	"s3/create": {
		"BucketName": "string",
		"Region":     "string",
	},
}

// Validate runs the full validation pipeline for a configuration
func (v *Validator) Validate(ctx context.Context, service, operationType string, params types.ParameterSet) *types.ValidationResult {
	v.logger.WithFields(map[string]interface{}{
		"service":   service,
		"operation": operationType,
	}).Info("Validating configuration")

	errors := v.basicValidation(service, operationType, params)
	if len(errors) > 0 {
		return &types.ValidationResult{
			Status:   types.ValidationInvalid,
			Message:  "Configuration validation failed",
			Errors:   errors,
			Warnings: []string{},
		}
	}

	warnings := v.securityValidation(service, operationType, params)
	costEstimation := v.estimateCost(ctx, service, operationType, params)
	suggestions := v.suggestOptimizations(service, operationType, params)

	status := types.ValidationValid
	if len(warnings) > 0 {
		status = types.ValidationWarning
	}

	return &types.ValidationResult{
		Status:                  status,
		Message:                 "Configuration validation completed",
		Errors:                  []string{},
		Warnings:                warnings,
		CostEstimation:          costEstimation,
		OptimizationSuggestions: suggestions,
	}
}

// basicValidation checks required fields and declared types. All failures
// accumulate; validation does not stop at the first error within this pass.
func (v *Validator) basicValidation(service, operationType string, params types.ParameterSet) []string {
	key := service + "/" + operationType
	var errors []string

	for _, field := range requiredFields[key] {
		if !params.Has(field) {
			errors = append(errors, fmt.Sprintf("Required parameter '%s' is missing", field))
		}
	}

	for _, pair := range eitherFields[key] {
		if !params.Has(pair[0]) && !params.Has(pair[1]) {
			errors = append(errors, fmt.Sprintf("Either %s or %s is required", pair[0], pair[1]))
		}
	}

	for field, declared := range fieldTypes[key] {
		if !params.Has(field) {
			continue
		}
		if !typeMatches(params[field], declared) {
			errors = append(errors, fmt.Sprintf("%s must be %s", field, typeArticle(declared)))
		}
	}

	return errors
}

// securityValidation flags security-posture issues. Findings here are
// warnings, not errors.
func (v *Validator) securityValidation(service, operationType string, params types.ParameterSet) []string {
	warnings := []string{}

	switch service + "/" + operationType {
	case "ec2/create":
		if !params.Has("SecurityGroupIds") && !params.Has("SecurityGroups") {
			warnings = append(warnings, "No security groups specified. Default security group will be used, which may not be secure.")
		}
		if params.GetBool("AssociatePublicIpAddress") {
			warnings = append(warnings, "Instance will be assigned a public IP address. Ensure this is intended.")
		}
		if !params.Has("KeyName") {
			warnings = append(warnings, "No SSH key specified. You may not be able to access the instance via SSH.")
		}

	case "s3/create":
		if acl := params.GetString("ACL"); acl == "public-read" || acl == "public-read-write" {
			warnings = append(warnings, "Bucket will be publicly accessible. Ensure this is intended.")
		}
		if !params.Has("BucketEncryption") {
			warnings = append(warnings, "Bucket encryption not specified. Consider enabling encryption for sensitive data.")
		}
	}

	return warnings
}

// suggestOptimizations returns rule-based optimization suggestions keyed off
// specific parameter patterns. Purely additive, no side effects.
func (v *Validator) suggestOptimizations(service, operationType string, params types.ParameterSet) []string {
	var suggestions []string

	switch service + "/" + operationType {
	case "ec2/create":
		instanceType := params.GetString("InstanceType")

		if strings.HasPrefix(instanceType, "t2.") {
			suggestions = append(suggestions, "Consider using T3 instances instead of T2 for better price-performance ratio.")
		}
		if !params.GetBool("EbsOptimized") && !strings.HasPrefix(instanceType, "t2.") && !strings.HasPrefix(instanceType, "t3.") {
			suggestions = append(suggestions, "Consider enabling EBS optimization for better storage performance.")
		}
		if !params.Has("InstanceMarketOptions") {
			suggestions = append(suggestions, "Consider using Spot instances for non-critical workloads to reduce costs.")
		}

	case "s3/create":
		if !params.Has("LifecycleConfiguration") {
			suggestions = append(suggestions, "Consider adding lifecycle policies to automatically transition objects to cheaper storage classes or delete old objects.")
		}
		suggestions = append(suggestions, "Consider using S3 Intelligent-Tiering storage class for objects with changing or unknown access patterns.")
	}

	return suggestions
}

// typeMatches checks a decoded-JSON value against a declared type
func typeMatches(value interface{}, declared string) bool {
	switch declared {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch n := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return n == float64(int64(n))
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "list":
		switch value.(type) {
		case []interface{}, []string, []map[string]interface{}:
			return true
		}
		return false
	}
	return true
}

func typeArticle(declared string) string {
	switch declared {
	case "integer":
		return "an integer"
	case "list":
		return "a list"
	default:
		return "a " + declared
	}
}

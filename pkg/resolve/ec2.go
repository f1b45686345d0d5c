package resolve

import (
	"regexp"
	"strings"

	"github.com/cloudprompt/aws-devops-agent/internal/config"
	"github.com/cloudprompt/aws-devops-agent/internal/logging"
	"github.com/cloudprompt/aws-devops-agent/pkg/types"
)

// instanceIDPattern matches the AWS instance-id shape embedded in prompt text
var instanceIDPattern = regexp.MustCompile(`i-[a-z0-9]{8,17}`)

// EC2Resolver fills in and normalizes EC2 parameter values using defaults
// and the configured lookup tables. Resolution never overwrites a field the
// caller already supplied, so resolving a complete parameter set is a no-op.
type EC2Resolver struct {
	tables *config.ResolverTablesConfig
	logger *logging.Logger
}

// NewEC2Resolver creates an EC2 parameter resolver
func NewEC2Resolver(tables *config.ResolverTablesConfig, logger *logging.Logger) *EC2Resolver {
	return &EC2Resolver{tables: tables, logger: logger}
}

// Resolve applies defaults and transformations for an EC2 operation
func (r *EC2Resolver) Resolve(params types.ParameterSet, operationType string) types.ParameterSet {
	out := params.Clone()

	if operationType == types.OperationCreate {
		if !out.Has("MinCount") {
			out["MinCount"] = 1
		}
		if !out.Has("MaxCount") {
			out["MaxCount"] = 1
		}

		if out.Has("InstanceTypeDescription") && !out.Has("InstanceType") {
			out["InstanceType"] = r.resolveInstanceType(out.GetString("InstanceTypeDescription"))
		}

		if out.Has("ImageDescription") && !out.Has("ImageId") {
			out["ImageId"] = r.resolveImageID(out.GetString("ImageDescription"))
		}

		normalizeTags(out)
	}

	return out
}

// ResolveLifecycle normalizes a lifecycle parameter set: the action is
// mapped onto the closed action set, and an instance id embedded in the raw
// prompt is extracted when the field is absent.
func (r *EC2Resolver) ResolveLifecycle(prompt string, params types.ParameterSet) types.ParameterSet {
	out := params.Clone()

	out["Action"] = ResolveAction(out.GetString("Action"))

	if !out.Has("InstanceId") {
		if id := ExtractInstanceID(prompt); id != "" {
			out["InstanceId"] = id
		}
	}

	return out
}

// resolveInstanceType maps a qualitative description onto a concrete
// instance type by ordered substring matching; the first rule whose keyword
// groups all match wins. This is a deliberately lossy heuristic: callers
// wanting an exact type supply InstanceType directly.
func (r *EC2Resolver) resolveInstanceType(description string) string {
	description = strings.ToLower(description)

	for _, rule := range r.tables.InstanceTypes {
		if matchesAllGroups(description, rule.AllOf) {
			return rule.InstanceType
		}
	}
	return r.tables.DefaultInstanceType
}

// resolveImageID maps an image description onto a concrete AMI ID; first
// matching entry wins, default entry wins if none match
func (r *EC2Resolver) resolveImageID(description string) string {
	description = strings.ToLower(description)

	for _, rule := range r.tables.Images {
		for _, keyword := range rule.Match {
			if strings.Contains(description, keyword) {
				return rule.ImageID
			}
		}
	}
	return r.tables.DefaultImageID
}

// matchesAllGroups reports whether every keyword group has at least one
// substring match in the description
func matchesAllGroups(description string, groups [][]string) bool {
	for _, group := range groups {
		matched := false
		for _, keyword := range group {
			if strings.Contains(description, keyword) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return len(groups) > 0
}

// normalizeTags rewrites a tag-key to tag-value mapping into the sequence of
// {Key, Value} records the provider API expects
func normalizeTags(params types.ParameterSet) {
	tagMap, ok := params["Tags"].(map[string]interface{})
	if !ok {
		return
	}

	tags := make([]interface{}, 0, len(tagMap))
	for key, value := range tagMap {
		tags = append(tags, map[string]interface{}{"Key": key, "Value": value})
	}
	params["Tags"] = tags
}

// ExtractInstanceID returns the first instance id embedded in the text, or ""
func ExtractInstanceID(text string) string {
	return instanceIDPattern.FindString(strings.ToLower(text))
}

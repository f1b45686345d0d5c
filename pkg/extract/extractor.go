package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudprompt/aws-devops-agent/internal/logging"
	"github.com/cloudprompt/aws-devops-agent/pkg/oracle"
	"github.com/cloudprompt/aws-devops-agent/pkg/schema"
	"github.com/cloudprompt/aws-devops-agent/pkg/types"
)

// Extractor turns free-text prompts into structured parameter sets via the
// oracle. Schema validation of the extracted object is advisory: failures
// are logged as warnings and never block the pipeline.
type Extractor struct {
	oracle  oracle.TextOracle
	schemas *schema.Store
	logger  *logging.Logger
}

// NewExtractor creates a parameter extractor
func NewExtractor(textOracle oracle.TextOracle, schemas *schema.Store, logger *logging.Logger) *Extractor {
	return &Extractor{
		oracle:  textOracle,
		schemas: schemas,
		logger:  logger,
	}
}

// Extract pulls service-specific parameters for the given operation out of a
// user prompt
func (e *Extractor) Extract(ctx context.Context, prompt, service, operationType string) (types.ParameterSet, error) {
	e.logger.WithFields(map[string]interface{}{
		"service":   service,
		"operation": operationType,
	}).Info("Extracting parameters")

	var loaded *schema.Schema
	if e.schemas != nil {
		loaded, _ = e.schemas.Load(service, operationType)
	}

	systemPrompt := e.buildSystemPrompt(service, operationType, loaded)

	response, err := e.oracle.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to extract parameters: %w", err)
	}

	parameters, err := ExtractObject(response)
	if err != nil {
		e.logger.WithError(err).WithField("response_preview", preview(response, 200)).
			Error("Failed to parse parameters from oracle response")
		return nil, err
	}

	if loaded != nil {
		issues, err := loaded.Validate(parameters)
		if err != nil {
			e.logger.WithError(err).Warn("Parameter schema validation errored")
		} else if len(issues) > 0 {
			// Advisory only: the extracted object is returned regardless
			e.logger.WithField("issues", issues).Warn("Parameter schema validation failed")
		}
	}

	return types.ParameterSet(parameters), nil
}

// TranslateBusinessRequirements translates business requirements into AWS
// technical specifications
func (e *Extractor) TranslateBusinessRequirements(ctx context.Context, prompt string) (map[string]interface{}, error) {
	e.logger.Info("Translating business requirements to technical specifications")

	response, err := e.oracle.Complete(ctx, businessRequirementsPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to translate business requirements: %w", err)
	}

	specifications, err := ExtractObject(response)
	if err != nil {
		return nil, err
	}
	return specifications, nil
}

// IdentifyAmbiguities returns clarifying questions for missing or ambiguous
// information in a prompt. Failures degrade to a single explanatory entry
// rather than an error.
func (e *Extractor) IdentifyAmbiguities(ctx context.Context, prompt string, extracted types.ParameterSet) []string {
	e.logger.Info("Identifying ambiguities in user prompt")

	paramsJSON, _ := json.MarshalIndent(extracted, "", "  ")
	userText := fmt.Sprintf("User prompt: %s\n\nExtracted parameters: %s", prompt, paramsJSON)

	response, err := e.oracle.Complete(ctx, ambiguityPrompt, userText)
	if err != nil {
		return []string{fmt.Sprintf("Could not identify ambiguities: %v", err)}
	}

	var questions []string
	if err := ExtractInto(response, &questions); err != nil {
		return []string{fmt.Sprintf("Could not identify ambiguities: %v", err)}
	}
	return questions
}

// buildSystemPrompt creates the extraction instruction for a service and
// operation, embedding the parameter schema when one is available
func (e *Extractor) buildSystemPrompt(service, operationType string, loaded *schema.Schema) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an AWS DevOps assistant specialized in extracting parameters for %s %s operations.\n\n",
		strings.ToUpper(service), operationType)
	fmt.Fprintf(&b, "Given a user's request, extract all relevant parameters for a %s %s operation.\n\n",
		strings.ToUpper(service), operationType)
	b.WriteString("Format your response as a JSON object with the extracted parameters.\n")

	if loaded != nil {
		b.WriteString("\nThe parameters should conform to the following schema:\n")
		b.Write(loaded.Raw)
		b.WriteString("\n")
	}

	switch service {
	case "ec2":
		switch operationType {
		case types.OperationCreate:
			b.WriteString(`
For EC2 instance creation, be sure to extract:
- InstanceType (e.g., t2.micro, m5.large)
- ImageId (AMI ID) or ImageDescription for the desired image
- KeyName if mentioned
- SecurityGroupIds or security group descriptions
- SubnetId or VPC information
- Any tags to be applied
- User data scripts if mentioned
`)
		case types.OperationLifecycle:
			b.WriteString(`
For EC2 lifecycle operations, be sure to extract:
- The specific Action (start, stop, reboot, terminate)
- InstanceId or InstanceDescription for the target instance
- Force flag for terminate operations if mentioned
`)
		}
	case "s3":
		if operationType == types.OperationCreate {
			b.WriteString(`
For S3 bucket creation, be sure to extract:
- BucketName
- Region
- ACL settings if mentioned
- Versioning configuration
- Encryption settings
`)
		}
	}

	return b.String()
}

const businessRequirementsPrompt = `You are an AWS solutions architect. Your task is to translate business requirements into specific AWS technical specifications.

Given a set of business requirements, provide:
1. The AWS services that should be used
2. The specific configurations for each service
3. Any connections or dependencies between services
4. Estimated costs (low/medium/high)
5. Security considerations

Format your response as a JSON object with the following structure:
{
    "services": [
        {
            "name": "service_name",
            "purpose": "why this service is needed",
            "configuration": {
                "param1": "value1",
                "param2": "value2"
            }
        }
    ],
    "connections": [
        {
            "from": "service1",
            "to": "service2",
            "type": "connection_type"
        }
    ],
    "estimated_cost": "low/medium/high",
    "security_considerations": [
        "consideration1",
        "consideration2"
    ]
}`

const ambiguityPrompt = `You are an AWS DevOps assistant. Your task is to identify ambiguities or missing information in a user's request.

Given a user prompt and the parameters that have been extracted so far, identify any missing or ambiguous information that would be needed to fulfill the request.

Format your response as a JSON array of questions to ask the user:
[
    "question1",
    "question2"
]

Only include questions for truly ambiguous or missing information. Do not ask questions if the information can be reasonably inferred or if it's not essential.`

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

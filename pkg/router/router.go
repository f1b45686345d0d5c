package router

import (
	"context"
	"strings"

	"github.com/cloudprompt/aws-devops-agent/internal/config"
	"github.com/cloudprompt/aws-devops-agent/internal/logging"
	"github.com/cloudprompt/aws-devops-agent/pkg/extract"
	"github.com/cloudprompt/aws-devops-agent/pkg/oracle"
	"github.com/cloudprompt/aws-devops-agent/pkg/resolve"
	"github.com/cloudprompt/aws-devops-agent/pkg/types"
)

// fallbackConfidence is reported when the rule-based path classified the
// prompt. The value is an advisory signal only, pinned below the confidence
// the oracle path typically reports; it carries no calibration semantics.
const fallbackConfidence = 0.5

// proximityWindow bounds how far (in bytes) a lifecycle keyword may sit from
// an instance noun before the phrase stops counting as a lifecycle request.
// Keeps "create a server that starts automatically" out of the lifecycle path.
const proximityWindow = 20

const classificationPrompt = `You are an AWS DevOps routing assistant. Your job is to analyze a user's prompt and determine:
1. Which AWS service they want to interact with (EC2, S3, RDS, Lambda, VPC, etc.)
2. What operation they want to perform (create, read, update, delete, lifecycle)
3. If it's an EC2 lifecycle operation (start, stop, reboot, terminate)

Respond with a JSON object containing:
{
    "service": "service_name",
    "operation_type": "operation_type",
    "is_lifecycle": true/false,
    "confidence": 0.0-1.0
}`

// ResourceAgent processes prompts for one resource family
type ResourceAgent interface {
	ProcessPrompt(ctx context.Context, prompt, operationType string) *types.OperationEnvelope
}

// AgentSet is the closed set of resource agents the router dispatches to.
// New services are new fields, wired at construction.
type AgentSet struct {
	EC2Create    ResourceAgent
	EC2Lifecycle ResourceAgent
}

// Router classifies prompts by service and operation and dispatches them to
// the matching resource agent. Classification prefers the oracle; a
// rule-based keyword fallback covers oracle failures.
type Router struct {
	oracle   oracle.TextOracle
	keywords *config.RoutingKeywordsConfig
	agents   AgentSet
	logger   *logging.Logger
}

// NewRouter creates a service router
func NewRouter(textOracle oracle.TextOracle, keywords *config.RoutingKeywordsConfig, agents AgentSet, logger *logging.Logger) *Router {
	return &Router{
		oracle:   textOracle,
		keywords: keywords,
		agents:   agents,
		logger:   logger,
	}
}

// Route classifies a prompt and dispatches it to the appropriate agent. The
// routing decision is attached to the returned envelope unconditionally,
// including agent-level errors.
func (r *Router) Route(ctx context.Context, prompt string) *types.OperationEnvelope {
	decision := r.Classify(ctx, prompt)
	r.logger.LogPromptRouting(decision.Service, decision.OperationType, decision.IsLifecycle, decision.Confidence)

	agent := r.selectAgent(decision)
	if agent == nil {
		env := types.NewErrorEnvelope("No agent available for service: "+decision.Service, nil)
		env.RoutingInfo = decision
		return env
	}

	envelope := agent.ProcessPrompt(ctx, prompt, decision.OperationType)
	envelope.RoutingInfo = decision
	return envelope
}

// Classify determines {service, operation, lifecycle, confidence} for a
// prompt, falling back to rule-based classification when the oracle call
// fails or its output cannot be parsed
func (r *Router) Classify(ctx context.Context, prompt string) *types.RoutingDecision {
	response, err := r.oracle.Complete(ctx, classificationPrompt, prompt)
	if err != nil {
		r.logger.WithError(err).Warn("Oracle routing failed, using rule-based fallback")
		return r.classifyFallback(prompt)
	}

	var decision types.RoutingDecision
	if err := extract.ExtractInto(response, &decision); err != nil {
		r.logger.WithError(err).Warn("Unparsable oracle routing response, using rule-based fallback")
		return r.classifyFallback(prompt)
	}

	decision.Service = strings.ToLower(decision.Service)
	decision.OperationType = strings.ToLower(decision.OperationType)
	if decision.Service == "" {
		decision.Service = "unknown"
	}
	if decision.OperationType == "" {
		decision.OperationType = types.OperationRead
	}
	return &decision
}

// classifyFallback is the rule-based classification path
func (r *Router) classifyFallback(prompt string) *types.RoutingDecision {
	return &types.RoutingDecision{
		Service:       r.identifyService(prompt),
		OperationType: r.identifyOperationType(prompt),
		IsLifecycle:   r.isLifecycleOperation(prompt),
		Confidence:    fallbackConfidence,
	}
}

// identifyService returns the first service whose keyword set matches the
// prompt, or "unknown"
func (r *Router) identifyService(prompt string) string {
	promptLower := strings.ToLower(prompt)

	for _, service := range r.keywords.Services {
		for _, keyword := range service.Keywords {
			if strings.Contains(promptLower, keyword) {
				return service.Name
			}
		}
	}
	return "unknown"
}

// identifyOperationType returns the first operation type whose keyword set
// matches the prompt, defaulting to read
func (r *Router) identifyOperationType(prompt string) string {
	promptLower := strings.ToLower(prompt)

	for _, op := range r.keywords.Operations {
		for _, keyword := range op.Keywords {
			if strings.Contains(promptLower, keyword) {
				return op.Name
			}
		}
	}
	return types.OperationRead
}

// isLifecycleOperation reports whether the prompt requests a lifecycle
// action on an existing instance. A lifecycle keyword alone is not enough:
// it must be backed by an embedded instance id, or sit within the proximity
// window of an instance noun.
func (r *Router) isLifecycleOperation(prompt string) bool {
	promptLower := strings.ToLower(prompt)

	var lifecycleKeywords []string
	for _, op := range r.keywords.Operations {
		if op.Name == types.OperationLifecycle {
			lifecycleKeywords = op.Keywords
			break
		}
	}

	for _, keyword := range lifecycleKeywords {
		keywordIndex := strings.Index(promptLower, keyword)
		if keywordIndex == -1 {
			continue
		}

		if resolve.ExtractInstanceID(promptLower) != "" {
			return true
		}

		for _, noun := range r.keywords.InstanceNouns {
			nounIndex := strings.Index(promptLower, noun)
			if nounIndex != -1 && abs(keywordIndex-nounIndex) < proximityWindow {
				return true
			}
		}
	}

	return false
}

// selectAgent picks the agent for a routing decision; nil when the service
// is unknown or unregistered
func (r *Router) selectAgent(decision *types.RoutingDecision) ResourceAgent {
	if decision.Service == "ec2" && decision.IsLifecycle && r.agents.EC2Lifecycle != nil {
		return r.agents.EC2Lifecycle
	}
	if decision.Service == "ec2" {
		return r.agents.EC2Create
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

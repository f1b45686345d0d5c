package agents

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cloudprompt/aws-devops-agent/internal/config"
	"github.com/cloudprompt/aws-devops-agent/internal/logging"
	"github.com/cloudprompt/aws-devops-agent/pkg/extract"
	"github.com/cloudprompt/aws-devops-agent/pkg/oracle"
	"github.com/cloudprompt/aws-devops-agent/pkg/resolve"
	"github.com/cloudprompt/aws-devops-agent/pkg/router"
	"github.com/cloudprompt/aws-devops-agent/pkg/schema"
	"github.com/cloudprompt/aws-devops-agent/pkg/types"
	"github.com/cloudprompt/aws-devops-agent/pkg/validate"
)

// DevOpsAgent owns the request/confirm/execute lifecycle exposed to the
// caller. No component behind it holds mutable cross-request state; the
// agent can serve concurrent independent requests.
type DevOpsAgent struct {
	config *config.Config
	logger *logging.Logger

	router       *router.Router
	ec2Create    *EC2CreateAgent
	ec2Lifecycle *EC2LifecycleAgent
}

// New builds a DevOps agent with an LLM oracle constructed from the
// configuration. The provider may be nil: prompts still process, execution
// reports the missing client.
func New(cfg *config.Config, provider Provider, logger *logging.Logger) (*DevOpsAgent, error) {
	textOracle, err := oracle.New(&cfg.Agent, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize oracle: %w", err)
	}
	return NewWithOracle(cfg, textOracle, provider, logger)
}

// NewWithOracle builds a DevOps agent around an existing oracle
func NewWithOracle(cfg *config.Config, textOracle oracle.TextOracle, provider Provider, logger *logging.Logger) (*DevOpsAgent, error) {
	settings := config.NewSettingsLoader(cfg.Agent.SettingsDir)

	keywords, err := settings.LoadRoutingKeywords()
	if err != nil {
		return nil, err
	}
	tables, err := settings.LoadResolverTables()
	if err != nil {
		return nil, err
	}

	schemas := schema.NewStore(cfg.Agent.SchemaDir, logger)
	extractor := extract.NewExtractor(textOracle, schemas, logger)
	resolver := resolve.NewEC2Resolver(tables, logger)
	validator := validate.NewValidator(textOracle, logger)

	agent := &DevOpsAgent{
		config:       cfg,
		logger:       logger,
		ec2Create:    NewEC2CreateAgent(extractor, resolver, validator, provider, logger),
		ec2Lifecycle: NewEC2LifecycleAgent(extractor, resolver, validator, provider, logger),
	}

	agent.router = router.NewRouter(textOracle, keywords, router.AgentSet{
		EC2Create:    agent.ec2Create,
		EC2Lifecycle: agent.ec2Lifecycle,
	}, logger)

	logger.Info("AWS DevOps agent initialized")
	return agent, nil
}

// ProcessPrompt routes a prompt through classification, extraction,
// resolution and validation, returning the envelope for confirmation
func (d *DevOpsAgent) ProcessPrompt(ctx context.Context, prompt string) *types.OperationEnvelope {
	d.logger.WithField("prompt", prompt).Info("Processing prompt")

	envelope := d.router.Route(ctx, prompt)
	envelope.ID = uuid.NewString()
	return envelope
}

// ConfirmOperation wraps an envelope into a confirmation request
func (d *DevOpsAgent) ConfirmOperation(envelope *types.OperationEnvelope) *types.ExecutionResult {
	return &types.ExecutionResult{
		Status:  types.StatusConfirmationRequired,
		Message: "Please confirm this operation before proceeding.",
	}
}

// ExecuteOperation executes a processed operation. An envelope requiring
// confirmation is never executed without the explicit confirmed flag.
func (d *DevOpsAgent) ExecuteOperation(ctx context.Context, envelope *types.OperationEnvelope, confirmed bool) *types.ExecutionResult {
	if envelope == nil {
		return types.NewErrorResult("No operation to execute", nil)
	}

	if envelope.RequiresConfirmation && !confirmed {
		return d.ConfirmOperation(envelope)
	}

	d.logger.WithFields(map[string]interface{}{
		"service":   envelope.Service,
		"operation": envelope.OperationType,
	}).Info("Executing operation")

	switch {
	case envelope.Service == "ec2" && envelope.OperationType == types.OperationLifecycle:
		return d.ec2Lifecycle.Execute(ctx, envelope)
	case envelope.Service == "ec2":
		return d.ec2Create.Execute(ctx, envelope)
	default:
		return types.NewErrorResult("No agent available for service: "+envelope.Service, nil)
	}
}

// AnalyzeRequirements translates business requirements into technical
// specifications without executing anything
func (d *DevOpsAgent) AnalyzeRequirements(ctx context.Context, prompt string) (map[string]interface{}, error) {
	return d.ec2Create.extractor.TranslateBusinessRequirements(ctx, prompt)
}

// IdentifyAmbiguities returns clarifying questions for a processed envelope
func (d *DevOpsAgent) IdentifyAmbiguities(ctx context.Context, prompt string, envelope *types.OperationEnvelope) []string {
	var params types.ParameterSet
	if envelope != nil {
		params = envelope.Parameters
	}
	return d.ec2Create.extractor.IdentifyAmbiguities(ctx, prompt, params)
}

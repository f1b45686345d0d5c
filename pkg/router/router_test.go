package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudprompt/aws-devops-agent/internal/config"
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

// recordingAgent captures the dispatch so tests can assert routing
type recordingAgent struct {
	called   bool
	prompt   string
	envelope *types.OperationEnvelope
}

func (a *recordingAgent) ProcessPrompt(ctx context.Context, prompt, operationType string) *types.OperationEnvelope {
	a.called = true
	a.prompt = prompt
	if a.envelope != nil {
		return a.envelope
	}
	return &types.OperationEnvelope{Status: types.StatusSuccess}
}

func newTestRouter(oracle *scriptedOracle, agents AgentSet) *Router {
	return NewRouter(oracle, config.DefaultRoutingKeywords(), agents, logging.NewLogger("error", "text"))
}

func TestClassifyOraclePath(t *testing.T) {
	oracle := &scriptedOracle{response: `{"service": "EC2", "operation_type": "Create", "is_lifecycle": false, "confidence": 0.95}`}
	router := newTestRouter(oracle, AgentSet{})

	decision := router.Classify(context.Background(), "Create an EC2 instance")

	assert.Equal(t, "ec2", decision.Service)
	assert.Equal(t, types.OperationCreate, decision.OperationType)
	assert.False(t, decision.IsLifecycle)
	assert.InDelta(t, 0.95, decision.Confidence, 0.001)
}

func TestClassifyOracleEmptyFields(t *testing.T) {
	oracle := &scriptedOracle{response: `{"confidence": 0.4}`}
	router := newTestRouter(oracle, AgentSet{})

	decision := router.Classify(context.Background(), "Do something")

	assert.Equal(t, "unknown", decision.Service)
	assert.Equal(t, types.OperationRead, decision.OperationType)
}

func TestClassifyFallback(t *testing.T) {
	tests := []struct {
		name        string
		prompt      string
		service     string
		operation   string
		isLifecycle bool
	}{
		{
			name:      "ec2 create",
			prompt:    "Create an EC2 instance with t2.micro",
			service:   "ec2",
			operation: types.OperationCreate,
		},
		{
			name:        "lifecycle by instance id",
			prompt:      "Stop the EC2 instance with ID i-1234567890abcdef0",
			service:     "ec2",
			operation:   types.OperationLifecycle,
			isLifecycle: true,
		},
		{
			name:      "s3 bucket",
			prompt:    "Make a new S3 bucket for logs",
			service:   "s3",
			operation: types.OperationRead,
		},
		{
			name:      "unknown service",
			prompt:    "Order a pizza",
			service:   "unknown",
			operation: types.OperationRead,
		},
	}

	failing := &scriptedOracle{err: errors.New("oracle unavailable")}
	router := newTestRouter(failing, AgentSet{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := router.Classify(context.Background(), tt.prompt)

			assert.Equal(t, tt.service, decision.Service)
			assert.Equal(t, tt.operation, decision.OperationType)
			assert.Equal(t, tt.isLifecycle, decision.IsLifecycle)
			assert.InDelta(t, fallbackConfidence, decision.Confidence, 0.001)
		})
	}
}

func TestClassifyFallbackOnMalformedOracleOutput(t *testing.T) {
	oracle := &scriptedOracle{response: "I think you want an EC2 instance."}
	router := newTestRouter(oracle, AgentSet{})

	decision := router.Classify(context.Background(), "Create an EC2 instance")

	assert.Equal(t, "ec2", decision.Service)
	assert.InDelta(t, fallbackConfidence, decision.Confidence, 0.001)
}

func TestIsLifecycleOperation(t *testing.T) {
	tests := []struct {
		name     string
		prompt   string
		expected bool
	}{
		{
			name:     "keyword with instance id",
			prompt:   "Stop the EC2 instance with ID i-1234567890abcdef0",
			expected: true,
		},
		{
			name:     "keyword adjacent to instance noun",
			prompt:   "Please stop the server tonight",
			expected: true,
		},
		{
			name:     "keyword far from instance noun",
			prompt:   "Start by reviewing our costs, then tell me about the biggest instance",
			expected: false,
		},
		{
			name:     "no lifecycle keyword",
			prompt:   "Describe the instance fleet",
			expected: false,
		},
	}

	router := newTestRouter(&scriptedOracle{}, AgentSet{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, router.isLifecycleOperation(tt.prompt))
		})
	}
}

func TestRouteDispatchesToCreateAgent(t *testing.T) {
	oracle := &scriptedOracle{response: `{"service": "ec2", "operation_type": "create", "is_lifecycle": false, "confidence": 0.9}`}
	create := &recordingAgent{}
	lifecycle := &recordingAgent{}
	router := newTestRouter(oracle, AgentSet{EC2Create: create, EC2Lifecycle: lifecycle})

	envelope := router.Route(context.Background(), "Create an EC2 instance")

	assert.True(t, create.called)
	assert.False(t, lifecycle.called)
	require.NotNil(t, envelope.RoutingInfo)
	assert.Equal(t, "ec2", envelope.RoutingInfo.Service)
}

func TestRouteDispatchesToLifecycleAgent(t *testing.T) {
	oracle := &scriptedOracle{response: `{"service": "ec2", "operation_type": "lifecycle", "is_lifecycle": true, "confidence": 0.9}`}
	create := &recordingAgent{}
	lifecycle := &recordingAgent{}
	router := newTestRouter(oracle, AgentSet{EC2Create: create, EC2Lifecycle: lifecycle})

	router.Route(context.Background(), "Stop instance i-1234567890abcdef0")

	assert.False(t, create.called)
	assert.True(t, lifecycle.called)
}

func TestRouteUnknownService(t *testing.T) {
	oracle := &scriptedOracle{response: `{"service": "rds", "operation_type": "create", "confidence": 0.9}`}
	router := newTestRouter(oracle, AgentSet{EC2Create: &recordingAgent{}})

	envelope := router.Route(context.Background(), "Create a database")

	assert.Equal(t, types.StatusError, envelope.Status)
	assert.Contains(t, envelope.Message, "No agent available")
	// Routing info is attached even on the error path
	require.NotNil(t, envelope.RoutingInfo)
	assert.Equal(t, "rds", envelope.RoutingInfo.Service)
}

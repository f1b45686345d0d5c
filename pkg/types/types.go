package types

import (
	"github.com/shopspring/decimal"
)

// Envelope and execution statuses exposed to the caller
const (
	StatusSuccess              = "success"
	StatusError                = "error"
	StatusInvalid              = "invalid"
	StatusConfirmationRequired = "confirmation_required"
)

// Validation statuses
const (
	ValidationValid   = "valid"
	ValidationInvalid = "invalid"
	ValidationWarning = "warning"
)

// Operation types
const (
	OperationCreate    = "create"
	OperationRead      = "read"
	OperationUpdate    = "update"
	OperationDelete    = "delete"
	OperationLifecycle = "lifecycle"
)

// Lifecycle actions
const (
	ActionStart     = "start"
	ActionStop      = "stop"
	ActionReboot    = "reboot"
	ActionTerminate = "terminate"
)

// ParameterSet is the mapping of extracted and resolved operation parameters.
// Values are the usual decoded-JSON shapes: string, float64, bool, []interface{}
// and nested maps.
type ParameterSet map[string]interface{}

// Has reports whether the field is present with a non-nil value
func (p ParameterSet) Has(field string) bool {
	v, ok := p[field]
	return ok && v != nil
}

// GetString returns the field as a string, or "" when absent or not a string
func (p ParameterSet) GetString(field string) string {
	if v, ok := p[field].(string); ok {
		return v
	}
	return ""
}

// GetBool returns the field as a bool, or false when absent or not a bool
func (p ParameterSet) GetBool(field string) bool {
	if v, ok := p[field].(bool); ok {
		return v
	}
	return false
}

// Clone returns a shallow copy of the parameter set
func (p ParameterSet) Clone() ParameterSet {
	out := make(ParameterSet, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// RoutingDecision is the classification of a prompt into a target service
// and operation. Confidence is advisory only; the fallback path pins it to a
// constant below the oracle path.
type RoutingDecision struct {
	Service       string  `json:"service"`
	OperationType string  `json:"operation_type"`
	IsLifecycle   bool    `json:"is_lifecycle"`
	Confidence    float64 `json:"confidence"`
}

// CostRange is a monthly cost bracket. Low and High carry the oracle's raw
// figures (e.g. "$8.50"); LowAmount and HighAmount are the parsed values,
// zero when the raw figure was not parseable.
type CostRange struct {
	Low        string          `json:"low"`
	High       string          `json:"high"`
	LowAmount  decimal.Decimal `json:"low_amount"`
	HighAmount decimal.Decimal `json:"high_amount"`
}

// CostComponent is one itemized entry of a cost breakdown
type CostComponent struct {
	Component     string `json:"component"`
	Description   string `json:"description"`
	EstimatedCost string `json:"estimated_cost"`
}

// CostEstimation is the structured cost summary for a configuration
type CostEstimation struct {
	EstimatedMonthlyCost      string          `json:"estimated_monthly_cost"`
	EstimatedCostRange        CostRange       `json:"estimated_cost_range"`
	CostBreakdown             []CostComponent `json:"cost_breakdown"`
	CostSavingRecommendations []string        `json:"cost_saving_recommendations"`
}

// ValidationResult is the outcome of validating a ParameterSet. It never
// mutates the parameters it was derived from.
type ValidationResult struct {
	Status                  string          `json:"status"`
	Message                 string          `json:"message"`
	Errors                  []string        `json:"errors"`
	Warnings                []string        `json:"warnings"`
	CostEstimation          *CostEstimation `json:"cost_estimation,omitempty"`
	OptimizationSuggestions []string        `json:"optimization_suggestions,omitempty"`
}

// OperationEnvelope is the contract handed back to the caller before any
// side-effecting call is made. It lives only for one request/confirm/execute
// cycle.
type OperationEnvelope struct {
	ID                   string            `json:"id,omitempty"`
	Status               string            `json:"status"`
	Message              string            `json:"message,omitempty"`
	Service              string            `json:"service,omitempty"`
	OperationType        string            `json:"operation_type,omitempty"`
	Parameters           ParameterSet      `json:"parameters,omitempty"`
	Validation           *ValidationResult `json:"validation,omitempty"`
	RequiresConfirmation bool              `json:"requires_confirmation"`
	RoutingInfo          *RoutingDecision  `json:"routing_info,omitempty"`
	Errors               []string          `json:"errors,omitempty"`
	Error                string            `json:"error,omitempty"`
}

// ExecutionResult is the terminal value of a confirmed execution
type ExecutionResult struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Result  map[string]interface{} `json:"result,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// NewErrorEnvelope builds an error envelope with a message
func NewErrorEnvelope(message string, err error) *OperationEnvelope {
	env := &OperationEnvelope{
		Status:  StatusError,
		Message: message,
	}
	if err != nil {
		env.Error = err.Error()
	}
	return env
}

// NewErrorResult builds an error execution result with a message
func NewErrorResult(message string, err error) *ExecutionResult {
	res := &ExecutionResult{
		Status:  StatusError,
		Message: message,
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

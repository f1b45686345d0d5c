package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cloudprompt/aws-devops-agent/pkg/extract"
	"github.com/cloudprompt/aws-devops-agent/pkg/types"
)

const costEstimationPrompt = `You are an AWS cost estimation expert. Your task is to estimate the cost of an AWS resource based on its configuration.

Provide a cost estimation with the following information:
1. Estimated monthly cost (low, medium, high)
2. Cost breakdown by component
3. Cost-saving recommendations

Format your response as a JSON object with the following structure:
{
    "estimated_monthly_cost": "low/medium/high",
    "estimated_cost_range": {
        "low": "$X",
        "high": "$Y"
    },
    "cost_breakdown": [
        {
            "component": "component_name",
            "description": "cost_description",
            "estimated_cost": "$Z"
        }
    ],
    "cost_saving_recommendations": [
        "recommendation1",
        "recommendation2"
    ]
}`

// dollarAmountPattern picks the numeric portion out of figures like "$1,234.56"
var dollarAmountPattern = regexp.MustCompile(`[0-9][0-9,]*\.?[0-9]*`)

// estimateCost asks the oracle for a cost summary of the configuration. Any
// failure on this path degrades to the "unknown" placeholder; it never
// surfaces an error to the caller.
func (v *Validator) estimateCost(ctx context.Context, service, operationType string, params types.ParameterSet) *types.CostEstimation {
	configJSON, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		v.logger.WithError(err).Error("Error marshaling configuration for cost estimation")
		return unknownCostEstimation()
	}

	userText := fmt.Sprintf("Service: %s\nOperation: %s\nConfiguration: %s", service, operationType, configJSON)

	response, err := v.oracle.Complete(ctx, costEstimationPrompt, userText)
	if err != nil {
		v.logger.WithError(err).Error("Error estimating cost")
		return unknownCostEstimation()
	}

	var estimation types.CostEstimation
	if err := extract.ExtractInto(response, &estimation); err != nil {
		v.logger.WithError(err).Error("Error parsing cost estimation response")
		return unknownCostEstimation()
	}

	if estimation.EstimatedMonthlyCost == "" {
		estimation.EstimatedMonthlyCost = "unknown"
	}
	normalizeCostRange(&estimation.EstimatedCostRange)

	return &estimation
}

// normalizeCostRange parses the oracle's dollar figures into decimal
// amounts; unparseable figures leave the amount at zero
func normalizeCostRange(r *types.CostRange) {
	r.LowAmount = parseDollarAmount(r.Low)
	r.HighAmount = parseDollarAmount(r.High)
}

// parseDollarAmount extracts a decimal value from a figure like "$8.50" or
// "$1,200/month". Returns zero when no amount is found.
func parseDollarAmount(figure string) decimal.Decimal {
	match := dollarAmountPattern.FindString(figure)
	if match == "" {
		return decimal.Zero
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// unknownCostEstimation is the documented degraded placeholder for a failed
// cost estimation
func unknownCostEstimation() *types.CostEstimation {
	return &types.CostEstimation{
		EstimatedMonthlyCost: "unknown",
		EstimatedCostRange: types.CostRange{
			Low:        "unknown",
			High:       "unknown",
			LowAmount:  decimal.Zero,
			HighAmount: decimal.Zero,
		},
		CostBreakdown: []types.CostComponent{},
		CostSavingRecommendations: []string{
			"Unable to estimate cost due to an error",
		},
	}
}

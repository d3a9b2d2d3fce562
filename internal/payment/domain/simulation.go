package domain

import "github.com/smallbiznis/payflow/internal/fault"

// Scenario selects a canned processor outcome on create. An empty scenario
// behaves as ScenarioSuccess.
type Scenario string

const (
	ScenarioSuccess           Scenario = "success"
	ScenarioInsufficientFunds Scenario = "insufficient_funds"
	ScenarioNetworkTimeout    Scenario = "network_timeout"
	ScenarioFraudDetected     Scenario = "fraud_detected"
	ScenarioBankError         Scenario = "bank_error"
)

// Outcome is the resolved terminal decision for a simulated authorization.
type Outcome struct {
	Status       Status
	ErrorCode    string
	ErrorMessage string
}

// Succeeded reports whether the simulated processor accepted the payment.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusCaptured
}

var failureOutcomes = map[Scenario]Outcome{
	ScenarioInsufficientFunds: {Status: StatusFailed, ErrorCode: "INSUFFICIENT_FUNDS", ErrorMessage: "Insufficient funds in account"},
	ScenarioNetworkTimeout:    {Status: StatusFailed, ErrorCode: "NETWORK_TIMEOUT", ErrorMessage: "Payment gateway timeout"},
	ScenarioFraudDetected:     {Status: StatusFailed, ErrorCode: "FRAUD_DETECTED", ErrorMessage: "Transaction flagged as fraudulent"},
	ScenarioBankError:         {Status: StatusFailed, ErrorCode: "BANK_ERROR", ErrorMessage: "Bank rejected the transaction"},
}

// ResolveScenario maps a requested scenario to its outcome. Unknown tokens
// are rejected rather than silently treated as success.
func ResolveScenario(scenario Scenario) (Outcome, error) {
	switch scenario {
	case "", ScenarioSuccess:
		return Outcome{Status: StatusCaptured}, nil
	default:
		outcome, ok := failureOutcomes[scenario]
		if !ok {
			return Outcome{}, fault.Validation("invalid_simulation", "unknown simulation scenario %q", string(scenario))
		}
		return outcome, nil
	}
}

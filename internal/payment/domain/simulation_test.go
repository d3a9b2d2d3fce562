package domain_test

import (
	"errors"
	"testing"

	"github.com/smallbiznis/payflow/internal/fault"
	"github.com/smallbiznis/payflow/internal/payment/domain"
)

func TestResolveScenario(t *testing.T) {
	cases := []struct {
		scenario  domain.Scenario
		status    domain.Status
		errorCode string
	}{
		{"", domain.StatusCaptured, ""},
		{domain.ScenarioSuccess, domain.StatusCaptured, ""},
		{domain.ScenarioInsufficientFunds, domain.StatusFailed, "INSUFFICIENT_FUNDS"},
		{domain.ScenarioNetworkTimeout, domain.StatusFailed, "NETWORK_TIMEOUT"},
		{domain.ScenarioFraudDetected, domain.StatusFailed, "FRAUD_DETECTED"},
		{domain.ScenarioBankError, domain.StatusFailed, "BANK_ERROR"},
	}
	for _, tc := range cases {
		outcome, err := domain.ResolveScenario(tc.scenario)
		if err != nil {
			t.Fatalf("scenario %q: %v", tc.scenario, err)
		}
		if outcome.Status != tc.status {
			t.Fatalf("scenario %q: expected status %s, got %s", tc.scenario, tc.status, outcome.Status)
		}
		if outcome.ErrorCode != tc.errorCode {
			t.Fatalf("scenario %q: expected error code %q, got %q", tc.scenario, tc.errorCode, outcome.ErrorCode)
		}
		if tc.errorCode != "" && outcome.ErrorMessage == "" {
			t.Fatalf("scenario %q: failure outcome needs a message", tc.scenario)
		}
		if got, want := outcome.Succeeded(), tc.errorCode == ""; got != want {
			t.Fatalf("scenario %q: Succeeded() = %v, want %v", tc.scenario, got, want)
		}
	}
}

func TestResolveScenarioUnknown(t *testing.T) {
	_, err := domain.ResolveScenario("card_on_fire")
	if !errors.Is(err, fault.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCanTransition(t *testing.T) {
	allowed := []struct {
		from, to domain.Status
	}{
		{domain.StatusCreated, domain.StatusAuthorized},
		{domain.StatusCreated, domain.StatusFailed},
		{domain.StatusAuthorized, domain.StatusCaptured},
		{domain.StatusAuthorized, domain.StatusFailed},
		{domain.StatusCaptured, domain.StatusRefunded},
	}
	for _, tc := range allowed {
		if !domain.CanTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct {
		from, to domain.Status
	}{
		{domain.StatusCreated, domain.StatusCaptured},
		{domain.StatusCaptured, domain.StatusFailed},
		{domain.StatusCaptured, domain.StatusAuthorized},
		{domain.StatusRefunded, domain.StatusCaptured},
		{domain.StatusFailed, domain.StatusAuthorized},
	}
	for _, tc := range denied {
		if domain.CanTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

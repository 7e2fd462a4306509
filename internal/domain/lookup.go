package domain

import (
	"errors"
	"fmt"
	"net/http"
)

type ResultKind string

const (
	ResultLive          ResultKind = "live"
	ResultSynthetic     ResultKind = "synthetic"
	ResultUpstreamError ResultKind = "upstream_error"
)

// FallbackReason records why synthetic data replaced a live lookup.
type FallbackReason string

const (
	ReasonNone                 FallbackReason = ""
	ReasonForced               FallbackReason = "forced"
	ReasonMissingCredential    FallbackReason = "missing_credential"
	ReasonTierLimitation       FallbackReason = "tier_limitation"
	ReasonFlightDateValidation FallbackReason = "flight_date_validation"
	ReasonNonJSONResponse      FallbackReason = "non_json_response"
	ReasonSubscriptionRequired FallbackReason = "subscription_required"
	ReasonTransportFailure     FallbackReason = "transport_failure"
)

// LookupResult is the outcome of one lookup. Flights is set for ResultLive
// and ResultSynthetic, Error for ResultUpstreamError.
type LookupResult struct {
	Kind    ResultKind
	Reason  FallbackReason
	Flights *FlightResponse
	Error   *UpstreamError
}

func LiveResult(resp *FlightResponse) *LookupResult {
	return &LookupResult{Kind: ResultLive, Flights: resp}
}

func SyntheticResult(resp *FlightResponse, reason FallbackReason) *LookupResult {
	return &LookupResult{Kind: ResultSynthetic, Reason: reason, Flights: resp}
}

func UpstreamErrorResult(err *UpstreamError) *LookupResult {
	return &LookupResult{Kind: ResultUpstreamError, Error: err}
}

var (
	ErrEmptyFlightCode = errors.New("flight IATA code is required")
	ErrNoCredential    = errors.New("API key not configured")
)

// ValidationError is a caller input problem. It maps to 400.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// StatusCode always reports http.StatusBadRequest.
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

// UpstreamError is an actionable error returned by the flight-data provider.
type UpstreamError struct {
	Message string
	Status  int
	Details any
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error (status %d): %s", e.Status, e.Message)
}

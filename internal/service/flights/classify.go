package flights

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/Domenick1991/flighttracker/internal/domain"
	"github.com/Domenick1991/flighttracker/internal/repository"
)

const (
	markerHTTPSOnly      = "only https is supported"
	markerInvalidRequest = "Invalid request"

	codeValidationError    = "validation_error"
	codeSubscriptionNeeded = 104

	msgFetchFailed         = "Failed to fetch flight data"
	msgProviderError       = "API returned an error"
	msgUnexpectedStructure = "API returned an unexpected response structure"
	detailMissingData      = "Missing data array in response"
)

// classify turns one provider reply into a lookup result. Order matters:
// HTTP status, content type, embedded error, data presence, then repair.
func (s *FlightService) classify(logger *slog.Logger, code string, resp *repository.UpstreamResponse) *domain.LookupResult {
	if !resp.OK() {
		return s.classifyFailure(logger, code, resp)
	}

	if !isJSONContent(resp.ContentType) {
		logger.Error("unexpected content type", "content_type", resp.ContentType, "body", truncate(string(resp.Body)))
		return s.fallback(logger, code, domain.ReasonNonJSONResponse)
	}

	if !json.Valid(resp.Body) {
		logger.Error("error decoding flight data", "body", truncate(string(resp.Body)))
		return s.fallback(logger, code, domain.ReasonTransportFailure)
	}

	if isJSONNull(resp.Body) {
		logger.Error("error decoding flight data", "body", "null")
		return s.fallback(logger, code, domain.ReasonTransportFailure)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &top); err != nil {
		logger.Error("unexpected API response structure", "error", err)
		return unexpectedStructure()
	}

	if raw, ok := top["error"]; ok {
		var embedded any
		if err := json.Unmarshal(raw, &embedded); err == nil && truthy(embedded) {
			return s.classifyEmbeddedError(logger, code, embedded)
		}
	}

	rawData, ok := top["data"]
	if !ok || isJSONNull(rawData) {
		logger.Error("unexpected API response structure", "keys", keysOf(top))
		return unexpectedStructure()
	}

	var records []json.RawMessage
	if err := json.Unmarshal(rawData, &records); err != nil {
		logger.Error("unexpected API response structure", "error", err)
		return unexpectedStructure()
	}

	out := &domain.FlightResponse{Data: make([]domain.FlightRecord, 0, len(records))}
	if raw, ok := top["pagination"]; ok && !isJSONNull(raw) {
		if err := json.Unmarshal(raw, &out.Pagination); err != nil {
			logger.Warn("ignoring malformed pagination", "error", err)
		}
	}

	for i, raw := range records {
		rec, err := s.normalizeRecord(logger.With("index", i), raw)
		if err != nil {
			logger.Error("error decoding flight record", "index", i, "error", err)
			return s.fallback(logger, code, domain.ReasonTransportFailure)
		}
		out.Data = append(out.Data, rec)
	}

	if len(out.Data) == 0 {
		logger.Info("no flight data found")
	} else {
		logger.Debug("flight data received",
			"records", len(out.Data),
			"status", out.Data[0].StatusTag(),
			"has_live", out.Data[0].Live != nil,
		)
	}
	return domain.LiveResult(out)
}

func (s *FlightService) classifyFailure(logger *slog.Logger, code string, resp *repository.UpstreamResponse) *domain.LookupResult {
	text := string(resp.Body)
	logger.Error("API error response", "status", resp.StatusCode, "body", truncate(text))

	if strings.Contains(text, markerHTTPSOnly) || strings.Contains(text, markerInvalidRequest) {
		return s.fallback(logger, code, domain.ReasonTierLimitation)
	}

	var parsed any
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return domain.UpstreamErrorResult(&domain.UpstreamError{
			Message: msgFetchFailed,
			Status:  resp.StatusCode,
			Details: text,
		})
	}

	errObj := objectField(parsed, "error")
	if str, _ := errObj["code"].(string); str == codeValidationError {
		if ctx, ok := errObj["context"].(map[string]any); ok {
			if _, ok := ctx["flight_date"]; ok {
				logger.Warn("flight date validation error", "context", ctx)
				return s.fallback(logger, code, domain.ReasonFlightDateValidation)
			}
		}
	}

	return domain.UpstreamErrorResult(&domain.UpstreamError{
		Message: firstNonEmpty(stringField(errObj, "info"), stringField(errObj, "message"), msgFetchFailed),
		Status:  resp.StatusCode,
		Details: parsed,
	})
}

func (s *FlightService) classifyEmbeddedError(logger *slog.Logger, code string, embedded any) *domain.LookupResult {
	logger.Error("provider returned an error", "error", embedded)

	errObj, _ := embedded.(map[string]any)
	if isSubscriptionError(errObj) {
		return s.fallback(logger, code, domain.ReasonSubscriptionRequired)
	}

	return domain.UpstreamErrorResult(&domain.UpstreamError{
		Message: firstNonEmpty(stringField(errObj, "info"), msgProviderError),
		Status:  http.StatusInternalServerError,
		Details: embedded,
	})
}

func isSubscriptionError(errObj map[string]any) bool {
	if n, ok := errObj["code"].(float64); ok && n == codeSubscriptionNeeded {
		return true
	}
	for _, key := range []string{"info", "message"} {
		text := strings.ToLower(stringField(errObj, key))
		if strings.Contains(text, "https") || strings.Contains(text, "subscription") {
			return true
		}
	}
	return false
}

func unexpectedStructure() *domain.LookupResult {
	return domain.UpstreamErrorResult(&domain.UpstreamError{
		Message: msgUnexpectedStructure,
		Status:  http.StatusInternalServerError,
		Details: detailMissingData,
	})
}

func isJSONContent(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mediaType == "application/json"
}

func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// truthy follows the loose notion of presence used by the provider's
// payloads: null, false, 0 and "" are absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

func objectField(v any, key string) map[string]any {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	field, _ := obj[key].(map[string]any)
	return field
}

func stringField(obj map[string]any, key string) string {
	str, _ := obj[key].(string)
	return str
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func keysOf(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

const maxLoggedBody = 512

func truncate(s string) string {
	if len(s) <= maxLoggedBody {
		return s
	}
	return s[:maxLoggedBody] + "..."
}

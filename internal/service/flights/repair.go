package flights

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/flighttracker/internal/domain"
)

var flightDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var errRecordNotObject = errors.New("flight record is not a JSON object")

// Epoch milliseconds accepted for a numeric flight_date: years 0000 through 9999.
var (
	minFlightDateMillis = time.Date(0, time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	maxFlightDateMillis = time.Date(9999, time.December, 31, 23, 59, 59, 999e6, time.UTC).UnixMilli()
)

// Layouts tried, in order, when flight_date is not already YYYY-MM-DD.
var flightDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-1-2",
	"2006/01/02",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
	"20060102",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// Defaults substituted for invalid telemetry fields.
const (
	defaultLatitude        = 0
	defaultLongitude       = 0
	defaultAltitude        = 10000
	defaultDirection       = 0
	defaultSpeedHorizontal = 800
	defaultSpeedVertical   = 0
)

var requiredLiveFields = []string{"latitude", "longitude", "altitude", "direction", "speed_horizontal"}

// wireRecord shadows the fields that arrive loosely typed from the provider.
type wireRecord struct {
	domain.FlightRecord
	FlightDate any `json:"flight_date"`
	Live       any `json:"live"`
}

func (s *FlightService) normalizeRecord(logger *slog.Logger, raw json.RawMessage) (domain.FlightRecord, error) {
	if !strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		return domain.FlightRecord{}, errRecordNotObject
	}

	var w wireRecord
	if err := json.Unmarshal(raw, &w); err != nil {
		// The decoder still fills every other field after a type mismatch.
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return domain.FlightRecord{}, err
		}
		logger.Warn("ignoring mistyped field in flight record", "field", typeErr.Field, "error", err)
	}

	rec := w.FlightRecord
	rec.FlightDate = s.repairFlightDate(logger, w.FlightDate)
	rec.Live = s.repairLive(logger, w.Live)
	return rec, nil
}

func (s *FlightService) repairFlightDate(logger *slog.Logger, value any) string {
	switch v := value.(type) {
	case string:
		if flightDatePattern.MatchString(v) {
			return v
		}
		for _, layout := range flightDateLayouts {
			t, err := time.Parse(layout, v)
			if err != nil {
				continue
			}
			if fixed, ok := formatFlightDate(t); ok {
				logger.Warn("fixed flight_date format", "flight_date", v, "fixed", fixed)
				return fixed
			}
			break
		}
	case float64:
		if v >= float64(minFlightDateMillis) && v <= float64(maxFlightDateMillis) {
			if fixed, ok := formatFlightDate(time.UnixMilli(int64(v))); ok {
				logger.Warn("fixed flight_date format", "flight_date", v, "fixed", fixed)
				return fixed
			}
		}
	}

	today := s.now().UTC().Format(domain.FlightDateLayout)
	logger.Error("could not fix flight_date, using today's date", "flight_date", value, "fixed", today)
	return today
}

// formatFlightDate renders t as YYYY-MM-DD in UTC, rejecting years outside 0000-9999.
func formatFlightDate(t time.Time) (string, bool) {
	fixed := t.UTC().Format(domain.FlightDateLayout)
	return fixed, flightDatePattern.MatchString(fixed)
}

// repairLive returns nil when no live block was sent. When any required
// field is missing or not a finite number the block is rebuilt from the
// valid fields and defaults.
func (s *FlightService) repairLive(logger *slog.Logger, value any) *domain.Live {
	if !truthy(value) {
		return nil
	}
	fields, _ := value.(map[string]any)

	var invalid []string
	for _, key := range requiredLiveFields {
		if _, ok := finiteField(fields, key); !ok {
			invalid = append(invalid, key)
		}
	}
	if len(invalid) > 0 {
		logger.Warn("fixing live data structure", "invalid_fields", invalid)
	}

	updated := liveUpdated(fields["updated"])
	if updated == "" {
		updated = s.now().UTC().Format(time.RFC3339)
	}
	return &domain.Live{
		Updated:         updated,
		Latitude:        finiteOr(fields, "latitude", defaultLatitude),
		Longitude:       finiteOr(fields, "longitude", defaultLongitude),
		Altitude:        finiteOr(fields, "altitude", defaultAltitude),
		Direction:       finiteOr(fields, "direction", defaultDirection),
		SpeedHorizontal: finiteOr(fields, "speed_horizontal", defaultSpeedHorizontal),
		SpeedVertical:   finiteOr(fields, "speed_vertical", defaultSpeedVertical),
		IsGround:        truthy(fields["is_ground"]),
	}
}

// liveUpdated keeps a present updated value, rendering numbers as sent.
func liveUpdated(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t != 0 && !math.IsNaN(t) && !math.IsInf(t, 0) {
			return strconv.FormatFloat(t, 'f', -1, 64)
		}
	}
	return ""
}

func finiteField(fields map[string]any, key string) (float64, bool) {
	n, ok := fields[key].(float64)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func finiteOr(fields map[string]any, key string, fallback float64) float64 {
	if n, ok := finiteField(fields, key); ok {
		return n
	}
	return fallback
}

// Package synthetic builds stand-in flight records used for demo mode and
// whenever live provider data is unavailable.
package synthetic

import (
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/Domenick1991/flighttracker/internal/domain"
)

const (
	// DefaultDemoCode selects the hand-authored demo template.
	DefaultDemoCode = "UA102"

	// jitterSpan is the full width of the position offset, centred on zero.
	jitterSpan = 0.1
)

type Generator struct {
	demoCode string
	random   func() float64
	now      func() time.Time
}

type Option func(*Generator)

// WithDemoCode overrides the reserved demo flight code.
func WithDemoCode(code string) Option {
	return func(g *Generator) {
		if code != "" {
			g.demoCode = code
		}
	}
}

// WithRandom sets the source of uniform values in [0, 1) used for jitter.
func WithRandom(random func() float64) Option {
	return func(g *Generator) {
		g.random = random
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		demoCode: DefaultDemoCode,
		random:   rand.Float64,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a single-record response for flightIATA. It never fails.
func (g *Generator) Generate(flightIATA string) *domain.FlightResponse {
	var record domain.FlightRecord
	if flightIATA == g.demoCode {
		record = demoTemplate()
	} else {
		record = genericTemplate()
		record.Flight.IATA = flightIATA
		record.Flight.ICAO = flightIATA
		record.Flight.Number = stripLetters(flightIATA)
		if airline, ok := airlinesByCode[stripDigits(flightIATA)]; ok {
			record.Airline = airline
		}
	}

	if record.Live != nil {
		record.Live.Latitude += (g.random() - 0.5) * jitterSpan
		record.Live.Longitude += (g.random() - 0.5) * jitterSpan
		record.Live.Updated = g.now().UTC().Format(time.RFC3339)
	}

	return &domain.FlightResponse{
		Pagination: domain.Pagination{Limit: 100, Offset: 0, Count: 1, Total: 1},
		Data:       []domain.FlightRecord{record},
	}
}

// NextFlight projects the following day's departure of rec: dates and
// scheduled/estimated times move forward 24 hours, actual times and live
// telemetry are cleared and the status becomes scheduled.
func NextFlight(rec domain.FlightRecord) domain.FlightRecord {
	next := rec
	next.FlightStatus = "scheduled"
	next.Live = nil
	if rec.Aircraft != nil {
		aircraft := *rec.Aircraft
		next.Aircraft = &aircraft
	}
	if rec.Flight.Codeshared != nil {
		codeshare := *rec.Flight.Codeshared
		next.Flight.Codeshared = &codeshare
	}

	if d, err := time.Parse(domain.FlightDateLayout, rec.FlightDate); err == nil {
		next.FlightDate = d.AddDate(0, 0, 1).Format(domain.FlightDateLayout)
	}
	next.Departure = shiftEndpoint(rec.Departure)
	next.Arrival = shiftEndpoint(rec.Arrival)
	return next
}

func shiftEndpoint(e domain.Endpoint) domain.Endpoint {
	out := e
	out.Actual = nil
	out.ActualRunway = nil
	out.EstimatedRunway = nil
	if e.Scheduled == nil {
		return out
	}
	scheduled, err := time.Parse(time.RFC3339, *e.Scheduled)
	if err != nil {
		return out
	}
	shifted := scheduled.Add(24 * time.Hour).UTC().Format(time.RFC3339)
	out.Scheduled = &shifted
	estimated := shifted
	out.Estimated = &estimated
	return out
}

func stripLetters(s string) string {
	return strings.Map(func(r rune) rune {
		if r <= unicode.MaxASCII && unicode.IsLetter(r) {
			return -1
		}
		return r
	}, s)
}

func stripDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return -1
		}
		return r
	}, s)
}

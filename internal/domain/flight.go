package domain

import "strings"

// FlightDateLayout is the only flight_date format handed to callers.
const FlightDateLayout = "2006-01-02"

type FlightRecord struct {
	FlightDate   string      `json:"flight_date"`
	FlightStatus string      `json:"flight_status"`
	Departure    Endpoint    `json:"departure"`
	Arrival      Endpoint    `json:"arrival"`
	Airline      Airline     `json:"airline"`
	Flight       FlightIdent `json:"flight"`
	Aircraft     *Aircraft   `json:"aircraft"`
	Live         *Live       `json:"live"`
}

// Endpoint is one end of a flight. Timestamps are nil until they occur.
type Endpoint struct {
	Airport         string  `json:"airport"`
	Timezone        string  `json:"timezone"`
	IATA            string  `json:"iata"`
	ICAO            string  `json:"icao"`
	Terminal        *string `json:"terminal"`
	Gate            *string `json:"gate"`
	Baggage         *string `json:"baggage,omitempty"`
	Delay           *int    `json:"delay"`
	Scheduled       *string `json:"scheduled"`
	Estimated       *string `json:"estimated"`
	Actual          *string `json:"actual"`
	EstimatedRunway *string `json:"estimated_runway"`
	ActualRunway    *string `json:"actual_runway"`
}

type Airline struct {
	Name string `json:"name"`
	IATA string `json:"iata"`
	ICAO string `json:"icao"`
}

type FlightIdent struct {
	Number     string     `json:"number"`
	IATA       string     `json:"iata"`
	ICAO       string     `json:"icao"`
	Codeshared *Codeshare `json:"codeshared"`
}

type Codeshare struct {
	AirlineName  string `json:"airline_name"`
	AirlineIATA  string `json:"airline_iata"`
	AirlineICAO  string `json:"airline_icao"`
	FlightNumber string `json:"flight_number"`
	FlightIATA   string `json:"flight_iata"`
	FlightICAO   string `json:"flight_icao"`
}

type Aircraft struct {
	Registration string `json:"registration"`
	IATA         string `json:"iata"`
	ICAO         string `json:"icao"`
	ICAO24       string `json:"icao24"`
}

// Live is the in-flight telemetry block. Altitude is in feet, Direction in degrees.
type Live struct {
	Updated         string  `json:"updated"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Altitude        float64 `json:"altitude"`
	Direction       float64 `json:"direction"`
	SpeedHorizontal float64 `json:"speed_horizontal"`
	SpeedVertical   float64 `json:"speed_vertical"`
	IsGround        bool    `json:"is_ground"`
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
	Total  int `json:"total"`
}

// FlightResponse is the success body served to the UI.
type FlightResponse struct {
	Pagination Pagination     `json:"pagination"`
	Data       []FlightRecord `json:"data"`
}

const StatusTagUnknown = "unknown"

var knownStatuses = map[string]struct{}{
	"active":    {},
	"landed":    {},
	"scheduled": {},
	"cancelled": {},
	"diverted":  {},
	"delayed":   {},
}

// StatusTag returns the display tag for the record's status. Unrecognised
// statuses collapse to StatusTagUnknown.
func (r FlightRecord) StatusTag() string {
	status := strings.ToLower(strings.TrimSpace(r.FlightStatus))
	if _, ok := knownStatuses[status]; ok {
		return status
	}
	return StatusTagUnknown
}

package synthetic

import "github.com/Domenick1991/flighttracker/internal/domain"

// Each template function returns a freshly allocated record so callers may
// mutate it freely.

func genericTemplate() domain.FlightRecord {
	return domain.FlightRecord{
		FlightDate:   "2023-05-13",
		FlightStatus: "active",
		Departure: domain.Endpoint{
			Airport:         "San Francisco International",
			Timezone:        "America/Los_Angeles",
			IATA:            "SFO",
			ICAO:            "KSFO",
			Terminal:        ptr("2"),
			Gate:            ptr("D11"),
			Delay:           ptr(13),
			Scheduled:       ptr("2023-05-13T04:20:00+00:00"),
			Estimated:       ptr("2023-05-13T04:20:00+00:00"),
			Actual:          ptr("2023-05-13T04:20:13+00:00"),
			EstimatedRunway: ptr("2023-05-13T04:20:13+00:00"),
			ActualRunway:    ptr("2023-05-13T04:20:13+00:00"),
		},
		Arrival: domain.Endpoint{
			Airport:   "Dallas/Fort Worth International",
			Timezone:  "America/Chicago",
			IATA:      "DFW",
			ICAO:      "KDFW",
			Terminal:  ptr("A"),
			Gate:      ptr("A22"),
			Baggage:   ptr("A17"),
			Delay:     ptr(0),
			Scheduled: ptr("2023-05-13T10:20:00+00:00"),
			Estimated: ptr("2023-05-13T10:20:00+00:00"),
		},
		Airline: domain.Airline{Name: "American Airlines", IATA: "AA", ICAO: "AAL"},
		Flight:  domain.FlightIdent{Number: "1004", IATA: "AA1004", ICAO: "AAL1004"},
		Aircraft: &domain.Aircraft{
			Registration: "N160AN",
			IATA:         "A321",
			ICAO:         "A321",
			ICAO24:       "A0F1BB",
		},
		Live: &domain.Live{
			Updated:         "2023-05-13T10:00:00+00:00",
			Latitude:        36.2856,
			Longitude:       -106.807,
			Altitude:        8846.82,
			Direction:       114.34,
			SpeedHorizontal: 894.348,
			SpeedVertical:   1.188,
		},
	}
}

func demoTemplate() domain.FlightRecord {
	return domain.FlightRecord{
		FlightDate:   "2023-05-13",
		FlightStatus: "active",
		Departure: domain.Endpoint{
			Airport:         "Newark Liberty International",
			Timezone:        "America/New_York",
			IATA:            "EWR",
			ICAO:            "KEWR",
			Terminal:        ptr("C"),
			Gate:            ptr("C123"),
			Delay:           ptr(0),
			Scheduled:       ptr("2023-05-13T08:30:00+00:00"),
			Estimated:       ptr("2023-05-13T08:30:00+00:00"),
			Actual:          ptr("2023-05-13T08:30:00+00:00"),
			EstimatedRunway: ptr("2023-05-13T08:45:00+00:00"),
			ActualRunway:    ptr("2023-05-13T08:45:00+00:00"),
		},
		Arrival: domain.Endpoint{
			Airport:   "Los Angeles International",
			Timezone:  "America/Los_Angeles",
			IATA:      "LAX",
			ICAO:      "KLAX",
			Terminal:  ptr("7"),
			Gate:      ptr("73"),
			Baggage:   ptr("7"),
			Delay:     ptr(0),
			Scheduled: ptr("2023-05-13T11:30:00+00:00"),
			Estimated: ptr("2023-05-13T11:30:00+00:00"),
		},
		Airline: domain.Airline{Name: "United Airlines", IATA: "UA", ICAO: "UAL"},
		Flight:  domain.FlightIdent{Number: "102", IATA: "UA102", ICAO: "UAL102"},
		Aircraft: &domain.Aircraft{
			Registration: "N14001",
			IATA:         "B789",
			ICAO:         "B789",
			ICAO24:       "A1B2C3",
		},
		Live: &domain.Live{
			Updated:         "2023-05-13T10:00:00+00:00",
			Latitude:        40.7128,
			Longitude:       -74.006,
			Altitude:        35000,
			Direction:       270,
			SpeedHorizontal: 550,
		},
	}
}

var airlinesByCode = map[string]domain.Airline{
	"UA": {Name: "United Airlines", IATA: "UA", ICAO: "UAL"},
	"DL": {Name: "Delta Air Lines", IATA: "DL", ICAO: "DAL"},
	"LH": {Name: "Lufthansa", IATA: "LH", ICAO: "DLH"},
	"BA": {Name: "British Airways", IATA: "BA", ICAO: "BAW"},
}

func ptr[T any](v T) *T {
	return &v
}

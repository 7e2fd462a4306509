package flights

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/Domenick1991/flighttracker/internal/domain"
	"github.com/Domenick1991/flighttracker/internal/kafka"
	"github.com/Domenick1991/flighttracker/internal/repository"
	"github.com/Domenick1991/flighttracker/internal/synthetic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockFlightRepository) SearchByIATA(ctx context.Context, flightIATA string) (*repository.UpstreamResponse, error) {
	args := m.Called(ctx, flightIATA)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.UpstreamResponse), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestService(repo repository.FlightRepository, opts ...FlightServiceOption) *FlightService {
	gen := synthetic.NewGenerator(
		synthetic.WithRandom(func() float64 { return 0.5 }),
		synthetic.WithClock(func() time.Time { return testNow }),
	)
	base := []FlightServiceOption{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return testNow }),
	}
	return NewFlightService(repo, gen, append(base, opts...)...)
}

func configuredRepo(resp *repository.UpstreamResponse, err error) *MockFlightRepository {
	repo := &MockFlightRepository{}
	repo.On("Configured").Return(true)
	repo.On("SearchByIATA", mock.Anything, "UA102").Return(resp, err).Once()
	return repo
}

func jsonResponse(status int, body string) *repository.UpstreamResponse {
	return &repository.UpstreamResponse{StatusCode: status, ContentType: "application/json", Body: []byte(body)}
}

func assertSynthetic(t *testing.T, result *domain.LookupResult, reason domain.FallbackReason) {
	t.Helper()
	require.NotNil(t, result)
	assert.Equal(t, domain.ResultSynthetic, result.Kind)
	assert.Equal(t, reason, result.Reason)
	assert.Nil(t, result.Error)
	require.NotNil(t, result.Flights)
	require.Len(t, result.Flights.Data, 1)
}

func assertUpstreamError(t *testing.T, result *domain.LookupResult, status int, message string) *domain.UpstreamError {
	t.Helper()
	require.NotNil(t, result)
	assert.Equal(t, domain.ResultUpstreamError, result.Kind)
	assert.Nil(t, result.Flights)
	require.NotNil(t, result.Error)
	assert.Equal(t, status, result.Error.Status)
	assert.Equal(t, message, result.Error.Message)
	return result.Error
}

func TestFlightService_Lookup_EmptyCode(t *testing.T) {
	for _, code := range []string{"", "   ", "\t\n"} {
		repo := &MockFlightRepository{}
		service := newTestService(repo)

		result, err := service.Lookup(context.Background(), code, false)

		assert.Nil(t, result)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrEmptyFlightCode))
		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, http.StatusBadRequest, verr.StatusCode())
		repo.AssertNotCalled(t, "SearchByIATA", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "Configured")
	}
}

func TestFlightService_Lookup_ForceSynthetic(t *testing.T) {
	repo := &MockFlightRepository{}
	service := newTestService(repo)

	result, err := service.Lookup(context.Background(), "UA102", true)

	require.NoError(t, err)
	assertSynthetic(t, result, domain.ReasonForced)
	assert.Equal(t, "United Airlines", result.Flights.Data[0].Airline.Name)
	repo.AssertNotCalled(t, "SearchByIATA", mock.Anything, mock.Anything)
}

func TestFlightService_Lookup_MissingCredential(t *testing.T) {
	repo := &MockFlightRepository{}
	repo.On("Configured").Return(false)
	service := newTestService(repo)

	result, err := service.Lookup(context.Background(), "DL55", false)

	require.NoError(t, err)
	assertSynthetic(t, result, domain.ReasonMissingCredential)
	assert.Equal(t, "DL55", result.Flights.Data[0].Flight.IATA)
	repo.AssertNotCalled(t, "SearchByIATA", mock.Anything, mock.Anything)
}

func TestFlightService_Lookup_TrimsCode(t *testing.T) {
	repo := configuredRepo(jsonResponse(200, `{"data":[]}`), nil)
	service := newTestService(repo)

	_, err := service.Lookup(context.Background(), "  UA102 ", false)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestFlightService_Lookup_TransportFailure(t *testing.T) {
	repo := configuredRepo(nil, errors.New("dial tcp: connection refused"))
	service := newTestService(repo)

	result, err := service.Lookup(context.Background(), "UA102", false)

	require.NoError(t, err)
	assertSynthetic(t, result, domain.ReasonTransportFailure)
	repo.AssertExpectations(t)
}

func TestFlightService_Lookup_AppliesUpstreamTimeout(t *testing.T) {
	repo := &MockFlightRepository{}
	repo.On("Configured").Return(true)
	repo.On("SearchByIATA", mock.Anything, "UA102").
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			<-ctx.Done()
		}).
		Return(nil, context.DeadlineExceeded).Once()
	service := newTestService(repo, WithUpstreamTimeout(10*time.Millisecond))

	result, err := service.Lookup(context.Background(), "UA102", false)

	require.NoError(t, err)
	assertSynthetic(t, result, domain.ReasonTransportFailure)
}

func TestFlightService_Lookup_HTTPSOnlyMarker(t *testing.T) {
	for _, body := range []string{
		`{"error":{"code":"https_access_restricted","message":"Access Restricted - only https is supported"}}`,
		`<html>Invalid request</html>`,
	} {
		repo := configuredRepo(&repository.UpstreamResponse{StatusCode: 403, ContentType: "text/html", Body: []byte(body)}, nil)
		service := newTestService(repo)

		result, err := service.Lookup(context.Background(), "UA102", false)

		require.NoError(t, err)
		assertSynthetic(t, result, domain.ReasonTierLimitation)
	}
}

func TestFlightService_Lookup_FlightDateValidationQuirk(t *testing.T) {
	body := `{"error":{"code":"validation_error","message":"Request failed with validation error","context":{"flight_date":[{"key":"invalid_flight_date"}]}}}`
	repo := configuredRepo(jsonResponse(422, body), nil)
	service := newTestService(repo)

	result, err := service.Lookup(context.Background(), "UA102", false)

	require.NoError(t, err)
	assertSynthetic(t, result, domain.ReasonFlightDateValidation)
}

func TestFlightService_Lookup_OtherValidationErrorSurfaces(t *testing.T) {
	body := `{"error":{"code":"validation_error","message":"Request failed with validation error","context":{"flight_iata":[{"key":"invalid"}]}}}`
	repo := configuredRepo(jsonResponse(422, body), nil)
	service := newTestService(repo)

	result, err := service.Lookup(context.Background(), "UA102", false)

	require.NoError(t, err)
	upstream := assertUpstreamError(t, result, 422, "Request failed with validation error")
	details, ok := upstream.Details.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "error")
}

func TestFlightService_Lookup_ParsedErrorPrefersInfo(t *testing.T) {
	body := `{"error":{"code":101,"type":"invalid_access_key","info":"You have not supplied a valid API Access Key.","message":"ignored"}}`
	repo := configuredRepo(jsonResponse(401, body), nil)
	service := newTestService(repo)

	result, err := service.Lookup(context.Background(), "UA102", false)

	require.NoError(t, err)
	assertUpstreamError(t, result, 401, "You have not supplied a valid API Access Key.")
}

func TestFlightService_Lookup_ParsedErrorWithoutMessage(t *testing.T) {
	repo := configuredRepo(jsonResponse(503, `{"status":"down"}`), nil)
	service := newTestService(repo)

	result, err := service.Lookup(context.Background(), "UA102", false)

	require.NoError(t, err)
	upstream := assertUpstreamError(t, result, 503, msgFetchFailed)
	assert.Equal(t, map[string]any{"status": "down"}, upstream.Details)
}

func TestFlightService_Lookup_UnparseableErrorBody(t *testing.T) {
	repo := configuredRepo(&repository.UpstreamResponse{StatusCode: 500, ContentType: "text/plain", Body: []byte("upstream exploded")}, nil)
	service := newTestService(repo)

	result, err := service.Lookup(context.Background(), "UA102", false)

	require.NoError(t, err)
	upstream := assertUpstreamError(t, result, 500, msgFetchFailed)
	assert.Equal(t, "upstream exploded", upstream.Details)
}

func TestFlightService_Lookup_NonJSONContentType(t *testing.T) {
	for _, ct := range []string{"text/html; charset=utf-8", ""} {
		repo := configuredRepo(&repository.UpstreamResponse{StatusCode: 200, ContentType: ct, Body: []byte("<html>maintenance</html>")}, nil)
		service := newTestService(repo)

		result, err := service.Lookup(context.Background(), "UA102", false)

		require.NoError(t, err)
		assertSynthetic(t, result, domain.ReasonNonJSONResponse)
	}
}

func TestFlightService_Lookup_InvalidJSONBody(t *testing.T) {
	repo := configuredRepo(jsonResponse(200, `{"data":[`), nil)
	service := newTestService(repo)

	result, err := service.Lookup(context.Background(), "UA102", false)

	require.NoError(t, err)
	assertSynthetic(t, result, domain.ReasonTransportFailure)
}

func TestFlightService_Lookup_EmbeddedSubscriptionError(t *testing.T) {
	bodies := []string{
		`{"error":{"code":104,"type":"usage_limit_reached","info":"Your monthly usage limit has been reached."}}`,
		`{"error":{"code":105,"type":"function_access_restricted","info":"Access Restricted - Your current Subscription Plan does not support HTTPS Encryption."}}`,
		`{"error":{"code":"x","message":"please use https"}}`,
	}
	for _, body := range bodies {
		repo := configuredRepo(jsonResponse(200, body), nil)
		service := newTestService(repo)

		result, err := service.Lookup(context.Background(), "UA102", false)

		require.NoError(t, err)
		assertSynthetic(t, result, domain.ReasonSubscriptionRequired)
	}
}

func TestFlightService_Lookup_EmbeddedServiceError(t *testing.T) {
	body := `{"error":{"code":404,"type":"404_not_found","info":"The requested resource does not exist."}}`
	repo := configuredRepo(jsonResponse(200, body), nil)
	service := newTestService(repo)

	result, err := service.Lookup(context.Background(), "UA102", false)

	require.NoError(t, err)
	upstream := assertUpstreamError(t, result, http.StatusInternalServerError, "The requested resource does not exist.")
	details, ok := upstream.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "404_not_found", details["type"])
}

func TestFlightService_Lookup_EmbeddedErrorWithoutInfo(t *testing.T) {
	repo := configuredRepo(jsonResponse(200, `{"error":{"code":500}}`), nil)
	service := newTestService(repo)

	result, err := service.Lookup(context.Background(), "UA102", false)

	require.NoError(t, err)
	assertUpstreamError(t, result, http.StatusInternalServerError, msgProviderError)
}

func TestFlightService_Lookup_NullEmbeddedErrorIgnored(t *testing.T) {
	repo := configuredRepo(jsonResponse(200, `{"error":null,"data":[]}`), nil)
	service := newTestService(repo)

	result, err := service.Lookup(context.Background(), "UA102", false)

	require.NoError(t, err)
	assert.Equal(t, domain.ResultLive, result.Kind)
}

func TestFlightService_Lookup_MissingDataContainer(t *testing.T) {
	for _, body := range []string{`{"pagination":{"limit":100}}`, `{"data":null}`, `[]`, `{"data":{"x":1}}`} {
		repo := configuredRepo(jsonResponse(200, body), nil)
		service := newTestService(repo)

		result, err := service.Lookup(context.Background(), "UA102", false)

		require.NoError(t, err)
		upstream := assertUpstreamError(t, result, http.StatusInternalServerError, msgUnexpectedStructure)
		assert.Equal(t, detailMissingData, upstream.Details)
	}
}

const liveBody = `{
  "pagination": {"limit": 100, "offset": 0, "count": 1, "total": 1},
  "data": [{
    "flight_date": "2024-05-30",
    "flight_status": "active",
    "departure": {"airport": "Newark Liberty International", "timezone": "America/New_York", "iata": "EWR", "icao": "KEWR",
      "terminal": "C", "gate": "C90", "delay": 12, "scheduled": "2024-05-30T08:00:00+00:00", "estimated": "2024-05-30T08:00:00+00:00",
      "actual": "2024-05-30T08:12:00+00:00", "estimated_runway": null, "actual_runway": null},
    "arrival": {"airport": "Los Angeles International", "timezone": "America/Los_Angeles", "iata": "LAX", "icao": "KLAX",
      "terminal": "7", "gate": null, "baggage": null, "delay": null, "scheduled": "2024-05-30T11:00:00+00:00",
      "estimated": null, "actual": null, "estimated_runway": null, "actual_runway": null},
    "airline": {"name": "United Airlines", "iata": "UA", "icao": "UAL"},
    "flight": {"number": "102", "iata": "UA102", "icao": "UAL102", "codeshared": null},
    "aircraft": {"registration": "N27958", "iata": "B738", "icao": "B738", "icao24": "A31B2C"},
    "live": {"updated": "2024-05-30T09:30:00+00:00", "latitude": 39.5, "longitude": -98.35, "altitude": 11277.6,
      "direction": 265, "speed_horizontal": 851.9, "speed_vertical": 0, "is_ground": false}
  }]
}`

func TestFlightService_Lookup_LiveSuccess(t *testing.T) {
	repo := configuredRepo(jsonResponse(200, liveBody), nil)
	service := newTestService(repo)

	result, err := service.Lookup(context.Background(), "UA102", false)

	require.NoError(t, err)
	require.Equal(t, domain.ResultLive, result.Kind)
	assert.Equal(t, domain.ReasonNone, result.Reason)
	assert.Equal(t, domain.Pagination{Limit: 100, Offset: 0, Count: 1, Total: 1}, result.Flights.Pagination)
	require.Len(t, result.Flights.Data, 1)

	rec := result.Flights.Data[0]
	assert.Equal(t, "2024-05-30", rec.FlightDate)
	assert.Equal(t, "Newark Liberty International", rec.Departure.Airport)
	require.NotNil(t, rec.Departure.Delay)
	assert.Equal(t, 12, *rec.Departure.Delay)
	assert.Nil(t, rec.Arrival.Actual)
	assert.Nil(t, rec.Flight.Codeshared)
	assert.Equal(t, "N27958", rec.Aircraft.Registration)
	assert.Equal(t, &domain.Live{
		Updated:         "2024-05-30T09:30:00+00:00",
		Latitude:        39.5,
		Longitude:       -98.35,
		Altitude:        11277.6,
		Direction:       265,
		SpeedHorizontal: 851.9,
	}, rec.Live)
}

func TestFlightService_Lookup_EmptyDataIsSuccess(t *testing.T) {
	repo := configuredRepo(jsonResponse(200, `{"pagination":{"limit":100,"offset":0,"count":0,"total":0},"data":[]}`), nil)
	service := newTestService(repo)

	result, err := service.Lookup(context.Background(), "UA102", false)

	require.NoError(t, err)
	assert.Equal(t, domain.ResultLive, result.Kind)
	assert.Empty(t, result.Flights.Data)
}

func TestFlightService_Lookup_UndecodableRecordFallsBack(t *testing.T) {
	for _, body := range []string{`{"data":["nowhere"]}`, `{"data":[42]}`} {
		repo := configuredRepo(jsonResponse(200, body), nil)
		service := newTestService(repo)

		result, err := service.Lookup(context.Background(), "UA102", false)

		require.NoError(t, err)
		assertSynthetic(t, result, domain.ReasonTransportFailure)
	}
}

func TestFlightService_Lookup_MistypedFieldKeepsRecord(t *testing.T) {
	repo := configuredRepo(jsonResponse(200, `{"data":[{
		"flight_date":"2024-05-30",
		"flight_status":"active",
		"departure":{"airport":"Newark Liberty International","iata":"EWR","delay":"15"},
		"arrival":"unknown",
		"airline":{"name":"Real Air","iata":"RA"},
		"flight":{"number":"102","iata":"UA102"}
	}]}`), nil)
	service := newTestService(repo)

	result, err := service.Lookup(context.Background(), "UA102", false)

	require.NoError(t, err)
	require.Equal(t, domain.ResultLive, result.Kind)
	require.Len(t, result.Flights.Data, 1)

	rec := result.Flights.Data[0]
	assert.Equal(t, "Real Air", rec.Airline.Name)
	assert.Equal(t, "active", rec.FlightStatus)
	assert.Equal(t, "EWR", rec.Departure.IATA)
	assert.Nil(t, rec.Departure.Delay)
	assert.Equal(t, "UA102", rec.Flight.IATA)
}

func TestFlightService_Lookup_NullBodyFallsBack(t *testing.T) {
	repo := configuredRepo(jsonResponse(200, `null`), nil)
	service := newTestService(repo)

	result, err := service.Lookup(context.Background(), "UA102", false)

	require.NoError(t, err)
	assertSynthetic(t, result, domain.ReasonTransportFailure)
}

func TestFlightService_Lookup_PublishesEvent(t *testing.T) {
	repo := &MockFlightRepository{}
	producer := &MockProducer{}
	producer.On("Publish", mock.Anything, "lookups", "UA102", mock.MatchedBy(func(v interface{}) bool {
		event, ok := v.(kafka.LookupEvent)
		return ok &&
			event.Type == "flight_lookup" &&
			event.FlightIATA == "UA102" &&
			event.Kind == string(domain.ResultSynthetic) &&
			event.Reason == string(domain.ReasonForced) &&
			event.Records == 1 &&
			event.ID != ""
	})).Return(nil).Once()
	service := newTestService(repo, WithEvents(producer, "lookups"))

	_, err := service.Lookup(context.Background(), "UA102", true)

	require.NoError(t, err)
	producer.AssertExpectations(t)
}

func TestFlightService_Lookup_PublishFailureIsIgnored(t *testing.T) {
	repo := configuredRepo(jsonResponse(500, "boom"), nil)
	producer := &MockProducer{}
	producer.On("Publish", mock.Anything, "lookups", "UA102", mock.MatchedBy(func(v interface{}) bool {
		event, ok := v.(kafka.LookupEvent)
		return ok && event.Status == 500 && event.Kind == string(domain.ResultUpstreamError)
	})).Return(errors.New("broker down")).Once()
	service := newTestService(repo, WithEvents(producer, "lookups"))

	result, err := service.Lookup(context.Background(), "UA102", false)

	require.NoError(t, err)
	assert.Equal(t, domain.ResultUpstreamError, result.Kind)
	producer.AssertExpectations(t)
}

func TestFlightService_Lookup_NoEventForValidationError(t *testing.T) {
	producer := &MockProducer{}
	service := newTestService(&MockFlightRepository{}, WithEvents(producer, "lookups"))

	_, err := service.Lookup(context.Background(), "", false)

	require.Error(t, err)
	producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// Only validation and classified upstream errors may surface; every other
// failure mode resolves to flight data.
func TestFlightService_Lookup_QuirksNeverSurfaceAsErrors(t *testing.T) {
	quirks := []*repository.UpstreamResponse{
		{StatusCode: 403, ContentType: "application/json", Body: []byte(`{"error":{"message":"only https is supported"}}`)},
		{StatusCode: 400, ContentType: "text/html", Body: []byte(`Invalid request`)},
		{StatusCode: 422, ContentType: "application/json", Body: []byte(`{"error":{"code":"validation_error","context":{"flight_date":"bad"}}}`)},
		{StatusCode: 200, ContentType: "text/html", Body: []byte(`<html></html>`)},
		{StatusCode: 200, ContentType: "application/json", Body: []byte(`{"error":{"code":104}}`)},
		{StatusCode: 200, ContentType: "application/json", Body: []byte(`not json`)},
	}
	for i, resp := range quirks {
		repo := configuredRepo(resp, nil)
		service := newTestService(repo)

		result, err := service.Lookup(context.Background(), "UA102", false)

		require.NoError(t, err, "case %d", i)
		assert.Equal(t, domain.ResultSynthetic, result.Kind, "case %d", i)
		assert.NotEmpty(t, result.Flights.Data, "case %d", i)
	}
}

func TestFlightService_Upcoming(t *testing.T) {
	service := newTestService(&MockFlightRepository{})

	resp, err := service.Upcoming(context.Background(), "UA102")

	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "2023-05-14", resp.Data[0].FlightDate)
	assert.Equal(t, "scheduled", resp.Data[0].FlightStatus)
	assert.Nil(t, resp.Data[0].Live)
}

func TestFlightService_Upcoming_EmptyCode(t *testing.T) {
	service := newTestService(&MockFlightRepository{})

	_, err := service.Upcoming(context.Background(), " ")

	assert.True(t, errors.Is(err, domain.ErrEmptyFlightCode))
}

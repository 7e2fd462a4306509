package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	flightsPath = "/flights"

	// maxBodyBytes bounds how much of a provider response is read.
	maxBodyBytes = 4 << 20

	maxIdleConns        = 10
	idleConnTimeout     = 90 * time.Second
	tlsHandshakeTimeout = 10 * time.Second
)

// UpstreamResponse is the provider reply before any classification.
type UpstreamResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// OK reports a 2xx status.
func (r *UpstreamResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type FlightRepository interface {
	// Configured is false when no access key is available.
	Configured() bool
	// SearchByIATA performs one flight search request. Errors are transport
	// failures only; non-2xx replies come back as a response.
	SearchByIATA(ctx context.Context, flightIATA string) (*UpstreamResponse, error)
}

type HTTPFlightRepository struct {
	client    *http.Client
	baseURL   string
	accessKey string
}

// NewHTTPClient returns a client with a pooled transport and the given
// overall request timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        maxIdleConns,
			IdleConnTimeout:     idleConnTimeout,
			TLSHandshakeTimeout: tlsHandshakeTimeout,
		},
	}
}

func NewFlightRepository(client *http.Client, baseURL, accessKey string) FlightRepository {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFlightRepository{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessKey: accessKey,
	}
}

func (r *HTTPFlightRepository) Configured() bool {
	return strings.TrimSpace(r.accessKey) != ""
}

func (r *HTTPFlightRepository) SearchByIATA(ctx context.Context, flightIATA string) (*UpstreamResponse, error) {
	params := url.Values{}
	params.Set("access_key", r.accessKey)
	params.Set("flight_iata", flightIATA)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+flightsPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build flights request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("flights request: %w", redactKey(err, r.accessKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("flights read body: %w", err)
	}

	return &UpstreamResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// redactKey strips the access key from url.Error messages, which embed the
// full request URL.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), key, "API_KEY_HIDDEN"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

var _ FlightRepository = (*HTTPFlightRepository)(nil)

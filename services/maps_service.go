package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const defaultGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GeocodeError is a rejection reported by the Geocoding API itself. Message
// is the upstream error_message and never contains the request URL.
type GeocodeError struct {
	Status  string
	Message string
}

func (e *GeocodeError) Error() string {
	if e.Message != "" {
		return ErrGeocodeFailed.Error() + ": " + e.Message
	}
	return ErrGeocodeFailed.Error() + ": " + e.Status
}

func (e *GeocodeError) Unwrap() error { return ErrGeocodeFailed }

// MapsService proxies Google Geocoding so the server key stays private.
type MapsService interface {
	Geocode(ctx context.Context, query, region string) (map[string]interface{}, error)
}

type mapsServiceImpl struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
	logger     *zap.Logger
}

func NewMapsService(apiKey, endpoint string, logger *zap.Logger) MapsService {
	if endpoint == "" {
		endpoint = defaultGeocodeURL
	}
	return &mapsServiceImpl{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     apiKey,
		endpoint:   endpoint,
		logger:     logger.Named("maps"),
	}
}

// Geocode returns the upstream JSON unchanged when its status is OK or
// ZERO_RESULTS.
func (s *mapsServiceImpl) Geocode(ctx context.Context, query, region string) (map[string]interface{}, error) {
	if s.apiKey == "" {
		return nil, ErrMapsNotConfigured
	}

	params := url.Values{}
	params.Set("address", query)
	params.Set("key", s.apiKey)
	if region != "" {
		params.Set("region", region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// The request URL carries the key, so only the cause is logged.
		s.logger.Warn("geocode request failed", zap.Error(redactURL(err)))
		return nil, fmt.Errorf("%w: upstream unreachable", ErrGeocodeFailed)
	}
	defer resp.Body.Close()

	var data map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		s.logger.Warn("geocode response undecodable", zap.Int("http_status", resp.StatusCode), zap.Error(err))
		return nil, fmt.Errorf("%w: invalid upstream response", ErrGeocodeFailed)
	}

	status, _ := data["status"].(string)
	if status != "OK" && status != "ZERO_RESULTS" {
		msg, _ := data["error_message"].(string)
		s.logger.Warn("geocode upstream error", zap.String("status", status), zap.Int("http_status", resp.StatusCode))
		return nil, &GeocodeError{Status: status, Message: msg}
	}
	return data, nil
}

// redactURL drops the URL from a transport error.
func redactURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}

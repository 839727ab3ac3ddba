package weather

import "fmt"

// NotFoundError means the provider could not resolve the requested city.
type NotFoundError struct {
	City string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("city %q not found. Please check the spelling and try again.", e.City)
}

// UnauthorizedError means the provider rejected the API key.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "invalid API key"
	}
	return fmt.Sprintf("%s. Get a free API key from https://home.openweathermap.org/api_keys and set weather.api_key (or OPENWEATHER_API_KEY)", msg)
}

// NetworkError wraps a transport-level failure reaching the provider.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error reaching the weather provider: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UpstreamError carries any other non-2xx provider response.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("weather provider returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("weather provider returned status %d: %s", e.StatusCode, e.Message)
}

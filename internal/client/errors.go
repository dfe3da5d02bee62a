package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// StatusError is implemented by every error produced from a non-2xx response
type StatusError interface {
	error
	StatusCode() int
}

// APIError is a non-2xx response without a more specific classification
type APIError struct {
	Message string
	Status  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("redmine API error (%d): %s", e.Status, e.Message)
}

func (e *APIError) StatusCode() int { return e.Status }

// AuthenticationError is returned for 401 responses
type AuthenticationError struct {
	APIError
}

// AuthorizationError is returned for 403 responses
type AuthorizationError struct {
	APIError
}

// NotFoundError is returned for 404 responses
type NotFoundError struct {
	APIError
}

// ValidationError is returned for 422 responses. Details holds the
// server-supplied messages.
type ValidationError struct {
	APIError
	Details []string
}

// RateLimitedError is returned when the server keeps answering 429
// after the throttle retry budget is spent
type RateLimitedError struct {
	APIError
	Retries int
}

// TransportError wraps the last network-level failure after all attempts
type TransportError struct {
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

type errorBody struct {
	Errors []string `json:"errors"`
}

// parseErrorDetails extracts the {"errors": [...]} list if present
func parseErrorDetails(body []byte) []string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return nil
	}
	return eb.Errors
}

// newStatusError classifies a non-2xx response
func newStatusError(statusCode int, body []byte) StatusError {
	details := parseErrorDetails(body)

	message := strings.Join(details, ", ")
	if message == "" {
		message = fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode))
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return &AuthenticationError{APIError{Message: "Authentication failed. Check your API key.", Status: statusCode}}
	case http.StatusForbidden:
		return &AuthorizationError{APIError{Message: "Insufficient permissions for this request.", Status: statusCode}}
	case http.StatusNotFound:
		return &NotFoundError{APIError{Message: "Resource not found.", Status: statusCode}}
	case http.StatusUnprocessableEntity:
		return &ValidationError{
			APIError: APIError{Message: "Validation failed: " + message, Status: statusCode},
			Details:  details,
		}
	default:
		return &APIError{Message: message, Status: statusCode}
	}
}

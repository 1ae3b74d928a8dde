package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// ErrInvalidRequest is wrapped by Validate failures; nothing is sent.
var ErrInvalidRequest = errors.New("invalid request")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// APIError is a non-2xx response or an envelope reporting failure.
type APIError struct {
	// Status is the HTTP status, or the envelope code when the HTTP
	// exchange itself succeeded.
	Status      int    `json:"status"`
	Code        int    `json:"code,omitempty"`
	Message     string `json:"message,omitempty"`
	Description string `json:"description,omitempty"`
}

func (e *APIError) Error() string {
	msg := firstNonEmpty(e.Description, e.Message, http.StatusText(e.Status))
	return fmt.Sprintf("backend error (%d): %s", e.Status, msg)
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var env wireEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		apiErr.Code = env.Code()
		apiErr.Message = env.Message
		apiErr.Description = firstNonEmpty(env.Descripcion, env.Description)
		if apiErr.Message != "" || apiErr.Description != "" {
			return apiErr
		}
	}

	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	apiErr.Message = text
	return apiErr
}

// StatusOf returns the status of an *APIError in err's chain, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 from a service.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsUnauthorized reports whether the service rejected the token.
func IsUnauthorized(err error) bool {
	s := StatusOf(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}

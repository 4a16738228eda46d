package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoRecording     = errors.New("no recording available")
	ErrNetworkError    = errors.New("network error")
	ErrTimeout         = errors.New("request timeout")
	ErrConfigNotFound  = errors.New("config file not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// VoxError wraps an error with a user-friendly suggestion.
type VoxError struct {
	Err        error
	Suggestion string
}

func (e *VoxError) Error() string {
	return e.Err.Error()
}

func (e *VoxError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &VoxError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var voxErr *VoxError
	if errors.As(err, &voxErr) && voxErr.Suggestion != "" {
		return voxErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrSessionNotFound) || strings.Contains(errStr, "session not found") {
		return "Run 'voxtape sessions' to list available sessions"
	}

	if errors.Is(err, ErrNoRecording) || strings.Contains(errStr, "no recording") {
		return "This session has no audio recording; use 'voxtape info' to inspect its transcript"
	}

	if errors.Is(err, ErrNetworkError) || errors.Is(err, ErrTimeout) ||
		strings.Contains(errStr, "network") || strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") {
		return "Check that the recorder backend is reachable (api.base_url in ~/.voxtaperc)"
	}

	if errors.Is(err, ErrConfigNotFound) || strings.Contains(errStr, "config") {
		return "Run 'voxtape config init' to create a configuration file"
	}

	if strings.Contains(errStr, "500") || strings.Contains(errStr, "server error") {
		return "The backend is having issues. Try again in a moment"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

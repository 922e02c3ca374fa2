package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAgentNotFound    = errors.New("agent not found")
	ErrInvalidPathIndex = errors.New("path index out of range")

	ErrLoad        = errors.New("load agents")
	ErrValidation  = errors.New("validation failed")
	ErrSave        = errors.New("save agent")
	ErrSettings    = errors.New("settings request failed")
	ErrIngestStart = errors.New("start ingestion")
	ErrStatusPoll  = errors.New("poll ingestion status")
	ErrChat        = errors.New("chat request failed")
	ErrBrowse      = errors.New("browse folders")
)

// APIError is a non-2xx backend response. Detail carries the server's
// {"detail": ...} body when present.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Detail)
}

package domain

import "strings"

type IngestionStatus string

const (
	IngestionIdle       IngestionStatus = "idle"
	IngestionProcessing IngestionStatus = "processing"
	IngestionCompleted  IngestionStatus = "completed"
	IngestionFailed     IngestionStatus = "failed"
)

func (s IngestionStatus) Terminal() bool {
	return s == IngestionCompleted || s == IngestionFailed
}

type IngestionJob struct {
	AgentID AgentID
	Status  IngestionStatus
	Message string
}

// Label is the status line shown to the user, e.g. "PROCESSING: Loading
// documents...".
func (j IngestionJob) Label() string {
	status := strings.ToUpper(string(j.Status))
	if j.Message == "" {
		return status
	}
	return status + ": " + j.Message
}

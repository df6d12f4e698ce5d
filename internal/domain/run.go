package domain

import "time"

// RunStatus enumerates the terminal states of a pipeline run.
type RunStatus string

const (
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Run is the audit record of one pipeline execution.
type Run struct {
	ID              string
	Status          RunStatus
	Instruction     string
	HasPerson       bool
	Confidence      float64
	DescriptionJSON []byte
	Prompt          string
	Locator         string
	ErrorCode       string
	ErrorMessage    string
	ClientCountry   string
	CreatedAt       time.Time
}

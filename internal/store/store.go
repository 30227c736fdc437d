// Package store persists scaffold history: one record per orchestrator call,
// updated as the call moves through its step state machine.
package store

import "time"

// Status is the terminal-or-running state of a scaffold call.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ScaffoldRecord is one scaffold call's history row.
type ScaffoldRecord struct {
	ID           string    `json:"id"`
	ArtifactType string    `json:"artifact_type"`
	Fingerprint  string    `json:"fingerprint"`
	TemplateID   string    `json:"template_id"`
	OutputPath   string    `json:"output_path"`
	Category     string    `json:"category"`
	Step         string    `json:"step"`
	Status       Status    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store defines the persistence interface for scaffold history.
type Store interface {
	CreateScaffold(rec ScaffoldRecord) error
	UpdateScaffoldStep(id, step string) error
	CompleteScaffold(id, fingerprint, outputPath string) error
	FailScaffold(id, step, errorMsg string) error
	ListScaffolds(limit int) ([]ScaffoldRecord, error)
	LatestForType(typeID string) (*ScaffoldRecord, error)
	Close() error
}

package db

import "time"

// Run is one processing run of an order file.
type Run struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	OrderFile  string    `json:"order_file"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	Components int       `json:"components"`
	Succeeded  int       `json:"succeeded"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// ComponentRecord is the journaled outcome of one component.
type ComponentRecord struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"run_id"`
	ComponentID string    `json:"component_id"`
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	Programs    int       `json:"programs"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProgramRecord is one emitted NC program.
type ProgramRecord struct {
	ID            int64     `json:"id"`
	RunID         string    `json:"run_id"`
	ComponentID   string    `json:"component_id"`
	SetupName     string    `json:"setup_name"`
	ProgramNumber int       `json:"program_number"`
	OutputFile    string    `json:"output_file"`
	SizeBytes     int64     `json:"size_bytes"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store interface defines the methods for the persistent run journal
type Store interface {
	Close() error

	CreateRun(run Run) error
	FinishRun(id, status, message string, succeeded int) error
	SaveComponent(rec ComponentRecord) error
	SaveProgram(rec ProgramRecord) error

	RecentRuns(limit int) ([]Run, error)
	GetRun(id string) (Run, error)
	RunComponents(runID string) ([]ComponentRecord, error)
	RunPrograms(runID string) ([]ProgramRecord, error)
}

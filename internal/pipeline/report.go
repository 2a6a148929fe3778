package pipeline

import (
	"time"

	"campipe/internal/result"
)

// Final status of an order run.
const (
	// StatusCompleted means every component succeeded.
	StatusCompleted = "completed"
	// StatusPartial means at least one component failed while the order as
	// a whole was still processed end to end.
	StatusPartial = "partial"
	// StatusFailed means the run aborted before any component was
	// processed: the order file could not be loaded or failed validation.
	StatusFailed = "failed"
)

// Report is the structured outcome of one order run. ProcessOrder always
// returns one, whatever happened.
type Report struct {
	RunID      string    `json:"run_id"`
	OrderID    string    `json:"order_id,omitempty"`
	OrderFile  string    `json:"order_file"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	OutputDir  string    `json:"output_dir,omitempty"`
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// ValidationErrors carries the validator findings when the run aborted
	// on a load or validation failure.
	ValidationErrors []string `json:"validation_errors,omitempty"`

	Components []ComponentOutcome `json:"components,omitempty"`
}

// ComponentOutcome records one component's pass through the pipeline,
// including the per-parameter, per-setup and per-program results of
// whichever stages ran before it finished or failed.
type ComponentOutcome struct {
	ComponentID string        `json:"component_id"`
	Success     bool          `json:"success"`
	Message     string        `json:"message"`
	Duration    time.Duration `json:"duration"`

	Parameters []result.Result     `json:"parameters,omitempty"`
	Setups     []result.Result     `json:"setups,omitempty"`
	Programs   []result.PostResult `json:"programs,omitempty"`
}

// Completed reports whether every component succeeded.
func (r *Report) Completed() bool {
	return r.Status == StatusCompleted
}

// ProgramFiles returns the paths of every NC file the run produced, in
// emission order.
func (r *Report) ProgramFiles() []string {
	var files []string
	for _, c := range r.Components {
		for _, p := range c.Programs {
			if p.Success && p.OutputFile != "" {
				files = append(files, p.OutputFile)
			}
		}
	}
	return files
}

// ProgramCount returns how many NC files the component produced.
func (c *ComponentOutcome) ProgramCount() int {
	n := 0
	for _, p := range c.Programs {
		if p.Success {
			n++
		}
	}
	return n
}

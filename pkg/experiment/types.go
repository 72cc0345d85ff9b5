package experiment

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"costlab-hq/tokenbench/pkg/config"
	"costlab-hq/tokenbench/pkg/costs"
	"costlab-hq/tokenbench/pkg/providers"
)

// Plan describes one run: which providers to call, how many times, and with
// which prompts.
type Plan struct {
	// Providers in result order. Ids are normalized and deduplicated by Run.
	Providers []string `json:"providers"`

	// Trials is the number of times each provider is called.
	Trials int `json:"trials"`

	UserPrompt   string `json:"user_prompt"`
	SystemPrompt string `json:"system_prompt,omitempty"`

	// MaxTokens overrides each client's generation cap when positive.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// PlanFromConfig builds a plan from the experiment section.
func PlanFromConfig(cfg config.ExperimentConfig) Plan {
	return Plan{
		Providers:    append([]string(nil), cfg.Providers...),
		Trials:       cfg.Trials,
		UserPrompt:   cfg.UserPrompt,
		SystemPrompt: cfg.SystemPrompt,
	}
}

// Validate checks the plan before any client is resolved.
func (p Plan) Validate() error {
	if len(p.Providers) == 0 {
		return &providers.ConfigError{Field: "providers", Message: "at least one provider is required"}
	}
	if p.Trials < 1 {
		return &providers.ConfigError{Field: "trials", Message: fmt.Sprintf("must be at least 1, got %d", p.Trials)}
	}
	if strings.TrimSpace(p.UserPrompt) == "" {
		return &providers.ConfigError{Field: "user_prompt", Message: "must not be empty"}
	}
	if p.MaxTokens < 0 {
		return &providers.ConfigError{Field: "max_tokens", Message: "must be non-negative"}
	}
	return nil
}

// CallRecord is one attempted provider call, successful or not.
// Records are immutable once appended to a Result.
type CallRecord struct {
	RunID    string `json:"run_id"`
	Trial    int    `json:"trial"`
	Provider string `json:"provider"`
	Model    string `json:"model"`

	UserPrompt   string `json:"user_prompt"`
	SystemPrompt string `json:"system_prompt,omitempty"`
	Output       string `json:"output"`
	FinishReason string `json:"finish_reason,omitempty"`

	Usage providers.TokenUsage `json:"usage"`
	Cost  costs.Breakdown      `json:"cost"`

	Success bool `json:"success"`

	// ErrorKind and Error are empty on success.
	ErrorKind providers.ErrorKind `json:"error_kind,omitempty"`
	Error     string              `json:"error,omitempty"`

	// Attempts counts invocations including retries.
	Attempts int `json:"attempts"`

	// Latency spans rate-limit wait, retries and the final call.
	Latency   time.Duration `json:"latency"`
	StartedAt time.Time     `json:"started_at"`
}

// Result is the ordered set of records produced by one run.
// Within a trial, records follow the plan's provider order.
type Result struct {
	RunID      string       `json:"run_id"`
	Plan       Plan         `json:"plan"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Records    []CallRecord `json:"records"`

	mu sync.Mutex
}

func (r *Result) append(recs ...CallRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Records = append(r.Records, recs...)
}

// Snapshot returns a copy of the records appended so far.
func (r *Result) Snapshot() []CallRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CallRecord(nil), r.Records...)
}

// Succeeded returns the number of successful records.
func (r *Result) Succeeded() int {
	n := 0
	for _, rec := range r.Snapshot() {
		if rec.Success {
			n++
		}
	}
	return n
}

// Failed returns the number of failed records.
func (r *Result) Failed() int {
	return len(r.Snapshot()) - r.Succeeded()
}

// TotalCost sums the cost of every record.
func (r *Result) TotalCost() float64 {
	var total float64
	for _, rec := range r.Snapshot() {
		total += rec.Cost.TotalCost
	}
	return total
}

// Duration returns the wall time of the run.
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

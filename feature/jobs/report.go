package jobs

import (
	"context"
	"fmt"
	"path"
	"time"

	"data-loader/core/storage"

	"github.com/goccy/go-json"
)

// StepReport holds the outcome of one step.
type StepReport struct {
	Name       string `json:"name"`
	Table      string `json:"table"`
	Level      int    `json:"level"`
	Rows       int    `json:"rows"`
	Created    int    `json:"created"`
	Updated    int    `json:"updated"`
	Unchanged  int    `json:"unchanged"`
	Duplicates int    `json:"duplicates"`
	Unresolved int    `json:"unresolved"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Report summarises one job run. Steps keep the job's declaration order;
// steps never reached are absent.
type Report struct {
	Job        string       `json:"job"`
	DryRun     bool         `json:"dry_run"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Steps      []StepReport `json:"steps"`
	Error      string       `json:"error,omitempty"`
}

// Totals sums the counts of every step.
func (r *Report) Totals() StepReport {
	total := StepReport{Name: r.Job}
	for _, s := range r.Steps {
		total.Rows += s.Rows
		total.Created += s.Created
		total.Updated += s.Updated
		total.Unchanged += s.Unchanged
		total.Duplicates += s.Duplicates
		total.Unresolved += s.Unresolved
		total.DurationMS += s.DurationMS
	}
	return total
}

// Succeeded reports whether the run finished without error.
func (r *Report) Succeeded() bool {
	return r.Error == ""
}

// Encode renders the report as indented JSON.
func (r *Report) Encode() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ObjectKey is the storage key of the report under prefix.
func (r *Report) ObjectKey(prefix string) string {
	name := fmt.Sprintf("%s.json", r.StartedAt.UTC().Format("20060102T150405Z"))
	return path.Join(prefix, r.Job, name)
}

// Publisher uploads run reports to object storage.
type Publisher struct {
	Client storage.Client
	Bucket string
	Prefix string
}

// Enabled reports whether uploads are configured.
func (p *Publisher) Enabled() bool {
	return p != nil && p.Client != nil && p.Prefix != ""
}

// Publish uploads the report and returns its object key.
func (p *Publisher) Publish(ctx context.Context, r *Report) (string, error) {
	data, err := r.Encode()
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	key := r.ObjectKey(p.Prefix)
	if err := storage.Upload(ctx, p.Client, p.Bucket, key, data, "application/json"); err != nil {
		return "", err
	}
	return key, nil
}

package reconcile

import (
	"fmt"
	"strings"
	"time"
)

// Report describes a finished run
type Report struct {
	RunID         string        `json:"runId" yaml:"runId"`
	StartedAt     time.Time     `json:"startedAt" yaml:"startedAt"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
	DryRun        bool          `json:"dryRun" yaml:"dryRun"`
	Local         int           `json:"local" yaml:"local"`
	Remote        int           `json:"remote" yaml:"remote"`
	Planned       PlanCounts    `json:"planned" yaml:"planned"`
	Uploaded      int           `json:"uploaded" yaml:"uploaded"`
	Deleted       int           `json:"deleted" yaml:"deleted"`
	Skipped       int           `json:"skipped" yaml:"skipped"`
	BytesUploaded int64         `json:"bytesUploaded" yaml:"bytesUploaded"`
	Failures      []*Outcome    `json:"failures" yaml:"failures"`
}

type PlanCounts struct {
	Uploads   int `json:"uploads" yaml:"uploads"`
	Deletions int `json:"deletions" yaml:"deletions"`
}

func newReport(runID string, startedAt time.Time) *Report {
	return &Report{
		RunID:     runID,
		StartedAt: startedAt,
		Failures:  make([]*Outcome, 0),
	}
}

func (r *Report) applyPlan(plan *Plan) {
	r.Planned = PlanCounts{Uploads: len(plan.Uploads), Deletions: len(plan.Deletions)}
	r.Skipped = plan.Skipped
}

func (r *Report) record(outcomes []*Outcome) {
	for _, o := range outcomes {
		if o.Failed() {
			r.Failures = append(r.Failures, o)
			continue
		}
		switch o.Op {
		case OpUpload:
			r.Uploaded++
			r.BytesUploaded += o.Bytes
		case OpDelete:
			r.Deleted++
		}
	}
}

func (r *Report) Failed() int {
	return len(r.Failures)
}

func (r *Report) HasFailures() bool {
	return len(r.Failures) > 0
}

// Summary renders the report as plain text, one failure per line
func (r *Report) Summary() string {
	var sb strings.Builder

	if r.DryRun {
		fmt.Fprintf(&sb, "dry run: %d to upload, %d to delete, %d unchanged\n",
			r.Planned.Uploads, r.Planned.Deletions, r.Skipped)
	} else {
		fmt.Fprintf(&sb, "uploaded %d, deleted %d, unchanged %d, failed %d\n",
			r.Uploaded, r.Deleted, r.Skipped, r.Failed())
	}
	fmt.Fprintf(&sb, "local %d, remote %d, took %s\n", r.Local, r.Remote, r.Duration.Round(time.Millisecond))

	for _, f := range r.Failures {
		fmt.Fprintf(&sb, "  %s %s: %s\n", f.Op, f.Key, f.Error)
	}

	return sb.String()
}

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var ErrRunInProgress = errors.New("sync already running")

// LocalScanner produces the local inventory
type LocalScanner interface {
	Scan(ctx context.Context) (LocalSnapshot, error)
}

type Runner struct {
	cfg      *Config
	scanner  LocalScanner
	remote   RemoteStore
	planner  *Planner
	executor *Executor

	muRun      sync.Mutex
	lastReport atomic.Pointer[Report]
}

func NewRunner(cfg *Config, scanner LocalScanner, remote RemoteStore, planner *Planner, executor *Executor) *Runner {
	if planner == nil {
		planner = NewPlanner(DetectorFor(cfg.Compare))
	}
	if executor == nil {
		executor = NewExecutor(cfg, remote)
	}
	return &Runner{
		cfg:      cfg,
		scanner:  scanner,
		remote:   remote,
		planner:  planner,
		executor: executor,
	}
}

// Run reconciles the remote against the local vault once.
// Scan and listing failures abort the run; per file failures land in the report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if !r.muRun.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.muRun.Unlock()

	tStart := time.Now()
	report := newReport(uuid.NewString(), tStart)
	report.DryRun = r.cfg.DryRun

	local, err := r.scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan local: %w", err)
	}
	local = r.scoped(local)
	tLocal := time.Since(tStart)

	tremote := time.Now()
	remote, err := FetchRemoteSnapshot(ctx, r.remote, r.cfg.Prefix, r.cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("get remote state: %w", err)
	}
	tRemote := time.Since(tremote)

	plan := r.planner.Plan(local, remote)
	report.Local = len(local)
	report.Remote = len(remote)
	report.applyPlan(plan)

	slog.Debug("reconcile decisions", "uploads", len(plan.Uploads), "deletions", len(plan.Deletions), "skipped", plan.Skipped)

	if !r.cfg.DryRun {
		report.record(r.executor.Upload(ctx, plan.Uploads))
		report.record(r.executor.Delete(ctx, plan.Deletions))
	}

	report.Duration = time.Since(tStart)
	r.lastReport.Store(report)

	slog.Info("full sync",
		"run", report.RunID,
		"dryRun", report.DryRun,
		"local", report.Local,
		"remote", report.Remote,
		"uploads", report.Uploaded,
		"deletes", report.Deleted,
		"unchanged", report.Skipped,
		"failed", report.Failed(),
		"tsLocalState", tLocal,
		"tsRemoteState", tRemote,
		"tsTotal", report.Duration,
	)

	return report, nil
}

// DeletePrefix removes every remote object under prefix regardless of local state
func (r *Runner) DeletePrefix(ctx context.Context, prefix string) (*Report, error) {
	if !r.muRun.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.muRun.Unlock()

	tStart := time.Now()
	report := newReport(uuid.NewString(), tStart)
	report.DryRun = r.cfg.DryRun

	remote, err := FetchRemoteSnapshot(ctx, r.remote, prefix, r.cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("get remote state: %w", err)
	}

	plan := r.planner.Plan(nil, remote)
	report.Remote = len(remote)
	report.applyPlan(plan)

	if !r.cfg.DryRun {
		report.record(r.executor.Delete(ctx, plan.Deletions))
	}

	report.Duration = time.Since(tStart)
	r.lastReport.Store(report)

	slog.Info("delete prefix", "run", report.RunID, "prefix", prefix, "matched", report.Remote, "deletes", report.Deleted, "failed", report.Failed())
	return report, nil
}

// LastReport returns the report of the most recent finished run, or nil
func (r *Runner) LastReport() *Report {
	return r.lastReport.Load()
}

// Running reports whether a run currently holds the runner
func (r *Runner) Running() bool {
	if r.muRun.TryLock() {
		r.muRun.Unlock()
		return false
	}
	return true
}

// scoped drops local files outside the configured prefix so they are neither
// uploaded nor used to protect remote keys outside the listing
func (r *Runner) scoped(local LocalSnapshot) LocalSnapshot {
	if r.cfg.Prefix == "" {
		return local
	}
	out := make(LocalSnapshot, 0, len(local))
	for _, f := range local {
		if strings.HasPrefix(f.RelPath, r.cfg.Prefix) {
			out = append(out, f)
		}
	}
	return out
}

package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"data-loader/core/database"
	"data-loader/core/extract"
	"data-loader/core/metrics"
	"data-loader/core/reconcile"
	"data-loader/core/transform"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Runner executes jobs: per step it extracts the source, transforms the rows
// and reconciles them into the step's table.
type Runner struct {
	db      *gorm.DB
	reader  extract.Reader
	cfg     reconcile.Config
	logger  *zap.Logger
	metrics *metrics.Recorder
}

// NewRunner creates a runner. rec may be nil.
func NewRunner(db *gorm.DB, reader extract.Reader, cfg reconcile.Config, logger *zap.Logger, rec *metrics.Recorder) *Runner {
	return &Runner{db: db, reader: reader, cfg: cfg, logger: logger, metrics: rec}
}

// RunOptions controls one run.
type RunOptions struct {
	// DryRun computes the counts without writing. Lookups then only see
	// entities that already exist.
	DryRun bool
}

// runState is shared by the steps of one run.
type runState struct {
	mu      sync.Mutex
	lookups map[string]reconcile.Lookup
	steps   map[string]StepReport
}

func (st *runState) lookup(names []string) map[string]reconcile.Lookup {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make(map[string]reconcile.Lookup, len(names))
	for _, n := range names {
		if l, ok := st.lookups[n]; ok {
			out[n] = l
		}
	}
	return out
}

func (st *runState) finish(step StepReport, lookup reconcile.Lookup) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.steps[step.Name] = step
	if lookup != nil {
		st.lookups[step.Name] = lookup
	}
}

// Run executes the job level by level. Steps of one level run concurrently;
// the first failing step cancels its level and stops the run. The report is
// returned even on error.
func (r *Runner) Run(ctx context.Context, job *Job, opts RunOptions) (*Report, error) {
	report := &Report{Job: job.Name, DryRun: opts.DryRun, StartedAt: time.Now()}
	log := r.logger.With(zap.String("job", job.Name))

	levels, err := Plan(job)
	if err != nil {
		report.Error = err.Error()
		report.FinishedAt = time.Now()
		return report, err
	}

	st := &runState{
		lookups: make(map[string]reconcile.Lookup),
		steps:   make(map[string]StepReport),
	}
	referenced := job.referenced()

	log.Info("Starting job", zap.Int("steps", len(job.Steps)), zap.Int("levels", len(levels)), zap.Bool("dry_run", opts.DryRun))

	var runErr error
	for lvl, steps := range levels {
		g, gctx := errgroup.WithContext(ctx)
		for _, step := range steps {
			g.Go(func() error {
				return r.runStep(gctx, job.Name, step, lvl, referenced[step.Name], st, opts)
			})
		}
		if runErr = g.Wait(); runErr != nil {
			break
		}
	}

	for _, s := range job.Steps {
		if sr, ok := st.steps[s.Name]; ok {
			report.Steps = append(report.Steps, sr)
		}
	}
	report.FinishedAt = time.Now()

	if runErr != nil {
		report.Error = runErr.Error()
		log.Error("Job failed", zap.Error(runErr))
		return report, runErr
	}

	if r.metrics != nil && !opts.DryRun {
		r.metrics.JobSucceeded(job.Name, report.FinishedAt)
	}
	totals := report.Totals()
	log.Info("Job finished",
		zap.Int("created", totals.Created),
		zap.Int("updated", totals.Updated),
		zap.Int("unchanged", totals.Unchanged),
		zap.Duration("took", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

func (r *Runner) runStep(ctx context.Context, jobName string, step *Step, level int, referenced bool, st *runState, opts RunOptions) error {
	start := time.Now()
	log := r.logger.With(zap.String("job", jobName), zap.String("step", step.Name))
	sr := StepReport{Name: step.Name, Table: step.Table, Level: level}

	lookup, err := r.execute(ctx, step, referenced, st, opts, log, &sr)

	took := time.Since(start)
	sr.DurationMS = took.Milliseconds()
	if err != nil {
		err = fmt.Errorf("step %s: %w", step.Name, err)
		sr.Error = err.Error()
	}
	st.finish(sr, lookup)

	if r.metrics != nil {
		r.metrics.StepDone(jobName, step.Name, took, err)
		if !opts.DryRun {
			r.metrics.Records(jobName, step.Name, step.Table, metrics.OutcomeCreated, sr.Created)
			r.metrics.Records(jobName, step.Name, step.Table, metrics.OutcomeUpdated, sr.Updated)
			r.metrics.Records(jobName, step.Name, step.Table, metrics.OutcomeUnchanged, sr.Unchanged)
			r.metrics.Records(jobName, step.Name, step.Table, metrics.OutcomeDuplicate, sr.Duplicates)
			r.metrics.Records(jobName, step.Name, step.Table, metrics.OutcomeUnresolved, sr.Unresolved)
		}
	}
	return err
}

func (r *Runner) execute(ctx context.Context, step *Step, referenced bool, st *runState, opts RunOptions, log *zap.Logger, sr *StepReport) (reconcile.Lookup, error) {
	rows, err := r.reader.Load(ctx, step.Source, step.separator())
	if err != nil {
		return nil, err
	}
	sr.Rows = len(rows)
	log.Info("Extracted rows", zap.Int("rows", len(rows)), zap.String("source", step.Source))

	lookups := st.lookup(step.Lookups())
	mapping, err := buildMapping(step.Fields, lookups)
	if err != nil {
		return nil, err
	}
	records := transform.Transform(rows, mapping)

	ropts := r.cfg.Options(log)
	ropts.DryRun = opts.DryRun
	ropts.Scope = stepScope(step, referenced)
	ropts.Columns = len(mapping.Names())

	if step.Pair != nil {
		return nil, r.reconcilePairs(ctx, step, records, lookups, ropts, sr)
	}

	adapter := reconcile.RowAdapter{Table: step.Table, Key: step.Key}
	res, err := reconcile.Reconcile(ctx, adapter, reconcile.NewTableStore(r.db, step.Table, step.Key), records, ropts)
	if res != nil {
		sr.Created, sr.Updated, sr.Unchanged, sr.Duplicates = res.Created, res.Updated, res.Unchanged, res.Duplicates
	}
	if err != nil {
		return nil, err
	}
	if ropts.Scope == reconcile.ScopeNone {
		return nil, nil
	}
	return reconcile.RowLookup(res.Index, step.idColumn()), nil
}

func (r *Runner) reconcilePairs(ctx context.Context, step *Step, records []reconcile.Record, lookups map[string]reconcile.Lookup, ropts reconcile.Options, sr *StepReport) error {
	primary, err := r.primaryColumn(step)
	if err != nil {
		return err
	}

	p := step.Pair
	adapter := reconcile.RowPairAdapter{
		Table:         step.Table,
		LeftSource:    p.Left.Field,
		RightSource:   p.Right.Field,
		LeftColumn:    p.Left.Column,
		RightColumn:   p.Right.Column,
		PrimaryColumn: primary,
	}
	store := reconcile.NewTablePairStore(r.db, step.Table, p.Left.Column, p.Right.Column)

	res, err := reconcile.ReconcilePairs(ctx, adapter, store, records, lookups[p.Left.Lookup], lookups[p.Right.Lookup], ropts)
	if res != nil {
		sr.Created, sr.Updated, sr.Duplicates, sr.Unresolved = res.Created, res.Updated, res.Duplicates, res.Unresolved
		sr.Unchanged = res.Considered - res.Created - res.Updated - res.Duplicates - res.Unresolved
	}
	return err
}

// primaryColumn resolves the primary flag column of a pair step.
func (r *Runner) primaryColumn(step *Step) (string, error) {
	switch step.Pair.PrimaryColumn {
	case PrimaryNone:
		return "", nil
	case PrimaryAuto:
		cols, err := database.GetColumnSet(r.db, step.Table)
		if err != nil {
			return "", err
		}
		if cols.Has(reconcile.PrimaryField) {
			return reconcile.PrimaryField, nil
		}
		return "", nil
	default:
		return step.Pair.PrimaryColumn, nil
	}
}

// stepScope picks the index kept after a step. Steps nobody looks up keep
// none unless their scope says otherwise.
func stepScope(step *Step, referenced bool) reconcile.Scope {
	if step.Scope == "" && !referenced {
		return reconcile.ScopeNone
	}
	scope, _ := reconcile.ParseScope(step.Scope)
	return scope
}

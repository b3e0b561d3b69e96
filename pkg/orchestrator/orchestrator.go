package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/magnolia/pkg/importer"
	"github.com/Ramsey-B/magnolia/pkg/metrics"
	"github.com/Ramsey-B/magnolia/pkg/models"
	"github.com/Ramsey-B/magnolia/pkg/snapshot"
	"github.com/Ramsey-B/magnolia/pkg/tracing"
)

// ErrImportAlreadyRunning is returned when a batch is invoked while another
// invocation still holds the advisory lock.
var ErrImportAlreadyRunning = errors.New("an import batch is already running")

// EntityImporter is one entity's import pipeline.
type EntityImporter interface {
	DataModel() string
	Process(ctx context.Context) (bool, error)
}

// Downstream groups the recompute collaborators triggered after a batch that
// changed anything. Each operation is idempotent and re-runnable.
type Downstream interface {
	RecomputePersonComplaintCounts(ctx context.Context) error
	RecomputeDepartmentDataPeriods(ctx context.Context) error
	RebuildSearchIndex(ctx context.Context) error
}

// Events receives batch lifecycle notifications.
type Events interface {
	ImportStarted(ctx context.Context)
	ImportFinished(ctx context.Context, changed bool, failedModels []string)
	ImportFailed(ctx context.Context, err error)
}

// Lock is a held advisory lock.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker guards the batch against overlapping invocations.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// EntityResult is the outcome of one entity importer within a batch.
type EntityResult struct {
	DataModel string
	Changed   bool
	Err       error
}

// RunReport summarizes one orchestrated batch.
type RunReport struct {
	Results []EntityResult
}

// Changed reports whether any importer created, updated or deleted rows.
func (r *RunReport) Changed() bool {
	for _, result := range r.Results {
		if result.Changed {
			return true
		}
	}
	return false
}

// FailedModels lists the data models whose runs failed.
func (r *RunReport) FailedModels() []string {
	var failed []string
	for _, result := range r.Results {
		if result.Err != nil {
			failed = append(failed, result.DataModel)
		}
	}
	return failed
}

// Config holds orchestrator settings
type Config struct {
	LockKey string
	LockTTL time.Duration
}

// Orchestrator runs all entity importers in dependency order under one
// advisory lock, then conditionally triggers downstream recomputation.
type Orchestrator struct {
	importers  []EntityImporter
	locker     Locker
	downstream Downstream
	events     Events
	config     Config
	logger     ectologger.Logger
}

// New creates a new orchestrator
func New(importers []EntityImporter, locker Locker, downstream Downstream, events Events, config Config, logger ectologger.Logger) *Orchestrator {
	return &Orchestrator{
		importers:  importers,
		locker:     locker,
		downstream: downstream,
		events:     events,
		config:     config,
		logger:     logger,
	}
}

// Importers builds the standard importer set in dependency order:
// departments first, officers next, then everything that links to them, and
// persons last because they reference canonical officer uids.
func Importers(store importer.EntityStore, logs importer.LogStore, commits importer.CommitStore, source snapshot.Source, logger ectologger.Logger) []EntityImporter {
	return []EntityImporter{
		importer.NewDepartmentImporter(store, logs, commits, source, logger),
		importer.NewOfficerImporter(store, logs, commits, source, logger),
		importer.NewComplaintImporter(store, logs, commits, source, logger),
		importer.NewCitizenImporter(store, logs, commits, source, logger),
		importer.NewUseOfForceImporter(store, logs, commits, source, logger),
		importer.NewBradyImporter(store, logs, commits, source, logger),
		importer.NewPostOfficerHistoryImporter(store, logs, commits, source, logger),
		importer.NewArticleClassificationImporter(store, logs, commits, source, logger),
		importer.NewPersonImporter(store, logs, commits, source, logger),
	}
}

// Run executes one import batch. A second concurrent invocation returns
// ErrImportAlreadyRunning without touching any state. Entity failures are
// recorded in the report and do not stop later importers; later importers
// simply resolve against whatever foreign keys exist.
func (o *Orchestrator) Run(ctx context.Context) (*RunReport, error) {
	ctx, span := tracing.StartSpan(ctx, "orchestrator.Orchestrator.Run")
	defer span.End()

	lock, err := o.locker.Acquire(ctx, o.config.LockKey, o.config.LockTTL)
	if err != nil {
		if errors.Is(err, ErrImportAlreadyRunning) {
			o.logger.WithContext(ctx).Warn("Import batch already running, skipping")
			return nil, ErrImportAlreadyRunning
		}
		o.events.ImportFailed(ctx, err)
		return nil, err
	}
	defer func() {
		if releaseErr := lock.Release(ctx); releaseErr != nil {
			o.logger.WithContext(ctx).WithError(releaseErr).Error("Failed to release import lock")
		}
	}()

	o.events.ImportStarted(ctx)
	o.logger.WithContext(ctx).WithFields(map[string]any{"importers": len(o.importers)}).Info("Starting import batch")

	report := &RunReport{}
	for _, imp := range o.importers {
		result := o.runImporter(ctx, imp)
		report.Results = append(report.Results, result)
	}

	failed := report.FailedModels()
	if len(failed) > 0 {
		metrics.BatchRunsTotal.WithLabelValues(models.ImportLogStatusFailed).Inc()
		o.logger.WithContext(ctx).WithFields(map[string]any{"failed_models": failed}).Warn("Import batch finished with failures")
	} else {
		metrics.BatchRunsTotal.WithLabelValues(models.ImportLogStatusFinished).Inc()
	}

	if report.Changed() {
		o.recompute(ctx)
	} else {
		o.logger.WithContext(ctx).Info("No importer reported changes, skipping downstream recomputation")
	}

	o.events.ImportFinished(ctx, report.Changed(), failed)
	return report, nil
}

func (o *Orchestrator) runImporter(ctx context.Context, imp EntityImporter) EntityResult {
	ctx, span := tracing.StartSpan(ctx, "orchestrator.Orchestrator.runImporter")
	defer span.End()

	start := time.Now()
	changed, err := imp.Process(ctx)
	metrics.ImportRunDuration.WithLabelValues(imp.DataModel()).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ImportRunsTotal.WithLabelValues(imp.DataModel(), models.ImportLogStatusFailed).Inc()
		o.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"data_model": imp.DataModel()}).Error("Entity import failed, continuing with remaining importers")
		return EntityResult{DataModel: imp.DataModel(), Err: err}
	}

	metrics.ImportRunsTotal.WithLabelValues(imp.DataModel(), models.ImportLogStatusFinished).Inc()
	return EntityResult{DataModel: imp.DataModel(), Changed: changed}
}

// recompute triggers the downstream collaborators. Each is independent;
// a failure is logged and the remaining targets still run.
func (o *Orchestrator) recompute(ctx context.Context) {
	ctx, span := tracing.StartSpan(ctx, "orchestrator.Orchestrator.recompute")
	defer span.End()

	targets := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"person_complaint_counts", o.downstream.RecomputePersonComplaintCounts},
		{"department_data_periods", o.downstream.RecomputeDepartmentDataPeriods},
		{"search_index", o.downstream.RebuildSearchIndex},
	}

	for _, target := range targets {
		if err := target.fn(ctx); err != nil {
			metrics.DownstreamRecomputesTotal.WithLabelValues(target.name, "error").Inc()
			o.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"target": target.name}).Error("Downstream recompute failed")
			continue
		}
		metrics.DownstreamRecomputesTotal.WithLabelValues(target.name, "ok").Inc()
		o.logger.WithContext(ctx).WithFields(map[string]any{"target": target.name}).Info("Downstream recompute finished")
	}
}

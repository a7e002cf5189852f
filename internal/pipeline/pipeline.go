// Package pipeline drives one weekly publish run: load exports, fetch
// ranks, reconcile, aggregate, publish, and record the outcome.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/seller-metrics-cli/internal/aggregate"
	"github.com/sells-group/seller-metrics-cli/internal/config"
	"github.com/sells-group/seller-metrics-cli/internal/model"
	"github.com/sells-group/seller-metrics-cli/internal/products"
	"github.com/sells-group/seller-metrics-cli/internal/rank"
	"github.com/sells-group/seller-metrics-cli/internal/reconcile"
	"github.com/sells-group/seller-metrics-cli/internal/source"
	"github.com/sells-group/seller-metrics-cli/internal/store"
	"github.com/sells-group/seller-metrics-cli/pkg/helium"
)

// Publisher is the slice of publish.Publisher the pipeline drives.
type Publisher interface {
	Plan(records []model.CompositeRecord) ([]model.PublishTarget, error)
	Publish(ctx context.Context, targets []model.PublishTarget) []model.SheetStatus
}

// Pipeline orchestrates loaders, the rank fetcher, reconciliation,
// aggregation and publishing for one run.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	registry  *products.Registry
	fetcher   *rank.Fetcher
	publisher Publisher
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, st store.Store, registry *products.Registry, fetcher *rank.Fetcher, publisher Publisher) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		store:     st,
		registry:  registry,
		fetcher:   fetcher,
		publisher: publisher,
	}
}

// Options selects what one run covers.
type Options struct {
	// TargetDate anchors the reporting window: the Monday-to-Sunday week
	// ending immediately before the date's week.
	TargetDate time.Time

	// Dir overrides the configured export directory.
	Dir string

	// Regions limits the run; empty means every region in the registry.
	Regions []model.Region

	// Sources limits which source kinds run; empty means all.
	Sources []model.SourceKind

	Filter ProvenanceFilter
}

func (o Options) enabled(kind model.SourceKind) bool {
	if len(o.Sources) == 0 {
		return true
	}
	for _, k := range o.Sources {
		if k == kind {
			return true
		}
	}
	return false
}

// Run executes one publish run end to end. Per-source and per-sheet
// failures are isolated into the report; the returned error covers only
// failures that prevented the run from producing a report at all.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*model.Run, error) {
	window := model.ReportingWindow(opts.TargetDate)
	period := window.Period()

	regions := opts.Regions
	if len(regions) == 0 {
		regions = p.registry.Regions()
	}

	log := zap.L().With(zap.String("period", period.String()))
	log.Info("run: starting", zap.Int("regions", len(regions)))

	run, err := p.store.CreateRun(ctx, period, regions)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}

	setStatus := func(status model.RunStatus) {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, status); statusErr != nil {
			log.Warn("run: status update failed", zap.Error(statusErr))
		}
	}

	start := time.Now()
	report := &model.RunReport{Period: period, Regions: regions}

	// Rank fetching runs while export files are parsed; both finish
	// before reconciliation.
	var (
		current    []model.Observation
		historical []model.Observation
		rankObs    []model.Observation
		rankStatus []model.SourceStatus
	)

	setStatus(model.RunStatusLoading)
	g, gCtx := errgroup.WithContext(ctx)

	if opts.enabled(model.SourceRank) && opts.Filter.Current() {
		g.Go(func() error {
			rankObs, rankStatus = p.fetchRanks(gCtx, regions, window, report)
			return nil
		})
	}

	g.Go(func() error {
		current, historical = p.loadSources(gCtx, regions, period, opts, report)
		return nil
	})

	if err := g.Wait(); err != nil {
		setStatus(model.RunStatusFailed)
		return run, err
	}
	if err := ctx.Err(); err != nil {
		// Completed rank results survive cancellation, but no further
		// stage runs.
		setStatus(model.RunStatusFailed)
		return run, eris.Wrap(err, "pipeline: run cancelled")
	}
	report.Sources = append(report.Sources, rankStatus...)
	current = append(current, rankObs...)

	setStatus(model.RunStatusAggregating)
	series := reconcile.MergeAll(current, historical)
	records := aggregate.Build(series)
	report.Records = len(records)

	if len(records) == 0 {
		report.DurationMS = time.Since(start).Milliseconds()
		if reportErr := p.store.UpdateRunReport(ctx, run.ID, report); reportErr != nil {
			log.Warn("run: report update failed", zap.Error(reportErr))
		}
		run.Report = report
		run.Status = report.Outcome()
		return run, eris.New("pipeline: no records to publish")
	}

	setStatus(model.RunStatusPublishing)
	targets, err := p.publisher.Plan(records)
	if err != nil {
		setStatus(model.RunStatusFailed)
		return run, eris.Wrap(err, "pipeline: plan publish")
	}
	report.Sheets = p.publisher.Publish(ctx, targets)

	report.DurationMS = time.Since(start).Milliseconds()
	if err := p.store.UpdateRunReport(ctx, run.ID, report); err != nil {
		log.Warn("run: report update failed", zap.Error(err))
	}

	run.Report = report
	run.Status = report.Outcome()
	log.Info("run: finished",
		zap.String("status", string(run.Status)),
		zap.Int("records", report.Records),
		zap.Int64("duration_ms", report.DurationMS))
	return run, nil
}

// loadSources parses every enabled file-backed source for every region,
// appending per-source statuses to the report. A malformed file fails
// that source only.
func (p *Pipeline) loadSources(ctx context.Context, regions []model.Region, period model.Period, opts Options, report *model.RunReport) (current, historical []model.Observation) {
	dir := opts.Dir
	if dir == "" {
		dir = p.cfg.Sources.Dir
	}

	for _, region := range regions {
		productList := p.registry.ForRegion(region)
		for _, loader := range source.Loaders(productList) {
			if !opts.enabled(loader.Kind()) {
				continue
			}

			status := model.SourceStatus{Source: loader.Kind(), Region: region}
			exports := exportsFor(p.cfg.Sources, dir, region, loader.Kind(), period, opts.Filter)
			if len(exports) == 0 {
				status.Outcome = model.OutcomeSkipped
				report.Sources = append(report.Sources, status)
				continue
			}

			for _, exp := range exports {
				obs, stats, err := loader.Load(ctx, exp)
				status.RowsRead += stats.RowsRead
				status.RowsSkipped += stats.RowsSkipped
				if err != nil {
					var formatErr *source.FormatError
					if errors.As(err, &formatErr) {
						zap.L().Error("source rejected", zap.Error(formatErr))
					} else {
						zap.L().Error("source load failed",
							zap.String("source", string(loader.Kind())),
							zap.String("path", exp.Path),
							zap.Error(err))
					}
					status.Outcome = model.OutcomeFailed
					status.Error = err.Error()
					continue
				}

				status.Observations += len(obs)
				if exp.Provenance == model.ProvenanceHistorical {
					historical = append(historical, obs...)
				} else {
					current = append(current, obs...)
				}
			}

			if status.Outcome == "" {
				if status.RowsSkipped > 0 {
					status.Outcome = model.OutcomeDegraded
				} else {
					status.Outcome = model.OutcomeSuccess
				}
			}
			report.Sources = append(report.Sources, status)
		}
	}
	return current, historical
}

// fetchRanks resolves every region's rank queries and converts found
// positions into observations for the reporting week.
func (p *Pipeline) fetchRanks(ctx context.Context, regions []model.Region, window model.WeekWindow, report *model.RunReport) ([]model.Observation, []model.SourceStatus) {
	period := window.Period()
	fetchWindow := helium.Window{
		Start: window.Start.UnixMilli(),
		End:   window.End.UnixMilli(),
	}

	var statuses []model.SourceStatus
	var obs []model.Observation
	for _, region := range regions {
		var queries []model.RankQuery
		for _, product := range p.registry.ForRegion(region) {
			queries = append(queries, product.RankQueries(region)...)
		}

		status := model.SourceStatus{Source: model.SourceRank, Region: region}
		if len(queries) == 0 {
			status.Outcome = model.OutcomeSkipped
			statuses = append(statuses, status)
			continue
		}

		results := p.fetcher.Fetch(ctx, fetchWindow, queries)
		missing := rank.MissingCount(results)
		regionObs := rank.Observations(results, period)

		status.RowsRead = len(results)
		status.Observations = len(regionObs)
		if missing == len(results) {
			status.Outcome = model.OutcomeFailed
			status.Error = "no rank data returned"
		} else if missing > 0 {
			status.Outcome = model.OutcomeDegraded
		} else {
			status.Outcome = model.OutcomeSuccess
		}

		report.RankQueries += len(queries)
		report.RankMissing += missing
		obs = append(obs, regionObs...)
		statuses = append(statuses, status)
	}
	return obs, statuses
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/seller-metrics-cli/internal/model"
	"github.com/sells-group/seller-metrics-cli/internal/pipeline"
	"github.com/sells-group/seller-metrics-cli/internal/products"
	"github.com/sells-group/seller-metrics-cli/internal/publish"
	"github.com/sells-group/seller-metrics-cli/internal/rank"
	"github.com/sells-group/seller-metrics-cli/internal/resilience"
	"github.com/sells-group/seller-metrics-cli/internal/store"
	"github.com/sells-group/seller-metrics-cli/pkg/helium"
	"github.com/sells-group/seller-metrics-cli/pkg/sheets"
)

// dateLayout matches the operator habit of naming run dates like 12/Mar/24.
const dateLayout = "02/Jan/06"

var (
	publishDate    string
	publishDir     string
	publishRegions []string
	publishSources []string
	currentOnly    bool
	historicalOnly bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Run the weekly metrics publish",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if currentOnly && historicalOnly {
			return eris.New("--current-only and --historical-only are mutually exclusive")
		}

		target := time.Now()
		if publishDate != "" {
			var err error
			target, err = time.Parse(dateLayout, publishDate)
			if err != nil {
				return eris.Wrapf(err, "parse --date %q (expected e.g. 12/Mar/24)", publishDate)
			}
		}

		regions, err := parseRegions(publishRegions)
		if err != nil {
			return err
		}
		kinds, err := parseSources(publishSources)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		run, err := env.Pipeline.Run(ctx, pipeline.Options{
			TargetDate: target,
			Dir:        publishDir,
			Regions:    regions,
			Sources:    kinds,
			Filter: pipeline.ProvenanceFilter{
				CurrentOnly:    currentOnly,
				HistoricalOnly: historicalOnly,
			},
		})
		if run != nil && run.Report != nil {
			formatReport(os.Stdout, run.ID, run.Report)
		}
		if err != nil {
			return eris.Wrap(err, "publish run")
		}
		return nil
	},
}

func init() {
	publishCmd.Flags().StringVar(&publishDate, "date", "", "target date (DD/Mon/YY), default today; the published week is the full week before this date's week")
	publishCmd.Flags().StringVar(&publishDir, "filepath", "", "directory holding the export files (default from config)")
	publishCmd.Flags().StringSliceVar(&publishRegions, "region", nil, "regions to publish (repeatable), default all configured")
	publishCmd.Flags().StringSliceVar(&publishSources, "sources", nil, "source kinds to include (repeatable), default all")
	publishCmd.Flags().BoolVar(&currentOnly, "current-only", false, "load only current exports")
	publishCmd.Flags().BoolVar(&historicalOnly, "historical-only", false, "load only historical exports, skip rank fetching")
	rootCmd.AddCommand(publishCmd)
}

func parseRegions(args []string) ([]model.Region, error) {
	var regions []model.Region
	for _, arg := range args {
		r, err := model.ParseRegion(arg)
		if err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	return regions, nil
}

func parseSources(args []string) ([]model.SourceKind, error) {
	var kinds []model.SourceKind
	for _, arg := range args {
		k, err := model.ParseSourceKind(arg)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// pipelineEnv bundles the pipeline with the handles commands must close.
type pipelineEnv struct {
	Pipeline *pipeline.Pipeline
	Store    store.Store
}

func (e *pipelineEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("store close failed", zap.Error(err))
		}
	}
}

func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}

	registry, err := products.Load(cfg.Products.Path)
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "load products")
	}

	rankClient := helium.NewClient(
		cfg.Rank.AuthToken,
		cfg.Rank.AccessToken,
		cfg.Rank.AccountID,
		helium.WithBaseURL(cfg.Rank.BaseURL),
	)
	fetcher := rank.New(rankClient, rank.Config{
		Concurrency:    cfg.Rank.Concurrency,
		RequestsPerSec: cfg.Rank.RequestsPerSec,
		Retry:          resilience.FromConfig(cfg.Rank.MaxAttempts, cfg.Rank.InitialBackoffMs, cfg.Rank.MaxBackoffMs, 0, -1),
	})

	sheetsClient := sheets.NewClient(cfg.Sheets.Token, sheets.WithBaseURL(cfg.Sheets.BaseURL))
	sheetIDs := make(map[model.Region]string, len(cfg.Sheets.SpreadsheetIDs))
	for key, id := range cfg.Sheets.SpreadsheetIDs {
		region, err := model.ParseRegion(key)
		if err != nil {
			st.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sheets.spreadsheet_ids key %q", key)
		}
		sheetIDs[region] = id
	}
	publisher := publish.New(sheetsClient, cfg.Publish, registry, sheetIDs)

	return &pipelineEnv{
		Pipeline: pipeline.New(cfg, st, registry, fetcher, publisher),
		Store:    st,
	}, nil
}

// formatReport prints the per-source / per-sheet status summary.
func formatReport(w io.Writer, runID string, report *model.RunReport) {
	fmt.Fprintf(w, "Run %s  week %s  (%d records, %d ms)\n\n",
		runID, report.Period, report.Records, report.DurationMS)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tREGION\tOUTCOME\tROWS\tSKIPPED\tOBS\tERROR")
	for _, s := range report.Sources {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			s.Source, s.Region, s.Outcome, s.RowsRead, s.RowsSkipped, s.Observations, s.Error)
	}
	tw.Flush()

	if report.RankQueries > 0 {
		fmt.Fprintf(w, "\nRank queries: %d (%d without data)\n", report.RankQueries, report.RankMissing)
	}

	if len(report.Sheets) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SHEET\tREGION\tOUTCOME\tRANGES\tERROR")
		for _, s := range report.Sheets {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
				s.SheetID, s.Region, s.Outcome, s.Ranges, s.Error)
		}
		tw.Flush()
	}

	fmt.Fprintf(w, "\nOutcome: %s\n", report.Outcome())
}

package cron

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/angelmondragon/catalogsync/internal/catalog"
	"github.com/angelmondragon/catalogsync/internal/classify"
	"github.com/angelmondragon/catalogsync/internal/crawler"
	"github.com/angelmondragon/catalogsync/internal/reconcile"
	pkgerrors "github.com/angelmondragon/catalogsync/pkg/errors"
	"github.com/angelmondragon/catalogsync/pkg/logger"
	"github.com/angelmondragon/catalogsync/pkg/metrics"
	"go.uber.org/multierr"
)

const (
	catalogSyncJobName = "catalog_sync"
	rawFileName        = "raw.json"
	mergedFileName     = "merged.json"
	seedDirName        = "seed"
	lastRunTTL         = 30 * 24 * time.Hour
)

type catalogFetcher interface {
	FetchAll(ctx context.Context) (crawler.Document, error)
}

type batchReconciler interface {
	Run(ctx context.Context, batch reconcile.Batch) (reconcile.Report, error)
}

type lastRunStore interface {
	StoreLastRun(ctx context.Context, job string, payload []byte, ttl time.Duration) error
}

// CatalogSyncJobParams configure the crawl-to-store job.
type CatalogSyncJobParams struct {
	Logger     *logger.Logger
	Fetcher    catalogFetcher
	Merger     *catalog.Merger
	Classifier *classify.Classifier
	Reconciler batchReconciler
	DataDir    string
	LastRun    lastRunStore
	Metrics    *metrics.ReconcileMetrics
	Now        func() time.Time
}

type catalogSyncJob struct {
	logg       *logger.Logger
	fetcher    catalogFetcher
	merger     *catalog.Merger
	classifier *classify.Classifier
	reconciler batchReconciler
	dataDir    string
	lastRun    lastRunStore
	metrics    *metrics.ReconcileMetrics
	now        func() time.Time
}

// SyncSummary is the record stored after every successful run.
type SyncSummary struct {
	Crawled    int              `json:"crawled"`
	Merged     int              `json:"merged"`
	Packaged   int              `json:"packaged"`
	Report     reconcile.Report `json:"report"`
	FinishedAt time.Time        `json:"finished_at"`
}

// NewCatalogSyncJob builds the job that crawls the storefront, merges and
// classifies the listing, then reconciles categories and products.
func NewCatalogSyncJob(params CatalogSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Fetcher == nil {
		return nil, fmt.Errorf("catalog fetcher required")
	}
	if params.Classifier == nil {
		return nil, fmt.Errorf("classifier required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	if params.DataDir == "" {
		return nil, fmt.Errorf("data dir required")
	}
	merger := params.Merger
	if merger == nil {
		merger = catalog.NewMerger()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &catalogSyncJob{
		logg:       params.Logger,
		fetcher:    params.Fetcher,
		merger:     merger,
		classifier: params.Classifier,
		reconciler: params.Reconciler,
		dataDir:    params.DataDir,
		lastRun:    params.LastRun,
		metrics:    params.Metrics,
		now:        now,
	}, nil
}

func (j *catalogSyncJob) Name() string { return catalogSyncJobName }

func (j *catalogSyncJob) Run(ctx context.Context) error {
	doc, err := j.fetcher.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("crawl: %w", err)
	}

	var raw bytes.Buffer
	if err := crawler.WriteBatch(&raw, doc); err != nil {
		return fmt.Errorf("encode crawl: %w", err)
	}
	if err := j.writeFile(rawFileName, raw.Bytes()); err != nil {
		return err
	}

	batch, err := catalog.ParseBatch(raw.Bytes())
	if err != nil {
		return fmt.Errorf("parse crawl: %w", err)
	}
	merged := j.merger.Merge(batch)
	j.metrics.SetMergeStage("original", merged.Meta.OriginalItems)
	j.metrics.SetMergeStage("grouped", merged.Meta.GroupedItems)
	j.metrics.SetMergeStage("removed_no_media", merged.Meta.RemovedNoMedia)
	j.metrics.SetMergeStage("total", merged.Meta.TotalItems)

	var mergedBuf bytes.Buffer
	if err := catalog.WriteDocument(&mergedBuf, merged); err != nil {
		return fmt.Errorf("encode merge: %w", err)
	}
	if err := j.writeFile(mergedFileName, mergedBuf.Bytes()); err != nil {
		return err
	}

	seed := classify.BuildSeed(merged.Items, j.classifier)
	if err := classify.WriteSeed(filepath.Join(j.dataDir, seedDirName), seed); err != nil {
		return fmt.Errorf("write seed: %w", err)
	}

	report, err := j.reconciler.Run(ctx, seed.Batch())
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	summary := SyncSummary{
		Crawled:    len(doc.Items),
		Merged:     len(merged.Items),
		Packaged:   seed.Packaged,
		Report:     report,
		FinishedAt: j.now().UTC(),
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"crawled":  summary.Crawled,
		"merged":   summary.Merged,
		"packaged": summary.Packaged,
		"upserted": report.Upserted(),
		"skipped":  report.Skipped(),
		"run_id":   report.RunID,
	}), "catalog sync finished")

	var errs error
	if report.Skipped() > 0 {
		errs = multierr.Append(errs, j.skippedError(report))
	}
	errs = multierr.Append(errs, j.storeSummary(ctx, summary))
	return errs
}

// skippedError surfaces skipped records as a non-fatal job failure so the
// failure counter moves.
func (j *catalogSyncJob) skippedError(report reconcile.Report) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%d records skipped", report.Skipped())).
		WithDetails(map[string]any{
			"categories": report.Categories.Skipped,
			"products":   report.Products.Skipped,
		})
}

func (j *catalogSyncJob) storeSummary(ctx context.Context, summary SyncSummary) error {
	if j.lastRun == nil {
		return nil
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := j.lastRun.StoreLastRun(ctx, catalogSyncJobName, payload, lastRunTTL); err != nil {
		return fmt.Errorf("store last run: %w", err)
	}
	return nil
}

func (j *catalogSyncJob) writeFile(name string, data []byte) error {
	if err := os.MkdirAll(j.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(j.dataDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

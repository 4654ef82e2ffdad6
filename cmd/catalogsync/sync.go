package main

import (
	"context"

	"github.com/angelmondragon/catalogsync/internal/backend"
	"github.com/angelmondragon/catalogsync/internal/classify"
	"github.com/angelmondragon/catalogsync/internal/cron"
	"github.com/angelmondragon/catalogsync/internal/crawler"
	"github.com/angelmondragon/catalogsync/internal/reconcile"
	"github.com/spf13/cobra"
)

func (a *app) syncCommand() *cobra.Command {
	var dataDir, rulesFile string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run crawl, merge, classify and reconcile once, without the run lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("dry-run") {
				cfg.Reconcile.DryRun = dryRun
			}
			if !cmd.Flags().Changed("data-dir") && cfg.Worker.DataDir != "" {
				dataDir = cfg.Worker.DataDir
			}
			if !cmd.Flags().Changed("rules") {
				rulesFile = cfg.Worker.RulesFile
			}
			classifier, err := classify.NewFromFile(rulesFile)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			logg := a.logger()
			store, err := backend.Open(ctx, cfg, logg)
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(context.Background()); err != nil {
					logg.Error(ctx, "error closing store", err)
				}
			}()

			rec, err := reconcile.NewFromConfig(store.Stores, cfg.Reconcile, cfg.Password, logg)
			if err != nil {
				return err
			}
			job, err := cron.NewCatalogSyncJob(cron.CatalogSyncJobParams{
				Logger:     logg,
				Fetcher:    crawler.NewFromConfig(cfg.Crawler, crawler.WithLogger(logg)),
				Classifier: classifier,
				Reconciler: rec,
				DataDir:    dataDir,
			})
			if err != nil {
				return err
			}
			return job.Run(logg.WithField(ctx, "job", job.Name()))
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", "data", "directory receiving raw.json, merged.json and seed/")
	cmd.Flags().StringVar(&rulesFile, "rules", "", "YAML rule set replacing the built-in rules")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve everything but write nothing")
	return cmd
}

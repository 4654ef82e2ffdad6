package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/catalogsync/internal/backend"
	"github.com/angelmondragon/catalogsync/internal/reconcile"
	"github.com/spf13/cobra"
)

func (a *app) reconcileCommand() *cobra.Command {
	var (
		dir      string
		dryRun   bool
		parallel bool
		only     []string
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Upsert <entity>.json files from a directory into the store",
		Long: `Reads categories.json, products.json, users.json, orders.json and
blogs.json from --dir (missing files are skipped) and upserts them by
natural key. The run report is printed to stdout as JSON.`,
		Example: `  catalogsync reconcile --dir seed/ --dry-run
  catalogsync reconcile --dir export/ --only users,orders`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entities, err := parseEntities(only)
			if err != nil {
				return err
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("dry-run") {
				cfg.Reconcile.DryRun = dryRun
			}
			if cmd.Flags().Changed("parallel") {
				cfg.Reconcile.Parallel = parallel
			}

			batch, err := reconcile.LoadDir(dir, entities...)
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
			report, err := rec.Run(logg.WithField(ctx, "store", store.Name), batch)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "seed", "directory holding <entity>.json files")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve everything but write nothing (overrides CATALOGSYNC_DRY_RUN)")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "reconcile products and users concurrently")
	cmd.Flags().StringSliceVar(&only, "only", nil, "restrict the run to these entities: "+strings.Join(entityNames(), ","))
	return cmd
}

func parseEntities(values []string) ([]reconcile.Entity, error) {
	var out []reconcile.Entity
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		e, ok := reconcile.ParseEntity(v)
		if !ok {
			return nil, fmt.Errorf("unknown entity %q (want one of %s)", v, strings.Join(entityNames(), ", "))
		}
		out = append(out, e)
	}
	return out, nil
}

func entityNames() []string {
	names := make([]string, 0, len(reconcile.Entities))
	for _, e := range reconcile.Entities {
		names = append(names, string(e))
	}
	return names
}

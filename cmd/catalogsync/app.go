package main

import (
	"io"
	"os"

	"github.com/angelmondragon/catalogsync/pkg/config"
	"github.com/angelmondragon/catalogsync/pkg/logger"
	"github.com/spf13/cobra"
)

const serviceName = "catalogsync"

type app struct {
	logLevel string
	logg     *logger.Logger
	stderr   io.Writer

	// loadConfig reads the full config; loadLocal skips store settings.
	loadConfig func() (*config.Config, error)
	loadLocal  func() (*config.Config, error)
}

func newApp() *app {
	return &app{
		stderr:     os.Stderr,
		loadConfig: config.Load,
		loadLocal:  config.LoadLocal,
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "catalogsync",
		Short: "Crawl, merge, classify and reconcile the storefront catalog",
		Long: `catalogsync turns the storefront collection API into store records.

The pipeline is split into steps that read and write JSON documents, so
each step can be run, inspected and re-run on its own:

  crawl     -> raw crawl document
  merge     -> one entry per item with consolidated sizes and media
  classify  -> categories.json and products.json seed files
  reconcile -> idempotent upserts into the configured store`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.stderr = cmd.ErrOrStderr()
			a.logg = logger.New(logger.Options{
				ServiceName: serviceName,
				Level:       logger.ParseLevel(a.logLevel),
				Output:      a.stderr,
			})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		a.crawlCommand(),
		a.mergeCommand(),
		a.classifyCommand(),
		a.reconcileCommand(),
		a.syncCommand(),
	)
	return root
}

func (a *app) logger() *logger.Logger {
	if a.logg == nil {
		a.logg = logger.New(logger.Options{ServiceName: serviceName, Output: a.stderr})
	}
	return a.logg
}

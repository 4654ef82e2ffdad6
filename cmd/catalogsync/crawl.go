package main

import (
	"io"

	"github.com/angelmondragon/catalogsync/internal/crawler"
	"github.com/spf13/cobra"
)

func (a *app) crawlCommand() *cobra.Command {
	var (
		out      string
		maxPages int
	)
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Fetch every collection page into a raw crawl document",
		Example: `  catalogsync crawl --out data/raw.json
  catalogsync crawl --max-pages 2 --out -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadLocal()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-pages") {
				cfg.Crawler.MaxPages = maxPages
			}
			client := crawler.NewFromConfig(cfg.Crawler, crawler.WithLogger(a.logger()))
			doc, err := client.FetchAll(cmd.Context())
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, func(w io.Writer) error {
				return crawler.WriteBatch(w, doc)
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "raw.json", "output file, - for stdout")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop after this many pages, 0 for no cap")
	return cmd
}

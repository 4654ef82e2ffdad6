package main

import (
	"io"

	"github.com/angelmondragon/catalogsync/internal/catalog"
	"github.com/spf13/cobra"
)

func (a *app) mergeCommand() *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Group raw items by item number and consolidate sizes and media",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			batch, err := catalog.ParseBatch(data)
			if err != nil {
				return err
			}
			doc := catalog.NewMerger().Merge(batch)

			logg := a.logger()
			logg.Info(logg.WithFields(cmd.Context(), map[string]any{
				"original":         doc.Meta.OriginalItems,
				"grouped":          doc.Meta.GroupedItems,
				"removed_no_media": doc.Meta.RemovedNoMedia,
				"total":            doc.Meta.TotalItems,
			}), "merge finished")

			return writeOutput(cmd, out, func(w io.Writer) error {
				return catalog.WriteDocument(w, doc)
			})
		},
	}
	cmd.Flags().StringVar(&in, "in", "raw.json", "raw crawl document, - for stdin")
	cmd.Flags().StringVar(&out, "out", "merged.json", "output file, - for stdout")
	return cmd
}

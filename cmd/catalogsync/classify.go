package main

import (
	"bytes"

	"github.com/angelmondragon/catalogsync/internal/catalog"
	"github.com/angelmondragon/catalogsync/internal/classify"
	"github.com/spf13/cobra"
)

func (a *app) classifyCommand() *cobra.Command {
	var in, outDir, rulesFile string
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Assign merged entries to the taxonomy and write reconciler seed files",
		Example: `  catalogsync classify --in merged.json --out-dir seed/
  catalogsync classify --in merged.json --out-dir seed/ --rules rules.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			classifier, err := classify.NewFromFile(rulesFile)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			doc, err := catalog.ReadDocument(bytes.NewReader(data))
			if err != nil {
				return err
			}
			seed := classify.BuildSeed(doc.Items, classifier)
			if err := classify.WriteSeed(outDir, seed); err != nil {
				return err
			}

			logg := a.logger()
			logg.Info(logg.WithFields(cmd.Context(), map[string]any{
				"categories": len(seed.Categories),
				"products":   len(seed.Products),
				"packaged":   seed.Packaged,
				"dir":        outDir,
			}), "seed written")
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "merged.json", "merged document, - for stdin")
	cmd.Flags().StringVar(&outDir, "out-dir", "seed", "directory receiving categories.json and products.json")
	cmd.Flags().StringVar(&rulesFile, "rules", "", "YAML rule set replacing the built-in rules")
	return cmd
}

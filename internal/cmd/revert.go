package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/strrl/distcurve/internal/config"
	"github.com/strrl/distcurve/internal/output"
	"github.com/strrl/distcurve/internal/parser"
	"github.com/strrl/distcurve/internal/pipeline"
	"github.com/strrl/distcurve/internal/signals"
	"github.com/strrl/distcurve/internal/storage"
)

var revertCmd = &cobra.Command{
	Use:   "revert <clip.json>...",
	Short: "Remove a baked distance curve from each clip",
	Long: `Revert removes the named curve from every clip, from the curve library
when one is configured and, with --write-back, from the clip manifest.`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"bake.curveName":   "curve",
			"output.writeBack": "write-back",
			"storage.type":     "storage",
		})
	},
	RunE: runRevert,
}

func init() {
	rootCmd.AddCommand(revertCmd)

	flags := revertCmd.Flags()
	flags.String("curve", signals.DefaultSettings().CurveName, "Name of the curve to remove")
	flags.Bool("write-back", false, "Remove the curve from each clip manifest")
	flags.String("storage", "none", "Curve library backend (none, sqlite, postgres)")
}

func runRevert(cmd *cobra.Command, args []string) error {
	curveName := config.GetString("bake.curveName")
	writeBack := config.GetOutputConfig().WriteBack

	store, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to open curve library: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	p := pipeline.New(log)
	prs := parser.NewParser()

	failed := 0
	for _, path := range args {
		clip, err := prs.LoadClip(path)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("Failed to load clip")
			failed++
			continue
		}

		var removers []signals.CurveRemover
		if store != nil {
			removers = append(removers, store.Backend(storage.CurveMeta{Clip: clip.Name}))
		}

		if err := p.Revert(clip, curveName, removers...); err != nil {
			log.Error().Err(err).Str("asset", clip.Name).Msg("Failed to revert curve")
			failed++
			continue
		}

		if writeBack {
			removed, err := output.RemoveFromManifest(path, curveName)
			if err != nil {
				log.Error().Err(err).Str("asset", clip.Name).Msg("Failed to update manifest")
				failed++
				continue
			}
			if removed {
				fmt.Printf("Removed %s from %s\n", curveName, path)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d clips failed", failed, len(args))
	}
	return nil
}

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/strrl/distcurve/internal/parser"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <clip.json>",
	Short: "Show what a clip contains and which curves were baked for it",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{"storage.type": "storage"})
	},
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().String("storage", "none", "Curve library backend to list baked curves from (none, sqlite, postgres)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]

	m, err := parser.ReadManifest(path)
	if err != nil {
		return err
	}

	prs := parser.NewParser()
	clip, err := prs.LoadClip(path)
	if err != nil {
		return err
	}

	fmt.Printf("Clip: %s\n", clip.Name)
	fmt.Printf("  Length: %.4fs\n", clip.Length)
	if clip.FrameRate > 0 {
		fmt.Printf("  Frame rate: %g\n", clip.FrameRate)
	}
	fmt.Printf("  Root motion: %t (force root lock: %t)\n", clip.HasRootMotion, clip.ForceRootLock)

	if clip.Skeleton != nil {
		fmt.Printf("  Skeleton: %s (%d bones)\n", clip.Skeleton.Name, len(clip.Skeleton.Bones))
	} else {
		fmt.Println("  Skeleton: none")
	}
	fmt.Printf("  Animated bones: %d\n", clip.TrackCount())

	if m.Keyframes != "" {
		table := m.Keyframes
		if !filepath.IsAbs(table) {
			table = filepath.Join(filepath.Dir(path), table)
		}
		count, bones, last, err := prs.KeyframeStats(table)
		if err != nil {
			return fmt.Errorf("failed to get keyframe stats: %w", err)
		}
		fmt.Printf("  Keyframe table: %s (%d rows, %d bones, last key at %.4fs)\n", m.Keyframes, count, bones, last)
	}

	fmt.Printf("  Curves: %d\n", len(clip.Curves))
	for _, c := range clip.Curves {
		fmt.Printf("    - %s (%d keys)\n", c.Name, len(c.Keys))
	}

	store, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to open curve library: %w", err)
	}
	if store == nil {
		return nil
	}
	defer store.Close()

	rows, err := store.List(clip.Name)
	if err != nil {
		return err
	}
	fmt.Printf("  Library: %d curves\n", len(rows))
	for _, r := range rows {
		fmt.Printf("    - %s (%d keys, reference %.4fs, baked %s)\n",
			r.CurveName, r.KeyCount, r.ReferenceTime, r.UpdatedAt.Format("2006-01-02 15:04"))
	}

	return nil
}

package cmd

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/strrl/distcurve/internal/aggregator"
	"github.com/strrl/distcurve/internal/anim"
	"github.com/strrl/distcurve/internal/config"
	"github.com/strrl/distcurve/internal/influx"
	"github.com/strrl/distcurve/internal/output"
	"github.com/strrl/distcurve/internal/parser"
	"github.com/strrl/distcurve/internal/pipeline"
	"github.com/strrl/distcurve/internal/signals"
	"github.com/strrl/distcurve/internal/storage"
	"golang.org/x/sync/errgroup"
)

var bakeDryRun bool

var bakeCmd = &cobra.Command{
	Use:   "bake <clip.json>...",
	Short: "Bake a distance curve into each clip",
	Long: `Bake samples the root motion of every clip, finds the time the tracked bone
is slowest (or uses the clip end with --stop-at-end) and writes a signed
distance curve relative to that point. Curves are computed in parallel and
committed to the configured sinks one clip at a time.`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"bake.boneName":           "bone",
			"bake.sampleRate":         "rate",
			"bake.curveName":          "curve",
			"bake.stopSpeedThreshold": "threshold",
			"bake.axis":               "axis",
			"bake.stopAtEnd":          "stop-at-end",
			"jobs":                    "jobs",
			"output.dir":              "output-dir",
			"output.writeBack":        "write-back",
			"output.report":           "report",
			"storage.type":            "storage",
			"influx.enabled":          "influx",
		})
	},
	RunE: runBake,
}

func init() {
	rootCmd.AddCommand(bakeCmd)

	defaults := signals.DefaultSettings()
	flags := bakeCmd.Flags()
	flags.String("bone", defaults.BoneName, "Bone whose trajectory is measured")
	flags.Int("rate", defaults.SampleRate, "Curve keys per second")
	flags.String("curve", defaults.CurveName, "Name of the baked curve")
	flags.Float64("threshold", defaults.StopSpeedThreshold, "Speed below which the bone counts as stopped")
	flags.String("axis", defaults.Axis.String(), "Axes measured (X, Y, Z, XY, XZ, YZ, XYZ)")
	flags.Bool("stop-at-end", defaults.StopAtEnd, "Use the clip end as the reference instead of searching for a stop")
	flags.IntP("jobs", "j", 0, "Clips computed in parallel (0 = number of CPUs)")
	flags.StringP("output-dir", "o", "./curves", "Directory for curve files and the report")
	flags.Bool("write-back", false, "Write the curve into each clip manifest")
	flags.Bool("report", true, "Write a Markdown report to the output directory")
	flags.String("storage", "none", "Curve library backend (none, sqlite, postgres)")
	flags.Bool("influx", false, "Export curve keys to InfluxDB")
	flags.BoolVar(&bakeDryRun, "dry-run", false, "Compute curves without writing anything")
}

func runBake(cmd *cobra.Command, args []string) error {
	settings, err := config.GetSettings()
	if err != nil {
		return err
	}
	outCfg := config.GetOutputConfig()

	jobs := config.GetInt("jobs")
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	log.Info().
		Int("clips", len(args)).
		Int("jobs", jobs).
		Str("bone", settings.BoneName).
		Str("axis", settings.Axis.String()).
		Bool("dry_run", bakeDryRun).
		Msg("Baking distance curves")

	clips, outcomes := computeAll(args, settings, jobs)

	if !bakeDryRun {
		if err := commitAll(cmd, clips, outcomes, outCfg); err != nil {
			return err
		}
	}

	summary := aggregator.NewAggregator().Aggregate(outcomes)

	if outCfg.Report && !bakeDryRun {
		filename, err := output.NewGenerator(outCfg.Dir).WriteReport(summary)
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("Report written to %s\n", filename)
	}

	printSummary(summary)

	if summary.Failed() > 0 {
		return fmt.Errorf("%d of %d clips failed", summary.Failed(), len(args))
	}
	return nil
}

// computeAll loads and bakes every clip. Failures are recorded per clip and
// never stop the others.
func computeAll(paths []string, settings signals.Settings, jobs int) ([]*anim.Clip, []aggregator.Outcome) {
	clips := make([]*anim.Clip, len(paths))
	outcomes := make([]aggregator.Outcome, len(paths))

	p := pipeline.New(log)

	var g errgroup.Group
	g.SetLimit(jobs)

	for i, path := range paths {
		g.Go(func() error {
			outcomes[i].Clip = path

			clip, err := parser.NewParser().LoadClip(path)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("Failed to load clip")
				outcomes[i].Err = err
				return nil
			}
			clips[i] = clip
			outcomes[i].Clip = clip.Name

			result, err := p.Compute(clip, settings)
			if err != nil {
				outcomes[i].Err = err
				return nil
			}
			outcomes[i].Result = result
			return nil
		})
	}
	_ = g.Wait()

	return clips, outcomes
}

func commitAll(cmd *cobra.Command, clips []*anim.Clip, outcomes []aggregator.Outcome, outCfg config.OutputConfig) error {
	store, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to open curve library: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	ic := openInflux(cmd.Context())
	if ic != nil {
		defer ic.Close()
	}

	gen := output.NewGenerator(outCfg.Dir)

	for i := range outcomes {
		result := outcomes[i].Result
		if result == nil {
			continue
		}
		clip := clips[i]

		targets := pipeline.MultiSink{clip.Controller()}
		if store != nil {
			targets = append(targets, store.Backend(storage.MetaFromResult(result)))
		}
		if ic != nil {
			targets = append(targets, ic.Sink(influx.MetaFromResult(result, time.Now())))
		}

		if err := pipeline.Commit(result, targets); err != nil {
			log.Error().Err(err).Str("asset", clip.Name).Msg("Distance curve commit failed")
			outcomes[i].Result = nil
			outcomes[i].Err = err
			continue
		}

		if outCfg.WriteBack {
			if err := output.WriteBack(clip.SourcePath, result.Settings.CurveName, result.Keys); err != nil {
				log.Error().Err(err).Str("asset", clip.Name).Msg("Failed to write curve back to manifest")
				outcomes[i].Result = nil
				outcomes[i].Err = err
				continue
			}
		}

		filename, err := gen.WriteCurve(result)
		if err != nil {
			return err
		}

		log.Info().
			Str("asset", clip.Name).
			Str("curve", result.Settings.CurveName).
			Float64("reference_time", result.ReferenceTime).
			Int("keys", len(result.Keys)).
			Str("file", filename).
			Msg("Distance curve baked")
	}

	return nil
}

func printSummary(summary *aggregator.Summary) {
	fmt.Printf("Baked %d clips, %d failed\n", summary.Baked(), summary.Failed())
	fmt.Printf("  - %d keys\n", summary.TotalKeys)
	fmt.Printf("  - %d stop references, %d start, %d end\n",
		summary.References[aggregator.ReferenceStop],
		summary.References[aggregator.ReferenceStart],
		summary.References[aggregator.ReferenceEnd])
	for _, c := range summary.Clips {
		fmt.Printf("  %s: reference %.4fs, %d keys\n", c.Clip, c.ReferenceTime, c.Keys)
	}
	for _, f := range summary.Failures {
		fmt.Printf("  %s: FAILED %s\n", f.Clip, f.Reason)
	}
}

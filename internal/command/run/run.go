package run

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"renderrush/internal/command/root"
	"renderrush/internal/filter"
	"renderrush/internal/media"
	"renderrush/internal/pipeline"
	"renderrush/internal/signal"
)

var logger = log.WithFields(log.Fields{
	"app":     "renderrush",
	"command": "run",
})

func init() {
	root.Cmd.AddCommand(cmd)

	cmd.Flags().String("input", "", "Source video path")
	cmd.Flags().String("filter", "grayscale", "Filter kind: grayscale, blur, brightness, contrast or none")
	cmd.Flags().String("mode", "compare", "Execution mode: sequential, parallel or compare")
	cmd.Flags().Int("workers", 4, "Worker count for parallel execution")
	cmd.Flags().Float64("segment-duration", 10.0, "Target segment duration in seconds")
}

var cmd = &cobra.Command{
	Use:   "run",
	Short: "Process a video",
	Long:  `RenderRush Run: split the source, filter every segment in the requested mode and merge the results`,
	Run: func(cmd *cobra.Command, args []string) {
		input, _ := cmd.Flags().GetString("input")
		filterName, _ := cmd.Flags().GetString("filter")
		modeName, _ := cmd.Flags().GetString("mode")
		workers, _ := cmd.Flags().GetInt("workers")
		segmentDuration, _ := cmd.Flags().GetFloat64("segment-duration")

		if input == "" {
			logger.Fatal("missing --input")
		}

		kind, err := filter.ParseKind(filterName)

		if err != nil {
			logger.WithError(err).Fatal("invalid filter")
		}

		workerCap := viper.GetInt("worker-cap")

		if workers < 1 || workers > workerCap {
			logger.Fatalf("workers must be between 1 and %d, got %d", workerCap, workers)
		}

		if segmentDuration <= 0 {
			logger.Fatalf("segment duration must be positive, got %f", segmentDuration)
		}

		ctx := signal.WatchInterrupt(context.Background(), 10*time.Second)
		cmpt := root.GetComponent(true, true, true, true)

		info, err := media.Probe(ctx, input)

		if err != nil {
			logger.WithError(err).Fatalf("unable to analyze '%s'", input)
		}

		logger.WithFields(log.Fields{
			"duration": info.Duration,
			"frames":   info.FrameCount,
			"fps":      info.FPS,
			"size":     info.Size,
		}).Infof("analyzed '%s'", input)

		runner := newRunner(segmentDuration)

		switch modeName {
		case "compare":
			runCompare(ctx, cmpt, runner, info, kind, workers)
		default:
			mode, err := pipeline.ParseMode(modeName)

			if err != nil {
				logger.WithError(err).Fatal("invalid mode")
			}

			runSingle(ctx, cmpt, runner, info, kind, mode, workers)
		}
	},
}

func newRunner(segmentDuration float64) *pipeline.Runner {
	workDir := viper.GetString("work-dir")

	return pipeline.NewRunner(
		pipeline.NewSegmenter(workDir, segmentDuration),
		pipeline.NewProcessor(),
		pipeline.NewMerger(),
		workDir,
		viper.GetString("output-dir"),
	)
}

func runSingle(ctx context.Context, cmpt *root.Component, runner *pipeline.Runner, info *media.Info, kind filter.Kind, mode pipeline.Mode, workers int) {
	report, err := runner.Execute(ctx, info, kind, mode, workers)

	cmpt.PublishReport(report)

	if err != nil {
		logger.WithError(err).Fatalf("run %s failed during %s (%d/%d segments succeeded)",
			report.UID, report.FailedPhase, report.SuccessCount, report.SegmentCount)
	}

	logger.WithFields(log.Fields{
		"uid":     report.UID,
		"mode":    mode,
		"elapsed": report.Elapsed,
		"output":  report.OutputPath,
	}).Info("run completed")
}

// runCompare is the showdown mode: the same source is processed twice, once
// sequentially and once across the pool, and the speedup is reported.
func runCompare(ctx context.Context, cmpt *root.Component, runner *pipeline.Runner, info *media.Info, kind filter.Kind, workers int) {
	seqReport, err := runner.Execute(ctx, info, kind, pipeline.Sequential, 1)

	if err != nil {
		cmpt.PublishReport(seqReport)
		logger.WithError(err).Fatalf("sequential run failed during %s", seqReport.FailedPhase)
	}

	seqReport.SequentialDuration = seqReport.Elapsed
	cmpt.PublishReport(seqReport)

	parReport, err := runner.Execute(ctx, info, kind, pipeline.Parallel, workers)

	if err != nil {
		cmpt.PublishReport(parReport)
		logger.WithError(err).Fatalf("parallel run failed during %s", parReport.FailedPhase)
	}

	parReport.SequentialDuration = seqReport.Elapsed
	parReport.ParallelDuration = parReport.Elapsed

	if parReport.Elapsed > 0 {
		parReport.Speedup = seqReport.Elapsed.Seconds() / parReport.Elapsed.Seconds()
	}

	cmpt.PublishReport(parReport)

	logger.WithFields(log.Fields{
		"sequential": seqReport.Elapsed,
		"parallel":   parReport.Elapsed,
		"workers":    workers,
		"speedup":    parReport.Speedup,
		"saved":      seqReport.Elapsed - parReport.Elapsed,
		"output":     parReport.OutputPath,
	}).Info("comparison finished")
}

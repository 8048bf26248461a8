package bench

import (
	"context"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"renderrush/internal/command/root"
	"renderrush/internal/filter"
	"renderrush/internal/media"
	"renderrush/internal/metric"
	"renderrush/internal/pipeline"
	"renderrush/internal/signal"
)

var logger = log.WithFields(log.Fields{
	"app":     "renderrush",
	"command": "bench",
})

func init() {
	root.Cmd.AddCommand(cmd)

	cmd.Flags().String("input", "", "Source video path")
	cmd.Flags().String("filter", "grayscale", "Filter kind to benchmark")
	cmd.Flags().Float64("segment-duration", 10.0, "Target segment duration in seconds")
	cmd.Flags().IntSlice("workers", []int{2, 4, 8}, "Worker counts to sweep")
}

var cmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark worker counts",
	Long:  `RenderRush Bench: run one sequential baseline, then sweep parallel worker counts and report the speedup of each`,
	Run: func(cmd *cobra.Command, args []string) {
		input, _ := cmd.Flags().GetString("input")
		filterName, _ := cmd.Flags().GetString("filter")
		segmentDuration, _ := cmd.Flags().GetFloat64("segment-duration")
		workerCounts, _ := cmd.Flags().GetIntSlice("workers")

		if input == "" {
			logger.Fatal("missing --input")
		}

		kind, err := filter.ParseKind(filterName)

		if err != nil {
			logger.WithError(err).Fatal("invalid filter")
		}

		workerCap := viper.GetInt("worker-cap")

		for _, workers := range workerCounts {
			if workers < 1 || workers > workerCap {
				logger.Fatalf("workers must be between 1 and %d, got %d", workerCap, workers)
			}
		}

		ctx := signal.WatchInterrupt(context.Background(), 10*time.Second)
		cmpt := root.GetComponent(true, true, true, true)

		// Completed sweep results are re-reported every tick so a live
		// dashboard can follow the sweep while later runs are still going.
		go cmpt.Metric.Ticker(ctx, 15*time.Second)

		info, err := media.Probe(ctx, input)

		if err != nil {
			logger.WithError(err).Fatalf("unable to analyze '%s'", input)
		}

		workDir := viper.GetString("work-dir")
		runner := pipeline.NewRunner(
			pipeline.NewSegmenter(workDir, segmentDuration),
			pipeline.NewProcessor(),
			pipeline.NewMerger(),
			workDir,
			viper.GetString("output-dir"),
		)

		baseline, err := runner.Execute(ctx, info, kind, pipeline.Sequential, 1)

		if err != nil {
			cmpt.PublishReport(baseline)
			logger.WithError(err).Fatalf("baseline run failed during %s", baseline.FailedPhase)
		}

		baseline.SequentialDuration = baseline.Elapsed
		cmpt.PublishReport(baseline)

		cmpt.Metric.Add(&metric.DurationMetric{
			RowMetric: metric.RowMetric{
				Name: "renderrush_bench_baseline",
				Tags: metric.Tags{"filter": string(kind)},
			},
			Duration: baseline.Elapsed,
		})

		logger.WithField("elapsed", baseline.Elapsed).Info("sequential baseline finished")

		for _, workers := range workerCounts {
			report, err := runner.Execute(ctx, info, kind, pipeline.Parallel, workers)

			if err != nil {
				cmpt.PublishReport(report)
				logger.WithError(err).Errorf("parallel run with %d workers failed during %s", workers, report.FailedPhase)
				continue
			}

			report.SequentialDuration = baseline.Elapsed
			report.ParallelDuration = report.Elapsed

			if report.Elapsed > 0 {
				report.Speedup = baseline.Elapsed.Seconds() / report.Elapsed.Seconds()
			}

			cmpt.PublishReport(report)

			cmpt.Metric.Add(&metric.GaugeMetric{
				RowMetric: metric.RowMetric{
					Name: "renderrush_bench_speedup",
					Tags: metric.Tags{"filter": string(kind), "workers": strconv.Itoa(workers)},
				},
				Gauge: report.Speedup,
			})

			logger.WithFields(log.Fields{
				"workers":    workers,
				"elapsed":    report.Elapsed,
				"speedup":    report.Speedup,
				"efficiency": report.Speedup / float64(workers),
			}).Info("parallel run finished")
		}
	},
}

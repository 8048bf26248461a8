package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"renderrush/internal/filter"
	"renderrush/internal/media"
	"renderrush/internal/util"
)

// State tracks one run through the pipeline.
type State string

const (
	StateIdle       State = "idle"
	StateSplitting  State = "splitting"
	StateProcessing State = "processing"
	StateMerging    State = "merging"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Report is what a run exposes outward: durations, per-phase counts and the
// merged output (or the phase that failed). External telemetry and advisor
// components consume it; the pipeline never reads their state back.
type Report struct {
	UID                string        `yaml:"uid"`
	Source             string        `yaml:"source"`
	Filter             filter.Kind   `yaml:"filter"`
	Mode               Mode          `yaml:"mode"`
	Workers            int           `yaml:"workers"`
	SegmentCount       int           `yaml:"segmentCount"`
	SuccessCount       int           `yaml:"successCount"`
	FailureCount       int           `yaml:"failureCount"`
	Elapsed            time.Duration `yaml:"elapsed"`
	SequentialDuration time.Duration `yaml:"sequentialDuration,omitempty"`
	ParallelDuration   time.Duration `yaml:"parallelDuration,omitempty"`
	Speedup            float64       `yaml:"speedup,omitempty"`
	OutputPath         string        `yaml:"outputPath,omitempty"`
	FailedPhase        State         `yaml:"failedPhase,omitempty"`
	CreatedAt          time.Time     `yaml:"createdAt"`
}

// Runner drives one run through split, dispatch, merge and cleanup. It is
// constructed once by the caller and holds no global state; it is not safe
// for concurrent Execute calls.
type Runner struct {
	splitter Splitter
	proc     SegmentProc
	merger   SegmentMerger
	workDir  string
	outDir   string
	state    State
}

func NewRunner(splitter Splitter, proc SegmentProc, merger SegmentMerger, workDir, outDir string) *Runner {
	return &Runner{
		splitter: splitter,
		proc:     proc,
		merger:   merger,
		workDir:  workDir,
		outDir:   outDir,
		state:    StateIdle,
	}
}

func (r *Runner) State() State {
	return r.state
}

// Execute runs the full pipeline for one source: split, dispatch the filter
// tasks in the requested mode, merge the successes in index order. Cleanup
// of intermediate artifacts always runs, whatever the outcome. The returned
// report is valid even when err != nil.
func (r *Runner) Execute(ctx context.Context, info *media.Info, kind filter.Kind, mode Mode, workers int) (*Report, error) {
	report := &Report{
		UID:       util.Random(8),
		Source:    info.Path,
		Filter:    kind,
		Mode:      mode,
		Workers:   workers,
		CreatedAt: time.Now(),
	}

	if mode == Sequential {
		report.Workers = 1
	}

	var intermediates []string

	defer func() {
		Cleanup(intermediates)
	}()

	r.state = StateSplitting
	segments, err := r.splitter.Split(ctx, info)

	for _, segment := range segments {
		intermediates = append(intermediates, segment.Path)
	}

	if err != nil {
		r.state = StateFailed
		report.FailedPhase = StateSplitting
		return report, err
	}

	if len(segments) == 0 {
		r.state = StateFailed
		report.FailedPhase = StateSplitting
		return report, &NoValidSegmentsError{}
	}

	report.SegmentCount = len(segments)

	r.state = StateProcessing
	tasks := r.buildTasks(segments, kind, mode)

	for _, task := range tasks {
		intermediates = append(intermediates, task.OutputPath)
	}

	dispatcher := NewDispatcher(r.proc, workers)
	results, elapsed, err := dispatcher.Run(ctx, tasks, mode)

	if err != nil {
		r.state = StateFailed
		report.FailedPhase = StateProcessing
		return report, err
	}

	report.Elapsed = elapsed

	successes := Successes(results)
	report.SuccessCount = len(successes)
	report.FailureCount = len(results) - len(successes)

	log.WithFields(log.Fields{
		"uid":       report.UID,
		"mode":      mode,
		"elapsed":   elapsed,
		"successes": report.SuccessCount,
		"failures":  report.FailureCount,
	}).Info("processing finished")

	if len(successes) == 0 {
		r.state = StateFailed
		report.FailedPhase = StateProcessing
		return report, &NoValidResultsError{Failed: report.FailureCount}
	}

	r.state = StateMerging

	if err := os.MkdirAll(r.outDir, os.ModePerm); err != nil {
		r.state = StateFailed
		report.FailedPhase = StateMerging
		return report, &MergeError{Cause: errors.Wrap(err, "unable to create output directory")}
	}

	inputs := make([]string, len(successes))

	for i, res := range successes {
		inputs[i] = res.OutputPath
	}

	dest := filepath.Join(r.outDir, OutputName(info.Path, kind, mode, report.UID))
	output, err := r.merger.Merge(ctx, inputs, dest)

	if err != nil {
		r.state = StateFailed
		report.FailedPhase = StateMerging
		return report, err
	}

	report.OutputPath = output
	r.state = StateCompleted

	return report, nil
}

// buildTasks pairs every segment with its output path; the prefix keeps
// sequential and parallel intermediates of a comparison run apart.
func (r *Runner) buildTasks(segments []Segment, kind filter.Kind, mode Mode) []Task {
	prefix := "seq"

	if mode == Parallel {
		prefix = "par"
	}

	tasks := make([]Task, len(segments))

	for i, segment := range segments {
		tasks[i] = Task{
			Index:      i,
			InputPath:  segment.Path,
			OutputPath: filepath.Join(r.workDir, fmt.Sprintf("%s_%03d.mp4", prefix, i)),
			Filter:     kind,
		}
	}

	return tasks
}

// OutputName builds the merged file name from the source base name, the
// filter kind, the mode, a timestamp and the run UID. The UID keeps runs
// started within the same second apart.
func OutputName(sourcePath string, kind filter.Kind, mode Mode, uid string) string {
	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	stamp := time.Now().Format("20060102-150405")

	return fmt.Sprintf("%s_%s_%s_%s_%s.mp4", base, kind, mode, stamp, uid)
}

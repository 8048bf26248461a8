package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"renderrush/internal/filter"
	"renderrush/internal/media"
)

// fakeSplitter writes real placeholder segment files so runner cleanup can
// be observed.
type fakeSplitter struct {
	dir   string
	count int
	err   error
}

func (f *fakeSplitter) Split(ctx context.Context, info *media.Info) ([]Segment, error) {
	if f.err != nil {
		return nil, f.err
	}

	segments := make([]Segment, f.count)

	for i := range segments {
		path := filepath.Join(f.dir, fmt.Sprintf("segment_%03d.mp4", i))

		if err := ioutil.WriteFile(path, []byte("segment data"), 0644); err != nil {
			return nil, err
		}

		segments[i] = Segment{Index: i, Path: path, StartFrame: i * 10, EndFrame: (i + 1) * 10}
	}

	return segments, nil
}

type fakeMerger struct {
	inputs []string
	err    error
}

func (f *fakeMerger) Merge(ctx context.Context, inputs []string, dest string) (string, error) {
	f.inputs = inputs

	if f.err != nil {
		return "", f.err
	}

	if err := ioutil.WriteFile(dest, []byte("merged"), 0644); err != nil {
		return "", err
	}

	return dest, nil
}

func testInfo() *media.Info {
	return &media.Info{Path: "source.mp4", FPS: 30, Width: 640, Height: 480, FrameCount: 90, Duration: 3}
}

func TestRunnerCompletes(t *testing.T) {
	dir, err := ioutil.TempDir("", "runner")

	if err != nil {
		t.Fatalf("TempDir: %v", err)
	}

	defer os.RemoveAll(dir)

	splitter := &fakeSplitter{dir: dir, count: 3}
	merger := &fakeMerger{}

	proc := ProcFunc(func(ctx context.Context, task Task) Result {
		return Result{Index: task.Index, OutputPath: task.OutputPath}
	})

	runner := NewRunner(splitter, proc, merger, dir, dir)
	report, err := runner.Execute(context.Background(), testInfo(), filter.Grayscale, Parallel, 2)

	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if runner.State() != StateCompleted {
		t.Errorf("state = %s, want %s", runner.State(), StateCompleted)
	}

	if report.SegmentCount != 3 || report.SuccessCount != 3 || report.FailureCount != 0 {
		t.Errorf("report counts = %d/%d/%d", report.SegmentCount, report.SuccessCount, report.FailureCount)
	}

	if report.OutputPath == "" {
		t.Error("report has no output path")
	}

	if len(merger.inputs) != 3 {
		t.Fatalf("merger received %d inputs, want 3", len(merger.inputs))
	}

	// Merger must see intermediate outputs in index order.
	for i, input := range merger.inputs {
		want := filepath.Join(dir, fmt.Sprintf("par_%03d.mp4", i))

		if input != want {
			t.Errorf("merge input %d = %q, want %q", i, input, want)
		}
	}

	// Intermediate segment files are cleaned up on completion.
	for i := 0; i < 3; i++ {
		path := filepath.Join(dir, fmt.Sprintf("segment_%03d.mp4", i))

		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("segment file '%s' survived cleanup", path)
		}
	}
}

func TestRunnerPartialFailuresStillMerge(t *testing.T) {
	dir, err := ioutil.TempDir("", "runner")

	if err != nil {
		t.Fatalf("TempDir: %v", err)
	}

	defer os.RemoveAll(dir)

	splitter := &fakeSplitter{dir: dir, count: 4}
	merger := &fakeMerger{}

	proc := ProcFunc(func(ctx context.Context, task Task) Result {
		if task.Index == 1 {
			return Result{Index: task.Index, Err: errors.New("decode failed")}
		}

		return Result{Index: task.Index, OutputPath: task.OutputPath}
	})

	runner := NewRunner(splitter, proc, merger, dir, dir)
	report, err := runner.Execute(context.Background(), testInfo(), filter.Blur, Sequential, 1)

	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if report.SuccessCount != 3 || report.FailureCount != 1 {
		t.Errorf("report counts = %d successes, %d failures", report.SuccessCount, report.FailureCount)
	}

	if len(merger.inputs) != 3 {
		t.Fatalf("merger received %d inputs, want 3", len(merger.inputs))
	}
}

func TestRunnerFailsWithoutSegments(t *testing.T) {
	dir, err := ioutil.TempDir("", "runner")

	if err != nil {
		t.Fatalf("TempDir: %v", err)
	}

	defer os.RemoveAll(dir)

	splitter := &fakeSplitter{dir: dir, count: 0}

	proc := ProcFunc(func(ctx context.Context, task Task) Result {
		t.Error("processor called with no segments")
		return Result{Index: task.Index}
	})

	runner := NewRunner(splitter, proc, &fakeMerger{}, dir, dir)
	report, err := runner.Execute(context.Background(), testInfo(), filter.None, Sequential, 1)

	var noSegments *NoValidSegmentsError

	if !errors.As(err, &noSegments) {
		t.Fatalf("got %v, want NoValidSegmentsError", err)
	}

	if runner.State() != StateFailed {
		t.Errorf("state = %s, want %s", runner.State(), StateFailed)
	}

	if report.FailedPhase != StateSplitting {
		t.Errorf("failed phase = %s, want %s", report.FailedPhase, StateSplitting)
	}
}

func TestRunnerFailsWhenAllTasksFail(t *testing.T) {
	dir, err := ioutil.TempDir("", "runner")

	if err != nil {
		t.Fatalf("TempDir: %v", err)
	}

	defer os.RemoveAll(dir)

	splitter := &fakeSplitter{dir: dir, count: 3}
	merger := &fakeMerger{}

	proc := ProcFunc(func(ctx context.Context, task Task) Result {
		return Result{Index: task.Index, Err: &SegmentTooSmallError{Path: task.OutputPath, Size: 12}}
	})

	runner := NewRunner(splitter, proc, merger, dir, dir)
	report, err := runner.Execute(context.Background(), testInfo(), filter.Contrast, Parallel, 2)

	var noResults *NoValidResultsError

	if !errors.As(err, &noResults) {
		t.Fatalf("got %v, want NoValidResultsError", err)
	}

	if noResults.Failed != 3 {
		t.Errorf("failure count = %d, want 3", noResults.Failed)
	}

	if runner.State() != StateFailed {
		t.Errorf("state = %s, want %s", runner.State(), StateFailed)
	}

	if report.FailedPhase != StateProcessing {
		t.Errorf("failed phase = %s, want %s", report.FailedPhase, StateProcessing)
	}

	if report.OutputPath != "" {
		t.Error("failed run still produced an output path")
	}

	if merger.inputs != nil {
		t.Error("merger was called despite zero successes")
	}

	// Cleanup still runs on failure.
	for i := 0; i < 3; i++ {
		path := filepath.Join(dir, fmt.Sprintf("segment_%03d.mp4", i))

		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("segment file '%s' survived cleanup", path)
		}
	}
}

func TestRunnerFailsOnMergeError(t *testing.T) {
	dir, err := ioutil.TempDir("", "runner")

	if err != nil {
		t.Fatalf("TempDir: %v", err)
	}

	defer os.RemoveAll(dir)

	splitter := &fakeSplitter{dir: dir, count: 2}
	merger := &fakeMerger{err: &MergeError{Cause: errors.New("disk full")}}

	proc := ProcFunc(func(ctx context.Context, task Task) Result {
		return Result{Index: task.Index, OutputPath: task.OutputPath}
	})

	runner := NewRunner(splitter, proc, merger, dir, dir)
	report, err := runner.Execute(context.Background(), testInfo(), filter.None, Sequential, 1)

	var mergeErr *MergeError

	if !errors.As(err, &mergeErr) {
		t.Fatalf("got %v, want MergeError", err)
	}

	if report.FailedPhase != StateMerging {
		t.Errorf("failed phase = %s, want %s", report.FailedPhase, StateMerging)
	}
}

func TestOutputNameIsUniquePerRun(t *testing.T) {
	a := OutputName("/videos/clip.mp4", filter.Grayscale, Parallel, "abc12345")
	b := OutputName("/videos/clip.mp4", filter.Grayscale, Parallel, "def67890")

	// Two runs of the same source, filter and mode may start within the
	// same second; the UID keeps their outputs apart.
	if a == b {
		t.Fatalf("colliding output names: %q", a)
	}

	if !strings.HasPrefix(a, "clip_grayscale_parallel_") {
		t.Errorf("name %q has unexpected shape", a)
	}

	if !strings.Contains(a, "abc12345") {
		t.Errorf("name %q does not carry the run id", a)
	}
}

func TestMergerRejectsEmptyInput(t *testing.T) {
	_, err := NewMerger().Merge(context.Background(), nil, "out.mp4")

	var noSegments *NoValidSegmentsError

	if !errors.As(err, &noSegments) {
		t.Fatalf("got %v, want NoValidSegmentsError", err)
	}
}

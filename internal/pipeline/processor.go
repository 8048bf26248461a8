package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"renderrush/internal/filter"
	"renderrush/internal/media"
)

// Task is one unit of work: filter a single segment into a new file.
// Created once per segment per run, consumed exactly once.
type Task struct {
	Index      int
	InputPath  string
	OutputPath string
	Filter     filter.Kind
}

// Result is the outcome of one task: either a valid output path or an
// error. Err == nil guarantees OutputPath points at a validated file.
type Result struct {
	Index      int
	OutputPath string
	Err        error
}

func (r Result) Ok() bool {
	return r.Err == nil
}

// SegmentProc applies a per-frame transform to one segment. It is the unit
// of fault isolation: implementations convert every internal error into a
// failed Result and never abort sibling tasks.
type SegmentProc interface {
	Process(ctx context.Context, task Task) Result
}

// ProcFunc adapts a function to the SegmentProc interface.
type ProcFunc func(ctx context.Context, task Task) Result

func (f ProcFunc) Process(ctx context.Context, task Task) Result {
	return f(ctx, task)
}

// Processor streams every frame of a segment through its filter.
type Processor struct{}

func NewProcessor() *Processor {
	return &Processor{}
}

func (p *Processor) Process(ctx context.Context, task Task) Result {
	res := runGuarded(task, func() Result {
		return p.process(ctx, task)
	})

	if res.Err != nil {
		log.WithError(res.Err).Warnf("segment %d failed", task.Index)
	}

	return res
}

// runGuarded converts a panic during fn into a failed Result so one bad
// segment never takes down its siblings.
func runGuarded(task Task, fn func() Result) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Index: task.Index,
				Err:   errors.Errorf("segment %d processing panicked: %v", task.Index, r),
			}
		}
	}()

	return fn()
}

func (p *Processor) process(ctx context.Context, task Task) (res Result) {
	res = Result{Index: task.Index}

	info, err := media.Probe(ctx, task.InputPath)

	if err != nil {
		res.Err = &InvalidMediaError{Path: task.InputPath, Reason: err.Error()}
		return res
	}

	if info.FPS <= 0 || info.Width <= 0 || info.Height <= 0 {
		res.Err = &InvalidMediaError{
			Path:   task.InputPath,
			Reason: fmt.Sprintf("non-positive properties %dx%d @ %f fps", info.Width, info.Height, info.FPS),
		}
		return res
	}

	reader, err := media.NewReader(ctx, task.InputPath, info.Width, info.Height)

	if err != nil {
		res.Err = &InvalidMediaError{Path: task.InputPath, Reason: err.Error()}
		return res
	}

	defer reader.Close()

	writer, err := media.NewWriter(ctx, task.OutputPath, info.Width, info.Height, info.FPS)

	if err != nil {
		res.Err = &WriterOpenError{Path: task.OutputPath, Cause: err}
		return res
	}

	for {
		frame, err := reader.Next()

		if err == io.EOF {
			break
		}

		if err != nil {
			_ = writer.Close()
			res.Err = errors.Wrapf(err, "segment %d decode failed", task.Index)
			return res
		}

		if err := writer.WriteFrame(filter.Apply(frame, task.Filter)); err != nil {
			_ = writer.Close()
			res.Err = errors.Wrapf(err, "segment %d encode failed", task.Index)
			return res
		}
	}

	frames := writer.Frames()

	if err := writer.Close(); err != nil {
		res.Err = errors.Wrapf(err, "segment %d finalize failed", task.Index)
		return res
	}

	if err := validateArtifact(task.OutputPath); err != nil {
		res.Err = err
		return res
	}

	log.Debugf("processed segment %d: %d frames", task.Index, frames)

	res.OutputPath = task.OutputPath

	return res
}

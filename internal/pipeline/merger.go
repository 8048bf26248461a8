package pipeline

import (
	"context"
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"renderrush/internal/media"
)

// SegmentMerger concatenates processed segment files, in index order, into
// one output stream.
type SegmentMerger interface {
	Merge(ctx context.Context, inputs []string, dest string) (string, error)
}

// Merger streams every frame of every input into the destination without
// re-filtering. Output properties are taken from the first segment; the
// segmenter guarantees all segments of one source share them.
type Merger struct{}

func NewMerger() *Merger {
	return &Merger{}
}

func (m *Merger) Merge(ctx context.Context, inputs []string, dest string) (string, error) {
	if len(inputs) == 0 {
		return "", &NoValidSegmentsError{}
	}

	info, err := media.Probe(ctx, inputs[0])

	if err != nil {
		return "", &MergeError{Cause: err}
	}

	writer, err := media.NewWriter(ctx, dest, info.Width, info.Height, info.FPS)

	if err != nil {
		return "", &MergeError{Cause: err}
	}

	for _, input := range inputs {
		if err := m.appendSegment(ctx, writer, input, info); err != nil {
			_ = writer.Close()
			return "", &MergeError{Cause: err}
		}
	}

	frames := writer.Frames()

	if err := writer.Close(); err != nil {
		return "", &MergeError{Cause: err}
	}

	log.Infof("merged %d segments (%d frames) into '%s'", len(inputs), frames, dest)

	return dest, nil
}

func (m *Merger) appendSegment(ctx context.Context, writer *media.Writer, input string, info *media.Info) error {
	reader, err := media.NewReader(ctx, input, info.Width, info.Height)

	if err != nil {
		return errors.Wrapf(err, "unable to open segment '%s'", input)
	}

	defer reader.Close()

	for {
		frame, err := reader.Next()

		if err == io.EOF {
			return nil
		}

		if err != nil {
			return errors.Wrapf(err, "unable to read segment '%s'", input)
		}

		if err := writer.WriteFrame(frame); err != nil {
			return errors.Wrapf(err, "unable to append segment '%s'", input)
		}
	}
}

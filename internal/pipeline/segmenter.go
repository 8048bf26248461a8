package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"renderrush/internal/media"
)

// Splitter cuts a source video into ordered, non-overlapping segment files.
type Splitter interface {
	Split(ctx context.Context, info *media.Info) ([]Segment, error)
}

// Segmenter implements Splitter by streaming the source once and writing
// each planned frame range into its own container file with the source's
// frame rate and dimensions.
type Segmenter struct {
	workDir         string
	segmentDuration float64
}

func NewSegmenter(workDir string, segmentDuration float64) *Segmenter {
	return &Segmenter{workDir: workDir, segmentDuration: segmentDuration}
}

func (s *Segmenter) Split(ctx context.Context, info *media.Info) ([]Segment, error) {
	plan, err := PlanSegments(info, s.segmentDuration)

	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.workDir, os.ModePerm); err != nil {
		return nil, errors.Wrapf(err, "unable to create work directory '%s'", s.workDir)
	}

	reader, err := media.NewReader(ctx, info.Path, info.Width, info.Height)

	if err != nil {
		return nil, &InvalidMediaError{Path: info.Path, Reason: err.Error()}
	}

	defer reader.Close()

	log.WithFields(log.Fields{
		"source":   info.Path,
		"duration": fmt.Sprintf("%.1fs", info.Duration),
		"frames":   info.FrameCount,
		"fps":      info.FPS,
		"segments": len(plan),
	}).Info("splitting source video")

	valid := make([]Segment, 0, len(plan))
	sourceEnded := false

	for _, segment := range plan {
		segment.Path = filepath.Join(s.workDir, fmt.Sprintf("segment_%03d.mp4", segment.Index))

		if sourceEnded {
			break
		}

		written, err := s.writeSegment(ctx, reader, info, segment)

		if err == io.EOF {
			sourceEnded = true
		} else if err != nil {
			log.WithError(err).Warnf("segment %d dropped", segment.Index)
			continue
		}

		if err := validateArtifact(segment.Path); err != nil {
			log.WithError(err).Warnf("segment %d dropped", segment.Index)
			continue
		}

		log.Debugf("created segment %d: %d frames", segment.Index, written)
		valid = append(valid, segment)
	}

	log.Infof("created %d of %d segments", len(valid), len(plan))

	return valid, nil
}

// writeSegment copies the segment's frame range from the shared reader into
// a new file. An io.EOF return means the source ran out of frames; whatever
// was written is still closed and validated by the caller.
func (s *Segmenter) writeSegment(ctx context.Context, reader *media.Reader, info *media.Info, segment Segment) (int, error) {
	writer, err := media.NewWriter(ctx, segment.Path, info.Width, info.Height, info.FPS)

	if err != nil {
		return 0, errors.Wrap(err, "unable to open segment writer")
	}

	for i := 0; i < segment.FrameCount(); i++ {
		frame, err := reader.Next()

		if err == io.EOF {
			if closeErr := writer.Close(); closeErr != nil {
				return writer.Frames(), closeErr
			}

			return writer.Frames(), io.EOF
		}

		if err != nil {
			_ = writer.Close()
			return writer.Frames(), errors.Wrap(err, "unable to read source frame")
		}

		if err := writer.WriteFrame(frame); err != nil {
			_ = writer.Close()
			return writer.Frames(), errors.Wrap(err, "unable to write segment frame")
		}
	}

	return writer.Frames(), writer.Close()
}

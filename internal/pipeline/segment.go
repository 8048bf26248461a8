package pipeline

import (
	"fmt"
	"math"
	"os"

	"github.com/pkg/errors"

	"renderrush/internal/media"
)

// minSegmentBytes is the post-write sanity threshold: an artifact at or
// below this size is considered invalid.
const minSegmentBytes = 1000

// Segment is one time-bounded, non-overlapping sub-clip of the source.
// Ordered by Index, segments cover [0, FrameCount) of the source with no
// gaps: every segment but the last holds framesPerSegment frames.
type Segment struct {
	Index      int
	Path       string
	StartFrame int
	EndFrame   int // exclusive
}

func (s Segment) FrameCount() int {
	return s.EndFrame - s.StartFrame
}

// PlanSegments computes the segment layout for a source without touching
// the filesystem; paths are filled in by the Segmenter.
func PlanSegments(info *media.Info, segmentDuration float64) ([]Segment, error) {
	if info.FPS <= 0 {
		return nil, &InvalidMediaError{Path: info.Path, Reason: fmt.Sprintf("non-positive fps %f", info.FPS)}
	}

	if info.Width <= 0 || info.Height <= 0 {
		return nil, &InvalidMediaError{Path: info.Path, Reason: fmt.Sprintf("non-positive dimensions %dx%d", info.Width, info.Height)}
	}

	if segmentDuration <= 0 {
		return nil, errors.Errorf("segment duration must be positive, got %f", segmentDuration)
	}

	framesPerSegment := int(info.FPS * segmentDuration)

	if framesPerSegment <= 0 {
		return nil, errors.Errorf("segment duration %fs holds no full frame at %f fps", segmentDuration, info.FPS)
	}

	duration := float64(info.FrameCount) / info.FPS
	segmentCount := int(math.Ceil(duration / segmentDuration))

	segments := make([]Segment, 0, segmentCount)

	for i := 0; i < segmentCount; i++ {
		start := i * framesPerSegment
		end := start + framesPerSegment

		if end > info.FrameCount {
			end = info.FrameCount
		}

		if start >= end {
			break
		}

		segments = append(segments, Segment{Index: i, StartFrame: start, EndFrame: end})
	}

	return segments, nil
}

// validateArtifact checks that a freshly written file exists and exceeds the
// minimal size threshold.
func validateArtifact(path string) error {
	stat, err := os.Stat(path)

	if err != nil {
		return errors.Wrapf(err, "artifact '%s' missing", path)
	}

	if stat.Size() <= minSegmentBytes {
		return &SegmentTooSmallError{Path: path, Size: stat.Size()}
	}

	return nil
}

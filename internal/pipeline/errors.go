package pipeline

import "fmt"

// InvalidMediaError marks a source or segment that cannot be decoded, or
// that reports non-positive fps or dimensions.
type InvalidMediaError struct {
	Path   string
	Reason string
}

func (e *InvalidMediaError) Error() string {
	return fmt.Sprintf("invalid media '%s': %s", e.Path, e.Reason)
}

// WriterOpenError marks a destination that cannot be opened for encoding.
type WriterOpenError struct {
	Path  string
	Cause error
}

func (e *WriterOpenError) Error() string {
	return fmt.Sprintf("unable to open writer for '%s': %v", e.Path, e.Cause)
}

func (e *WriterOpenError) Unwrap() error {
	return e.Cause
}

// SegmentTooSmallError marks an artifact that failed the post-write size
// sanity check.
type SegmentTooSmallError struct {
	Path string
	Size int64
}

func (e *SegmentTooSmallError) Error() string {
	return fmt.Sprintf("segment '%s' is too small (%d bytes)", e.Path, e.Size)
}

// NoValidSegmentsError means the segmenter produced nothing usable.
type NoValidSegmentsError struct{}

func (e *NoValidSegmentsError) Error() string {
	return "no valid segments"
}

// NoValidResultsError means every processing task failed.
type NoValidResultsError struct {
	Failed int
}

func (e *NoValidResultsError) Error() string {
	return fmt.Sprintf("no valid results: all %d tasks failed", e.Failed)
}

// MergeError wraps a failure while concatenating processed segments.
type MergeError struct {
	Cause error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge failed: %v", e.Cause)
}

func (e *MergeError) Unwrap() error {
	return e.Cause
}

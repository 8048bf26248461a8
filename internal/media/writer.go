package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Writer encodes raw RGB24 frames into a video file through an ffmpeg pipe.
// The mpeg4 codec matches the mp4v segments the pipeline exchanges.
type Writer struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stderr    bytes.Buffer
	frameSize int
	frames    int
	closed    bool
}

func NewWriter(ctx context.Context, path string, width, height int, fps float64) (*Writer, error) {
	if width <= 0 || height <= 0 || fps <= 0 {
		return nil, errors.Errorf("invalid output properties %dx%d @ %f fps", width, height, fps)
	}

	w := &Writer{frameSize: width * height * 3}

	w.cmd = exec.CommandContext(ctx, "ffmpeg",
		"-v", "error",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", "pipe:0",
		"-an",
		"-c:v", "mpeg4",
		"-q:v", "5",
		path,
	)
	w.cmd.Stderr = &w.stderr

	stdin, err := w.cmd.StdinPipe()

	if err != nil {
		return nil, errors.Wrap(err, "unable to open ffmpeg stdin pipe")
	}

	w.stdin = stdin

	if err := w.cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "unable to start ffmpeg for '%s'", path)
	}

	return w, nil
}

func (w *Writer) WriteFrame(frame *Frame) error {
	if len(frame.Pix) != w.frameSize {
		return errors.Errorf("frame size mismatch: got %d bytes, want %d", len(frame.Pix), w.frameSize)
	}

	if _, err := w.stdin.Write(frame.Pix); err != nil {
		return errors.Wrapf(err, "unable to write frame: %s", w.stderrTail())
	}

	w.frames++

	return nil
}

// Frames reports how many frames have been written so far.
func (w *Writer) Frames() int {
	return w.frames
}

// Close flushes the stream and waits for the encoder to finish. It must be
// called exactly once; the file is not valid before Close returns.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}

	w.closed = true

	if err := w.stdin.Close(); err != nil {
		_ = w.cmd.Wait()
		return errors.Wrap(err, "unable to close ffmpeg stdin")
	}

	if err := w.cmd.Wait(); err != nil {
		return errors.Wrapf(err, "ffmpeg encode failed: %s", w.stderrTail())
	}

	return nil
}

func (w *Writer) stderrTail() string {
	return strings.TrimSpace(w.stderr.String())
}

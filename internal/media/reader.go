package media

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// Reader decodes a video file into raw RGB24 frames through an ffmpeg pipe.
type Reader struct {
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	stderr    bytes.Buffer
	width     int
	height    int
	frameSize int
	done      bool
}

func NewReader(ctx context.Context, path string, width, height int) (*Reader, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid frame dimensions %dx%d", width, height)
	}

	r := &Reader{
		width:     width,
		height:    height,
		frameSize: width * height * 3,
	}

	r.cmd = exec.CommandContext(ctx, "ffmpeg",
		"-v", "error",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	)
	r.cmd.Stderr = &r.stderr

	stdout, err := r.cmd.StdoutPipe()

	if err != nil {
		return nil, errors.Wrap(err, "unable to open ffmpeg stdout pipe")
	}

	r.stdout = stdout

	if err := r.cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "unable to start ffmpeg for '%s'", path)
	}

	return r, nil
}

// Next returns the next decoded frame, or io.EOF once the stream ends. The
// returned frame is owned by the caller.
func (r *Reader) Next() (*Frame, error) {
	if r.done {
		return nil, io.EOF
	}

	frame := NewFrame(r.width, r.height)
	_, err := io.ReadFull(r.stdout, frame.Pix)

	if err == io.EOF {
		r.done = true

		if waitErr := r.cmd.Wait(); waitErr != nil {
			return nil, errors.Wrapf(waitErr, "ffmpeg decode failed: %s", r.stderrTail())
		}

		return nil, io.EOF
	}

	if err != nil {
		r.done = true
		_ = r.cmd.Wait()
		return nil, errors.Wrapf(err, "truncated frame: %s", r.stderrTail())
	}

	return frame, nil
}

func (r *Reader) Close() error {
	_ = r.stdout.Close()

	if !r.done {
		r.done = true

		// Closing the pipe before EOF makes ffmpeg exit non-zero, which is
		// expected when the consumer stops early.
		_ = r.cmd.Wait()
	}

	return nil
}

func (r *Reader) stderrTail() string {
	return strings.TrimSpace(r.stderr.String())
}

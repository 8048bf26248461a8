package media

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"renderrush/internal/executor"
)

// Info describes a video container as reported by ffprobe. It is read-only
// once built; non-positive FPS or dimensions are reported as-is and rejected
// by the pipeline, not here.
type Info struct {
	Path       string
	FPS        float64
	Width      int
	Height     int
	FrameCount int
	Duration   float64
	Size       int64
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NbFrames     string `json:"nb_frames"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// Probe extracts video metadata with ffprobe.
func Probe(ctx context.Context, path string) (*Info, error) {
	var out bytes.Buffer

	exec := executor.New(&out)
	cmd := &executor.Cmd{Binary: "ffprobe"}
	cmd.Add("-v", "error")
	cmd.Add("-print_format", "json")
	cmd.Add("-show_format", "-show_streams")
	cmd.Add("-i", path)

	if err := exec.Run(ctx, cmd); err != nil {
		return nil, errors.Wrapf(err, "unable to probe '%s'", path)
	}

	info, err := parseProbeOutput(out.Bytes())

	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse probe output for '%s'", path)
	}

	info.Path = path

	if stat, err := os.Stat(path); err == nil {
		info.Size = stat.Size()
	}

	return info, nil
}

func parseProbeOutput(data []byte) (*Info, error) {
	var probed probeOutput

	if err := json.Unmarshal(data, &probed); err != nil {
		return nil, errors.Wrap(err, "invalid ffprobe json")
	}

	var video *probeStream

	for i := range probed.Streams {
		if probed.Streams[i].CodecType == "video" {
			video = &probed.Streams[i]
			break
		}
	}

	if video == nil {
		return nil, errors.New("no video stream found")
	}

	fps := parseRate(video.AvgFrameRate)

	if fps <= 0 {
		fps = parseRate(video.RFrameRate)
	}

	info := &Info{
		FPS:    fps,
		Width:  video.Width,
		Height: video.Height,
	}

	info.Duration, _ = strconv.ParseFloat(probed.Format.Duration, 64)

	if video.NbFrames != "" {
		info.FrameCount, _ = strconv.Atoi(video.NbFrames)
	}

	if info.FrameCount == 0 && fps > 0 {
		info.FrameCount = int(math.Round(info.Duration * fps))
	}

	if info.Duration == 0 && fps > 0 {
		info.Duration = float64(info.FrameCount) / fps
	}

	return info, nil
}

// parseRate parses an ffprobe rational rate such as "30000/1001" or "25".
func parseRate(rate string) float64 {
	if rate == "" {
		return 0
	}

	parts := strings.SplitN(rate, "/", 2)
	num, err := strconv.ParseFloat(parts[0], 64)

	if err != nil {
		return 0
	}

	if len(parts) == 1 {
		return num
	}

	den, err := strconv.ParseFloat(parts[1], 64)

	if err != nil || den == 0 {
		return 0
	}

	return num / den
}

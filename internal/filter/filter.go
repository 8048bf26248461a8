package filter

import (
	"math"

	"github.com/pkg/errors"

	"renderrush/internal/media"
)

// Kind is the per-frame pixel transform applied during segment processing.
type Kind string

const (
	Grayscale  Kind = "grayscale"
	Blur       Kind = "blur"
	Brightness Kind = "brightness"
	Contrast   Kind = "contrast"
	None       Kind = "none"
)

// Fixed filter constants, matching cv2.convertScaleAbs defaults used for
// the brightness/contrast presets and a light 5x5 Gaussian for blur.
const (
	brightnessAlpha = 1.3
	brightnessBeta  = 20.0
	contrastAlpha   = 1.5
)

func Kinds() []Kind {
	return []Kind{Grayscale, Blur, Brightness, Contrast, None}
}

func ParseKind(s string) (Kind, error) {
	for _, kind := range Kinds() {
		if string(kind) == s {
			return kind, nil
		}
	}

	return "", errors.Errorf("unknown filter kind '%s'", s)
}

// Apply maps one frame to a filtered frame of identical dimensions. It is
// pure and safe to call concurrently on independent frames. None returns
// the input untouched.
func Apply(frame *media.Frame, kind Kind) *media.Frame {
	switch kind {
	case Grayscale:
		return grayscale(frame)
	case Blur:
		return blur(frame)
	case Brightness:
		return scale(frame, brightnessAlpha, brightnessBeta)
	case Contrast:
		return scale(frame, contrastAlpha, 0)
	default:
		return frame
	}
}

// grayscale replicates the BT.601 luma across all three channels.
func grayscale(frame *media.Frame) *media.Frame {
	out := media.NewFrame(frame.Width, frame.Height)

	for i := 0; i < len(frame.Pix); i += 3 {
		r := int(frame.Pix[i])
		g := int(frame.Pix[i+1])
		b := int(frame.Pix[i+2])
		y := byte((299*r + 587*g + 114*b + 500) / 1000)
		out.Pix[i] = y
		out.Pix[i+1] = y
		out.Pix[i+2] = y
	}

	return out
}

// scale applies clamp(alpha*v + beta) to every channel of every pixel.
func scale(frame *media.Frame, alpha, beta float64) *media.Frame {
	var lut [256]byte

	for v := 0; v < 256; v++ {
		lut[v] = clamp(math.Round(alpha*float64(v) + beta))
	}

	out := media.NewFrame(frame.Width, frame.Height)

	for i, v := range frame.Pix {
		out.Pix[i] = lut[v]
	}

	return out
}

// Separable 5x5 Gaussian kernel, normalized by 16 per pass.
var blurKernel = [5]int{1, 4, 6, 4, 1}

// blur smooths the frame with two separable passes and replicated borders.
func blur(frame *media.Frame) *media.Frame {
	horizontal := media.NewFrame(frame.Width, frame.Height)
	out := media.NewFrame(frame.Width, frame.Height)

	width, height := frame.Width, frame.Height
	stride := width * 3

	for y := 0; y < height; y++ {
		row := y * stride
		for x := 0; x < width; x++ {
			for c := 0; c < 3; c++ {
				sum := 0
				for k := -2; k <= 2; k++ {
					sx := clampIndex(x+k, width)
					sum += blurKernel[k+2] * int(frame.Pix[row+sx*3+c])
				}
				horizontal.Pix[row+x*3+c] = byte((sum + 8) / 16)
			}
		}
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for c := 0; c < 3; c++ {
				sum := 0
				for k := -2; k <= 2; k++ {
					sy := clampIndex(y+k, height)
					sum += blurKernel[k+2] * int(horizontal.Pix[sy*stride+x*3+c])
				}
				out.Pix[y*stride+x*3+c] = byte((sum + 8) / 16)
			}
		}
	}

	return out
}

func clamp(v float64) byte {
	if v <= 0 {
		return 0
	}

	if v >= 255 {
		return 255
	}

	return byte(v)
}

func clampIndex(i, max int) int {
	if i < 0 {
		return 0
	}

	if i >= max {
		return max - 1
	}

	return i
}

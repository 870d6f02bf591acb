// Package compositor builds auxiliary render passes that run ahead of the
// main programs, starting with a blurred contact shadow.
package compositor

import (
	"errors"
	"fmt"
	"math"
)

// ErrKernelWidth is returned for blur widths that are even or below 9.
var ErrKernelWidth = errors.New("kernel width must be odd and at least 9")

// MinKernelWidth is the narrowest accepted Gaussian kernel.
const MinKernelWidth = 9

// GenerateKernel returns a normalized 1-D Gaussian of the given width with
// sigma = width / 6.
func GenerateKernel(width int) ([]float32, error) {
	if width < MinKernelWidth || width%2 == 0 {
		return nil, fmt.Errorf("%w: got %d", ErrKernelWidth, width)
	}

	sigma := float64(width) / 6
	half := width / 2
	weights := make([]float64, width)
	sum := 0.0
	for i := range weights {
		x := float64(i - half)
		weights[i] = math.Exp(-x * x / (2 * sigma * sigma))
		sum += weights[i]
	}

	kernel := make([]float32, width)
	for i, w := range weights {
		kernel[i] = float32(w / sum)
	}
	return kernel, nil
}

// Tap is one linearly filtered texture sample: Offset is in texels from the
// center, Scale the weight of the sample.
type Tap struct {
	Offset float32
	Scale  float32
}

// ConvertToOffsetsAndScales merges consecutive kernel weights into single
// bilinear samples. A kernel of width n yields ceil(n/2) taps; the last
// weight of an odd kernel becomes a tap of its own.
func ConvertToOffsetsAndScales(kernel []float32) []Tap {
	half := len(kernel) / 2
	taps := make([]Tap, 0, (len(kernel)+1)/2)
	for i := 0; i < len(kernel); i += 2 {
		a := kernel[i]
		if i+1 == len(kernel) {
			taps = append(taps, Tap{Offset: float32(i - half), Scale: a})
			break
		}
		b := kernel[i+1]
		scale := a + b
		offset := float32(i - half)
		if scale > 0 {
			offset += b / scale
		}
		taps = append(taps, Tap{Offset: offset, Scale: scale})
	}
	return taps
}

// splitTaps returns the offsets and scales as parallel arrays for upload.
func splitTaps(taps []Tap) (offsets, scales []float32) {
	offsets = make([]float32, len(taps))
	scales = make([]float32, len(taps))
	for i, t := range taps {
		offsets[i], scales[i] = t.Offset, t.Scale
	}
	return offsets, scales
}

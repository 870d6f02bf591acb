package compositor

import (
	"errors"
	"math"
	"testing"
)

func TestGenerateKernel(t *testing.T) {
	for _, width := range []int{9, 15, 31} {
		k, err := GenerateKernel(width)
		if err != nil {
			t.Fatalf("width %d: %v", width, err)
		}
		if len(k) != width {
			t.Fatalf("width %d: got %d weights", width, len(k))
		}
		sum := 0.0
		for i, w := range k {
			if w < 0 {
				t.Fatalf("width %d: negative weight %v", width, w)
			}
			if w != k[width-1-i] {
				t.Errorf("width %d: kernel not symmetric at %d", width, i)
			}
			sum += float64(w)
		}
		if math.Abs(sum-1) > 1e-6 {
			t.Errorf("width %d: sum = %v", width, sum)
		}
		if center := k[width/2]; center <= k[0] {
			t.Errorf("width %d: center weight %v not the peak", width, center)
		}
	}
}

func TestGenerateKernelRejectsBadWidths(t *testing.T) {
	for _, width := range []int{-1, 0, 7, 8, 10, 16} {
		if _, err := GenerateKernel(width); !errors.Is(err, ErrKernelWidth) {
			t.Errorf("width %d: err = %v, want ErrKernelWidth", width, err)
		}
	}
}

func TestConvertToOffsetsAndScales(t *testing.T) {
	k, err := GenerateKernel(9)
	if err != nil {
		t.Fatal(err)
	}
	taps := ConvertToOffsetsAndScales(k)
	if len(taps) != 5 {
		t.Fatalf("taps = %d, want 5", len(taps))
	}

	sum := 0.0
	for i, tap := range taps {
		sum += float64(tap.Scale)
		lo := float32(2*i - 4)
		if i < 4 && (tap.Offset < lo || tap.Offset > lo+1) {
			t.Errorf("tap %d offset %v outside [%v, %v]", i, tap.Offset, lo, lo+1)
		}
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("scales sum to %v", sum)
	}
	if last := taps[4]; last.Offset != 4 || last.Scale != k[8] {
		t.Errorf("last tap = %+v", last)
	}
}

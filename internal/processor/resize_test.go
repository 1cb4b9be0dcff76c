package processor

import (
	"math"
	"testing"
)

func TestFitWithin(t *testing.T) {
	cases := []struct {
		name       string
		w, h       int
		maxW, maxH int
		wantW      int
		wantH      int
		wantResize bool
	}{
		{"no bounds", 800, 600, 0, 0, 800, 600, false},
		{"width only, fits", 400, 300, 600, 0, 400, 300, false},
		{"width only, equal", 600, 450, 600, 0, 600, 450, false},
		{"width only, shrink", 800, 600, 600, 0, 600, 450, true},
		{"height only, shrink", 800, 600, 0, 300, 400, 300, true},
		{"height only, fits", 800, 600, 0, 600, 800, 600, false},
		{"both fit", 800, 600, 1000, 1000, 800, 600, false},
		{"both, width limits", 1200, 800, 600, 600, 600, 400, true},
		{"both, height limits", 800, 1200, 600, 600, 400, 600, true},
		{"both, one exceeded", 800, 400, 600, 1000, 600, 300, true},
		{"tiny result clamps to 1", 1000, 2, 10, 0, 10, 1, true},
		{"awkward ratio", 1000, 3, 333, 0, 333, 1, true},
	}

	for _, tc := range cases {
		w, h, ok := FitWithin(tc.w, tc.h, tc.maxW, tc.maxH)
		if w != tc.wantW || h != tc.wantH || ok != tc.wantResize {
			t.Fatalf("%s: got %dx%d resize=%v, want %dx%d resize=%v", tc.name, w, h, ok, tc.wantW, tc.wantH, tc.wantResize)
		}
	}
}

func TestFitWithinProperties(t *testing.T) {
	sizes := []int{1, 2, 3, 7, 99, 100, 101, 333, 640, 799, 800, 1024, 1920, 4000}
	bounds := []int{0, 1, 50, 100, 333, 600, 1000, 5000}

	for _, w := range sizes {
		for _, h := range sizes {
			for _, maxW := range bounds {
				for _, maxH := range bounds {
					nw, nh, ok := FitWithin(w, h, maxW, maxH)

					if nw > w || nh > h {
						t.Fatalf("%dx%d in %dx%d enlarged to %dx%d", w, h, maxW, maxH, nw, nh)
					}
					if nw < 1 || nh < 1 {
						t.Fatalf("%dx%d in %dx%d collapsed to %dx%d", w, h, maxW, maxH, nw, nh)
					}

					fits := (maxW == 0 || w <= maxW) && (maxH == 0 || h <= maxH)
					if fits {
						if ok || nw != w || nh != h {
							t.Fatalf("%dx%d already fits %dx%d but got %dx%d", w, h, maxW, maxH, nw, nh)
						}
						continue
					}

					if !ok {
						t.Fatalf("%dx%d exceeds %dx%d but no resize", w, h, maxW, maxH)
					}
					if maxW > 0 && nw > maxW {
						t.Fatalf("%dx%d in %dx%d: width %d over bound", w, h, maxW, maxH, nw)
					}
					if maxH > 0 && nh > maxH {
						t.Fatalf("%dx%d in %dx%d: height %d over bound", w, h, maxW, maxH, nh)
					}

					ratio := math.Inf(1)
					if maxW > 0 {
						ratio = math.Min(ratio, float64(maxW)/float64(w))
					}
					if maxH > 0 {
						ratio = math.Min(ratio, float64(maxH)/float64(h))
					}
					// aspect ratio holds within a pixel on each axis
					if math.Abs(float64(w)*ratio-float64(nw)) > 1 || math.Abs(float64(h)*ratio-float64(nh)) > 1 {
						t.Fatalf("%dx%d in %dx%d: got %dx%d, ratio %.4f", w, h, maxW, maxH, nw, nh, ratio)
					}
				}
			}
		}
	}
}

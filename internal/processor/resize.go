package processor

import "math"

// FitWithin returns the size (w, h) should be downsampled to so that it fits
// inside maxW x maxH, keeping the aspect ratio. A zero bound is unset. The
// result never exceeds the original; ok is false when no resize is needed.
func FitWithin(w, h, maxW, maxH int) (int, int, bool) {
	if w <= 0 || h <= 0 {
		return w, h, false
	}

	var ratio float64
	switch {
	case maxW > 0 && maxH > 0:
		if w <= maxW && h <= maxH {
			return w, h, false
		}
		ratio = math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	case maxW > 0:
		if w <= maxW {
			return w, h, false
		}
		ratio = float64(maxW) / float64(w)
	case maxH > 0:
		if h <= maxH {
			return w, h, false
		}
		ratio = float64(maxH) / float64(h)
	default:
		return w, h, false
	}

	if ratio >= 1 {
		return w, h, false
	}

	// epsilon keeps maxW/w*w from flooring to maxW-1
	nw := max(int(math.Floor(float64(w)*ratio+1e-9)), 1)
	nh := max(int(math.Floor(float64(h)*ratio+1e-9)), 1)
	return nw, nh, true
}

package engine

import (
	"math"
	"sort"

	"github.com/shallweswim/backend-go/internal/models"
)

// interpolator evaluates a sample sequence at a timestamp, returning the
// value and the local slope (units per millisecond). Callers guarantee at
// least two samples. Timestamps outside the span are extrapolated linearly
// from the boundary segment; the engine bounds how far that is allowed.
type interpolator func(samples []models.Sample, ts int64) (value, slope float64)

// interpolatorFor is the per-kind strategy table. Tide height is visibly
// periodic and non-linear near the turning points, so it gets the spline;
// scalar temperature and current magnitude are piecewise linear.
func interpolatorFor(kind models.Kind) interpolator {
	switch kind {
	case models.KindTideHeight:
		return hermite
	default:
		return linear
	}
}

func bracket(samples []models.Sample, ts int64) int {
	return sort.Search(len(samples), func(i int) bool {
		return samples[i].Timestamp >= ts
	})
}

func segmentSlope(a, b models.Sample) float64 {
	return (b.Value - a.Value) / float64(b.Timestamp-a.Timestamp)
}

func linear(samples []models.Sample, ts int64) (float64, float64) {
	idx := bracket(samples, ts)

	if idx < len(samples) && samples[idx].Timestamp == ts {
		// Exact hit: return the sample value with no blending.
		return samples[idx].Value, slopeAt(samples, idx)
	}
	if idx == 0 {
		slope := segmentSlope(samples[0], samples[1])
		return samples[0].Value + slope*float64(ts-samples[0].Timestamp), slope
	}
	if idx == len(samples) {
		last := len(samples) - 1
		slope := segmentSlope(samples[last-1], samples[last])
		return samples[last].Value + slope*float64(ts-samples[last].Timestamp), slope
	}

	p1, p2 := samples[idx-1], samples[idx]
	slope := segmentSlope(p1, p2)
	return p1.Value + slope*float64(ts-p1.Timestamp), slope
}

// slopeAt approximates the slope at a sample index from its neighbors.
func slopeAt(samples []models.Sample, idx int) float64 {
	switch {
	case idx == 0:
		return segmentSlope(samples[0], samples[1])
	case idx == len(samples)-1:
		return segmentSlope(samples[len(samples)-2], samples[len(samples)-1])
	default:
		return segmentSlope(samples[idx-1], samples[idx+1])
	}
}

// hermite evaluates a cubic Hermite spline through the samples, with
// tangents from neighboring secants. The value is clamped to the bracketing
// sample values: between two tide extremes the water is monotonic, so an
// overshooting spline segment would lie.
func hermite(samples []models.Sample, ts int64) (float64, float64) {
	idx := bracket(samples, ts)

	if idx < len(samples) && samples[idx].Timestamp == ts {
		// Exact hit on an extreme: the sample value, with the slope taken
		// across the neighbors so the rising/falling call stays stable.
		return samples[idx].Value, slopeAt(samples, idx)
	}
	if idx == 0 || idx == len(samples) {
		// Outside the span the spline has no bracketing segment; fall back to
		// linear extrapolation from the boundary.
		return linear(samples, ts)
	}

	p1, p2 := samples[idx-1], samples[idx]
	span := float64(p2.Timestamp - p1.Timestamp)
	t := float64(ts-p1.Timestamp) / span

	// Tangents from neighboring points, zero at the series boundary.
	m1, m2 := 0.0, 0.0
	if idx > 1 {
		m1 = segmentSlope(samples[idx-2], p2)
	}
	if idx < len(samples)-1 {
		m2 = segmentSlope(p1, samples[idx+1])
	}

	h00 := 2*math.Pow(t, 3) - 3*math.Pow(t, 2) + 1
	h10 := math.Pow(t, 3) - 2*math.Pow(t, 2) + t
	h01 := -2*math.Pow(t, 3) + 3*math.Pow(t, 2)
	h11 := math.Pow(t, 3) - math.Pow(t, 2)

	value := h00*p1.Value + h10*m1*span + h01*p2.Value + h11*m2*span

	lo, hi := math.Min(p1.Value, p2.Value), math.Max(p1.Value, p2.Value)
	value = math.Max(lo, math.Min(hi, value))

	// Analytic derivative of the basis, back in units per millisecond.
	d00 := 6*math.Pow(t, 2) - 6*t
	d10 := 3*math.Pow(t, 2) - 4*t + 1
	d01 := -6*math.Pow(t, 2) + 6*t
	d11 := 3*math.Pow(t, 2) - 2*t
	slope := (d00*p1.Value + d10*m1*span + d01*p2.Value + d11*m2*span) / span

	return value, slope
}

// interpolateDirection blends current direction (degrees true) across the
// bracketing samples along the shortest arc. Outside the span the nearest
// boundary direction holds. Returns nil if the bracketing samples carry no
// direction.
func interpolateDirection(samples []models.Sample, ts int64) *float64 {
	idx := bracket(samples, ts)

	if idx < len(samples) && samples[idx].Timestamp == ts {
		return copyDirection(samples[idx].Direction)
	}
	if idx == 0 {
		return copyDirection(samples[0].Direction)
	}
	if idx == len(samples) {
		return copyDirection(samples[len(samples)-1].Direction)
	}

	p1, p2 := samples[idx-1], samples[idx]
	if p1.Direction == nil || p2.Direction == nil {
		return nil
	}

	t := float64(ts-p1.Timestamp) / float64(p2.Timestamp-p1.Timestamp)
	delta := math.Mod(*p2.Direction-*p1.Direction+540, 360) - 180
	dir := math.Mod(*p1.Direction+t*delta+360, 360)
	return &dir
}

func copyDirection(d *float64) *float64 {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

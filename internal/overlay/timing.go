package overlay

import "math"

const (
	TimingLinear        = "linear"
	TimingEaseIn        = "easeIn"
	TimingEaseOut       = "easeOut"
	TimingEaseInEaseOut = "easeInEaseOut"
)

// TimingFunction maps linear progress in [0,1] to eased progress.
type TimingFunction func(t float64) float64

var timingCurves = map[string][4]float64{
	TimingLinear:        {0, 0, 1, 1},
	TimingEaseIn:        {0.42, 0, 1, 1},
	TimingEaseOut:       {0, 0, 0.58, 1},
	TimingEaseInEaseOut: {0.42, 0, 0.58, 1},
}

func validTiming(name string) bool {
	_, ok := timingCurves[name]
	return ok || name == ""
}

// Timing returns the named timing function. Unknown names fall back to linear.
func Timing(name string) TimingFunction {
	c, ok := timingCurves[name]
	if !ok || name == TimingLinear {
		return func(t float64) float64 { return clamp01(t) }
	}
	return cubicBezier(c[0], c[1], c[2], c[3])
}

// cubicBezier builds the timing curve through (0,0), (x1,y1), (x2,y2), (1,1).
func cubicBezier(x1, y1, x2, y2 float64) TimingFunction {
	cx := 3 * x1
	bx := 3*(x2-x1) - cx
	ax := 1 - cx - bx
	cy := 3 * y1
	by := 3*(y2-y1) - cy
	ay := 1 - cy - by

	sampleX := func(s float64) float64 { return ((ax*s+bx)*s + cx) * s }
	sampleY := func(s float64) float64 { return ((ay*s+by)*s + cy) * s }
	slopeX := func(s float64) float64 { return (3*ax*s+2*bx)*s + cx }

	return func(t float64) float64 {
		t = clamp01(t)

		// Newton first, bisection if the slope is too flat
		s := t
		for i := 0; i < 8; i++ {
			dx := sampleX(s) - t
			if math.Abs(dx) < 1e-7 {
				return sampleY(s)
			}
			d := slopeX(s)
			if math.Abs(d) < 1e-6 {
				break
			}
			s -= dx / d
		}

		lo, hi := 0.0, 1.0
		s = t
		for i := 0; i < 64; i++ {
			x := sampleX(s)
			if math.Abs(x-t) < 1e-7 {
				break
			}
			if x < t {
				lo = s
			} else {
				hi = s
			}
			s = (lo + hi) / 2
		}
		return sampleY(s)
	}
}

// ValueAt evaluates the pulse at time t seconds after the start. It repeats
// forever; with AutoReverse each repeat plays forward then backward.
func (p Pulse) ValueAt(t float64) float64 {
	if p.Duration <= 0 || t <= 0 {
		return p.From
	}

	timing := Timing(p.Timing)
	cycle := p.Duration
	if p.AutoReverse {
		cycle *= 2
	}

	local := math.Mod(t, cycle) / p.Duration
	if local > 1 {
		local = 2 - local
	}
	return lerp(p.From, p.To, timing(local))
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}

package media

import "math"

// Transform is a 2D affine transform in the QuickTime / display-matrix
// layout: x' = A·x + C·y + Tx, y' = B·x + D·y + Ty.
type Transform struct {
	A, B, C, D float64
	Tx, Ty     float64
}

var Identity = Transform{A: 1, D: 1}

// Rotation returns the transform for a clockwise display rotation in
// degrees. Multiples of 90 produce exact 0/±1 coefficients.
func Rotation(degrees float64) Transform {
	rad := degrees * math.Pi / 180
	cos, sin := snap(math.Cos(rad)), snap(math.Sin(rad))
	return Transform{A: cos, B: sin, C: -sin, D: cos}
}

func snap(v float64) float64 {
	const eps = 1e-12
	switch {
	case math.Abs(v) < eps:
		return 0
	case math.Abs(v-1) < eps:
		return 1
	case math.Abs(v+1) < eps:
		return -1
	}
	return v
}

type Orientation int

const (
	Up Orientation = iota
	Down
	Left
	Right
)

func (o Orientation) String() string {
	switch o {
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "up"
	}
}

// OrientationOf matches t against the four canonical rotations. Only exact
// matches count; every other transform, including mirrored, scaled or
// arbitrarily rotated ones, reports Up and not portrait.
func OrientationOf(t Transform) (o Orientation, portrait bool) {
	switch {
	case t.A == 0 && t.B == 1 && t.C == -1 && t.D == 0:
		return Right, true
	case t.A == 0 && t.B == -1 && t.C == 1 && t.D == 0:
		return Left, true
	case t.A == 1 && t.B == 0 && t.C == 0 && t.D == 1:
		return Up, false
	case t.A == -1 && t.B == 0 && t.C == 0 && t.D == -1:
		return Down, false
	}
	return Up, false
}

package geometry

import "math"

// Point is a location in the plane.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Origin is (0, 0).
var Origin = Point{}

// P is a shorthand constructor.
func P(x, y float64) Point { return Point{X: x, Y: y} }

// Add translates p by v.
func (p Point) Add(v Vector) Point {
	return Point{X: p.X + v.DX, Y: p.Y + v.DY}
}

// Sub returns the displacement from q to p.
func (p Point) Sub(q Point) Vector {
	return Vector{DX: p.X - q.X, DY: p.Y - q.Y}
}

// DistanceTo is |p - q|.
func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func (p Point) IsFinite() bool {
	return finite(p.X) && finite(p.Y)
}

// RoundTo rounds v to the given number of decimal digits.
func RoundTo(v float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(v*scale) / scale
}

// Round returns p with both coordinates rounded to digits.
func (p Point) Round(digits int) Point {
	return Point{X: RoundTo(p.X, digits), Y: RoundTo(p.Y, digits)}
}

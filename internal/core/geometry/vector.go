package geometry

import "math"

// Vector is a free 2D vector: a displacement or a field quantity.
// Values are immutable, every operation returns a new Vector.
type Vector struct {
	DX float64 `json:"dx" yaml:"dx"`
	DY float64 `json:"dy" yaml:"dy"`
}

// Zero is the additive identity.
var Zero = Vector{}

// V is a shorthand constructor.
func V(dx, dy float64) Vector { return Vector{DX: dx, DY: dy} }

// Add returns the componentwise sum.
func (v Vector) Add(w Vector) Vector {
	return Vector{DX: v.DX + w.DX, DY: v.DY + w.DY}
}

// Sub returns v - w.
func (v Vector) Sub(w Vector) Vector {
	return Vector{DX: v.DX - w.DX, DY: v.DY - w.DY}
}

// Scale multiplies both components by k.
func (v Vector) Scale(k float64) Vector {
	return Vector{DX: v.DX * k, DY: v.DY * k}
}

func (v Vector) Neg() Vector {
	return Vector{DX: -v.DX, DY: -v.DY}
}

// Length returns the Euclidean norm.
func (v Vector) Length() float64 {
	return math.Hypot(v.DX, v.DY)
}

// Perpendicular rotates v by 90 degrees without changing its length.
// toLeft rotates counter-clockwise, otherwise clockwise.
func (v Vector) Perpendicular(toLeft bool) Vector {
	if toLeft {
		return Vector{DX: -v.DY, DY: v.DX}
	}
	return Vector{DX: v.DY, DY: -v.DX}
}

// Normal returns the unit vector perpendicular to v.
// The zero vector has no normal: the result is NaN in both components.
func (v Vector) Normal(toLeft bool) Vector {
	return v.Perpendicular(toLeft).Normalize()
}

// Normalize returns v scaled to unit length. Zero input yields NaN.
func (v Vector) Normalize() Vector {
	return v.Scale(1 / v.Length())
}

// ScaleToSize returns v scaled so that its length equals |size|.
// A negative size flips the direction. Zero-length input yields non-finite components.
func (v Vector) ScaleToSize(size float64) Vector {
	return v.Scale(size / v.Length())
}

// Angle is the direction of v in radians, in (-π, π].
func (v Vector) Angle() float64 {
	return math.Atan2(v.DY, v.DX)
}

// Dot returns the scalar product.
func (v Vector) Dot(w Vector) float64 {
	return v.DX*w.DX + v.DY*w.DY
}

// IsFinite reports whether both components are neither NaN nor infinite.
func (v Vector) IsFinite() bool {
	return finite(v.DX) && finite(v.DY)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

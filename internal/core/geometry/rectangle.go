package geometry

import (
	"fmt"
	"math/rand/v2"
)

// Rectangle is an axis-aligned world region. TopLeft has the lesser x and
// the greater y, BottomRight the greater x and the lesser y.
type Rectangle struct {
	TopLeft     Point `json:"top_left" yaml:"top_left"`
	BottomRight Point `json:"bottom_right" yaml:"bottom_right"`
}

// NewRectangle validates corner ordering.
func NewRectangle(topLeft, bottomRight Point) (Rectangle, error) {
	if !topLeft.IsFinite() || !bottomRight.IsFinite() {
		return Rectangle{}, ErrNonFinite
	}
	if topLeft.X > bottomRight.X || topLeft.Y < bottomRight.Y {
		return Rectangle{}, fmt.Errorf("%w: top-left %v, bottom-right %v", ErrInvertedRectangle, topLeft, bottomRight)
	}
	return Rectangle{TopLeft: topLeft, BottomRight: bottomRight}, nil
}

// MustRectangle is NewRectangle for literals known to be valid.
func MustRectangle(topLeft, bottomRight Point) Rectangle {
	r, err := NewRectangle(topLeft, bottomRight)
	if err != nil {
		panic(err)
	}
	return r
}

// RectangleFromCenterAndSize builds a width x height rectangle centered at center.
func RectangleFromCenterAndSize(center Point, width, height float64) (Rectangle, error) {
	if width < 0 || height < 0 {
		return Rectangle{}, fmt.Errorf("%w: %gx%g", ErrNegativeSize, width, height)
	}
	dx, dy := width/2, height/2
	return NewRectangle(P(center.X-dx, center.Y+dy), P(center.X+dx, center.Y-dy))
}

// RectangleFromCornerAndSize builds a rectangle extending right and down from topLeft.
func RectangleFromCornerAndSize(topLeft Point, width, height float64) (Rectangle, error) {
	if width < 0 || height < 0 {
		return Rectangle{}, fmt.Errorf("%w: %gx%g", ErrNegativeSize, width, height)
	}
	return NewRectangle(topLeft, P(topLeft.X+width, topLeft.Y-height))
}

// Contains reports whether p lies inside r, bounds inclusive.
func (r Rectangle) Contains(p Point) bool {
	return p.X >= r.TopLeft.X && p.X <= r.BottomRight.X &&
		p.Y <= r.TopLeft.Y && p.Y >= r.BottomRight.Y
}

func (r Rectangle) Width() float64 {
	return r.BottomRight.X - r.TopLeft.X
}

func (r Rectangle) Height() float64 {
	return r.TopLeft.Y - r.BottomRight.Y
}

func (r Rectangle) Center() Point {
	return P((r.TopLeft.X+r.BottomRight.X)/2, (r.TopLeft.Y+r.BottomRight.Y)/2)
}

// RandomPoint returns a point uniformly distributed inside r.
func RandomPoint(r Rectangle, rng *rand.Rand) Point {
	return P(
		rng.Float64()*r.Width()+r.TopLeft.X,
		rng.Float64()*r.Height()+r.BottomRight.Y,
	)
}

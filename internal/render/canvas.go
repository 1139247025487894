package render

import (
	"fmt"

	"github.com/zeusync/magfield/internal/core/geometry"
)

// Canvas is a drawing surface addressed in screen pixels.
type Canvas interface {
	Size() (width, height int)
	Clear()
	Circle(center geometry.Point, radius float64, style Style)
	Line(from, to geometry.Point, style Style)
	Polygon(points []geometry.Point, style Style)
	Rect(topLeft, bottomRight geometry.Point, style Style)
	Text(at geometry.Point, text string, style Style)
}

// ArrowCanvas is implemented by canvases with their own arrow primitive.
type ArrowCanvas interface {
	Arrow(a Arrow)
}

// Draw renders shapes in order.
func Draw(c Canvas, shapes []Shape) error {
	for _, s := range shapes {
		if err := drawShape(c, s); err != nil {
			return err
		}
	}
	return nil
}

func drawShape(c Canvas, s Shape) error {
	switch s := s.(type) {
	case Circle:
		c.Circle(s.Center, s.Radius, s.Style)
	case Line:
		c.Line(s.From, s.To, s.Style)
	case Triangle:
		c.Polygon([]geometry.Point{s.A, s.B, s.C}, s.Style)
	case Rect:
		c.Rect(s.TopLeft, s.BottomRight, s.Style)
	case Arrow:
		if ac, ok := c.(ArrowCanvas); ok {
			ac.Arrow(s)
			return nil
		}
		c.Line(s.From, s.To, s.Style)
		head := s.Head()
		c.Polygon([]geometry.Point{head.A, head.B, head.C}, s.Style)
	case Label:
		c.Text(s.At, s.Text, s.Style)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownShape, s)
	}
	return nil
}

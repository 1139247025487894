// Package render turns sampled frames into screen-space shapes and draws them on a Canvas.
package render

import (
	"math"

	"github.com/zeusync/magfield/internal/core/field"
	"github.com/zeusync/magfield/internal/core/geometry"
)

// Shape is one of Circle, Line, Triangle, Rect, Arrow or Label. Coordinates are screen
// pixels.
type Shape interface {
	shape()
}

type Style struct {
	Stroke field.Color
	Fill   field.Color
	Width  float64
}

type Circle struct {
	Center geometry.Point
	Radius float64
	Style
}

type Line struct {
	From, To geometry.Point
	Style
}

type Triangle struct {
	A, B, C geometry.Point
	Style
}

type Rect struct {
	TopLeft, BottomRight geometry.Point
	Style
}

// Arrow is a line with a triangular head of HeadSize at To.
type Arrow struct {
	From, To geometry.Point
	HeadSize float64
	Style
}

type Label struct {
	At   geometry.Point
	Text string
	Style
}

func (Circle) shape()   {}
func (Line) shape()     {}
func (Triangle) shape() {}
func (Rect) shape()     {}
func (Arrow) shape()    {}
func (Label) shape()    {}

// Head is the triangle drawn at the tip of the arrow, pointing along it.
func (a Arrow) Head() Triangle {
	d := a.To.Sub(a.From)
	return TriangleAt(a.To, d.Angle(), a.HeadSize, a.Style)
}

// Direction is the arrow's screen angle in [0, 2π).
func (a Arrow) Direction() float64 {
	angle := a.To.Sub(a.From).Angle()
	if angle < 0 {
		angle += 2 * math.Pi
	}
	return angle
}

// TriangleAt builds an equilateral triangle around center with one vertex size away in
// the direction of angle.
func TriangleAt(center geometry.Point, angle, size float64, style Style) Triangle {
	vertex := func(a float64) geometry.Point {
		return center.Add(geometry.V(size*math.Cos(a), size*math.Sin(a)))
	}
	return Triangle{
		A:     vertex(angle),
		B:     vertex(angle + 2*math.Pi/3),
		C:     vertex(angle - 2*math.Pi/3),
		Style: style,
	}
}

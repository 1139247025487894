package render

import (
	"strconv"

	"github.com/zeusync/magfield/internal/core/camera"
	"github.com/zeusync/magfield/internal/core/field"
	"github.com/zeusync/magfield/internal/core/geometry"
	"github.com/zeusync/magfield/internal/scene"
)

var (
	Black  = field.Color{}
	Red    = field.Color{R: 255}
	Yellow = field.Color{R: 255, G: 255}
	// Gray is the default color of field arrows.
	Gray = field.Color{R: 128, G: 128, B: 128}
)

type Options struct {
	// ArrowScale multiplies field vectors before projecting them.
	ArrowScale float64
	// HeadSize is the arrow head size in pixels.
	HeadSize float64
	// ConductorRadius is the conductor circle radius at zoom 1.
	ConductorRadius float64
	// LabelOffset is the vertical label offset at zoom 1.
	LabelOffset float64
	ArrowColor  field.Color
	Labels      bool
	// ShowWorld and ShowVisible outline the unit world square and the visible rectangle.
	ShowWorld   bool
	ShowVisible bool
}

func DefaultOptions() Options {
	return Options{
		ArrowScale:      1000,
		HeadSize:        4,
		ConductorRadius: 10,
		LabelOffset:     40,
		ArrowColor:      Gray,
		Labels:          true,
	}
}

// Build lays out a frame: field arrows first, then conductors and their labels, then the
// debug outlines.
func Build(frame *scene.Frame, cam *camera.Camera, opts Options) []Shape {
	shapes := make([]Shape, 0, len(frame.Grid.Cells)+3*len(frame.Conductors)+2)

	arrowStyle := Style{Stroke: opts.ArrowColor, Fill: opts.ArrowColor, Width: 2}
	for _, cell := range frame.Grid.Cells {
		if !cell.Vector.IsFinite() {
			continue
		}
		shapes = append(shapes, VectorArrow(cam, cell.Point, cell.Vector, opts, arrowStyle))
	}

	zoom := cam.Zoom()
	for _, c := range frame.Conductors {
		center := cam.WorldToScreen(c.Center)
		shapes = append(shapes, Circle{
			Center: center,
			Radius: cam.ScaleLength(opts.ConductorRadius),
			Style:  Style{Stroke: Black, Fill: c.Color, Width: 2},
		})
		if c.Amperage > 0 {
			shapes = append(shapes, Circle{
				Center: center,
				Radius: cam.ScaleLength(opts.ConductorRadius / 4),
				Style:  Style{Stroke: Black, Fill: Black, Width: 2},
			})
		}
		if opts.Labels {
			shapes = append(shapes, Label{
				At:    center.Add(geometry.V(0, opts.LabelOffset*zoom)),
				Text:  strconv.FormatFloat(c.Amperage, 'f', 2, 64),
				Style: Style{Fill: Black},
			})
		}
	}

	if opts.ShowWorld {
		shapes = append(shapes, Rect{
			TopLeft:     cam.WorldToScreen(geometry.P(-1, 1)),
			BottomRight: cam.WorldToScreen(geometry.P(1, -1)),
			Style:       Style{Stroke: Red, Width: 6},
		})
	}
	if opts.ShowVisible {
		shapes = append(shapes, Rect{
			TopLeft:     cam.WorldToScreen(frame.Visible.TopLeft),
			BottomRight: cam.WorldToScreen(frame.Visible.BottomRight),
			Style:       Style{Stroke: Yellow, Width: 6},
		})
	}
	return shapes
}

// BuildProbe draws each conductor's contribution at a probed point in its color.
func BuildProbe(probe *scene.Probe, cam *camera.Camera, opts Options) []Shape {
	shapes := make([]Shape, 0, len(probe.Contributions))
	for _, c := range probe.Contributions {
		if !c.Vector.IsFinite() {
			continue
		}
		style := Style{Stroke: c.Color, Fill: c.Color, Width: 2}
		shapes = append(shapes, VectorArrow(cam, probe.World, c.Vector, opts, style))
	}
	return shapes
}

// VectorArrow projects a world vector anchored at start, scaled by opts.ArrowScale.
func VectorArrow(cam *camera.Camera, start geometry.Point, v geometry.Vector, opts Options, style Style) Arrow {
	return Arrow{
		From:     cam.WorldToScreen(start),
		To:       cam.WorldToScreen(start.Add(v.Scale(opts.ArrowScale))),
		HeadSize: cam.ScaleLength(opts.HeadSize),
		Style:    style,
	}
}

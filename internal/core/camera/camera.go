// Package camera maps between world space, a zoom/pan normalized camera space and
// screen pixels.
//
// Camera space is the box [-1, 1] x [-1, 1] centered on the camera and scaled by its zoom.
// Screen space spans [0, W] x [0, H] with rows growing downward.
package camera

import (
	"fmt"
	"math"

	"github.com/zeusync/magfield/internal/core/geometry"
)

const DefaultZoom = 1.0

// Viewport is the pixel size of the surface hosting a camera.
type Viewport struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

func (v Viewport) validate() error {
	if !(v.Width > 0) || !(v.Height > 0) || math.IsInf(v.Width, 0) || math.IsInf(v.Height, 0) {
		return fmt.Errorf("%w: %gx%g", ErrInvalidViewport, v.Width, v.Height)
	}
	return nil
}

// Camera views the world from center at a given zoom. One camera exists per surface and
// it is not safe for concurrent use.
type Camera struct {
	center   geometry.Point
	zoom     float64
	viewport Viewport
}

// New creates a camera at the origin with DefaultZoom.
func New(viewport Viewport) (*Camera, error) {
	if err := viewport.validate(); err != nil {
		return nil, err
	}
	return &Camera{center: geometry.Origin, zoom: DefaultZoom, viewport: viewport}, nil
}

func (c *Camera) Center() geometry.Point { return c.center }
func (c *Camera) Zoom() float64          { return c.zoom }
func (c *Camera) Viewport() Viewport     { return c.viewport }

// SetZoom rejects non-positive and non-finite values and keeps the previous zoom.
func (c *Camera) SetZoom(zoom float64) error {
	if !(zoom > 0) || math.IsInf(zoom, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidZoom, zoom)
	}
	c.zoom = zoom
	return nil
}

// ZoomBy adds delta to the current zoom, subject to the same rules as SetZoom.
func (c *Camera) ZoomBy(delta float64) error {
	return c.SetZoom(c.zoom + delta)
}

// SetViewport follows a resize of the hosting surface.
func (c *Camera) SetViewport(viewport Viewport) error {
	if err := viewport.validate(); err != nil {
		return err
	}
	c.viewport = viewport
	return nil
}

// MoveBy pans the camera by a world-space vector.
func (c *Camera) MoveBy(v geometry.Vector) {
	c.center = c.center.Add(v)
}

// MoveTo centers the camera on p.
func (c *Camera) MoveTo(p geometry.Point) {
	c.center = p
}

// ResetPosition moves the camera back to the origin. Zoom is kept.
func (c *Camera) ResetPosition() {
	c.center = geometry.Origin
}

func (c *Camera) WorldToCamera(p geometry.Point) geometry.Point {
	return geometry.P(
		(p.X-c.center.X)*c.zoom,
		(p.Y-c.center.Y)*c.zoom,
	)
}

func (c *Camera) CameraToWorld(p geometry.Point) geometry.Point {
	return geometry.P(
		p.X/c.zoom+c.center.X,
		p.Y/c.zoom+c.center.Y,
	)
}

func (c *Camera) CameraToScreen(p geometry.Point) geometry.Point {
	w, h := c.viewport.Width, c.viewport.Height
	return geometry.P(
		(p.X+1)*w/2,
		h-(p.Y+1)*h/2,
	)
}

func (c *Camera) ScreenToCamera(p geometry.Point) geometry.Point {
	w, h := c.viewport.Width, c.viewport.Height
	return geometry.P(
		2*p.X/w-1,
		2*(h-p.Y)/h-1,
	)
}

func (c *Camera) WorldToScreen(p geometry.Point) geometry.Point {
	return c.CameraToScreen(c.WorldToCamera(p))
}

func (c *Camera) ScreenToWorld(p geometry.Point) geometry.Point {
	return c.CameraToWorld(c.ScreenToCamera(p))
}

// VisibleRectangle is the world region mapped onto the whole screen.
func (c *Camera) VisibleRectangle() geometry.Rectangle {
	half := 1 / c.zoom
	return geometry.Rectangle{
		TopLeft:     c.center.Add(geometry.V(-half, half)),
		BottomRight: c.center.Add(geometry.V(half, -half)),
	}
}

// IsPointVisible reports whether p projects inside the screen.
func (c *Camera) IsPointVisible(p geometry.Point) bool {
	s := c.WorldToScreen(p)
	return s.X >= 0 && s.X <= c.viewport.Width && s.Y >= 0 && s.Y <= c.viewport.Height
}

// ScaleLength converts a world-proportional length to its zoomed size.
func (c *Camera) ScaleLength(length float64) float64 {
	return length * c.zoom
}

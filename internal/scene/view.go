package scene

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zeusync/magfield/internal/config"
	"github.com/zeusync/magfield/internal/core/camera"
	"github.com/zeusync/magfield/internal/core/events/bus"
	"github.com/zeusync/magfield/internal/core/field"
	"github.com/zeusync/magfield/internal/core/geometry"
	"github.com/zeusync/magfield/internal/core/observability/log"
	"github.com/zeusync/magfield/internal/core/sampler"
)

const (
	// PanStep is the world distance of one pan command.
	PanStep = 0.1
	// ZoomStep is added to or removed from the zoom by one zoom command.
	ZoomStep = 0.1
	// MinZoom bounds ZoomOut.
	MinZoom = 0.1
	// ExponentDigits is the number of fraction digits in formatted magnitudes.
	ExponentDigits = 3
)

type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

var directionVectors = map[Direction]geometry.Vector{
	Up:    geometry.V(0, PanStep),
	Down:  geometry.V(0, -PanStep),
	Left:  geometry.V(-PanStep, 0),
	Right: geometry.V(PanStep, 0),
}

// ParseDirection accepts up/down/left/right and the w/s/a/d keys.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "w":
		return Up, nil
	case "down", "s":
		return Down, nil
	case "left", "a":
		return Left, nil
	case "right", "d":
		return Right, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// Frame is everything a surface needs to draw one picture.
type Frame struct {
	Camera     CameraState        `json:"camera"`
	Visible    geometry.Rectangle `json:"visible"`
	Resolution int                `json:"resolution"`
	Grid       *sampler.Grid      `json:"grid"`
	Conductors []field.Conductor  `json:"conductors"`
	Elapsed    time.Duration      `json:"-"`
}

// Probe is the field at one clicked point.
type Probe struct {
	Screen        geometry.Point       `json:"screen"`
	World         geometry.Point       `json:"world"`
	Contributions []field.Contribution `json:"contributions"`
	Total         geometry.Vector      `json:"total"`
	Magnitude     float64              `json:"magnitude"`
	Formatted     string               `json:"formatted"`
}

// View is one surface looking at a shared Scene through its own camera. Methods are safe
// for concurrent use.
type View struct {
	id    string
	scene *Scene

	mu     sync.Mutex
	camera *camera.Camera
}

// NewView creates a view with a camera at the origin. id names the view in camera events.
func NewView(id string, s *Scene, viewport camera.Viewport) (*View, error) {
	cam, err := camera.New(viewport)
	if err != nil {
		return nil, err
	}
	return &View{id: id, scene: s, camera: cam}, nil
}

func (v *View) ID() string    { return v.id }
func (v *View) Scene() *Scene { return v.scene }

func (v *View) State() CameraState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stateLocked()
}

// Apply positions the camera from a scene file entry.
func (v *View) Apply(spec *config.CameraSpec) error {
	if spec == nil {
		return nil
	}
	return v.update(func(c *camera.Camera) error {
		if err := c.SetZoom(spec.Zoom); err != nil {
			return err
		}
		c.MoveTo(spec.Center())
		return nil
	})
}

func (v *View) Pan(dir Direction) error {
	step, ok := directionVectors[dir]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownDirection, dir)
	}
	return v.update(func(c *camera.Camera) error {
		c.MoveBy(step)
		return nil
	})
}

func (v *View) MoveTo(p geometry.Point) error {
	if !p.IsFinite() {
		return fmt.Errorf("%w: camera center %v", geometry.ErrNonFinite, p)
	}
	return v.update(func(c *camera.Camera) error {
		c.MoveTo(p)
		return nil
	})
}

func (v *View) ZoomIn() error {
	return v.update(func(c *camera.Camera) error {
		return c.SetZoom(geometry.RoundTo(c.Zoom()+ZoomStep, 6))
	})
}

// ZoomOut stops at MinZoom.
func (v *View) ZoomOut() error {
	return v.update(func(c *camera.Camera) error {
		return c.SetZoom(math.Max(MinZoom, geometry.RoundTo(c.Zoom()-ZoomStep, 6)))
	})
}

func (v *View) SetZoom(zoom float64) error {
	return v.update(func(c *camera.Camera) error {
		return c.SetZoom(zoom)
	})
}

// ResetCamera recenters on the origin; the zoom is kept.
func (v *View) ResetCamera() error {
	return v.update(func(c *camera.Camera) error {
		c.ResetPosition()
		return nil
	})
}

func (v *View) Resize(width, height float64) error {
	return v.update(func(c *camera.Camera) error {
		return c.SetViewport(camera.Viewport{Width: width, Height: height})
	})
}

// AddRandomConductor places a random conductor in the visible part of the world.
func (v *View) AddRandomConductor() (field.Conductor, error) {
	v.mu.Lock()
	bounds := v.camera.VisibleRectangle()
	v.mu.Unlock()
	return v.scene.AddRandomConductor(bounds)
}

// Frame samples the visible rectangle on a square grid whose size follows the zoom. The grid
// and the conductor list come from the same snapshot.
func (v *View) Frame(ctx context.Context) (*Frame, error) {
	start := time.Now()

	v.mu.Lock()
	state := v.stateLocked()
	visible := v.camera.VisibleRectangle()
	v.mu.Unlock()

	snapshot := v.scene.Snapshot()
	resolution := v.scene.Resolution(state.Zoom)
	grid, err := v.scene.SampleSnapshot(ctx, snapshot, visible, resolution, resolution)
	if err != nil {
		return nil, fmt.Errorf("sample frame: %w", err)
	}
	return &Frame{
		Camera:     state,
		Visible:    visible,
		Resolution: resolution,
		Grid:       grid,
		Conductors: snapshot.Conductors(),
		Elapsed:    time.Since(start),
	}, nil
}

// Probe evaluates every conductor's contribution at a screen point.
func (v *View) Probe(screen geometry.Point) (*Probe, error) {
	v.mu.Lock()
	world := v.camera.ScreenToWorld(screen)
	v.mu.Unlock()

	snapshot := v.scene.Snapshot()
	total, err := snapshot.TotalFieldAt(world, v.scene.Permeability())
	if err != nil {
		return nil, err
	}
	magnitude := total.Length()
	return &Probe{
		Screen:        screen,
		World:         world,
		Contributions: snapshot.FieldsAt(world, v.scene.Permeability()),
		Total:         total,
		Magnitude:     magnitude,
		Formatted:     FormatExponent(magnitude, ExponentDigits),
	}, nil
}

// ConductorAt finds the conductor drawn closest to a screen point within radius pixels.
func (v *View) ConductorAt(screen geometry.Point, radius float64) (field.Conductor, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	var (
		best  field.Conductor
		found bool
		dist  = radius
	)
	for _, c := range v.scene.Conductors() {
		d := v.camera.WorldToScreen(c.Center).DistanceTo(screen)
		if d <= dist {
			best, dist, found = c, d, true
		}
	}
	return best, found
}

// WorldToScreen projects a world point through the view's camera.
func (v *View) WorldToScreen(p geometry.Point) geometry.Point {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.camera.WorldToScreen(p)
}

// Camera returns a copy of the view's camera for projection.
func (v *View) Camera() *camera.Camera {
	v.mu.Lock()
	defer v.mu.Unlock()
	c := *v.camera
	return &c
}

func (v *View) update(fn func(c *camera.Camera) error) error {
	v.mu.Lock()
	if err := fn(v.camera); err != nil {
		v.mu.Unlock()
		return err
	}
	state := v.stateLocked()
	v.mu.Unlock()

	if err := v.scene.bus.Publish(bus.NewEvent(EventCameraChanged, v.id, CameraEvent{State: state})); err != nil {
		v.scene.logger.Warn("camera event handler failed", log.String("view", v.id), log.Error(err))
	}
	return nil
}

func (v *View) stateLocked() CameraState {
	return CameraState{
		Center:   v.camera.Center(),
		Zoom:     v.camera.Zoom(),
		Viewport: v.camera.Viewport(),
	}
}

// FormatExponent renders v in exponent notation with digits fraction digits and a
// minimal exponent, e.g. 2.000e-5.
func FormatExponent(v float64, digits int) string {
	s := strconv.FormatFloat(v, 'e', digits, 64)
	mantissa, exp, ok := strings.Cut(s, "e")
	if !ok {
		return s
	}
	n, err := strconv.Atoi(exp)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%se%+d", mantissa, n)
}

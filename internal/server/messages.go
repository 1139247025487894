package server

import (
	"github.com/zeusync/magfield/internal/core/field"
	"github.com/zeusync/magfield/internal/core/geometry"
	"github.com/zeusync/magfield/internal/core/sampler"
	"github.com/zeusync/magfield/internal/scene"
)

// Client actions
const (
	ActionList            = "list"
	ActionAddRandom       = "add_random"
	ActionAddConductor    = "add_conductor"
	ActionUpdateConductor = "update_conductor"
	ActionRemoveConductor = "remove_conductor"
	ActionMoveCamera      = "move_camera"
	ActionZoom            = "zoom"
	ActionResetCamera     = "reset_camera"
	ActionResize          = "resize"
	ActionFrame           = "frame"
	ActionProbe           = "probe"
)

// Server response types
const (
	TypeConductors = "conductors"
	TypeCamera     = "camera"
	TypeFrame      = "frame"
	TypeProbe      = "probe"
	TypeError      = "error"
)

// Request is a client message. Which fields matter depends on Action:
//
//	add_conductor     x, y, amperage, color (optional)
//	update_conductor  id, x, y, amperage, color (optional, keeps the old one)
//	remove_conductor  id
//	move_camera       direction, or x and y
//	zoom              step ("in" or "out"), or value
//	resize            width, height
//	probe             x, y in screen pixels
type Request struct {
	Action    string   `json:"action" validate:"required,oneof=list add_random add_conductor update_conductor remove_conductor move_camera zoom reset_camera resize frame probe"`
	ID        uint64   `json:"id,omitempty"`
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	Amperage  *float64 `json:"amperage,omitempty"`
	Color     string   `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Direction string   `json:"direction,omitempty" validate:"omitempty,oneof=up down left right w a s d"`
	Step      string   `json:"step,omitempty" validate:"omitempty,oneof=in out"`
	Value     float64  `json:"value,omitempty" validate:"gte=0"`
	Width     float64  `json:"width,omitempty" validate:"gte=0"`
	Height    float64  `json:"height,omitempty" validate:"gte=0"`
}

func (r *Request) point() (geometry.Point, bool) {
	if r.X == nil || r.Y == nil {
		return geometry.Point{}, false
	}
	return geometry.P(*r.X, *r.Y), true
}

type Response struct {
	Type string `json:"type"`
	// Event names the scene change behind a broadcast.
	Event      string             `json:"event,omitempty"`
	Conductor  *field.Conductor   `json:"conductor,omitempty"`
	Conductors []field.Conductor  `json:"conductors,omitempty"`
	Camera     *scene.CameraState `json:"camera,omitempty"`
	Frame      *Frame             `json:"frame,omitempty"`
	Probe      *Probe             `json:"probe,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// Cell is a grid sample with non-finite vectors zeroed and flagged, since JSON has no
// NaN or infinity.
type Cell struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	DX       float64 `json:"dx"`
	DY       float64 `json:"dy"`
	Singular bool    `json:"singular,omitempty"`
}

type Frame struct {
	Camera     scene.CameraState  `json:"camera"`
	Visible    geometry.Rectangle `json:"visible"`
	Width      int                `json:"width"`
	Height     int                `json:"height"`
	MaxLength  float64            `json:"max_length"`
	Cells      []Cell             `json:"cells"`
	Conductors []field.Conductor  `json:"conductors"`
	ElapsedMS  float64            `json:"elapsed_ms"`
}

type Contribution struct {
	ConductorID field.ConductorID `json:"conductor_id"`
	Color       field.Color       `json:"color"`
	DX          float64           `json:"dx"`
	DY          float64           `json:"dy"`
	Singular    bool              `json:"singular,omitempty"`
}

type Probe struct {
	Screen        geometry.Point `json:"screen"`
	World         geometry.Point `json:"world"`
	Contributions []Contribution `json:"contributions"`
	DX            float64        `json:"dx"`
	DY            float64        `json:"dy"`
	Singular      bool           `json:"singular,omitempty"`
	Magnitude     string         `json:"magnitude"`
}

func newFrame(f *scene.Frame) *Frame {
	out := &Frame{
		Camera:     f.Camera,
		Visible:    f.Visible,
		Width:      f.Grid.Width,
		Height:     f.Grid.Height,
		MaxLength:  f.Grid.MaxMagnitude(),
		Cells:      NewCells(f.Grid),
		Conductors: f.Conductors,
		ElapsedMS:  float64(f.Elapsed.Microseconds()) / 1000,
	}
	return out
}

// NewCells flattens a grid into JSON-safe cells, top row first.
func NewCells(g *sampler.Grid) []Cell {
	cells := make([]Cell, len(g.Cells))
	for i, s := range g.Cells {
		dx, dy, singular := finiteVector(s.Vector)
		cells[i] = Cell{X: s.Point.X, Y: s.Point.Y, DX: dx, DY: dy, Singular: singular}
	}
	return cells
}

func newProbe(p *scene.Probe) *Probe {
	dx, dy, singular := finiteVector(p.Total)
	out := &Probe{
		Screen:        p.Screen,
		World:         p.World,
		Contributions: make([]Contribution, len(p.Contributions)),
		DX:            dx,
		DY:            dy,
		Singular:      singular,
		Magnitude:     p.Formatted,
	}
	for i, c := range p.Contributions {
		cdx, cdy, cs := finiteVector(c.Vector)
		out.Contributions[i] = Contribution{ConductorID: c.ConductorID, Color: c.Color, DX: cdx, DY: cdy, Singular: cs}
	}
	return out
}

func finiteVector(v geometry.Vector) (dx, dy float64, singular bool) {
	if !v.IsFinite() {
		return 0, 0, true
	}
	return v.DX, v.DY, false
}

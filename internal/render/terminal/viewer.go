package terminal

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/zeusync/magfield/internal/core/field"
	"github.com/zeusync/magfield/internal/core/geometry"
	"github.com/zeusync/magfield/internal/core/observability/log"
	"github.com/zeusync/magfield/internal/render"
	"github.com/zeusync/magfield/internal/scene"
)

// Viewer is the interactive terminal front end for one scene view.
//
//	w a s d   pan          + -   zoom
//	space     recenter     n     add a random conductor
//	x         remove the selected conductor
//	click     probe the field and select the nearest conductor
//	q, Esc    quit
type Viewer struct {
	screen tcell.Screen
	canvas *Canvas
	view   *scene.View
	opts   render.Options
	logger log.Log

	selected field.ConductorID
	probe    *scene.Probe
	status   string
}

// DefaultOptions scales the drawing down to character cells.
func DefaultOptions() render.Options {
	opts := render.DefaultOptions()
	opts.ConductorRadius = 1
	opts.LabelOffset = 2
	opts.HeadSize = 1
	return opts
}

// NewViewer sizes the view's camera to the screen.
func NewViewer(screen tcell.Screen, view *scene.View, opts render.Options, logger log.Log) (*Viewer, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	v := &Viewer{
		screen: screen,
		canvas: New(screen),
		view:   view,
		opts:   opts,
		logger: logger.With(log.String("component", "viewer")),
	}
	if err := v.resize(); err != nil {
		return nil, err
	}
	return v, nil
}

// Run draws and handles events until quit or ctx is done. The caller owns Init and Fini.
func (v *Viewer) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	if err := v.Draw(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			done, err := v.HandleEvent(ev)
			if err != nil {
				v.status = err.Error()
				v.logger.Debug("Command failed", log.Error(err))
			}
			if done {
				return nil
			}
			if err = v.Draw(ctx); err != nil {
				return err
			}
		}
	}
}

// HandleEvent applies one input event and reports whether the viewer should quit.
func (v *Viewer) HandleEvent(ev tcell.Event) (bool, error) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
		return false, v.resize()
	case *tcell.EventKey:
		return v.handleKey(ev)
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 == 0 {
			return false, nil
		}
		x, y := ev.Position()
		return false, v.probeAt(geometry.P(float64(x), float64(y)))
	}
	return false, nil
}

func (v *Viewer) handleKey(ev *tcell.EventKey) (bool, error) {
	v.status = ""
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true, nil
	case tcell.KeyUp:
		return false, v.view.Pan(scene.Up)
	case tcell.KeyDown:
		return false, v.view.Pan(scene.Down)
	case tcell.KeyLeft:
		return false, v.view.Pan(scene.Left)
	case tcell.KeyRight:
		return false, v.view.Pan(scene.Right)
	case tcell.KeyRune:
	default:
		return false, nil
	}

	switch r := ev.Rune(); r {
	case 'q':
		return true, nil
	case 'w', 'a', 's', 'd':
		dir, err := scene.ParseDirection(string(r))
		if err != nil {
			return false, err
		}
		return false, v.view.Pan(dir)
	case '+', '=':
		return false, v.view.ZoomIn()
	case '-':
		return false, v.view.ZoomOut()
	case ' ':
		return false, v.view.ResetCamera()
	case 'n':
		c, err := v.view.AddRandomConductor()
		if err != nil {
			return false, err
		}
		v.selected = c.ID
		v.logger.Info("Conductor added", log.Uint64("id", uint64(c.ID)), log.Float64("amperage", c.Amperage))
	case 'x':
		if v.selected == 0 {
			return false, errors.New("no conductor selected")
		}
		if err := v.view.Scene().RemoveConductor(v.selected); err != nil {
			return false, err
		}
		v.logger.Info("Conductor removed", log.Uint64("id", uint64(v.selected)))
		v.selected = 0
		v.probe = nil
	}
	return false, nil
}

func (v *Viewer) probeAt(at geometry.Point) error {
	if c, ok := v.view.ConductorAt(at, 2); ok {
		v.selected = c.ID
	}
	probe, err := v.view.Probe(at)
	if err != nil {
		return err
	}
	v.probe = probe
	return nil
}

// Draw renders a fresh frame and the status line.
func (v *Viewer) Draw(ctx context.Context) error {
	frame, err := v.view.Frame(ctx)
	if err != nil {
		return err
	}
	cam := v.view.Camera()

	v.canvas.Clear()
	shapes := render.Build(frame, cam, v.opts)
	if v.probe != nil {
		shapes = append(shapes, render.BuildProbe(v.probe, cam, v.opts)...)
	}
	if err = render.Draw(v.canvas, shapes); err != nil {
		return err
	}
	v.drawStatus(frame)
	v.canvas.Show()
	return nil
}

func (v *Viewer) drawStatus(frame *scene.Frame) {
	_, h := v.screen.Size()
	line := fmt.Sprintf(" zoom %.1f  center (%.2f, %.2f)  conductors %d",
		frame.Camera.Zoom, frame.Camera.Center.X, frame.Camera.Center.Y, len(frame.Conductors))
	if v.selected != 0 {
		line += fmt.Sprintf("  selected #%d", v.selected)
	}
	if v.probe != nil {
		line += "  |B| = " + v.probe.Formatted + " T"
	}
	if v.status != "" {
		line += "  ! " + v.status
	}
	for x, r := range []rune(line) {
		v.canvas.setCell(x, h-1, r, v.canvas.base.Reverse(true))
	}
}

func (v *Viewer) resize() error {
	w, h := v.screen.Size()
	if w <= 0 || h <= 0 {
		return nil
	}
	return v.view.Resize(float64(w), float64(h))
}

// Selected is the id of the conductor chosen by the last click, or zero.
func (v *Viewer) Selected() field.ConductorID { return v.selected }

// Status is the last error shown on the status line.
func (v *Viewer) Status() string { return v.status }


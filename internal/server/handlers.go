package server

import (
	"context"
	"fmt"

	"github.com/zeusync/magfield/internal/config"
	"github.com/zeusync/magfield/internal/core/field"
	"github.com/zeusync/magfield/internal/core/observability/log"
	"github.com/zeusync/magfield/internal/scene"
)

// handleRequest validates and dispatches one client request. Conductor mutations are
// answered through the conductor broadcast, so they return no direct response.
func (s *Server) handleRequest(ctx context.Context, session *Session, req *Request) (resp *Response, err error) {
	action := "invalid"
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.Requests.WithLabelValues(action, status).Inc()
	}()

	if err := config.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	action = req.Action

	session.logger.Debug("Handling request", log.String("action", req.Action))

	view := session.view
	switch req.Action {
	case ActionList:
		return &Response{Type: TypeConductors, Conductors: s.scene.Conductors()}, nil
	case ActionAddRandom:
		_, err := view.AddRandomConductor()
		return nil, err
	case ActionAddConductor:
		return nil, s.handleAddConductor(req)
	case ActionUpdateConductor:
		return nil, s.handleUpdateConductor(req)
	case ActionRemoveConductor:
		if req.ID == 0 {
			return nil, fmt.Errorf("%w: id is required", ErrInvalidMessage)
		}
		return nil, s.scene.RemoveConductor(field.ConductorID(req.ID))
	case ActionMoveCamera:
		return cameraResponse(view, handleMoveCamera(view, req))
	case ActionZoom:
		return cameraResponse(view, handleZoom(view, req))
	case ActionResetCamera:
		return cameraResponse(view, view.ResetCamera())
	case ActionResize:
		return cameraResponse(view, view.Resize(req.Width, req.Height))
	case ActionFrame:
		frame, err := view.Frame(ctx)
		if err != nil {
			return nil, err
		}
		s.metrics.FrameDuration.Observe(frame.Elapsed.Seconds())
		session.logger.Debug("Frame sampled",
			log.Int("resolution", frame.Resolution),
			log.Duration("elapsed", frame.Elapsed))
		return &Response{Type: TypeFrame, Frame: newFrame(frame)}, nil
	case ActionProbe:
		at, ok := req.point()
		if !ok {
			return nil, fmt.Errorf("%w: x and y are required", ErrInvalidMessage)
		}
		probe, err := view.Probe(at)
		if err != nil {
			return nil, err
		}
		return &Response{Type: TypeProbe, Probe: newProbe(probe)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
}

func (s *Server) handleAddConductor(req *Request) error {
	at, ok := req.point()
	if !ok || req.Amperage == nil {
		return fmt.Errorf("%w: x, y and amperage are required", ErrInvalidMessage)
	}
	color, err := parseOptionalColor(req.Color)
	if err != nil {
		return err
	}
	_, err = s.scene.AddConductor(at, *req.Amperage, color)
	return err
}

func (s *Server) handleUpdateConductor(req *Request) error {
	if req.ID == 0 {
		return fmt.Errorf("%w: id is required", ErrInvalidMessage)
	}
	current, ok := s.scene.Conductor(field.ConductorID(req.ID))
	if !ok {
		return fmt.Errorf("%w: %d", field.ErrConductorNotFound, req.ID)
	}
	if at, ok := req.point(); ok {
		current.Center = at
	}
	if req.Amperage != nil {
		current.Amperage = *req.Amperage
	}
	if req.Color != "" {
		color, err := field.ParseColor(req.Color)
		if err != nil {
			return err
		}
		current.Color = color
	}
	return s.scene.UpdateConductor(current)
}

func handleMoveCamera(view *scene.View, req *Request) error {
	if req.Direction != "" {
		dir, err := scene.ParseDirection(req.Direction)
		if err != nil {
			return err
		}
		return view.Pan(dir)
	}
	at, ok := req.point()
	if !ok {
		return fmt.Errorf("%w: direction or x and y are required", ErrInvalidMessage)
	}
	return view.MoveTo(at)
}

func handleZoom(view *scene.View, req *Request) error {
	switch {
	case req.Step == "in":
		return view.ZoomIn()
	case req.Step == "out":
		return view.ZoomOut()
	case req.Value > 0:
		return view.SetZoom(req.Value)
	}
	return fmt.Errorf("%w: step or value is required", ErrInvalidMessage)
}

func cameraResponse(view *scene.View, err error) (*Response, error) {
	if err != nil {
		return nil, err
	}
	state := view.State()
	return &Response{Type: TypeCamera, Camera: &state}, nil
}

// parseOptionalColor returns nil for an empty string, so the scene picks a random color.
func parseOptionalColor(s string) (*field.Color, error) {
	if s == "" {
		return nil, nil
	}
	color, err := field.ParseColor(s)
	if err != nil {
		return nil, err
	}
	return &color, nil
}

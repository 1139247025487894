package scene

import (
	"github.com/zeusync/magfield/internal/core/camera"
	"github.com/zeusync/magfield/internal/core/field"
	"github.com/zeusync/magfield/internal/core/geometry"
)

// Event types published on the scene bus.
const (
	EventConductorAdded   = "conductor.added"
	EventConductorUpdated = "conductor.updated"
	EventConductorRemoved = "conductor.removed"
	EventCameraChanged    = "camera.changed"
)

// ConductorEvent is the payload of the conductor.* events.
type ConductorEvent struct {
	Conductor field.Conductor
	// Version is the collection version after the change.
	Version uint64
}

// CameraEvent is the payload of camera.changed; Source on the bus event names the view.
type CameraEvent struct {
	State CameraState
}

// CameraState is a read-only copy of a camera.
type CameraState struct {
	Center   geometry.Point  `json:"center"`
	Zoom     float64         `json:"zoom"`
	Viewport camera.Viewport `json:"viewport"`
}

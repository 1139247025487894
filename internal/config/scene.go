package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/magfield/internal/core/field"
	"github.com/zeusync/magfield/internal/core/geometry"
)

// SceneFile seeds a scene with conductors and an initial camera position.
//
//	conductors:
//	  - {x: 0, y: 0, amperage: 100, color: "#ff0000"}
//	camera: {x: 0, y: 0, zoom: 1}
type SceneFile struct {
	Conductors []ConductorSpec `yaml:"conductors" json:"conductors" validate:"dive"`
	Camera     *CameraSpec     `yaml:"camera,omitempty" json:"camera,omitempty"`
}

type ConductorSpec struct {
	X        float64 `yaml:"x" json:"x"`
	Y        float64 `yaml:"y" json:"y"`
	Amperage float64 `yaml:"amperage" json:"amperage"`
	// Color is "#rrggbb" or "#rgb"; empty picks a random color.
	Color string `yaml:"color,omitempty" json:"color,omitempty" validate:"omitempty,hexcolor"`
}

type CameraSpec struct {
	X    float64 `yaml:"x" json:"x"`
	Y    float64 `yaml:"y" json:"y"`
	Zoom float64 `yaml:"zoom" json:"zoom" validate:"gt=0"`
}

func (c CameraSpec) Center() geometry.Point { return geometry.P(c.X, c.Y) }

// LoadScene reads and validates a scene file.
func LoadScene(path string) (*SceneFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene %s: %w", path, err)
	}
	defer f.Close()
	return DecodeScene(f)
}

// DecodeScene decodes YAML from r. Unknown keys are rejected.
func DecodeScene(r io.Reader) (*SceneFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var scene SceneFile
	if err := dec.Decode(&scene); err != nil {
		if errors.Is(err, io.EOF) {
			return &scene, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	if err := ValidateStruct(&scene); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	return &scene, nil
}

// ParsedColor returns the entry's color, or nil when none is given.
func (c ConductorSpec) ParsedColor() (*field.Color, error) {
	if c.Color == "" {
		return nil, nil
	}
	color, err := field.ParseColor(c.Color)
	if err != nil {
		return nil, err
	}
	return &color, nil
}

// Conductor converts the entry into a conductor without an id. Without a color the
// conductor's color is left zero; use ParsedColor to tell the two apart.
func (c ConductorSpec) Conductor() (field.Conductor, error) {
	color, err := c.ParsedColor()
	if err != nil {
		return field.Conductor{}, err
	}
	cond := field.Conductor{
		Center:   geometry.P(c.X, c.Y),
		Amperage: c.Amperage,
	}
	if color != nil {
		cond.Color = *color
	}
	if err := cond.Validate(); err != nil {
		return field.Conductor{}, err
	}
	return cond, nil
}

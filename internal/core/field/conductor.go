package field

import (
	"fmt"
	"math"

	"github.com/zeusync/magfield/internal/core/geometry"
)

const (
	// VacuumPermeability is μ0 in T·m/A.
	VacuumPermeability = 4 * math.Pi * 1e-7

	// Vacuum is the relative permeability factor of empty space.
	Vacuum = 1.0
)

// ConductorID identifies a conductor within its collection.
type ConductorID uint64

// Conductor is an infinite straight wire perpendicular to the plane, piercing it at Center.
// A positive Amperage flows out of the plane.
type Conductor struct {
	ID       ConductorID    `json:"id" yaml:"id"`
	Center   geometry.Point `json:"center" yaml:"center"`
	Amperage float64        `json:"amperage" yaml:"amperage"`
	Color    Color          `json:"color" yaml:"color"`
}

// FieldAt returns the magnetic induction this conductor produces at p, scaled by the
// medium's relative permeability.
//
// The field circles the wire counter-clockwise for positive current and decays as 1/r.
// At the wire itself the result is not finite.
func (c Conductor) FieldAt(p geometry.Point, permeability float64) geometry.Vector {
	radius := p.Sub(c.Center)
	magnitude := VacuumPermeability * permeability * c.Amperage / (2 * math.Pi * radius.Length())

	return radius.Normal(false).ScaleToSize(-magnitude)
}

// Validate checks the numeric fields an editing layer hands over.
func (c Conductor) Validate() error {
	if !c.Center.IsFinite() {
		return fmt.Errorf("%w: %v", ErrInvalidPosition, c.Center)
	}
	if math.IsNaN(c.Amperage) || math.IsInf(c.Amperage, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidAmperage, c.Amperage)
	}
	return nil
}

// Contribution is one conductor's share of the total field at a point.
type Contribution struct {
	ConductorID ConductorID     `json:"conductor_id"`
	Color       Color           `json:"color"`
	Vector      geometry.Vector `json:"vector"`
}

package field

import (
	"fmt"
	"slices"
	"sync"

	"github.com/zeusync/magfield/internal/core/geometry"
)

// Collection is an ordered set of conductors, unique by id. Insertion order is kept for
// listing only; it has no physical meaning.
//
// Mutations are serialized by an internal lock. Field queries that must not observe a
// concurrent mutation should run against a Snapshot.
type Collection struct {
	mu         sync.RWMutex
	conductors []Conductor
	ids        IDGenerator
	version    uint64
}

// NewCollection adds the initial conductors in order.
func NewCollection(initial ...Conductor) (*Collection, error) {
	c := &Collection{}
	for _, conductor := range initial {
		if err := c.Add(conductor); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// IDs exposes the collection's id generator so that factories issue ids unique to it.
func (c *Collection) IDs() *IDGenerator {
	return &c.ids
}

// Add appends conductor. Its id must not already be present.
func (c *Collection) Add(conductor Conductor) error {
	if err := conductor.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexLocked(conductor.ID) >= 0 {
		return fmt.Errorf("%w: %d", ErrDuplicateConductor, conductor.ID)
	}
	c.ids.Observe(conductor.ID)
	c.conductors = append(c.conductors, conductor)
	c.version++
	return nil
}

// Insert issues a new id and appends the conductor.
func (c *Collection) Insert(center geometry.Point, amperage float64, color Color) (Conductor, error) {
	conductor := Conductor{Center: center, Amperage: amperage, Color: color}
	if err := conductor.Validate(); err != nil {
		return Conductor{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	conductor.ID = c.ids.Next()
	c.conductors = append(c.conductors, conductor)
	c.version++
	return conductor, nil
}

// RemoveByID removes the conductor with id and reports whether it was present.
func (c *Collection) RemoveByID(id ConductorID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(id)
	if i < 0 {
		return false
	}
	c.conductors = slices.Delete(c.conductors, i, i+1)
	c.version++
	return true
}

// FindByID returns a copy of the conductor with id.
func (c *Collection) FindByID(id ConductorID) (Conductor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i := c.indexLocked(id)
	if i < 0 {
		return Conductor{}, false
	}
	return c.conductors[i], true
}

// Update overwrites position, amperage and color of the conductor with the same id.
func (c *Collection) Update(conductor Conductor) error {
	if err := conductor.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(conductor.ID)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrConductorNotFound, conductor.ID)
	}
	c.conductors[i] = conductor
	c.version++
	return nil
}

// All returns the conductors in insertion order.
func (c *Collection) All() []Conductor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.conductors)
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.conductors)
}

// Version increases with every successful mutation.
func (c *Collection) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// TotalFieldAt superposes the field of every conductor at p.
func (c *Collection) TotalFieldAt(p geometry.Point, permeability float64) (geometry.Vector, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return totalFieldAt(c.conductors, p, permeability)
}

// FieldsAt returns each conductor's contribution at p, in collection order.
func (c *Collection) FieldsAt(p geometry.Point, permeability float64) []Contribution {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fieldsAt(c.conductors, p, permeability)
}

// Snapshot captures the current members. Later mutations do not affect it.
func (c *Collection) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{conductors: slices.Clone(c.conductors), version: c.version}
}

func (c *Collection) indexLocked(id ConductorID) int {
	return slices.IndexFunc(c.conductors, func(conductor Conductor) bool {
		return conductor.ID == id
	})
}

// Snapshot is an immutable view of a collection, safe for concurrent readers.
type Snapshot struct {
	conductors []Conductor
	version    uint64
}

// NewSnapshot wraps conductors directly, e.g. for one-off sampling of a scene file.
func NewSnapshot(conductors ...Conductor) Snapshot {
	return Snapshot{conductors: slices.Clone(conductors)}
}

func (s Snapshot) TotalFieldAt(p geometry.Point, permeability float64) (geometry.Vector, error) {
	return totalFieldAt(s.conductors, p, permeability)
}

func (s Snapshot) FieldsAt(p geometry.Point, permeability float64) []Contribution {
	return fieldsAt(s.conductors, p, permeability)
}

func (s Snapshot) Conductors() []Conductor { return slices.Clone(s.conductors) }
func (s Snapshot) Len() int                { return len(s.conductors) }
func (s Snapshot) Version() uint64         { return s.version }

func totalFieldAt(conductors []Conductor, p geometry.Point, permeability float64) (geometry.Vector, error) {
	if len(conductors) == 0 {
		return geometry.Vector{}, ErrEmptyCollection
	}
	total := conductors[0].FieldAt(p, permeability)
	for _, conductor := range conductors[1:] {
		total = total.Add(conductor.FieldAt(p, permeability))
	}
	return total, nil
}

func fieldsAt(conductors []Conductor, p geometry.Point, permeability float64) []Contribution {
	out := make([]Contribution, len(conductors))
	for i, conductor := range conductors {
		out[i] = Contribution{
			ConductorID: conductor.ID,
			Color:       conductor.Color,
			Vector:      conductor.FieldAt(p, permeability),
		}
	}
	return out
}

// Package scene holds the shared set of conductors and the per-surface views onto it.
package scene

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/zeusync/magfield/internal/config"
	"github.com/zeusync/magfield/internal/core/events/bus"
	"github.com/zeusync/magfield/internal/core/field"
	"github.com/zeusync/magfield/internal/core/geometry"
	"github.com/zeusync/magfield/internal/core/observability/log"
	"github.com/zeusync/magfield/internal/core/sampler"
)

const source = "scene"

type Options struct {
	Permeability  float64
	Density       float64
	MaxResolution int
	Workers       int
	CacheSize     int
	Generator     field.GeneratorConfig
	// Rand drives random conductors; nil uses a time-seeded source.
	Rand *rand.Rand
}

func DefaultOptions() Options {
	return Options{
		Permeability:  field.Vacuum,
		Density:       sampler.DefaultDensity,
		MaxResolution: 200,
		CacheSize:     sampler.DefaultCacheSize,
		Generator:     field.DefaultGeneratorConfig(),
	}
}

// OptionsFromConfig maps runtime configuration onto scene options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Permeability:  cfg.Sampling.Permeability,
		Density:       cfg.Sampling.Density,
		MaxResolution: cfg.Sampling.MaxResolution,
		Workers:       cfg.Sampling.Workers,
		CacheSize:     cfg.Sampling.CacheSize,
		Generator:     cfg.Generator.Field(),
	}
}

// Scene is the conductor set shared by every view. It is safe for concurrent use;
// mutations are announced on the bus.
type Scene struct {
	// removeMu keeps the last-conductor check and the removal atomic
	removeMu sync.Mutex

	opts       Options
	conductors *field.Collection
	generator  *field.Generator
	cache      *sampler.Cache
	bus        bus.EventBus
	logger     log.Log
}

func New(opts Options, eventBus bus.EventBus, logger log.Log) (*Scene, error) {
	if opts.Permeability <= 0 {
		opts.Permeability = field.Vacuum
	}
	if opts.Density <= 0 {
		opts.Density = sampler.DefaultDensity
	}
	if opts.MaxResolution <= 0 {
		opts.MaxResolution = DefaultOptions().MaxResolution
	}
	if eventBus == nil {
		eventBus = bus.New()
	}
	if logger == nil {
		logger = log.NewNop()
	}

	conductors, err := field.NewCollection()
	if err != nil {
		return nil, err
	}
	return &Scene{
		opts:       opts,
		conductors: conductors,
		generator:  field.NewGenerator(opts.Generator, conductors.IDs(), opts.Rand),
		cache:      sampler.NewCache(sampler.New(sampler.Options{Workers: opts.Workers}), opts.CacheSize),
		bus:        eventBus,
		logger:     logger.With(log.String("component", "scene")),
	}, nil
}

// Seed loads the conductors of a scene file. Entries without a color get a random one.
// With no file, or a file without conductors, one random conductor is placed inside
// bounds.
func (s *Scene) Seed(file *config.SceneFile, bounds geometry.Rectangle) error {
	if file == nil || len(file.Conductors) == 0 {
		_, err := s.AddRandomConductor(bounds)
		return err
	}
	for i, spec := range file.Conductors {
		c, err := spec.Conductor()
		if err != nil {
			return fmt.Errorf("conductor %d: %w", i, err)
		}
		color, err := spec.ParsedColor()
		if err != nil {
			return fmt.Errorf("conductor %d: %w", i, err)
		}
		if _, err = s.AddConductor(c.Center, c.Amperage, color); err != nil {
			return fmt.Errorf("conductor %d: %w", i, err)
		}
	}
	return nil
}

// AddRandomConductor places a random conductor inside bounds.
func (s *Scene) AddRandomConductor(bounds geometry.Rectangle) (field.Conductor, error) {
	c := s.generator.Random(bounds)
	if err := s.conductors.Add(c); err != nil {
		return field.Conductor{}, err
	}
	s.publish(EventConductorAdded, c)
	return c, nil
}

// AddConductor inserts a conductor with a fresh id. A nil color is replaced by a random one.
func (s *Scene) AddConductor(center geometry.Point, amperage float64, color *field.Color) (field.Conductor, error) {
	var picked field.Color
	if color != nil {
		picked = *color
	} else {
		picked = s.generator.RandomColor()
	}
	c, err := s.conductors.Insert(center, amperage, picked)
	if err != nil {
		return field.Conductor{}, err
	}
	s.publish(EventConductorAdded, c)
	return c, nil
}

// UpdateConductor replaces the conductor with the same id.
func (s *Scene) UpdateConductor(c field.Conductor) error {
	if err := s.conductors.Update(c); err != nil {
		return err
	}
	s.publish(EventConductorUpdated, c)
	return nil
}

// RemoveConductor deletes a conductor. The last remaining conductor cannot be removed.
func (s *Scene) RemoveConductor(id field.ConductorID) error {
	s.removeMu.Lock()
	c, ok := s.conductors.FindByID(id)
	switch {
	case !ok:
		s.removeMu.Unlock()
		return fmt.Errorf("%w: %d", field.ErrConductorNotFound, id)
	case s.conductors.Len() <= 1:
		s.removeMu.Unlock()
		return ErrLastConductor
	}
	s.conductors.RemoveByID(id)
	s.removeMu.Unlock()

	s.publish(EventConductorRemoved, c)
	return nil
}

func (s *Scene) Conductor(id field.ConductorID) (field.Conductor, bool) {
	return s.conductors.FindByID(id)
}

func (s *Scene) Conductors() []field.Conductor { return s.conductors.All() }

func (s *Scene) Snapshot() field.Snapshot { return s.conductors.Snapshot() }

func (s *Scene) Permeability() float64 { return s.opts.Permeability }

func (s *Scene) Bus() bus.EventBus { return s.bus }

// Sample evaluates the field over region on a width x height grid, reusing cached grids
// while the conductors are unchanged.
func (s *Scene) Sample(ctx context.Context, region geometry.Rectangle, width, height int) (*sampler.Grid, error) {
	return s.SampleSnapshot(ctx, s.conductors.Snapshot(), region, width, height)
}

// SampleSnapshot is Sample over a snapshot the caller already holds.
func (s *Scene) SampleSnapshot(ctx context.Context, snapshot field.Snapshot, region geometry.Rectangle, width, height int) (*sampler.Grid, error) {
	return s.cache.SampleRegion(ctx, snapshot, region, width, height, s.opts.Permeability)
}

// CacheStats reports grid cache hits and misses.
func (s *Scene) CacheStats() (hits, misses uint64) {
	return s.cache.Stats()
}

// Resolution is the grid size for a view at zoom, capped at MaxResolution.
func (s *Scene) Resolution(zoom float64) int {
	return min(sampler.AdaptiveResolution(s.opts.Density, zoom), s.opts.MaxResolution)
}

func (s *Scene) publish(typ string, c field.Conductor) {
	s.logger.Debug("conductor changed",
		log.String("event", typ),
		log.Uint64("id", uint64(c.ID)),
		log.Float64("amperage", c.Amperage),
	)
	payload := ConductorEvent{Conductor: c, Version: s.conductors.Version()}
	if err := s.bus.Publish(bus.NewEvent(typ, source, payload)); err != nil {
		s.logger.Warn("event handler failed", log.String("event", typ), log.Error(err))
	}
}

package field

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/zeusync/magfield/internal/core/geometry"
)

// IDGenerator hands out increasing conductor ids. The zero value starts at 1.
type IDGenerator struct {
	last atomic.Uint64
}

// Next returns a fresh id.
func (g *IDGenerator) Next() ConductorID {
	return ConductorID(g.last.Add(1))
}

// Observe makes sure later ids are greater than id, for conductors created elsewhere.
func (g *IDGenerator) Observe(id ConductorID) {
	for {
		last := g.last.Load()
		if uint64(id) <= last || g.last.CompareAndSwap(last, uint64(id)) {
			return
		}
	}
}

const (
	DefaultAmperageLower = -100.0
	DefaultAmperageUpper = 100.0

	// coordinates and amperages of random conductors are rounded to this many digits
	randomDigits = 2
)

// GeneratorConfig bounds randomly created conductors.
type GeneratorConfig struct {
	AmperageLower float64
	AmperageUpper float64
	// Saturation and Lightness fix the HSL components of random colors; zero means random.
	Saturation float64
	Lightness  float64
}

func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		AmperageLower: DefaultAmperageLower,
		AmperageUpper: DefaultAmperageUpper,
	}
}

// Generator creates random conductors with ids from its IDGenerator. It is safe for
// concurrent use.
type Generator struct {
	config GeneratorConfig
	ids    *IDGenerator

	mu  sync.Mutex
	rng *rand.Rand
}

func NewGenerator(config GeneratorConfig, ids *IDGenerator, rng *rand.Rand) *Generator {
	if ids == nil {
		ids = &IDGenerator{}
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{config: config, ids: ids, rng: rng}
}

// Random places a conductor uniformly inside bounds with a random amperage and color.
func (g *Generator) Random(bounds geometry.Rectangle) Conductor {
	return g.RandomWithColor(bounds, nil)
}

// RandomWithColor is Random with a fixed color; a nil color is replaced by a random one.
func (g *Generator) RandomWithColor(bounds geometry.Rectangle, color *Color) Conductor {
	g.mu.Lock()
	defer g.mu.Unlock()

	span := g.config.AmperageUpper - g.config.AmperageLower
	amperage := geometry.RoundTo(g.rng.Float64()*span+g.config.AmperageLower, randomDigits)

	var c Color
	if color != nil {
		c = *color
	} else {
		c = RandomHSL(g.rng, g.config.Saturation, g.config.Lightness).RGB()
	}

	return Conductor{
		ID:       g.ids.Next(),
		Center:   geometry.RandomPoint(bounds, g.rng).Round(randomDigits),
		Amperage: amperage,
		Color:    c,
	}
}

// RandomColor picks a color the way random conductors get theirs.
func (g *Generator) RandomColor() Color {
	g.mu.Lock()
	defer g.mu.Unlock()
	return RandomHSL(g.rng, g.config.Saturation, g.config.Lightness).RGB()
}

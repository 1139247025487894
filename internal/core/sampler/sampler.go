// Package sampler turns the continuous superposed field into discrete grids for rendering.
package sampler

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/magfield/internal/core/geometry"
)

// DefaultDensity is the resolution constant k in round(k / zoom).
const DefaultDensity = 40.0

// FieldSource evaluates the total field at a point. Implementations must not change
// while a sampling pass is running; field.Snapshot satisfies this.
type FieldSource interface {
	TotalFieldAt(p geometry.Point, permeability float64) (geometry.Vector, error)
}

// Options tune a Sampler.
type Options struct {
	// Workers bounds the goroutines computing rows; <= 0 means GOMAXPROCS.
	Workers int
}

func DefaultOptions() Options {
	return Options{Workers: runtime.GOMAXPROCS(0)}
}

type Sampler struct {
	workers int
}

func New(opts Options) *Sampler {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Sampler{workers: workers}
}

// SampleRegion evaluates src on a width x height grid spanning region. Cell (x, y) sits at
// topLeft + (x*|W|/width, -y*|H|/height), so cell (0, 0) is the top-left corner.
func (s *Sampler) SampleRegion(ctx context.Context, src FieldSource, region geometry.Rectangle, width, height int, permeability float64) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidResolution, width, height)
	}

	origin := region.TopLeft
	dx := math.Abs(region.TopLeft.X-region.BottomRight.X) / float64(width)
	dy := math.Abs(region.TopLeft.Y-region.BottomRight.Y) / float64(height)

	return s.sample(ctx, src, width, height, permeability, func(x, y int) geometry.Point {
		return geometry.P(origin.X+dx*float64(x), origin.Y-dy*float64(y))
	})
}

// SampleUnitSquare evaluates src over [0, 1) x [0, 1) for fixed-frame use: cell (x, y) sits
// at (x/width, y/height).
func (s *Sampler) SampleUnitSquare(ctx context.Context, src FieldSource, width, height int, permeability float64) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidResolution, width, height)
	}

	return s.sample(ctx, src, width, height, permeability, func(x, y int) geometry.Point {
		return geometry.P(float64(x)/float64(width), float64(y)/float64(height))
	})
}

func (s *Sampler) sample(ctx context.Context, src FieldSource, width, height int, permeability float64, at func(x, y int) geometry.Point) (*Grid, error) {
	grid := newGrid(width, height)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for y := 0; y < height; y++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := grid.Row(y)
			for x := range row {
				p := at(x, y)
				v, err := src.TotalFieldAt(p, permeability)
				if err != nil {
					return fmt.Errorf("sample (%d, %d): %w", x, y, err)
				}
				row[x] = Sample{Point: p, Vector: v}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return grid, nil
}

// AdaptiveResolution keeps on-screen arrow density roughly constant: round(k / zoom),
// never below one cell.
func AdaptiveResolution(k, zoom float64) int {
	n := math.Round(k / zoom)
	if !(n >= 1) {
		return 1
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

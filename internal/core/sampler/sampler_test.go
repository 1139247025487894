package sampler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/magfield/internal/core/field"
	"github.com/zeusync/magfield/internal/core/geometry"
)

func twoWires() field.Snapshot {
	return field.NewSnapshot(
		field.Conductor{ID: 1, Center: geometry.P(-0.5, 0.05), Amperage: 80},
		field.Conductor{ID: 2, Center: geometry.P(0.5, 0.05), Amperage: -30},
	)
}

func TestSampleRegionShape(t *testing.T) {
	s := New(Options{Workers: 3})
	region := geometry.MustRectangle(geometry.P(-2, 1), geometry.P(2, -1))

	for _, size := range [][2]int{{1, 1}, {4, 2}, {7, 13}, {40, 40}} {
		w, h := size[0], size[1]
		grid, err := s.SampleRegion(context.Background(), twoWires(), region, w, h, field.Vacuum)
		require.NoError(t, err)

		assert.Equal(t, w, grid.Width)
		assert.Equal(t, h, grid.Height)
		rows := grid.Rows()
		require.Len(t, rows, h)
		for _, row := range rows {
			assert.Len(t, row, w)
		}
		assert.Equal(t, region.TopLeft, grid.At(0, 0).Point)
	}
}

func TestSampleRegionStepsRightAndDown(t *testing.T) {
	s := New(DefaultOptions())
	region := geometry.MustRectangle(geometry.P(0, 0), geometry.P(4, -2))
	src := twoWires()

	grid, err := s.SampleRegion(context.Background(), src, region, 4, 2, field.Vacuum)
	require.NoError(t, err)

	assert.Equal(t, geometry.P(1, 0), grid.At(1, 0).Point)
	assert.Equal(t, geometry.P(3, -1), grid.At(3, 1).Point)

	for _, cell := range grid.Cells {
		want, err := src.TotalFieldAt(cell.Point, field.Vacuum)
		require.NoError(t, err)
		assert.Equal(t, want, cell.Vector)
	}
}

func TestSampleUnitSquare(t *testing.T) {
	s := New(DefaultOptions())

	grid, err := s.SampleUnitSquare(context.Background(), twoWires(), 5, 4, field.Vacuum)
	require.NoError(t, err)

	assert.Equal(t, geometry.Origin, grid.At(0, 0).Point)
	assert.Equal(t, geometry.P(0.4, 0.75), grid.At(2, 3).Point)
}

func TestSampleInvalidResolution(t *testing.T) {
	s := New(DefaultOptions())
	region := geometry.MustRectangle(geometry.P(-1, 1), geometry.P(1, -1))

	_, err := s.SampleRegion(context.Background(), twoWires(), region, 0, 3, field.Vacuum)
	assert.ErrorIs(t, err, ErrInvalidResolution)

	_, err = s.SampleUnitSquare(context.Background(), twoWires(), 3, -1, field.Vacuum)
	assert.ErrorIs(t, err, ErrInvalidResolution)
}

func TestSampleEmptySourceFails(t *testing.T) {
	s := New(DefaultOptions())
	region := geometry.MustRectangle(geometry.P(-1, 1), geometry.P(1, -1))

	_, err := s.SampleRegion(context.Background(), field.NewSnapshot(), region, 3, 3, field.Vacuum)
	assert.ErrorIs(t, err, field.ErrEmptyCollection)
}

func TestSampleCancelled(t *testing.T) {
	s := New(Options{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.SampleUnitSquare(ctx, twoWires(), 10, 10, field.Vacuum)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSampleAtConductorCenterIsNotFinite(t *testing.T) {
	s := New(DefaultOptions())
	src := field.NewSnapshot(field.Conductor{ID: 1, Center: geometry.Origin, Amperage: 10})

	grid, err := s.SampleUnitSquare(context.Background(), src, 2, 2, field.Vacuum)
	require.NoError(t, err)
	assert.False(t, grid.At(0, 0).Vector.IsFinite())
	assert.True(t, grid.At(1, 1).Vector.IsFinite())
	assert.Greater(t, grid.MaxMagnitude(), 0.0)
}

func TestAdaptiveResolution(t *testing.T) {
	assert.Equal(t, 40, AdaptiveResolution(DefaultDensity, 1))
	assert.Equal(t, 20, AdaptiveResolution(DefaultDensity, 2))
	assert.Equal(t, 80, AdaptiveResolution(DefaultDensity, 0.5))
	assert.Equal(t, 1, AdaptiveResolution(DefaultDensity, 1000))
}

func TestCacheReusesGrids(t *testing.T) {
	cache := NewCache(New(DefaultOptions()), 2)
	region := geometry.MustRectangle(geometry.P(-1, 1), geometry.P(1, -1))
	ctx := context.Background()

	first, err := cache.SampleRegion(ctx, twoWires(), region, 4, 4, field.Vacuum)
	require.NoError(t, err)
	again, err := cache.SampleRegion(ctx, twoWires(), region, 4, 4, field.Vacuum)
	require.NoError(t, err)
	assert.Same(t, first, again)

	moved := field.NewSnapshot(field.Conductor{ID: 1, Center: geometry.P(0.3, 0.3), Amperage: 80})
	other, err := cache.SampleRegion(ctx, moved, region, 4, 4, field.Vacuum)
	require.NoError(t, err)
	assert.NotSame(t, first, other)

	_, err = cache.SampleRegion(ctx, twoWires(), region, 5, 5, field.Vacuum)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len(), "oldest entry evicted")

	hits, misses := cache.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(3), misses)
}

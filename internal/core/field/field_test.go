package field

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/magfield/internal/core/geometry"
)

const tolerance = 1e-18

func TestFieldAtSingleConductor(t *testing.T) {
	c := Conductor{ID: 1, Center: geometry.Origin, Amperage: 100}

	b := c.FieldAt(geometry.P(1, 0), Vacuum)

	assert.InDelta(t, 2.0e-5, b.Length(), 1e-12)
	assert.InDelta(t, 0, b.DX, tolerance)
	assert.InDelta(t, 2.0e-5, b.DY, 1e-12, "positive current circles counter-clockwise")
}

func TestFieldIsPerpendicularToRadius(t *testing.T) {
	c := Conductor{Center: geometry.P(0.3, -0.2), Amperage: -42}
	p := geometry.P(1.7, 2.9)

	b := c.FieldAt(p, Vacuum)
	assert.InDelta(t, 0, b.Dot(p.Sub(c.Center)), 1e-20)
}

func TestFieldInverseDistanceLaw(t *testing.T) {
	c := Conductor{Center: geometry.P(1, 1), Amperage: 37.5}
	dir := geometry.V(0.6, 0.8)

	near := c.FieldAt(c.Center.Add(dir.Scale(1)), Vacuum).Length()
	for _, r := range []float64{0.5, 2, 10, 123.4} {
		far := c.FieldAt(c.Center.Add(dir.Scale(r)), Vacuum).Length()
		assert.InEpsilon(t, near/r, far, 1e-9, "r=%v", r)
	}
}

func TestFieldSignFlip(t *testing.T) {
	pos := Conductor{Center: geometry.P(-2, 3), Amperage: 12.5}
	neg := pos
	neg.Amperage = -pos.Amperage

	for _, p := range []geometry.Point{geometry.P(0, 0), geometry.P(5, -1), geometry.P(-2, 4)} {
		a, b := pos.FieldAt(p, Vacuum), neg.FieldAt(p, Vacuum)
		assert.InDelta(t, -a.DX, b.DX, tolerance)
		assert.InDelta(t, -a.DY, b.DY, tolerance)
		assert.InDelta(t, a.Length(), b.Length(), tolerance)
	}
}

func TestFieldScalesWithPermeability(t *testing.T) {
	c := Conductor{Amperage: 10}
	p := geometry.P(0, 2)

	assert.InEpsilon(t, 3*c.FieldAt(p, Vacuum).Length(), c.FieldAt(p, 3).Length(), 1e-12)
}

func TestFieldAtCenterIsNotFinite(t *testing.T) {
	c := Conductor{Center: geometry.P(1, 1), Amperage: 5}
	assert.False(t, c.FieldAt(c.Center, Vacuum).IsFinite())
}

func TestCollectionMembership(t *testing.T) {
	col, err := NewCollection(
		Conductor{ID: 3, Amperage: 1},
		Conductor{ID: 7, Center: geometry.P(1, 0), Amperage: 2},
	)
	require.NoError(t, err)

	require.ErrorIs(t, col.Add(Conductor{ID: 3}), ErrDuplicateConductor)

	inserted, err := col.Insert(geometry.P(2, 2), -4, Color{R: 1})
	require.NoError(t, err)
	assert.Equal(t, ConductorID(8), inserted.ID, "ids continue after observed ones")

	found, ok := col.FindByID(7)
	require.True(t, ok)
	assert.Equal(t, 2.0, found.Amperage)

	_, ok = col.FindByID(99)
	assert.False(t, ok)

	assert.False(t, col.RemoveByID(99))
	assert.True(t, col.RemoveByID(3))
	assert.Equal(t, []ConductorID{7, 8}, ids(col.All()))
}

func TestCollectionUpdate(t *testing.T) {
	col, err := NewCollection(Conductor{ID: 1, Amperage: 1})
	require.NoError(t, err)
	before := col.Version()

	require.NoError(t, col.Update(Conductor{ID: 1, Center: geometry.P(4, 4), Amperage: -9}))
	got, _ := col.FindByID(1)
	assert.Equal(t, geometry.P(4, 4), got.Center)
	assert.Greater(t, col.Version(), before)

	assert.ErrorIs(t, col.Update(Conductor{ID: 2}), ErrConductorNotFound)
	assert.ErrorIs(t, col.Update(Conductor{ID: 1, Amperage: math.NaN()}), ErrInvalidAmperage)
}

func TestTotalFieldAtEmptyCollection(t *testing.T) {
	col, err := NewCollection()
	require.NoError(t, err)

	_, err = col.TotalFieldAt(geometry.Origin, Vacuum)
	assert.ErrorIs(t, err, ErrEmptyCollection)
}

func TestSuperpositionIsOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	gen := NewGenerator(DefaultGeneratorConfig(), nil, rng)
	bounds := geometry.MustRectangle(geometry.P(-3, 3), geometry.P(3, -3))

	conductors := make([]Conductor, 8)
	for i := range conductors {
		conductors[i] = gen.Random(bounds)
	}
	p := geometry.P(0.123, -0.456)

	reference, err := NewSnapshot(conductors...).TotalFieldAt(p, Vacuum)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		shuffled := NewSnapshot(conductors...).Conductors()
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		total, err := NewSnapshot(shuffled...).TotalFieldAt(p, Vacuum)
		require.NoError(t, err)
		assert.InEpsilon(t, reference.DX, total.DX, 1e-9)
		assert.InEpsilon(t, reference.DY, total.DY, 1e-9)
	}
}

func TestTotalFieldEqualsSumOfContributions(t *testing.T) {
	col, err := NewCollection(
		Conductor{ID: 1, Center: geometry.P(-1, 0), Amperage: 50},
		Conductor{ID: 2, Center: geometry.P(1, 0), Amperage: -50},
	)
	require.NoError(t, err)
	p := geometry.P(0, 1)

	total, err := col.TotalFieldAt(p, Vacuum)
	require.NoError(t, err)

	sum := geometry.Zero
	for _, c := range col.FieldsAt(p, Vacuum) {
		sum = sum.Add(c.Vector)
	}
	assert.Equal(t, total, sum)
}

func TestSnapshotIsIsolatedFromMutation(t *testing.T) {
	col, err := NewCollection(Conductor{ID: 1, Amperage: 1})
	require.NoError(t, err)

	snap := col.Snapshot()
	_, err = col.Insert(geometry.P(1, 1), 2, Color{})
	require.NoError(t, err)
	require.NoError(t, col.Update(Conductor{ID: 1, Amperage: 100}))

	assert.Equal(t, 1, snap.Len())
	assert.Equal(t, 1.0, snap.Conductors()[0].Amperage)
}

func TestGeneratorRandomConductor(t *testing.T) {
	var ids IDGenerator
	gen := NewGenerator(DefaultGeneratorConfig(), &ids, rand.New(rand.NewPCG(3, 4)))
	bounds := geometry.MustRectangle(geometry.P(-1, 1), geometry.P(1, -1))

	first := gen.Random(bounds)
	second := gen.RandomWithColor(bounds, &Color{R: 255})

	assert.Equal(t, ConductorID(1), first.ID)
	assert.Equal(t, ConductorID(2), second.ID)
	assert.Equal(t, Color{R: 255}, second.Color)
	assert.Equal(t, Color{}, gen.RandomWithColor(bounds, &Color{}).Color)

	for _, c := range []Conductor{first, second} {
		assert.GreaterOrEqual(t, c.Amperage, DefaultAmperageLower)
		assert.LessOrEqual(t, c.Amperage, DefaultAmperageUpper)
		assert.Equal(t, geometry.RoundTo(c.Amperage, 2), c.Amperage)
		assert.True(t, bounds.Contains(c.Center))
	}
}

func TestColorRoundTrip(t *testing.T) {
	c, err := ParseColor("#1a2B3c")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 0x1a, G: 0x2b, B: 0x3c}, c)
	assert.Equal(t, "#1a2b3c", c.Hex())

	short, err := ParseColor("#f0a")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 0xff, G: 0x00, B: 0xaa}, short)

	_, err = ParseColor("not-a-color")
	assert.ErrorIs(t, err, ErrInvalidColor)
}

func TestHSLToRGB(t *testing.T) {
	assert.Equal(t, Color{R: 255}, HSL{H: 0, S: 100, L: 50}.RGB())
	assert.Equal(t, Color{G: 255}, HSL{H: 120, S: 100, L: 50}.RGB())
	assert.Equal(t, Color{R: 128, G: 128, B: 128}, HSL{S: 0, L: 50}.RGB())
}

func ids(conductors []Conductor) []ConductorID {
	out := make([]ConductorID, len(conductors))
	for i, c := range conductors {
		out[i] = c.ID
	}
	return out
}

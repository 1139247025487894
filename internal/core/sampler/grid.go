package sampler

import "github.com/zeusync/magfield/internal/core/geometry"

// Sample is the field vector evaluated at one grid point.
type Sample struct {
	Point  geometry.Point  `json:"point"`
	Vector geometry.Vector `json:"vector"`
}

// Grid holds Height rows of Width samples, row-major, top row first.
// Cells are independent: neighbors are sampled, never interpolated.
type Grid struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Cells  []Sample `json:"cells"`
}

func newGrid(width, height int) *Grid {
	return &Grid{Width: width, Height: height, Cells: make([]Sample, width*height)}
}

// At returns the sample in column x of row y.
func (g *Grid) At(x, y int) Sample {
	return g.Cells[y*g.Width+x]
}

// Row returns row y. The slice aliases the grid.
func (g *Grid) Row(y int) []Sample {
	return g.Cells[y*g.Width : (y+1)*g.Width]
}

// Rows splits the grid into Height rows.
func (g *Grid) Rows() [][]Sample {
	rows := make([][]Sample, g.Height)
	for y := range rows {
		rows[y] = g.Row(y)
	}
	return rows
}

// MaxMagnitude is the largest finite vector length in the grid.
func (g *Grid) MaxMagnitude() float64 {
	var m float64
	for _, s := range g.Cells {
		if l := s.Vector.Length(); s.Vector.IsFinite() && l > m {
			m = l
		}
	}
	return m
}

// Package terminal draws render shapes on a tcell screen, one cell per screen pixel.
package terminal

import (
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/zeusync/magfield/internal/core/field"
	"github.com/zeusync/magfield/internal/core/geometry"
	"github.com/zeusync/magfield/internal/render"
)

// arrow glyphs by octant of the screen angle, starting east
var arrowGlyphs = [8]rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}

type Canvas struct {
	screen tcell.Screen
	base   tcell.Style
}

func New(screen tcell.Screen) *Canvas {
	return &Canvas{
		screen: screen,
		base:   tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite),
	}
}

func (c *Canvas) Size() (int, int) { return c.screen.Size() }

func (c *Canvas) Clear() {
	c.screen.SetStyle(c.base)
	c.screen.Clear()
}

func (c *Canvas) Show() { c.screen.Show() }

func (c *Canvas) Circle(center geometry.Point, radius float64, style render.Style) {
	fill := c.fg(style.Fill)
	if radius < 1 {
		c.set(center.X, center.Y, '●', fill)
		return
	}
	w, h := c.screen.Size()
	for y := math.Max(0, math.Floor(center.Y-radius)); y <= math.Min(float64(h-1), center.Y+radius); y++ {
		for x := math.Max(0, math.Floor(center.X-radius)); x <= math.Min(float64(w-1), center.X+radius); x++ {
			if geometry.P(x, y).DistanceTo(center) <= radius {
				c.set(x, y, '█', fill)
			}
		}
	}
}

func (c *Canvas) Line(from, to geometry.Point, style render.Style) {
	st := c.fg(style.Stroke)
	plotLine(from, to, func(x, y int) {
		c.setCell(x, y, '·', st)
	})
}

// Polygon outlines the polygon; cells are too coarse for a useful fill.
func (c *Canvas) Polygon(points []geometry.Point, style render.Style) {
	if len(points) == 0 {
		return
	}
	st := c.fg(style.Fill)
	for i := range points {
		plotLine(points[i], points[(i+1)%len(points)], func(x, y int) {
			c.setCell(x, y, '*', st)
		})
	}
}

func (c *Canvas) Rect(topLeft, bottomRight geometry.Point, style render.Style) {
	st := c.fg(style.Stroke)
	x0, y0 := int(math.Round(topLeft.X)), int(math.Round(topLeft.Y))
	x1, y1 := int(math.Round(bottomRight.X)), int(math.Round(bottomRight.Y))
	for x := x0 + 1; x < x1; x++ {
		c.setCell(x, y0, '─', st)
		c.setCell(x, y1, '─', st)
	}
	for y := y0 + 1; y < y1; y++ {
		c.setCell(x0, y, '│', st)
		c.setCell(x1, y, '│', st)
	}
	c.setCell(x0, y0, '┌', st)
	c.setCell(x1, y0, '┐', st)
	c.setCell(x0, y1, '└', st)
	c.setCell(x1, y1, '┘', st)
}

// Text centers text horizontally on at.
func (c *Canvas) Text(at geometry.Point, text string, style render.Style) {
	st := c.fg(style.Fill)
	runes := []rune(text)
	x := int(math.Round(at.X)) - len(runes)/2
	y := int(math.Round(at.Y))
	for i, r := range runes {
		c.setCell(x+i, y, r, st)
	}
}

// Arrow draws one direction glyph in the cell the arrow starts from. Arrows are rarely
// longer than a cell, so the shaft is dropped.
func (c *Canvas) Arrow(a render.Arrow) {
	octant := int(math.Round(a.Direction()/(math.Pi/4))) % len(arrowGlyphs)
	c.set(a.From.X, a.From.Y, arrowGlyphs[octant], c.fg(a.Stroke))
}

func (c *Canvas) fg(color field.Color) tcell.Style {
	// black is drawn in the terminal's default foreground
	if color == (field.Color{}) {
		return c.base
	}
	return c.base.Foreground(tcell.NewRGBColor(int32(color.R), int32(color.G), int32(color.B)))
}

func (c *Canvas) set(x, y float64, r rune, st tcell.Style) {
	c.setCell(int(math.Floor(x)), int(math.Floor(y)), r, st)
}

func (c *Canvas) setCell(x, y int, r rune, st tcell.Style) {
	w, h := c.screen.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	c.screen.SetContent(x, y, r, nil, st)
}

// plotLine walks the cells between two points with Bresenham's algorithm.
func plotLine(from, to geometry.Point, plot func(x, y int)) {
	if !from.IsFinite() || !to.IsFinite() {
		return
	}
	x0, y0 := int(math.Round(from.X)), int(math.Round(from.Y))
	x1, y1 := int(math.Round(to.X)), int(math.Round(to.Y))

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

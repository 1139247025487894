package field

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an sRGB display color. It marshals as "#rrggbb".
type Color struct {
	R, G, B uint8
}

// Hex formats c as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string { return c.Hex() }

// ParseColor accepts "#rrggbb" or "#rgb".
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// HSL is a color in hue (degrees), saturation and lightness (percent).
type HSL struct {
	H, S, L float64
}

// RandomHSL draws a hue in [0, 360). Zero saturation or lightness is replaced by a random
// percentage.
func RandomHSL(rng *rand.Rand, saturation, lightness float64) HSL {
	if saturation == 0 {
		saturation = float64(rng.IntN(100))
	}
	if lightness == 0 {
		lightness = float64(rng.IntN(100))
	}
	return HSL{H: float64(rng.IntN(360)), S: saturation, L: lightness}
}

// RGB converts to sRGB.
func (c HSL) RGB() Color {
	r, g, b := colorful.Hsl(c.H, c.S/100, c.L/100).Clamped().RGB255()
	return Color{R: r, G: g, B: b}
}

package render

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// DefaultColormap is used when no preference or flag picks one.
const DefaultColormap = "plasma"

// anchor is one control point of an interpolated colormap, pos in [0,1].
type anchor struct {
	pos     float64
	r, g, b uint8
}

// anchorMap is a palette.ColorMap built from linearly interpolated anchors.
type anchorMap struct {
	name    string
	anchors []anchor
	min     float64
	max     float64
	alpha   float64
}

var _ palette.ColorMap = (*anchorMap)(nil)

func (m *anchorMap) alpha8() uint8 {
	a := m.alpha
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	return uint8(a*255 + 0.5)
}

func (m *anchorMap) at01(t float64) color.Color {
	if t <= m.anchors[0].pos {
		a := m.anchors[0]
		return color.RGBA{R: a.r, G: a.g, B: a.b, A: m.alpha8()}
	}
	for i := 1; i < len(m.anchors); i++ {
		hi := m.anchors[i]
		if t > hi.pos {
			continue
		}
		lo := m.anchors[i-1]
		f := (t - lo.pos) / (hi.pos - lo.pos)
		lerp := func(a, b uint8) uint8 {
			return uint8(float64(a) + f*(float64(b)-float64(a)) + 0.5)
		}
		return color.RGBA{R: lerp(lo.r, hi.r), G: lerp(lo.g, hi.g), B: lerp(lo.b, hi.b), A: m.alpha8()}
	}
	a := m.anchors[len(m.anchors)-1]
	return color.RGBA{R: a.r, G: a.g, B: a.b, A: m.alpha8()}
}

// At implements palette.ColorMap.
func (m *anchorMap) At(v float64) (color.Color, error) {
	if m.min == m.max {
		return nil, fmt.Errorf("colormap %s: range not set", m.name)
	}
	if math.IsNaN(v) {
		return nil, palette.ErrNaN
	}
	if v < m.min {
		return nil, palette.ErrUnderflow
	}
	if v > m.max {
		return nil, palette.ErrOverflow
	}
	return m.at01((v - m.min) / (m.max - m.min)), nil
}

func (m *anchorMap) Min() float64     { return m.min }
func (m *anchorMap) Max() float64     { return m.max }
func (m *anchorMap) SetMin(v float64) { m.min = v }
func (m *anchorMap) SetMax(v float64) { m.max = v }
func (m *anchorMap) Alpha() float64   { return m.alpha }

// SetAlpha implements palette.ColorMap; gonum's maps panic outside [0, 1].
func (m *anchorMap) SetAlpha(a float64) {
	if a < 0 || a > 1 {
		panic("colormap alpha out of range [0, 1]")
	}
	m.alpha = a
}

// Palette implements palette.ColorMap, sampling the anchors into n colors.
func (m *anchorMap) Palette(n int) palette.Palette {
	if n < 2 {
		n = 2
	}
	cs := make(colorSlice, n)
	for i := range cs {
		cs[i] = m.at01(float64(i) / float64(n-1))
	}
	return cs
}

type colorSlice []color.Color

func (p colorSlice) Colors() []color.Color { return p }

// Anchor tables approximating the matplotlib maps the instrument operators
// are used to. The perceptual maps only need a handful of control points at
// display resolution.
var anchorTables = map[string][]anchor{
	"plasma": {
		{0.00, 0x0d, 0x08, 0x87},
		{0.25, 0x7e, 0x03, 0xa8},
		{0.50, 0xcc, 0x47, 0x78},
		{0.75, 0xf8, 0x95, 0x40},
		{1.00, 0xf0, 0xf9, 0x21},
	},
	"viridis": {
		{0.00, 0x44, 0x01, 0x54},
		{0.25, 0x3b, 0x52, 0x8b},
		{0.50, 0x21, 0x91, 0x8c},
		{0.75, 0x5e, 0xc9, 0x62},
		{1.00, 0xfd, 0xe7, 0x25},
	},
	"jet": {
		{0.000, 0x00, 0x00, 0x7f},
		{0.125, 0x00, 0x00, 0xff},
		{0.375, 0x00, 0xff, 0xff},
		{0.625, 0xff, 0xff, 0x00},
		{0.875, 0xff, 0x00, 0x00},
		{1.000, 0x7f, 0x00, 0x00},
	},
	"hot": {
		{0.0, 0x00, 0x00, 0x00},
		{0.4, 0xff, 0x00, 0x00},
		{0.8, 0xff, 0xff, 0x00},
		{1.0, 0xff, 0xff, 0xff},
	},
	"cool": {
		{0.0, 0x00, 0xff, 0xff},
		{1.0, 0xff, 0x00, 0xff},
	},
	"gray": {
		{0.0, 0x00, 0x00, 0x00},
		{1.0, 0xff, 0xff, 0xff},
	},
}

// Colormaps lists the selectable colormap names in display order.
func Colormaps() []string {
	names := make([]string, 0, len(anchorTables)+2)
	for n := range anchorTables {
		names = append(names, n)
	}
	names = append(names, "coolwarm", "kindlmann")
	sort.Strings(names)
	// plasma first: it is the default
	for i, n := range names {
		if n == DefaultColormap {
			names = append(names[:i], names[i+1:]...)
			break
		}
	}
	return append([]string{DefaultColormap}, names...)
}

// Colormap resolves a name to a fresh ColorMap. Callers set Min/Max for the
// value range before use.
func Colormap(name string) (palette.ColorMap, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultColormap
	}
	switch key {
	case "coolwarm":
		return moreland.SmoothBlueRed(), nil
	case "kindlmann":
		return moreland.Kindlmann(), nil
	}
	if anchors, ok := anchorTables[key]; ok {
		return &anchorMap{name: key, anchors: anchors, alpha: 1}, nil
	}
	return nil, fmt.Errorf("unknown colormap %q: valid values are %s",
		name, strings.Join(Colormaps(), ", "))
}

package domain

import (
	"fmt"
	"sort"
)

// RGBA is a GIMP color with float components in [0,1].
// The JSON keys match what the GIMP plugin sends.
type RGBA struct {
	R float64 `json:"R"`
	G float64 `json:"G"`
	B float64 `json:"B"`
	A float64 `json:"A"`
}

// String formats the color compactly with 3 decimals, e.g. "rgb(1.000, 0.000, 0.000)".
func (c RGBA) String() string {
	return fmt.Sprintf("rgb(%.3f, %.3f, %.3f)", c.R, c.G, c.B)
}

// Validate checks that every component is within [0,1]
func (c RGBA) Validate() error {
	for _, v := range []struct {
		name  string
		value float64
	}{{"R", c.R}, {"G", c.G}, {"B", c.B}, {"A", c.A}} {
		if v.value < 0 || v.value > 1 {
			return fmt.Errorf("component %s out of range [0,1]: %g", v.name, v.value)
		}
	}
	return nil
}

// GimpColors maps a GIMP color name ("Color 1", ...) to its components.
type GimpColors map[string]RGBA

// Names returns the color names in sorted order.
func (g GimpColors) Names() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ColorMatch is one record of a demystify response. GimpColor is an optional
// short identifier some models echo back next to the name.
type ColorMatch struct {
	GimpColor         string `json:"gimp_color,omitempty"`
	GimpColorName     string `json:"gimp_color_name"`
	RGBColor          string `json:"rgb_color"`
	PhysicalColorName string `json:"physical_color_name"`
	MixingSuggestions string `json:"mixing_suggestions"`
}

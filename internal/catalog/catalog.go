// Package catalog holds the static collage layouts and photo filter presets.
// Both tables are parsed from an embedded YAML file exactly once and are
// read-only afterwards; every accessor hands out copies.
package catalog

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// DefaultLayoutID is the layout preselected for a new collage.
const DefaultLayoutID = "2x2"

// NoFilterID is the preset that leaves a photo untouched.
const NoFilterID = "none"

// Layout is a named rows x cols collage grid.
type Layout struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Rows        int    `yaml:"rows" json:"rows"`
	Cols        int    `yaml:"cols" json:"cols"`
	AspectRatio string `yaml:"aspect_ratio" json:"aspect_ratio"`
}

// Cells returns the number of photo slots in the grid.
func (l Layout) Cells() int {
	return l.Rows * l.Cols
}

// Operation names one step of a filter effect chain.
type Operation string

// Supported effect operations. Amounts follow the CSS filter function of the same name:
// multipliers for brightness/contrast/saturate, 0-1 for sepia/grayscale, degrees for
// hue-rotate and pixels for blur.
const (
	OpBrightness Operation = "brightness"
	OpContrast   Operation = "contrast"
	OpSaturate   Operation = "saturate"
	OpSepia      Operation = "sepia"
	OpGrayscale  Operation = "grayscale"
	OpHueRotate  Operation = "hue-rotate"
	OpBlur       Operation = "blur"
)

var knownOperations = []Operation{OpBrightness, OpContrast, OpSaturate, OpSepia, OpGrayscale, OpHueRotate, OpBlur}

// Step is one operation of an effect chain.
type Step struct {
	Op     Operation `yaml:"op" json:"op"`
	Amount float64   `yaml:"amount" json:"amount"`
}

// Filter is a named effect preset.
type Filter struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Effect []Step `yaml:"effect" json:"effect"`
}

type tables struct {
	Layouts []Layout `yaml:"layouts"`
	Filters []Filter `yaml:"filters"`
}

var load = sync.OnceValue(func() tables {
	t, err := parse(catalogYAML)
	if err != nil {
		// Embedded file, so this can only be a build-time mistake.
		panic("invalid embedded catalog.yaml: " + err.Error())
	}
	return t
})

// parse decodes and validates a catalog document.
func parse(data []byte) (tables, error) {
	var t tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return tables{}, fmt.Errorf("unmarshal catalog: %w", err)
	}

	seen := make(map[string]bool)
	for _, l := range t.Layouts {
		if l.ID == "" || seen["layout:"+l.ID] {
			return tables{}, fmt.Errorf("layout %q: missing or duplicate id", l.ID)
		}
		seen["layout:"+l.ID] = true
		if l.Rows < 1 || l.Cols < 1 {
			return tables{}, fmt.Errorf("layout %q: rows and cols must be >= 1", l.ID)
		}
	}
	for _, f := range t.Filters {
		if f.ID == "" || seen["filter:"+f.ID] {
			return tables{}, fmt.Errorf("filter %q: missing or duplicate id", f.ID)
		}
		seen["filter:"+f.ID] = true
		for _, s := range f.Effect {
			if !slices.Contains(knownOperations, s.Op) {
				return tables{}, fmt.Errorf("filter %q: unknown operation %q", f.ID, s.Op)
			}
		}
	}
	return t, nil
}

// Layouts returns all layouts in catalog order.
func Layouts() []Layout {
	return slices.Clone(load().Layouts)
}

// LayoutByID looks up a layout.
func LayoutByID(id string) (Layout, bool) {
	for _, l := range load().Layouts {
		if l.ID == id {
			return l, true
		}
	}
	return Layout{}, false
}

// DefaultLayout returns the layout preselected for a new collage.
func DefaultLayout() Layout {
	l, _ := LayoutByID(DefaultLayoutID)
	return l
}

// Filters returns all filter presets in catalog order.
func Filters() []Filter {
	src := load().Filters
	out := make([]Filter, len(src))
	for i, f := range src {
		out[i] = f.clone()
	}
	return out
}

// FilterByID looks up a filter preset.
func FilterByID(id string) (Filter, bool) {
	for _, f := range load().Filters {
		if f.ID == id {
			return f.clone(), true
		}
	}
	return Filter{}, false
}

func (f Filter) clone() Filter {
	f.Effect = slices.Clone(f.Effect)
	return f
}

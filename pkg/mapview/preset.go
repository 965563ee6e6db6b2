package mapview

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Preset is a named camera and style for one map screen.
type Preset struct {
	Name    string
	StyleID string
	Camera  CameraConfiguration
}

// PresetSet is an ordered, immutable collection of presets with unique names.
type PresetSet struct {
	presets []Preset
	byName  map[string]int
}

// NewPresetSet validates every preset camera and rejects duplicate or empty
// names.
func NewPresetSet(presets ...Preset) (*PresetSet, error) {
	s := &PresetSet{
		presets: make([]Preset, 0, len(presets)),
		byName:  make(map[string]int, len(presets)),
	}
	for _, p := range presets {
		if p.Name == "" {
			return nil, &ConfigError{Field: "preset.name", Value: `""`, Reason: "must not be empty"}
		}
		if _, dup := s.byName[p.Name]; dup {
			return nil, &ConfigError{Field: "preset.name", Value: p.Name, Reason: "duplicate preset"}
		}
		if err := p.Camera.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", p.Name, err)
		}
		s.byName[p.Name] = len(s.presets)
		s.presets = append(s.presets, p)
	}
	return s, nil
}

// Lookup returns the preset with the given name.
func (s *PresetSet) Lookup(name string) (Preset, bool) {
	if s == nil {
		return Preset{}, false
	}
	i, ok := s.byName[name]
	if !ok {
		return Preset{}, false
	}
	return s.presets[i], true
}

// All returns the presets in declaration order.
func (s *PresetSet) All() []Preset {
	if s == nil {
		return nil
	}
	out := make([]Preset, len(s.presets))
	copy(out, s.presets)
	return out
}

// Len returns the number of presets.
func (s *PresetSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.presets)
}

// DefaultPresets returns the presets used when no configuration provides any.
func DefaultPresets() *PresetSet {
	s, err := NewPresetSet(
		Preset{
			Name:    "world",
			StyleID: "streets",
			Camera:  CameraConfiguration{Center: orb.Point{0, 20}, Zoom: 1},
		},
		Preset{
			Name:    "city",
			StyleID: "streets",
			Camera:  CameraConfiguration{Center: orb.Point{16.3738, 48.2082}, Zoom: 13.5, Pitch: 45, Bearing: 10},
		},
		Preset{
			Name:    "night",
			StyleID: "dark",
			Camera:  CameraConfiguration{Center: orb.Point{16.3738, 48.2082}, Zoom: 12},
		},
	)
	if err != nil {
		panic(err)
	}
	return s
}

// Package config loads the optional maps.yaml project configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-drift/drift-maps/pkg/mapview"
	"github.com/joho/godotenv"
	"github.com/paulmach/orb"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the project configuration file.
const FileName = "maps.yaml"

// TokenEnv is the environment variable consulted for the map access token
// when maps.yaml does not set one.
const TokenEnv = "MAPBOX_ACCESS_TOKEN"

// Config represents the optional maps.yaml configuration.
type Config struct {
	App AppConfig `yaml:"app"`
	Map MapConfig `yaml:"map"`
}

// AppConfig contains application metadata.
type AppConfig struct {
	Name string `yaml:"name,omitempty"`
	ID   string `yaml:"id,omitempty"`
}

// MapConfig contains map settings. String values may reference environment
// variables as $VAR or ${VAR}; variables from the project's .env file take
// precedence over the process environment.
type MapConfig struct {
	AccessToken  string            `yaml:"access_token,omitempty"`
	DefaultStyle string            `yaml:"default_style,omitempty"`
	Styles       map[string]string `yaml:"styles,omitempty"`
	Presets      []PresetConfig    `yaml:"presets,omitempty"`
}

// PresetConfig is a named camera in maps.yaml. Center is [longitude, latitude].
type PresetConfig struct {
	Name    string    `yaml:"name"`
	Style   string    `yaml:"style,omitempty"`
	Center  []float64 `yaml:"center"`
	Zoom    float64   `yaml:"zoom"`
	Pitch   float64   `yaml:"pitch,omitempty"`
	Bearing float64   `yaml:"bearing,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root         string
	ModulePath   string
	AppName      string
	AppID        string
	AccessToken  string
	DefaultStyle string
	Catalog      *mapview.StyleCatalog
	Presets      *mapview.PresetSet
}

// LoadOptional reads maps.yaml if present.
func LoadOptional(dir string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return &cfg, nil
}

// loadDotEnv reads the project's .env file without touching the process
// environment. A missing file yields an empty map.
func loadDotEnv(dir string) (map[string]string, error) {
	env, err := godotenv.Read(filepath.Join(dir, ".env"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return env, nil
}

// Resolve loads .env and maps.yaml (both optional), applies defaults and
// validates every style and preset.
func Resolve(dir string) (*Resolved, error) {
	modulePath, err := modulePath(dir)
	if err != nil {
		return nil, err
	}

	env, err := loadDotEnv(dir)
	if err != nil {
		return nil, err
	}
	lookup := func(key string) string {
		if v, ok := env[key]; ok {
			return v
		}
		return os.Getenv(key)
	}

	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}

	appName := strings.TrimSpace(cfg.App.Name)
	if appName == "" {
		appName = defaultAppName(modulePath, dir)
	}
	appID := strings.TrimSpace(cfg.App.ID)
	if appID == "" {
		appID = defaultAppID(modulePath, appName)
	}
	if err := validateAppID(appID); err != nil {
		return nil, err
	}

	token := strings.TrimSpace(os.Expand(cfg.Map.AccessToken, lookup))
	if token == "" {
		token = strings.TrimSpace(lookup(TokenEnv))
	}

	styles := make(map[string]string, len(cfg.Map.Styles))
	for id, url := range cfg.Map.Styles {
		id = strings.TrimSpace(id)
		url = strings.TrimSpace(os.Expand(url, lookup))
		if id == "" || url == "" {
			return nil, fmt.Errorf("map.styles: style %q needs a non-empty id and url", id)
		}
		styles[id] = url
	}
	catalog := mapview.NewStyleCatalog(token, styles)

	defaultStyle := strings.TrimSpace(cfg.Map.DefaultStyle)
	if defaultStyle == "" {
		defaultStyle = "streets"
	}
	if _, err := catalog.Resolve(defaultStyle); err != nil {
		return nil, fmt.Errorf("map.default_style: %w", err)
	}

	presets, err := resolvePresets(cfg.Map.Presets, defaultStyle, catalog)
	if err != nil {
		return nil, err
	}

	return &Resolved{
		Root:         dir,
		ModulePath:   modulePath,
		AppName:      appName,
		AppID:        appID,
		AccessToken:  token,
		DefaultStyle: defaultStyle,
		Catalog:      catalog,
		Presets:      presets,
	}, nil
}

// resolvePresets converts configured presets, falling back to
// [mapview.DefaultPresets] when none are configured.
func resolvePresets(in []PresetConfig, defaultStyle string, catalog *mapview.StyleCatalog) (*mapview.PresetSet, error) {
	if len(in) == 0 {
		return mapview.DefaultPresets(), nil
	}

	presets := make([]mapview.Preset, 0, len(in))
	for i, p := range in {
		name := strings.TrimSpace(p.Name)
		if len(p.Center) != 2 {
			return nil, fmt.Errorf("map.presets[%d] %q: center must be [longitude, latitude], got %d values", i, name, len(p.Center))
		}
		style := strings.TrimSpace(p.Style)
		if style == "" {
			style = defaultStyle
		}
		if _, err := catalog.Resolve(style); err != nil {
			return nil, fmt.Errorf("map.presets[%d] %q: %w", i, name, err)
		}
		camera, err := mapview.NewCameraConfiguration(orb.Point{p.Center[0], p.Center[1]}, p.Zoom, p.Pitch, p.Bearing)
		if err != nil {
			return nil, fmt.Errorf("map.presets[%d] %q: %w", i, name, err)
		}
		presets = append(presets, mapview.Preset{Name: name, StyleID: style, Camera: camera})
	}

	set, err := mapview.NewPresetSet(presets...)
	if err != nil {
		return nil, fmt.Errorf("map.presets: %w", err)
	}
	return set, nil
}

// FindProjectRoot walks up from the current directory to find go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a Go module (no go.mod found)")
		}
		dir = parent
	}
}

func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}

// defaultAppName is the last element of the module path, ignoring a major
// version suffix.
func defaultAppName(modulePath, dir string) string {
	name := filepath.Base(dir)
	if prefix, _, ok := module.SplitPathVersion(modulePath); ok {
		if i := strings.LastIndex(prefix, "/"); i >= 0 {
			name = prefix[i+1:]
		} else {
			name = prefix
		}
	}
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "maps_app"
	}
	return name
}

// defaultAppID reverses the module host and appends the path, so
// github.com/acme/transit becomes com.github.acme.transit.
func defaultAppID(modulePath, appName string) string {
	parts := strings.Split(modulePath, "/")
	if len(parts) < 2 || !strings.Contains(parts[0], ".") {
		return "com.example." + sanitizeSegment(appName)
	}

	host := strings.Split(parts[0], ".")
	segments := make([]string, 0, len(host)+len(parts)-1)
	for i := len(host) - 1; i >= 0; i-- {
		segments = append(segments, host[i])
	}
	for _, p := range parts[1:] {
		if p != "" {
			segments = append(segments, p)
		}
	}
	for i, s := range segments {
		segments[i] = sanitizeSegment(s)
	}
	return strings.Join(segments, ".")
}

// sanitizeSegment lowercases s and keeps only letters and digits. A leading
// digit gets an "a" prefix.
func sanitizeSegment(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		return "app"
	}
	if out[0] >= '0' && out[0] <= '9' {
		return "a" + out
	}
	return out
}

func validateAppID(appID string) error {
	if !strings.Contains(appID, ".") {
		return fmt.Errorf("app.id must contain at least one '.' (got %q)", appID)
	}
	for _, segment := range strings.Split(appID, ".") {
		if segment == "" {
			return fmt.Errorf("app.id contains an empty segment (%q)", appID)
		}
		if segment[0] >= '0' && segment[0] <= '9' || segment[0] == '_' {
			return fmt.Errorf("app.id segments must start with a letter (%q)", appID)
		}
		for _, r := range segment {
			if !(r == '_' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
				return fmt.Errorf("app.id contains invalid character %q in %q", r, appID)
			}
		}
	}
	return nil
}

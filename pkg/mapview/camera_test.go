package mapview_test

import (
	"errors"
	"math"
	"testing"

	"github.com/go-drift/drift-maps/pkg/mapview"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

func TestNewCameraConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		center  orb.Point
		zoom    float64
		pitch   float64
		bearing float64
		wantErr bool
	}{
		{"vienna", orb.Point{16.3738, 48.2082}, 13.5, 45, 10, false},
		{"origin", orb.Point{0, 0}, 0, 0, 0, false},
		{"antimeridian", orb.Point{180, -90}, 22, mapview.MaxPitch, 359, false},
		{"negative zoom", orb.Point{0, 0}, -1, 0, 0, true},
		{"longitude too large", orb.Point{180.5, 0}, 1, 0, 0, true},
		{"longitude too small", orb.Point{-181, 0}, 1, 0, 0, true},
		{"latitude too large", orb.Point{0, 91}, 1, 0, 0, true},
		{"latitude too small", orb.Point{0, -90.01}, 1, 0, 0, true},
		{"nan longitude", orb.Point{math.NaN(), 0}, 1, 0, 0, true},
		{"infinite zoom", orb.Point{0, 0}, math.Inf(1), 0, 0, true},
		{"pitch too steep", orb.Point{0, 0}, 1, 90, 0, true},
		{"negative pitch", orb.Point{0, 0}, 1, -5, 0, true},
		{"nan bearing", orb.Point{0, 0}, 1, 0, math.NaN(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := mapview.NewCameraConfiguration(tt.center, tt.zoom, tt.pitch, tt.bearing)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewCameraConfiguration() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, mapview.ErrInvalidConfiguration) {
					t.Errorf("error %v should wrap ErrInvalidConfiguration", err)
				}
				var ce *mapview.ConfigError
				if !errors.As(err, &ce) {
					t.Errorf("error %v should be a *ConfigError", err)
				}
				return
			}
			if !cfg.Center.Equal(tt.center) || cfg.Zoom != tt.zoom || cfg.Pitch != tt.pitch {
				t.Errorf("camera = %v, want center %v zoom %g pitch %g", cfg, tt.center, tt.zoom, tt.pitch)
			}
		})
	}
}

func TestNewCameraConfiguration_NormalizesBearing(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{10, 10},
		{360, 0},
		{370, 10},
		{-90, 270},
		{-450, 270},
	}
	for _, tt := range tests {
		cfg, err := mapview.NewCameraConfiguration(orb.Point{0, 0}, 1, 0, tt.in)
		if err != nil {
			t.Fatalf("bearing %g: %v", tt.in, err)
		}
		if cfg.Bearing != tt.want {
			t.Errorf("bearing %g normalized to %g, want %g", tt.in, cfg.Bearing, tt.want)
		}
	}
}

func TestCameraConfiguration_Equal(t *testing.T) {
	a := mapview.CameraConfiguration{Center: orb.Point{16.3738, 48.2082}, Zoom: 13.5, Pitch: 45, Bearing: 10}
	b := a
	if !a.Equal(b) {
		t.Error("identical cameras should be equal")
	}
	b.Bearing = 11
	if a.Equal(b) {
		t.Error("cameras with different bearings should differ")
	}
	b = a
	b.Center = orb.Point{16.3738, 48.2083}
	if a.Equal(b) {
		t.Error("cameras with different centers should differ")
	}
}

func TestCameraConfiguration_CenterTile(t *testing.T) {
	cfg := mapview.CameraConfiguration{Center: orb.Point{16.3738, 48.2082}, Zoom: 13.5}
	got := cfg.CenterTile()
	want := maptile.At(cfg.Center, 13)
	if got != want {
		t.Errorf("CenterTile() = %v, want %v", got, want)
	}

	deep := mapview.CameraConfiguration{Center: orb.Point{0, 0}, Zoom: 30}
	if z := deep.CenterTile().Z; z != 22 {
		t.Errorf("CenterTile().Z = %d, want 22", z)
	}
}

func TestCameraConfiguration_String(t *testing.T) {
	cfg := mapview.CameraConfiguration{Center: orb.Point{16.3738, 48.2082}, Zoom: 13.5, Pitch: 45, Bearing: 10}
	want := "center=(16.3738,48.2082) zoom=13.5 pitch=45 bearing=10"
	if got := cfg.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestApplyCamera_NilSurface(t *testing.T) {
	err := mapview.ApplyCamera(nil, mapview.CameraConfiguration{})
	if !errors.Is(err, mapview.ErrSurfaceDisposed) {
		t.Errorf("ApplyCamera(nil) = %v, want ErrSurfaceDisposed", err)
	}
}

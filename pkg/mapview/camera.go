package mapview

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// MaxPitch is the steepest camera tilt, in degrees, accepted by the native
// map SDKs.
const MaxPitch = 85.0

const (
	// maxTileZoom bounds the zoom used for tile diagnostics.
	maxTileZoom    = 22
	maxMercatorLat = 85.05112878
)

// CameraConfiguration describes the map viewport. Center is a
// longitude/latitude pair, Zoom is the web-mercator zoom level, Pitch tilts
// the camera away from nadir and Bearing rotates it clockwise from north,
// both in degrees.
//
// Values are compared with [CameraConfiguration.Equal]. Build them with
// [NewCameraConfiguration], which validates and normalizes the input once.
type CameraConfiguration struct {
	Center  orb.Point
	Zoom    float64
	Pitch   float64
	Bearing float64
}

// NewCameraConfiguration validates its arguments and returns the camera. The
// bearing is normalized into [0, 360).
func NewCameraConfiguration(center orb.Point, zoom, pitch, bearing float64) (CameraConfiguration, error) {
	cfg := CameraConfiguration{
		Center:  center,
		Zoom:    zoom,
		Pitch:   pitch,
		Bearing: normalizeBearing(bearing),
	}
	if err := cfg.Validate(); err != nil {
		return CameraConfiguration{}, err
	}
	return cfg, nil
}

// Validate reports whether the camera can be applied to a surface. The
// returned error wraps [ErrInvalidConfiguration].
func (c CameraConfiguration) Validate() error {
	lon, lat := c.Center.Lon(), c.Center.Lat()
	switch {
	case !finite(lon) || lon < -180 || lon > 180:
		return &ConfigError{Field: "center.longitude", Value: lon, Reason: "must be within [-180, 180]"}
	case !finite(lat) || lat < -90 || lat > 90:
		return &ConfigError{Field: "center.latitude", Value: lat, Reason: "must be within [-90, 90]"}
	case !finite(c.Zoom) || c.Zoom < 0:
		return &ConfigError{Field: "zoom", Value: c.Zoom, Reason: "must be >= 0"}
	case !finite(c.Pitch) || c.Pitch < 0 || c.Pitch > MaxPitch:
		return &ConfigError{Field: "pitch", Value: c.Pitch, Reason: fmt.Sprintf("must be within [0, %g]", MaxPitch)}
	case !finite(c.Bearing):
		return &ConfigError{Field: "bearing", Value: c.Bearing, Reason: "must be finite"}
	}
	return nil
}

// Equal reports whether both cameras describe the same viewport.
func (c CameraConfiguration) Equal(other CameraConfiguration) bool {
	return c.Center.Equal(other.Center) &&
		c.Zoom == other.Zoom &&
		c.Pitch == other.Pitch &&
		c.Bearing == other.Bearing
}

// CenterTile returns the map tile containing the camera center at the
// camera's integer zoom level.
func (c CameraConfiguration) CenterTile() maptile.Tile {
	z := math.Floor(c.Zoom)
	if z > maxTileZoom {
		z = maxTileZoom
	}
	// Web Mercator tiles stop short of the poles.
	lat := math.Max(-maxMercatorLat, math.Min(maxMercatorLat, c.Center.Lat()))
	return maptile.At(orb.Point{c.Center.Lon(), lat}, maptile.Zoom(z))
}

func (c CameraConfiguration) String() string {
	return fmt.Sprintf("center=(%.4f,%.4f) zoom=%g pitch=%g bearing=%g",
		c.Center.Lon(), c.Center.Lat(), c.Zoom, c.Pitch, c.Bearing)
}

func normalizeBearing(b float64) float64 {
	if !finite(b) {
		return b
	}
	b = math.Mod(b, 360)
	if b < 0 {
		b += 360
	}
	return b
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

package mapview

import (
	"errors"
	"fmt"
)

// Sentinel errors for map view operations.
var (
	// ErrInvalidConfiguration indicates the caller passed a camera or style
	// that can never be applied. It is returned synchronously, before any
	// side effect.
	ErrInvalidConfiguration = errors.New("mapview: invalid configuration")

	// ErrSurfaceCreationFailed indicates the renderer could not create a
	// map surface.
	ErrSurfaceCreationFailed = errors.New("mapview: surface creation failed")

	// ErrStyleLoadFailed matches every [*StyleLoadError].
	ErrStyleLoadFailed = errors.New("mapview: style load failed")

	// ErrSurfaceDisposed indicates a style request outlived its surface.
	ErrSurfaceDisposed = errors.New("mapview: surface disposed")

	// ErrRequestSuperseded indicates a newer style request was issued on the
	// same surface before this one completed.
	ErrRequestSuperseded = errors.New("mapview: style request superseded")

	// ErrUnknownStyle indicates a style identifier absent from the catalog.
	ErrUnknownStyle = fmt.Errorf("%w: unknown style", ErrInvalidConfiguration)

	// ErrAlreadyInitialized is returned by Initialize once an attempt has
	// been started. Use Reinitialize to start over.
	ErrAlreadyInitialized = errors.New("mapview: already initialized")

	// ErrControllerDisposed is returned by a controller after Dispose.
	ErrControllerDisposed = errors.New("mapview: controller disposed")
)

// Canonical style error codes shared by the native implementations.
const (
	// ErrCodeStyleNotFound indicates the style URL resolved to nothing.
	ErrCodeStyleNotFound = "style_not_found"

	// ErrCodeNetworkError indicates a connectivity failure while fetching
	// the style or its sprites and glyphs.
	ErrCodeNetworkError = "network_error"

	// ErrCodeStyleParse indicates the style document was malformed.
	ErrCodeStyleParse = "style_parse_error"

	// ErrCodeLoadFailed indicates any other style failure.
	ErrCodeLoadFailed = "load_failed"
)

// ConfigError describes a rejected configuration value.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// StyleLoadError describes a failed style load.
type StyleLoadError struct {
	StyleID string
	Code    string
	Reason  string
	Err     error
}

func (e *StyleLoadError) Error() string {
	code := e.Code
	if code == "" {
		code = ErrCodeLoadFailed
	}
	if e.StyleID != "" {
		return fmt.Sprintf("style %q: %s: %s", e.StyleID, code, e.Reason)
	}
	return code + ": " + e.Reason
}

func (e *StyleLoadError) Is(target error) bool {
	return target == ErrStyleLoadFailed
}

func (e *StyleLoadError) Unwrap() error {
	return e.Err
}

// surfaceCreationError keeps the renderer's message intact while matching
// ErrSurfaceCreationFailed.
type surfaceCreationError struct {
	err error
}

func (e *surfaceCreationError) Error() string { return e.err.Error() }

func (e *surfaceCreationError) Unwrap() []error {
	return []error{ErrSurfaceCreationFailed, e.err}
}

// normalizeStyleError turns whatever a surface reported into a
// *StyleLoadError, leaving the coordinator's own sentinels alone.
func normalizeStyleError(styleID string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSurfaceDisposed) || errors.Is(err, ErrRequestSuperseded) {
		return err
	}
	var sle *StyleLoadError
	if errors.As(err, &sle) {
		if sle.StyleID == "" {
			cp := *sle
			cp.StyleID = styleID
			return &cp
		}
		return err
	}
	return &StyleLoadError{StyleID: styleID, Code: ErrCodeLoadFailed, Reason: err.Error(), Err: err}
}

// failureMessage is the user-facing description of an asynchronous failure.
func failureMessage(err error) string {
	if err == nil {
		return ""
	}
	var sle *StyleLoadError
	if errors.As(err, &sle) && sle.Reason != "" {
		return sle.Reason
	}
	return err.Error()
}

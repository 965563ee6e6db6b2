package mapview

import "context"

// Surface is a renderable map canvas created by a [Renderer]. A surface is
// owned by exactly one controller generation and is released when that
// generation ends.
type Surface interface {
	// SurfaceID returns an identifier unique among live surfaces.
	SurfaceID() int64

	// SetCamera moves the viewport. Applying the same camera twice leaves
	// the viewport unchanged.
	SetCamera(cfg CameraConfiguration) error

	// LoadStyle starts loading the style at styleURL. done is called at most
	// once when loading finishes; a nil error means success. An error
	// returned from LoadStyle itself means no load was started and done will
	// not be called.
	LoadStyle(styleURL string, done func(error)) error

	// Release frees the surface. Pending style loads may never complete
	// after Release.
	Release()
}

// SurfaceOptions are passed to the renderer when creating a surface.
type SurfaceOptions struct {
	// AccessToken authorizes tile and style requests. It is opaque to this
	// package.
	AccessToken string

	// Params carries renderer-specific creation parameters.
	Params map[string]any
}

// Renderer creates map surfaces. Implementations wrap the native map SDK;
// see platform.MapRenderer and mapviewtest.Renderer.
type Renderer interface {
	CreateSurface(ctx context.Context, opts SurfaceOptions) (Surface, error)
}

// ApplyCamera places cfg on surface. It is safe to call repeatedly with the
// same camera. cfg is expected to have been validated at construction.
func ApplyCamera(surface Surface, cfg CameraConfiguration) error {
	if surface == nil {
		return ErrSurfaceDisposed
	}
	return surface.SetCamera(cfg)
}

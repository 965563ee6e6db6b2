package platform

import (
	"context"
	"fmt"

	"github.com/go-drift/drift-maps/pkg/mapview"
)

// MapRenderer creates native map surfaces through the platform view
// registry. It implements [mapview.Renderer].
type MapRenderer struct {
	registry *PlatformViewRegistry
}

var _ mapview.Renderer = (*MapRenderer)(nil)

// NewMapRenderer returns a renderer backed by the global platform view
// registry.
func NewMapRenderer() *MapRenderer {
	return &MapRenderer{registry: GetPlatformViewRegistry()}
}

// CreateSurface creates a native_map platform view. The access token and any
// extra parameters are passed to native code as creation parameters.
func (r *MapRenderer) CreateSurface(ctx context.Context, opts mapview.SurfaceOptions) (mapview.Surface, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params := make(map[string]any, len(opts.Params)+1)
	for k, v := range opts.Params {
		params[k] = v
	}
	if opts.AccessToken != "" {
		params["accessToken"] = opts.AccessToken
	}

	view, err := r.registry.Create(MapViewType, params)
	if err != nil {
		return nil, err
	}
	mapView, ok := view.(*NativeMapView)
	if !ok {
		r.registry.Dispose(view.ViewID())
		return nil, fmt.Errorf("unexpected view type: %T", view)
	}
	return mapView, nil
}

// NewMapController returns a map view controller that renders through native
// map views and delivers style completions on the UI thread via [Dispatch].
//
//	c := platform.NewMapController(mapview.WithSurfaceOptions(mapview.SurfaceOptions{AccessToken: token}))
//	c.Subscribe(func(s mapview.LifecycleState) { ... })
//	c.Initialize(camera, "streets")
//
// Options given by the caller take precedence.
func NewMapController(opts ...mapview.Option) *mapview.Controller {
	all := append([]mapview.Option{mapview.WithDispatcher(Dispatch)}, opts...)
	return mapview.NewController(NewMapRenderer(), all...)
}

package platform

import (
	"sync"

	"github.com/go-drift/drift-maps/pkg/errors"
	"github.com/go-drift/drift-maps/pkg/mapview"
)

// MapViewType is the platform view type of native map surfaces.
const MapViewType = "native_map"

type nativeMapViewFactory struct{}

func (nativeMapViewFactory) ViewType() string {
	return MapViewType
}

func (nativeMapViewFactory) Create(viewID int64, params map[string]any) (PlatformView, error) {
	return &NativeMapView{
		basePlatformView: basePlatformView{
			viewID:   viewID,
			viewType: MapViewType,
		},
	}, nil
}

// pendingStyle is a style load waiting for its native result.
type pendingStyle struct {
	requestID int64
	done      func(error)
}

// NativeMapView is the Go side of a native map surface. It implements
// [mapview.Surface] by forwarding camera and style commands to the native
// view and resolving style loads from the onStyleLoaded and onStyleError
// events native code sends back.
//
// All methods are safe for concurrent use.
type NativeMapView struct {
	basePlatformView

	mu          sync.Mutex
	pending     []pendingStyle // guarded by mu
	nextRequest int64          // guarded by mu
	disposed    bool           // guarded by mu
}

var _ mapview.Surface = (*NativeMapView)(nil)

func (v *NativeMapView) Create(params map[string]any) error {
	return nil
}

// Dispose drops pending style loads without resolving them. A disposed map
// view receives no further native events.
func (v *NativeMapView) Dispose() {
	v.mu.Lock()
	v.disposed = true
	v.pending = nil
	v.mu.Unlock()
}

// SurfaceID implements [mapview.Surface].
func (v *NativeMapView) SurfaceID() int64 {
	return v.viewID
}

func (v *NativeMapView) isDisposed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.disposed
}

// SetCamera implements [mapview.Surface]. The camera jumps without
// animation.
func (v *NativeMapView) SetCamera(cfg mapview.CameraConfiguration) error {
	if v.isDisposed() {
		return ErrDisposed
	}
	_, err := GetPlatformViewRegistry().InvokeViewMethod(v.viewID, "setCamera", map[string]any{
		"longitude": cfg.Center.Lon(),
		"latitude":  cfg.Center.Lat(),
		"zoom":      cfg.Zoom,
		"pitch":     cfg.Pitch,
		"bearing":   cfg.Bearing,
	})
	return err
}

// LoadStyle implements [mapview.Surface]. done runs on the goroutine that
// delivers the native event.
func (v *NativeMapView) LoadStyle(styleURL string, done func(error)) error {
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		return ErrDisposed
	}
	v.nextRequest++
	id := v.nextRequest
	v.pending = append(v.pending, pendingStyle{requestID: id, done: done})
	v.mu.Unlock()

	_, err := GetPlatformViewRegistry().InvokeViewMethod(v.viewID, "loadStyle", map[string]any{
		"styleUrl":  styleURL,
		"requestId": id,
	})
	if err != nil {
		v.take(id, true)
		return err
	}
	return nil
}

// Release implements [mapview.Surface] by disposing the platform view.
func (v *NativeMapView) Release() {
	GetPlatformViewRegistry().Dispose(v.viewID)
	// A view whose native creation failed never reached the registry.
	v.Dispose()
}

// PendingStyles returns the number of style loads awaiting a native result.
func (v *NativeMapView) PendingStyles() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.pending)
}

// take removes and returns the pending load with the given request ID. When
// exact is false the event carried no ID and the oldest load is taken, which
// covers native code that does not echo request IDs. An ID matching nothing
// belongs to a load that already resolved and yields nil.
func (v *NativeMapView) take(requestID int64, exact bool) func(error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, p := range v.pending {
		if p.requestID == requestID {
			v.pending = append(v.pending[:i], v.pending[i+1:]...)
			return p.done
		}
	}
	if exact || len(v.pending) == 0 {
		return nil
	}
	p := v.pending[0]
	v.pending = v.pending[1:]
	return p.done
}

func (v *NativeMapView) handleViewEvent(method string, args map[string]any) {
	var result error
	switch method {
	case "onStyleLoaded":
	case "onStyleError":
		code := parseString(args, "code")
		if code == "" {
			code = mapview.ErrCodeLoadFailed
		}
		message := parseString(args, "message")
		result = &mapview.StyleLoadError{
			Code:   code,
			Reason: message,
			Err:    NewChannelError(code, message),
		}
	default:
		errors.Logger().Debug("unhandled map view event", "view", v.viewID, "method", method)
		return
	}

	requestID, ok := toInt64(args["requestId"])
	done := v.take(requestID, ok)
	if done == nil {
		errors.Logger().Debug("map style result without pending load", "view", v.viewID, "method", method)
		return
	}
	done(result)
}

func init() {
	GetPlatformViewRegistry().RegisterFactory(nativeMapViewFactory{})
}

package platform

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-drift/drift-maps/pkg/errors"
)

const platformViewsChannel = "drift/platform_views"

// PlatformView represents a native view owned by Go code.
type PlatformView interface {
	// ViewID returns the unique identifier for this view.
	ViewID() int64

	// ViewType returns the type identifier for this view (e.g., "native_map").
	ViewType() string

	// Create initializes the Go side of the view with the creation parameters.
	Create(params map[string]any) error

	// Dispose cleans up the Go side of the view.
	Dispose()
}

// PlatformViewFactory creates platform views of a specific type.
type PlatformViewFactory interface {
	// Create creates a new platform view instance.
	Create(viewID int64, params map[string]any) (PlatformView, error)

	// ViewType returns the view type this factory creates.
	ViewType() string
}

// viewEventHandler is implemented by views that receive native events on
// the platform views event channel.
type viewEventHandler interface {
	handleViewEvent(method string, args map[string]any)
}

// PlatformViewRegistry manages platform view types and instances.
type PlatformViewRegistry struct {
	factories map[string]PlatformViewFactory
	views     map[int64]PlatformView
	nextID    atomic.Int64
	mu        sync.RWMutex
	channel   *MethodChannel
	events    *EventChannel
}

var platformViewRegistry = newPlatformViewRegistry()

// GetPlatformViewRegistry returns the global platform view registry.
func GetPlatformViewRegistry() *PlatformViewRegistry {
	return platformViewRegistry
}

func newPlatformViewRegistry() *PlatformViewRegistry {
	r := &PlatformViewRegistry{
		factories: make(map[string]PlatformViewFactory),
		views:     make(map[int64]PlatformView),
		channel:   NewMethodChannel(platformViewsChannel),
		events:    NewEventChannel(platformViewsChannel),
	}
	r.channel.SetHandler(r.handleMethodCall)
	return r
}

func init() {
	registerBuiltinInit(platformViewRegistry.listen)
	platformViewRegistry.listen()
}

// listen routes native view events to the view they name.
func (r *PlatformViewRegistry) listen() {
	r.events.Listen(EventHandler{
		OnEvent: r.routeEvent,
		OnError: func(err error) {
			errors.Report(&errors.DriftError{
				Op:      "platformViews.streamError",
				Kind:    errors.KindPlatform,
				Channel: platformViewsChannel,
				Err:     err,
			})
		},
	})
}

func (r *PlatformViewRegistry) routeEvent(data any) {
	m, ok := data.(map[string]any)
	if !ok {
		r.reportParseError(data)
		return
	}
	viewID, ok := toInt64(m["viewId"])
	method := parseString(m, "method")
	if !ok || method == "" {
		r.reportParseError(data)
		return
	}

	view := r.GetView(viewID)
	if view == nil {
		// Events may trail a disposal.
		return
	}
	if h, ok := view.(viewEventHandler); ok {
		h.handleViewEvent(method, m)
	}
}

func (r *PlatformViewRegistry) reportParseError(data any) {
	errors.Report(&errors.DriftError{
		Op:      "platformViews.parseEvent",
		Kind:    errors.KindParsing,
		Channel: platformViewsChannel,
		Err: &errors.ParseError{
			Channel:  platformViewsChannel,
			DataType: "PlatformViewEvent",
			Got:      data,
		},
	})
}

// RegisterFactory registers a factory for a platform view type.
func (r *PlatformViewRegistry) RegisterFactory(factory PlatformViewFactory) {
	r.mu.Lock()
	r.factories[factory.ViewType()] = factory
	r.mu.Unlock()
}

// Create creates a new platform view of the given type and asks native code
// to build its counterpart. If native creation fails the view is dropped and
// the error returned.
func (r *PlatformViewRegistry) Create(viewType string, params map[string]any) (PlatformView, error) {
	r.mu.RLock()
	factory, ok := r.factories[viewType]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrViewTypeNotFound, viewType)
	}

	viewID := r.nextID.Add(1)

	view, err := factory.Create(viewID, params)
	if err != nil {
		return nil, err
	}
	if err := view.Create(params); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.views[viewID] = view
	r.mu.Unlock()

	_, err = r.channel.Invoke("create", map[string]any{
		"viewId":   viewID,
		"viewType": viewType,
		"params":   params,
	})
	if err != nil {
		r.mu.Lock()
		delete(r.views, viewID)
		r.mu.Unlock()
		view.Dispose()
		return nil, err
	}

	return view, nil
}

// Dispose destroys a platform view. Unknown IDs are ignored.
func (r *PlatformViewRegistry) Dispose(viewID int64) {
	r.mu.Lock()
	view, ok := r.views[viewID]
	if ok {
		delete(r.views, viewID)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	view.Dispose()
	if _, err := r.channel.Invoke("dispose", map[string]any{"viewId": viewID}); err != nil {
		errors.Report(&errors.DriftError{
			Op:      "platformViews.dispose",
			Kind:    errors.KindPlatform,
			Channel: platformViewsChannel,
			ViewID:  viewID,
			Err:     err,
		})
	}
}

// GetView returns a platform view by ID.
func (r *PlatformViewRegistry) GetView(viewID int64) PlatformView {
	r.mu.RLock()
	view := r.views[viewID]
	r.mu.RUnlock()
	return view
}

// ViewCount returns the number of live views.
func (r *PlatformViewRegistry) ViewCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.views)
}

// InvokeViewMethod invokes a method on a specific platform view.
func (r *PlatformViewRegistry) InvokeViewMethod(viewID int64, method string, args map[string]any) (any, error) {
	// Copy so the caller's map is not mutated.
	invokeArgs := make(map[string]any, len(args)+2)
	for k, v := range args {
		invokeArgs[k] = v
	}
	invokeArgs["viewId"] = viewID
	invokeArgs["method"] = method
	return r.channel.Invoke("invokeViewMethod", invokeArgs)
}

// handleMethodCall processes incoming method calls from native code.
func (r *PlatformViewRegistry) handleMethodCall(method string, args any) (any, error) {
	switch method {
	case "onViewCreated", "onViewDisposed":
		return nil, nil
	default:
		return nil, ErrMethodNotFound
	}
}

func (r *PlatformViewRegistry) reset() {
	r.mu.Lock()
	r.views = make(map[int64]PlatformView)
	r.mu.Unlock()
	r.nextID.Store(0)
}

// basePlatformView provides common implementation for platform views.
type basePlatformView struct {
	viewID   int64
	viewType string
}

func (v *basePlatformView) ViewID() int64 {
	return v.viewID
}

func (v *basePlatformView) ViewType() string {
	return v.viewType
}

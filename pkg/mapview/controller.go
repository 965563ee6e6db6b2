package mapview

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-drift/drift-maps/pkg/errors"
)

// Option configures a [Controller].
type Option func(*Controller)

// WithDispatcher sets the function used to marshal style completions onto the
// owner thread. It has the shape of platform.Dispatch: it returns false when
// it could not schedule the callback, in which case the controller runs the
// callback inline. Without a dispatcher completions run on whatever goroutine
// the renderer reports them from.
func WithDispatcher(dispatch func(func()) bool) Option {
	return func(c *Controller) { c.dispatch = dispatch }
}

// WithStyleCatalog sets the catalog used to resolve style identifiers.
func WithStyleCatalog(catalog *StyleCatalog) Option {
	return func(c *Controller) { c.catalog = catalog }
}

// WithSurfaceOptions sets the options passed to the renderer on every
// surface creation.
func WithSurfaceOptions(opts SurfaceOptions) Option {
	return func(c *Controller) { c.surfaceOpts = opts }
}

// WithName labels the controller in logs and error reports.
func WithName(name string) Option {
	return func(c *Controller) { c.name = name }
}

// WithContext sets the context passed to the renderer when creating
// surfaces.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) { c.ctx = ctx }
}

// Controller drives one map view through surface creation, camera placement,
// style loading and camera re-application, and publishes the resulting
// [LifecycleState].
//
// Initialize, Reinitialize, Retry and Dispose belong to a single owner,
// normally the UI thread. Style completions are marshalled back to that owner
// through the dispatcher given with [WithDispatcher]. CurrentState and the
// other accessors may be called from any goroutine.
type Controller struct {
	name        string
	renderer    Renderer
	coordinator *StyleLoadCoordinator
	catalog     *StyleCatalog
	dispatch    func(func()) bool
	ctx         context.Context
	surfaceOpts SurfaceOptions

	mu         sync.RWMutex
	state      LifecycleState      // guarded by mu
	generation uint64              // guarded by mu
	surface    Surface             // guarded by mu
	camera     CameraConfiguration // guarded by mu
	hasCamera  bool                // guarded by mu
	style      Style               // guarded by mu
	request    *StyleRequest       // guarded by mu
	disposed   bool                // guarded by mu

	stale atomic.Uint64

	subsMu    sync.Mutex
	subs      []*Subscription  // guarded by subsMu
	queue     []LifecycleState // guarded by subsMu
	notifying bool             // guarded by subsMu
}

// NewController returns an uninitialized controller that creates surfaces
// with renderer.
func NewController(renderer Renderer, opts ...Option) *Controller {
	c := &Controller{
		name:        "mapview",
		renderer:    renderer,
		coordinator: NewStyleLoadCoordinator(),
		ctx:         context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.catalog == nil {
		c.catalog = NewStyleCatalog(c.surfaceOpts.AccessToken, nil)
	}
	return c
}

// Initialize starts the first lifecycle attempt: the state becomes
// [PhaseLoading] before Initialize returns, a surface is created, cfg is
// applied and the style load is issued. It does not wait for the style.
//
// An invalid camera or style identifier is rejected with an error wrapping
// [ErrInvalidConfiguration] and the state is left untouched. Failures of the
// renderer are not returned; they surface as [PhaseError].
func (c *Controller) Initialize(cfg CameraConfiguration, styleID string) error {
	return c.begin("Initialize", cfg, styleID, false)
}

// Reinitialize releases the current surface and starts a new attempt exactly
// like Initialize. It may be called in any phase, including while a style
// load is outstanding; completions belonging to earlier attempts are
// discarded.
func (c *Controller) Reinitialize(cfg CameraConfiguration, styleID string) error {
	return c.begin("Reinitialize", cfg, styleID, true)
}

// Retry reinitializes with the most recent camera and style.
func (c *Controller) Retry() error {
	c.mu.RLock()
	cfg, style, ok := c.camera, c.style, c.hasCamera
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("mapview: retry before initialize: %w", ErrInvalidConfiguration)
	}
	return c.begin("Retry", cfg, style.ID, true)
}

// Dispose releases the surface and cancels all subscriptions. Later calls to
// Initialize, Reinitialize or Retry return [ErrControllerDisposed]. Dispose
// is idempotent.
func (c *Controller) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	c.generation++
	old := c.surface
	c.surface = nil
	c.request = nil
	c.state = LifecycleState{}
	c.mu.Unlock()

	c.releaseSurface(old)

	c.subsMu.Lock()
	subs := c.subs
	c.subs = nil
	c.queue = nil
	c.subsMu.Unlock()
	for _, s := range subs {
		s.canceled.Store(true)
	}
}

// CurrentState returns a snapshot of the lifecycle state.
func (c *Controller) CurrentState() LifecycleState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Generation returns the number of attempts started so far.
func (c *Controller) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Camera returns the camera of the current attempt.
func (c *Controller) Camera() (CameraConfiguration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.camera, c.hasCamera
}

// Style returns the style of the current attempt.
func (c *Controller) Style() Style {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.style
}

// SurfaceID returns the ID of the owned surface, or 0 if there is none.
func (c *Controller) SurfaceID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.surface == nil {
		return 0
	}
	return c.surface.SurfaceID()
}

// Request returns the outstanding style request of the current attempt, or
// nil once it has resolved.
func (c *Controller) Request() *StyleRequest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.request
}

// StaleCompletions returns how many style completions were discarded because
// their attempt had been superseded.
func (c *Controller) StaleCompletions() uint64 {
	return c.stale.Load()
}

// Name returns the label given with [WithName].
func (c *Controller) Name() string {
	return c.name
}

func (c *Controller) begin(op string, cfg CameraConfiguration, styleID string, restart bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	style, err := c.catalog.Resolve(styleID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrControllerDisposed
	}
	if !restart && c.state.Phase != PhaseUninitialized {
		c.mu.Unlock()
		return ErrAlreadyInitialized
	}
	// Bump the generation before releasing the old surface so that the
	// disposal completion it triggers is already stale.
	c.generation++
	gen := c.generation
	old := c.surface
	c.surface = nil
	c.request = nil
	c.camera = cfg
	c.hasCamera = true
	c.style = style
	c.state = loadingState()
	c.mu.Unlock()

	c.releaseSurface(old)

	tile := cfg.CenterTile()
	errors.Logger().Debug("map view loading",
		"controller", c.name,
		"op", op,
		"generation", gen,
		"style", style.ID,
		"tile", fmt.Sprintf("%d/%d/%d", tile.Z, tile.X, tile.Y),
	)
	c.notify(loadingState())

	c.attach(op, gen, cfg, style)
	return nil
}

// attach creates the surface for generation gen, places the camera and
// issues the style load.
func (c *Controller) attach(op string, gen uint64, cfg CameraConfiguration, style Style) {
	surface, err := c.renderer.CreateSurface(c.ctx, c.surfaceOpts)
	if err == nil && surface == nil {
		err = fmt.Errorf("renderer returned no surface")
	}
	if err != nil {
		c.fail(op, gen, 0, errors.KindSurface, &surfaceCreationError{err: err})
		return
	}

	c.mu.Lock()
	if c.generation != gen || c.disposed {
		c.mu.Unlock()
		surface.Release()
		return
	}
	c.surface = surface
	c.mu.Unlock()

	if err := ApplyCamera(surface, cfg); err != nil {
		c.fail(op, gen, surface.SurfaceID(), errors.KindCamera, err)
		return
	}

	req := c.coordinator.RequestLoad(surface, style, gen, func(err error) {
		c.deliver(gen, err)
	})

	c.mu.Lock()
	if c.generation == gen && !req.Completed() {
		c.request = req
	}
	c.mu.Unlock()
}

// deliver hands a style completion to the owner thread.
func (c *Controller) deliver(gen uint64, err error) {
	run := func() { c.complete(gen, err) }
	if c.dispatch != nil && c.dispatch(run) {
		return
	}
	run()
}

func (c *Controller) complete(gen uint64, err error) {
	c.mu.Lock()
	if c.disposed || gen != c.generation || c.state.Phase != PhaseLoading {
		c.mu.Unlock()
		c.stale.Add(1)
		errors.Logger().Debug("map style completion discarded",
			"controller", c.name,
			"generation", gen,
			"err", err,
		)
		return
	}
	surface := c.surface
	cfg := c.camera
	c.request = nil
	c.mu.Unlock()

	var viewID int64
	if surface != nil {
		viewID = surface.SurfaceID()
	}
	if err != nil {
		c.fail("styleLoad", gen, viewID, errors.KindStyle, err)
		return
	}

	// Style application may have reset the camera; place it again.
	if err := ApplyCamera(surface, cfg); err != nil {
		c.fail("reapplyCamera", gen, viewID, errors.KindCamera, err)
		return
	}
	c.settle(gen, readyState())
}

func (c *Controller) fail(op string, gen uint64, viewID int64, kind errors.ErrorKind, err error) {
	if !c.settle(gen, errorState(err)) {
		return
	}
	errors.Report(&errors.DriftError{
		Op:     "mapview." + op,
		Kind:   kind,
		ViewID: viewID,
		Err:    err,
	})
}

// settle moves generation gen from Loading to a terminal state. It reports
// false when gen is no longer current or has already settled.
func (c *Controller) settle(gen uint64, next LifecycleState) bool {
	c.mu.Lock()
	if c.disposed || gen != c.generation || c.state.Phase != PhaseLoading {
		c.mu.Unlock()
		return false
	}
	c.state = next
	c.mu.Unlock()

	errors.Logger().Debug("map view settled",
		"controller", c.name,
		"generation", gen,
		"state", next.String(),
	)
	c.notify(next)
	return true
}

func (c *Controller) releaseSurface(s Surface) {
	if s == nil {
		return
	}
	c.coordinator.SurfaceDisposed(s.SurfaceID())
	s.Release()
}

// Subscription is a registered state observer.
type Subscription struct {
	controller *Controller
	fn         func(LifecycleState)
	canceled   atomic.Bool
}

// Cancel stops delivery to this subscription. It is idempotent.
func (s *Subscription) Cancel() {
	if s.canceled.CompareAndSwap(false, true) {
		s.controller.removeSubscription(s)
	}
}

// IsCanceled reports whether Cancel has been called or the controller was
// disposed.
func (s *Subscription) IsCanceled() bool {
	return s.canceled.Load()
}

// Subscribe registers fn to receive every state transition, in order. fn is
// called on the goroutine that caused the transition, which is the owner
// thread when a dispatcher is configured. A panic in fn is recovered and
// reported.
func (c *Controller) Subscribe(fn func(LifecycleState)) *Subscription {
	s := &Subscription{controller: c, fn: fn}
	c.subsMu.Lock()
	c.subs = append(c.subs, s)
	c.subsMu.Unlock()
	return s
}

func (c *Controller) removeSubscription(s *Subscription) {
	c.subsMu.Lock()
	for i, sub := range c.subs {
		if sub == s {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.subsMu.Unlock()
}

// notify delivers state to all subscribers. Transitions raised by a
// subscriber are queued behind the one being delivered.
func (c *Controller) notify(state LifecycleState) {
	c.subsMu.Lock()
	c.queue = append(c.queue, state)
	if c.notifying {
		c.subsMu.Unlock()
		return
	}
	c.notifying = true
	for len(c.queue) > 0 {
		next := c.queue[0]
		c.queue = c.queue[1:]
		subs := make([]*Subscription, len(c.subs))
		copy(subs, c.subs)
		c.subsMu.Unlock()

		for _, s := range subs {
			if !s.IsCanceled() && s.fn != nil {
				c.invoke(s, next)
			}
		}

		c.subsMu.Lock()
	}
	c.notifying = false
	c.subsMu.Unlock()
}

func (c *Controller) invoke(s *Subscription, state LifecycleState) {
	defer errors.Recover("mapview.Controller.notify")
	s.fn(state)
}

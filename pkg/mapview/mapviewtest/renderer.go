// Package mapviewtest provides an in-memory map renderer for tests and
// simulations.
//
// Surfaces created by [Renderer] behave like a native map SDK in the ways
// that matter to the lifecycle controller: style loads complete
// asynchronously, a completed style resets the camera to the renderer's
// default, and a released surface silently drops its pending completions.
package mapviewtest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-drift/drift-maps/pkg/mapview"
	"github.com/paulmach/orb"
)

// DefaultCamera is the camera a surface jumps to when a style finishes
// loading, unless ResetCameraOnStyleLoad is disabled.
var DefaultCamera = mapview.CameraConfiguration{Center: orb.Point{0, 0}, Zoom: 0}

// Renderer is a scriptable [mapview.Renderer].
// All methods are safe for concurrent use.
type Renderer struct {
	mu       sync.Mutex
	nextID   int64
	surfaces []*Surface

	createErr    error
	loadStyleErr error

	resetCamera bool
	late        bool

	autoDelay time.Duration
	autoErr   error
	auto      bool

	createOpts []mapview.SurfaceOptions
}

// NewRenderer returns a renderer whose surfaces reset their camera when a
// style loads and whose style loads stay pending until completed by the test.
func NewRenderer() *Renderer {
	return &Renderer{resetCamera: true}
}

// FailCreate makes every subsequent CreateSurface fail with err. Pass nil to
// let creation succeed again.
func (r *Renderer) FailCreate(err error) {
	r.mu.Lock()
	r.createErr = err
	r.mu.Unlock()
}

// FailLoadStyle makes every subsequent LoadStyle return err synchronously.
func (r *Renderer) FailLoadStyle(err error) {
	r.mu.Lock()
	r.loadStyleErr = err
	r.mu.Unlock()
}

// ResetCameraOnStyleLoad controls whether completing a style moves the
// camera to [DefaultCamera].
func (r *Renderer) ResetCameraOnStyleLoad(reset bool) {
	r.mu.Lock()
	r.resetCamera = reset
	r.mu.Unlock()
}

// LateCompletions controls whether released surfaces keep their pending
// style loads so that tests can complete them after Release, the way some
// SDKs still fire callbacks for a torn-down view.
func (r *Renderer) LateCompletions(late bool) {
	r.mu.Lock()
	r.late = late
	r.mu.Unlock()
}

// AutoComplete makes style loads issued from now on complete by themselves
// after delay, from a timer goroutine, with failWith as the result.
func (r *Renderer) AutoComplete(delay time.Duration, failWith error) {
	r.mu.Lock()
	r.auto = true
	r.autoDelay = delay
	r.autoErr = failWith
	r.mu.Unlock()
}

// CreateSurface implements [mapview.Renderer].
func (r *Renderer) CreateSurface(ctx context.Context, opts mapview.SurfaceOptions) (mapview.Surface, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createOpts = append(r.createOpts, opts)
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	s := &Surface{id: r.nextID, renderer: r}
	r.surfaces = append(r.surfaces, s)
	return s, nil
}

// Surfaces returns every surface created so far, oldest first.
func (r *Renderer) Surfaces() []*Surface {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Surface, len(r.surfaces))
	copy(out, r.surfaces)
	return out
}

// Surface returns the surface with the given ID, or nil.
func (r *Renderer) Surface(id int64) *Surface {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.surfaces {
		if s.id == id {
			return s
		}
	}
	return nil
}

// Last returns the most recently created surface, or nil.
func (r *Renderer) Last() *Surface {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.surfaces) == 0 {
		return nil
	}
	return r.surfaces[len(r.surfaces)-1]
}

// CreateCalls returns the number of CreateSurface calls, failed ones
// included.
func (r *Renderer) CreateCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.createOpts)
}

// LastOptions returns the options of the most recent CreateSurface call.
func (r *Renderer) LastOptions() mapview.SurfaceOptions {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.createOpts) == 0 {
		return mapview.SurfaceOptions{}
	}
	return r.createOpts[len(r.createOpts)-1]
}

// CompleteStyle resolves the oldest pending style load of the surface. It
// reports false when the surface is unknown or has nothing pending.
func (r *Renderer) CompleteStyle(surfaceID int64, err error) bool {
	s := r.Surface(surfaceID)
	if s == nil {
		return false
	}
	return s.CompleteStyle(err)
}

// ErrReleased is returned by surface methods after Release.
var ErrReleased = errors.New("mapviewtest: surface released")

// Surface is an in-memory [mapview.Surface].
type Surface struct {
	id       int64
	renderer *Renderer

	mu        sync.Mutex
	camera    mapview.CameraConfiguration
	hasCamera bool
	history   []mapview.CameraConfiguration
	styles    []string
	pending   []func(error)
	released  bool
}

// SurfaceID implements [mapview.Surface].
func (s *Surface) SurfaceID() int64 { return s.id }

// SetCamera implements [mapview.Surface].
func (s *Surface) SetCamera(cfg mapview.CameraConfiguration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrReleased
	}
	s.camera = cfg
	s.hasCamera = true
	s.history = append(s.history, cfg)
	return nil
}

// LoadStyle implements [mapview.Surface].
func (s *Surface) LoadStyle(styleURL string, done func(error)) error {
	s.renderer.mu.Lock()
	failErr := s.renderer.loadStyleErr
	auto, delay, autoErr := s.renderer.auto, s.renderer.autoDelay, s.renderer.autoErr
	s.renderer.mu.Unlock()

	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return ErrReleased
	}
	if failErr != nil {
		s.mu.Unlock()
		return failErr
	}
	s.styles = append(s.styles, styleURL)
	s.pending = append(s.pending, done)
	s.mu.Unlock()

	if auto {
		time.AfterFunc(delay, func() { s.CompleteStyle(autoErr) })
	}
	return nil
}

// Release implements [mapview.Surface]. Pending style loads are dropped
// without being completed unless the renderer keeps late completions.
func (s *Surface) Release() {
	s.renderer.mu.Lock()
	late := s.renderer.late
	s.renderer.mu.Unlock()

	s.mu.Lock()
	s.released = true
	if !late {
		s.pending = nil
	}
	s.mu.Unlock()
}

// CompleteStyle resolves the oldest pending style load. A successful load
// resets the camera first when the renderer is configured to.
func (s *Surface) CompleteStyle(err error) bool {
	s.renderer.mu.Lock()
	reset := s.renderer.resetCamera
	s.renderer.mu.Unlock()

	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return false
	}
	done := s.pending[0]
	s.pending = s.pending[1:]
	if err == nil && reset && !s.released {
		s.camera = DefaultCamera
	}
	s.mu.Unlock()

	done(err)
	return true
}

// Camera returns the camera currently shown.
func (s *Surface) Camera() (mapview.CameraConfiguration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera, s.hasCamera
}

// CameraHistory returns every camera applied through SetCamera.
func (s *Surface) CameraHistory() []mapview.CameraConfiguration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]mapview.CameraConfiguration, len(s.history))
	copy(out, s.history)
	return out
}

// StyleURLs returns the URLs passed to LoadStyle.
func (s *Surface) StyleURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.styles))
	copy(out, s.styles)
	return out
}

// PendingStyles returns the number of unresolved style loads.
func (s *Surface) PendingStyles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Released reports whether Release was called.
func (s *Surface) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

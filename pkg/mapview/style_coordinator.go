package mapview

import "sync"

// StyleRequest is a single style load issued against one surface. Its result
// is delivered exactly once, through the callback given to
// [StyleLoadCoordinator.RequestLoad] and through [StyleRequest.Done].
type StyleRequest struct {
	// Generation is the controller generation that issued the request.
	Generation uint64
	// Style is the style being loaded.
	Style Style
	// SurfaceID identifies the target surface.
	SurfaceID int64

	once       sync.Once
	done       chan struct{}
	err        error
	onComplete func(error)
}

// Done returns a channel closed once the request has completed.
func (r *StyleRequest) Done() <-chan struct{} {
	return r.done
}

// Err returns the completion error. It is only meaningful after Done is
// closed; nil means the style loaded.
func (r *StyleRequest) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Completed reports whether the request has resolved.
func (r *StyleRequest) Completed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// complete resolves the request. Only the first call has any effect.
func (r *StyleRequest) complete(err error) bool {
	fired := false
	r.once.Do(func() {
		fired = true
		r.err = err
		close(r.done)
		if r.onComplete != nil {
			r.onComplete(err)
		}
	})
	return fired
}

// StyleLoadCoordinator tracks style loads per surface. It guarantees that
// every request resolves exactly once, including when the surface is torn
// down first, and that a surface never has more than one outstanding request.
//
// All methods are safe for concurrent use.
type StyleLoadCoordinator struct {
	mu      sync.Mutex
	pending map[int64]*StyleRequest // keyed by surface ID
}

// NewStyleLoadCoordinator returns an empty coordinator.
func NewStyleLoadCoordinator() *StyleLoadCoordinator {
	return &StyleLoadCoordinator{pending: make(map[int64]*StyleRequest)}
}

// RequestLoad asks surface to load style. onComplete is called exactly once
// with nil on success, a [*StyleLoadError] on failure, [ErrSurfaceDisposed]
// if the surface is released first, or [ErrRequestSuperseded] if another
// request replaces this one. onComplete may run on any goroutine, and may run
// before RequestLoad returns.
func (c *StyleLoadCoordinator) RequestLoad(surface Surface, style Style, generation uint64, onComplete func(error)) *StyleRequest {
	req := &StyleRequest{
		Generation: generation,
		Style:      style,
		SurfaceID:  surface.SurfaceID(),
		done:       make(chan struct{}),
		onComplete: onComplete,
	}

	c.mu.Lock()
	prev := c.pending[req.SurfaceID]
	c.pending[req.SurfaceID] = req
	c.mu.Unlock()

	if prev != nil {
		prev.complete(ErrRequestSuperseded)
	}

	err := surface.LoadStyle(style.URL, func(err error) {
		c.finish(req, normalizeStyleError(style.ID, err))
	})
	if err != nil {
		c.finish(req, normalizeStyleError(style.ID, err))
	}
	return req
}

// SurfaceDisposed resolves the outstanding request of the surface, if any,
// with [ErrSurfaceDisposed]. Call it before releasing a surface.
func (c *StyleLoadCoordinator) SurfaceDisposed(surfaceID int64) {
	c.mu.Lock()
	req := c.pending[surfaceID]
	delete(c.pending, surfaceID)
	c.mu.Unlock()

	if req != nil {
		req.complete(ErrSurfaceDisposed)
	}
}

// Pending returns the number of unresolved requests.
func (c *StyleLoadCoordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *StyleLoadCoordinator) finish(req *StyleRequest, err error) {
	c.mu.Lock()
	if c.pending[req.SurfaceID] == req {
		delete(c.pending, req.SurfaceID)
	}
	c.mu.Unlock()

	req.complete(err)
}

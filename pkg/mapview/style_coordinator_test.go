package mapview_test

import (
	"context"
	"errors"
	"testing"

	"github.com/go-drift/drift-maps/pkg/mapview"
	"github.com/go-drift/drift-maps/pkg/mapview/mapviewtest"
)

var streets = mapview.Style{ID: "streets", URL: "mapbox://styles/mapbox/streets-v12"}

func newTestSurface(t *testing.T, r *mapviewtest.Renderer) *mapviewtest.Surface {
	t.Helper()
	s, err := r.CreateSurface(context.Background(), mapview.SurfaceOptions{})
	if err != nil {
		t.Fatalf("CreateSurface: %v", err)
	}
	return s.(*mapviewtest.Surface)
}

// completionRecorder counts callback invocations.
type completionRecorder struct {
	calls []error
}

func (r *completionRecorder) record(err error) {
	r.calls = append(r.calls, err)
}

func TestStyleLoadCoordinator_Success(t *testing.T) {
	renderer := mapviewtest.NewRenderer()
	surface := newTestSurface(t, renderer)
	coord := mapview.NewStyleLoadCoordinator()
	rec := &completionRecorder{}

	req := coord.RequestLoad(surface, streets, 1, rec.record)
	if req.Generation != 1 || req.SurfaceID != surface.SurfaceID() || req.Style != streets {
		t.Errorf("request = %+v, want generation 1 on surface %d", req, surface.SurfaceID())
	}
	if coord.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", coord.Pending())
	}
	if req.Completed() {
		t.Fatal("request should not be completed before the surface reports")
	}
	if got := surface.StyleURLs(); len(got) != 1 || got[0] != streets.URL {
		t.Errorf("StyleURLs() = %v, want [%s]", got, streets.URL)
	}

	surface.CompleteStyle(nil)

	if len(rec.calls) != 1 || rec.calls[0] != nil {
		t.Fatalf("callbacks = %v, want one nil", rec.calls)
	}
	select {
	case <-req.Done():
	default:
		t.Fatal("Done() should be closed")
	}
	if req.Err() != nil {
		t.Errorf("Err() = %v, want nil", req.Err())
	}
	if coord.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", coord.Pending())
	}
}

func TestStyleLoadCoordinator_FiresExactlyOnce(t *testing.T) {
	renderer := mapviewtest.NewRenderer()
	renderer.LateCompletions(true)
	surface := newTestSurface(t, renderer)
	coord := mapview.NewStyleLoadCoordinator()
	rec := &completionRecorder{}

	coord.RequestLoad(surface, streets, 1, rec.record)
	coord.SurfaceDisposed(surface.SurfaceID())
	surface.Release()
	surface.CompleteStyle(nil)
	coord.SurfaceDisposed(surface.SurfaceID())

	if len(rec.calls) != 1 {
		t.Fatalf("callback fired %d times, want 1", len(rec.calls))
	}
	if !errors.Is(rec.calls[0], mapview.ErrSurfaceDisposed) {
		t.Errorf("callback error = %v, want ErrSurfaceDisposed", rec.calls[0])
	}
}

func TestStyleLoadCoordinator_DisposedBeforeCompletion(t *testing.T) {
	renderer := mapviewtest.NewRenderer()
	surface := newTestSurface(t, renderer)
	coord := mapview.NewStyleLoadCoordinator()
	rec := &completionRecorder{}

	req := coord.RequestLoad(surface, streets, 3, rec.record)
	coord.SurfaceDisposed(surface.SurfaceID())
	surface.Release()

	if len(rec.calls) != 1 || !errors.Is(rec.calls[0], mapview.ErrSurfaceDisposed) {
		t.Fatalf("callbacks = %v, want [ErrSurfaceDisposed]", rec.calls)
	}
	if !errors.Is(req.Err(), mapview.ErrSurfaceDisposed) {
		t.Errorf("Err() = %v, want ErrSurfaceDisposed", req.Err())
	}
	if surface.CompleteStyle(nil) {
		t.Error("released surface should have dropped its pending load")
	}
}

func TestStyleLoadCoordinator_SupersedesPreviousRequest(t *testing.T) {
	renderer := mapviewtest.NewRenderer()
	surface := newTestSurface(t, renderer)
	coord := mapview.NewStyleLoadCoordinator()
	first := &completionRecorder{}
	second := &completionRecorder{}

	coord.RequestLoad(surface, streets, 1, first.record)
	coord.RequestLoad(surface, mapview.Style{ID: "dark", URL: "mapbox://styles/mapbox/dark-v11"}, 2, second.record)

	if len(first.calls) != 1 || !errors.Is(first.calls[0], mapview.ErrRequestSuperseded) {
		t.Fatalf("first callbacks = %v, want [ErrRequestSuperseded]", first.calls)
	}
	if coord.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", coord.Pending())
	}

	// The surface answers the first load; it must not resolve the second.
	surface.CompleteStyle(nil)
	if len(second.calls) != 0 {
		t.Fatalf("second request resolved by the first load: %v", second.calls)
	}
	surface.CompleteStyle(nil)
	if len(second.calls) != 1 || second.calls[0] != nil {
		t.Errorf("second callbacks = %v, want one nil", second.calls)
	}
}

func TestStyleLoadCoordinator_NormalizesFailures(t *testing.T) {
	renderer := mapviewtest.NewRenderer()
	surface := newTestSurface(t, renderer)
	coord := mapview.NewStyleLoadCoordinator()
	rec := &completionRecorder{}

	coord.RequestLoad(surface, streets, 1, rec.record)
	surface.CompleteStyle(errors.New("HTTP 404"))

	if len(rec.calls) != 1 {
		t.Fatalf("callbacks = %d, want 1", len(rec.calls))
	}
	err := rec.calls[0]
	if !errors.Is(err, mapview.ErrStyleLoadFailed) {
		t.Errorf("error %v should match ErrStyleLoadFailed", err)
	}
	var sle *mapview.StyleLoadError
	if !errors.As(err, &sle) {
		t.Fatalf("error %T should be *StyleLoadError", err)
	}
	if sle.StyleID != "streets" || sle.Code != mapview.ErrCodeLoadFailed || sle.Reason != "HTTP 404" {
		t.Errorf("StyleLoadError = %+v", sle)
	}
}

func TestStyleLoadCoordinator_SynchronousLoadError(t *testing.T) {
	renderer := mapviewtest.NewRenderer()
	renderer.FailLoadStyle(&mapview.StyleLoadError{Code: mapview.ErrCodeStyleParse, Reason: "unexpected token"})
	surface := newTestSurface(t, renderer)
	coord := mapview.NewStyleLoadCoordinator()
	rec := &completionRecorder{}

	req := coord.RequestLoad(surface, streets, 1, rec.record)

	if !req.Completed() {
		t.Fatal("request should complete when LoadStyle fails synchronously")
	}
	var sle *mapview.StyleLoadError
	if !errors.As(req.Err(), &sle) {
		t.Fatalf("Err() = %v, want *StyleLoadError", req.Err())
	}
	if sle.StyleID != "streets" || sle.Code != mapview.ErrCodeStyleParse {
		t.Errorf("StyleLoadError = %+v, want style streets code %s", sle, mapview.ErrCodeStyleParse)
	}
	if coord.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", coord.Pending())
	}
	if len(rec.calls) != 1 {
		t.Errorf("callbacks = %d, want 1", len(rec.calls))
	}
}

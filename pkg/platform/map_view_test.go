package platform

import (
	"context"
	"errors"
	"testing"

	"github.com/go-drift/drift-maps/pkg/mapview"
	"github.com/paulmach/orb"
)

var testCamera = mapview.CameraConfiguration{
	Center:  orb.Point{16.3738, 48.2082},
	Zoom:    13.5,
	Pitch:   45,
	Bearing: 10,
}

func newTestMapView(t *testing.T) *NativeMapView {
	t.Helper()
	s, err := NewMapRenderer().CreateSurface(context.Background(), mapview.SurfaceOptions{
		AccessToken: "pk.test",
		Params:      map[string]any{"attribution": false},
	})
	if err != nil {
		t.Fatalf("CreateSurface: %v", err)
	}
	return s.(*NativeMapView)
}

func TestMapRenderer_CreateSurface(t *testing.T) {
	bridge := setupTestBridge(t)

	view := newTestMapView(t)

	if view.SurfaceID() == 0 {
		t.Error("expected a non-zero surface ID")
	}
	creates := bridge.methodCalls("create")
	if len(creates) != 1 {
		t.Fatalf("create calls = %d, want 1", len(creates))
	}
	args := creates[0].args
	if args["viewType"] != MapViewType {
		t.Errorf("viewType = %v, want %s", args["viewType"], MapViewType)
	}
	params, _ := args["params"].(map[string]any)
	if params["accessToken"] != "pk.test" || params["attribution"] != false {
		t.Errorf("params = %v", params)
	}
}

func TestMapRenderer_CreateSurfaceFailures(t *testing.T) {
	t.Run("canceled context", func(t *testing.T) {
		setupTestBridge(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := NewMapRenderer().CreateSurface(ctx, mapview.SurfaceOptions{}); !errors.Is(err, context.Canceled) {
			t.Errorf("CreateSurface() error = %v, want context.Canceled", err)
		}
	})
	t.Run("native failure", func(t *testing.T) {
		bridge := setupTestBridge(t)
		bridge.failOn("create", NewChannelError("no_gl", "no GL context"))
		if _, err := NewMapRenderer().CreateSurface(context.Background(), mapview.SurfaceOptions{}); err == nil {
			t.Error("expected an error")
		}
		if GetPlatformViewRegistry().ViewCount() != 0 {
			t.Error("failed view should not stay registered")
		}
	})
	t.Run("no bridge", func(t *testing.T) {
		t.Cleanup(ResetForTest)
		ResetForTest()
		_, err := NewMapRenderer().CreateSurface(context.Background(), mapview.SurfaceOptions{})
		if !errors.Is(err, ErrPlatformUnavailable) {
			t.Errorf("CreateSurface() error = %v, want ErrPlatformUnavailable", err)
		}
	})
}

func TestNativeMapView_SetCamera(t *testing.T) {
	bridge := setupTestBridge(t)
	view := newTestMapView(t)

	if err := view.SetCamera(testCamera); err != nil {
		t.Fatalf("SetCamera: %v", err)
	}

	calls := bridge.viewCalls("setCamera")
	if len(calls) != 1 {
		t.Fatalf("setCamera calls = %d, want 1", len(calls))
	}
	want := map[string]float64{
		"longitude": 16.3738,
		"latitude":  48.2082,
		"zoom":      13.5,
		"pitch":     45,
		"bearing":   10,
	}
	for k, v := range want {
		if calls[0].args[k] != v {
			t.Errorf("%s = %v, want %v", k, calls[0].args[k], v)
		}
	}
}

func TestNativeMapView_StyleLoaded(t *testing.T) {
	bridge := setupTestBridge(t)
	view := newTestMapView(t)

	var results []error
	if err := view.LoadStyle("mapbox://styles/mapbox/streets-v12", func(err error) { results = append(results, err) }); err != nil {
		t.Fatalf("LoadStyle: %v", err)
	}
	calls := bridge.viewCalls("loadStyle")
	if len(calls) != 1 || calls[0].args["styleUrl"] != "mapbox://styles/mapbox/streets-v12" {
		t.Fatalf("loadStyle calls = %+v", calls)
	}

	SendViewEvent(view.ViewID(), "onStyleLoaded", map[string]any{"requestId": calls[0].args["requestId"]})
	SendViewEvent(view.ViewID(), "onStyleLoaded", nil)

	if len(results) != 1 || results[0] != nil {
		t.Errorf("results = %v, want one nil", results)
	}
	if view.PendingStyles() != 0 {
		t.Errorf("PendingStyles() = %d, want 0", view.PendingStyles())
	}
}

func TestNativeMapView_RepeatedResultIsDropped(t *testing.T) {
	bridge := setupTestBridge(t)
	view := newTestMapView(t)

	var resolved []string
	for _, name := range []string{"a", "b"} {
		if err := view.LoadStyle("mapbox://styles/test/"+name, func(error) { resolved = append(resolved, name) }); err != nil {
			t.Fatalf("LoadStyle(%s): %v", name, err)
		}
	}
	first := bridge.viewCalls("loadStyle")[0].args["requestId"]

	SendViewEvent(view.ViewID(), "onStyleLoaded", map[string]any{"requestId": first})
	SendViewEvent(view.ViewID(), "onStyleLoaded", map[string]any{"requestId": first})
	SendViewEvent(view.ViewID(), "onStyleError", map[string]any{"requestId": int64(999), "message": "late"})

	if len(resolved) != 1 || resolved[0] != "a" {
		t.Errorf("resolved = %v, want [a]", resolved)
	}
	if view.PendingStyles() != 1 {
		t.Errorf("PendingStyles() = %d, want 1", view.PendingStyles())
	}
}

func TestNativeMapView_ResultWithoutRequestIDTakesOldest(t *testing.T) {
	setupTestBridge(t)
	view := newTestMapView(t)

	var resolved []string
	for _, name := range []string{"a", "b"} {
		if err := view.LoadStyle("mapbox://styles/test/"+name, func(error) { resolved = append(resolved, name) }); err != nil {
			t.Fatalf("LoadStyle(%s): %v", name, err)
		}
	}

	SendViewEvent(view.ViewID(), "onStyleLoaded", nil)

	if len(resolved) != 1 || resolved[0] != "a" {
		t.Errorf("resolved = %v, want [a]", resolved)
	}
}

func TestNativeMapView_StyleError(t *testing.T) {
	setupTestBridge(t)
	view := newTestMapView(t)

	var got error
	view.LoadStyle("mapbox://styles/mapbox/dark-v11", func(err error) { got = err })
	SendViewEvent(view.ViewID(), "onStyleError", map[string]any{
		"code":    mapview.ErrCodeNetworkError,
		"message": "The Internet connection appears to be offline.",
	})

	var sle *mapview.StyleLoadError
	if !errors.As(got, &sle) {
		t.Fatalf("error = %v, want *StyleLoadError", got)
	}
	if sle.Code != mapview.ErrCodeNetworkError || sle.Reason != "The Internet connection appears to be offline." {
		t.Errorf("StyleLoadError = %+v", sle)
	}
	var ce *ChannelError
	if !errors.As(got, &ce) {
		t.Error("error should wrap the native ChannelError")
	}
}

func TestNativeMapView_StyleErrorDefaultsCode(t *testing.T) {
	setupTestBridge(t)
	view := newTestMapView(t)

	var got error
	view.LoadStyle("mapbox://styles/mapbox/dark-v11", func(err error) { got = err })
	SendViewEvent(view.ViewID(), "onStyleError", map[string]any{"message": "bad sprite"})

	var sle *mapview.StyleLoadError
	if !errors.As(got, &sle) || sle.Code != mapview.ErrCodeLoadFailed {
		t.Errorf("error = %v, want code %s", got, mapview.ErrCodeLoadFailed)
	}
}

func TestNativeMapView_LoadStyleInvokeFailure(t *testing.T) {
	bridge := setupTestBridge(t)
	view := newTestMapView(t)
	bridge.failOn("invokeViewMethod:loadStyle", NewChannelError("busy", "style manager busy"))

	called := false
	err := view.LoadStyle("mapbox://styles/mapbox/streets-v12", func(error) { called = true })
	if err == nil {
		t.Fatal("expected LoadStyle to fail")
	}
	if called {
		t.Error("done must not run when LoadStyle returns an error")
	}
	if view.PendingStyles() != 0 {
		t.Errorf("PendingStyles() = %d, want 0", view.PendingStyles())
	}
}

func TestNativeMapView_Release(t *testing.T) {
	bridge := setupTestBridge(t)
	view := newTestMapView(t)

	called := false
	view.LoadStyle("mapbox://styles/mapbox/streets-v12", func(error) { called = true })
	view.Release()
	view.Release()

	if n := len(bridge.methodCalls("dispose")); n != 1 {
		t.Errorf("dispose calls = %d, want 1", n)
	}
	if err := view.SetCamera(testCamera); !errors.Is(err, ErrDisposed) {
		t.Errorf("SetCamera after Release = %v, want ErrDisposed", err)
	}
	if err := view.LoadStyle("x", func(error) {}); !errors.Is(err, ErrDisposed) {
		t.Errorf("LoadStyle after Release = %v, want ErrDisposed", err)
	}
	SendViewEvent(view.ViewID(), "onStyleLoaded", nil)
	if called {
		t.Error("released view must not resolve its pending load")
	}
}

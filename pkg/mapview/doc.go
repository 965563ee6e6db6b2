// Package mapview coordinates the lifecycle of an embedded map view.
//
// A [Controller] owns one map surface at a time. Initialization creates the
// surface through a [Renderer], places the camera, and asks the surface to
// load a style. Style loading completes asynchronously; when it succeeds the
// controller applies the camera a second time, because map SDKs commonly reset
// camera state while applying a style, and only then reports
// [PhaseReady]. Failures become [PhaseError] with the failure description.
//
// Every call to [Controller.Initialize] or [Controller.Reinitialize] starts a
// new generation. Style completions are tagged with the generation that issued
// them and are dropped when the controller has moved on, so a slow style load
// from a superseded surface never touches the current one.
//
// UI code observes the controller rather than mirroring its state in local
// flags:
//
//	ctrl := platform.NewMapController()
//	ctrl.Subscribe(func(s mapview.LifecycleState) {
//	    switch s.Phase {
//	    case mapview.PhaseLoading: // show spinner
//	    case mapview.PhaseReady:   // hide spinner
//	    case mapview.PhaseError:   // show s.Message with a retry button
//	    }
//	})
//	cam, _ := mapview.NewCameraConfiguration(orb.Point{16.3738, 48.2082}, 13.5, 45, 10)
//	ctrl.Initialize(cam, "streets")
package mapview

package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-drift/drift-maps/cmd/driftmaps/internal/config"
	drifterrors "github.com/go-drift/drift-maps/pkg/errors"
	"github.com/go-drift/drift-maps/pkg/mapview"
	"github.com/go-drift/drift-maps/pkg/mapview/mapviewtest"
)

func init() {
	RegisterCommand(&Command{
		Name:  "simulate",
		Short: "Run the map view lifecycle headlessly",
		Long: `Run one map view through its lifecycle against an in-memory renderer and
print every state transition.

The renderer behaves like a native map SDK: style loads complete after the
configured latency on another goroutine, and a loaded style resets the camera,
which the controller then re-applies. Completions are handed back to an event
loop running on the main goroutine.

Flags:
  --latency DURATION     Style load latency (default 150ms)
  --fail-surface[=MSG]   Make surface creation fail
  --fail-style[=MSG]     Make the style load fail
  --reinit PRESET        Reinitialize with PRESET while the first style loads
  --timeout DURATION     Give up after DURATION (default 10s)

The preset defaults to the first preset of the project.`,
		Usage: "driftmaps simulate [flags] [preset]",
		Run:   runSimulate,
	})
}

type simulateOptions struct {
	preset      string
	reinit      string
	latency     time.Duration
	timeout     time.Duration
	failSurface string
	failStyle   string
}

func parseSimulateArgs(args []string) (simulateOptions, error) {
	opts := simulateOptions{
		latency: 150 * time.Millisecond,
		timeout: 10 * time.Second,
	}
	duration := func(name, value string) (time.Duration, error) {
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return 0, fmt.Errorf("%s: invalid duration %q", name, value)
		}
		return d, nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, hasValue := strings.Cut(arg, "=")
		next := func() (string, error) {
			if hasValue {
				return value, nil
			}
			if i+1 >= len(args) {
				return "", fmt.Errorf("%s requires a value", name)
			}
			i++
			return args[i], nil
		}

		var err error
		switch name {
		case "--latency":
			var v string
			if v, err = next(); err == nil {
				opts.latency, err = duration(name, v)
			}
		case "--timeout":
			var v string
			if v, err = next(); err == nil {
				opts.timeout, err = duration(name, v)
			}
		case "--reinit":
			opts.reinit, err = next()
		case "--fail-surface":
			opts.failSurface = "surface creation failed"
			if hasValue {
				opts.failSurface = value
			}
		case "--fail-style":
			opts.failStyle = "style load failed"
			if hasValue {
				opts.failStyle = value
			}
		default:
			if strings.HasPrefix(arg, "-") {
				return opts, fmt.Errorf("unknown flag %q", arg)
			}
			if opts.preset != "" {
				return opts, fmt.Errorf("unexpected argument %q", arg)
			}
			opts.preset = arg
		}
		if err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func runSimulate(args []string) error {
	opts, err := parseSimulateArgs(args)
	if err != nil {
		return err
	}
	cfg, err := loadProject()
	if err != nil {
		return err
	}
	state, err := simulate(cfg, opts)
	if err != nil {
		return err
	}
	if state.IsError() {
		return fmt.Errorf("map view ended in %s", state)
	}
	return nil
}

// errSimulationTimeout is returned when the lifecycle does not settle in time.
var errSimulationTimeout = errors.New("simulation timed out")

// simulate drives one controller to a terminal state and returns it.
func simulate(cfg *config.Resolved, opts simulateOptions) (mapview.LifecycleState, error) {
	first, err := pickPreset(cfg.Presets, opts.preset)
	if err != nil {
		return mapview.LifecycleState{}, err
	}
	var second *mapview.Preset
	if opts.reinit != "" {
		p, err := pickPreset(cfg.Presets, opts.reinit)
		if err != nil {
			return mapview.LifecycleState{}, err
		}
		second = &p
	}

	renderer := mapviewtest.NewRenderer()
	var styleErr error
	if opts.failStyle != "" {
		styleErr = &mapview.StyleLoadError{Code: mapview.ErrCodeLoadFailed, Reason: opts.failStyle}
	}
	renderer.AutoComplete(opts.latency, styleErr)
	if opts.failSurface != "" {
		renderer.FailCreate(errors.New(opts.failSurface))
	}

	// Completions arrive on timer goroutines and are run here, on the
	// goroutine that owns the controller.
	loop := make(chan func(), 16)
	ctrl := mapview.NewController(renderer,
		mapview.WithName("simulate"),
		mapview.WithStyleCatalog(cfg.Catalog),
		mapview.WithSurfaceOptions(mapview.SurfaceOptions{AccessToken: cfg.AccessToken}),
		mapview.WithDispatcher(func(fn func()) bool {
			loop <- fn
			return true
		}),
	)
	defer ctrl.Dispose()

	start := time.Now()
	ctrl.Subscribe(func(s mapview.LifecycleState) {
		fmt.Fprintf(stdout, "%s %s %s\n",
			dimStyle.Render(fmt.Sprintf("%7.1fms", float64(time.Since(start).Microseconds())/1000)),
			dimStyle.Render(fmt.Sprintf("gen=%d", ctrl.Generation())),
			phaseStyle(s.Phase).Render(s.String()),
		)
	})

	fmt.Fprintf(stdout, "%s %s %s\n", titleStyle.Render(first.Name), labelStyle.Render(first.StyleID), dimStyle.Render(first.Camera.String()))
	if err := ctrl.Initialize(first.Camera, first.StyleID); err != nil {
		return mapview.LifecycleState{}, err
	}
	want := first.Camera
	if second != nil {
		fmt.Fprintf(stdout, "%s %s %s\n", titleStyle.Render(second.Name), labelStyle.Render(second.StyleID), dimStyle.Render(second.Camera.String()))
		if err := ctrl.Reinitialize(second.Camera, second.StyleID); err != nil {
			return mapview.LifecycleState{}, err
		}
		want = second.Camera
	}

	timeout := time.NewTimer(opts.timeout)
	defer timeout.Stop()
	for !ctrl.CurrentState().Phase.Terminal() {
		select {
		case fn := <-loop:
			if err := runCompletion(fn); err != nil {
				return ctrl.CurrentState(), err
			}
		case <-timeout.C:
			return ctrl.CurrentState(), errSimulationTimeout
		}
	}

	state := ctrl.CurrentState()
	if state.IsReady() {
		if cam, ok := renderer.Last().Camera(); ok {
			mark := okStyle.Render("camera restored")
			if !cam.Equal(want) {
				mark = errStyle.Render("camera mismatch: " + cam.String())
			}
			fmt.Fprintln(stdout, mark)
		}
	}
	if n := ctrl.StaleCompletions(); n > 0 {
		fmt.Fprintln(stdout, dimStyle.Render(fmt.Sprintf("discarded %d stale completion(s)", n)))
	}
	return state, nil
}

// runCompletion runs one event loop callback. A panic is reported and ends
// the simulation.
func runCompletion(fn func()) (err error) {
	defer drifterrors.RecoverWithCallback("driftmaps.simulate", func(r any) {
		err = fmt.Errorf("completion panicked: %v", r)
	})
	fn()
	return nil
}

func pickPreset(presets *mapview.PresetSet, name string) (mapview.Preset, error) {
	if name == "" {
		all := presets.All()
		if len(all) == 0 {
			return mapview.Preset{}, fmt.Errorf("no presets configured")
		}
		return all[0], nil
	}
	p, ok := presets.Lookup(name)
	if !ok {
		return mapview.Preset{}, fmt.Errorf("unknown preset %q", name)
	}
	return p, nil
}

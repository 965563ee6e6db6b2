package mapview

// Phase is the coarse lifecycle position of a map view.
type Phase int

const (
	// PhaseUninitialized indicates no initialization has been requested yet.
	PhaseUninitialized Phase = iota

	// PhaseLoading indicates a surface exists (or is being created) and its
	// style has not finished loading.
	PhaseLoading

	// PhaseReady indicates the style loaded and the camera was re-applied.
	PhaseReady

	// PhaseError indicates the current attempt failed. The attempt is over;
	// only [Controller.Reinitialize] leaves this phase.
	PhaseError
)

// String returns a human-readable label for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "Uninitialized"
	case PhaseLoading:
		return "Loading"
	case PhaseReady:
		return "Ready"
	case PhaseError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the phase ends an initialization attempt.
func (p Phase) Terminal() bool {
	return p == PhaseReady || p == PhaseError
}

// LifecycleState is the single source of truth a UI renders from. Message
// and Err are only set in [PhaseError].
type LifecycleState struct {
	Phase Phase

	// Message is the failure description shown to the user.
	Message string

	// Err is the underlying failure. It matches the sentinels of this
	// package with errors.Is.
	Err error
}

// IsLoading reports whether the state is [PhaseLoading].
func (s LifecycleState) IsLoading() bool { return s.Phase == PhaseLoading }

// IsReady reports whether the state is [PhaseReady].
func (s LifecycleState) IsReady() bool { return s.Phase == PhaseReady }

// IsError reports whether the state is [PhaseError].
func (s LifecycleState) IsError() bool { return s.Phase == PhaseError }

func (s LifecycleState) String() string {
	if s.Phase == PhaseError {
		return "Error(" + s.Message + ")"
	}
	return s.Phase.String()
}

func loadingState() LifecycleState { return LifecycleState{Phase: PhaseLoading} }

func readyState() LifecycleState { return LifecycleState{Phase: PhaseReady} }

func errorState(err error) LifecycleState {
	return LifecycleState{Phase: PhaseError, Message: failureMessage(err), Err: err}
}

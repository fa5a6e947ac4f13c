package camera

// Camera is the high-level interface used by the rest of the application.
// It represents an abstract "camera", regardless of how it's controlled
// (GPIO remote cable, USB/PTP, network protocol, etc.).
type Camera interface {
	// Trigger fires a single exposure.
	Trigger() error
	// HalfPress engages the autofocus line and holds it.
	HalfPress() error
	// ReleaseHalfPress releases the autofocus line (unless focus is locked).
	ReleaseHalfPress() error
	// FocusState reports whether focus is acquired; >0 means acquired.
	FocusState() (int, error)
	// FocusValue returns an opaque focus datum for logging. Its meaning is
	// backend-specific; a bare remote cable only knows the confirm state.
	FocusValue() int
	// LockFocus holds (true) or releases (false) the acquired focus so
	// subsequent triggers do not re-run autofocus.
	LockFocus(enabled bool) error
}

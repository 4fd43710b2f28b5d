package syncer

// State is a step of the per-asset sync state machine.
type State int

// States in pipeline order. Failed is reachable from any non-terminal state.
const (
	StateStart State = iota
	StateCheckVersion
	StateUpToDate
	StateUpdating
	StateDownloading
	StateInstalling
	StatePersisting
	StateDone
	StateFailed
)

var stateNames = [...]string{ //nolint:gochecknoglobals // Read-only lookup table.
	StateStart:        "Start",
	StateCheckVersion: "CheckVersion",
	StateUpToDate:     "UpToDate",
	StateUpdating:     "Updating",
	StateDownloading:  "Downloading",
	StateInstalling:   "Installing",
	StatePersisting:   "Persisting",
	StateDone:         "Done",
	StateFailed:       "Failed",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}

	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Result summarizes one asset run.
type Result struct {
	// Asset is the asset name.
	Asset string
	// State is the final state.
	State State
	// LocalTag is the tag stored before the run.
	LocalTag string
	// RemoteTag is the resolved upstream tag, empty when resolution failed.
	RemoteTag string
	// Updated is true when the stored tag was replaced.
	Updated bool
	// Repair is true when a missing or empty installed tree forced the update.
	Repair bool
	// Installed lists the platforms installed during the run, in install order.
	Installed []string
	// Transitions lists every state entered, starting with StateStart.
	Transitions []State
}

func (r *Result) enter(s State) {
	r.State = s
	r.Transitions = append(r.Transitions, s)
}

package churn

// State is a step of a churn session.
type State int

const (
	StateValidating State = iota
	StateProvisioning
	StateFirstSweep
	StateScheduling
	StateWaiting
	StateSweeping
	StateFinalSweep
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateValidating:   "validating",
	StateProvisioning: "provisioning",
	StateFirstSweep:   "first_sweep",
	StateScheduling:   "scheduling",
	StateWaiting:      "waiting",
	StateSweeping:     "sweeping",
	StateFinalSweep:   "final_sweep",
	StateDone:         "done",
	StateFailed:       "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

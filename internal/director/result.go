package director

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/spawndirector/internal/model"
	"github.com/udisondev/spawndirector/internal/scheduler"
)

var (
	// ErrUnknownProfile is returned for areas without a running profile worker.
	ErrUnknownProfile = errors.New("unknown spawn profile")
	// ErrWorkerStopped is returned when a profile worker exited for good.
	ErrWorkerStopped = errors.New("profile worker stopped")
	// ErrNotStarted is returned by calls that need Start to have run.
	ErrNotStarted = errors.New("director not started")
)

// Outcome is what a scheduling opportunity resulted in.
type Outcome int

const (
	OutcomeSpawned Outcome = iota
	OutcomeInactive
	OutcomeCooling
	OutcomeCapReached
	OutcomeNoEligibleGroup
	OutcomeNoneSelected
	OutcomeEmptyWave
	OutcomeCapRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSpawned:
		return "spawned"
	case OutcomeInactive:
		return "inactive"
	case OutcomeCooling:
		return "cooling"
	case OutcomeCapReached:
		return "cap_reached"
	case OutcomeNoEligibleGroup:
		return "no_eligible_group"
	case OutcomeNoneSelected:
		return "none_selected"
	case OutcomeEmptyWave:
		return "empty_wave"
	case OutcomeCapRejected:
		return "cap_rejected"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

func outcomeFor(r scheduler.Reason) Outcome {
	switch r {
	case scheduler.ReasonCooling:
		return OutcomeCooling
	case scheduler.ReasonCapReached:
		return OutcomeCapReached
	default:
		return OutcomeInactive
	}
}

// Result describes one scheduling decision.
type Result struct {
	Area      string
	Outcome   Outcome
	WaveID    uuid.UUID
	Group     string
	Instances []model.InstanceID
	Failed    int  // descriptors the spawner could not instantiate
	Truncated int  // creatures cut by CapTruncate
	MiniBoss  bool // the wave carried a miniboss
}

// Spawned reports whether a wave was submitted.
func (r Result) Spawned() bool {
	return r.Outcome == OutcomeSpawned
}

// Status is a point-in-time view of a profile worker.
type Status struct {
	Area              string
	ProfileActive     bool
	Deactivated       bool
	Phase             scheduler.Phase
	ActiveCount       int
	CooldownRemaining time.Duration
	Groups            int
	Restarts          int
}

// CapPolicy decides what happens to a wave larger than the remaining cap.
type CapPolicy string

const (
	// CapReject drops the whole wave before submission.
	CapReject CapPolicy = "reject"
	// CapTruncate submits only as many creatures as fit, miniboss dropped first.
	CapTruncate CapPolicy = "truncate"
)

// ParseCapPolicy validates a policy name. Empty means CapReject.
func ParseCapPolicy(s string) (CapPolicy, error) {
	switch CapPolicy(s) {
	case "", CapReject:
		return CapReject, nil
	case CapTruncate:
		return CapTruncate, nil
	default:
		return "", fmt.Errorf("unknown cap policy %q", s)
	}
}

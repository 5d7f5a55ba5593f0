package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStageForFlow is returned when the target stage is not part
	// of the request's flow.
	ErrInvalidStageForFlow = errors.New("stage is not valid for this workflow")
	// ErrBackwardTransition is returned by the forward policy when the
	// target stage precedes the current one.
	ErrBackwardTransition = errors.New("cannot move backwards in workflow")
)

// TransitionPolicy decides which stages of a flow are reachable.
type TransitionPolicy string

const (
	// PolicyForward allows any later stage (skipping is fine) and
	// re-applying the current stage. Moving backwards is rejected.
	PolicyForward TransitionPolicy = "forward"
	// PolicyMembership allows any stage of the flow.
	PolicyMembership TransitionPolicy = "membership"
)

// ParsePolicy returns the named policy, defaulting to PolicyForward.
func ParsePolicy(name string) TransitionPolicy {
	if TransitionPolicy(name) == PolicyMembership {
		return PolicyMembership
	}
	return PolicyForward
}

// Snapshot is the persisted state a transition is planned against.
type Snapshot struct {
	Intent         string
	Mode           string
	Stage          string
	ConvertedJobID string
}

// CurrentStage returns the stored stage, treating empty as intake.
func (s Snapshot) CurrentStage() Stage {
	if s.Stage == "" {
		return StageIntake
	}
	return Stage(s.Stage)
}

// Plan is a validated transition ready to be persisted.
type Plan struct {
	Selection       Selection
	From            Stage
	To              Stage
	TrackingStatus  string
	Message         string
	CreateJobTicket bool
}

// Reapply reports whether the plan re-enters the current stage.
func (p Plan) Reapply() bool { return p.From == p.To }

// PlanTransition validates a move to target against the request's flow and
// policy. It has no side effects; a returned error means nothing may be
// written.
func PlanTransition(current Snapshot, target string, policy TransitionPolicy) (Plan, error) {
	sel := SelectFlow(current.Intent, current.Mode)
	flow := sel.Flow
	from := current.CurrentStage()
	to := Stage(target)

	toIdx := flow.IndexOf(to)
	if toIdx < 0 {
		return Plan{}, fmt.Errorf("%w: %q is not part of the %s flow", ErrInvalidStageForFlow, target, flow.Name())
	}

	if policy != PolicyMembership && to != from && toIdx <= flow.IndexOf(from) {
		return Plan{}, fmt.Errorf("%w: %q to %q", ErrBackwardTransition, from, to)
	}

	return Plan{
		Selection:       sel,
		From:            from,
		To:              to,
		TrackingStatus:  TrackingStatusFor(string(to)),
		Message:         MessageFor(string(to)),
		CreateJobTicket: CreatesJobTicket(to) && current.ConvertedJobID == "",
	}, nil
}

// ReachableStages lists the stages PlanTransition accepts from current
// under policy, excluding current itself.
func ReachableStages(flow Flow, current Stage, policy TransitionPolicy) []Stage {
	if policy != PolicyMembership {
		return flow.NextStages(current)
	}
	out := make([]Stage, 0, flow.Len())
	for _, s := range flow.stages {
		if s != current {
			out = append(out, s)
		}
	}
	return out
}

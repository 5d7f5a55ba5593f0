package domain

// Flow is the ordered stage list for one (intent, mode) pair. The zero value
// is empty; use FlowFor or SelectFlow.
type Flow struct {
	intent Intent
	mode   Mode
	stages []Stage
	index  map[Stage]int
}

func newFlow(intent Intent, mode Mode, stages ...Stage) Flow {
	index := make(map[Stage]int, len(stages))
	for i, s := range stages {
		if _, dup := index[s]; dup {
			panic("domain: duplicate stage " + string(s) + " in flow")
		}
		index[s] = i
	}
	return Flow{intent: intent, mode: mode, stages: stages, index: index}
}

type flowKey struct {
	intent Intent
	mode   Mode
}

var flows = map[flowKey]Flow{
	{IntentQuote, ModePickup}: newFlow(IntentQuote, ModePickup,
		StageIntake, StageAssessment, StageAwaitingCustomer, StageAuthorized,
		StagePickupScheduled, StagePickedUp, StageInRepair, StageReady,
		StageOutForDelivery, StageCompleted, StageClosed),
	{IntentQuote, ModeServiceCenter}: newFlow(IntentQuote, ModeServiceCenter,
		StageIntake, StageAssessment, StageAwaitingCustomer, StageAuthorized,
		StageAwaitingDropoff, StageDeviceReceived, StageInRepair, StageReady,
		StageCompleted, StageClosed),
	{IntentRepair, ModePickup}: newFlow(IntentRepair, ModePickup,
		StageIntake, StageAssessment, StageAuthorized, StagePickupScheduled,
		StagePickedUp, StageInRepair, StageReady, StageOutForDelivery,
		StageCompleted, StageClosed),
	{IntentRepair, ModeServiceCenter}: newFlow(IntentRepair, ModeServiceCenter,
		StageIntake, StageAssessment, StageAuthorized, StageAwaitingDropoff,
		StageDeviceReceived, StageInRepair, StageReady, StageCompleted,
		StageClosed),
}

// Intent returns the intent this flow belongs to.
func (f Flow) Intent() Intent { return f.intent }

// Mode returns the service mode this flow belongs to.
func (f Flow) Mode() Mode { return f.mode }

// Name identifies the flow, e.g. "repair+pickup".
func (f Flow) Name() string { return string(f.intent) + "+" + string(f.mode) }

// Stages returns a copy of the ordered stage list.
func (f Flow) Stages() []Stage {
	out := make([]Stage, len(f.stages))
	copy(out, f.stages)
	return out
}

// Len returns the number of stages in the flow.
func (f Flow) Len() int { return len(f.stages) }

// IndexOf returns the position of stage, or -1 if it is not in the flow.
func (f Flow) IndexOf(stage Stage) int {
	if i, ok := f.index[stage]; ok {
		return i
	}
	return -1
}

// Contains reports whether stage is part of the flow.
func (f Flow) Contains(stage Stage) bool {
	_, ok := f.index[stage]
	return ok
}

// First returns the entry stage.
func (f Flow) First() Stage { return f.stages[0] }

// Last returns the terminal stage.
func (f Flow) Last() Stage { return f.stages[len(f.stages)-1] }

// Progress locates a stage inside a flow for progress-bar rendering.
type Progress struct {
	Index   int `json:"index"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

// Progress returns where stage sits in the flow. Stages outside the flow
// report Index -1 and 0 percent.
func (f Flow) Progress(stage Stage) Progress {
	p := Progress{Index: f.IndexOf(stage), Total: len(f.stages)}
	if p.Index >= 0 && p.Total > 1 {
		p.Percent = p.Index * 100 / (p.Total - 1)
	}
	return p
}

// NextStages lists the stages a request at current may move to going
// forward. Skipping is allowed, so this is every later stage. A current
// stage outside the flow has no listed successors.
func (f Flow) NextStages(current Stage) []Stage {
	i := f.IndexOf(current)
	if i < 0 {
		return []Stage{}
	}
	out := make([]Stage, len(f.stages)-i-1)
	copy(out, f.stages[i+1:])
	return out
}

// Selection is the result of choosing a flow from raw intent and mode values.
type Selection struct {
	Intent Intent
	Mode   Mode
	Flow   Flow
	// Coerced is set when either raw value was not one of the known
	// literals and a default was substituted.
	Coerced bool
}

// SelectFlow maps raw (intent, mode) to a flow. It never fails: any intent
// other than "quote" is treated as repair and any mode other than "pickup"
// as service_center. Coerced tells the caller a default was used.
func SelectFlow(rawIntent, rawMode string) Selection {
	sel := Selection{Intent: IntentRepair, Mode: ModeServiceCenter}

	switch Intent(rawIntent) {
	case IntentQuote:
		sel.Intent = IntentQuote
	case IntentRepair:
	default:
		sel.Coerced = true
	}

	switch Mode(rawMode) {
	case ModePickup:
		sel.Mode = ModePickup
	case ModeServiceCenter:
	default:
		sel.Coerced = true
	}

	sel.Flow = flows[flowKey{sel.Intent, sel.Mode}]
	return sel
}

// FlowFor is SelectFlow without the coercion report.
func FlowFor(rawIntent, rawMode string) Flow {
	return SelectFlow(rawIntent, rawMode).Flow
}

// AllFlows returns the four flows in a stable order.
func AllFlows() []Flow {
	return []Flow{
		flows[flowKey{IntentQuote, ModePickup}],
		flows[flowKey{IntentQuote, ModeServiceCenter}],
		flows[flowKey{IntentRepair, ModePickup}],
		flows[flowKey{IntentRepair, ModeServiceCenter}],
	}
}

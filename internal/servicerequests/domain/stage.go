// Package domain holds the service request stage engine: the fixed stage
// flows per (intent, mode), the flow selector, display label tables and
// transition planning. Everything here is pure and safe for concurrent use.
package domain

// Stage is a step in a service request's lifecycle.
type Stage string

const (
	StageIntake           Stage = "intake"
	StageAssessment       Stage = "assessment"
	StageAwaitingCustomer Stage = "awaiting_customer"
	StageAuthorized       Stage = "authorized"
	StagePickupScheduled  Stage = "pickup_scheduled"
	StagePickedUp         Stage = "picked_up"
	StageAwaitingDropoff  Stage = "awaiting_dropoff"
	StageDeviceReceived   Stage = "device_received"
	StageInRepair         Stage = "in_repair"
	StageReady            Stage = "ready"
	StageOutForDelivery   Stage = "out_for_delivery"
	StageCompleted        Stage = "completed"
	StageClosed           Stage = "closed"
)

var knownStages = map[Stage]struct{}{
	StageIntake:           {},
	StageAssessment:       {},
	StageAwaitingCustomer: {},
	StageAuthorized:       {},
	StagePickupScheduled:  {},
	StagePickedUp:         {},
	StageAwaitingDropoff:  {},
	StageDeviceReceived:   {},
	StageInRepair:         {},
	StageReady:            {},
	StageOutForDelivery:   {},
	StageCompleted:        {},
	StageClosed:           {},
}

// ParseStage converts raw input into a Stage. The boolean is false for
// identifiers outside the stage vocabulary.
func ParseStage(raw string) (Stage, bool) {
	s := Stage(raw)
	_, ok := knownStages[s]
	return s, ok
}

// IsKnown reports whether s belongs to the stage vocabulary.
func (s Stage) IsKnown() bool {
	_, ok := knownStages[s]
	return ok
}

func (s Stage) String() string { return string(s) }

// Intent says whether the customer asked for a quote or a repair.
type Intent string

const (
	IntentQuote  Intent = "quote"
	IntentRepair Intent = "repair"
)

// Mode says how the device reaches the workshop.
type Mode string

const (
	ModePickup        Mode = "pickup"
	ModeServiceCenter Mode = "service_center"
)

// jobCreationStages open a job ticket the first time a request reaches them.
var jobCreationStages = map[Stage]struct{}{
	StagePickedUp:       {},
	StageDeviceReceived: {},
}

// CreatesJobTicket reports whether entering stage opens a workshop job ticket.
func CreatesJobTicket(stage Stage) bool {
	_, ok := jobCreationStages[stage]
	return ok
}

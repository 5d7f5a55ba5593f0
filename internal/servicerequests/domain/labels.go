package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tracking statuses are the coarse customer-facing labels kept alongside
// the stage. They are only loosely related to stages.
const (
	TrackingRequestReceived    = "Request Received"
	TrackingArrivingToReceive  = "Arriving to Receive"
	TrackingAwaitingDropoff    = "Awaiting Drop-off"
	TrackingQueued             = "Queued"
	TrackingReceived           = "Received"
	TrackingTechnicianAssigned = "Technician Assigned"
	TrackingDiagnosisCompleted = "Diagnosis Completed"
	TrackingPartsPending       = "Parts Pending"
	TrackingRepairing          = "Repairing"
	TrackingReadyForDelivery   = "Ready for Delivery"
	TrackingDelivered          = "Delivered"
	TrackingCancelled          = "Cancelled"
)

// Request statuses are the internal admin workflow labels.
const (
	RequestStatusPending   = "Pending"
	RequestStatusReviewed  = "Reviewed"
	RequestStatusConverted = "Converted"
	RequestStatusClosed    = "Closed"
)

var trackingStatuses = []string{
	TrackingRequestReceived,
	TrackingArrivingToReceive,
	TrackingAwaitingDropoff,
	TrackingQueued,
	TrackingReceived,
	TrackingTechnicianAssigned,
	TrackingDiagnosisCompleted,
	TrackingPartsPending,
	TrackingRepairing,
	TrackingReadyForDelivery,
	TrackingDelivered,
	TrackingCancelled,
}

var trackingMessages = map[string]string{
	TrackingRequestReceived:    "Your request is being reviewed by our team.",
	TrackingArrivingToReceive:  "Our team is on the way to collect your TV.",
	TrackingAwaitingDropoff:    "Please bring your TV to our service center.",
	TrackingReceived:           "Your TV has been received at our service center.",
	TrackingTechnicianAssigned: "A technician has been assigned to your repair.",
	TrackingDiagnosisCompleted: "The issue has been diagnosed. We'll contact you with details.",
	TrackingPartsPending:       "Waiting for replacement parts to arrive.",
	TrackingRepairing:          "Repair work is in progress.",
	TrackingReadyForDelivery:   "Your device is ready for pickup/delivery!",
	TrackingDelivered:          "Your device has been delivered. Thank you!",
	TrackingCancelled:          "This request has been cancelled.",
}

var stageLabels = map[Stage]string{
	StageIntake:           "Intake",
	StageAssessment:       "Assessment",
	StageAwaitingCustomer: "Awaiting Customer",
	StageAuthorized:       "Authorized",
	StagePickupScheduled:  "Pickup Scheduled",
	StagePickedUp:         "Picked Up",
	StageAwaitingDropoff:  "Awaiting Drop-off",
	StageDeviceReceived:   "Device Received",
	StageInRepair:         "In Repair",
	StageReady:            "Ready",
	StageOutForDelivery:   "Out for Delivery",
	StageCompleted:        "Completed",
	StageClosed:           "Closed",
}

var stageTracking = map[Stage]string{
	StageIntake:           TrackingRequestReceived,
	StageAssessment:       TrackingQueued,
	StageAwaitingCustomer: TrackingQueued,
	StageAuthorized:       TrackingQueued,
	StagePickupScheduled:  TrackingArrivingToReceive,
	StagePickedUp:         TrackingReceived,
	StageAwaitingDropoff:  TrackingAwaitingDropoff,
	StageDeviceReceived:   TrackingReceived,
	StageInRepair:         TrackingRepairing,
	StageReady:            TrackingReadyForDelivery,
	StageOutForDelivery:   TrackingReadyForDelivery,
	StageCompleted:        TrackingDelivered,
	StageClosed:           TrackingDelivered,
}

var stageMessages = map[Stage]string{
	StageIntake:           "Request received and is being processed.",
	StageAssessment:       "Your device is being assessed by our team.",
	StageAwaitingCustomer: "Quote sent - awaiting your response.",
	StageAuthorized:       "Repair authorized and scheduled.",
	StagePickupScheduled:  "Pickup has been scheduled.",
	StagePickedUp:         "Device has been picked up.",
	StageAwaitingDropoff:  "Awaiting your device drop-off at our service center.",
	StageDeviceReceived:   "Device received at service center.",
	StageInRepair:         "Repair is in progress.",
	StageReady:            "Your device is ready.",
	StageOutForDelivery:   "Device is out for delivery.",
	StageCompleted:        "Service completed successfully.",
	StageClosed:           "Case closed.",
}

// Label returns the admin display label for a stage. Unknown stages are
// humanized ("bogus_stage" becomes "Bogus Stage").
func Label(stage string) string {
	if label, ok := stageLabels[Stage(stage)]; ok {
		return label
	}
	return humanize(stage)
}

// TrackingStatusFor maps a stage to its tracking status, falling back to
// "Request Received".
func TrackingStatusFor(stage string) string {
	if status, ok := stageTracking[Stage(stage)]; ok {
		return status
	}
	return TrackingRequestReceived
}

// MessageFor returns the customer timeline message for entering a stage.
func MessageFor(stage string) string {
	if msg, ok := stageMessages[Stage(stage)]; ok {
		return msg
	}
	return "Status updated to " + humanize(stage)
}

// TrackingStatuses returns the tracking status vocabulary in display order.
func TrackingStatuses() []string {
	out := make([]string, len(trackingStatuses))
	copy(out, trackingStatuses)
	return out
}

// IsTrackingStatus reports whether status is in the vocabulary.
func IsTrackingStatus(status string) bool {
	for _, s := range trackingStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// TrackingMessageFor returns the timeline message for a manual tracking
// status change.
func TrackingMessageFor(status string) string {
	if msg, ok := trackingMessages[status]; ok {
		return msg
	}
	return "Status updated to " + status
}

// InitialTrackingStatus picks the tracking status for a new request from the
// customer's service preference.
func InitialTrackingStatus(servicePreference string) string {
	switch servicePreference {
	case "service_center":
		return TrackingAwaitingDropoff
	case "home_pickup":
		return TrackingArrivingToReceive
	default:
		return TrackingRequestReceived
	}
}

// CustomerStep is one entry of the customer-facing progress tracker.
type CustomerStep struct {
	Stage       Stage  `json:"stage"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type stepText struct {
	label, description string
}

var customerSteps = map[Stage]stepText{
	StageIntake:           {"Request Received", "Your request is being reviewed"},
	StageAssessment:       {"Under Assessment", "Reviewing your repair needs"},
	StageAwaitingCustomer: {"Awaiting Your Response", "Please review and accept the quote"},
	StageAuthorized:       {"Authorized", "Your repair has been approved"},
	StagePickupScheduled:  {"Pickup Scheduled", "We will collect your device"},
	StagePickedUp:         {"Device Collected", "Your device has been picked up"},
	StageAwaitingDropoff:  {"Awaiting Drop-off", "Please bring your device to our center"},
	StageDeviceReceived:   {"Device Received", "Your device is at our service center"},
	StageInRepair:         {"Repair in Progress", "Your device is being repaired"},
	StageOutForDelivery:   {"Out for Delivery", "Your device is on its way back"},
}

// CustomerSteps returns the tracker steps for a flow. The closed stage is
// internal and omitted; ready and completed read differently per mode.
func (f Flow) CustomerSteps() []CustomerStep {
	steps := make([]CustomerStep, 0, len(f.stages))
	for _, s := range f.stages {
		var text stepText
		switch s {
		case StageClosed:
			continue
		case StageReady:
			text = stepText{"Repair Complete", "Your device is ready"}
			if f.mode == ModeServiceCenter {
				text = stepText{"Ready for Pickup", "Your device is ready for collection"}
			}
		case StageCompleted:
			text = stepText{"Completed", "Device returned to you"}
			if f.mode == ModeServiceCenter {
				text.description = "Device collected by you"
			}
		default:
			text = customerSteps[s]
		}
		steps = append(steps, CustomerStep{Stage: s, Label: text.label, Description: text.description})
	}
	return steps
}

func humanize(stage string) string {
	s := strings.TrimSpace(strings.ReplaceAll(stage, "_", " "))
	if s == "" {
		return "Unknown"
	}
	// Casers keep state; build one per call.
	return cases.Title(language.English).String(s)
}

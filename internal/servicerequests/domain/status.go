package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotConverted           = errors.New("request must be converted to a job ticket first")
	ErrNoJobTicket            = errors.New("no job ticket is linked to this request")
	ErrTechnicianUnassigned   = errors.New("the job ticket has no technician assigned")
	ErrStatusNotAdminSettable = errors.New("status cannot be set manually")
)

// UnassignedTechnician is the placeholder stored on new job tickets.
const UnassignedTechnician = "Unassigned"

// JobAssignment is what a tracking status check needs to know about the
// linked job ticket.
type JobAssignment struct {
	Found      bool
	Technician string
}

// HasTechnician reports whether a real technician is on the ticket.
func (j JobAssignment) HasTechnician() bool {
	t := strings.TrimSpace(j.Technician)
	return j.Found && t != "" && t != UnassignedTechnician
}

// RequestState is what a manual tracking status change is checked against.
type RequestState struct {
	Status         string
	ConvertedJobID string
}

// CheckTrackingStatus validates a manual tracking status change. "Technician
// Assigned" is only allowed once a converted request's job ticket names a
// technician; every other status is free.
func CheckTrackingStatus(status string, req RequestState, job JobAssignment) error {
	if status != TrackingTechnicianAssigned {
		return nil
	}
	if req.Status != RequestStatusConverted {
		return ErrNotConverted
	}
	if req.ConvertedJobID == "" || !job.Found {
		return ErrNoJobTicket
	}
	if !job.HasTechnician() {
		return ErrTechnicianUnassigned
	}
	return nil
}

// adminSettableStatuses are the request statuses staff may set directly.
// Converted is only reached through job ticket creation.
var adminSettableStatuses = map[string]struct{}{
	RequestStatusPending:  {},
	RequestStatusReviewed: {},
	RequestStatusClosed:   {},
}

// IsAdminSettableStatus reports whether staff may set status directly.
func IsAdminSettableStatus(status string) bool {
	_, ok := adminSettableStatuses[status]
	return ok
}

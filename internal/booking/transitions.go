package booking

import "github.com/docpoint/clinic-booking/internal/auth"

// transitions is the full status table: for each current status, the target
// statuses each role may set. Statuses absent here are terminal.
var transitions = map[AppointmentStatus]map[auth.Role][]AppointmentStatus{
	StatusScheduled: {
		auth.RolePatient: {StatusCancelled},
		auth.RoleDoctor:  {StatusConfirmed, StatusDeclined},
	},
	StatusConfirmed: {
		auth.RolePatient: {StatusCancelled},
		auth.RoleDoctor:  {StatusCompleted, StatusCancelled, StatusNoShow},
	},
}

// CanTransition reports whether role may move an appointment from one
// status to another. It says nothing about ownership; callers must check
// that the actor owns the appointment first.
func CanTransition(role auth.Role, from, to AppointmentStatus) bool {
	byRole, ok := transitions[from]
	if !ok {
		return false
	}
	for _, allowed := range byRole[role] {
		if allowed == to {
			return true
		}
	}
	return false
}

// KnownStatus reports whether s is one of the defined appointment statuses.
func KnownStatus(s AppointmentStatus) bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusDeclined, StatusNoShow:
		return true
	}
	return false
}

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "SCHEDULED"
	AppointmentStatusConfirmed  AppointmentStatus = "CONFIRMED"
	AppointmentStatusInProgress AppointmentStatus = "IN_PROGRESS"
	AppointmentStatusCompleted  AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled  AppointmentStatus = "CANCELLED"
	AppointmentStatusNoShow     AppointmentStatus = "NO_SHOW"
)

// DefaultAppointmentDuration applies when a booking omits the duration.
const DefaultAppointmentDuration = 30

// ParseAppointmentStatus normalizes and validates a status string.
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	status := AppointmentStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case AppointmentStatusScheduled, AppointmentStatusConfirmed, AppointmentStatusInProgress,
		AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return status, nil
	default:
		return "", fmt.Errorf("unknown appointment status %q", s)
	}
}

// BlocksSlot reports whether an appointment in this status still occupies
// its conflict window on the doctor's schedule.
func (s AppointmentStatus) BlocksSlot() bool {
	return s != AppointmentStatusCancelled && s != AppointmentStatusNoShow
}

// strictNextStatuses is the allowed-next-state table used when strict
// transitions are enabled. COMPLETED and CANCELLED are terminal; NO_SHOW may
// still be corrected after the fact.
var strictNextStatuses = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusScheduled: {
		AppointmentStatusConfirmed, AppointmentStatusInProgress, AppointmentStatusCompleted,
		AppointmentStatusCancelled, AppointmentStatusNoShow,
	},
	AppointmentStatusConfirmed: {
		AppointmentStatusScheduled, AppointmentStatusInProgress, AppointmentStatusCompleted,
		AppointmentStatusCancelled, AppointmentStatusNoShow,
	},
	AppointmentStatusInProgress: {
		AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow,
	},
	AppointmentStatusCompleted: {},
	AppointmentStatusCancelled: {},
	AppointmentStatusNoShow: {
		AppointmentStatusScheduled, AppointmentStatusCompleted, AppointmentStatusCancelled,
	},
}

// CanTransition reports whether an appointment may move from one status to
// another. In permissive mode every transition is allowed, which matches the
// historical flat status field. Strict mode consults the transition table.
// A same-status update is always a no-op and allowed.
func CanTransition(from, to AppointmentStatus, strict bool) bool {
	if from == to {
		return true
	}
	if !strict {
		return true
	}
	for _, next := range strictNextStatuses[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Appointment struct {
	Base
	PatientID           uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID            uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	StartTime           time.Time         `db:"start_time" json:"start_time"`
	DurationMinutes     int               `db:"duration_minutes" json:"duration_minutes"`
	Type                string            `db:"type" json:"type,omitempty"`
	Reason              string            `db:"reason" json:"reason,omitempty"`
	Notes               string            `db:"notes" json:"notes,omitempty"`
	Status              AppointmentStatus `db:"status" json:"status"`
	IsVideoConsultation bool              `db:"is_video_consultation" json:"is_video_consultation"`
}

// EndTime is the exclusive end of the appointment's conflict window.
func (a *Appointment) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Overlaps reports whether the appointment's [start, end) window intersects
// the given half-open window.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.StartTime.Before(end) && start.Before(a.EndTime())
}

type BookAppointmentRequest struct {
	DoctorID            uuid.UUID `json:"doctor_id" binding:"required"`
	StartTime           time.Time `json:"start_time" binding:"required"`
	DurationMinutes     *int      `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	Type                string    `json:"type" binding:"max=100"`
	Reason              string    `json:"reason" binding:"max=500"`
	IsVideoConsultation bool      `json:"is_video_consultation"`
}

type UpdateAppointmentStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Notes  *string `json:"notes" binding:"omitempty,max=1000"`
}

type AppointmentFilters struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Status    AppointmentStatus
	From      time.Time
	To        time.Time
	Limit     int
}

// AppointmentStats are per-requester appointment counts.
type AppointmentStats struct {
	Total     int64 `json:"total"`
	Scheduled int64 `json:"scheduled"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
}

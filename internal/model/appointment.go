package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending    AppointmentStatus = "pending"
	AppointmentStatusConfirmed  AppointmentStatus = "confirmed"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
)

// AppointmentStatuses lists every known status in lifecycle order.
var AppointmentStatuses = []AppointmentStatus{
	AppointmentStatusPending,
	AppointmentStatusConfirmed,
	AppointmentStatusInProgress,
	AppointmentStatusCompleted,
	AppointmentStatusCancelled,
}

// Valid reports whether s is one of the known statuses.
func (s AppointmentStatus) Valid() bool {
	for _, known := range AppointmentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type Appointment struct {
	Base
	PatientID    uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID     uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	ScheduledAt  time.Time         `db:"scheduled_at" json:"scheduled_at"`
	Reason       string            `db:"reason" json:"reason"`
	Status       AppointmentStatus `db:"status" json:"status"`
	Notes        *string           `db:"notes" json:"notes,omitempty"`
	CancelReason *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedBy    uuid.UUID         `db:"created_by" json:"created_by"`
}

// AppointmentStatusChange is one row of an appointment's status history.
type AppointmentStatusChange struct {
	ID            uuid.UUID         `db:"id" json:"id"`
	AppointmentID uuid.UUID         `db:"appointment_id" json:"appointment_id"`
	FromStatus    AppointmentStatus `db:"from_status" json:"from_status"`
	ToStatus      AppointmentStatus `db:"to_status" json:"to_status"`
	Reason        *string           `db:"reason" json:"reason,omitempty"`
	ChangedBy     uuid.UUID         `db:"changed_by" json:"changed_by"`
	ChangedAt     time.Time         `db:"changed_at" json:"changed_at"`
}

type CreateAppointmentRequest struct {
	PatientID   uuid.UUID `json:"patient_id" binding:"required"`
	DoctorID    uuid.UUID `json:"doctor_id" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	Reason      string    `json:"reason" binding:"required,max=500"`
	Notes       *string   `json:"notes" binding:"omitempty,max=2000"`
}

type UpdateAppointmentRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
	Reason      *string    `json:"reason" binding:"omitempty,max=500"`
	Notes       *string    `json:"notes" binding:"omitempty,max=2000"`
}

type ChangeStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required"`
	Reason string            `json:"reason" binding:"max=500"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type AppointmentFilters struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Status    AppointmentStatus
	From      time.Time
	To        time.Time
	Pagination
}

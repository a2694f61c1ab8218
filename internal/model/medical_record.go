package model

import (
	"github.com/google/uuid"
)

type MedicalRecord struct {
	Base
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	Diagnosis     string     `db:"diagnosis" json:"diagnosis"`
	Treatment     string     `db:"treatment" json:"treatment"`
	Notes         string     `db:"notes" json:"notes"`
	CreatedBy     uuid.UUID  `db:"created_by" json:"created_by"`
}

type CreateMedicalRecordRequest struct {
	AppointmentID *uuid.UUID `json:"appointment_id"`
	Diagnosis     string     `json:"diagnosis" binding:"required,max=4000"`
	Treatment     string     `json:"treatment" binding:"max=4000"`
	Notes         string     `json:"notes" binding:"max=4000"`
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		List(ctx context.Context, page model.Pagination) ([]*model.Patient, error)
		GetInsurancePlan(ctx context.Context, patientID uuid.UUID) (*model.InsurancePlan, error)
	}

	ServiceRepository interface {
		GetByCode(ctx context.Context, code string) (*model.Service, error)
		List(ctx context.Context, activeOnly bool) ([]*model.Service, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// UpdateStatus persists the new status and appends change to the history.
		UpdateStatus(ctx context.Context, appointment *model.Appointment, change *model.AppointmentStatusChange) error
		History(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentStatusChange, error)
		HasDoctorConflict(ctx context.Context, doctorID uuid.UUID, at time.Time, excludeID *uuid.UUID) (bool, error)
	}

	InvoiceRepository interface {
		Create(ctx context.Context, invoice *model.Invoice) error
		Get(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
		List(ctx context.Context, filters *model.InvoiceFilters) ([]*model.Invoice, error)
		// SaveItems replaces the draft's line items, keeping their order.
		SaveItems(ctx context.Context, invoice *model.Invoice) error
		Finalize(ctx context.Context, invoice *model.Invoice) error
	}

	MedicalRecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord) error
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error)
	}
)

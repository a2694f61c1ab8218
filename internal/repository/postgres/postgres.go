package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type userRepository struct {
	BaseRepository
}

type patientRepository struct {
	BaseRepository
}

type serviceRepository struct {
	BaseRepository
}

type appointmentRepository struct {
	BaseRepository
}

type invoiceRepository struct {
	BaseRepository
}

type medicalRecordRepository struct {
	BaseRepository
}

func NewUserRepository(db *sqlx.DB, m *metrics.Metrics) repository.UserRepository {
	return &userRepository{NewBaseRepository(db, m)}
}

func NewPatientRepository(db *sqlx.DB, m *metrics.Metrics) repository.PatientRepository {
	return &patientRepository{NewBaseRepository(db, m)}
}

func NewServiceRepository(db *sqlx.DB, m *metrics.Metrics) repository.ServiceRepository {
	return &serviceRepository{NewBaseRepository(db, m)}
}

func NewAppointmentRepository(db *sqlx.DB, m *metrics.Metrics) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db, m)}
}

func NewInvoiceRepository(db *sqlx.DB, m *metrics.Metrics) repository.InvoiceRepository {
	return &invoiceRepository{NewBaseRepository(db, m)}
}

func NewMedicalRecordRepository(db *sqlx.DB, m *metrics.Metrics) repository.MedicalRecordRepository {
	return &medicalRecordRepository{NewBaseRepository(db, m)}
}

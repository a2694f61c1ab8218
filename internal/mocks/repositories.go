// Package mocks provides testify mocks of the repository and service
// interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/clinic-api/internal/model"
)

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if v := args.Get(0); v != nil {
		return v.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

type PatientRepository struct {
	mock.Mock
}

func (m *PatientRepository) Create(ctx context.Context, patient *model.Patient) error {
	return m.Called(ctx, patient).Error(0)
}

func (m *PatientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*model.Patient), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PatientRepository) List(ctx context.Context, page model.Pagination) ([]*model.Patient, error) {
	args := m.Called(ctx, page)
	if v := args.Get(0); v != nil {
		return v.([]*model.Patient), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PatientRepository) GetInsurancePlan(ctx context.Context, patientID uuid.UUID) (*model.InsurancePlan, error) {
	args := m.Called(ctx, patientID)
	if v := args.Get(0); v != nil {
		return v.(*model.InsurancePlan), args.Error(1)
	}
	return nil, args.Error(1)
}

type ServiceRepository struct {
	mock.Mock
}

func (m *ServiceRepository) GetByCode(ctx context.Context, code string) (*model.Service, error) {
	args := m.Called(ctx, code)
	if v := args.Get(0); v != nil {
		return v.(*model.Service), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ServiceRepository) List(ctx context.Context, activeOnly bool) ([]*model.Service, error) {
	args := m.Called(ctx, activeOnly)
	if v := args.Get(0); v != nil {
		return v.([]*model.Service), args.Error(1)
	}
	return nil, args.Error(1)
}

type AppointmentRepository struct {
	mock.Mock
}

func (m *AppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	return m.Called(ctx, appointment).Error(0)
}

func (m *AppointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*model.Appointment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AppointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	return m.Called(ctx, appointment).Error(0)
}

func (m *AppointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	args := m.Called(ctx, filters)
	if v := args.Get(0); v != nil {
		return v.([]*model.Appointment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AppointmentRepository) UpdateStatus(ctx context.Context, appointment *model.Appointment, change *model.AppointmentStatusChange) error {
	return m.Called(ctx, appointment, change).Error(0)
}

func (m *AppointmentRepository) History(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentStatusChange, error) {
	args := m.Called(ctx, appointmentID)
	if v := args.Get(0); v != nil {
		return v.([]*model.AppointmentStatusChange), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AppointmentRepository) HasDoctorConflict(ctx context.Context, doctorID uuid.UUID, at time.Time, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, doctorID, at, excludeID)
	return args.Bool(0), args.Error(1)
}

type InvoiceRepository struct {
	mock.Mock
}

func (m *InvoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *InvoiceRepository) Get(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*model.Invoice), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InvoiceRepository) List(ctx context.Context, filters *model.InvoiceFilters) ([]*model.Invoice, error) {
	args := m.Called(ctx, filters)
	if v := args.Get(0); v != nil {
		return v.([]*model.Invoice), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InvoiceRepository) SaveItems(ctx context.Context, invoice *model.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *InvoiceRepository) Finalize(ctx context.Context, invoice *model.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

type MedicalRecordRepository struct {
	mock.Mock
}

func (m *MedicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MedicalRecordRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	args := m.Called(ctx, patientID)
	if v := args.Get(0); v != nil {
		return v.([]*model.MedicalRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

package medical

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/mocks"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func newTestService() (*Service, *mocks.MedicalRecordRepository, *mocks.PatientRepository, *mocks.AppointmentRepository) {
	records := new(mocks.MedicalRecordRepository)
	patients := new(mocks.PatientRepository)
	appointments := new(mocks.AppointmentRepository)
	logger := zerolog.Nop()
	return NewService(records, patients, appointments, &logger), records, patients, appointments
}

func TestCreate(t *testing.T) {
	svc, records, patients, appointments := newTestService()
	patientID := uuid.New()
	aptID := uuid.New()
	doctor := &model.Principal{UserID: uuid.New(), Role: model.RoleDoctor}

	patients.On("Get", mock.Anything, patientID).Return(&model.Patient{}, nil)
	appointments.On("Get", mock.Anything, aptID).Return(&model.Appointment{PatientID: patientID}, nil)
	records.On("Create", mock.Anything, mock.AnythingOfType("*model.MedicalRecord")).Return(nil)

	rec, err := svc.Create(context.Background(), patientID, &model.CreateMedicalRecordRequest{
		AppointmentID: &aptID,
		Diagnosis:     " flu ",
		Treatment:     "rest",
	}, doctor)
	require.NoError(t, err)
	assert.Equal(t, "flu", rec.Diagnosis)
	assert.Equal(t, doctor.UserID, rec.CreatedBy)
	records.AssertExpectations(t)
}

func TestCreate_ForeignAppointment(t *testing.T) {
	svc, records, patients, appointments := newTestService()
	patientID := uuid.New()
	aptID := uuid.New()

	patients.On("Get", mock.Anything, patientID).Return(&model.Patient{}, nil)
	appointments.On("Get", mock.Anything, aptID).Return(&model.Appointment{PatientID: uuid.New()}, nil)

	_, err := svc.Create(context.Background(), patientID, &model.CreateMedicalRecordRequest{
		AppointmentID: &aptID,
		Diagnosis:     "flu",
	}, &model.Principal{UserID: uuid.New()})
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))
	records.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListByPatient_UnknownPatient(t *testing.T) {
	svc, _, patients, _ := newTestService()
	patientID := uuid.New()
	patients.On("Get", mock.Anything, patientID).Return(nil, repository.ErrNotFound)

	_, err := svc.ListByPatient(context.Background(), patientID)
	assert.Equal(t, http.StatusNotFound, apperrors.StatusOf(err))
}

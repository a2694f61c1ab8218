package medical

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Service struct {
	repo         repository.MedicalRecordRepository
	patients     repository.PatientRepository
	appointments repository.AppointmentRepository
	logger       *zerolog.Logger
}

func NewService(repo repository.MedicalRecordRepository, patients repository.PatientRepository,
	appointments repository.AppointmentRepository, logger *zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		patients:     patients,
		appointments: appointments,
		logger:       logger,
	}
}

// Create adds an entry to a patient's medical history, optionally linked
// to one of that patient's appointments.
func (s *Service) Create(ctx context.Context, patientID uuid.UUID, req *model.CreateMedicalRecordRequest, actor *model.Principal) (*model.MedicalRecord, error) {
	diagnosis := strings.TrimSpace(req.Diagnosis)
	if diagnosis == "" {
		return nil, apperrors.Validation("diagnosis is required", nil)
	}

	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, lookupError("patient", err)
	}
	if req.AppointmentID != nil {
		apt, err := s.appointments.Get(ctx, *req.AppointmentID)
		if err != nil {
			return nil, lookupError("appointment", err)
		}
		if apt.PatientID != patientID {
			return nil, apperrors.Validation("appointment belongs to another patient", nil)
		}
	}

	record := &model.MedicalRecord{
		PatientID:     patientID,
		AppointmentID: req.AppointmentID,
		Diagnosis:     diagnosis,
		Treatment:     strings.TrimSpace(req.Treatment),
		Notes:         strings.TrimSpace(req.Notes),
		CreatedBy:     actor.UserID,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.logger.Info().
		Str("record_id", record.ID.String()).
		Str("patient_id", patientID.String()).
		Str("created_by", actor.UserID.String()).
		Msg("Medical record created")
	return record, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, lookupError("patient", err)
	}
	records, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return records, nil
}

func lookupError(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, repository.ErrNotFound)
	}
	return apperrors.Internal(err)
}

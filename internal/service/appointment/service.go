package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/notification"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// EventStatusChanged is published after every persisted status change.
const EventStatusChanged = "appointment.status_changed"

// StatusChangedEvent is the payload of EventStatusChanged.
type StatusChangedEvent struct {
	AppointmentID uuid.UUID               `json:"appointment_id"`
	PatientID     uuid.UUID               `json:"patient_id"`
	DoctorID      uuid.UUID               `json:"doctor_id"`
	From          model.AppointmentStatus `json:"from"`
	To            model.AppointmentStatus `json:"to"`
	Reason        *string                 `json:"reason,omitempty"`
	ChangedBy     uuid.UUID               `json:"changed_by"`
	ChangedAt     time.Time               `json:"changed_at"`
}

// statusRoles lists who may move an appointment into each status.
var statusRoles = map[model.AppointmentStatus][]model.Role{
	model.AppointmentStatusConfirmed:  {model.RoleAdmin, model.RoleSecretary, model.RoleDoctor},
	model.AppointmentStatusCancelled:  {model.RoleAdmin, model.RoleSecretary, model.RoleDoctor},
	model.AppointmentStatusInProgress: {model.RoleAdmin, model.RoleDoctor},
	model.AppointmentStatusCompleted:  {model.RoleAdmin, model.RoleDoctor},
}

type Service struct {
	repo      repository.AppointmentRepository
	patients  repository.PatientRepository
	users     repository.UserRepository
	publisher messaging.Publisher
	notifier  notification.Service
	metrics   *metrics.Metrics
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewService(
	repo repository.AppointmentRepository,
	patients repository.PatientRepository,
	users repository.UserRepository,
	publisher messaging.Publisher,
	notifier notification.Service,
	m *metrics.Metrics,
	logger *zerolog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		patients:  patients,
		users:     users,
		publisher: publisher,
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Create schedules a new appointment. It always starts pending.
func (s *Service) Create(ctx context.Context, req *model.CreateAppointmentRequest, actor *model.Principal) (*model.Appointment, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, apperrors.Validation("reason is required", nil)
	}
	if req.ScheduledAt.IsZero() {
		return nil, apperrors.Validation("scheduled_at is required", nil)
	}
	if req.ScheduledAt.Before(s.now()) {
		return nil, apperrors.Validation("appointment cannot be scheduled in the past", nil)
	}

	if _, err := s.patients.Get(ctx, req.PatientID); err != nil {
		return nil, lookupError("patient", err)
	}
	if err := s.checkDoctor(ctx, req.DoctorID); err != nil {
		return nil, err
	}
	if err := s.checkSlot(ctx, req.DoctorID, req.ScheduledAt, nil); err != nil {
		return nil, err
	}

	apt := &model.Appointment{
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		ScheduledAt: req.ScheduledAt,
		Reason:      reason,
		Status:      model.AppointmentStatusPending,
		Notes:       req.Notes,
		CreatedBy:   actor.UserID,
	}
	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.logger.Info().
		Str("appointment_id", apt.ID.String()).
		Str("doctor_id", apt.DoctorID.String()).
		Time("scheduled_at", apt.ScheduledAt).
		Msg("Appointment created")
	return apt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, actor *model.Principal) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, lookupError("appointment", err)
	}
	if !canView(actor, apt) {
		return nil, apperrors.Forbidden(nil)
	}
	return apt, nil
}

// List returns appointments matching filters. Patients only ever see their own.
func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters, actor *model.Principal) ([]*model.Appointment, error) {
	if actor.Role == model.RolePatient {
		if actor.PatientID == nil {
			return nil, apperrors.Forbidden(nil)
		}
		filters.PatientID = *actor.PatientID
	}
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, apperrors.Validation("invalid status filter", fmt.Errorf("%w: %q", ErrUnknownStatus, filters.Status))
	}

	appointments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return appointments, nil
}

// Update reschedules or edits an appointment that has not reached a terminal status.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, lookupError("appointment", err)
	}
	if IsTerminal(apt.Status) {
		return nil, apperrors.Conflict(fmt.Sprintf("appointment is %s and can no longer be changed", apt.Status), nil)
	}

	if req.ScheduledAt != nil && !req.ScheduledAt.Equal(apt.ScheduledAt) {
		if req.ScheduledAt.Before(s.now()) {
			return nil, apperrors.Validation("appointment cannot be scheduled in the past", nil)
		}
		if err := s.checkSlot(ctx, apt.DoctorID, *req.ScheduledAt, &apt.ID); err != nil {
			return nil, err
		}
		apt.ScheduledAt = *req.ScheduledAt
	}
	if req.Reason != nil {
		reason := strings.TrimSpace(*req.Reason)
		if reason == "" {
			return nil, apperrors.Validation("reason must not be empty", nil)
		}
		apt.Reason = reason
	}
	if req.Notes != nil {
		apt.Notes = req.Notes
	}

	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, apperrors.Internal(err)
	}
	return apt, nil
}

// ChangeStatus moves an appointment to target through the lifecycle table.
// A non-empty reason is recorded in the history and, for cancellations,
// on the appointment itself.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, target model.AppointmentStatus, reason string, actor *model.Principal) (*model.Appointment, error) {
	if !target.Valid() {
		s.reject("unknown_status")
		return nil, apperrors.Validation("invalid status", fmt.Errorf("%w: %q", ErrUnknownStatus, target))
	}

	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, lookupError("appointment", err)
	}
	from := apt.Status

	// lifecycle errors take precedence over role errors
	if _, err := Transition(from, target); err != nil {
		return nil, s.transitionError(err)
	}
	if !roleAllowed(actor.Role, target) {
		return nil, apperrors.Forbidden(fmt.Errorf("role %s cannot set status %s", actor.Role, target))
	}

	reason = strings.TrimSpace(reason)
	if target == model.AppointmentStatusCancelled && reason != "" {
		err = ApplyCancel(apt, reason)
	} else {
		err = Apply(apt, target)
	}
	if err != nil {
		return nil, s.transitionError(err)
	}

	change := &model.AppointmentStatusChange{
		FromStatus: from,
		ToStatus:   apt.Status,
		ChangedBy:  actor.UserID,
	}
	if reason != "" {
		change.Reason = &reason
	}

	if err := s.repo.UpdateStatus(ctx, apt, change); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.reject("stale")
			return nil, apperrors.Conflict("appointment was modified by another request", err)
		}
		return nil, apperrors.Internal(err)
	}

	if s.metrics != nil {
		s.metrics.AppointmentTransitions.WithLabelValues(string(from), string(apt.Status)).Inc()
	}
	s.logger.Info().
		Str("appointment_id", apt.ID.String()).
		Str("from", string(from)).
		Str("to", string(apt.Status)).
		Str("changed_by", actor.UserID.String()).
		Msg("Appointment status changed")

	s.afterStatusChange(ctx, apt, change)
	return apt, nil
}

// Cancel is ChangeStatus to cancelled with a mandatory reason.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string, actor *model.Principal) (*model.Appointment, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.Validation("cancellation reason is required", nil)
	}
	return s.ChangeStatus(ctx, id, model.AppointmentStatusCancelled, reason, actor)
}

// AllowedActions lists the statuses actor may move the appointment to next.
func (s *Service) AllowedActions(ctx context.Context, id uuid.UUID, actor *model.Principal) ([]model.AppointmentStatus, error) {
	apt, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	actions := []model.AppointmentStatus{}
	for _, next := range AllowedTransitions(apt.Status) {
		if roleAllowed(actor.Role, next) {
			actions = append(actions, next)
		}
	}
	return actions, nil
}

func (s *Service) History(ctx context.Context, id uuid.UUID, actor *model.Principal) ([]*model.AppointmentStatusChange, error) {
	if _, err := s.Get(ctx, id, actor); err != nil {
		return nil, err
	}
	history, err := s.repo.History(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return history, nil
}

// afterStatusChange publishes the event and notifies the patient. Both are
// best effort: the status change is already committed.
func (s *Service) afterStatusChange(ctx context.Context, apt *model.Appointment, change *model.AppointmentStatusChange) {
	event := StatusChangedEvent{
		AppointmentID: apt.ID,
		PatientID:     apt.PatientID,
		DoctorID:      apt.DoctorID,
		From:          change.FromStatus,
		To:            change.ToStatus,
		Reason:        change.Reason,
		ChangedBy:     change.ChangedBy,
		ChangedAt:     change.ChangedAt,
	}
	if err := s.publisher.Publish(ctx, EventStatusChanged, event); err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("Failed to publish status change")
	}

	if err := s.notifier.AppointmentStatusChanged(ctx, apt); err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("Failed to notify patient")
	}
}

func (s *Service) transitionError(err error) error {
	var te *TransitionError
	switch {
	case errors.As(err, &te):
		s.reject("invalid_transition")
		return apperrors.Conflict("invalid status transition", err)
	case errors.Is(err, ErrUnknownStatus):
		s.reject("unknown_status")
		return apperrors.Validation("invalid status", err)
	default:
		return apperrors.Internal(err)
	}
}

func (s *Service) reject(reason string) {
	if s.metrics != nil {
		s.metrics.AppointmentRejections.WithLabelValues(reason).Inc()
	}
}

func (s *Service) checkDoctor(ctx context.Context, doctorID uuid.UUID) error {
	doctor, err := s.users.Get(ctx, doctorID)
	if err != nil {
		return lookupError("doctor", err)
	}
	if doctor.Role != model.RoleDoctor {
		return apperrors.Validation("doctor_id does not belong to a doctor", nil)
	}
	return nil
}

func (s *Service) checkSlot(ctx context.Context, doctorID uuid.UUID, at time.Time, excludeID *uuid.UUID) error {
	taken, err := s.repo.HasDoctorConflict(ctx, doctorID, at, excludeID)
	if err != nil {
		return apperrors.Internal(err)
	}
	if taken {
		return apperrors.Conflict("doctor already has an appointment at this time", nil)
	}
	return nil
}

func lookupError(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, repository.ErrNotFound)
	}
	return apperrors.Internal(err)
}

func roleAllowed(role model.Role, target model.AppointmentStatus) bool {
	for _, r := range statusRoles[target] {
		if r == role {
			return true
		}
	}
	return false
}

func canView(actor *model.Principal, apt *model.Appointment) bool {
	if actor.Role != model.RolePatient {
		return true
	}
	return actor.PatientID != nil && *actor.PatientID == apt.PatientID
}

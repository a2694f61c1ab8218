package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/email"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

const scheduleLayout = "Mon 02 Jan 2006 15:04 MST"

// Service sends patient facing notifications.
type Service interface {
	// AppointmentStatusChanged mails the patient when an appointment is
	// confirmed or cancelled. Other statuses are ignored.
	AppointmentStatusChanged(ctx context.Context, apt *model.Appointment) error
	SendInvoice(ctx context.Context, invoice *model.Invoice, pdf []byte) error
}

type service struct {
	patients repository.PatientRepository
	mailer   email.Service
	logger   *zerolog.Logger
}

func NewService(patients repository.PatientRepository, mailer email.Service, logger *zerolog.Logger) Service {
	return &service{
		patients: patients,
		mailer:   mailer,
		logger:   logger,
	}
}

func (s *service) AppointmentStatusChanged(ctx context.Context, apt *model.Appointment) error {
	var subject string
	var body strings.Builder

	switch apt.Status {
	case model.AppointmentStatusConfirmed:
		subject = "Your appointment is confirmed"
		fmt.Fprintf(&body, "Your appointment on %s has been confirmed.\n", apt.ScheduledAt.Format(scheduleLayout))
	case model.AppointmentStatusCancelled:
		subject = "Your appointment was cancelled"
		fmt.Fprintf(&body, "Your appointment on %s has been cancelled.\n", apt.ScheduledAt.Format(scheduleLayout))
		if apt.CancelReason != nil && *apt.CancelReason != "" {
			fmt.Fprintf(&body, "Reason: %s\n", *apt.CancelReason)
		}
	default:
		return nil
	}

	patient, err := s.patients.Get(ctx, apt.PatientID)
	if err != nil {
		return fmt.Errorf("failed to get patient: %w", err)
	}
	if patient.Email == "" {
		s.logger.Debug().Str("patient_id", patient.ID.String()).Msg("Patient has no email, notification skipped")
		return nil
	}

	fmt.Fprintf(&body, "\nReason for visit: %s\n", apt.Reason)
	return s.mailer.Send(ctx, patient.Email, subject, "Hello "+patient.Name+",\n\n"+body.String())
}

func (s *service) SendInvoice(ctx context.Context, invoice *model.Invoice, pdf []byte) error {
	patient, err := s.patients.Get(ctx, invoice.PatientID)
	if err != nil {
		return fmt.Errorf("failed to get patient: %w", err)
	}
	if patient.Email == "" {
		return fmt.Errorf("patient %s has no email address", patient.ID)
	}

	body := fmt.Sprintf("Hello %s,\n\nPlease find your invoice attached.\n", patient.Name)
	return s.mailer.Send(ctx, patient.Email, "Your invoice", body, email.Attachment{
		Name: fmt.Sprintf("invoice-%s.pdf", invoice.ID),
		Data: pdf,
	})
}

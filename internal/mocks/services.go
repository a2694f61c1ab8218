package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/clinic-api/internal/email"
	"github.com/jwalitptl/clinic-api/internal/model"
)

type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	return m.Called(ctx, eventType, payload).Error(0)
}

type Notifier struct {
	mock.Mock
}

func (m *Notifier) AppointmentStatusChanged(ctx context.Context, apt *model.Appointment) error {
	return m.Called(ctx, apt).Error(0)
}

func (m *Notifier) SendInvoice(ctx context.Context, invoice *model.Invoice, pdf []byte) error {
	return m.Called(ctx, invoice, pdf).Error(0)
}

type Mailer struct {
	mock.Mock
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string, attachments ...email.Attachment) error {
	return m.Called(ctx, to, subject, body, attachments).Error(0)
}

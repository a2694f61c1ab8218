package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/report"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/notification"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/money"
)

// EventInvoiceFinalized is published once an invoice becomes immutable.
const EventInvoiceFinalized = "invoice.finalized"

type InvoiceFinalizedEvent struct {
	InvoiceID uuid.UUID       `json:"invoice_id"`
	PatientID uuid.UUID       `json:"patient_id"`
	TotalDue  decimal.Decimal `json:"total_due"`
	Tendered  decimal.Decimal `json:"amount_tendered"`
	Change    decimal.Decimal `json:"change"`
}

type Service struct {
	invoices     repository.InvoiceRepository
	patients     repository.PatientRepository
	catalog      repository.ServiceRepository
	appointments repository.AppointmentRepository
	publisher    messaging.Publisher
	notifier     notification.Service
	formatter    *money.Formatter
	clinicName   string
	metrics      *metrics.Metrics
	logger       *zerolog.Logger
	now          func() time.Time
}

type Options struct {
	Formatter  *money.Formatter
	ClinicName string
	Metrics    *metrics.Metrics
	Logger     *zerolog.Logger
}

func NewService(
	invoices repository.InvoiceRepository,
	patients repository.PatientRepository,
	catalog repository.ServiceRepository,
	appointments repository.AppointmentRepository,
	publisher messaging.Publisher,
	notifier notification.Service,
	opts Options,
) *Service {
	return &Service{
		invoices:     invoices,
		patients:     patients,
		catalog:      catalog,
		appointments: appointments,
		publisher:    publisher,
		notifier:     notifier,
		formatter:    opts.Formatter,
		clinicName:   opts.ClinicName,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		now:          time.Now,
	}
}

// CreateDraft opens an empty invoice for a patient. The discount is taken
// from the patient's insurance plan at this moment; patients without a plan
// get none.
func (s *Service) CreateDraft(ctx context.Context, req *model.CreateInvoiceRequest, actor *model.Principal) (*model.Invoice, error) {
	if _, err := s.patients.Get(ctx, req.PatientID); err != nil {
		return nil, lookupError("patient", err)
	}

	if req.AppointmentID != nil {
		apt, err := s.appointments.Get(ctx, *req.AppointmentID)
		if err != nil {
			return nil, lookupError("appointment", err)
		}
		if apt.PatientID != req.PatientID {
			return nil, apperrors.Validation("appointment belongs to another patient", nil)
		}
	}

	discount := decimal.Zero
	plan, err := s.patients.GetInsurancePlan(ctx, req.PatientID)
	switch {
	case err == nil:
		discount = plan.DiscountPercent
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.Internal(err)
	}
	if err := ValidateDiscount(discount); err != nil {
		return nil, apperrors.Validation("insurance plan discount is invalid", err)
	}

	inv := &model.Invoice{
		PatientID:       req.PatientID,
		AppointmentID:   req.AppointmentID,
		Items:           []model.LineItem{},
		DiscountPercent: discount,
		Status:          model.InvoiceStatusDraft,
		CreatedBy:       actor.UserID,
	}
	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, apperrors.Internal(err)
	}
	return inv, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, err := s.invoices.Get(ctx, id)
	if err != nil {
		return nil, lookupError("invoice", err)
	}
	return inv, nil
}

func (s *Service) List(ctx context.Context, filters *model.InvoiceFilters) ([]*model.Invoice, error) {
	invoices, err := s.invoices.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return invoices, nil
}

// ListServices returns the service catalog, optionally only active entries.
func (s *Service) ListServices(ctx context.Context, activeOnly bool) ([]*model.Service, error) {
	services, err := s.catalog.List(ctx, activeOnly)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return services, nil
}

// AddItem bills a catalog service. The catalog price is used unless the
// request overrides it.
func (s *Service) AddItem(ctx context.Context, id uuid.UUID, req *model.AddLineItemRequest) (*model.Invoice, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Finalized() {
		return nil, calculatorError(ErrInvoiceFinalized)
	}

	svc, err := s.catalog.GetByCode(ctx, req.ServiceCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Validation(fmt.Sprintf("unknown service code %q", req.ServiceCode), err)
		}
		return nil, apperrors.Internal(err)
	}
	if !svc.Active {
		return nil, apperrors.Validation(fmt.Sprintf("service %q is not active", svc.Code), nil)
	}

	price := svc.Price
	if req.UnitPrice != nil {
		price = *req.UnitPrice
	}

	if err := AddLineItem(inv, svc.Code, price, req.Quantity); err != nil {
		return nil, calculatorError(err)
	}
	inv.Items[len(inv.Items)-1].Description = svc.Name

	if err := s.saveItems(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) RemoveItem(ctx context.Context, id uuid.UUID, index int) (*model.Invoice, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := RemoveLineItem(inv, index); err != nil {
		return nil, calculatorError(err)
	}
	if err := s.saveItems(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Preview computes the totals of an invoice and, when tendered is given,
// the change. Nothing is persisted.
func (s *Service) Preview(ctx context.Context, id uuid.UUID, tendered *decimal.Decimal) (*model.InvoiceSummary, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tendered != nil && tendered.IsNegative() {
		return nil, calculatorError(ErrNegativeTendered)
	}
	return s.summarize(inv, tendered), nil
}

// Finalize freezes a draft: totals and change are computed and stored, and
// the invoice rejects any further edit. A shortfall is refused.
func (s *Service) Finalize(ctx context.Context, id uuid.UUID, req *model.FinalizeInvoiceRequest) (*model.Invoice, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Finalized() {
		return nil, calculatorError(ErrInvoiceFinalized)
	}
	if len(inv.Items) == 0 {
		return nil, calculatorError(ErrInvoiceEmpty)
	}
	if req.AmountTendered.IsNegative() {
		return nil, calculatorError(ErrNegativeTendered)
	}

	totals := ComputeTotals(inv)
	change := ComputeChange(totals.TotalDue, req.AmountTendered)
	if change.IsNegative() {
		return nil, apperrors.Validation(
			fmt.Sprintf("payment short by %s", s.formatter.Format(change.Neg())),
			ErrPaymentShortfall,
		)
	}

	now := s.now()
	inv.Subtotal = totals.Subtotal
	inv.DiscountAmount = totals.DiscountAmount
	inv.TotalDue = totals.TotalDue
	inv.AmountTendered = req.AmountTendered
	inv.Change = change
	inv.Status = model.InvoiceStatusFinalized
	inv.FinalizedAt = &now

	if err := s.invoices.Finalize(ctx, inv); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, calculatorError(ErrInvoiceFinalized)
		}
		return nil, apperrors.Internal(err)
	}

	if s.metrics != nil {
		s.metrics.InvoicesFinalized.Inc()
		s.metrics.InvoiceTotalDue.Observe(totals.TotalDue.InexactFloat64())
	}
	s.logger.Info().
		Str("invoice_id", inv.ID.String()).
		Str("total_due", totals.TotalDue.String()).
		Str("change", change.String()).
		Msg("Invoice finalized")

	event := InvoiceFinalizedEvent{
		InvoiceID: inv.ID,
		PatientID: inv.PatientID,
		TotalDue:  inv.TotalDue,
		Tendered:  inv.AmountTendered,
		Change:    inv.Change,
	}
	if err := s.publisher.Publish(ctx, EventInvoiceFinalized, event); err != nil {
		s.logger.Warn().Err(err).Str("invoice_id", inv.ID.String()).Msg("Failed to publish invoice event")
	}
	return inv, nil
}

// RenderPDF renders a finalized invoice.
func (s *Service) RenderPDF(ctx context.Context, id uuid.UUID) ([]byte, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, inv)
}

// SendPDF mails the rendered invoice to the patient.
func (s *Service) SendPDF(ctx context.Context, id uuid.UUID) error {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	pdf, err := s.render(ctx, inv)
	if err != nil {
		return err
	}
	if err := s.notifier.SendInvoice(ctx, inv, pdf); err != nil {
		return apperrors.BadRequest("failed to send invoice", err)
	}
	return nil
}

func (s *Service) render(ctx context.Context, inv *model.Invoice) ([]byte, error) {
	if !inv.Finalized() {
		return nil, apperrors.Conflict("only finalized invoices can be printed", nil)
	}

	patient, err := s.patients.Get(ctx, inv.PatientID)
	if err != nil {
		return nil, lookupError("patient", err)
	}

	pdf, err := report.RenderInvoice(report.InvoiceDocument{
		ClinicName: s.clinicName,
		Invoice:    inv,
		Patient:    patient,
		Formatter:  s.formatter,
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return pdf, nil
}

func (s *Service) summarize(inv *model.Invoice, tendered *decimal.Decimal) *model.InvoiceSummary {
	totals := ComputeTotals(inv)
	summary := &model.InvoiceSummary{
		InvoiceTotals: totals,
		Display: map[string]string{
			"subtotal":        s.formatter.Format(totals.Subtotal),
			"discount_amount": s.formatter.Format(totals.DiscountAmount),
			"total_due":       s.formatter.Format(totals.TotalDue),
		},
	}
	if tendered != nil {
		change := ComputeChange(totals.TotalDue, *tendered)
		summary.AmountTendered = tendered
		summary.Change = &change
		summary.Shortfall = change.IsNegative()
		summary.Display["amount_tendered"] = s.formatter.Format(*tendered)
		summary.Display["change"] = s.formatter.Format(change)
	}
	return summary
}

func (s *Service) saveItems(ctx context.Context, inv *model.Invoice) error {
	if err := s.invoices.SaveItems(ctx, inv); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return calculatorError(ErrInvoiceFinalized)
		}
		return apperrors.Internal(err)
	}
	return nil
}

func calculatorError(err error) error {
	switch {
	case errors.Is(err, ErrInvoiceFinalized):
		return apperrors.Conflict("invoice can no longer be changed", err)
	case errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrIndexOutOfRange),
		errors.Is(err, ErrInvalidDiscount),
		errors.Is(err, ErrNegativeTendered),
		errors.Is(err, ErrInvoiceEmpty):
		return apperrors.Validation("invalid invoice operation", err)
	default:
		return apperrors.Internal(err)
	}
}

func lookupError(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, repository.ErrNotFound)
	}
	return apperrors.Internal(err)
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusFinalized InvoiceStatus = "finalized"
)

// LineItem is one billed service instance of an invoice.
type LineItem struct {
	ServiceCode string          `db:"service_code" json:"service_code"`
	Description string          `db:"description" json:"description"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Quantity    int             `db:"quantity" json:"quantity"`
}

// Total is unit price times quantity, unrounded.
func (l LineItem) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// InvoiceTotals holds unrounded money amounts derived from an invoice.
type InvoiceTotals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalDue       decimal.Decimal `json:"total_due"`
}

type Invoice struct {
	Base
	PatientID       uuid.UUID       `db:"patient_id" json:"patient_id"`
	AppointmentID   *uuid.UUID      `db:"appointment_id" json:"appointment_id,omitempty"`
	Items           []LineItem      `db:"-" json:"items"`
	DiscountPercent decimal.Decimal `db:"discount_percent" json:"discount_percent"`
	AmountTendered  decimal.Decimal `db:"amount_tendered" json:"amount_tendered"`
	Status          InvoiceStatus   `db:"status" json:"status"`
	Subtotal        decimal.Decimal `db:"subtotal" json:"subtotal"`
	DiscountAmount  decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	TotalDue        decimal.Decimal `db:"total_due" json:"total_due"`
	Change          decimal.Decimal `db:"change_due" json:"change"`
	FinalizedAt     *time.Time      `db:"finalized_at" json:"finalized_at,omitempty"`
	CreatedBy       uuid.UUID       `db:"created_by" json:"created_by"`
}

// Finalized reports whether the invoice is immutable.
func (i *Invoice) Finalized() bool {
	return i.Status == InvoiceStatusFinalized
}

type CreateInvoiceRequest struct {
	PatientID     uuid.UUID  `json:"patient_id" binding:"required"`
	AppointmentID *uuid.UUID `json:"appointment_id"`
}

type AddLineItemRequest struct {
	ServiceCode string           `json:"service_code" binding:"required,max=32"`
	UnitPrice   *decimal.Decimal `json:"unit_price" binding:"omitempty,decimal_money"`
	Quantity    int              `json:"quantity"`
}

type FinalizeInvoiceRequest struct {
	AmountTendered decimal.Decimal `json:"amount_tendered" binding:"decimal_nonneg,decimal_money"`
}

// InvoiceSummary is the preview returned before finalization.
type InvoiceSummary struct {
	InvoiceTotals
	AmountTendered *decimal.Decimal  `json:"amount_tendered,omitempty"`
	Change         *decimal.Decimal  `json:"change,omitempty"`
	Shortfall      bool              `json:"shortfall"`
	Display        map[string]string `json:"display"`
}

type InvoiceFilters struct {
	PatientID uuid.UUID
	Status    InvoiceStatus
	Pagination
}

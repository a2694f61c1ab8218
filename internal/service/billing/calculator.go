package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jwalitptl/clinic-api/internal/model"
)

var (
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
	ErrInvalidPrice     = errors.New("unit price must not be negative")
	ErrIndexOutOfRange  = errors.New("line item index out of range")
	ErrInvalidDiscount  = errors.New("discount percentage must be between 0 and 100")
	ErrInvoiceFinalized = errors.New("invoice is finalized")
	ErrInvoiceEmpty     = errors.New("invoice has no line items")
	ErrPaymentShortfall = errors.New("amount tendered is less than total due")
	ErrNegativeTendered = errors.New("amount tendered must not be negative")
)

var hundred = decimal.NewFromInt(100)

// AddLineItem appends a line item. inv.Items is untouched on error.
func AddLineItem(inv *model.Invoice, serviceCode string, unitPrice decimal.Decimal, quantity int) error {
	if inv.Finalized() {
		return ErrInvoiceFinalized
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	if unitPrice.IsNegative() {
		return fmt.Errorf("%w: got %s", ErrInvalidPrice, unitPrice)
	}

	inv.Items = append(inv.Items, model.LineItem{
		ServiceCode: serviceCode,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
	})
	return nil
}

// RemoveLineItem deletes the item at index, keeping the order of the rest.
func RemoveLineItem(inv *model.Invoice, index int) error {
	if inv.Finalized() {
		return ErrInvoiceFinalized
	}
	if index < 0 || index >= len(inv.Items) {
		return fmt.Errorf("%w: index %d, %d items", ErrIndexOutOfRange, index, len(inv.Items))
	}

	items := make([]model.LineItem, 0, len(inv.Items)-1)
	items = append(items, inv.Items[:index]...)
	items = append(items, inv.Items[index+1:]...)
	inv.Items = items
	return nil
}

// ValidateDiscount checks that pct lies in [0, 100].
func ValidateDiscount(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return fmt.Errorf("%w: got %s", ErrInvalidDiscount, pct)
	}
	return nil
}

// ComputeTotals derives subtotal, discount and total due without rounding.
// The discount applies once to the subtotal.
func ComputeTotals(inv *model.Invoice) model.InvoiceTotals {
	subtotal := decimal.Zero
	for _, item := range inv.Items {
		subtotal = subtotal.Add(item.Total())
	}

	discount := subtotal.Mul(inv.DiscountPercent).Div(hundred)
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return model.InvoiceTotals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TotalDue:       total,
	}
}

// ComputeChange returns tendered minus totalDue. A negative result is a
// shortfall still owed by the patient.
func ComputeChange(totalDue, tendered decimal.Decimal) decimal.Decimal {
	return tendered.Sub(totalDue)
}

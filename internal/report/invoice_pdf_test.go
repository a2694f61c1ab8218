package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/money"
)

func TestRenderInvoice(t *testing.T) {
	now := time.Now()
	inv := &model.Invoice{
		Base:            model.Base{ID: uuid.New()},
		Status:          model.InvoiceStatusFinalized,
		DiscountPercent: decimal.NewFromInt(20),
		Items: []model.LineItem{
			{ServiceCode: "CONS", Description: "Consultation", UnitPrice: decimal.NewFromInt(2500), Quantity: 1},
			{ServiceCode: "XRAY", Description: "Radiografía", UnitPrice: decimal.NewFromInt(1000), Quantity: 2},
		},
		Subtotal:       decimal.NewFromInt(4500),
		DiscountAmount: decimal.NewFromInt(900),
		TotalDue:       decimal.NewFromInt(3600),
		AmountTendered: decimal.NewFromInt(4000),
		Change:         decimal.NewFromInt(400),
		FinalizedAt:    &now,
	}

	out, err := RenderInvoice(InvoiceDocument{
		ClinicName: "Clínica Central",
		Invoice:    inv,
		Patient:    &model.Patient{Name: "Ana Pérez"},
		Formatter:  money.NewFormatter("₡", "en-US"),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.True(t, bytes.Contains(out, []byte("%%EOF")))
}

func TestRenderInvoice_Incomplete(t *testing.T) {
	_, err := RenderInvoice(InvoiceDocument{Invoice: &model.Invoice{}})
	assert.Error(t, err)
}

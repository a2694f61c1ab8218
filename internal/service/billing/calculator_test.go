package billing

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestComputeTotals_ConsultationWithInsurance(t *testing.T) {
	inv := &model.Invoice{DiscountPercent: dec("15")}
	require.NoError(t, AddLineItem(inv, "CONS", dec("1500.00"), 1))
	require.NoError(t, AddLineItem(inv, "LAB", dec("800.00"), 2))

	totals := ComputeTotals(inv)
	assertDecimal(t, "3100.00", totals.Subtotal)
	assertDecimal(t, "465.00", totals.DiscountAmount)
	assertDecimal(t, "2635.00", totals.TotalDue)
}

func TestComputeChange_Shortfall(t *testing.T) {
	change := ComputeChange(dec("2635.00"), dec("2000.00"))
	assertDecimal(t, "-635.00", change)
	assert.True(t, change.IsNegative())
}

func TestComputeChange_SignMatchesShortfall(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		due := decimal.New(rng.Int63n(1_000_000), -2)
		tendered := decimal.New(rng.Int63n(1_000_000), -2)
		change := ComputeChange(due, tendered)
		assert.Equal(t, tendered.LessThan(due), change.IsNegative(), "due=%s tendered=%s", due, tendered)
	}
}

func TestAddLineItem_ZeroQuantity(t *testing.T) {
	inv := &model.Invoice{}
	require.NoError(t, AddLineItem(inv, "CONS", dec("1500"), 1))

	err := AddLineItem(inv, "CONS", dec("1500"), 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Len(t, inv.Items, 1)
}

func TestAddLineItem_NegativePrice(t *testing.T) {
	inv := &model.Invoice{}
	err := AddLineItem(inv, "CONS", dec("-0.01"), 1)
	assert.ErrorIs(t, err, ErrInvalidPrice)
	assert.Empty(t, inv.Items)
}

func TestAddLineItem_FreeServiceAllowed(t *testing.T) {
	inv := &model.Invoice{}
	require.NoError(t, AddLineItem(inv, "FOLLOWUP", decimal.Zero, 1))
	assertDecimal(t, "0", ComputeTotals(inv).TotalDue)
}

func TestRemoveLineItem_OutOfRange(t *testing.T) {
	inv := &model.Invoice{}
	require.NoError(t, AddLineItem(inv, "A", dec("10"), 1))
	require.NoError(t, AddLineItem(inv, "B", dec("20"), 1))

	assert.ErrorIs(t, RemoveLineItem(inv, 5), ErrIndexOutOfRange)
	assert.ErrorIs(t, RemoveLineItem(inv, -1), ErrIndexOutOfRange)
	assert.Len(t, inv.Items, 2)
}

func TestRemoveLineItem_PreservesOrder(t *testing.T) {
	inv := &model.Invoice{}
	for _, code := range []string{"A", "B", "C"} {
		require.NoError(t, AddLineItem(inv, code, dec("10"), 1))
	}

	require.NoError(t, RemoveLineItem(inv, 1))
	require.Len(t, inv.Items, 2)
	assert.Equal(t, "A", inv.Items[0].ServiceCode)
	assert.Equal(t, "C", inv.Items[1].ServiceCode)
}

func TestFinalizedInvoiceIsImmutable(t *testing.T) {
	inv := &model.Invoice{Status: model.InvoiceStatusFinalized, Items: []model.LineItem{{ServiceCode: "A", UnitPrice: dec("1"), Quantity: 1}}}

	assert.ErrorIs(t, AddLineItem(inv, "B", dec("1"), 1), ErrInvoiceFinalized)
	assert.ErrorIs(t, RemoveLineItem(inv, 0), ErrInvoiceFinalized)
	assert.Len(t, inv.Items, 1)
}

func TestComputeTotals_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		inv := &model.Invoice{DiscountPercent: decimal.New(rng.Int63n(10001), -2)}
		want := decimal.Zero
		for n := rng.Intn(6); n > 0; n-- {
			price := decimal.New(rng.Int63n(500_000), -2)
			qty := rng.Intn(9) + 1
			require.NoError(t, AddLineItem(inv, "SVC", price, qty))
			want = want.Add(price.Mul(decimal.NewFromInt(int64(qty))))
		}

		totals := ComputeTotals(inv)
		assert.True(t, want.Equal(totals.Subtotal))

		wantDiscount := totals.Subtotal.Mul(inv.DiscountPercent).Div(decimal.NewFromInt(100))
		assert.True(t, wantDiscount.Equal(totals.DiscountAmount))

		wantDue := decimal.Max(decimal.Zero, totals.Subtotal.Sub(totals.DiscountAmount))
		assert.True(t, wantDue.Equal(totals.TotalDue))
	}
}

func TestComputeTotals_NoIntermediateRounding(t *testing.T) {
	inv := &model.Invoice{DiscountPercent: dec("12.5")}
	require.NoError(t, AddLineItem(inv, "A", dec("0.05"), 3))

	totals := ComputeTotals(inv)
	assertDecimal(t, "0.15", totals.Subtotal)
	assertDecimal(t, "0.01875", totals.DiscountAmount)
	assertDecimal(t, "0.13125", totals.TotalDue)
}

func TestComputeTotals_FullDiscount(t *testing.T) {
	inv := &model.Invoice{DiscountPercent: dec("100")}
	require.NoError(t, AddLineItem(inv, "A", dec("99.99"), 2))
	assertDecimal(t, "0", ComputeTotals(inv).TotalDue)
}

func TestValidateDiscount(t *testing.T) {
	assert.NoError(t, ValidateDiscount(dec("0")))
	assert.NoError(t, ValidateDiscount(dec("100")))
	assert.ErrorIs(t, ValidateDiscount(dec("100.01")), ErrInvalidDiscount)
	assert.ErrorIs(t, ValidateDiscount(dec("-1")), ErrInvalidDiscount)
}

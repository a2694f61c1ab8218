package invoice

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/mocks"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/billing"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/money"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

type fixture struct {
	invoices  *mocks.InvoiceRepository
	patients  *mocks.PatientRepository
	catalog   *mocks.ServiceRepository
	publisher *mocks.Publisher
	notifier  *mocks.Notifier
	principal *model.Principal
	engine    *gin.Engine
}

func newFixture(t *testing.T, role model.Role) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validator.RegisterBinding())

	f := &fixture{
		invoices:  new(mocks.InvoiceRepository),
		patients:  new(mocks.PatientRepository),
		catalog:   new(mocks.ServiceRepository),
		publisher: new(mocks.Publisher),
		notifier:  new(mocks.Notifier),
		principal: &model.Principal{UserID: uuid.New(), Role: role},
	}
	logger := zerolog.Nop()
	svc := billing.NewService(f.invoices, f.patients, f.catalog, new(mocks.AppointmentRepository),
		f.publisher, f.notifier, billing.Options{
			Formatter:  money.NewFormatter("₡", "en-US"),
			ClinicName: "Test Clinic",
			Metrics:    metrics.NewMetrics("test", prometheus.NewRegistry()),
			Logger:     &logger,
		})

	f.engine = gin.New()
	api := f.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Set(middleware.ContextPrincipal, f.principal)
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(api)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// insuredDraft is a 3,100 draft with a 20% plan discount, 2,480 due.
func insuredDraft() *model.Invoice {
	return &model.Invoice{
		Base:      model.Base{ID: uuid.New()},
		PatientID: uuid.New(),
		Items: []model.LineItem{
			{ServiceCode: "CONS", Description: "Consultation", UnitPrice: dec("2500"), Quantity: 1},
			{ServiceCode: "LAB", Description: "Blood test", UnitPrice: dec("600"), Quantity: 1},
		},
		DiscountPercent: dec("20"),
		Status:          model.InvoiceStatusDraft,
	}
}

func TestPreview_WithTendered(t *testing.T) {
	f := newFixture(t, model.RoleSecretary)
	inv := insuredDraft()
	f.invoices.On("Get", mock.Anything, inv.ID).Return(inv, nil)

	w := f.do(t, http.MethodGet, "/api/v1/invoices/"+inv.ID.String()+"/preview?tendered=3000", nil)

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "3100", data["subtotal"])
	assert.Equal(t, "620", data["discount_amount"])
	assert.Equal(t, "2480", data["total_due"])
	assert.Equal(t, "520", data["change"])
	assert.Equal(t, false, data["shortfall"])

	display := data["display"].(map[string]interface{})
	assert.Equal(t, "₡2,480.00", display["total_due"])
}

func TestPreview_InvalidTendered(t *testing.T) {
	f := newFixture(t, model.RoleSecretary)

	w := f.do(t, http.MethodGet, "/api/v1/invoices/"+uuid.NewString()+"/preview?tendered=abc", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFinalize_Shortfall(t *testing.T) {
	f := newFixture(t, model.RoleSecretary)
	inv := insuredDraft()
	f.invoices.On("Get", mock.Anything, inv.ID).Return(inv, nil)

	w := f.do(t, http.MethodPost, "/api/v1/invoices/"+inv.ID.String()+"/finalize",
		gin.H{"amount_tendered": "2000"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["message"], "payment short by ₡480.00")
	f.invoices.AssertNotCalled(t, "Finalize", mock.Anything, mock.Anything)
}

func TestFinalize_NegativeTenderedRejectedByBinding(t *testing.T) {
	f := newFixture(t, model.RoleAdmin)

	w := f.do(t, http.MethodPost, "/api/v1/invoices/"+uuid.NewString()+"/finalize",
		gin.H{"amount_tendered": "-1"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["message"], "amount_tendered must not be negative")
}

func TestFinalize_Success(t *testing.T) {
	f := newFixture(t, model.RoleSecretary)
	inv := insuredDraft()
	f.invoices.On("Get", mock.Anything, inv.ID).Return(inv, nil)
	f.invoices.On("Finalize", mock.Anything, inv).Return(nil)
	f.publisher.On("Publish", mock.Anything, billing.EventInvoiceFinalized, mock.Anything).Return(nil)

	w := f.do(t, http.MethodPost, "/api/v1/invoices/"+inv.ID.String()+"/finalize",
		gin.H{"amount_tendered": 3000})

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "finalized", data["status"])
	assert.Equal(t, "520", data["change"])
	f.publisher.AssertExpectations(t)
}

func TestRemoveItem_OutOfRange(t *testing.T) {
	f := newFixture(t, model.RoleSecretary)
	inv := insuredDraft()
	f.invoices.On("Get", mock.Anything, inv.ID).Return(inv, nil)

	w := f.do(t, http.MethodDelete, "/api/v1/invoices/"+inv.ID.String()+"/items/5", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["message"], "line item index out of range")
	assert.Len(t, inv.Items, 2)
	f.invoices.AssertNotCalled(t, "SaveItems", mock.Anything, mock.Anything)
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	f := newFixture(t, model.RoleSecretary)
	inv := insuredDraft()
	f.invoices.On("Get", mock.Anything, inv.ID).Return(inv, nil)
	f.catalog.On("GetByCode", mock.Anything, "XRAY").
		Return(&model.Service{Code: "XRAY", Name: "X-ray", Price: dec("1500"), Active: true}, nil)

	w := f.do(t, http.MethodPost, "/api/v1/invoices/"+inv.ID.String()+"/items",
		gin.H{"service_code": "XRAY", "quantity": 0})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["message"], "quantity must be greater than zero")
	assert.Len(t, inv.Items, 2)
}

func TestAddItem_UnitPriceBeyondColumnRejected(t *testing.T) {
	tests := []struct {
		name  string
		price string
	}{
		{"five decimal places", "10.00005"},
		{"too large", "10000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, model.RoleSecretary)

			w := f.do(t, http.MethodPost, "/api/v1/invoices/"+uuid.NewString()+"/items",
				gin.H{"service_code": "XRAY", "unit_price": tt.price, "quantity": 1})

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode(t, w)["message"], "unit_price must have at most 4 decimal places")
			f.invoices.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
			f.invoices.AssertNotCalled(t, "SaveItems", mock.Anything, mock.Anything)
		})
	}
}

func TestFinalize_TenderedBeyondColumnRejected(t *testing.T) {
	f := newFixture(t, model.RoleSecretary)

	w := f.do(t, http.MethodPost, "/api/v1/invoices/"+uuid.NewString()+"/finalize",
		gin.H{"amount_tendered": "10000000000"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["message"], "amount_tendered must have at most 4 decimal places")
	f.invoices.AssertNotCalled(t, "Finalize", mock.Anything, mock.Anything)
}

func TestPreview_TenderedScaleRejected(t *testing.T) {
	f := newFixture(t, model.RoleSecretary)

	w := f.do(t, http.MethodGet, "/api/v1/invoices/"+uuid.NewString()+"/preview?tendered=3000.00001", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.invoices.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestDownloadPDF(t *testing.T) {
	f := newFixture(t, model.RoleAdmin)
	inv := insuredDraft()
	inv.Status = model.InvoiceStatusFinalized
	inv.Subtotal, inv.DiscountAmount, inv.TotalDue = dec("3100"), dec("620"), dec("2480")
	inv.AmountTendered, inv.Change = dec("3000"), dec("520")
	f.invoices.On("Get", mock.Anything, inv.ID).Return(inv, nil)
	f.patients.On("Get", mock.Anything, inv.PatientID).Return(&model.Patient{Name: "Ana Mora"}, nil)

	w := f.do(t, http.MethodGet, "/api/v1/invoices/"+inv.ID.String()+"/pdf", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF-"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), inv.ID.String())
}

func TestInvoices_DoctorForbidden(t *testing.T) {
	f := newFixture(t, model.RoleDoctor)

	w := f.do(t, http.MethodGet, "/api/v1/invoices", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListServices_DoctorAllowed(t *testing.T) {
	f := newFixture(t, model.RoleDoctor)
	f.catalog.On("List", mock.Anything, true).
		Return([]*model.Service{{Code: "CONS", Name: "Consultation", Price: dec("2500"), Active: true}}, nil)

	w := f.do(t, http.MethodGet, "/api/v1/services", nil)

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].([]interface{})
	assert.Len(t, data, 1)
}

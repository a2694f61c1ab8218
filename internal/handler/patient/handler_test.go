package patient

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/mocks"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/medical"
	"github.com/jwalitptl/clinic-api/internal/service/patient"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

type fixture struct {
	patients     *mocks.PatientRepository
	records      *mocks.MedicalRecordRepository
	appointments *mocks.AppointmentRepository
	principal    *model.Principal
	engine       *gin.Engine
}

func newFixture(t *testing.T, role model.Role) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validator.RegisterBinding())

	f := &fixture{
		patients:     new(mocks.PatientRepository),
		records:      new(mocks.MedicalRecordRepository),
		appointments: new(mocks.AppointmentRepository),
		principal:    &model.Principal{UserID: uuid.New(), Role: role},
	}
	logger := zerolog.Nop()
	h := NewHandler(
		patient.NewService(f.patients),
		medical.NewService(f.records, f.patients, f.appointments, &logger),
	)

	f.engine = gin.New()
	api := f.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Set(middleware.ContextPrincipal, f.principal)
		c.Next()
	})
	h.RegisterRoutes(api)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestCreatePatient(t *testing.T) {
	f := newFixture(t, model.RoleSecretary)
	f.patients.On("Create", mock.Anything, mock.AnythingOfType("*model.Patient")).Return(nil)

	w, resp := f.do(t, http.MethodPost, "/api/v1/patients", map[string]string{
		"name":  "  Ana Torres ",
		"email": "Ana@Example.com",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "Ana Torres", data["name"])
	assert.Equal(t, "ana@example.com", data["email"])
}

func TestCreatePatient_DoctorForbidden(t *testing.T) {
	f := newFixture(t, model.RoleDoctor)

	w, _ := f.do(t, http.MethodPost, "/api/v1/patients", map[string]string{"name": "Ana"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	f.patients.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreatePatient_InvalidEmail(t *testing.T) {
	f := newFixture(t, model.RoleAdmin)

	w, resp := f.do(t, http.MethodPost, "/api/v1/patients", map[string]string{
		"name":  "Ana",
		"email": "not-an-email",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email must be a valid email", resp["message"])
}

func TestListPatients(t *testing.T) {
	f := newFixture(t, model.RoleDoctor)
	page := model.Pagination{Page: 2, PageSize: 10}
	f.patients.On("List", mock.Anything, page).Return([]*model.Patient{{Name: "Ana"}}, nil)

	w, resp := f.do(t, http.MethodGet, "/api/v1/patients?page=2&page_size=10", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["data"], 1)
}

func TestGetPatient_OwnRecordOnly(t *testing.T) {
	own := uuid.New()
	f := newFixture(t, model.RolePatient)
	f.principal.PatientID = &own
	f.patients.On("Get", mock.Anything, own).Return(&model.Patient{Base: model.Base{ID: own}, Name: "Ana"}, nil)

	w, _ := f.do(t, http.MethodGet, "/api/v1/patients/"+own.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(t, http.MethodGet, "/api/v1/patients/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetPatient_NotFound(t *testing.T) {
	f := newFixture(t, model.RoleAdmin)
	id := uuid.New()
	f.patients.On("Get", mock.Anything, id).Return(nil, repository.ErrNotFound)

	w, resp := f.do(t, http.MethodGet, "/api/v1/patients/"+id.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error", resp["status"])
}

func TestAddMedicalRecord(t *testing.T) {
	f := newFixture(t, model.RoleDoctor)
	id := uuid.New()
	f.patients.On("Get", mock.Anything, id).Return(&model.Patient{Base: model.Base{ID: id}}, nil)
	f.records.On("Create", mock.Anything, mock.AnythingOfType("*model.MedicalRecord")).Return(nil)

	w, resp := f.do(t, http.MethodPost, "/api/v1/patients/"+id.String()+"/records", map[string]string{
		"diagnosis": "Sinusitis",
		"treatment": "Rest",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "Sinusitis", data["diagnosis"])
	assert.Equal(t, f.principal.UserID.String(), data["created_by"])
}

func TestAddMedicalRecord_ForeignAppointment(t *testing.T) {
	f := newFixture(t, model.RoleDoctor)
	id := uuid.New()
	aptID := uuid.New()
	f.patients.On("Get", mock.Anything, id).Return(&model.Patient{Base: model.Base{ID: id}}, nil)
	f.appointments.On("Get", mock.Anything, aptID).Return(&model.Appointment{
		Base:      model.Base{ID: aptID},
		PatientID: uuid.New(),
	}, nil)

	w, _ := f.do(t, http.MethodPost, "/api/v1/patients/"+id.String()+"/records", map[string]string{
		"diagnosis":      "Sinusitis",
		"appointment_id": aptID.String(),
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.records.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMedicalRecords_SecretaryForbidden(t *testing.T) {
	f := newFixture(t, model.RoleSecretary)

	w, _ := f.do(t, http.MethodGet, "/api/v1/patients/"+uuid.NewString()+"/records", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

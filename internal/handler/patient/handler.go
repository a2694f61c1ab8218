package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/medical"
	"github.com/jwalitptl/clinic-api/internal/service/patient"
)

type Handler struct {
	service *patient.Service
	records *medical.Service
}

func NewHandler(service *patient.Service, records *medical.Service) *Handler {
	return &Handler{service: service, records: records}
}

// RegisterRoutes mounts patients and their medical records on an authenticated group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	clinical := middleware.RequireRoles(model.RoleAdmin, model.RoleDoctor)

	patients := r.Group("/patients")
	{
		patients.POST("", middleware.RequireRoles(model.RoleAdmin, model.RoleSecretary), h.CreatePatient)
		patients.GET("", middleware.RequireRoles(model.RoleAdmin, model.RoleSecretary, model.RoleDoctor), h.ListPatients)
		patients.GET("/:id", h.GetPatient)
		patients.POST("/:id/records", clinical, h.AddMedicalRecord)
		patients.GET("/:id/records", clinical, h.ListMedicalRecords)
	}
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.CreatePatientRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

func (h *Handler) ListPatients(c *gin.Context) {
	var page model.Pagination
	if !handler.BindQuery(c, &page) {
		return
	}

	patients, err := h.service.List(c.Request.Context(), page)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(patients))
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), id, principal)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) AddMedicalRecord(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.CreateMedicalRecordRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}

	record, err := h.records.Create(c.Request.Context(), id, &req, principal)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(record))
}

func (h *Handler) ListMedicalRecords(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	records, err := h.records.ListByPatient(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(records))
}

package appointment

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/appointment"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the appointment routes on an authenticated group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	staff := middleware.RequireRoles(model.RoleAdmin, model.RoleSecretary, model.RoleDoctor)

	appointments := r.Group("/appointments")
	{
		appointments.POST("", staff, h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PATCH("/:id", staff, h.UpdateAppointment)
		appointments.POST("/:id/status", staff, h.ChangeStatus)
		appointments.POST("/:id/cancel", staff, h.CancelAppointment)
		appointments.GET("/:id/actions", h.AllowedActions)
		appointments.GET("/:id/history", h.GetHistory)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}
	apt, err := h.service.Create(c.Request.Context(), &req, principal)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(apt))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}
	apt, err := h.service.Get(c.Request.Context(), id, principal)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

type listQuery struct {
	PatientID string    `form:"patient_id"`
	DoctorID  string    `form:"doctor_id"`
	Status    string    `form:"status"`
	From      time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To        time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page      int       `form:"page"`
	PageSize  int       `form:"page_size"`
}

func (h *Handler) ListAppointments(c *gin.Context) {
	var q listQuery
	if !handler.BindQuery(c, &q) {
		return
	}

	filters := &model.AppointmentFilters{
		Status:     model.AppointmentStatus(q.Status),
		From:       q.From,
		To:         q.To,
		Pagination: model.Pagination{Page: q.Page, PageSize: q.PageSize},
	}

	var err error
	if filters.PatientID, err = optionalUUID(q.PatientID); err != nil {
		handler.RespondError(c, apperrors.BadRequest("invalid patient ID", err))
		return
	}
	if filters.DoctorID, err = optionalUUID(q.DoctorID); err != nil {
		handler.RespondError(c, apperrors.BadRequest("invalid doctor ID", err))
		return
	}
	if !filters.From.IsZero() && !filters.To.IsZero() && filters.To.Before(filters.From) {
		handler.RespondError(c, apperrors.Validation("to must not be before from", nil))
		return
	}

	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}
	appointments, err := h.service.List(c.Request.Context(), filters, principal)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	apt, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) ChangeStatus(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.ChangeStatusRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}
	apt, err := h.service.ChangeStatus(c.Request.Context(), id, req.Status, req.Reason, principal)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.CancelAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}
	apt, err := h.service.Cancel(c.Request.Context(), id, req.Reason, principal)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) AllowedActions(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}
	actions, err := h.service.AllowedActions(c.Request.Context(), id, principal)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"actions": actions}))
}

func (h *Handler) GetHistory(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}
	history, err := h.service.History(c.Request.Context(), id, principal)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(history))
}

func optionalUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}

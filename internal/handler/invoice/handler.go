package invoice

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/billing"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

type Handler struct {
	service *billing.Service
}

func NewHandler(service *billing.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts billing and the service catalog on an authenticated group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/services",
		middleware.RequireRoles(model.RoleAdmin, model.RoleSecretary, model.RoleDoctor),
		h.ListServices)

	invoices := r.Group("/invoices")
	invoices.Use(middleware.RequireRoles(model.RoleAdmin, model.RoleSecretary))
	{
		invoices.POST("", h.CreateInvoice)
		invoices.GET("", h.ListInvoices)
		invoices.GET("/:id", h.GetInvoice)
		invoices.POST("/:id/items", h.AddItem)
		invoices.DELETE("/:id/items/:index", h.RemoveItem)
		invoices.GET("/:id/preview", h.Preview)
		invoices.POST("/:id/finalize", h.Finalize)
		invoices.GET("/:id/pdf", h.DownloadPDF)
		invoices.POST("/:id/send", h.SendPDF)
	}
}

func (h *Handler) ListServices(c *gin.Context) {
	activeOnly := c.DefaultQuery("active", "true") != "false"

	services, err := h.service.ListServices(c.Request.Context(), activeOnly)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(services))
}

func (h *Handler) CreateInvoice(c *gin.Context) {
	var req model.CreateInvoiceRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}

	inv, err := h.service.CreateDraft(c.Request.Context(), &req, principal)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(inv))
}

type listQuery struct {
	PatientID string `form:"patient_id"`
	Status    string `form:"status" binding:"omitempty,oneof=draft finalized"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
}

func (h *Handler) ListInvoices(c *gin.Context) {
	var q listQuery
	if !handler.BindQuery(c, &q) {
		return
	}

	filters := &model.InvoiceFilters{
		Status:     model.InvoiceStatus(q.Status),
		Pagination: model.Pagination{Page: q.Page, PageSize: q.PageSize},
	}
	if q.PatientID != "" {
		patientID, err := uuid.Parse(q.PatientID)
		if err != nil {
			handler.RespondError(c, apperrors.BadRequest("invalid patient ID", err))
			return
		}
		filters.PatientID = patientID
	}

	invoices, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(invoices))
}

func (h *Handler) GetInvoice(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	inv, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(inv))
}

func (h *Handler) AddItem(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.AddLineItemRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.AddItem(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(inv))
}

func (h *Handler) RemoveItem(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		handler.RespondError(c, apperrors.BadRequest("invalid item index", err))
		return
	}

	inv, err := h.service.RemoveItem(c.Request.Context(), id, index)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(inv))
}

// Preview answers the totals, and the change when ?tendered= is given.
func (h *Handler) Preview(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	var tendered *decimal.Decimal
	if raw := c.Query("tendered"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			handler.RespondError(c, apperrors.BadRequest("invalid tendered amount", err))
			return
		}
		if !validator.ValidMoney(amount) {
			handler.RespondError(c, apperrors.BadRequest("invalid tendered amount",
				fmt.Errorf("at most %d decimal places and below %d", validator.MoneyScale, validator.MoneyLimit)))
			return
		}
		tendered = &amount
	}

	summary, err := h.service.Preview(c.Request.Context(), id, tendered)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(summary))
}

func (h *Handler) Finalize(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.FinalizeInvoiceRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.Finalize(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(inv))
}

func (h *Handler) DownloadPDF(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	pdf, err := h.service.RenderPDF(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice-%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *Handler) SendPDF(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.SendPDF(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, handler.NewSuccessResponse(gin.H{"invoice_id": id}))
}

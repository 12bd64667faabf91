package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/freight-audit/internal/application/port"
	"github.com/garyjia/freight-audit/internal/application/service"
	"github.com/garyjia/freight-audit/internal/domain/entity"
	"github.com/garyjia/freight-audit/internal/domain/workflow"
)

// Actor headers identify the user behind a request
const (
	HeaderActorName = "X-Actor-Name"
	HeaderActorRole = "X-Actor-Role"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 1000

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    string      `json:"kind,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// DecisionRequest is the body of a step decision
type DecisionRequest struct {
	Decision string `json:"decision"`
	Comment  string `json:"comment"`
}

// ReplaceWorkflowRequest is the body of a configuration replacement
type ReplaceWorkflowRequest struct {
	Steps []entity.WorkflowStepConfig `json:"steps"`
}

// ListInvoicesRequest represents query parameters for listing invoices
type ListInvoicesRequest struct {
	Status string `form:"status"`
	Role   string `form:"role"`
}

// ListNotificationsRequest represents query parameters for the feed
type ListNotificationsRequest struct {
	Role  string `form:"role"`
	Limit int    `form:"limit"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// ListInvoices handles GET /api/invoices
func (h *Handlers) ListInvoices(c *gin.Context) {
	var req ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}

	invoices, err := h.services.Workflow.ListInvoices(c.Request.Context(), port.InvoiceFilter{
		Status: entity.InvoiceStatus(strings.ToUpper(req.Status)),
		Role:   strings.ToUpper(req.Role),
	})
	if err != nil {
		h.respondError(c, "list invoices", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: invoices})
}

// RegisterInvoice handles POST /api/invoices
func (h *Handlers) RegisterInvoice(c *gin.Context) {
	var req service.RegisterInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	invoice, err := h.services.Workflow.RegisterInvoice(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "register invoice", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: invoice})
}

// GetInvoice handles GET /api/invoices/:id
func (h *Handlers) GetInvoice(c *gin.Context) {
	invoice, err := h.services.Workflow.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "get invoice", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: invoice})
}

// PreviewRoute handles GET /api/invoices/:id/route
func (h *Handlers) PreviewRoute(c *gin.Context) {
	preview, err := h.services.Workflow.PreviewRoute(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "preview route", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: preview})
}

// Decide handles POST /api/invoices/:id/steps/:stepId/decision
func (h *Handlers) Decide(c *gin.Context) {
	var body DecisionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	decision, err := workflow.ParseDecision(body.Decision)
	if err != nil {
		h.respondError(c, "decide", err)
		return
	}

	actor, ok := h.actor(c)
	if !ok {
		return
	}

	invoice, err := h.services.Workflow.Decide(c.Request.Context(), c.Param("id"), workflow.DecisionRequest{
		StepID:   c.Param("stepId"),
		Decision: decision,
		Actor:    actor,
		Comment:  body.Comment,
	})
	if err != nil {
		h.respondError(c, "decide", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: invoice})
}

// InvoiceTax handles GET /api/invoices/:id/tax
func (h *Handlers) InvoiceTax(c *gin.Context) {
	view, err := h.services.Tax.InvoiceTax(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "invoice tax", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// InvoiceAllocation handles GET /api/invoices/:id/gl
func (h *Handlers) InvoiceAllocation(c *gin.Context) {
	allocation, err := h.services.Allocation.InvoiceAllocation(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "invoice allocation", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: allocation})
}

// GetWorkflow handles GET /api/workflow
func (h *Handlers) GetWorkflow(c *gin.Context) {
	cfg, err := h.services.Workflow.GetConfig(c.Request.Context())
	if err != nil {
		h.respondError(c, "get workflow", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: cfg})
}

// ReplaceWorkflow handles PUT /api/workflow
func (h *Handlers) ReplaceWorkflow(c *gin.Context) {
	var body ReplaceWorkflowRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	actor, ok := h.actor(c)
	if !ok {
		return
	}

	cfg, err := h.services.Workflow.ReplaceConfig(c.Request.Context(), actor, body.Steps)
	if err != nil {
		h.respondError(c, "replace workflow", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: cfg})
}

// ListRoles handles GET /api/roles
func (h *Handlers) ListRoles(c *gin.Context) {
	roles, err := h.services.Workflow.ListRoles(c.Request.Context())
	if err != nil {
		h.respondError(c, "list roles", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: roles})
}

// ListVendors handles GET /api/vendors
func (h *Handlers) ListVendors(c *gin.Context) {
	vendors, err := h.services.Vendors.List(c.Request.Context())
	if err != nil {
		h.respondError(c, "list vendors", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: vendors})
}

// GetVendor handles GET /api/vendors/:id
func (h *Handlers) GetVendor(c *gin.Context) {
	vendor, err := h.services.Vendors.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "get vendor", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: vendor})
}

// SaveVendor handles PUT /api/vendors/:id
func (h *Handlers) SaveVendor(c *gin.Context) {
	var vendor entity.Vendor
	if err := c.ShouldBindJSON(&vendor); err != nil {
		h.badRequest(c, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	vendor.ID = c.Param("id")

	if err := h.services.Vendors.Save(c.Request.Context(), &vendor); err != nil {
		h.respondError(c, "save vendor", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: vendor})
}

// ListGLRules handles GET /api/gl-rules
func (h *Handlers) ListGLRules(c *gin.Context) {
	rules, err := h.services.Allocation.Rules(c.Request.Context())
	if err != nil {
		h.respondError(c, "list gl rules", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: rules})
}

// ListNotifications handles GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	var req ListNotificationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}
	if req.Limit <= 0 {
		req.Limit = defaultFeedLimit
	}
	if req.Limit > maxFeedLimit {
		req.Limit = maxFeedLimit
	}

	feed, err := h.services.Notifications.List(c.Request.Context(), strings.ToUpper(req.Role), req.Limit)
	if err != nil {
		h.respondError(c, "list notifications", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: feed})
}

// ExportGLRegister handles GET /api/exports/gl-register
func (h *Handlers) ExportGLRegister(c *gin.Context) {
	name, data, err := h.services.Export.GLRegister(c.Request.Context())
	if err != nil {
		h.respondError(c, "export gl register", err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(name))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// actor reads the acting user from the request headers. The role is
// checked by the workflow itself, so only the name is required here.
func (h *Handlers) actor(c *gin.Context) (entity.Actor, bool) {
	name := strings.TrimSpace(c.GetHeader(HeaderActorName))
	if name == "" {
		h.badRequest(c, HeaderActorName+" header is required")
		return entity.Actor{}, false
	}

	role := strings.ToUpper(strings.TrimSpace(c.GetHeader(HeaderActorRole)))
	return entity.Actor{Name: name, Role: role, RoleID: role}, true
}

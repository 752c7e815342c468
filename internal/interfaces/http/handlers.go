package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/timesheet-approval/internal/application/service"
	"github.com/garyjia/timesheet-approval/internal/domain/apperr"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/garyjia/timesheet-approval/internal/domain/period"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	approval    service.ApprovalService
	query       service.QueryService
	sync        service.SyncService
	autoApprove service.AutoApprovalService
	loc         *time.Location
	logger      Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, loc *time.Location, logger Logger) *Handlers {
	return &Handlers{
		approval:    services.Approval,
		query:       services.Query,
		sync:        services.Sync,
		autoApprove: services.AutoApproval,
		loc:         loc,
		logger:      logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ListTimesheetsRequest represents query parameters for listing timesheets
type ListTimesheetsRequest struct {
	Status      string `form:"status" binding:"omitempty,oneof=pending approved finalized"`
	LocationID  int64  `form:"location_id" binding:"gte=0"`
	EmployeeID  int64  `form:"employee_id" binding:"gte=0"`
	PeriodStart string `form:"period_start" binding:"omitempty,datetime=2006-01-02"`
	Limit       int    `form:"limit"`
	Offset      int    `form:"offset"`
}

// ExtraTimeRequest is the body of an extra-time decision
type ExtraTimeRequest struct {
	Decision string `json:"decision" binding:"required"`
}

// SyncRequest is the body of a manual sync
type SyncRequest struct {
	LocationID int64  `json:"location_id" binding:"gte=0"`
	Start      string `json:"start" binding:"required,datetime=2006-01-02"`
	End        string `json:"end" binding:"required,datetime=2006-01-02"`
}

// AutoApprovalRequest is the body of a manual auto-approval run
type AutoApprovalRequest struct {
	DryRun bool `json:"dry_run"`
	Notify bool `json:"notify"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// ListTimesheets handles GET /api/timesheets
func (h *Handlers) ListTimesheets(c *gin.Context) {
	var req ListTimesheetsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: "invalid query parameters: " + err.Error()})
		return
	}
	if req.Limit <= 0 || req.Limit > 200 {
		req.Limit = 50
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	filter := entity.TimesheetFilter{
		LocationID: req.LocationID,
		EmployeeID: req.EmployeeID,
		Status:     entity.HeaderStatus(req.Status),
		Limit:      req.Limit,
		Offset:     req.Offset,
	}
	if req.PeriodStart != "" {
		start, err := period.ParseDate(req.PeriodStart, h.loc)
		if err != nil {
			h.fail(c, "list timesheets", apperr.NewValidation("period_start", "period_start must be YYYY-MM-DD"))
			return
		}
		filter.PeriodStart = &start
	}

	timesheets, err := h.query.ListTimesheets(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		h.fail(c, "list timesheets", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: timesheets})
}

// GetTimesheet handles GET /api/timesheets/:id
func (h *Handlers) GetTimesheet(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.query.GetTimesheet(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.fail(c, "get timesheet", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: detail})
}

// TimesheetHistory handles GET /api/timesheets/:id/history
func (h *Handlers) TimesheetHistory(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	rows, err := h.query.History(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.fail(c, "timesheet history", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: rows})
}

// FinalizeTimesheet handles POST /api/timesheets/:id/finalize
func (h *Handlers) FinalizeTimesheet(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.approval.FinalizeTimesheet(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.fail(c, "finalize timesheet", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ResetTimesheet handles POST /api/timesheets/:id/reset
func (h *Handlers) ResetTimesheet(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.approval.ResetTimesheet(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.fail(c, "reset timesheet", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ApproveEntry handles POST /api/entries/:id/approve
func (h *Handlers) ApproveEntry(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.approval.ApproveEntry(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.fail(c, "approve entry", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// UnapproveEntry handles POST /api/entries/:id/unapprove
func (h *Handlers) UnapproveEntry(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.approval.UnapproveEntry(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.fail(c, "unapprove entry", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// EditEntry handles PATCH /api/entries/:id
func (h *Handlers) EditEntry(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req service.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: "invalid request body: " + err.Error()})
		return
	}
	result, err := h.approval.EditEntry(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		h.fail(c, "edit entry", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// DecideExtraTime handles POST /api/time-records/:id/extra-time
func (h *Handlers) DecideExtraTime(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ExtraTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: "invalid request body: " + err.Error()})
		return
	}
	result, err := h.approval.DecideExtraTime(c.Request.Context(), actorFrom(c), id, service.Decision(req.Decision))
	if err != nil {
		h.fail(c, "decide extra time", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// Deadline handles GET /api/deadline
func (h *Handlers) Deadline(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.query.Deadline(time.Time{})})
}

// Sync handles POST /api/admin/sync
func (h *Handlers) Sync(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: "invalid request body: " + err.Error()})
		return
	}
	start, err := period.ParseDate(req.Start, h.loc)
	if err != nil {
		h.fail(c, "sync", apperr.NewValidation("start", "start must be YYYY-MM-DD"))
		return
	}
	end, err := period.ParseDate(req.End, h.loc)
	if err != nil || end.Before(start) {
		h.fail(c, "sync", apperr.NewValidation("end", "end must be a date on or after start"))
		return
	}
	end = period.EndOfDay(end, h.loc)

	var result *service.SyncResult
	if req.LocationID != 0 {
		result, err = h.sync.SyncLocation(c.Request.Context(), req.LocationID, start, end)
	} else {
		result, err = h.sync.SyncWindow(c.Request.Context(), start, end)
	}
	if err != nil {
		h.fail(c, "sync", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// RunAutoApproval handles POST /api/admin/auto-approval
func (h *Handlers) RunAutoApproval(c *gin.Context) {
	var req AutoApprovalRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, Response{Error: "invalid request body: " + err.Error()})
			return
		}
	}
	report, err := h.autoApprove.Run(c.Request.Context(), service.RunOptions{DryRun: req.DryRun, Notify: req.Notify})
	if err != nil {
		h.fail(c, "auto-approval", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: report})
}

func (h *Handlers) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, Response{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hos-service/internal/geo"
	"hos-service/internal/http/middleware"
	"hos-service/internal/model"
	"hos-service/internal/service"
)

const dateLayout = "2006-01-02"

type Handler struct {
	ledger *service.Ledger
	status *service.StatusService
	health func(ctx context.Context) error
	log    zerolog.Logger
}

func NewHandler(ledger *service.Ledger, status *service.StatusService, health func(ctx context.Context) error, log zerolog.Logger) *Handler {
	return &Handler{ledger: ledger, status: status, health: health, log: log}
}

func (h *Handler) healthz(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type locationPayload struct {
	Lat      float64  `json:"lat" binding:"required"`
	Lng      float64  `json:"lng"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

func (p locationPayload) coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: p.Lat, Lng: p.Lng}
}

func (h *Handler) clockIn(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var req struct {
		DriverID  string          `json:"driver_id" binding:"required"`
		VehicleID string          `json:"vehicle_id" binding:"required"`
		Timestamp time.Time       `json:"timestamp" binding:"required"`
		Location  locationPayload `json:"location" binding:"required"`
		Notes     string          `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	driverID, err := uuid.Parse(strings.TrimSpace(req.DriverID))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid driver_id"))
		return
	}
	vehicleID, err := uuid.Parse(strings.TrimSpace(req.VehicleID))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle_id"))
		return
	}

	card, err := h.ledger.ClockIn(c.Request.Context(), principal, service.ClockInInput{
		DriverID:  driverID,
		VehicleID: vehicleID,
		Timestamp: req.Timestamp,
		Location:  req.Location.coordinate(),
		Notes:     req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(card))
}

func (h *Handler) recordWaypoint(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var req struct {
		DriverID  string          `json:"driver_id" binding:"required"`
		Timestamp time.Time       `json:"timestamp" binding:"required"`
		Location  locationPayload `json:"location" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	driverID, err := uuid.Parse(strings.TrimSpace(req.DriverID))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid driver_id"))
		return
	}

	if err := h.ledger.RecordWaypoint(c.Request.Context(), principal, driverID, req.Timestamp, req.Location.coordinate()); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"status": "recorded"}))
}

func (h *Handler) clockOut(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var req struct {
		DriverID  string          `json:"driver_id" binding:"required"`
		Timestamp time.Time       `json:"timestamp" binding:"required"`
		Location  locationPayload `json:"location" binding:"required"`
		Signature string          `json:"signature"`
		Notes     string          `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	driverID, err := uuid.Parse(strings.TrimSpace(req.DriverID))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid driver_id"))
		return
	}

	result, err := h.ledger.ClockOut(c.Request.Context(), principal, service.ClockOutInput{
		DriverID:     driverID,
		Timestamp:    req.Timestamp,
		Location:     req.Location.coordinate(),
		SignatureRef: req.Signature,
		Notes:        req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) driverStatus(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	driverID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid driver id"))
		return
	}

	view, err := h.status.TodayStatus(c.Request.Context(), principal, driverID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(view))
}

func (h *Handler) driverHistory(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	driverID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid driver id"))
		return
	}

	from, err := time.Parse(dateLayout, strings.TrimSpace(c.Query("from")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid from date"))
		return
	}
	to, err := time.Parse(dateLayout, strings.TrimSpace(c.Query("to")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid to date"))
		return
	}

	summaries, err := h.status.History(c.Request.Context(), principal, driverID, from, to)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": summaries}))
}

func (h *Handler) driverHours(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	driverID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid driver id"))
		return
	}

	date, err := time.Parse(dateLayout, strings.TrimSpace(c.Query("date")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid date"))
		return
	}

	hours, err := h.status.ActualHours(c.Request.Context(), principal, driverID, date)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"driver_id": driverID, "date": date.Format(dateLayout), "hours": hours}))
}

func (h *Handler) listViolations(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	opts, err := parseViolationQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	violations, err := h.status.ListViolations(c.Request.Context(), principal, opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": violations}))
}

func (h *Handler) amendTimeCard(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	cardID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid time card id"))
		return
	}

	var req struct {
		ClockInAt  *time.Time `json:"clock_in_at"`
		ClockOutAt *time.Time `json:"clock_out_at"`
		Note       string     `json:"note" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	card, err := h.ledger.Amend(c.Request.Context(), principal, service.AmendInput{
		TimeCardID:  cardID,
		NewClockIn:  req.ClockInAt,
		NewClockOut: req.ClockOutAt,
		Note:        req.Note,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(card))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrUnknownDriver),
		errors.Is(err, service.ErrUnknownVehicle):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrAlreadyClockedIn),
		errors.Is(err, service.ErrVehicleInUse),
		errors.Is(err, service.ErrNoOpenTimeCard):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrClockOutBeforeClockIn),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInactiveDriver),
		errors.Is(err, service.ErrInactiveVehicle),
		errors.Is(err, geo.ErrInvalidCoordinate):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrStorageUnavailable):
		h.log.Error().Err(err).Msg("storage error")
		c.JSON(http.StatusServiceUnavailable, errorResponse("storage unavailable"))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func parseViolationQuery(c *gin.Context) (service.ListViolationsOptions, error) {
	var opts service.ListViolationsOptions

	if driverID := strings.TrimSpace(c.Query("driver_id")); driverID != "" {
		id, err := uuid.Parse(driverID)
		if err != nil {
			return opts, err
		}
		opts.DriverID = &id
	}
	if typeParam := c.Query("type"); typeParam != "" {
		for _, val := range splitCSV(typeParam) {
			opts.Types = append(opts.Types, model.ViolationType(strings.ToUpper(val)))
		}
	}
	if severityParam := c.Query("severity"); severityParam != "" {
		for _, val := range splitCSV(severityParam) {
			opts.Severities = append(opts.Severities, model.ViolationSeverity(strings.ToUpper(val)))
		}
	}
	if dateFrom := strings.TrimSpace(c.Query("date_from")); dateFrom != "" {
		ts, err := time.Parse(dateLayout, dateFrom)
		if err != nil {
			return opts, err
		}
		opts.DateFrom = &ts
	}
	if dateTo := strings.TrimSpace(c.Query("date_to")); dateTo != "" {
		ts, err := time.Parse(dateLayout, dateTo)
		if err != nil {
			return opts, err
		}
		opts.DateTo = &ts
	}
	if limit := strings.TrimSpace(c.Query("limit")); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil {
			opts.Limit = v
		}
	}
	if offset := strings.TrimSpace(c.Query("offset")); offset != "" {
		if v, err := strconv.Atoi(offset); err == nil {
			opts.Offset = v
		}
	}

	return opts, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

type responseEnvelope struct {
	Data interface{} `json:"data"`
}

func successResponse(data interface{}) responseEnvelope {
	return responseEnvelope{Data: data}
}

func errorResponse(msg string) gin.H {
	return gin.H{"error": msg}
}

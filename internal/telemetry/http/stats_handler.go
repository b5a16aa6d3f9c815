// Package http provides HTTP handlers for usage telemetry.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"

	"github.com/allisson/tenantcrypto/internal/httputil"
	telemetryDomain "github.com/allisson/tenantcrypto/internal/telemetry/domain"
	telemetryUsecase "github.com/allisson/tenantcrypto/internal/telemetry/usecase"
	customValidation "github.com/allisson/tenantcrypto/internal/validation"
)

// UsageAggregateResponse represents one (operation, day) usage bucket.
type UsageAggregateResponse struct {
	Operation    string    `json:"operation"`
	Day          time.Time `json:"day"`
	Count        int64     `json:"count"`
	SuccessCount int64     `json:"success_count"`
	ErrorCount   int64     `json:"error_count"`
	AvgLatencyMS float64   `json:"avg_latency_ms"`
	MaxLatencyMS int64     `json:"max_latency_ms"`
}

// StatsResponse wraps the tenant's usage aggregates.
type StatsResponse struct {
	TenantID string                   `json:"tenant_id"`
	Days     int                      `json:"days"`
	Stats    []UsageAggregateResponse `json:"stats"`
}

// StatsHandler handles HTTP requests for crypto usage statistics.
type StatsHandler struct {
	usageUseCase telemetryUsecase.UsageUseCase
	logger       *slog.Logger
}

// NewStatsHandler creates a new stats handler with required dependencies.
func NewStatsHandler(usageUseCase telemetryUsecase.UsageUseCase, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		usageUseCase: usageUseCase,
		logger:       logger,
	}
}

// GetCryptoStatsHandler returns the tenant's usage aggregated by (operation, day).
// GET /v1/tenants/:tenant_id/stats?days=7
func (h *StatsHandler) GetCryptoStatsHandler(c *gin.Context) {
	tenantID := c.Param("tenant_id")
	if err := validation.Validate(tenantID, validation.Required, customValidation.TenantID); err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid tenant_id parameter: %w", err), h.logger)
		return
	}

	days, err := httputil.ParseDays(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	aggregates, err := h.usageUseCase.GetCryptoStats(c.Request.Context(), tenantID, days)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapStatsResponse(tenantID, days, aggregates))
}

func mapStatsResponse(
	tenantID string, days int, aggregates []*telemetryDomain.UsageAggregate,
) StatsResponse {
	response := StatsResponse{
		TenantID: tenantID,
		Days:     days,
		Stats:    make([]UsageAggregateResponse, 0, len(aggregates)),
	}
	for _, agg := range aggregates {
		response.Stats = append(response.Stats, UsageAggregateResponse{
			Operation:    string(agg.Operation),
			Day:          agg.Day,
			Count:        agg.Count,
			SuccessCount: agg.SuccessCount,
			ErrorCount:   agg.ErrorCount,
			AvgLatencyMS: agg.AvgLatencyMS,
			MaxLatencyMS: agg.MaxLatencyMS,
		})
	}
	return response
}

// Cache administration HTTP handlers.
//
// This file exposes the maintenance endpoints operators use to steer the
// cache out-of-band:
//   - POST /admin/cache/invalidate          (one entry)
//   - POST /admin/cache/invalidate-pattern  (substring sweep)
//   - POST /admin/cache/refresh-expired     (bounded batch recompute)
//   - POST /admin/cache/cleanup             (purge long-dead entries)
//   - GET  /admin/cache/refresh-logs        (audit trail, paginated)
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sdiabate/pvstats/internal/domain"
	"github.com/sdiabate/pvstats/internal/services"
	"github.com/sdiabate/pvstats/internal/utils"
)

// CacheAdminService defines the out-of-band cache maintenance operations
// consumed by the admin endpoints.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type CacheAdminService interface {
	// Invalidate marks one entry invalid; reports whether a row was affected.
	Invalidate(ctx context.Context, et domain.EntityType, entityID string, st domain.StatisticType) (bool, error)
	// InvalidateByPattern marks every entry whose cache key contains pattern.
	InvalidateByPattern(ctx context.Context, pattern string) (int64, error)
	// RefreshAllExpired recomputes due entries, most-used first, up to batchLimit.
	RefreshAllExpired(ctx context.Context, batchLimit int) (services.RefreshSummary, error)
	// CleanupExpired deletes entries expired and invalid for retentionDays.
	CleanupExpired(ctx context.Context, retentionDays int) (int64, error)
}

// RefreshLogLister reads the refresh audit trail. The router adapts the repo
// free functions to this interface.
type RefreshLogLister interface {
	CountRefreshLogs(ctx context.Context) (int64, error)
	ListRefreshLogsPage(ctx context.Context, offset, limit int) ([]domain.RefreshLog, error)
}

//
// DTOs
//

// InvalidateRequest identifies the single cache entry to invalidate.
type InvalidateRequest struct {
	EntityType    string `json:"entity_type" binding:"required" example:"REGION"`
	EntityID      string `json:"entity_id" binding:"required" example:"region-42"`
	StatisticType string `json:"statistic_type" binding:"required" example:"GENERAL"`
}

// InvalidateResponse reports whether the targeted entry existed and was valid.
type InvalidateResponse struct {
	Invalidated bool `json:"invalidated"`
}

// InvalidatePatternRequest carries the substring to match against cache keys.
type InvalidatePatternRequest struct {
	Pattern string `json:"pattern" binding:"required" example:"region_region-42"`
}

// InvalidatePatternResponse reports how many entries the sweep affected.
type InvalidatePatternResponse struct {
	Affected int64 `json:"affected"`
}

// CleanupResponse reports how many dead entries were purged.
type CleanupResponse struct {
	Deleted int64 `json:"deleted"`
}

// ListRefreshLogsResponse wraps a page of refresh log rows.
type ListRefreshLogsResponse struct {
	Logs       []domain.RefreshLog `json:"logs"`
	Pagination Pagination          `json:"pagination"`
}

//
// Handlers
//

// InvalidateCacheEntry godoc
// @ID          invalidateCacheEntry
// @Summary     Invalidate one cache entry
// @Description Marks a single cache entry invalid so the next read recomputes it. Idempotent: invalidating an absent or already-invalid entry reports invalidated=false.
// @Tags        Cache admin
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.InvalidateRequest  true  "Entry scope"
//
// @Success     200  {object}  handlers.InvalidateResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/cache/invalidate [post]
func (h *Handlers) InvalidateCacheEntry(c *gin.Context) {
	var req InvalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	et, okET := domain.ParseEntityType(req.EntityType)
	if !okET {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown entity type")
		return
	}
	st, okST := domain.ParseStatisticType(req.StatisticType)
	if !okST {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown statistic type")
		return
	}

	affected, err := h.adminSvc.Invalidate(c.Request.Context(), et, strings.TrimSpace(req.EntityID), st)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, InvalidateResponse{Invalidated: affected})
}

// InvalidateCacheByPattern godoc
// @ID          invalidateCacheByPattern
// @Summary     Invalidate cache entries by key pattern
// @Description Marks every cache entry whose key contains the given substring as invalid and due for a forced refresh. Useful after a domain write to sweep all aggregates touching one scope.
// @Tags        Cache admin
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.InvalidatePatternRequest  true  "Key substring"
//
// @Success     200  {object}  handlers.InvalidatePatternResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/cache/invalidate-pattern [post]
func (h *Handlers) InvalidateCacheByPattern(c *gin.Context) {
	var req InvalidatePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Pattern) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "pattern required")
		return
	}

	affected, err := h.adminSvc.InvalidateByPattern(c.Request.Context(), strings.TrimSpace(req.Pattern))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, InvalidatePatternResponse{Affected: affected})
}

// RefreshExpired godoc
// @ID          refreshExpired
// @Summary     Recompute expired cache entries
// @Description Runs one bounded refresh sweep: entries that are invalidated, force-flagged, or past TTL are recomputed most-used first, up to the limit. Per-entry failures are counted, not fatal.
// @Tags        Cache admin
// @Produce     json
//
// @Param       limit  query  int  false  "Max entries to recompute (server default when omitted)"  minimum(1)
//
// @Success     200  {object}  services.RefreshSummary
// @Failure     500  {object}  handlers.ErrorResponse  "Refresh sweep failed"
// @Router      /admin/cache/refresh-expired [post]
func (h *Handlers) RefreshExpired(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 0)

	summary, err := h.adminSvc.RefreshAllExpired(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeRefreshFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, summary)
}

// CleanupCache godoc
// @ID          cleanupCache
// @Summary     Purge long-dead cache entries
// @Description Permanently deletes entries that have been both expired and invalidated for longer than the retention window. Entries merely past TTL but still valid are never touched.
// @Tags        Cache admin
// @Produce     json
//
// @Param       retention_days  query  int  false  "Retention window in days (server default when omitted)"  minimum(1)
//
// @Success     200  {object}  handlers.CleanupResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Cleanup failed"
// @Router      /admin/cache/cleanup [post]
func (h *Handlers) CleanupCache(c *gin.Context) {
	retention := utils.AtoiDefault(c.Query("retention_days"), 0)

	deleted, err := h.adminSvc.CleanupExpired(c.Request.Context(), retention)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, CleanupResponse{Deleted: deleted})
}

// ListRefreshLogs godoc
// @ID          listRefreshLogs
// @Summary     List refresh audit logs (paginated)
// @Description Returns the refresh audit trail, newest first. Every recomputation attempt is recorded here, successes and failures alike.
// @Tags        Cache admin
// @Produce     json
//
// @Param       page       query  int  false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListRefreshLogsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/cache/refresh-logs [get]
func (h *Handlers) ListRefreshLogs(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	total, err := h.logs.CountRefreshLogs(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	logs, err := h.logs.ListRefreshLogsPage(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if logs == nil {
		logs = []domain.RefreshLog{}
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListRefreshLogsResponse{
		Logs: logs,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

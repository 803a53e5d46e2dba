// Statistics HTTP handlers.
//
// This file exposes the cache-backed statistics read endpoint:
//   - GET /statistics/{entity_type}/{entity_id}/{statistic_type}
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. Cache semantics (TTL, hit
// counting, recomputation) live entirely in the service layer; the handler
// only chooses the refresh mode from the query string and surfaces cache
// metadata alongside the document.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sdiabate/pvstats/internal/domain"
	"github.com/sdiabate/pvstats/internal/services"
	"github.com/sdiabate/pvstats/internal/utils"
)

//
// Service contracts (context-aware)
//

// StatsService resolves a statistic through the cache, recomputing it when it
// is missing, stale, or force-requested.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type StatsService interface {
	// Obtain returns the statistic document for a scope together with its
	// freshness and backing cache entry.
	Obtain(ctx context.Context, et domain.EntityType, entityID string, st domain.StatisticType, mode services.RefreshMode) (*services.Result, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for statistics, cache administration,
// and daily snapshots. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	statsSvc StatsService
	adminSvc CacheAdminService
	snapSvc  SnapshotService
	logs     RefreshLogLister
}

// New constructs and returns a Handlers instance bound to the given services.
func New(statsSvc StatsService, adminSvc CacheAdminService, snapSvc SnapshotService, logs RefreshLogLister) *Handlers {
	return &Handlers{statsSvc: statsSvc, adminSvc: adminSvc, snapSvc: snapSvc, logs: logs}
}

//
// DTOs
//

// StatisticResponse wraps a statistic document with its cache metadata so
// consumers can see what they got and how fresh it is.
type StatisticResponse struct {
	EntityType    string `json:"entity_type" example:"REGION"`
	EntityID      string `json:"entity_id" example:"region-42"`
	StatisticType string `json:"statistic_type" example:"GENERAL"`
	CacheKey      string `json:"cache_key" example:"region_region-42_general"`

	// Data is the aggregated document; null when Freshness is "missing".
	Data json.RawMessage `json:"data" swaggertype:"object"`

	// Freshness is "fresh", "stale", or "missing".
	Freshness string `json:"freshness" example:"fresh"`
	// Recomputed reports whether this request triggered an aggregation.
	Recomputed bool `json:"recomputed"`

	ComputedAt *time.Time `json:"computed_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	HitCount   int64      `json:"hit_count"`
	Version    int        `json:"version"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// parseScope validates the three path params that identify a statistic.
func parseScope(c *gin.Context) (domain.EntityType, string, domain.StatisticType, bool) {
	et, okET := domain.ParseEntityType(c.Param("entity_type"))
	if !okET {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown entity type")
		return "", "", "", false
	}
	st, okST := domain.ParseStatisticType(c.Param("statistic_type"))
	if !okST {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown statistic type")
		return "", "", "", false
	}
	id := strings.TrimSpace(c.Param("entity_id"))
	if id == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "entity id required")
		return "", "", "", false
	}
	return et, id, st, true
}

// parseRefreshMode maps the ?refresh= query parameter onto a RefreshMode.
// Absent or "auto" is the default; anything else is a client error.
func parseRefreshMode(c *gin.Context) (services.RefreshMode, bool) {
	switch strings.ToLower(c.Query("refresh")) {
	case "", "auto":
		return services.RefreshAuto, true
	case "never":
		return services.RefreshNever, true
	case "force":
		return services.RefreshForce, true
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "refresh must be auto, never, or force")
		return services.RefreshAuto, false
	}
}

// failService translates service-layer errors into the HTTP error taxonomy.
func failService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEntityNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "entity not found")
	case errors.Is(err, services.ErrUnsupportedStatistic):
		fail(c, http.StatusBadRequest, ErrCodeUnsupportedStat, err.Error())
	case errors.Is(err, services.ErrInvalidScope):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case services.IsComputationError(err):
		fail(c, http.StatusInternalServerError, ErrCodeComputeFailed, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// statisticResponse flattens a service Result into the response DTO.
func statisticResponse(et domain.EntityType, id string, st domain.StatisticType, res *services.Result) StatisticResponse {
	resp := StatisticResponse{
		EntityType:    string(et),
		EntityID:      id,
		StatisticType: string(st),
		CacheKey:      domain.CacheKey(et, id, st),
		Freshness:     string(res.Freshness),
		Recomputed:    res.Recomputed,
	}
	if res.Data != nil {
		resp.Data = json.RawMessage(res.Data)
	}
	if e := res.Entry; e != nil {
		computed, expires := e.ComputedAt, e.ExpiresAt
		resp.ComputedAt = &computed
		resp.ExpiresAt = &expires
		resp.HitCount = e.HitCount
		resp.Version = e.Version
	}
	return resp
}

//
// Handlers
//

// GetStatistic godoc
// @ID          getStatistic
// @Summary     Get a cached statistic
// @Description Returns the aggregated statistic for an entity scope, served from the cache when fresh and recomputed on demand otherwise. The refresh query parameter controls cache behavior.
// @Tags        Statistics
// @Produce     json
//
// @Param       entity_type     path   string  true  "Entity type"     Enums(NATIONAL, REGION, DEPARTMENT, COMMUNE, SUBPREFECTURE, POLLING_PLACE, POLLING_STATION, CANDIDATE, USER)
// @Param       entity_id       path   string  true  "Entity ID (use 'national' for the NATIONAL scope)"  example(region-42)
// @Param       statistic_type  path   string  true  "Statistic type"  Enums(GENERAL, PV, PARTICIPATION, INCIDENTS, RESULTS, PERFORMANCE, TIMELINE)
// @Param       refresh         query  string  false "Cache behavior"  Enums(auto, never, force) default(auto)
//
// @Success     200  {object}  handlers.StatisticResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request / unsupported statistic"
// @Failure     404  {object}  handlers.ErrorResponse  "Entity not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Computation failed"
// @Router      /statistics/{entity_type}/{entity_id}/{statistic_type} [get]
func (h *Handlers) GetStatistic(c *gin.Context) {
	et, id, st, okScope := parseScope(c)
	if !okScope {
		return
	}
	mode, okMode := parseRefreshMode(c)
	if !okMode {
		return
	}

	res, err := h.statsSvc.Obtain(c.Request.Context(), et, id, st, mode)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, statisticResponse(et, id, st, res))
}

// Daily snapshot HTTP handlers.
//
// This file exposes the durable daily rollup endpoints:
//   - POST /admin/snapshots        (compute/overwrite today's snapshot)
//   - GET  /snapshots              (list, optional date range)
//   - GET  /snapshots/{date}       (one snapshot by calendar date)
//   - GET  /snapshots/export.csv   (CSV download, optional date range)
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/sdiabate/pvstats/internal/domain"
	"github.com/sdiabate/pvstats/internal/export"
	"github.com/sdiabate/pvstats/internal/repo"
)

// SnapshotService defines the daily rollup operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type SnapshotService interface {
	// CreateTodaySnapshot computes and persists today's national rollup,
	// overwriting any snapshot already recorded for the date.
	CreateTodaySnapshot(ctx context.Context) (*domain.DailySnapshot, error)
	// GetSnapshot returns the snapshot for one calendar date (YYYY-MM-DD).
	GetSnapshot(ctx context.Context, date string) (*domain.DailySnapshot, error)
	// ListSnapshots returns snapshots in [from, to], oldest first; empty
	// bounds are open-ended.
	ListSnapshots(ctx context.Context, from, to string) ([]domain.DailySnapshot, error)
}

// ListSnapshotsResponse wraps the snapshots matching a date range.
type ListSnapshotsResponse struct {
	Snapshots []domain.DailySnapshot `json:"snapshots"`
}

// parseDateParam validates an optional YYYY-MM-DD query value. Empty is fine.
func parseDateParam(c *gin.Context, name string) (string, bool) {
	v := c.Query(name)
	if v == "" {
		return "", true
	}
	if _, err := time.Parse(domain.SnapshotDateFormat, v); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be YYYY-MM-DD")
		return "", false
	}
	return v, true
}

// CreateSnapshot godoc
// @ID          createSnapshot
// @Summary     Record today's snapshot
// @Description Computes the national rollup from current data and persists it under today's date. Rerunning on the same day overwrites that day's row; other dates are never touched.
// @Tags        Snapshots
// @Produce     json
//
// @Success     201  {object}  domain.DailySnapshot
// @Failure     500  {object}  handlers.ErrorResponse  "Snapshot computation failed"
// @Router      /admin/snapshots [post]
func (h *Handlers) CreateSnapshot(c *gin.Context) {
	snap, err := h.snapSvc.CreateTodaySnapshot(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSnapshotFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, snap)
}

// ListSnapshots godoc
// @ID          listSnapshots
// @Summary     List daily snapshots
// @Description Returns snapshots ordered by date ascending. Both range bounds are optional and inclusive.
// @Tags        Snapshots
// @Produce     json
//
// @Param       from  query  string  false  "Start date (inclusive)"  example(2025-10-01)
// @Param       to    query  string  false  "End date (inclusive)"    example(2025-10-31)
//
// @Success     200  {object}  handlers.ListSnapshotsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /snapshots [get]
func (h *Handlers) ListSnapshots(c *gin.Context) {
	from, okFrom := parseDateParam(c, "from")
	if !okFrom {
		return
	}
	to, okTo := parseDateParam(c, "to")
	if !okTo {
		return
	}

	snaps, err := h.snapSvc.ListSnapshots(c.Request.Context(), from, to)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if snaps == nil {
		snaps = []domain.DailySnapshot{}
	}
	ok(c, http.StatusOK, ListSnapshotsResponse{Snapshots: snaps})
}

// GetSnapshot godoc
// @ID          getSnapshot
// @Summary     Get one daily snapshot
// @Description Returns the snapshot recorded for the given calendar date.
// @Tags        Snapshots
// @Produce     json
//
// @Param       date  path  string  true  "Calendar date"  example(2025-10-25)
//
// @Success     200  {object}  domain.DailySnapshot
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "No snapshot for that date"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /snapshots/{date} [get]
func (h *Handlers) GetSnapshot(c *gin.Context) {
	date := c.Param("date")
	if _, err := time.Parse(domain.SnapshotDateFormat, date); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date must be YYYY-MM-DD")
		return
	}

	snap, err := h.snapSvc.GetSnapshot(c.Request.Context(), date)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "no snapshot for that date")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, snap)
}

// ExportSnapshotsCSV godoc
// @ID          exportSnapshotsCSV
// @Summary     Export snapshots as CSV
// @Description Streams the snapshots matching the optional date range as a CSV attachment, one row per date.
// @Tags        Snapshots
// @Produce     text/csv
//
// @Param       from  query  string  false  "Start date (inclusive)"  example(2025-10-01)
// @Param       to    query  string  false  "End date (inclusive)"    example(2025-10-31)
//
// @Success     200  {string}  string  "CSV payload"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Export failed"
// @Router      /snapshots/export.csv [get]
func (h *Handlers) ExportSnapshotsCSV(c *gin.Context) {
	from, okFrom := parseDateParam(c, "from")
	if !okFrom {
		return
	}
	to, okTo := parseDateParam(c, "to")
	if !okTo {
		return
	}

	snaps, err := h.snapSvc.ListSnapshots(c.Request.Context(), from, to)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeExportFailed, err.Error())
		return
	}

	filename := fmt.Sprintf("snapshots-%s.csv", time.Now().UTC().Format(domain.SnapshotDateFormat))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	if err := export.WriteSnapshotsCSV(c.Writer, snaps, language.French); err != nil {
		// Headers are already sent; surface the failure to the request logger.
		_ = c.Error(err)
	}
}

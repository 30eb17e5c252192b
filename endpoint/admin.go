package endpoint

import (
	"errors"

	"github.com/ariebrainware/clinic-hms/middleware"
	"github.com/ariebrainware/clinic-hms/migration"
	"github.com/ariebrainware/clinic-hms/util"
	"github.com/gin-gonic/gin"
)

// BackfillPatientUHIDs godoc
// @Summary      Backfill UHIDs
// @Description  Assign UHIDs to every patient registered before UHIDs existed
// @Tags         Admin
// @Produce      json
// @Success      200 {object} util.APIResponse{data=object} "UHIDs backfilled"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /admin/backfill-uhid [post]
func BackfillPatientUHIDs(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	alloc, ok := getAllocatorOrRespond(c)
	if !ok {
		return
	}

	assigned, err := migration.BackfillPatientUHIDs(c.Request.Context(), db, alloc)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to backfill UHIDs", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "UHIDs backfilled",
		Data: map[string]interface{}{"assigned": assigned},
	})
}

// SyncCounters godoc
// @Summary      Sync counters
// @Description  Raise every counter to the highest identifier already stored
// @Tags         Admin
// @Produce      json
// @Success      200 {object} util.APIResponse{data=migration.Report} "Counters synchronized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /admin/sync-counters [post]
func SyncCounters(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	alloc, ok := getAllocatorOrRespond(c)
	if !ok {
		return
	}

	report, err := migration.SyncAll(c.Request.Context(), db, alloc)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to sync counters", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Counters synchronized", Data: report})
}

type resetRateLimitRequest struct {
	IP       string `json:"ip" binding:"required" example:"192.168.1.100"`
	Endpoint string `json:"endpoint" binding:"required" example:"/patient"`
}

// ResetRateLimit godoc
// @Summary      Reset rate limit
// @Description  Clear the rate limit counter of a client IP on one route
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body resetRateLimitRequest true "Client IP and route path"
// @Success      200 {object} util.APIResponse "Rate limit reset"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /admin/rate-limit/reset [post]
func ResetRateLimit(c *gin.Context) {
	var req resetRateLimitRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	if err := middleware.ResetRateLimit(c.Request.Context(), req.IP, req.Endpoint); err != nil {
		msg := "Failed to reset rate limit"
		if errors.Is(err, middleware.ErrRedisUnavailable) {
			msg = "Rate limiting is not enabled"
		}
		util.CallServerError(c, util.APIErrorParams{Msg: msg, Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Rate limit reset"})
}

package endpoint

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ariebrainware/clinic-hms/middleware"
	"github.com/ariebrainware/clinic-hms/sequence"
	"github.com/ariebrainware/clinic-hms/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type listQuery struct {
	Limit       int
	Offset      int
	Keyword     string
	GroupByDate string
	SortBy      string
	SortDir     string
}

func parseListQuery(c *gin.Context) listQuery {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return listQuery{
		Limit:       limit,
		Offset:      offset,
		Keyword:     strings.TrimSpace(c.Query("keyword")),
		GroupByDate: c.Query("group_by_date"),
		SortBy:      c.Query("sort"),
		SortDir:     strings.ToLower(c.Query("sort_dir")),
	}
}

// apply adds ordering, paging and the created_at filter. sortable lists the
// columns the caller may sort by; anything else falls back to newest first.
func (q listQuery) apply(query *gorm.DB, table string, sortable []string) *gorm.DB {
	orderDir := "ASC"
	if q.SortDir == "desc" {
		orderDir = "DESC"
	}
	if util.Contains(q.SortBy, sortable) {
		query = query.Order(fmt.Sprintf("%s.%s %s", table, q.SortBy, orderDir))
	} else {
		query = query.Order(fmt.Sprintf("%s.created_at DESC", table))
	}

	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	return applyCreatedAtFilter(query, q.GroupByDate)
}

// applyCreatedAtFilter applies a created_at filter for supported ranges.
// Supported values for groupByDate: "last_2_days", "last_3_months", "last_6_months".
func applyCreatedAtFilter(query *gorm.DB, groupByDate string) *gorm.DB {
	switch groupByDate {
	case "last_2_days":
		query = query.Where("created_at >= ?", time.Now().AddDate(0, 0, -2))
	case "last_3_months":
		query = query.Where("created_at >= ?", time.Now().AddDate(0, -3, 0))
	case "last_6_months":
		query = query.Where("created_at >= ?", time.Now().AddDate(0, -6, 0))
	}
	return query
}

func bindJSONOrRespond(c *gin.Context, dst interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: msg, Err: err})
		return false
	}
	return true
}

func getDBOrRespond(c *gin.Context) (*gorm.DB, bool) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database connection not available", Err: fmt.Errorf("db is nil")})
		return nil, false
	}
	return db.WithContext(c.Request.Context()), true
}

func getAllocatorOrRespond(c *gin.Context) (*sequence.Allocator, bool) {
	alloc := middleware.GetAllocator(c)
	if alloc == nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Sequence allocator not available", Err: fmt.Errorf("allocator is nil")})
		return nil, false
	}
	return alloc, true
}

func clinicIDOrRespond(c *gin.Context) (uint, bool) {
	clinicID, ok := middleware.GetClinicID(c)
	if !ok {
		util.CallUserError(c, util.APIErrorParams{Msg: "Clinic could not be resolved", Err: fmt.Errorf("clinic not specified")})
		return 0, false
	}
	return clinicID, true
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		util.CallUserError(c, util.APIErrorParams{
			Msg: fmt.Sprintf("Invalid %s ID", name),
			Err: fmt.Errorf("%s ID must be a positive integer", name),
		})
		return 0, false
	}
	return uint(id), true
}

// respondFindError maps a lookup failure to 404 or 500.
func respondFindError(c *gin.Context, err error, name string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: name + " not found", Err: err})
		return
	}
	util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve " + strings.ToLower(name), Err: err})
}

// respondAllocationError audits a failed identifier allocation and answers
// 400 for invalid input and 500 for everything else.
func respondAllocationError(c *gin.Context, clinicID uint, sequenceType string, err error) {
	clinic := ""
	if clinicID != 0 {
		clinic = clinicLabel(clinicID)
	}
	util.LogAllocationFailed(clinic, sequenceType, err)

	if errors.Is(err, sequence.ErrInvalidKey) || errors.Is(err, sequence.ErrUnknownType) {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid identifier request", Err: err})
		return
	}
	util.CallServerError(c, util.APIErrorParams{Msg: "Failed to allocate identifier", Err: err})
}

func clinicLabel(clinicID uint) string {
	return strconv.FormatUint(uint64(clinicID), 10)
}

package endpoint

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ariebrainware/clinic-hms/middleware"
	"github.com/ariebrainware/clinic-hms/model"
	"github.com/ariebrainware/clinic-hms/sequence"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupEndpointTestDB opens a private in-memory database with every table migrated.
func setupEndpointTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:endpoint_%s_%d?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to connect test DB: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

// setupEndpointTest returns a router wired like the server, its database and allocator.
func setupEndpointTest(t *testing.T) (*gin.Engine, *gorm.DB, *sequence.Allocator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupEndpointTestDB(t)
	alloc := sequence.NewAllocator(sequence.NewGormStore(db), sequence.Config{RetryDelay: time.Millisecond})

	r := gin.New()
	r.Use(middleware.DatabaseMiddleware(db), middleware.AllocatorMiddleware(alloc))

	r.POST("/clinic", CreateClinic)
	r.GET("/clinic", ListClinics)
	r.GET("/clinic/:id", GetClinic)
	r.PATCH("/clinic/:id", UpdateClinic)
	r.DELETE("/clinic/:id", DeleteClinic)

	scoped := r.Group("/")
	scoped.Use(middleware.ResolveClinic())
	{
		scoped.GET("/patient", ListPatients)
		scoped.POST("/patient", CreatePatient)
		scoped.GET("/patient/:id", GetPatientInfo)
		scoped.PATCH("/patient/:id", UpdatePatient)
		scoped.DELETE("/patient/:id", DeletePatient)
		scoped.POST("/patient/:id/uhid", AssignPatientUHID)

		scoped.GET("/bill", ListBills)
		scoped.POST("/bill", CreateBill)
		scoped.GET("/bill/:id", GetBill)
		scoped.PATCH("/bill/:id/status", UpdateBillStatus)
	}

	r.GET("/counter/:type", GetCounter)
	r.POST("/admin/backfill-uhid", BackfillPatientUHIDs)
	r.POST("/admin/sync-counters", SyncCounters)
	r.POST("/admin/rate-limit/reset", ResetRateLimit)

	return r, db, alloc
}

func clinicHeader(clinicID uint) map[string]string {
	return map[string]string{"X-Clinic-ID": fmt.Sprintf("%d", clinicID)}
}

// seedClinic inserts a clinic directly, bypassing the allocator.
func seedClinic(t *testing.T, db *gorm.DB, hospitalID, name string) model.Clinic {
	t.Helper()
	clinic := model.Clinic{HospitalID: hospitalID, Name: name}
	require.NoError(t, db.Create(&clinic).Error)
	return clinic
}

func dataMap(t *testing.T, response map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "response data is not an object: %v", response)
	return data
}

func registerPatient(t *testing.T, r *gin.Engine, clinicID uint, name, phone string) (int, map[string]interface{}) {
	t.Helper()
	w, resp, err := performRequest(r, requestSpec{
		method:      http.MethodPost,
		requestPath: "/patient",
		body:        map[string]interface{}{"full_name": name, "phone_number": []string{phone}, "gender": "Female"},
		headers:     clinicHeader(clinicID),
	})
	require.NoError(t, err)
	return w.Code, resp
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ariebrainware/clinic-hms/config"
	"github.com/ariebrainware/clinic-hms/model"
	"github.com/ariebrainware/clinic-hms/sequence"
	"github.com/ariebrainware/clinic-hms/util"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApplication(t *testing.T) *application {
	t.Helper()
	gin.SetMode(gin.TestMode)
	util.SetAuditLogger(zerolog.Nop())

	dsn := fmt.Sprintf("file:main_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.AllModels()...))

	return &application{
		cfg:    &config.Config{AppName: "clinic-hms", RateLimit: 5, RateWindow: time.Minute},
		logger: zerolog.Nop(),
		db:     db,
		alloc:  sequence.NewAllocator(sequence.NewGormStore(db), sequence.Config{}),
	}
}

func serve(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_Welcome(t *testing.T) {
	router := newRouter(newTestApplication(t))

	w := serve(router, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Welcome to clinic-hms!")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_RegistrationFlow(t *testing.T) {
	router := newRouter(newTestApplication(t))

	w := serve(router, http.MethodPost, "/clinic", `{"name":"City General Hospital"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"hospital_id":"OC-CGH-001"`)

	w = serve(router, http.MethodPost, "/patient", `{"full_name":"John Doe","phone_number":["0812"]}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodPost, "/patient", `{"full_name":"John Doe","phone_number":["0812"]}`, map[string]string{"X-Clinic-ID": "1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"uhid":"UHID-00001"`)

	w = serve(router, http.MethodGet, "/counter/hospital_id?scope=OC-CGH", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"current_value":1`)
}

func TestRouter_MetricsAndDocs(t *testing.T) {
	router := newRouter(newTestApplication(t))
	serve(router, http.MethodPost, "/clinic", `{"name":"Apollo"}`, nil)

	w := serve(router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "clinic_hms_sequence_allocations_total")

	w = serve(router, http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/patient/{id}/uhid")
}

func TestNewCounterStore(t *testing.T) {
	app := newTestApplication(t)

	store, closeStore, err := newCounterStore(context.Background(), &config.Config{CounterBackend: config.BackendDatabase}, app.db)
	require.NoError(t, err)
	assert.Nil(t, closeStore)
	assert.IsType(t, &sequence.GormStore{}, store)

	_, _, err = newCounterStore(context.Background(), &config.Config{CounterBackend: config.BackendPostgres, PostgresURL: "://bad"}, app.db)
	assert.Error(t, err)
}

func TestApplicationClose_ReverseOrder(t *testing.T) {
	var order []int
	app := &application{closers: []func(){
		func() { order = append(order, 1) },
		func() { order = append(order, 2) },
	}}
	app.Close()
	app.Close()
	assert.Equal(t, []int{2, 1}, order)
}

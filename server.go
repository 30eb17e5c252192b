package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariebrainware/clinic-hms/endpoint"
	"github.com/ariebrainware/clinic-hms/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ariebrainware/clinic-hms/docs"
)

// @title        Clinic HMS API
// @version      1.0
// @description  Clinic, patient and billing API with durable identifier allocation.
// @BasePath     /

func newRouter(app *application) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(app.logger),
		middleware.CORSMiddleware(),
		middleware.DatabaseMiddleware(app.db),
		middleware.AllocatorMiddleware(app.alloc),
		middleware.EndpointCallLogger(),
	)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", app.cfg.AppName),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	clinic := router.Group("/clinic")
	{
		clinic.GET("", endpoint.ListClinics)
		clinic.POST("", endpoint.CreateClinic)
		clinic.GET("/:id", endpoint.GetClinic)
		clinic.PATCH("/:id", endpoint.UpdateClinic)
		clinic.DELETE("/:id", endpoint.DeleteClinic)
	}

	registration := middleware.RateLimiter(middleware.RateLimitConfig{
		Limit:  app.cfg.RateLimit,
		Window: app.cfg.RateWindow,
	})

	patient := router.Group("/patient", middleware.ResolveClinic())
	{
		patient.GET("", endpoint.ListPatients)
		patient.POST("", registration, endpoint.CreatePatient)
		patient.GET("/:id", endpoint.GetPatientInfo)
		patient.PATCH("/:id", endpoint.UpdatePatient)
		patient.DELETE("/:id", endpoint.DeletePatient)
		patient.POST("/:id/uhid", endpoint.AssignPatientUHID)
	}

	bill := router.Group("/bill", middleware.ResolveClinic())
	{
		bill.GET("", endpoint.ListBills)
		bill.POST("", endpoint.CreateBill)
		bill.GET("/:id", endpoint.GetBill)
		bill.PATCH("/:id/status", endpoint.UpdateBillStatus)
	}

	router.GET("/counter/:type", endpoint.GetCounter)

	admin := router.Group("/admin")
	{
		admin.POST("/backfill-uhid", endpoint.BackfillPatientUHIDs)
		admin.POST("/sync-counters", endpoint.SyncCounters)
		admin.POST("/rate-limit/reset", endpoint.ResetRateLimit)
	}

	return router
}

func runServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	gin.SetMode(app.cfg.GinMode)

	if app.cfg.SyncCountersOnStart {
		if _, err := app.syncCounters(ctx); err != nil {
			return fmt.Errorf("sync counters: %w", err)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.AppPort),
		Handler:           newRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	case <-quit:
	}

	app.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	app.logger.Info().Msg("server stopped")
	return nil
}

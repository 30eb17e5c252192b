package middleware

import (
	"fmt"
	"time"

	"github.com/ariebrainware/clinic-hms/util"
	"github.com/gin-gonic/gin"
)

// EndpointCallLogger records each HTTP request as an audit event.
// Events are persisted when util.SetAuditLoggerDB was called during startup.
func EndpointCallLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		details := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"raw_path":    c.Request.URL.Path,
			"status":      status,
			"duration_ms": duration.Milliseconds(),
			"query":       c.Request.URL.RawQuery,
		}
		if rid := c.GetString(RequestIDKey); rid != "" {
			details["request_id"] = rid
		}

		clinic := ""
		if clinicID, ok := GetClinicID(c); ok {
			clinic = fmt.Sprintf("%d", clinicID)
		}

		util.LogAuditEvent(util.AuditEvent{
			EventType: util.EventEndpointCall,
			ClinicID:  clinic,
			Subject:   c.FullPath(),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Message:   fmt.Sprintf("%s %s -> %d", c.Request.Method, c.Request.URL.Path, status),
			Details:   details,
		})
	}
}

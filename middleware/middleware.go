package middleware

import (
	"net/http"

	"github.com/ariebrainware/clinic-hms/sequence"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Context keys shared by the middleware and the endpoint handlers.
const (
	DBKey        = "db"
	AllocatorKey = "allocator"
	ClinicIDKey  = "clinic_id"
	RequestIDKey = "request_id"
)

// CORSMiddleware configures CORS headers for incoming requests.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		setCorsHeaders(c)

		// For preflight requests, respond with 204 and abort further processing.
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func setCorsHeaders(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE, PATCH")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type, Authorization, X-Clinic-ID, X-Request-ID")
	c.Writer.Header().Set("Access-Control-Max-Age", "86400")
	c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
	c.Writer.Header().Set("Content-Type", "application/json")
}

// DatabaseMiddleware makes db available to handlers through GetDB.
func DatabaseMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(DBKey, db)
		c.Next()
	}
}

// GetDB returns the request's database handle, or nil when none was set.
func GetDB(c *gin.Context) *gorm.DB {
	v, ok := c.Get(DBKey)
	if !ok {
		return nil
	}
	db, _ := v.(*gorm.DB)
	return db
}

// AllocatorMiddleware makes the sequence allocator available through GetAllocator.
func AllocatorMiddleware(alloc *sequence.Allocator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(AllocatorKey, alloc)
		c.Next()
	}
}

// GetAllocator returns the request's sequence allocator, or nil when none was set.
func GetAllocator(c *gin.Context) *sequence.Allocator {
	v, ok := c.Get(AllocatorKey)
	if !ok {
		return nil
	}
	alloc, _ := v.(*sequence.Allocator)
	return alloc
}

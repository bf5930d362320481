package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/commercehub/backend/internal/interfaces/http/dto"
)

// Context keys set by the middleware in this package
const (
	// RequestIDContextKey carries the per-request correlation ID
	RequestIDContextKey = "request_id"
	// TenantIDContextKey carries the resolved tenant ID
	TenantIDContextKey = "tenant_id"
)

// RequestID adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		c.Set(RequestIDContextKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// generateRequestID generates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to a timestamp-based ID if crypto/rand fails
		return time.Now().Format("20060102150405.000000000")
	}
	return hex.EncodeToString(bytes)
}

// Tenant resolves the tenant from the X-Tenant-ID header and aborts the
// request when it is missing or malformed. Authentication itself is out
// of scope here; upstream gateways own it.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Tenant-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest, "X-Tenant-ID header is required", GetRequestID(c)))
			return
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest, "X-Tenant-ID must be a UUID", GetRequestID(c)))
			return
		}
		c.Set(TenantIDContextKey, tenantID)
		c.Next()
	}
}

// GetRequestID returns the request ID set by RequestID, or ""
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDContextKey)
}

// GetTenantID returns the tenant ID set by Tenant, or uuid.Nil
func GetTenantID(c *gin.Context) uuid.UUID {
	if value, ok := c.Get(TenantIDContextKey); ok {
		if id, ok := value.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

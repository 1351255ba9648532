package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bleu-ims/materials-service/internal/engines/security"
	"github.com/bleu-ims/materials-service/internal/metrics"
	"github.com/bleu-ims/materials-service/internal/models"
)

const userContextKey = "user"

// RecoveryMiddleware converts panics into 500 responses and logs them.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Handler panic",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path))
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					errorBody("internal server error"))
			}
		}()
		c.Next()
	}
}

// LoggingMiddleware logs every request with its outcome and latency.
func LoggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		switch {
		case statusCode >= 500:
			logger.Error("Request failed",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("status", statusCode),
				zap.Duration("duration", duration),
				zap.String("error", errorMessage))
		case statusCode >= 400:
			logger.Warn("Request returned client error",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("status", statusCode),
				zap.Duration("duration", duration))
		default:
			logger.Debug("Request completed",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("status", statusCode),
				zap.Duration("duration", duration))
		}
	}
}

// MetricsMiddleware records request counts and latency per route.
func MetricsMiddleware(recorder *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		recorder.ObserveRequest(c.Request.Method, route,
			strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// CORSMiddleware applies the origin allow-list and answers preflight
// requests.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, candidate := range allowedOrigins {
			if candidate == "*" || candidate == origin {
				allowed = true
				break
			}
		}

		if allowed && origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key")
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// AuthMiddleware authenticates the caller and enforces the role allow-list.
// Callers present either a bearer token or, for service-to-service calls,
// an X-API-Key header.
func AuthMiddleware(validator security.TokenValidator, apiKeys *security.APIKeyEngine, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authenticate(c, validator, apiKeys)
		if err != nil {
			var authErr *security.AuthError
			if errors.As(err, &authErr) {
				c.AbortWithStatusJSON(authErr.StatusCode, errorBody(authErr.Detail))
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody(err.Error()))
			return
		}

		if !user.HasRole(allowedRoles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody(
				"Access denied. Required role not met. User has role: '"+user.Role+"'"))
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

func authenticate(c *gin.Context, validator security.TokenValidator, apiKeys *security.APIKeyEngine) (*models.UserContext, error) {
	if apiKey := c.GetHeader("X-API-Key"); apiKey != "" && apiKeys != nil {
		return apiKeys.Validate(c.Request.Context(), apiKey)
	}

	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return nil, security.Unauthorized("missing bearer token")
	}
	return validator.ValidateToken(c.Request.Context(), token)
}

// CurrentUser returns the authenticated caller set by AuthMiddleware.
func CurrentUser(c *gin.Context) (*models.UserContext, bool) {
	value, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*models.UserContext)
	return user, ok
}

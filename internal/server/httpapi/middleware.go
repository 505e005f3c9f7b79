package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/logging"
	"github.com/dmitrijs2005/authbridge/internal/server/auth"
	"github.com/dmitrijs2005/authbridge/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	callerKey       = "caller"
	requestIDHeader = "X-Request-Id"
)

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(logging.ContextWith(c.Request.Context(), "request_id", id))

		c.Next()
		s.logger.Debug(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// resolveCaller attaches the provider and legacy sessions of the request, if
// any, to the gin context. Missing or invalid sessions leave the caller
// signed out; only a failed lookup rejects the request with 500.
func (s *Server) resolveCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var caller services.Caller

		if token := auth.SessionToken(c.Request); token != "" && s.deps.Sessions != nil {
			ps, err := s.deps.Sessions.Verify(token)
			if err != nil {
				s.logger.Debug(ctx, "provider session rejected", "error", err)
			} else {
				caller.Provider = ps
			}
		}

		if token, err := c.Cookie(common.LegacySessionCookieName); err == nil && token != "" {
			ls, err := s.deps.Accounts.Session(ctx, token)
			switch {
			case err == nil:
				caller.Legacy = ls
			case errors.Is(err, common.ErrSessionExpired):
				s.clearSessionCookie(c)
			case errors.Is(err, common.ErrorUnauthorized):
				// unknown token, treated as signed out
			default:
				// An outage must not look like a signed-out caller, which the
				// migration routes would answer with the 222 sentinel.
				s.logger.Error(ctx, "legacy session lookup", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
				return
			}
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

func callerFrom(c *gin.Context) services.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(services.Caller); ok {
			return caller
		}
	}
	return services.Caller{}
}

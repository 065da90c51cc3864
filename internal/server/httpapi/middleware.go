package httpapi

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mpc180222/messagely/internal/common"
	"github.com/mpc180222/messagely/internal/server/auth"
)

const principalKey = "principal"

// requireAuth resolves the bearer token to a principal username and stores
// it in the request context. Everything except login/register sits behind
// this middleware.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(c, common.ErrInvalidToken)
			return
		}

		username, err := auth.GetUsernameFromToken(token, s.jwtSecret)
		if err != nil {
			writeError(c, err)
			return
		}

		c.Set(principalKey, username)
		c.Next()
	}
}

// principal returns the username established by requireAuth.
func principal(c *gin.Context) string {
	return c.GetString(principalKey)
}

// requestLogger logs every request with a short correlation id.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID, _ := common.MakeRandHexString(8)

		c.Next()

		s.logger.Info(c.Request.Context(), "request",
			"id", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

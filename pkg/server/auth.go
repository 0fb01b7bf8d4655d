package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-portal/pkg/clients/portalclient"
	"github.com/jakechorley/volunteer-portal/pkg/core/model"
	"github.com/jakechorley/volunteer-portal/pkg/core/services"
)

const (
	callerKey = "caller"
	portalKey = "portal"
)

// Sessions hands out a portal client acting as the holder of a bearer token
type Sessions interface {
	ForToken(token string) Portal
}

// ClientSessions forwards the caller's token on every portal request
type ClientSessions struct {
	Client *portalclient.Client
}

func (s ClientSessions) ForToken(token string) Portal {
	return s.Client.WithBearer(token)
}

// authenticate resolves the caller from the forwarded bearer token
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		portal := s.opts.Sessions.ForToken(token)
		user, err := services.CurrentUser(c.Request.Context(), portal, s.logger)
		if err != nil {
			if portalclient.IsStatus(err, http.StatusUnauthorized) || portalclient.IsStatus(err, http.StatusForbidden) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
				c.Abort()
				return
			}
			s.writeError(c, err)
			c.Abort()
			return
		}
		if user.EmployeeID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token does not identify an employee"})
			c.Abort()
			return
		}

		c.Set(callerKey, user)
		c.Set(portalKey, portal)
		c.Next()
	}
}

// requireOwner rejects access to another employee's records
func (s *Server) requireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := callerOf(c)
		if c.Param("employeeId") != user.EmployeeID {
			s.logger.Warn("Employee mismatch",
				zap.String("caller", user.EmployeeID),
				zap.String("requested", c.Param("employeeId")))
			c.JSON(http.StatusForbidden, gin.H{"error": "access to another employee's records is not allowed"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func callerOf(c *gin.Context) *model.User {
	return c.MustGet(callerKey).(*model.User)
}

func portalOf(c *gin.Context) Portal {
	return c.MustGet(portalKey).(Portal)
}

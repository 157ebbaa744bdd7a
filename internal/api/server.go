// Package api exposes the tracker to a single local operator over JSON.
package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"equipment-lifecycle/internal/access"
	"equipment-lifecycle/internal/apperr"
	"equipment-lifecycle/internal/auth"
	"equipment-lifecycle/internal/lifecycle"
	"equipment-lifecycle/internal/parse"
)

// TokenHeader carries the session token issued at login.
const TokenHeader = "X-Session-Token"

// Server serves one operator session. Every request is serialized, so the
// coordinator and the session are only ever touched by one goroutine.
type Server struct {
	mu sync.Mutex

	coord   *lifecycle.Coordinator
	session *access.Session
	auth    *auth.Authenticator
	log     *zap.Logger

	token    string
	newToken func() string
}

// NewServer creates a server over coord. session must be the session the
// coordinator was created with.
func NewServer(coord *lifecycle.Coordinator, session *access.Session, authn *auth.Authenticator, log *zap.Logger) *Server {
	return &Server{
		coord:    coord,
		session:  session,
		auth:     authn,
		log:      log,
		newToken: uuid.NewString,
	}
}

// serialize runs one request at a time.
func (s *Server) serialize(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Next()
}

// requireToken rejects requests that do not carry the current session token.
func (s *Server) requireToken(c *gin.Context) {
	token := c.GetHeader(TokenHeader)
	if s.token == "" || token != s.token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "not logged in",
			"kind":  apperr.KindAuthentication.String(),
		})
		return
	}
	c.Next()
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuthentication:
		return http.StatusUnauthorized
	case apperr.KindPermission:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{
		"error": err.Error(),
		"kind":  apperr.KindOf(err).String(),
	})
}

func (s *Server) badRequest(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error": "invalid request",
		"kind":  apperr.KindValidation.String(),
	})
}

// pathID parses the :id parameter, answering 400 when it is not a positive
// integer.
func (s *Server) pathID(c *gin.Context) (int64, bool) {
	id, err := parse.ID(c.Param("id"))
	if err != nil {
		s.fail(c, apperr.Validation("parse", "%v", err))
		return 0, false
	}
	return id, true
}

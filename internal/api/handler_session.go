package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"equipment-lifecycle/internal/access"
	"equipment-lifecycle/internal/apperr"
	"equipment-lifecycle/internal/auth"
	"equipment-lifecycle/internal/parse"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type sessionResponse struct {
	Token       string                    `json:"token"`
	Actor       access.Actor              `json:"actor"`
	Permissions map[access.Operation]bool `json:"permissions"`
}

// Login handles POST /api/session. A successful login replaces any previous
// session and issues a new token.
func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c)
		return
	}
	role, err := parse.Role(req.Role)
	if err != nil {
		s.fail(c, apperr.Validation("login", "%v", err))
		return
	}

	actor, err := s.auth.Login(c.Request.Context(), auth.Credentials{
		Username: req.Username,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	s.session.Login(actor)
	s.token = s.newToken()
	c.JSON(http.StatusCreated, sessionResponse{
		Token:       s.token,
		Actor:       actor,
		Permissions: access.PermittedOperations(actor.Role),
	})
}

// Logout handles DELETE /api/session.
func (s *Server) Logout(c *gin.Context) {
	s.session.Logout()
	s.token = ""
	c.Status(http.StatusNoContent)
}

// GetPermissions handles GET /api/session/permissions.
func (s *Server) GetPermissions(c *gin.Context) {
	actor, ok := s.session.Actor()
	if !ok {
		s.fail(c, apperr.Permission("permissions", "no actor logged in"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"actor":       actor,
		"permissions": access.PermittedOperations(actor.Role),
	})
}

// GetPolicy handles GET /api/policy.
func (s *Server) GetPolicy(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"operations": access.Operations,
		"roles":      access.Table(),
	})
}

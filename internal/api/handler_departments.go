package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"equipment-lifecycle/internal/lifecycle"
)

// ListDepartments handles GET /api/departments. ?active=true leaves
// deactivated departments out.
func (s *Server) ListDepartments(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.Query("active"))
	items, err := s.coord.Departments(c.Request.Context(), activeOnly)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreateDepartment handles POST /api/departments.
func (s *Server) CreateDepartment(c *gin.Context) {
	var req lifecycle.DepartmentFields
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c)
		return
	}
	d, err := s.coord.CreateDepartment(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// UpdateDepartment handles PUT /api/departments/:id.
func (s *Server) UpdateDepartment(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var req lifecycle.DepartmentFields
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c)
		return
	}
	d, err := s.coord.UpdateDepartment(c.Request.Context(), id, req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// DeactivateDepartment handles DELETE /api/departments/:id. The department
// is kept and marked inactive.
func (s *Server) DeactivateDepartment(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.coord.DeactivateDepartment(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"equipment-lifecycle/internal/apperr"
	"equipment-lifecycle/internal/lifecycle"
	"equipment-lifecycle/internal/parse"
)

type maintenanceRequest struct {
	EquipmentID int64  `json:"equipment_id"`
	PlannedDate string `json:"planned_date"`
	Status      string `json:"status"`
}

func (r maintenanceRequest) fields() (lifecycle.MaintenanceFields, error) {
	planned, err := parse.Date(r.PlannedDate)
	if err != nil {
		return lifecycle.MaintenanceFields{}, apperr.Validation("parse", "%v", err)
	}
	status, err := parse.MaintenanceStatus(r.Status)
	if err != nil {
		return lifecycle.MaintenanceFields{}, apperr.Validation("parse", "%v", err)
	}
	return lifecycle.MaintenanceFields{
		EquipmentID: r.EquipmentID,
		PlannedDate: planned,
		Status:      status,
	}, nil
}

// ListMaintenance handles GET /api/maintenance.
func (s *Server) ListMaintenance(c *gin.Context) {
	items, err := s.coord.Maintenance(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreateMaintenance handles POST /api/maintenance.
func (s *Server) CreateMaintenance(c *gin.Context) {
	var req maintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c)
		return
	}
	f, err := req.fields()
	if err != nil {
		s.fail(c, err)
		return
	}
	m, err := s.coord.CreateMaintenance(c.Request.Context(), f)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// CompleteMaintenance handles POST /api/maintenance/:id/complete.
func (s *Server) CompleteMaintenance(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	m, err := s.coord.CompleteMaintenance(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// DeleteMaintenance handles DELETE /api/maintenance/:id.
func (s *Server) DeleteMaintenance(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.coord.DeleteMaintenance(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

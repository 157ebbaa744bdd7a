package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"equipment-lifecycle/internal/export"
)

// GetEquipmentReport handles GET /api/reports/equipment.
func (s *Server) GetEquipmentReport(c *gin.Context) {
	r, err := s.coord.EquipmentReport(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"header": s.coord.Header(c.Request.Context()), "report": r})
}

// GetMaintenanceReport handles GET /api/reports/maintenance.
func (s *Server) GetMaintenanceReport(c *gin.Context) {
	r, err := s.coord.MaintenanceReport(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"header": s.coord.Header(c.Request.Context()), "report": r})
}

// GetEquipmentReportXLSX handles GET /api/reports/equipment.xlsx.
func (s *Server) GetEquipmentReportXLSX(c *gin.Context) {
	ctx := c.Request.Context()
	eq, err := s.coord.EquipmentReport(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	mr, err := s.coord.MaintenanceReport(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}

	h := s.coord.Header(ctx)
	var buf bytes.Buffer
	err = export.EquipmentReportXLSX(&buf, export.Header{
		GeneratedFor: h.Actor.DisplayName,
		GeneratedAt:  h.GeneratedAt,
		Mode:         string(h.Mode),
		Scope:        h.Scope,
	}, eq, mr)
	if err != nil {
		s.fail(c, fmt.Errorf("export equipment report: %w", err))
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+export.Filename(s.coord.Now()))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// GetStatus handles GET /api/status.
func (s *Server) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.coord.Status())
}

// Resync handles POST /api/status/resync.
func (s *Server) Resync(c *gin.Context) {
	if err := s.coord.Resync(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.coord.Status())
}

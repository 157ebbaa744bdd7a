package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"equipment-lifecycle/internal/apperr"
	"equipment-lifecycle/internal/lifecycle"
	"equipment-lifecycle/internal/parse"
)

type equipmentRequest struct {
	Name            string `json:"name"`
	InventoryNumber string `json:"inventory_number"`
	Model           string `json:"model"`
	Status          string `json:"status"`
	CommissionDate  string `json:"commission_date"`
	DepartmentID    *int64 `json:"department_id"`
}

func (r equipmentRequest) fields() (lifecycle.EquipmentFields, error) {
	status, err := parse.EquipmentStatus(r.Status)
	if err != nil {
		return lifecycle.EquipmentFields{}, apperr.Validation("parse", "%v", err)
	}
	commissioned, err := parse.Date(r.CommissionDate)
	if err != nil {
		return lifecycle.EquipmentFields{}, apperr.Validation("parse", "%v", err)
	}
	return lifecycle.EquipmentFields{
		Name:            r.Name,
		InventoryNumber: r.InventoryNumber,
		Model:           r.Model,
		Status:          status,
		CommissionDate:  commissioned,
		DepartmentID:    r.DepartmentID,
	}, nil
}

type filterRequest struct {
	DepartmentID int64  `json:"department_id"`
	Search       string `json:"search"`
}

// GetCatalog handles GET /api/catalog.
func (s *Server) GetCatalog(c *gin.Context) {
	view, err := s.coord.Catalog(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// PutCatalogFilter handles PUT /api/catalog/filter and answers with the
// refreshed catalog.
func (s *Server) PutCatalogFilter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c)
		return
	}
	ctx := c.Request.Context()
	if err := s.coord.SetDepartmentFilter(ctx, req.DepartmentID); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.coord.SetSearchText(req.Search); err != nil {
		s.fail(c, err)
		return
	}
	s.GetCatalog(c)
}

// ListEquipment handles GET /api/equipment.
func (s *Server) ListEquipment(c *gin.Context) {
	items, err := s.coord.Equipment(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// ListSelectableEquipment handles GET /api/equipment/selectable.
func (s *Server) ListSelectableEquipment(c *gin.Context) {
	items, err := s.coord.SelectableForMaintenance(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// SuggestInventoryNumber handles GET /api/equipment/inventory-number.
func (s *Server) SuggestInventoryNumber(c *gin.Context) {
	n, err := s.coord.SuggestInventoryNumber(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inventory_number": n})
}

// CreateEquipment handles POST /api/equipment.
func (s *Server) CreateEquipment(c *gin.Context) {
	var req equipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c)
		return
	}
	f, err := req.fields()
	if err != nil {
		s.fail(c, err)
		return
	}
	e, err := s.coord.CreateEquipment(c.Request.Context(), f)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// UpdateEquipment handles PUT /api/equipment/:id.
func (s *Server) UpdateEquipment(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var req equipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c)
		return
	}
	f, err := req.fields()
	if err != nil {
		s.fail(c, err)
		return
	}
	e, err := s.coord.UpdateEquipment(c.Request.Context(), id, f)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// DeleteEquipment handles DELETE /api/equipment/:id?confirm=true. Its
// maintenance records are deleted with it.
func (s *Server) DeleteEquipment(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	if err := s.coord.DeleteEquipment(c.Request.Context(), id, confirmed); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RetireEquipment handles POST /api/equipment/:id/retire.
func (s *Server) RetireEquipment(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	e, err := s.coord.RetireEquipment(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

package lifecycle

import (
	"context"
	"strings"
	"time"

	"equipment-lifecycle/internal/access"
	"equipment-lifecycle/internal/apperr"
	"equipment-lifecycle/internal/model"
	"equipment-lifecycle/internal/store"
)

// EquipmentFields carries the editable fields of an equipment asset.
type EquipmentFields struct {
	Name            string                `json:"name" validate:"notblank,max=256"`
	InventoryNumber string                `json:"inventory_number" validate:"notblank,max=64"`
	Model           string                `json:"model" validate:"max=256"`
	Status          model.EquipmentStatus `json:"status" validate:"omitempty,equipment_status"`
	CommissionDate  time.Time             `json:"commission_date"`
	DepartmentID    *int64                `json:"department_id"`
}

func (f EquipmentFields) normalized() EquipmentFields {
	f.Name = strings.TrimSpace(f.Name)
	f.InventoryNumber = strings.TrimSpace(f.InventoryNumber)
	f.Model = strings.TrimSpace(f.Model)
	if f.DepartmentID != nil {
		if *f.DepartmentID == 0 {
			f.DepartmentID = nil
		} else {
			id := *f.DepartmentID
			f.DepartmentID = &id
		}
	}
	return f
}

// checkDepartment accepts no department, the equipment's current one, or an
// active department of the working set.
func (c *Coordinator) checkDepartment(ctx context.Context, op string, id, current *int64) error {
	if id == nil {
		return nil
	}
	if current != nil && *current == *id {
		return nil
	}
	d, err := c.mirror.GetDepartment(ctx, *id)
	if err != nil {
		return apperr.Validation(op, "department %d does not exist", *id)
	}
	if !d.IsActive {
		return apperr.Validation(op, "department %s is inactive", d.Name)
	}
	return nil
}

// CreateEquipment adds an equipment asset. Its status may be in service or
// retired; under maintenance is only ever derived from maintenance records.
func (c *Coordinator) CreateEquipment(ctx context.Context, f EquipmentFields) (out model.Equipment, err error) {
	const op = "create_equipment"
	defer c.observe(op, time.Now(), &err)

	if err := c.session.Require(access.AddEquipment); err != nil {
		return model.Equipment{}, err
	}
	f = f.normalized()
	if err := c.check(op, f); err != nil {
		return model.Equipment{}, err
	}
	status := f.Status
	if status == "" {
		status = model.StatusInService
	}
	if status == model.StatusUnderMaintenance {
		return model.Equipment{}, apperr.Validation(op, "status %s is set by scheduling maintenance", status.Label())
	}
	if err := c.checkDepartment(ctx, op, f.DepartmentID, nil); err != nil {
		return model.Equipment{}, err
	}
	commissioned := f.CommissionDate
	if commissioned.IsZero() {
		commissioned = c.today()
	}

	e := &model.Equipment{
		Name:            f.Name,
		InventoryNumber: f.InventoryNumber,
		Model:           f.Model,
		Status:          status,
		CommissionDate:  commissioned,
		DepartmentID:    f.DepartmentID,
	}
	p := newPlan(op).insert(&e.ID, func(ctx context.Context, tx store.Store) error {
		if e.ID != 0 {
			_, err := tx.GetEquipment(ctx, e.ID)
			if err := claim(op, "equipment", e.ID, err); err != nil {
				return err
			}
		}
		return tx.UpsertEquipment(ctx, e)
	})
	if err := c.commit(ctx, p); err != nil {
		return model.Equipment{}, err
	}
	return *e, nil
}

// UpdateEquipment copies f onto the selected equipment. A retired asset
// stays retired; any other status is re-derived from its maintenance.
func (c *Coordinator) UpdateEquipment(ctx context.Context, id int64, f EquipmentFields) (out model.Equipment, err error) {
	const op = "update_equipment"
	defer c.observe(op, time.Now(), &err)

	if err := c.session.Require(access.EditEquipment); err != nil {
		return model.Equipment{}, err
	}
	if id == 0 {
		return model.Equipment{}, apperr.Validation(op, "no equipment selected")
	}
	current, err := c.mirror.GetEquipment(ctx, id)
	if err != nil {
		return model.Equipment{}, err
	}
	f = f.normalized()
	if err := c.check(op, f); err != nil {
		return model.Equipment{}, err
	}
	if current.Status == model.StatusRetired && f.Status != "" && f.Status != model.StatusRetired {
		return model.Equipment{}, apperr.Validation(op, "retired equipment cannot be returned to service")
	}
	if err := c.checkDepartment(ctx, op, f.DepartmentID, current.DepartmentID); err != nil {
		return model.Equipment{}, err
	}
	retire := current.Status == model.StatusRetired || f.Status == model.StatusRetired

	var updated model.Equipment
	p := newPlan(op).add(func(ctx context.Context, tx store.Store) error {
		e, err := tx.GetEquipment(ctx, id)
		if err != nil {
			return err
		}
		e.Name = f.Name
		e.InventoryNumber = f.InventoryNumber
		e.Model = f.Model
		if !f.CommissionDate.IsZero() {
			e.CommissionDate = f.CommissionDate
		}
		e.DepartmentID = f.DepartmentID
		if retire {
			e.Status = model.StatusRetired
		} else {
			all, err := tx.ListMaintenance(ctx)
			if err != nil {
				return err
			}
			e.Status = coupledStatus(id, all)
		}
		if err := tx.UpsertEquipment(ctx, &e); err != nil {
			return err
		}
		updated = e
		return nil
	})
	if err := c.commit(ctx, p); err != nil {
		return model.Equipment{}, err
	}
	return updated, nil
}

// DeleteEquipment removes an equipment asset and every maintenance record
// referencing it. confirmed must be set by the caller after asking the actor.
func (c *Coordinator) DeleteEquipment(ctx context.Context, id int64, confirmed bool) (err error) {
	const op = "delete_equipment"
	defer c.observe(op, time.Now(), &err)

	if err := c.session.Require(access.DeleteEquipment); err != nil {
		return err
	}
	if id == 0 {
		return apperr.Validation(op, "no equipment selected")
	}
	if !confirmed {
		return apperr.Validation(op, "deletion of equipment %d was not confirmed", id)
	}
	if _, err := c.mirror.GetEquipment(ctx, id); err != nil {
		return err
	}

	p := newPlan(op).add(
		func(ctx context.Context, tx store.Store) error {
			return tx.DeleteMaintenanceByEquipment(ctx, id)
		},
		func(ctx context.Context, tx store.Store) error {
			return tx.DeleteEquipment(ctx, id)
		},
	)
	return c.commit(ctx, p)
}

// RetireEquipment marks an asset retired whatever its current status. Its
// maintenance records are kept as they are.
func (c *Coordinator) RetireEquipment(ctx context.Context, id int64) (out model.Equipment, err error) {
	const op = "retire_equipment"
	defer c.observe(op, time.Now(), &err)

	if err := c.session.Require(access.RetireEquipment); err != nil {
		return model.Equipment{}, err
	}
	if id == 0 {
		return model.Equipment{}, apperr.Validation(op, "no equipment selected")
	}
	if _, err := c.mirror.GetEquipment(ctx, id); err != nil {
		return model.Equipment{}, err
	}

	var retired model.Equipment
	p := newPlan(op).add(func(ctx context.Context, tx store.Store) error {
		e, err := tx.GetEquipment(ctx, id)
		if err != nil {
			return err
		}
		e.Status = model.StatusRetired
		if err := tx.UpsertEquipment(ctx, &e); err != nil {
			return err
		}
		retired = e
		return nil
	})
	if err := c.commit(ctx, p); err != nil {
		return model.Equipment{}, err
	}
	return retired, nil
}

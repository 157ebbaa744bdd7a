package lifecycle

import (
	"context"
	"time"

	"equipment-lifecycle/internal/access"
	"equipment-lifecycle/internal/apperr"
	"equipment-lifecycle/internal/model"
	"equipment-lifecycle/internal/store"
)

// MaintenanceFields describes a maintenance event to schedule.
type MaintenanceFields struct {
	EquipmentID int64                   `json:"equipment_id"`
	PlannedDate time.Time               `json:"planned_date" validate:"required"`
	Status      model.MaintenanceStatus `json:"status" validate:"omitempty,maintenance_status"`
}

// CreateMaintenance schedules maintenance for an equipment asset that is not
// retired. The record keeps the equipment name as it is now, and the
// equipment status is re-derived from its maintenance.
func (c *Coordinator) CreateMaintenance(ctx context.Context, f MaintenanceFields) (out model.Maintenance, err error) {
	const op = "create_maintenance"
	defer c.observe(op, time.Now(), &err)

	if err := c.session.Require(access.AddMaintenance); err != nil {
		return model.Maintenance{}, err
	}
	if f.EquipmentID == 0 {
		return model.Maintenance{}, apperr.Validation(op, "no equipment selected")
	}
	if err := c.check(op, f); err != nil {
		return model.Maintenance{}, err
	}
	if f.Status == "" {
		f.Status = model.MaintenancePlanned
	}
	target, err := c.mirror.GetEquipment(ctx, f.EquipmentID)
	if err != nil {
		return model.Maintenance{}, err
	}
	if target.Status == model.StatusRetired {
		return model.Maintenance{}, apperr.Validation(op, "equipment %s is retired", target.Name)
	}

	m := &model.Maintenance{
		EquipmentID: f.EquipmentID,
		PlannedDate: f.PlannedDate,
		Status:      f.Status,
	}
	p := newPlan(op).
		insert(&m.ID, func(ctx context.Context, tx store.Store) error {
			e, err := tx.GetEquipment(ctx, f.EquipmentID)
			if err != nil {
				return err
			}
			if e.Status == model.StatusRetired {
				return apperr.Validation(op, "equipment %s is retired", e.Name)
			}
			if m.ID != 0 {
				_, err := tx.GetMaintenance(ctx, m.ID)
				if err := claim(op, "maintenance record", m.ID, err); err != nil {
					return err
				}
			}
			m.EquipmentName = e.Name
			return tx.UpsertMaintenance(ctx, m)
		}).
		add(reconcile(f.EquipmentID))
	if err := c.commit(ctx, p); err != nil {
		return model.Maintenance{}, err
	}
	return *m, nil
}

// CompleteMaintenance marks a maintenance record completed and re-derives
// the status of its equipment from the full maintenance set.
func (c *Coordinator) CompleteMaintenance(ctx context.Context, id int64) (out model.Maintenance, err error) {
	const op = "complete_maintenance"
	defer c.observe(op, time.Now(), &err)

	if err := c.session.Require(access.CompleteMaintenance); err != nil {
		return model.Maintenance{}, err
	}
	if id == 0 {
		return model.Maintenance{}, apperr.Validation(op, "no maintenance selected")
	}
	current, err := c.mirror.GetMaintenance(ctx, id)
	if err != nil {
		return model.Maintenance{}, err
	}
	if current.Status == model.MaintenanceCompleted {
		return current, nil
	}

	var completed model.Maintenance
	p := newPlan(op).
		add(func(ctx context.Context, tx store.Store) error {
			m, err := tx.GetMaintenance(ctx, id)
			if err != nil {
				return err
			}
			m.Status = model.MaintenanceCompleted
			if err := tx.UpsertMaintenance(ctx, &m); err != nil {
				return err
			}
			completed = m
			return nil
		}).
		add(reconcile(current.EquipmentID))
	if err := c.commit(ctx, p); err != nil {
		return model.Maintenance{}, err
	}
	return completed, nil
}

// DeleteMaintenance removes a maintenance record and re-derives the status
// of its equipment.
func (c *Coordinator) DeleteMaintenance(ctx context.Context, id int64) (err error) {
	const op = "delete_maintenance"
	defer c.observe(op, time.Now(), &err)

	if err := c.session.Require(access.AddMaintenance); err != nil {
		return err
	}
	if id == 0 {
		return apperr.Validation(op, "no maintenance selected")
	}
	current, err := c.mirror.GetMaintenance(ctx, id)
	if err != nil {
		return err
	}

	p := newPlan(op).
		add(func(ctx context.Context, tx store.Store) error {
			return tx.DeleteMaintenance(ctx, id)
		}).
		add(reconcile(current.EquipmentID))
	return c.commit(ctx, p)
}

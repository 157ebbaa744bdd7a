package lifecycle

import (
	"context"
	"strings"
	"time"

	"equipment-lifecycle/internal/access"
	"equipment-lifecycle/internal/apperr"
	"equipment-lifecycle/internal/catalog"
	"equipment-lifecycle/internal/model"
	"equipment-lifecycle/internal/store"
)

// DepartmentFields carries the editable fields of a department.
type DepartmentFields struct {
	Name        string `json:"name" validate:"notblank,max=128"`
	Code        string `json:"code" validate:"notblank,max=32"`
	Description string `json:"description" validate:"max=512"`
	// Active, when set on update, activates or deactivates the department.
	Active *bool `json:"active,omitempty"`
}

func (f DepartmentFields) normalized() DepartmentFields {
	f.Name = strings.TrimSpace(f.Name)
	f.Code = strings.ToUpper(strings.TrimSpace(f.Code))
	f.Description = strings.TrimSpace(f.Description)
	return f
}

// checkCode rejects a code already used by another department.
func (c *Coordinator) checkCode(ctx context.Context, op, code string, self int64) error {
	all, err := c.mirror.ListDepartments(ctx, false)
	if err != nil {
		return err
	}
	for _, d := range all {
		if d.ID != self && d.Code == code {
			return apperr.Validation(op, "department code %s is already used by %s", code, d.Name)
		}
	}
	return nil
}

// CreateDepartment adds an active department. The code is stored upper-cased.
func (c *Coordinator) CreateDepartment(ctx context.Context, f DepartmentFields) (out model.Department, err error) {
	const op = "create_department"
	defer c.observe(op, time.Now(), &err)

	if err := c.session.Require(access.ManageDepartments); err != nil {
		return model.Department{}, err
	}
	f = f.normalized()
	if err := c.check(op, f); err != nil {
		return model.Department{}, err
	}
	if err := c.checkCode(ctx, op, f.Code, 0); err != nil {
		return model.Department{}, err
	}

	d := &model.Department{Name: f.Name, Code: f.Code, Description: f.Description, IsActive: true}
	p := newPlan(op).insert(&d.ID, func(ctx context.Context, tx store.Store) error {
		if d.ID != 0 {
			_, err := tx.GetDepartment(ctx, d.ID)
			if err := claim(op, "department", d.ID, err); err != nil {
				return err
			}
		}
		return tx.UpsertDepartment(ctx, d)
	})
	if err := c.commit(ctx, p); err != nil {
		return model.Department{}, err
	}
	return *d, nil
}

// UpdateDepartment changes name, code and description of a department and,
// when f.Active is set, its active flag.
func (c *Coordinator) UpdateDepartment(ctx context.Context, id int64, f DepartmentFields) (out model.Department, err error) {
	const op = "update_department"
	defer c.observe(op, time.Now(), &err)

	if err := c.session.Require(access.ManageDepartments); err != nil {
		return model.Department{}, err
	}
	if id == 0 {
		return model.Department{}, apperr.Validation(op, "no department selected")
	}
	if _, err := c.mirror.GetDepartment(ctx, id); err != nil {
		return model.Department{}, err
	}
	f = f.normalized()
	if err := c.check(op, f); err != nil {
		return model.Department{}, err
	}
	if err := c.checkCode(ctx, op, f.Code, id); err != nil {
		return model.Department{}, err
	}

	var updated model.Department
	p := newPlan(op).add(func(ctx context.Context, tx store.Store) error {
		d, err := tx.GetDepartment(ctx, id)
		if err != nil {
			return err
		}
		d.Name = f.Name
		d.Code = f.Code
		d.Description = f.Description
		if f.Active != nil {
			d.IsActive = *f.Active
		}
		if err := tx.UpsertDepartment(ctx, &d); err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err := c.commit(ctx, p); err != nil {
		return model.Department{}, err
	}
	if !updated.IsActive && c.departmentFilter == id {
		c.departmentFilter = catalog.AllDepartments
	}
	return updated, nil
}

// DeactivateDepartment soft-deletes a department. Its equipment keeps the
// reference and is reported as unassigned.
func (c *Coordinator) DeactivateDepartment(ctx context.Context, id int64) (err error) {
	const op = "deactivate_department"
	defer c.observe(op, time.Now(), &err)

	if err := c.session.Require(access.ManageDepartments); err != nil {
		return err
	}
	if id == 0 {
		return apperr.Validation(op, "no department selected")
	}
	if _, err := c.mirror.GetDepartment(ctx, id); err != nil {
		return err
	}

	p := newPlan(op).add(func(ctx context.Context, tx store.Store) error {
		d, err := tx.GetDepartment(ctx, id)
		if err != nil {
			return err
		}
		d.IsActive = false
		return tx.UpsertDepartment(ctx, &d)
	})
	if err := c.commit(ctx, p); err != nil {
		return err
	}
	if c.departmentFilter == id {
		c.departmentFilter = catalog.AllDepartments
	}
	return nil
}

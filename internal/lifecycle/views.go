package lifecycle

import (
	"context"

	"equipment-lifecycle/internal/access"
	"equipment-lifecycle/internal/catalog"
	"equipment-lifecycle/internal/model"
	"equipment-lifecycle/internal/report"
	"equipment-lifecycle/internal/store"
)

// CatalogView is the filtered equipment list with its statistics.
type CatalogView struct {
	DepartmentID int64              `json:"department_id"`
	Search       string             `json:"search"`
	Items        []model.Equipment  `json:"items"`
	Statistics   report.Statistics  `json:"statistics"`
	Departments  []model.Department `json:"departments"`
}

// Catalog recomputes the filtered equipment view from the full working set.
func (c *Coordinator) Catalog(ctx context.Context) (CatalogView, error) {
	if err := c.session.RequireActor("catalog"); err != nil {
		return CatalogView{}, err
	}
	snap, err := c.mirror.Snapshot(ctx)
	if err != nil {
		return CatalogView{}, err
	}
	active, err := c.mirror.ListDepartments(ctx, true)
	if err != nil {
		return CatalogView{}, err
	}

	filtered := catalog.Apply(snap.Equipment, c.departmentFilter, c.search)
	return CatalogView{
		DepartmentID: c.departmentFilter,
		Search:       c.search,
		Items:        filtered,
		Statistics:   report.Stats(filtered, snap.Equipment, snap.Departments, snap.Maintenance),
		Departments:  active,
	}, nil
}

// Equipment returns the whole equipment working set.
func (c *Coordinator) Equipment(ctx context.Context) ([]model.Equipment, error) {
	if err := c.session.RequireActor("list_equipment"); err != nil {
		return nil, err
	}
	return c.mirror.ListEquipment(ctx, store.EquipmentFilter{})
}

// Maintenance returns every maintenance record.
func (c *Coordinator) Maintenance(ctx context.Context) ([]model.Maintenance, error) {
	if err := c.session.RequireActor("list_maintenance"); err != nil {
		return nil, err
	}
	return c.mirror.ListMaintenance(ctx)
}

// Departments returns the departments, only the active ones when asked.
func (c *Coordinator) Departments(ctx context.Context, activeOnly bool) ([]model.Department, error) {
	if err := c.session.RequireActor("list_departments"); err != nil {
		return nil, err
	}
	return c.mirror.ListDepartments(ctx, activeOnly)
}

// SelectableForMaintenance lists the equipment maintenance may be scheduled
// for, i.e. everything not retired.
func (c *Coordinator) SelectableForMaintenance(ctx context.Context) ([]model.Equipment, error) {
	if err := c.session.RequireActor("list_selectable"); err != nil {
		return nil, err
	}
	all, err := c.mirror.ListEquipment(ctx, store.EquipmentFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]model.Equipment, 0, len(all))
	for _, e := range all {
		if e.Status != model.StatusRetired {
			out = append(out, e)
		}
	}
	return out, nil
}

// EquipmentReport aggregates the equipment of the selected department, or
// of all departments when none is selected.
func (c *Coordinator) EquipmentReport(ctx context.Context) (report.EquipmentReport, error) {
	if err := c.session.Require(access.ViewReports); err != nil {
		return report.EquipmentReport{}, err
	}
	scoped, err := c.mirror.ListEquipment(ctx, store.EquipmentFilter{DepartmentID: c.departmentFilter})
	if err != nil {
		return report.EquipmentReport{}, err
	}
	departments, err := c.mirror.ListDepartments(ctx, false)
	if err != nil {
		return report.EquipmentReport{}, err
	}
	return report.Equipment(scoped, departments), nil
}

// MaintenanceReport aggregates every maintenance record.
func (c *Coordinator) MaintenanceReport(ctx context.Context) (report.MaintenanceReport, error) {
	if err := c.session.Require(access.ViewReports); err != nil {
		return report.MaintenanceReport{}, err
	}
	all, err := c.mirror.ListMaintenance(ctx)
	if err != nil {
		return report.MaintenanceReport{}, err
	}
	return report.Maintenance(all), nil
}

// AllDepartmentsScope is the report scope without a department filter.
const AllDepartmentsScope = "All departments"

// ReportHeader names who a report was produced for, when, and which
// departments it covers.
type ReportHeader struct {
	Actor       access.Actor `json:"actor"`
	GeneratedAt string       `json:"generated_at"`
	Mode        Mode         `json:"mode"`
	Scope       string       `json:"scope"`
}

// Header returns the header for a report produced now.
func (c *Coordinator) Header(ctx context.Context) ReportHeader {
	a, _ := c.session.Actor()
	scope := AllDepartmentsScope
	if c.departmentFilter != catalog.AllDepartments {
		if d, err := c.mirror.GetDepartment(ctx, c.departmentFilter); err == nil {
			scope = d.Name
		}
	}
	return ReportHeader{
		Actor:       a,
		GeneratedAt: c.now().Format("2006-01-02 15:04"),
		Mode:        c.Mode(),
		Scope:       scope,
	}
}

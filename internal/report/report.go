// Package report aggregates the equipment and maintenance working sets.
// Every function recomputes from the slices it is given.
package report

import (
	"sort"

	"equipment-lifecycle/internal/model"
)

// Unassigned labels equipment without an active department.
const Unassigned = "Unassigned"

// TopDepartmentsLimit caps Statistics.TopDepartments.
const TopDepartmentsLimit = 5

// DepartmentCount is one group of a by-department breakdown.
type DepartmentCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// EquipmentLine is one row of the equipment listing.
type EquipmentLine struct {
	model.Equipment
	DepartmentName string `json:"department_name"`
}

// EquipmentReport summarizes an equipment set.
type EquipmentReport struct {
	Total        int                           `json:"total"`
	ByStatus     map[model.EquipmentStatus]int `json:"by_status"`
	ByDepartment []DepartmentCount             `json:"by_department"`
	Listing      []EquipmentLine               `json:"listing"`
}

// MaintenanceReport summarizes a maintenance set.
type MaintenanceReport struct {
	Total    int                             `json:"total"`
	ByStatus map[model.MaintenanceStatus]int `json:"by_status"`
	Upcoming []model.Maintenance             `json:"upcoming"`
}

// Statistics feeds the dashboard next to the catalog.
type Statistics struct {
	Total               int               `json:"total"`
	InService           int               `json:"in_service"`
	UnderMaintenance    int               `json:"under_maintenance"`
	Retired             int               `json:"retired"`
	TopDepartments      []DepartmentCount `json:"top_departments"`
	UpcomingMaintenance int               `json:"upcoming_maintenance"`
}

// activeNames indexes the names of active departments by id.
func activeNames(departments []model.Department) map[int64]string {
	names := make(map[int64]string, len(departments))
	for _, d := range departments {
		if d.IsActive {
			names[d.ID] = d.Name
		}
	}
	return names
}

// departmentName returns the active department name of e, or "" when the
// equipment is unassigned.
func departmentName(e model.Equipment, names map[int64]string) string {
	if e.DepartmentID == nil {
		return ""
	}
	return names[*e.DepartmentID]
}

// DepartmentLabel returns the name shown for e's department.
func DepartmentLabel(e model.Equipment, departments []model.Department) string {
	if name := departmentName(e, activeNames(departments)); name != "" {
		return name
	}
	return Unassigned
}

func countByName(set []model.Equipment, names map[int64]string, includeUnassigned bool) []DepartmentCount {
	counts := make(map[string]int)
	for _, e := range set {
		name := departmentName(e, names)
		if name == "" {
			if !includeUnassigned {
				continue
			}
			name = Unassigned
		}
		counts[name]++
	}

	out := make([]DepartmentCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, DepartmentCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Equipment builds the equipment report. Groups are ordered by count
// descending, then name. The listing is ordered by department name, with
// unassigned equipment first, then by equipment name.
func Equipment(set []model.Equipment, departments []model.Department) EquipmentReport {
	names := activeNames(departments)

	r := EquipmentReport{
		Total:        len(set),
		ByStatus:     make(map[model.EquipmentStatus]int, len(model.EquipmentStatuses)),
		ByDepartment: countByName(set, names, true),
		Listing:      make([]EquipmentLine, 0, len(set)),
	}
	for _, s := range model.EquipmentStatuses {
		r.ByStatus[s] = 0
	}

	keys := make([]string, 0, len(set))
	for _, e := range set {
		r.ByStatus[e.Status]++
		key := departmentName(e, names)
		label := key
		if label == "" {
			label = Unassigned
		}
		r.Listing = append(r.Listing, EquipmentLine{Equipment: e, DepartmentName: label})
		keys = append(keys, key)
	}

	idx := make([]int, len(set))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka != kb {
			return ka < kb
		}
		return set[idx[a]].Name < set[idx[b]].Name
	})
	sorted := make([]EquipmentLine, len(idx))
	for i, j := range idx {
		sorted[i] = r.Listing[j]
	}
	r.Listing = sorted
	return r
}

// Maintenance builds the maintenance report. Upcoming holds the records not
// yet completed, earliest planned date first.
func Maintenance(set []model.Maintenance) MaintenanceReport {
	r := MaintenanceReport{
		Total:    len(set),
		ByStatus: make(map[model.MaintenanceStatus]int, len(model.MaintenanceStatuses)),
		Upcoming: Upcoming(set),
	}
	for _, s := range model.MaintenanceStatuses {
		r.ByStatus[s] = 0
	}
	for _, m := range set {
		r.ByStatus[m.Status]++
	}
	return r
}

// Upcoming returns the records of set that are not completed, ordered by
// planned date, ties keeping their input order.
func Upcoming(set []model.Maintenance) []model.Maintenance {
	out := make([]model.Maintenance, 0, len(set))
	for _, m := range set {
		if m.Status.Active() {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PlannedDate.Before(out[j].PlannedDate)
	})
	return out
}

// Stats computes the dashboard counters. Status counts cover filtered; the
// top departments cover all, leaving unassigned equipment out.
func Stats(filtered, all []model.Equipment, departments []model.Department, maintenance []model.Maintenance) Statistics {
	s := Statistics{Total: len(filtered)}
	for _, e := range filtered {
		switch e.Status {
		case model.StatusInService:
			s.InService++
		case model.StatusUnderMaintenance:
			s.UnderMaintenance++
		case model.StatusRetired:
			s.Retired++
		}
	}

	top := countByName(all, activeNames(departments), false)
	if len(top) > TopDepartmentsLimit {
		top = top[:TopDepartmentsLimit]
	}
	s.TopDepartments = top

	for _, m := range maintenance {
		if m.Status.Active() {
			s.UpcomingMaintenance++
		}
	}
	return s
}

// Package catalog derives the filtered equipment view.
package catalog

import (
	"strings"

	"equipment-lifecycle/internal/model"
)

// SearchPlaceholder is the empty-state prompt of the search box. It is treated
// as an empty query.
const SearchPlaceholder = "Search equipment..."

// AllDepartments selects equipment of every department.
const AllDepartments int64 = 0

// Apply returns the equipment of set that belong to departmentID (all when it
// is AllDepartments) and whose name, inventory number or model contains search,
// ignoring case. Order is preserved and set is not modified.
func Apply(set []model.Equipment, departmentID int64, search string) []model.Equipment {
	query := normalizeQuery(search)

	out := make([]model.Equipment, 0, len(set))
	for _, e := range set {
		if departmentID != AllDepartments && !e.InDepartment(departmentID) {
			continue
		}
		if query != "" && !matches(e, query) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func normalizeQuery(search string) string {
	q := strings.TrimSpace(search)
	if q == SearchPlaceholder {
		return ""
	}
	return strings.ToLower(q)
}

func matches(e model.Equipment, query string) bool {
	for _, field := range []string{e.Name, e.InventoryNumber, e.Model} {
		if field != "" && strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

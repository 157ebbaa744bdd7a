// Package access maps roles to the operations they may run and carries the
// actor of the current session.
package access

import "equipment-lifecycle/internal/model"

// Operation is a gated command.
type Operation string

const (
	AddEquipment        Operation = "equipment:add"
	EditEquipment       Operation = "equipment:edit"
	DeleteEquipment     Operation = "equipment:delete"
	RetireEquipment     Operation = "equipment:retire"
	AddMaintenance      Operation = "maintenance:add"
	CompleteMaintenance Operation = "maintenance:complete"
	ManageDepartments   Operation = "departments:manage"
	ViewReports         Operation = "reports:view"
)

// Operations lists every operation in display order.
var Operations = []Operation{
	AddEquipment,
	EditEquipment,
	DeleteEquipment,
	RetireEquipment,
	AddMaintenance,
	CompleteMaintenance,
	ManageDepartments,
	ViewReports,
}

var policy = map[model.Role][]Operation{
	model.RoleAdmin:      Operations,
	model.RoleEngineer:   Operations,
	model.RoleTechnician: {CompleteMaintenance, ViewReports},
	model.RoleManager:    {ViewReports},
}

// PermittedOperations returns the operations role may run. Unknown roles get
// an empty set.
func PermittedOperations(role model.Role) map[Operation]bool {
	ops := policy[role]
	out := make(map[Operation]bool, len(ops))
	for _, op := range ops {
		out[op] = true
	}
	return out
}

// Permitted reports whether role may run op.
func Permitted(role model.Role, op Operation) bool {
	for _, allowed := range policy[role] {
		if allowed == op {
			return true
		}
	}
	return false
}

// Table returns the full role to operations mapping, for display.
func Table() map[model.Role][]Operation {
	out := make(map[model.Role][]Operation, len(policy))
	for role, ops := range policy {
		out[role] = append([]Operation(nil), ops...)
	}
	return out
}

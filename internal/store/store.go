package store

import (
	"context"

	"equipment-lifecycle/internal/model"
)

// Store defines the persistence contract shared by the durable and the
// in-memory backends. Both implement it identically so callers never know
// which one they hold.
type Store interface {
	// Probe reports whether the backend can currently be reached.
	Probe(ctx context.Context) bool

	ListEquipment(ctx context.Context, filter EquipmentFilter) ([]model.Equipment, error)
	GetEquipment(ctx context.Context, id int64) (model.Equipment, error)
	ListMaintenance(ctx context.Context) ([]model.Maintenance, error)
	GetMaintenance(ctx context.Context, id int64) (model.Maintenance, error)
	ListDepartments(ctx context.Context, activeOnly bool) ([]model.Department, error)
	GetDepartment(ctx context.Context, id int64) (model.Department, error)

	// Upserts insert when the ID is zero and assign a new ID; otherwise they
	// update the row, inserting it under that ID when it does not exist.
	UpsertEquipment(ctx context.Context, e *model.Equipment) error
	UpsertMaintenance(ctx context.Context, m *model.Maintenance) error
	UpsertDepartment(ctx context.Context, d *model.Department) error
	UpsertUser(ctx context.Context, u *model.User) error

	DeleteEquipment(ctx context.Context, id int64) error
	DeleteMaintenance(ctx context.Context, id int64) error
	DeleteMaintenanceByEquipment(ctx context.Context, equipmentID int64) error

	// FindUserByCredentials returns the active user matching both username and
	// password, or nil when there is none.
	FindUserByCredentials(ctx context.Context, username, secret string) (*model.User, error)

	// Snapshot returns the complete data set.
	Snapshot(ctx context.Context) (Snapshot, error)

	// WithinTx runs fn as one all-or-nothing unit against tx.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// EquipmentFilter narrows ListEquipment. A zero DepartmentID means all.
type EquipmentFilter struct {
	DepartmentID int64
}

// Snapshot is a full copy of one backend's data set.
type Snapshot struct {
	Equipment   []model.Equipment
	Maintenance []model.Maintenance
	Departments []model.Department
	Users       []model.User
}

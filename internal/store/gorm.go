package store

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"equipment-lifecycle/internal/apperr"
	"equipment-lifecycle/internal/model"
)

// gormStore implements the Store interface using GORM. Every driver error is
// returned as an apperr connectivity error; nothing here panics.
type gormStore struct {
	db *gorm.DB
}

var _ Store = (*gormStore)(nil)

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Probe pings the underlying connection pool.
func (s *gormStore) Probe(ctx context.Context) bool {
	sqlDB, err := s.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(ctx) == nil
}

func (s *gormStore) ListEquipment(ctx context.Context, filter EquipmentFilter) ([]model.Equipment, error) {
	q := s.db.WithContext(ctx).Order("id")
	if filter.DepartmentID != 0 {
		q = q.Where("department_id = ?", filter.DepartmentID)
	}
	var items []model.Equipment
	if err := q.Find(&items).Error; err != nil {
		return nil, apperr.Connectivity("list equipment", err)
	}
	return items, nil
}

func (s *gormStore) GetEquipment(ctx context.Context, id int64) (model.Equipment, error) {
	var e model.Equipment
	err := s.db.WithContext(ctx).First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Equipment{}, apperr.NotFound("get equipment", "equipment", id)
	}
	if err != nil {
		return model.Equipment{}, apperr.Connectivity("get equipment", err)
	}
	return e, nil
}

func (s *gormStore) ListMaintenance(ctx context.Context) ([]model.Maintenance, error) {
	var items []model.Maintenance
	if err := s.db.WithContext(ctx).Order("id").Find(&items).Error; err != nil {
		return nil, apperr.Connectivity("list maintenance", err)
	}
	return items, nil
}

func (s *gormStore) GetMaintenance(ctx context.Context, id int64) (model.Maintenance, error) {
	var m model.Maintenance
	err := s.db.WithContext(ctx).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Maintenance{}, apperr.NotFound("get maintenance", "maintenance", id)
	}
	if err != nil {
		return model.Maintenance{}, apperr.Connectivity("get maintenance", err)
	}
	return m, nil
}

func (s *gormStore) ListDepartments(ctx context.Context, activeOnly bool) ([]model.Department, error) {
	q := s.db.WithContext(ctx).Order("id")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var items []model.Department
	if err := q.Find(&items).Error; err != nil {
		return nil, apperr.Connectivity("list departments", err)
	}
	return items, nil
}

func (s *gormStore) GetDepartment(ctx context.Context, id int64) (model.Department, error) {
	var d model.Department
	err := s.db.WithContext(ctx).First(&d, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Department{}, apperr.NotFound("get department", "department", id)
	}
	if err != nil {
		return model.Department{}, apperr.Connectivity("get department", err)
	}
	return d, nil
}

func (s *gormStore) UpsertEquipment(ctx context.Context, e *model.Equipment) error {
	return s.save(ctx, "upsert equipment", e, e.ID)
}

func (s *gormStore) UpsertMaintenance(ctx context.Context, m *model.Maintenance) error {
	return s.save(ctx, "upsert maintenance", m, m.ID)
}

func (s *gormStore) UpsertDepartment(ctx context.Context, d *model.Department) error {
	return s.save(ctx, "upsert department", d, d.ID)
}

func (s *gormStore) UpsertUser(ctx context.Context, u *model.User) error {
	return s.save(ctx, "upsert user", u, u.ID)
}

// save creates rows without an ID and saves the rest. gorm's Save falls back
// to an insert when the update matched no row, which gives upsert semantics.
func (s *gormStore) save(ctx context.Context, op string, value any, id int64) error {
	q := s.db.WithContext(ctx).Omit(clause.Associations)
	var err error
	if id == 0 {
		err = q.Create(value).Error
	} else {
		err = q.Save(value).Error
		if err == nil {
			err = s.syncSequence(ctx, value)
		}
	}
	if err != nil {
		return apperr.Connectivity(op, err)
	}
	return nil
}

// syncSequence moves the postgres id sequence of value's table past the
// largest id, since rows saved with an explicit id do not advance it.
func (s *gormStore) syncSequence(ctx context.Context, value any) error {
	if s.db.Dialector.Name() != "postgres" {
		return nil
	}
	stmt := &gorm.Statement{DB: s.db}
	if err := stmt.Parse(value); err != nil {
		return err
	}
	table := stmt.Schema.Table
	return s.db.WithContext(ctx).Exec(
		"SELECT setval(pg_get_serial_sequence(?, 'id'), GREATEST((SELECT MAX(id) FROM ?), 1))",
		table, clause.Table{Name: table},
	).Error
}

func (s *gormStore) DeleteEquipment(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.Equipment{}, id)
	if res.Error != nil {
		return apperr.Connectivity("delete equipment", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("delete equipment", "equipment", id)
	}
	return nil
}

func (s *gormStore) DeleteMaintenance(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.Maintenance{}, id)
	if res.Error != nil {
		return apperr.Connectivity("delete maintenance", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("delete maintenance", "maintenance", id)
	}
	return nil
}

func (s *gormStore) DeleteMaintenanceByEquipment(ctx context.Context, equipmentID int64) error {
	err := s.db.WithContext(ctx).
		Where("equipment_id = ?", equipmentID).
		Delete(&model.Maintenance{}).Error
	if err != nil {
		return apperr.Connectivity("delete maintenance by equipment", err)
	}
	return nil
}

func (s *gormStore) FindUserByCredentials(ctx context.Context, username, secret string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).
		Where("username = ? AND is_active = ?", username, true).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Connectivity("find user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(secret)) != nil {
		return nil, nil
	}
	return &u, nil
}

func (s *gormStore) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	db := s.db.WithContext(ctx)
	if err := db.Order("id").Find(&snap.Equipment).Error; err != nil {
		return Snapshot{}, apperr.Connectivity("snapshot equipment", err)
	}
	if err := db.Order("id").Find(&snap.Maintenance).Error; err != nil {
		return Snapshot{}, apperr.Connectivity("snapshot maintenance", err)
	}
	if err := db.Order("id").Find(&snap.Departments).Error; err != nil {
		return Snapshot{}, apperr.Connectivity("snapshot departments", err)
	}
	if err := db.Order("id").Find(&snap.Users).Error; err != nil {
		return Snapshot{}, apperr.Connectivity("snapshot users", err)
	}
	return snap, nil
}

// WithinTx runs fn inside a database transaction.
func (s *gormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
	if err != nil && apperr.KindOf(err) == apperr.KindInternal {
		return apperr.Connectivity("transaction", err)
	}
	return err
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"equipment-lifecycle/internal/apperr"
	"equipment-lifecycle/internal/model"
)

// MemStore is the transient backend. It keeps the whole data set in process
// memory, assigns IDs as max(existing)+1 and implements transactions by
// mutating a clone that replaces the live state only on success.
type MemStore struct {
	mu    sync.RWMutex
	state memState
}

var _ Store = (*MemStore)(nil)

type memState struct {
	equipment   map[int64]model.Equipment
	maintenance map[int64]model.Maintenance
	departments map[int64]model.Department
	users       map[int64]model.User
}

func newMemState() memState {
	return memState{
		equipment:   make(map[int64]model.Equipment),
		maintenance: make(map[int64]model.Maintenance),
		departments: make(map[int64]model.Department),
		users:       make(map[int64]model.User),
	}
}

func (st memState) clone() memState {
	out := newMemState()
	for k, v := range st.equipment {
		out.equipment[k] = cloneEquipment(v)
	}
	for k, v := range st.maintenance {
		out.maintenance[k] = v
	}
	for k, v := range st.departments {
		out.departments[k] = v
	}
	for k, v := range st.users {
		out.users[k] = v
	}
	return out
}

func cloneEquipment(e model.Equipment) model.Equipment {
	if e.DepartmentID != nil {
		id := *e.DepartmentID
		e.DepartmentID = &id
	}
	e.Department = nil
	return e
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{state: newMemState()}
}

// NewSeededMemStore returns an in-memory store holding the default data set,
// with maintenance dates relative to now.
func NewSeededMemStore(now time.Time) *MemStore {
	s := NewMemStore()
	s.Load(DefaultDataset(now))
	return s
}

// Load replaces the whole data set with snap.
func (s *MemStore) Load(snap Snapshot) {
	st := newMemState()
	for _, e := range snap.Equipment {
		st.equipment[e.ID] = cloneEquipment(e)
	}
	for _, m := range snap.Maintenance {
		m.Equipment = nil
		st.maintenance[m.ID] = m
	}
	for _, d := range snap.Departments {
		st.departments[d.ID] = d
	}
	for _, u := range snap.Users {
		st.users[u.ID] = u
	}

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Probe always succeeds; process memory is always reachable.
func (s *MemStore) Probe(context.Context) bool { return true }

func (s *MemStore) ListEquipment(_ context.Context, filter EquipmentFilter) ([]model.Equipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]model.Equipment, 0, len(s.state.equipment))
	for _, e := range s.state.equipment {
		if filter.DepartmentID != 0 && !e.InDepartment(filter.DepartmentID) {
			continue
		}
		items = append(items, cloneEquipment(e))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *MemStore) GetEquipment(_ context.Context, id int64) (model.Equipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.state.equipment[id]
	if !ok {
		return model.Equipment{}, apperr.NotFound("get equipment", "equipment", id)
	}
	return cloneEquipment(e), nil
}

func (s *MemStore) ListMaintenance(context.Context) ([]model.Maintenance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]model.Maintenance, 0, len(s.state.maintenance))
	for _, m := range s.state.maintenance {
		items = append(items, m)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *MemStore) GetMaintenance(_ context.Context, id int64) (model.Maintenance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.state.maintenance[id]
	if !ok {
		return model.Maintenance{}, apperr.NotFound("get maintenance", "maintenance", id)
	}
	return m, nil
}

func (s *MemStore) ListDepartments(_ context.Context, activeOnly bool) ([]model.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]model.Department, 0, len(s.state.departments))
	for _, d := range s.state.departments {
		if activeOnly && !d.IsActive {
			continue
		}
		items = append(items, d)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *MemStore) GetDepartment(_ context.Context, id int64) (model.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.state.departments[id]
	if !ok {
		return model.Department{}, apperr.NotFound("get department", "department", id)
	}
	return d, nil
}

func (s *MemStore) UpsertEquipment(_ context.Context, e *model.Equipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if e.ID == 0 {
		e.ID = nextID(s.state.equipment)
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	s.state.equipment[e.ID] = cloneEquipment(*e)
	return nil
}

func (s *MemStore) UpsertMaintenance(_ context.Context, m *model.Maintenance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if m.ID == 0 {
		m.ID = nextID(s.state.maintenance)
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	stored := *m
	stored.Equipment = nil
	s.state.maintenance[m.ID] = stored
	return nil
}

func (s *MemStore) UpsertDepartment(_ context.Context, d *model.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if d.ID == 0 {
		d.ID = nextID(s.state.departments)
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	s.state.departments[d.ID] = *d
	return nil
}

func (s *MemStore) UpsertUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if u.ID == 0 {
		u.ID = nextID(s.state.users)
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	s.state.users[u.ID] = *u
	return nil
}

func (s *MemStore) DeleteEquipment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.equipment[id]; !ok {
		return apperr.NotFound("delete equipment", "equipment", id)
	}
	delete(s.state.equipment, id)
	return nil
}

func (s *MemStore) DeleteMaintenance(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.maintenance[id]; !ok {
		return apperr.NotFound("delete maintenance", "maintenance", id)
	}
	delete(s.state.maintenance, id)
	return nil
}

func (s *MemStore) DeleteMaintenanceByEquipment(_ context.Context, equipmentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, m := range s.state.maintenance {
		if m.EquipmentID == equipmentID {
			delete(s.state.maintenance, id)
		}
	}
	return nil
}

func (s *MemStore) FindUserByCredentials(_ context.Context, username, secret string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.state.users {
		if u.Username != username || !u.IsActive {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(secret)) != nil {
			return nil, nil
		}
		found := u
		return &found, nil
	}
	return nil, nil
}

func (s *MemStore) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	snap.Equipment, _ = s.ListEquipment(ctx, EquipmentFilter{})
	snap.Maintenance, _ = s.ListMaintenance(ctx)
	snap.Departments, _ = s.ListDepartments(ctx, false)

	s.mu.RLock()
	for _, u := range s.state.users {
		snap.Users = append(snap.Users, u)
	}
	s.mu.RUnlock()
	sort.Slice(snap.Users, func(i, j int) bool { return snap.Users[i].ID < snap.Users[j].ID })
	return snap, nil
}

// WithinTx runs fn against a clone of the state and installs the clone only
// when fn succeeds.
func (s *MemStore) WithinTx(_ context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &MemStore{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

func nextID[T any](rows map[int64]T) int64 {
	var highest int64
	for id := range rows {
		if id > highest {
			highest = id
		}
	}
	return highest + 1
}

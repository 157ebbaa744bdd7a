package store

import (
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"equipment-lifecycle/internal/model"
)

type seedUser struct {
	username string
	password string
	role     model.Role
	fullName string
}

var seedUsers = []seedUser{
	{"admin", "admin123", model.RoleAdmin, "System Administrator"},
	{"engineer", "engineer123", model.RoleEngineer, "Engineer I. Ivanov"},
	{"technician", "tech123", model.RoleTechnician, "Technician P. Petrov"},
	{"manager", "manager123", model.RoleManager, "Manager S. Sidorov"},
}

var (
	seedHashesOnce sync.Once
	seedHashes     []string
)

// seedPasswordHashes hashes the default passwords once per process.
func seedPasswordHashes() []string {
	seedHashesOnce.Do(func() {
		seedHashes = make([]string, len(seedUsers))
		for i, u := range seedUsers {
			hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
			if err != nil {
				panic(err)
			}
			seedHashes[i] = string(hash)
		}
	})
	return seedHashes
}

// HashPassword returns the bcrypt hash stored for a user password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func ptr(id int64) *int64 { return &id }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DefaultDataset is the fixed data set used whenever no durable store can be
// reached, and to seed an empty durable store. Maintenance dates are relative
// to now. Equipment 1 and 2 carry open maintenance and are therefore under
// maintenance; equipment 4 is retired.
func DefaultDataset(now time.Time) Snapshot {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	departments := []model.Department{
		{ID: 1, Name: "Information Technology", Code: "IT", Description: "IT department", IsActive: true},
		{ID: 2, Name: "Accounting", Code: "ACC", Description: "Accounting department", IsActive: true},
		{ID: 3, Name: "Production", Code: "PROD", Description: "Production floor", IsActive: true},
		{ID: 4, Name: "Warehouse", Code: "WH", Description: "Warehouse and storage", IsActive: true},
	}

	equipment := []model.Equipment{
		{ID: 1, Name: "CNC Lathe CNC-500", InventoryNumber: "INV001", Model: "CNC-500",
			Status: model.StatusUnderMaintenance, CommissionDate: date(2023, time.January, 15), DepartmentID: ptr(3)},
		{ID: 2, Name: "Milling Machine FZ-200", InventoryNumber: "INV002", Model: "FZ-200",
			Status: model.StatusUnderMaintenance, CommissionDate: date(2023, time.March, 20), DepartmentID: ptr(3)},
		{ID: 3, Name: "Hydraulic Press PH-100", InventoryNumber: "INV003", Model: "PH-100",
			Status: model.StatusInService, CommissionDate: date(2023, time.May, 10), DepartmentID: ptr(3)},
		{ID: 4, Name: "Drill Press SD-50", InventoryNumber: "INV004", Model: "SD-50",
			Status: model.StatusRetired, CommissionDate: date(2022, time.August, 1), DepartmentID: ptr(3)},
		{ID: 5, Name: "Dell Optiplex Workstation", InventoryNumber: "INV005", Model: "Optiplex 7070",
			Status: model.StatusInService, CommissionDate: date(2023, time.February, 10), DepartmentID: ptr(1)},
		{ID: 6, Name: "HP LaserJet Printer", InventoryNumber: "INV006", Model: "LaserJet Pro",
			Status: model.StatusInService, CommissionDate: date(2023, time.April, 15), DepartmentID: ptr(2)},
		{ID: 7, Name: "Barcode Scanner", InventoryNumber: "INV007", Model: "BCR-2000",
			Status: model.StatusInService, CommissionDate: date(2023, time.June, 20), DepartmentID: ptr(4)},
	}

	maintenance := []model.Maintenance{
		{ID: 1, EquipmentID: 1, EquipmentName: "CNC Lathe CNC-500",
			PlannedDate: today.AddDate(0, 0, 7), Status: model.MaintenancePlanned},
		{ID: 2, EquipmentID: 2, EquipmentName: "Milling Machine FZ-200",
			PlannedDate: today.AddDate(0, 0, 2), Status: model.MaintenanceInProgress},
	}

	hashes := seedPasswordHashes()
	users := make([]model.User, len(seedUsers))
	for i, u := range seedUsers {
		users[i] = model.User{
			ID:           int64(i + 1),
			Username:     u.username,
			PasswordHash: hashes[i],
			Role:         u.role,
			FullName:     u.fullName,
			IsActive:     true,
		}
	}

	return Snapshot{
		Equipment:   equipment,
		Maintenance: maintenance,
		Departments: departments,
		Users:       users,
	}
}

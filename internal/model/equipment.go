package model

import "time"

// Equipment is a tracked physical asset.
type Equipment struct {
	ID              int64           `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"size:256;not null" json:"name"`
	InventoryNumber string          `gorm:"size:64;index;not null" json:"inventory_number"`
	Model           string          `gorm:"size:256" json:"model"`
	Status          EquipmentStatus `gorm:"size:32;not null;index" json:"status"`
	CommissionDate  time.Time       `json:"commission_date"`
	DepartmentID    *int64          `gorm:"index" json:"department_id"`
	CreatedAt       time.Time       `json:"-"`
	UpdatedAt       time.Time       `json:"-"`

	// Associations
	Department *Department `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

// TableName pins the table name; "equipment" is uncountable.
func (Equipment) TableName() string { return "equipment" }

// InDepartment reports whether the equipment references the given department.
func (e Equipment) InDepartment(id int64) bool {
	return e.DepartmentID != nil && *e.DepartmentID == id
}

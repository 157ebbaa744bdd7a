package model

import "time"

// Maintenance is a scheduled maintenance event for one equipment asset.
// EquipmentName is a snapshot taken at creation and is not kept in sync with
// later renames of the equipment.
type Maintenance struct {
	ID            int64             `gorm:"primaryKey" json:"id"`
	EquipmentID   int64             `gorm:"index;not null" json:"equipment_id"`
	EquipmentName string            `gorm:"size:256;not null" json:"equipment_name"`
	PlannedDate   time.Time         `gorm:"not null;index" json:"planned_date"`
	Status        MaintenanceStatus `gorm:"size:32;not null" json:"status"`
	CreatedAt     time.Time         `json:"-"`
	UpdatedAt     time.Time         `json:"-"`

	// Associations
	Equipment *Equipment `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName pins the table name.
func (Maintenance) TableName() string { return "maintenance" }

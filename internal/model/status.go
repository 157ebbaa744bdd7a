package model

// EquipmentStatus is the lifecycle state of an equipment asset.
type EquipmentStatus string

const (
	StatusInService        EquipmentStatus = "in_service"
	StatusUnderMaintenance EquipmentStatus = "under_maintenance"
	StatusRetired          EquipmentStatus = "retired"
)

// EquipmentStatuses lists every equipment status in display order.
var EquipmentStatuses = []EquipmentStatus{StatusInService, StatusUnderMaintenance, StatusRetired}

// Valid reports whether s is a known equipment status.
func (s EquipmentStatus) Valid() bool {
	switch s {
	case StatusInService, StatusUnderMaintenance, StatusRetired:
		return true
	}
	return false
}

// Label returns the human readable name of the status.
func (s EquipmentStatus) Label() string {
	switch s {
	case StatusInService:
		return "In service"
	case StatusUnderMaintenance:
		return "Under maintenance"
	case StatusRetired:
		return "Retired"
	}
	return string(s)
}

// MaintenanceStatus is the state of a scheduled maintenance event.
type MaintenanceStatus string

const (
	MaintenancePlanned    MaintenanceStatus = "planned"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
)

// MaintenanceStatuses lists every maintenance status in display order.
var MaintenanceStatuses = []MaintenanceStatus{MaintenancePlanned, MaintenanceInProgress, MaintenanceCompleted}

// Valid reports whether s is a known maintenance status.
func (s MaintenanceStatus) Valid() bool {
	switch s {
	case MaintenancePlanned, MaintenanceInProgress, MaintenanceCompleted:
		return true
	}
	return false
}

// Active reports whether the event still holds its equipment in maintenance.
func (s MaintenanceStatus) Active() bool {
	return s != MaintenanceCompleted
}

// Label returns the human readable name of the status.
func (s MaintenanceStatus) Label() string {
	switch s {
	case MaintenancePlanned:
		return "Planned"
	case MaintenanceInProgress:
		return "In progress"
	case MaintenanceCompleted:
		return "Completed"
	}
	return string(s)
}

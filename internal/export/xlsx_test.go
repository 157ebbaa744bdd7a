package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"equipment-lifecycle/internal/model"
	"equipment-lifecycle/internal/report"
)

func ptr(v int64) *int64 { return &v }

func TestEquipmentReportXLSX(t *testing.T) {
	departments := []model.Department{
		{ID: 1, Name: "Radiology", Code: "RAD", IsActive: true},
		{ID: 2, Name: "Surgery", Code: "SUR", IsActive: false},
	}
	commissioned := time.Date(2021, 4, 2, 0, 0, 0, 0, time.UTC)
	equipment := []model.Equipment{
		{ID: 1, Name: "X-ray", InventoryNumber: "INV-1", Model: "XR-9", Status: model.StatusInService, CommissionDate: commissioned, DepartmentID: ptr(1)},
		{ID: 2, Name: "Scalpel rack", InventoryNumber: "INV-2", Status: model.StatusUnderMaintenance, CommissionDate: commissioned, DepartmentID: ptr(2)},
	}
	maintenance := []model.Maintenance{
		{ID: 7, EquipmentID: 2, EquipmentName: "Scalpel rack", PlannedDate: time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), Status: model.MaintenancePlanned},
		{ID: 8, EquipmentID: 1, EquipmentName: "X-ray", PlannedDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Status: model.MaintenanceCompleted},
	}

	var buf bytes.Buffer
	h := Header{GeneratedFor: "Administrator", GeneratedAt: "2025-03-10 09:30", Mode: "durable", Scope: "All departments"}
	err := EquipmentReportXLSX(&buf, h, report.Equipment(equipment, departments), report.Maintenance(maintenance))
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{equipmentSheet, summarySheet, maintenanceSheet}, f.GetSheetList())

	rows, err := f.GetRows(equipmentSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Inventory number", rows[0][2])
	// Unassigned sorts ahead of named departments.
	assert.Equal(t, []string{"2", "Scalpel rack", "INV-2", "", "Under maintenance", "2021-04-02", "Unassigned"}, rows[1])
	assert.Equal(t, []string{"1", "X-ray", "INV-1", "XR-9", "In service", "2021-04-02", "Radiology"}, rows[2])

	v, err := f.GetCellValue(summarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "Administrator", v)
	cells := []struct {
		cell string
		want string
	}{
		{"A4", "Scope"},
		{"B4", "All departments"},
		{"A5", "Total equipment"},
		{"B5", "2"},
		{"A7", "Status"},
		{"A8", "In service"},
	}
	for _, c := range cells {
		v, err = f.GetCellValue(summarySheet, c.cell)
		require.NoError(t, err)
		assert.Equal(t, c.want, v, c.cell)
	}

	rows, err = f.GetRows(maintenanceSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2, "completed maintenance is not upcoming")
	assert.Equal(t, []string{"7", "Scalpel rack", "2025-03-12", "Planned"}, rows[1])
}

func TestEquipmentReportXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	err := EquipmentReportXLSX(&buf, Header{}, report.Equipment(nil, nil), report.Maintenance(nil))
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(equipmentSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "equipment_report_2025-03-10.xlsx", Filename(time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)))
}

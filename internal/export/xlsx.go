// Package export renders report results as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"equipment-lifecycle/internal/model"
	"equipment-lifecycle/internal/report"
)

// ContentType is the media type of the produced workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	equipmentSheet   = "Equipment"
	summarySheet     = "Summary"
	maintenanceSheet = "Maintenance"

	dateLayout = "2006-01-02"
)

var equipmentHeaders = []any{"ID", "Name", "Inventory number", "Model", "Status", "Commission date", "Department"}

var maintenanceHeaders = []any{"ID", "Equipment", "Planned date", "Status"}

// Header is printed above the summary.
type Header struct {
	GeneratedFor string
	GeneratedAt  string
	Mode         string
	// Scope names the department the report covers.
	Scope string
}

// Filename returns the attachment name of a report produced at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("equipment_report_%s.xlsx", t.Format(dateLayout))
}

// EquipmentReportXLSX writes a workbook with the equipment listing, the
// status and department breakdowns, and the upcoming maintenance.
func EquipmentReportXLSX(w io.Writer, h Header, eq report.EquipmentReport, mr report.MaintenanceReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", equipmentSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	if _, err := f.NewSheet(maintenanceSheet); err != nil {
		return fmt.Errorf("create maintenance sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeEquipment(f, bold, eq); err != nil {
		return err
	}
	if err := writeSummary(f, bold, h, eq); err != nil {
		return err
	}
	if err := writeMaintenance(f, bold, mr); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeEquipment(f *excelize.File, style int, eq report.EquipmentReport) error {
	if err := headerRow(f, equipmentSheet, style, equipmentHeaders); err != nil {
		return err
	}
	for i, line := range eq.Listing {
		row := []any{
			line.ID, line.Name, line.InventoryNumber, line.Model,
			line.Status.Label(), formatDate(line.CommissionDate), line.DepartmentName,
		}
		if err := setRow(f, equipmentSheet, i+2, row); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(equipmentSheet, "B", "B", 30)
	_ = f.SetColWidth(equipmentSheet, "C", "D", 20)
	_ = f.SetColWidth(equipmentSheet, "E", "F", 18)
	_ = f.SetColWidth(equipmentSheet, "G", "G", 25)
	return nil
}

func writeSummary(f *excelize.File, style int, h Header, eq report.EquipmentReport) error {
	rows := [][]any{
		{"Generated for", h.GeneratedFor},
		{"Generated at", h.GeneratedAt},
		{"Storage", h.Mode},
		{"Scope", h.Scope},
		{"Total equipment", eq.Total},
		{},
		{"Status", "Count"},
	}
	for _, s := range model.EquipmentStatuses {
		rows = append(rows, []any{s.Label(), eq.ByStatus[s]})
	}
	rows = append(rows, []any{}, []any{"Department", "Count"})
	for _, d := range eq.ByDepartment {
		rows = append(rows, []any{d.Name, d.Count})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
		if row[0] == "Status" || row[0] == "Department" {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			end, _ := excelize.CoordinatesToCellName(2, i+1)
			if err := f.SetCellStyle(summarySheet, cell, end, style); err != nil {
				return fmt.Errorf("style summary: %w", err)
			}
		}
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 25)
	_ = f.SetColWidth(summarySheet, "B", "B", 20)
	return nil
}

func writeMaintenance(f *excelize.File, style int, mr report.MaintenanceReport) error {
	if err := headerRow(f, maintenanceSheet, style, maintenanceHeaders); err != nil {
		return err
	}
	for i, m := range mr.Upcoming {
		row := []any{m.ID, m.EquipmentName, formatDate(m.PlannedDate), m.Status.Label()}
		if err := setRow(f, maintenanceSheet, i+2, row); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(maintenanceSheet, "B", "B", 30)
	_ = f.SetColWidth(maintenanceSheet, "C", "D", 18)
	return nil
}

func headerRow(f *excelize.File, sheet string, style int, headers []any) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	end, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", end, style); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

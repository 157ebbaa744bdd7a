// Package parse turns loosely formatted request fields into model values.
package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"equipment-lifecycle/internal/model"
)

var separatorRe = regexp.MustCompile(`[\s_\-]+`)

// key folds a label such as "Under maintenance", "under-maintenance" or
// "UNDER_MAINTENANCE" into "under_maintenance".
func key(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	return separatorRe.ReplaceAllString(s, "_")
}

// EquipmentStatus parses a status code or label. Blank input yields "".
func EquipmentStatus(raw string) (model.EquipmentStatus, error) {
	k := key(raw)
	if k == "" {
		return "", nil
	}
	if k == "inservice" {
		k = string(model.StatusInService)
	}
	if k == "undermaintenance" {
		k = string(model.StatusUnderMaintenance)
	}
	s := model.EquipmentStatus(k)
	if !s.Valid() {
		return "", fmt.Errorf("unknown equipment status: %q", raw)
	}
	return s, nil
}

// MaintenanceStatus parses a status code or label. Blank input yields "".
func MaintenanceStatus(raw string) (model.MaintenanceStatus, error) {
	k := key(raw)
	if k == "" {
		return "", nil
	}
	if k == "inprogress" {
		k = string(model.MaintenanceInProgress)
	}
	s := model.MaintenanceStatus(k)
	if !s.Valid() {
		return "", fmt.Errorf("unknown maintenance status: %q", raw)
	}
	return s, nil
}

// Role parses a role code or label. Blank input yields "".
func Role(raw string) (model.Role, error) {
	k := key(raw)
	if k == "" {
		return "", nil
	}
	if k == "administrator" {
		k = string(model.RoleAdmin)
	}
	r := model.Role(k)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role: %q", raw)
	}
	return r, nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"02.01.2006",
	"2006-01-02 15:04",
}

// Date parses a calendar date or timestamp. Blank input yields the zero time.
func Date(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %q", raw)
}

// ID parses a positive row identifier.
func ID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %q", raw)
	}
	return id, nil
}

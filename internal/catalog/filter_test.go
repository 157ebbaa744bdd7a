package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"equipment-lifecycle/internal/model"
	"equipment-lifecycle/internal/store"
)

func ids(items []model.Equipment) []int64 {
	out := make([]int64, 0, len(items))
	for _, e := range items {
		out = append(out, e.ID)
	}
	return out
}

func dataset() []model.Equipment {
	set := store.DefaultDataset(time.Now()).Equipment
	set = append(set, model.Equipment{ID: 8, Name: "Unassigned Shelf", InventoryNumber: "INV008", Status: model.StatusInService})
	return set
}

func TestApply(t *testing.T) {
	set := dataset()

	testCases := []struct {
		name   string
		dept   int64
		search string
		want   []int64
	}{
		{name: "no filters", dept: AllDepartments, search: "", want: []int64{1, 2, 3, 4, 5, 6, 7, 8}},
		{name: "placeholder is empty", dept: AllDepartments, search: SearchPlaceholder, want: []int64{1, 2, 3, 4, 5, 6, 7, 8}},
		{name: "whitespace is empty", dept: AllDepartments, search: "   ", want: []int64{1, 2, 3, 4, 5, 6, 7, 8}},
		{name: "department only", dept: 3, search: "", want: []int64{1, 2, 3, 4}},
		{name: "unknown department", dept: 42, search: "", want: []int64{}},
		{name: "name case-insensitive", dept: AllDepartments, search: "cnc", want: []int64{1}},
		{name: "inventory number", dept: AllDepartments, search: "inv00", want: []int64{1, 2, 3, 4, 5, 6, 7, 8}},
		{name: "model", dept: AllDepartments, search: "optiplex 7070", want: []int64{5}},
		{name: "search trimmed", dept: AllDepartments, search: "  laserjet ", want: []int64{6}},
		{name: "filters compose", dept: 3, search: "press", want: []int64{3, 4}},
		{name: "filters compose to empty", dept: 1, search: "press", want: []int64{}},
		{name: "empty model never matches", dept: AllDepartments, search: "shelf", want: []int64{8}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(Apply(set, tc.dept, tc.search)))
		})
	}
}

func TestApply_IdentityOnNoOpFilters(t *testing.T) {
	set := dataset()
	assert.Equal(t, set, Apply(set, AllDepartments, ""))
}

func TestApply_Idempotent(t *testing.T) {
	set := dataset()
	for _, dept := range []int64{0, 1, 3} {
		for _, search := range []string{"", "inv", "press", "zzz"} {
			once := Apply(set, dept, search)
			assert.Equal(t, once, Apply(once, dept, search), "dept=%d search=%q", dept, search)
		}
	}
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	set := dataset()
	before := ids(set)

	_ = Apply(set, 3, "lathe")

	assert.Equal(t, before, ids(set))
}

package lifecycle

import (
	"context"
	"fmt"
	"time"

	"equipment-lifecycle/internal/store"
)

const inventoryLayout = "20060102150405"

// SuggestInventoryNumber proposes an inventory number that no equipment of
// the working set uses yet.
func (c *Coordinator) SuggestInventoryNumber(ctx context.Context) (string, error) {
	if err := c.session.RequireActor("suggest_inventory_number"); err != nil {
		return "", err
	}
	all, err := c.mirror.ListEquipment(ctx, store.EquipmentFilter{})
	if err != nil {
		return "", err
	}
	taken := make(map[string]bool, len(all))
	for _, e := range all {
		taken[e.InventoryNumber] = true
	}
	return suggestInventoryNumber(c.now(), taken), nil
}

// suggestInventoryNumber returns "INV" followed by the timestamp, suffixed
// with "-N" for the smallest N that avoids taken.
func suggestInventoryNumber(now time.Time, taken map[string]bool) string {
	base := "INV" + now.Format(inventoryLayout)
	candidate := base
	for n := 1; taken[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return candidate
}

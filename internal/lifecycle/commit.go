package lifecycle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"equipment-lifecycle/internal/apperr"
	"equipment-lifecycle/internal/model"
	"equipment-lifecycle/internal/store"
)

// step is one store mutation of a plan. Steps capture the entities they
// write by pointer, so IDs assigned by the durable run carry over to the
// mirror replay.
type step func(ctx context.Context, tx store.Store) error

// plan is the unit committed to one or both backends.
type plan struct {
	op    string
	steps []step
	// created points at the IDs of inserted entities. They are reset before
	// a fallback run so the mirror assigns its own.
	created []*int64
}

func newPlan(op string) *plan {
	return &plan{op: op}
}

func (p *plan) add(steps ...step) *plan {
	p.steps = append(p.steps, steps...)
	return p
}

func (p *plan) insert(id *int64, s step) *plan {
	p.created = append(p.created, id)
	return p.add(s)
}

func (p *plan) run(ctx context.Context) func(tx store.Store) error {
	return func(tx store.Store) error {
		for _, s := range p.steps {
			if err := s(ctx, tx); err != nil {
				return err
			}
		}
		return nil
	}
}

// commit applies p atomically. With a reachable durable store the plan runs
// there first and is then replayed on the mirror. Domain errors abort the
// plan; any other durable failure diverts it to the mirror, where it is
// journaled until the durable store answers again.
func (c *Coordinator) commit(ctx context.Context, p *plan) error {
	if c.diverged && c.durable != nil {
		c.recover(ctx)
	}
	if c.durableActive() {
		err := c.commitDurable(ctx, p)
		if err == nil {
			return nil
		}
		if apperr.IsDomain(err) {
			return err
		}
		c.fallBack(p.op, err)
		for _, id := range p.created {
			*id = 0
		}
	}
	if err := c.mirror.WithinTx(ctx, p.run(ctx)); err != nil {
		return err
	}
	if c.diverged {
		c.journal = append(c.journal, p)
	}
	return nil
}

func (c *Coordinator) commitDurable(ctx context.Context, p *plan) error {
	if !c.durable.Probe(ctx) {
		return apperr.Connectivity(p.op, errProbeFailed)
	}
	if err := c.durable.WithinTx(ctx, p.run(ctx)); err != nil {
		return err
	}
	if err := c.mirror.WithinTx(ctx, p.run(ctx)); err != nil {
		c.log.Warn("mirror replay failed, reloading working set",
			zap.String("operation", p.op), zap.Error(err))
		if err := c.reload(ctx); err != nil {
			c.log.Error("working set is stale",
				zap.String("operation", p.op), zap.Error(err))
			c.diverged = true
			c.loaded = false
			c.notify(noticeStale, p.op,
				"change saved to the durable store but the working set could not be refreshed; resync to see it")
		}
	}
	c.log.Debug("committed", zap.String("operation", p.op), zap.Int("steps", len(p.steps)))
	return nil
}

// recover writes the journal to the durable store once it can be reached
// again. Journaled plans keep the IDs the mirror assigned, so the IDs handed
// out while diverged stay valid.
func (c *Coordinator) recover(ctx context.Context) {
	if !c.loaded || !c.durable.Probe(ctx) {
		return
	}
	if err := c.replay(ctx); err != nil {
		c.log.Warn("journal replay failed", zap.Int("pending", len(c.journal)), zap.Error(err))
		c.notify(apperr.KindOf(err).String(), "replay",
			fmt.Sprintf("%d change(s) kept in memory could not be written to the durable store: %v", len(c.journal), err))
	}
}

// replay runs every journaled plan against the durable store in one
// transaction and leaves the divergence on success.
func (c *Coordinator) replay(ctx context.Context) error {
	n := len(c.journal)
	err := c.durable.WithinTx(ctx, func(tx store.Store) error {
		for _, p := range c.journal {
			if err := p.run(ctx)(tx); err != nil {
				return fmt.Errorf("%s: %w", p.op, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.journal = nil
	c.diverged = false
	c.metrics.Replayed(n)
	c.log.Info("journal written to durable store", zap.Int("changes", n))
	if err := c.reload(ctx); err != nil {
		c.fallBack("replay", err)
	}
	msg := "durable store reachable again"
	if n > 0 {
		msg = fmt.Sprintf("%s; %d change(s) made in memory were saved", msg, n)
	}
	c.notify(noticeInfo, "replay", msg)
	return nil
}

// claim rejects inserting id when a lookup for it found a row. Inserts carry
// an ID only when a journal is replayed, and the row must not exist yet.
func claim(op, entity string, id int64, lookupErr error) error {
	if apperr.KindOf(lookupErr) == apperr.KindNotFound {
		return nil
	}
	if lookupErr != nil {
		return lookupErr
	}
	return apperr.Validation(op, "%s %d already exists", entity, id)
}

// coupledStatus is the status a non-retired equipment must have given the
// full maintenance set.
func coupledStatus(equipmentID int64, maintenance []model.Maintenance) model.EquipmentStatus {
	for _, m := range maintenance {
		if m.EquipmentID == equipmentID && m.Status.Active() {
			return model.StatusUnderMaintenance
		}
	}
	return model.StatusInService
}

// reconcile re-derives the status of one equipment from the full maintenance
// set of tx. Retired equipment and equipment that no longer exists are left
// alone.
func reconcile(equipmentID int64) step {
	return func(ctx context.Context, tx store.Store) error {
		e, err := tx.GetEquipment(ctx, equipmentID)
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		if e.Status == model.StatusRetired {
			return nil
		}
		all, err := tx.ListMaintenance(ctx)
		if err != nil {
			return err
		}
		want := coupledStatus(equipmentID, all)
		if e.Status == want {
			return nil
		}
		e.Status = want
		return tx.UpsertEquipment(ctx, &e)
	}
}

// Package lifecycle coordinates every mutation of equipment, maintenance and
// departments. It enforces the coupling between equipment status and open
// maintenance, gates each command through the session's access policy, and
// keeps the in-memory working set consistent with the durable store, falling
// back to memory alone when the durable store cannot be reached.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"equipment-lifecycle/internal/access"
	"equipment-lifecycle/internal/apperr"
	"equipment-lifecycle/internal/catalog"
	"equipment-lifecycle/internal/metrics"
	"equipment-lifecycle/internal/model"
	"equipment-lifecycle/internal/store"
)

// Mode names the backend mutations currently land in.
type Mode string

const (
	ModeDurable Mode = "durable"
	ModeMemory  Mode = "memory"
)

const maxNotices = 100

// Notice kinds besides the error kinds of apperr.
const (
	noticeInfo  = "info"
	noticeStale = "stale"
)

var errProbeFailed = errors.New("durable store probe failed")

// Notice is a non-fatal event reported to the operator.
type Notice struct {
	At        time.Time `json:"at"`
	Kind      string    `json:"kind"`
	Operation string    `json:"operation"`
	Message   string    `json:"message"`
}

// Status describes the persistence state of the session.
type Status struct {
	Mode              Mode     `json:"mode"`
	DurableConfigured bool     `json:"durable_configured"`
	Diverged          bool     `json:"diverged"`
	Notices           []Notice `json:"notices"`
}

// Coordinator owns the working set, an in-memory mirror of the durable store,
// and the optional durable store itself. It is not safe for concurrent use.
type Coordinator struct {
	durable store.Store
	mirror  *store.MemStore
	session *access.Session
	log     *zap.Logger

	validate *validator.Validate
	metrics  *metrics.Recorder
	now      func() time.Time

	// diverged is set once a mutation landed only in the mirror. Mutations
	// made while diverged are journaled and written to the durable store
	// when it answers again.
	diverged bool
	journal  []*plan
	// loaded is set while the mirror holds the durable data set. A journal
	// recorded against any other data set is never replayed.
	loaded  bool
	notices []Notice

	departmentFilter int64
	search           string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithMetrics records operation outcomes on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *Coordinator) { c.metrics = r }
}

// New creates a coordinator. durable may be nil, in which case the session
// runs on the default in-memory data set. When durable is set but cannot be
// loaded, the session starts diverged on the default data set.
func New(ctx context.Context, durable store.Store, session *access.Session, log *zap.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		durable:  durable,
		session:  session,
		log:      log,
		validate: newValidator(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.mirror = store.NewSeededMemStore(c.now())
	if durable == nil {
		c.log.Info("no durable store configured, running on in-memory data set")
		return c
	}
	if err := c.reload(ctx); err != nil {
		c.fallBack("load", err)
	}
	return c
}

// reload replaces the mirror with the durable data set.
func (c *Coordinator) reload(ctx context.Context) error {
	if !c.durable.Probe(ctx) {
		return apperr.Connectivity("load", errProbeFailed)
	}
	snap, err := c.durable.Snapshot(ctx)
	if err != nil {
		return err
	}
	c.mirror.Load(snap)
	c.loaded = true
	c.log.Info("loaded working set from durable store",
		zap.Int("equipment", len(snap.Equipment)),
		zap.Int("maintenance", len(snap.Maintenance)),
		zap.Int("departments", len(snap.Departments)),
	)
	return nil
}

// fallBack marks the session diverged and reports why.
func (c *Coordinator) fallBack(op string, cause error) {
	c.diverged = true
	c.metrics.Fallback(op)
	c.log.Warn("durable store unavailable, using in-memory data",
		zap.String("operation", op), zap.Error(cause))
	c.notify(apperr.KindConnectivity.String(), op,
		"durable store unavailable; changes are kept in memory until it is reachable again")
}

func (c *Coordinator) notify(kind, op, msg string) {
	c.notices = append(c.notices, Notice{At: c.now(), Kind: kind, Operation: op, Message: msg})
	if len(c.notices) > maxNotices {
		c.notices = c.notices[len(c.notices)-maxNotices:]
	}
}

func (c *Coordinator) durableActive() bool {
	return c.durable != nil && !c.diverged
}

// Mode reports where mutations currently land.
func (c *Coordinator) Mode() Mode {
	if c.durableActive() {
		return ModeDurable
	}
	return ModeMemory
}

// Notices returns the reported notices, oldest first.
func (c *Coordinator) Notices() []Notice {
	return append([]Notice(nil), c.notices...)
}

// Status reports the persistence state.
func (c *Coordinator) Status() Status {
	return Status{
		Mode:              c.Mode(),
		DurableConfigured: c.durable != nil,
		Diverged:          c.diverged,
		Notices:           c.Notices(),
	}
}

// Resync writes the changes made in memory to the durable store and reloads
// the working set from it. Changes that cannot be written because the mirror
// did not hold the durable data set, or because the durable store rejects
// them, are discarded and counted in the notice.
func (c *Coordinator) Resync(ctx context.Context) (err error) {
	const op = "resync"
	defer c.observe(op, time.Now(), &err)

	if err := c.session.Require(access.ManageDepartments); err != nil {
		return err
	}
	if c.durable == nil {
		return apperr.Validation(op, "no durable store configured")
	}
	if !c.durable.Probe(ctx) {
		c.notify(apperr.KindConnectivity.String(), op, "durable store still unavailable")
		return apperr.Connectivity(op, errProbeFailed)
	}
	if c.loaded && len(c.journal) > 0 {
		err := c.replay(ctx)
		if err == nil {
			if c.diverged {
				return apperr.Connectivity(op, errProbeFailed)
			}
			return nil
		}
		if !apperr.IsDomain(err) {
			c.notify(apperr.KindConnectivity.String(), op,
				fmt.Sprintf("%d change(s) kept in memory could not be written: %v", len(c.journal), err))
			return apperr.Connectivity(op, err)
		}
		c.log.Warn("journal rejected by durable store", zap.Error(err))
	}

	if err := c.reload(ctx); err != nil {
		c.notify(apperr.KindConnectivity.String(), op, "durable store still unavailable")
		return apperr.Connectivity(op, err)
	}
	discarded := len(c.journal)
	c.journal = nil
	c.diverged = false
	if discarded > 0 {
		c.log.Warn("discarded in-memory changes", zap.Int("changes", discarded))
		c.notify(noticeStale, op, fmt.Sprintf(
			"working set reloaded from durable store; %d change(s) made in memory were discarded", discarded))
		return nil
	}
	c.notify(noticeInfo, op, "working set reloaded from durable store")
	return nil
}

// SetDepartmentFilter narrows the catalog to one department; 0 selects all.
func (c *Coordinator) SetDepartmentFilter(ctx context.Context, departmentID int64) error {
	const op = "set_department_filter"
	if err := c.session.RequireActor(op); err != nil {
		return err
	}
	if departmentID != catalog.AllDepartments {
		if _, err := c.mirror.GetDepartment(ctx, departmentID); err != nil {
			return err
		}
	}
	c.departmentFilter = departmentID
	return nil
}

// SetSearchText sets the catalog search query.
func (c *Coordinator) SetSearchText(search string) error {
	if err := c.session.RequireActor("set_search_text"); err != nil {
		return err
	}
	c.search = search
	return nil
}

func (c *Coordinator) observe(op string, start time.Time, err *error) {
	c.metrics.Observe(op, *err == nil, time.Since(start))
	if *err != nil {
		c.log.Debug("operation failed", zap.String("operation", op), zap.Error(*err))
	}
}

// Now returns the coordinator's clock reading.
func (c *Coordinator) Now() time.Time {
	return c.now()
}

func (c *Coordinator) today() time.Time {
	now := c.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// FindUser resolves credentials against the durable store when it can be
// reached and against the in-memory users otherwise.
func (c *Coordinator) FindUser(ctx context.Context, username, secret string) (*model.User, error) {
	if c.durable != nil && c.durable.Probe(ctx) {
		u, err := c.durable.FindUserByCredentials(ctx, username, secret)
		if err == nil {
			return u, nil
		}
		c.log.Warn("durable user lookup failed, using in-memory users", zap.Error(err))
	}
	return c.mirror.FindUserByCredentials(ctx, username, secret)
}

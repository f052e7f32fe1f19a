package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Driver orchestrates reconciliation passes: throttle gate, authorization,
// fetch, diff, apply, report.
//
// Run is safe for concurrent use. Concurrent passes for the same scope and
// force flag are coalesced into one; no lock is held across store calls.
type Driver struct {
	local      RecordStore
	remote     Remote
	tombstones TombstoneSource
	throttle   *Throttle
	catalog    map[string]Collection
	observer   Observer
	logger     *zap.Logger
	now        func() time.Time

	passes singleflight.Group

	mu     sync.RWMutex
	states map[Scope]State
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithLogger sets the driver logger.
func WithLogger(l *zap.Logger) DriverOption {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithObserver registers an observer notified after every pass.
func WithObserver(o Observer) DriverOption {
	return func(d *Driver) {
		d.observer = o
	}
}

// WithClock overrides the time source used for throttling and reports.
func WithClock(now func() time.Time) DriverOption {
	return func(d *Driver) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDriver creates a driver for the given collections.
func NewDriver(local RecordStore, remote Remote, tombstones TombstoneSource, throttle *Throttle, collections []Collection, opts ...DriverOption) *Driver {
	d := &Driver{
		local:      local,
		remote:     remote,
		tombstones: tombstones,
		throttle:   throttle,
		catalog:    make(map[string]Collection, len(collections)),
		logger:     zap.NewNop(),
		now:        time.Now,
		states:     make(map[Scope]State),
	}
	for _, c := range collections {
		d.catalog[c.Name] = c
	}
	if d.throttle == nil {
		d.throttle = NewThrottle(OncePerSession, nil)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Collections returns the configured collection names.
func (d *Driver) Collections() []string {
	names := make([]string, 0, len(d.catalog))
	for name := range d.catalog {
		names = append(names, name)
	}
	return names
}

// Collection returns the configured collection by name.
func (d *Driver) Collection(name string) (Collection, bool) {
	c, ok := d.catalog[name]
	return c, ok
}

// Throttle returns the throttle gating non-forced passes.
func (d *Driver) Throttle() *Throttle {
	return d.throttle
}

// State returns the current state of the scope. Scopes never run are Idle.
func (d *Driver) State(collection, principal string) State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if s, ok := d.states[Scope{Collection: collection, Principal: principal}]; ok {
		return s
	}
	return StateIdle
}

// Run executes one pass. The report is always returned for known collections,
// including throttled and failed passes. The error is a *StoreError or
// *AuthorizationError when the pass failed, a *PartialApplyError when some
// upserts failed, and nil otherwise (throttled passes included).
func (d *Driver) Run(ctx context.Context, pass Pass) (*Report, error) {
	c, ok := d.catalog[pass.Collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, pass.Collection)
	}

	scope := Scope{Collection: pass.Collection, Principal: pass.Principal}
	key := fmt.Sprintf("%s|force=%t", scope, pass.Force)

	v, err, shared := d.passes.Do(key, func() (interface{}, error) {
		report, err := d.run(ctx, c, scope, pass.Force)
		if d.observer != nil {
			d.observer.ObservePass(report, err)
		}
		return report, err
	})
	if shared {
		d.logger.Debug("Joined in-flight sync pass", zap.String("scope", scope.String()))
	}

	report, _ := v.(*Report)
	return report, err
}

func (d *Driver) run(ctx context.Context, c Collection, scope Scope, force bool) (*Report, error) {
	start := d.now()
	report := &Report{
		Collection: scope.Collection,
		Principal:  scope.Principal,
		StartedAt:  start,
		Failures:   []Failure{},
	}
	log := d.logger.With(zap.String("collection", scope.Collection), zap.String("principal", scope.Principal))

	// Throttle gate
	if !force && !d.throttle.ShouldRun(scope, start) {
		d.transition(scope, StateThrottled)
		report.Outcome = OutcomeThrottled
		report.Duration = d.now().Sub(start)
		log.Debug("Sync pass throttled")
		d.transition(scope, StateIdle)
		return report, nil
	}

	if !d.remote.IsAuthorized(ctx, scope.Principal) {
		return d.fail(scope, report, start, &AuthorizationError{Principal: scope.Principal})
	}

	// Fetching
	d.transition(scope, StateFetching)
	localRecs, err := d.local.List(ctx, c.Name)
	if err != nil {
		return d.fail(scope, report, start, NewStoreError("list", OriginLocal, c.Name, "", err))
	}
	remoteStore := d.remote.Session(scope.Principal)
	remoteRecs, err := remoteStore.List(ctx, c.Name)
	if err != nil {
		return d.fail(scope, report, start, NewStoreError("list", OriginRemote, c.Name, "", err))
	}
	tombstones, err := d.tombstones.Snapshot(ctx, c.Name)
	if err != nil {
		return d.fail(scope, report, start, NewStoreError("tombstones", OriginLocal, c.Name, "", err))
	}

	// Diffing
	d.transition(scope, StateDiffing)
	outcome := Diff(c, localRecs, remoteRecs, tombstones)
	for _, dup := range outcome.Duplicates {
		report.SkippedDuplicate++
		report.Warnings = append(report.Warnings, dup.Error())
		log.Warn("Duplicate identity skipped", zap.String("identity", dup.Identity), zap.String("origin", string(dup.Origin)), zap.Int("position", dup.Position))
	}

	// Applying
	d.transition(scope, StateApplying)
	d.applyResults(ctx, remoteStore, c, outcome, report)

	// Reporting
	d.transition(scope, StateReporting)
	finished := d.now()
	report.Duration = finished.Sub(start)

	if len(report.Failures) > 0 {
		report.Outcome = OutcomePartial
		err := &PartialApplyError{Collection: c.Name, Failures: report.Failures}
		report.Error = err.Error()
		log.Warn("Sync pass completed with failures",
			zap.Int("created", report.Created),
			zap.Int("updated", report.Updated),
			zap.Int("failed", report.FailedCount()),
		)
		d.transition(scope, StateIdle)
		return report, err
	}

	report.Outcome = OutcomeCompleted
	d.throttle.RecordRun(scope, finished)
	log.Info("Sync pass completed",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("suppressed", report.Suppressed),
		zap.Int("skipped_duplicate", report.SkippedDuplicate),
		zap.Duration("duration", report.Duration),
	)
	d.transition(scope, StateIdle)
	return report, nil
}

func (d *Driver) fail(scope Scope, report *Report, start time.Time, err error) (*Report, error) {
	d.transition(scope, StateFailed)
	report.Outcome = OutcomeFailed
	report.Error = err.Error()
	report.Duration = d.now().Sub(start)
	d.logger.Error("Sync pass failed", zap.String("scope", scope.String()), zap.Error(err))
	return report, err
}

func (d *Driver) transition(scope Scope, to State) {
	d.mu.Lock()
	from, ok := d.states[scope]
	if !ok {
		from = StateIdle
	}
	d.states[scope] = to
	d.mu.Unlock()

	d.logger.Debug("Sync state transition",
		zap.String("scope", scope.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
}

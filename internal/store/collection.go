package store

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"
)

// State tracks where a collection is in its load lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Ops binds a Collection to its backing service calls.
type Ops[T any] struct {
	// Name identifies the collection in log output.
	Name string
	// ID extracts the entity identifier.
	ID func(T) string
	// Prepare assigns identity and timestamps before the optimistic
	// insert, so the in-memory copy matches what persistence will keep.
	Prepare func(T) T
	// Fetch loads the full collection.
	Fetch func(context.Context) ([]T, error)
	// Save upserts one entity.
	Save func(context.Context, T) (T, error)
	// Delete removes one entity by id.
	Delete func(context.Context, string) error
	// AfterWrite, when set, runs once a mutation has settled against the
	// backend, whether it succeeded or was reconciled away.
	AfterWrite func()
}

// Collection holds one entity type's records in memory and applies
// mutations optimistically: the in-memory change is visible before the
// backend confirms it. A failed confirmation is not rolled back in place;
// the collection resynchronizes with a full refresh and the error is
// delivered on the mutation's result channel.
type Collection[T any] struct {
	ops    Ops[T]
	logger *slog.Logger

	mu    sync.Mutex
	items []T
	state State

	// persistMu serializes backend writes so one logical mutation is in
	// flight per collection at a time.
	persistMu sync.Mutex

	refreshGroup singleflight.Group
}

// NewCollection creates an empty, uninitialized collection.
func NewCollection[T any](ops Ops[T], logger *slog.Logger) *Collection[T] {
	return &Collection[T]{ops: ops, logger: logger}
}

// State reports the current lifecycle state.
func (c *Collection[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the in-memory collection.
func (c *Collection[T]) Snapshot() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Get returns the in-memory entity with the given id.
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if c.ops.ID(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Refresh replaces the in-memory collection with the backend's truth.
// Concurrent refreshes are coalesced: a call issued while another is in
// flight waits for that one's result instead of fetching again.
func (c *Collection[T]) Refresh(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		c.mu.Lock()
		previous := c.state
		c.state = StateLoading
		c.mu.Unlock()

		items, err := c.ops.Fetch(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.state = previous
			return nil, err
		}
		c.items = items
		c.state = StateReady
		return nil, nil
	})
	return err
}

// Create appends the entity to the in-memory collection and returns it
// (with identity assigned) together with a result channel. The channel
// receives nil once persistence confirms, or the error after a failed
// write has been reconciled by refresh. Discarding the channel is fine;
// it is buffered and the optimistic entry stays either way.
func (c *Collection[T]) Create(ctx context.Context, item T) (T, <-chan error) {
	if c.ops.Prepare != nil {
		item = c.ops.Prepare(item)
	}

	c.mu.Lock()
	c.items = append(c.items, item)
	c.mu.Unlock()

	return item, c.confirm(ctx, "create", func(ctx context.Context) error {
		_, err := c.ops.Save(ctx, item)
		return err
	})
}

// Update replaces the in-memory entity with the same id, or appends when
// no copy is held, then persists the replacement.
func (c *Collection[T]) Update(ctx context.Context, item T) (T, <-chan error) {
	id := c.ops.ID(item)

	c.mu.Lock()
	replaced := false
	for i := range c.items {
		if c.ops.ID(c.items[i]) == id {
			c.items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		c.items = append(c.items, item)
	}
	c.mu.Unlock()

	return item, c.confirm(ctx, "update", func(ctx context.Context) error {
		_, err := c.ops.Save(ctx, item)
		return err
	})
}

// Remove filters the entity out of the in-memory collection and then
// deletes it from the backend.
func (c *Collection[T]) Remove(ctx context.Context, id string) <-chan error {
	c.mu.Lock()
	c.items = slices.DeleteFunc(c.items, func(item T) bool {
		return c.ops.ID(item) == id
	})
	c.mu.Unlock()

	return c.confirm(ctx, "remove", func(ctx context.Context) error {
		return c.ops.Delete(ctx, id)
	})
}

// confirm runs the backend write away from the caller and reports the
// outcome on a buffered channel. The write survives cancellation of the
// caller's context; a caller that stops caring simply drops the channel.
// On failure the collection refreshes before the error is delivered, so a
// receiver observes the reconciled state, not the stale optimistic one.
func (c *Collection[T]) confirm(ctx context.Context, op string, write func(context.Context) error) <-chan error {
	done := make(chan error, 1)
	ctx = context.WithoutCancel(ctx)

	go func() {
		c.persistMu.Lock()
		err := write(ctx)
		c.persistMu.Unlock()

		if err != nil {
			c.logger.Warn("write failed, resynchronizing from backend",
				slog.String("collection", c.ops.Name),
				slog.String("op", op),
				slog.String("error", err.Error()))
			if refreshErr := c.Refresh(ctx); refreshErr != nil {
				c.logger.Error("resynchronization failed",
					slog.String("collection", c.ops.Name),
					slog.String("error", refreshErr.Error()))
			}
		}
		if c.ops.AfterWrite != nil {
			c.ops.AfterWrite()
		}
		done <- err
	}()

	return done
}

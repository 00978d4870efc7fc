package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"

	"github.com/grocerypos/accounts/internal/core/domain"
)

var defaultValidate = validator.New()

// StoreOption customises a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	now      func() time.Time
	validate *validator.Validate
}

// WithClock replaces time.Now as the source of audit timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) { o.now = now }
}

// WithValidator replaces the validator used to check entity field tags.
func WithValidator(v *validator.Validate) StoreOption {
	return func(o *storeOptions) { o.validate = v }
}

type mutation int

const (
	mutationInsert mutation = iota + 1
	mutationUpdate
	mutationDelete
)

type pendingChange[T domain.Audited] struct {
	entity T
	kind   mutation
	// snap holds the column values observed when the entity was loaded.
	// It is nil for detached entities, which are written in full.
	snap map[string]any
}

// Store is a unit of work over one entity type. It is not safe for
// concurrent use.
type Store[T domain.Audited] struct {
	db        *bun.DB
	table     string
	newRecord func() T
	log       zerolog.Logger
	now       func() time.Time
	validate  *validator.Validate

	tracked map[int64]T
	snaps   map[int64]map[string]any
	queue   []*pendingChange[T]
	queued  map[*domain.AuditEnvelope]*pendingChange[T]
}

// NewStore opens a unit of work over table. newRecord must return a fresh,
// non-nil entity to scan rows into.
func NewStore[T domain.Audited](db *bun.DB, table string, newRecord func() T, log zerolog.Logger, opts ...StoreOption) *Store[T] {
	o := storeOptions{now: time.Now, validate: defaultValidate}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{
		db:        db,
		table:     table,
		newRecord: newRecord,
		log:       log.With().Str("table", table).Logger(),
		now:       o.now,
		validate:  o.validate,
		tracked:   make(map[int64]T),
		snaps:     make(map[int64]map[string]any),
		queued:    make(map[*domain.AuditEnvelope]*pendingChange[T]),
	}
}

// GetByID returns the active entity with id, or the zero T when there is
// none. Non-positive ids never reach the database.
func (s *Store[T]) GetByID(ctx context.Context, id int64) (T, error) {
	var zero T
	if id <= 0 {
		return zero, nil
	}
	if e, ok := s.tracked[id]; ok {
		if !e.Audit().IsActive {
			return zero, nil
		}
		return e, nil
	}

	e := s.newRecord()
	err := s.db.NewSelect().
		Model(e).
		Where("id = ?", id).
		Where("is_active = ?", true).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, nil
	}
	if err != nil {
		return zero, translate("get by id", err)
	}
	s.track(e)
	return e, nil
}

// GetAll returns every active entity ordered by id. Entities already
// tracked are returned as the tracked instance.
func (s *Store[T]) GetAll(ctx context.Context) ([]T, error) {
	var rows []T
	err := s.db.NewSelect().
		Model(&rows).
		Where("is_active = ?", true).
		Order("id ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, translate("get all", err)
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		id := row.Audit().ID
		if e, ok := s.tracked[id]; ok {
			if e.Audit().IsActive {
				out = append(out, e)
			}
			continue
		}
		s.track(row)
		out = append(out, row)
	}
	return out, nil
}

// Add queues entity for insertion. Audit fields are assigned at commit.
func (s *Store[T]) Add(ctx context.Context, entity T) error {
	env := entity.Audit()
	if env == nil {
		return s.invalid("add", "nil entity")
	}
	if env.ID != 0 {
		return s.invalid("add", fmt.Sprintf("entity already has id %d", env.ID))
	}
	if _, ok := s.queued[env]; ok {
		return nil
	}
	if err := s.validate.StructCtx(ctx, entity); err != nil {
		return s.invalid("add", err.Error())
	}

	s.enqueue(&pendingChange[T]{entity: entity, kind: mutationInsert})
	s.log.Debug().Msg("insert queued")
	return nil
}

// Update queues entity for modification. A tracked entity persists only the
// columns that changed since it was loaded; a detached entity is attached
// and written in full.
func (s *Store[T]) Update(ctx context.Context, entity T) error {
	env := entity.Audit()
	if env == nil {
		return s.invalid("update", "nil entity")
	}
	if env.ID <= 0 {
		return s.invalid("update", "entity has not been persisted")
	}
	if _, ok := s.queued[env]; ok {
		return nil
	}
	if err := s.validate.StructCtx(ctx, entity); err != nil {
		return s.invalid("update", err.Error())
	}

	if tracked, ok := s.tracked[env.ID]; ok {
		if tracked.Audit() != env {
			return s.invalid("update", fmt.Sprintf("another instance with id %d is already tracked", env.ID))
		}
		s.enqueue(&pendingChange[T]{entity: entity, kind: mutationUpdate, snap: s.snaps[env.ID]})
	} else {
		s.tracked[env.ID] = entity
		s.enqueue(&pendingChange[T]{entity: entity, kind: mutationUpdate})
	}
	s.log.Debug().Int64("id", env.ID).Msg("update queued")
	return nil
}

// Delete soft-deletes the entity with id. Missing or already inactive rows
// are left alone.
func (s *Store[T]) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return s.invalid("delete", fmt.Sprintf("id %d", id))
	}
	entity, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	env := entity.Audit()
	if env == nil {
		s.log.Debug().Int64("id", id).Msg("delete skipped, no active row")
		return nil
	}

	if p, ok := s.queued[env]; ok {
		p.kind = mutationDelete
	} else {
		s.enqueue(&pendingChange[T]{entity: entity, kind: mutationDelete, snap: s.snaps[id]})
	}
	env.IsActive = false
	s.log.Debug().Int64("id", id).Msg("delete queued")
	return nil
}

// SaveChanges commits every queued mutation in one transaction. On failure
// nothing is written, the queue is discarded and the entities' audit fields
// are restored.
func (s *Store[T]) SaveChanges(ctx context.Context) error {
	if len(s.queue) == 0 {
		return nil
	}
	queue := s.queue
	s.queue = nil
	s.queued = make(map[*domain.AuditEnvelope]*pendingChange[T])

	saved := make([]domain.AuditEnvelope, len(queue))
	for i, p := range queue {
		saved[i] = *p.entity.Audit()
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, p := range queue {
			if err := s.validate.StructCtx(ctx, p.entity); err != nil {
				return s.invalid("save changes", err.Error())
			}
			var err error
			if p.kind == mutationInsert {
				err = s.insert(ctx, tx, p, now)
			} else {
				err = s.update(ctx, tx, p, now)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		for i, p := range queue {
			env := p.entity.Audit()
			*env = saved[i]
			if p.kind == mutationDelete {
				env.IsActive = true
			}
			if env.ID > 0 {
				delete(s.tracked, env.ID)
				delete(s.snaps, env.ID)
			}
		}
		err = translate("save changes", err)
		s.log.Error().Err(err).Int("mutations", len(queue)).Msg("commit failed, changes discarded")
		return err
	}

	for _, p := range queue {
		s.track(p.entity)
	}
	s.log.Debug().Int("mutations", len(queue)).Msg("changes committed")
	return nil
}

// Pending reports how many mutations are queued.
func (s *Store[T]) Pending() int {
	return len(s.queue)
}

func (s *Store[T]) insert(ctx context.Context, tx bun.Tx, p *pendingChange[T], now time.Time) error {
	env := p.entity.Audit()
	env.CreatedAt = now
	env.ModifiedAt = nil
	env.IsActive = true

	res, err := tx.NewInsert().Model(p.entity).Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", s.table, err)
	}
	if env.ID == 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert into %s: last insert id: %w", s.table, err)
		}
		env.ID = id
	}
	return nil
}

// update re-reads the row inside the transaction before writing so a
// concurrent modification or removal surfaces as a conflict.
func (s *Store[T]) update(ctx context.Context, tx bun.Tx, p *pendingChange[T], now time.Time) error {
	env := p.entity.Audit()

	current := s.newRecord()
	err := tx.NewSelect().
		Model(current).
		Column("created_at", "modified_at", "is_active").
		Where("id = ?", env.ID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return conflict(s.table, env.ID, "no longer exists")
	}
	if err != nil {
		return fmt.Errorf("reload %s id=%d: %w", s.table, env.ID, err)
	}

	cur := current.Audit()
	if !cur.IsActive {
		if p.kind == mutationDelete {
			return nil
		}
		return conflict(s.table, env.ID, "was deleted")
	}
	if p.snap != nil {
		var observed any
		if cur.ModifiedAt != nil {
			observed = *cur.ModifiedAt
		}
		if !sameValue(p.snap["modified_at"], observed) {
			return conflict(s.table, env.ID, "was modified since it was loaded")
		}
	}

	stamp := now
	if stamp.Before(cur.CreatedAt) {
		stamp = cur.CreatedAt
	}
	env.CreatedAt = cur.CreatedAt
	env.ModifiedAt = &stamp

	cols := allColumns(p.entity, "id", "created_at")
	if p.snap != nil {
		cols = append(changedColumns(p.snap, p.entity, "id", "created_at", "modified_at"), "modified_at")
	}

	res, err := tx.NewUpdate().
		Model(p.entity).
		Column(cols...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update %s id=%d: %w", s.table, env.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return conflict(s.table, env.ID, "no longer exists")
	}
	return nil
}

func (s *Store[T]) track(entity T) {
	id := entity.Audit().ID
	s.tracked[id] = entity
	s.snaps[id] = snapshot(entity)
}

func (s *Store[T]) enqueue(p *pendingChange[T]) {
	s.queue = append(s.queue, p)
	s.queued[p.entity.Audit()] = p
}

func (s *Store[T]) invalid(op, reason string) error {
	s.log.Warn().Str("op", op).Str("reason", reason).Msg("rejected invalid argument")
	return fmt.Errorf("%w: %s %s: %s", domain.ErrInvalidArgument, op, s.table, reason)
}

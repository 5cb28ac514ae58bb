package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/fusecraft/internal/game/fuse/persist"
)

// ErrSaveNotFound is returned when a save lookup yields no results.
var ErrSaveNotFound = errors.New("save not found")

// Save is the header row of one persisted save.
type Save struct {
	ID        uuid.UUID
	Label     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SaveRepository stores persist.Records as (save_id, field, value) rows.
type SaveRepository struct {
	db *pgxpool.Pool
}

// NewSaveRepository creates a SaveRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSaveRepository(db *pgxpool.Pool) *SaveRepository {
	return &SaveRepository{db: db}
}

// Create inserts an empty save with a fresh id.
//
// Postcondition: Returns the created save or a non-nil error.
func (r *SaveRepository) Create(ctx context.Context, label string) (Save, error) {
	out := Save{ID: uuid.New()}
	err := r.db.QueryRow(ctx, `
		INSERT INTO saves (id, label) VALUES ($1, $2)
		RETURNING label, created_at, updated_at`,
		out.ID, label,
	).Scan(&out.Label, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return Save{}, fmt.Errorf("inserting save: %w", err)
	}
	return out, nil
}

// Get returns the save header for id.
//
// Postcondition: Returns ErrSaveNotFound if no save has id.
func (r *SaveRepository) Get(ctx context.Context, id uuid.UUID) (Save, error) {
	out := Save{ID: id}
	err := r.db.QueryRow(ctx,
		`SELECT label, created_at, updated_at FROM saves WHERE id = $1`, id,
	).Scan(&out.Label, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Save{}, ErrSaveNotFound
		}
		return Save{}, fmt.Errorf("querying save: %w", err)
	}
	return out, nil
}

// List returns every save ordered by creation time.
func (r *SaveRepository) List(ctx context.Context) ([]Save, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, label, created_at, updated_at FROM saves ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	saves, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Save, error) {
		var s Save
		err := row.Scan(&s.ID, &s.Label, &s.CreatedAt, &s.UpdatedAt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning saves: %w", err)
	}
	return saves, nil
}

// Delete removes the save and all of its fields.
//
// Postcondition: Returns ErrSaveNotFound if no save has id.
func (r *SaveRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM saves WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting save: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSaveNotFound
	}
	return nil
}

// LoadRecord reads every field of the save into a clean Record.
//
// Postcondition: Returns ErrSaveNotFound if no save has id.
func (r *SaveRepository) LoadRecord(ctx context.Context, id uuid.UUID) (*persist.Record, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}
	fields, err := readFields(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	return persist.RecordFromFields(fields), nil
}

// StoreRecord replaces the fields of the save with rec.
//
// Postcondition: on success rec is marked clean. Returns ErrSaveNotFound if
// no save has id.
func (r *SaveRepository) StoreRecord(ctx context.Context, id uuid.UUID, rec *persist.Record) error {
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockSave(ctx, tx, id); err != nil {
			return err
		}
		return writeFields(ctx, tx, id, rec)
	})
	if err != nil {
		return err
	}
	rec.MarkClean()
	return nil
}

// WithRecord loads the save, passes its Record to fn and writes the Record
// back if fn changed it, all in one transaction holding the save row lock.
// This keeps load-time migration write-back in the transaction it was read in.
//
// Precondition: fn must not retain rec after returning.
// Postcondition: Returns ErrSaveNotFound if no save has id; an error from fn
// rolls back and is returned unchanged.
func (r *SaveRepository) WithRecord(ctx context.Context, id uuid.UUID, fn func(rec *persist.Record) error) error {
	var rec *persist.Record
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockSave(ctx, tx, id); err != nil {
			return err
		}
		fields, err := readFields(ctx, tx, id)
		if err != nil {
			return err
		}
		rec = persist.RecordFromFields(fields)
		if err := fn(rec); err != nil {
			return err
		}
		if !rec.Dirty() {
			return nil
		}
		return writeFields(ctx, tx, id, rec)
	})
	if err != nil {
		return err
	}
	rec.MarkClean()
	return nil
}

func lockSave(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var got uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM saves WHERE id = $1 FOR UPDATE`, id).Scan(&got)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSaveNotFound
		}
		return fmt.Errorf("locking save: %w", err)
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func readFields(ctx context.Context, q querier, id uuid.UUID) (map[string]int64, error) {
	rows, err := q.Query(ctx, `SELECT field, value FROM save_fields WHERE save_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("reading save fields: %w", err)
	}
	defer rows.Close()

	fields := make(map[string]int64)
	for rows.Next() {
		var (
			field string
			value int64
		)
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("scanning save field: %w", err)
		}
		fields[field] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating save fields: %w", err)
	}
	return fields, nil
}

func writeFields(ctx context.Context, tx pgx.Tx, id uuid.UUID, rec *persist.Record) error {
	if _, err := tx.Exec(ctx, `DELETE FROM save_fields WHERE save_id = $1`, id); err != nil {
		return fmt.Errorf("clearing save fields: %w", err)
	}
	fields := rec.Fields()
	keys := rec.Keys()
	rows := make([][]any, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []any{id, k, fields[k]})
	}
	if len(rows) > 0 {
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"save_fields"},
			[]string{"save_id", "field", "value"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("writing save fields: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, `UPDATE saves SET updated_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("touching save: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // load database driver for postgres
)

// Table describes how a resource maps onto a PostgreSQL table. Columns lists
// the non-key columns; Values must return their values in the same order and
// Scan must read the key column followed by Columns.
type Table[E any] struct {
	Name    string
	Key     string
	Columns []string
	DDL     string
	Scan    func(row scanner) (E, error)
	Values  func(E) []any
}

type scanner interface {
	Scan(dest ...any) error
}

// PostgresStore persists one resource type in a PostgreSQL table.
type PostgresStore[E Entity[E, K], K comparable] struct {
	db        *sql.DB
	def       *ResourceDef[E, K]
	selectAll string
	selectOne string
	insert    string
	upsert    string
	remove    string
}

// NewPostgresStore creates a PostgresStore for the table described by def.
func NewPostgresStore[E Entity[E, K], K comparable](db *sql.DB, def *ResourceDef[E, K]) *PostgresStore[E, K] {
	t := def.Table
	all := append([]string{t.Key}, t.Columns...)

	placeholders := func(n, offset int) string {
		p := make([]string, n)
		for i := range p {
			p[i] = fmt.Sprintf("$%d", i+1+offset)
		}
		return strings.Join(p, ", ")
	}
	updates := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		updates[i] = fmt.Sprintf("%s = EXCLUDED.%s", c, c)
	}

	return &PostgresStore[E, K]{
		db:        db,
		def:       def,
		selectAll: fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(all, ", "), t.Name, t.Key),
		selectOne: fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", strings.Join(all, ", "), t.Name, t.Key),
		insert: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
			t.Name, strings.Join(t.Columns, ", "), placeholders(len(t.Columns), 0), t.Key),
		upsert: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
			t.Name, strings.Join(all, ", "), placeholders(len(all), 0), t.Key, strings.Join(updates, ", ")),
		remove: fmt.Sprintf("DELETE FROM %s WHERE %s = $1", t.Name, t.Key),
	}
}

// Migrate creates the table if it does not exist yet.
func (s *PostgresStore[E, K]) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.def.Table.DDL); err != nil {
		return fmt.Errorf("postgres: create table %s: %w", s.def.Table.Name, err)
	}
	return nil
}

// FindAll returns every row ordered by key.
func (s *PostgresStore[E, K]) FindAll(ctx context.Context) ([]E, error) {
	rows, err := s.db.QueryContext(ctx, s.selectAll)
	if err != nil {
		return nil, fmt.Errorf("postgres: list %s: %w", s.def.Table.Name, err)
	}
	defer rows.Close()

	entities := []E{}
	for rows.Next() {
		entity, err := s.def.Table.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan %s: %w", s.def.Table.Name, err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list %s: %w", s.def.Table.Name, err)
	}
	return entities, nil
}

func (s *PostgresStore[E, K]) FindByID(ctx context.Context, key K) (E, bool, error) {
	entity, err := s.def.Table.Scan(s.db.QueryRowContext(ctx, s.selectOne, key))
	if errors.Is(err, sql.ErrNoRows) {
		return entity, false, nil
	}
	if err != nil {
		return entity, false, fmt.Errorf("postgres: get %s %v: %w", s.def.Table.Name, key, err)
	}
	return entity, true, nil
}

func (s *PostgresStore[E, K]) Save(ctx context.Context, entity E) (E, error) {
	var zero K
	values := s.def.Table.Values(entity)
	if s.def.generated() && entity.Key() == zero {
		var key K
		if err := s.db.QueryRowContext(ctx, s.insert, values...).Scan(&key); err != nil {
			return entity, fmt.Errorf("postgres: insert %s: %w", s.def.Table.Name, err)
		}
		return entity.WithKey(key), nil
	}
	args := append([]any{entity.Key()}, values...)
	if _, err := s.db.ExecContext(ctx, s.upsert, args...); err != nil {
		return entity, fmt.Errorf("postgres: save %s %v: %w", s.def.Table.Name, entity.Key(), err)
	}
	return entity, nil
}

func (s *PostgresStore[E, K]) Delete(ctx context.Context, entity E) error {
	if _, err := s.db.ExecContext(ctx, s.remove, entity.Key()); err != nil {
		return fmt.Errorf("postgres: delete %s %v: %w", s.def.Table.Name, entity.Key(), err)
	}
	return nil
}

package entity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entities (
	type     TEXT    NOT NULL,
	id       INTEGER NOT NULL,
	uuid     TEXT    NOT NULL UNIQUE,
	bundle   TEXT    NOT NULL DEFAULT '',
	langcode TEXT    NOT NULL,
	created  INTEGER NOT NULL,
	data     TEXT    NOT NULL,
	PRIMARY KEY (type, id)
)`

// SQLiteStorage keeps entities in a SQLite database.
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

var _ Storage = (*SQLiteStorage)(nil)

type sqliteData struct {
	Values       map[string]any            `json:"values"`
	Translations map[string]map[string]any `json:"translations,omitempty"`
}

// OpenSQLite opens the database at dsn and creates the entity table.
// ":memory:" opens a private in-memory database.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writes.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create entity table: %w", err)
	}
	return &SQLiteStorage{db: db, now: time.Now}, nil
}

func (s *SQLiteStorage) Load(ctx context.Context, entityType, id string) (*Entity, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT type, id, uuid, bundle, langcode, created, data FROM entities WHERE type = ? AND id = ?`,
		entityType, n)
	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

func (s *SQLiteStorage) Query(ctx context.Context, q Query) ([]*Entity, int, error) {
	where := `WHERE type = ?`
	args := []any{q.Type}
	if q.Bundle != "" {
		where += ` AND bundle = ?`
		args = append(args, q.Bundle)
	}
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count entities: %w", err)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := max(q.Offset, 0)
	order := `ORDER BY id`
	if q.Descending {
		order += ` DESC`
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, id, uuid, bundle, langcode, created, data FROM entities `+where+` `+order+` LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()
	var out []*Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (s *SQLiteStorage) Save(ctx context.Context, e *Entity) error {
	prepare(e, s.now)
	data, err := json.Marshal(sqliteData{Values: e.Values, Translations: e.Translations})
	if err != nil {
		return fmt.Errorf("encode entity: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var id int64
	if e.ID == "" {
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM entities WHERE type = ?`, e.Type).Scan(&id); err != nil {
			return fmt.Errorf("allocate id: %w", err)
		}
	} else if id, err = strconv.ParseInt(e.ID, 10, 64); err != nil {
		return fmt.Errorf("entity id %q is not numeric", e.ID)
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO entities (type, id, uuid, bundle, langcode, created, data) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (type, id) DO UPDATE SET uuid = excluded.uuid, bundle = excluded.bundle,
	langcode = excluded.langcode, created = excluded.created, data = excluded.data`,
		e.Type, id, e.UUID, e.Bundle, e.Language, e.Created.Unix(), string(data))
	if err != nil {
		return fmt.Errorf("save entity: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	e.ID = strconv.FormatInt(id, 10)
	return nil
}

func (s *SQLiteStorage) Delete(ctx context.Context, entityType, id string) error {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM entities WHERE type = ? AND id = ?`, entityType, n)
	if err != nil {
		return fmt.Errorf("delete entity: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanEntity(row scanner) (*Entity, error) {
	var (
		e       Entity
		id      int64
		created int64
		data    string
	)
	if err := row.Scan(&e.Type, &id, &e.UUID, &e.Bundle, &e.Language, &created, &data); err != nil {
		return nil, err
	}
	var decoded sqliteData
	if err := json.Unmarshal([]byte(data), &decoded); err != nil {
		return nil, fmt.Errorf("decode entity %s:%d: %w", e.Type, id, err)
	}
	e.ID = strconv.FormatInt(id, 10)
	e.Created = time.Unix(created, 0).UTC()
	e.Values = decoded.Values
	if e.Values == nil {
		e.Values = make(map[string]any)
	}
	e.Translations = decoded.Translations
	return &e, nil
}

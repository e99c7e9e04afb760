package objcache

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/lib/pq"

	"github.com/fbuehrmann/netxms/pkg/objects"
)

const (
	queryCreateTable = `CREATE TABLE IF NOT EXISTS nxctl_objects (id BIGINT PRIMARY KEY, data JSONB NOT NULL)`
	querySelectAll   = `SELECT id, data FROM nxctl_objects ORDER BY id`
	queryDeleteAll   = `DELETE FROM nxctl_objects`
	queryInsert      = `INSERT INTO nxctl_objects (id, data) VALUES ($1, $2)`
)

// PostgresCache keeps the object snapshot in a PostgreSQL table.
type PostgresCache struct {
	db *sql.DB
}

// NewPostgres opens a connection pool for dsn and creates the table when
// missing.
func NewPostgres(ctx context.Context, dsn string) (*PostgresCache, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("objcache: postgres open: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("objcache: postgres ping: %w", err)
	}
	c, err := NewPostgresDB(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// NewPostgresDB uses an already open pool.
func NewPostgresDB(ctx context.Context, db *sql.DB) (*PostgresCache, error) {
	if _, err := db.ExecContext(ctx, queryCreateTable); err != nil {
		return nil, fmt.Errorf("objcache: postgres create table: %w", err)
	}
	return &PostgresCache{db: db}, nil
}

func (c *PostgresCache) Load(ctx context.Context) ([]*objects.Object, error) {
	rows, err := c.db.QueryContext(ctx, querySelectAll)
	if err != nil {
		return nil, fmt.Errorf("objcache: postgres select: %w", err)
	}
	defer rows.Close()

	var out []*objects.Object
	for rows.Next() {
		var (
			id   int64
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("objcache: postgres scan: %w", err)
		}
		o, err := decodeObject(strconv.FormatInt(id, 10), data)
		if err != nil {
			return nil, fmt.Errorf("objcache: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("objcache: postgres rows: %w", err)
	}
	return out, nil
}

// Save replaces the table contents with objs in one transaction.
func (c *PostgresCache) Save(ctx context.Context, objs []*objects.Object) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("objcache: postgres begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, queryDeleteAll); err != nil {
		return fmt.Errorf("objcache: postgres delete: %w", err)
	}
	for _, o := range objs {
		var data []byte
		if data, err = encodeObject(o); err != nil {
			return fmt.Errorf("objcache: %w", err)
		}
		if _, err = tx.ExecContext(ctx, queryInsert, int64(o.ID), string(data)); err != nil {
			return fmt.Errorf("objcache: postgres insert %d: %w", o.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("objcache: postgres commit: %w", err)
	}
	return nil
}

func (c *PostgresCache) Close() error {
	return c.db.Close()
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"keygate/internal/config"
	"keygate/internal/license"
)

// SQLStore implements Store on top of sqlx. It serves both the sqlite and
// postgres drivers.
type SQLStore struct {
	db *sqlx.DB
	q  queries
}

// keyRow mirrors the keys table
type keyRow struct {
	ID        int64          `db:"id"`
	Key       string         `db:"key"`
	Hwid      sql.NullString `db:"hwid"`
	Months    int            `db:"months"`
	CreatedAt string         `db:"created_at"`
	ExpiresAt string         `db:"expires_at"`
}

// OpenSQLite opens (creating if needed) the database file at cfg.Path and
// bootstraps the schema.
func OpenSQLite(ctx context.Context, cfg config.StoreConfig) (*SQLStore, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.Path)
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}
	configurePool(db, cfg)

	return newSQLStore(ctx, db, sqliteSchema)
}

// OpenPostgres connects to cfg.DSN and bootstraps the schema.
func OpenPostgres(ctx context.Context, cfg config.StoreConfig) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	configurePool(db, cfg)

	return newSQLStore(ctx, db, postgresSchema)
}

func configurePool(db *sqlx.DB, cfg config.StoreConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

func newSQLStore(ctx context.Context, db *sqlx.DB, schema []string) (*SQLStore, error) {
	s := &SQLStore{
		db: db,
		q: queries{
			insert:        db.Rebind(baseQueries.insert),
			list:          db.Rebind(baseQueries.list),
			getByKey:      db.Rebind(baseQueries.getByKey),
			updateHwid:    db.Rebind(baseQueries.updateHwid),
			deleteByID:    db.Rebind(baseQueries.deleteByID),
			deleteExpired: db.Rebind(baseQueries.deleteExpired),
		},
	}
	if err := s.RunMigrations(ctx, schema); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// RunMigrations applies the schema statements in order
func (s *SQLStore) RunMigrations(ctx context.Context, schema []string) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Create inserts rec and stores the assigned id back into it.
func (s *SQLStore) Create(ctx context.Context, rec *license.KeyRecord) (int64, error) {
	var id int64
	err := s.db.QueryRowxContext(ctx, s.q.insert,
		rec.Key,
		toNullString(rec.Hwid),
		rec.Months,
		license.FormatTimestamp(rec.CreatedAt),
		license.FormatTimestamp(rec.ExpiresAt),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert key: %w", err)
	}
	rec.ID = id
	return id, nil
}

func (s *SQLStore) ListAll(ctx context.Context) ([]license.KeyRecord, error) {
	var rows []keyRow
	if err := s.db.SelectContext(ctx, &rows, s.q.list); err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}

	records := make([]license.KeyRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

func (s *SQLStore) GetByKey(ctx context.Context, key string) (*license.KeyRecord, error) {
	var row keyRow
	err := s.db.GetContext(ctx, &row, s.q.getByKey, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get key: %w", err)
	}
	return row.toRecord()
}

func (s *SQLStore) UpdateHwid(ctx context.Context, id int64, hwid *string) error {
	if _, err := s.db.ExecContext(ctx, s.q.updateHwid, toNullString(hwid), id); err != nil {
		return fmt.Errorf("update hwid: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteByID(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, s.q.deleteByID, id); err != nil {
		return fmt.Errorf("delete key: %w", err)
	}
	return nil
}

// DeleteExpired removes all records with expires_at <= cutoff in one
// statement and reports how many were removed.
func (s *SQLStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.q.deleteExpired, license.FormatTimestamp(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete expired keys: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired keys: %w", err)
	}
	return n, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (r keyRow) toRecord() (*license.KeyRecord, error) {
	createdAt, err := license.ParseTimestamp(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("key %d created_at: %w", r.ID, err)
	}
	expiresAt, err := license.ParseTimestamp(r.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("key %d expires_at: %w", r.ID, err)
	}

	rec := &license.KeyRecord{
		ID:        r.ID,
		Key:       r.Key,
		Months:    r.Months,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}
	if r.Hwid.Valid {
		hwid := r.Hwid.String
		rec.Hwid = &hwid
	}
	return rec, nil
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

package places

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/domain/ringer"
	"github.com/oshokin/wherering/internal/logger"
	"github.com/oshokin/wherering/internal/proximity"
	"github.com/oshokin/wherering/internal/repository/places/migrations"
)

var (
	// ErrNotFound is returned when a place id is unknown.
	ErrNotFound = errors.New("place not found")
	// errStoreClosed is returned when the store is used after Close.
	errStoreClosed = errors.New("place store is not open")
)

// dsnPragmas are applied to every connection.
const dsnPragmas = "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)" +
	"&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

// SQLiteStore is the place catalog kept in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	// metric validates places before they are written.
	metric place.Metric
	// now stamps created_at and updated_at.
	now func() time.Time
}

// StoreOption configures a SQLiteStore.
type StoreOption func(*SQLiteStore)

// WithMetric validates stored places against metric instead of geodesic
// coordinates.
func WithMetric(metric place.Metric) StoreOption {
	return func(s *SQLiteStore) {
		if metric != nil {
			s.metric = metric
		}
	}
}

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *SQLiteStore) {
		if now != nil {
			s.now = now
		}
	}
}

var _ proximity.Catalog = (*SQLiteStore)(nil)

// NewID returns a fresh place identifier.
func NewID() string {
	return uuid.NewString()
}

// Open opens the database at path and applies the embedded migrations.
func Open(ctx context.Context, path string, opts ...StoreOption) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("places database path is required")
	}

	db, err := sql.Open("sqlite", filepath.Clean(path)+dsnPragmas)
	if err != nil {
		return nil, eris.Wrap(err, "open places database")
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "ping places database")
	}

	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "migrate places database")
	}

	logger.DebugKV(ctx, "Places database opened", "path", path)

	store := &SQLiteStore{
		db:     db,
		metric: place.Geodesic{},
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// Load returns the catalog in insertion order. Rows that cannot be decoded
// are skipped with a warning.
func (s *SQLiteStore) Load(ctx context.Context) ([]place.Place, error) {
	return s.List(ctx)
}

// List returns every stored place in insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]place.Place, error) {
	if s == nil || s.db == nil {
		return nil, errStoreClosed
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, geometry, radius, mode FROM places ORDER BY position, id`)
	if err != nil {
		return nil, eris.Wrap(err, "query places")
	}
	defer rows.Close()

	var result []place.Place

	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			logger.WarnKV(ctx, "Skipping unreadable place row", "error", err)
			continue
		}

		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate places")
	}

	return result, nil
}

// Get returns one place.
func (s *SQLiteStore) Get(ctx context.Context, id string) (place.Place, error) {
	if s == nil || s.db == nil {
		return place.Place{}, errStoreClosed
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, geometry, radius, mode FROM places WHERE id = ?`, id)

	p, err := scanPlace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return place.Place{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	return p, err
}

// Upsert inserts a place or replaces the definition of an existing one.
// A replaced place keeps its catalog position.
func (s *SQLiteStore) Upsert(ctx context.Context, p place.Place) error {
	return s.UpsertAll(ctx, []place.Place{p})
}

// UpsertAll upserts several places in one transaction. Every place is
// validated first.
func (s *SQLiteStore) UpsertAll(ctx context.Context, places []place.Place) error {
	if s == nil || s.db == nil {
		return errStoreClosed
	}

	for i := range places {
		if err := places[i].Validate(s.metric); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "begin upsert")
	}

	for i := range places {
		if err := s.upsert(ctx, tx, &places[i]); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "commit upsert")
	}

	logger.InfoKV(ctx, "Places stored", "count", len(places))

	return nil
}

func (s *SQLiteStore) upsert(ctx context.Context, tx *sql.Tx, p *place.Place) error {
	data, radius, err := encodeGeometry(p.Geometry)
	if err != nil {
		return err
	}

	var radiusArg any
	if p.Geometry.Kind == place.KindCircle {
		radiusArg = radius
	}

	now := s.now().UTC().UnixMilli()

	_, err = tx.ExecContext(ctx, `
INSERT INTO places (id, name, kind, geometry, radius, mode, position, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM places), ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    kind = excluded.kind,
    geometry = excluded.geometry,
    radius = excluded.radius,
    mode = excluded.mode,
    updated_at = excluded.updated_at`,
		p.ID, p.Name, p.Geometry.Kind.String(), data, radiusArg, p.Mode.String(), now, now)
	if err != nil {
		if isConstraint(err) {
			return eris.Wrapf(err, "place %s violates catalog constraints", p.ID)
		}

		return eris.Wrapf(err, "upsert place %s", p.ID)
	}

	return nil
}

// Delete removes a place.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return errStoreClosed
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM places WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "delete place %s", id)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "delete place rows affected")
	}

	if affected == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	logger.InfoKV(ctx, "Place deleted", "place_id", id)

	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPlace(row scanner) (place.Place, error) {
	var (
		p      place.Place
		data   []byte
		radius sql.NullFloat64
		mode   string
	)

	if err := row.Scan(&p.ID, &p.Name, &data, &radius, &mode); err != nil {
		return place.Place{}, err
	}

	geometry, err := decodeGeometry(data, radius.Float64)
	if err != nil {
		return place.Place{}, fmt.Errorf("place %s: %w", p.ID, err)
	}

	p.Geometry = geometry

	p.Mode, err = ringer.ParseMode(mode)
	if err != nil {
		return place.Place{}, fmt.Errorf("place %s: %w", p.ID, err)
	}

	return p, nil
}

func isConstraint(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_CHECK, sqlite3lib.SQLITE_CONSTRAINT_NOTNULL:
		return true
	default:
		return false
	}
}

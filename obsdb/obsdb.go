// Package obsdb stores measured observables in a SQLite database, so that
// separate runs of a parameter scan can be collected with plain SQL.
package obsdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	tableObservable = "observable"

	// KindOnesite is the kind of one site observables.
	KindOnesite = "onesite"
	// KindTwosite is the kind of two site observables.
	KindTwosite = "twosite"
	// KindCorrelation is the kind of long range correlations.
	KindCorrelation = "correlation"
)

// DB is a database of observables keyed by kind, operator group, source site
// and displacement.
type DB struct {
	Path string

	db *sql.DB
}

// Open opens the database at dbPath, creating the observable table if it
// does not exist yet.
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := prepareDB(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "")
	}
	return &DB{Path: dbPath, db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Set upserts one observable value.
func (d *DB) Set(ctx context.Context, kind string, group, site, dx, dy int, re, im float64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`INSERT OR REPLACE INTO %s (kind, grp, site, dx, dy, re, im) VALUES (?, ?, ?, ?, ?, ?, ?)`, tableObservable)
	args := []any{kind, group, site, dx, dy, re, im}
	if _, err := d.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return errors.Wrap(err, fmt.Sprintf("%s %#v", sqlStr, args))
	}
	return nil
}

// Get reads one observable value.
// Missing entries read as zero.
func (d *DB) Get(ctx context.Context, kind string, group, site, dx, dy int) (float64, float64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`SELECT re, im FROM %s WHERE kind=? AND grp=? AND site=? AND dx=? AND dy=?`, tableObservable)
	var re, im float64
	err := d.db.QueryRowContext(ctx, sqlStr, kind, group, site, dx, dy).Scan(&re, &im)
	switch {
	case err == sql.ErrNoRows:
		return 0, 0, nil
	case err != nil:
		return 0, 0, errors.Wrap(err, "")
	default:
		return re, im, nil
	}
}

func prepareDB(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (kind TEXT, grp INTEGER, site INTEGER, dx INTEGER, dy INTEGER, re REAL, im REAL, PRIMARY KEY (kind, grp, site, dx, dy)) STRICT`, tableObservable)
	if _, err := db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

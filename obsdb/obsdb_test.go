package obsdb

import (
	"context"
	"path/filepath"
	"testing"
)

func TestDB(t *testing.T) {
	t.Parallel()
	fpath := filepath.Join(t.TempDir(), "obs.sqlite3")
	db, err := Open(fpath)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if err := db.Set(ctx, KindOnesite, 0, 3, 0, 0, 0.25, -0.5); err != nil {
		t.Fatalf("%+v", err)
	}
	re, im, err := db.Get(ctx, KindOnesite, 0, 3, 0, 0)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if re != 0.25 || im != -0.5 {
		t.Fatalf("%f %f", re, im)
	}

	// Writing the same key again replaces the value.
	if err := db.Set(ctx, KindOnesite, 0, 3, 0, 0, 1, 0); err != nil {
		t.Fatalf("%+v", err)
	}
	re, im, err = db.Get(ctx, KindOnesite, 0, 3, 0, 0)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if re != 1 || im != 0 {
		t.Fatalf("%f %f", re, im)
	}

	// Kinds and displacements are part of the key.
	if err := db.Set(ctx, KindTwosite, 0, 3, 1, 0, -2, 0); err != nil {
		t.Fatalf("%+v", err)
	}
	re, _, err = db.Get(ctx, KindOnesite, 0, 3, 0, 0)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if re != 1 {
		t.Fatalf("%f", re)
	}

	// Missing entries read as zero.
	re, im, err = db.Get(ctx, KindCorrelation, 9, 9, 9, 9)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if re != 0 || im != 0 {
		t.Fatalf("%f %f", re, im)
	}

	// Reopening sees the persisted rows.
	if err := db.Close(); err != nil {
		t.Fatalf("%+v", err)
	}
	db2, err := Open(fpath)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer db2.Close()
	re, _, err = db2.Get(ctx, KindTwosite, 0, 3, 1, 0)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if re != -2 {
		t.Fatalf("%f", re)
	}
}

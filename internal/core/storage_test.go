package core

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"menagerie/internal/infra/persistence/blob"
	"menagerie/internal/infra/persistence/file"
	"menagerie/internal/infra/persistence/postgres"
	"menagerie/internal/infra/persistence/postgres/testutil"
)

func closePersister(t *testing.T, p Persister) {
	t.Helper()
	if c, ok := p.(interface{ Close() error }); ok {
		t.Cleanup(func() { _ = c.Close() })
	}
}

func TestOpenPersister_DefaultFile(t *testing.T) {
	p, err := OpenPersister(context.Background(), StorageOptions{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	fs, ok := p.(*file.Store)
	if !ok {
		t.Fatalf("expected *file.Store, got %T", p)
	}
	if fs.Path() != file.DefaultPath {
		t.Fatalf("expected default path, got %s", fs.Path())
	}
}

func TestOpenPersister_LocalDrivers(t *testing.T) {
	dir := t.TempDir()
	opts := StorageOptions{
		DataFile:   filepath.Join(dir, "animals.json"),
		SQLitePath: filepath.Join(dir, "menagerie.db"),
		BadgerDir:  filepath.Join(dir, "badger"),
	}
	for _, driver := range []StorageDriver{StorageFile, StorageMemory, StorageSQLite, StorageBadger} {
		t.Run(string(driver), func(t *testing.T) {
			opts.Driver = driver
			p, err := OpenPersister(context.Background(), opts)
			if err != nil {
				t.Fatalf("open %s: %v", driver, err)
			}
			closePersister(t, p)
			if p.Driver() != string(driver) {
				t.Fatalf("expected driver %s, got %s", driver, p.Driver())
			}
			if _, err := p.Load(context.Background()); !errors.Is(err, ErrDocumentNotFound) {
				t.Fatalf("expected empty backend, got %v", err)
			}
		})
	}
}

func TestOpenPersister_Postgres(t *testing.T) {
	db, _ := testutil.NewStubDB()
	restore := postgres.OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()

	p, err := OpenPersister(context.Background(), StorageOptions{Driver: StoragePostgres})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	closePersister(t, p)
	if p.Driver() != "postgres" {
		t.Fatalf("unexpected driver %s", p.Driver())
	}
}

func TestOpenPersister_PostgresOpenError(t *testing.T) {
	restore := postgres.OverrideSQLOpen(func(string, string) (*sql.DB, error) { return nil, errors.New("dial refused") })
	defer restore()
	p, err := OpenPersister(context.Background(), StorageOptions{Driver: StoragePostgres})
	if err == nil {
		t.Fatalf("expected error")
	}
	if p != nil {
		t.Fatalf("expected nil persister on error, got %T", p)
	}
}

func TestOpenPersister_S3(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "SECRET")
	p, err := OpenPersister(context.Background(), StorageOptions{
		Driver:    StorageS3,
		ObjectKey: "zoo/animals.json",
		S3:        S3Options{Bucket: "bkt", Endpoint: "https://mock.s3.local", PathStyle: true},
	})
	if err != nil {
		t.Fatalf("open s3: %v", err)
	}
	bs, ok := p.(*blob.Store)
	if !ok || bs.Driver() != "s3" || bs.Key() != "zoo/animals.json" {
		t.Fatalf("unexpected persister %#v", p)
	}
}

func TestOpenPersister_BlobDriversRequireBucket(t *testing.T) {
	for _, driver := range []StorageDriver{StorageS3, StorageGCS} {
		if _, err := OpenPersister(context.Background(), StorageOptions{Driver: driver, GCS: GCSOptions{Anonymous: true}}); err == nil {
			t.Fatalf("%s: expected missing bucket error", driver)
		}
	}
}

func TestOpenPersister_GCS(t *testing.T) {
	p, err := OpenPersister(context.Background(), StorageOptions{
		Driver: StorageGCS,
		GCS:    GCSOptions{Bucket: "bkt", Endpoint: "http://127.0.0.1:1/storage/v1/", Anonymous: true},
	})
	if err != nil {
		t.Fatalf("open gcs: %v", err)
	}
	closePersister(t, p)
	if p.Driver() != "gcs" {
		t.Fatalf("unexpected driver %s", p.Driver())
	}
}

func TestOpenPersister_Unknown(t *testing.T) {
	if _, err := OpenPersister(context.Background(), StorageOptions{Driver: "bogus"}); !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
}

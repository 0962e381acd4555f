package core

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	gcsblob "menagerie/internal/infra/blob/gcs"
	s3blob "menagerie/internal/infra/blob/s3"
	"menagerie/internal/infra/persistence/badger"
	"menagerie/internal/infra/persistence/blob"
	"menagerie/internal/infra/persistence/file"
	"menagerie/internal/infra/persistence/memory"
	"menagerie/internal/infra/persistence/postgres"
	"menagerie/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistence backend.
type StorageDriver string

const (
	StorageFile     StorageDriver = "file"     // JSON document on local disk (default)
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageBadger   StorageDriver = "badger"   // embedded BadgerDB directory
	StorageS3       StorageDriver = "s3"       // S3 / MinIO object
	StorageGCS      StorageDriver = "gcs"      // Cloud Storage object
)

// StorageDrivers lists every accepted driver name.
var StorageDrivers = []StorageDriver{
	StorageFile, StorageMemory, StorageSQLite, StoragePostgres, StorageBadger, StorageS3, StorageGCS,
}

// S3Options configures the s3 driver.
type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
}

// GCSOptions configures the gcs driver.
type GCSOptions struct {
	Bucket          string
	Endpoint        string
	CredentialsFile string
	Anonymous       bool
}

// StorageOptions carries the settings of every driver; only the fields of the
// selected driver are read.
type StorageOptions struct {
	Driver      StorageDriver
	DataFile    string
	SQLitePath  string
	PostgresDSN string
	BadgerDir   string
	ObjectKey   string
	S3          S3Options
	GCS         GCSOptions
}

// OpenPersister constructs the persister named by opts.Driver. An empty driver
// selects the file backend.
func OpenPersister(ctx context.Context, opts StorageOptions) (Persister, error) {
	driver := opts.Driver
	if driver == "" {
		driver = StorageFile
	}
	switch driver {
	case StorageFile:
		path := opts.DataFile
		if path == "" {
			path = file.DefaultPath
		}
		return file.NewStore(path), nil
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		store, err := sqlite.NewStore(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoragePostgres:
		store, err := postgres.NewStore(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StorageBadger:
		store, err := badger.NewStore(badger.Options{Dir: opts.BadgerDir})
		if err != nil {
			return nil, err
		}
		return store, nil
	case StorageS3:
		objects, err := s3blob.New(ctx, s3blob.Config{
			Bucket:    opts.S3.Bucket,
			Region:    opts.S3.Region,
			Endpoint:  opts.S3.Endpoint,
			PathStyle: opts.S3.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return blob.NewStore(objects, opts.ObjectKey), nil
	case StorageGCS:
		objects, err := gcsblob.New(ctx, gcsblob.Config{
			Bucket:          opts.GCS.Bucket,
			Endpoint:        opts.GCS.Endpoint,
			CredentialsFile: opts.GCS.CredentialsFile,
			Anonymous:       opts.GCS.Anonymous,
		})
		if err != nil {
			return nil, err
		}
		return blob.NewStore(objects, opts.ObjectKey), nil
	default:
		return nil, goerr.Wrap(ErrUnknownDriver, "unsupported storage driver", goerr.V("driver", string(driver)))
	}
}

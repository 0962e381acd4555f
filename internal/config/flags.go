package config

import (
	"github.com/urfave/cli/v3"
)

// Flag names shared by every command.
const (
	FlagConfig       = "config"
	FlagHost         = "host"
	FlagPort         = "port"
	FlagStorage      = "storage"
	FlagDataFile     = "data-file"
	FlagSeed         = "seed"
	FlagSQLitePath   = "sqlite-path"
	FlagPostgresDSN  = "postgres-dsn"
	FlagBadgerDir    = "badger-dir"
	FlagObjectKey    = "object-key"
	FlagS3Bucket     = "s3-bucket"
	FlagS3Region     = "s3-region"
	FlagS3Endpoint   = "s3-endpoint"
	FlagS3PathStyle  = "s3-path-style"
	FlagGCSBucket    = "gcs-bucket"
	FlagGCSEndpoint  = "gcs-endpoint"
	FlagGCSCreds     = "gcs-credentials-file"
	FlagGCSAnonymous = "gcs-anonymous"
	FlagTraits       = "traits-policy"
	FlagLogLevel     = "log-level"
	FlagLogFormat    = "log-format"
)

// Flags collects command-line values. Only flags that were set on the command
// line or through their environment variable override the file/defaults.
type Flags struct {
	configPath string
	host       string
	port       int64
	traits     string
	logLevel   string
	logFormat  string
	store      Store
}

// NewFlags returns an empty flag set.
func NewFlags() *Flags { return &Flags{} }

// CLIFlags returns the urfave/cli flag definitions bound to f.
func (f *Flags) CLIFlags() []cli.Flag {
	def := Default()
	return []cli.Flag{
		&cli.StringFlag{
			Name:        FlagConfig,
			Aliases:     []string{"c"},
			Usage:       "YAML configuration file",
			Sources:     cli.EnvVars("MENAGERIE_CONFIG"),
			Destination: &f.configPath,
		},
		&cli.StringFlag{
			Name:        FlagHost,
			Usage:       "Listen host",
			Sources:     cli.EnvVars("MENAGERIE_HOST"),
			Destination: &f.host,
		},
		&cli.IntFlag{
			Name:        FlagPort,
			Aliases:     []string{"p"},
			Usage:       "Listen port",
			Value:       int64(def.Port),
			Sources:     cli.EnvVars("PORT"),
			Destination: &f.port,
		},
		&cli.StringFlag{
			Name:        FlagStorage,
			Usage:       "Storage driver: file, memory, sqlite, postgres, badger, s3 or gcs",
			Value:       def.Storage.Driver,
			Sources:     cli.EnvVars("MENAGERIE_STORAGE_DRIVER"),
			Destination: &f.store.Driver,
		},
		&cli.StringFlag{
			Name:        FlagDataFile,
			Usage:       "Animals document for the file driver",
			Value:       def.Storage.DataFile,
			Sources:     cli.EnvVars("MENAGERIE_DATA_FILE"),
			Destination: &f.store.DataFile,
		},
		&cli.StringFlag{
			Name:        FlagSeed,
			Usage:       "Document written to an empty backend on startup",
			Sources:     cli.EnvVars("MENAGERIE_SEED_FILE"),
			Destination: &f.store.Seed,
		},
		&cli.StringFlag{
			Name:        FlagSQLitePath,
			Usage:       "SQLite database file",
			Value:       def.Storage.SQLitePath,
			Sources:     cli.EnvVars("MENAGERIE_SQLITE_PATH"),
			Destination: &f.store.SQLitePath,
		},
		&cli.StringFlag{
			Name:        FlagPostgresDSN,
			Usage:       "PostgreSQL DSN",
			Value:       def.Storage.PostgresDSN,
			Sources:     cli.EnvVars("MENAGERIE_POSTGRES_DSN"),
			Destination: &f.store.PostgresDSN,
		},
		&cli.StringFlag{
			Name:        FlagBadgerDir,
			Usage:       "BadgerDB directory",
			Value:       def.Storage.BadgerDir,
			Sources:     cli.EnvVars("MENAGERIE_BADGER_DIR"),
			Destination: &f.store.BadgerDir,
		},
		&cli.StringFlag{
			Name:        FlagObjectKey,
			Usage:       "Object key for the s3 and gcs drivers",
			Value:       def.Storage.ObjectKey,
			Sources:     cli.EnvVars("MENAGERIE_OBJECT_KEY"),
			Destination: &f.store.ObjectKey,
		},
		&cli.StringFlag{
			Name:        FlagS3Bucket,
			Usage:       "S3 bucket",
			Sources:     cli.EnvVars("MENAGERIE_S3_BUCKET"),
			Destination: &f.store.S3.Bucket,
		},
		&cli.StringFlag{
			Name:        FlagS3Region,
			Usage:       "S3 region",
			Value:       def.Storage.S3.Region,
			Sources:     cli.EnvVars("MENAGERIE_S3_REGION"),
			Destination: &f.store.S3.Region,
		},
		&cli.StringFlag{
			Name:        FlagS3Endpoint,
			Usage:       "S3-compatible endpoint, e.g. MinIO",
			Sources:     cli.EnvVars("MENAGERIE_S3_ENDPOINT"),
			Destination: &f.store.S3.Endpoint,
		},
		&cli.BoolFlag{
			Name:        FlagS3PathStyle,
			Usage:       "Use path-style S3 addressing",
			Sources:     cli.EnvVars("MENAGERIE_S3_PATH_STYLE"),
			Destination: &f.store.S3.PathStyle,
		},
		&cli.StringFlag{
			Name:        FlagGCSBucket,
			Usage:       "Cloud Storage bucket",
			Sources:     cli.EnvVars("MENAGERIE_GCS_BUCKET"),
			Destination: &f.store.GCS.Bucket,
		},
		&cli.StringFlag{
			Name:        FlagGCSEndpoint,
			Usage:       "Cloud Storage endpoint, e.g. an emulator",
			Sources:     cli.EnvVars("MENAGERIE_GCS_ENDPOINT"),
			Destination: &f.store.GCS.Endpoint,
		},
		&cli.StringFlag{
			Name:        FlagGCSCreds,
			Usage:       "Service account key file for Cloud Storage",
			Sources:     cli.EnvVars("MENAGERIE_GCS_CREDENTIALS_FILE"),
			Destination: &f.store.GCS.CredentialsFile,
		},
		&cli.BoolFlag{
			Name:        FlagGCSAnonymous,
			Usage:       "Skip Cloud Storage authentication",
			Sources:     cli.EnvVars("MENAGERIE_GCS_ANONYMOUS"),
			Destination: &f.store.GCS.Anonymous,
		},
		&cli.StringFlag{
			Name:        FlagTraits,
			Usage:       "personalityTraits validation: lenient or strict",
			Value:       def.TraitsPolicy,
			Sources:     cli.EnvVars("MENAGERIE_TRAITS_POLICY"),
			Destination: &f.traits,
		},
		&cli.StringFlag{
			Name:        FlagLogLevel,
			Usage:       "Log level: debug, info, warn or error",
			Value:       def.Log.Level,
			Sources:     cli.EnvVars("MENAGERIE_LOG_LEVEL"),
			Destination: &f.logLevel,
		},
		&cli.StringFlag{
			Name:        FlagLogFormat,
			Usage:       "Log format: console or json",
			Value:       def.Log.Format,
			Sources:     cli.EnvVars("MENAGERIE_LOG_FORMAT"),
			Destination: &f.logFormat,
		},
	}
}

// Resolve builds the effective configuration for cmd and validates it.
func (f *Flags) Resolve(cmd *cli.Command) (Config, error) {
	cfg := Default()
	if f.configPath != "" {
		loaded, err := LoadFile(f.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	set := func(name string, apply func()) {
		if cmd.IsSet(name) {
			apply()
		}
	}
	set(FlagHost, func() { cfg.Host = f.host })
	set(FlagPort, func() { cfg.Port = int(f.port) })
	set(FlagTraits, func() { cfg.TraitsPolicy = f.traits })
	set(FlagLogLevel, func() { cfg.Log.Level = f.logLevel })
	set(FlagLogFormat, func() { cfg.Log.Format = f.logFormat })
	set(FlagStorage, func() { cfg.Storage.Driver = f.store.Driver })
	set(FlagDataFile, func() { cfg.Storage.DataFile = f.store.DataFile })
	set(FlagSeed, func() { cfg.Storage.Seed = f.store.Seed })
	set(FlagSQLitePath, func() { cfg.Storage.SQLitePath = f.store.SQLitePath })
	set(FlagPostgresDSN, func() { cfg.Storage.PostgresDSN = f.store.PostgresDSN })
	set(FlagBadgerDir, func() { cfg.Storage.BadgerDir = f.store.BadgerDir })
	set(FlagObjectKey, func() { cfg.Storage.ObjectKey = f.store.ObjectKey })
	set(FlagS3Bucket, func() { cfg.Storage.S3.Bucket = f.store.S3.Bucket })
	set(FlagS3Region, func() { cfg.Storage.S3.Region = f.store.S3.Region })
	set(FlagS3Endpoint, func() { cfg.Storage.S3.Endpoint = f.store.S3.Endpoint })
	set(FlagS3PathStyle, func() { cfg.Storage.S3.PathStyle = f.store.S3.PathStyle })
	set(FlagGCSBucket, func() { cfg.Storage.GCS.Bucket = f.store.GCS.Bucket })
	set(FlagGCSEndpoint, func() { cfg.Storage.GCS.Endpoint = f.store.GCS.Endpoint })
	set(FlagGCSCreds, func() { cfg.Storage.GCS.CredentialsFile = f.store.GCS.CredentialsFile })
	set(FlagGCSAnonymous, func() { cfg.Storage.GCS.Anonymous = f.store.GCS.Anonymous })

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Package config resolves service settings from built-in defaults, an
// optional YAML file and command-line flags or environment variables, in
// that order of precedence.
package config

import (
	"bytes"
	"errors"
	"io"
	"net"
	"os"
	"slices"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"menagerie/internal/core"
	"menagerie/internal/infra/blob/s3"
	"menagerie/internal/infra/persistence/badger"
	"menagerie/internal/infra/persistence/blob"
	"menagerie/internal/infra/persistence/file"
	"menagerie/internal/infra/persistence/postgres"
	"menagerie/internal/infra/persistence/sqlite"
	"menagerie/internal/logging"
)

// DefaultPort is the listen port when none is configured.
const DefaultPort = 3001

// Config is the resolved service configuration.
type Config struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	TraitsPolicy string `yaml:"traits_policy"`
	Storage      Store  `yaml:"storage"`
	Log          Log    `yaml:"log"`
}

// Store selects and configures the persistence backend.
type Store struct {
	Driver      string `yaml:"driver"`
	DataFile    string `yaml:"data_file"`
	Seed        string `yaml:"seed"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	BadgerDir   string `yaml:"badger_dir"`
	ObjectKey   string `yaml:"object_key"`
	S3          S3     `yaml:"s3"`
	GCS         GCS    `yaml:"gcs"`
}

// S3 configures the s3 driver.
type S3 struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// GCS configures the gcs driver.
type GCS struct {
	Bucket          string `yaml:"bucket"`
	Endpoint        string `yaml:"endpoint"`
	CredentialsFile string `yaml:"credentials_file"`
	Anonymous       bool   `yaml:"anonymous"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:         DefaultPort,
		TraitsPolicy: string(core.TraitsLenient),
		Storage: Store{
			Driver:      string(core.StorageFile),
			DataFile:    file.DefaultPath,
			SQLitePath:  sqlite.DefaultPath,
			PostgresDSN: postgres.DefaultDSN,
			BadgerDir:   badger.DefaultDir,
			ObjectKey:   blob.DefaultKey,
			S3:          S3{Region: s3.DefaultRegion},
		},
		Log: Log{Level: "info", Format: logging.FormatConsole},
	}
}

// LoadFile overlays the YAML document at path onto the defaults. Unknown keys
// are rejected.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, goerr.Wrap(err, "failed to parse config file", goerr.V("path", path))
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return goerr.New("port out of range", goerr.V("port", c.Port))
	}
	if !slices.Contains(core.StorageDrivers, core.StorageDriver(c.Storage.Driver)) {
		return goerr.Wrap(core.ErrUnknownDriver, "invalid storage driver",
			goerr.V("driver", c.Storage.Driver), goerr.V("allowed", core.StorageDrivers))
	}
	if _, err := core.ParseTraitsPolicy(c.TraitsPolicy); err != nil {
		return goerr.Wrap(err, "invalid traits policy")
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return goerr.New("invalid log level", goerr.V("level", c.Log.Level))
	}
	if c.Log.Format != logging.FormatConsole && c.Log.Format != logging.FormatJSON {
		return goerr.New("invalid log format", goerr.V("format", c.Log.Format))
	}
	return nil
}

// Addr is the listen address for net/http.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Policy returns the parsed traits policy, falling back to lenient.
func (c Config) Policy() core.TraitsPolicy {
	p, err := core.ParseTraitsPolicy(c.TraitsPolicy)
	if err != nil {
		return core.TraitsLenient
	}
	return p
}

// StorageOptions converts the storage section for core.OpenPersister.
func (c Config) StorageOptions() core.StorageOptions {
	s := c.Storage
	return core.StorageOptions{
		Driver:      core.StorageDriver(s.Driver),
		DataFile:    s.DataFile,
		SQLitePath:  s.SQLitePath,
		PostgresDSN: s.PostgresDSN,
		BadgerDir:   s.BadgerDir,
		ObjectKey:   s.ObjectKey,
		S3: core.S3Options{
			Bucket:    s.S3.Bucket,
			Region:    s.S3.Region,
			Endpoint:  s.S3.Endpoint,
			PathStyle: s.S3.PathStyle,
		},
		GCS: core.GCSOptions{
			Bucket:          s.GCS.Bucket,
			Endpoint:        s.GCS.Endpoint,
			CredentialsFile: s.GCS.CredentialsFile,
			Anonymous:       s.GCS.Anonymous,
		},
	}
}

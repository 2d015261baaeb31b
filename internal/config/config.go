// Package config resolves loader settings from defaults, an optional YAML
// file, a .env file and PRODUCTLOADER_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "PRODUCTLOADER_"
	configFileEnv = envPrefix + "CONFIG"

	DefaultCSVFile         = "cleaned_GDX.csv"
	DefaultCredentialsFile = "serviceAccountKey.json"
	DefaultCollection      = "products"
	DefaultBackend         = "firestore"
	DefaultDBURI           = "mongodb://localhost:27017"
	DefaultDBName          = "ecommerce"
	DefaultBackupDir       = "./backups"
	DefaultLogLevel        = "info"
)

var (
	ErrEmptyCSVFile     = errors.New("csv file must not be empty")
	ErrEmptyCollection  = errors.New("collection must not be empty")
	ErrEmptyCredentials = errors.New("credentials file must not be empty for the firestore backend")
	ErrEmptyDBURI       = errors.New("db uri and database name must not be empty for the mongo backend")
	ErrUnknownBackend   = errors.New("backend must be one of firestore, mongo, memory")
)

type Config struct {
	// CSVFile is the input table.
	CSVFile string `koanf:"csv_file"`

	// CredentialsFile is the service-account key used by the firestore backend.
	CredentialsFile string `koanf:"credentials_file"`

	// ProjectID overrides the project named in the credentials file.
	ProjectID string `koanf:"project_id"`

	Collection string `koanf:"collection"`

	// Backend selects the store: firestore, mongo or memory.
	Backend string `koanf:"backend"`

	DBURI  string `koanf:"db_uri"`
	DBName string `koanf:"db_name"`

	// MetricsFile, when set, receives the run's metrics in textfile format.
	MetricsFile string `koanf:"metrics_file"`

	BackupDir string `koanf:"backup_dir"`

	LogLevel string `koanf:"log_level"`
}

// New returns the built-in defaults.
func New() *Config {
	return &Config{
		CSVFile:         DefaultCSVFile,
		CredentialsFile: DefaultCredentialsFile,
		Collection:      DefaultCollection,
		Backend:         DefaultBackend,
		DBURI:           DefaultDBURI,
		DBName:          DefaultDBName,
		BackupDir:       DefaultBackupDir,
		LogLevel:        DefaultLogLevel,
	}
}

// Load builds a Config by layering, low to high precedence:
//  1. defaults
//  2. YAML file named by PRODUCTLOADER_CONFIG
//  3. .env files (missing ones are skipped)
//  4. PRODUCTLOADER_* environment variables
func Load(envFiles ...string) (*Config, error) {
	base := New()
	k := koanf.New(".")

	if path := os.Getenv(configFileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// PRODUCTLOADER_CSV_FILE -> csv_file
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings the selected backend depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Collection) == "" {
		return ErrEmptyCollection
	}

	switch c.Backend {
	case "firestore":
		if strings.TrimSpace(c.CredentialsFile) == "" {
			return ErrEmptyCredentials
		}
	case "mongo":
		if strings.TrimSpace(c.DBURI) == "" || strings.TrimSpace(c.DBName) == "" {
			return ErrEmptyDBURI
		}
	case "memory":
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownBackend, c.Backend)
	}
	return nil
}

// ValidateUpload additionally requires an input table.
func (c *Config) ValidateUpload() error {
	if strings.TrimSpace(c.CSVFile) == "" {
		return ErrEmptyCSVFile
	}
	return c.Validate()
}

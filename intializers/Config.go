package intializers

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	StoreMemory   = "memory"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"

	BlobMemory = "memory"
	BlobGridFS = "gridfs"
	BlobS3     = "s3"
)

type Config struct {
	Port           string   `yaml:"port"`
	LogLevel       string   `yaml:"log_level"`
	LogFile        string   `yaml:"log_file"`
	SecretKey      string   `yaml:"secret_key"`
	HostName       string   `yaml:"host_name"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	Store       string `yaml:"store"`
	MongoURI    string `yaml:"mongo_uri"`
	DBName      string `yaml:"db_name"`
	DatabaseURL string `yaml:"database_url"`

	Blob     string `yaml:"blob"`
	S3Bucket string `yaml:"s3_bucket"`
	S3Region string `yaml:"s3_region"`
	S3Prefix string `yaml:"s3_prefix"`

	MaxFiles    int   `yaml:"max_files"`
	MaxFileSize int64 `yaml:"max_file_size"`
}

func DefaultConfig() Config {
	return Config{
		Port:           "8080",
		LogLevel:       "info",
		HostName:       "http://localhost:8080/",
		AllowedOrigins: []string{"http://127.0.0.1:5500", "http://localhost:3000"},
		Store:          StoreMemory,
		DBName:         "threadhive",
		Blob:           BlobMemory,
		MaxFiles:       3,
		MaxFileSize:    5 * 1024 * 1024,
	}
}

// LoadConfig starts from the defaults, overlays the YAML file at path (if
// any) and then the environment.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"PORT":         &c.Port,
		"LOG_LEVEL":    &c.LogLevel,
		"LOG_FILE":     &c.LogFile,
		"SECRET_KEY":   &c.SecretKey,
		"HOST_NAME":    &c.HostName,
		"STORE":        &c.Store,
		"MONGO_URI":    &c.MongoURI,
		"DB_NAME":      &c.DBName,
		"DATABASE_URL": &c.DatabaseURL,
		"BLOB":         &c.Blob,
		"S3_BUCKET":    &c.S3Bucket,
		"S3_REGION":    &c.S3Region,
		"S3_PREFIX":    &c.S3Prefix,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("MAX_FILES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_FILES: %w", err)
		}
		c.MaxFiles = n
	}
	if v, ok := lookup("MAX_FILE_SIZE"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_FILE_SIZE: %w", err)
		}
		c.MaxFileSize = n
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY is required"))
	}
	switch c.Store {
	case StoreMemory:
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo store"))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}
	switch c.Blob {
	case BlobMemory:
	case BlobGridFS:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for gridfs"))
		}
	case BlobS3:
		if c.S3Bucket == "" || c.S3Region == "" {
			errs = append(errs, errors.New("S3_BUCKET and S3_REGION are required for s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blob store %q", c.Blob))
	}
	if len(c.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("at least one allowed origin is required"))
	}
	if c.MaxFiles <= 0 || c.MaxFileSize <= 0 {
		errs = append(errs, errors.New("file limits must be positive"))
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Package config loads docfill settings from defaults, DOCFILL_* environment
// variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	StoreFirestore = "firestore"
	StoreSQLite    = "sqlite"
	StoreMemory    = "memory"

	SourceGCS = "gcs"
	SourceDir = "dir"

	DeliveryGCS    = "gcs"
	DeliveryS3     = "s3"
	DeliveryInline = "inline"

	EnvPrefix = "DOCFILL"

	DefaultSignedURLExpiry = 45 * time.Minute
	MaxSignedURLExpiry     = 7 * 24 * time.Hour
	DefaultCallTimeout     = 30 * time.Second
	DefaultPort            = 8080
	DefaultHost            = "127.0.0.1"
	DefaultLogLevel        = "info"
)

// Config holds all settings of the functions and the CLI.
type Config struct {
	ProjectID string

	// Record stores
	Store               string
	SQLitePath          string
	CasesCollection     string
	DocumentsCollection string
	ReportsCollection   string

	// Template resolver
	TemplateSource  string
	TemplatesBucket string
	TemplatesPrefix string
	TemplatesDir    string

	// Delivery
	Delivery        string
	OutputBucket    string
	OutputPrefix    string
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	SignedURLExpiry time.Duration

	CallTimeout       time.Duration
	BatchConcurrency  int
	BatchDelay        time.Duration
	RequireValid      bool
	StrictTransitions bool

	LogLevel string
	Host     string
	Port     int
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Store:               StoreFirestore,
		SQLitePath:          "docfill.db",
		CasesCollection:     "cases",
		DocumentsCollection: "documents",
		ReportsCollection:   "template_reports",
		TemplateSource:      SourceGCS,
		TemplatesPrefix:     "templates/",
		TemplatesDir:        "./templates",
		Delivery:            DeliveryGCS,
		OutputPrefix:        "generated/",
		S3Region:            "eu-central-1",
		SignedURLExpiry:     DefaultSignedURLExpiry,
		CallTimeout:         DefaultCallTimeout,
		BatchConcurrency:    5,
		BatchDelay:          500 * time.Millisecond,
		LogLevel:            DefaultLogLevel,
		Host:                DefaultHost,
		Port:                DefaultPort,
	}
}

// RegisterFlags defines the command-line flags understood by Load.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.String("project-id", d.ProjectID, "Google Cloud project")
	fs.String("store", d.Store, "Record store: firestore, sqlite or memory")
	fs.String("sqlite-path", d.SQLitePath, "SQLite database file (store=sqlite)")
	fs.String("template-source", d.TemplateSource, "Template source: gcs or dir")
	fs.String("templates-bucket", d.TemplatesBucket, "Bucket holding the PDF templates")
	fs.String("templates-dir", d.TemplatesDir, "Directory holding the PDF templates (template-source=dir)")
	fs.String("delivery", d.Delivery, "Delivery: gcs, s3 or inline")
	fs.String("output-bucket", d.OutputBucket, "Bucket receiving generated PDFs (delivery=gcs)")
	fs.String("s3-bucket", d.S3Bucket, "Bucket receiving generated PDFs (delivery=s3)")
	fs.Duration("signed-url-expiry", d.SignedURLExpiry, "Lifetime of signed download URLs")
	fs.Bool("require-valid", d.RequireValid, "Refuse to fill records with missing required fields")
	fs.Bool("strict-transitions", d.StrictTransitions, "Only allow forward status transitions")
	fs.String("log-level", d.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("host", d.Host, "Listen host for serve")
	fs.Int("port", d.Port, "Listen port for serve")
}

// Load resolves the configuration. fs may be nil; when given, flags that
// were set on the command line take precedence over the environment.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	d := DefaultConfig()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("project_id", EnvPrefix+"_PROJECT_ID", "PROJECT_ID", "GOOGLE_CLOUD_PROJECT")
	_ = v.BindEnv("port", EnvPrefix+"_PORT", "PORT")

	v.SetDefault("project_id", d.ProjectID)
	v.SetDefault("store", d.Store)
	v.SetDefault("sqlite_path", d.SQLitePath)
	v.SetDefault("cases_collection", d.CasesCollection)
	v.SetDefault("documents_collection", d.DocumentsCollection)
	v.SetDefault("reports_collection", d.ReportsCollection)
	v.SetDefault("template_source", d.TemplateSource)
	v.SetDefault("templates_bucket", d.TemplatesBucket)
	v.SetDefault("templates_prefix", d.TemplatesPrefix)
	v.SetDefault("templates_dir", d.TemplatesDir)
	v.SetDefault("delivery", d.Delivery)
	v.SetDefault("output_bucket", d.OutputBucket)
	v.SetDefault("output_prefix", d.OutputPrefix)
	v.SetDefault("s3_bucket", d.S3Bucket)
	v.SetDefault("s3_region", d.S3Region)
	v.SetDefault("s3_endpoint", d.S3Endpoint)
	v.SetDefault("signed_url_expiry", d.SignedURLExpiry)
	v.SetDefault("call_timeout", d.CallTimeout)
	v.SetDefault("batch_concurrency", d.BatchConcurrency)
	v.SetDefault("batch_delay", d.BatchDelay)
	v.SetDefault("require_valid", d.RequireValid)
	v.SetDefault("strict_transitions", d.StrictTransitions)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("host", d.Host)
	v.SetDefault("port", d.Port)

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	cfg := &Config{
		ProjectID:           v.GetString("project_id"),
		Store:               strings.ToLower(v.GetString("store")),
		SQLitePath:          v.GetString("sqlite_path"),
		CasesCollection:     v.GetString("cases_collection"),
		DocumentsCollection: v.GetString("documents_collection"),
		ReportsCollection:   v.GetString("reports_collection"),
		TemplateSource:      strings.ToLower(v.GetString("template_source")),
		TemplatesBucket:     v.GetString("templates_bucket"),
		TemplatesPrefix:     v.GetString("templates_prefix"),
		TemplatesDir:        v.GetString("templates_dir"),
		Delivery:            strings.ToLower(v.GetString("delivery")),
		OutputBucket:        v.GetString("output_bucket"),
		OutputPrefix:        v.GetString("output_prefix"),
		S3Bucket:            v.GetString("s3_bucket"),
		S3Region:            v.GetString("s3_region"),
		S3Endpoint:          v.GetString("s3_endpoint"),
		SignedURLExpiry:     v.GetDuration("signed_url_expiry"),
		CallTimeout:         v.GetDuration("call_timeout"),
		BatchConcurrency:    v.GetInt("batch_concurrency"),
		BatchDelay:          v.GetDuration("batch_delay"),
		RequireValid:        v.GetBool("require_valid"),
		StrictTransitions:   v.GetBool("strict_transitions"),
		LogLevel:            strings.ToLower(v.GetString("log_level")),
		Host:                v.GetString("host"),
		Port:                v.GetInt("port"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreFirestore:
		if c.ProjectID == "" {
			return errors.New("project_id is required for the firestore store")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite_path is required for the sqlite store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (must be one of: firestore, sqlite, memory)", c.Store)
	}

	switch c.TemplateSource {
	case SourceGCS:
		if c.TemplatesBucket == "" {
			return errors.New("templates_bucket is required for the gcs template source")
		}
	case SourceDir:
		if c.TemplatesDir == "" {
			return errors.New("templates_dir is required for the dir template source")
		}
	default:
		return fmt.Errorf("unknown template source %q (must be one of: gcs, dir)", c.TemplateSource)
	}

	switch c.Delivery {
	case DeliveryGCS:
		if c.OutputBucket == "" {
			return errors.New("output_bucket is required for gcs delivery")
		}
	case DeliveryS3:
		if c.S3Bucket == "" {
			return errors.New("s3_bucket is required for s3 delivery")
		}
	case DeliveryInline:
	default:
		return fmt.Errorf("unknown delivery %q (must be one of: gcs, s3, inline)", c.Delivery)
	}

	if c.SignedURLExpiry <= 0 || c.SignedURLExpiry > MaxSignedURLExpiry {
		return fmt.Errorf("signed_url_expiry must be between 1ns and %s, got %s", MaxSignedURLExpiry, c.SignedURLExpiry)
	}
	if c.CallTimeout <= 0 {
		return errors.New("call_timeout must be positive")
	}
	if c.BatchConcurrency < 1 {
		return errors.New("batch_concurrency must be at least 1")
	}
	if c.BatchDelay < 0 {
		return errors.New("batch_delay cannot be negative")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Address returns the listen address as host:port.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ParseLevel converts a log level name into a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", level)
	}
}

// NewLogger returns a JSON logger writing to w at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := ParseLevel(c.LogLevel)
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

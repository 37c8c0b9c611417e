// Package config loads the properties file (spec §6's configuration
// table) via viper, binds cobra flags over it, and produces one
// immutable Config value passed explicitly into the Reconciler and its
// children — replacing the teacher's package-level DB/DriverName
// globals with the "Global property bag" redesign from spec §9.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"pgcompare/internal/errkind"
)

// CastMode controls how the cast compiler renders very large magnitudes.
type CastMode string

const (
	CastNotation CastMode = "notation"
	CastStandard CastMode = "standard"
)

// HashMethod selects between the raw and normalized cast compiler modes
// (spec §4.2).
type HashMethod string

const (
	HashRaw        HashMethod = "raw"
	HashNormalized HashMethod = "normalized"
)

// Connection holds one side's connection parameters.
type Connection struct {
	Driver  string
	DSN     string
	SSLMode string
}

// Config is the fully resolved, immutable run configuration. It is built
// once in cmd/root.go's PersistentPreRunE and held in the cmd package's
// cfg variable, which each action reads; the Reconciler and its
// children receive the values they need through their own options.
type Config struct {
	Project int64
	Batch   int
	Table   string // alias filter, empty means all enabled tables
	Report  string // output path, empty disables report rendering

	Repo   Connection
	Source Connection
	Target Connection

	BatchFetchSize           int
	BatchCommitSize          int
	BatchProgressReportSize  int
	LoaderThreads            int
	MessageQueueSize         int
	FloatCast                CastMode
	NumberCast               CastMode
	ColumnHashMethod         HashMethod
	DatabaseSort             bool
	ObserverThrottle         bool
	ObserverThrottleSize     int64
	ObserverVacuum           bool
	LogDestination           string
	LogLevel                 string
}

// Defaults mirrors the teacher's viper.SetDefault calls in cmd/root.go.
func Defaults() Config {
	return Config{
		BatchFetchSize:          2000,
		BatchCommitSize:         2000,
		BatchProgressReportSize: 50000,
		LoaderThreads:           2,
		MessageQueueSize:        100,
		FloatCast:               CastStandard,
		NumberCast:              CastStandard,
		ColumnHashMethod:        HashNormalized,
		ObserverThrottle:        true,
		ObserverThrottleSize:    2_000_000,
		LogDestination:          "stdout",
		LogLevel:                "info",
	}
}

// Load reads the properties file (flag > env > file > default, handled
// by viper's own precedence once AutomaticEnv and BindPFlag are wired by
// the caller in cmd/root.go) and overlays it onto Defaults().
func Load(cfgFile string) (Config, error) {
	cfg := Defaults()

	v := viper.GetViper()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if ex, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(ex))
		}
		v.AddConfigPath(".")
		v.SetConfigName("pgcompare")
		v.SetConfigType("yaml")
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return cfg, errkind.New(errkind.Config, "failed to read config file", err)
		}
	}

	cfg.Project = v.GetInt64("project")
	cfg.Batch = v.GetInt("batch")
	cfg.Table = v.GetString("table")
	cfg.Report = v.GetString("report")

	cfg.Repo = Connection{
		Driver:  "postgres",
		DSN:     v.GetString("repo-dsn"),
		SSLMode: orDefault(v.GetString("repo-sslmode"), "prefer"),
	}
	cfg.Source = Connection{
		Driver:  v.GetString("source-driver"),
		DSN:     v.GetString("source-dsn"),
		SSLMode: orDefault(v.GetString("source-sslmode"), "prefer"),
	}
	cfg.Target = Connection{
		Driver:  v.GetString("target-driver"),
		DSN:     v.GetString("target-dsn"),
		SSLMode: orDefault(v.GetString("target-sslmode"), "prefer"),
	}

	if n := v.GetInt("batch-fetch-size"); n > 0 {
		cfg.BatchFetchSize = n
	}
	if n := v.GetInt("batch-commit-size"); n > 0 {
		cfg.BatchCommitSize = n
	}
	if n := v.GetInt("batch-progress-report-size"); n > 0 {
		cfg.BatchProgressReportSize = n
	}
	if v.IsSet("loader-threads") {
		cfg.LoaderThreads = v.GetInt("loader-threads")
	}
	if n := v.GetInt("message-queue-size"); n > 0 {
		cfg.MessageQueueSize = n
	}
	if s := v.GetString("float-cast"); s != "" {
		cfg.FloatCast = CastMode(s)
	}
	if s := v.GetString("number-cast"); s != "" {
		cfg.NumberCast = CastMode(s)
	}
	if s := v.GetString("column-hash-method"); s != "" {
		cfg.ColumnHashMethod = HashMethod(s)
	}
	cfg.DatabaseSort = v.GetBool("database-sort")
	if v.IsSet("observer-throttle") {
		cfg.ObserverThrottle = v.GetBool("observer-throttle")
	}
	if n := v.GetInt64("observer-throttle-size"); n > 0 {
		cfg.ObserverThrottleSize = n
	}
	cfg.ObserverVacuum = v.GetBool("observer-vacuum")
	if s := v.GetString("log-destination"); s != "" {
		cfg.LogDestination = s
	}
	if s := v.GetString("log-level"); s != "" {
		cfg.LogLevel = s
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Validate enforces the mandatory-option rule from spec §7: a ConfigError
// aborts before any worker starts.
func (c Config) Validate() error {
	if c.Repo.DSN == "" {
		return errkind.New(errkind.Config, "repo-dsn is required", nil)
	}
	return nil
}

// RequireSourceTarget is called by actions (compare/check/discover) that
// additionally need both side connections populated.
func (c Config) RequireSourceTarget() error {
	if c.Source.DSN == "" || c.Source.Driver == "" {
		return errkind.New(errkind.Config, "source-dsn/source-driver are required", nil)
	}
	if c.Target.DSN == "" || c.Target.Driver == "" {
		return errkind.New(errkind.Config, "target-dsn/target-driver are required", nil)
	}
	return nil
}

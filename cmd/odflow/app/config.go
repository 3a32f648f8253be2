package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/odflow/pkg/constants"
	"github.com/agentstation/odflow/pkg/errors"
	"github.com/agentstation/odflow/pkg/pipeline"
)

// EnvPrefix prefixes every environment variable read by odflow.
const EnvPrefix = "ODFLOW"

// DefaultStore is the store URI used when none is configured.
const DefaultStore = "gs://" + constants.DefaultBucket

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Storage
	Store       string
	Credentials string
	Endpoint    string
	Anonymous   bool

	// Pipeline holds the step parameters and storage layout.
	Pipeline pipeline.Config

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. ODFLOW_* environment variables
// 3. .env files
// 4. Config file (configFile, or .odflow.yaml in the working or home directory)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "cannot read "+configFile, err)
		}
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(".odflow")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", "cannot read .odflow.yaml", err)
			}
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no-color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		Store:       v.GetString("store"),
		Credentials: v.GetString("credentials"),
		Endpoint:    v.GetString("endpoint"),
		Anonymous:   v.GetBool("anonymous"),

		Pipeline: pipeline.DefaultConfig(),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", v.GetString("log.level")),
		LogFormat: getEnvOrDefault("LOG_FORMAT", v.GetString("log.format")),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", v.GetString("log.output")),
	}

	if err := v.Unmarshal(&config.Pipeline); err != nil {
		return nil, errors.NewConfigError("config", "invalid pipeline settings", err)
	}
	return config, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel, store string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if store != "" {
		c.Store = store
	}
}

// setDefaults registers every key so environment variables can override
// keys that no config file sets.
func setDefaults(v *viper.Viper) {
	d := pipeline.DefaultConfig()

	v.SetDefault("store", DefaultStore)
	v.SetDefault("credentials", "")
	v.SetDefault("endpoint", "")
	v.SetDefault("anonymous", false)
	v.SetDefault("format", "")
	v.SetDefault("log.level", "")
	v.SetDefault("log.format", "auto")
	v.SetDefault("log.output", "stderr")

	v.SetDefault("paths.raw", d.Paths.Raw)
	v.SetDefault("paths.clean", d.Paths.Clean)
	v.SetDefault("paths.combined", d.Paths.Combined)
	v.SetDefault("paths.backseries", d.Paths.Backseries)
	v.SetDefault("paths.recode", d.Paths.Recode)
	v.SetDefault("paths.series", d.Paths.Series)
	v.SetDefault("paths.processed", d.Paths.Processed)
	v.SetDefault("paths.population", d.Paths.Population)

	for name, l := range map[string]pipeline.Lookup{
		"region":      d.Lookups.Region,
		"country":     d.Lookups.Country,
		"inner_outer": d.Lookups.InnerOuter,
	} {
		v.SetDefault("lookups."+name+".key", l.Key)
		v.SetDefault("lookups."+name+".key_column", l.KeyColumn)
		v.SetDefault("lookups."+name+".value_column", l.ValueColumn)
	}

	v.SetDefault("dataset_page", d.DatasetPage)
	v.SetDefault("link_match", d.LinkMatch)
	v.SetDefault("population_url", d.PopulationURL)
	v.SetDefault("sheet_index", d.SheetIndex)
	v.SetDefault("cutover_year", d.CutoverYear)
	v.SetDefault("old_vintage", d.OldVintage)
	v.SetDefault("new_vintage", d.NewVintage)
	v.SetDefault("pattern", d.Pattern)
	v.SetDefault("aggregation", d.Aggregation)
	v.SetDefault("rounding", d.Rounding)
	v.SetDefault("child_max_age", d.ChildMaxAge)
	v.SetDefault("force", d.Force)
	v.SetDefault("step_timeout", d.StepTimeout)
}

// loadEnvFiles loads environment variables from .env files.
// .env.local is loaded first so its values win; godotenv never
// overwrites variables that are already set.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

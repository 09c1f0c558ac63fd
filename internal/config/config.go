package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultGeometryURL is the county GeoJSON the map layers draw by default.
const DefaultGeometryURL = "https://raw.githubusercontent.com/plotly/datasets/master/geojson-counties-fips.json"

// Config holds the full application configuration.
type Config struct {
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Tiger   TigerConfig   `yaml:"tiger" mapstructure:"tiger"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SourcesConfig locates the county geometry and the metric tables. Each
// reference is a URL (http, https, ftp) or a local path.
type SourcesConfig struct {
	Geometry string `yaml:"geometry" mapstructure:"geometry"`
	// Metrics selects where metric records come from: "files" or "store".
	Metrics        string `yaml:"metrics" mapstructure:"metrics"`
	Population2010 string `yaml:"population_2010" mapstructure:"population_2010"`
	Population2020 string `yaml:"population_2020" mapstructure:"population_2020"`
	GDP            string `yaml:"gdp" mapstructure:"gdp"`
	GDPSheet       string `yaml:"gdp_sheet" mapstructure:"gdp_sheet"`
}

// StoreConfig configures the metric database.
type StoreConfig struct {
	Driver          string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL     string `yaml:"database_url" mapstructure:"database_url"`
	PopulationTable string `yaml:"population_table" mapstructure:"population_table"`
	GDPTable        string `yaml:"gdp_table" mapstructure:"gdp_table"`
	MaxConns        int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// FetchConfig configures remote downloads.
type FetchConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	CacheDir    string `yaml:"cache_dir" mapstructure:"cache_dir"`
}

// TigerConfig configures the TIGER/Line county boundary download.
type TigerConfig struct {
	Year int    `yaml:"year" mapstructure:"year"`
	URL  string `yaml:"url" mapstructure:"url"`
	Dir  string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	CORSOrigins     []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RefreshMinutes  int      `yaml:"refresh_minutes" mapstructure:"refresh_minutes"`
	ShutdownTimeout int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env files, the config file, and the
// environment.
func Load() (*Config, error) {
	// Existing environment wins over both files; .env.local wins over .env.
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, eris.Wrapf(err, "config: load %s", f)
		}
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COUNTYMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("sources.geometry", DefaultGeometryURL)
	v.SetDefault("sources.metrics", "files")
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.population_table", "county-population")
	v.SetDefault("store.gdp_table", "county-gdp")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("fetch.user_agent", "countymap/1.0")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.cache_dir", "/tmp/countymap")
	v.SetDefault("tiger.year", 2024)
	v.SetDefault("tiger.dir", "/tmp/countymap/tiger")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.refresh_minutes", 0)
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes: "enrich",
// "serve", "store", "tiger".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "enrich":
		problems = append(problems, c.validateSources()...)
	case "serve":
		problems = append(problems, c.validateSources()...)
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RefreshMinutes < 0 {
			problems = append(problems, "server.refresh_minutes must be >= 0")
		}
	case "store":
		problems = append(problems, c.validateStore()...)
	case "tiger":
		if c.Tiger.Year < 2008 && c.Tiger.URL == "" {
			problems = append(problems, "tiger.year must be >= 2008 or tiger.url set")
		}
		if c.Tiger.Dir == "" {
			problems = append(problems, "tiger.dir is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Fetch.MaxRetries < 0 {
		problems = append(problems, "fetch.max_retries must be >= 0")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validateSources() []string {
	var problems []string
	if c.Sources.Geometry == "" {
		problems = append(problems, "sources.geometry is required")
	}
	switch c.Sources.Metrics {
	case "files":
		if c.Sources.Population2010 == "" && c.Sources.Population2020 == "" && c.Sources.GDP == "" {
			problems = append(problems, "at least one of sources.population_2010, sources.population_2020, sources.gdp is required")
		}
	case "store":
		problems = append(problems, c.validateStore()...)
	default:
		problems = append(problems, `sources.metrics must be "files" or "store"`)
	}
	return problems
}

func (c *Config) validateStore() []string {
	var problems []string
	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		problems = append(problems, `store.driver must be "postgres" or "sqlite"`)
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	return problems
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

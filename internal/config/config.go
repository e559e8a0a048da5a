package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage and cache backends
const (
	BackendMemory   = "memory"
	BackendNeo4j    = "neo4j"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// ConfigFileEnv names an optional config file (yaml, json or toml) whose keys
// mirror the environment variable names
const ConfigFileEnv = "LEADSCORE_CONFIG"

// Config contains runtime settings for the server and CLI
type Config struct {
	LogLevel  string
	LogFormat string // json or console
	Host      string // default 0.0.0.0
	Port      string // default 8080
	CVR       struct {
		APIKey   string
		BaseURL  string
		Timeout  time.Duration
		CacheTTL time.Duration
	}
	Cache struct {
		Backend    string // memory or sqlite
		SQLitePath string
	}
	Storage struct {
		Backend string // neo4j, postgres or memory
	}
	Neo4j struct {
		URI      string
		Username string
		Password string
		Database string
	}
	DatabaseURL string
	Sheets      struct {
		CredentialsPath string
	}
	ICP struct {
		CriteriaFile string
		MinEmployees int // 0 keeps the profile's value
		// Non-empty lists replace the profile's targets
		Industries []string
		Cities     []string
		Levels     []string
	}
}

// Load populates config from environment variables, layered over the file
// named by LEADSCORE_CONFIG when set
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", "8080")
	v.SetDefault("CVR_BASE_URL", "https://cvrapi.dk/api")
	v.SetDefault("CVR_TIMEOUT", "10s")
	v.SetDefault("CVR_CACHE_TTL", "24h")
	v.SetDefault("CACHE_BACKEND", BackendMemory)
	v.SetDefault("CACHE_SQLITE_PATH", "data/registry_cache.db")
	v.SetDefault("STORAGE_BACKEND", BackendNeo4j)
}

func fromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	cfg.LogLevel = v.GetString("LOG_LEVEL")
	cfg.LogFormat = strings.ToLower(v.GetString("LOG_FORMAT"))
	cfg.Host = v.GetString("HOST")
	cfg.Port = v.GetString("PORT")

	cfg.CVR.APIKey = v.GetString("CVR_API_KEY")
	cfg.CVR.BaseURL = v.GetString("CVR_BASE_URL")
	cfg.CVR.Timeout = v.GetDuration("CVR_TIMEOUT")
	cfg.CVR.CacheTTL = v.GetDuration("CVR_CACHE_TTL")

	cfg.Cache.Backend = strings.ToLower(v.GetString("CACHE_BACKEND"))
	cfg.Cache.SQLitePath = v.GetString("CACHE_SQLITE_PATH")
	cfg.Storage.Backend = strings.ToLower(v.GetString("STORAGE_BACKEND"))

	cfg.Neo4j.URI = v.GetString("NEO4J_URI")
	cfg.Neo4j.Username = v.GetString("NEO4J_USERNAME")
	cfg.Neo4j.Password = v.GetString("NEO4J_PASSWORD")
	cfg.Neo4j.Database = v.GetString("NEO4J_DATABASE")
	cfg.DatabaseURL = v.GetString("DATABASE_URL")

	cfg.Sheets.CredentialsPath = v.GetString("GOOGLE_SHEETS_CREDENTIALS_PATH")
	cfg.ICP.CriteriaFile = v.GetString("ICP_CRITERIA_FILE")
	cfg.ICP.MinEmployees = v.GetInt("ICP_MIN_EMPLOYEES")
	cfg.ICP.Industries = SplitList(v.GetString("ICP_TARGET_INDUSTRIES"))
	cfg.ICP.Cities = SplitList(v.GetString("ICP_TARGET_CITIES"))
	cfg.ICP.Levels = SplitList(v.GetString("ICP_TARGET_LEVELS"))

	switch cfg.Cache.Backend {
	case BackendMemory, BackendSQLite:
	default:
		return cfg, fmt.Errorf("unsupported CACHE_BACKEND %q", cfg.Cache.Backend)
	}

	var missingVars []string
	switch cfg.Storage.Backend {
	case BackendNeo4j:
		if cfg.Neo4j.URI == "" {
			missingVars = append(missingVars, "NEO4J_URI")
		}
		if cfg.Neo4j.Username == "" {
			missingVars = append(missingVars, "NEO4J_USERNAME")
		}
		if cfg.Neo4j.Password == "" {
			missingVars = append(missingVars, "NEO4J_PASSWORD")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			missingVars = append(missingVars, "DATABASE_URL")
		}
	case BackendMemory:
	default:
		return cfg, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.Storage.Backend)
	}

	if cfg.CVR.Timeout <= 0 {
		return cfg, fmt.Errorf("CVR_TIMEOUT must be positive")
	}
	if cfg.ICP.MinEmployees < 0 {
		return cfg, fmt.Errorf("ICP_MIN_EMPLOYEES must not be negative")
	}

	if len(missingVars) > 0 {
		return cfg, fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", "))
	}

	return cfg, nil
}

// SplitList splits a comma-separated value, dropping blanks
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HOST", "PORT", "LOG_LEVEL", "LOG_FORMAT", "CVR_TIMEOUT", "CVR_CACHE_TTL", "CACHE_BACKEND", ConfigFileEnv} {
		t.Setenv(key, "")
	}
	t.Setenv("STORAGE_BACKEND", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "0.0.0.0" || cfg.Port != "8080" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected server defaults: %+v", cfg)
	}
	if cfg.CVR.Timeout != 10*time.Second || cfg.CVR.CacheTTL != 24*time.Hour {
		t.Fatalf("unexpected cvr defaults: %+v", cfg.CVR)
	}
	if cfg.Cache.Backend != BackendMemory {
		t.Fatalf("cache backend = %q", cfg.Cache.Backend)
	}
}

func TestLoadNeo4jRequiresCredentials(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "neo4j")
	t.Setenv("NEO4J_URI", "bolt://localhost:7687")
	t.Setenv("NEO4J_USERNAME", "")
	t.Setenv("NEO4J_PASSWORD", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected missing variables error")
	}
	if !strings.Contains(err.Error(), "NEO4J_USERNAME") || !strings.Contains(err.Error(), "NEO4J_PASSWORD") {
		t.Fatalf("error = %v", err)
	}
}

func TestLoadPostgresRequiresURL(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("error = %v", err)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("CACHE_BACKEND", "redis")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown cache backend")
	}
}

func TestLoadConfigFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leadscore.yaml")
	body := "STORAGE_BACKEND: memory\nCVR_TIMEOUT: 3s\nICP_MIN_EMPLOYEES: 50\nPORT: \"9000\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("PORT", "9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CVR.Timeout != 3*time.Second || cfg.ICP.MinEmployees != 50 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Port != "9100" {
		t.Fatalf("env should override file, port = %q", cfg.Port)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" SaaS, Retail ,,FMCG ")
	if len(got) != 3 || got[0] != "SaaS" || got[1] != "Retail" || got[2] != "FMCG" {
		t.Fatalf("SplitList = %q", got)
	}
	if SplitList("") != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestLoadICPLists(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("ICP_TARGET_CITIES", "Odense, Aalborg")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.ICP.Cities) != 2 || cfg.ICP.Cities[1] != "Aalborg" {
		t.Fatalf("cities = %q", cfg.ICP.Cities)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseConfigEnvs(t *testing.T) {
	t.Setenv("THREADOFCLUES_ADDR", "127.0.0.1:9090")
	t.Setenv("THREADOFCLUES_DB_PATH", "/tmp/clues-db")
	t.Setenv("THREADOFCLUES_API_BACKEND_KEYS", "bk1, bk2")
	t.Setenv("THREADOFCLUES_API_ALLOW_UNAUTH", "true")
	t.Setenv("THREADOFCLUES_RATE_RPS", "2.5")
	t.Setenv("THREADOFCLUES_SWEEPER_CRON", "*/10 * * * *")

	cfg, res := ParseConfigEnvs()
	if !res.EnvUsed {
		t.Fatalf("env not marked used")
	}
	if cfg.Server.Address != "127.0.0.1" || cfg.Server.Port != 9090 {
		t.Fatalf("addr: %q %d", cfg.Server.Address, cfg.Server.Port)
	}
	if cfg.Storage.DBPath != "/tmp/clues-db" {
		t.Fatalf("db path: %q", cfg.Storage.DBPath)
	}
	if len(cfg.Security.APIKeys.Backend) != 2 || cfg.Security.APIKeys.Backend[0] != "bk1" {
		t.Fatalf("backend keys: %v", cfg.Security.APIKeys.Backend)
	}
	if !cfg.Security.APIKeys.AllowUnauth {
		t.Fatalf("allow_unauth not parsed")
	}
	if cfg.Security.RateLimit.RPS != 2.5 {
		t.Fatalf("rps: %v", cfg.Security.RateLimit.RPS)
	}
	if !cfg.Sweeper.Enabled || cfg.Sweeper.Cron != "*/10 * * * *" {
		t.Fatalf("sweeper: %+v", cfg.Sweeper)
	}
	// backend keys double as signing keys when none are set explicitly
	if _, ok := res.SigningKeys["bk1"]; !ok {
		t.Fatalf("signing keys: %v", res.SigningKeys)
	}
}

func TestDeriveSigningKeysExplicitWins(t *testing.T) {
	cfg := &Config{}
	cfg.Security.APIKeys.Backend = []string{"bk"}
	cfg.Security.SigningKeys = []string{"sk"}

	keys := DeriveSigningKeys(cfg)
	if _, ok := keys["sk"]; !ok {
		t.Fatalf("explicit key missing: %v", keys)
	}
	if _, ok := keys["bk"]; ok {
		t.Fatalf("backend key leaked into signing set: %v", keys)
	}
}

func TestLoadEffectiveConfigPrecedence(t *testing.T) {
	fileCfg := &Config{}
	fileCfg.Server.Address = "10.0.0.1"
	fileCfg.Server.Port = 7070
	fileCfg.Storage.DBPath = "/file/db"

	envCfg := &Config{}
	envCfg.Storage.DBPath = "/env/db"

	// explicit --config wins and requires the file
	res, err := LoadEffectiveConfig(Flags{Config: "c.yaml", Set: map[string]bool{"config": true}},
		fileCfg, true, envCfg, EnvResult{})
	if err != nil {
		t.Fatalf("config source: %v", err)
	}
	if res.Source != "config" || res.Addr != "10.0.0.1:7070" || res.DBPath != "/file/db" {
		t.Fatalf("config source result: %+v", res)
	}
	if _, err := LoadEffectiveConfig(Flags{Config: "c.yaml", Set: map[string]bool{"config": true}},
		nil, false, envCfg, EnvResult{}); err == nil {
		t.Fatalf("missing explicit config file not rejected")
	}

	// a db flag switches to the flags source, keeping the flag value
	res, err = LoadEffectiveConfig(Flags{Addr: ":8080", DB: "/flag/db", Set: map[string]bool{"db": true}},
		fileCfg, true, envCfg, EnvResult{})
	if err != nil {
		t.Fatalf("flags source: %v", err)
	}
	if res.Source != "flags" || res.DBPath != "/flag/db" {
		t.Fatalf("flags source result: %+v", res)
	}

	// no flags: file beats env
	res, err = LoadEffectiveConfig(Flags{Set: map[string]bool{}}, fileCfg, true, envCfg, EnvResult{})
	if err != nil || res.Source != "config" {
		t.Fatalf("file preference: %+v %v", res, err)
	}

	// no flags, no file: env
	res, err = LoadEffectiveConfig(Flags{Set: map[string]bool{}}, &Config{}, false, envCfg, EnvResult{})
	if err != nil || res.Source != "env" || res.DBPath != "/env/db" {
		t.Fatalf("env fallback: %+v %v", res, err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `server:
  address: "0.0.0.0"
  port: 9000
storage:
  db_path: "./data"
  audit_max_file_size: "5MB"
security:
  api_keys:
    backend: ["bk"]
    allow_unauth: true
logging:
  level: "debug"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:9000" {
		t.Fatalf("addr: %q", cfg.Addr())
	}
	if cfg.Storage.AuditMaxFileSize.Int64() != 5*1000*1000 {
		t.Fatalf("audit size: %d", cfg.Storage.AuditMaxFileSize.Int64())
	}
	if !cfg.Security.APIKeys.AllowUnauth || cfg.Logging.Level != "debug" {
		t.Fatalf("parsed config: %+v", cfg)
	}
}

func TestRuntimeConfig(t *testing.T) {
	SetRuntime(&RuntimeConfig{
		BackendKeys: map[string]struct{}{"bk": {}},
		SigningKeys: map[string]struct{}{"sk": {}},
	})
	if _, ok := GetBackendKeys()["bk"]; !ok {
		t.Fatalf("backend keys: %v", GetBackendKeys())
	}
	keys := GetSigningKeys()
	if _, ok := keys["sk"]; !ok {
		t.Fatalf("signing keys: %v", keys)
	}
	// returned maps are copies
	delete(keys, "sk")
	if _, ok := GetSigningKeys()["sk"]; !ok {
		t.Fatalf("runtime map mutated through copy")
	}
}

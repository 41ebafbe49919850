package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr    string
	DB      string
	Catalog string
	Config  string
	Set     map[string]bool
}

// EnvResult holds the results of applying environment overrides.
type EnvResult struct {
	BackendKeys map[string]struct{}
	SigningKeys map[string]struct{}
	EnvUsed     bool
}

// EffectiveConfigResult holds the merged configuration plus the resolved
// listen address and store path, and which source won.
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	DBPath string
	Source string // "flags", "config", or "env"
}

// ParseConfigFlags parses command-line flags and returns them as a Flags struct.
func ParseConfigFlags() Flags {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.database", "Pebble DB path")
	catPtr := flag.String("catalog", "", "Path to mystery catalog YAML (embedded default when empty)")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return Flags{Addr: *addrPtr, DB: *dbPtr, Catalog: *catPtr, Config: *cfgPtr, Set: setFlags}
}

// ParseConfigFile resolves the config path and loads the YAML file. It
// returns the parsed config, a boolean indicating whether the file was
// present, and an error for fatal parsing problems.
func ParseConfigFile(flags Flags) (*Config, bool, error) {
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := Load(cfgPath)
	if err != nil {
		if os.IsNotExist(err) || strings.Contains(err.Error(), "not found") {
			return &Config{}, false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

// ParseConfigEnvs reads environment variables into a fresh Config and
// returns that env-only config plus an EnvResult describing keys present
// and whether envs were used. This function does not mutate any caller
// provided config.
func ParseConfigEnvs() (*Config, EnvResult) {
	envCfg := &Config{}
	envUsed := false
	parseList := func(v string) []string {
		if v == "" {
			return nil
		}
		parts := []string{}
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		return parts
	}

	// Server address/port
	if v := os.Getenv("THREADOFCLUES_ADDR"); v != "" {
		envUsed = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			envCfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				envCfg.Server.Port = pi
			}
		} else {
			envCfg.Server.Address = v
		}
	} else {
		if host := os.Getenv("THREADOFCLUES_SERVER_ADDRESS"); host != "" {
			envUsed = true
			envCfg.Server.Address = host
		}
		if port := os.Getenv("THREADOFCLUES_SERVER_PORT"); port != "" {
			envUsed = true
			if pi, err := strconv.Atoi(port); err == nil {
				envCfg.Server.Port = pi
			}
		}
	}

	if v := os.Getenv("THREADOFCLUES_DB_PATH"); v != "" {
		envUsed = true
		envCfg.Storage.DBPath = v
	}
	if v := os.Getenv("THREADOFCLUES_CATALOG"); v != "" {
		envUsed = true
		envCfg.Storage.CatalogPath = v
	}
	if v := os.Getenv("THREADOFCLUES_AUDIT_DIR"); v != "" {
		envUsed = true
		envCfg.Storage.AuditDir = v
	}

	if v := os.Getenv("THREADOFCLUES_CORS_ORIGINS"); v != "" {
		envUsed = true
		envCfg.Security.CORS.AllowedOrigins = parseList(v)
	}
	if v := os.Getenv("THREADOFCLUES_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envUsed = true
			envCfg.Security.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("THREADOFCLUES_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			envCfg.Security.RateLimit.Burst = n
		}
	}
	if v := os.Getenv("THREADOFCLUES_IP_WHITELIST"); v != "" {
		envUsed = true
		envCfg.Security.IPWhitelist = parseList(v)
	}
	if v := os.Getenv("THREADOFCLUES_API_BACKEND_KEYS"); v != "" {
		envUsed = true
		envCfg.Security.APIKeys.Backend = parseList(v)
	}
	if v := os.Getenv("THREADOFCLUES_API_FRONTEND_KEYS"); v != "" {
		envUsed = true
		envCfg.Security.APIKeys.Frontend = parseList(v)
	}
	if v := os.Getenv("THREADOFCLUES_API_ADMIN_KEYS"); v != "" {
		envUsed = true
		envCfg.Security.APIKeys.Admin = parseList(v)
	}
	if v := os.Getenv("THREADOFCLUES_API_ALLOW_UNAUTH"); v != "" {
		envUsed = true
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes":
			envCfg.Security.APIKeys.AllowUnauth = true
		default:
			envCfg.Security.APIKeys.AllowUnauth = false
		}
	}
	if v := os.Getenv("THREADOFCLUES_SIGNING_KEYS"); v != "" {
		envUsed = true
		envCfg.Security.SigningKeys = parseList(v)
	}

	if v := os.Getenv("THREADOFCLUES_SWEEPER_CRON"); v != "" {
		envUsed = true
		envCfg.Sweeper.Enabled = true
		envCfg.Sweeper.Cron = v
	}

	// TLS cert/key
	if c := os.Getenv("THREADOFCLUES_TLS_CERT"); c != "" {
		envUsed = true
		envCfg.Server.TLS.CertFile = c
	}
	if k := os.Getenv("THREADOFCLUES_TLS_KEY"); k != "" {
		envUsed = true
		envCfg.Server.TLS.KeyFile = k
	}

	return envCfg, EnvResult{
		BackendKeys: DeriveBackendKeys(envCfg),
		SigningKeys: DeriveSigningKeys(envCfg),
		EnvUsed:     envUsed,
	}
}

// DeriveBackendKeys builds the backend key set from a config.
func DeriveBackendKeys(cfg *Config) map[string]struct{} {
	out := make(map[string]struct{})
	for _, k := range cfg.Security.APIKeys.Backend {
		out[k] = struct{}{}
	}
	return out
}

// DeriveFrontendKeys builds the frontend key set from a config.
func DeriveFrontendKeys(cfg *Config) map[string]struct{} {
	out := make(map[string]struct{})
	for _, k := range cfg.Security.APIKeys.Frontend {
		out[k] = struct{}{}
	}
	return out
}

// DeriveAdminKeys builds the admin key set from a config.
func DeriveAdminKeys(cfg *Config) map[string]struct{} {
	out := make(map[string]struct{})
	for _, k := range cfg.Security.APIKeys.Admin {
		out[k] = struct{}{}
	}
	return out
}

// DeriveSigningKeys builds the signing key set from a config. Explicit
// signing keys win; backend API keys double as signing keys otherwise.
func DeriveSigningKeys(cfg *Config) map[string]struct{} {
	out := make(map[string]struct{})
	if len(cfg.Security.SigningKeys) > 0 {
		for _, k := range cfg.Security.SigningKeys {
			out[k] = struct{}{}
		}
		return out
	}
	for _, k := range cfg.Security.APIKeys.Backend {
		out[k] = struct{}{}
	}
	return out
}

// LoadEffectiveConfig decides which single source to use (flags, config
// file, or env) and returns the effective config plus resolved addr and
// dbPath. It honors an explicit flags.Config (user provided --config)
// by using the config file only; otherwise it uses flags if any flags
// are set; else if a config file exists it uses that; otherwise env.
func LoadEffectiveConfig(flags Flags, fileCfg *Config, fileExists bool, envCfg *Config, envRes EnvResult) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult

	// If user explicitly passed --config, require the file to exist and use it.
	if flags.Set["config"] {
		if !fileExists {
			return res, fmt.Errorf("config file %s not found", flags.Config)
		}
		res.Config = fileCfg
		res.Addr = fileCfg.Addr()
		res.DBPath = fileCfg.Storage.DBPath
		res.Source = "config"
		return res, nil
	}

	// If user passed any non-config flags (addr/db/catalog), use flags
	// exclusively, backfilling from env then file.
	if flags.Set["addr"] || flags.Set["db"] || flags.Set["catalog"] {
		addr := flags.Addr
		if !flags.Set["addr"] {
			addr = envCfg.Addr()
			if addr == "" {
				addr = fileCfg.Addr()
			}
		}
		dbPath := flags.DB
		if !flags.Set["db"] {
			if p := strings.TrimSpace(envCfg.Storage.DBPath); p != "" {
				dbPath = p
			} else if p := strings.TrimSpace(fileCfg.Storage.DBPath); p != "" {
				dbPath = p
			}
		}
		out := &Config{}
		out.Server.Address = addr
		out.Server.Port = parsePortFromAddr(addr)
		out.Storage.DBPath = dbPath
		out.Storage.CatalogPath = flags.Catalog
		res.Config = out
		res.Addr = addr
		res.DBPath = dbPath
		res.Source = "flags"
		return res, nil
	}

	// No explicit flags: prefer file config if present, otherwise env.
	if fileExists {
		res.Config = fileCfg
		res.Addr = fileCfg.Addr()
		res.DBPath = fileCfg.Storage.DBPath
		res.Source = "config"
		return res, nil
	}
	res.Config = envCfg
	res.Addr = envCfg.Addr()
	res.DBPath = envCfg.Storage.DBPath
	res.Source = "env"
	return res, nil
}

// parsePortFromAddr extracts the port integer from a host:port string.
func parsePortFromAddr(a string) int {
	if a == "" {
		return 0
	}
	if _, p, err := net.SplitHostPort(a); err == nil {
		if pi, err := strconv.Atoi(p); err == nil {
			return pi
		}
	}
	return 0
}

package banner

import (
	"fmt"

	"github.com/VulcanWM/threadofclues/pkg/config"
)

const banner = `
              THREAD OF
 ██████╗██╗     ██╗   ██╗███████╗███████╗
██╔════╝██║     ██║   ██║██╔════╝██╔════╝
██║     ██║     ██║   ██║█████╗  ███████╗
██║     ██║     ██║   ██║██╔══╝  ╚════██║
╚██████╗███████╗╚██████╔╝███████╗███████║
 ╚═════╝╚══════╝ ╚═════╝ ╚══════╝╚══════╝
`

// PrintWithEff prints the startup banner using an EffectiveConfigResult
// for richer context (addr, db path, config source, security posture).
func PrintWithEff(eff config.EffectiveConfigResult, version string) {
	addr := eff.Addr
	if addr == "" && eff.Config != nil {
		addr = eff.Config.Addr()
	}
	dbPath := eff.DBPath
	if dbPath == "" && eff.Config != nil {
		dbPath = eff.Config.Storage.DBPath
	}
	src := eff.Source
	if src == "" {
		src = "flags"
	}

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if eff.Config != nil && eff.Config.Storage.CatalogPath != "" {
		fmt.Printf("Catalog:  %s\n", eff.Config.Storage.CatalogPath)
	} else {
		fmt.Println("Catalog:  embedded")
	}
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config: %s\n", src)

	fmt.Println("\n== Examples ===================================================")
	fmt.Println("curl 'http://<host>:<port>/v1/init'")
	fmt.Println("curl -X POST 'http://<host>:<port>/v1/mysteries/london/locations/Museum/fragment' -d '{\"objectIds\":[1,2,3],\"answer\":\"GEM\"}'")
	fmt.Println("curl 'http://<host>:<port>/v1/leaderboard?n=10'")

	fmt.Println("\n== Production? =================================================")
	be, fe, ak := 0, 0, 0
	allowUnauth := false
	if eff.Config != nil {
		be = len(eff.Config.Security.APIKeys.Backend)
		fe = len(eff.Config.Security.APIKeys.Frontend)
		ak = len(eff.Config.Security.APIKeys.Admin)
		allowUnauth = eff.Config.Security.APIKeys.AllowUnauth
	}
	if be > 0 {
		fmt.Printf("- Backend API keys: OK (%d)\n", be)
	} else {
		fmt.Println("- Backend API keys: MISSING (required for trusted services)")
	}
	if fe > 0 {
		fmt.Printf("- Frontend API keys: OK (%d)\n", fe)
	} else {
		fmt.Println("- Frontend API keys: MISSING (required for client access)")
	}
	if ak > 0 {
		fmt.Printf("- Admin API keys: OK (%d)\n", ak)
	} else {
		fmt.Println("- Admin API keys: MISSING (required for admin tooling)")
	}
	if allowUnauth {
		fmt.Println("- Anonymous play: ENABLED (keyless requests allowed)")
	} else {
		fmt.Println("- Anonymous play: disabled")
	}

	tlsOK := eff.Config != nil && eff.Config.Server.TLS.CertFile != "" && eff.Config.Server.TLS.KeyFile != ""
	if tlsOK {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured")
	}

	if eff.DBPath != "" {
		fmt.Printf("- DB Path: %s\n", eff.DBPath)
	} else {
		fmt.Println("- DB Path: not set (use --db or THREADOFCLUES_DB_PATH)")
	}

	sweepEnabled := eff.Config != nil && eff.Config.Sweeper.Enabled
	if sweepEnabled {
		cron := eff.Config.Sweeper.Cron
		if cron == "" {
			cron = "*/5 * * * *"
		}
		fmt.Printf("- Sweeper: enabled (cron=%s)\n", cron)
	} else {
		fmt.Println("- Sweeper: disabled (expired cooldown tokens purge lazily)")
	}

	fmt.Println("\n== Logs: =================================================")
}

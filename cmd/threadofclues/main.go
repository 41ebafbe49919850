package main

import (
	"context"
	"fmt"
	"os"

	"github.com/VulcanWM/threadofclues/internal/app"
	"github.com/VulcanWM/threadofclues/pkg/config"
	"github.com/VulcanWM/threadofclues/pkg/logger"
	"github.com/VulcanWM/threadofclues/pkg/shutdown"
)

// set via -ldflags at build time
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	logger.Init()

	flags := config.ParseConfigFlags()
	fileCfg, fileExists, err := config.ParseConfigFile(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	envCfg, envRes := config.ParseConfigEnvs()

	eff, err := config.LoadEffectiveConfig(flags, fileCfg, fileExists, envCfg, envRes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if lvl := eff.Config.Logging.Level; lvl != "" {
		logger.InitWithLevel(lvl)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	a, err := app.New(eff, version, commit, buildDate)
	if err != nil {
		shutdown.Abort("startup failed", err, eff.DBPath)
	}

	logger.Info("starting", "version", version, "commit", commit, "build_date", buildDate)
	if err := a.Run(ctx); err != nil {
		shutdown.Abort("server exited with error", err, eff.DBPath)
	}
}

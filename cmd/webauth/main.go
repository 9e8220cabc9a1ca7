package main

import (
	"flag"
	"fmt"
	"github.com/PizzaHomicide/webauth/internal/config"
	"github.com/PizzaHomicide/webauth/internal/log"
	"github.com/PizzaHomicide/webauth/internal/ui/tui"
	"github.com/PizzaHomicide/webauth/internal/version"
	"os"
)

func main() {
	showVersion := flag.Bool("version", false, "Print the version and exit")
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage: webauth [flags]\n\nFlags:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n%s", config.EnvVarHelp())
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetVersionInfo())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		// It is unrecoverable if we cannot produce an application config
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.New(log.Config{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.FilePath,
		Format:   cfg.Logging.Format,
	})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	log.SetDefaultLogger(logger)

	log.Info("Starting up webauth", "version", version.GetVersion(), "build_time", version.BuildTime)

	if err := tui.Run(cfg); err != nil {
		log.Error("Unhandled error while running TUI", "error", err)
		logger.Close()
		os.Exit(1)
	}

	log.Info("webauth shutting down.  Goodbye!")
}

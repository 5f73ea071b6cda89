package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"jizdninerad.cz/internal/appconf"
	"jizdninerad.cz/internal/logging"
)

func main() {
	var (
		configPath string
		envFile    string
		port       int
		env        string
		verbose    bool
		rateLimit  int
	)

	flag.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flag.StringVar(&envFile, "env-file", ".env", "Path to a .env file with secrets (ignored if missing)")
	flag.IntVar(&port, "port", 0, "API server port")
	flag.StringVar(&env, "env", "", "Environment (development|test|production)")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.IntVar(&rateLimit, "rate-limit", 0, "Requests per second per client (0 disables)")
	flag.Parse()

	if err := appconf.LoadDotEnv(envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := appconf.Load(configPath, os.LookupEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Flags given on the command line win over file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = port
		case "env":
			cfg.Env = appconf.Environment(env)
		case "verbose":
			cfg.Verbose = verbose
		case "rate-limit":
			cfg.RateLimit = rateLimit
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	coreApp, err := BuildApplication(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	srv, api := CreateServer(coreApp, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, srv, api, coreApp.Logger); err != nil {
		logging.LogError(coreApp.Logger, "server failed", err)
		stop()
		os.Exit(1)
	}
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	migrate "github.com/golang-migrate/migrate/v4"

	"github.com/noah-isme/backend-candy/internal/config"
	"github.com/noah-isme/backend-candy/internal/migrations"
	"github.com/noah-isme/backend-candy/internal/obs"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate up | down [n] | version | force <version>\n")
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger := obs.NewLogger("console", "info").With().Str("tool", "migrate").Logger()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	m, err := migrations.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("init migrations")
	}
	defer func() { _, _ = m.Close() }()

	switch flag.Arg(0) {
	case "up":
		err = migrations.Up(m)
	case "down":
		steps := 1
		if flag.NArg() > 1 {
			if steps, err = strconv.Atoi(flag.Arg(1)); err != nil || steps <= 0 {
				logger.Fatal().Str("arg", flag.Arg(1)).Msg("down expects a positive step count")
			}
		}
		err = m.Steps(-steps)
	case "force":
		if flag.NArg() < 2 {
			flag.Usage()
			os.Exit(2)
		}
		v, convErr := strconv.Atoi(flag.Arg(1))
		if convErr != nil {
			logger.Fatal().Err(convErr).Msg("invalid version")
		}
		err = m.Force(v)
	case "version":
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal().Err(err).Str("command", flag.Arg(0)).Msg("migration failed")
	}

	version, dirty, verr := m.Version()
	if errors.Is(verr, migrate.ErrNilVersion) {
		logger.Info().Msg("no migrations applied")
		return
	}
	if verr != nil {
		logger.Fatal().Err(verr).Msg("read version")
	}
	logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("schema version")
}

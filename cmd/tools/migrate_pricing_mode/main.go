package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/noah-isme/backend-candy/internal/app"
	"github.com/noah-isme/backend-candy/internal/catalog"
	"github.com/noah-isme/backend-candy/internal/config"
	"github.com/noah-isme/backend-candy/internal/obs"
	"github.com/noah-isme/backend-candy/internal/pricing"
)

func main() {
	apply := flag.Bool("apply", false, "write changes (default is a dry run)")
	fallback := flag.String("default", "", "mode for candies without any price signal: by_weight|by_piece (default: PRICING_DEFAULT_MODE)")
	list := flag.Bool("list", false, "print candies that received the default mode")
	flag.Parse()

	logger := obs.NewLogger("console", "info").With().Str("tool", "migrate_pricing_mode").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	mode := cfg.PricingDefaultMode
	if *fallback != "" {
		if mode, err = pricing.ParseMode(*fallback); err != nil {
			logger.Fatal().Err(err).Msg("invalid -default")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Open(ctx, cfg, logger, app.Options{Name: "candy-migrate-mode"})
	if err != nil {
		logger.Fatal().Err(err).Msg("open dependencies")
	}
	defer deps.Close()
	svc, err := deps.Catalog()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}

	report, err := svc.Rederive(ctx, catalog.RederiveOptions{Fallback: mode, Apply: *apply})
	if *list {
		for _, item := range report.Defaulted {
			fmt.Printf("%s\t%s\t-> %s\n", item.ID, item.Name, mode)
		}
	}
	defaulted := report.Defaulted
	report.Defaulted = nil
	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))
	logger.Info().Int("defaulted", len(defaulted)).Bool("applied", *apply).Msg("done")
	if err != nil {
		logger.Error().Err(err).Msg("rederive finished with errors")
		os.Exit(1)
	}
	if !*apply {
		logger.Info().Msg("dry run; re-run with -apply to persist")
	}
}

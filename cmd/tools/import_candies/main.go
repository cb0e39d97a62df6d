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
)

func main() {
	sheet := flag.String("sheet", "", "worksheet name (default: first sheet)")
	dry := flag.Bool("dry", false, "parse and report without writing")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: import_candies [-sheet name] [-dry] <file.xlsx>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger := obs.NewLogger("console", "info").With().Str("tool", "import_candies").Logger()

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		logger.Fatal().Err(err).Msg("open spreadsheet")
	}
	defer f.Close()

	grid, err := catalog.ReadSheet(f, *sheet)
	if err != nil {
		logger.Fatal().Err(err).Msg("read spreadsheet")
	}
	rows, skipped := catalog.ParseRows(grid)
	logger.Info().Int("rows", len(rows)).Int("skipped", len(skipped)).Msg("parsed spreadsheet")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var target catalog.Upserter
	if !*dry {
		cfg, err := config.Load()
		if err != nil {
			logger.Fatal().Err(err).Msg("load config")
		}
		deps, err := app.Open(ctx, cfg, logger, app.Options{Name: "candy-import"})
		if err != nil {
			logger.Fatal().Err(err).Msg("open dependencies")
		}
		defer deps.Close()
		svc, err := deps.Catalog()
		if err != nil {
			logger.Fatal().Err(err).Msg("initialise catalog service")
		}
		target = svc
	}

	report, err := catalog.Import(ctx, target, rows, skipped, *dry)
	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))
	if err != nil {
		logger.Fatal().Err(err).Msg("import failed")
	}
	if report.Failed > 0 {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-candy/internal/app"
	"github.com/noah-isme/backend-candy/internal/catalog"
	"github.com/noah-isme/backend-candy/internal/common"
	"github.com/noah-isme/backend-candy/internal/config"
	"github.com/noah-isme/backend-candy/internal/money"
	"github.com/noah-isme/backend-candy/internal/obs"
	"github.com/noah-isme/backend-candy/internal/packaging"
	"github.com/noah-isme/backend-candy/internal/user"
)

var seedPackaging = []packaging.Input{
	{Key: "bag_small", Name: "Пакет малий", Category: "bag", PriceSell: money.Ptr(5), PriceBuy: 2, CapacityGrams: 300},
	{Key: "bag_large", Name: "Пакет великий", Category: "bag", PriceSell: money.Ptr(8), PriceBuy: 3.5, CapacityGrams: 1000},
	{Key: "box_gift", Name: "Подарункова коробка", Category: "box", PriceSell: money.Ptr(30), PriceBuy: 10, CapacityGrams: 500},
	{Key: "box_heart", Name: "Коробка-серце", Category: "box", PriceSell: money.Ptr(45), PriceBuy: 18, CapacityGrams: 400},
}

var seedCandies = []catalog.CandyInput{
	{Name: "Трюфель класичний", Category: "Шоколадні", PricingMode: "by_weight", PricePerKgBuy: money.Ptr(250), PricePerKgSell: money.Ptr(400), UnitWeightGrams: money.Ptr(12)},
	{Name: "Ромашка", Category: "Шоколадні", PricingMode: "by_weight", PricePerKgBuy: money.Ptr(180), PricePerKgSell: money.Ptr(290), UnitWeightGrams: money.Ptr(9)},
	{Name: "Льодяник на паличці", Category: "Карамель", PricingMode: "by_piece", PricePerPieceBuy: money.Ptr(3), PricePerPieceSell: money.Ptr(5.5), UnitWeightGrams: money.Ptr(20)},
	{Name: "Мармелад лимонний", Category: "Мармелад", PricePerKgBuy: money.Ptr(120), PricePerKgSell: money.Ptr(210)},
	{Name: "Шоколадний заєць", Category: "Фігурки", PricingMode: "by_piece", PricePerPieceSell: money.Ptr(65), UnitWeightGrams: money.Ptr(100)},
}

func main() {
	logger := obs.NewLogger("console", "info").With().Str("tool", "seeder").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Open(ctx, cfg, logger, app.Options{Name: "candy-seeder"})
	if err != nil {
		logger.Fatal().Err(err).Msg("open dependencies")
	}
	defer deps.Close()

	if cfg.RunMigrations {
		if err := app.MigrateUp(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
	}

	seedAdmin(ctx, logger, &user.Service{Q: deps.Queries})

	packSvc := deps.Packaging()
	for _, in := range seedPackaging {
		if _, err := packSvc.Create(ctx, in); err != nil {
			if isConflict(err) {
				logger.Info().Str("key", in.Key).Msg("packaging exists")
				continue
			}
			logger.Fatal().Err(err).Str("key", in.Key).Msg("seed packaging")
		}
		logger.Info().Str("key", in.Key).Msg("packaging created")
	}

	candySvc, err := deps.Catalog()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	for _, in := range seedCandies {
		c, created, err := candySvc.Upsert(ctx, in)
		if err != nil {
			logger.Fatal().Err(err).Str("name", in.Name).Msg("seed candy")
		}
		logger.Info().Str("name", c.Name).Str("mode", string(c.PricingMode)).Bool("available", c.IsAvailable).Bool("created", created).Msg("candy seeded")
	}
	logger.Info().Msg("seeding completed")
}

func seedAdmin(ctx context.Context, logger zerolog.Logger, svc *user.Service) {
	email := strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL"))
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		logger.Info().Msg("SEED_ADMIN_EMAIL/SEED_ADMIN_PASSWORD not set; skipping admin user")
		return
	}
	_, err := svc.Create(ctx, user.Input{Name: "Administrator", Email: email, Password: password, Role: common.RoleAdmin}, true)
	if err != nil {
		if isConflict(err) {
			logger.Info().Str("email", email).Msg("admin exists")
			return
		}
		logger.Fatal().Err(err).Msg("seed admin")
	}
	logger.Info().Str("email", email).Msg("admin created")
}

func isConflict(err error) bool {
	var appErr *common.AppError
	return errors.As(err, &appErr) && appErr.HTTPStatus == http.StatusConflict
}

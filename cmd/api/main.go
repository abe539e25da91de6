package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	httpadp "gadai-backend/internal/adapter/http"
	"gadai-backend/internal/adapter/middleware"
	"gadai-backend/internal/adapter/repository/mysql"
	"gadai-backend/internal/config"
	"gadai-backend/internal/dedup"
	"gadai-backend/internal/infrastructure/cache"
	"gadai-backend/internal/infrastructure/db"
	"gadai-backend/internal/notifier"
	requestUC "gadai-backend/internal/usecase/actionrequest"
	contractUC "gadai-backend/internal/usecase/contract"
	"gadai-backend/internal/usecase/event"
	redemptionUC "gadai-backend/internal/usecase/redemption"
)

func main() {
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatal("mysql connect", zap.Error(err))
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}

	uow := mysql.NewGormUoW(gdb)
	notify := notifier.NewLogNotifier(log)

	contracts := contractUC.NewUsecase(uow, notify, log)
	requests := requestUC.NewUsecase(uow, notify, log)
	redemptions := redemptionUC.NewUsecase(uow, notify, log)

	gate := dedup.NewRedisGate(rdb, time.Duration(cfg.DedupTTLSecs)*time.Second)
	router := event.NewRouter(gate, contracts, requests, redemptions, log)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger(), echomw.Recover())
	e.Validator = httpadp.NewValidator()

	idemp := middleware.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second)
	httpadp.RegisterRoutes(e, httpadp.Handlers{
		Health:        httpadp.NewHandler(),
		Contract:      httpadp.NewContractHandler(contracts),
		ActionRequest: httpadp.NewActionRequestHandler(requests),
		Redemption:    httpadp.NewRedemptionHandler(redemptions),
		Event:         httpadp.NewEventHandler(router),
	}, idemp)

	// Background sweep for action requests the funder never picked up.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.StaleSweepSecs) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if _, err := requests.ExpireStale(sweepCtx, requestUC.StaleTimeout); err != nil {
					log.Warn("stale request sweep failed", zap.Error(err))
				}
			}
		}
	}()

	go func() {
		addr := ":" + cfg.AppPort
		log.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}

package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"minibank/internal/config"
	"minibank/internal/entrypoint/telegram"
	"minibank/internal/usecase"
	"minibank/internal/usecase/repository/bank"
	"minibank/internal/usecase/repository/idempotence"
	"minibank/internal/usecase/repository/session"
)

var configPath = flag.String("config", "", "path to config file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if cfg.Telegram.Token == "" {
		logger.Fatal("telegram token is required (BANK_TELEGRAM_TOKEN or config file)")
	}
	if cfg.Telegram.AdminID == 0 {
		logger.Fatal("telegram admin id is required (BANK_TELEGRAM_ADMIN_ID or config file)")
	}

	db, err := bolt.Open(cfg.Database.Path, 0600, nil)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	store, err := bank.NewBoltDB(db)
	if err != nil {
		logger.Fatal("init bank store", zap.Error(err))
	}

	idempotenceRepository, err := idempotence.NewBoltDB(db)
	if err != nil {
		logger.Fatal("init idempotence store", zap.Error(err))
	}

	sessionRepository, err := session.NewBoltDB(db)
	if err != nil {
		logger.Fatal("init session store", zap.Error(err))
	}

	authorize := usecase.NewAuthorize(store)

	bot, err := telegram.New(
		cfg.Telegram.Token,
		cfg.Telegram.AdminID,
		logger,
		usecase.NewIdempotence(idempotenceRepository),
		usecase.NewGetSession(sessionRepository),
		usecase.NewSaveSession(sessionRepository),
		usecase.NewClearSession(sessionRepository),
		usecase.NewOpenAccount(store),
		usecase.NewDeposit(store),
		usecase.NewWithdraw(store, authorize),
		usecase.NewTransfer(store, authorize),
		authorize,
		usecase.NewGetBalance(store),
		usecase.NewGetHistory(store),
		cfg.App.HistoryLimit,
	)
	if err != nil {
		logger.Fatal("init bot", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bot.Start(ctx)
	logger.Info("bot started")

	<-ctx.Done()
	logger.Info("shutting down")
}

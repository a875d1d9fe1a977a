package main

import (
	"flag"
	"log"
	"os"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"minibank/internal/config"
	"minibank/internal/entrypoint/cli"
	"minibank/internal/usecase"
	"minibank/internal/usecase/repository/bank"
)

var configPath = flag.String("config", "", "path to config file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	db, err := bolt.Open(cfg.Database.Path, 0600, nil)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	store, err := bank.NewBoltDB(db)
	if err != nil {
		logger.Fatal("init bank store", zap.Error(err))
	}

	authorize := usecase.NewAuthorize(store)

	menu := cli.New(
		os.Stdin, os.Stdout, logger,
		usecase.NewOpenAccount(store),
		usecase.NewDeposit(store),
		usecase.NewWithdraw(store, authorize),
		usecase.NewTransfer(store, authorize),
		authorize,
		usecase.NewGetBalance(store),
		usecase.NewGetHistory(store),
		cfg.App.HistoryLimit,
	)

	if err := menu.Run(); err != nil {
		logger.Fatal("menu aborted", zap.Error(err))
	}
}

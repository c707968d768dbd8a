package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/web-developer77/nifty-tunes-nft/internal/market"
	"github.com/web-developer77/nifty-tunes-nft/pkg/config"
	"github.com/web-developer77/nifty-tunes-nft/schedule"
)

func main() {
	// log to file when possible
	os.MkdirAll("logs", 0755)
	file, err := os.OpenFile("logs/auction_sweep.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err == nil {
		log.SetOutput(file)
	} else {
		log.Warn("Failed to open log file, logging to stdout")
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	log.Info("> Starting auction sweeper...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("> Failed to load config: %v", err)
	}
	config.InitDB(cfg)
	log.Info("> Database connection initialized")

	deriver, err := cfg.Deriver()
	if err != nil {
		log.Fatalf("> Failed to create address deriver: %v", err)
	}

	var opts []market.Option
	if cfg.RabbitMQEnabled() {
		if err := config.InitRabbitMQ(cfg); err != nil {
			log.Fatalf("> Failed to initialize RabbitMQ: %v", err)
		}
		defer config.CloseRabbitMQ()
		publisher, err := config.NewPublisher()
		if err != nil {
			log.Fatalf("> Failed to create publisher: %v", err)
		}
		defer publisher.Close()
		opts = append(opts, market.WithPublisher(publisher))
	}
	engine := market.NewEngine(config.DB, deriver, opts...)

	sweeper, err := schedule.NewAuctionSweeper(engine, cfg.SweepCron)
	if err != nil {
		log.Fatalf("> %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// catch up on auctions that expired while nothing was running
	if n, err := sweeper.Sweep(ctx); err != nil {
		log.Errorf("> Initial auction sweep failed: %v", err)
	} else {
		log.Infof("> Initial sweep finalized %d auctions", n)
	}

	sweeper.Run(ctx)
}

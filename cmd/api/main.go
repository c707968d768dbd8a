package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/web-developer77/nifty-tunes-nft/internal/market"
	"github.com/web-developer77/nifty-tunes-nft/internal/routes"
	"github.com/web-developer77/nifty-tunes-nft/internal/stream"
	"github.com/web-developer77/nifty-tunes-nft/pkg/config"
	"github.com/web-developer77/nifty-tunes-nft/schedule"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	config.InitDB(cfg)

	deriver, err := cfg.Deriver()
	if err != nil {
		log.Fatalf("Failed to create address deriver: %v", err)
	}

	hub := stream.NewHub(cfg.AllowedOrigins)
	opts := []market.Option{market.WithPublisher(hub)}

	// RabbitMQ is optional; events still reach websocket subscribers without it
	if cfg.RabbitMQEnabled() {
		if err := config.InitRabbitMQ(cfg); err != nil {
			log.Fatalf("Failed to initialize RabbitMQ: %v", err)
		}
		defer config.CloseRabbitMQ()

		publisher, err := config.NewPublisher()
		if err != nil {
			log.Fatalf("Failed to create publisher: %v", err)
		}
		defer publisher.Close()
		opts = append(opts, market.WithPublisher(publisher))
		log.Info("RabbitMQ initialized successfully")
	} else {
		log.Info("RabbitMQ not configured, skipping initialization")
	}

	engine := market.NewEngine(config.DB, deriver, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.SetupRouter(engine, hub, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.Infof("API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	if cfg.SweepInProcess {
		sweeper, err := schedule.NewAuctionSweeper(engine, cfg.SweepCron)
		if err != nil {
			log.Fatalf("Failed to schedule auction sweep: %v", err)
		}
		g.Go(func() error {
			return sweeper.Run(ctx)
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("API stopped: %v", err)
	}
	log.Info("API stopped")
}

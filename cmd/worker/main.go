package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/web-developer77/nifty-tunes-nft/internal/market"
	"github.com/web-developer77/nifty-tunes-nft/pkg/config"
)

// finalizeTimeout bounds a single timer-driven finalize
const finalizeTimeout = 30 * time.Second

// auctionTimers finalizes each listed auction at its deadline
type auctionTimers struct {
	engine *market.Engine
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newAuctionTimers(engine *market.Engine) *auctionTimers {
	return &auctionTimers{
		engine: engine,
		timers: make(map[string]*time.Timer),
	}
}

func (a *auctionTimers) arm(ev market.Event) {
	delay := time.Until(time.Unix(ev.EndedAt, 0))
	if delay < 0 {
		delay = 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.timers[ev.AuctionData]; ok {
		t.Stop()
	}
	a.timers[ev.AuctionData] = time.AfterFunc(delay, func() {
		a.fire(ev)
	})
	log.WithFields(log.Fields{
		"auction_data": ev.AuctionData,
		"ended_at":     ev.EndedAt,
	}).Info("Armed auction finalize timer")
}

func (a *auctionTimers) disarm(auctionData string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.timers[auctionData]; ok {
		t.Stop()
		delete(a.timers, auctionData)
	}
}

func (a *auctionTimers) fire(ev market.Event) {
	a.mu.Lock()
	delete(a.timers, ev.AuctionData)
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	_, err := a.engine.FinalizeAuction(ctx, ev.Pool, ev.NftMint)
	switch {
	case err == nil:
		log.WithField("auction_data", ev.AuctionData).Info("Finalized auction at deadline")
	case errors.Is(err, market.ErrInvalidAuctionState), errors.Is(err, market.ErrInvalidAuctionDataAccount):
		// already ended, or relisted since
		log.WithField("auction_data", ev.AuctionData).Debugf("Skip finalize: %v", err)
	default:
		log.WithField("auction_data", ev.AuctionData).Errorf("Failed to finalize auction: %v", err)
	}
}

func (a *auctionTimers) stopAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for k, t := range a.timers {
		t.Stop()
		delete(a.timers, k)
	}
}

func main() {
	// Initialize logger
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	config.InitDB(cfg)

	// Initialize RabbitMQ
	if err := config.InitRabbitMQ(cfg); err != nil {
		log.Fatalf("Failed to initialize RabbitMQ: %v", err)
	}
	defer config.CloseRabbitMQ()

	deriver, err := cfg.Deriver()
	if err != nil {
		log.Fatalf("Failed to create address deriver: %v", err)
	}
	engine := market.NewEngine(config.DB, deriver)
	timers := newAuctionTimers(engine)
	defer timers.stopAll()

	msgConsumer, err := config.NewConsumer(market.MarketEventsQueue)
	if err != nil {
		log.Fatalf("Failed to create consumer: %v", err)
	}
	defer msgConsumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Market event worker started, waiting for messages...")

	err = msgConsumer.Consume(ctx, func(msg []byte) error {
		var ev market.Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			// a malformed message would be redelivered forever
			log.Errorf("Failed to unmarshal market event: %v", err)
			return nil
		}

		log.WithFields(log.Fields{
			"id":           ev.ID,
			"type":         ev.Type,
			"pool":         ev.Pool,
			"sale_manager": ev.SaleManager,
			"actor":        ev.Actor,
			"amount":       ev.Amount,
		}).Info("Received market event")

		switch ev.Type {
		case market.EventAuctionListed:
			timers.arm(ev)
		case market.EventAuctionEnded, market.EventRedeemed:
			timers.disarm(ev.AuctionData)
		}
		return nil
	})
	if err != nil {
		log.Errorf("Consumer stopped: %v", err)
	}
	log.Info("Market event worker stopped")
}

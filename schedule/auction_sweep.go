package schedule

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/web-developer77/nifty-tunes-nft/internal/market"
)

// sweepTimeout bounds a single sweep run
const sweepTimeout = time.Minute

// AuctionSweeper periodically finalizes auctions whose deadline has passed
type AuctionSweeper struct {
	engine  *market.Engine
	cron    *cron.Cron
	running atomic.Bool
}

// NewAuctionSweeper schedules the sweep with a seconds-resolution cron spec,
// e.g. "*/15 * * * * *"
func NewAuctionSweeper(engine *market.Engine, spec string) (*AuctionSweeper, error) {
	s := &AuctionSweeper{
		engine: engine,
		cron:   cron.New(cron.WithSeconds()),
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("failed to add auction sweep job: %w", err)
	}
	return s, nil
}

// Run starts the schedule and blocks until ctx is done
func (s *AuctionSweeper) Run(ctx context.Context) error {
	s.cron.Start()
	log.Info("> Auction sweep scheduled")
	<-ctx.Done()
	<-s.cron.Stop().Done()
	log.Info("> Auction sweep stopped")
	return nil
}

// Sweep runs one pass immediately
func (s *AuctionSweeper) Sweep(ctx context.Context) (int, error) {
	return s.engine.SweepExpiredAuctions(ctx)
}

func (s *AuctionSweeper) run() {
	// skip when the previous pass is still running
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := s.Sweep(ctx)
	if err != nil {
		log.Errorf("> Auction sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Infof("> Finalized %d expired auctions", n)
	}
}

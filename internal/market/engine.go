package market

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/web-developer77/nifty-tunes-nft/internal/models"
	"github.com/web-developer77/nifty-tunes-nft/pkg/metadata"
	ntsolana "github.com/web-developer77/nifty-tunes-nft/pkg/solana"
	"github.com/web-developer77/nifty-tunes-nft/pkg/tokenledger"
)

// Engine runs marketplace transitions. Each transition loads and re-validates
// every referenced record inside one database transaction and either commits
// all of its effects or none.
type Engine struct {
	db         *gorm.DB
	deriver    *ntsolana.Deriver
	ledger     *tokenledger.Ledger
	registry   *metadata.Registry
	publishers []Publisher
	now        func() time.Time
}

type Option func(*Engine)

// WithClock replaces the wall clock used for auction deadlines
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithPublisher adds a sink for committed transition events
func WithPublisher(p Publisher) Option {
	return func(e *Engine) {
		if p != nil {
			e.publishers = append(e.publishers, p)
		}
	}
}

func NewEngine(db *gorm.DB, deriver *ntsolana.Deriver, opts ...Option) *Engine {
	ledger := tokenledger.New(deriver)
	e := &Engine{
		db:       db,
		deriver:  deriver,
		ledger:   ledger,
		registry: metadata.NewRegistry(deriver, ledger),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) DB() *gorm.DB {
	return e.db
}

func (e *Engine) Ledger() *tokenledger.Ledger {
	return e.ledger
}

func (e *Engine) Registry() *metadata.Registry {
	return e.registry
}

func (e *Engine) Deriver() *ntsolana.Deriver {
	return e.deriver
}

// Now returns the engine clock as unix seconds
func (e *Engine) Now() int64 {
	return e.now().Unix()
}

// transact runs fn in a transaction and publishes its events after commit
func (e *Engine) transact(ctx context.Context, op string, fn func(tx *gorm.DB) ([]Event, error)) error {
	var events []Event
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		evs, err := fn(tx)
		if err != nil {
			return err
		}
		events = evs
		return nil
	})
	if err != nil {
		log.WithFields(log.Fields{
			"operation": op,
			"error":     err.Error(),
		}).Warn("Market transition rejected")
		return err
	}

	ts := e.Now()
	for i := range events {
		events[i].ID = uuid.NewString()
		events[i].Timestamp = ts
		log.WithFields(log.Fields{
			"operation":    op,
			"event":        events[i].Type,
			"sale_manager": events[i].SaleManager,
			"actor":        events[i].Actor,
			"amount":       events[i].Amount,
		}).Info("Market transition committed")
		e.publish(events[i])
	}
	return nil
}

func (e *Engine) publish(ev Event) {
	for _, p := range e.publishers {
		if err := p.Publish(MarketEventsQueue, ev); err != nil {
			log.WithFields(log.Fields{
				"event": ev.Type,
				"id":    ev.ID,
			}).Errorf("Failed to publish market event: %v", err)
		}
	}
}

// Receipt carries the records touched by a transition
type Receipt struct {
	Pool        *models.Pool          `json:"pool,omitempty"`
	SaleManager *models.SaleManager   `json:"sale_manager,omitempty"`
	SalePot     *models.SalePot       `json:"sale_pot,omitempty"`
	AuctionData *models.AuctionData   `json:"auction_data,omitempty"`
	Metadata    *models.TokenMetadata `json:"metadata,omitempty"`
	Amount      uint64                `json:"amount,omitempty"`
}

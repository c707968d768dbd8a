package market

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/web-developer77/nifty-tunes-nft/internal/models"
)

// ErrNotFound is returned by read accessors for unknown addresses
var ErrNotFound = errors.New("record not found")

// AuctionView is auction data as a reader sees it at the current time
type AuctionView struct {
	models.AuctionData
	State models.AuctionState `json:"effective_state"`
	Now   int64               `json:"now"`
}

func (e *Engine) get(ctx context.Context, dest interface{}, column, address string) error {
	err := e.db.WithContext(ctx).First(dest, column+" = ?", address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", address, err)
	}
	return nil
}

func (e *Engine) GetPool(ctx context.Context, address string) (*models.Pool, error) {
	var pool models.Pool
	if err := e.get(ctx, &pool, "address", address); err != nil {
		return nil, err
	}
	return &pool, nil
}

// GetSaleManager looks up the sale manager of (pool, mint)
func (e *Engine) GetSaleManager(ctx context.Context, pool, nftMint string) (*models.SaleManager, error) {
	var sm models.SaleManager
	err := e.db.WithContext(ctx).Where("pool = ? AND nft_mint = ?", pool, nftMint).First(&sm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sale manager: %w", err)
	}
	return &sm, nil
}

func (e *Engine) GetSalePot(ctx context.Context, address string) (*models.SalePot, error) {
	var pot models.SalePot
	if err := e.get(ctx, &pot, "address", address); err != nil {
		return nil, err
	}
	return &pot, nil
}

// GetAuction returns auction data with its effective state; a live auction
// past its deadline reads as ended without being mutated.
func (e *Engine) GetAuction(ctx context.Context, address string) (*AuctionView, error) {
	var ad models.AuctionData
	if err := e.get(ctx, &ad, "address", address); err != nil {
		return nil, err
	}
	now := e.Now()
	return &AuctionView{AuctionData: ad, State: ad.EffectiveState(now), Now: now}, nil
}

func (e *Engine) GetTokenAccount(ctx context.Context, address string) (*models.TokenAccount, error) {
	var account models.TokenAccount
	if err := e.get(ctx, &account, "account_address", address); err != nil {
		return nil, err
	}
	return &account, nil
}

func (e *Engine) GetMetadata(ctx context.Context, mint string) (*models.TokenMetadata, error) {
	var md models.TokenMetadata
	if err := e.get(ctx, &md, "mint", mint); err != nil {
		return nil, err
	}
	return &md, nil
}

// ListSalePots returns every pot created for a sale manager, newest first
func (e *Engine) ListSalePots(ctx context.Context, saleManager string) ([]models.SalePot, error) {
	var pots []models.SalePot
	if err := e.db.WithContext(ctx).Where("sale_manager = ?", saleManager).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "index"}, Desc: true}).
		Find(&pots).Error; err != nil {
		return nil, fmt.Errorf("failed to list sale pots: %w", err)
	}
	return pots, nil
}

// ListActiveListings returns the sale managers currently listed in a pool
func (e *Engine) ListActiveListings(ctx context.Context, pool string) ([]models.SaleManager, error) {
	var managers []models.SaleManager
	if err := e.db.WithContext(ctx).Where("pool = ? AND sale_state <> ?", pool, models.SaleStateNone).
		Order("updated_at DESC").Find(&managers).Error; err != nil {
		return nil, fmt.Errorf("failed to list sale managers: %w", err)
	}
	return managers, nil
}

package market

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/web-developer77/nifty-tunes-nft/internal/models"
	"github.com/web-developer77/nifty-tunes-nft/pkg/metadata"
	ntsolana "github.com/web-developer77/nifty-tunes-nft/pkg/solana"
	"github.com/web-developer77/nifty-tunes-nft/pkg/tokenledger"
)

// CreatePool opens a marketplace priced in saleMint and administered by owner
func (e *Engine) CreatePool(ctx context.Context, owner, saleMint string) (*models.Pool, error) {
	var pool models.Pool
	err := e.transact(ctx, "create_pool", func(tx *gorm.DB) ([]Event, error) {
		if _, err := parseKey(owner, ErrInvalidOwner); err != nil {
			return nil, err
		}
		if err := e.checkCurrencyMint(tx, saleMint); err != nil {
			return nil, err
		}

		pool = models.Pool{
			Address:  ntsolana.NewAddress(),
			Owner:    owner,
			SaleMint: saleMint,
		}
		if err := tx.Create(&pool).Error; err != nil {
			return nil, fmt.Errorf("failed to create pool: %w", err)
		}
		return []Event{{
			Type:  EventPoolCreated,
			Pool:  pool.Address,
			Actor: owner,
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

// checkCurrencyMint rejects mints that cannot price a pool: unknown mints,
// registered tokens and fixed single-unit mints
func (e *Engine) checkCurrencyMint(tx *gorm.DB, address string) error {
	mint, err := e.ledger.Mint(tx, address)
	if err != nil {
		if errors.Is(err, tokenledger.ErrMintNotFound) {
			return ErrInvalidMintAccount
		}
		return err
	}
	if mint.Decimals == 0 && mint.Supply <= 1 && mint.MintAuthority == "" {
		return ErrInvalidMintAccount
	}
	if _, err := e.registry.Get(tx, address); err == nil {
		return ErrInvalidMintAccount
	} else if !errors.Is(err, metadata.ErrMetadataNotFound) {
		return err
	}
	return nil
}

// TransferPoolOwnership hands the pool to newOwner; only the current owner may do this
func (e *Engine) TransferPoolOwnership(ctx context.Context, caller, poolAddress, newOwner string) (*models.Pool, error) {
	var pool *models.Pool
	err := e.transact(ctx, "transfer_pool_ownership", func(tx *gorm.DB) ([]Event, error) {
		var err error
		if pool, err = e.loadPool(tx, poolAddress); err != nil {
			return nil, err
		}
		if pool.Owner != caller {
			return nil, ErrInvalidOwner
		}
		if _, err := parseKey(newOwner, ErrInvalidOwner); err != nil {
			return nil, err
		}

		pool.Owner = newOwner
		if err := tx.Save(pool).Error; err != nil {
			return nil, fmt.Errorf("failed to update pool owner: %w", err)
		}
		return []Event{{
			Type:  EventPoolOwnerChanged,
			Pool:  pool.Address,
			Actor: caller,
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

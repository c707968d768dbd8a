package market

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/web-developer77/nifty-tunes-nft/internal/models"
	"github.com/web-developer77/nifty-tunes-nft/pkg/metadata"
	"github.com/web-developer77/nifty-tunes-nft/pkg/tokenledger"
)

type MintParams struct {
	Owner        string
	Mint         string
	TokenAccount string
	Data         metadata.Data
}

// MintUniqueToken mints the single unit of a fresh mint, registers its
// metadata and creates the master edition, which revokes the mint authority.
func (e *Engine) MintUniqueToken(ctx context.Context, p MintParams) (*models.TokenMetadata, error) {
	var md *models.TokenMetadata
	err := e.transact(ctx, "mint_unique_token", func(tx *gorm.DB) ([]Event, error) {
		mint, err := e.ledger.Mint(tx, p.Mint)
		if errors.Is(err, tokenledger.ErrMintNotFound) {
			return nil, ErrInvalidMintAccount
		}
		if err != nil {
			return nil, err
		}
		if mint.Decimals != 0 || mint.Supply != 0 || mint.MintAuthority != p.Owner {
			return nil, ErrInvalidMintAccount
		}

		account, err := e.ledger.Account(tx, p.TokenAccount)
		if errors.Is(err, tokenledger.ErrAccountNotFound) {
			return nil, ErrInvalidTokenAccount
		}
		if err != nil {
			return nil, err
		}
		if account.Mint != p.Mint || account.IsClose {
			return nil, ErrInvalidTokenAccount
		}
		if err := p.Data.Validate(); err != nil {
			return nil, ErrInvalidMetadata
		}

		if err := e.ledger.MintTo(tx, p.Mint, p.TokenAccount, p.Owner, 1); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTokenMintToFailed, err)
		}
		if _, err := e.registry.Register(tx, p.Mint, p.Owner, p.Data); err != nil {
			if errors.Is(err, metadata.ErrMetadataExists) {
				return nil, ErrInvalidMetadata
			}
			return nil, err
		}
		if md, err = e.registry.CreateMasterEdition(tx, p.Mint, p.Owner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTokenSetAuthorityFailed, err)
		}
		return []Event{{
			Type:    EventTokenMinted,
			NftMint: p.Mint,
			Actor:   p.Owner,
			Amount:  1,
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	return md, nil
}

// InitSaleManager creates the sale manager of (pool, mint) and opens its escrow accounts
func (e *Engine) InitSaleManager(ctx context.Context, payer, poolAddress, nftMint string) (*models.SaleManager, error) {
	var sm models.SaleManager
	err := e.transact(ctx, "init_sale_manager", func(tx *gorm.DB) ([]Event, error) {
		pool, err := e.loadPool(tx, poolAddress)
		if err != nil {
			return nil, err
		}
		mint, err := e.ledger.Mint(tx, nftMint)
		if errors.Is(err, tokenledger.ErrMintNotFound) {
			return nil, ErrInvalidMintAccount
		}
		if err != nil {
			return nil, err
		}
		if mint.Decimals != 0 {
			return nil, ErrInvalidMintAccount
		}

		poolKey, err := parseKey(pool.Address, ErrInvalidPoolAccount)
		if err != nil {
			return nil, err
		}
		mintKey, err := parseKey(nftMint, ErrInvalidMintAccount)
		if err != nil {
			return nil, err
		}
		pda, err := e.deriver.GetSaleManagerPDA(poolKey, mintKey)
		if err != nil {
			return nil, err
		}

		var count int64
		if err := tx.Model(&models.SaleManager{}).Where("address = ?", pda.Address.String()).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check sale manager: %w", err)
		}
		if count > 0 {
			return nil, ErrAlreadyInitialized
		}

		nftPot, err := e.ledger.CreateAccount(tx, pda.Address.String(), nftMint)
		if err != nil {
			return nil, fmt.Errorf("failed to open nft pot: %w", err)
		}
		poolPot, err := e.ledger.CreateAccount(tx, pda.Address.String(), pool.SaleMint)
		if err != nil {
			return nil, fmt.Errorf("failed to open pool pot: %w", err)
		}

		sm = models.SaleManager{
			Address:   pda.Address.String(),
			Pool:      pool.Address,
			NftMint:   nftMint,
			NftPot:    nftPot.AccountAddress,
			PoolPot:   poolPot.AccountAddress,
			SaleState: models.SaleStateNone,
			Bump:      pda.Bump,
		}
		if err := tx.Create(&sm).Error; err != nil {
			return nil, fmt.Errorf("failed to create sale manager: %w", err)
		}
		return []Event{{
			Type:        EventSaleManagerCreated,
			Pool:        pool.Address,
			SaleManager: sm.Address,
			NftMint:     nftMint,
			Actor:       payer,
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	return &sm, nil
}

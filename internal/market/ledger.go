package market

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/web-developer77/nifty-tunes-nft/internal/models"
	"github.com/web-developer77/nifty-tunes-nft/pkg/tokenledger"
)

// CreateMint registers a payment or unique-token mint whose authority is authority
func (e *Engine) CreateMint(ctx context.Context, authority string, decimals uint8) (*models.TokenMint, error) {
	var mint *models.TokenMint
	err := e.transact(ctx, "create_mint", func(tx *gorm.DB) ([]Event, error) {
		if _, err := parseKey(authority, ErrInvalidOwner); err != nil {
			return nil, err
		}
		var err error
		mint, err = e.ledger.CreateMint(tx, authority, decimals)
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	return mint, nil
}

// CreateTokenAccount opens the associated token account of owner for mint
func (e *Engine) CreateTokenAccount(ctx context.Context, owner, mint string) (*models.TokenAccount, error) {
	var account *models.TokenAccount
	err := e.transact(ctx, "create_token_account", func(tx *gorm.DB) ([]Event, error) {
		if _, err := parseKey(owner, ErrInvalidOwner); err != nil {
			return nil, err
		}
		if _, err := e.ledger.Mint(tx, mint); err != nil {
			if errors.Is(err, tokenledger.ErrMintNotFound) {
				return nil, ErrInvalidMintAccount
			}
			return nil, err
		}
		var err error
		account, err = e.ledger.CreateAccount(tx, owner, mint)
		if errors.Is(err, tokenledger.ErrAccountExists) {
			return nil, ErrAlreadyInitialized
		}
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// MintTo issues amount new tokens of mint into dest; authority must hold the mint authority
func (e *Engine) MintTo(ctx context.Context, mint, dest, authority string, amount uint64) (*models.TokenAccount, error) {
	var account *models.TokenAccount
	err := e.transact(ctx, "mint_to", func(tx *gorm.DB) ([]Event, error) {
		if amount == 0 {
			return nil, ErrMintAmountIsZero
		}
		err := e.ledger.MintTo(tx, mint, dest, authority, amount)
		switch {
		case errors.Is(err, tokenledger.ErrMintNotFound):
			return nil, ErrInvalidMintAccount
		case errors.Is(err, tokenledger.ErrAccountNotFound),
			errors.Is(err, tokenledger.ErrAccountClosed),
			errors.Is(err, tokenledger.ErrMintMismatch):
			return nil, ErrInvalidTokenAccount
		case errors.Is(err, tokenledger.ErrMintAuthority),
			errors.Is(err, tokenledger.ErrSupplyOverflow),
			errors.Is(err, tokenledger.ErrBalanceOverflow):
			return nil, ErrTokenMintToFailed
		case err != nil:
			return nil, err
		}
		if account, err = e.ledger.Account(tx, dest); err != nil {
			return nil, err
		}
		return []Event{{
			Type:    EventTokenMinted,
			NftMint: mint,
			Actor:   authority,
			Amount:  amount,
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// ListTokenAccounts returns the open token accounts of owner
func (e *Engine) ListTokenAccounts(ctx context.Context, owner string) ([]models.TokenAccount, error) {
	return e.ledger.AccountsByOwner(e.db.WithContext(ctx), owner)
}

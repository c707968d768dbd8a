package market

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"gorm.io/gorm"

	"github.com/web-developer77/nifty-tunes-nft/internal/models"
	"github.com/web-developer77/nifty-tunes-nft/pkg/config"
	"github.com/web-developer77/nifty-tunes-nft/pkg/metadata"
	"github.com/web-developer77/nifty-tunes-nft/pkg/tokenledger"
)

// first loads a record by address with a row lock. A missing row maps to notFound.
func first(tx *gorm.DB, dest interface{}, column, address string, notFound error) error {
	if address == "" {
		return notFound
	}
	err := config.ForUpdate(tx).First(dest, column+" = ?", address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", address, err)
	}
	return nil
}

func parseKey(address string, invalid error) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, invalid
	}
	return pk, nil
}

func (e *Engine) loadPool(tx *gorm.DB, address string) (*models.Pool, error) {
	var pool models.Pool
	if err := first(tx, &pool, "address", address, ErrInvalidPoolAccount); err != nil {
		return nil, err
	}
	return &pool, nil
}

// loadSaleManager resolves the sale manager of (pool, mint) by re-deriving its address
func (e *Engine) loadSaleManager(tx *gorm.DB, pool *models.Pool, nftMint string) (*models.SaleManager, error) {
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

	var sm models.SaleManager
	if err := first(tx, &sm, "address", pda.Address.String(), ErrInvalidSaleManagerAccount); err != nil {
		return nil, err
	}
	if sm.Pool != pool.Address || sm.NftMint != nftMint || sm.Bump != pda.Bump {
		return nil, ErrInvalidSaleManagerAccount
	}
	return &sm, nil
}

// loadSaleManagerByAddress loads a sale manager and checks its address against its pool and mint
func (e *Engine) loadSaleManagerByAddress(tx *gorm.DB, address string) (*models.SaleManager, *models.Pool, error) {
	var sm models.SaleManager
	if err := first(tx, &sm, "address", address, ErrInvalidSaleManagerAccount); err != nil {
		return nil, nil, err
	}
	pool, err := e.loadPool(tx, sm.Pool)
	if err != nil {
		return nil, nil, err
	}
	checked, err := e.loadSaleManager(tx, pool, sm.NftMint)
	if err != nil {
		return nil, nil, err
	}
	if checked.Address != address {
		return nil, nil, ErrInvalidSaleManagerAccount
	}
	return checked, pool, nil
}

// loadSalePot loads the live sale pot of sm and checks it was derived from sm
func (e *Engine) loadSalePot(tx *gorm.DB, sm *models.SaleManager) (*models.SalePot, error) {
	var pot models.SalePot
	if err := first(tx, &pot, "address", sm.SalePot, ErrInvalidSalePotAccount); err != nil {
		return nil, err
	}
	if err := e.checkSalePot(sm, &pot); err != nil {
		return nil, err
	}
	return &pot, nil
}

func (e *Engine) checkSalePot(sm *models.SaleManager, pot *models.SalePot) error {
	smKey, err := parseKey(sm.Address, ErrInvalidSaleManagerAccount)
	if err != nil {
		return err
	}
	pda, err := e.deriver.GetSalePotPDA(smKey, pot.Index)
	if err != nil {
		return err
	}
	if pot.SaleManager != sm.Address || pot.Address != pda.Address.String() || pot.Bump != pda.Bump {
		return ErrInvalidSalePotAccount
	}
	return nil
}

// loadAuctionData loads the live auction of sm and checks it was derived from sm
func (e *Engine) loadAuctionData(tx *gorm.DB, sm *models.SaleManager) (*models.AuctionData, error) {
	var ad models.AuctionData
	if err := first(tx, &ad, "address", sm.AuctionData, ErrInvalidAuctionDataAccount); err != nil {
		return nil, err
	}
	smKey, err := parseKey(sm.Address, ErrInvalidSaleManagerAccount)
	if err != nil {
		return nil, err
	}
	pda, err := e.deriver.GetAuctionDataPDA(smKey, ad.Index)
	if err != nil {
		return nil, err
	}
	if ad.SaleManager != sm.Address || ad.Address != pda.Address.String() || ad.Bump != pda.Bump {
		return nil, ErrInvalidAuctionDataAccount
	}
	return &ad, nil
}

// tokenAccount loads a token account and checks its owner and mint
func (e *Engine) tokenAccount(tx *gorm.DB, address, owner, mint string, invalid error) (*models.TokenAccount, error) {
	if address == "" {
		return nil, invalid
	}
	account, err := e.ledger.Account(tx, address)
	if errors.Is(err, tokenledger.ErrAccountNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	if account.IsClose || account.OwnerAddress != owner || account.Mint != mint {
		return nil, invalid
	}
	return account, nil
}

// escrowAccount checks a supplied escrow account is the one stored on sm
func (e *Engine) escrowAccount(tx *gorm.DB, supplied, stored string, sm *models.SaleManager, mint string) (*models.TokenAccount, error) {
	if supplied != stored {
		return nil, ErrInvalidTokenAccount
	}
	return e.tokenAccount(tx, supplied, sm.Address, mint, ErrInvalidTokenAccount)
}

// loadMetadata loads the metadata of a mint, mapping absence to InvalidMetadata
func (e *Engine) loadMetadata(tx *gorm.DB, mint string) (*models.TokenMetadata, error) {
	md, err := e.registry.Get(tx, mint)
	if errors.Is(err, metadata.ErrMetadataNotFound) {
		return nil, ErrInvalidMetadata
	}
	if err != nil {
		return nil, err
	}
	return md, nil
}

// signerSeeds returns the seeds and bump the sale manager signs escrow movements with
func signerSeeds(sm *models.SaleManager) ([][]byte, uint8, error) {
	poolKey, err := parseKey(sm.Pool, ErrInvalidPoolAccount)
	if err != nil {
		return nil, 0, err
	}
	mintKey, err := parseKey(sm.NftMint, ErrInvalidMintAccount)
	if err != nil {
		return nil, 0, err
	}
	return [][]byte{poolKey.Bytes(), mintKey.Bytes()}, sm.Bump, nil
}

// transferFromEscrow moves tokens out of an account owned by sm
func (e *Engine) transferFromEscrow(tx *gorm.DB, sm *models.SaleManager, source, dest string, amount uint64) error {
	seeds, bump, err := signerSeeds(sm)
	if err != nil {
		return err
	}
	if err := e.ledger.TransferSigned(tx, source, dest, amount, seeds, bump); err != nil {
		return ledgerError(err)
	}
	return nil
}

// transfer moves tokens authorised by the owner of source
func (e *Engine) transfer(tx *gorm.DB, source, dest, authority string, amount uint64) error {
	if err := e.ledger.Transfer(tx, source, dest, authority, amount); err != nil {
		return ledgerError(err)
	}
	return nil
}

// ledgerError maps token ledger rejections to market errors; infrastructure errors pass through
func ledgerError(err error) error {
	switch {
	case errors.Is(err, tokenledger.ErrInsufficientFunds):
		return ErrNotEnoughTokenAmount
	case errors.Is(err, tokenledger.ErrOwnerMismatch),
		errors.Is(err, tokenledger.ErrMintMismatch),
		errors.Is(err, tokenledger.ErrAccountNotFound),
		errors.Is(err, tokenledger.ErrAccountClosed),
		errors.Is(err, tokenledger.ErrZeroAmount),
		errors.Is(err, tokenledger.ErrBalanceOverflow):
		return ErrTokenTransferFailed
	}
	return err
}

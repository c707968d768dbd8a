package tokenledger

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/web-developer77/nifty-tunes-nft/internal/models"
	"github.com/web-developer77/nifty-tunes-nft/pkg/config"
	ntsolana "github.com/web-developer77/nifty-tunes-nft/pkg/solana"
)

var (
	ErrMintNotFound      = errors.New("mint not found")
	ErrAccountNotFound   = errors.New("token account not found")
	ErrAccountClosed     = errors.New("token account is closed")
	ErrOwnerMismatch     = errors.New("authority does not own the account")
	ErrMintMismatch      = errors.New("accounts belong to different mints")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrMintAuthority     = errors.New("invalid mint authority")
	ErrZeroAmount        = errors.New("amount must be greater than zero")
	ErrAccountExists     = errors.New("token account already exists with a different owner or mint")
	ErrSupplyOverflow    = errors.New("mint supply overflow")
	ErrBalanceOverflow   = errors.New("account balance overflow")
)

// Ledger keeps fungible and unique token balances. Every method runs on the
// caller's transaction so a failed transfer aborts the whole operation.
type Ledger struct {
	deriver *ntsolana.Deriver
}

func New(deriver *ntsolana.Deriver) *Ledger {
	return &Ledger{deriver: deriver}
}

// CreateMint registers a new token type with a fresh address
func (l *Ledger) CreateMint(tx *gorm.DB, authority string, decimals uint8) (*models.TokenMint, error) {
	if _, err := ntsolana.ParsePublicKey(authority); err != nil {
		return nil, err
	}
	mint := models.TokenMint{
		Address:       ntsolana.NewAddress(),
		Decimals:      decimals,
		MintAuthority: authority,
	}
	if err := tx.Create(&mint).Error; err != nil {
		return nil, fmt.Errorf("failed to create mint: %w", err)
	}
	return &mint, nil
}

// CreateAccount opens the associated token account of owner for mint.
// Opening an account that already exists returns it unchanged.
func (l *Ledger) CreateAccount(tx *gorm.DB, owner, mint string) (*models.TokenAccount, error) {
	ownerKey, err := ntsolana.ParsePublicKey(owner)
	if err != nil {
		return nil, err
	}
	mintKey, err := ntsolana.ParsePublicKey(mint)
	if err != nil {
		return nil, err
	}
	if _, err := l.Mint(tx, mint); err != nil {
		return nil, err
	}

	ata, err := l.deriver.GetAssociatedTokenAddress(ownerKey, mintKey)
	if err != nil {
		return nil, err
	}

	existing, err := l.Account(tx, ata.String())
	switch {
	case err == nil:
		if existing.OwnerAddress != owner || existing.Mint != mint {
			return nil, ErrAccountExists
		}
		return existing, nil
	case !errors.Is(err, ErrAccountNotFound):
		return nil, err
	}

	account := models.TokenAccount{
		AccountAddress: ata.String(),
		OwnerAddress:   owner,
		Mint:           mint,
	}
	if err := tx.Create(&account).Error; err != nil {
		return nil, fmt.Errorf("failed to create token account: %w", err)
	}
	return &account, nil
}

// Mint loads a mint, locking it for the rest of the transaction
func (l *Ledger) Mint(tx *gorm.DB, address string) (*models.TokenMint, error) {
	var mint models.TokenMint
	if err := config.ForUpdate(tx).First(&mint, "address = ?", address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMintNotFound
		}
		return nil, fmt.Errorf("failed to load mint %s: %w", address, err)
	}
	return &mint, nil
}

// Account loads a token account, locking it for the rest of the transaction
func (l *Ledger) Account(tx *gorm.DB, address string) (*models.TokenAccount, error) {
	var account models.TokenAccount
	if err := config.ForUpdate(tx).First(&account, "account_address = ?", address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load token account %s: %w", address, err)
	}
	return &account, nil
}

// AccountsByOwner lists the open accounts of a wallet
func (l *Ledger) AccountsByOwner(tx *gorm.DB, owner string) ([]models.TokenAccount, error) {
	var accounts []models.TokenAccount
	if err := tx.Where("owner_address = ? AND is_close = ?", owner, false).
		Order("mint").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list token accounts: %w", err)
	}
	return accounts, nil
}

// MintTo creates amount new tokens in dest
func (l *Ledger) MintTo(tx *gorm.DB, mintAddress, dest, authority string, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	mint, err := l.Mint(tx, mintAddress)
	if err != nil {
		return err
	}
	if mint.MintAuthority == "" || mint.MintAuthority != authority {
		return ErrMintAuthority
	}
	account, err := l.openAccount(tx, dest)
	if err != nil {
		return err
	}
	if account.Mint != mint.Address {
		return ErrMintMismatch
	}
	if mint.Supply+amount < mint.Supply {
		return ErrSupplyOverflow
	}
	if account.Amount+amount < account.Amount {
		return ErrBalanceOverflow
	}

	mint.Supply += amount
	account.Amount += amount
	if err := tx.Save(mint).Error; err != nil {
		return fmt.Errorf("failed to update mint supply: %w", err)
	}
	if err := tx.Save(account).Error; err != nil {
		return fmt.Errorf("failed to update token account: %w", err)
	}
	return nil
}

// Transfer moves amount from source to dest, authorised by the source owner
func (l *Ledger) Transfer(tx *gorm.DB, source, dest, authority string, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	src, err := l.openAccount(tx, source)
	if err != nil {
		return err
	}
	if src.OwnerAddress != authority {
		return ErrOwnerMismatch
	}
	if source == dest {
		if src.Amount < amount {
			return ErrInsufficientFunds
		}
		return nil
	}
	dst, err := l.openAccount(tx, dest)
	if err != nil {
		return err
	}
	if src.Mint != dst.Mint {
		return ErrMintMismatch
	}
	if src.Amount < amount {
		return ErrInsufficientFunds
	}
	if dst.Amount+amount < dst.Amount {
		return ErrBalanceOverflow
	}

	src.Amount -= amount
	dst.Amount += amount
	if err := tx.Save(src).Error; err != nil {
		return fmt.Errorf("failed to debit %s: %w", source, err)
	}
	if err := tx.Save(dst).Error; err != nil {
		return fmt.Errorf("failed to credit %s: %w", dest, err)
	}
	return nil
}

// TransferSigned moves tokens out of an account owned by a program address.
// The authority is the address re-created from seeds and bump.
func (l *Ledger) TransferSigned(tx *gorm.DB, source, dest string, amount uint64, seeds [][]byte, bump uint8) error {
	authority, err := l.deriver.SignerAddress(seeds, bump)
	if err != nil {
		return err
	}
	return l.Transfer(tx, source, dest, authority.String(), amount)
}

// RevokeMintAuthority fixes the supply of a mint forever
func (l *Ledger) RevokeMintAuthority(tx *gorm.DB, mintAddress, authority string) error {
	mint, err := l.Mint(tx, mintAddress)
	if err != nil {
		return err
	}
	if mint.MintAuthority == "" || mint.MintAuthority != authority {
		return ErrMintAuthority
	}
	mint.MintAuthority = ""
	if err := tx.Save(mint).Error; err != nil {
		return fmt.Errorf("failed to revoke mint authority: %w", err)
	}
	return nil
}

func (l *Ledger) openAccount(tx *gorm.DB, address string) (*models.TokenAccount, error) {
	account, err := l.Account(tx, address)
	if err != nil {
		return nil, err
	}
	if account.IsClose {
		return nil, ErrAccountClosed
	}
	return account, nil
}

package metadata

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/web-developer77/nifty-tunes-nft/internal/models"
	"github.com/web-developer77/nifty-tunes-nft/pkg/config"
	ntsolana "github.com/web-developer77/nifty-tunes-nft/pkg/solana"
	"github.com/web-developer77/nifty-tunes-nft/pkg/tokenledger"
)

const (
	MaxNameLength           = 32
	MaxSymbolLength         = 10
	MaxUriLength            = 200
	MaxSellerFeeBasisPoints = 10000
)

var (
	ErrMetadataNotFound    = errors.New("metadata not found")
	ErrMetadataExists      = errors.New("metadata already registered for mint")
	ErrUpdateAuthority     = errors.New("invalid update authority")
	ErrTooManyCreators     = errors.New("too many creators")
	ErrShareSum            = errors.New("creator shares exceed 100")
	ErrDuplicateCreator    = errors.New("duplicate creator address")
	ErrSellerFee           = errors.New("seller fee basis points exceed 10000")
	ErrFieldTooLong        = errors.New("metadata field too long")
	ErrMasterEditionExists = errors.New("master edition already created")
	ErrInvalidHolder       = errors.New("holder token account does not hold the token")
)

// Data is the mutable part of a token's metadata
type Data struct {
	Name                 string          `json:"name"`
	Symbol               string          `json:"symbol"`
	Uri                  string          `json:"uri"`
	SellerFeeBasisPoints uint16          `json:"seller_fee_basis_points"`
	Creators             models.Creators `json:"creators"`
	IsMutable            bool            `json:"is_mutable"`
}

// Validate checks field lengths, fee bounds and creator shares
func (d *Data) Validate() error {
	if len(d.Name) > MaxNameLength || len(d.Symbol) > MaxSymbolLength || len(d.Uri) > MaxUriLength {
		return ErrFieldTooLong
	}
	if d.SellerFeeBasisPoints > MaxSellerFeeBasisPoints {
		return ErrSellerFee
	}
	return ValidateCreators(d.Creators)
}

// ValidateCreators checks the creator count and that shares sum to at most 100
func ValidateCreators(creators models.Creators) error {
	if len(creators) > models.MaxCreatorLimit {
		return ErrTooManyCreators
	}
	seen := make(map[string]bool, len(creators))
	for _, c := range creators {
		if _, err := ntsolana.ParsePublicKey(c.Address); err != nil {
			return err
		}
		if seen[c.Address] {
			return ErrDuplicateCreator
		}
		seen[c.Address] = true
	}
	if creators.ShareSum() > 100 {
		return ErrShareSum
	}
	return nil
}

// Registry stores token metadata keyed by the metadata program address of each mint
type Registry struct {
	deriver *ntsolana.Deriver
	ledger  *tokenledger.Ledger
}

func NewRegistry(deriver *ntsolana.Deriver, ledger *tokenledger.Ledger) *Registry {
	return &Registry{deriver: deriver, ledger: ledger}
}

// Register records metadata for mint. The caller must be the mint authority
// and becomes the update authority. Creators start unverified.
func (r *Registry) Register(tx *gorm.DB, mintAddress, authority string, data Data) (*models.TokenMetadata, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	mint, err := r.ledger.Mint(tx, mintAddress)
	if err != nil {
		return nil, err
	}
	if mint.MintAuthority != authority {
		return nil, tokenledger.ErrMintAuthority
	}

	pda, err := r.metadataPDA(mintAddress)
	if err != nil {
		return nil, err
	}
	var count int64
	if err := tx.Model(&models.TokenMetadata{}).Where("address = ?", pda.Address.String()).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check metadata: %w", err)
	}
	if count > 0 {
		return nil, ErrMetadataExists
	}

	creators := make(models.Creators, len(data.Creators))
	for i, c := range data.Creators {
		creators[i] = models.Creator{Address: c.Address, Share: c.Share}
	}

	md := models.TokenMetadata{
		Address:              pda.Address.String(),
		Mint:                 mintAddress,
		UpdateAuthority:      authority,
		Name:                 data.Name,
		Symbol:               data.Symbol,
		Uri:                  data.Uri,
		SellerFeeBasisPoints: data.SellerFeeBasisPoints,
		Creators:             creators,
		IsMutable:            data.IsMutable,
	}
	if err := tx.Create(&md).Error; err != nil {
		return nil, fmt.Errorf("failed to create metadata: %w", err)
	}
	return &md, nil
}

// CreateMasterEdition records the master edition of a single-supply mint
// and revokes its mint authority so no further units can ever be minted.
func (r *Registry) CreateMasterEdition(tx *gorm.DB, mintAddress, authority string) (*models.TokenMetadata, error) {
	md, err := r.Get(tx, mintAddress)
	if err != nil {
		return nil, err
	}
	if md.UpdateAuthority != authority {
		return nil, ErrUpdateAuthority
	}
	if md.MasterEdition != "" {
		return nil, ErrMasterEditionExists
	}

	mintKey, err := ntsolana.ParsePublicKey(mintAddress)
	if err != nil {
		return nil, err
	}
	edition, err := r.deriver.GetMasterEditionPDA(mintKey)
	if err != nil {
		return nil, err
	}
	if err := r.ledger.RevokeMintAuthority(tx, mintAddress, authority); err != nil {
		return nil, err
	}

	md.MasterEdition = edition.Address.String()
	if err := tx.Save(md).Error; err != nil {
		return nil, fmt.Errorf("failed to save master edition: %w", err)
	}
	return md, nil
}

// Get loads the metadata of a mint, locking it for the rest of the transaction
func (r *Registry) Get(tx *gorm.DB, mintAddress string) (*models.TokenMetadata, error) {
	pda, err := r.metadataPDA(mintAddress)
	if err != nil {
		return nil, err
	}
	var md models.TokenMetadata
	if err := config.ForUpdate(tx).First(&md, "address = ?", pda.Address.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMetadataNotFound
		}
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}
	return &md, nil
}

// UpdateAuthority hands the update authority from current to next
func (r *Registry) UpdateAuthority(tx *gorm.DB, mintAddress, current, next string) error {
	md, err := r.Get(tx, mintAddress)
	if err != nil {
		return err
	}
	if md.UpdateAuthority != current {
		return ErrUpdateAuthority
	}
	if _, err := ntsolana.ParsePublicKey(next); err != nil {
		return err
	}
	md.UpdateAuthority = next
	if err := tx.Save(md).Error; err != nil {
		return fmt.Errorf("failed to update authority: %w", err)
	}
	return nil
}

// MarkPrimarySaleHappened flips the one-time primary sale flag. The holder
// token account must be owned by owner and contain the token.
func (r *Registry) MarkPrimarySaleHappened(tx *gorm.DB, mintAddress, holderToken, owner string) error {
	holder, err := r.ledger.Account(tx, holderToken)
	if err != nil {
		return err
	}
	if holder.Mint != mintAddress || holder.OwnerAddress != owner || holder.Amount != 1 {
		return ErrInvalidHolder
	}
	md, err := r.Get(tx, mintAddress)
	if err != nil {
		return err
	}
	if md.PrimarySaleHappened {
		return nil
	}
	md.PrimarySaleHappened = true
	if err := tx.Save(md).Error; err != nil {
		return fmt.Errorf("failed to mark primary sale: %w", err)
	}
	return nil
}

func (r *Registry) metadataPDA(mintAddress string) (ntsolana.PDAResult, error) {
	mintKey, err := ntsolana.ParsePublicKey(mintAddress)
	if err != nil {
		return ntsolana.PDAResult{}, err
	}
	return r.deriver.GetMetadataPDA(mintKey)
}

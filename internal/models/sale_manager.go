package models

import "time"

type SaleState uint8

const (
	SaleStateNone   SaleState = 0
	SaleStateListed SaleState = 1
	SaleStateSold   SaleState = 2
)

func (s SaleState) String() string {
	switch s {
	case SaleStateNone:
		return "none"
	case SaleStateListed:
		return "listed"
	case SaleStateSold:
		return "sold"
	}
	return "unknown"
}

// SaleManager is the per (pool, mint) listing state machine. It owns the
// escrow accounts NftPot and PoolPot.
type SaleManager struct {
	Address      string    `gorm:"size:44;primaryKey" json:"address"`
	Pool         string    `gorm:"size:44;not null;uniqueIndex:idx_sale_manager_pool_mint" json:"pool"`
	NftMint      string    `gorm:"size:44;not null;uniqueIndex:idx_sale_manager_pool_mint" json:"nft_mint"`
	Seller       string    `gorm:"size:44;default:''" json:"seller"`
	NftPot       string    `gorm:"size:44;not null" json:"nft_pot"`
	PoolPot      string    `gorm:"size:44;not null" json:"pool_pot"`
	SalePot      string    `gorm:"size:44;default:''" json:"sale_pot"`
	AuctionData  string    `gorm:"size:44;default:''" json:"auction_data"`
	Price        uint64    `gorm:"not null;default:0" json:"price"`
	SaleState    SaleState `gorm:"not null;default:0" json:"sale_state"`
	IsAuction    bool      `gorm:"default:false" json:"is_auction"`
	Bump         uint8     `gorm:"not null" json:"bump"`
	ListingCount uint64    `gorm:"not null;default:0" json:"listing_count"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (SaleManager) TableName() string {
	return "sale_manager"
}

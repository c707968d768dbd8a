package models

import "time"

// TokenMetadata is the registry record of a unique token
type TokenMetadata struct {
	Address              string    `gorm:"size:44;primaryKey" json:"address"`
	Mint                 string    `gorm:"size:44;uniqueIndex;not null" json:"mint"`
	UpdateAuthority      string    `gorm:"size:44;not null" json:"update_authority"`
	Name                 string    `gorm:"size:32;not null" json:"name"`
	Symbol               string    `gorm:"size:10;default:''" json:"symbol"`
	Uri                  string    `gorm:"size:200;default:''" json:"uri"`
	SellerFeeBasisPoints uint16    `gorm:"not null;default:0" json:"seller_fee_basis_points"`
	Creators             Creators  `gorm:"type:jsonb" json:"creators"`
	PrimarySaleHappened  bool      `gorm:"default:false" json:"primary_sale_happened"`
	IsMutable            bool      `json:"is_mutable"`
	MasterEdition        string    `gorm:"size:44;default:''" json:"master_edition"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TokenMetadata) TableName() string {
	return "token_metadata"
}

package models

import "time"

// TokenMint is a token type in the ledger. MintAuthority is empty once revoked.
type TokenMint struct {
	Address       string    `gorm:"size:44;primaryKey" json:"address"`
	Decimals      uint8     `gorm:"not null" json:"decimals"`
	Supply        uint64    `gorm:"not null;default:0" json:"supply"`
	MintAuthority string    `gorm:"size:44;default:''" json:"mint_authority"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (TokenMint) TableName() string {
	return "token_mint"
}

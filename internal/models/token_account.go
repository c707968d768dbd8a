package models

import "time"

type TokenAccount struct {
	AccountAddress string    `gorm:"size:44;primaryKey" json:"account_address"`
	OwnerAddress   string    `gorm:"size:44;not null;index" json:"owner_address"`
	Mint           string    `gorm:"size:44;not null;index" json:"mint"`
	Amount         uint64    `gorm:"not null;default:0" json:"amount"`
	IsClose        bool      `gorm:"default:false" json:"is_close"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TokenAccount) TableName() string {
	return "token_account"
}

package models

import "time"

// Pool is one marketplace instance bound to a single payment currency
type Pool struct {
	Address   string    `gorm:"size:44;primaryKey" json:"address"`
	Owner     string    `gorm:"size:44;not null;index" json:"owner"`
	SaleMint  string    `gorm:"size:44;not null" json:"sale_mint"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Pool) TableName() string {
	return "pool"
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

const MaxCreatorLimit = 6

// Creator is a royalty recipient snapshot
type Creator struct {
	Address  string `json:"address"`
	Verified bool   `json:"verified"`
	Share    uint8  `json:"share"`
}

// Creators is stored as a jsonb column
type Creators []Creator

// Value implements the driver.Valuer interface
func (c Creators) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (c *Creators) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("type assertion to []byte or string failed")
	}
	return json.Unmarshal(data, c)
}

// ShareSum returns the total creator share in percent
func (c Creators) ShareSum() int {
	sum := 0
	for _, cr := range c {
		sum += int(cr.Share)
	}
	return sum
}

// SalePot is the settlement record of one listing
type SalePot struct {
	Address              string    `gorm:"size:44;primaryKey" json:"address"`
	Index                uint64    `gorm:"not null" json:"index"`
	Bump                 uint8     `gorm:"not null" json:"bump"`
	IsUsed               bool      `gorm:"default:false" json:"is_used"`
	SaleManager          string    `gorm:"size:44;not null;index" json:"sale_manager"`
	PoolPot              string    `gorm:"size:44;not null" json:"pool_pot"`
	Price                uint64    `gorm:"not null" json:"price"`
	SellerFeeBasisPoints uint16    `gorm:"not null;default:0" json:"seller_fee_basis_points"`
	IsPrimary            bool      `gorm:"default:false" json:"is_primary"`
	Seller               string    `gorm:"size:44;not null" json:"seller"`
	SellerVerified       bool      `gorm:"default:false" json:"seller_verified"`
	Creators             Creators  `gorm:"type:jsonb" json:"creators"`
	Received             uint64    `gorm:"not null;default:0" json:"received"`
	PaidOut              uint64    `gorm:"not null;default:0" json:"paid_out"`
	CreatedAt            time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt            time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (SalePot) TableName() string {
	return "sale_pot"
}

// Settled reports whether every payee with a non-zero entitlement has withdrawn
func (p *SalePot) Settled() bool {
	if !p.SellerVerified {
		return false
	}
	for _, c := range p.Creators {
		if c.Share > 0 && !c.Verified {
			return false
		}
	}
	return true
}

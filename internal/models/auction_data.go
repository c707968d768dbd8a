package models

import "time"

type AuctionState uint8

const (
	AuctionStateNone   AuctionState = 0
	AuctionStateActive AuctionState = 1
	AuctionStateHasBid AuctionState = 2
	AuctionStateEnded  AuctionState = 3
)

func (s AuctionState) String() string {
	switch s {
	case AuctionStateNone:
		return "none"
	case AuctionStateActive:
		return "active"
	case AuctionStateHasBid:
		return "has_bid"
	case AuctionStateEnded:
		return "ended"
	}
	return "unknown"
}

const DefaultGapTickPercentage uint8 = 10

// AuctionData tracks the deadline and highest bid of an auction listing
type AuctionData struct {
	Address           string       `gorm:"size:44;primaryKey" json:"address"`
	Index             uint64       `gorm:"not null" json:"index"`
	Bump              uint8        `gorm:"not null" json:"bump"`
	SaleManager       string       `gorm:"size:44;not null;index" json:"sale_manager"`
	EndedAt           int64        `gorm:"not null;index" json:"ended_at"`
	LastBidder        string       `gorm:"size:44;default:''" json:"last_bidder"`
	LastBidderToken   string       `gorm:"size:44;default:''" json:"last_bidder_token"`
	AuctionState      AuctionState `gorm:"not null;default:0;index" json:"auction_state"`
	GapTickPercentage uint8        `gorm:"not null" json:"gap_tick_percentage"`
	CreatedAt         time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

func (AuctionData) TableName() string {
	return "auction_data"
}

// EffectiveState is the state a reader should see at unix time now:
// a live auction past its deadline reads as ended.
func (a *AuctionData) EffectiveState(now int64) AuctionState {
	if (a.AuctionState == AuctionStateActive || a.AuctionState == AuctionStateHasBid) && now >= a.EndedAt {
		return AuctionStateEnded
	}
	return a.AuctionState
}

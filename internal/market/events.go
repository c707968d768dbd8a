package market

// MarketEventsQueue is the queue committed transitions are published to
const MarketEventsQueue = "nft_market_events"

type EventType string

const (
	EventPoolCreated        EventType = "pool_created"
	EventPoolOwnerChanged   EventType = "pool_owner_changed"
	EventTokenMinted        EventType = "token_minted"
	EventSaleManagerCreated EventType = "sale_manager_created"
	EventListed             EventType = "listed"
	EventAuctionListed      EventType = "auction_listed"
	EventSold               EventType = "sold"
	EventRedeemed           EventType = "redeemed"
	EventBidPlaced          EventType = "bid_placed"
	EventAuctionEnded       EventType = "auction_ended"
	EventClaimed            EventType = "claimed"
	EventWithdrawn          EventType = "withdrawn"
)

// Event is a notification about a committed transition
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	Pool        string    `json:"pool,omitempty"`
	SaleManager string    `json:"sale_manager,omitempty"`
	NftMint     string    `json:"nft_mint,omitempty"`
	SalePot     string    `json:"sale_pot,omitempty"`
	AuctionData string    `json:"auction_data,omitempty"`
	Actor       string    `json:"actor,omitempty"`
	Amount      uint64    `json:"amount,omitempty"`
	EndedAt     int64     `json:"ended_at,omitempty"`
	Timestamp   int64     `json:"timestamp"`
}

// Publisher delivers a message to a named queue
type Publisher interface {
	Publish(queueName string, message interface{}) error
}

// MessageID lets broker publishers tag deliveries with the event id
func (e Event) MessageID() string {
	return e.ID
}

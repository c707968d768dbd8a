package models

// All lists every persisted model in dependency order
func All() []interface{} {
	return []interface{}{
		&TokenMint{},
		&TokenAccount{},
		&TokenMetadata{},
		&Pool{},
		&SaleManager{},
		&SalePot{},
		&AuctionData{},
	}
}

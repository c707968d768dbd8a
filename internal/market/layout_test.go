package market

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/web-developer77/nifty-tunes-nft/internal/models"
	ntsolana "github.com/web-developer77/nifty-tunes-nft/pkg/solana"
)

func TestAccountLayouts(t *testing.T) {
	pool := &models.Pool{Owner: ntsolana.NewAddress(), SaleMint: ntsolana.NewAddress()}
	sm := &models.SaleManager{
		Pool:         ntsolana.NewAddress(),
		NftMint:      ntsolana.NewAddress(),
		NftPot:       ntsolana.NewAddress(),
		PoolPot:      ntsolana.NewAddress(),
		Price:        42,
		SaleState:    models.SaleStateListed,
		ListingCount: 3,
	}
	pot := &models.SalePot{
		SaleManager: ntsolana.NewAddress(),
		Seller:      ntsolana.NewAddress(),
		Creators:    models.Creators{{Address: ntsolana.NewAddress(), Share: 100}},
	}
	ad := &models.AuctionData{SaleManager: ntsolana.NewAddress(), EndedAt: 1_700_000_000}

	tests := []struct {
		name   string
		encode func() ([]byte, error)
		size   int
	}{
		{"Pool", func() ([]byte, error) { return EncodePool(pool) }, PoolSize},
		{"SaleManager", func() ([]byte, error) { return EncodeSaleManager(sm) }, SaleManagerSize},
		{"SalePot", func() ([]byte, error) { return EncodeSalePot(pot) }, SalePotSize},
		{"AuctionData", func() ([]byte, error) { return EncodeAuctionData(ad) }, AuctionDataSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.encode()
			require.NoError(t, err)
			assert.Len(t, data, DiscriminatorSize+tt.size)
			d := discriminator(tt.name)
			assert.True(t, bytes.HasPrefix(data, d[:]))
		})
	}

	t.Run("Sizes", func(t *testing.T) {
		assert.Equal(t, 64, PoolSize)
		assert.Equal(t, 243, SaleManagerSize)
		assert.Equal(t, 339, SalePotSize)
		assert.Equal(t, 115, AuctionDataSize)
	})

	t.Run("Too Many Creators", func(t *testing.T) {
		big := &models.SalePot{Creators: make(models.Creators, models.MaxCreatorLimit+1)}
		_, err := EncodeSalePot(big)
		assert.Error(t, err)
	})
}

func TestGetRawAccount(t *testing.T) {
	f := newFixture(t)

	seller, _ := f.wallet(0)
	_, sellerNft, sm := f.mintNFT(seller, 0, models.Creators{{Address: seller, Share: 100}})
	receipt, err := f.engine.SellByAuction(f.ctx, f.sellParams(seller, sellerNft, sm, 10), 60)
	require.NoError(t, err)

	tests := []struct {
		address string
		kind    string
		size    int
	}{
		{f.pool.Address, "Pool", PoolSize},
		{sm.Address, "SaleManager", SaleManagerSize},
		{receipt.SalePot.Address, "SalePot", SalePotSize},
		{receipt.AuctionData.Address, "AuctionData", AuctionDataSize},
	}
	for _, tt := range tests {
		raw, err := f.engine.GetRawAccount(f.ctx, tt.address)
		require.NoError(t, err)
		assert.Equal(t, tt.kind, raw.Kind)
		assert.Len(t, raw.Data, DiscriminatorSize+tt.size)
		assert.Equal(t, f.engine.Deriver().ProgramID().String(), raw.Owner)
	}

	_, err = f.engine.GetRawAccount(f.ctx, ntsolana.NewAddress())
	assert.ErrorIs(t, err, ErrNotFound)
}

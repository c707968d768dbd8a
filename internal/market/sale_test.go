package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/web-developer77/nifty-tunes-nft/internal/models"
	ntsolana "github.com/web-developer77/nifty-tunes-nft/pkg/solana"
)

func TestFixedPriceSale(t *testing.T) {
	f := newFixture(t)

	artist, artistPay := f.wallet(0)
	buyer, buyerPay := f.wallet(1000)
	collector, collectorPay := f.wallet(5000)

	mint, artistNft, sm := f.mintNFT(artist, 250, models.Creators{{Address: artist, Share: 100}})
	buyerNft := f.nftAccount(buyer, mint)
	collectorNft := f.nftAccount(collector, mint)

	t.Run("Primary Sale", func(t *testing.T) {
		receipt, err := f.engine.Sell(f.ctx, f.sellParams(artist, artistNft, sm, 100))
		require.NoError(t, err)
		assert.Equal(t, models.SaleStateListed, receipt.SaleManager.SaleState)
		assert.True(t, receipt.SalePot.IsPrimary)
		assert.True(t, receipt.SalePot.SellerVerified, "primary sales pay creators only")
		assert.Equal(t, uint64(1), f.balance(sm.NftPot))

		md, err := f.engine.GetMetadata(f.ctx, mint)
		require.NoError(t, err)
		assert.Equal(t, sm.Address, md.UpdateAuthority)

		receipt, err = f.engine.Buy(f.ctx, f.buyParams(buyer, buyerNft, buyerPay, sm))
		require.NoError(t, err)
		assert.Equal(t, models.SaleStateSold, receipt.SaleManager.SaleState)
		assert.Equal(t, uint64(1), f.balance(buyerNft))
		assert.Equal(t, uint64(900), f.balance(buyerPay))
		assert.Equal(t, uint64(100), f.balance(sm.PoolPot))

		md, err = f.engine.GetMetadata(f.ctx, mint)
		require.NoError(t, err)
		assert.True(t, md.PrimarySaleHappened)
		assert.Equal(t, buyer, md.UpdateAuthority)
	})

	t.Run("Creator Withdraws And Cycle Closes", func(t *testing.T) {
		pot := f.saleManager(mint).SalePot

		receipt, err := f.engine.Withdraw(f.ctx, WithdrawParams{Payee: artist, SalePot: pot, WithdrawToken: artistPay})
		require.NoError(t, err)
		assert.Equal(t, uint64(100), receipt.Amount)
		assert.Equal(t, uint64(100), f.balance(artistPay))
		assert.Equal(t, uint64(0), f.balance(sm.PoolPot))
		assert.Equal(t, models.SaleStateNone, f.saleManager(mint).SaleState)

		_, err = f.engine.Withdraw(f.ctx, WithdrawParams{Payee: artist, SalePot: pot, WithdrawToken: artistPay})
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = f.engine.Withdraw(f.ctx, WithdrawParams{Payee: buyer, SalePot: pot, WithdrawToken: buyerPay})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("Secondary Sale Splits Seller And Royalty", func(t *testing.T) {
		_, err := f.engine.Sell(f.ctx, f.sellParams(buyer, buyerNft, sm, 1000))
		require.NoError(t, err)
		listed := f.saleManager(mint)
		assert.Equal(t, uint64(2), listed.ListingCount)

		pot, err := f.engine.GetSalePot(f.ctx, listed.SalePot)
		require.NoError(t, err)
		assert.False(t, pot.IsPrimary)
		assert.Equal(t, uint64(1), pot.Index)
		assert.Equal(t, uint16(250), pot.SellerFeeBasisPoints)

		_, err = f.engine.Buy(f.ctx, f.buyParams(collector, collectorNft, collectorPay, sm))
		require.NoError(t, err)
		assert.Equal(t, uint64(4000), f.balance(collectorPay))

		_, err = f.engine.Withdraw(f.ctx, WithdrawParams{Payee: buyer, SalePot: ntsolana.NewAddress(), WithdrawToken: buyerPay})
		assert.ErrorIs(t, err, ErrInvalidSalePotAccount)

		receipt, err := f.engine.Withdraw(f.ctx, WithdrawParams{Payee: buyer, SalePot: pot.Address, WithdrawToken: buyerPay})
		require.NoError(t, err)
		assert.Equal(t, uint64(975), receipt.Amount)
		assert.Equal(t, models.SaleStateSold, f.saleManager(mint).SaleState, "royalty still owed")

		receipt, err = f.engine.Withdraw(f.ctx, WithdrawParams{Payee: artist, SalePot: pot.Address, WithdrawToken: artistPay})
		require.NoError(t, err)
		assert.Equal(t, uint64(25), receipt.Amount)

		assert.Equal(t, uint64(0), f.balance(sm.PoolPot))
		assert.Equal(t, models.SaleStateNone, f.saleManager(mint).SaleState)

		pots, err := f.engine.ListSalePots(f.ctx, sm.Address)
		require.NoError(t, err)
		require.Len(t, pots, 2)
		assert.Equal(t, uint64(1), pots[0].Index)
		assert.True(t, pots[0].Settled())
		assert.Equal(t, pots[0].Received, pots[0].PaidOut)
	})

	t.Run("Events", func(t *testing.T) {
		types := f.eventTypes()
		assert.Contains(t, types, EventListed)
		assert.Contains(t, types, EventSold)
		assert.Contains(t, types, EventWithdrawn)
		for _, q := range f.events.Queues {
			assert.Equal(t, MarketEventsQueue, q)
		}
		for _, m := range f.events.Messages {
			assert.NotEmpty(t, m.(Event).ID)
		}
	})
}

func TestSellRedeemRoundTrip(t *testing.T) {
	f := newFixture(t)

	seller, _ := f.wallet(0)
	other, _ := f.wallet(0)
	mint, sellerNft, sm := f.mintNFT(seller, 500, models.Creators{{Address: seller, Share: 100}})

	before, err := f.engine.GetMetadata(f.ctx, mint)
	require.NoError(t, err)

	_, err = f.engine.Sell(f.ctx, f.sellParams(seller, sellerNft, sm, 42))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), f.balance(sellerNft))

	t.Run("Only Seller Redeems", func(t *testing.T) {
		_, err := f.engine.Redeem(f.ctx, RedeemParams{Seller: other, Pool: f.pool.Address, NftMint: mint, SellerToken: f.nftAccount(other, mint)})
		assert.ErrorIs(t, err, ErrInvalidSeller)
	})

	t.Run("Redeem Restores Custody", func(t *testing.T) {
		receipt, err := f.engine.Redeem(f.ctx, RedeemParams{Seller: seller, Pool: f.pool.Address, NftMint: mint, SellerToken: sellerNft})
		require.NoError(t, err)
		assert.Equal(t, models.SaleStateNone, receipt.SaleManager.SaleState)
		assert.Equal(t, uint64(1), f.balance(sellerNft))
		assert.Equal(t, uint64(0), f.balance(sm.NftPot))

		after, err := f.engine.GetMetadata(f.ctx, mint)
		require.NoError(t, err)
		assert.Equal(t, before.UpdateAuthority, after.UpdateAuthority)
		assert.Equal(t, before.PrimarySaleHappened, after.PrimarySaleHappened)
	})

	t.Run("Redeem Twice", func(t *testing.T) {
		_, err := f.engine.Redeem(f.ctx, RedeemParams{Seller: seller, Pool: f.pool.Address, NftMint: mint, SellerToken: sellerNft})
		assert.ErrorIs(t, err, ErrInvalidSaleState)
	})

	t.Run("Relist After Redeem", func(t *testing.T) {
		receipt, err := f.engine.Sell(f.ctx, f.sellParams(seller, sellerNft, sm, 50))
		require.NoError(t, err)
		assert.Equal(t, uint64(1), receipt.SalePot.Index)
	})
}

func TestSaleRejections(t *testing.T) {
	f := newFixture(t)

	seller, sellerPay := f.wallet(10)
	poor, poorPay := f.wallet(10)
	mint, sellerNft, sm := f.mintNFT(seller, 0, models.Creators{{Address: seller, Share: 100}})

	t.Run("Duplicate Sale Manager", func(t *testing.T) {
		_, err := f.engine.InitSaleManager(f.ctx, seller, f.pool.Address, mint)
		assert.ErrorIs(t, err, ErrAlreadyInitialized)
	})

	t.Run("Zero Price", func(t *testing.T) {
		_, err := f.engine.Sell(f.ctx, f.sellParams(seller, sellerNft, sm, 0))
		assert.ErrorIs(t, err, ErrInvalidPrice)
	})

	t.Run("Not The Holder", func(t *testing.T) {
		_, err := f.engine.Sell(f.ctx, f.sellParams(poor, f.nftAccount(poor, mint), sm, 10))
		assert.ErrorIs(t, err, ErrInvalidTokenAccount)
	})

	t.Run("Wrong Escrow Account", func(t *testing.T) {
		p := f.sellParams(seller, sellerNft, sm, 10)
		p.ManagerPot = sellerPay
		_, err := f.engine.Sell(f.ctx, p)
		assert.ErrorIs(t, err, ErrInvalidTokenAccount)
	})

	t.Run("Unknown Pool", func(t *testing.T) {
		p := f.sellParams(seller, sellerNft, sm, 10)
		p.Pool = ntsolana.NewAddress()
		_, err := f.engine.Sell(f.ctx, p)
		assert.ErrorIs(t, err, ErrInvalidPoolAccount)
	})

	_, err := f.engine.Sell(f.ctx, f.sellParams(seller, sellerNft, sm, 100))
	require.NoError(t, err)

	t.Run("List Twice", func(t *testing.T) {
		_, err := f.engine.Sell(f.ctx, f.sellParams(seller, sellerNft, sm, 100))
		assert.ErrorIs(t, err, ErrInvalidSaleState)
	})

	t.Run("Seller Cannot Buy", func(t *testing.T) {
		_, err := f.engine.Buy(f.ctx, f.buyParams(seller, sellerNft, sellerPay, sm))
		assert.ErrorIs(t, err, ErrInvalidBidder)
	})

	t.Run("Insufficient Funds Leaves State Untouched", func(t *testing.T) {
		_, err := f.engine.Buy(f.ctx, f.buyParams(poor, f.nftAccount(poor, mint), poorPay, sm))
		assert.ErrorIs(t, err, ErrNotEnoughTokenAmount)

		assert.Equal(t, uint64(10), f.balance(poorPay))
		assert.Equal(t, uint64(1), f.balance(sm.NftPot))
		assert.Equal(t, models.SaleStateListed, f.saleManager(mint).SaleState)
	})

	t.Run("Bid On Fixed Price Listing", func(t *testing.T) {
		_, err := f.engine.PlaceBid(f.ctx, BidParams{Bidder: poor, Pool: f.pool.Address, NftMint: mint, BidderToken: poorPay, Amount: 100})
		assert.ErrorIs(t, err, ErrInvalidAuctionMode)
	})

	t.Run("Withdraw From Unsold Pot", func(t *testing.T) {
		_, err := f.engine.Withdraw(f.ctx, WithdrawParams{Payee: seller, SalePot: f.saleManager(mint).SalePot, WithdrawToken: sellerPay})
		assert.ErrorIs(t, err, ErrInvalidSaleState)
	})
}

func TestPoolOwnership(t *testing.T) {
	f := newFixture(t)
	newOwner := ntsolana.NewAddress()

	_, err := f.engine.TransferPoolOwnership(f.ctx, newOwner, f.pool.Address, newOwner)
	assert.ErrorIs(t, err, ErrInvalidOwner)

	pool, err := f.engine.TransferPoolOwnership(f.ctx, f.pool.Owner, f.pool.Address, newOwner)
	require.NoError(t, err)
	assert.Equal(t, newOwner, pool.Owner)

	_, err = f.engine.CreatePool(f.ctx, newOwner, ntsolana.NewAddress())
	assert.ErrorIs(t, err, ErrInvalidMintAccount)
}

func TestPoolCurrencyMint(t *testing.T) {
	f := newFixture(t)
	owner := ntsolana.NewAddress()

	t.Run("Unique Token Is Not A Currency", func(t *testing.T) {
		artist, _ := f.wallet(0)
		nft, _, _ := f.mintNFT(artist, 0, models.Creators{{Address: artist, Share: 100}})
		_, err := f.engine.CreatePool(f.ctx, owner, nft)
		assert.ErrorIs(t, err, ErrInvalidMintAccount)
	})

	t.Run("Fixed Single Unit Mint", func(t *testing.T) {
		authority := ntsolana.NewAddress()
		mint, err := f.engine.CreateMint(f.ctx, authority, 0)
		require.NoError(t, err)
		acc, err := f.engine.CreateTokenAccount(f.ctx, authority, mint.Address)
		require.NoError(t, err)
		_, err = f.engine.MintTo(f.ctx, mint.Address, acc.AccountAddress, authority, 1)
		require.NoError(t, err)

		// still mintable, so it may grow into a currency
		_, err = f.engine.CreatePool(f.ctx, owner, mint.Address)
		require.NoError(t, err)

		err = f.engine.DB().Transaction(func(tx *gorm.DB) error {
			return f.engine.Ledger().RevokeMintAuthority(tx, mint.Address, authority)
		})
		require.NoError(t, err)
		_, err = f.engine.CreatePool(f.ctx, owner, mint.Address)
		assert.ErrorIs(t, err, ErrInvalidMintAccount)
	})

	t.Run("Whole Unit Currency", func(t *testing.T) {
		mint, err := f.engine.CreateMint(f.ctx, ntsolana.NewAddress(), 0)
		require.NoError(t, err)
		pool, err := f.engine.CreatePool(f.ctx, owner, mint.Address)
		require.NoError(t, err)
		assert.Equal(t, mint.Address, pool.SaleMint)
	})
}

func TestListingWithoutPayees(t *testing.T) {
	f := newFixture(t)
	seller, _ := f.wallet(0)

	tests := []struct {
		name     string
		creators models.Creators
	}{
		{"No Creators", models.Creators{}},
		{"Zero Shares", models.Creators{{Address: seller, Share: 0}, {Address: ntsolana.NewAddress(), Share: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mint, sellerNft, sm := f.mintNFT(seller, 0, tt.creators)
			_, err := f.engine.Sell(f.ctx, f.sellParams(seller, sellerNft, sm, 100))
			assert.ErrorIs(t, err, ErrInvalidMetadata)
			assert.Equal(t, uint64(1), f.balance(sellerNft))
			assert.Equal(t, models.SaleStateNone, f.saleManager(mint).SaleState)
		})
	}
}

func TestRoyaltyOnlyResale(t *testing.T) {
	f := newFixture(t)

	artist, artistPay := f.wallet(0)
	buyer, buyerPay := f.wallet(100)
	collector, collectorPay := f.wallet(100)
	mint, artistNft, sm := f.mintNFT(artist, 10000, models.Creators{{Address: artist, Share: 100}})
	buyerNft := f.nftAccount(buyer, mint)

	_, err := f.engine.Sell(f.ctx, f.sellParams(artist, artistNft, sm, 40))
	require.NoError(t, err)
	_, err = f.engine.Buy(f.ctx, f.buyParams(buyer, buyerNft, buyerPay, sm))
	require.NoError(t, err)
	_, err = f.engine.Withdraw(f.ctx, WithdrawParams{Payee: artist, SalePot: f.saleManager(mint).SalePot, WithdrawToken: artistPay})
	require.NoError(t, err)

	listed, err := f.engine.Sell(f.ctx, f.sellParams(buyer, buyerNft, sm, 60))
	require.NoError(t, err)
	assert.True(t, listed.SalePot.SellerVerified, "the seller has no share at full royalty")

	sold, err := f.engine.Buy(f.ctx, f.buyParams(collector, f.nftAccount(collector, mint), collectorPay, sm))
	require.NoError(t, err)
	assert.Equal(t, models.SaleStateSold, sold.SaleManager.SaleState)

	_, err = f.engine.Withdraw(f.ctx, WithdrawParams{Payee: buyer, SalePot: listed.SalePot.Address, WithdrawToken: buyerPay})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	receipt, err := f.engine.Withdraw(f.ctx, WithdrawParams{Payee: artist, SalePot: listed.SalePot.Address, WithdrawToken: artistPay})
	require.NoError(t, err)
	assert.Equal(t, uint64(60), receipt.Amount)
	assert.Equal(t, models.SaleStateNone, f.saleManager(mint).SaleState)
	assert.Equal(t, uint64(0), f.balance(sm.PoolPot))
}

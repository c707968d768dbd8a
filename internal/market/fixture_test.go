package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/web-developer77/nifty-tunes-nft/internal/models"
	"github.com/web-developer77/nifty-tunes-nft/internal/testutil"
	"github.com/web-developer77/nifty-tunes-nft/pkg/metadata"
	ntsolana "github.com/web-developer77/nifty-tunes-nft/pkg/solana"
)

// fixture is a market with one pool priced in a fresh payment mint
type fixture struct {
	t        *testing.T
	ctx      context.Context
	engine   *Engine
	clock    *testutil.Clock
	events   *testutil.Recorder
	treasury string
	payMint  string
	pool     *models.Pool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		clock:    testutil.NewClock(time.Unix(1_700_000_000, 0)),
		events:   &testutil.Recorder{},
		treasury: ntsolana.NewAddress(),
	}
	f.engine = NewEngine(testutil.NewDB(t), ntsolana.NewDefaultDeriver(),
		WithClock(f.clock.Now), WithPublisher(f.events))

	mint, err := f.engine.CreateMint(f.ctx, f.treasury, 6)
	require.NoError(t, err)
	f.payMint = mint.Address

	f.pool, err = f.engine.CreatePool(f.ctx, ntsolana.NewAddress(), f.payMint)
	require.NoError(t, err)
	return f
}

// wallet creates a wallet holding funds of the payment mint and returns it with its pay account
func (f *fixture) wallet(funds uint64) (string, string) {
	f.t.Helper()
	owner := ntsolana.NewAddress()
	acc, err := f.engine.CreateTokenAccount(f.ctx, owner, f.payMint)
	require.NoError(f.t, err)
	if funds > 0 {
		_, err = f.engine.MintTo(f.ctx, f.payMint, acc.AccountAddress, f.treasury, funds)
		require.NoError(f.t, err)
	}
	return owner, acc.AccountAddress
}

// mintNFT mints a unique token to owner and opens its sale manager in the pool
func (f *fixture) mintNFT(owner string, fee uint16, creators models.Creators) (string, string, *models.SaleManager) {
	f.t.Helper()
	mint, err := f.engine.CreateMint(f.ctx, owner, 0)
	require.NoError(f.t, err)
	acc, err := f.engine.CreateTokenAccount(f.ctx, owner, mint.Address)
	require.NoError(f.t, err)

	_, err = f.engine.MintUniqueToken(f.ctx, MintParams{
		Owner:        owner,
		Mint:         mint.Address,
		TokenAccount: acc.AccountAddress,
		Data: metadata.Data{
			Name:                 "Track",
			Symbol:               "NTT",
			Uri:                  "https://example.com/track.json",
			SellerFeeBasisPoints: fee,
			Creators:             creators,
		},
	})
	require.NoError(f.t, err)

	sm, err := f.engine.InitSaleManager(f.ctx, owner, f.pool.Address, mint.Address)
	require.NoError(f.t, err)
	return mint.Address, acc.AccountAddress, sm
}

// nftAccount opens the token account of owner for a unique mint
func (f *fixture) nftAccount(owner, mint string) string {
	f.t.Helper()
	acc, err := f.engine.CreateTokenAccount(f.ctx, owner, mint)
	require.NoError(f.t, err)
	return acc.AccountAddress
}

func (f *fixture) balance(address string) uint64 {
	f.t.Helper()
	acc, err := f.engine.GetTokenAccount(f.ctx, address)
	require.NoError(f.t, err)
	return acc.Amount
}

func (f *fixture) saleManager(mint string) *models.SaleManager {
	f.t.Helper()
	sm, err := f.engine.GetSaleManager(f.ctx, f.pool.Address, mint)
	require.NoError(f.t, err)
	return sm
}

func (f *fixture) sellParams(seller, sellerToken string, sm *models.SaleManager, price uint64) SellParams {
	return SellParams{
		Seller:       seller,
		Pool:         f.pool.Address,
		NftMint:      sm.NftMint,
		SellerToken:  sellerToken,
		ManagerToken: sm.NftPot,
		ManagerPot:   sm.PoolPot,
		Price:        price,
	}
}

func (f *fixture) buyParams(buyer, nftToken, payToken string, sm *models.SaleManager) BuyParams {
	return BuyParams{
		Buyer:         buyer,
		Pool:          f.pool.Address,
		NftMint:       sm.NftMint,
		BuyerNftToken: nftToken,
		BuyerPayToken: payToken,
		ManagerToken:  sm.NftPot,
		ManagerPot:    sm.PoolPot,
	}
}

func (f *fixture) eventTypes() []EventType {
	var types []EventType
	for _, m := range f.events.Messages {
		types = append(types, m.(Event).Type)
	}
	return types
}

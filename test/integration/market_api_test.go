package integration

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/web-developer77/nifty-tunes-nft/internal/handlers"
	"github.com/web-developer77/nifty-tunes-nft/internal/market"
	"github.com/web-developer77/nifty-tunes-nft/internal/models"
	"github.com/web-developer77/nifty-tunes-nft/pkg/client"
)

func TestMarketAPI(t *testing.T) {
	api := newTestAPI(t)
	treasury := api.wallet()
	artist := api.wallet()
	buyer := api.wallet()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(api.server.URL, "http")+"/ws/events", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return api.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	var payMint, nftMint models.TokenMint
	var pool models.Pool
	var artistPay, artistNft, buyerPay, buyerNft models.TokenAccount
	var sm models.SaleManager

	// Test Case 1: Set up mints, accounts and a pool
	t.Run("Set Up", func(t *testing.T) {
		require.NoError(t, treasury.Post(api.ctx, "/token/mint", handlers.CreateMintRequest{Decimals: 6}, &payMint))
		assert.Equal(t, treasury.Signer(), payMint.MintAuthority)
		require.NoError(t, artist.Post(api.ctx, "/token/mint", handlers.CreateMintRequest{Decimals: 0}, &nftMint))

		require.NoError(t, artist.Post(api.ctx, "/token/accounts", handlers.CreateTokenAccountRequest{Mint: payMint.Address}, &artistPay))
		require.NoError(t, artist.Post(api.ctx, "/token/accounts", handlers.CreateTokenAccountRequest{Mint: nftMint.Address}, &artistNft))
		require.NoError(t, buyer.Post(api.ctx, "/token/accounts", handlers.CreateTokenAccountRequest{Mint: payMint.Address}, &buyerPay))
		require.NoError(t, buyer.Post(api.ctx, "/token/accounts", handlers.CreateTokenAccountRequest{Mint: nftMint.Address}, &buyerNft))

		require.NoError(t, treasury.Post(api.ctx, "/token/mint-to", handlers.MintToRequest{
			Mint:        payMint.Address,
			Destination: buyerPay.AccountAddress,
			Amount:      500,
		}, &buyerPay))
		assert.Equal(t, uint64(500), buyerPay.Amount)

		require.NoError(t, treasury.Post(api.ctx, "/pool", handlers.CreatePoolRequest{SaleMint: payMint.Address}, &pool))
		assert.Equal(t, treasury.Signer(), pool.Owner)
	})

	// Test Case 2: Stream receives committed events
	t.Run("Event Stream", func(t *testing.T) {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var ev market.Event
		for ev.Type != market.EventPoolCreated {
			require.NoError(t, conn.ReadJSON(&ev))
		}
		assert.Equal(t, pool.Address, ev.Pool)
		assert.NotEmpty(t, ev.ID)
	})

	// Test Case 3: Mint, list and buy
	t.Run("Fixed Price Sale", func(t *testing.T) {
		var md models.TokenMetadata
		require.NoError(t, artist.Post(api.ctx, "/token/mint-unique", handlers.MintTokenRequest{
			Mint:                 nftMint.Address,
			TokenAccount:         artistNft.AccountAddress,
			Name:                 "Track 01",
			Symbol:               "NTT",
			Uri:                  "https://example.com/1.json",
			SellerFeeBasisPoints: 500,
			Creators:             []models.Creator{{Address: artist.Signer(), Share: 100}},
		}, &md))
		assert.Equal(t, artist.Signer(), md.UpdateAuthority)

		require.NoError(t, artist.Post(api.ctx, "/sale/manager", handlers.SaleManagerRequest{Pool: pool.Address, NftMint: nftMint.Address}, &sm))

		var listed market.Receipt
		require.NoError(t, artist.Post(api.ctx, "/sale/sell", handlers.SellRequest{
			Pool:         pool.Address,
			NftMint:      nftMint.Address,
			SellerToken:  artistNft.AccountAddress,
			ManagerToken: sm.NftPot,
			ManagerPot:   sm.PoolPot,
			Price:        200,
		}, &listed))
		assert.Equal(t, models.SaleStateListed, listed.SaleManager.SaleState)

		var listings []models.SaleManager
		require.NoError(t, buyer.Get(api.ctx, fmt.Sprintf("/pool/%s/listings", pool.Address), &listings))
		require.Len(t, listings, 1)
		assert.Equal(t, uint64(200), listings[0].Price)

		var sold market.Receipt
		require.NoError(t, buyer.Post(api.ctx, "/sale/buy", handlers.BuyRequest{
			Pool:          pool.Address,
			NftMint:       nftMint.Address,
			BuyerNftToken: buyerNft.AccountAddress,
			BuyerPayToken: buyerPay.AccountAddress,
			ManagerToken:  sm.NftPot,
			ManagerPot:    sm.PoolPot,
		}, &sold))
		assert.Equal(t, models.SaleStateSold, sold.SaleManager.SaleState)

		var withdrawn market.Receipt
		require.NoError(t, artist.Post(api.ctx, "/sale/withdraw", handlers.WithdrawRequest{
			SalePot:       sold.SalePot.Address,
			WithdrawToken: artistPay.AccountAddress,
		}, &withdrawn))
		assert.Equal(t, uint64(200), withdrawn.Amount)

		var acc models.TokenAccount
		require.NoError(t, artist.Get(api.ctx, "/token/accounts/"+artistPay.AccountAddress, &acc))
		assert.Equal(t, uint64(200), acc.Amount)
	})

	// Test Case 4: Market errors carry their code
	t.Run("Error Mapping", func(t *testing.T) {
		err := buyer.Post(api.ctx, "/sale/redeem", handlers.RedeemRequest{
			Pool:        pool.Address,
			NftMint:     nftMint.Address,
			SellerToken: buyerNft.AccountAddress,
		}, nil)
		var apiErr *client.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusConflict, apiErr.Status)
		assert.Equal(t, market.ErrInvalidSaleState.Code, apiErr.Code)
		assert.Equal(t, market.ErrInvalidSaleState.Name, apiErr.Name)

		err = buyer.Post(api.ctx, "/pool/"+pool.Address+"/owner", handlers.TransferPoolRequest{NewOwner: buyer.Signer()}, nil)
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusForbidden, apiErr.Status)

		err = buyer.Get(api.ctx, "/pool/"+sm.Address, nil)
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusNotFound, apiErr.Status)

		err = buyer.Post(api.ctx, "/sale/buy", map[string]string{"pool": pool.Address}, nil)
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	})

	// Test Case 5: Unsigned transitions are rejected
	t.Run("Unsigned Request", func(t *testing.T) {
		resp, err := api.server.Client().Post(api.server.URL+"/pool", "application/json",
			strings.NewReader(`{"sale_mint":"`+payMint.Address+`"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	// Test Case 6: Raw account encoding
	t.Run("Raw Account", func(t *testing.T) {
		var raw market.RawAccount
		require.NoError(t, buyer.Get(api.ctx, "/account/"+sm.Address, &raw))
		assert.Equal(t, "SaleManager", raw.Kind)
		assert.Len(t, raw.Data, market.DiscriminatorSize+market.SaleManagerSize)
	})
}

package market

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/web-developer77/nifty-tunes-nft/internal/models"
	"github.com/web-developer77/nifty-tunes-nft/pkg/metadata"
)

type SellParams struct {
	Seller       string
	Pool         string
	NftMint      string
	SellerToken  string
	ManagerToken string
	ManagerPot   string
	Price        uint64
}

type BuyParams struct {
	Buyer         string
	Pool          string
	NftMint       string
	BuyerNftToken string
	BuyerPayToken string
	ManagerToken  string
	ManagerPot    string
}

type RedeemParams struct {
	Seller      string
	Pool        string
	NftMint     string
	SellerToken string
}

// Sell lists a token at a fixed price
func (e *Engine) Sell(ctx context.Context, p SellParams) (*Receipt, error) {
	return e.list(ctx, "sell", p, 0)
}

// SellByAuction lists a token in an English auction opening at p.Price and
// closing duration seconds from now
func (e *Engine) SellByAuction(ctx context.Context, p SellParams, duration int64) (*Receipt, error) {
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}
	return e.list(ctx, "sell_by_auction", p, duration)
}

func (e *Engine) list(ctx context.Context, op string, p SellParams, duration int64) (*Receipt, error) {
	if p.Price == 0 {
		return nil, ErrInvalidPrice
	}
	auction := duration > 0
	receipt := &Receipt{}
	err := e.transact(ctx, op, func(tx *gorm.DB) ([]Event, error) {
		pool, err := e.loadPool(tx, p.Pool)
		if err != nil {
			return nil, err
		}
		sm, err := e.loadSaleManager(tx, pool, p.NftMint)
		if err != nil {
			return nil, err
		}
		if sm.SaleState == models.SaleStateListed {
			return nil, ErrInvalidSaleState
		}
		nftPot, err := e.escrowAccount(tx, p.ManagerToken, sm.NftPot, sm, sm.NftMint)
		if err != nil {
			return nil, err
		}
		if nftPot.Amount != 0 {
			return nil, ErrInvalidSaleState
		}
		if _, err := e.escrowAccount(tx, p.ManagerPot, sm.PoolPot, sm, pool.SaleMint); err != nil {
			return nil, err
		}
		sellerToken, err := e.tokenAccount(tx, p.SellerToken, p.Seller, sm.NftMint, ErrInvalidTokenAccount)
		if err != nil {
			return nil, err
		}
		if sellerToken.Amount != 1 {
			return nil, ErrInvalidTokenAccount
		}
		md, err := e.loadMetadata(tx, sm.NftMint)
		if err != nil {
			return nil, err
		}
		if md.UpdateAuthority != p.Seller || metadata.ValidateCreators(md.Creators) != nil {
			return nil, ErrInvalidMetadata
		}

		smKey, err := parseKey(sm.Address, ErrInvalidSaleManagerAccount)
		if err != nil {
			return nil, err
		}
		index := sm.ListingCount
		potPDA, err := e.deriver.GetSalePotPDA(smKey, index)
		if err != nil {
			return nil, err
		}

		if err := e.transfer(tx, sellerToken.AccountAddress, nftPot.AccountAddress, p.Seller, 1); err != nil {
			return nil, err
		}

		creators := make(models.Creators, len(md.Creators))
		for i, c := range md.Creators {
			creators[i] = models.Creator{Address: c.Address, Share: c.Share}
		}
		isPrimary := !md.PrimarySaleHappened
		royaltyOnly := md.SellerFeeBasisPoints >= metadata.MaxSellerFeeBasisPoints
		if (isPrimary || royaltyOnly) && creators.ShareSum() == 0 {
			// nobody could ever withdraw the price
			return nil, ErrInvalidMetadata
		}
		pot := models.SalePot{
			Address:              potPDA.Address.String(),
			Index:                index,
			Bump:                 potPDA.Bump,
			SaleManager:          sm.Address,
			PoolPot:              sm.PoolPot,
			Price:                p.Price,
			SellerFeeBasisPoints: md.SellerFeeBasisPoints,
			IsPrimary:            isPrimary,
			Seller:               p.Seller,
			SellerVerified:       isPrimary || royaltyOnly,
			Creators:             creators,
		}
		if err := tx.Create(&pot).Error; err != nil {
			return nil, fmt.Errorf("failed to create sale pot: %w", err)
		}

		ev := Event{
			Type:        EventListed,
			Pool:        pool.Address,
			SaleManager: sm.Address,
			NftMint:     sm.NftMint,
			SalePot:     pot.Address,
			Actor:       p.Seller,
			Amount:      p.Price,
		}

		sm.AuctionData = ""
		if auction {
			now := e.Now()
			if duration > math.MaxInt64-now {
				return nil, ErrInvalidDuration
			}
			adPDA, err := e.deriver.GetAuctionDataPDA(smKey, index)
			if err != nil {
				return nil, err
			}
			ad := models.AuctionData{
				Address:           adPDA.Address.String(),
				Index:             index,
				Bump:              adPDA.Bump,
				SaleManager:       sm.Address,
				EndedAt:           now + duration,
				AuctionState:      models.AuctionStateActive,
				GapTickPercentage: models.DefaultGapTickPercentage,
			}
			if err := tx.Create(&ad).Error; err != nil {
				return nil, fmt.Errorf("failed to create auction data: %w", err)
			}
			sm.AuctionData = ad.Address
			receipt.AuctionData = &ad
			ev.Type = EventAuctionListed
			ev.AuctionData = ad.Address
			ev.EndedAt = ad.EndedAt
		}

		sm.SaleState = models.SaleStateListed
		sm.Price = p.Price
		sm.Seller = p.Seller
		sm.SalePot = pot.Address
		sm.IsAuction = auction
		sm.ListingCount++
		if err := tx.Save(sm).Error; err != nil {
			return nil, fmt.Errorf("failed to update sale manager: %w", err)
		}

		if err := e.registry.UpdateAuthority(tx, sm.NftMint, p.Seller, sm.Address); err != nil {
			return nil, fmt.Errorf("failed to hand over update authority: %w", err)
		}

		receipt.Pool = pool
		receipt.SaleManager = sm
		receipt.SalePot = &pot
		return []Event{ev}, nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// Buy purchases a fixed-price listing
func (e *Engine) Buy(ctx context.Context, p BuyParams) (*Receipt, error) {
	receipt := &Receipt{}
	err := e.transact(ctx, "buy", func(tx *gorm.DB) ([]Event, error) {
		pool, err := e.loadPool(tx, p.Pool)
		if err != nil {
			return nil, err
		}
		sm, err := e.loadSaleManager(tx, pool, p.NftMint)
		if err != nil {
			return nil, err
		}
		if sm.SaleState != models.SaleStateListed {
			return nil, ErrInvalidSaleState
		}
		if sm.IsAuction {
			return nil, ErrInvalidAuctionMode
		}
		if p.Buyer == sm.Seller {
			return nil, ErrInvalidBidder
		}
		pot, err := e.loadSalePot(tx, sm)
		if err != nil {
			return nil, err
		}
		nftPot, err := e.escrowAccount(tx, p.ManagerToken, sm.NftPot, sm, sm.NftMint)
		if err != nil {
			return nil, err
		}
		if nftPot.Amount != 1 {
			return nil, ErrInvalidSaleState
		}
		poolPot, err := e.escrowAccount(tx, p.ManagerPot, sm.PoolPot, sm, pool.SaleMint)
		if err != nil {
			return nil, err
		}
		buyerNft, err := e.tokenAccount(tx, p.BuyerNftToken, p.Buyer, sm.NftMint, ErrInvalidTokenAccount)
		if err != nil {
			return nil, err
		}
		buyerPay, err := e.tokenAccount(tx, p.BuyerPayToken, p.Buyer, pool.SaleMint, ErrInvalidTokenAccount)
		if err != nil {
			return nil, err
		}
		if buyerPay.Amount < sm.Price {
			return nil, ErrNotEnoughTokenAmount
		}

		if err := e.transfer(tx, buyerPay.AccountAddress, poolPot.AccountAddress, p.Buyer, sm.Price); err != nil {
			return nil, err
		}
		if err := e.transferFromEscrow(tx, sm, nftPot.AccountAddress, buyerNft.AccountAddress, 1); err != nil {
			return nil, err
		}
		if err := e.registry.MarkPrimarySaleHappened(tx, sm.NftMint, buyerNft.AccountAddress, p.Buyer); err != nil {
			return nil, fmt.Errorf("failed to mark primary sale: %w", err)
		}
		if err := e.registry.UpdateAuthority(tx, sm.NftMint, sm.Address, p.Buyer); err != nil {
			return nil, fmt.Errorf("failed to hand over update authority: %w", err)
		}

		sm.SaleState = models.SaleStateSold
		pot.IsUsed = true
		pot.Price = sm.Price
		pot.Received = sm.Price
		if err := tx.Save(pot).Error; err != nil {
			return nil, fmt.Errorf("failed to update sale pot: %w", err)
		}
		if err := tx.Save(sm).Error; err != nil {
			return nil, fmt.Errorf("failed to update sale manager: %w", err)
		}

		receipt.Pool = pool
		receipt.SaleManager = sm
		receipt.SalePot = pot
		receipt.Amount = sm.Price
		return []Event{{
			Type:        EventSold,
			Pool:        pool.Address,
			SaleManager: sm.Address,
			NftMint:     sm.NftMint,
			SalePot:     pot.Address,
			Actor:       p.Buyer,
			Amount:      sm.Price,
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// Redeem cancels a listing and returns the token to its seller
func (e *Engine) Redeem(ctx context.Context, p RedeemParams) (*Receipt, error) {
	receipt := &Receipt{}
	err := e.transact(ctx, "redeem", func(tx *gorm.DB) ([]Event, error) {
		pool, err := e.loadPool(tx, p.Pool)
		if err != nil {
			return nil, err
		}
		sm, err := e.loadSaleManager(tx, pool, p.NftMint)
		if err != nil {
			return nil, err
		}
		if sm.SaleState != models.SaleStateListed {
			return nil, ErrInvalidSaleState
		}
		if p.Seller != sm.Seller {
			return nil, ErrInvalidSeller
		}
		nftPot, err := e.tokenAccount(tx, sm.NftPot, sm.Address, sm.NftMint, ErrInvalidTokenAccount)
		if err != nil {
			return nil, err
		}
		if nftPot.Amount != 1 {
			return nil, ErrInvalidSaleState
		}
		sellerToken, err := e.tokenAccount(tx, p.SellerToken, p.Seller, sm.NftMint, ErrInvalidTokenAccount)
		if err != nil {
			return nil, err
		}

		if err := e.transferFromEscrow(tx, sm, nftPot.AccountAddress, sellerToken.AccountAddress, 1); err != nil {
			return nil, err
		}
		if err := e.registry.UpdateAuthority(tx, sm.NftMint, sm.Address, p.Seller); err != nil {
			return nil, fmt.Errorf("failed to return update authority: %w", err)
		}
		if sm.IsAuction {
			ad, err := e.loadAuctionData(tx, sm)
			if err != nil {
				return nil, err
			}
			// a listed auction has no bids, so nothing is refunded
			ad.AuctionState = models.AuctionStateEnded
			if err := tx.Save(ad).Error; err != nil {
				return nil, fmt.Errorf("failed to update auction data: %w", err)
			}
			receipt.AuctionData = ad
		}

		sm.SaleState = models.SaleStateNone
		if err := tx.Save(sm).Error; err != nil {
			return nil, fmt.Errorf("failed to update sale manager: %w", err)
		}

		receipt.Pool = pool
		receipt.SaleManager = sm
		return []Event{{
			Type:        EventRedeemed,
			Pool:        pool.Address,
			SaleManager: sm.Address,
			NftMint:     sm.NftMint,
			SalePot:     sm.SalePot,
			AuctionData: sm.AuctionData,
			Actor:       p.Seller,
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// closeCycleIfSettled returns sm to None once every payee of its live pot
// has withdrawn and the token has left escrow. Buy never closes a cycle, so
// a sold listing always passes through Sold. The caller saves sm.
func (e *Engine) closeCycleIfSettled(tx *gorm.DB, sm *models.SaleManager, pot *models.SalePot) error {
	if sm.SaleState != models.SaleStateSold || sm.SalePot != pot.Address || !pot.IsUsed || !pot.Settled() {
		return nil
	}
	nftPot, err := e.ledger.Account(tx, sm.NftPot)
	if err != nil {
		return fmt.Errorf("failed to load nft pot: %w", err)
	}
	if nftPot.Amount == 0 {
		sm.SaleState = models.SaleStateNone
	}
	return nil
}

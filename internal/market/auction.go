package market

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/web-developer77/nifty-tunes-nft/internal/models"
)

type BidParams struct {
	Bidder          string
	Pool            string
	NftMint         string
	BidderToken     string
	PrevBidderToken string
	Amount          uint64
}

type ClaimParams struct {
	Claimant      string
	Pool          string
	NftMint       string
	ClaimantToken string
}

// PlaceBid outbids the current highest bid and refunds it. A bid that
// arrives after the deadline ends the auction (and that is committed)
// before the bid is rejected with ErrEndedAuction.
func (e *Engine) PlaceBid(ctx context.Context, p BidParams) (*Receipt, error) {
	receipt := &Receipt{}
	ended := false
	err := e.transact(ctx, "place_bid", func(tx *gorm.DB) ([]Event, error) {
		pool, err := e.loadPool(tx, p.Pool)
		if err != nil {
			return nil, err
		}
		sm, err := e.loadSaleManager(tx, pool, p.NftMint)
		if err != nil {
			return nil, err
		}
		if !sm.IsAuction {
			return nil, ErrInvalidAuctionMode
		}
		ad, err := e.loadAuctionData(tx, sm)
		if err != nil {
			return nil, err
		}
		if ad.AuctionState == models.AuctionStateEnded {
			return nil, ErrEndedAuction
		}
		if sm.SaleState == models.SaleStateNone {
			return nil, ErrInvalidSaleState
		}
		pot, err := e.loadSalePot(tx, sm)
		if err != nil {
			return nil, err
		}
		if e.Now() >= ad.EndedAt {
			ev, err := e.finalize(tx, pool, sm, ad, pot)
			if err != nil {
				return nil, err
			}
			ended = true
			return []Event{ev}, nil
		}
		if ad.AuctionState != models.AuctionStateActive && ad.AuctionState != models.AuctionStateHasBid {
			return nil, ErrInvalidAuctionState
		}

		if p.Bidder == sm.Seller {
			return nil, ErrInvalidBidder
		}
		if p.Amount < sm.Price || p.Amount == 0 {
			return nil, ErrInvalidPrice
		}
		bidderToken, err := e.tokenAccount(tx, p.BidderToken, p.Bidder, pool.SaleMint, ErrInvalidTokenAccount)
		if err != nil {
			return nil, err
		}
		if bidderToken.Amount < p.Amount {
			return nil, ErrNotEnoughTokenAmount
		}
		poolPot, err := e.tokenAccount(tx, pot.PoolPot, sm.Address, pool.SaleMint, ErrInvalidTokenAccount)
		if err != nil {
			return nil, err
		}
		if poolPot.AccountAddress != sm.PoolPot {
			return nil, ErrInvalidTokenAccount
		}

		var prevToken *models.TokenAccount
		if ad.AuctionState == models.AuctionStateHasBid {
			if !meetsGapTick(p.Amount, sm.Price, ad.GapTickPercentage) {
				return nil, ErrNotEnoughTokenAmountForGapTick
			}
			if p.PrevBidderToken != ad.LastBidderToken {
				return nil, ErrInvalidPrevBidderToken
			}
			prevToken, err = e.tokenAccount(tx, ad.LastBidderToken, ad.LastBidder, pool.SaleMint, ErrInvalidPrevBidderToken)
			if err != nil {
				return nil, err
			}
		}

		if prevToken != nil {
			if err := e.transferFromEscrow(tx, sm, poolPot.AccountAddress, prevToken.AccountAddress, sm.Price); err != nil {
				return nil, err
			}
		}
		if err := e.transfer(tx, bidderToken.AccountAddress, poolPot.AccountAddress, p.Bidder, p.Amount); err != nil {
			return nil, err
		}

		sm.Price = p.Amount
		sm.SaleState = models.SaleStateSold
		ad.LastBidder = p.Bidder
		ad.LastBidderToken = bidderToken.AccountAddress
		ad.AuctionState = models.AuctionStateHasBid
		pot.Price = p.Amount
		pot.Received = p.Amount
		if err := tx.Save(sm).Error; err != nil {
			return nil, fmt.Errorf("failed to update sale manager: %w", err)
		}
		if err := tx.Save(ad).Error; err != nil {
			return nil, fmt.Errorf("failed to update auction data: %w", err)
		}
		if err := tx.Save(pot).Error; err != nil {
			return nil, fmt.Errorf("failed to update sale pot: %w", err)
		}

		receipt.Pool = pool
		receipt.SaleManager = sm
		receipt.SalePot = pot
		receipt.AuctionData = ad
		receipt.Amount = p.Amount
		return []Event{{
			Type:        EventBidPlaced,
			Pool:        pool.Address,
			SaleManager: sm.Address,
			NftMint:     sm.NftMint,
			SalePot:     pot.Address,
			AuctionData: ad.Address,
			Actor:       p.Bidder,
			Amount:      p.Amount,
			EndedAt:     ad.EndedAt,
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	if ended {
		return nil, ErrEndedAuction
	}
	return receipt, nil
}

// Claim delivers the token of an ended auction to its winning bidder
func (e *Engine) Claim(ctx context.Context, p ClaimParams) (*Receipt, error) {
	receipt := &Receipt{}
	err := e.transact(ctx, "claim", func(tx *gorm.DB) ([]Event, error) {
		pool, err := e.loadPool(tx, p.Pool)
		if err != nil {
			return nil, err
		}
		sm, err := e.loadSaleManager(tx, pool, p.NftMint)
		if err != nil {
			return nil, err
		}
		if !sm.IsAuction {
			return nil, ErrInvalidAuctionMode
		}
		ad, err := e.loadAuctionData(tx, sm)
		if err != nil {
			return nil, err
		}
		pot, err := e.loadSalePot(tx, sm)
		if err != nil {
			return nil, err
		}
		if ad.LastBidder == "" || p.Claimant != ad.LastBidder {
			return nil, ErrInvalidBidder
		}

		var events []Event
		if ad.AuctionState != models.AuctionStateEnded && e.Now() >= ad.EndedAt {
			ev, err := e.finalize(tx, pool, sm, ad, pot)
			if err != nil {
				return nil, err
			}
			events = append(events, ev)
		}
		if ad.AuctionState != models.AuctionStateEnded {
			return nil, ErrInvalidAuctionState
		}

		nftPot, err := e.tokenAccount(tx, sm.NftPot, sm.Address, sm.NftMint, ErrInvalidTokenAccount)
		if err != nil {
			return nil, err
		}
		if sm.SaleState != models.SaleStateSold || nftPot.Amount != 1 {
			return nil, ErrInvalidSaleState
		}
		claimantToken, err := e.tokenAccount(tx, p.ClaimantToken, p.Claimant, sm.NftMint, ErrInvalidTokenAccount)
		if err != nil {
			return nil, err
		}

		if err := e.registry.MarkPrimarySaleHappened(tx, sm.NftMint, nftPot.AccountAddress, sm.Address); err != nil {
			return nil, fmt.Errorf("failed to mark primary sale: %w", err)
		}
		if err := e.transferFromEscrow(tx, sm, nftPot.AccountAddress, claimantToken.AccountAddress, 1); err != nil {
			return nil, err
		}
		if err := e.registry.UpdateAuthority(tx, sm.NftMint, sm.Address, p.Claimant); err != nil {
			return nil, fmt.Errorf("failed to hand over update authority: %w", err)
		}

		if err := e.closeCycleIfSettled(tx, sm, pot); err != nil {
			return nil, err
		}
		if err := tx.Save(sm).Error; err != nil {
			return nil, fmt.Errorf("failed to update sale manager: %w", err)
		}

		receipt.Pool = pool
		receipt.SaleManager = sm
		receipt.SalePot = pot
		receipt.AuctionData = ad
		events = append(events, Event{
			Type:        EventClaimed,
			Pool:        pool.Address,
			SaleManager: sm.Address,
			NftMint:     sm.NftMint,
			SalePot:     pot.Address,
			AuctionData: ad.Address,
			Actor:       p.Claimant,
			Amount:      sm.Price,
		})
		return events, nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// FinalizeAuction ends an auction whose deadline has passed
func (e *Engine) FinalizeAuction(ctx context.Context, poolAddress, nftMint string) (*Receipt, error) {
	receipt := &Receipt{}
	err := e.transact(ctx, "finalize_auction", func(tx *gorm.DB) ([]Event, error) {
		pool, err := e.loadPool(tx, poolAddress)
		if err != nil {
			return nil, err
		}
		sm, err := e.loadSaleManager(tx, pool, nftMint)
		if err != nil {
			return nil, err
		}
		if !sm.IsAuction {
			return nil, ErrInvalidAuctionMode
		}
		ad, err := e.loadAuctionData(tx, sm)
		if err != nil {
			return nil, err
		}
		pot, err := e.loadSalePot(tx, sm)
		if err != nil {
			return nil, err
		}
		if ad.AuctionState == models.AuctionStateEnded || e.Now() < ad.EndedAt {
			return nil, ErrInvalidAuctionState
		}

		ev, err := e.finalize(tx, pool, sm, ad, pot)
		if err != nil {
			return nil, err
		}
		receipt.Pool = pool
		receipt.SaleManager = sm
		receipt.SalePot = pot
		receipt.AuctionData = ad
		return []Event{ev}, nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// SweepExpiredAuctions finalizes every live auction past its deadline, each
// in its own transaction. It returns how many were finalized.
func (e *Engine) SweepExpiredAuctions(ctx context.Context) (int, error) {
	var expired []models.AuctionData
	err := e.db.WithContext(ctx).
		Where("auction_state IN ? AND ended_at <= ?",
			[]models.AuctionState{models.AuctionStateActive, models.AuctionStateHasBid}, e.Now()).
		Order("ended_at").
		Find(&expired).Error
	if err != nil {
		return 0, fmt.Errorf("failed to query expired auctions: %w", err)
	}

	finalized := 0
	for _, ad := range expired {
		if ctx.Err() != nil {
			return finalized, ctx.Err()
		}
		var sm models.SaleManager
		if err := e.db.WithContext(ctx).First(&sm, "address = ?", ad.SaleManager).Error; err != nil {
			log.WithField("auction_data", ad.Address).Errorf("Failed to load sale manager: %v", err)
			continue
		}
		if sm.AuctionData != ad.Address {
			continue
		}
		if _, err := e.FinalizeAuction(ctx, sm.Pool, sm.NftMint); err != nil {
			log.WithFields(log.Fields{
				"auction_data": ad.Address,
				"sale_manager": sm.Address,
			}).Warnf("Failed to finalize auction: %v", err)
			continue
		}
		finalized++
	}
	return finalized, nil
}

// finalize ends the auction and opens the sale pot for withdrawals
func (e *Engine) finalize(tx *gorm.DB, pool *models.Pool, sm *models.SaleManager, ad *models.AuctionData, pot *models.SalePot) (Event, error) {
	ad.AuctionState = models.AuctionStateEnded
	pot.IsUsed = true
	if err := tx.Save(ad).Error; err != nil {
		return Event{}, fmt.Errorf("failed to update auction data: %w", err)
	}
	if err := tx.Save(pot).Error; err != nil {
		return Event{}, fmt.Errorf("failed to update sale pot: %w", err)
	}
	return Event{
		Type:        EventAuctionEnded,
		Pool:        pool.Address,
		SaleManager: sm.Address,
		NftMint:     sm.NftMint,
		SalePot:     pot.Address,
		AuctionData: ad.Address,
		Actor:       ad.LastBidder,
		Amount:      pot.Received,
		EndedAt:     ad.EndedAt,
	}, nil
}

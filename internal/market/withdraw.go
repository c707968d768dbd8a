package market

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/web-developer77/nifty-tunes-nft/internal/models"
)

type WithdrawParams struct {
	Payee         string
	SalePot       string
	WithdrawToken string
}

// Withdraw pays payee its unclaimed share of a settled sale pot
func (e *Engine) Withdraw(ctx context.Context, p WithdrawParams) (*Receipt, error) {
	receipt := &Receipt{}
	err := e.transact(ctx, "withdraw", func(tx *gorm.DB) ([]Event, error) {
		var pot models.SalePot
		if err := first(tx, &pot, "address", p.SalePot, ErrInvalidSalePotAccount); err != nil {
			return nil, err
		}
		sm, pool, err := e.loadSaleManagerByAddress(tx, pot.SaleManager)
		if err != nil {
			return nil, err
		}
		if err := e.checkSalePot(sm, &pot); err != nil {
			return nil, err
		}
		if !pot.IsUsed {
			return nil, ErrInvalidSaleState
		}
		poolPot, err := e.tokenAccount(tx, pot.PoolPot, sm.Address, pool.SaleMint, ErrInvalidTokenAccount)
		if err != nil {
			return nil, err
		}
		dest, err := e.tokenAccount(tx, p.WithdrawToken, p.Payee, pool.SaleMint, ErrInvalidTokenAccount)
		if err != nil {
			return nil, err
		}

		payout := computePayout(&pot, p.Payee)
		amount := capPayout(payout.Amount, &pot, poolPot.Amount)
		if amount == 0 {
			return nil, ErrInvalidAmount
		}

		if err := e.transferFromEscrow(tx, sm, poolPot.AccountAddress, dest.AccountAddress, amount); err != nil {
			return nil, err
		}
		payout.apply(&pot)
		pot.PaidOut += amount
		if err := tx.Save(&pot).Error; err != nil {
			return nil, fmt.Errorf("failed to update sale pot: %w", err)
		}

		prev := sm.SaleState
		if err := e.closeCycleIfSettled(tx, sm, &pot); err != nil {
			return nil, err
		}
		if sm.SaleState != prev {
			if err := tx.Save(sm).Error; err != nil {
				return nil, fmt.Errorf("failed to update sale manager: %w", err)
			}
		}

		receipt.Pool = pool
		receipt.SaleManager = sm
		receipt.SalePot = &pot
		receipt.Amount = amount
		return []Event{{
			Type:        EventWithdrawn,
			Pool:        pool.Address,
			SaleManager: sm.Address,
			NftMint:     sm.NftMint,
			SalePot:     pot.Address,
			Actor:       p.Payee,
			Amount:      amount,
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

package market

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/web-developer77/nifty-tunes-nft/internal/models"
)

const (
	basisPoints       = 10000
	percent           = 100
	royaltyPartsTotal = basisPoints * percent
)

// Payout is what a payee may withdraw from a sale pot and which entitlements it consumes
type Payout struct {
	Amount      uint64
	SellerShare bool
	Creators    []int
}

// computePayout sums the unclaimed entitlements of payee at the pot's
// settlement price. Every portion rounds down.
func computePayout(pot *models.SalePot, payee string) Payout {
	var out Payout
	total := decimal.Zero

	if pot.IsPrimary {
		for i, c := range pot.Creators {
			if c.Address == payee && !c.Verified {
				total = total.Add(mulDiv(pot.Price, uint64(c.Share), percent))
				out.Creators = append(out.Creators, i)
			}
		}
	} else {
		if pot.Seller == payee && !pot.SellerVerified {
			fee := uint64(pot.SellerFeeBasisPoints)
			if fee > basisPoints {
				fee = basisPoints
			}
			total = total.Add(mulDiv(pot.Price, basisPoints-fee, basisPoints))
			out.SellerShare = true
		}
		for i, c := range pot.Creators {
			if c.Address == payee && !c.Verified {
				parts := uint64(pot.SellerFeeBasisPoints) * uint64(c.Share)
				total = total.Add(mulDiv(pot.Price, parts, royaltyPartsTotal))
				out.Creators = append(out.Creators, i)
			}
		}
	}

	out.Amount = toUint64(total)
	return out
}

// apply marks the consumed entitlements as paid
func (p Payout) apply(pot *models.SalePot) {
	if p.SellerShare {
		pot.SellerVerified = true
	}
	for _, i := range p.Creators {
		pot.Creators[i].Verified = true
	}
}

// capPayout limits amount to what the pot has received and not yet paid and to the escrow balance
func capPayout(amount uint64, pot *models.SalePot, escrowBalance uint64) uint64 {
	var outstanding uint64
	if pot.Received > pot.PaidOut {
		outstanding = pot.Received - pot.PaidOut
	}
	if amount > outstanding {
		amount = outstanding
	}
	if amount > escrowBalance {
		amount = escrowBalance
	}
	return amount
}

// mulDiv returns floor(a*b/d) without overflow
func mulDiv(a, b, d uint64) decimal.Decimal {
	q, _ := fromUint64(a).Mul(fromUint64(b)).QuoRem(fromUint64(d), 0)
	return q
}

// meetsGapTick reports whether bid*100 >= price*(100+gap)
func meetsGapTick(bid, price uint64, gap uint8) bool {
	lhs := fromUint64(bid).Mul(decimal.NewFromInt(percent))
	rhs := fromUint64(price).Mul(decimal.NewFromInt(percent + int64(gap)))
	return lhs.GreaterThanOrEqual(rhs)
}

func fromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

func toUint64(d decimal.Decimal) uint64 {
	b := d.BigInt()
	if !b.IsUint64() {
		return ^uint64(0)
	}
	return b.Uint64()
}

package handlers

import (
	"github.com/web-developer77/nifty-tunes-nft/internal/models"
)

// CreatePoolRequest opens a pool owned by the signer
type CreatePoolRequest struct {
	SaleMint string `json:"sale_mint" binding:"required"`
}

// TransferPoolRequest hands a pool to a new owner
type TransferPoolRequest struct {
	NewOwner string `json:"new_owner" binding:"required"`
}

// MintTokenRequest mints a unique token to TokenAccount
type MintTokenRequest struct {
	Mint                 string           `json:"mint" binding:"required"`
	TokenAccount         string           `json:"token_account" binding:"required"`
	Name                 string           `json:"name" binding:"required"`
	Symbol               string           `json:"symbol"`
	Uri                  string           `json:"uri"`
	SellerFeeBasisPoints uint16           `json:"seller_fee_basis_points"`
	Creators             []models.Creator `json:"creators"`
	IsMutable            bool             `json:"is_mutable"`
}

// SaleManagerRequest identifies the sale manager of a (pool, mint) pair
type SaleManagerRequest struct {
	Pool    string `json:"pool" binding:"required"`
	NftMint string `json:"nft_mint" binding:"required"`
}

// SellRequest lists a token at a fixed price or, with Duration, by auction
type SellRequest struct {
	Pool         string `json:"pool" binding:"required"`
	NftMint      string `json:"nft_mint" binding:"required"`
	SellerToken  string `json:"seller_token" binding:"required"`
	ManagerToken string `json:"manager_token" binding:"required"`
	ManagerPot   string `json:"manager_pot" binding:"required"`
	Price        uint64 `json:"price" binding:"required"`
	Duration     int64  `json:"duration"`
}

type BuyRequest struct {
	Pool          string `json:"pool" binding:"required"`
	NftMint       string `json:"nft_mint" binding:"required"`
	BuyerNftToken string `json:"buyer_nft_token" binding:"required"`
	BuyerPayToken string `json:"buyer_pay_token" binding:"required"`
	ManagerToken  string `json:"manager_token" binding:"required"`
	ManagerPot    string `json:"manager_pot" binding:"required"`
}

type RedeemRequest struct {
	Pool        string `json:"pool" binding:"required"`
	NftMint     string `json:"nft_mint" binding:"required"`
	SellerToken string `json:"seller_token" binding:"required"`
}

type WithdrawRequest struct {
	SalePot       string `json:"sale_pot" binding:"required"`
	WithdrawToken string `json:"withdraw_token" binding:"required"`
}

type BidRequest struct {
	Pool            string `json:"pool" binding:"required"`
	NftMint         string `json:"nft_mint" binding:"required"`
	BidderToken     string `json:"bidder_token" binding:"required"`
	PrevBidderToken string `json:"prev_bidder_token"`
	Amount          uint64 `json:"amount" binding:"required"`
}

type ClaimRequest struct {
	Pool          string `json:"pool" binding:"required"`
	NftMint       string `json:"nft_mint" binding:"required"`
	ClaimantToken string `json:"claimant_token" binding:"required"`
}

// CreateMintRequest registers a mint whose authority is the signer
type CreateMintRequest struct {
	Decimals uint8 `json:"decimals"`
}

// CreateTokenAccountRequest opens the associated account of Owner (default: signer)
type CreateTokenAccountRequest struct {
	Mint  string `json:"mint" binding:"required"`
	Owner string `json:"owner"`
}

// MintToRequest mints fungible supply; the signer must be the mint authority
type MintToRequest struct {
	Mint        string `json:"mint" binding:"required"`
	Destination string `json:"destination" binding:"required"`
	Amount      uint64 `json:"amount"`
}

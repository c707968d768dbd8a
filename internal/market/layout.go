package market

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/web-developer77/nifty-tunes-nft/internal/models"
)

// Fixed account sizes, excluding the 8-byte discriminator
const (
	DiscriminatorSize = 8
	PoolSize          = 32 + 32
	SaleManagerSize   = 32*7 + 8 + 1 + 1 + 1 + 8
	CreatorSize       = 32 + 1 + 1
	SalePotSize       = 1 + 32 + 32 + 8 + 1 + 8 + 2 + 1 + 32 + 1 + 1 + CreatorSize*models.MaxCreatorLimit + 8 + 8
	AuctionDataSize   = 32 + 8 + 1 + 8 + 32 + 32 + 1 + 1
)

type poolLayout struct {
	Owner    solana.PublicKey
	SaleMint solana.PublicKey
}

type saleManagerLayout struct {
	Pool         solana.PublicKey
	NftMint      solana.PublicKey
	Seller       solana.PublicKey
	NftPot       solana.PublicKey
	PoolPot      solana.PublicKey
	SalePot      solana.PublicKey
	AuctionData  solana.PublicKey
	Price        uint64
	SaleState    uint8
	IsAuction    bool
	Bump         uint8
	ListingCount uint64
}

type creatorLayout struct {
	Address  solana.PublicKey
	Verified bool
	Share    uint8
}

type salePotLayout struct {
	IsUsed               bool
	SaleManager          solana.PublicKey
	PoolPot              solana.PublicKey
	Index                uint64
	Bump                 uint8
	Price                uint64
	SellerFeeBasisPoints uint16
	IsPrimary            bool
	Seller               solana.PublicKey
	SellerVerified       bool
	CreatorCount         uint8
	Creators             [models.MaxCreatorLimit]creatorLayout
	Received             uint64
	PaidOut              uint64
}

type auctionDataLayout struct {
	SaleManager       solana.PublicKey
	Index             uint64
	Bump              uint8
	EndedAt           int64
	LastBidder        solana.PublicKey
	LastBidderToken   solana.PublicKey
	AuctionState      uint8
	GapTickPercentage uint8
}

// discriminator is the first 8 bytes of sha256("account:<name>")
func discriminator(name string) [DiscriminatorSize]byte {
	var d [DiscriminatorSize]byte
	sum := sha256.Sum256([]byte("account:" + name))
	copy(d[:], sum[:DiscriminatorSize])
	return d
}

// key decodes a stored address; empty means the zero key
func key(address string) solana.PublicKey {
	if address == "" {
		return solana.PublicKey{}
	}
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}
	}
	return pk
}

func encodeAccount(name string, v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	d := discriminator(name)
	buf.Write(d[:])
	if err := bin.NewBorshEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func EncodePool(p *models.Pool) ([]byte, error) {
	return encodeAccount("Pool", poolLayout{
		Owner:    key(p.Owner),
		SaleMint: key(p.SaleMint),
	})
}

func EncodeSaleManager(sm *models.SaleManager) ([]byte, error) {
	return encodeAccount("SaleManager", saleManagerLayout{
		Pool:         key(sm.Pool),
		NftMint:      key(sm.NftMint),
		Seller:       key(sm.Seller),
		NftPot:       key(sm.NftPot),
		PoolPot:      key(sm.PoolPot),
		SalePot:      key(sm.SalePot),
		AuctionData:  key(sm.AuctionData),
		Price:        sm.Price,
		SaleState:    uint8(sm.SaleState),
		IsAuction:    sm.IsAuction,
		Bump:         sm.Bump,
		ListingCount: sm.ListingCount,
	})
}

func EncodeSalePot(pot *models.SalePot) ([]byte, error) {
	if len(pot.Creators) > models.MaxCreatorLimit {
		return nil, fmt.Errorf("sale pot %s has %d creators", pot.Address, len(pot.Creators))
	}
	layout := salePotLayout{
		IsUsed:               pot.IsUsed,
		SaleManager:          key(pot.SaleManager),
		PoolPot:              key(pot.PoolPot),
		Index:                pot.Index,
		Bump:                 pot.Bump,
		Price:                pot.Price,
		SellerFeeBasisPoints: pot.SellerFeeBasisPoints,
		IsPrimary:            pot.IsPrimary,
		Seller:               key(pot.Seller),
		SellerVerified:       pot.SellerVerified,
		CreatorCount:         uint8(len(pot.Creators)),
		Received:             pot.Received,
		PaidOut:              pot.PaidOut,
	}
	for i, c := range pot.Creators {
		layout.Creators[i] = creatorLayout{Address: key(c.Address), Verified: c.Verified, Share: c.Share}
	}
	return encodeAccount("SalePot", layout)
}

func EncodeAuctionData(ad *models.AuctionData) ([]byte, error) {
	return encodeAccount("AuctionData", auctionDataLayout{
		SaleManager:       key(ad.SaleManager),
		Index:             ad.Index,
		Bump:              ad.Bump,
		EndedAt:           ad.EndedAt,
		LastBidder:        key(ad.LastBidder),
		LastBidderToken:   key(ad.LastBidderToken),
		AuctionState:      uint8(ad.AuctionState),
		GapTickPercentage: ad.GapTickPercentage,
	})
}

// RawAccount is the fixed-size binary encoding of a marketplace record
type RawAccount struct {
	Address string `json:"address"`
	Kind    string `json:"kind"`
	Owner   string `json:"owner"`
	Data    []byte `json:"data"`
}

// GetRawAccount finds address among the marketplace records and returns its encoding
func (e *Engine) GetRawAccount(ctx context.Context, address string) (*RawAccount, error) {
	raw := &RawAccount{Address: address, Owner: e.deriver.ProgramID().String()}

	var err error
	if pool, perr := e.GetPool(ctx, address); perr == nil {
		raw.Kind = "Pool"
		raw.Data, err = EncodePool(pool)
	} else if !errors.Is(perr, ErrNotFound) {
		return nil, perr
	} else if sm, serr := e.getSaleManagerByAddress(ctx, address); serr == nil {
		raw.Kind = "SaleManager"
		raw.Data, err = EncodeSaleManager(sm)
	} else if !errors.Is(serr, ErrNotFound) {
		return nil, serr
	} else if pot, perr := e.GetSalePot(ctx, address); perr == nil {
		raw.Kind = "SalePot"
		raw.Data, err = EncodeSalePot(pot)
	} else if !errors.Is(perr, ErrNotFound) {
		return nil, perr
	} else if view, aerr := e.GetAuction(ctx, address); aerr == nil {
		raw.Kind = "AuctionData"
		raw.Data, err = EncodeAuctionData(&view.AuctionData)
	} else {
		return nil, aerr
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (e *Engine) getSaleManagerByAddress(ctx context.Context, address string) (*models.SaleManager, error) {
	var sm models.SaleManager
	if err := e.get(ctx, &sm, "address", address); err != nil {
		return nil, err
	}
	return &sm, nil
}

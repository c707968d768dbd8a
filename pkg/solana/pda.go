package solana

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Program addresses used when no override is configured
var (
	MARKET_PROGRAM_ID             = solana.MustPublicKeyFromBase58("Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS")
	MPL_TOKEN_METADATA_PROGRAM_ID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")
)

// PDA seed constants
var (
	SEED_METADATA = []byte("metadata")
	SEED_EDITION  = []byte("edition")
)

const pdaCacheSize = 4096

// PDAResult holds a derived address and its bump seed
type PDAResult struct {
	Address solana.PublicKey
	Bump    uint8
}

// Deriver computes the program derived addresses of the marketplace.
// Results are memoised since every transition re-derives the same handful
// of addresses.
type Deriver struct {
	programID         solana.PublicKey
	metadataProgramID solana.PublicKey
	cache             *lru.Cache[string, PDAResult]
}

// NewDeriver creates a Deriver for the given market and metadata programs
func NewDeriver(programID, metadataProgramID solana.PublicKey) (*Deriver, error) {
	cache, err := lru.New[string, PDAResult](pdaCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create pda cache: %w", err)
	}
	return &Deriver{
		programID:         programID,
		metadataProgramID: metadataProgramID,
		cache:             cache,
	}, nil
}

// NewDefaultDeriver creates a Deriver bound to the built-in program ids
func NewDefaultDeriver() *Deriver {
	d, err := NewDeriver(MARKET_PROGRAM_ID, MPL_TOKEN_METADATA_PROGRAM_ID)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Deriver) ProgramID() solana.PublicKey {
	return d.programID
}

func (d *Deriver) MetadataProgramID() solana.PublicKey {
	return d.metadataProgramID
}

// SaleManagerSeeds returns the seeds of the sale manager owning the (pool, mint) listing
func SaleManagerSeeds(pool, nftMint solana.PublicKey) [][]byte {
	return [][]byte{pool.Bytes(), nftMint.Bytes()}
}

// ListingSeeds returns the seeds shared by the sale pot and auction data of one listing
func ListingSeeds(saleManager solana.PublicKey, index uint64) [][]byte {
	idx := make([]byte, 8)
	binary.LittleEndian.PutUint64(idx, index)
	return [][]byte{saleManager.Bytes(), idx}
}

// GetSaleManagerPDA derives the sale manager address for a pool and token mint
func (d *Deriver) GetSaleManagerPDA(pool, nftMint solana.PublicKey) (PDAResult, error) {
	res, err := d.find(SaleManagerSeeds(pool, nftMint), d.programID)
	if err != nil {
		return PDAResult{}, fmt.Errorf("failed to find sale manager PDA: %w", err)
	}
	return res, nil
}

// GetSalePotPDA derives the sale pot address of one listing
func (d *Deriver) GetSalePotPDA(saleManager solana.PublicKey, index uint64) (PDAResult, error) {
	seeds := append([][]byte{[]byte("sale_pot")}, ListingSeeds(saleManager, index)...)
	res, err := d.find(seeds, d.programID)
	if err != nil {
		return PDAResult{}, fmt.Errorf("failed to find sale pot PDA: %w", err)
	}
	return res, nil
}

// GetAuctionDataPDA derives the auction data address of one listing
func (d *Deriver) GetAuctionDataPDA(saleManager solana.PublicKey, index uint64) (PDAResult, error) {
	seeds := append([][]byte{[]byte("auction_data")}, ListingSeeds(saleManager, index)...)
	res, err := d.find(seeds, d.programID)
	if err != nil {
		return PDAResult{}, fmt.Errorf("failed to find auction data PDA: %w", err)
	}
	return res, nil
}

// GetMetadataPDA derives the token metadata address for a mint
func (d *Deriver) GetMetadataPDA(mint solana.PublicKey) (PDAResult, error) {
	seeds := [][]byte{SEED_METADATA, d.metadataProgramID.Bytes(), mint.Bytes()}
	res, err := d.find(seeds, d.metadataProgramID)
	if err != nil {
		return PDAResult{}, fmt.Errorf("failed to find metadata PDA: %w", err)
	}
	return res, nil
}

// GetMasterEditionPDA derives the master edition address for a mint
func (d *Deriver) GetMasterEditionPDA(mint solana.PublicKey) (PDAResult, error) {
	seeds := [][]byte{SEED_METADATA, d.metadataProgramID.Bytes(), mint.Bytes(), SEED_EDITION}
	res, err := d.find(seeds, d.metadataProgramID)
	if err != nil {
		return PDAResult{}, fmt.Errorf("failed to find master edition PDA: %w", err)
	}
	return res, nil
}

// GetAssociatedTokenAddress returns the canonical token account of a wallet for a mint
func (d *Deriver) GetAssociatedTokenAddress(wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(wallet, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to find associated token address: %w", err)
	}
	return addr, nil
}

// SignerAddress recreates the program address that signs for the given
// seeds and bump. It fails when the seeds do not produce a valid program address.
func (d *Deriver) SignerAddress(seeds [][]byte, bump uint8) (solana.PublicKey, error) {
	full := make([][]byte, 0, len(seeds)+1)
	full = append(full, seeds...)
	full = append(full, []byte{bump})
	addr, err := solana.CreateProgramAddress(full, d.programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to create program address: %w", err)
	}
	return addr, nil
}

func (d *Deriver) find(seeds [][]byte, program solana.PublicKey) (PDAResult, error) {
	key := cacheKey(seeds, program)
	if res, ok := d.cache.Get(key); ok {
		return res, nil
	}
	address, bump, err := solana.FindProgramAddress(seeds, program)
	if err != nil {
		return PDAResult{}, err
	}
	res := PDAResult{Address: address, Bump: bump}
	d.cache.Add(key, res)
	return res, nil
}

func cacheKey(seeds [][]byte, program solana.PublicKey) string {
	var sb strings.Builder
	sb.WriteString(program.String())
	for _, s := range seeds {
		sb.WriteByte(':')
		sb.WriteString(hex.EncodeToString(s))
	}
	return sb.String()
}

// ParsePublicKey decodes a base58 address
func ParsePublicKey(address string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid address %q: %w", address, err)
	}
	return pk, nil
}

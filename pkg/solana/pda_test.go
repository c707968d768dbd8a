package solana

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriver(t *testing.T) {
	d := NewDefaultDeriver()
	pool := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	t.Run("Sale Manager PDA", func(t *testing.T) {
		res, err := d.GetSaleManagerPDA(pool, mint)
		require.NoError(t, err)

		expected, bump, err := solana.FindProgramAddress([][]byte{pool.Bytes(), mint.Bytes()}, MARKET_PROGRAM_ID)
		require.NoError(t, err)
		assert.Equal(t, expected, res.Address)
		assert.Equal(t, bump, res.Bump)

		// cached result is identical
		again, err := d.GetSaleManagerPDA(pool, mint)
		require.NoError(t, err)
		assert.Equal(t, res, again)

		other, err := d.GetSaleManagerPDA(pool, solana.NewWallet().PublicKey())
		require.NoError(t, err)
		assert.NotEqual(t, res.Address, other.Address)
	})

	t.Run("Listing PDAs Differ By Index And Kind", func(t *testing.T) {
		sm, err := d.GetSaleManagerPDA(pool, mint)
		require.NoError(t, err)

		pot0, err := d.GetSalePotPDA(sm.Address, 0)
		require.NoError(t, err)
		pot1, err := d.GetSalePotPDA(sm.Address, 1)
		require.NoError(t, err)
		ad0, err := d.GetAuctionDataPDA(sm.Address, 0)
		require.NoError(t, err)

		assert.NotEqual(t, pot0.Address, pot1.Address)
		assert.NotEqual(t, pot0.Address, ad0.Address)

		expected, _, err := solana.FindProgramAddress(
			[][]byte{[]byte("sale_pot"), sm.Address.Bytes(), {0, 0, 0, 0, 0, 0, 0, 0}}, MARKET_PROGRAM_ID)
		require.NoError(t, err)
		assert.Equal(t, expected, pot0.Address)
	})

	t.Run("Signer Address Matches PDA", func(t *testing.T) {
		sm, err := d.GetSaleManagerPDA(pool, mint)
		require.NoError(t, err)

		signer, err := d.SignerAddress(SaleManagerSeeds(pool, mint), sm.Bump)
		require.NoError(t, err)
		assert.Equal(t, sm.Address, signer)
	})

	t.Run("Metadata Under Metadata Program", func(t *testing.T) {
		md, err := d.GetMetadataPDA(mint)
		require.NoError(t, err)
		expected, _, err := solana.FindProgramAddress(
			[][]byte{SEED_METADATA, MPL_TOKEN_METADATA_PROGRAM_ID.Bytes(), mint.Bytes()}, MPL_TOKEN_METADATA_PROGRAM_ID)
		require.NoError(t, err)
		assert.Equal(t, expected, md.Address)

		edition, err := d.GetMasterEditionPDA(mint)
		require.NoError(t, err)
		assert.NotEqual(t, md.Address, edition.Address)
	})

	t.Run("Associated Token Address", func(t *testing.T) {
		wallet := solana.NewWallet().PublicKey()
		ata, err := d.GetAssociatedTokenAddress(wallet, mint)
		require.NoError(t, err)
		expected, _, err := solana.FindAssociatedTokenAddress(wallet, mint)
		require.NoError(t, err)
		assert.Equal(t, expected, ata)
	})

	t.Run("Custom Program", func(t *testing.T) {
		custom, err := NewDeriver(solana.NewWallet().PublicKey(), MPL_TOKEN_METADATA_PROGRAM_ID)
		require.NoError(t, err)
		a, err := custom.GetSaleManagerPDA(pool, mint)
		require.NoError(t, err)
		b, err := d.GetSaleManagerPDA(pool, mint)
		require.NoError(t, err)
		assert.NotEqual(t, a.Address, b.Address)
	})

	t.Run("Parse Public Key", func(t *testing.T) {
		pk, err := ParsePublicKey(pool.String())
		require.NoError(t, err)
		assert.Equal(t, pool, pk)

		_, err = ParsePublicKey("not-a-key")
		assert.Error(t, err)
	})
}

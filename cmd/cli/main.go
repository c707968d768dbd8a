package main

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/web-developer77/nifty-tunes-nft/internal/handlers"
	"github.com/web-developer77/nifty-tunes-nft/internal/models"
	"github.com/web-developer77/nifty-tunes-nft/pkg/client"
	ntsolana "github.com/web-developer77/nifty-tunes-nft/pkg/solana"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	app := &cli.App{
		Name:  "nft-market",
		Usage: "operate the NFT marketplace API with a keystore wallet",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api", Value: "http://localhost:8080", Usage: "market API base URL", EnvVars: []string{"MARKET_API"}},
			&cli.StringFlag{Name: "keystore", Value: ntsolana.DefaultKeystoreDir, Usage: "keystore directory", EnvVars: []string{"KEYSTORE_DIR"}},
			&cli.StringFlag{Name: "wallet", Usage: "signing wallet address", EnvVars: []string{"MARKET_WALLET"}},
			&cli.StringFlag{Name: "password", Usage: "keystore password", EnvVars: []string{"MARKET_PASSWORD"}},
		},
		Commands: []*cli.Command{
			{
				Name:   "keygen",
				Usage:  "generate a wallet and store it encrypted in the keystore",
				Action: keygen,
			},
			{
				Name:   "create-mint",
				Usage:  "register a mint with the wallet as authority",
				Action: post("/token/mint", func(c *cli.Context) interface{} {
					return handlers.CreateMintRequest{Decimals: uint8(c.Uint("decimals"))}
				}),
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "decimals", Value: 0},
				},
			},
			{
				Name:   "create-account",
				Usage:  "open an associated token account",
				Action: post("/token/accounts", func(c *cli.Context) interface{} {
					return handlers.CreateTokenAccountRequest{Mint: c.String("mint"), Owner: c.String("owner")}
				}),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mint", Required: true},
					&cli.StringFlag{Name: "owner", Usage: "account owner, defaults to the wallet"},
				},
			},
			{
				Name:   "mint-to",
				Usage:  "issue tokens of a mint the wallet controls",
				Action: post("/token/mint-to", func(c *cli.Context) interface{} {
					return handlers.MintToRequest{Mint: c.String("mint"), Destination: c.String("to"), Amount: c.Uint64("amount")}
				}),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mint", Required: true},
					&cli.StringFlag{Name: "to", Required: true, Usage: "destination token account"},
					&cli.Uint64Flag{Name: "amount", Required: true},
				},
			},
			{
				Name:   "mint-unique",
				Usage:  "mint a unique token with metadata and a master edition",
				Action: post("/token/mint-unique", mintUniqueRequest),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mint", Required: true},
					&cli.StringFlag{Name: "account", Required: true, Usage: "wallet token account of the mint"},
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "symbol"},
					&cli.StringFlag{Name: "uri"},
					&cli.UintFlag{Name: "fee", Usage: "seller fee basis points"},
					&cli.StringFlag{Name: "creators", Usage: `JSON list, e.g. [{"address":"...","share":100}]`},
					&cli.BoolFlag{Name: "mutable"},
				},
			},
			{
				Name:   "create-pool",
				Usage:  "create a pool priced in a payment mint",
				Action: post("/pool", func(c *cli.Context) interface{} {
					return handlers.CreatePoolRequest{SaleMint: c.String("sale-mint")}
				}),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "sale-mint", Required: true},
				},
			},
			{
				Name:  "transfer-pool",
				Usage: "hand a pool to a new owner",
				Action: func(c *cli.Context) error {
					return post("/pool/"+c.String("pool")+"/owner", func(c *cli.Context) interface{} {
						return handlers.TransferPoolRequest{NewOwner: c.String("new-owner")}
					})(c)
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "pool", Required: true},
					&cli.StringFlag{Name: "new-owner", Required: true},
				},
			},
			{
				Name:   "init-sale-manager",
				Usage:  "create the sale manager and escrow accounts of a pool and mint",
				Action: post("/sale/manager", saleManagerRequest),
				Flags:  saleManagerFlags(),
			},
			{
				Name:   "sell",
				Usage:  "list a token at a fixed price",
				Action: post("/sale/sell", sellRequest),
				Flags:  sellFlags(),
			},
			{
				Name:   "sell-auction",
				Usage:  "list a token by auction",
				Action: post("/auction/sell", sellRequest),
				Flags: append(sellFlags(),
					&cli.Int64Flag{Name: "duration", Required: true, Usage: "auction length in seconds"},
				),
			},
			{
				Name:  "buy",
				Usage: "buy a fixed-price listing",
				Action: post("/sale/buy", func(c *cli.Context) interface{} {
					return handlers.BuyRequest{
						Pool:          c.String("pool"),
						NftMint:       c.String("mint"),
						BuyerNftToken: c.String("nft-account"),
						BuyerPayToken: c.String("pay-account"),
						ManagerToken:  c.String("manager-token"),
						ManagerPot:    c.String("manager-pot"),
					}
				}),
				Flags: append(saleManagerFlags(),
					&cli.StringFlag{Name: "nft-account", Required: true},
					&cli.StringFlag{Name: "pay-account", Required: true},
					&cli.StringFlag{Name: "manager-token", Required: true},
					&cli.StringFlag{Name: "manager-pot", Required: true},
				),
			},
			{
				Name:  "redeem",
				Usage: "cancel a listing",
				Action: post("/sale/redeem", func(c *cli.Context) interface{} {
					return handlers.RedeemRequest{
						Pool:        c.String("pool"),
						NftMint:     c.String("mint"),
						SellerToken: c.String("nft-account"),
					}
				}),
				Flags: append(saleManagerFlags(),
					&cli.StringFlag{Name: "nft-account", Required: true},
				),
			},
			{
				Name:  "withdraw",
				Usage: "withdraw the wallet's share of a sale pot",
				Action: post("/sale/withdraw", func(c *cli.Context) interface{} {
					return handlers.WithdrawRequest{SalePot: c.String("sale-pot"), WithdrawToken: c.String("pay-account")}
				}),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "sale-pot", Required: true},
					&cli.StringFlag{Name: "pay-account", Required: true},
				},
			},
			{
				Name:  "bid",
				Usage: "bid on an auction",
				Action: post("/auction/bid", func(c *cli.Context) interface{} {
					return handlers.BidRequest{
						Pool:            c.String("pool"),
						NftMint:         c.String("mint"),
						BidderToken:     c.String("pay-account"),
						PrevBidderToken: c.String("prev-bidder-account"),
						Amount:          c.Uint64("amount"),
					}
				}),
				Flags: append(saleManagerFlags(),
					&cli.StringFlag{Name: "pay-account", Required: true},
					&cli.StringFlag{Name: "prev-bidder-account"},
					&cli.Uint64Flag{Name: "amount", Required: true},
				),
			},
			{
				Name:  "claim",
				Usage: "claim the token of a won auction",
				Action: post("/auction/claim", func(c *cli.Context) interface{} {
					return handlers.ClaimRequest{
						Pool:          c.String("pool"),
						NftMint:       c.String("mint"),
						ClaimantToken: c.String("nft-account"),
					}
				}),
				Flags: append(saleManagerFlags(),
					&cli.StringFlag{Name: "nft-account", Required: true},
				),
			},
			{
				Name:   "finalize",
				Usage:  "end an auction past its deadline",
				Action: post("/auction/finalize", saleManagerRequest),
				Flags:  saleManagerFlags(),
			},
			{
				Name:      "show",
				Usage:     "print a record, e.g. show pool <address>",
				ArgsUsage: "<pool|pot|auction|account|raw> <address>",
				Action:    show,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Command failed: %v", err)
	}
}

func keygen(c *cli.Context) error {
	km := ntsolana.NewKeyManager(c.String("keystore"))
	account, err := km.GenerateKeyPair()
	if err != nil {
		return err
	}
	path, err := km.SaveKeyStoreEntry(account, c.String("password"))
	if err != nil {
		return err
	}
	log.Infof("Saved wallet %s to %s", account.PublicKey.ToBase58(), path)
	fmt.Println(account.PublicKey.ToBase58())
	return nil
}

// newClient loads the wallet from the keystore
func newClient(c *cli.Context) (*client.Client, error) {
	wallet := c.String("wallet")
	if wallet == "" {
		return nil, fmt.Errorf("--wallet is required")
	}
	signer, err := ntsolana.NewKeyManager(c.String("keystore")).LoadSigner(wallet, c.String("password"))
	if err != nil {
		return nil, err
	}
	return client.NewClient(c.String("api"), signer), nil
}

// post builds an action that signs and sends the request built from flags
func post(path string, build func(c *cli.Context) interface{}) cli.ActionFunc {
	return func(c *cli.Context) error {
		api, err := newClient(c)
		if err != nil {
			return err
		}
		var out json.RawMessage
		if err := api.Post(c.Context, path, build(c), &out); err != nil {
			return err
		}
		return printJSON(out)
	}
}

func show(c *cli.Context) error {
	kind, address := c.Args().Get(0), c.Args().Get(1)
	if address == "" {
		return fmt.Errorf("usage: show <pool|pot|auction|account|raw> <address>")
	}
	paths := map[string]string{
		"pool":    "/pool/",
		"pot":     "/sale/pot/",
		"auction": "/auction/",
		"account": "/token/accounts/",
		"raw":     "/account/",
	}
	prefix, ok := paths[kind]
	if !ok {
		return fmt.Errorf("unknown record kind %q", kind)
	}

	var out json.RawMessage
	api := client.NewClient(c.String("api"), nil)
	if err := api.Get(c.Context, prefix+address, &out); err != nil {
		return err
	}
	return printJSON(out)
}

func mintUniqueRequest(c *cli.Context) interface{} {
	var creators []models.Creator
	if raw := c.String("creators"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &creators); err != nil {
			log.Fatalf("Invalid --creators: %v", err)
		}
	}
	return handlers.MintTokenRequest{
		Mint:                 c.String("mint"),
		TokenAccount:         c.String("account"),
		Name:                 c.String("name"),
		Symbol:               c.String("symbol"),
		Uri:                  c.String("uri"),
		SellerFeeBasisPoints: uint16(c.Uint("fee")),
		Creators:             creators,
		IsMutable:            c.Bool("mutable"),
	}
}

func saleManagerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "pool", Required: true},
		&cli.StringFlag{Name: "mint", Required: true, Usage: "unique token mint"},
	}
}

func saleManagerRequest(c *cli.Context) interface{} {
	return handlers.SaleManagerRequest{Pool: c.String("pool"), NftMint: c.String("mint")}
}

func sellFlags() []cli.Flag {
	return append(saleManagerFlags(),
		&cli.StringFlag{Name: "nft-account", Required: true, Usage: "seller token account of the mint"},
		&cli.StringFlag{Name: "manager-token", Required: true},
		&cli.StringFlag{Name: "manager-pot", Required: true},
		&cli.Uint64Flag{Name: "price", Required: true},
	)
}

func sellRequest(c *cli.Context) interface{} {
	return handlers.SellRequest{
		Pool:         c.String("pool"),
		NftMint:      c.String("mint"),
		SellerToken:  c.String("nft-account"),
		ManagerToken: c.String("manager-token"),
		ManagerPot:   c.String("manager-pot"),
		Price:        c.Uint64("price"),
		Duration:     c.Int64("duration"),
	}
}

func printJSON(raw json.RawMessage) error {
	out, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

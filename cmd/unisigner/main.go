package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Layr-Labs/unisigner-go/pkg/chainManager"
	"github.com/Layr-Labs/unisigner-go/pkg/logger"
	"github.com/Layr-Labs/unisigner-go/pkg/nodeClient"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"github.com/Layr-Labs/unisigner-go/pkg/util"
	"github.com/Layr-Labs/unisigner-go/pkg/wallet"
	cli "github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "unisigner",
		Usage: "Sign and submit Cosmos transactions through external signers",
		Description: `The unisigner CLI builds Cosmos SDK transactions from YAML or JSON files, 
signs them with a key held in AWS KMS, and simulates or broadcasts them through 
a node's REST gateway. It also manages the last connected wallet record.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
				EnvVars: []string{"DEBUG"},
			},
			&cli.StringSliceFlag{
				Name:    "chains",
				Aliases: []string{"c"},
				Usage:   "Chain configurations in format 'chainId=restUrl' (e.g., 'cosmoshub-4=https://rest.cosmos.directory/cosmoshub')",
				EnvVars: []string{"CHAINS"},
			},
			&cli.StringFlag{
				Name:    "chain-config",
				Usage:   "Path to a YAML file with a list of chain configurations",
				EnvVars: []string{"CHAIN_CONFIG"},
			},
			&cli.Float64Flag{
				Name:    "rate-limit",
				Usage:   "Maximum node requests per second (0 disables throttling)",
				EnvVars: []string{"RATE_LIMIT"},
			},
			&cli.IntFlag{
				Name:    "rate-burst",
				Usage:   "Node request burst size",
				Value:   1,
				EnvVars: []string{"RATE_BURST"},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Timeout for each node request",
				Value:   nodeClient.DefaultTimeout,
				EnvVars: []string{"NODE_TIMEOUT"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "key-type",
				Usage:     "Print the public key type a chain expects",
				ArgsUsage: "<chain-id>",
				Action:    keyTypeAction,
			},
			{
				Name:  "account",
				Usage: "Show the account number, sequence and balances of an address",
				Flags: []cli.Flag{
					chainIDFlag(),
					&cli.StringFlag{
						Name:     "address",
						Usage:    "Account address",
						Required: true,
					},
				},
				Action: accountAction,
			},
			{
				Name:  "simulate",
				Usage: "Estimate the gas a transaction uses",
				Flags: []cli.Flag{
					chainIDFlag(),
					txFileFlag(),
				},
				Action: simulateAction,
			},
			{
				Name:  "sign",
				Usage: "Sign a transaction with an AWS KMS key",
				Description: `Sign the transaction described by --tx-file with a secp256k1 key held in 
AWS KMS. The signed TxRaw is printed base64 encoded, or broadcast when 
--broadcast is set.`,
				Flags: []cli.Flag{
					chainIDFlag(),
					txFileFlag(),
					&cli.StringFlag{
						Name:     "kms-key-id",
						Usage:    "AWS KMS key ID used for signing",
						Required: true,
						EnvVars:  []string{"AWS_KMS_KEY_ID"},
					},
					&cli.StringFlag{
						Name:    "aws-region",
						Usage:   "AWS region of the KMS key",
						Value:   "us-east-1",
						EnvVars: []string{"AWS_REGION"},
					},
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Bech32 prefix of the signer address (defaults to the chain's prefix)",
					},
					&cli.BoolFlag{
						Name:  "broadcast",
						Usage: "Broadcast the signed transaction",
					},
					modeFlag(),
				},
				Action: signAction,
			},
			{
				Name:  "broadcast",
				Usage: "Broadcast an already signed transaction",
				Flags: []cli.Flag{
					chainIDFlag(),
					&cli.StringFlag{
						Name:     "tx-bytes",
						Usage:    "Base64 encoded TxRaw",
						Required: true,
					},
					modeFlag(),
				},
				Action: broadcastAction,
			},
			{
				Name:  "tx",
				Usage: "Look a transaction up by hash",
				Flags: []cli.Flag{
					chainIDFlag(),
					&cli.StringFlag{
						Name:     "hash",
						Usage:    "Transaction hash",
						Required: true,
					},
				},
				Action: txAction,
			},
			{
				Name:  "wallet",
				Usage: "Manage the last connected wallet record",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "store",
						Usage:   "Record store: memory, badger or redis",
						Value:   storeBadger,
						EnvVars: []string{"WALLET_STORE"},
					},
					&cli.StringFlag{
						Name:    "data-dir",
						Usage:   "Badger data directory",
						Value:   ".unisigner",
						EnvVars: []string{"WALLET_DATA_DIR"},
					},
					&cli.StringFlag{
						Name:    "redis-address",
						Usage:   "Redis address (host:port)",
						Value:   "localhost:6379",
						EnvVars: []string{"REDIS_ADDRESS"},
					},
					&cli.StringFlag{
						Name:    "redis-password",
						Usage:   "Redis password",
						EnvVars: []string{"REDIS_PASSWORD"},
					},
					&cli.StringFlag{
						Name:  "hd-path",
						Usage: "Derivation path the record is stored under",
						Value: wallet.DefaultHDPath,
					},
				},
				Subcommands: []*cli.Command{
					{
						Name:   "read",
						Usage:  "Print the record",
						Action: walletReadAction,
					},
					{
						Name:  "write",
						Usage: "Store a record",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "wallet",
								Usage:    fmt.Sprintf("Wallet name (%s)", strings.Join(walletNames(), ", ")),
								Required: true,
							},
							&cli.StringFlag{
								Name:     "address",
								Usage:    "Cosmos address of the connected account",
								Required: true,
							},
						},
						Action: walletWriteAction,
					},
					{
						Name:   "remove",
						Usage:  "Delete the record",
						Action: walletRemoveAction,
					},
				},
			},
		},
		Before: validateFlags,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func chainIDFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "chain-id",
		Usage:    "Chain ID of a configured chain",
		Required: true,
		EnvVars:  []string{"CHAIN_ID"},
	}
}

func txFileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "tx-file",
		Aliases:  []string{"f"},
		Usage:    "Path to a YAML or JSON transaction file",
		Required: true,
	}
}

func modeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "mode",
		Usage: "Broadcast mode: sync, async or block",
		Value: "sync",
	}
}

func validateFlags(c *cli.Context) error {
	if c.Float64("rate-limit") < 0 {
		return fmt.Errorf("--rate-limit cannot be negative")
	}
	if c.Duration("timeout") < 0 {
		return fmt.Errorf("--timeout cannot be negative")
	}
	for _, chain := range c.StringSlice("chains") {
		if _, err := chainManager.ParseChainFlag(chain); err != nil {
			return err
		}
	}
	return nil
}

func setupLogger(c *cli.Context) (*zap.Logger, error) {
	return logger.NewLogger(&logger.LoggerConfig{
		Debug: c.Bool("debug"),
	})
}

// chainConfigs merges the chain config file with the --chains flags. Flags win when
// both name the same chain id.
func chainConfigs(flags []string, path string) ([]*chainManager.ChainConfig, error) {
	var configs []*chainManager.ChainConfig
	if path != "" {
		loaded, err := chainManager.LoadChainConfigs(path)
		if err != nil {
			return nil, err
		}
		configs = loaded
	}
	for _, f := range flags {
		cfg, err := chainManager.ParseChainFlag(f)
		if err != nil {
			return nil, err
		}
		replaced := false
		for i, existing := range configs {
			if existing.ChainID == cfg.ChainID {
				configs[i] = cfg
				replaced = true
			}
		}
		if !replaced {
			configs = append(configs, cfg)
		}
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("no chains configured, use --chains or --chain-config")
	}
	return configs, nil
}

func setupChainManager(c *cli.Context, l *zap.Logger) (*chainManager.ChainManager, error) {
	configs, err := chainConfigs(c.StringSlice("chains"), c.String("chain-config"))
	if err != nil {
		return nil, err
	}
	cm := chainManager.NewChainManager(&nodeClient.Config{
		Timeout:   c.Duration("timeout"),
		RateLimit: c.Float64("rate-limit"),
		RateBurst: c.Int("rate-burst"),
	}, l)
	for _, cfg := range configs {
		if err := cm.AddChain(cfg); err != nil {
			return nil, fmt.Errorf("failed to add chain %s: %w", cfg.ChainID, err)
		}
	}
	return cm, nil
}

func walletNames() []string {
	return util.Map(wallet.WalletNames(), func(n wallet.WalletName, _ uint64) string {
		return string(n)
	})
}

func parseMode(c *cli.Context) (types.BroadcastMode, error) {
	return types.ParseBroadcastMode(c.String("mode"))
}

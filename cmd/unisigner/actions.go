package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Layr-Labs/unisigner-go/pkg/amino"
	"github.com/Layr-Labs/unisigner-go/pkg/chainManager"
	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/keyType"
	"github.com/Layr-Labs/unisigner-go/pkg/messages"
	"github.com/Layr-Labs/unisigner-go/pkg/metrics"
	"github.com/Layr-Labs/unisigner-go/pkg/orchestrator"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"github.com/Layr-Labs/unisigner-go/pkg/wallet"
	"github.com/Layr-Labs/unisigner-go/pkg/walletStore"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/kms"
	"github.com/prometheus/client_golang/prometheus"
	cli "github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const (
	storeMemory = "memory"
	storeBadger = "badger"
	storeRedis  = "redis"
)

// chainEnv bundles what every chain-facing command needs.
type chainEnv struct {
	logger       *zap.Logger
	chain        *chainManager.Chain
	registry     *codec.Registry
	orchestrator *orchestrator.Orchestrator
}

func setupRuntime(c *cli.Context) (*chainEnv, error) {
	l, err := setupLogger(c)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	cm, err := setupChainManager(c, l)
	if err != nil {
		return nil, fmt.Errorf("failed to setup chain manager: %w", err)
	}
	chain, err := cm.GetChainForId(c.String("chain-id"))
	if err != nil {
		return nil, err
	}
	registry := messages.NewRegistry()
	orc, err := orchestrator.NewOrchestrator(nil, registry, metrics.NewMetrics(prometheus.NewRegistry()), l,
		orchestrator.WithNodeClients(chain.Node),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to setup orchestrator: %w", err)
	}
	return &chainEnv{logger: l, chain: chain, registry: registry, orchestrator: orc}, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// buildTransaction reads the tx file and fills in the counters it omits from the node.
func (r *chainEnv) buildTransaction(ctx context.Context, path string, signer string) (*types.Transaction, error) {
	tf, err := readTxFile(path)
	if err != nil {
		return nil, err
	}
	if signer == "" {
		signer = tf.Signer
	}
	var accountNumber, sequence uint64
	if tf.needsCounters() {
		acct, err := r.chain.Node.GetAccount(ctx, signer)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch signer account: %w", err)
		}
		accountNumber, sequence = acct.AccountNumber, acct.Sequence
	}
	return tf.transaction(amino.NewAminoTypes(), r.chain.Config().ChainID, signer, accountNumber, sequence)
}

func keyTypeAction(c *cli.Context) error {
	chainID := c.Args().First()
	if chainID == "" {
		return fmt.Errorf("chain id argument is required")
	}
	out := map[string]interface{}{
		"chainId": chainID,
		"keyType": keyType.Resolve(chainID),
	}
	if keyType.IsEthermint(chainID) {
		out["ethChainId"] = keyType.ExtractEthChainID(chainID)
	}
	return printJSON(out)
}

func accountAction(c *cli.Context) error {
	r, err := setupRuntime(c)
	if err != nil {
		return err
	}
	ctx := c.Context
	addr := c.String("address")
	acct, err := r.chain.Node.GetAccount(ctx, addr)
	if err != nil {
		return err
	}
	balances, err := r.chain.Node.GetBalances(ctx, addr)
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"address":       addr,
		"accountNumber": acct.AccountNumber,
		"sequence":      acct.Sequence,
		"balances":      balances,
	})
}

func simulateAction(c *cli.Context) error {
	r, err := setupRuntime(c)
	if err != nil {
		return err
	}
	tx, err := r.buildTransaction(c.Context, c.String("tx-file"), "")
	if err != nil {
		return err
	}
	gas, err := r.orchestrator.Simulate(c.Context, r.chain.Node.Endpoint(), tx)
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{"gasUsed": gas})
}

func newKMSClient(region string) (*kms.KMS, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return kms.New(sess), nil
}

func signAction(c *cli.Context) error {
	r, err := setupRuntime(c)
	if err != nil {
		return err
	}
	mode, err := parseMode(c)
	if err != nil {
		return err
	}
	client, err := newKMSClient(c.String("aws-region"))
	if err != nil {
		return err
	}
	factory, err := wallet.NewFactory(&wallet.StaticEnvironment{KMSClient: client}, r.registry, r.logger)
	if err != nil {
		return err
	}
	prefix := c.String("prefix")
	if prefix == "" {
		prefix = r.chain.Config().Prefix
	}
	w, err := factory.CreateWallet(wallet.WalletNameAwsKms, &wallet.WalletArgument{
		ChainID: r.chain.Config().ChainID,
		KeyID:   c.String("kms-key-id"),
		Prefix:  prefix,
	})
	if err != nil {
		return err
	}
	accounts, err := w.GetAccounts(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read KMS key: %w", err)
	}

	tx, err := r.buildTransaction(c.Context, c.String("tx-file"), accounts[0].Address)
	if err != nil {
		return err
	}
	signed, err := r.orchestrator.Sign(c.Context, w, tx)
	if err != nil {
		return err
	}
	txBytes := codec.EncodeTxRaw(signed)
	if !c.Bool("broadcast") {
		return printJSON(map[string]interface{}{
			"signer":  accounts[0].Address,
			"txBytes": base64.StdEncoding.EncodeToString(txBytes),
		})
	}
	res, err := r.orchestrator.Broadcast(c.Context, r.chain.Node.Endpoint(), signed, mode)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func broadcastAction(c *cli.Context) error {
	r, err := setupRuntime(c)
	if err != nil {
		return err
	}
	mode, err := parseMode(c)
	if err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(c.String("tx-bytes"))
	if err != nil {
		return fmt.Errorf("invalid --tx-bytes: %w", err)
	}
	signed, err := codec.DecodeTxRaw(raw)
	if err != nil {
		return fmt.Errorf("invalid --tx-bytes: %w", err)
	}
	res, err := r.orchestrator.Broadcast(c.Context, r.chain.Node.Endpoint(), signed, mode)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func txAction(c *cli.Context) error {
	r, err := setupRuntime(c)
	if err != nil {
		return err
	}
	res, err := r.chain.Node.GetTx(c.Context, c.String("hash"))
	if err != nil {
		return err
	}
	return printJSON(res)
}

func setupWalletStore(c *cli.Context, l *zap.Logger) (walletStore.IWalletStore, error) {
	switch c.String("store") {
	case storeMemory:
		return walletStore.NewMemoryStore(), nil
	case storeBadger:
		return walletStore.NewBadgerStore(c.String("data-dir"), l)
	case storeRedis:
		return walletStore.NewRedisStore(&walletStore.RedisConfig{
			Address:  c.String("redis-address"),
			Password: c.String("redis-password"),
		}, l)
	default:
		return nil, fmt.Errorf("unknown wallet store %q, expected %s, %s or %s", c.String("store"), storeMemory, storeBadger, storeRedis)
	}
}

// withWalletStore opens the configured store, runs fn and closes the store.
func withWalletStore(c *cli.Context, fn func(store walletStore.IWalletStore) error) error {
	l, err := setupLogger(c)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	store, err := setupWalletStore(c, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			l.Sugar().Warnw("Failed to close wallet store", zap.Error(err))
		}
	}()
	return fn(store)
}

func walletReadAction(c *cli.Context) error {
	return withWalletStore(c, func(store walletStore.IWalletStore) error {
		rec, err := store.ReadWallet(c.Context, c.String("hd-path"))
		if err != nil {
			return err
		}
		return printJSON(rec)
	})
}

func walletWriteAction(c *cli.Context) error {
	if _, err := wallet.ParseWalletName(c.String("wallet")); err != nil {
		return err
	}
	return withWalletStore(c, func(store walletStore.IWalletStore) error {
		return store.WriteWallet(c.Context, &walletStore.ConnectedWallet{
			Wallet:        wallet.WalletName(c.String("wallet")),
			CosmosAddress: c.String("address"),
			HdPath:        c.String("hd-path"),
		}, c.String("hd-path"))
	})
}

func walletRemoveAction(c *cli.Context) error {
	return withWalletStore(c, func(store walletStore.IWalletStore) error {
		return store.RemoveWallet(c.Context, c.String("hd-path"))
	})
}

// Package orchestrator drives a transaction through a signing backend and submits the
// result to a node. It owns the node-facing half of the flow: simulation with a
// placeholder signer, broadcast, and the classification of node failures.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/keyType"
	"github.com/Layr-Labs/unisigner-go/pkg/metrics"
	"github.com/Layr-Labs/unisigner-go/pkg/nodeClient"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"github.com/Layr-Labs/unisigner-go/pkg/wallet"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config holds the settings used for node clients the orchestrator creates on demand.
type Config struct {
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
}

// Orchestrator signs transactions with a backend and talks to nodes.
type Orchestrator struct {
	config   *Config
	registry *codec.Registry
	metrics  *metrics.Metrics
	logger   *zap.Logger

	mu    sync.Mutex
	nodes map[string]nodeClient.INodeClient
}

type Option func(*Orchestrator)

// WithNodeClients registers existing clients so calls to their endpoints reuse them.
func WithNodeClients(clients ...nodeClient.INodeClient) Option {
	return func(o *Orchestrator) {
		for _, c := range clients {
			o.nodes[normalizeEndpoint(c.Endpoint())] = c
		}
	}
}

// NewOrchestrator creates an orchestrator.
//
// Parameters:
//   - cfg: Settings for node clients created on demand; nil uses the defaults
//   - registry: The message registry used to encode simulation bodies
//   - m: Metrics sink
//   - l: Logger
//   - opts: Optional settings
//
// Returns:
//   - *Orchestrator: The orchestrator
//   - error: An error if a required dependency is missing
func NewOrchestrator(cfg *Config, registry *codec.Registry, m *metrics.Metrics, l *zap.Logger, opts ...Option) (*Orchestrator, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if m == nil {
		return nil, fmt.Errorf("metrics cannot be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	o := &Orchestrator{
		config:   cfg,
		registry: registry,
		metrics:  m,
		logger:   l,
		nodes:    make(map[string]nodeClient.INodeClient),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

func normalizeEndpoint(endpoint string) string {
	return strings.TrimRight(endpoint, "/")
}

// node returns the client for endpoint, creating it on first use.
func (o *Orchestrator) node(endpoint string) (nodeClient.INodeClient, error) {
	key := normalizeEndpoint(endpoint)
	o.mu.Lock()
	defer o.mu.Unlock()
	if nc, ok := o.nodes[key]; ok {
		return nc, nil
	}
	nc, err := nodeClient.NewNodeClient(&nodeClient.Config{
		Endpoint:  key,
		Timeout:   o.config.Timeout,
		RateLimit: o.config.RateLimit,
		RateBurst: o.config.RateBurst,
	}, o.logger)
	if err != nil {
		return nil, err
	}
	o.nodes[key] = nc
	return nc, nil
}

// Sign validates tx and signs it with w. The backend picks the protocol; every
// attempt is counted per backend and tagged with a flow id in the logs.
func (o *Orchestrator) Sign(ctx context.Context, w wallet.IWallet, tx *types.Transaction) (*types.SignedTransaction, error) {
	if w == nil {
		return nil, fmt.Errorf("wallet cannot be nil")
	}
	if err := tx.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transaction: %w", err)
	}

	flowID := uuid.New().String()
	l := o.logger.With(
		zap.String("flowId", flowID),
		zap.String("wallet", string(w.Name())),
		zap.String("chainId", tx.ChainID),
	)
	l.Sugar().Infow("Signing transaction",
		zap.String("signer", tx.SignerAddress),
		zap.Strings("typeUrls", tx.TypeURLs()),
	)

	start := time.Now()
	signed, err := w.Sign(ctx, tx)
	if err == nil && (signed == nil || len(signed.Signatures) != 1 || len(signed.Signatures[0]) == 0) {
		signed, err = nil, fmt.Errorf("%s returned an incomplete signed transaction", w.Name())
	}
	o.metrics.ObserveSign(string(w.Name()), time.Since(start), err)
	if err != nil {
		l.Sugar().Warnw("Signing failed", zap.Error(err))
		return nil, err
	}
	l.Sugar().Infow("Signed transaction", zap.Duration("duration", time.Since(start)))
	return signed, nil
}

// SimulationTxBytes encodes tx as an unsigned TxRaw: a placeholder ed25519 key with an
// empty value and one empty signature.
func (o *Orchestrator) SimulationTxBytes(tx *types.Transaction) ([]byte, error) {
	body, err := o.registry.EncodeTxBody(tx.Messages, tx.Memo)
	if err != nil {
		return nil, err
	}
	gas, err := tx.Fee.GasLimit()
	if err != nil {
		return nil, err
	}
	placeholder := &codec.Any{TypeURL: keyType.PubKeyEd25519Placeholder}
	authInfo := codec.BuildAuthInfo(placeholder, tx.SignerData.Sequence, tx.Fee.Amount, gas, tx.Fee.Granter, tx.Fee.Payer, codec.SignModeDirect)
	return codec.EncodeTxRaw(&types.SignedTransaction{
		BodyBytes:     body,
		AuthInfoBytes: authInfo,
		Signatures:    [][]byte{{}},
	}), nil
}

// Simulate dry-runs tx against the node at endpoint and returns the gas it used. A
// non-zero code at either response layer fails with types.ErrSimulationFailed.
func (o *Orchestrator) Simulate(ctx context.Context, endpoint string, tx *types.Transaction) (uint64, error) {
	if err := tx.Validate(); err != nil {
		return 0, fmt.Errorf("invalid transaction: %w", err)
	}
	txBytes, err := o.SimulationTxBytes(tx)
	if err != nil {
		return 0, err
	}
	nc, err := o.node(endpoint)
	if err != nil {
		return 0, err
	}
	res, err := nc.Simulate(ctx, txBytes)
	o.metrics.ObserveNodeRequest(types.NodeOpSimulate, err)
	if err != nil {
		return 0, err
	}
	o.logger.Sugar().Debugw("Simulated transaction",
		zap.String("endpoint", nc.Endpoint()),
		zap.Uint64("gasUsed", res.GasUsed),
	)
	return res.GasUsed, nil
}

// Broadcast submits signed to the node at endpoint. An empty mode means sync. Nothing
// is retried.
func (o *Orchestrator) Broadcast(ctx context.Context, endpoint string, signed *types.SignedTransaction, mode types.BroadcastMode) (*types.TxResponse, error) {
	if signed == nil {
		return nil, fmt.Errorf("signed transaction cannot be nil")
	}
	nc, err := o.node(endpoint)
	if err != nil {
		return nil, err
	}
	res, err := nc.Broadcast(ctx, codec.EncodeTxRaw(signed), mode)
	o.metrics.ObserveNodeRequest(types.NodeOpBroadcast, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SignAndBroadcast signs tx with w and broadcasts the result to endpoint.
func (o *Orchestrator) SignAndBroadcast(ctx context.Context, w wallet.IWallet, endpoint string, tx *types.Transaction, mode types.BroadcastMode) (*types.TxResponse, error) {
	signed, err := o.Sign(ctx, w, tx)
	if err != nil {
		return nil, err
	}
	return o.Broadcast(ctx, endpoint, signed, mode)
}

// Package nodeClient talks JSON over HTTP to the REST gateway of a Cosmos node. It
// covers the two calls signing needs (simulate and broadcast) plus the account, balance
// and transaction lookups used to fill in signer data.
package nodeClient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Layr-Labs/unisigner-go/pkg/logger"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	simulatePath  = "/cosmos/tx/v1beta1/simulate"
	broadcastPath = "/cosmos/tx/v1beta1/txs"
	txPath        = "/cosmos/tx/v1beta1/txs/%s"
	accountPath   = "/cosmos/auth/v1beta1/accounts/%s"
	balancesPath  = "/cosmos/bank/v1beta1/balances/%s"

	DefaultTimeout = 30 * time.Second
)

// INodeClient is the node boundary used by the orchestrator and the CLI.
type INodeClient interface {
	// Simulate dry-runs an encoded TxRaw and returns the gas it used
	Simulate(ctx context.Context, txBytes []byte) (*SimulateResponse, error)
	// Broadcast submits an encoded TxRaw
	Broadcast(ctx context.Context, txBytes []byte, mode types.BroadcastMode) (*types.TxResponse, error)
	// GetAccount returns the account number and sequence of address
	GetAccount(ctx context.Context, address string) (*AccountInfo, error)
	// GetBalances returns every balance held by address
	GetBalances(ctx context.Context, address string) ([]types.Coin, error)
	// GetTx looks a transaction up by hash
	GetTx(ctx context.Context, hash string) (*types.TxResponse, error)
	// Endpoint is the REST base url the client talks to
	Endpoint() string
}

// Config holds the connection settings of a node client.
type Config struct {
	// Endpoint is the REST gateway base url, e.g. https://rest.cosmos.directory/cosmoshub
	Endpoint string
	// Timeout bounds each request; zero means DefaultTimeout
	Timeout time.Duration
	// RateLimit caps requests per second; zero disables throttling
	RateLimit float64
	// RateBurst is the limiter burst; values below one are treated as one
	RateBurst int
}

// SimulateResponse is the gas estimate returned by a successful simulation.
type SimulateResponse struct {
	GasWanted uint64
	GasUsed   uint64
}

// AccountInfo is the signer data of an on-chain account.
type AccountInfo struct {
	Address       string
	AccountNumber uint64
	Sequence      uint64
}

// NodeClient implements INodeClient with resty.
type NodeClient struct {
	config  *Config
	client  *resty.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

var _ INodeClient = (*NodeClient)(nil)

// NewNodeClient creates a client for one node endpoint.
//
// Parameters:
//   - cfg: Endpoint, timeout and rate limit settings
//   - l: Logger used for request logging
//
// Returns:
//   - *NodeClient: The client
//   - error: An error if the endpoint is missing
func NewNodeClient(cfg *Config, l *zap.Logger) (*NodeClient, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("node endpoint cannot be empty")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.Endpoint, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		OnAfterResponse(logger.RestyResponseLogger(l))

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &NodeClient{
		config:  cfg,
		client:  client,
		limiter: limiter,
		logger:  l,
	}, nil
}

func (nc *NodeClient) Endpoint() string {
	return nc.client.BaseURL
}

func (nc *NodeClient) wait(ctx context.Context) error {
	if nc.limiter == nil {
		return nil
	}
	if err := nc.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// txRequest is the body of both simulate and broadcast.
type txRequest struct {
	TxBytes string              `json:"tx_bytes"`
	Mode    types.BroadcastMode `json:"mode,omitempty"`
}

// envelope captures both failure layers: the gateway error (code/message) and the
// nested tx_response.
type envelope struct {
	Code       *uint32           `json:"code"`
	Message    string            `json:"message"`
	TxResponse *types.TxResponse `json:"tx_response"`
	GasInfo    *struct {
		GasWanted string `json:"gas_wanted"`
		GasUsed   string `json:"gas_used"`
	} `json:"gas_info"`
}

// checkEnvelope maps a failed outer or inner result to a NodeError.
func checkEnvelope(op string, resp *resty.Response) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, &types.NodeError{
			Op:     op,
			Code:   uint32(resp.StatusCode()),
			RawLog: fmt.Sprintf("unreadable node response (HTTP %d): %s", resp.StatusCode(), truncate(resp.String(), 512)),
		}
	}
	if env.Code != nil && *env.Code != 0 {
		return nil, &types.NodeError{Op: op, Code: *env.Code, RawLog: env.Message}
	}
	if env.TxResponse != nil && env.TxResponse.Code != 0 {
		return nil, &types.NodeError{
			Op:        op,
			Code:      env.TxResponse.Code,
			Codespace: env.TxResponse.Codespace,
			RawLog:    env.TxResponse.RawLog,
		}
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, &types.NodeError{
			Op:     op,
			Code:   uint32(resp.StatusCode()),
			RawLog: fmt.Sprintf("node returned HTTP %d", resp.StatusCode()),
		}
	}
	return &env, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func (nc *NodeClient) postTx(ctx context.Context, op string, path string, body txRequest) (*envelope, error) {
	if err := nc.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := nc.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("failed to %s transaction: %w", op, err)
	}
	return checkEnvelope(op, resp)
}

// Simulate posts the transaction to the simulate endpoint. A failure in either the
// outer response or the nested tx_response is returned as a *types.NodeError wrapping
// types.ErrSimulationFailed.
func (nc *NodeClient) Simulate(ctx context.Context, txBytes []byte) (*SimulateResponse, error) {
	env, err := nc.postTx(ctx, types.NodeOpSimulate, simulatePath, txRequest{
		TxBytes: base64.StdEncoding.EncodeToString(txBytes),
	})
	if err != nil {
		return nil, err
	}
	if env.GasInfo == nil {
		return nil, &types.NodeError{Op: types.NodeOpSimulate, RawLog: "response has no gas_info"}
	}
	res := &SimulateResponse{}
	if res.GasUsed, err = parseUintField("gas_used", env.GasInfo.GasUsed); err != nil {
		return nil, err
	}
	if env.GasInfo.GasWanted != "" {
		if res.GasWanted, err = parseUintField("gas_wanted", env.GasInfo.GasWanted); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Broadcast posts the transaction to the txs endpoint with mode, defaulting to sync.
// It never retries.
func (nc *NodeClient) Broadcast(ctx context.Context, txBytes []byte, mode types.BroadcastMode) (*types.TxResponse, error) {
	if mode == "" {
		mode = types.BroadcastModeSync
	}
	env, err := nc.postTx(ctx, types.NodeOpBroadcast, broadcastPath, txRequest{
		TxBytes: base64.StdEncoding.EncodeToString(txBytes),
		Mode:    mode,
	})
	if err != nil {
		return nil, err
	}
	if env.TxResponse == nil {
		return nil, &types.NodeError{Op: types.NodeOpBroadcast, RawLog: "response has no tx_response"}
	}
	nc.logger.Sugar().Infow("Broadcast transaction",
		zap.String("txhash", env.TxResponse.TxHash),
		zap.String("mode", string(mode)),
	)
	return env.TxResponse, nil
}

func (nc *NodeClient) get(ctx context.Context, path string) ([]byte, error) {
	if err := nc.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := nc.client.R().SetContext(ctx).Get(path)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", path, err)
	}
	if resp.IsError() {
		var env envelope
		if json.Unmarshal(resp.Body(), &env) == nil && env.Message != "" {
			return nil, fmt.Errorf("query %s failed with HTTP %d: %s", path, resp.StatusCode(), env.Message)
		}
		return nil, fmt.Errorf("query %s failed with HTTP %d", path, resp.StatusCode())
	}
	return resp.Body(), nil
}

// GetAccount queries the auth module. account_number and sequence are searched for
// anywhere in the account object so that vesting and Ethermint wrappers resolve too.
func (nc *NodeClient) GetAccount(ctx context.Context, address string) (*AccountInfo, error) {
	body, err := nc.get(ctx, fmt.Sprintf(accountPath, address))
	if err != nil {
		return nil, err
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode account response: %w", err)
	}

	info := &AccountInfo{Address: address}
	accNum, ok := findField(raw, "account_number")
	if !ok {
		return nil, fmt.Errorf("%w: no account_number for %s", types.ErrAccountNotFound, address)
	}
	if info.AccountNumber, err = parseUintValue("account_number", accNum); err != nil {
		return nil, err
	}
	// a fresh account may omit its zero sequence
	if seq, ok := findField(raw, "sequence"); ok {
		if info.Sequence, err = parseUintValue("sequence", seq); err != nil {
			return nil, err
		}
	}
	return info, nil
}

// GetBalances returns the bank balances of address.
func (nc *NodeClient) GetBalances(ctx context.Context, address string) ([]types.Coin, error) {
	body, err := nc.get(ctx, fmt.Sprintf(balancesPath, address))
	if err != nil {
		return nil, err
	}
	var res struct {
		Balances []types.Coin `json:"balances"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("failed to decode balances response: %w", err)
	}
	if res.Balances == nil {
		res.Balances = []types.Coin{}
	}
	return res.Balances, nil
}

// GetTx returns the tx_response of a committed transaction.
func (nc *NodeClient) GetTx(ctx context.Context, hash string) (*types.TxResponse, error) {
	body, err := nc.get(ctx, fmt.Sprintf(txPath, hash))
	if err != nil {
		return nil, err
	}
	var res struct {
		TxResponse *types.TxResponse `json:"tx_response"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("failed to decode tx response: %w", err)
	}
	if res.TxResponse == nil {
		return nil, fmt.Errorf("transaction %s not found", hash)
	}
	return res.TxResponse, nil
}

// findField does a depth-first search for name, skipping "@type" style keys and arrays.
func findField(obj map[string]interface{}, name string) (interface{}, bool) {
	if v, ok := obj[name]; ok {
		return v, true
	}
	keys := make([]string, 0, len(obj))
	for key := range obj {
		if !strings.HasPrefix(key, "@") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		sub, ok := obj[key].(map[string]interface{})
		if !ok {
			continue
		}
		if found, ok := findField(sub, name); ok {
			return found, true
		}
	}
	return nil, false
}

func parseUintValue(name string, v interface{}) (uint64, error) {
	switch t := v.(type) {
	case string:
		return parseUintField(name, t)
	case float64:
		if t < 0 || t != float64(uint64(t)) {
			return 0, fmt.Errorf("invalid %s %v", name, t)
		}
		return uint64(t), nil
	default:
		return 0, fmt.Errorf("invalid %s %v", name, v)
	}
}

func parseUintField(name string, s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return n, nil
}

// Package chainManager provides per-chain configuration and node connections.
// This package manages the Cosmos chains a signer works with, providing a unified
// interface for looking up a chain's settings and the node client that serves it.
package chainManager

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/Layr-Labs/unisigner-go/pkg/keyType"
	"github.com/Layr-Labs/unisigner-go/pkg/nodeClient"
	"github.com/Layr-Labs/unisigner-go/pkg/util"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

var (
	// ErrChainNotFound is returned when a requested chain ID is not found in the manager
	ErrChainNotFound = errors.New("chain not found")
)

// IChainManager defines the interface for managing chain connections.
type IChainManager interface {
	// AddChain adds a new chain to the manager
	AddChain(cfg *ChainConfig) error
	// GetChainForId retrieves a chain by its chain ID
	GetChainForId(chainId string) (*Chain, error)
	// ChainIDs lists the registered chain IDs in sorted order
	ChainIDs() []string
}

// ChainConfig holds the settings of one Cosmos chain.
type ChainConfig struct {
	// ChainID is the network identifier signed into every transaction
	ChainID string `yaml:"chainId" json:"chainId"`
	// Name is a human readable name
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	// Prefix is the bech32 account prefix
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	// RestURL is the base url of the node's REST gateway
	RestURL string `yaml:"restUrl" json:"restUrl"`
	// Denom is the fee denomination
	Denom string `yaml:"denom,omitempty" json:"denom,omitempty"`
	// HdPath is the derivation path wallets use on this chain
	HdPath string `yaml:"hdPath,omitempty" json:"hdPath,omitempty"`

	ExplorerURL string `yaml:"explorerUrl,omitempty" json:"explorerUrl,omitempty"`
	FaucetURL   string `yaml:"faucetUrl,omitempty" json:"faucetUrl,omitempty"`
	LogoURL     string `yaml:"logoUrl,omitempty" json:"logoUrl,omitempty"`
}

// Validate checks that the config names a chain and a reachable-looking REST url.
func (c *ChainConfig) Validate() error {
	return c.validate(field.NewPath("chain")).ToAggregate()
}

func (c *ChainConfig) validate(p *field.Path) field.ErrorList {
	var allErrs field.ErrorList
	if c.ChainID == "" {
		allErrs = append(allErrs, field.Required(p.Child("chainId"), "chain id is required"))
	}
	if c.RestURL == "" {
		allErrs = append(allErrs, field.Required(p.Child("restUrl"), "rest url is required"))
	} else if err := validateURL(c.RestURL); err != nil {
		allErrs = append(allErrs, field.Invalid(p.Child("restUrl"), c.RestURL, err.Error()))
	}
	optional := []struct{ name, value string }{
		{"explorerUrl", c.ExplorerURL},
		{"faucetUrl", c.FaucetURL},
		{"logoUrl", c.LogoURL},
	}
	for _, o := range optional {
		if o.value == "" {
			continue
		}
		if err := validateURL(o.value); err != nil {
			allErrs = append(allErrs, field.Invalid(p.Child(o.name), o.value, err.Error()))
		}
	}
	return allErrs
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

// KeyType returns the public key type URL signers on this chain must use.
func (c *ChainConfig) KeyType() string {
	return keyType.Resolve(c.ChainID)
}

// chainFile is the on-disk layout read by LoadChainConfigs.
type chainFile struct {
	Chains []*ChainConfig `yaml:"chains"`
}

// ParseChainConfigs decodes a YAML (or JSON) document with a top level chains list and
// validates every entry. Duplicate chain IDs are rejected.
func ParseChainConfigs(data []byte) ([]*ChainConfig, error) {
	var f chainFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse chain config: %w", err)
	}
	var allErrs field.ErrorList
	seen := make(map[string]bool, len(f.Chains))
	for i, c := range f.Chains {
		p := field.NewPath("chains").Index(i)
		if c == nil {
			allErrs = append(allErrs, field.Required(p, "chain entry is empty"))
			continue
		}
		allErrs = append(allErrs, c.validate(p)...)
		if c.ChainID != "" && seen[c.ChainID] {
			allErrs = append(allErrs, field.Duplicate(p.Child("chainId"), c.ChainID))
		}
		seen[c.ChainID] = true
	}
	if len(allErrs) > 0 {
		return nil, allErrs.ToAggregate()
	}
	return f.Chains, nil
}

// LoadChainConfigs reads chain configs from the file at path.
func LoadChainConfigs(path string) ([]*ChainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain config %s: %w", path, err)
	}
	return ParseChainConfigs(data)
}

// ParseChainFlag parses the chainId=restUrl form used on the command line.
func ParseChainFlag(s string) (*ChainConfig, error) {
	chainID, restURL, ok := strings.Cut(s, "=")
	if !ok {
		return nil, fmt.Errorf("invalid chain %q, expected chainId=restUrl", s)
	}
	cfg := &ChainConfig{ChainID: strings.TrimSpace(chainID), RestURL: strings.TrimSpace(restURL)}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Chain represents a configured chain and the node client that serves it.
type Chain struct {
	config *ChainConfig
	// Node is the client for the chain's REST gateway
	Node nodeClient.INodeClient
}

// Config returns the chain's configuration.
func (c *Chain) Config() *ChainConfig {
	return c.config
}

// NodeClientFactory builds the node client for a chain.
type NodeClientFactory func(cfg *ChainConfig) (nodeClient.INodeClient, error)

// ChainManager implements IChainManager.
// This implementation is thread-safe using sync.Map for concurrent access.
type ChainManager struct {
	Chains sync.Map // map[string]*Chain

	newNode NodeClientFactory
	logger  *zap.Logger
}

// NewChainManager creates a new ChainManager instance.
//
// Parameters:
//   - defaults: Node client settings applied to every chain; the endpoint is taken from the chain
//   - l: Logger passed to the node clients
//
// Returns:
//   - *ChainManager: A new chain manager instance
func NewChainManager(defaults *nodeClient.Config, l *zap.Logger) *ChainManager {
	if defaults == nil {
		defaults = &nodeClient.Config{}
	}
	return NewChainManagerWithFactory(func(cfg *ChainConfig) (nodeClient.INodeClient, error) {
		nc := *defaults
		nc.Endpoint = cfg.RestURL
		return nodeClient.NewNodeClient(&nc, l)
	}, l)
}

// NewChainManagerWithFactory creates a ChainManager whose node clients come from newNode.
func NewChainManagerWithFactory(newNode NodeClientFactory, l *zap.Logger) *ChainManager {
	if l == nil {
		l = zap.NewNop()
	}
	return &ChainManager{newNode: newNode, logger: l}
}

// AddChain validates cfg, creates its node client and stores the chain.
// This method is thread-safe and can be called concurrently.
//
// Parameters:
//   - cfg: The chain configuration
//
// Returns:
//   - error: An error if the config is invalid, the chain already exists or the client cannot be created
func (cm *ChainManager) AddChain(cfg *ChainConfig) error {
	if cfg == nil {
		return fmt.Errorf("chain config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, exists := cm.Chains.Load(cfg.ChainID); exists {
		return fmt.Errorf("chain with ID %s already exists", cfg.ChainID)
	}
	node, err := cm.newNode(cfg)
	if err != nil {
		return fmt.Errorf("failed to create node client for %s: %w", cfg.RestURL, err)
	}
	if _, loaded := cm.Chains.LoadOrStore(cfg.ChainID, &Chain{config: cfg, Node: node}); loaded {
		return fmt.Errorf("chain with ID %s already exists", cfg.ChainID)
	}
	cm.logger.Sugar().Debugw("Added chain",
		zap.String("chainId", cfg.ChainID),
		zap.String("restUrl", cfg.RestURL),
		zap.String("keyType", cfg.KeyType()),
	)
	return nil
}

// GetChainForId retrieves a chain by its chain ID.
// This method is thread-safe and can be called concurrently.
//
// Parameters:
//   - chainId: The chain ID to look up
//
// Returns:
//   - *Chain: The chain if found
//   - error: ErrChainNotFound if the chain ID is not registered
func (cm *ChainManager) GetChainForId(chainId string) (*Chain, error) {
	value, exists := cm.Chains.Load(chainId)
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrChainNotFound, chainId)
	}
	chain, ok := value.(*Chain)
	if !ok {
		return nil, fmt.Errorf("invalid chain type stored for ID %s", chainId)
	}
	return chain, nil
}

// ChainIDs lists the registered chain IDs in sorted order.
func (cm *ChainManager) ChainIDs() []string {
	var chains []*Chain
	cm.Chains.Range(func(_, value any) bool {
		if c, ok := value.(*Chain); ok {
			chains = append(chains, c)
		}
		return true
	})
	ids := util.Map(chains, func(c *Chain, _ uint64) string {
		return c.config.ChainID
	})
	sort.Strings(ids)
	return ids
}

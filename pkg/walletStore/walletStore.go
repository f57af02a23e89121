// Package walletStore persists the last connected wallet per derivation path, so a
// caller can reconnect the same backend and account on its next run.
package walletStore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Layr-Labs/unisigner-go/pkg/wallet"
)

const (
	// DefaultKey is the record key used when no hd path is given
	DefaultKey = wallet.DefaultHDPath

	keyPrefix = "wallet:"
)

// ConnectedWallet is the record written after a successful connection.
type ConnectedWallet struct {
	Wallet        wallet.WalletName `json:"wallet,omitempty"`
	CosmosAddress string            `json:"cosmosAddress,omitempty"`
	HdPath        string            `json:"hdPath,omitempty"`
}

// IsEmpty reports whether the record carries no wallet.
func (c *ConnectedWallet) IsEmpty() bool {
	return c == nil || (c.Wallet == "" && c.CosmosAddress == "")
}

// IWalletStore reads and writes connected wallet records keyed by hd path.
// All implementations must be thread-safe.
type IWalletStore interface {
	// ReadWallet returns the record for hdPath. A missing record is returned as an
	// empty record, not an error.
	ReadWallet(ctx context.Context, hdPath string) (*ConnectedWallet, error)
	// WriteWallet stores record under hdPath, replacing any previous record
	WriteWallet(ctx context.Context, record *ConnectedWallet, hdPath string) error
	// RemoveWallet deletes the record for hdPath. Removing a missing record is not an error
	RemoveWallet(ctx context.Context, hdPath string) error
	// Close releases the store. Calling Close more than once is safe
	Close() error
}

// recordKey maps an hd path to the storage key, applying the default path.
func recordKey(hdPath string) string {
	if hdPath == "" {
		hdPath = DefaultKey
	}
	return keyPrefix + hdPath
}

func marshalRecord(record *ConnectedWallet) ([]byte, error) {
	if record == nil {
		return nil, fmt.Errorf("cannot write nil wallet record")
	}
	return json.Marshal(record)
}

func unmarshalRecord(data []byte) (*ConnectedWallet, error) {
	record := &ConnectedWallet{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("failed to decode wallet record: %w", err)
	}
	return record, nil
}

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

var _ IWalletStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

func (m *MemoryStore) ReadWallet(ctx context.Context, hdPath string) (*ConnectedWallet, error) {
	m.mu.RLock()
	data, ok := m.records[recordKey(hdPath)]
	m.mu.RUnlock()
	if !ok {
		return &ConnectedWallet{}, nil
	}
	return unmarshalRecord(data)
}

func (m *MemoryStore) WriteWallet(ctx context.Context, record *ConnectedWallet, hdPath string) error {
	data, err := marshalRecord(record)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[recordKey(hdPath)] = data
	return nil
}

func (m *MemoryStore) RemoveWallet(ctx context.Context, hdPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, recordKey(hdPath))
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

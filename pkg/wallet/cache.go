package wallet

import (
	"fmt"

	"github.com/Layr-Labs/unisigner-go/pkg/types"
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultAccountCacheSize = 64

// AccountCache is a bounded, read-through cache of discovered accounts. It is never the
// source of truth: a miss always falls back to live discovery.
type AccountCache struct {
	cache *lru.Cache[string, []types.Account]
}

// NewAccountCache creates a cache holding at most size entries.
func NewAccountCache(size int) (*AccountCache, error) {
	c, err := lru.New[string, []types.Account](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create account cache: %w", err)
	}
	return &AccountCache{cache: c}, nil
}

// CacheKey identifies the accounts of one backend on one chain.
func CacheKey(name WalletName, chainID string, prefix string) string {
	return fmt.Sprintf("%s|%s|%s", name, chainID, prefix)
}

func (c *AccountCache) Get(key string) ([]types.Account, bool) {
	accts, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	return append([]types.Account(nil), accts...), true
}

func (c *AccountCache) Add(key string, accts []types.Account) {
	c.cache.Add(key, append([]types.Account(nil), accts...))
}

func (c *AccountCache) Remove(key string) {
	c.cache.Remove(key)
}

// RemoveBackend drops every entry cached for the backend name.
func (c *AccountCache) RemoveBackend(name WalletName) {
	for _, key := range c.cache.Keys() {
		if len(key) > len(name) && key[:len(name)+1] == string(name)+"|" {
			c.cache.Remove(key)
		}
	}
}

func (c *AccountCache) Len() int {
	return c.cache.Len()
}

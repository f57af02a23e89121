package walletStore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number
	DB int
	// KeyPrefix is prepended to every record key
	KeyPrefix string
}

// RedisStore keeps records in Redis so several processes can share them.
type RedisStore struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

var _ IWalletStore = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(cfg *RedisConfig, l *zap.Logger) (*RedisStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	l.Sugar().Infow("Redis wallet store connected", zap.String("address", cfg.Address), zap.Int("db", cfg.DB))
	return &RedisStore{client: client, logger: l, keyPrefix: cfg.KeyPrefix}, nil
}

func (r *RedisStore) key(hdPath string) string {
	return r.keyPrefix + recordKey(hdPath)
}

func (r *RedisStore) ReadWallet(ctx context.Context, hdPath string) (*ConnectedWallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, errStoreClosed
	}
	data, err := r.client.Get(ctx, r.key(hdPath)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &ConnectedWallet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet record: %w", err)
	}
	return unmarshalRecord(data)
}

func (r *RedisStore) WriteWallet(ctx context.Context, record *ConnectedWallet, hdPath string) error {
	data, err := marshalRecord(record)
	if err != nil {
		return err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return errStoreClosed
	}
	if err := r.client.Set(ctx, r.key(hdPath), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write wallet record: %w", err)
	}
	return nil
}

func (r *RedisStore) RemoveWallet(ctx context.Context, hdPath string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return errStoreClosed
	}
	if err := r.client.Del(ctx, r.key(hdPath)).Err(); err != nil {
		return fmt.Errorf("failed to remove wallet record: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}
	return nil
}

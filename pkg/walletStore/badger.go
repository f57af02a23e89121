package walletStore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

// badgerLoggerAdapter adapts zap.Logger to the badger.Logger interface
type badgerLoggerAdapter struct {
	logger *zap.Logger
}

var _ badgerdb.Logger = (*badgerLoggerAdapter)(nil)

func (b *badgerLoggerAdapter) Errorf(format string, args ...interface{}) {
	b.logger.Error(fmt.Sprintf(format, args...))
}

func (b *badgerLoggerAdapter) Warningf(format string, args ...interface{}) {
	b.logger.Warn(fmt.Sprintf(format, args...))
}

func (b *badgerLoggerAdapter) Infof(format string, args ...interface{}) {
	b.logger.Info(fmt.Sprintf(format, args...))
}

func (b *badgerLoggerAdapter) Debugf(format string, args ...interface{}) {
	b.logger.Debug(fmt.Sprintf(format, args...))
}

// BadgerStore keeps records in a Badger database on disk.
type BadgerStore struct {
	db     *badgerdb.DB
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

var _ IWalletStore = (*BadgerStore)(nil)

// NewBadgerStore opens (or creates) a Badger database at dataPath with synchronous writes.
func NewBadgerStore(dataPath string, l *zap.Logger) (*BadgerStore, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = &badgerLoggerAdapter{logger: l}
	opts.SyncWrites = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}
	l.Sugar().Infow("Badger wallet store opened", zap.String("path", absPath))
	return &BadgerStore{db: db, logger: l}, nil
}

var errStoreClosed = errors.New("wallet store is closed")

func (b *BadgerStore) ReadWallet(ctx context.Context, hdPath string) (*ConnectedWallet, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, errStoreClosed
	}

	var data []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(recordKey(hdPath)))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return &ConnectedWallet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet record: %w", err)
	}
	return unmarshalRecord(data)
}

func (b *BadgerStore) WriteWallet(ctx context.Context, record *ConnectedWallet, hdPath string) error {
	data, err := marshalRecord(record)
	if err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errStoreClosed
	}
	if err := b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(recordKey(hdPath)), data)
	}); err != nil {
		return fmt.Errorf("failed to write wallet record: %w", err)
	}
	return nil
}

func (b *BadgerStore) RemoveWallet(ctx context.Context, hdPath string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errStoreClosed
	}
	if err := b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete([]byte(recordKey(hdPath)))
	}); err != nil {
		return fmt.Errorf("failed to remove wallet record: %w", err)
	}
	return nil
}

func (b *BadgerStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}
	return nil
}

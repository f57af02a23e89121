// Package codec implements the canonical binary encoding of Cosmos transactions: the
// type-URL registry of message codecs and the TxBody, AuthInfo, SignDoc and TxRaw
// envelopes around them.
package codec

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/Layr-Labs/unisigner-go/pkg/types"
)

// MsgFactory returns a fresh, empty value of a registered message type.
type MsgFactory func() types.Msg

// Registry maps type URLs to message codecs. It is safe for concurrent use; it is
// populated once at construction and only read afterwards.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]MsgFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]MsgFactory)}
}

// Register adds a codec for typeURL, replacing any previous registration.
func (r *Registry) Register(typeURL string, factory MsgFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typeURL] = factory
}

// IsRegistered reports whether typeURL has a codec.
func (r *Registry) IsRegistered(typeURL string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[typeURL]
	return ok
}

// TypeURLs lists every registered type URL in sorted order.
func (r *Registry) TypeURLs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	urls := make([]string, 0, len(r.factories))
	for url := range r.factories {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}

func (r *Registry) factory(typeURL string) (MsgFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[typeURL]
	if !ok {
		return nil, types.UnknownTypeUrl(typeURL)
	}
	return f, nil
}

// Encode returns the canonical bytes of msg. The value must be of the type
// registered for typeURL.
func (r *Registry) Encode(typeURL string, msg types.Msg) ([]byte, error) {
	f, err := r.factory(typeURL)
	if err != nil {
		return nil, err
	}
	if msg == nil || reflect.TypeOf(f()) != reflect.TypeOf(msg) {
		return nil, fmt.Errorf("%w: value %T does not match %s", types.ErrUnknownTypeUrl, msg, typeURL)
	}
	return msg.Marshal(), nil
}

// Decode parses bytes into a fresh value of the type registered for typeURL.
func (r *Registry) Decode(typeURL string, data []byte) (types.Msg, error) {
	f, err := r.factory(typeURL)
	if err != nil {
		return nil, err
	}
	msg := f()
	if err := msg.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", typeURL, err)
	}
	return msg, nil
}

// EncodeAny packs a message as an Any.
func (r *Registry) EncodeAny(m types.Message) (*Any, error) {
	value, err := r.Encode(m.TypeURL, m.Value)
	if err != nil {
		return nil, err
	}
	return &Any{TypeURL: m.TypeURL, Value: value}, nil
}

// EncodeTxBody encodes the messages and memo of a transaction body.
func (r *Registry) EncodeTxBody(messages []types.Message, memo string) ([]byte, error) {
	body := &TxBody{Memo: memo, Messages: make([]*Any, 0, len(messages))}
	for _, m := range messages {
		a, err := r.EncodeAny(m)
		if err != nil {
			return nil, err
		}
		body.Messages = append(body.Messages, a)
	}
	return body.Marshal(), nil
}

// DecodeTxBody decodes body bytes back into typed messages and the memo.
func (r *Registry) DecodeTxBody(data []byte) ([]types.Message, string, error) {
	body := &TxBody{}
	if err := body.Unmarshal(data); err != nil {
		return nil, "", fmt.Errorf("failed to decode tx body: %w", err)
	}
	messages := make([]types.Message, 0, len(body.Messages))
	for _, a := range body.Messages {
		msg, err := r.Decode(a.TypeURL, a.Value)
		if err != nil {
			return nil, "", err
		}
		messages = append(messages, types.Message{TypeURL: a.TypeURL, Value: msg})
	}
	return messages, body.Memo, nil
}

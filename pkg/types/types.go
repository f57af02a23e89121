// Package types defines the data model shared by every signing backend: the abstract
// transaction handed to a wallet, the accounts a wallet exposes and the wire-ready
// signed transaction it produces.
package types

import (
	"fmt"
	"strconv"
)

// Msg is a canonical (protobuf) message body. Implementations encode themselves
// deterministically so that the same logical value always yields the same bytes.
type Msg interface {
	// Marshal returns the canonical binary encoding of the message
	Marshal() []byte
	// Unmarshal replaces the message contents with the decoded bytes
	Unmarshal(data []byte) error
}

// Message pairs a type URL with the message value it identifies.
type Message struct {
	TypeURL string
	Value   Msg
}

// Coin is a denomination and an amount in base units. The amount is never parsed.
type Coin struct {
	Denom  string `json:"denom" yaml:"denom"`
	Amount string `json:"amount" yaml:"amount"`
}

// Fee is the fee section of a transaction.
type Fee struct {
	Amount  []Coin `json:"amount" yaml:"amount"`
	Gas     string `json:"gas" yaml:"gas"`
	Granter string `json:"granter,omitempty" yaml:"granter,omitempty"`
	Payer   string `json:"payer,omitempty" yaml:"payer,omitempty"`
}

// GasLimit parses the gas string of the fee.
func (f Fee) GasLimit() (uint64, error) {
	gas, err := strconv.ParseUint(f.Gas, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid gas limit %q: %w", f.Gas, err)
	}
	return gas, nil
}

// SignerData carries the replay protection counters needed to build a verifiable signature.
type SignerData struct {
	AccountNumber uint64
	Sequence      uint64
	ChainID       string
}

// Transaction is the abstract, unsigned transaction a caller asks a wallet to sign.
// It is built once per call and never mutated afterwards.
type Transaction struct {
	ChainID       string
	SignerAddress string
	Messages      []Message
	Fee           Fee
	Memo          string
	SignerData    SignerData
}

// Validate checks the structural preconditions every signing protocol relies on.
func (t *Transaction) Validate() error {
	if t == nil {
		return fmt.Errorf("transaction cannot be nil")
	}
	if t.SignerAddress == "" {
		return fmt.Errorf("signer address cannot be empty")
	}
	if len(t.Messages) == 0 {
		return fmt.Errorf("transaction has no messages")
	}
	for i, m := range t.Messages {
		if m.TypeURL == "" || m.Value == nil {
			return fmt.Errorf("message %d is missing a type url or value", i)
		}
	}
	if t.SignerData.ChainID != t.ChainID {
		return fmt.Errorf("signer data chain id %q does not match transaction chain id %q", t.SignerData.ChainID, t.ChainID)
	}
	if _, err := t.Fee.GasLimit(); err != nil {
		return err
	}
	return nil
}

// TypeURLs returns the type URL of every message in order.
func (t *Transaction) TypeURLs() []string {
	urls := make([]string, len(t.Messages))
	for i, m := range t.Messages {
		urls[i] = m.TypeURL
	}
	return urls
}

const (
	AlgoSecp256k1    = "secp256k1"
	AlgoEthSecp256k1 = "ethsecp256k1"
	AlgoSegwit       = "segwit"
)

// Account is an address controlled by a wallet together with its public key.
type Account struct {
	Address string `json:"address"`
	Algo    string `json:"algo"`
	PubKey  []byte `json:"pubkey"`
}

// SignedTransaction is the wire-ready TxRaw: body bytes, auth info bytes and exactly
// one signature per signer.
type SignedTransaction struct {
	BodyBytes     []byte
	AuthInfoBytes []byte
	Signatures    [][]byte
}

// BroadcastMode selects how long the node waits before answering a broadcast.
type BroadcastMode string

const (
	BroadcastModeSync  BroadcastMode = "BROADCAST_MODE_SYNC"
	BroadcastModeBlock BroadcastMode = "BROADCAST_MODE_BLOCK"
	BroadcastModeAsync BroadcastMode = "BROADCAST_MODE_ASYNC"
)

// ParseBroadcastMode accepts the full enum name or its short form (sync, block, async).
func ParseBroadcastMode(s string) (BroadcastMode, error) {
	switch s {
	case "", "sync", "SYNC", string(BroadcastModeSync):
		return BroadcastModeSync, nil
	case "block", "BLOCK", string(BroadcastModeBlock):
		return BroadcastModeBlock, nil
	case "async", "ASYNC", string(BroadcastModeAsync):
		return BroadcastModeAsync, nil
	default:
		return "", fmt.Errorf("unknown broadcast mode %q", s)
	}
}

// TxResponse is the tx_response object returned by the node.
type TxResponse struct {
	Height    string `json:"height"`
	TxHash    string `json:"txhash"`
	Codespace string `json:"codespace"`
	Code      uint32 `json:"code"`
	Data      string `json:"data"`
	RawLog    string `json:"raw_log"`
	GasWanted string `json:"gas_wanted"`
	GasUsed   string `json:"gas_used"`
}

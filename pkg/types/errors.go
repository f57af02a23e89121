package types

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingExtension is returned when the capability a backend needs is absent from the environment
	ErrMissingExtension = errors.New("missing extension")
	// ErrExtensionNotInstalled is surfaced by an external signer that is present but not usable
	ErrExtensionNotInstalled = errors.New("extension not installed")
	// ErrUnsupportedBackend is returned for a backend name with no registered constructor
	ErrUnsupportedBackend = errors.New("unsupported backend")
	// ErrAccountNotFound is returned when the signer address is not controlled by the wallet
	ErrAccountNotFound = errors.New("account not found")
	// ErrUnsupportedMessageType is returned when a message cannot be expressed in the selected protocol
	ErrUnsupportedMessageType = errors.New("unsupported message type")
	// ErrUnknownTypeUrl is returned when no codec is registered for a type URL
	ErrUnknownTypeUrl = errors.New("unknown type url")
	// ErrUserRejected is returned when the user declines the signing request
	ErrUserRejected = errors.New("user rejected")
	// ErrSimulationFailed is the root of every failed simulation
	ErrSimulationFailed = errors.New("simulation failed")
	// ErrBroadcastFailed is the root of every failed broadcast
	ErrBroadcastFailed = errors.New("broadcast failed")
)

// UnsupportedMessageType wraps ErrUnsupportedMessageType with the offending type URL.
func UnsupportedMessageType(typeURL string, protocol string) error {
	return fmt.Errorf("%w: %s cannot be signed with %s", ErrUnsupportedMessageType, typeURL, protocol)
}

// UnknownTypeUrl wraps ErrUnknownTypeUrl with the offending type URL.
func UnknownTypeUrl(typeURL string) error {
	return fmt.Errorf("%w: %s", ErrUnknownTypeUrl, typeURL)
}

const (
	NodeOpSimulate  = "simulate"
	NodeOpBroadcast = "broadcast"
)

// NodeError is a failure reported by the node, either in the outer envelope or in the
// nested tx_response. RawLog carries the node's explanation verbatim.
type NodeError struct {
	Op        string
	Code      uint32
	Codespace string
	RawLog    string
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s failed (code %d): %s", e.Op, e.Code, e.RawLog)
}

func (e *NodeError) Unwrap() error {
	if e.Op == NodeOpBroadcast {
		return ErrBroadcastFailed
	}
	return ErrSimulationFailed
}

// Package eip712 renders Cosmos transactions as EIP-712 typed data so that Ethereum
// wallets can sign them with eth_signTypedData_v4.
package eip712

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/Layr-Labs/unisigner-go/pkg/amino"
	"github.com/Layr-Labs/unisigner-go/pkg/keyType"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	protocolName = "eip712"

	DomainName              = "Cosmos Web3"
	DomainVersion           = "1.0.0"
	DomainVerifyingContract = "cosmos"
	DomainSalt              = "0"
)

// ErrUnsupportedFee is returned for fee arrangements typed data cannot express.
var ErrUnsupportedFee = errors.New("fee cannot be signed as typed data")

// Adapter converts transactions into typed data. It relies on the amino layer for the
// JSON shape of every message.
type Adapter struct {
	aminoTypes *amino.AminoTypes
}

// NewAdapter creates an Adapter backed by aminoTypes.
func NewAdapter(aminoTypes *amino.AminoTypes) *Adapter {
	return &Adapter{aminoTypes: aminoTypes}
}

// Supports reports whether typeURL has a typed-data schema.
func Supports(typeURL string) bool {
	_, ok := msgValueTypes[typeURL]
	return ok
}

// SupportedTypeURLs lists the closed set of type URLs in sorted order.
func SupportedTypeURLs() []string {
	urls := make([]string, 0, len(msgValueTypes))
	for url := range msgValueTypes {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}

// TypesFor returns the complete type set (domain, envelope and message value) used to
// sign a transaction whose messages are all of typeURL.
func TypesFor(typeURL string) (apitypes.Types, error) {
	value, ok := msgValueTypes[typeURL]
	if !ok {
		return nil, types.UnsupportedMessageType(typeURL, protocolName)
	}
	out := make(apitypes.Types, len(baseTypes)+len(value))
	for name, fields := range baseTypes {
		out[name] = append([]apitypes.Type(nil), fields...)
	}
	for name, fields := range value {
		out[name] = append([]apitypes.Type(nil), fields...)
	}
	return out, nil
}

// CheckMessages verifies every message is in the closed set and that all messages share
// one type URL: the typed Msg[] array admits a single MsgValue schema.
func CheckMessages(msgs []types.Message) error {
	if len(msgs) == 0 {
		return fmt.Errorf("no messages to sign")
	}
	first := msgs[0].TypeURL
	for _, m := range msgs {
		if !Supports(m.TypeURL) {
			return types.UnsupportedMessageType(m.TypeURL, protocolName)
		}
		if m.TypeURL != first {
			return fmt.Errorf("%w: %s cannot be mixed with %s in one typed data payload", types.ErrUnsupportedMessageType, m.TypeURL, first)
		}
	}
	return nil
}

// ToProto converts an amino value of a supported type back to its canonical message.
func (a *Adapter) ToProto(typeURL string, m amino.Msg) (types.Message, error) {
	if !Supports(typeURL) {
		return types.Message{}, types.UnsupportedMessageType(typeURL, protocolName)
	}
	msg, err := a.aminoTypes.FromAmino(m)
	if err != nil {
		return types.Message{}, err
	}
	if msg.TypeURL != typeURL {
		return types.Message{}, fmt.Errorf("%w: amino type %s is not %s", types.ErrUnsupportedMessageType, m.Type, typeURL)
	}
	return msg, nil
}

// SignedMessages re-derives the canonical messages from the msgs array of td, so a body
// built from them carries exactly what the user signed.
func (a *Adapter) SignedMessages(td *apitypes.TypedData) ([]types.Message, error) {
	items, ok := td.Message["msgs"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("typed data has no msgs array")
	}
	out := make([]types.Message, 0, len(items))
	for i, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("msgs[%d] is %T, not an object", i, item)
		}
		aminoType, _ := entry["type"].(string)
		typeURL, ok := a.aminoTypes.TypeURL(aminoType)
		if !ok {
			return nil, fmt.Errorf("%w: amino type %q", types.ErrUnsupportedMessageType, aminoType)
		}
		value, err := json.Marshal(entry["value"])
		if err != nil {
			return nil, fmt.Errorf("failed to encode msgs[%d]: %w", i, err)
		}
		msg, err := a.ToProto(typeURL, amino.Msg{Type: aminoType, Value: value})
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

// BuildTypedData renders tx as typed data with primary type Tx. The fee payer is the
// signer, so a fee granter or a payer other than the signer is rejected.
//
// Parameters:
//   - tx: The transaction to render; its messages must pass CheckMessages
//
// Returns:
//   - *apitypes.TypedData: The payload handed to eth_signTypedData_v4
//   - error: An error if a message is unsupported or does not fit its schema
func (a *Adapter) BuildTypedData(tx *types.Transaction) (*apitypes.TypedData, error) {
	if err := CheckMessages(tx.Messages); err != nil {
		return nil, err
	}
	if tx.Fee.Granter != "" {
		return nil, fmt.Errorf("%w: fee granter %s", ErrUnsupportedFee, tx.Fee.Granter)
	}
	if tx.Fee.Payer != "" && tx.Fee.Payer != tx.SignerAddress {
		return nil, fmt.Errorf("%w: fee payer %s is not the signer", ErrUnsupportedFee, tx.Fee.Payer)
	}
	typeURL := tx.Messages[0].TypeURL
	schema, err := TypesFor(typeURL)
	if err != nil {
		return nil, err
	}

	msgs := make([]interface{}, 0, len(tx.Messages))
	for _, m := range tx.Messages {
		am, err := a.aminoTypes.ToAmino(m)
		if err != nil {
			return nil, err
		}
		var value map[string]interface{}
		if err := json.Unmarshal(am.Value, &value); err != nil {
			return nil, fmt.Errorf("failed to decode amino value of %s: %w", m.TypeURL, err)
		}
		value, err = conform(schema, msgValueType, value)
		if err != nil {
			return nil, fmt.Errorf("%s does not fit its typed data schema: %w", m.TypeURL, err)
		}
		msgs = append(msgs, map[string]interface{}{
			"type":  am.Type,
			"value": value,
		})
	}

	amount := make([]interface{}, 0, len(tx.Fee.Amount))
	for _, c := range tx.Fee.Amount {
		amount = append(amount, map[string]interface{}{"denom": c.Denom, "amount": c.Amount})
	}

	return &apitypes.TypedData{
		Types:       schema,
		PrimaryType: primaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              DomainName,
			Version:           DomainVersion,
			ChainId:           math.NewHexOrDecimal256(int64(keyType.ExtractEthChainID(tx.SignerData.ChainID))),
			VerifyingContract: DomainVerifyingContract,
			Salt:              DomainSalt,
		},
		Message: apitypes.TypedDataMessage{
			"account_number": strconv.FormatUint(tx.SignerData.AccountNumber, 10),
			"chain_id":       tx.SignerData.ChainID,
			"fee": map[string]interface{}{
				"feePayer": tx.SignerAddress,
				"amount":   amount,
				"gas":      tx.Fee.Gas,
			},
			"memo":     tx.Memo,
			"msgs":     msgs,
			"sequence": strconv.FormatUint(tx.SignerData.Sequence, 10),
		},
	}, nil
}

// Hash returns the EIP-712 digest keccak256("\x19\x01" ‖ domainSeparator ‖ hashStruct(message)).
func Hash(td *apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(*td)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}
	return hash, nil
}

// conform fills absent fields of value with the zero value of their schema type,
// normalizes integers to decimal strings and rejects keys the schema does not declare.
func conform(schema apitypes.Types, typeName string, value map[string]interface{}) (map[string]interface{}, error) {
	fields, ok := schema[typeName]
	if !ok {
		return nil, fmt.Errorf("unknown type %s", typeName)
	}
	if value == nil {
		value = map[string]interface{}{}
	}
	declared := make(map[string]bool, len(fields))
	out := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		declared[f.Name] = true
		v, err := conformField(schema, f.Type, value[f.Name])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		out[f.Name] = v
	}
	for k := range value {
		if !declared[k] {
			return nil, fmt.Errorf("field %s is not part of %s", k, typeName)
		}
	}
	return out, nil
}

func conformField(schema apitypes.Types, fieldType string, v interface{}) (interface{}, error) {
	if strings.HasSuffix(fieldType, "[]") {
		elemType := strings.TrimSuffix(fieldType, "[]")
		if v == nil {
			return []interface{}{}, nil
		}
		items, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("expected array, got %T", v)
		}
		out := make([]interface{}, 0, len(items))
		for _, item := range items {
			c, err := conformField(schema, elemType, item)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, nil
	}

	if _, isStruct := schema[fieldType]; isStruct {
		var m map[string]interface{}
		if v != nil {
			var ok bool
			if m, ok = v.(map[string]interface{}); !ok {
				return nil, fmt.Errorf("expected object, got %T", v)
			}
		}
		return conform(schema, fieldType, m)
	}

	switch {
	case fieldType == "string":
		if v == nil {
			return "", nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	case fieldType == "bool":
		if v == nil {
			return false, nil
		}
		return v, nil
	case strings.HasPrefix(fieldType, "uint") || strings.HasPrefix(fieldType, "int"):
		return integerString(v)
	}
	return nil, fmt.Errorf("unsupported type %s", fieldType)
}

func integerString(v interface{}) (string, error) {
	switch n := v.(type) {
	case nil:
		return "0", nil
	case string:
		if n == "" {
			return "0", nil
		}
		if _, ok := new(big.Int).SetString(n, 10); !ok {
			return "", fmt.Errorf("invalid integer %q", n)
		}
		return n, nil
	case float64:
		if n != float64(int64(n)) {
			return "", fmt.Errorf("invalid integer %v", n)
		}
		return strconv.FormatInt(int64(n), 10), nil
	case json.Number:
		return integerString(n.String())
	}
	return "", fmt.Errorf("expected integer, got %T", v)
}

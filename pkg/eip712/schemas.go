package eip712

import (
	"github.com/Layr-Labs/unisigner-go/pkg/messages"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	primaryType  = "Tx"
	msgValueType = "MsgValue"
)

var baseTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "string"},
		{Name: "salt", Type: "string"},
	},
	"Tx": {
		{Name: "account_number", Type: "string"},
		{Name: "chain_id", Type: "string"},
		{Name: "fee", Type: "Fee"},
		{Name: "memo", Type: "string"},
		{Name: "msgs", Type: "Msg[]"},
		{Name: "sequence", Type: "string"},
	},
	"Fee": {
		{Name: "feePayer", Type: "string"},
		{Name: "amount", Type: "Coin[]"},
		{Name: "gas", Type: "string"},
	},
	"Coin": {
		{Name: "denom", Type: "string"},
		{Name: "amount", Type: "string"},
	},
	"Msg": {
		{Name: "type", Type: "string"},
		{Name: "value", Type: msgValueType},
	},
}

var typeAmount = []apitypes.Type{
	{Name: "denom", Type: "string"},
	{Name: "amount", Type: "string"},
}

// msgValueTypes holds the MsgValue schema (and any nested types) of every message that
// can be signed as typed data.
var msgValueTypes = map[string]apitypes.Types{
	messages.TypeURLMsgSend: {
		msgValueType: {
			{Name: "from_address", Type: "string"},
			{Name: "to_address", Type: "string"},
			{Name: "amount", Type: "TypeAmount[]"},
		},
		"TypeAmount": typeAmount,
	},
	messages.TypeURLMsgDelegate: {
		msgValueType: {
			{Name: "delegator_address", Type: "string"},
			{Name: "validator_address", Type: "string"},
			{Name: "amount", Type: "TypeAmount"},
		},
		"TypeAmount": typeAmount,
	},
	messages.TypeURLMsgUndelegate: {
		msgValueType: {
			{Name: "delegator_address", Type: "string"},
			{Name: "validator_address", Type: "string"},
			{Name: "amount", Type: "TypeAmount"},
		},
		"TypeAmount": typeAmount,
	},
	messages.TypeURLMsgBeginRedelegate: {
		msgValueType: {
			{Name: "delegator_address", Type: "string"},
			{Name: "validator_src_address", Type: "string"},
			{Name: "validator_dst_address", Type: "string"},
			{Name: "amount", Type: "TypeAmount"},
		},
		"TypeAmount": typeAmount,
	},
	messages.TypeURLMsgWithdrawDelegatorReward: {
		msgValueType: {
			{Name: "delegator_address", Type: "string"},
			{Name: "validator_address", Type: "string"},
		},
	},
	messages.TypeURLMsgVote: {
		msgValueType: {
			{Name: "proposal_id", Type: "uint64"},
			{Name: "voter", Type: "string"},
			{Name: "option", Type: "int32"},
		},
	},
	messages.TypeURLMsgTransfer: {
		msgValueType: {
			{Name: "source_port", Type: "string"},
			{Name: "source_channel", Type: "string"},
			{Name: "token", Type: "TypeToken"},
			{Name: "sender", Type: "string"},
			{Name: "receiver", Type: "string"},
			{Name: "timeout_height", Type: "TypeTimeoutHeight"},
			{Name: "timeout_timestamp", Type: "uint64"},
			{Name: "memo", Type: "string"},
		},
		"TypeToken": typeAmount,
		"TypeTimeoutHeight": {
			{Name: "revision_number", Type: "uint64"},
			{Name: "revision_height", Type: "uint64"},
		},
	},
}

// Package messages contains the concrete Cosmos messages supported by the signer and
// their canonical protobuf encodings.
package messages

import (
	"strings"

	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
)

const (
	TypeURLMsgSend                        = "/cosmos.bank.v1beta1.MsgSend"
	TypeURLMsgMultiSend                   = "/cosmos.bank.v1beta1.MsgMultiSend"
	TypeURLMsgDelegate                    = "/cosmos.staking.v1beta1.MsgDelegate"
	TypeURLMsgUndelegate                  = "/cosmos.staking.v1beta1.MsgUndelegate"
	TypeURLMsgBeginRedelegate             = "/cosmos.staking.v1beta1.MsgBeginRedelegate"
	TypeURLMsgWithdrawDelegatorReward     = "/cosmos.distribution.v1beta1.MsgWithdrawDelegatorReward"
	TypeURLMsgSetWithdrawAddress          = "/cosmos.distribution.v1beta1.MsgSetWithdrawAddress"
	TypeURLMsgWithdrawValidatorCommission = "/cosmos.distribution.v1beta1.MsgWithdrawValidatorCommission"
	TypeURLMsgVote                        = "/cosmos.gov.v1beta1.MsgVote"
	TypeURLMsgDeposit                     = "/cosmos.gov.v1beta1.MsgDeposit"
	TypeURLMsgTransfer                    = "/ibc.applications.transfer.v1.MsgTransfer"
	TypeURLMsgExecuteContract             = "/cosmwasm.wasm.v1.MsgExecuteContract"
	TypeURLMsgInstantiateContract         = "/cosmwasm.wasm.v1.MsgInstantiateContract"
)

// ContractNamespace prefixes every smart-contract message type URL. Messages in this
// namespace have no faithful amino or EIP-712 rendering and are always signed direct.
const ContractNamespace = "/cosmwasm.wasm."

// IsContractMessage reports whether typeURL belongs to the contract namespace.
func IsContractMessage(typeURL string) bool {
	return strings.HasPrefix(typeURL, ContractNamespace)
}

// Register adds every supported message type to registry.
func Register(registry *codec.Registry) {
	registry.Register(TypeURLMsgSend, func() types.Msg { return &MsgSend{} })
	registry.Register(TypeURLMsgDelegate, func() types.Msg { return &MsgDelegate{} })
	registry.Register(TypeURLMsgUndelegate, func() types.Msg { return &MsgUndelegate{} })
	registry.Register(TypeURLMsgBeginRedelegate, func() types.Msg { return &MsgBeginRedelegate{} })
	registry.Register(TypeURLMsgWithdrawDelegatorReward, func() types.Msg { return &MsgWithdrawDelegatorReward{} })
	registry.Register(TypeURLMsgVote, func() types.Msg { return &MsgVote{} })
	registry.Register(TypeURLMsgTransfer, func() types.Msg { return &MsgTransfer{} })
	registry.Register(TypeURLMsgExecuteContract, func() types.Msg { return &MsgExecuteContract{} })
	registry.Register(TypeURLMsgMultiSend, func() types.Msg { return &MsgMultiSend{} })
	registry.Register(TypeURLMsgSetWithdrawAddress, func() types.Msg { return &MsgSetWithdrawAddress{} })
	registry.Register(TypeURLMsgWithdrawValidatorCommission, func() types.Msg { return &MsgWithdrawValidatorCommission{} })
	registry.Register(TypeURLMsgDeposit, func() types.Msg { return &MsgDeposit{} })
	registry.Register(TypeURLMsgInstantiateContract, func() types.Msg { return &MsgInstantiateContract{} })
}

// NewRegistry returns a registry with every supported message registered.
func NewRegistry() *codec.Registry {
	r := codec.NewRegistry()
	Register(r)
	return r
}

func decodeCoins(dst *[]types.Coin, data []byte) error {
	c, err := codec.DecodeCoin(data)
	if err != nil {
		return err
	}
	*dst = append(*dst, c)
	return nil
}

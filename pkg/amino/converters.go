package amino

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/Layr-Labs/unisigner-go/pkg/messages"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
)

const (
	AminoTypeMsgSend                        = "cosmos-sdk/MsgSend"
	AminoTypeMsgMultiSend                   = "cosmos-sdk/MsgMultiSend"
	AminoTypeMsgDelegate                    = "cosmos-sdk/MsgDelegate"
	AminoTypeMsgUndelegate                  = "cosmos-sdk/MsgUndelegate"
	AminoTypeMsgBeginRedelegate             = "cosmos-sdk/MsgBeginRedelegate"
	AminoTypeMsgWithdrawDelegatorReward     = "cosmos-sdk/MsgWithdrawDelegationReward"
	AminoTypeMsgSetWithdrawAddress          = "cosmos-sdk/MsgModifyWithdrawAddress"
	AminoTypeMsgWithdrawValidatorCommission = "cosmos-sdk/MsgWithdrawValidatorCommission"
	AminoTypeMsgVote                        = "cosmos-sdk/MsgVote"
	AminoTypeMsgDeposit                     = "cosmos-sdk/MsgDeposit"
	AminoTypeMsgTransfer                    = "cosmos-sdk/MsgTransfer"
	AminoTypeMsgExecuteContract             = "wasm/MsgExecuteContract"
	AminoTypeMsgInstantiateContract         = "wasm/MsgInstantiateContract"
)

// ErrNonCanonicalContractMsg is returned when a contract payload would not survive an
// amino round trip byte for byte. CanonicalJSON produces the accepted form.
var ErrNonCanonicalContractMsg = errors.New("contract msg is not canonical json")

type AminoMsgSend struct {
	FromAddress string       `json:"from_address"`
	ToAddress   string       `json:"to_address"`
	Amount      []types.Coin `json:"amount"`
}

type AminoMsgDelegate struct {
	DelegatorAddress string     `json:"delegator_address"`
	ValidatorAddress string     `json:"validator_address"`
	Amount           types.Coin `json:"amount"`
}

type AminoMsgBeginRedelegate struct {
	DelegatorAddress    string     `json:"delegator_address"`
	ValidatorSrcAddress string     `json:"validator_src_address"`
	ValidatorDstAddress string     `json:"validator_dst_address"`
	Amount              types.Coin `json:"amount"`
}

type AminoMsgWithdrawDelegatorReward struct {
	DelegatorAddress string `json:"delegator_address"`
	ValidatorAddress string `json:"validator_address"`
}

type AminoMsgVote struct {
	Option     FlexInt32 `json:"option"`
	ProposalID string    `json:"proposal_id"`
	Voter      string    `json:"voter"`
}

// FlexInt32 encodes as a JSON number and also decodes from a decimal string, the form
// typed data gives every integer.
type FlexInt32 int32

func (f *FlexInt32) UnmarshalJSON(b []byte) error {
	s := string(b)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid int32 %s: %w", b, err)
	}
	*f = FlexInt32(n)
	return nil
}

type AminoBalance struct {
	Address string       `json:"address"`
	Coins   []types.Coin `json:"coins"`
}

type AminoMsgMultiSend struct {
	Inputs  []AminoBalance `json:"inputs"`
	Outputs []AminoBalance `json:"outputs"`
}

type AminoMsgSetWithdrawAddress struct {
	DelegatorAddress string `json:"delegator_address"`
	WithdrawAddress  string `json:"withdraw_address"`
}

type AminoMsgWithdrawValidatorCommission struct {
	ValidatorAddress string `json:"validator_address"`
}

type AminoMsgDeposit struct {
	ProposalID string       `json:"proposal_id"`
	Depositor  string       `json:"depositor"`
	Amount     []types.Coin `json:"amount"`
}

type AminoHeight struct {
	RevisionHeight string `json:"revision_height,omitempty"`
	RevisionNumber string `json:"revision_number,omitempty"`
}

type AminoMsgTransfer struct {
	SourcePort       string      `json:"source_port"`
	SourceChannel    string      `json:"source_channel"`
	Token            types.Coin  `json:"token"`
	Sender           string      `json:"sender"`
	Receiver         string      `json:"receiver"`
	TimeoutHeight    AminoHeight `json:"timeout_height"`
	TimeoutTimestamp string      `json:"timeout_timestamp,omitempty"`
	Memo             string      `json:"memo,omitempty"`
}

type AminoMsgExecuteContract struct {
	Sender   string          `json:"sender"`
	Contract string          `json:"contract"`
	Msg      json.RawMessage `json:"msg"`
	Funds    []types.Coin    `json:"funds"`
}

type AminoMsgInstantiateContract struct {
	Sender string          `json:"sender"`
	Admin  string          `json:"admin,omitempty"`
	CodeID string          `json:"code_id"`
	Label  string          `json:"label"`
	Msg    json.RawMessage `json:"msg"`
	Funds  []types.Coin    `json:"funds"`
}

func defaultConverters() map[string]*converter {
	return map[string]*converter{
		messages.TypeURLMsgSend: {
			aminoType: AminoTypeMsgSend,
			toAmino: func(v types.Msg) (interface{}, error) {
				m, ok := v.(*messages.MsgSend)
				if !ok {
					return nil, valueMismatch(v, messages.TypeURLMsgSend)
				}
				return AminoMsgSend{FromAddress: m.FromAddress, ToAddress: m.ToAddress, Amount: nonNilCoins(m.Amount)}, nil
			},
			fromAmino: func(raw json.RawMessage) (types.Msg, error) {
				var a AminoMsgSend
				if err := json.Unmarshal(raw, &a); err != nil {
					return nil, err
				}
				return &messages.MsgSend{FromAddress: a.FromAddress, ToAddress: a.ToAddress, Amount: a.Amount}, nil
			},
		},
		messages.TypeURLMsgDelegate: {
			aminoType: AminoTypeMsgDelegate,
			toAmino: func(v types.Msg) (interface{}, error) {
				m, ok := v.(*messages.MsgDelegate)
				if !ok {
					return nil, valueMismatch(v, messages.TypeURLMsgDelegate)
				}
				return AminoMsgDelegate{DelegatorAddress: m.DelegatorAddress, ValidatorAddress: m.ValidatorAddress, Amount: m.Amount}, nil
			},
			fromAmino: func(raw json.RawMessage) (types.Msg, error) {
				var a AminoMsgDelegate
				if err := json.Unmarshal(raw, &a); err != nil {
					return nil, err
				}
				return &messages.MsgDelegate{DelegatorAddress: a.DelegatorAddress, ValidatorAddress: a.ValidatorAddress, Amount: a.Amount}, nil
			},
		},
		messages.TypeURLMsgUndelegate: {
			aminoType: AminoTypeMsgUndelegate,
			toAmino: func(v types.Msg) (interface{}, error) {
				m, ok := v.(*messages.MsgUndelegate)
				if !ok {
					return nil, valueMismatch(v, messages.TypeURLMsgUndelegate)
				}
				return AminoMsgDelegate{DelegatorAddress: m.DelegatorAddress, ValidatorAddress: m.ValidatorAddress, Amount: m.Amount}, nil
			},
			fromAmino: func(raw json.RawMessage) (types.Msg, error) {
				var a AminoMsgDelegate
				if err := json.Unmarshal(raw, &a); err != nil {
					return nil, err
				}
				return &messages.MsgUndelegate{DelegatorAddress: a.DelegatorAddress, ValidatorAddress: a.ValidatorAddress, Amount: a.Amount}, nil
			},
		},
		messages.TypeURLMsgBeginRedelegate: {
			aminoType: AminoTypeMsgBeginRedelegate,
			toAmino: func(v types.Msg) (interface{}, error) {
				m, ok := v.(*messages.MsgBeginRedelegate)
				if !ok {
					return nil, valueMismatch(v, messages.TypeURLMsgBeginRedelegate)
				}
				return AminoMsgBeginRedelegate{
					DelegatorAddress:    m.DelegatorAddress,
					ValidatorSrcAddress: m.ValidatorSrcAddress,
					ValidatorDstAddress: m.ValidatorDstAddress,
					Amount:              m.Amount,
				}, nil
			},
			fromAmino: func(raw json.RawMessage) (types.Msg, error) {
				var a AminoMsgBeginRedelegate
				if err := json.Unmarshal(raw, &a); err != nil {
					return nil, err
				}
				return &messages.MsgBeginRedelegate{
					DelegatorAddress:    a.DelegatorAddress,
					ValidatorSrcAddress: a.ValidatorSrcAddress,
					ValidatorDstAddress: a.ValidatorDstAddress,
					Amount:              a.Amount,
				}, nil
			},
		},
		messages.TypeURLMsgWithdrawDelegatorReward: {
			aminoType: AminoTypeMsgWithdrawDelegatorReward,
			toAmino: func(v types.Msg) (interface{}, error) {
				m, ok := v.(*messages.MsgWithdrawDelegatorReward)
				if !ok {
					return nil, valueMismatch(v, messages.TypeURLMsgWithdrawDelegatorReward)
				}
				return AminoMsgWithdrawDelegatorReward{DelegatorAddress: m.DelegatorAddress, ValidatorAddress: m.ValidatorAddress}, nil
			},
			fromAmino: func(raw json.RawMessage) (types.Msg, error) {
				var a AminoMsgWithdrawDelegatorReward
				if err := json.Unmarshal(raw, &a); err != nil {
					return nil, err
				}
				return &messages.MsgWithdrawDelegatorReward{DelegatorAddress: a.DelegatorAddress, ValidatorAddress: a.ValidatorAddress}, nil
			},
		},
		messages.TypeURLMsgVote: {
			aminoType: AminoTypeMsgVote,
			toAmino: func(v types.Msg) (interface{}, error) {
				m, ok := v.(*messages.MsgVote)
				if !ok {
					return nil, valueMismatch(v, messages.TypeURLMsgVote)
				}
				return AminoMsgVote{Option: FlexInt32(m.Option), ProposalID: strconv.FormatUint(m.ProposalID, 10), Voter: m.Voter}, nil
			},
			fromAmino: func(raw json.RawMessage) (types.Msg, error) {
				var a AminoMsgVote
				if err := json.Unmarshal(raw, &a); err != nil {
					return nil, err
				}
				id, err := parseUint(a.ProposalID)
				if err != nil {
					return nil, fmt.Errorf("invalid proposal_id: %w", err)
				}
				return &messages.MsgVote{ProposalID: id, Voter: a.Voter, Option: messages.VoteOption(a.Option)}, nil
			},
		},
		messages.TypeURLMsgTransfer: {
			aminoType: AminoTypeMsgTransfer,
			toAmino: func(v types.Msg) (interface{}, error) {
				m, ok := v.(*messages.MsgTransfer)
				if !ok {
					return nil, valueMismatch(v, messages.TypeURLMsgTransfer)
				}
				return AminoMsgTransfer{
					SourcePort:    m.SourcePort,
					SourceChannel: m.SourceChannel,
					Token:         m.Token,
					Sender:        m.Sender,
					Receiver:      m.Receiver,
					TimeoutHeight: AminoHeight{
						RevisionHeight: omitZero(m.TimeoutHeight.RevisionHeight),
						RevisionNumber: omitZero(m.TimeoutHeight.RevisionNumber),
					},
					TimeoutTimestamp: omitZero(m.TimeoutTimestamp),
					Memo:             m.Memo,
				}, nil
			},
			fromAmino: func(raw json.RawMessage) (types.Msg, error) {
				var a AminoMsgTransfer
				if err := json.Unmarshal(raw, &a); err != nil {
					return nil, err
				}
				m := &messages.MsgTransfer{
					SourcePort:    a.SourcePort,
					SourceChannel: a.SourceChannel,
					Token:         a.Token,
					Sender:        a.Sender,
					Receiver:      a.Receiver,
					Memo:          a.Memo,
				}
				var err error
				if m.TimeoutHeight.RevisionHeight, err = parseUint(a.TimeoutHeight.RevisionHeight); err != nil {
					return nil, fmt.Errorf("invalid revision_height: %w", err)
				}
				if m.TimeoutHeight.RevisionNumber, err = parseUint(a.TimeoutHeight.RevisionNumber); err != nil {
					return nil, fmt.Errorf("invalid revision_number: %w", err)
				}
				if m.TimeoutTimestamp, err = parseUint(a.TimeoutTimestamp); err != nil {
					return nil, fmt.Errorf("invalid timeout_timestamp: %w", err)
				}
				return m, nil
			},
		},
		messages.TypeURLMsgExecuteContract: {
			aminoType: AminoTypeMsgExecuteContract,
			toAmino: func(v types.Msg) (interface{}, error) {
				m, ok := v.(*messages.MsgExecuteContract)
				if !ok {
					return nil, valueMismatch(v, messages.TypeURLMsgExecuteContract)
				}
				if err := checkContractMsg(m.Msg); err != nil {
					return nil, err
				}
				return AminoMsgExecuteContract{Sender: m.Sender, Contract: m.Contract, Msg: m.Msg, Funds: nonNilCoins(m.Funds)}, nil
			},
			fromAmino: func(raw json.RawMessage) (types.Msg, error) {
				var a AminoMsgExecuteContract
				if err := json.Unmarshal(raw, &a); err != nil {
					return nil, err
				}
				msg, err := CanonicalJSON(a.Msg)
				if err != nil {
					return nil, fmt.Errorf("invalid contract msg: %w", err)
				}
				return &messages.MsgExecuteContract{Sender: a.Sender, Contract: a.Contract, Msg: msg, Funds: a.Funds}, nil
			},
		},
		messages.TypeURLMsgInstantiateContract: {
			aminoType: AminoTypeMsgInstantiateContract,
			toAmino: func(v types.Msg) (interface{}, error) {
				m, ok := v.(*messages.MsgInstantiateContract)
				if !ok {
					return nil, valueMismatch(v, messages.TypeURLMsgInstantiateContract)
				}
				if err := checkContractMsg(m.Msg); err != nil {
					return nil, err
				}
				return AminoMsgInstantiateContract{
					Sender: m.Sender,
					Admin:  m.Admin,
					CodeID: strconv.FormatUint(m.CodeID, 10),
					Label:  m.Label,
					Msg:    m.Msg,
					Funds:  nonNilCoins(m.Funds),
				}, nil
			},
			fromAmino: func(raw json.RawMessage) (types.Msg, error) {
				var a AminoMsgInstantiateContract
				if err := json.Unmarshal(raw, &a); err != nil {
					return nil, err
				}
				codeID, err := parseUint(a.CodeID)
				if err != nil {
					return nil, fmt.Errorf("invalid code_id: %w", err)
				}
				msg, err := CanonicalJSON(a.Msg)
				if err != nil {
					return nil, fmt.Errorf("invalid contract msg: %w", err)
				}
				return &messages.MsgInstantiateContract{
					Sender: a.Sender,
					Admin:  a.Admin,
					CodeID: codeID,
					Label:  a.Label,
					Msg:    msg,
					Funds:  a.Funds,
				}, nil
			},
		},
		messages.TypeURLMsgMultiSend: {
			aminoType: AminoTypeMsgMultiSend,
			toAmino: func(v types.Msg) (interface{}, error) {
				m, ok := v.(*messages.MsgMultiSend)
				if !ok {
					return nil, valueMismatch(v, messages.TypeURLMsgMultiSend)
				}
				a := AminoMsgMultiSend{
					Inputs:  make([]AminoBalance, 0, len(m.Inputs)),
					Outputs: make([]AminoBalance, 0, len(m.Outputs)),
				}
				for _, in := range m.Inputs {
					a.Inputs = append(a.Inputs, AminoBalance{Address: in.Address, Coins: nonNilCoins(in.Coins)})
				}
				for _, out := range m.Outputs {
					a.Outputs = append(a.Outputs, AminoBalance{Address: out.Address, Coins: nonNilCoins(out.Coins)})
				}
				return a, nil
			},
			fromAmino: func(raw json.RawMessage) (types.Msg, error) {
				var a AminoMsgMultiSend
				if err := json.Unmarshal(raw, &a); err != nil {
					return nil, err
				}
				m := &messages.MsgMultiSend{}
				for _, in := range a.Inputs {
					m.Inputs = append(m.Inputs, messages.Input{Address: in.Address, Coins: in.Coins})
				}
				for _, out := range a.Outputs {
					m.Outputs = append(m.Outputs, messages.Output{Address: out.Address, Coins: out.Coins})
				}
				return m, nil
			},
		},
		messages.TypeURLMsgSetWithdrawAddress: {
			aminoType: AminoTypeMsgSetWithdrawAddress,
			toAmino: func(v types.Msg) (interface{}, error) {
				m, ok := v.(*messages.MsgSetWithdrawAddress)
				if !ok {
					return nil, valueMismatch(v, messages.TypeURLMsgSetWithdrawAddress)
				}
				return AminoMsgSetWithdrawAddress{DelegatorAddress: m.DelegatorAddress, WithdrawAddress: m.WithdrawAddress}, nil
			},
			fromAmino: func(raw json.RawMessage) (types.Msg, error) {
				var a AminoMsgSetWithdrawAddress
				if err := json.Unmarshal(raw, &a); err != nil {
					return nil, err
				}
				return &messages.MsgSetWithdrawAddress{DelegatorAddress: a.DelegatorAddress, WithdrawAddress: a.WithdrawAddress}, nil
			},
		},
		messages.TypeURLMsgWithdrawValidatorCommission: {
			aminoType: AminoTypeMsgWithdrawValidatorCommission,
			toAmino: func(v types.Msg) (interface{}, error) {
				m, ok := v.(*messages.MsgWithdrawValidatorCommission)
				if !ok {
					return nil, valueMismatch(v, messages.TypeURLMsgWithdrawValidatorCommission)
				}
				return AminoMsgWithdrawValidatorCommission{ValidatorAddress: m.ValidatorAddress}, nil
			},
			fromAmino: func(raw json.RawMessage) (types.Msg, error) {
				var a AminoMsgWithdrawValidatorCommission
				if err := json.Unmarshal(raw, &a); err != nil {
					return nil, err
				}
				return &messages.MsgWithdrawValidatorCommission{ValidatorAddress: a.ValidatorAddress}, nil
			},
		},
		messages.TypeURLMsgDeposit: {
			aminoType: AminoTypeMsgDeposit,
			toAmino: func(v types.Msg) (interface{}, error) {
				m, ok := v.(*messages.MsgDeposit)
				if !ok {
					return nil, valueMismatch(v, messages.TypeURLMsgDeposit)
				}
				return AminoMsgDeposit{ProposalID: strconv.FormatUint(m.ProposalID, 10), Depositor: m.Depositor, Amount: nonNilCoins(m.Amount)}, nil
			},
			fromAmino: func(raw json.RawMessage) (types.Msg, error) {
				var a AminoMsgDeposit
				if err := json.Unmarshal(raw, &a); err != nil {
					return nil, err
				}
				id, err := parseUint(a.ProposalID)
				if err != nil {
					return nil, fmt.Errorf("invalid proposal_id: %w", err)
				}
				return &messages.MsgDeposit{ProposalID: id, Depositor: a.Depositor, Amount: a.Amount}, nil
			},
		},
	}
}

// checkContractMsg accepts only payloads already in canonical form, so that converting to
// amino and back reproduces the exact bytes that direct signing would commit to.
func checkContractMsg(msg []byte) error {
	canonical, err := CanonicalJSON(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNonCanonicalContractMsg, err)
	}
	if !bytes.Equal(canonical, msg) {
		return fmt.Errorf("%w: expected %s", ErrNonCanonicalContractMsg, canonical)
	}
	return nil
}

func valueMismatch(v types.Msg, typeURL string) error {
	return fmt.Errorf("%w: value %T does not match %s", types.ErrUnknownTypeUrl, v, typeURL)
}

func nonNilCoins(coins []types.Coin) []types.Coin {
	if coins == nil {
		return []types.Coin{}
	}
	return coins
}

func omitZero(v uint64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatUint(v, 10)
}

func parseUint(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

package messages

import (
	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
)

// MsgDelegate is cosmos.staking.v1beta1.MsgDelegate.
type MsgDelegate struct {
	DelegatorAddress string
	ValidatorAddress string
	Amount           types.Coin
}

func (m *MsgDelegate) Marshal() []byte {
	return marshalDelegation(m.DelegatorAddress, m.ValidatorAddress, m.Amount)
}

func (m *MsgDelegate) Unmarshal(data []byte) error {
	*m = MsgDelegate{}
	return unmarshalDelegation(data, &m.DelegatorAddress, &m.ValidatorAddress, &m.Amount)
}

// MsgUndelegate is cosmos.staking.v1beta1.MsgUndelegate.
type MsgUndelegate struct {
	DelegatorAddress string
	ValidatorAddress string
	Amount           types.Coin
}

func (m *MsgUndelegate) Marshal() []byte {
	return marshalDelegation(m.DelegatorAddress, m.ValidatorAddress, m.Amount)
}

func (m *MsgUndelegate) Unmarshal(data []byte) error {
	*m = MsgUndelegate{}
	return unmarshalDelegation(data, &m.DelegatorAddress, &m.ValidatorAddress, &m.Amount)
}

// MsgBeginRedelegate is cosmos.staking.v1beta1.MsgBeginRedelegate.
type MsgBeginRedelegate struct {
	DelegatorAddress    string
	ValidatorSrcAddress string
	ValidatorDstAddress string
	Amount              types.Coin
}

func (m *MsgBeginRedelegate) Marshal() []byte {
	var b []byte
	b = codec.AppendString(b, 1, m.DelegatorAddress)
	b = codec.AppendString(b, 2, m.ValidatorSrcAddress)
	b = codec.AppendString(b, 3, m.ValidatorDstAddress)
	b = codec.AppendMessage(b, 4, codec.EncodeCoin(m.Amount))
	return b
}

func (m *MsgBeginRedelegate) Unmarshal(data []byte) error {
	*m = MsgBeginRedelegate{}
	return codec.DecodeFields(data, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			m.DelegatorAddress = f.String()
		case 2:
			m.ValidatorSrcAddress = f.String()
		case 3:
			m.ValidatorDstAddress = f.String()
		case 4:
			m.Amount, err = codec.DecodeCoin(f.Bytes)
		}
		return err
	})
}

// the amount is non-nullable in the staking protos, so it is always written
func marshalDelegation(delegator, validator string, amount types.Coin) []byte {
	var b []byte
	b = codec.AppendString(b, 1, delegator)
	b = codec.AppendString(b, 2, validator)
	b = codec.AppendMessage(b, 3, codec.EncodeCoin(amount))
	return b
}

func unmarshalDelegation(data []byte, delegator, validator *string, amount *types.Coin) error {
	return codec.DecodeFields(data, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			*delegator = f.String()
		case 2:
			*validator = f.String()
		case 3:
			*amount, err = codec.DecodeCoin(f.Bytes)
		}
		return err
	})
}

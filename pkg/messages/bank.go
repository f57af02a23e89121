package messages

import (
	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
)

// MsgSend is cosmos.bank.v1beta1.MsgSend.
type MsgSend struct {
	FromAddress string
	ToAddress   string
	Amount      []types.Coin
}

func (m *MsgSend) Marshal() []byte {
	var b []byte
	b = codec.AppendString(b, 1, m.FromAddress)
	b = codec.AppendString(b, 2, m.ToAddress)
	b = codec.AppendCoins(b, 3, m.Amount)
	return b
}

func (m *MsgSend) Unmarshal(data []byte) error {
	*m = MsgSend{}
	return codec.DecodeFields(data, func(f codec.Field) error {
		switch f.Num {
		case 1:
			m.FromAddress = f.String()
		case 2:
			m.ToAddress = f.String()
		case 3:
			return decodeCoins(&m.Amount, f.Bytes)
		}
		return nil
	})
}

// Input is cosmos.bank.v1beta1.Input.
type Input struct {
	Address string
	Coins   []types.Coin
}

// Output is cosmos.bank.v1beta1.Output.
type Output struct {
	Address string
	Coins   []types.Coin
}

// MsgMultiSend is cosmos.bank.v1beta1.MsgMultiSend.
type MsgMultiSend struct {
	Inputs  []Input
	Outputs []Output
}

func (m *MsgMultiSend) Marshal() []byte {
	var b []byte
	for _, in := range m.Inputs {
		b = codec.AppendMessage(b, 1, marshalBalance(in.Address, in.Coins))
	}
	for _, out := range m.Outputs {
		b = codec.AppendMessage(b, 2, marshalBalance(out.Address, out.Coins))
	}
	return b
}

func (m *MsgMultiSend) Unmarshal(data []byte) error {
	*m = MsgMultiSend{}
	return codec.DecodeFields(data, func(f codec.Field) error {
		switch f.Num {
		case 1:
			var in Input
			if err := unmarshalBalance(f.Bytes, &in.Address, &in.Coins); err != nil {
				return err
			}
			m.Inputs = append(m.Inputs, in)
		case 2:
			var out Output
			if err := unmarshalBalance(f.Bytes, &out.Address, &out.Coins); err != nil {
				return err
			}
			m.Outputs = append(m.Outputs, out)
		}
		return nil
	})
}

func marshalBalance(address string, coins []types.Coin) []byte {
	var b []byte
	b = codec.AppendString(b, 1, address)
	b = codec.AppendCoins(b, 2, coins)
	return b
}

func unmarshalBalance(data []byte, address *string, coins *[]types.Coin) error {
	return codec.DecodeFields(data, func(f codec.Field) error {
		switch f.Num {
		case 1:
			*address = f.String()
		case 2:
			return decodeCoins(coins, f.Bytes)
		}
		return nil
	})
}

package messages

import (
	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
)

// MsgExecuteContract is cosmwasm.wasm.v1.MsgExecuteContract. Msg holds the raw JSON
// payload handed to the contract.
type MsgExecuteContract struct {
	Sender   string
	Contract string
	Msg      []byte
	Funds    []types.Coin
}

func (m *MsgExecuteContract) Marshal() []byte {
	var b []byte
	b = codec.AppendString(b, 1, m.Sender)
	b = codec.AppendString(b, 2, m.Contract)
	b = codec.AppendBytes(b, 3, m.Msg)
	b = codec.AppendCoins(b, 5, m.Funds)
	return b
}

func (m *MsgExecuteContract) Unmarshal(data []byte) error {
	*m = MsgExecuteContract{}
	return codec.DecodeFields(data, func(f codec.Field) error {
		switch f.Num {
		case 1:
			m.Sender = f.String()
		case 2:
			m.Contract = f.String()
		case 3:
			m.Msg = append([]byte(nil), f.Bytes...)
		case 5:
			return decodeCoins(&m.Funds, f.Bytes)
		}
		return nil
	})
}

// MsgInstantiateContract is cosmwasm.wasm.v1.MsgInstantiateContract.
type MsgInstantiateContract struct {
	Sender string
	Admin  string
	CodeID uint64
	Label  string
	Msg    []byte
	Funds  []types.Coin
}

func (m *MsgInstantiateContract) Marshal() []byte {
	var b []byte
	b = codec.AppendString(b, 1, m.Sender)
	b = codec.AppendString(b, 2, m.Admin)
	b = codec.AppendUint64(b, 3, m.CodeID)
	b = codec.AppendString(b, 4, m.Label)
	b = codec.AppendBytes(b, 5, m.Msg)
	b = codec.AppendCoins(b, 6, m.Funds)
	return b
}

func (m *MsgInstantiateContract) Unmarshal(data []byte) error {
	*m = MsgInstantiateContract{}
	return codec.DecodeFields(data, func(f codec.Field) error {
		switch f.Num {
		case 1:
			m.Sender = f.String()
		case 2:
			m.Admin = f.String()
		case 3:
			m.CodeID = f.Varint
		case 4:
			m.Label = f.String()
		case 5:
			m.Msg = append([]byte(nil), f.Bytes...)
		case 6:
			return decodeCoins(&m.Funds, f.Bytes)
		}
		return nil
	})
}

package messages

import (
	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
)

// Height is ibc.core.client.v1.Height.
type Height struct {
	RevisionNumber uint64
	RevisionHeight uint64
}

// MsgTransfer is ibc.applications.transfer.v1.MsgTransfer.
type MsgTransfer struct {
	SourcePort       string
	SourceChannel    string
	Token            types.Coin
	Sender           string
	Receiver         string
	TimeoutHeight    Height
	TimeoutTimestamp uint64
	Memo             string
}

func (m *MsgTransfer) Marshal() []byte {
	var b []byte
	b = codec.AppendString(b, 1, m.SourcePort)
	b = codec.AppendString(b, 2, m.SourceChannel)
	b = codec.AppendMessage(b, 3, codec.EncodeCoin(m.Token))
	b = codec.AppendString(b, 4, m.Sender)
	b = codec.AppendString(b, 5, m.Receiver)

	var h []byte
	h = codec.AppendUint64(h, 1, m.TimeoutHeight.RevisionNumber)
	h = codec.AppendUint64(h, 2, m.TimeoutHeight.RevisionHeight)
	b = codec.AppendMessage(b, 6, h)

	b = codec.AppendUint64(b, 7, m.TimeoutTimestamp)
	b = codec.AppendString(b, 8, m.Memo)
	return b
}

func (m *MsgTransfer) Unmarshal(data []byte) error {
	*m = MsgTransfer{}
	return codec.DecodeFields(data, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			m.SourcePort = f.String()
		case 2:
			m.SourceChannel = f.String()
		case 3:
			m.Token, err = codec.DecodeCoin(f.Bytes)
		case 4:
			m.Sender = f.String()
		case 5:
			m.Receiver = f.String()
		case 6:
			err = codec.DecodeFields(f.Bytes, func(h codec.Field) error {
				switch h.Num {
				case 1:
					m.TimeoutHeight.RevisionNumber = h.Varint
				case 2:
					m.TimeoutHeight.RevisionHeight = h.Varint
				}
				return nil
			})
		case 7:
			m.TimeoutTimestamp = f.Varint
		case 8:
			m.Memo = f.String()
		}
		return err
	})
}

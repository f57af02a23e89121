package messages

import "github.com/Layr-Labs/unisigner-go/pkg/codec"

// MsgWithdrawDelegatorReward is cosmos.distribution.v1beta1.MsgWithdrawDelegatorReward.
type MsgWithdrawDelegatorReward struct {
	DelegatorAddress string
	ValidatorAddress string
}

func (m *MsgWithdrawDelegatorReward) Marshal() []byte {
	var b []byte
	b = codec.AppendString(b, 1, m.DelegatorAddress)
	b = codec.AppendString(b, 2, m.ValidatorAddress)
	return b
}

func (m *MsgWithdrawDelegatorReward) Unmarshal(data []byte) error {
	*m = MsgWithdrawDelegatorReward{}
	return codec.DecodeFields(data, func(f codec.Field) error {
		switch f.Num {
		case 1:
			m.DelegatorAddress = f.String()
		case 2:
			m.ValidatorAddress = f.String()
		}
		return nil
	})
}

// MsgSetWithdrawAddress is cosmos.distribution.v1beta1.MsgSetWithdrawAddress.
type MsgSetWithdrawAddress struct {
	DelegatorAddress string
	WithdrawAddress  string
}

func (m *MsgSetWithdrawAddress) Marshal() []byte {
	var b []byte
	b = codec.AppendString(b, 1, m.DelegatorAddress)
	b = codec.AppendString(b, 2, m.WithdrawAddress)
	return b
}

func (m *MsgSetWithdrawAddress) Unmarshal(data []byte) error {
	*m = MsgSetWithdrawAddress{}
	return codec.DecodeFields(data, func(f codec.Field) error {
		switch f.Num {
		case 1:
			m.DelegatorAddress = f.String()
		case 2:
			m.WithdrawAddress = f.String()
		}
		return nil
	})
}

// MsgWithdrawValidatorCommission is cosmos.distribution.v1beta1.MsgWithdrawValidatorCommission.
type MsgWithdrawValidatorCommission struct {
	ValidatorAddress string
}

func (m *MsgWithdrawValidatorCommission) Marshal() []byte {
	return codec.AppendString(nil, 1, m.ValidatorAddress)
}

func (m *MsgWithdrawValidatorCommission) Unmarshal(data []byte) error {
	*m = MsgWithdrawValidatorCommission{}
	return codec.DecodeFields(data, func(f codec.Field) error {
		if f.Num == 1 {
			m.ValidatorAddress = f.String()
		}
		return nil
	})
}

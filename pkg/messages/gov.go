package messages

import (
	"fmt"

	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
)

// VoteOption is cosmos.gov.v1beta1.VoteOption.
type VoteOption int32

const (
	VoteOptionUnspecified VoteOption = 0
	VoteOptionYes         VoteOption = 1
	VoteOptionAbstain     VoteOption = 2
	VoteOptionNo          VoteOption = 3
	VoteOptionNoWithVeto  VoteOption = 4
)

// ParseVoteOption accepts yes, abstain, no and no_with_veto.
func ParseVoteOption(s string) (VoteOption, error) {
	switch s {
	case "yes", "VOTE_OPTION_YES":
		return VoteOptionYes, nil
	case "abstain", "VOTE_OPTION_ABSTAIN":
		return VoteOptionAbstain, nil
	case "no", "VOTE_OPTION_NO":
		return VoteOptionNo, nil
	case "no_with_veto", "VOTE_OPTION_NO_WITH_VETO":
		return VoteOptionNoWithVeto, nil
	}
	return VoteOptionUnspecified, fmt.Errorf("unknown vote option %q", s)
}

// MsgVote is cosmos.gov.v1beta1.MsgVote.
type MsgVote struct {
	ProposalID uint64
	Voter      string
	Option     VoteOption
}

func (m *MsgVote) Marshal() []byte {
	var b []byte
	b = codec.AppendUint64(b, 1, m.ProposalID)
	b = codec.AppendString(b, 2, m.Voter)
	b = codec.AppendUint64(b, 3, uint64(m.Option))
	return b
}

func (m *MsgVote) Unmarshal(data []byte) error {
	*m = MsgVote{}
	return codec.DecodeFields(data, func(f codec.Field) error {
		switch f.Num {
		case 1:
			m.ProposalID = f.Varint
		case 2:
			m.Voter = f.String()
		case 3:
			m.Option = VoteOption(f.Varint)
		}
		return nil
	})
}

// MsgDeposit is cosmos.gov.v1beta1.MsgDeposit.
type MsgDeposit struct {
	ProposalID uint64
	Depositor  string
	Amount     []types.Coin
}

func (m *MsgDeposit) Marshal() []byte {
	var b []byte
	b = codec.AppendUint64(b, 1, m.ProposalID)
	b = codec.AppendString(b, 2, m.Depositor)
	b = codec.AppendCoins(b, 3, m.Amount)
	return b
}

func (m *MsgDeposit) Unmarshal(data []byte) error {
	*m = MsgDeposit{}
	return codec.DecodeFields(data, func(f codec.Field) error {
		switch f.Num {
		case 1:
			m.ProposalID = f.Varint
		case 2:
			m.Depositor = f.String()
		case 3:
			return decodeCoins(&m.Amount, f.Bytes)
		}
		return nil
	})
}

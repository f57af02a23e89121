package codec

import (
	"fmt"

	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"google.golang.org/protobuf/encoding/protowire"
)

// SignMode mirrors cosmos.tx.signing.v1beta1.SignMode.
type SignMode int32

const (
	SignModeUnspecified     SignMode = 0
	SignModeDirect          SignMode = 1
	SignModeLegacyAminoJSON SignMode = 127
)

func (m SignMode) String() string {
	switch m {
	case SignModeDirect:
		return "SIGN_MODE_DIRECT"
	case SignModeLegacyAminoJSON:
		return "SIGN_MODE_LEGACY_AMINO_JSON"
	default:
		return "SIGN_MODE_UNSPECIFIED"
	}
}

// Any is google.protobuf.Any.
type Any struct {
	TypeURL string
	Value   []byte
}

func (a *Any) Marshal() []byte {
	var b []byte
	b = AppendString(b, 1, a.TypeURL)
	b = AppendBytes(b, 2, a.Value)
	return b
}

func (a *Any) Unmarshal(data []byte) error {
	*a = Any{}
	return DecodeFields(data, func(f Field) error {
		switch f.Num {
		case 1:
			a.TypeURL = f.String()
		case 2:
			a.Value = append([]byte(nil), f.Bytes...)
		}
		return nil
	})
}

// EncodePubKeyAny wraps a compressed public key in the PubKey message every secp256k1
// flavour shares (field 1: key) and packs it as an Any of the given type URL.
func EncodePubKeyAny(typeURL string, key []byte) *Any {
	return &Any{TypeURL: typeURL, Value: AppendBytes(nil, 1, key)}
}

// DecodePubKeyAny returns the raw key carried by a PubKey Any.
func DecodePubKeyAny(a *Any) ([]byte, error) {
	var key []byte
	err := DecodeFields(a.Value, func(f Field) error {
		if f.Num == 1 {
			key = append([]byte(nil), f.Bytes...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key: %w", err)
	}
	return key, nil
}

// EncodeCoin encodes cosmos.base.v1beta1.Coin.
func EncodeCoin(c types.Coin) []byte {
	var b []byte
	b = AppendString(b, 1, c.Denom)
	b = AppendString(b, 2, c.Amount)
	return b
}

// DecodeCoin decodes cosmos.base.v1beta1.Coin.
func DecodeCoin(data []byte) (types.Coin, error) {
	var c types.Coin
	err := DecodeFields(data, func(f Field) error {
		switch f.Num {
		case 1:
			c.Denom = f.String()
		case 2:
			c.Amount = f.String()
		}
		return nil
	})
	return c, err
}

// AppendCoins appends a repeated Coin field.
func AppendCoins(b []byte, num protowire.Number, coins []types.Coin) []byte {
	for _, c := range coins {
		b = AppendMessage(b, num, EncodeCoin(c))
	}
	return b
}

// TxBody is cosmos.tx.v1beta1.TxBody restricted to messages and memo.
type TxBody struct {
	Messages []*Any
	Memo     string
}

func (t *TxBody) Marshal() []byte {
	var b []byte
	for _, m := range t.Messages {
		b = AppendMessage(b, 1, m.Marshal())
	}
	b = AppendString(b, 2, t.Memo)
	return b
}

func (t *TxBody) Unmarshal(data []byte) error {
	*t = TxBody{}
	return DecodeFields(data, func(f Field) error {
		switch f.Num {
		case 1:
			a := &Any{}
			if err := a.Unmarshal(f.Bytes); err != nil {
				return fmt.Errorf("failed to decode message: %w", err)
			}
			t.Messages = append(t.Messages, a)
		case 2:
			t.Memo = f.String()
		}
		return nil
	})
}

// SignerInfo is cosmos.tx.v1beta1.SignerInfo with a single-signer mode info.
type SignerInfo struct {
	PublicKey *Any
	Mode      SignMode
	Sequence  uint64
}

func (s *SignerInfo) Marshal() []byte {
	var b []byte
	if s.PublicKey != nil {
		b = AppendMessage(b, 1, s.PublicKey.Marshal())
	}
	single := AppendUint64(nil, 1, uint64(s.Mode))
	b = AppendMessage(b, 2, AppendMessage(nil, 1, single))
	b = AppendUint64(b, 3, s.Sequence)
	return b
}

func (s *SignerInfo) Unmarshal(data []byte) error {
	*s = SignerInfo{}
	return DecodeFields(data, func(f Field) error {
		switch f.Num {
		case 1:
			s.PublicKey = &Any{}
			return s.PublicKey.Unmarshal(f.Bytes)
		case 2:
			return DecodeFields(f.Bytes, func(mi Field) error {
				if mi.Num != 1 {
					return fmt.Errorf("only single signer mode info is supported")
				}
				return DecodeFields(mi.Bytes, func(single Field) error {
					if single.Num == 1 {
						s.Mode = SignMode(single.Varint)
					}
					return nil
				})
			})
		case 3:
			s.Sequence = f.Varint
		}
		return nil
	})
}

// Fee is cosmos.tx.v1beta1.Fee.
type Fee struct {
	Amount   []types.Coin
	GasLimit uint64
	Payer    string
	Granter  string
}

func (fee *Fee) Marshal() []byte {
	var b []byte
	b = AppendCoins(b, 1, fee.Amount)
	b = AppendUint64(b, 2, fee.GasLimit)
	b = AppendString(b, 3, fee.Payer)
	b = AppendString(b, 4, fee.Granter)
	return b
}

func (fee *Fee) Unmarshal(data []byte) error {
	*fee = Fee{}
	return DecodeFields(data, func(f Field) error {
		switch f.Num {
		case 1:
			c, err := DecodeCoin(f.Bytes)
			if err != nil {
				return err
			}
			fee.Amount = append(fee.Amount, c)
		case 2:
			fee.GasLimit = f.Varint
		case 3:
			fee.Payer = f.String()
		case 4:
			fee.Granter = f.String()
		}
		return nil
	})
}

// AuthInfo is cosmos.tx.v1beta1.AuthInfo.
type AuthInfo struct {
	SignerInfos []*SignerInfo
	Fee         *Fee
}

func (a *AuthInfo) Marshal() []byte {
	var b []byte
	for _, s := range a.SignerInfos {
		b = AppendMessage(b, 1, s.Marshal())
	}
	if a.Fee != nil {
		b = AppendMessage(b, 2, a.Fee.Marshal())
	}
	return b
}

func (a *AuthInfo) Unmarshal(data []byte) error {
	*a = AuthInfo{}
	return DecodeFields(data, func(f Field) error {
		switch f.Num {
		case 1:
			s := &SignerInfo{}
			if err := s.Unmarshal(f.Bytes); err != nil {
				return fmt.Errorf("failed to decode signer info: %w", err)
			}
			a.SignerInfos = append(a.SignerInfos, s)
		case 2:
			a.Fee = &Fee{}
			return a.Fee.Unmarshal(f.Bytes)
		}
		return nil
	})
}

// BuildAuthInfo encodes the auth info for a single signer. SignModeUnspecified is
// treated as SignModeDirect.
func BuildAuthInfo(pubKey *Any, sequence uint64, feeAmount []types.Coin, gasLimit uint64, granter, payer string, mode SignMode) []byte {
	if mode == SignModeUnspecified {
		mode = SignModeDirect
	}
	info := &AuthInfo{
		SignerInfos: []*SignerInfo{{PublicKey: pubKey, Mode: mode, Sequence: sequence}},
		Fee:         &Fee{Amount: feeAmount, GasLimit: gasLimit, Payer: payer, Granter: granter},
	}
	return info.Marshal()
}

// DecodeAuthInfo decodes auth info bytes.
func DecodeAuthInfo(data []byte) (*AuthInfo, error) {
	info := &AuthInfo{}
	if err := info.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("failed to decode auth info: %w", err)
	}
	return info, nil
}

// SignDoc is cosmos.tx.v1beta1.SignDoc, the document signed in direct mode.
type SignDoc struct {
	BodyBytes     []byte
	AuthInfoBytes []byte
	ChainID       string
	AccountNumber uint64
}

// MakeSignDoc assembles a direct sign document.
func MakeSignDoc(bodyBytes, authInfoBytes []byte, chainID string, accountNumber uint64) *SignDoc {
	return &SignDoc{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		ChainID:       chainID,
		AccountNumber: accountNumber,
	}
}

func (d *SignDoc) Marshal() []byte {
	var b []byte
	b = AppendBytes(b, 1, d.BodyBytes)
	b = AppendBytes(b, 2, d.AuthInfoBytes)
	b = AppendString(b, 3, d.ChainID)
	b = AppendUint64(b, 4, d.AccountNumber)
	return b
}

func (d *SignDoc) Unmarshal(data []byte) error {
	*d = SignDoc{}
	return DecodeFields(data, func(f Field) error {
		switch f.Num {
		case 1:
			d.BodyBytes = append([]byte(nil), f.Bytes...)
		case 2:
			d.AuthInfoBytes = append([]byte(nil), f.Bytes...)
		case 3:
			d.ChainID = f.String()
		case 4:
			d.AccountNumber = f.Varint
		}
		return nil
	})
}

// EncodeTxRaw encodes a signed transaction as cosmos.tx.v1beta1.TxRaw. Every
// signature is written, including empty ones used for simulation.
func EncodeTxRaw(tx *types.SignedTransaction) []byte {
	var b []byte
	b = AppendBytes(b, 1, tx.BodyBytes)
	b = AppendBytes(b, 2, tx.AuthInfoBytes)
	for _, sig := range tx.Signatures {
		b = AppendMessage(b, 3, sig)
	}
	return b
}

// DecodeTxRaw decodes TxRaw bytes.
func DecodeTxRaw(data []byte) (*types.SignedTransaction, error) {
	tx := &types.SignedTransaction{}
	err := DecodeFields(data, func(f Field) error {
		switch f.Num {
		case 1:
			tx.BodyBytes = append([]byte(nil), f.Bytes...)
		case 2:
			tx.AuthInfoBytes = append([]byte(nil), f.Bytes...)
		case 3:
			tx.Signatures = append(tx.Signatures, append([]byte{}, f.Bytes...))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode tx raw: %w", err)
	}
	return tx, nil
}

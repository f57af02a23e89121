package wallet

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"github.com/ethereum/go-ethereum/accounts"
)

// Cosmos ledger app APDU constants
const (
	ledgerCLA             byte = 0x55
	ledgerINSSign         byte = 0x02
	ledgerINSGetAddress   byte = 0x04
	ledgerCLADashboard    byte = 0xB0
	ledgerINSAppInfo      byte = 0x01
	ledgerPayloadInit     byte = 0x00
	ledgerPayloadAdd      byte = 0x01
	ledgerPayloadLast     byte = 0x02
	ledgerChunkSize            = 250
	ledgerPathLength           = 5
	ledgerCompressedPKLen      = 33

	swOK           uint16 = 0x9000
	swUserRejected uint16 = 0x6986
)

// ledgerApp speaks the Cosmos app protocol over an open transport.
type ledgerApp struct {
	transport ILedgerTransport
}

func (a *ledgerApp) exchange(ctx context.Context, cla, ins, p1, p2 byte, data []byte) ([]byte, error) {
	if len(data) > 255 {
		return nil, fmt.Errorf("apdu payload too long: %d bytes", len(data))
	}
	apdu := make([]byte, 0, 5+len(data))
	apdu = append(apdu, cla, ins, p1, p2, byte(len(data)))
	apdu = append(apdu, data...)

	resp, err := a.transport.Exchange(ctx, apdu)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange apdu: %w", err)
	}
	if len(resp) < 2 {
		return nil, fmt.Errorf("ledger response too short")
	}
	sw := binary.BigEndian.Uint16(resp[len(resp)-2:])
	switch sw {
	case swOK:
		return resp[:len(resp)-2], nil
	case swUserRejected:
		return nil, fmt.Errorf("%w: request declined on device", types.ErrUserRejected)
	default:
		return nil, fmt.Errorf("ledger returned status 0x%04x", sw)
	}
}

// appName returns the name of the app currently open on the device.
func (a *ledgerApp) appName(ctx context.Context) (string, error) {
	resp, err := a.exchange(ctx, ledgerCLADashboard, ledgerINSAppInfo, 0, 0, nil)
	if err != nil {
		return "", err
	}
	if len(resp) < 2 || resp[0] != 1 {
		return "", fmt.Errorf("unexpected app info format")
	}
	nameLen := int(resp[1])
	if len(resp) < 2+nameLen {
		return "", fmt.Errorf("truncated app info")
	}
	return string(resp[2 : 2+nameLen]), nil
}

func serializeLedgerPath(path accounts.DerivationPath) ([]byte, error) {
	if len(path) != ledgerPathLength {
		return nil, fmt.Errorf("ledger paths must have %d components, got %d", ledgerPathLength, len(path))
	}
	out := make([]byte, 4*ledgerPathLength)
	for i, c := range path {
		binary.LittleEndian.PutUint32(out[4*i:], c)
	}
	return out, nil
}

// getAddress returns the compressed public key and bech32 address at path.
func (a *ledgerApp) getAddress(ctx context.Context, hrp string, path accounts.DerivationPath) ([]byte, string, error) {
	serialized, err := serializeLedgerPath(path)
	if err != nil {
		return nil, "", err
	}
	data := make([]byte, 0, 1+len(hrp)+len(serialized))
	data = append(data, byte(len(hrp)))
	data = append(data, hrp...)
	data = append(data, serialized...)

	resp, err := a.exchange(ctx, ledgerCLA, ledgerINSGetAddress, 0, 0, data)
	if err != nil {
		return nil, "", err
	}
	if len(resp) <= ledgerCompressedPKLen {
		return nil, "", fmt.Errorf("ledger address response too short")
	}
	pubKey := append([]byte(nil), resp[:ledgerCompressedPKLen]...)
	return pubKey, string(resp[ledgerCompressedPKLen:]), nil
}

// sign streams msg to the device in chunks and returns the DER signature.
func (a *ledgerApp) sign(ctx context.Context, path accounts.DerivationPath, msg []byte) ([]byte, error) {
	serialized, err := serializeLedgerPath(path)
	if err != nil {
		return nil, err
	}
	if _, err := a.exchange(ctx, ledgerCLA, ledgerINSSign, ledgerPayloadInit, 0, serialized); err != nil {
		return nil, err
	}

	var resp []byte
	for offset := 0; offset < len(msg); offset += ledgerChunkSize {
		end := offset + ledgerChunkSize
		p1 := ledgerPayloadAdd
		if end >= len(msg) {
			end = len(msg)
			p1 = ledgerPayloadLast
		}
		if resp, err = a.exchange(ctx, ledgerCLA, ledgerINSSign, p1, 0, msg[offset:end]); err != nil {
			return nil, err
		}
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("ledger returned no signature")
	}
	return resp, nil
}

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Layr-Labs/unisigner-go/pkg/amino"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"gopkg.in/yaml.v3"
)

// txFile is the on-disk description of a transaction. Messages use their amino JSON
// form so files stay readable. Counters left out are fetched from the node.
type txFile struct {
	ChainID       string      `json:"chainId"`
	Signer        string      `json:"signer"`
	Messages      []amino.Msg `json:"messages"`
	Fee           types.Fee   `json:"fee"`
	Memo          string      `json:"memo"`
	AccountNumber *uint64     `json:"accountNumber"`
	Sequence      *uint64     `json:"sequence"`
}

// parseTxFile decodes a YAML or JSON transaction description. YAML is normalised to
// JSON first so amino message values keep their JSON form.
func parseTxFile(data []byte) (*txFile, error) {
	var generic interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("failed to parse tx file: %w", err)
	}
	normalized, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize tx file: %w", err)
	}
	tf := &txFile{}
	if err := json.Unmarshal(normalized, tf); err != nil {
		return nil, fmt.Errorf("failed to decode tx file: %w", err)
	}
	if len(tf.Messages) == 0 {
		return nil, fmt.Errorf("tx file has no messages")
	}
	return tf, nil
}

func readTxFile(path string) (*txFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tx file %s: %w", path, err)
	}
	return parseTxFile(data)
}

// transaction builds the abstract transaction. chainID overrides the file's chain id
// when set; accountNumber and sequence are used for counters the file omits.
func (tf *txFile) transaction(aminoTypes *amino.AminoTypes, chainID, signer string, accountNumber, sequence uint64) (*types.Transaction, error) {
	if chainID == "" {
		chainID = tf.ChainID
	}
	if signer == "" {
		signer = tf.Signer
	}
	msgs, err := aminoTypes.FromAminoAll(tf.Messages)
	if err != nil {
		return nil, err
	}
	if tf.AccountNumber != nil {
		accountNumber = *tf.AccountNumber
	}
	if tf.Sequence != nil {
		sequence = *tf.Sequence
	}
	tx := &types.Transaction{
		ChainID:       chainID,
		SignerAddress: signer,
		Messages:      msgs,
		Fee:           tf.Fee,
		Memo:          tf.Memo,
		SignerData: types.SignerData{
			AccountNumber: accountNumber,
			Sequence:      sequence,
			ChainID:       chainID,
		},
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

// needsCounters reports whether the node has to supply account number or sequence.
func (tf *txFile) needsCounters() bool {
	return tf.AccountNumber == nil || tf.Sequence == nil
}

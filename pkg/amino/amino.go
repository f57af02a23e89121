// Package amino converts canonical messages to and from their legacy amino JSON form and
// builds the StdSignDoc signed in legacy mode.
package amino

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/Layr-Labs/unisigner-go/pkg/types"
)

const protocolName = "amino"

// Msg is a message in legacy amino JSON form.
type Msg struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// ToAminoFunc renders a canonical message value as the value of its amino form.
type ToAminoFunc func(types.Msg) (interface{}, error)

// FromAminoFunc parses the value of an amino message back into a canonical message value.
type FromAminoFunc func(json.RawMessage) (types.Msg, error)

type converter struct {
	aminoType string
	toAmino   ToAminoFunc
	fromAmino FromAminoFunc
}

// AminoTypes is the bidirectional typeURL <-> amino type table.
type AminoTypes struct {
	byTypeURL   map[string]*converter
	byAminoType map[string]string
}

// NewAminoTypes returns the table of every supported conversion.
func NewAminoTypes() *AminoTypes {
	a := &AminoTypes{
		byTypeURL:   make(map[string]*converter),
		byAminoType: make(map[string]string),
	}
	for typeURL, c := range defaultConverters() {
		a.add(typeURL, c)
	}
	return a
}

// Register adds, or replaces, the conversion for typeURL. Registration is not safe to
// run concurrently with conversions and belongs in setup code.
func (a *AminoTypes) Register(typeURL, aminoType string, toAmino ToAminoFunc, fromAmino FromAminoFunc) error {
	if typeURL == "" || aminoType == "" {
		return fmt.Errorf("type url and amino type are required")
	}
	if toAmino == nil || fromAmino == nil {
		return fmt.Errorf("both conversions are required for %s", typeURL)
	}
	if owner, ok := a.byAminoType[aminoType]; ok && owner != typeURL {
		return fmt.Errorf("amino type %s is already registered for %s", aminoType, owner)
	}
	a.add(typeURL, &converter{aminoType: aminoType, toAmino: toAmino, fromAmino: fromAmino})
	return nil
}

func (a *AminoTypes) add(typeURL string, c *converter) {
	if prev, ok := a.byTypeURL[typeURL]; ok {
		delete(a.byAminoType, prev.aminoType)
	}
	a.byTypeURL[typeURL] = c
	a.byAminoType[c.aminoType] = typeURL
}

// Supports reports whether typeURL has an amino rendering.
func (a *AminoTypes) Supports(typeURL string) bool {
	_, ok := a.byTypeURL[typeURL]
	return ok
}

// TypeURLs lists the supported type URLs in sorted order.
func (a *AminoTypes) TypeURLs() []string {
	urls := make([]string, 0, len(a.byTypeURL))
	for url := range a.byTypeURL {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}

// AminoType returns the amino type name registered for typeURL.
func (a *AminoTypes) AminoType(typeURL string) (string, error) {
	c, ok := a.byTypeURL[typeURL]
	if !ok {
		return "", types.UnsupportedMessageType(typeURL, protocolName)
	}
	return c.aminoType, nil
}

// TypeURL returns the type URL registered for aminoType.
func (a *AminoTypes) TypeURL(aminoType string) (string, bool) {
	typeURL, ok := a.byAminoType[aminoType]
	return typeURL, ok
}

// ToAmino converts a canonical message to its amino form.
func (a *AminoTypes) ToAmino(m types.Message) (Msg, error) {
	c, ok := a.byTypeURL[m.TypeURL]
	if !ok {
		return Msg{}, types.UnsupportedMessageType(m.TypeURL, protocolName)
	}
	value, err := c.toAmino(m.Value)
	if err != nil {
		return Msg{}, fmt.Errorf("failed to convert %s to amino: %w", m.TypeURL, err)
	}
	raw, err := marshalUnescaped(value)
	if err != nil {
		return Msg{}, fmt.Errorf("failed to marshal amino value for %s: %w", m.TypeURL, err)
	}
	return Msg{Type: c.aminoType, Value: raw}, nil
}

// FromAmino converts an amino message back to its canonical form.
func (a *AminoTypes) FromAmino(m Msg) (types.Message, error) {
	typeURL, ok := a.byAminoType[m.Type]
	if !ok {
		return types.Message{}, fmt.Errorf("%w: amino type %s", types.ErrUnsupportedMessageType, m.Type)
	}
	value, err := a.byTypeURL[typeURL].fromAmino(m.Value)
	if err != nil {
		return types.Message{}, fmt.Errorf("failed to convert %s from amino: %w", m.Type, err)
	}
	return types.Message{TypeURL: typeURL, Value: value}, nil
}

// ToAminoAll converts every message, failing on the first unsupported one.
func (a *AminoTypes) ToAminoAll(messages []types.Message) ([]Msg, error) {
	out := make([]Msg, 0, len(messages))
	for _, m := range messages {
		am, err := a.ToAmino(m)
		if err != nil {
			return nil, err
		}
		out = append(out, am)
	}
	return out, nil
}

// FromAminoAll converts every amino message back to canonical form.
func (a *AminoTypes) FromAminoAll(msgs []Msg) ([]types.Message, error) {
	out := make([]types.Message, 0, len(msgs))
	for _, m := range msgs {
		cm, err := a.FromAmino(m)
		if err != nil {
			return nil, err
		}
		out = append(out, cm)
	}
	return out, nil
}

// StdSignDoc is the document signed in legacy amino JSON mode.
type StdSignDoc struct {
	AccountNumber string    `json:"account_number"`
	ChainID       string    `json:"chain_id"`
	Fee           types.Fee `json:"fee"`
	Memo          string    `json:"memo"`
	Msgs          []Msg     `json:"msgs"`
	Sequence      string    `json:"sequence"`
}

// MakeSignDoc assembles a StdSignDoc. Counters are rendered as decimal strings.
func MakeSignDoc(msgs []Msg, fee types.Fee, chainID, memo string, accountNumber, sequence uint64) *StdSignDoc {
	if fee.Amount == nil {
		fee.Amount = []types.Coin{}
	}
	if msgs == nil {
		msgs = []Msg{}
	}
	return &StdSignDoc{
		AccountNumber: fmt.Sprintf("%d", accountNumber),
		ChainID:       chainID,
		Fee:           fee,
		Memo:          memo,
		Msgs:          msgs,
		Sequence:      fmt.Sprintf("%d", sequence),
	}
}

// SerializeSignDoc returns the canonical bytes of a sign document: compact JSON with
// object keys sorted at every depth and <, > and & escaped as unicode sequences.
func SerializeSignDoc(doc *StdSignDoc) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sign doc: %w", err)
	}
	return SortJSON(raw)
}

// marshalUnescaped encodes v as compact JSON without HTML escaping, so embedded raw
// JSON such as contract payloads is carried byte for byte.
func marshalUnescaped(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// CanonicalJSON re-encodes a JSON document compactly with object keys sorted and no HTML
// escaping. Numbers are carried through verbatim. The result is a fixed point: applying
// CanonicalJSON to it returns the same bytes.
func CanonicalJSON(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after json document")
	}
	return marshalUnescaped(v)
}

// SortJSON re-encodes a JSON document with every object's keys in sorted order.
// Numbers are carried through verbatim.
func SortJSON(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}
	sorted, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sorted json: %w", err)
	}
	return sorted, nil
}

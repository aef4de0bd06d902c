// Package json routes JSON encoding through goccy/go-json.
package json

import (
	"io"

	"github.com/goccy/go-json"
)

type Decoder = json.Decoder
type Encoder = json.Encoder
type RawMessage = json.RawMessage

func Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func NewDecoder(r io.Reader) *Decoder {
	return json.NewDecoder(r)
}

func NewEncoder(w io.Writer) *Encoder {
	return json.NewEncoder(w)
}

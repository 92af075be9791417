//go:build !stdjson

package xjson

import (
	"io"

	"github.com/bytedance/sonic"
)

// Marshal encodes v with sonic.
func Marshal(v any) ([]byte, error) { return sonic.Marshal(v) }

// Unmarshal decodes data into v with sonic.
func Unmarshal(data []byte, v any) error { return sonic.Unmarshal(data, v) }

// Decoder is sonic's streaming decoder interface.
type Decoder = sonic.Decoder

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) Decoder { return sonic.ConfigDefault.NewDecoder(r) }

// Encoder is sonic's streaming encoder interface.
type Encoder = sonic.Encoder

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) Encoder { return sonic.ConfigDefault.NewEncoder(w) }

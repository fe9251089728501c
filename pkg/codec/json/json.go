// Package json provides a JSON codec backed by goccy/go-json.
package json

import (
	gojson "github.com/goccy/go-json"

	"github.com/goliatone/go-transient/pkg/codec"
)

// ContentType is the MIME type for JSON.
const ContentType = "application/json"

type jsonCodec struct{}

// New returns a JSON codec.
func New() codec.Codec {
	return &jsonCodec{}
}

func (c *jsonCodec) ContentType() string {
	return ContentType
}

func (c *jsonCodec) Marshal(v any) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal decodes JSON data into v. Numbers decode as float64 into
// interface values.
func (c *jsonCodec) Unmarshal(data []byte, v any) error {
	return gojson.Unmarshal(data, v)
}

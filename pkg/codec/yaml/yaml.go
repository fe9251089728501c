// Package yaml provides a YAML codec implementation.
package yaml

import (
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-transient/pkg/codec"
)

// ContentType is the MIME type for YAML.
const ContentType = "application/yaml"

type yamlCodec struct{}

// New returns a YAML codec.
func New() codec.Codec {
	return &yamlCodec{}
}

func (c *yamlCodec) ContentType() string {
	return ContentType
}

func (c *yamlCodec) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

func (c *yamlCodec) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

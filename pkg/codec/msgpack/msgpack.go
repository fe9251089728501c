// Package msgpack provides a MessagePack codec implementation.
package msgpack

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/goliatone/go-transient/pkg/codec"
)

// ContentType is the MIME type for MessagePack.
const ContentType = "application/msgpack"

type msgpackCodec struct{}

// New returns a MessagePack codec.
func New() codec.Codec {
	return &msgpackCodec{}
}

func (c *msgpackCodec) ContentType() string {
	return ContentType
}

func (c *msgpackCodec) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (c *msgpackCodec) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

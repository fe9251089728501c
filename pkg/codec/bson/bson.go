// Package bson provides a BSON codec implementation.
package bson

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/goliatone/go-transient/pkg/codec"
)

// ContentType is the MIME type for BSON.
const ContentType = "application/bson"

type bsonCodec struct{}

// New returns a BSON codec.
func New() codec.Codec {
	return &bsonCodec{}
}

func (c *bsonCodec) ContentType() string {
	return ContentType
}

func (c *bsonCodec) Marshal(v any) ([]byte, error) {
	return bson.Marshal(v)
}

// Unmarshal decodes BSON data into v. Decoding into *map[string]any converts
// driver types (documents, arrays, datetimes) into plain Go values.
func (c *bsonCodec) Unmarshal(data []byte, v any) error {
	target, ok := v.(*map[string]any)
	if !ok {
		return bson.Unmarshal(data, v)
	}
	raw := bson.M{}
	if err := bson.Unmarshal(data, &raw); err != nil {
		return err
	}
	if *target == nil {
		*target = make(map[string]any, len(raw))
	}
	for key, value := range raw {
		(*target)[key] = plain(value)
	}
	return nil
}

func plain(value any) any {
	switch v := value.(type) {
	case bson.M:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = plain(item)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(v))
		for _, elem := range v {
			out[elem.Key] = plain(elem.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plain(item)
		}
		return out
	case primitive.DateTime:
		return v.Time().UTC()
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return value
	}
}

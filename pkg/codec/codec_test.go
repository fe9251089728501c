package codec_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-transient/pkg/codec"
	"github.com/goliatone/go-transient/pkg/codec/bson"
	"github.com/goliatone/go-transient/pkg/codec/json"
	"github.com/goliatone/go-transient/pkg/codec/msgpack"
	"github.com/goliatone/go-transient/pkg/codec/yaml"
	"github.com/goliatone/go-transient/pkg/schema"
)

var codecs = []struct {
	name        string
	codec       codec.Codec
	contentType string
}{
	{"json", json.New(), "application/json"},
	{"yaml", yaml.New(), "application/yaml"},
	{"msgpack", msgpack.New(), "application/msgpack"},
	{"bson", bson.New(), "application/bson"},
}

func TestCodecContentTypes(t *testing.T) {
	for _, tc := range codecs {
		if got := tc.codec.ContentType(); got != tc.contentType {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.contentType, got)
		}
	}
}

func TestDecodeRecordHydratesThroughSchema(t *testing.T) {
	s := schema.MustNew(
		schema.Field{Path: "name", Type: schema.String},
		schema.Field{Path: "age", Type: schema.Number},
		schema.Field{Path: "active", Type: schema.Boolean},
		schema.Field{Path: "joined", Type: schema.Date},
		schema.Field{Path: "tags"},
	)
	joined := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	record := codec.Record{
		"_id":    "u1",
		"name":   "Bart",
		"age":    10,
		"active": true,
		"joined": joined,
		"tags":   []any{"a", "b"},
		"__v":    2,
	}

	for _, tc := range codecs {
		t.Run(tc.name, func(t *testing.T) {
			data, err := tc.codec.Marshal(record)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			decoded, err := codec.DecodeRecord(tc.codec, data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			doc, err := s.Hydrate(decoded)
			if err != nil {
				t.Fatalf("hydrate: %v", err)
			}
			if doc.ID() != "u1" || doc.Version() != 2 {
				t.Fatalf("unexpected identity %q v%d", doc.ID(), doc.Version())
			}
			if got, _ := doc.Get("name"); got != "Bart" {
				t.Fatalf("unexpected name %v", got)
			}
			if got, _ := doc.Get("age"); got != float64(10) {
				t.Fatalf("unexpected age %v (%T)", got, got)
			}
			if got, _ := doc.Get("active"); got != true {
				t.Fatalf("unexpected active %v", got)
			}
			got, _ := doc.Get("joined")
			if at, ok := got.(time.Time); !ok || !at.Equal(joined) {
				t.Fatalf("unexpected joined %v (%T)", got, got)
			}
			tags, _ := doc.Get("tags")
			if list, ok := tags.([]any); !ok || len(list) != 2 || list[0] != "a" {
				t.Fatalf("unexpected tags %v (%T)", tags, tags)
			}
		})
	}
}

func TestDecodeRecordRejectsGarbage(t *testing.T) {
	for _, tc := range codecs {
		if tc.name == "yaml" {
			continue
		}
		if _, err := codec.DecodeRecord(tc.codec, []byte{0xff, 0x00, 0x13}); err == nil {
			t.Fatalf("%s: expected decode error", tc.name)
		}
	}
}

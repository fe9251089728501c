// Package codec defines the wire format used to persist document records.
// Implementations live in the json, yaml, msgpack and bson subpackages.
package codec

// Codec provides content-type aware marshaling.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

// Record is the decoded form of a persisted document.
type Record = map[string]any

// DecodeRecord decodes data with c into a Record.
func DecodeRecord(c Codec, data []byte) (Record, error) {
	record := Record{}
	if err := c.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return record, nil
}

package conversation

import "encoding/json"

// Metadata is the explicit key-value attachment carried by entries and
// conversations. It round-trips to the JSON text column used by the
// durable store.
type Metadata map[string]string

// Clone returns an independent copy; nil stays nil.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	copied := make(Metadata, len(m))
	for k, v := range m {
		copied[k] = v
	}
	return copied
}

// Encode serializes the metadata for the store's JSON text column. Nil
// encodes as an empty object so the column is never NULL-ambiguous.
func (m Metadata) Encode() (string, error) {
	if m == nil {
		m = Metadata{}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeMetadata parses a metadata column value. Empty input yields an
// empty map rather than an error.
func DecodeMetadata(raw string) (Metadata, error) {
	if raw == "" {
		return Metadata{}, nil
	}
	var m Metadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = Metadata{}
	}
	return m, nil
}

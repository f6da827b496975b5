// Package codec provides the (de)serialization boundary between a caller's
// configuration value type and the raw bytes held by the durable store and
// the shared cache. Both collaborators are byte-transparent, so one codec
// choice governs the whole pipeline.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

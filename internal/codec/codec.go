// Package codec defines how backend bodies are decoded into normalized records
// and how pipeline failures are rendered to HTTP clients.
package codec

// Decoder turns a raw backend body into a normalized record.
type Decoder interface {
	// Name identifies the decoder in logs and spans.
	Name() string

	// Decode converts body. Decoders that degrade instead of failing
	// return a nil error.
	Decode(body []byte) (any, error)
}

package correlation

import "context"

// Header names read by Begin.
const (
	HeaderMethod   = "method"
	HeaderURI      = "uri"
	HeaderPath     = "path"
	HeaderQuery    = "query"
	HeaderPersonID = "personId"
	HeaderType     = "type"
)

// Headers carries the request metadata of one execution. A missing key and
// an empty value are different: only missing keys are omitted from logs.
type Headers map[string]string

// Lookup returns the value for key and whether it is present.
func (h Headers) Lookup(key string) (string, bool) {
	if h == nil {
		return "", false
	}
	v, ok := h[key]
	return v, ok
}

// Clone returns a copy that can be modified without affecting h.
func (h Headers) Clone() Headers {
	out := make(Headers, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

type headersKey struct{}

// WithHeaders attaches h to ctx for the pipeline to pick up.
func WithHeaders(ctx context.Context, h Headers) context.Context {
	return context.WithValue(ctx, headersKey{}, h)
}

// HeadersFrom returns the headers attached to ctx, or nil.
func HeadersFrom(ctx context.Context) Headers {
	if ctx == nil {
		return nil
	}
	h, _ := ctx.Value(headersKey{}).(Headers)
	return h
}

// Package post transforms posts fetched by the periodic route.
package post

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tjfontaine/polyglot-integration-gateway/internal/core/domain"
)

const (
	// Source is stamped on every transformed post.
	Source = "external-api"

	titlePrefix   = "TRANSFORMED: "
	summaryRunes  = 50
	summarySuffix = "..."
)

// Codec decodes post bodies for the transform route.
type Codec struct {
	now func() time.Time
}

// New creates a post codec stamping the wall clock.
func New() *Codec {
	return &Codec{now: time.Now}
}

// Name returns the codec name.
func (c *Codec) Name() string {
	return "post"
}

// Decode transforms body into a TransformedPost.
func (c *Codec) Decode(body []byte) (any, error) {
	p, err := Transform(body, c.now())
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Transform maps a {id, title, body, userId} post onto a TransformedPost
// stamped with at.
func Transform(body []byte, at time.Time) (domain.TransformedPost, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return domain.TransformedPost{}, domain.ErrMalformedEnvelope(fmt.Errorf("failed to parse post: %w", err))
	}

	raw := make(map[string]json.RawMessage, 4)
	for _, name := range []string{"id", "title", "body", "userId"} {
		v, ok := fields[name]
		if !ok {
			return domain.TransformedPost{}, domain.NewPipelineError(domain.ErrorKindMissingField,
				fmt.Sprintf("field %q not found in post", name)).WithField(name)
		}
		raw[name] = v
	}

	return domain.TransformedPost{
		OriginalID:              asInt(raw["id"]),
		TransformedTitle:        titlePrefix + strings.ToUpper(asText(raw["title"])),
		Summary:                 summarize(asText(raw["body"])),
		UserID:                  asInt(raw["userId"]),
		TransformationTimestamp: at.UnixMilli(),
		Source:                  Source,
	}, nil
}

// Processed is a transformed post after the final processing step.
type Processed struct {
	Post        domain.TransformedPost
	JSON        []byte
	ProcessedAt time.Time
	DataLength  int
}

// Process serializes p and records when and how large it was.
func Process(p domain.TransformedPost, at time.Time) (Processed, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return Processed{}, fmt.Errorf("failed to encode transformed post: %w", err)
	}
	return Processed{
		Post:        p,
		JSON:        data,
		ProcessedAt: at,
		DataLength:  len(data),
	}, nil
}

func summarize(s string) string {
	r := []rune(s)
	if len(r) > summaryRunes {
		r = r[:summaryRunes]
	}
	return string(r) + summarySuffix
}

func asText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		return ""
	}
	if len(raw) > 0 && (raw[0] == '{' || raw[0] == '[') {
		return ""
	}
	return string(raw)
}

// asInt reads numbers and numeric strings; anything else is zero.
func asInt(raw json.RawMessage) int64 {
	text := strings.TrimSpace(asText(raw))
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int64(f)
	}
	return 0
}

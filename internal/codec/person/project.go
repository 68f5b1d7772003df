// Package person projects the JSON person backend envelope onto a PersonRecord.
package person

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tjfontaine/polyglot-integration-gateway/internal/core/domain"
)

// okField wraps every successful backend answer.
const okField = "Ok"

// Source field names inside the Ok object.
const (
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldCreatedAt = "created_at"
)

// Codec decodes person backend bodies for the pipeline registry.
type Codec struct{}

// New creates a person codec.
func New() *Codec {
	return &Codec{}
}

// Name returns the codec name.
func (c *Codec) Name() string {
	return "person"
}

// Decode projects body into a PersonRecord.
func (c *Codec) Decode(body []byte) (any, error) {
	rec, err := Project(body)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Project extracts first_name, last_name and created_at from the Ok object of
// a backend envelope. Every other field is dropped.
func Project(body []byte) (domain.PersonRecord, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.PersonRecord{}, domain.ErrMalformedEnvelope(fmt.Errorf("failed to parse person envelope: %w", err))
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		// Valid JSON but not an object.
		return domain.PersonRecord{}, domain.ErrMissingOkField()
	}
	okRaw, found := top[okField]
	if !found {
		return domain.PersonRecord{}, domain.ErrMissingOkField()
	}

	// A null or non-object Ok has no fields, so the first lookup fails.
	var ok map[string]json.RawMessage
	if err := json.Unmarshal(okRaw, &ok); err != nil {
		ok = nil
	}

	var rec domain.PersonRecord
	var err error
	if rec.FirstName, err = textField(ok, FieldFirstName); err != nil {
		return domain.PersonRecord{}, err
	}
	if rec.LastName, err = textField(ok, FieldLastName); err != nil {
		return domain.PersonRecord{}, err
	}
	if rec.CreationDate, err = textField(ok, FieldCreatedAt); err != nil {
		return domain.PersonRecord{}, err
	}
	return rec, nil
}

func textField(obj map[string]json.RawMessage, name string) (string, error) {
	raw, found := obj[name]
	if !found {
		return "", domain.ErrMissingField(name)
	}
	return asText(raw), nil
}

// asText renders a JSON value as plain text: strings unquoted, scalars
// literally, containers as the empty string.
func asText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{', '[':
		return ""
	default:
		return string(raw)
	}
}

// Package webhook defines the transport-level shape of inbound form
// submissions and the signature verification applied to them.
//
// Form vendors deliver wildly different field layouts: keys are often
// numeric field ids, values arrive as bare strings, numbers, or
// {value, label} pairs. This file models that looseness with a small tagged
// union (FieldValue) and an insertion-ordered field list (Fields) so the
// extractor downstream sees fields in exactly the order the vendor sent
// them. Extraction is first-match-wins, so order is part of the contract.
package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrEmptyPayload is returned when a submission carries no usable fields.
var ErrEmptyPayload = errors.New("webhook: payload has no fields")

// FieldValue is a tagged union over the three value shapes vendors send:
// a bare string, a bare number, or a {value, label} pair. Exactly one shape
// is populated per field.
type FieldValue struct {
	// Str holds the value for the string shape.
	Str string
	// Num holds the value for the number shape.
	Num float64
	// Label and Val hold the pair shape; Label is the vendor's field label.
	Label string
	Val   string

	kind valueKind
}

type valueKind uint8

const (
	kindString valueKind = iota
	kindNumber
	kindPair
)

// StringValue returns v as a string regardless of shape. Numbers are
// formatted without a trailing ".0" when integral.
func (v FieldValue) StringValue() string {
	switch v.kind {
	case kindNumber:
		if v.Num == float64(int64(v.Num)) {
			return strconv.FormatInt(int64(v.Num), 10)
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case kindPair:
		return v.Val
	default:
		return v.Str
	}
}

// LabelValue returns the vendor-provided label, or "" for shapes without one.
func (v FieldValue) LabelValue() string {
	if v.kind == kindPair {
		return v.Label
	}
	return ""
}

// UnmarshalJSON decodes any of the three accepted shapes. Unknown object
// keys are ignored; anything else (arrays, nested objects in "value") is a
// decode error so the handler can answer 400.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("webhook: empty field value")
	}
	switch data[0] {
	case '"':
		v.kind = kindString
		return json.Unmarshal(data, &v.Str)
	case '{':
		var pair struct {
			Value json.RawMessage `json:"value"`
			Label string          `json:"label"`
		}
		if err := json.Unmarshal(data, &pair); err != nil {
			return err
		}
		v.kind = kindPair
		v.Label = pair.Label
		if len(pair.Value) == 0 {
			return nil
		}
		// The inner value may itself be a string or a number.
		var inner FieldValue
		if err := inner.UnmarshalJSON(pair.Value); err != nil {
			return err
		}
		if inner.kind == kindPair {
			return errors.New("webhook: nested value objects are not supported")
		}
		v.Val = inner.StringValue()
		return nil
	case 't', 'f':
		// Booleans show up from checkbox widgets; normalize to strings.
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		v.kind = kindString
		v.Str = strconv.FormatBool(b)
		return nil
	case 'n':
		v.kind = kindString
		v.Str = ""
		return nil
	default:
		v.kind = kindNumber
		return json.Unmarshal(data, &v.Num)
	}
}

// StringField builds a FieldValue of the string shape. Used by tests and by
// callers that synthesize submissions.
func StringField(s string) FieldValue { return FieldValue{kind: kindString, Str: s} }

// NumberField builds a FieldValue of the number shape.
func NumberField(n float64) FieldValue { return FieldValue{kind: kindNumber, Num: n} }

// PairField builds a FieldValue of the {value, label} shape.
func PairField(value, label string) FieldValue {
	return FieldValue{kind: kindPair, Val: value, Label: label}
}

// Field is one submitted form field in vendor order.
type Field struct {
	Key   string
	Value FieldValue
}

// Fields preserves the insertion order of the payload's field object, which
// a plain map[string]FieldValue would lose. Extraction iterates this slice.
type Fields []Field

// UnmarshalJSON walks the JSON object token by token so key order survives.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("webhook: fields must be a JSON object")
	}

	out := make(Fields, 0, 8)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return errors.New("webhook: field key is not a string")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var val FieldValue
		if err := val.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("webhook: field %q: %w", key, err)
		}
		out = append(out, Field{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return err
	}
	*f = out
	return nil
}

// Submission is one inbound webhook delivery after JSON decoding: the
// ordered field list plus request metadata. It is transient; nothing here
// is persisted except through the extracted lead and its raw payload copy.
type Submission struct {
	FormID      string `json:"form_id"`
	EntryID     string `json:"entry_id"`
	Fields      Fields `json:"fields"`
	SubmittedAt string `json:"submitted_at"`
	SourceURL   string `json:"source_url"`
	Referrer    string `json:"referrer"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	IPAddress   string `json:"ip"`
	Source      string `json:"source"`
}

// ParseSubmission decodes a raw webhook body. It validates the minimum
// needed to identify and extract the submission; a payload without a single
// field is unusable and yields ErrEmptyPayload.
func ParseSubmission(body []byte) (*Submission, error) {
	var sub Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, err
	}
	if strings.TrimSpace(sub.FormID) == "" {
		sub.FormID = "0"
	}
	if strings.TrimSpace(sub.EntryID) == "" {
		return nil, errors.New("webhook: entry_id is required")
	}
	if len(sub.Fields) == 0 {
		return nil, ErrEmptyPayload
	}
	return &sub, nil
}

// SubmittedTime parses the submission timestamp, falling back to now (UTC)
// when the vendor omitted it or sent an unknown format.
func (s *Submission) SubmittedTime(now time.Time) time.Time {
	ts := strings.TrimSpace(s.SubmittedAt)
	if ts == "" {
		return now.UTC()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.UTC()
		}
	}
	return now.UTC()
}

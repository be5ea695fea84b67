// Package api contains the request and response contracts of the keygate
// HTTP API. Version v1 is the only version.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxHwidLength bounds administrative hwid values.
const MaxHwidLength = 512

// FlexInt decodes a JSON integer, a float (truncated toward zero) or a
// numeric string within the int32 range. JSON null leaves the current value
// untouched.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	var text string
	switch v := raw.(type) {
	case json.Number:
		text = v.String()
	case string:
		text = strings.TrimSpace(v)
	default:
		return fmt.Errorf("expected a number, got %s", string(data))
	}

	// integers share the int32 bound of the float path; larger ones fall
	// through to ParseFloat and fail the range check there
	if n, err := strconv.ParseInt(text, 10, 32); err == nil {
		*f = FlexInt(n)
		return nil
	}
	fv, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(fv) || math.IsInf(fv, 0) {
		return fmt.Errorf("invalid integer %q", text)
	}
	if fv > math.MaxInt32 || fv < math.MinInt32 {
		return fmt.Errorf("integer out of range: %q", text)
	}
	*f = FlexInt(math.Trunc(fv))
	return nil
}

// CreateKeyRequest is the body of POST /keys
type CreateKeyRequest struct {
	Key        string  `json:"key" validate:"required"`
	Months     FlexInt `json:"months"`
	HwidBypass bool    `json:"hwid_bypass"`
}

// NewCreateKeyRequest returns a request preloaded with defaults so that
// omitted fields keep them after decoding.
func NewCreateKeyRequest() CreateKeyRequest {
	return CreateKeyRequest{Months: 1}
}

// UpdateKeyRequest is the body of PATCH /keys/{id}. HwidSet reports whether
// the hwid field was present at all; a present null leaves Hwid nil.
type UpdateKeyRequest struct {
	Hwid    *string `json:"hwid" validate:"omitempty,max=512"`
	HwidSet bool    `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler. Unknown fields are ignored.
func (r *UpdateKeyRequest) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("request body must be a JSON object")
	}

	raw, ok := fields["hwid"]
	if !ok {
		return nil
	}
	r.HwidSet = true

	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		r.Hwid = nil
		return nil
	}
	var hwid string
	if err := json.Unmarshal(raw, &hwid); err != nil {
		return fmt.Errorf("hwid must be a string or null")
	}
	r.Hwid = &hwid
	return nil
}

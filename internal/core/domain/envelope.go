package domain

import (
	"bytes"
	"encoding/json"
	"reflect"
	"slices"
	"strings"
)

var emptyObject = json.RawMessage(`{}`)

// Envelope is the {success, data, message, errors} wrapper the backend uses
// for every response. Raw keeps the whole decoded body so historical shapes
// that put fields next to data can still be read.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Errors  json.RawMessage `json:"errors,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

// Decode unmarshals the envelope data into v. Empty, null and {} data decode
// to an empty value: slices become empty slices, raw messages become {} and
// everything else is left untouched.
func (e *Envelope) Decode(v any) error {
	if isEmptyData(e.Data) {
		emptyValue(v)
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

func emptyValue(v any) {
	if raw, ok := v.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], emptyObject...)
		return
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return
	}
	if elem := rv.Elem(); elem.Kind() == reflect.Slice && elem.IsNil() {
		elem.Set(reflect.MakeSlice(elem.Type(), 0, 0))
	}
}

func isEmptyData(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || isNull(trimmed) || bytes.Equal(trimmed, emptyObject)
}

// EmptyEnvelope is returned for 204 responses and for bodies that are not JSON.
func EmptyEnvelope() *Envelope {
	return &Envelope{Success: true, Data: emptyObject, Raw: emptyObject}
}

var envelopeKeys = []string{"success", "data", "message", "errors"}

// ParseEnvelope decodes a JSON body. A body with none of the envelope keys is
// treated as bare data. An envelope with null data, or with no data key and
// nothing but envelope keys, has empty data; one without a data key but with
// other fields exposes the whole body as data. success defaults to true
// unless it is explicitly false.
func ParseEnvelope(body []byte) (*Envelope, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return EmptyEnvelope(), nil
	}

	env := &Envelope{Success: true, Data: json.RawMessage(body), Raw: json.RawMessage(body)}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		// Valid JSON that is not an object (arrays, scalars) is bare data.
		if !json.Valid(body) {
			return nil, err
		}
		return env, nil
	}

	found := false
	for _, k := range envelopeKeys {
		if _, ok := fields[k]; ok {
			found = true
			break
		}
	}
	if !found {
		return env, nil
	}

	if raw, ok := fields["success"]; ok {
		var success bool
		if json.Unmarshal(raw, &success) == nil {
			env.Success = success
		}
	}
	if raw, ok := fields["data"]; ok {
		env.Data = raw
		if isNull(raw) {
			env.Data = nil
		}
	} else if onlyEnvelopeKeys(fields) {
		env.Data = nil
	}
	env.Message = messageFrom(fields)
	if raw, ok := fields["errors"]; ok && !isNull(raw) {
		env.Errors = raw
	}
	return env, nil
}

func onlyEnvelopeKeys(fields map[string]json.RawMessage) bool {
	for k := range fields {
		if !slices.Contains(envelopeKeys, k) {
			return false
		}
	}
	return true
}

// ServerMessage returns the "message" or "error" string of a JSON object body.
func ServerMessage(body []byte) string {
	var fields map[string]json.RawMessage
	if json.Unmarshal(body, &fields) != nil {
		return ""
	}
	return messageFrom(fields)
}

func messageFrom(fields map[string]json.RawMessage) string {
	for _, k := range []string{"message", "error", "detail"} {
		var s string
		if raw, ok := fields[k]; ok && json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
	}
	return ""
}

// FieldErrors flattens an "errors" object into field -> message. List values
// keep their first entry.
func FieldErrors(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if json.Unmarshal(raw, &m) != nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for field, v := range m {
		switch val := v.(type) {
		case string:
			out[field] = val
		case []any:
			if len(val) > 0 {
				if s, ok := val[0].(string); ok {
					out[field] = s
				}
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ExtractToken returns the session token from a login or registration body.
// Lookup order: data.token, data.access_token, token, access_token.
func ExtractToken(raw json.RawMessage) string {
	root := objectOf(raw)
	if root == nil {
		return ""
	}
	data := objectOf(root["data"])
	for _, c := range []struct {
		obj map[string]json.RawMessage
		key string
	}{
		{data, "token"},
		{data, "access_token"},
		{root, "token"},
		{root, "access_token"},
	} {
		if c.obj == nil {
			continue
		}
		var s string
		if json.Unmarshal(c.obj[c.key], &s) == nil && s != "" {
			return s
		}
	}
	return ""
}

// ExtractUser returns the normalized user from a response body.
// Lookup order: data.user, user, data, then the body itself. The last two are
// only accepted when they look like a profile.
func ExtractUser(raw json.RawMessage) *User {
	root := objectOf(raw)
	if root == nil {
		return nil
	}
	data := objectOf(root["data"])

	if data != nil {
		if u := objectOf(data["user"]); u != nil {
			return NormalizeUser(decodeMap(data["user"]))
		}
	}
	if u := objectOf(root["user"]); u != nil {
		return NormalizeUser(decodeMap(root["user"]))
	}
	if looksLikeProfile(data) {
		return NormalizeUser(decodeMap(root["data"]))
	}
	if looksLikeProfile(root) {
		return NormalizeUser(decodeMap(raw))
	}
	return nil
}

func looksLikeProfile(obj map[string]json.RawMessage) bool {
	if obj == nil {
		return false
	}
	for _, k := range []string{"id", "user_id", "email", "username", "role", "is_admin"} {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

func objectOf(raw json.RawMessage) map[string]json.RawMessage {
	if len(raw) == 0 || isNull(raw) {
		return nil
	}
	var m map[string]json.RawMessage
	if json.Unmarshal(raw, &m) != nil {
		return nil
	}
	return m
}

func decodeMap(raw json.RawMessage) map[string]any {
	var m map[string]any
	if json.Unmarshal(raw, &m) != nil {
		return nil
	}
	return m
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

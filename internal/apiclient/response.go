package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Response is the canonical envelope every caller sees, whatever shape the
// server answered with. Data holds the unwrapped payload.
type Response struct {
	OK     bool
	Status int
	Data   json.RawMessage
	Error  string
}

// NotFound reports whether the server answered 404.
func (r *Response) NotFound() bool {
	return r != nil && r.Status == http.StatusNotFound
}

// Decode unmarshals the response payload into T. An empty or null payload
// yields the zero value of T.
func Decode[T any](r *Response) (T, error) {
	var out T
	if r == nil || len(r.Data) == 0 || bytes.Equal(r.Data, []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(r.Data, &out); err != nil {
		return out, fmt.Errorf("%w: decode %T: %w", ErrMalformedResponse, out, err)
	}
	return out, nil
}

// normalize converts a raw HTTP answer into a Response. The server may answer
// with a bare array or object, {"ok": bool, "data": ..., "error": ...}, or
// {"success": bool, "data": ..., "message": ...}. An error is returned only
// when a 2xx body is not valid JSON.
func normalize(status int, raw []byte) (*Response, error) {
	raw = bytes.TrimSpace(raw)
	success := status >= 200 && status < 300
	out := &Response{OK: success, Status: status}

	if !success {
		out.Error = errorMessage(status, raw)
		return out, nil
	}
	if len(raw) == 0 {
		return out, nil
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: status %d: body is not JSON", ErrMalformedResponse, status)
	}

	env, isEnvelope := parseEnvelope(raw)
	if !isEnvelope {
		out.Data = json.RawMessage(raw)
		return out, nil
	}

	out.OK = env.ok
	out.Data = env.data
	if !env.ok {
		out.Error = env.message
		if out.Error == "" {
			out.Error = fallbackMessage(status)
		}
	}
	return out, nil
}

type envelope struct {
	ok      bool
	data    json.RawMessage
	message string
}

// parseEnvelope recognizes an object carrying a boolean "ok" or "success" flag.
func parseEnvelope(raw []byte) (envelope, bool) {
	if raw[0] != '{' {
		return envelope{}, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return envelope{}, false
	}

	var flag bool
	found := false
	for _, key := range []string{"ok", "success"} {
		v, present := fields[key]
		if !present {
			continue
		}
		if err := json.Unmarshal(v, &flag); err == nil {
			found = true
			break
		}
	}
	if !found {
		return envelope{}, false
	}

	return envelope{
		ok:      flag,
		data:    fields["data"],
		message: messageFrom(fields),
	}, true
}

// errorMessage extracts the server-provided message of a failed response.
func errorMessage(status int, raw []byte) string {
	if len(raw) == 0 {
		return fallbackMessage(status)
	}
	if raw[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err == nil {
			if msg := messageFrom(fields); msg != "" {
				return msg
			}
		}
		return fallbackMessage(status)
	}
	if raw[0] == '"' {
		var msg string
		if err := json.Unmarshal(raw, &msg); err == nil {
			if msg = strings.TrimSpace(msg); msg != "" {
				return msg
			}
		}
		return fallbackMessage(status)
	}
	if !json.Valid(raw) && len(raw) <= 200 && !bytes.HasPrefix(raw, []byte("<")) {
		return string(raw)
	}
	return fallbackMessage(status)
}

// messageFrom looks for error, message, or RFC 7807 detail/title, in that
// order. An "error" object with its own "message" is also understood.
func messageFrom(fields map[string]json.RawMessage) string {
	for _, key := range []string{"error", "message", "detail", "title"} {
		v, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
			continue
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(v, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return ""
}

func fallbackMessage(status int) string {
	return fmt.Sprintf("request failed with status %d", status)
}

package apiclient

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Envelope is the normalized form of every backend response body.
type Envelope struct {
	// OK reports application-level success.
	OK bool
	// Code is the application code, 0 when the body carried none.
	Code int
	// Message is the backend message.
	Message string
	// Data is the payload; the whole body when it was not wrapped.
	Data json.RawMessage
}

// ParseEnvelope normalizes a response body.
//
// A body with a numeric "code" succeeds when the code is 0 or 200; a body
// with a boolean "success" follows that flag. Anything else is taken as an
// unwrapped payload. An empty body is a successful empty payload.
func ParseEnvelope(body []byte) (Envelope, error) {
	if len(body) == 0 {
		return Envelope{OK: true}, nil
	}
	if !gjson.ValidBytes(body) {
		return Envelope{}, fmt.Errorf("%w: invalid json", ErrBadEnvelope)
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return Envelope{OK: true, Data: json.RawMessage(body)}, nil
	}

	msg := root.Get("message")
	if !msg.Exists() {
		msg = root.Get("msg")
	}

	if code := root.Get("code"); code.Type == gjson.Number {
		c := int(code.Int())
		return Envelope{
			OK:      c == 0 || c == 200,
			Code:    c,
			Message: msg.String(),
			Data:    rawOf(root.Get("data")),
		}, nil
	}

	if success := root.Get("success"); success.IsBool() {
		return Envelope{
			OK:      success.Bool(),
			Message: msg.String(),
			Data:    rawOf(root.Get("data")),
		}, nil
	}

	return Envelope{OK: true, Data: json.RawMessage(body)}, nil
}

func rawOf(r gjson.Result) json.RawMessage {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	return json.RawMessage(r.Raw)
}

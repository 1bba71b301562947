package apiclient

import (
	"encoding/json"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
)

// newAPIError builds the typed error for a failed response. env and body may
// be nil when the response was not JSON.
func newAPIError(status int, env *domain.Envelope, body []byte) *domain.APIError {
	e := &domain.APIError{Status: status, Message: domain.DefaultMessage(status)}
	if status >= 200 && status < 300 {
		// success=false inside a 2xx response.
		e.Message = "The request was not successful."
	}
	if env == nil {
		return e
	}

	e.Body = json.RawMessage(body)
	if env.Message != "" {
		e.Message = env.Message
	} else if msg := domain.ServerMessage(body); msg != "" {
		e.Message = msg
	}
	e.FieldErrors = domain.FieldErrors(env.Errors)
	e.Code = errorCode(env.Raw)
	return e
}

// errorCode reads a machine-readable code from the body: code or error_code,
// at the top level or inside data.
func errorCode(raw json.RawMessage) string {
	var root map[string]json.RawMessage
	if json.Unmarshal(raw, &root) != nil {
		return ""
	}
	scopes := []map[string]json.RawMessage{root}
	var data map[string]json.RawMessage
	if json.Unmarshal(root["data"], &data) == nil {
		scopes = append(scopes, data)
	}
	for _, scope := range scopes {
		for _, k := range []string{"code", "error_code"} {
			var s string
			if json.Unmarshal(scope[k], &s) == nil && s != "" {
				return s
			}
		}
	}
	return ""
}

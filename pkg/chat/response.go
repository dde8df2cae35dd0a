package chat

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// EnsureResponseDefaults fills in "id" and "model" on a completion response
// when the upstream omitted them. Some local servers skip both; clients built
// against the OpenAI API expect them. Bodies that are not JSON objects, or
// that already carry both fields, are returned unchanged.
func EnsureResponseDefaults(body []byte, model string) []byte {
	var resp map[string]json.RawMessage
	if err := json.Unmarshal(body, &resp); err != nil {
		return body
	}

	changed := false
	if _, ok := resp["id"]; !ok {
		id, err := json.Marshal("chatcmpl-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24])
		if err == nil {
			resp["id"] = id
			changed = true
		}
	}
	if _, ok := resp["model"]; !ok {
		if model == "" {
			model = "local"
		}
		m, err := json.Marshal(model)
		if err == nil {
			resp["model"] = m
			changed = true
		}
	}

	if !changed {
		return body
	}
	out, err := json.Marshal(resp)
	if err != nil {
		return body
	}
	return out
}

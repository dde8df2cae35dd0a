package chat

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureResponseDefaultsFillsMissingFields(t *testing.T) {
	body := []byte(`{"choices":[{"message":{"role":"assistant","content":"hi"}}]}`)

	out := EnsureResponseDefaults(body, "qwen2-vl")

	var resp map[string]any
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.True(t, strings.HasPrefix(resp["id"].(string), "chatcmpl-"))
	assert.Equal(t, "qwen2-vl", resp["model"])
}

func TestEnsureResponseDefaultsKeepsExistingFields(t *testing.T) {
	body := []byte(`{"id":"chatcmpl-abc","model":"served-model","choices":[]}`)

	out := EnsureResponseDefaults(body, "other")
	assert.Equal(t, body, out)
}

func TestEnsureResponseDefaultsEmptyModelFallsBack(t *testing.T) {
	out := EnsureResponseDefaults([]byte(`{"id":"chatcmpl-abc"}`), "")

	var resp map[string]any
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, "local", resp["model"])
}

func TestEnsureResponseDefaultsLeavesNonObjectsAlone(t *testing.T) {
	body := []byte(`[1,2,3]`)
	assert.Equal(t, body, EnsureResponseDefaults(body, "m"))
}

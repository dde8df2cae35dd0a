package chat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ImageRef is one legacy image descriptor. Clients send either a bare string
// (a data URL, an http(s) URL, or raw base64 bytes) or an object whose "data"
// field carries the payload.
type ImageRef struct {
	ID   string `json:"id,omitempty"`
	Data string `json:"data,omitempty"`
}

// UnmarshalJSON accepts both the string and the object form.
func (r *ImageRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		r.Data = s
		return nil
	}

	type ref ImageRef
	var obj ref
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("image reference is neither a string nor an object: %w", err)
	}
	*r = ImageRef(obj)
	return nil
}

// URL resolves the descriptor to a URL string. Data URLs and http(s) URLs
// pass through unchanged; anything else is treated as raw base64 and wrapped
// into a PNG data URL. Empty descriptors resolve to ok=false.
func (r ImageRef) URL() (string, bool) {
	if r.Data == "" {
		return "", false
	}
	if IsDataURL(r.Data) || IsHTTPURL(r.Data) {
		return r.Data, true
	}
	return DataURL(r.Data, ""), true
}

// ResolveRefs normalizes a mixed descriptor list into URL strings,
// de-duplicating while preserving order. Empty entries are skipped.
func ResolveRefs(refs []ImageRef) []string {
	var urls []string
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		url, ok := ref.URL()
		if !ok {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		urls = append(urls, url)
	}
	return urls
}

// IsDataURL reports whether s is a base64 data URL.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:") && strings.Contains(s, ";base64,")
}

// IsHTTPURL reports whether s is an http(s) URL.
func IsHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// DataURL wraps raw base64 image bytes into a data URL. An empty mime
// defaults to image/png.
func DataURL(rawBase64, mime string) string {
	if mime == "" {
		mime = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, rawBase64)
}

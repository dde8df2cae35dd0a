package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// rawMessage is a partially-decoded chat message. Fields we do not rewrite
// stay as raw JSON so they survive the round trip untouched.
type rawMessage map[string]json.RawMessage

// Translate rewrites a legacy chat-completion request body into the standard
// multimodal shape:
//
//   - per-message "images" lists become image_url content parts on that
//     message, after its text
//   - a top-level "images"/"allImages" list is attached to the last user
//     message only, or to a new user message when the conversation has none
//   - raw base64 entries become PNG data URLs, URLs pass through, duplicates
//     are removed preserving order
//   - messages left with neither text nor images are dropped
//
// Bodies already in the standard shape are returned unchanged, byte for byte.
// The returned bool reports whether a rewrite happened. Entries that cannot be
// understood are forwarded as-is rather than rejected.
func Translate(body []byte) ([]byte, bool, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, false, fmt.Errorf("parse request body: %w", err)
	}

	globalRefs, globalParsed := topLevelRefs(top)

	var rawMessages []json.RawMessage
	if raw, ok := top["messages"]; ok {
		if err := json.Unmarshal(raw, &rawMessages); err != nil {
			// Not a message list we understand; forward untouched.
			return body, false, nil
		}
	}

	legacy := globalParsed || hasKey(top, "images") || hasKey(top, "allImages")

	// A nil entry marks a message we could not decode; it is forwarded
	// verbatim.
	messages := make([]rawMessage, len(rawMessages))
	for i, rm := range rawMessages {
		var m rawMessage
		if err := json.Unmarshal(rm, &m); err != nil {
			continue
		}
		messages[i] = m
		if _, ok := m["images"]; ok {
			legacy = true
		}
	}

	if !legacy {
		return body, false, nil
	}

	globalTarget := lastUserIndex(messages)

	out := make([]json.RawMessage, 0, len(messages)+1)
	for i, m := range messages {
		if m == nil {
			out = append(out, rawMessages[i])
			continue
		}

		urls := messageRefs(m)
		if i == globalTarget {
			urls = append(urls, globalRefs...)
		}

		rewritten, keep := rewriteMessage(m, urls)
		if !keep {
			continue
		}
		out = append(out, rewritten)
	}

	// Conversation-wide images with no user message to carry them: append a
	// user message holding only the images.
	if globalTarget < 0 && len(globalRefs) > 0 {
		msg, err := json.Marshal(map[string]any{
			"role":    RoleUser,
			"content": imageParts(globalRefs),
		})
		if err != nil {
			return nil, false, fmt.Errorf("marshal image message: %w", err)
		}
		out = append(out, msg)
	}

	msgs, err := json.Marshal(out)
	if err != nil {
		return nil, false, fmt.Errorf("marshal messages: %w", err)
	}
	top["messages"] = msgs
	if globalParsed {
		delete(top, "images")
		delete(top, "allImages")
	}

	rewritten, err := json.Marshal(top)
	if err != nil {
		return nil, false, fmt.Errorf("marshal request body: %w", err)
	}
	return rewritten, true, nil
}

// topLevelRefs extracts the conversation-wide image list from "images" or
// "allImages". The second return reports whether a list was present and
// decodable; an unparseable list stays in the body untouched.
func topLevelRefs(top map[string]json.RawMessage) ([]string, bool) {
	for _, key := range []string{"images", "allImages"} {
		raw, ok := top[key]
		if !ok {
			continue
		}
		var refs []ImageRef
		if err := json.Unmarshal(raw, &refs); err != nil {
			return nil, false
		}
		if urls := ResolveRefs(refs); len(urls) > 0 {
			return urls, true
		}
	}
	_, hasImages := top["images"]
	_, hasAll := top["allImages"]
	return nil, hasImages || hasAll
}

// messageRefs extracts and strips the per-message "images" list. An
// unparseable list is left in place.
func messageRefs(m rawMessage) []string {
	raw, ok := m["images"]
	if !ok {
		return nil
	}
	var refs []ImageRef
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil
	}
	delete(m, "images")
	return ResolveRefs(refs)
}

// rewriteMessage attaches image parts to a message and reports whether the
// message should be kept. Messages with neither text nor images are dropped.
func rewriteMessage(m rawMessage, urls []string) (json.RawMessage, bool) {
	contentRaw, hasContent := m["content"]

	// Content already in parts form: append image parts to the existing list.
	if hasContent && isJSONArray(contentRaw) {
		var parts []json.RawMessage
		if err := json.Unmarshal(contentRaw, &parts); err == nil {
			for _, url := range urls {
				part, err := json.Marshal(ImagePart(url))
				if err != nil {
					continue
				}
				parts = append(parts, part)
			}
			return marshalWithContent(m, parts)
		}
	}

	var text string
	textOK := false
	if hasContent {
		textOK = json.Unmarshal(contentRaw, &text) == nil
	}

	if len(urls) == 0 {
		if textOK && text != "" {
			// Plain text message, nothing to attach.
			raw, err := json.Marshal(m)
			return raw, err == nil
		}
		if hasContent && !textOK {
			// Content of an unknown shape with no images to add; forward it.
			raw, err := json.Marshal(m)
			return raw, err == nil
		}
		return nil, false
	}

	var parts []ContentPart
	if textOK && text != "" {
		parts = append(parts, TextPart(text))
	}
	for _, url := range urls {
		parts = append(parts, ImagePart(url))
	}
	return marshalWithContent(m, parts)
}

func marshalWithContent(m rawMessage, parts any) (json.RawMessage, bool) {
	content, err := json.Marshal(parts)
	if err != nil {
		return nil, false
	}
	m["content"] = content
	raw, err := json.Marshal(m)
	return raw, err == nil
}

// lastUserIndex returns the index of the final user-role message, or -1.
func lastUserIndex(messages []rawMessage) int {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i] == nil {
			continue
		}
		var role string
		if err := json.Unmarshal(messages[i]["role"], &role); err == nil && role == RoleUser {
			return i
		}
	}
	return -1
}

func imageParts(urls []string) []ContentPart {
	parts := make([]ContentPart, 0, len(urls))
	for _, url := range urls {
		parts = append(parts, ImagePart(url))
	}
	return parts
}

func hasKey(m map[string]json.RawMessage, key string) bool {
	_, ok := m[key]
	return ok
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}

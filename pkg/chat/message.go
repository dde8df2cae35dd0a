// Package chat provides internal representations of chat-completion API
// payloads and the rewrite from the legacy image-bearing shape into standard
// multimodal content parts.
package chat

// Roles recognized in a conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ContentPart is one element of a multimodal message body: either a text
// segment or an image reference.
type ContentPart struct {
	Type     string    `json:"type"`                // "text" or "image_url"
	Text     string    `json:"text,omitempty"`      // Set when Type is "text"
	ImageURL *ImageURL `json:"image_url,omitempty"` // Set when Type is "image_url"
}

// ImageURL carries an image reference inside a content part. The URL is
// either an http(s) URL or a data URL.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"` // Optional resolution hint
}

// TextPart builds a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// ImagePart builds an image_url content part.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: url}}
}

package schema

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// PartType identifies the kind of a content part.
type PartType string

const (
	PartText     PartType = "text"
	PartImageURL PartType = "image_url"
)

// ContentPart is one element of multi-part message content.
type ContentPart struct {
	Type     PartType  `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL references an image by URL or data URL.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// TextPart creates a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: PartText, Text: text}
}

// ImageURLPart creates an image content part referencing url.
func ImageURLPart(url string) ContentPart {
	return ContentPart{Type: PartImageURL, ImageURL: &ImageURL{URL: url}}
}

// ImageDataPart creates an image content part carrying the raw image bytes
// inline as a base64 data URL.
func ImageDataPart(mimeType string, data []byte) ContentPart {
	url := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
	return ImageURLPart(url)
}

// Content is message content: either plain text or an ordered list of parts.
// The zero value is empty content.
type Content struct {
	text  string
	parts []ContentPart
}

// Text creates plain text content.
func Text(s string) Content {
	return Content{text: s}
}

// Parts creates multi-part content.
func Parts(parts ...ContentPart) Content {
	return Content{parts: slices.Clone(parts)}
}

// IsEmpty reports whether the content carries neither text nor parts.
func (c Content) IsEmpty() bool {
	return c.text == "" && len(c.parts) == 0
}

// IsMultipart reports whether the content is a list of parts.
func (c Content) IsMultipart() bool {
	return len(c.parts) > 0
}

// Parts returns a copy of the content parts, or nil for plain text content.
func (c Content) Parts() []ContentPart {
	return slices.Clone(c.parts)
}

// String returns the plain text, or the concatenated text parts of
// multi-part content.
func (c Content) String() string {
	if len(c.parts) == 0 {
		return c.text
	}
	var b strings.Builder
	for _, p := range c.parts {
		if p.Type == PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// Append returns content with p appended. Plain text content is converted to
// parts, keeping the existing text as the first part.
func (c Content) Append(p ContentPart) Content {
	parts := slices.Clone(c.parts)
	if len(parts) == 0 && c.text != "" {
		parts = append(parts, TextPart(c.text))
	}
	return Content{parts: append(parts, p)}
}

// MarshalJSON encodes plain text as a JSON string and parts as an array.
func (c Content) MarshalJSON() ([]byte, error) {
	if len(c.parts) > 0 {
		return json.Marshal(c.parts)
	}
	return json.Marshal(c.text)
}

// UnmarshalJSON accepts null, a string or an array of parts.
func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = Content{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Content{text: s}
		return nil
	case len(data) > 0 && data[0] == '[':
		var parts []ContentPart
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*c = Content{parts: parts}
		return nil
	}
	return fmt.Errorf("content must be a string, an array or null")
}

// Package comment defines the parsed chat events that connectors produce
// and the users those events refer to.
package comment

import "strings"

// Part is one rendered segment of a name or message.
type Part interface {
	part()
}

// Text is a plain text segment.
type Text struct {
	Value string `json:"value"`
}

// Image is an inline image segment such as an emote or an avatar.
type Image struct {
	URL    string `json:"url"`
	Alt    string `json:"alt,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

func (Text) part()  {}
func (Image) part() {}

// TextParts wraps s in a single text segment. An empty string yields no parts.
func TextParts(s string) []Part {
	if s == "" {
		return nil
	}
	return []Part{Text{Value: s}}
}

// PlainText flattens parts into a string, using the alt text for images.
func PlainText(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		switch v := p.(type) {
		case Text:
			b.WriteString(v.Value)
		case Image:
			b.WriteString(v.Alt)
		}
	}
	return b.String()
}

package messages

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var jsonNull = []byte(`null`)

// Content represents either a simple text payload or a collection of typed
// parts. It serializes as a bare JSON string when Text is set and as an
// array of parts otherwise, matching the shape most provider APIs use.
type Content struct {
	Text  string   // plain text content, used when the message is just text
	Parts []Part   // multi-part content (text, image)
	_     struct{} // require keyed usage
}

// MarshalJSON returns Text as a JSON string when non-empty, otherwise the
// Parts array, otherwise null.
func (c Content) MarshalJSON() ([]byte, error) {
	if strings.TrimSpace(c.Text) != "" {
		return json.Marshal(c.Text)
	}
	if c.Parts == nil {
		return jsonNull, nil
	}
	return json.Marshal(c.Parts)
}

// UnmarshalJSON handles both string content and arrays of typed parts.
func (c *Content) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json: %s", input)
	}
	jv := gjson.ParseBytes(input)
	if jv.IsArray() {
		aj := jv.Array()
		parts := make([]Part, len(aj))
		for idx, ajv := range aj {
			tpe := ajv.Get("type").String()
			switch tpe {
			case "text":
				var part TextPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid text part at %d: %w", idx, err)
				}
				parts[idx] = part
			case "image":
				var part ImagePart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid image part at %d: %w", idx, err)
				}
				parts[idx] = part
			default:
				return fmt.Errorf("content part at %d has an unknown type %q", idx, tpe)
			}
		}
		c.Parts = parts
		return nil
	}
	c.Text = jv.String()
	return nil
}

// String flattens the content to plain text, joining text parts with
// newlines. Non-text parts are skipped.
func (c Content) String() string {
	if c.Text != "" {
		return c.Text
	}
	var texts []string
	for _, part := range c.Parts {
		if tp, ok := part.(TextPart); ok {
			texts = append(texts, tp.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// Part marks structs as valid content parts.
type Part interface {
	contentPart()
}

// Text creates a TextPart.
func Text(text string) TextPart {
	return TextPart{Text: text}
}

// TextPart is a text-only content part.
type TextPart struct {
	Text string   `json:"text"`
	_    struct{} // require keyed usage
}

func (TextPart) contentPart() {}

var textPartJSON = []byte(`{"type":"text"}`)

// MarshalJSON serializes the text with a "type":"text" discriminator.
func (t TextPart) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes(textPartJSON, "text", t.Text)
}

// UnmarshalJSON extracts the required "text" field.
func (t *TextPart) UnmarshalJSON(input []byte) error {
	text := gjson.GetBytes(input, "text")
	if !text.Exists() {
		return errors.New("missing required field 'text'")
	}
	t.Text = text.String()
	return nil
}

// Image creates an ImagePart for the given URL.
func Image(url string) ImagePart {
	return ImagePart{URL: url}
}

// ImagePart is an image content part referenced by URL or data URI.
type ImagePart struct {
	URL string   `json:"image_url"`
	_   struct{} // require keyed usage
}

func (ImagePart) contentPart() {}

var imagePartJSON = []byte(`{"type":"image"}`)

// MarshalJSON serializes the URL with a "type":"image" discriminator.
func (i ImagePart) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes(imagePartJSON, "image_url", i.URL)
}

// UnmarshalJSON extracts the required "image_url" field.
func (i *ImagePart) UnmarshalJSON(input []byte) error {
	uri := gjson.GetBytes(input, "image_url")
	if !uri.Exists() {
		return errors.New("missing required field 'image_url'")
	}
	i.URL = uri.String()
	return nil
}

package extractor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned by Decode when the body is not valid
// JSON or not a JSON object. Unexpected shapes below the top level decode
// as empty values instead.
var ErrMalformedResponse = errors.New("malformed response")

const typeImageURL = "image_url"

// Response is the subset of a chat-completion response that can carry an
// image. Everything else in the body is ignored.
type Response struct {
	Choices []Choice `json:"choices"`
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var raw struct {
		Choices json.RawMessage `json:"choices"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Response{Choices: decodeEntries[Choice](raw.Choices)}
	return nil
}

type Choice struct {
	Message Message `json:"message"`
}

func (c *Choice) UnmarshalJSON(data []byte) error {
	var raw struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Choice{}
	if !isObject(raw.Message) {
		return nil
	}
	return json.Unmarshal(raw.Message, &c.Message)
}

type Message struct {
	Images  []Part  `json:"images"`
	Content Content `json:"content"`
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Images  json.RawMessage `json:"images"`
		Content Content         `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Message{
		Images:  decodeEntries[Part](raw.Images),
		Content: raw.Content,
	}
	return nil
}

// Part is one typed entry of message.images or of a list-shaped
// message.content.
type Part struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// namesURL reports whether p is an image_url entry with a url field,
// which may be empty.
func (p Part) namesURL() bool {
	return p.Type == typeImageURL && p.ImageURL != nil && p.ImageURL.present
}

func (p Part) dataURL() (string, bool) {
	if !p.namesURL() || p.ImageURL.URL == "" {
		return "", false
	}
	return p.ImageURL.URL, true
}

// ImageURL accepts both {"url": "..."} and a bare string.
type ImageURL struct {
	URL string `json:"url"`

	present bool
}

func (u *ImageURL) UnmarshalJSON(data []byte) error {
	*u = ImageURL{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		if err := json.Unmarshal(data, &u.URL); err != nil {
			return err
		}
		u.present = true
		return nil
	}
	if !isObject(data) {
		return nil
	}

	var obj struct {
		URL json.RawMessage `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if len(obj.URL) == 0 || obj.URL[0] != '"' {
		return nil
	}
	if err := json.Unmarshal(obj.URL, &u.URL); err != nil {
		return err
	}
	u.present = true
	return nil
}

// Content is message.content: either a plain string or a list of parts.
// Exactly one of Text and Parts is set after decoding; any other JSON shape
// leaves both empty.
type Content struct {
	Text  *string
	Parts []Part
}

func (c Content) IsText() bool { return c.Text != nil }

func (c Content) IsParts() bool { return c.Parts != nil }

func (c *Content) UnmarshalJSON(data []byte) error {
	*c = Content{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		c.Text = &text
	case '[':
		c.Parts = decodeEntries[Part](data)
	}
	return nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	switch {
	case c.Text != nil:
		return json.Marshal(*c.Text)
	case c.Parts != nil:
		return json.Marshal(c.Parts)
	default:
		return []byte("null"), nil
	}
}

// Decode parses a raw response body.
func Decode(raw []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return resp, nil
}

// decodeEntries decodes a JSON array one entry at a time. Entries that are
// not objects, or do not decode, stay in place as zero values so positions
// are kept. Anything other than an array yields nil.
func decodeEntries[T any](data []byte) []T {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	out := make([]T, len(raw))
	for i, item := range raw {
		if !isObject(item) {
			continue
		}
		var v T
		if err := json.Unmarshal(item, &v); err == nil {
			out[i] = v
		}
	}
	return out
}

func isObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

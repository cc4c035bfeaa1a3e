package extractor

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotDataURL = errors.New("not a base64 data url")
	ErrDecode     = errors.New("decode image payload")
)

// Format is the file extension an image is saved with.
type Format string

const (
	FormatPNG Format = "png"
	FormatJPG Format = "jpg"
)

const (
	dataURLPrefix    = "data:"
	dataURLSeparator = ";base64,"
	filenamePrefix   = "generated_image_"
	filenameMaxRunes = 30
)

// DataURL is a parsed data:<mime>;base64,<payload> string.
type DataURL struct {
	MimeType string
	Payload  string
}

func (d DataURL) Format() Format {
	return FormatForMime(d.MimeType)
}

// FormatForMime maps image/jpeg to jpg and anything else to png.
func FormatForMime(mimeType string) Format {
	if strings.EqualFold(strings.TrimSpace(mimeType), "image/jpeg") {
		return FormatJPG
	}
	return FormatPNG
}

// ParseDataURL splits value into mime type and payload. It reports false
// when value lacks the data: prefix or the ;base64, separator.
func ParseDataURL(value string) (DataURL, bool) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, dataURLPrefix) {
		return DataURL{}, false
	}

	header, payload, ok := strings.Cut(value, dataURLSeparator)
	if !ok {
		return DataURL{}, false
	}

	return DataURL{
		MimeType: strings.TrimPrefix(header, dataURLPrefix),
		Payload:  payload,
	}, true
}

// DecodeImage turns a located image reference into bytes and a format.
// A reference that is not a data URL is decoded as raw base64 PNG unless
// strict is set, in which case ErrNotDataURL is returned.
func DecodeImage(ref string, strict bool) ([]byte, Format, error) {
	payload, format := ref, FormatPNG
	if d, ok := ParseDataURL(ref); ok {
		payload, format = d.Payload, d.Format()
	} else if strict {
		return nil, "", ErrNotDataURL
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, "", err
	}
	return data, format, nil
}

func decodeBase64(payload string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t', ' ':
			return -1
		}
		return r
	}, payload)

	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err == nil {
		return data, nil
	}

	// Some providers drop the trailing padding.
	data, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(cleaned, "="))
	if rawErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return data, nil
}

// Filename derives the output file name from the first 30 characters of
// prompt, with spaces and slashes replaced by underscores.
func Filename(prompt string, format Format) string {
	runes := []rune(prompt)
	if len(runes) > filenameMaxRunes {
		runes = runes[:filenameMaxRunes]
	}

	name := strings.NewReplacer(" ", "_", "/", "_").Replace(string(runes))
	return filenamePrefix + name + "." + string(format)
}

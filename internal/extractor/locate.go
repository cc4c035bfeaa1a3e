package extractor

import "strings"

// Strategy names the place in the response an image was found.
type Strategy string

const (
	StrategyImages       Strategy = "message.images"
	StrategyContentParts Strategy = "message.content[]"
	StrategyContentText  Strategy = "message.content"
)

const dataImageMarker = "data:image"

// Match is a located image reference, usually a data URL.
type Match struct {
	DataURL  string
	Strategy Strategy
}

type locator struct {
	strategy Strategy
	find     func(Message) (string, bool)
}

// locators run in priority order; the first hit ends the search.
var locators = []locator{
	{strategy: StrategyImages, find: findInImages},
	{strategy: StrategyContentParts, find: findInContentParts},
	{strategy: StrategyContentText, find: findInContentText},
}

// Locate finds the image reference in the first choice of resp.
func Locate(resp Response) (Match, bool) {
	if len(resp.Choices) == 0 {
		return Match{}, false
	}

	msg := resp.Choices[0].Message
	for _, l := range locators {
		if url, ok := l.find(msg); ok {
			return Match{DataURL: url, Strategy: l.strategy}, true
		}
	}
	return Match{}, false
}

// Only the first entry of message.images is considered. Once it is an
// image_url entry with a url field the search stops there, even when the
// url is empty.
func findInImages(msg Message) (string, bool) {
	if len(msg.Images) == 0 || !msg.Images[0].namesURL() {
		return "", false
	}
	return msg.Images[0].ImageURL.URL, true
}

func findInContentParts(msg Message) (string, bool) {
	if !msg.Content.IsParts() {
		return "", false
	}
	for _, p := range msg.Content.Parts {
		if url, ok := p.dataURL(); ok {
			return url, true
		}
	}
	return "", false
}

func findInContentText(msg Message) (string, bool) {
	if !msg.Content.IsText() {
		return "", false
	}
	return scanDataURL(*msg.Content.Text)
}

// scanDataURL returns the substring starting at "data:image" and ending
// before the next double quote, or at the end of text.
func scanDataURL(text string) (string, bool) {
	start := strings.Index(text, dataImageMarker)
	if start < 0 {
		return "", false
	}

	rest := text[start:]
	if end := strings.IndexByte(rest, '"'); end >= 0 {
		rest = rest[:end]
	}
	return rest, true
}

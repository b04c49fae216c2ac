package normalize

import (
	"encoding/json"
	"strings"

	"github.com/alnah/go-contentflow/internal/content"
	"github.com/alnah/go-contentflow/internal/platform"
)

// decoder recognizes one payload shape. ok=false passes to the next decoder.
type decoder func(obj map[string]json.RawMessage, p platform.Platform) (rec content.FormatRecord, ok bool)

// decoders is the order-sensitive chain tried on every parsed reply.
var decoders = []decoder{
	decodeEmail,
	decodeQuotes,
	decodeContent,
}

// decodeEmail accepts a newsletter payload with a subject line.
func decodeEmail(obj map[string]json.RawMessage, p platform.Platform) (content.FormatRecord, bool) {
	if p.Shape() != platform.ShapeEmail {
		return content.FormatRecord{}, false
	}
	subject := stringField(obj, "subject")
	if subject == "" {
		return content.FormatRecord{}, false
	}

	email := content.Email{
		Subject:      subject,
		Greeting:     stringField(obj, "greeting"),
		Intro:        stringField(obj, "intro"),
		Body:         stringField(obj, "body"),
		CallToAction: stringField(obj, "callToAction"),
		Signature:    stringField(obj, "signature"),
		PreviewText:  stringField(obj, "previewText"),
	}
	display := email.Display()

	return content.FormatRecord{
		Platform:       p,
		Content:        content.Text(display),
		CharacterCount: content.Total(content.Len(display)),
		Hashtags:       hashtags(obj),
		Metadata:       &content.Metadata{Email: &email},
	}, true
}

// decodeQuotes accepts an array of quotes for the quotes platform.
func decodeQuotes(obj map[string]json.RawMessage, p platform.Platform) (content.FormatRecord, bool) {
	if p.Shape() != platform.ShapeQuotes {
		return content.FormatRecord{}, false
	}
	items, ok := stringsField(obj, "content")
	if !ok {
		return content.FormatRecord{}, false
	}

	quotes := make([]content.Quote, len(items))
	lengths := make([]int, len(items))
	for i, s := range items {
		quotes[i] = content.NewQuote(s)
		lengths[i] = quotes[i].Length
	}

	return content.FormatRecord{
		Platform:       p,
		Content:        content.Quotes(quotes),
		CharacterCount: content.PerItem(lengths),
		Hashtags:       hashtags(obj),
		Metadata:       metadata(obj),
	}, true
}

// decodeContent accepts "content" as a string or an array of strings.
// Threads join posts with a blank line and report the longest post;
// other platforms join with a newline and report the total.
func decodeContent(obj map[string]json.RawMessage, p platform.Platform) (content.FormatRecord, bool) {
	rec := content.FormatRecord{
		Platform: p,
		Hashtags: hashtags(obj),
		Metadata: metadata(obj),
	}

	if s, ok := stringValue(obj["content"]); ok {
		rec.Content = content.Text(s)
		rec.CharacterCount = content.Total(content.Len(s))
		return rec, true
	}

	items, ok := stringsField(obj, "content")
	if !ok {
		return content.FormatRecord{}, false
	}

	if p.Shape() == platform.ShapeThread {
		longest := 0
		for _, post := range items {
			longest = max(longest, content.Len(post))
		}
		rec.Content = content.Text(strings.Join(items, "\n\n"))
		rec.CharacterCount = content.Total(longest)
		return rec, true
	}

	joined := strings.Join(items, "\n")
	rec.Content = content.Text(joined)
	rec.CharacterCount = content.Total(content.Len(joined))
	return rec, true
}

// ---------------------------------------------------------------------------
// Field helpers
// ---------------------------------------------------------------------------

func stringValue(raw json.RawMessage) (string, bool) {
	if raw == nil {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func stringField(obj map[string]json.RawMessage, key string) string {
	s, _ := stringValue(obj[key])
	return s
}

func stringsField(obj map[string]json.RawMessage, key string) ([]string, bool) {
	raw, ok := obj[key]
	if !ok {
		return nil, false
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, false
	}
	return items, true
}

// hashtags passes "hashtags" through when it is an array of strings.
func hashtags(obj map[string]json.RawMessage) []string {
	if tags, ok := stringsField(obj, "hashtags"); ok {
		return tags
	}
	return []string{}
}

// metadata passes an object-valued "metadata" through verbatim.
func metadata(obj map[string]json.RawMessage) *content.Metadata {
	var fields map[string]json.RawMessage
	if raw, ok := obj["metadata"]; ok {
		if err := json.Unmarshal(raw, &fields); err != nil {
			fields = nil
		}
	}
	if len(fields) == 0 {
		return &content.Metadata{}
	}
	return &content.Metadata{Fields: fields}
}

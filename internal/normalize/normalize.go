// Package normalize turns raw model replies into FormatRecords.
//
// Normalization never fails: a reply that is not the requested JSON, or is
// not JSON at all, still produces a record holding the raw text. Records
// carry no ID or timestamp, so normalizing the same reply twice yields
// identical records.
package normalize

import (
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-contentflow/internal/content"
	"github.com/alnah/go-contentflow/internal/platform"
)

// Normalizer converts replies into records. The zero value is not usable;
// call New. A Normalizer is safe for concurrent use.
type Normalizer struct {
	log             *zap.Logger
	extractHashtags bool
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger that receives parse anomalies.
func WithLogger(l *zap.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.log = l
		}
	}
}

// WithHashtagExtraction fills hashtags from #tags in the text when the
// reply does not list any.
func WithHashtagExtraction(enabled bool) Option {
	return func(n *Normalizer) {
		n.extractHashtags = enabled
	}
}

// New creates a Normalizer. Anomalies are discarded unless WithLogger is given.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{log: zap.NewNop()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts raw into a record for p using a silent Normalizer.
func Normalize(raw string, p platform.Platform) content.FormatRecord {
	return defaultNormalizer.Normalize(raw, p)
}

var defaultNormalizer = New()

// Normalize converts raw into a record for p.
//
// The JSON candidate is the text between the first '{' and the last '}'.
// Decoders are tried in order (email, quotes, generic content); when the
// candidate is missing or does not parse, the raw text becomes the content.
func (n *Normalizer) Normalize(raw string, p platform.Platform) content.FormatRecord {
	obj, ok := n.candidate(raw, p)
	if !ok {
		return n.finish(plain(raw, p))
	}

	for _, decode := range decoders {
		if rec, ok := decode(obj, p); ok {
			return n.finish(rec)
		}
	}

	// Valid JSON without usable content: keep the reply verbatim but
	// still honor hashtags and metadata.
	rec := plain(raw, p)
	rec.Hashtags = hashtags(obj)
	rec.Metadata = metadata(obj)
	n.log.Info("reply has no usable content field",
		zap.String("platform", p.String()))
	return n.finish(rec)
}

// candidate extracts and parses the JSON object embedded in raw.
func (n *Normalizer) candidate(raw string, p platform.Platform) (map[string]json.RawMessage, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		n.log.Info("reply contains no JSON object",
			zap.String("platform", p.String()),
			zap.Int("length", len(raw)))
		return nil, false
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw[start:end+1]), &obj); err != nil {
		n.log.Warn("reply JSON does not parse",
			zap.String("platform", p.String()),
			zap.Int("length", len(raw)),
			zap.Error(err))
		return nil, false
	}
	if obj == nil {
		return nil, false
	}
	return obj, true
}

// finish applies the options and the soft-limit flag shared by every path.
func (n *Normalizer) finish(rec content.FormatRecord) content.FormatRecord {
	if n.extractHashtags && len(rec.Hashtags) == 0 {
		rec.Hashtags = ExtractHashtags(rec.Content.String())
	}
	if !rec.Platform.IsZero() {
		rec.OverLimit = !rec.Platform.WithinLimit(rec.CharacterCount.Max())
	}
	return rec
}

// plain is the fallback record: raw text, no metadata.
func plain(raw string, p platform.Platform) content.FormatRecord {
	return content.FormatRecord{
		Platform:       p,
		Content:        content.Text(raw),
		CharacterCount: content.Total(content.Len(raw)),
		Hashtags:       []string{},
	}
}

var hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

// ExtractHashtags returns the #tags found in text, in order of appearance,
// without duplicates.
func ExtractHashtags(text string) []string {
	found := hashtagPattern.FindAllString(text, -1)
	out := make([]string, 0, len(found))
	seen := make(map[string]bool, len(found))
	for _, tag := range found {
		if !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}

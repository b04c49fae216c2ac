package content_test

import (
	"encoding/json"
	"testing"

	"github.com/alnah/go-contentflow/internal/content"
	"github.com/alnah/go-contentflow/internal/platform"
)

func TestLen_CountsRunes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"hello", 5},
		{"café", 4},
		{"日本語", 3},
		{"A short quote.", 14},
	}
	for _, tt := range tests {
		if got := content.Len(tt.in); got != tt.want {
			t.Errorf("Len(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Wire shapes
// ---------------------------------------------------------------------------

func TestFormatRecord_JSONShapes(t *testing.T) {
	t.Parallel()

	t.Run("text record", func(t *testing.T) {
		t.Parallel()

		rec := content.FormatRecord{
			ID:             "r1",
			Platform:       platform.LinkedIn,
			Content:        content.Text("Hello"),
			CharacterCount: content.Total(5),
			Hashtags:       []string{"#go"},
		}
		got, err := json.Marshal(rec)
		if err != nil {
			t.Fatalf("Marshal() error: %v", err)
		}
		want := `{"id":"r1","platform":"linkedin","content":"Hello","characterCount":5,"hashtags":["#go"],"isEdited":false}`
		if string(got) != want {
			t.Errorf("Marshal() =\n%s\nwant\n%s", got, want)
		}
	})

	t.Run("quotes record", func(t *testing.T) {
		t.Parallel()

		rec := content.FormatRecord{
			Platform:       platform.Quotes,
			Content:        content.Quotes([]content.Quote{content.NewQuote("Be bold.")}),
			CharacterCount: content.PerItem([]int{8}),
			Hashtags:       []string{},
		}
		got, err := json.Marshal(rec)
		if err != nil {
			t.Fatalf("Marshal() error: %v", err)
		}
		want := `{"id":"","platform":"quotes","content":[{"quote":"Be bold.","length":8}],"characterCount":[8],"hashtags":[],"isEdited":false}`
		if string(got) != want {
			t.Errorf("Marshal() =\n%s\nwant\n%s", got, want)
		}
	})

	t.Run("email metadata nests under email", func(t *testing.T) {
		t.Parallel()

		md := content.Metadata{
			Email:  &content.Email{Subject: "Hi"},
			Fields: map[string]json.RawMessage{"segment": json.RawMessage(`"vip"`)},
		}
		got, err := json.Marshal(md)
		if err != nil {
			t.Fatalf("Marshal() error: %v", err)
		}
		var back content.Metadata
		if err := json.Unmarshal(got, &back); err != nil {
			t.Fatalf("Unmarshal() error: %v", err)
		}
		if back.Email == nil || back.Email.Subject != "Hi" {
			t.Errorf("Email = %+v, want subject Hi", back.Email)
		}
		if string(back.Fields["segment"]) != `"vip"` {
			t.Errorf("Fields[segment] = %s, want \"vip\"", back.Fields["segment"])
		}
	})
}

func TestBody_Decode(t *testing.T) {
	t.Parallel()

	var text content.Body
	if err := json.Unmarshal([]byte(`"plain"`), &text); err != nil {
		t.Fatalf("Unmarshal(text) error: %v", err)
	}
	if text.IsQuotes() || text.String() != "plain" {
		t.Errorf("text body = %q (quotes=%v)", text.String(), text.IsQuotes())
	}

	var quotes content.Body
	if err := json.Unmarshal([]byte(`[{"quote":"a","length":1},{"quote":"bc","length":2}]`), &quotes); err != nil {
		t.Fatalf("Unmarshal(quotes) error: %v", err)
	}
	if !quotes.IsQuotes() || len(quotes.QuoteList()) != 2 {
		t.Fatalf("quotes body = %+v", quotes.QuoteList())
	}
	if quotes.String() != "a\nbc" {
		t.Errorf("String() = %q, want %q", quotes.String(), "a\nbc")
	}

	if err := json.Unmarshal([]byte(`42`), &text); err == nil {
		t.Error("Unmarshal(42) expected error")
	}
}

func TestCount(t *testing.T) {
	t.Parallel()

	if got := content.Total(12).Max(); got != 12 {
		t.Errorf("Total(12).Max() = %d", got)
	}
	if got := content.PerItem([]int{3, 9, 4}).Max(); got != 9 {
		t.Errorf("PerItem.Max() = %d, want 9", got)
	}
	if content.Total(1).Items() != nil {
		t.Error("Total.Items() should be nil")
	}

	var c content.Count
	if err := json.Unmarshal([]byte(`[1,2]`), &c); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if len(c.Items()) != 2 {
		t.Errorf("Items() = %v, want 2 entries", c.Items())
	}
}

func TestEmail_Display(t *testing.T) {
	t.Parallel()

	e := content.Email{
		Subject:      "ignored",
		Greeting:     "Hello,",
		Intro:        "Intro.",
		Body:         "Body.",
		CallToAction: "Click.",
		Signature:    "Bye",
	}
	want := "Hello,\n\nIntro.\n\nBody.\n\nClick.\n\nBye"
	if got := e.Display(); got != want {
		t.Errorf("Display() = %q, want %q", got, want)
	}
}

func TestBundle_Platforms(t *testing.T) {
	t.Parallel()

	b := content.Bundle{Formats: []content.FormatRecord{
		{Platform: platform.Twitter},
		{Platform: platform.Email},
	}}
	got := b.Platforms()
	if len(got) != 2 || got[0] != platform.Twitter || got[1] != platform.Email {
		t.Errorf("Platforms() = %v", got)
	}
}

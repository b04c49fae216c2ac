package platform_test

// Notes:
// - Black-box tests for the registry and the Platform/Tone value types.
// - Registry limits are asserted because prompts and normalization depend on them.

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-contentflow/internal/platform"
)

// ---------------------------------------------------------------------------
// TestParse
// ---------------------------------------------------------------------------

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    platform.Platform
		wantErr error
	}{
		{"linkedin", platform.LinkedIn, nil},
		{"  Twitter ", platform.Twitter, nil},
		{"QUOTES", platform.Quotes, nil},
		{"", platform.Platform{}, platform.ErrUnknown},
		{"myspace", platform.Platform{}, platform.ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := platform.Parse(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Parse(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseByPath(t *testing.T) {
	t.Parallel()

	if _, err := platform.ParseGeneration("email"); !errors.Is(err, platform.ErrUnsupported) {
		t.Errorf("ParseGeneration(email) error = %v, want ErrUnsupported", err)
	}
	if _, err := platform.ParseRecycling("blog"); !errors.Is(err, platform.ErrUnsupported) {
		t.Errorf("ParseRecycling(blog) error = %v, want ErrUnsupported", err)
	}
	if p, err := platform.ParseGeneration("blog"); err != nil || p != platform.Blog {
		t.Errorf("ParseGeneration(blog) = %v, %v", p, err)
	}
	if p, err := platform.ParseRecycling("quotes"); err != nil || p != platform.Quotes {
		t.Errorf("ParseRecycling(quotes) = %v, %v", p, err)
	}
}

// ---------------------------------------------------------------------------
// TestRegistry - listings and limits
// ---------------------------------------------------------------------------

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("generatable platforms", func(t *testing.T) {
		t.Parallel()

		want := []platform.Platform{platform.LinkedIn, platform.Twitter, platform.Instagram, platform.Facebook, platform.Blog}
		if diff := cmp.Diff(names(want), names(platform.Generatable())); diff != "" {
			t.Errorf("Generatable() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("recyclable platforms", func(t *testing.T) {
		t.Parallel()

		want := []platform.Platform{platform.LinkedIn, platform.Twitter, platform.Instagram, platform.Facebook, platform.Email, platform.Quotes}
		if diff := cmp.Diff(names(want), names(platform.Recyclable())); diff != "" {
			t.Errorf("Recyclable() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("limits", func(t *testing.T) {
		t.Parallel()

		limits := map[platform.Platform]int{
			platform.LinkedIn:  3000,
			platform.Twitter:   280,
			platform.Instagram: 2200,
			platform.Facebook:  500,
			platform.Blog:      1500,
			platform.Email:     10000,
			platform.Quotes:    150,
		}
		for p, want := range limits {
			if got := p.Constraints().MaxCharacters; got != want {
				t.Errorf("%s MaxCharacters = %d, want %d", p, got, want)
			}
		}
	})

	t.Run("shapes", func(t *testing.T) {
		t.Parallel()

		if platform.Twitter.Shape() != platform.ShapeThread {
			t.Errorf("twitter shape = %v", platform.Twitter.Shape())
		}
		if platform.Email.Shape() != platform.ShapeEmail {
			t.Errorf("email shape = %v", platform.Email.Shape())
		}
		if platform.Quotes.Shape() != platform.ShapeQuotes {
			t.Errorf("quotes shape = %v", platform.Quotes.Shape())
		}
		if platform.LinkedIn.Shape() != platform.ShapeText {
			t.Errorf("linkedin shape = %v", platform.LinkedIn.Shape())
		}
	})

	t.Run("WithinLimit", func(t *testing.T) {
		t.Parallel()

		if !platform.Twitter.WithinLimit(280) {
			t.Error("280 should fit twitter")
		}
		if platform.Twitter.WithinLimit(281) {
			t.Error("281 should not fit twitter")
		}
	})
}

func TestPlatformJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(map[string]platform.Platform{"p": platform.Instagram})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"p":"instagram"}` {
		t.Errorf("Marshal = %s", data)
	}

	var got struct{ P platform.Platform }
	if err := json.Unmarshal([]byte(`{"P":"nope"}`), &got); !errors.Is(err, platform.ErrUnknown) {
		t.Errorf("Unmarshal unknown error = %v, want ErrUnknown", err)
	}
}

func TestConstraintsZeroValuePanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("expected panic on zero value")
		}
	}()
	_ = platform.Platform{}.Constraints()
}

// ---------------------------------------------------------------------------
// TestParseTone
// ---------------------------------------------------------------------------

func TestParseTone(t *testing.T) {
	t.Parallel()

	for _, name := range platform.ToneNames() {
		if _, err := platform.ParseTone(name); err != nil {
			t.Errorf("ParseTone(%q) unexpected error: %v", name, err)
		}
	}
	if len(platform.ToneNames()) != 8 {
		t.Errorf("ToneNames() has %d entries, want 8", len(platform.ToneNames()))
	}
	if got, err := platform.ParseTone(" Humorous"); err != nil || got != platform.Humorous {
		t.Errorf("ParseTone(Humorous) = %q, %v", got, err)
	}
	if _, err := platform.ParseTone("sarcastic"); !errors.Is(err, platform.ErrUnknownTone) {
		t.Errorf("ParseTone(sarcastic) error = %v, want ErrUnknownTone", err)
	}
}

func names(ps []platform.Platform) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}

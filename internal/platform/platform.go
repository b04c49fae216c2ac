// Package platform is the registry of output formats: per-platform length
// limits, hashtag budgets, voice, and the shape of the payload the model is
// asked to return.
package platform

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for platform lookups.
var (
	// ErrUnknown indicates a platform name that is not registered.
	ErrUnknown = errors.New("unknown platform")

	// ErrUnsupported indicates a registered platform used by a path it does not serve
	// (e.g. recycling into "blog").
	ErrUnsupported = errors.New("platform not supported for this operation")
)

// Shape describes the JSON payload a platform's structured prompt asks for.
type Shape int

const (
	// ShapeText is a single string in "content".
	ShapeText Shape = iota
	// ShapeThread is an array of per-post strings in "content".
	ShapeThread
	// ShapeEmail is the subject/greeting/intro/body/callToAction/signature object.
	ShapeEmail
	// ShapeQuotes is an array of standalone quotes in "content".
	ShapeQuotes
)

// String returns the string representation of the Shape.
func (s Shape) String() string {
	switch s {
	case ShapeText:
		return "text"
	case ShapeThread:
		return "thread"
	case ShapeEmail:
		return "email"
	case ShapeQuotes:
		return "quotes"
	default:
		return fmt.Sprintf("Shape(%d)", s)
	}
}

// Constraints holds everything prompts and normalization need to know about a platform.
type Constraints struct {
	DisplayName   string
	MaxCharacters int
	HashtagLimit  int
	Voice         string
	Format        string
	Description   string
	Shape         Shape

	// GenerationBrief lists the instructions for a fresh single-document generation.
	// Empty when the platform is not offered for generation.
	GenerationBrief []string

	// RecyclingBrief lists the platform-specific instructions used when recycling.
	// Empty when the platform is not a recycling target.
	RecyclingBrief []string
}

// ---------------------------------------------------------------------------
// Platform type - a validated platform name
// ---------------------------------------------------------------------------

// Platform is a validated platform name.
// The zero value is invalid; obtain one from Parse or the package variables.
type Platform struct {
	name string
}

// Registered platforms.
var (
	LinkedIn  = Platform{name: "linkedin"}
	Twitter   = Platform{name: "twitter"}
	Instagram = Platform{name: "instagram"}
	Facebook  = Platform{name: "facebook"}
	Blog      = Platform{name: "blog"}
	Email     = Platform{name: "email"}
	Quotes    = Platform{name: "quotes"}
)

// order is the canonical registry order, used for defaults, help and errors.
var order = []Platform{LinkedIn, Twitter, Instagram, Facebook, Blog, Email, Quotes}

// Parse validates a platform name. Matching is case-insensitive and ignores
// surrounding whitespace.
func Parse(s string) (Platform, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return Platform{}, fmt.Errorf("platform name cannot be empty: %w", ErrUnknown)
	}
	if _, ok := registry[name]; !ok {
		return Platform{}, fmt.Errorf("unknown platform %q (valid: %s): %w",
			s, strings.Join(Names(), ", "), ErrUnknown)
	}
	return Platform{name: name}, nil
}

// ParseGeneration parses a platform name that must support single-document generation.
func ParseGeneration(s string) (Platform, error) {
	p, err := Parse(s)
	if err != nil {
		return Platform{}, err
	}
	if !p.CanGenerate() {
		return Platform{}, fmt.Errorf("%q cannot be generated directly: %w", p, ErrUnsupported)
	}
	return p, nil
}

// ParseRecycling parses a platform name that must be a recycling target.
func ParseRecycling(s string) (Platform, error) {
	p, err := Parse(s)
	if err != nil {
		return Platform{}, err
	}
	if !p.CanRecycle() {
		return Platform{}, fmt.Errorf("%q is not a recycling target: %w", p, ErrUnsupported)
	}
	return p, nil
}

// MustParse parses a platform name, panicking if invalid.
// Use only for constants and tests.
func MustParse(s string) Platform {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the platform name. Empty for the zero value.
func (p Platform) String() string {
	return p.name
}

// IsZero reports whether no platform is set.
func (p Platform) IsZero() bool {
	return p.name == ""
}

// Constraints returns the registry entry. Panics on the zero value.
func (p Platform) Constraints() Constraints {
	c, ok := registry[p.name]
	if !ok {
		panic("platform.Platform.Constraints called on zero value")
	}
	return c
}

// Shape returns the payload shape expected from a structured prompt.
func (p Platform) Shape() Shape {
	return p.Constraints().Shape
}

// CanGenerate reports whether p is offered by the streaming generation path.
func (p Platform) CanGenerate() bool {
	return len(registry[p.name].GenerationBrief) > 0
}

// CanRecycle reports whether p is a recycling target.
func (p Platform) CanRecycle() bool {
	return len(registry[p.name].RecyclingBrief) > 0
}

// WithinLimit reports whether a character count fits the platform's soft maximum.
func (p Platform) WithinLimit(count int) bool {
	return count <= p.Constraints().MaxCharacters
}

// MarshalText implements encoding.TextMarshaler.
func (p Platform) MarshalText() ([]byte, error) {
	return []byte(p.name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Platform) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ---------------------------------------------------------------------------
// Listings
// ---------------------------------------------------------------------------

// All returns every registered platform in canonical order.
func All() []Platform {
	out := make([]Platform, len(order))
	copy(out, order)
	return out
}

// Generatable returns the platforms offered by the generation path.
func Generatable() []Platform {
	return filter(Platform.CanGenerate)
}

// Recyclable returns the recycling targets in canonical order.
func Recyclable() []Platform {
	return filter(Platform.CanRecycle)
}

// Names returns every registered platform name in canonical order.
func Names() []string {
	names := make([]string, len(order))
	for i, p := range order {
		names[i] = p.name
	}
	return names
}

func filter(keep func(Platform) bool) []Platform {
	var out []Platform
	for _, p := range order {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/alnah/go-contentflow/internal/lang"
)

// ErrUnknownKey indicates a key that cannot be read or written by name.
var ErrUnknownKey = errors.New("unknown config key")

// ErrInvalidValue indicates a value rejected by ValidateValue.
var ErrInvalidValue = errors.New("invalid config value")

// keyKind selects how a value is validated before it is written.
type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindList
	kindSecret
)

type keySpec struct {
	name  string
	kind  keyKind
	check func(string) error
}

// keys lists every key addressable by Get, Set and List, in display order.
var keys = []keySpec{
	{"app.env", kindString, oneOf(EnvDevelopment, EnvProduction)},
	{"app.language", kindString, checkLanguage},
	{"server.host", kindString, nil},
	{"server.port", kindInt, checkPort},
	{"server.read_timeout", kindDuration, nil},
	{"server.shutdown_timeout", kindDuration, nil},
	{"server.cors_origins", kindList, nil},
	{"llm.api_key", kindSecret, nil},
	{"llm.base_url", kindString, nil},
	{"llm.model_dev", kindString, nil},
	{"llm.model_prod", kindString, nil},
	{"llm.timeout", kindDuration, nil},
	{"llm.max_retries", kindInt, nil},
	{"cost.store", kindString, oneOf(StoreMemory, StoreFile, StoreRedis)},
	{"cost.file", kindString, nil},
	{"cost.timezone", kindString, checkTimezone},
	{"cost.warning", kindFloat, nil},
	{"cost.danger", kindFloat, nil},
	{"cost.retention", kindDuration, nil},
	{"redis.addr", kindString, nil},
	{"redis.password", kindSecret, nil},
	{"redis.db", kindInt, nil},
	{"redis.key_prefix", kindString, nil},
	{"log.level", kindString, checkLevel},
	{"log.format", kindString, oneOf("json", "console")},
	{"recycle.extract_hashtags", kindBool, nil},
}

// Keys returns the addressable keys in display order.
func Keys() []string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.name
	}
	return names
}

func lookup(key string) (keySpec, error) {
	i := slices.IndexFunc(keys, func(k keySpec) bool { return k.name == key })
	if i < 0 {
		return keySpec{}, fmt.Errorf("%q (valid keys: %s): %w", key, strings.Join(Keys(), ", "), ErrUnknownKey)
	}
	return keys[i], nil
}

// ValidateValue checks value against the type and range of key.
func ValidateValue(key, value string) error {
	spec, err := lookup(key)
	if err != nil {
		return err
	}

	switch spec.kind {
	case kindInt:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("%s: %q is not an integer: %w", key, value, ErrInvalidValue)
		}
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%s: %q is not a non-negative number: %w", key, value, ErrInvalidValue)
		}
	case kindBool:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%s: %q is not a boolean: %w", key, value, ErrInvalidValue)
		}
	case kindDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s: %q is not a duration (e.g. 30s, 2m): %w", key, value, ErrInvalidValue)
		}
	}

	if spec.check != nil {
		if err := spec.check(value); err != nil {
			return fmt.Errorf("%s: %w: %w", key, err, ErrInvalidValue)
		}
	}
	return nil
}

// Get returns the effective value of key: environment, then file, then default.
// Secrets are returned in clear; callers decide how to display them.
func Get(key string) (string, error) {
	spec, err := lookup(key)
	if err != nil {
		return "", err
	}
	v, err := newViper("")
	if err != nil {
		return "", err
	}
	return display(v, spec), nil
}

// List returns every key with its effective value. Secrets are masked.
func List() (map[string]string, error) {
	v, err := newViper("")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(keys))
	for _, spec := range keys {
		val := display(v, spec)
		if spec.kind == kindSecret {
			val = Mask(val)
		}
		out[spec.name] = val
	}
	return out, nil
}

// Set validates value and writes it to the config file, creating the
// directory and file if needed. Other keys in the file are preserved.
func Set(key, value string) error {
	if err := ValidateValue(key, value); err != nil {
		return err
	}
	spec, _ := lookup(key)

	p, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	// Only the file is loaded: defaults and environment must not leak into it.
	v := viper.New()
	v.SetConfigFile(p)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read config file %s: %w", p, err)
	}

	v.Set(key, typed(spec, value))
	if err := v.WriteConfigAs(p); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Mask hides all but the last four characters of a secret.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	r := []rune(secret)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}

func display(v *viper.Viper, spec keySpec) string {
	if spec.kind == kindList {
		return strings.Join(v.GetStringSlice(spec.name), ",")
	}
	return v.GetString(spec.name)
}

// typed converts an already validated value so the YAML file carries
// numbers, booleans and lists rather than quoted strings.
func typed(spec keySpec, value string) any {
	switch spec.kind {
	case kindInt:
		n, _ := strconv.Atoi(value)
		return n
	case kindFloat:
		f, _ := strconv.ParseFloat(value, 64)
		return f
	case kindBool:
		b, _ := strconv.ParseBool(value)
		return b
	case kindList:
		var items []string
		for item := range strings.SplitSeq(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items
	default:
		return value
	}
}

func oneOf(allowed ...string) func(string) error {
	return func(s string) error {
		if !slices.Contains(allowed, s) {
			return fmt.Errorf("%q (want one of %s)", s, strings.Join(allowed, ", "))
		}
		return nil
	}
}

func checkPort(s string) error {
	n, _ := strconv.Atoi(s)
	if n < 1 || n > 65535 {
		return fmt.Errorf("port %d out of range", n)
	}
	return nil
}

func checkLanguage(s string) error {
	_, err := lang.Parse(s)
	return err
}

func checkTimezone(s string) error {
	if strings.EqualFold(s, "local") {
		return nil
	}
	_, err := time.LoadLocation(s)
	return err
}

func checkLevel(s string) error {
	_, err := zapcore.ParseLevel(strings.ToLower(s))
	return err
}

// Package settings provides typed accessors over the persistent key-value
// store for the bot's runtime configuration (model, temperature, feature
// flags). Reads never fail: absent values fall back to their defaults and
// the default is persisted on first read. Writes coerce free-form user
// input into the canonical representation.
package settings

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/chatloop-ai/chatloop/internal/kvstore"
)

// Setting keys.
const (
	KeyModel        = "model"
	KeyTemperature  = "temperature"
	KeyStatusEmojis = "status_emojis"
)

// Defaults.
const (
	DefaultModel       = "gpt-3.5-turbo-0613"
	DefaultTemperature = 0.9
)

// DefaultStatusEmojis controls whether status-emoji acknowledgments are on
// by default.
const DefaultStatusEmojis = true

// Store reads and writes typed settings.
type Store struct {
	kv     kvstore.Store
	logger *slog.Logger
}

// New creates a settings Store over the given key-value store.
func New(kv kvstore.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, logger: logger.With("component", "settings")}
}

// get returns the stored value for key, seeding and returning def when the
// key is absent. Store errors degrade to the default rather than failing
// the caller.
func (s *Store) get(ctx context.Context, key, def string) string {
	v, err := kvstore.GetOrSeed(ctx, s.kv, key, def)
	if err != nil {
		s.logger.Error("setting read failed, using default",
			"key", key, "default", def, "error", err)
		return def
	}
	return v
}

// Model returns the active completion model name.
func (s *Store) Model(ctx context.Context) string {
	return s.get(ctx, KeyModel, DefaultModel)
}

// SetModel coerces raw into a canonical model name, stores it, and returns
// the stored value.
func (s *Store) SetModel(ctx context.Context, raw string) (string, error) {
	v := CoerceModel(raw)
	if err := s.kv.Put(ctx, KeyModel, v, 0); err != nil {
		return "", err
	}
	return v, nil
}

// Temperature returns the sampling temperature.
func (s *Store) Temperature(ctx context.Context) float64 {
	v := s.get(ctx, KeyTemperature, formatFloat(DefaultTemperature))
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		s.logger.Warn("stored temperature is not numeric, using default",
			"value", v)
		return DefaultTemperature
	}
	return f
}

// SetTemperature coerces raw ("high", "0.7", ...) into a numeric
// temperature, stores it, and returns the stored value.
func (s *Store) SetTemperature(ctx context.Context, raw string) (float64, error) {
	f := CoerceTemperature(raw)
	if err := s.kv.Put(ctx, KeyTemperature, formatFloat(f), 0); err != nil {
		return 0, err
	}
	return f, nil
}

// StatusEmojis reports whether status-emoji acknowledgments are enabled.
func (s *Store) StatusEmojis(ctx context.Context) bool {
	return parseBool(s.get(ctx, KeyStatusEmojis, formatBool(DefaultStatusEmojis)))
}

// SetStatusEmojis coerces raw into a boolean, stores it, and returns the
// stored value.
func (s *Store) SetStatusEmojis(ctx context.Context, raw string) (bool, error) {
	b := CoerceBool(raw)
	if err := s.kv.Put(ctx, KeyStatusEmojis, formatBool(b), 0); err != nil {
		return false, err
	}
	return b, nil
}

// Get returns the canonical stored value for any known setting key. Unknown
// keys read the raw store and return an empty string when absent; they
// never error.
func (s *Store) Get(ctx context.Context, key string) string {
	switch key {
	case KeyModel:
		return s.Model(ctx)
	case KeyTemperature:
		return formatFloat(s.Temperature(ctx))
	case KeyStatusEmojis:
		return formatBool(s.StatusEmojis(ctx))
	default:
		v, err := s.kv.Get(ctx, key)
		if err != nil {
			return ""
		}
		return v
	}
}

// Set coerces and stores a value for any known setting key, returning the
// canonical stored representation. Unknown keys are stored verbatim.
func (s *Store) Set(ctx context.Context, key, raw string) (string, error) {
	switch key {
	case KeyModel:
		return s.SetModel(ctx, raw)
	case KeyTemperature:
		f, err := s.SetTemperature(ctx, raw)
		if err != nil {
			return "", err
		}
		return formatFloat(f), nil
	case KeyStatusEmojis:
		b, err := s.SetStatusEmojis(ctx, raw)
		if err != nil {
			return "", err
		}
		return formatBool(b), nil
	default:
		if err := s.kv.Put(ctx, key, raw, 0); err != nil {
			return "", err
		}
		return raw, nil
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}

func parseBool(v string) bool {
	return v == "true"
}

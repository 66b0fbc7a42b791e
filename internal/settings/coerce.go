package settings

import (
	"regexp"
	"strconv"
	"strings"
)

// Model aliases. Free-form input like "GPT-4", "gpt 3.5 16k", or "gpt_3"
// is massaged into a valid model name; anything unrecognizable falls back
// to the default model.
var (
	reModel3With16k = regexp.MustCompile(`(?i)gpt[\s\-_]*3.*16\s*k`)
	reModel3        = regexp.MustCompile(`(?i)gpt[\s\-_]*3`)
	reModel4        = regexp.MustCompile(`(?i)gpt[\s\-_]*4`)
)

// CoerceModel maps free-form input to a canonical model name.
func CoerceModel(raw string) string {
	switch {
	case reModel3With16k.MatchString(raw):
		return "gpt-3.5-turbo-16k-0613"
	case reModel3.MatchString(raw):
		return "gpt-3.5-turbo-0613"
	case reModel4.MatchString(raw):
		return "gpt-4-0613"
	default:
		return DefaultModel
	}
}

// CoerceTemperature maps free-form input ("high", "Medium", "0.35") to a
// numeric temperature. Unrecognized input yields the default.
func CoerceTemperature(raw string) float64 {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(lower, "high"):
		return 1.0
	case strings.Contains(lower, "medium"):
		return 0.7
	case strings.Contains(lower, "low"):
		return 0.5
	}
	if f, err := strconv.ParseFloat(lower, 64); err == nil && f >= 0 {
		return f
	}
	return DefaultTemperature
}

// CoerceBool maps free-form affirmative words ("true", "Yes", "enabled",
// "active") to true; everything else is false.
func CoerceBool(raw string) bool {
	lower := strings.ToLower(raw)
	for _, word := range []string{"true", "yes", "enabled", "active"} {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

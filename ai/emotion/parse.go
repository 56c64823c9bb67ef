package emotion

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/hrygo/echomind/internal/strutil"
)

// Parse reads a classification out of a capability response that may wrap the
// JSON object in prose or code fences. Fields that are missing or invalid keep
// their default value. ok is false when no JSON object was found at all.
func Parse(raw string) (c Classification, ok bool) {
	c = Default()

	obj, found := strutil.ExtractJSONObject(raw)
	if !found {
		return c, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return c, false
	}

	if s, ok := stringField(fields, "emotion"); ok {
		if k := Kind(normalizeEnum(s)); k.Valid() {
			c.Emotion = k
		}
	}
	if s, ok := stringField(fields, "polarity"); ok {
		if p := Polarity(normalizeEnum(s)); p.Valid() {
			c.Polarity = p
		}
	}
	mode, hasMode := stringField(fields, "responseMode")
	if !hasMode {
		mode, hasMode = stringField(fields, "response_mode")
	}
	if hasMode {
		if m := ResponseMode(normalizeEnum(mode)); m.Valid() {
			c.ResponseMode = m
		}
	}
	if v, ok := numberField(fields, "intensity"); ok && validIntensity(v) {
		c.Intensity = v
	}
	if s, ok := stringField(fields, "trigger"); ok {
		if s = strings.TrimSpace(s); s != "" {
			c.Trigger = &s
		}
	}
	return c, true
}

func normalizeEnum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validIntensity(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// numberField accepts 0.7 as well as "0.7".
func numberField(fields map[string]json.RawMessage, key string) (float64, bool) {
	raw, ok := fields[key]
	if !ok {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

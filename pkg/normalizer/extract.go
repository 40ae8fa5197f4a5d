package normalizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedResponse is returned when the payload is not a JSON object.
var ErrMalformedResponse = errors.New("malformed analysis response")

// orderedKeys names the objects whose key order carries meaning. They decode
// to orderedObject instead of a plain map.
var orderedKeys = map[string]bool{"monthly_data": true}

// orderedObject is a JSON object that remembers its source key order.
type orderedObject struct {
	keys   []string
	values map[string]interface{}
}

func (o orderedObject) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.values)
}

// decodeObject parses raw into a generic object, keeping numbers as
// json.Number so integers survive untouched.
func decodeObject(raw []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	v, err := decodeValue(dec, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after top-level value", ErrMalformedResponse)
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is %s, want object", ErrMalformedResponse, kindOf(v))
	}
	return obj, nil
}

// decodeValue reads one value from the token stream. key is the member
// name the value belongs to, "" for array elements and the top level.
func decodeValue(dec *json.Decoder, key string) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		values := make(map[string]interface{})
		var keys []string
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			k, _ := kt.(string)
			v, err := decodeValue(dec, k)
			if err != nil {
				return nil, err
			}
			if _, dup := values[k]; !dup {
				keys = append(keys, k)
			}
			values[k] = v
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		if orderedKeys[key] {
			return orderedObject{keys: keys, values: values}, nil
		}
		return values, nil
	case '[':
		arr := []interface{}{}
		for dec.More() {
			v, err := decodeValue(dec, "")
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", rune(delim))
	}
}

func kindOf(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// objectAt walks a path of keys and returns the object found there.
func objectAt(m map[string]interface{}, path ...string) map[string]interface{} {
	cur := m
	for _, key := range path {
		if cur == nil {
			return nil
		}
		next, ok := cur[key].(map[string]interface{})
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

func arrayAt(m map[string]interface{}, key string) []interface{} {
	if m == nil {
		return nil
	}
	arr, _ := m[key].([]interface{})
	return arr
}

// objectsAt returns the object elements of an array, skipping anything else.
func objectsAt(m map[string]interface{}, key string) []map[string]interface{} {
	arr := arrayAt(m, key)
	out := make([]map[string]interface{}, 0, len(arr))
	for _, el := range arr {
		if obj, ok := el.(map[string]interface{}); ok {
			out = append(out, obj)
		}
	}
	return out
}

// stringAt returns the first non-empty string found under keys. Numbers are
// formatted; other types are ignored.
func stringAt(m map[string]interface{}, keys ...string) string {
	if m == nil {
		return ""
	}
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// stringsAt returns the string elements of an array, trimmed, without
// empties or duplicates, in input order.
func stringsAt(m map[string]interface{}, key string) []string {
	arr := arrayAt(m, key)
	out := make([]string, 0, len(arr))
	seen := make(map[string]struct{}, len(arr))
	for _, el := range arr {
		s, ok := el.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func toFloat(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// floatAt reads the first numeric value under keys.
func floatAt(m map[string]interface{}, keys ...string) OptionalFloat {
	if m == nil {
		return OptionalFloat{}
	}
	for _, key := range keys {
		if f, ok := toFloat(m[key]); ok {
			return SomeFloat(f)
		}
	}
	return OptionalFloat{}
}

// intAt reads the first numeric value under keys, rounding fractions and
// saturating at the int64 range.
func intAt(m map[string]interface{}, keys ...string) OptionalInt {
	f := floatAt(m, keys...)
	switch {
	case !f.Present:
		return OptionalInt{}
	case f.Value >= math.MaxInt64:
		return SomeInt(math.MaxInt64)
	case f.Value <= math.MinInt64:
		return SomeInt(math.MinInt64)
	}
	return SomeInt(int64(math.Round(f.Value)))
}

func nonNegativeInt(o OptionalInt) OptionalInt {
	if o.Present && o.Value < 0 {
		return OptionalInt{}
	}
	return o
}

func nonNegativeFloat(o OptionalFloat) OptionalFloat {
	if o.Present && o.Value < 0 {
		return OptionalFloat{}
	}
	return o
}

func clampInt(o OptionalInt, lo, hi int64) OptionalInt {
	if !o.Present {
		return o
	}
	if o.Value < lo {
		o.Value = lo
	}
	if o.Value > hi {
		o.Value = hi
	}
	return o
}

func clampFloat(o OptionalFloat, lo, hi float64) OptionalFloat {
	if !o.Present {
		return o
	}
	o.Value = math.Max(lo, math.Min(hi, o.Value))
	return o
}

// stringMapOfSlices reads {category: [..]} objects such as secondary
// topic clusters. Categories with no string members are dropped.
func stringMapOfSlices(m map[string]interface{}) map[string][]string {
	out := make(map[string][]string, len(m))
	for key := range m {
		if vals := stringsAt(m, key); len(vals) > 0 {
			out[key] = vals
		}
	}
	return out
}

func parseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return LevelLow
	case "medium", "med", "moderate":
		return LevelMedium
	case "high":
		return LevelHigh
	default:
		return LevelUnknown
	}
}

// competitionLevelFor buckets a 0..1 competition index.
func competitionLevelFor(c float64) Level {
	switch {
	case c <= 0.33:
		return LevelLow
	case c <= 0.66:
		return LevelMedium
	default:
		return LevelHigh
	}
}

func parseDirection(s string) TrendDirection {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "rising", "increasing", "growing":
		return TrendUp
	case "down", "falling", "decreasing", "declining":
		return TrendDown
	case "stable", "flat", "steady":
		return TrendStable
	default:
		return TrendUnknown
	}
}

func parsePresence(s string) Presence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "absent", "no":
		return PresenceNone
	case "weak", "low", "partial":
		return PresenceWeak
	case "strong", "high", "present", "yes":
		return PresenceStrong
	default:
		return PresenceUnknown
	}
}

func parseOpportunity(s string) Opportunity {
	switch parseLevel(s) {
	case LevelLow:
		return OpportunityLow
	case LevelMedium:
		return OpportunityMedium
	case LevelHigh:
		return OpportunityHigh
	default:
		return OpportunityUnknown
	}
}

package instrument

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
)

const maskedValue = "***"

// defaultMaskFields are hidden even when the config lists nothing. A pin is
// sent as "value" and tokens travel in authorization headers or query strings.
var defaultMaskFields = []string{"authorization", "password", "value", "entered_value", "access_token"}

// masker replaces the values of sensitive keys, matching keys case-insensitively.
type masker map[string]struct{}

func newMasker(fields []string) masker {
	m := make(masker, len(defaultMaskFields)+len(fields))
	for _, field := range slices.Concat(defaultMaskFields, fields) {
		if field = strings.ToLower(strings.TrimSpace(field)); field != "" {
			m[field] = struct{}{}
		}
	}
	return m
}

func (m masker) sensitive(key string) bool {
	_, ok := m[strings.ToLower(key)]
	return ok
}

// value masks structured data; ok is false when v has no shape it knows.
func (m masker) value(v any) (any, bool) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if m.sensitive(k) {
				out[k] = maskedValue
				continue
			}
			out[k], _ = m.value(item)
		}
		return out, true
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i], _ = m.value(item)
		}
		return out, true
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if m.sensitive(k) {
				out[k] = maskedValue
				continue
			}
			out[k] = item
		}
		return out, true
	case http.Header:
		return m.multi(val), true
	case map[string][]string:
		return m.multi(val), true
	default:
		return v, false
	}
}

func (m masker) multi(val map[string][]string) map[string]any {
	out := make(map[string]any, len(val))
	for k, items := range val {
		switch {
		case m.sensitive(k):
			out[k] = maskedValue
		case len(items) == 1:
			out[k] = items[0]
		default:
			out[k] = items
		}
	}
	return out
}

// json masks a JSON object or array; ok is false for anything else.
func (m masker) json(payload []byte) (string, bool) {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return "", false
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return "", false
	}
	masked, _ := m.value(decoded)
	out, err := json.Marshal(masked)
	if err != nil {
		return "", false
	}
	return string(out), true
}

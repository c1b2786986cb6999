package recipes

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cast"
)

var json = jsoniter.Config{UseNumber: true}.Froze()

// ParseList decodes a stored JSON array into strings. Elements may be
// strings, numbers, or objects carrying an "id" or "name". Blank input is an
// empty list; anything that is not a JSON array is an error.
func ParseList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var items []interface{}
	if err := json.UnmarshalFromString(raw, &items); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := refString(item); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func refString(item interface{}) string {
	if m, ok := item.(map[string]interface{}); ok {
		for _, key := range []string{"id", "product_id", "name"} {
			if v, ok := m[key]; ok {
				return refString(v)
			}
		}
		return ""
	}
	s, err := cast.ToStringE(item)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

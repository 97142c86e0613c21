package model

import (
	"time"

	"github.com/Deepakk2104/Zync/internal/store"
)

// Field accessors tolerant of the loosely typed documents the store
// backends deliver.

func docString(d store.Doc, key string) string {
	s, _ := d[key].(string)
	return s
}

func docBool(d store.Doc, key string) bool {
	b, _ := d[key].(bool)
	return b
}

func docTime(d store.Doc, key string) time.Time {
	t, _ := d[key].(time.Time)
	return t
}

func docBoolMap(d store.Doc, key string) map[string]bool {
	out := map[string]bool{}
	switch m := d[key].(type) {
	case map[string]bool:
		for k, v := range m {
			out[k] = v
		}
	case map[string]any:
		for k, v := range m {
			b, _ := v.(bool)
			out[k] = b
		}
	}
	return out
}

func docStringSlice(d store.Doc, key string) []string {
	switch s := d[key].(type) {
	case []string:
		out := make([]string, len(s))
		copy(out, s)
		return out
	case []any:
		out := make([]string, 0, len(s))
		for _, v := range s {
			if str, ok := v.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

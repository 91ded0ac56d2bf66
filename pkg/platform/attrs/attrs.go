// Package attrs reads values back out of slog-style argument lists, where
// alternating key/value pairs may be mixed with slog.Attr values.
package attrs

import (
	"fmt"
	"log/slog"
)

// Lookup walks args the way slog pairs them and returns the last value bound
// to key. A trailing key without a value is ignored.
func Lookup(args []any, key string) (slog.Value, bool) {
	var (
		found slog.Value
		ok    bool
	)
	for i := 0; i < len(args); i++ {
		switch k := args[i].(type) {
		case slog.Attr:
			if k.Key == key {
				found, ok = k.Value.Resolve(), true
			}
		case string:
			if i+1 >= len(args) {
				return found, ok
			}
			i++
			if k == key {
				found, ok = slog.AnyValue(args[i]).Resolve(), true
			}
		}
	}
	return found, ok
}

// String returns the value for key when it is a string or a fmt.Stringer,
// and "" otherwise.
func String(args []any, key string) string {
	v, ok := Lookup(args, key)
	if !ok {
		return ""
	}
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindAny:
		if s, ok := v.Any().(fmt.Stringer); ok {
			return s.String()
		}
	}
	return ""
}

package restrequest

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// EncodeBody serializes a request body. Strings and byte slices pass through
// unchanged; url.Values, maps and slices are form encoded with BuildQuery.
// A nil body encodes to the empty string.
func EncodeBody(body any) (string, error) {
	switch b := body.(type) {
	case nil:
		return "", nil
	case string:
		return b, nil
	case []byte:
		return string(b), nil
	case url.Values, map[string]string, map[string]any, []any, []string:
		return BuildQuery(b)
	default:
		return "", &ClientError{
			Type:      ErrorTypeOption,
			Message:   fmt.Sprintf("unsupported body type %T", body),
			Timestamp: time.Now(),
		}
	}
}

// BuildQuery form encodes data the way PHP's http_build_query does: nested
// maps become a[b]=c, lists a[0]=x, booleans 1 and 0, and nil values are
// skipped. Map keys are emitted in sorted order.
func BuildQuery(data any) (string, error) {
	if values, ok := data.(url.Values); ok {
		return values.Encode(), nil
	}

	var pairs []string
	if err := appendQuery(&pairs, "", data); err != nil {
		return "", &ClientError{
			Type:      ErrorTypeOption,
			Message:   "cannot encode form body",
			Cause:     err,
			Timestamp: time.Now(),
		}
	}
	return strings.Join(pairs, "&"), nil
}

func appendQuery(pairs *[]string, prefix string, value any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case map[string]any:
		for _, k := range sortedKeys(v) {
			if err := appendQuery(pairs, nestKey(prefix, k), v[k]); err != nil {
				return err
			}
		}
		return nil
	case map[string]string:
		for _, k := range sortedKeys(v) {
			*pairs = append(*pairs, url.QueryEscape(nestKey(prefix, k))+"="+url.QueryEscape(v[k]))
		}
		return nil
	case []any:
		for i, item := range v {
			if err := appendQuery(pairs, nestKey(prefix, strconv.Itoa(i)), item); err != nil {
				return err
			}
		}
		return nil
	case []string:
		for i, item := range v {
			*pairs = append(*pairs, url.QueryEscape(nestKey(prefix, strconv.Itoa(i)))+"="+url.QueryEscape(item))
		}
		return nil
	}

	if prefix == "" {
		return fmt.Errorf("scalar %T has no key", value)
	}

	var s string
	if b, ok := value.(bool); ok {
		s = "0"
		if b {
			s = "1"
		}
	} else {
		var err error
		if s, err = cast.ToStringE(value); err != nil {
			return fmt.Errorf("%s: %w", prefix, err)
		}
	}

	*pairs = append(*pairs, url.QueryEscape(prefix)+"="+url.QueryEscape(s))
	return nil
}

func nestKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "[" + key + "]"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package templating

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidValue is returned for values that are not a string, number or boolean.
var ErrInvalidValue = errors.New("value must be a string, number or boolean")

// ValidateValue checks that v is a scalar JSON value.
func ValidateValue(v any) error {
	switch v.(type) {
	case string, bool, json.Number, float64, float32,
		int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case nil:
		return fmt.Errorf("%w: got null", ErrInvalidValue)
	case map[string]any:
		return fmt.Errorf("%w: got object", ErrInvalidValue)
	case []any:
		return fmt.Errorf("%w: got array", ErrInvalidValue)
	default:
		return fmt.Errorf("%w: got %T", ErrInvalidValue, v)
	}
}

// FormatValue renders a scalar for insertion inside a JSON string literal.
// Strings are escaped, numbers and booleans are written as their JSON text.
func FormatValue(v any) (string, error) {
	if err := ValidateValue(v); err != nil {
		return "", err
	}

	switch x := v.(type) {
	case string:
		return escapeJSONString(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case json.Number:
		return x.String(), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	default:
		return fmt.Sprint(x), nil
	}
}

func escapeJSONString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)

	quoted := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return string(quoted[1 : len(quoted)-1])
}

package templating

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// Capture evaluates a JSONPath expression against a JSON document and
// returns the first match. The match must be a scalar so it can be stored
// in a variable.
func Capture(document, path string) (any, error) {
	x, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", path, err)
	}

	data, err := oj.ParseString(document)
	if err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}

	results := x.Get(data)
	if len(results) == 0 {
		return nil, fmt.Errorf("jsonpath '%s' matched nothing", path)
	}

	if err := ValidateValue(results[0]); err != nil {
		return nil, fmt.Errorf("jsonpath '%s': %w", path, err)
	}
	return results[0], nil
}

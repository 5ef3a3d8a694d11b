// Package templating finds and resolves placeholders inside request documents.
//
// Two grammars are recognised:
//   - input placeholders, {{name}}, resolved from a variable's contents
//   - generated placeholders, {{gen:name}}, resolved by a built-in generator
//
// Substitution is a single pass over the original text: resolved values are
// never scanned again, so a value containing "{{...}}" is inserted verbatim.
package templating

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GeneratedPrefix marks a placeholder resolved by a generator.
const GeneratedPrefix = "gen:"

// ErrUnresolvedPlaceholder is returned when a placeholder has no value.
var ErrUnresolvedPlaceholder = errors.New("unresolved placeholder")

var (
	// inputPattern matches {{name}}
	inputPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_-]+)\}\}`)
	// anyPattern matches {{name}} or {{gen:name}}
	anyPattern = regexp.MustCompile(`\{\{((?:gen:)?[A-Za-z0-9_-]+)\}\}`)
	// identPattern matches a bare identifier
	identPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ValidIdentifier reports whether name can appear inside an input placeholder.
func ValidIdentifier(name string) bool {
	return identPattern.MatchString(name)
}

// Grammar selects which placeholders Extract looks for.
type Grammar int

const (
	// Input matches only {{name}} placeholders.
	Input Grammar = iota
	// Any matches both {{name}} and {{gen:name}} placeholders.
	Any
)

func (g Grammar) pattern() *regexp.Regexp {
	if g == Any {
		return anyPattern
	}
	return inputPattern
}

// Extract returns the identifiers of every placeholder in text, in order of
// appearance. Duplicates are kept; use Unique when a set is needed.
func Extract(text string, g Grammar) []string {
	matches := g.pattern().FindAllStringSubmatch(text, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// Unique drops repeated names, keeping the first occurrence of each.
func Unique(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Resolver looks up the value of an input placeholder.
type Resolver interface {
	Lookup(name string) (any, bool)
}

// Values is a Resolver backed by a plain map.
type Values map[string]any

// Lookup implements Resolver.
func (v Values) Lookup(name string) (any, bool) {
	val, ok := v[name]
	return val, ok
}

// Clock provides the current time for the timestamp generator.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Engine substitutes placeholders. The zero value is not usable; call NewEngine.
type Engine struct {
	clock      Clock
	newUUID    func() string
	generators map[string]func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the clock used by {{gen:timestamp}}.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithUUIDFunc replaces the generator used by {{gen:uuid}}.
func WithUUIDFunc(f func() string) Option {
	return func(e *Engine) { e.newUUID = f }
}

// NewEngine creates an Engine with the uuid and timestamp generators.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		clock:   systemClock{},
		newUUID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.generators = map[string]func() string{
		"uuid": func() string { return e.newUUID() },
		"timestamp": func() string {
			return strconv.FormatInt(e.clock.Now().Unix(), 10)
		},
	}
	return e
}

// Generated reports whether name is a generated placeholder identifier.
func Generated(name string) bool {
	return strings.HasPrefix(name, GeneratedPrefix)
}

// Substitute replaces every placeholder in text. Each distinct identifier is
// resolved once; generated identifiers never consult r, which may be nil.
func (e *Engine) Substitute(text string, r Resolver) (string, error) {
	names := Unique(Extract(text, Any))
	if len(names) == 0 {
		return text, nil
	}

	resolved := make(map[string]string, len(names))
	for _, name := range names {
		value, err := e.resolve(name, r)
		if err != nil {
			return "", err
		}
		resolved[name] = value
	}

	return anyPattern.ReplaceAllStringFunc(text, func(match string) string {
		return resolved[match[2:len(match)-2]]
	}), nil
}

func (e *Engine) resolve(name string, r Resolver) (string, error) {
	if Generated(name) {
		gen, ok := e.generators[strings.TrimPrefix(name, GeneratedPrefix)]
		if !ok {
			return "", fmt.Errorf("%w: {{%s}} has no generator", ErrUnresolvedPlaceholder, name)
		}
		return gen(), nil
	}

	if r == nil {
		return "", fmt.Errorf("%w: {{%s}}", ErrUnresolvedPlaceholder, name)
	}
	value, ok := r.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: {{%s}}", ErrUnresolvedPlaceholder, name)
	}

	text, err := FormatValue(value)
	if err != nil {
		return "", fmt.Errorf("placeholder {{%s}}: %w", name, err)
	}
	return text, nil
}

package settings

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the value type of a setting.
type Kind int

const (
	KindInt Kind = iota + 1
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindBool:
		return "boolean"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Bounds is an inclusive integer range.
type Bounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether v lies within the bounds.
func (b Bounds) Contains(v int) bool {
	return v >= b.Min && v <= b.Max
}

// Clamp returns v moved to the nearest bound when outside the range.
func (b Bounds) Clamp(v int) int {
	return max(b.Min, min(v, b.Max))
}

// Definition declares a setting.
type Definition struct {
	Key string
	// Name is the human readable label hosts show in configuration screens.
	Name            string
	Description     string
	Kind            Kind
	Default         any
	Bounds          *Bounds
	RestartRequired bool
}

// Setting is a snapshot of a declared setting and its current value.
type Setting struct {
	Definition
	Value any
}

// ChangeEvent is delivered by the host when a namespace's persisted values
// changed outside this process.
type ChangeEvent struct {
	Namespace string
}

func (d Definition) validate() error {
	if d.Key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidDefinition)
	}
	if !kindMatches(d.Kind, d.Default) {
		return fmt.Errorf("%w: %q default %v (%T) is not %s", ErrInvalidDefinition, d.Key, d.Default, d.Default, d.Kind)
	}
	if d.Bounds == nil {
		return nil
	}
	if d.Kind != KindInt {
		return fmt.Errorf("%w: %q bounds on %s setting", ErrInvalidDefinition, d.Key, d.Kind)
	}
	if d.Bounds.Min > d.Bounds.Max {
		return fmt.Errorf("%w: %q min %d > max %d", ErrInvalidDefinition, d.Key, d.Bounds.Min, d.Bounds.Max)
	}
	if !d.Bounds.Contains(d.Default.(int)) {
		return fmt.Errorf("%w: %q default %d outside [%d,%d]", ErrInvalidDefinition, d.Key, d.Default, d.Bounds.Min, d.Bounds.Max)
	}
	return nil
}

func kindMatches(kind Kind, v any) bool {
	switch v.(type) {
	case int:
		return kind == KindInt
	case bool:
		return kind == KindBool
	case string:
		return kind == KindString
	default:
		return false
	}
}

// parseValue decodes the persisted text form of a value of the given kind.
func parseValue(kind Kind, raw string) (any, error) {
	switch kind {
	case KindInt:
		return strconv.Atoi(strings.TrimSpace(raw))
	case KindBool:
		return strconv.ParseBool(strings.TrimSpace(raw))
	case KindString:
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported kind %s", kind)
	}
}

// formatValue encodes a value into its persisted text form.
func formatValue(v any) string {
	switch value := v.(type) {
	case int:
		return strconv.Itoa(value)
	case bool:
		return strconv.FormatBool(value)
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}

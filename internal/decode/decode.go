// Package decode wraps arbitrary JSON with a path so that a malformed or
// unexpected server response can be reported with exactly which property
// was expected and what was found instead, instead of a bare type-assertion
// panic or a silently zeroed field.
package decode

import (
	"encoding/json"
	"fmt"
)

// WrongTypeError is returned when a property exists but is not the type
// the caller asked for.
type WrongTypeError struct {
	Path string
	Want string
	Got  string
}

func (e *WrongTypeError) Error() string {
	return fmt.Sprintf("%s: want %s, got %s", e.Path, e.Want, e.Got)
}

// NonExistentProperty is returned when a required property is missing.
type NonExistentProperty struct {
	Path string
	Name string
}

func (e *NonExistentProperty) Error() string {
	return fmt.Sprintf("%s: missing property %q", e.Path, e.Name)
}

// UnionParseError bundles the errors from every alternative tried while
// decoding a value that can legitimately take more than one shape.
type UnionParseError struct {
	Path string
	Errs []error
}

func (e *UnionParseError) Error() string {
	return fmt.Sprintf("%s: no alternative matched (%d tried): %v", e.Path, len(e.Errs), e.Errs)
}

// Value is a JSON value with the dotted path that led to it, so errors
// about it are self-describing.
type Value struct {
	raw  interface{}
	path string
}

// Parse decodes raw JSON bytes into a root Value.
func Parse(body []byte) (Value, error) {
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return Value{}, fmt.Errorf("decode: %w", err)
	}
	return Value{raw: raw, path: "$"}, nil
}

// Wrap lifts an already-decoded interface{} (e.g. one element of a JSON
// array) into a path-tracked Value.
func Wrap(raw interface{}, path string) Value {
	if path == "" {
		path = "$"
	}
	return Value{raw: raw, path: path}
}

// Path returns the dotted path accumulated to reach this value.
func (v Value) Path() string { return v.path }

// Raw returns the underlying decoded value, untyped.
func (v Value) Raw() interface{} { return v.raw }

// IsNull reports whether the value is JSON null or absent.
func (v Value) IsNull() bool { return v.raw == nil }

// Property descends into an object property, returning WrongTypeError if
// the value is not an object and NonExistentProperty if the key is absent.
func (v Value) Property(name string) (Value, error) {
	obj, ok := v.raw.(map[string]interface{})
	if !ok {
		return Value{}, &WrongTypeError{Path: v.path, Want: "object", Got: typeName(v.raw)}
	}
	child, exists := obj[name]
	if !exists {
		return Value{}, &NonExistentProperty{Path: v.path, Name: name}
	}
	return Value{raw: child, path: v.path + "." + name}, nil
}

// OptionalProperty descends into an object property, returning ok=false
// (no error) when the object is null/absent/missing the key, which happens
// throughout Twitch's GQL responses for relations that simply don't apply.
func (v Value) OptionalProperty(name string) (child Value, ok bool) {
	if v.IsNull() {
		return Value{}, false
	}
	obj, isObj := v.raw.(map[string]interface{})
	if !isObj {
		return Value{}, false
	}
	raw, exists := obj[name]
	if !exists || raw == nil {
		return Value{}, false
	}
	return Value{raw: raw, path: v.path + "." + name}, true
}

// String requires the value to be a JSON string.
func (v Value) String() (string, error) {
	s, ok := v.raw.(string)
	if !ok {
		return "", &WrongTypeError{Path: v.path, Want: "string", Got: typeName(v.raw)}
	}
	return s, nil
}

// Float64 requires the value to be a JSON number.
func (v Value) Float64() (float64, error) {
	f, ok := v.raw.(float64)
	if !ok {
		return 0, &WrongTypeError{Path: v.path, Want: "number", Got: typeName(v.raw)}
	}
	return f, nil
}

// Int requires the value to be a JSON number and truncates it to an int.
func (v Value) Int() (int, error) {
	f, err := v.Float64()
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// Bool requires the value to be a JSON boolean.
func (v Value) Bool() (bool, error) {
	b, ok := v.raw.(bool)
	if !ok {
		return false, &WrongTypeError{Path: v.path, Want: "bool", Got: typeName(v.raw)}
	}
	return b, nil
}

// Array requires the value to be a JSON array and returns each element
// wrapped with an indexed path.
func (v Value) Array() ([]Value, error) {
	arr, ok := v.raw.([]interface{})
	if !ok {
		return nil, &WrongTypeError{Path: v.path, Want: "array", Got: typeName(v.raw)}
	}
	out := make([]Value, len(arr))
	for i, elem := range arr {
		out[i] = Value{raw: elem, path: fmt.Sprintf("%s[%d]", v.path, i)}
	}
	return out, nil
}

// Map requires the value to be a JSON object and hands back the raw map,
// for passing across the decoder boundary into the map[string]interface{}
// constructors the rest of the domain model is built around.
func (v Value) Map() (map[string]interface{}, error) {
	obj, ok := v.raw.(map[string]interface{})
	if !ok {
		return nil, &WrongTypeError{Path: v.path, Want: "object", Got: typeName(v.raw)}
	}
	return obj, nil
}

// OneOfPropertyMap tries each name in order and returns the first one that
// is present and object-shaped, along with which name matched. Twitch's GQL
// schema sometimes exposes the same relation under more than one field name
// depending on which resolver answered the query; this is the sum-type
// decode path spec'd for that case, returning UnionParseError with every
// alternative's failure when none of them match.
func (v Value) OneOfPropertyMap(names ...string) (map[string]interface{}, string, error) {
	var errs []error
	for _, name := range names {
		child, propErr := v.Property(name)
		if propErr != nil {
			errs = append(errs, propErr)
			continue
		}
		m, mapErr := child.Map()
		if mapErr != nil {
			errs = append(errs, mapErr)
			continue
		}
		return m, name, nil
	}
	return nil, "", &UnionParseError{Path: v.path, Errs: errs}
}

// PropertyMap is Property followed by Map, the common case of reaching into
// a nested object only to hand it off to a model constructor.
func (v Value) PropertyMap(name string) (map[string]interface{}, error) {
	child, err := v.Property(name)
	if err != nil {
		return nil, err
	}
	return child.Map()
}

// OptionalPropertyMap is OptionalProperty followed by Map.
func (v Value) OptionalPropertyMap(name string) (map[string]interface{}, bool) {
	child, ok := v.OptionalProperty(name)
	if !ok {
		return nil, false
	}
	m, err := child.Map()
	if err != nil {
		return nil, false
	}
	return m, true
}

func typeName(raw interface{}) string {
	switch raw.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "bool"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", raw)
	}
}

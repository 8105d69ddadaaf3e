package entity

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Config is the caller-facing definition of an entity: a template plus named
// parameters, where each parameter is either a literal string or another
// Config nested one level deeper. The zero Kind defaults to prompt.
type Config struct {
	Template     string                                `json:"template"`
	Params       *orderedmap.OrderedMap[string, Value] `json:"params,omitempty"`
	Kind         Kind                                  `json:"kind,omitempty"`
	DisplayName  string                                `json:"name,omitempty"`
	MajorVersion *int                                  `json:"majorVersion,omitempty"`

	Hyperparams
}

// NewConfig creates a Config for the given template text.
func NewConfig(template string) *Config {
	return &Config{Template: template}
}

// WithParam adds a parameter and returns the receiver for chaining.
// Parameter order is preserved and drives child ordering in Build.
func (c *Config) WithParam(name string, value Value) *Config {
	if c.Params == nil {
		c.Params = orderedmap.New[string, Value]()
	}
	c.Params.Set(name, value)
	return c
}

// WithKind sets the entity kind and returns the receiver for chaining.
func (c *Config) WithKind(kind Kind) *Config {
	c.Kind = kind
	return c
}

// Value is a parameter value: either a literal string or a nested Config.
// Use Literal or Nested to construct one.
type Value struct {
	literal string
	nested  *Config
	_       struct{} // require keyed usage
}

// Literal wraps a plain string parameter value.
func Literal(s string) Value {
	return Value{literal: s}
}

// Nested wraps a nested entity configuration.
func Nested(cfg *Config) Value {
	return Value{nested: cfg}
}

// Literal returns the literal string and true when the value is not a
// nested configuration.
func (v Value) Literal() (string, bool) {
	return v.literal, v.nested == nil
}

// Config returns the nested configuration and true when the value is one.
func (v Value) Config() (*Config, bool) {
	return v.nested, v.nested != nil
}

// MarshalJSON encodes a literal as a JSON string and a nested value as the
// configuration object.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.nested != nil {
		return json.Marshal(v.nested)
	}
	return json.Marshal(v.literal)
}

// UnmarshalJSON accepts either a JSON string (literal parameter) or an
// object (nested configuration).
func (v *Value) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json: %s", input)
	}
	jv := gjson.ParseBytes(input)
	if jv.IsObject() {
		var cfg Config
		if err := json.Unmarshal(input, &cfg); err != nil {
			return fmt.Errorf("invalid nested definition: %w", err)
		}
		*v = Value{nested: &cfg}
		return nil
	}
	if jv.Type != gjson.String {
		return fmt.Errorf("parameter value must be a string or an object, got %s", jv.Type)
	}
	*v = Value{literal: jv.String()}
	return nil
}

// Package tool describes the tool/function definitions attached to tracked
// LLM calls. Definitions carry a JSON schema for their parameters so a
// tracked call records the exact contract the model was offered.
package tool

import (
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/loopline-ai/loopline-go/pkg/jsonx"
)

// Param describes one tool parameter.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Definition describes a tool offered to the model.
type Definition struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Params      []Param `json:"params,omitempty"`
}

// New creates a Definition with the given name and parameters.
func New(name, description string, params ...Param) Definition {
	return Definition{Name: name, Description: description, Params: params}
}

// Schema renders the parameter list as a JSON schema object, preserving
// parameter declaration order.
func (d Definition) Schema() *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: orderedmap.New[string, *jsonschema.Schema](),
	}
	var required []string
	for _, p := range d.Params {
		tpe := p.Type
		if tpe == "" {
			tpe = "string"
		}
		schema.Properties.Set(p.Name, &jsonschema.Schema{
			Type:        tpe,
			Description: p.Description,
		})
		if p.Required {
			required = append(required, p.Name)
		}
	}
	if len(required) > 0 {
		schema.Required = required
	}
	return schema
}

// SchemaMap renders the parameter schema as a dynamic JSON object, for
// provider SDKs that accept schemas as plain maps.
func (d Definition) SchemaMap() (map[string]any, error) {
	return jsonx.ToDynamicJSON(d.Schema())
}

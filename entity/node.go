package entity

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind discriminates the three entity flavors. It is assigned once when a
// node is built and never inferred from the shape of the data afterwards.
type Kind string

const (
	KindPrompt Kind = "prompt"
	KindAgent  Kind = "agent"
	KindTool   Kind = "tool"
)

// Hyperparams holds the LLM call settings carried by agent entities.
// Every field is independently optional; a nil pointer means "not
// configured" and is distinct from an explicit zero value. Prompt and tool
// entities leave the whole struct empty.
type Hyperparams struct {
	Model            *string  `json:"model,omitempty"`
	Provider         *string  `json:"provider,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxTokens        *int64   `json:"maxTokens,omitempty"`
	TopP             *float64 `json:"topP,omitempty"`
	FrequencyPenalty *float64 `json:"frequencyPenalty,omitempty"`
	PresencePenalty  *float64 `json:"presencePenalty,omitempty"`
	StopSequences    []string `json:"stopSequences,omitempty"`
	AllowedToolIDs   []string `json:"allowedToolIds,omitempty"`
}

// Node is one entity in a constructed tree. Params holds the literal
// parameters in the insertion order of the source configuration; parameters
// whose value was itself a nested configuration become entries in Children
// instead, keyed by their id.
type Node struct {
	ID           string
	Kind         Kind
	Template     string
	Params       *orderedmap.OrderedMap[string, string]
	Children     []*Node
	DisplayName  string
	MajorVersion *int

	Hyperparams
}

// paramKeys returns the literal parameter names followed by the child ids,
// the ordering used for the wire representation.
func (n *Node) paramKeys() []string {
	size := len(n.Children)
	if n.Params != nil {
		size += n.Params.Len()
	}
	keys := make([]string, 0, size)
	if n.Params != nil {
		for pair := n.Params.Oldest(); pair != nil; pair = pair.Next() {
			keys = append(keys, pair.Key)
		}
	}
	for _, child := range n.Children {
		keys = append(keys, child.ID)
	}
	return keys
}

package entity

import (
	"errors"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Build converts a configuration into a validated node tree rooted at id.
// Parameters whose value is a nested configuration are built recursively,
// depth-first, in the insertion order of the params map. It returns a
// *SelfReferenceError when id appears among the configuration's own
// parameter names and a *CircularReferenceError when a nested definition
// reuses an id already on its ancestor chain. No partial tree is returned
// on error.
func Build(id string, cfg *Config) (*Node, error) {
	if id == "" {
		return nil, errors.New("entity id cannot be empty")
	}
	if cfg == nil {
		return nil, errors.New("entity config cannot be nil")
	}
	return build(id, cfg, nil)
}

func build(id string, cfg *Config, ancestors []string) (*Node, error) {
	if slices.Contains(ancestors, id) {
		return nil, &CircularReferenceError{Chain: append(slices.Clone(ancestors), id)}
	}

	kind := cfg.Kind
	if kind == "" {
		kind = KindPrompt
	}
	node := &Node{
		ID:           id,
		Kind:         kind,
		Template:     cfg.Template,
		Params:       orderedmap.New[string, string](),
		DisplayName:  cfg.DisplayName,
		MajorVersion: cfg.MajorVersion,
		Hyperparams:  cfg.Hyperparams.clone(),
	}

	if cfg.Params == nil {
		return node, nil
	}
	if _, ok := cfg.Params.Get(id); ok {
		return nil, &SelfReferenceError{ID: id}
	}

	// The chain is cloned per recursion step so sibling branches never
	// observe each other's ancestors.
	chain := append(slices.Clone(ancestors), id)
	for pair := cfg.Params.Oldest(); pair != nil; pair = pair.Next() {
		if literal, ok := pair.Value.Literal(); ok {
			node.Params.Set(pair.Key, literal)
			continue
		}
		nested, _ := pair.Value.Config()
		if nested == nil {
			node.Params.Set(pair.Key, "")
			continue
		}
		child, err := build(pair.Key, nested, chain)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

func (h Hyperparams) clone() Hyperparams {
	out := h
	out.StopSequences = slices.Clone(h.StopSequences)
	out.AllowedToolIDs = slices.Clone(h.AllowedToolIDs)
	return out
}

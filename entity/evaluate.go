package entity

import (
	"regexp"
)

// Placeholders are {{name}} tokens where name is ASCII word characters.
// Nested braces, defaults and expressions are not supported.
var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Evaluate renders the resolved text for a node tree. Children are
// evaluated depth-first and their results substituted into the parent
// template under the child's id, alongside the node's literal parameters.
// Results are memoized per node id for the duration of a single call, so a
// node reachable through multiple paths is computed once. Substituted values
// are inserted as-is in a single pass; they are never re-scanned for
// further placeholders.
//
// A placeholder with no matching parameter or child is a hard error: the
// returned *MissingParamsError names the node and every unresolved
// placeholder.
func Evaluate(root *Node) (string, error) {
	memo := make(map[string]string)
	return evaluate(root, memo)
}

func evaluate(n *Node, memo map[string]string) (string, error) {
	if resolved, ok := memo[n.ID]; ok {
		return resolved, nil
	}

	params := make(map[string]string)
	if n.Params != nil {
		for pair := n.Params.Oldest(); pair != nil; pair = pair.Next() {
			params[pair.Key] = pair.Value
		}
	}
	for _, child := range n.Children {
		resolved, err := evaluate(child, memo)
		if err != nil {
			return "", err
		}
		params[child.ID] = resolved
	}

	if missing := missingPlaceholders(n.Template, params); len(missing) > 0 {
		return "", &MissingParamsError{NodeID: n.ID, Missing: missing}
	}

	resolved := placeholderPattern.ReplaceAllStringFunc(n.Template, func(match string) string {
		return params[match[2:len(match)-2]]
	})
	memo[n.ID] = resolved
	return resolved, nil
}

func missingPlaceholders(template string, params map[string]string) []string {
	var missing []string
	seen := make(map[string]struct{})
	for _, match := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		name := match[1]
		if _, ok := params[name]; ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		missing = append(missing, name)
	}
	return missing
}

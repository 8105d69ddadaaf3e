package entity

import (
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// WireNode is the flat, serializable record for one node. The template text
// travels under the field name "prompt".
type WireNode struct {
	ID            string   `json:"id"`
	Kind          Kind     `json:"kind,omitempty"`
	Name          string   `json:"name,omitempty"`
	MajorVersion  *int     `json:"majorVersion,omitempty"`
	Prompt        string   `json:"prompt"`
	ParamKeys     []string `json:"paramKeys"`
	ChildrenIDs   []string `json:"childrenIds"`
	ChildrenKinds []Kind   `json:"childrenKinds,omitempty"`

	Hyperparams
}

// Request is the payload shape the backend expects for entity resolution.
type Request struct {
	RootID   string              `json:"rootId"`
	RootKind Kind                `json:"rootKind,omitempty"`
	Map      map[string]WireNode `json:"map"`
}

// ResponseNode is one entry of the flat response map returned by the
// backend. Pointer hyperparameter fields distinguish "explicitly returned"
// from "absent". Extra carries arbitrary caller-defined fields untouched.
type ResponseNode struct {
	Prompt string `json:"prompt"`
	Kind   Kind   `json:"kind,omitempty"`

	Hyperparams

	Extra map[string]any `json:"extra,omitempty"`
}

// Response maps node ids to their server-side state.
type Response map[string]ResponseNode

// Flatten converts a tree into the id-keyed request map via pre-order
// traversal, parents before children. Two nodes sharing an id within one
// tree collide silently: the later traversal entry wins. Callers who need
// distinct server-side state per node must keep ids unique per tree.
func Flatten(root *Node) Request {
	req := Request{
		RootID:   root.ID,
		RootKind: root.Kind,
		Map:      make(map[string]WireNode),
	}
	flatten(root, req.Map)
	return req
}

func flatten(n *Node, out map[string]WireNode) {
	wn := WireNode{
		ID:           n.ID,
		Kind:         n.Kind,
		Name:         n.DisplayName,
		MajorVersion: n.MajorVersion,
		Prompt:       n.Template,
		ParamKeys:    n.paramKeys(),
		ChildrenIDs:  make([]string, len(n.Children)),
		Hyperparams:  n.Hyperparams.clone(),
	}
	if len(n.Children) > 0 {
		wn.ChildrenKinds = make([]Kind, len(n.Children))
	}
	for i, child := range n.Children {
		wn.ChildrenIDs[i] = child.ID
		wn.ChildrenKinds[i] = child.Kind
	}
	out[n.ID] = wn
	for _, child := range n.Children {
		flatten(child, out)
	}
}

// MergeFunc decides the template and hyperparameters of an overlaid node.
// found reports whether the response map had an entry for the node's id.
type MergeFunc func(local *Node, remote ResponseNode, found bool) (string, Hyperparams)

// Overlay merges a backend response onto a tree using DefaultMerge. The
// input tree is left untouched: every node of the result is a fresh copy,
// so the pre-overlay tree remains usable for local fallback.
func Overlay(root *Node, resp Response) *Node {
	return OverlayFunc(root, resp, DefaultMerge)
}

// OverlayFunc is Overlay with a caller-supplied merge policy.
func OverlayFunc(root *Node, resp Response, merge MergeFunc) *Node {
	out := &Node{
		ID:           root.ID,
		Kind:         root.Kind,
		Params:       orderedmap.New[string, string](),
		DisplayName:  root.DisplayName,
		MajorVersion: root.MajorVersion,
	}
	if root.Params != nil {
		for pair := root.Params.Oldest(); pair != nil; pair = pair.Next() {
			out.Params.Set(pair.Key, pair.Value)
		}
	}
	remote, found := resp[root.ID]
	out.Template, out.Hyperparams = merge(root, remote, found)
	if len(root.Children) > 0 {
		out.Children = make([]*Node, len(root.Children))
		for i, child := range root.Children {
			out.Children[i] = OverlayFunc(child, resp, merge)
		}
	}
	return out
}

// DefaultMerge applies the standard per-field fallback: a non-empty server
// prompt replaces the local template, and every hyperparameter is taken
// from the server only when explicitly returned, else the local value is
// kept, else it stays nil. The fallback is applied field by field, never
// for the hyperparameter block as a whole.
func DefaultMerge(local *Node, remote ResponseNode, found bool) (string, Hyperparams) {
	template := local.Template
	hp := local.Hyperparams.clone()
	if !found {
		return template, hp
	}
	if remote.Prompt != "" {
		template = remote.Prompt
	}
	if remote.Model != nil {
		hp.Model = remote.Model
	}
	if remote.Provider != nil {
		hp.Provider = remote.Provider
	}
	if remote.Temperature != nil {
		hp.Temperature = remote.Temperature
	}
	if remote.MaxTokens != nil {
		hp.MaxTokens = remote.MaxTokens
	}
	if remote.TopP != nil {
		hp.TopP = remote.TopP
	}
	if remote.FrequencyPenalty != nil {
		hp.FrequencyPenalty = remote.FrequencyPenalty
	}
	if remote.PresencePenalty != nil {
		hp.PresencePenalty = remote.PresencePenalty
	}
	if remote.StopSequences != nil {
		hp.StopSequences = slices.Clone(remote.StopSequences)
	}
	if remote.AllowedToolIDs != nil {
		hp.AllowedToolIDs = slices.Clone(remote.AllowedToolIDs)
	}
	return template, hp
}

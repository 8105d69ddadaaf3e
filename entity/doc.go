// Package entity implements the prompt/agent/tool template engine.
//
// A caller-supplied configuration is turned into a tree of nodes by Build,
// flattened into the wire shape the Loopline backend expects by Flatten,
// merged with the backend response by Overlay, and finally rendered into a
// resolved string by Evaluate. All operations are pure: trees are never
// mutated after construction, and Overlay returns a structural copy so the
// locally built tree stays available for fallback rendering when the
// backend is unreachable.
package entity

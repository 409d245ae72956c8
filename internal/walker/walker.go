// Package walker implements bounded traversal over foreign accessibility
// trees. The tree is owned by another process and may contain cycles,
// dangling handles, or mutate mid-scan, so every walk is depth-capped,
// cycle-guarded, and cancellable.
package walker

import (
	"context"
	"errors"

	"github.com/mj1618/dockwatch/internal/model"
	"github.com/mj1618/dockwatch/internal/platform"
)

// Default depth ceilings for the two traversal profiles callers use.
// Shallow suits known-flat structures like the dock item list; Deep is for
// locating elements inside arbitrary application windows.
const (
	MaxDepthShallow = 20
	MaxDepthDeep    = 50
)

// Predicate decides whether a node is the one being searched for.
type Predicate func(model.NodeAttrs) bool

// Match pairs a found node with its attributes so callers don't re-read them.
type Match struct {
	Ref   platform.NodeRef
	Attrs model.NodeAttrs
}

// Children returns the child refs of node. AttributeUnavailable is a normal
// condition (the platform declined the attribute) and yields an empty slice;
// so does any other read failure, since a vanished subtree is equivalent to
// an empty one for traversal purposes.
func Children(in platform.Introspector, node platform.NodeRef) []platform.NodeRef {
	kids, err := in.Children(node)
	if err != nil {
		return nil
	}
	return kids
}

// FindFirst walks the tree depth-first pre-order from root and returns the
// first node matching pred. Traversal stops at maxDepth levels below root,
// skips nodes already visited (cycle guard keyed by identity token), and
// aborts between nodes when ctx is cancelled, returning whatever had been
// found so far — which for FindFirst is nothing, hence ok=false.
func FindFirst(ctx context.Context, in platform.Introspector, root platform.NodeRef, pred Predicate, maxDepth int) (Match, bool) {
	if root == nil {
		return Match{}, false
	}
	visited := make(map[uint64]bool)
	return findFirst(ctx, in, root, pred, maxDepth, visited)
}

func findFirst(ctx context.Context, in platform.Introspector, node platform.NodeRef, pred Predicate, depth int, visited map[uint64]bool) (Match, bool) {
	if depth < 0 || ctx.Err() != nil {
		return Match{}, false
	}
	tok := node.Token()
	if visited[tok] {
		return Match{}, false
	}
	visited[tok] = true

	attrs, err := in.Attributes(node)
	if err == nil && pred(attrs) {
		return Match{Ref: node, Attrs: attrs}, true
	}

	for _, kid := range Children(in, node) {
		if m, ok := findFirst(ctx, in, kid, pred, depth-1, visited); ok {
			return m, true
		}
		if ctx.Err() != nil {
			return Match{}, false
		}
	}
	return Match{}, false
}

// CollectMatches walks like FindFirst but gathers every matching node, in
// pre-order. Cancellation returns the matches collected so far.
func CollectMatches(ctx context.Context, in platform.Introspector, root platform.NodeRef, pred Predicate, maxDepth int) []Match {
	if root == nil {
		return nil
	}
	visited := make(map[uint64]bool)
	var out []Match
	collect(ctx, in, root, pred, maxDepth, visited, &out)
	return out
}

func collect(ctx context.Context, in platform.Introspector, node platform.NodeRef, pred Predicate, depth int, visited map[uint64]bool, out *[]Match) {
	if depth < 0 || ctx.Err() != nil {
		return
	}
	tok := node.Token()
	if visited[tok] {
		return
	}
	visited[tok] = true

	attrs, err := in.Attributes(node)
	if err == nil && pred(attrs) {
		*out = append(*out, Match{Ref: node, Attrs: attrs})
	}

	for _, kid := range Children(in, node) {
		collect(ctx, in, kid, pred, depth-1, visited, out)
	}
}

// IsExpected reports whether err is one of the traversal conditions that
// should not be logged (missing attributes, cancellation).
func IsExpected(err error) bool {
	return errors.Is(err, platform.ErrAttributeUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

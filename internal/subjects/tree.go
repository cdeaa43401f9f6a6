// Package subjects holds the subject taxonomy: an immutable in-memory tree
// with precomputed descendant intervals, the hierarchy aggregation engine,
// and the feed loader that refreshes the stored taxonomy.
package subjects

import (
	"fmt"
	"sort"
	"strings"

	"caseboard/internal/domain"
)

type treeNode struct {
	domain.SubjectNode
	children []int
	// enter/exit index the dfs order slice; a node's subtree occupies
	// dfs[enter..exit] inclusive.
	enter int
	exit  int
}

// Tree is the subject taxonomy indexed for O(subtree) descendant expansion
// without recursive queries. It is built once from the stored nodes and never
// mutated; reloads build a replacement.
type Tree struct {
	nodes []treeNode
	index map[int]int
	roots []int
	dfs   []int
}

// NewTree indexes the stored taxonomy. Nodes referencing a missing parent
// are rejected; cycles surface as unreachable nodes.
func NewTree(nodes []domain.SubjectNode) (*Tree, error) {
	t := &Tree{
		nodes: make([]treeNode, len(nodes)),
		index: make(map[int]int, len(nodes)),
	}
	for i, n := range nodes {
		if _, dup := t.index[n.Code]; dup {
			return nil, fmt.Errorf("duplicate subject code %d", n.Code)
		}
		t.nodes[i] = treeNode{SubjectNode: n}
		t.index[n.Code] = i
	}
	for i, n := range t.nodes {
		if n.ParentCode == nil {
			t.roots = append(t.roots, i)
			continue
		}
		parent, ok := t.index[*n.ParentCode]
		if !ok {
			return nil, fmt.Errorf("subject %d references missing parent %d", n.Code, *n.ParentCode)
		}
		t.nodes[parent].children = append(t.nodes[parent].children, i)
	}

	for _, n := range t.nodes {
		sort.Slice(n.children, func(a, b int) bool {
			return t.nodes[n.children[a]].Name < t.nodes[n.children[b]].Name
		})
	}
	sort.Slice(t.roots, func(a, b int) bool {
		return t.nodes[t.roots[a]].Name < t.nodes[t.roots[b]].Name
	})

	// Iterative DFS assigning subtree intervals over the visit order.
	t.dfs = make([]int, 0, len(t.nodes))
	var stack []int
	for i := len(t.roots) - 1; i >= 0; i-- {
		stack = append(stack, t.roots[i])
	}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		t.nodes[idx].enter = len(t.dfs)
		t.dfs = append(t.dfs, idx)
		children := t.nodes[idx].children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	if len(t.dfs) != len(t.nodes) {
		return nil, fmt.Errorf("subject taxonomy contains a cycle (%d of %d nodes reachable)", len(t.dfs), len(t.nodes))
	}
	t.fillExits()
	return t, nil
}

// fillExits computes each node's subtree end as the max enter among its
// descendants, walking the dfs order backwards.
func (t *Tree) fillExits() {
	for i := len(t.dfs) - 1; i >= 0; i-- {
		idx := t.dfs[i]
		exit := t.nodes[idx].enter
		for _, child := range t.nodes[idx].children {
			if t.nodes[child].exit > exit {
				exit = t.nodes[child].exit
			}
		}
		t.nodes[idx].exit = exit
	}
}

// Len returns the number of taxonomy nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Node looks up one taxonomy node by code.
func (t *Tree) Node(code int) (domain.SubjectNode, error) {
	idx, ok := t.index[code]
	if !ok {
		return domain.SubjectNode{}, fmt.Errorf("%w: %d", domain.ErrNodeNotFound, code)
	}
	return t.nodes[idx].SubjectNode, nil
}

// HasChildren reports whether the code has at least one child. Unknown codes
// report false.
func (t *Tree) HasChildren(code int) bool {
	idx, ok := t.index[code]
	return ok && len(t.nodes[idx].children) > 0
}

// Children returns the direct children of parent, or the root nodes when
// parent is nil, name-ordered.
func (t *Tree) Children(parent *int) ([]domain.SubjectNode, error) {
	indices := t.roots
	if parent != nil {
		idx, ok := t.index[*parent]
		if !ok {
			return nil, fmt.Errorf("%w: %d", domain.ErrNodeNotFound, *parent)
		}
		indices = t.nodes[idx].children
	}
	out := make([]domain.SubjectNode, len(indices))
	for i, idx := range indices {
		out[i] = t.nodes[idx].SubjectNode
	}
	return out, nil
}

// Path returns the chain from the root down to code, inclusive.
func (t *Tree) Path(code int) ([]domain.SubjectNode, error) {
	idx, ok := t.index[code]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrNodeNotFound, code)
	}
	var reversed []domain.SubjectNode
	for {
		n := t.nodes[idx]
		reversed = append(reversed, n.SubjectNode)
		if n.ParentCode == nil {
			break
		}
		idx = t.index[*n.ParentCode]
	}
	path := make([]domain.SubjectNode, len(reversed))
	for i, n := range reversed {
		path[len(reversed)-1-i] = n
	}
	return path, nil
}

// Descendants returns the codes of the subtree rooted at code, including
// code itself. Unknown codes yield just themselves so stale selections still
// match their own links.
func (t *Tree) Descendants(code int) []int {
	idx, ok := t.index[code]
	if !ok {
		return []int{code}
	}
	n := t.nodes[idx]
	out := make([]int, 0, n.exit-n.enter+1)
	for _, di := range t.dfs[n.enter : n.exit+1] {
		out = append(out, t.nodes[di].Code)
	}
	return out
}

// ExpandSubjects resolves a selection to the deduplicated code set, with
// descendants when requested. Implements the predicate builder's expander.
func (t *Tree) ExpandSubjects(codes []int, includeDescendants bool) []int {
	seen := make(map[int]bool, len(codes))
	var out []int
	add := func(code int) {
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	for _, code := range codes {
		if !includeDescendants {
			add(code)
			continue
		}
		for _, c := range t.Descendants(code) {
			add(c)
		}
	}
	return out
}

// searchMinLength is the shortest term Search accepts; shorter terms would
// match most of the taxonomy.
const searchMinLength = 2

// searchDefaultLimit caps results when the caller supplies no positive limit.
const searchDefaultLimit = 20

// Search matches nodes by name, accent- and case-insensitively. Prefix
// matches rank before substring matches; within each group nodes order by
// level then name. Terms shorter than two characters return nothing, and a
// non-positive limit falls back to the default cap.
func (t *Tree) Search(term string, limit int) []domain.SubjectNode {
	if limit <= 0 {
		limit = searchDefaultLimit
	}
	term = strings.TrimSpace(term)
	if len([]rune(term)) < searchMinLength {
		return nil
	}
	folded := domain.FoldText(term)

	var prefix, substring []domain.SubjectNode
	for _, n := range t.nodes {
		name := domain.FoldText(n.Name)
		switch {
		case strings.HasPrefix(name, folded):
			prefix = append(prefix, n.SubjectNode)
		case strings.Contains(name, folded):
			substring = append(substring, n.SubjectNode)
		}
	}
	order := func(nodes []domain.SubjectNode) {
		sort.Slice(nodes, func(a, b int) bool {
			if nodes[a].Level != nodes[b].Level {
				return nodes[a].Level < nodes[b].Level
			}
			return nodes[a].Name < nodes[b].Name
		})
	}
	order(prefix)
	order(substring)

	out := append(prefix, substring...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

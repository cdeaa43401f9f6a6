package subjects

import (
	"context"
	"sort"

	"caseboard/internal/analytics"
	"caseboard/internal/domain"
	"caseboard/internal/query"
	"caseboard/internal/repository"
)

const topChildrenLimit = 5

// Engine answers hierarchy requests: drill-down child counts with subtree
// rollup and per-node summaries. Rollups come from one direct-count query
// plus an in-memory pass over the precomputed tree, never a recursive query.
type Engine struct {
	tree      *Tree
	subjects  repository.SubjectRepository
	builder   *query.Builder
	analytics *analytics.Engine
}

// NewEngine creates a hierarchy engine over an indexed tree.
func NewEngine(tree *Tree, subjects repository.SubjectRepository, builder *query.Builder, analytics *analytics.Engine) *Engine {
	return &Engine{tree: tree, subjects: subjects, builder: builder, analytics: analytics}
}

// Tree exposes the indexed taxonomy for path and search lookups.
func (e *Engine) Tree() *Tree { return e.tree }

// ChildrenWithRollup returns the direct children of parent (roots when nil),
// each with the case count of its whole subtree under the filters. A subject
// selection in the filters restricts which descendants contribute; children
// entirely outside the selection are dropped.
func (e *Engine) ChildrenWithRollup(ctx context.Context, parent *int, f domain.FilterSet) ([]domain.SubjectChildCount, error) {
	children, err := e.tree.Children(parent)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return []domain.SubjectChildCount{}, nil
	}

	// Subject scoping happens here against the tree, so the case predicate
	// must not apply it a second time.
	prepared, err := e.builder.Prepare(f.WithoutSubjects())
	if err != nil {
		return nil, err
	}
	pred, err := prepared.Predicate(domain.TableNewCases)
	if err != nil {
		return nil, err
	}

	var selected map[int]bool
	if len(f.Subjects) > 0 {
		selected = make(map[int]bool)
		for _, code := range e.tree.ExpandSubjects(f.Subjects, f.IncludeDescendants) {
			selected[code] = true
		}
	}

	perChild := make([][]int, len(children))
	var all []int
	for i, child := range children {
		for _, code := range e.tree.Descendants(child.Code) {
			if selected != nil && !selected[code] {
				continue
			}
			perChild[i] = append(perChild[i], code)
			all = append(all, code)
		}
	}

	counts, err := e.subjects.DirectCaseCounts(ctx, all, pred)
	if err != nil {
		return nil, err
	}

	out := make([]domain.SubjectChildCount, 0, len(children))
	for i, child := range children {
		if selected != nil && len(perChild[i]) == 0 {
			continue
		}
		total := 0
		for _, code := range perChild[i] {
			total += counts[code]
		}
		out = append(out, domain.SubjectChildCount{
			Code:        child.Code,
			Name:        child.Name,
			Count:       total,
			HasChildren: e.tree.HasChildren(child.Code),
		})
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Name < out[b].Name
	})
	return out, nil
}

// NodeSummary aggregates one node's whole subtree: per-table KPIs, the top
// child subtrees by case count, and the timeline, all under the caller's
// filters rescoped to the node.
func (e *Engine) NodeSummary(ctx context.Context, code int, f domain.FilterSet, gran domain.Granularity) (domain.NodeSummary, error) {
	node, err := e.tree.Node(code)
	if err != nil {
		return domain.NodeSummary{}, err
	}

	scoped := f.WithoutSubjects()
	scoped.Subjects = []int{code}
	scoped.IncludeDescendants = true

	kpis, err := e.analytics.KPIs(ctx, scoped)
	if err != nil {
		return domain.NodeSummary{}, err
	}
	timeline, err := e.analytics.Timeline(ctx, scoped, gran, nil)
	if err != nil {
		return domain.NodeSummary{}, err
	}
	topChildren, err := e.ChildrenWithRollup(ctx, &code, f.WithoutSubjects())
	if err != nil {
		return domain.NodeSummary{}, err
	}
	if len(topChildren) > topChildrenLimit {
		topChildren = topChildren[:topChildrenLimit]
	}

	return domain.NodeSummary{
		Code:        node.Code,
		Name:        node.Name,
		KPIs:        kpis,
		TopChildren: topChildren,
		Timeline:    timeline,
	}, nil
}

package template

import (
	"fmt"
	"sort"
)

// collectRefs walks a value and returns every Ref/GetAtt/Sub target it
// mentions, in no particular order.
func collectRefs(v Value) []string {
	var refs []string
	walkRefs(v, func(target string) {
		refs = append(refs, target)
	})
	return refs
}

func walkRefs(v Value, visit func(string)) {
	switch val := v.(type) {
	case Ref:
		visit(val.Target)
	case GetAtt:
		visit(val.LogicalID)
	case Sub:
		for _, part := range parseSub(val.Template) {
			walkRefs(part, visit)
		}
	case Join:
		for _, part := range val.Parts {
			walkRefs(part, visit)
		}
	case Map:
		for _, nested := range val {
			walkRefs(nested, visit)
		}
	case List:
		for _, nested := range val {
			walkRefs(nested, visit)
		}
	}
}

// RefGraph is the dependency graph over logical ids: an edge A -> B means
// resource A references resource B (intrinsics or DependsOn).
type RefGraph struct {
	edges map[string][]string
	order []string
}

// NewRefGraph derives the dependency graph from a template's resources.
func NewRefGraph(t *Template) *RefGraph {
	g := &RefGraph{edges: make(map[string][]string), order: t.ResourceIDs}
	for _, id := range t.ResourceIDs {
		res := t.Resources[id]
		targets := collectRefs(res.Properties)
		targets = append(targets, res.DependsOn...)

		seen := make(map[string]bool)
		for _, target := range targets {
			if _, ok := t.Resources[target]; !ok {
				continue // parameters and pseudo refs are not graph edges
			}
			if target == id || seen[target] {
				continue
			}
			seen[target] = true
			g.edges[id] = append(g.edges[id], target)
		}
		sort.Strings(g.edges[id])
	}
	return g
}

// Dependencies returns the resource ids a logical id references.
func (g *RefGraph) Dependencies(id string) []string {
	return g.edges[id]
}

// TopologicalOrder returns resources in creation order (dependencies
// first). An error is returned when the graph contains a cycle.
func (g *RefGraph) TopologicalOrder() ([]string, error) {
	visited := make(map[string]bool)
	tempMark := make(map[string]bool)
	var sorted []string
	var cycleErr error

	var visit func(id string)
	visit = func(id string) {
		if tempMark[id] {
			cycleErr = fmt.Errorf("dependency cycle involving %q", id)
			return
		}
		if visited[id] {
			return
		}
		tempMark[id] = true
		for _, dep := range g.edges[id] {
			visit(dep)
			if cycleErr != nil {
				return
			}
		}
		tempMark[id] = false
		visited[id] = true
		sorted = append(sorted, id)
	}

	for _, id := range g.order {
		visit(id)
		if cycleErr != nil {
			return nil, cycleErr
		}
	}
	return sorted, nil
}

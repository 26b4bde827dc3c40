package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/crpq/internal/ontology"
)

// CycleWarning reports a subsumption cycle: every member is entailed to be
// equivalent to every other.
//
// Cycles are warnings, not errors. They are legal in DL-Lite_R and the
// rewriter terminates on them, but an unintended cycle collapses a
// hierarchy and usually means an axiom points the wrong way.
type CycleWarning struct {
	Kind    string   `json:"kind"`    // "class" or "property"
	Path    []string `json:"path"`    // ["A", "B", "A"]
	Message string   `json:"message"` // Human-readable description
}

// FindSubsumptionCycles reports every cycle among asserted subsumptions.
//
// The class graph has an edge Sub → Sup for each SubClassOf, ∃r → C for
// each Domain(r, C) and ∃r⁻ → C for each Range(r, C). The property graph
// has an edge Sub → Sup for each SubPropertyOf. InverseOf declarations are
// equivalences by intent and add no edges.
//
// The algorithm:
//  1. Build both graphs from the axioms
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1, or with a self-loop
//
// Output is deterministic: warnings are sorted by kind, then by path.
func FindSubsumptionCycles(o *ontology.Ontology) []CycleWarning {
	classes := make(subsumptionGraph)
	properties := make(subsumptionGraph)

	for _, ax := range o.Axioms() {
		switch a := ax.(type) {
		case ontology.SubClassOf:
			classes.add(a.Sub.String(), a.Sup.String())
		case ontology.Domain:
			classes.add(ontology.Some(a.Role).String(), a.Class.String())
		case ontology.Range:
			classes.add(ontology.Some(a.Role.Inv()).String(), a.Class.String())
		case ontology.SubPropertyOf:
			properties.add(a.Sub.String(), a.Sup.String())
		}
	}

	warnings := []CycleWarning{}
	for _, g := range []struct {
		kind  string
		graph subsumptionGraph
	}{{"class", classes}, {"property", properties}} {
		for _, scc := range tarjanSCC(g.graph) {
			if len(scc) > 1 || hasSelfLoop(scc[0], g.graph) {
				warnings = append(warnings, cycleWarning(g.kind, scc, g.graph))
			}
		}
	}
	return warnings
}

// subsumptionGraph maps a node to its direct subsumers, sorted and unique.
type subsumptionGraph map[string][]string

func (g subsumptionGraph) add(sub, sup string) {
	if _, ok := g[sup]; !ok {
		g[sup] = []string{}
	}
	if !slices.Contains(g[sub], sup) {
		g[sub] = append(g[sub], sup)
		slices.Sort(g[sub])
	}
}

func (g subsumptionGraph) nodes() []string {
	nodes := make([]string, 0, len(g))
	for n := range g {
		nodes = append(nodes, n)
	}
	slices.Sort(nodes)
	return nodes
}

func hasSelfLoop(node string, g subsumptionGraph) bool {
	return slices.Contains(g[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order, and each SCC is returned sorted, so
// the result is deterministic. SCCs come out sorted by first member.
func tarjanSCC(g subsumptionGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root: pop its component
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, node := range g.nodes() {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	slices.SortFunc(sccs, func(a, b []string) int { return strings.Compare(a[0], b[0]) })
	return sccs
}

func cycleWarning(kind string, scc []string, g subsumptionGraph) CycleWarning {
	path := cyclePath(scc, g)
	return CycleWarning{
		Kind:    kind,
		Path:    path,
		Message: fmt.Sprintf("%s subsumption cycle: %s", kind, strings.Join(path, " ⊑ ")),
	}
}

// cyclePath walks from the smallest member of scc along edges inside the
// SCC, always taking the smallest unvisited successor, until it can close
// the cycle back at the start.
func cyclePath(scc []string, g subsumptionGraph) []string {
	start := scc[0]
	if len(scc) == 1 {
		return []string{start, start}
	}

	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}

	path := []string{start}
	visited := map[string]bool{start: true}
	for current := start; ; {
		next := ""
		for _, w := range g[current] {
			if members[w] && !visited[w] {
				next = w
				break
			}
		}
		if next == "" {
			if slices.Contains(g[current], start) {
				path = append(path, start)
			}
			return path
		}
		visited[next] = true
		path = append(path, next)
		current = next
	}
}

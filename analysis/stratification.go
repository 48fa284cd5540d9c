// Copyright 2026 The JudgeD Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package analysis computes a stratification of a JudgeD program's
// predicate dependency graph, so the resolver can evaluate negated
// subgoals to completion before the stratum that depends on them runs.
//
// Stratify never sees a whole program: engine.Resolver restricts the
// clause list to a single query's dependency closure before calling in
// (engine.Resolver.dependencies), so the graph here is always small and
// query-shaped. That shape is why stratification is a single depth-first
// pass (Tarjan's algorithm) rather than Kosaraju's forward-pass-then-
// reverse-graph-pass: one pass over a small, goal-restricted graph finds
// each stratum and leaves it already dependency-first ordered, so there
// is no separate topological-sort step to run afterward.
package analysis

import (
	"fmt"

	"github.com/utdb/judged/kb"
	"github.com/utdb/judged/term"
)

// edgeMap represents the dependencies of one predicate: the set of
// predicate symbols it depends on, each tagged with whether that
// dependency is negated. If both a positive and a negated edge exist to
// the same target, only the negated one is kept (it is the stronger
// constraint for stratification purposes).
type edgeMap map[term.PredicateSym]bool

// depGraph maps each predicate symbol to its edge map.
type depGraph map[term.PredicateSym]edgeMap

// Nodeset represents a set of predicate symbols, typically one stratum or
// one strongly-connected component of the dependency graph.
type Nodeset map[term.PredicateSym]struct{}

// ErrUnstratifiedNegation is returned when no valid stratification exists,
// i.e. some predicate negatively depends on itself, directly or
// transitively.
var ErrUnstratifiedNegation = fmt.Errorf("unstratified negation")

func makeDepGraph(clauses []kb.Clause) depGraph {
	dep := make(depGraph)
	for _, clause := range clauses {
		s := clause.Head.Predicate
		dep.initNode(s)
		for _, lit := range clause.Body {
			if lit.Negated {
				dep.addEdge(s, lit.Predicate, true)
			} else {
				dep.addEdge(s, lit.Predicate, false)
			}
		}
	}
	return dep
}

// Stratify checks whether the rules defining the given clauses can be
// stratified. It returns the strongly-connected components, already in
// dependency-first order (every dependency of a stratum that lies outside
// it is at a strictly earlier index; mutually recursive predicates share
// one stratum), and a map from predicate
// symbol to stratum index. An empty stratum list with a non-nil error
// means no valid stratification exists.
func Stratify(clauses []kb.Clause) ([]Nodeset, map[term.PredicateSym]int, error) {
	dep := makeDepGraph(clauses)
	strata := dep.stronglyConnectedStrata()
	predToStratum := make(map[term.PredicateSym]int)
	for i, c := range strata {
		for sym := range c {
			predToStratum[sym] = i
		}
	}
	for i, c := range strata {
		for sym := range c {
			for dest, negated := range dep[sym] {
				if !negated {
					continue
				}
				if destStratum, ok := predToStratum[dest]; ok && destStratum == i {
					return nil, nil, fmt.Errorf("%w: predicate %v depends negatively on itself within the same stratum",
						ErrUnstratifiedNegation, sym)
				}
			}
		}
	}
	return strata, predToStratum, nil
}

func (dep depGraph) initNode(src term.PredicateSym) {
	if _, ok := dep[src]; !ok {
		dep[src] = make(edgeMap)
	}
}

func (dep depGraph) addEdge(src, dest term.PredicateSym, negated bool) {
	edges := dep[src]
	if negated {
		edges[dest] = true
		return
	}
	if wasNegated, ok := edges[dest]; !ok || !wasNegated {
		edges[dest] = false
	}
}

// tarjan carries the bookkeeping for a single depth-first pass computing
// strongly-connected components via Tarjan's algorithm: a discovery index
// and low-link value per node, plus the stack of nodes on the current
// path. A component closes (lowlink == index) exactly when the search has
// returned from every node it can reach, at which point every node still
// above it on the path stack belongs to the same component.
type tarjan struct {
	dep     depGraph
	index   map[term.PredicateSym]int
	lowlink map[term.PredicateSym]int
	onStack map[term.PredicateSym]bool
	path    []term.PredicateSym
	counter int
	strata  []Nodeset
}

// stronglyConnectedStrata runs Tarjan's algorithm over dep. Because a
// component only closes after every node it reaches has also closed,
// components are appended to t.strata in the order their dependencies
// close before they do: the result is already dependency-first, with no
// separate topological sort needed afterward.
func (dep depGraph) stronglyConnectedStrata() []Nodeset {
	t := &tarjan{
		dep:     dep,
		index:   make(map[term.PredicateSym]int),
		lowlink: make(map[term.PredicateSym]int),
		onStack: make(map[term.PredicateSym]bool),
	}
	for node := range dep {
		if _, ok := t.index[node]; !ok {
			t.visit(node)
		}
	}
	return t.strata
}

func (t *tarjan) visit(v term.PredicateSym) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.path = append(t.path, v)
	t.onStack[v] = true

	for w := range t.dep[v] {
		if _, ok := t.index[w]; !ok {
			t.visit(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] && t.index[w] < t.lowlink[v] {
			t.lowlink[v] = t.index[w]
		}
	}

	if t.lowlink[v] != t.index[v] {
		return
	}
	component := make(Nodeset)
	for {
		w := t.path[len(t.path)-1]
		t.path = t.path[:len(t.path)-1]
		t.onStack[w] = false
		component[w] = struct{}{}
		if w == v {
			break
		}
	}
	t.strata = append(t.strata, component)
}

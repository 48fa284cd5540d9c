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

package engine

import (
	"fmt"
	"sort"

	log "github.com/golang/glog"

	"github.com/utdb/judged/analysis"
	"github.com/utdb/judged/kb"
	"github.com/utdb/judged/sentence"
	"github.com/utdb/judged/term"
)

// Limits bounds the resolver's work, so that a pathological or unsafe
// program aborts with ErrResourceExhausted instead of looping forever
type Limits struct {
	// MaxFacts caps the total number of facts across every table for one
	// query. Zero means unlimited.
	MaxFacts int
	// MaxRounds caps the number of fixpoint rounds run for any single
	// stratum. Zero means unlimited. This is the backstop for programs that
	// violate the range-restriction assumption Datalog termination relies
	// on.
	MaxRounds int
}

// DefaultLimits is generous but finite: big enough that no well-formed
// Datalog program trips it, small enough that a runaway program fails fast
// instead of exhausting memory.
var DefaultLimits = Limits{MaxFacts: 1_000_000, MaxRounds: 10_000}

// Resolver evaluates queries against a knowledge base top-down: from the
// query literal, it determines the set of predicates the query actually
// depends on, stratifies just that subset, and drives each stratum's
// tables to a fixpoint before moving to the next.
type Resolver struct {
	KB     *kb.KnowledgeBase
	Limits Limits
}

// New constructs a Resolver over kb with the given limits.
func New(k *kb.KnowledgeBase, limits Limits) *Resolver {
	return &Resolver{KB: k, Limits: limits}
}

// Query evaluates goal and returns every (answer_substitution, sentence)
// pair such that goal·θ has a valid SLDNF proof whose clause-sentence
// conjunction simplifies to that sentence.
// Answers are returned in a deterministic order derived from clause
// declaration order and variable-binding discovery order.
func (r *Resolver) Query(goal term.Literal) ([]kb.Answer, error) {
	if ext, ok := r.KB.Extension(goal.Predicate); ok {
		results, err := r.evalExtension(ext, goal, term.Map{})
		if err != nil {
			return nil, err
		}
		var answers []kb.Answer
		for _, res := range results {
			answers = append(answers, kb.Answer{Subst: restrict(res.subst, goal), Sentence: res.sent})
		}
		return answers, nil
	}
	needed := r.dependencies(goal.Predicate)
	clauses := r.clausesFor(needed)
	strata, predToStratum, err := analysis.Stratify(clauses)
	if err != nil {
		return nil, err
	}
	layers := orderedLayers(strata, predToStratum, needed)

	t := newTables()
	for _, layer := range layers {
		if err := r.evalStratum(t, layer, clauses); err != nil {
			return nil, err
		}
	}

	entry := t.getOrCreate(goal.Predicate)
	entry.complete = true
	var answers []kb.Answer
	for _, fact := range entry.facts {
		subst, err := term.Unify(atomToTerm(goal), atomToTerm(fact.Atom), term.Map{})
		if err != nil {
			continue
		}
		answers = append(answers, kb.Answer{Subst: restrict(subst, goal), Sentence: fact.Sentence})
	}
	return answers, nil
}

// dependencies returns every predicate symbol transitively reachable from
// start via clause bodies: only predicates the query can actually touch
// get tabled.
func (r *Resolver) dependencies(start term.PredicateSym) map[term.PredicateSym]bool {
	needed := map[term.PredicateSym]bool{start: true}
	worklist := []term.PredicateSym{start}
	for len(worklist) > 0 {
		sym := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		clauses, _ := r.KB.Lookup(sym)
		for _, c := range clauses {
			for _, lit := range c.Body {
				if !needed[lit.Predicate] {
					needed[lit.Predicate] = true
					worklist = append(worklist, lit.Predicate)
				}
			}
		}
	}
	return needed
}

// clausesFor gathers the clauses of every needed predicate. Predicates are
// visited in sorted order so the combined list, and with it answer
// discovery order, is the same on every run.
func (r *Resolver) clausesFor(needed map[term.PredicateSym]bool) []kb.Clause {
	syms := make([]term.PredicateSym, 0, len(needed))
	for sym := range needed {
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool {
		if syms[i].Symbol != syms[j].Symbol {
			return syms[i].Symbol < syms[j].Symbol
		}
		return syms[i].Arity < syms[j].Arity
	})
	var out []kb.Clause
	for _, sym := range syms {
		clauses, _ := r.KB.Lookup(sym)
		out = append(out, clauses...)
	}
	return out
}

// orderedLayers turns Stratify's topologically-sorted strata into a list of
// predicate-symbol layers, restricted to needed, dropping strata that
// contribute nothing to this query.
func orderedLayers(strata []analysis.Nodeset, predToStratum map[term.PredicateSym]int, needed map[term.PredicateSym]bool) [][]term.PredicateSym {
	layers := make([][]term.PredicateSym, len(strata))
	for sym := range needed {
		idx, ok := predToStratum[sym]
		if !ok {
			continue // predicate occurs in no clause of this query's closure: nothing to fix-point.
		}
		layers[idx] = append(layers[idx], sym)
	}
	var out [][]term.PredicateSym
	for _, layer := range layers {
		if len(layer) > 0 {
			out = append(out, layer)
		}
	}
	return out
}

// evalStratum drives every predicate in layer to a fixpoint: repeatedly
// resolving each of their clauses against the current (possibly still
// growing, for recursive predicates within this stratum) tables, until a
// round adds no new fact, then freezes
// their table entries.
func (r *Resolver) evalStratum(t *tables, layer []term.PredicateSym, allClauses []kb.Clause) error {
	inLayer := make(map[term.PredicateSym]bool, len(layer))
	for _, sym := range layer {
		inLayer[sym] = true
		t.getOrCreate(sym) // present-but-incomplete: lower strata's completed lookups still resolve fine.
	}
	var layerClauses []kb.Clause
	for _, c := range allClauses {
		if inLayer[c.Head.Predicate] {
			layerClauses = append(layerClauses, c)
		}
	}

	rounds := 0
	for {
		rounds++
		if r.Limits.MaxRounds > 0 && rounds > r.Limits.MaxRounds {
			return fmt.Errorf("%w: stratum %v did not reach a fixpoint within %d rounds", ErrResourceExhausted, layer, r.Limits.MaxRounds)
		}
		changed := false
		for activation, clause := range layerClauses {
			facts, err := r.resolveClause(t, clause, activation)
			if err != nil {
				return err
			}
			entry := t.getOrCreate(clause.Head.Predicate)
			for _, f := range facts {
				if entry.add(f, r.KB.Labels().PartitionValues) {
					changed = true
				}
				if r.Limits.MaxFacts > 0 && t.size() > r.Limits.MaxFacts {
					return fmt.Errorf("%w: table size exceeded %d facts", ErrResourceExhausted, r.Limits.MaxFacts)
				}
			}
		}
		log.V(2).Infof("engine: stratum %v round %d, %d facts total", layer, rounds, t.size())
		if !changed {
			break
		}
	}
	for _, sym := range layer {
		t.getOrCreate(sym).complete = true
	}
	return nil
}

// resolveClause resolves clause's body against the current tables and
// returns every ground instance of its head this activation derives: each
// result's sentence is the And of the clause's own sentence and every body
// subgoal's sentence used in this proof.
//
// activation is the clause's position in its stratum's clause list; renaming
// with it standardizes each clause's variables apart from every other
// clause's. Every call starts from an empty substitution, so no binding
// carries over from one fixpoint round into the next.
func (r *Resolver) resolveClause(t *tables, clause kb.Clause, activation int) ([]groundFact, error) {
	vars := clause.Vars()
	rename := term.Rename(vars, activation)
	head := clause.Head.ApplySubst(rename)
	body := make([]term.Literal, len(clause.Body))
	for i, lit := range clause.Body {
		body[i] = lit.ApplySubst(rename)
	}
	clauseSentence := clause.Sentence

	type partial struct {
		subst term.Map
		sent  sentence.Sentence
	}
	sols := []partial{{subst: term.Map{}, sent: sentence.True}}
	for _, lit := range body {
		var next []partial
		for _, sol := range sols {
			extensions, err := r.resolveLiteral(t, lit, sol.subst)
			if err != nil {
				return nil, err
			}
			for _, ext := range extensions {
				merged := sentence.AndWith(sol.sent, ext.sent, r.KB.Labels().PartitionValues)
				if merged.IsFalse() {
					continue
				}
				next = append(next, partial{subst: ext.subst, sent: merged})
			}
		}
		sols = next
		if len(sols) == 0 {
			return nil, nil
		}
	}

	var out []groundFact
	for _, sol := range sols {
		groundHead := head.ApplySubst(sol.subst)
		if !groundHead.Ground() {
			continue // non-range-restricted clause: head var never bound by the body.
		}
		s := sentence.AndWith(clauseSentence, sol.sent, r.KB.Labels().PartitionValues)
		if s.IsFalse() {
			continue // the clause's own sentence rules out every world this proof relied on.
		}
		out = append(out, groundFact{Atom: groundHead, Sentence: s})
	}
	return out, nil
}

type litExtension struct {
	subst term.Map
	sent  sentence.Sentence
}

// resolveLiteral resolves one body literal against subst, consulting the
// extension registry before the clause store, and dispatching negative
// literals to evalNegation.
func (r *Resolver) resolveLiteral(t *tables, lit term.Literal, subst term.Map) ([]litExtension, error) {
	applied := lit.ApplySubst(subst)
	if lit.Negated {
		return r.evalNegation(t, applied, subst)
	}
	if ext, ok := r.KB.Extension(lit.Predicate); ok {
		return r.evalExtension(ext, applied, subst)
	}
	if _, ok := r.KB.Lookup(lit.Predicate); !ok {
		log.Warningf("%v: predicate %v has no clauses and no extension, treating as empty", kb.ErrUnknownPredicate, lit.Predicate)
	}
	entry := t.getOrCreate(lit.Predicate)
	var out []litExtension
	for _, fact := range entry.facts {
		extended, err := term.Unify(atomToTerm(applied), atomToTerm(fact.Atom), subst)
		if err != nil {
			continue
		}
		out = append(out, litExtension{subst: extended, sent: fact.Sentence})
	}
	return out, nil
}

// evalExtension calls ext for a positive literal under its pure-provider
// contract, and wraps any error as ExtensionFailure.
func (r *Resolver) evalExtension(ext kb.Extension, applied term.Literal, subst term.Map) ([]litExtension, error) {
	var out []litExtension
	err := ext.Solve(applied, func(ans kb.Answer) bool {
		extended, err := term.Unify(atomToTerm(applied), atomToTerm(applied.ApplySubst(ans.Subst)), subst)
		if err != nil {
			return true
		}
		out = append(out, litExtension{subst: extended, sent: ans.Sentence})
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("%w: extension %q on %v: %v", kb.ErrExtensionFailure, ext.Name(), applied, err)
	}
	return out, nil
}

// evalNegation resolves ¬L by evaluating L to completion (guaranteed
// complete, since L's predicate is in a strictly lower stratum) and
// succeeding with sentence Not(OR of sentences over every matching answer
// of the now fully-ground, by the safety invariant, positive literal),
// failing only when that negation simplifies to False, i.e. the
// disjunction of matches is certainly True.
func (r *Resolver) evalNegation(t *tables, applied term.Literal, subst term.Map) ([]litExtension, error) {
	if !applied.Ground() {
		return nil, fmt.Errorf("%w: negative literal %v is not ground after substitution", kb.ErrUnsafeClause, applied)
	}
	positive := applied.Negate()
	var matchSentences []sentence.Sentence
	if ext, ok := r.KB.Extension(positive.Predicate); ok {
		results, err := r.evalExtension(ext, positive, term.Map{})
		if err != nil {
			return nil, err
		}
		for _, res := range results {
			matchSentences = append(matchSentences, res.sent)
		}
	} else {
		entry := t.getOrCreate(positive.Predicate)
		for _, fact := range entry.facts {
			if atomEquals(fact.Atom, positive) {
				matchSentences = append(matchSentences, fact.Sentence)
			}
		}
	}
	disj := sentence.False
	for _, s := range matchSentences {
		disj = sentence.OrWith(disj, s, r.KB.Labels().PartitionValues)
	}
	negated := sentence.Not(disj)
	if negated.IsFalse() {
		return nil, nil
	}
	return []litExtension{{subst: subst, sent: negated}}, nil
}

// atomToTerm packages a literal as a single Term (a Compound keyed by
// predicate symbol) so term.Unify, built for Term/Term unification, can
// unify two whole literals' argument tuples in one call.
func atomToTerm(lit term.Literal) term.Term {
	return term.Compound{Functor: fmt.Sprintf("%s/%d", lit.Predicate.Symbol, lit.Predicate.Arity), Args: lit.Args}
}

// restrict returns the sub-map of subst whose domain is exactly goal's
// variables, so that Resolver.Query's returned Answer.Subst only mentions
// variables the caller actually asked about, not the proof's internal
// bookkeeping variables.
func restrict(subst term.Map, goal term.Literal) term.Map {
	out := make(term.Map)
	for _, v := range goal.Vars(nil) {
		if t, ok := subst.Get(v); ok {
			out[v] = t.ApplySubst(subst)
		}
	}
	return out
}

// UsesNegation reports whether start's predicate dependency closure
// contains any negated body literal. The exact probability back-end needs
// this to refuse rather than silently mis-describe a proof that relied on
// negation-as-failure's sentence-aware composition.
func UsesNegation(k *kb.KnowledgeBase, start term.PredicateSym) bool {
	seen := map[term.PredicateSym]bool{start: true}
	worklist := []term.PredicateSym{start}
	for len(worklist) > 0 {
		sym := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		clauses, _ := k.Lookup(sym)
		for _, c := range clauses {
			for _, lit := range c.Body {
				if lit.Negated {
					return true
				}
				if !seen[lit.Predicate] {
					seen[lit.Predicate] = true
					worklist = append(worklist, lit.Predicate)
				}
			}
		}
	}
	return false
}

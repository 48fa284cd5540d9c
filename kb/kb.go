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

// Package kb implements JudgeD's knowledge base: an indexed, ordered store
// of clauses keyed by predicate symbol and arity, plus the label partition
// registry and extension registry it exposes to the resolver. Unlike a
// plain fact store, entries here carry bodies and descriptive sentences,
// since the knowledge base holds rules as well as facts.
package kb

import (
	"fmt"

	"github.com/utdb/judged/sentence"
	"github.com/utdb/judged/term"
)

// Clause is a Horn clause annotated with a descriptive sentence.
// A Clause with an empty Body is a fact.
type Clause struct {
	Head     term.Literal
	Body     []term.Literal
	Sentence sentence.Sentence
}

// String implements fmt.Stringer.
func (c Clause) String() string {
	if len(c.Body) == 0 {
		return fmt.Sprintf("%s [%s].", c.Head, c.Sentence)
	}
	return fmt.Sprintf("%s :- %v [%s].", c.Head, c.Body, c.Sentence)
}

// Vars returns every distinct variable appearing anywhere in c.
func (c Clause) Vars() []term.Var {
	var out []term.Var
	out = c.Head.Vars(out)
	for _, lit := range c.Body {
		out = lit.Vars(out)
	}
	return out
}

// Safety checks the clause safety invariant: the head must be positive,
// and every variable appearing in a negative body literal must also appear
// in some positive body literal.
func (c Clause) Safety() error {
	if c.Head.Negated {
		return fmt.Errorf("%w: clause head %v is negated", ErrUnsafeClause, c.Head)
	}
	positive := map[term.Var]bool{}
	for _, lit := range c.Body {
		if !lit.Negated {
			for _, v := range lit.Vars(nil) {
				positive[v] = true
			}
		}
	}
	for _, lit := range c.Body {
		if !lit.Negated {
			continue
		}
		for _, v := range lit.Vars(nil) {
			if !positive[v] {
				return fmt.Errorf("%w: variable %v in negative literal %v of %v is not bound positively",
					ErrUnsafeClause, v, lit, c)
			}
		}
	}
	return nil
}

// KnowledgeBase is a mapping from (predicate_symbol, arity) to an ordered
// list of clauses, plus a label partition registry and an extension
// registry. The zero value is not usable; construct with New.
type KnowledgeBase struct {
	clauses    map[term.PredicateSym][]Clause
	labels     *Labels
	extensions map[term.PredicateSym]Extension
}

// New constructs an empty knowledge base.
func New() *KnowledgeBase {
	return &KnowledgeBase{
		clauses:    make(map[term.PredicateSym][]Clause),
		labels:     NewLabels(),
		extensions: make(map[term.PredicateSym]Extension),
	}
}

// Labels returns the label partition registry backing this knowledge base.
func (kb *KnowledgeBase) Labels() *Labels { return kb.labels }

// Assert appends clause to the indexed list for its head's (symbol, arity),
// after checking the safety invariant. Every label mentioned in the
// clause's sentence is declared on the label registry, so a generator's
// rules (the only place some partitions are ever named) count as having
// declared their values by the time "@uniform" runs over them.
func (kb *KnowledgeBase) Assert(clause Clause) error {
	if err := clause.Safety(); err != nil {
		return err
	}
	for _, l := range clause.Sentence.Labels() {
		kb.labels.declare(l.Partition, l.Value)
	}
	sym := clause.Head.Predicate
	kb.clauses[sym] = append(kb.clauses[sym], clause)
	return nil
}

// Retract removes the first clause structurally matching pattern. It fails
// silently (returns false, no error) if none is found.
func (kb *KnowledgeBase) Retract(pattern Clause) bool {
	sym := pattern.Head.Predicate
	list := kb.clauses[sym]
	for i, c := range list {
		if clauseEquals(c, pattern) {
			kb.clauses[sym] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

func clauseEquals(a, b Clause) bool {
	if len(a.Body) != len(b.Body) || !literalEquals(a.Head, b.Head) || !a.Sentence.Equals(b.Sentence) {
		return false
	}
	for i := range a.Body {
		if !literalEquals(a.Body[i], b.Body[i]) {
			return false
		}
	}
	return true
}

func literalEquals(a, b term.Literal) bool {
	if a.Predicate != b.Predicate || a.Negated != b.Negated || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if !a.Args[i].Equals(b.Args[i]) {
			return false
		}
	}
	return true
}

// ErrUnknownPredicate indicates a lookup miss: the predicate has no clauses
// and no extension. This is a warning, not fatal: callers should treat it
// as "empty answer set", not abort the query.
var ErrUnknownPredicate = fmt.Errorf("unknown predicate")

// ErrUnsafeClause indicates a clause violating the body-safety invariant.
var ErrUnsafeClause = fmt.Errorf("unsafe clause")

// Lookup returns every clause whose head might unify with lit: a coarse
// filter by (symbol, arity) only, with the resolver performing the actual
// unification. ok is false (with a nil slice) if no clause was ever
// asserted for sym, corresponding to ErrUnknownPredicate; the extension
// registry is not consulted, and a predicate whose clauses were all
// retracted reports ok with an empty slice.
func (kb *KnowledgeBase) Lookup(sym term.PredicateSym) (clauses []Clause, ok bool) {
	clauses, ok = kb.clauses[sym]
	return clauses, ok
}

// Predicates lists every predicate symbol that has had a clause asserted,
// including ones whose clauses have since all been retracted, unordered
// (callers that need determinism should sort).
func (kb *KnowledgeBase) Predicates() []term.PredicateSym {
	out := make([]term.PredicateSym, 0, len(kb.clauses))
	for sym := range kb.clauses {
		out = append(out, sym)
	}
	return out
}

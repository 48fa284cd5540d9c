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

// Package engine implements JudgeD's resolver: a top-down, goal-directed
// SLDNF evaluator with tabling, stratified negation, and sentence
// propagation through resolution.
package engine

import (
	"fmt"
	"hash/fnv"

	"github.com/utdb/judged/sentence"
	"github.com/utdb/judged/term"
)

// groundFact is one derived, fully-ground instance of a predicate, with
// the sentence under which it holds. A table entry is the materialized set
// of ground facts discovered for one predicate: one table per predicate
// symbol, sharded and hashed for dedup the way an in-memory fact store
// shards by predicate symbol. Here "dedup" means "disjoin sentences"
// rather than "drop the duplicate", since the same atom can be derivable
// under more than one sentence.
type groundFact struct {
	Atom     term.Literal
	Sentence sentence.Sentence
}

// tableEntry holds every ground fact discovered so far for one predicate,
// plus a completion flag.
type tableEntry struct {
	facts    []groundFact
	byHash   map[uint64]int // atom hash -> index into facts, for O(1) merge-on-duplicate.
	complete bool
}

func newTableEntry() *tableEntry {
	return &tableEntry{byHash: make(map[uint64]int)}
}

// add records a new ground fact, disjoining its sentence with any existing
// fact with the same atom: duplicate derivations collapse by disjoining
// sentences, then simplifying. It reports whether the table changed, which
// drives the per-stratum fixpoint loop in resolver.go.
func (te *tableEntry) add(fact groundFact, partitionValues sentence.PartitionValues) bool {
	h := atomHash(fact.Atom)
	if i, ok := te.byHash[h]; ok {
		existing := te.facts[i]
		if !atomEquals(existing.Atom, fact.Atom) {
			for j, f := range te.facts {
				if atomEquals(f.Atom, fact.Atom) {
					return te.mergeAt(j, fact, partitionValues)
				}
			}
			te.byHash[h] = len(te.facts)
			te.facts = append(te.facts, fact)
			return true
		}
		return te.mergeAt(i, fact, partitionValues)
	}
	te.byHash[h] = len(te.facts)
	te.facts = append(te.facts, fact)
	return true
}

func (te *tableEntry) mergeAt(i int, fact groundFact, partitionValues sentence.PartitionValues) bool {
	existing := te.facts[i]
	// A sentence that is already one of existing's disjuncts adds no world,
	// so re-deriving the same proof in a later round is not a change.
	pending := []sentence.Sentence{existing.Sentence}
	for len(pending) > 0 {
		s := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if s.Equals(fact.Sentence) {
			return false
		}
		if s.Kind() == sentence.KindOr {
			pending = append(pending, s.Left(), s.Right())
		}
	}
	merged := sentence.OrWith(existing.Sentence, fact.Sentence, partitionValues)
	if merged.Equals(existing.Sentence) {
		return false
	}
	te.facts[i] = groundFact{Atom: existing.Atom, Sentence: merged}
	return true
}

func atomHash(lit term.Literal) uint64 {
	h := fnv.New64a()
	h.Write([]byte(lit.String()))
	return h.Sum64()
}

func atomEquals(a, b term.Literal) bool {
	if a.Predicate != b.Predicate || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if !a.Args[i].Equals(b.Args[i]) {
			return false
		}
	}
	return true
}

// tables is the per-query fixpoint store: a mapping from predicate symbol
// to table entry. A tables value is discarded after its query completes;
// Resolver.Query constructs a fresh one per call, so no answer ever
// survives from one query into the next.
type tables struct {
	byPred map[term.PredicateSym]*tableEntry
}

func newTables() *tables {
	return &tables{byPred: make(map[term.PredicateSym]*tableEntry)}
}

func (t *tables) getOrCreate(sym term.PredicateSym) *tableEntry {
	if e, ok := t.byPred[sym]; ok {
		return e
	}
	e := newTableEntry()
	t.byPred[sym] = e
	return e
}

// size returns the total fact count across all tables, for the
// ResourceExhausted ceiling check.
func (t *tables) size() int {
	n := 0
	for _, e := range t.byPred {
		n += len(e.facts)
	}
	return n
}

// ErrResourceExhausted indicates a table-size or resolution-round ceiling
// was hit.
var ErrResourceExhausted = fmt.Errorf("resource exhausted")

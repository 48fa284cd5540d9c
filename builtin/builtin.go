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

// Package builtin provides an Extension exposing ordering and equality
// comparisons over ground constants: lt, le, gt, ge, eq and ne, each
// arity 2. Values that parse as float64 compare numerically; everything
// else compares lexically, the same two-tier rule a label's declared
// values are compared under nowhere else in this module, kept local to
// this one extension rather than promoted to term.Const itself.
package builtin

import (
	"fmt"
	"strconv"

	"github.com/utdb/judged/kb"
	"github.com/utdb/judged/sentence"
	"github.com/utdb/judged/term"
)

// Name is the extension name a ".extension" or "-e" host command passes to
// core.Core.RegisterExtension / StmtUseExtension.
const Name = "builtin"

// Comparisons is the extension. The zero value is ready to use.
type Comparisons struct{}

// New constructs the extension. Exists for symmetry with other providers
// that need construction-time state; Comparisons carries none.
func New() Comparisons { return Comparisons{} }

// Name implements kb.Extension.
func (Comparisons) Name() string { return Name }

var predicates = []struct {
	sym term.PredicateSym
	cmp func(int) bool
}{
	{term.PredicateSym{Symbol: "lt", Arity: 2}, func(c int) bool { return c < 0 }},
	{term.PredicateSym{Symbol: "le", Arity: 2}, func(c int) bool { return c <= 0 }},
	{term.PredicateSym{Symbol: "gt", Arity: 2}, func(c int) bool { return c > 0 }},
	{term.PredicateSym{Symbol: "ge", Arity: 2}, func(c int) bool { return c >= 0 }},
	{term.PredicateSym{Symbol: "eq", Arity: 2}, func(c int) bool { return c == 0 }},
	{term.PredicateSym{Symbol: "ne", Arity: 2}, func(c int) bool { return c != 0 }},
}

// Predicates implements kb.Extension.
func (Comparisons) Predicates() []term.PredicateSym {
	out := make([]term.PredicateSym, len(predicates))
	for i, p := range predicates {
		out[i] = p.sym
	}
	return out
}

// Solve implements kb.Extension. lit's two arguments must already be
// ground constants; Comparisons performs no unification of its own, since
// a comparison between unbound variables has no single answer to report.
func (c Comparisons) Solve(lit term.Literal, yield func(kb.Answer) bool) error {
	if len(lit.Args) != 2 {
		return fmt.Errorf("builtin: %v: want 2 arguments, got %d", lit.Predicate, len(lit.Args))
	}
	left, ok := lit.Args[0].(term.Const)
	if !ok {
		return fmt.Errorf("builtin: %v: argument 1 (%v) is not ground", lit.Predicate, lit.Args[0])
	}
	right, ok := lit.Args[1].(term.Const)
	if !ok {
		return fmt.Errorf("builtin: %v: argument 2 (%v) is not ground", lit.Predicate, lit.Args[1])
	}
	var cmpFn func(int) bool
	for _, p := range predicates {
		if p.sym == lit.Predicate {
			cmpFn = p.cmp
			break
		}
	}
	if cmpFn == nil {
		return fmt.Errorf("builtin: unhandled predicate %v", lit.Predicate)
	}
	if !cmpFn(compare(left.Atom, right.Atom)) {
		return nil
	}
	yield(kb.Answer{Subst: term.Map{}, Sentence: sentence.True})
	return nil
}

// compare returns a negative, zero or positive int per the usual
// three-way-comparison convention: numerically if both a and b parse as
// float64, lexically otherwise.
func compare(a, b string) int {
	af, aerr := strconv.ParseFloat(a, 64)
	bf, berr := strconv.ParseFloat(b, 64)
	if aerr == nil && berr == nil {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

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

package term

import "strings"

// PredicateSym identifies a predicate by name and arity: the key used to
// index clauses and facts throughout the knowledge base and resolver.
type PredicateSym struct {
	Symbol string
	Arity  int
}

// String implements fmt.Stringer.
func (p PredicateSym) String() string { return p.Symbol }

// Literal is a predicate symbol, a polarity, and an ordered tuple of
// argument terms.
type Literal struct {
	Predicate PredicateSym
	Negated   bool
	Args      []Term
}

// Atom is a convenience constructor for a positive literal.
func Atom(symbol string, args ...Term) Literal {
	return Literal{Predicate: PredicateSym{symbol, len(args)}, Args: args}
}

// Negate returns the negation of lit.
func (lit Literal) Negate() Literal {
	return Literal{lit.Predicate, !lit.Negated, lit.Args}
}

// String implements fmt.Stringer.
func (lit Literal) String() string {
	var sb strings.Builder
	if lit.Negated {
		sb.WriteString("not ")
	}
	sb.WriteString(lit.Predicate.Symbol)
	sb.WriteRune('(')
	for i, a := range lit.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	sb.WriteRune(')')
	return sb.String()
}

// ApplySubst returns lit with every argument substituted.
func (lit Literal) ApplySubst(s Subst) Literal {
	args := make([]Term, len(lit.Args))
	for i, a := range lit.Args {
		args[i] = a.ApplySubst(s)
	}
	return Literal{lit.Predicate, lit.Negated, args}
}

// Vars appends every variable occurring in lit's arguments to out.
func (lit Literal) Vars(out []Var) []Var {
	for _, a := range lit.Args {
		out = a.Vars(out)
	}
	return out
}

// Ground reports whether lit contains no variables.
func (lit Literal) Ground() bool {
	return len(lit.Vars(nil)) == 0
}

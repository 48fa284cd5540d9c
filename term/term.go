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

// Package term implements JudgeD's first-order term algebra: variables,
// constants, compound atoms, literals and substitutions, plus occurs-check
// unification.
package term

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Term is the building block of JudgeD programs: a variable, a constant or
// a compound atom applying a functor to a tuple of terms.
//
// A 1:1 mapping between term values and their String() representation is
// not required: terms are compared structurally via Equals, not via string
// identity.
type Term interface {
	fmt.Stringer

	// Equals reports structural equality.
	Equals(Term) bool

	// ApplySubst returns a new term with every variable in s's domain
	// replaced by its binding. Does not mutate the receiver.
	ApplySubst(s Subst) Term

	// Hash returns a content hash, stable across structurally equal terms.
	Hash() uint64

	// Vars appends every variable occurring in this term to out and returns
	// the extended slice.
	Vars(out []Var) []Var
}

// Var is a logic variable, identified by name.
type Var struct {
	Name string
}

// Const is an opaque atomic constant (numeric or symbolic, the core does
// not distinguish: it is surface syntax's job to decide how to print one).
type Const struct {
	Atom string
}

// Compound is a functor applied to an ordered tuple of argument terms.
type Compound struct {
	Functor string
	Args    []Term
}

func (Var) isTerm()      {}
func (Const) isTerm()    {}
func (Compound) isTerm() {}

// String implements fmt.Stringer.
func (v Var) String() string { return v.Name }

// String implements fmt.Stringer.
func (c Const) String() string { return c.Atom }

// String implements fmt.Stringer.
func (c Compound) String() string {
	var sb strings.Builder
	sb.WriteString(c.Functor)
	sb.WriteRune('(')
	for i, a := range c.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	sb.WriteRune(')')
	return sb.String()
}

// Equals implements Term.
func (v Var) Equals(t Term) bool {
	o, ok := t.(Var)
	return ok && v.Name == o.Name
}

// Equals implements Term.
func (c Const) Equals(t Term) bool {
	o, ok := t.(Const)
	return ok && c.Atom == o.Atom
}

// Equals implements Term.
func (c Compound) Equals(t Term) bool {
	o, ok := t.(Compound)
	if !ok || c.Functor != o.Functor || len(c.Args) != len(o.Args) {
		return false
	}
	for i, a := range c.Args {
		if !a.Equals(o.Args[i]) {
			return false
		}
	}
	return true
}

// ApplySubst implements Term.
func (v Var) ApplySubst(s Subst) Term {
	if t, ok := s.Get(v); ok {
		return t
	}
	return v
}

// ApplySubst implements Term.
func (c Const) ApplySubst(Subst) Term { return c }

// ApplySubst implements Term.
func (c Compound) ApplySubst(s Subst) Term {
	args := make([]Term, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.ApplySubst(s)
	}
	return Compound{c.Functor, args}
}

// Hash implements Term.
func (v Var) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte("v:"))
	h.Write([]byte(v.Name))
	return h.Sum64()
}

// Hash implements Term.
func (c Const) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte("c:"))
	h.Write([]byte(c.Atom))
	return h.Sum64()
}

// Hash implements Term.
func (c Compound) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(c.Functor))
	h.Write([]byte{'/'})
	for _, a := range c.Args {
		var b [8]byte
		av := a.Hash()
		for i := range b {
			b[i] = byte(av >> (8 * i))
		}
		h.Write(b[:])
	}
	return h.Sum64()
}

// Vars implements Term.
func (v Var) Vars(out []Var) []Var { return append(out, v) }

// Vars implements Term.
func (c Const) Vars(out []Var) []Var { return out }

// Vars implements Term.
func (c Compound) Vars(out []Var) []Var {
	for _, a := range c.Args {
		out = a.Vars(out)
	}
	return out
}

// Subst maps variables to the terms bound to them. A nil or absent entry
// means "unbound".
type Subst interface {
	Get(Var) (Term, bool)
}

// Map is a substitution backed by a plain map. Application is purely
// functional: Extend never mutates the receiver's backing map.
type Map map[Var]Term

// Get implements Subst.
func (m Map) Get(v Var) (Term, bool) {
	t, ok := m[v]
	return t, ok
}

// Extend returns a new substitution equal to m plus the binding v->t.
func (m Map) Extend(v Var, t Term) Map {
	out := make(Map, len(m)+1)
	for k, val := range m {
		out[k] = val
	}
	out[v] = t
	return out
}

// Walk follows chained bindings (v -> Var -> ... -> term) to a fixed point.
// It does not resolve bindings nested inside compound arguments; callers
// that need a fully-resolved term should call term.ApplySubst(m) instead.
func (m Map) Walk(t Term) Term {
	for {
		v, ok := t.(Var)
		if !ok {
			return t
		}
		next, ok := m.Get(v)
		if !ok {
			return t
		}
		t = next
	}
}

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

import "fmt"

// ErrNoUnifier is returned by Unify when no most-general unifier exists.
var ErrNoUnifier = fmt.Errorf("no unifier")

// Unify extends subst with the most-general unifier of a and b, Robinson
// style, with an occurs check. It does not mutate subst; it returns a new
// Map, composed functionally rather than via union-find, since the
// resolver needs to snapshot a substitution cheaply at each choice point
// during tabled resolution.
func Unify(a, b Term, subst Map) (Map, error) {
	a = subst.Walk(a)
	b = subst.Walk(b)
	switch x := a.(type) {
	case Var:
		if y, ok := b.(Var); ok && x.Name == y.Name {
			return subst, nil
		}
		if occurs(x, b, subst) {
			return Map{}, ErrNoUnifier
		}
		return subst.Extend(x, b), nil
	case Const:
		if y, ok := b.(Var); ok {
			return Unify(y, x, subst)
		}
		y, ok := b.(Const)
		if !ok || x.Atom != y.Atom {
			return Map{}, ErrNoUnifier
		}
		return subst, nil
	case Compound:
		if y, ok := b.(Var); ok {
			return Unify(y, x, subst)
		}
		y, ok := b.(Compound)
		if !ok || x.Functor != y.Functor || len(x.Args) != len(y.Args) {
			return Map{}, ErrNoUnifier
		}
		cur := subst
		for i := range x.Args {
			var err error
			cur, err = Unify(x.Args[i], y.Args[i], cur)
			if err != nil {
				return Map{}, err
			}
		}
		return cur, nil
	}
	return Map{}, ErrNoUnifier
}

// occurs reports whether v occurs (after following subst) anywhere inside t.
func occurs(v Var, t Term, subst Map) bool {
	t = subst.Walk(t)
	switch x := t.(type) {
	case Var:
		return x.Name == v.Name
	case Const:
		return false
	case Compound:
		for _, a := range x.Args {
			if occurs(v, a, subst) {
				return true
			}
		}
	}
	return false
}

// Rename returns a substitution mapping every variable in vars to a fresh
// variable qualified by activation, so that two activations of the same
// clause never share a variable identity ("standardizing apart").
func Rename(vars []Var, activation int) Map {
	out := make(Map, len(vars))
	seen := make(map[string]bool, len(vars))
	for _, v := range vars {
		if seen[v.Name] {
			continue
		}
		seen[v.Name] = true
		out[v] = Var{Name: fmt.Sprintf("%s#%d", v.Name, activation)}
	}
	return out
}

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

package kb

import (
	"fmt"

	"github.com/utdb/judged/sentence"
	"github.com/utdb/judged/term"
)

// Answer is a single (substitution, sentence) pair, the currency the
// resolver and extensions exchange.
type Answer struct {
	Subst    term.Map
	Sentence sentence.Sentence
}

// Extension is a named provider exposing one or more predicate symbols to
// the resolver, in place of clauses. Extensions must be pure for a given
// knowledge base snapshot and must not mutate it; the resolver checks the
// extension registry before the clause store, so an extension can shadow a
// predicate that also has ordinary rules.
type Extension interface {
	// Name identifies the extension, for UnknownExtension / ExtensionFailure
	// error reporting.
	Name() string

	// Predicates lists the (symbol, arity) pairs this extension serves.
	Predicates() []term.PredicateSym

	// Solve evaluates a partially-bound literal and yields every matching
	// answer to yield. If yield returns false, Solve should stop early
	// (mirroring the range-over-func iterator convention); a non-nil error
	// return is wrapped as ExtensionFailure by the resolver.
	Solve(lit term.Literal, yield func(Answer) bool) error
}

// ErrUnknownExtension is the error kind for a lookup of an extension name
// that is not known. Nothing in this package returns it: UseExtension takes
// an Extension value and cannot fail, and core.Core reports an unregistered
// name with its own ErrUnregisteredExtension.
var ErrUnknownExtension = fmt.Errorf("unknown extension")

// ErrExtensionFailure wraps an error returned from extension code.
var ErrExtensionFailure = fmt.Errorf("extension failure")

// UseExtension registers ext's predicates in this knowledge base, so that
// resolver lookups for those (symbol, arity) pairs are routed to ext
// instead of the clause store; clauses asserted for such a predicate are
// not consulted while the extension is registered.
func (kb *KnowledgeBase) UseExtension(ext Extension) {
	for _, sym := range ext.Predicates() {
		kb.extensions[sym] = ext
	}
}

// Extension returns the extension registered for sym, if any.
func (kb *KnowledgeBase) Extension(sym term.PredicateSym) (Extension, bool) {
	ext, ok := kb.extensions[sym]
	return ext, ok
}

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

package loader

import (
	"github.com/utdb/judged/core"
	"github.com/utdb/judged/kb"
	"github.com/utdb/judged/sentence"
	"github.com/utdb/judged/term"
)

// Sink receives the side effects Load produces beyond knowledge-base
// mutation: query results and shell command lines, both of which are
// presentation concerns that belong to the host, not to loader.
type Sink interface {
	// Answer reports the result of evaluating a "?" query. err is non-nil
	// if evaluation failed; answers is nil in that case.
	Answer(goal term.Literal, answers []kb.Answer, err error)
	// ShellCommand reports a ".foo ..." line, verbatim and untouched: lines
	// beginning with '.' are a host-shell concern, not program text.
	ShellCommand(line string)
}

// resolve turns a rawSentence into a concrete sentence.Sentence, applying
// subst to every label's partition and value terms first and rendering
// them via String(). Outside generator expansion, subst is empty and every
// term must already be ground (a bare Const), so this is a no-op rendering
// pass.
func (r *rawSentence) resolve(subst term.Map) sentence.Sentence {
	switch r.kind {
	case sentTrue:
		return sentence.True
	case sentFalse:
		return sentence.False
	case sentLit:
		return sentence.Lit(sentence.Label{
			Partition: r.label.partition.ApplySubst(subst).String(),
			Value:     r.label.value.ApplySubst(subst).String(),
		})
	case sentNot:
		return sentence.Not(r.left.resolve(subst))
	case sentAnd:
		return sentence.And(r.left.resolve(subst), r.right.resolve(subst))
	case sentOr:
		return sentence.Or(r.left.resolve(subst), r.right.resolve(subst))
	default:
		return sentence.True
	}
}

// resolve turns a rawClause into a kb.Clause, applying subst throughout.
func (rc rawClause) resolve(subst term.Map) kb.Clause {
	body := make([]term.Literal, len(rc.body))
	for i, lit := range rc.body {
		body[i] = lit.ApplySubst(subst)
	}
	return kb.Clause{
		Head:     rc.head.ApplySubst(subst),
		Body:     body,
		Sentence: rc.sentence.resolve(subst),
	}
}

// toStatement turns a non-generator rawStatement into the core.Statement it
// ingests to, applying subst (identity outside generator expansion).
func (rs rawStatement) toStatement(subst term.Map) core.Statement {
	switch rs.kind {
	case stmtClause:
		return core.Statement{Kind: core.StmtClause, Clause: rs.clause.resolve(subst)}
	case stmtLabelProb:
		return core.Statement{
			Kind:           core.StmtLabelProb,
			LabelPartition: rs.labelPartition.ApplySubst(subst).String(),
			LabelValue:     rs.labelValue.ApplySubst(subst).String(),
			Probability:    rs.probability,
		}
	case stmtUniform:
		return core.Statement{Kind: core.StmtUniform, LabelPartition: rs.labelPartition.ApplySubst(subst).String()}
	default:
		panic("loader: toStatement called on a statement kind that is not a plain knowledge-base mutation")
	}
}

// Load reads every statement from input, ingesting mutations into c,
// running queries against c and reporting their results to sink, and
// forwarding shell command lines to sink untouched. It processes
// statements strictly in file order: a query sees every assertion that
// precedes it, and a generator block's guard is evaluated against
// whatever c holds at the point the block is reached.
func Load(c *core.Core, input string, sink Sink) error {
	p := newParser(input)
	for {
		if p.peeked == nil && p.lex.atShellCommand() {
			line := p.lex.readLine()
			sink.ShellCommand(line)
			continue
		}
		stmt, ok, err := p.parseStatement()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := dispatch(c, stmt, sink); err != nil {
			return err
		}
	}
}

// dispatch applies one already-parsed top-level statement: ingesting
// mutations, running and reporting queries, and expanding generator
// blocks.
func dispatch(c *core.Core, stmt rawStatement, sink Sink) error {
	switch stmt.kind {
	case stmtQuery:
		answers, err := c.Query(stmt.query)
		sink.Answer(stmt.query, answers, err)
		return nil
	case stmtGenerator:
		return expandGenerator(c, stmt.generator, sink)
	default:
		return c.Ingest(stmt.toStatement(term.Map{}))
	}
}

// expandGenerator evaluates gen.guard as a query against c's current state
// and, for every answer substitution, instantiates and ingests every
// statement in gen.body.
func expandGenerator(c *core.Core, gen *rawGenerator, sink Sink) error {
	answers, err := c.Query(gen.guard)
	if err != nil {
		return err
	}
	for _, ans := range answers {
		for _, inner := range gen.body {
			if err := c.Ingest(inner.toStatement(ans.Subst)); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParseClause parses a single "head [:- body] [sentence]." clause from
// text, for a host shell's ".assert"/".retract" commands to reuse without
// re-implementing clause syntax.
func ParseClause(text string) (kb.Clause, error) {
	p := newParser(text)
	stmt, err := p.parseClauseOrQuery()
	if err != nil {
		return kb.Clause{}, err
	}
	if stmt.kind != stmtClause {
		return kb.Clause{}, ErrParseError
	}
	return stmt.clause.resolve(term.Map{}), nil
}

// ParseGoal parses a single bare atom, with no trailing '.' or '?', for a
// host shell's ".exact"/".montecarlo" commands to reuse the atom grammar
// without requiring the query-statement terminator.
func ParseGoal(text string) (term.Literal, error) {
	p := newParser(text)
	return p.parseAtom()
}

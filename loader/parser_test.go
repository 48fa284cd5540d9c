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
	"errors"
	"reflect"
	"testing"

	"github.com/utdb/judged/term"
)

func TestParseFact(t *testing.T) {
	p := newParser("p(a).")
	stmt, ok, err := p.parseStatement()
	if err != nil || !ok {
		t.Fatalf("parseStatement() = %v, %v, %v", stmt, ok, err)
	}
	if stmt.kind != stmtClause {
		t.Fatalf("kind = %v, want stmtClause", stmt.kind)
	}
	want := term.Atom("p", term.Const{Atom: "a"})
	if !reflect.DeepEqual(stmt.clause.head, want) {
		t.Errorf("head = %v, want %v", stmt.clause.head, want)
	}
	if len(stmt.clause.body) != 0 {
		t.Errorf("body = %v, want empty", stmt.clause.body)
	}
	if stmt.clause.sentence.kind != sentTrue {
		t.Errorf("sentence kind = %v, want sentTrue (omitted defaults to true)", stmt.clause.sentence.kind)
	}
}

func TestParseZeroArityFact(t *testing.T) {
	p := newParser("raining.")
	stmt, ok, err := p.parseStatement()
	if err != nil || !ok {
		t.Fatalf("parseStatement() = %v, %v, %v", stmt, ok, err)
	}
	if stmt.clause.head.Predicate.Arity != 0 || stmt.clause.head.Predicate.Symbol != "raining" {
		t.Errorf("head predicate = %v, want raining/0", stmt.clause.head.Predicate)
	}
}

func TestParseRuleWithNegationAndSentence(t *testing.T) {
	p := newParser("q(X) :- p(X), not r(X) [a=1 and b=2].")
	stmt, ok, err := p.parseStatement()
	if err != nil || !ok {
		t.Fatalf("parseStatement() = %v, %v, %v", stmt, ok, err)
	}
	body := stmt.clause.body
	if len(body) != 2 {
		t.Fatalf("len(body) = %d, want 2", len(body))
	}
	if body[0].Negated {
		t.Errorf("body[0].Negated = true, want false")
	}
	if !body[1].Negated {
		t.Errorf("body[1].Negated = false, want true")
	}
	sent := stmt.clause.sentence
	if sent.kind != sentAnd {
		t.Fatalf("sentence kind = %v, want sentAnd", sent.kind)
	}
}

func TestParseTildeNegationEquivalentToNotKeyword(t *testing.T) {
	p1 := newParser("q :- ~p(a).")
	s1, _, err := p1.parseStatement()
	if err != nil {
		t.Fatal(err)
	}
	p2 := newParser("q :- not p(a).")
	s2, _, err := p2.parseStatement()
	if err != nil {
		t.Fatal(err)
	}
	if s1.clause.body[0].Negated != s2.clause.body[0].Negated {
		t.Errorf("tilde negation = %v, keyword negation = %v, want equal", s1.clause.body[0].Negated, s2.clause.body[0].Negated)
	}
}

func TestParseQuery(t *testing.T) {
	p := newParser("p(X)?")
	stmt, ok, err := p.parseStatement()
	if err != nil || !ok {
		t.Fatalf("parseStatement() = %v, %v, %v", stmt, ok, err)
	}
	if stmt.kind != stmtQuery {
		t.Fatalf("kind = %v, want stmtQuery", stmt.kind)
	}
	if stmt.query.Predicate.Symbol != "p" {
		t.Errorf("query predicate = %v, want p", stmt.query.Predicate)
	}
}

func TestParseLabelProbStatement(t *testing.T) {
	p := newParser("@P(coin=heads)=0.5.")
	stmt, ok, err := p.parseStatement()
	if err != nil || !ok {
		t.Fatalf("parseStatement() = %v, %v, %v", stmt, ok, err)
	}
	if stmt.kind != stmtLabelProb {
		t.Fatalf("kind = %v, want stmtLabelProb", stmt.kind)
	}
	if stmt.labelPartition.String() != "coin" || stmt.labelValue.String() != "heads" {
		t.Errorf("partition/value = %v/%v, want coin/heads", stmt.labelPartition, stmt.labelValue)
	}
	if stmt.probability != 0.5 {
		t.Errorf("probability = %v, want 0.5", stmt.probability)
	}
}

func TestParseUniformStatement(t *testing.T) {
	p := newParser("@uniform weather.")
	stmt, ok, err := p.parseStatement()
	if err != nil || !ok {
		t.Fatalf("parseStatement() = %v, %v, %v", stmt, ok, err)
	}
	if stmt.kind != stmtUniform {
		t.Fatalf("kind = %v, want stmtUniform", stmt.kind)
	}
	if stmt.labelPartition.String() != "weather" {
		t.Errorf("partition = %v, want weather", stmt.labelPartition)
	}
}

func TestParseUnknownAtFormIsError(t *testing.T) {
	p := newParser("@bogus foo.")
	_, _, err := p.parseStatement()
	if !errors.Is(err, ErrParseError) {
		t.Errorf("err = %v, want ErrParseError", err)
	}
}

func TestParseGenerator(t *testing.T) {
	p := newParser("{ c(X). | base(X) }")
	stmt, ok, err := p.parseStatement()
	if err != nil || !ok {
		t.Fatalf("parseStatement() = %v, %v, %v", stmt, ok, err)
	}
	if stmt.kind != stmtGenerator {
		t.Fatalf("kind = %v, want stmtGenerator", stmt.kind)
	}
	if len(stmt.generator.body) != 1 {
		t.Fatalf("len(body) = %d, want 1", len(stmt.generator.body))
	}
	if stmt.generator.guard.Predicate.Symbol != "base" {
		t.Errorf("guard predicate = %v, want base", stmt.generator.guard.Predicate)
	}
}

func TestParseGeneratorWithMultipleBodyStatements(t *testing.T) {
	p := newParser("{ c(X). @uniform p(X). | base(X) }")
	stmt, ok, err := p.parseStatement()
	if err != nil || !ok {
		t.Fatalf("parseStatement() = %v, %v, %v", stmt, ok, err)
	}
	if len(stmt.generator.body) != 2 {
		t.Fatalf("len(body) = %d, want 2", len(stmt.generator.body))
	}
	if stmt.generator.body[0].kind != stmtClause {
		t.Errorf("body[0].kind = %v, want stmtClause", stmt.generator.body[0].kind)
	}
	if stmt.generator.body[1].kind != stmtUniform {
		t.Errorf("body[1].kind = %v, want stmtUniform", stmt.generator.body[1].kind)
	}
}

func TestParseGeneratorRejectsQueryInBody(t *testing.T) {
	p := newParser("{ c(X)? | base(X) }")
	_, _, err := p.parseStatement()
	if !errors.Is(err, ErrParseError) {
		t.Errorf("err = %v, want ErrParseError", err)
	}
}

func TestParseSentencePrecedenceNotBindsTighterThanAnd(t *testing.T) {
	// "not a=1 and b=2" must parse as "(not a=1) and b=2", not
	// "not (a=1 and b=2)".
	p := newParser("p [not a=1 and b=2].")
	stmt, _, err := p.parseStatement()
	if err != nil {
		t.Fatal(err)
	}
	sent := stmt.clause.sentence
	if sent.kind != sentAnd {
		t.Fatalf("top kind = %v, want sentAnd", sent.kind)
	}
	if sent.left.kind != sentNot {
		t.Errorf("left kind = %v, want sentNot", sent.left.kind)
	}
	if sent.right.kind != sentLit {
		t.Errorf("right kind = %v, want sentLit", sent.right.kind)
	}
}

func TestParseSentencePrecedenceAndBindsTighterThanOr(t *testing.T) {
	// "a=1 or b=2 and c=3" must parse as "a=1 or (b=2 and c=3)".
	p := newParser("p [a=1 or b=2 and c=3].")
	stmt, _, err := p.parseStatement()
	if err != nil {
		t.Fatal(err)
	}
	sent := stmt.clause.sentence
	if sent.kind != sentOr {
		t.Fatalf("top kind = %v, want sentOr", sent.kind)
	}
	if sent.left.kind != sentLit {
		t.Errorf("left kind = %v, want sentLit", sent.left.kind)
	}
	if sent.right.kind != sentAnd {
		t.Errorf("right kind = %v, want sentAnd", sent.right.kind)
	}
}

func TestParseSentenceParenthesesOverridePrecedence(t *testing.T) {
	p := newParser("p [(a=1 or b=2) and c=3].")
	stmt, _, err := p.parseStatement()
	if err != nil {
		t.Fatal(err)
	}
	sent := stmt.clause.sentence
	if sent.kind != sentAnd {
		t.Fatalf("top kind = %v, want sentAnd", sent.kind)
	}
	if sent.left.kind != sentOr {
		t.Errorf("left kind = %v, want sentOr", sent.left.kind)
	}
}

func TestParseSentenceTrueFalseKeywords(t *testing.T) {
	p := newParser("p [true].")
	stmt, _, err := p.parseStatement()
	if err != nil {
		t.Fatal(err)
	}
	if stmt.clause.sentence.kind != sentTrue {
		t.Errorf("kind = %v, want sentTrue", stmt.clause.sentence.kind)
	}

	p2 := newParser("p [false].")
	stmt2, _, err := p2.parseStatement()
	if err != nil {
		t.Fatal(err)
	}
	if stmt2.clause.sentence.kind != sentFalse {
		t.Errorf("kind = %v, want sentFalse", stmt2.clause.sentence.kind)
	}
}

func TestParseCompoundArgument(t *testing.T) {
	p := newParser("p(f(a, b)).")
	stmt, _, err := p.parseStatement()
	if err != nil {
		t.Fatal(err)
	}
	want := term.Atom("p", term.Compound{Functor: "f", Args: []term.Term{term.Const{Atom: "a"}, term.Const{Atom: "b"}}})
	if !reflect.DeepEqual(stmt.clause.head, want) {
		t.Errorf("head = %v, want %v", stmt.clause.head, want)
	}
}

func TestParseVariableRecognitionByCase(t *testing.T) {
	p := newParser("p(X, _Y, a).")
	stmt, _, err := p.parseStatement()
	if err != nil {
		t.Fatal(err)
	}
	args := stmt.clause.head.Args
	if _, ok := args[0].(term.Var); !ok {
		t.Errorf("args[0] = %v, want a Var", args[0])
	}
	if _, ok := args[1].(term.Var); !ok {
		t.Errorf("args[1] = %v, want a Var", args[1])
	}
	if _, ok := args[2].(term.Const); !ok {
		t.Errorf("args[2] = %v, want a Const", args[2])
	}
}

func TestParseStatementReturnsFalseAtEOF(t *testing.T) {
	p := newParser("  # only a comment\n")
	_, ok, err := p.parseStatement()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("ok = true at EOF, want false")
	}
}

func TestParseMissingDotIsError(t *testing.T) {
	p := newParser("p(a)")
	_, _, err := p.parseStatement()
	if !errors.Is(err, ErrParseError) {
		t.Errorf("err = %v, want ErrParseError", err)
	}
}

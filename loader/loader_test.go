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
	"math"
	"testing"

	"github.com/utdb/judged/core"
	"github.com/utdb/judged/kb"
	"github.com/utdb/judged/probability"
	"github.com/utdb/judged/term"
)

// recordingSink collects every Answer/ShellCommand callback Load produces,
// in order, for assertion.
type recordingSink struct {
	queries   []term.Literal
	answers   [][]kb.Answer
	errs      []error
	shellCmds []string
}

func (s *recordingSink) Answer(goal term.Literal, answers []kb.Answer, err error) {
	s.queries = append(s.queries, goal)
	s.answers = append(s.answers, answers)
	s.errs = append(s.errs, err)
}

func (s *recordingSink) ShellCommand(line string) {
	s.shellCmds = append(s.shellCmds, line)
}

func TestLoadAssertsFactsAndAnswersQuery(t *testing.T) {
	c := core.New()
	sink := &recordingSink{}
	input := "p(a).\np(b).\np(X)?"
	if err := Load(c, input, sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.queries) != 1 {
		t.Fatalf("len(queries) = %d, want 1", len(sink.queries))
	}
	if sink.errs[0] != nil {
		t.Fatalf("query error = %v, want nil", sink.errs[0])
	}
	if len(sink.answers[0]) != 2 {
		t.Errorf("len(answers) = %d, want 2", len(sink.answers[0]))
	}
}

func TestLoadRetractViaParseClauseAndCoreIngest(t *testing.T) {
	c := core.New()
	sink := &recordingSink{}
	if err := Load(c, "p(a).\np(b).", sink); err != nil {
		t.Fatal(err)
	}
	clause, err := ParseClause("p(a).")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Ingest(core.Statement{Kind: core.StmtRetract, Clause: clause}); err != nil {
		t.Fatal(err)
	}
	answers, err := c.Query(term.Atom("p", term.Var{Name: "X"}))
	if err != nil {
		t.Fatal(err)
	}
	if len(answers) != 1 {
		t.Fatalf("len(answers) = %d, want 1 after retracting p(a)", len(answers))
	}
}

func TestLoadLabelProbStatements(t *testing.T) {
	c := core.New()
	sink := &recordingSink{}
	input := "@P(coin=heads)=0.5.\n@P(coin=tails)=0.5.\nflip [coin=heads].\nflip?"
	if err := Load(c, input, sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.answers) != 1 || len(sink.answers[0]) != 1 {
		t.Fatalf("answers = %v, want one answer to the flip query", sink.answers)
	}
}

func TestLoadShellCommandForwardedVerbatim(t *testing.T) {
	c := core.New()
	sink := &recordingSink{}
	input := ".show stats\np(a).\n.quit\n"
	if err := Load(c, input, sink); err != nil {
		t.Fatal(err)
	}
	want := []string{".show stats", ".quit"}
	if len(sink.shellCmds) != len(want) {
		t.Fatalf("shellCmds = %v, want %v", sink.shellCmds, want)
	}
	for i := range want {
		if sink.shellCmds[i] != want[i] {
			t.Errorf("shellCmds[%d] = %q, want %q", i, sink.shellCmds[i], want[i])
		}
	}
	answers, err := c.Query(term.Atom("p", term.Var{Name: "X"}))
	if err != nil {
		t.Fatal(err)
	}
	if len(answers) != 1 {
		t.Errorf("len(answers) = %d, want 1 (the fact between the two shell lines)", len(answers))
	}
}

func TestLoadGeneratorExpandsOncePerGuardAnswer(t *testing.T) {
	c := core.New()
	sink := &recordingSink{}
	input := "base(a).\nbase(b).\nbase(c).\n{ derived(X). | base(X) }\nderived(X)?"
	if err := Load(c, input, sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.answers) != 1 {
		t.Fatalf("len(answers) = %d, want 1 query reported", len(sink.answers))
	}
	if len(sink.answers[0]) != 3 {
		t.Errorf("len(derived answers) = %d, want 3 (one per base/1 fact)", len(sink.answers[0]))
	}
}

func TestLoadGeneratorWithEmptyGuardExpandsNothing(t *testing.T) {
	c := core.New()
	sink := &recordingSink{}
	input := "{ derived(X). | base(X) }\nderived(X)?"
	if err := Load(c, input, sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.answers[0]) != 0 {
		t.Errorf("len(derived answers) = %d, want 0 when base/1 has no facts", len(sink.answers[0]))
	}
}

func TestLoadStopsOnIngestError(t *testing.T) {
	c := core.New()
	sink := &recordingSink{}
	// q negates p with a variable that never appears positively: an unsafe
	// clause. Ingesting it fails, and Load surfaces that failure instead of
	// skipping ahead to the query that follows it.
	input := "q(X) :- not p(X).\np(a)?"
	err := Load(c, input, sink)
	if err == nil {
		t.Fatal("Load() = nil error, want the unsafe-clause failure")
	}
	if len(sink.answers) != 0 {
		t.Errorf("len(answers) = %d, want 0: the later query must never run", len(sink.answers))
	}
}

func TestLoadPowerGridReachability(t *testing.T) {
	c := core.New()
	sink := &recordingSink{}
	// City d is reachable from plant a through b; city f hangs off e, which
	// is not a plant, so f is the only unpowered city.
	input := `
plant(a).
city(d).
city(f).
edge(a, b). edge(b, d). edge(e, f).
sym(X, Y) :- edge(X, Y).
sym(X, Y) :- edge(Y, X).
powered(X) :- plant(X).
powered(Y) :- powered(X), sym(X, Y).
unpowered(C) :- city(C), ~powered(C).
unpowered(C)?
`
	if err := Load(c, input, sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.answers) != 1 {
		t.Fatalf("len(answers) = %d, want 1 query reported", len(sink.answers))
	}
	if sink.errs[0] != nil {
		t.Fatalf("query error = %v, want nil", sink.errs[0])
	}
	got := sink.answers[0]
	if len(got) != 1 {
		t.Fatalf("unpowered answers = %v, want exactly unpowered(f)", got)
	}
	bound := got[0].Subst[term.Var{Name: "C"}]
	if !bound.Equals(term.Const{Atom: "f"}) {
		t.Errorf("unpowered(C) bound C to %v, want f", bound)
	}
}

func TestLoadGeneratorCoinResultsEstimateHalf(t *testing.T) {
	c := core.New()
	sink := &recordingSink{}
	input := `
coin(c1).
coin(c2).
{ result(C, h) :- coin(C) [c(C)=h].
  result(C, t) :- coin(C) [c(C)=t].
  @uniform c(C). | coin(C) }
`
	if err := Load(c, input, sink); err != nil {
		t.Fatal(err)
	}
	seed := int64(3)
	results, err := c.QueryMonteCarlo(
		term.Atom("result", term.Var{Name: "C"}, term.Var{Name: "R"}),
		probability.Config{N: 8000, Seed: &seed})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Fatalf("len(results) = %d, want 4 (h and t per coin)", len(results))
	}
	for _, r := range results {
		if math.Abs(r.Probability-0.5) > 0.05 {
			t.Errorf("result %v: p = %v, want ~0.5", r.Text, r.Probability)
		}
	}
}

func TestParseClauseRejectsQuery(t *testing.T) {
	if _, err := ParseClause("p(a)?"); err == nil {
		t.Error("ParseClause(query) = nil error, want ErrParseError")
	}
}

func TestParseClauseParsesRuleWithSentence(t *testing.T) {
	clause, err := ParseClause("q(X) :- p(X) [a=1].")
	if err != nil {
		t.Fatal(err)
	}
	if clause.Head.Predicate.Symbol != "q" {
		t.Errorf("head predicate = %v, want q", clause.Head.Predicate)
	}
	if len(clause.Body) != 1 {
		t.Errorf("len(body) = %d, want 1", len(clause.Body))
	}
	if clause.Sentence.IsTrue() {
		t.Error("sentence is true, want the declared a=1 label")
	}
}

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

// Package core wires together the knowledge base, resolver and probability
// back-ends behind the two operations every other package drives: Ingest
// and Query. Surface syntax (loader) and presentation (cmd/judged) are
// both external collaborators of this package, never the reverse.
package core

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/utdb/judged/engine"
	"github.com/utdb/judged/kb"
	"github.com/utdb/judged/probability"
	"github.com/utdb/judged/sentence"
	"github.com/utdb/judged/term"
)

// StatementKind tags the variant held by a Statement.
type StatementKind int

const (
	// StmtClause asserts a fact or rule parsed from program text.
	StmtClause StatementKind = iota
	// StmtAssert asserts a fact or rule requested interactively (e.g. a
	// shell's ".assert" command). Behaviorally identical to StmtClause;
	// kept distinct so callers can tell the two provenances apart.
	StmtAssert
	// StmtRetract removes the first clause structurally matching Clause.
	StmtRetract
	// StmtLabelProb declares "@P(partition=value) = probability.".
	StmtLabelProb
	// StmtUniform declares "@uniform partition.".
	StmtUniform
	// StmtUseExtension routes a predicate to a registered Extension.
	StmtUseExtension
)

// Statement is one unit of knowledge-base mutation. Query is handled
// separately, by Core.Query, since unlike the others it does not mutate
// the knowledge base and returns results rather than an error.
type Statement struct {
	Kind StatementKind

	Clause kb.Clause // StmtClause, StmtAssert, StmtRetract

	LabelPartition string  // StmtLabelProb, StmtUniform
	LabelValue     string  // StmtLabelProb
	Probability    float64 // StmtLabelProb

	ExtensionName string // StmtUseExtension
}

// ErrUnregisteredExtension indicates StmtUseExtension named an extension
// that was never passed to RegisterExtension.
var ErrUnregisteredExtension = fmt.Errorf("unregistered extension")

// Core owns a knowledge base and drives queries against it through a
// resolver and a choice of probability back-end.
type Core struct {
	KB         *kb.KnowledgeBase
	Limits     engine.Limits
	extensions map[string]kb.Extension
}

// New constructs an empty Core with default resolver limits.
func New() *Core {
	return &Core{KB: kb.New(), Limits: engine.DefaultLimits, extensions: make(map[string]kb.Extension)}
}

// RegisterExtension makes ext available to a later StmtUseExtension. The
// statement language has no way to construct an Extension value itself
// (extensions are Go code); the host process registers them before
// ingesting any statement that names one.
func (c *Core) RegisterExtension(ext kb.Extension) {
	c.extensions[ext.Name()] = ext
}

// Ingest applies one Statement to the knowledge base.
func (c *Core) Ingest(stmt Statement) error {
	switch stmt.Kind {
	case StmtClause, StmtAssert:
		return c.KB.Assert(stmt.Clause)
	case StmtRetract:
		c.KB.Retract(stmt.Clause)
		return nil
	case StmtLabelProb:
		label := sentence.Label{Partition: stmt.LabelPartition, Value: stmt.LabelValue}
		return c.KB.Labels().SetProbability(label, stmt.Probability)
	case StmtUniform:
		return c.KB.Labels().Uniform(stmt.LabelPartition)
	case StmtUseExtension:
		ext, ok := c.extensions[stmt.ExtensionName]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnregisteredExtension, stmt.ExtensionName)
		}
		c.KB.UseExtension(ext)
		return nil
	default:
		return fmt.Errorf("core: unknown statement kind %d", stmt.Kind)
	}
}

// IngestAll applies every statement in stmts in order, continuing past
// individual failures and returning every error encountered, aggregated
// with multierr.
func (c *Core) IngestAll(stmts []Statement) error {
	var errs []error
	for _, s := range stmts {
		if err := c.Ingest(s); err != nil {
			errs = append(errs, err)
		}
	}
	return multierr.Combine(errs...)
}

// Query evaluates goal against the knowledge base and returns every
// matching answer.
func (c *Core) Query(goal term.Literal) ([]kb.Answer, error) {
	return engine.New(c.KB, c.Limits).Query(goal)
}

// QueryExact evaluates goal and formats each answer's sentence as text. It
// refuses with probability.ErrUnsupportedOperation if goal's dependency
// closure uses negation.
func (c *Core) QueryExact(goal term.Literal) ([]probability.Result, error) {
	answers, err := c.Query(goal)
	if err != nil {
		return nil, err
	}
	usedNegation := engine.UsesNegation(c.KB, goal.Predicate)
	return probability.Exact{}.Evaluate(answers, usedNegation)
}

// QueryMonteCarlo evaluates goal and estimates each answer's probability by
// sampling worlds according to cfg.
func (c *Core) QueryMonteCarlo(goal term.Literal, cfg probability.Config) ([]probability.Result, error) {
	answers, err := c.Query(goal)
	if err != nil {
		return nil, err
	}
	mc := probability.MonteCarlo{Config: cfg}
	return mc.Evaluate(answers, c.KB.Labels())
}

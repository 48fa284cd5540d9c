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

package probability

import (
	"errors"
	"math"
	"testing"

	"github.com/utdb/judged/kb"
	"github.com/utdb/judged/sentence"
	"github.com/utdb/judged/term"
)

func TestExactEvaluateFormatsSentences(t *testing.T) {
	answers := []kb.Answer{
		{Subst: term.Map{}, Sentence: sentence.Lit(sentence.Label{Partition: "x", Value: "1"})},
	}
	results, err := Exact{}.Evaluate(answers, false)
	if err != nil {
		t.Fatalf("Evaluate() = %v, want success", err)
	}
	if len(results) != 1 || results[0].Text != "x=1" {
		t.Errorf("results = %+v, want [{Text: x=1}]", results)
	}
}

func TestExactEvaluateRejectsNegation(t *testing.T) {
	_, err := Exact{}.Evaluate(nil, true)
	if !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("Evaluate() = %v, want ErrUnsupportedOperation", err)
	}
}

func coinLabels() *kb.Labels {
	l := kb.NewLabels()
	l.SetProbability(sentence.Label{Partition: "coin", Value: "heads"}, 0.5)
	l.SetProbability(sentence.Label{Partition: "coin", Value: "tails"}, 0.5)
	return l
}

func TestMonteCarloEvaluateConvergesNearTruth(t *testing.T) {
	answers := []kb.Answer{
		{Subst: term.Map{}, Sentence: sentence.Lit(sentence.Label{Partition: "coin", Value: "heads"})},
	}
	seed := int64(0)
	mc := MonteCarlo{Config: Config{N: 20000, Seed: &seed}}
	results, err := mc.Evaluate(answers, coinLabels())
	if err != nil {
		t.Fatalf("Evaluate() = %v, want success", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if math.Abs(results[0].Probability-0.5) > 0.02 {
		t.Errorf("Probability = %v, want ~0.5 +/- 0.02", results[0].Probability)
	}
	if results[0].Samples != 20000 {
		t.Errorf("Samples = %d, want 20000", results[0].Samples)
	}
}

func TestMonteCarloEvaluateIsReproducibleForFixedSeed(t *testing.T) {
	answers := []kb.Answer{
		{Subst: term.Map{}, Sentence: sentence.Lit(sentence.Label{Partition: "coin", Value: "heads"})},
	}
	seed := int64(42)
	mc := MonteCarlo{Config: Config{N: 5000, Seed: &seed}}
	r1, err := mc.Evaluate(answers, coinLabels())
	if err != nil {
		t.Fatal(err)
	}
	r2, err := mc.Evaluate(answers, coinLabels())
	if err != nil {
		t.Fatal(err)
	}
	if r1[0].Probability != r2[0].Probability {
		t.Errorf("two runs with the same seed diverged: %v vs %v", r1[0].Probability, r2[0].Probability)
	}
}

func TestMonteCarloEvaluateStopsEarlyOnConvergence(t *testing.T) {
	answers := []kb.Answer{
		{Subst: term.Map{}, Sentence: sentence.Lit(sentence.Label{Partition: "coin", Value: "heads"})},
	}
	seed := int64(7)
	threshold := 0.05
	mc := MonteCarlo{Config: Config{N: 1_000_000, Seed: &seed, ConvergenceThreshold: &threshold, MinSamples: 50}}
	results, err := mc.Evaluate(answers, coinLabels())
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Samples >= 1_000_000 {
		t.Errorf("Samples = %d, want convergence to stop well before the ceiling", results[0].Samples)
	}
}

func TestMonteCarloEvaluateReportsMissingProbability(t *testing.T) {
	answers := []kb.Answer{
		{Subst: term.Map{}, Sentence: sentence.Lit(sentence.Label{Partition: "weather", Value: "sun"})},
	}
	mc := MonteCarlo{Config: Config{N: 100}}
	_, err := mc.Evaluate(answers, kb.NewLabels())
	if !errors.Is(err, ErrMissingProbability) {
		t.Errorf("Evaluate() = %v, want ErrMissingProbability", err)
	}
}

func TestWilsonHalfWidthShrinksWithMoreSamples(t *testing.T) {
	small := wilsonHalfWidth(15, 30)
	large := wilsonHalfWidth(500, 1000)
	if large >= small {
		t.Errorf("wilsonHalfWidth(500,1000)=%v should be smaller than wilsonHalfWidth(15,30)=%v", large, small)
	}
}

func TestDeriveSeedIsDeterministicAndIndexSensitive(t *testing.T) {
	a := deriveSeed(1, 5)
	b := deriveSeed(1, 5)
	c := deriveSeed(1, 6)
	if a != b {
		t.Errorf("deriveSeed(1,5) not stable across calls: %v vs %v", a, b)
	}
	if a == c {
		t.Errorf("deriveSeed(1,5) == deriveSeed(1,6), want distinct subseeds per index")
	}
}

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

// Package probability implements JudgeD's two probability back-ends over a
// resolver's sentence-annotated answer set: exact (returns the simplified
// sentence) and montecarlo (samples worlds and estimates a frequency)
package probability

import (
	"fmt"

	"github.com/utdb/judged/kb"
	"github.com/utdb/judged/term"
)

// ErrMissingProbability indicates a Monte-Carlo run referenced a label whose
// partition has at least one declared value with no declared probability
var ErrMissingProbability = fmt.Errorf("missing probability")

// ErrUnsupportedOperation indicates the exact back-end was asked to evaluate
// a query whose dependency closure contains negation.
var ErrUnsupportedOperation = fmt.Errorf("unsupported operation")

// Result pairs one resolver answer with its probability-engine verdict: Text
// (always populated, the exact back-end's output) and Probability plus
// Samples (populated only by the Monte-Carlo back-end).
type Result struct {
	Subst       term.Map
	Text        string
	Probability float64
	Samples     int
}

// answerPartitions collects the distinct partition names referenced across
// every answer's sentence, so callers can validate that every one of them
// has a complete probability assignment before sampling.
func answerPartitions(answers []kb.Answer) map[string]bool {
	partitions := make(map[string]bool)
	for _, a := range answers {
		for _, l := range a.Sentence.Labels() {
			partitions[l.Partition] = true
		}
	}
	return partitions
}

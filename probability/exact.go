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

import "github.com/utdb/judged/kb"

// Exact is the exact back-end: it does not compute a numeric probability, it
// returns the simplified sentence text per answer.
type Exact struct{}

// Evaluate formats every answer's sentence as text. usedNegation must report
// whether any clause in the query's dependency closure contained a negated
// body literal; the exact back-end cannot represent the result of
// negation-as-failure's sentence-aware composition as a plain boolean
// formula over source labels, so it refuses rather than silently
// mis-describing the proof.
func (Exact) Evaluate(answers []kb.Answer, usedNegation bool) ([]Result, error) {
	if usedNegation {
		return nil, ErrUnsupportedOperation
	}
	out := make([]Result, len(answers))
	for i, a := range answers {
		out[i] = Result{Subst: a.Subst, Text: a.Sentence.String()}
	}
	return out, nil
}

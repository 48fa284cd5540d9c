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

	"bitbucket.org/creachadair/stringset"
	"go.uber.org/multierr"

	"github.com/utdb/judged/sentence"
)

// Labels is the probability assignment registry: a mapping from
// (partition, value) to a probability in [0,1], plus the set of values
// declared so far for each partition.
//
// Declared values are tracked with a stringset.Set per partition, used both
// to validate the "probabilities sum to 1" invariant and to freeze
// @uniform's denominator at declaration time.
type Labels struct {
	values map[string]stringset.Set   // partition -> declared values
	probs  map[sentence.Label]float64 // (partition,value) -> probability
}

// NewLabels constructs an empty label registry.
func NewLabels() *Labels {
	return &Labels{
		values: make(map[string]stringset.Set),
		probs:  make(map[sentence.Label]float64),
	}
}

// declare records that partition has value as one of its values, without
// assigning a probability.
func (l *Labels) declare(partition, value string) {
	set, ok := l.values[partition]
	if !ok {
		set = stringset.New()
		l.values[partition] = set
	}
	set.Add(value)
}

// SetProbability implements "@P(p=v) = 0.5.": declares the label
// and records its probability. It does not check the sums-to-one
// invariant across the whole partition. Validate (below) performs that
// check when called; neither the loader nor the core calls it, so a
// partition whose probabilities do not sum to 1 is sampled as declared.
func (l *Labels) SetProbability(label sentence.Label, p float64) error {
	if p < 0 || p > 1 {
		return fmt.Errorf("probability %v for %v out of range [0,1]", p, label)
	}
	l.declare(label.Partition, label.Value)
	l.probs[label] = p
	return nil
}

// Uniform implements "@uniform p.": assigns 1/k to each of the k
// currently-declared values of p, freezing the value set at declaration
// time. Values added to p after this call are not retroactively
// re-normalized, and SetProbability called after Uniform for the same
// partition simply overwrites that one value's share without renormalizing
// its siblings (DESIGN.md records this decision).
func (l *Labels) Uniform(partition string) error {
	set, ok := l.values[partition]
	if !ok || set.Len() == 0 {
		return fmt.Errorf("@uniform %s: no values declared for partition %q yet", partition, partition)
	}
	share := 1.0 / float64(set.Len())
	for _, v := range set.Elements() {
		l.probs[sentence.Label{Partition: partition, Value: v}] = share
	}
	return nil
}

// Probability returns the declared probability for label, or ok=false if
// none has been declared.
func (l *Labels) Probability(label sentence.Label) (p float64, ok bool) {
	p, ok = l.probs[label]
	return p, ok
}

// Values returns the declared value set for partition, sorted, and ok=true
// iff the partition has at least one declared value. This is the "currently
// declared value set" that PartitionValues-gated simplifications and
// @uniform both consult.
func (l *Labels) Values(partition string) (values []string, ok bool) {
	set, ok := l.values[partition]
	if !ok {
		return nil, false
	}
	return set.Elements(), true
}

// PartitionValues adapts Values to the sentence.PartitionValues signature
// the simplifier's optional value-set-covering rule needs.
func (l *Labels) PartitionValues(partition string) ([]string, bool) {
	return l.Values(partition)
}

// Partitions lists every partition with at least one declared value.
func (l *Labels) Partitions() []string {
	out := make([]string, 0, len(l.values))
	for p := range l.values {
		out = append(out, p)
	}
	return out
}

// Validate checks that for each partition, probabilities over its defined
// values sum to 1. It returns every violation found, aggregated with
// multierr so a loader can report every offending partition in one pass
// instead of stopping at the first.
func (l *Labels) Validate() error {
	var errs []error
	for partition, set := range l.values {
		var sum float64
		for _, v := range set.Elements() {
			p, ok := l.probs[sentence.Label{Partition: partition, Value: v}]
			if !ok {
				continue // MissingProbability is reported at query time, not load time.
			}
			sum += p
		}
		if len(set) > 0 && (sum < 0.999999 || sum > 1.000001) {
			errs = append(errs, fmt.Errorf("partition %q: probabilities sum to %v, want 1", partition, sum))
		}
	}
	return multierr.Combine(errs...)
}

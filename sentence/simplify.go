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

package sentence

// PartitionValues, when non-nil, reports the full declared value set for a
// partition. The "Or(Lit, Lit) == True when the partition's value set is
// exactly {v,w}" rule is optional and needs this information;
// callers that don't have a partition registry handy (most tests) can leave
// it nil and lose only that one optimization, never soundness.
type PartitionValues func(partition string) (values []string, ok bool)

// simplify applies the standard boolean rewrites to the top level of s,
// recursively normalizing children first. It is a best-effort local
// rewriter, not a canonicalizer: it never changes the set of worlds in
// which s holds, but structurally different sentences that are
// semantically equivalent are not guaranteed to compare Equals after
// simplification.
func simplify(s Sentence) Sentence {
	return simplifyWith(s, nil)
}

// simplifyWith is simplify, parameterized by an optional partition
// registry used for the "or over complete value pair" rule.
func simplifyWith(s Sentence, partitionValues PartitionValues) Sentence {
	switch s.kind {
	case KindTrue, KindFalse, KindLit:
		return s
	case KindNot:
		inner := simplifyWith(*s.left, partitionValues)
		switch inner.kind {
		case KindTrue:
			return False
		case KindFalse:
			return True
		case KindNot:
			return *inner.left // Not(Not(S)) == S
		}
		return Sentence{kind: KindNot, left: &inner}
	case KindAnd:
		l := simplifyWith(*s.left, partitionValues)
		r := simplifyWith(*s.right, partitionValues)
		if l.IsFalse() || r.IsFalse() {
			return False
		}
		if l.IsTrue() {
			return r
		}
		if r.IsTrue() {
			return l
		}
		if mutuallyExclusive(l, r) {
			return False
		}
		return Sentence{kind: KindAnd, left: &l, right: &r}
	case KindOr:
		l := simplifyWith(*s.left, partitionValues)
		r := simplifyWith(*s.right, partitionValues)
		if l.IsTrue() || r.IsTrue() {
			return True
		}
		if l.IsFalse() {
			return r
		}
		if r.IsFalse() {
			return l
		}
		if partitionValues != nil && coversPartition(l, r, partitionValues) {
			return True
		}
		return Sentence{kind: KindOr, left: &l, right: &r}
	}
	return s
}

// mutuallyExclusive reports whether l and r are both single labels on the
// same partition with different values: And(Lit((p,v)), Lit((p,w))) == False
// when v != w.
func mutuallyExclusive(l, r Sentence) bool {
	if l.kind != KindLit || r.kind != KindLit {
		return false
	}
	return l.label.Partition == r.label.Partition && l.label.Value != r.label.Value
}

// coversPartition reports whether l and r are single labels on the same
// partition whose values are exactly that partition's full declared value
// set {v,w}.
func coversPartition(l, r Sentence, partitionValues PartitionValues) bool {
	if l.kind != KindLit || r.kind != KindLit {
		return false
	}
	if l.label.Partition != r.label.Partition || l.label.Value == r.label.Value {
		return false
	}
	values, ok := partitionValues(l.label.Partition)
	if !ok || len(values) != 2 {
		return false
	}
	has := map[string]bool{values[0]: true, values[1]: true}
	return has[l.label.Value] && has[r.label.Value]
}

// Simplify re-simplifies an already-built sentence using partition value
// information, enabling the optional "or covers the full value set" rule
// once a partition registry is available (e.g. after the knowledge base's
// label declarations have been loaded). Composition helpers (And/Or/Not)
// call the registry-less simplify; callers that hold a registry (the
// resolver, via kb.KnowledgeBase.PartitionValues) should pass it through
// AndWith/OrWith instead of relying on a later re-simplification pass.
func Simplify(s Sentence, partitionValues PartitionValues) Sentence {
	return simplifyWith(s, partitionValues)
}

// AndWith is And, but consults partitionValues for the optional
// value-set-covering rule on any nested Or this call newly exposes.
func AndWith(a, b Sentence, partitionValues PartitionValues) Sentence {
	return simplifyWith(Sentence{kind: KindAnd, left: &a, right: &b}, partitionValues)
}

// OrWith is Or, but consults partitionValues for the optional
// value-set-covering rule.
func OrWith(a, b Sentence, partitionValues PartitionValues) Sentence {
	return simplifyWith(Sentence{kind: KindOr, left: &a, right: &b}, partitionValues)
}

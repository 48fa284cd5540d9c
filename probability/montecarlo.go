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
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"time"

	log "github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/utdb/judged/kb"
	"github.com/utdb/judged/sentence"
)

// Config holds the Monte-Carlo back-end's sampling parameters.
type Config struct {
	// N is the sample count. Required when ConvergenceThreshold is nil (the
	// exact number of worlds drawn); acts as a hard ceiling otherwise.
	N int
	// Seed, if non-nil, makes sampling reproducible: the world drawn for
	// sample index i is a pure function of (Seed, i), independent of
	// whether sampling ran sequentially or in parallel.
	Seed *int64
	// ConvergenceThreshold, if non-nil, stops sampling once every answer's
	// Wilson-score interval half-width at 95% confidence falls below it,
	// subject to the MinSamples floor and the N ceiling.
	ConvergenceThreshold *float64
	// MinSamples is the minimum-sample floor convergence checking requires.
	// Defaults to 30 if zero.
	MinSamples int
}

// MonteCarlo is the sampling back-end: it estimates, per answer, the
// fraction of sampled worlds in which the answer's sentence holds.
type MonteCarlo struct {
	Config Config
}

// Evaluate draws worlds according to labels' declared distributions and
// reports, per answer, the fraction of worlds in which its sentence
// evaluates true.
func (mc MonteCarlo) Evaluate(answers []kb.Answer, labels *kb.Labels) ([]Result, error) {
	if len(answers) == 0 {
		return nil, nil
	}
	dists, err := buildDistributions(answers, labels)
	if err != nil {
		return nil, err
	}
	seed := time.Now().UnixNano()
	if mc.Config.Seed != nil {
		seed = *mc.Config.Seed
	}

	hits := make([]int, len(answers))
	var n int
	if mc.Config.ConvergenceThreshold != nil {
		n, err = mc.sampleUntilConverged(dists, answers, hits, seed)
	} else {
		n, err = mc.sampleParallel(dists, answers, hits, seed)
	}
	if err != nil {
		return nil, err
	}

	out := make([]Result, len(answers))
	for i, a := range answers {
		out[i] = Result{
			Subst:       a.Subst,
			Text:        a.Sentence.String(),
			Probability: float64(hits[i]) / float64(n),
			Samples:     n,
		}
	}
	return out, nil
}

// sampleParallel draws mc.Config.N worlds, splitting the sample-index range
// evenly across worker goroutines: each sample's world is a pure function
// of its index, so workers never need to coordinate beyond the final
// reduction.
func (mc MonteCarlo) sampleParallel(dists []partitionDist, answers []kb.Answer, hits []int, seed int64) (int, error) {
	n := mc.Config.N
	if n <= 0 {
		return 0, fmt.Errorf("montecarlo: sample count must be positive, got %d", n)
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	partial := make([][]int, workers)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		lo := w * n / workers
		hi := (w + 1) * n / workers
		partial[w] = make([]int, len(answers))
		g.Go(func() error {
			local := partial[w]
			for i := lo; i < hi; i++ {
				world := sampleWorld(dists, deriveSeed(seed, i))
				for j, a := range answers {
					if a.Sentence.Eval(world) {
						local[j]++
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	for _, p := range partial {
		for j := range hits {
			hits[j] += p[j]
		}
	}
	log.V(2).Infof("probability: drew %d samples across %d workers", n, workers)
	return n, nil
}

// sampleUntilConverged draws worlds sequentially, checking the running
// Wilson-score half-width after every batch once the minimum-sample floor
// is passed, and stopping early once every answer's interval is tight
// enough.
func (mc MonteCarlo) sampleUntilConverged(dists []partitionDist, answers []kb.Answer, hits []int, seed int64) (int, error) {
	minN := mc.Config.MinSamples
	if minN <= 0 {
		minN = 30
	}
	maxN := mc.Config.N
	if maxN <= 0 {
		maxN = 1_000_000
	}
	threshold := *mc.Config.ConvergenceThreshold

	n := 0
	for {
		limit := n + minN
		if limit > maxN {
			limit = maxN
		}
		for ; n < limit; n++ {
			world := sampleWorld(dists, deriveSeed(seed, n))
			for j, a := range answers {
				if a.Sentence.Eval(world) {
					hits[j]++
				}
			}
		}
		if n >= minN {
			maxHalfWidth := 0.0
			for _, h := range hits {
				if hw := wilsonHalfWidth(h, n); hw > maxHalfWidth {
					maxHalfWidth = hw
				}
			}
			log.V(2).Infof("probability: n=%d max Wilson half-width=%v", n, maxHalfWidth)
			if maxHalfWidth <= threshold {
				break
			}
		}
		if n >= maxN {
			break
		}
	}
	return n, nil
}

// wilsonHalfWidth returns the half-width of the 95%-confidence Wilson score
// interval for hits successes out of n trials.
func wilsonHalfWidth(hits, n int) float64 {
	if n == 0 {
		return 1
	}
	const z = 1.96
	phat := float64(hits) / float64(n)
	fn := float64(n)
	denom := 1 + z*z/fn
	margin := z * math.Sqrt(phat*(1-phat)/fn+z*z/(4*fn*fn)) / denom
	return margin
}

// partitionDist is a partition's sampling distribution: its declared values
// in a fixed order, paired with the cumulative probability up to and
// including each one.
type partitionDist struct {
	partition string
	values    []string
	cum       []float64
}

// draw samples one value from d using rng, by inverse-CDF over cum.
func (d partitionDist) draw(rng *rand.Rand) string {
	total := d.cum[len(d.cum)-1]
	if total <= 0 {
		return d.values[len(d.values)-1]
	}
	r := rng.Float64() * total
	for i, c := range d.cum {
		if r <= c {
			return d.values[i]
		}
	}
	return d.values[len(d.values)-1]
}

// buildDistributions collects one partitionDist per partition referenced by
// answers' sentences, sorted by partition name so that sampleWorld consumes
// the per-sample random stream in a fixed, reproducible order. It fails with
// ErrMissingProbability if any referenced partition lacks a complete
// probability assignment.
func buildDistributions(answers []kb.Answer, labels *kb.Labels) ([]partitionDist, error) {
	referenced := answerPartitions(answers)
	names := make([]string, 0, len(referenced))
	for p := range referenced {
		names = append(names, p)
	}
	sort.Strings(names)

	dists := make([]partitionDist, 0, len(names))
	for _, p := range names {
		values, ok := labels.Values(p)
		if !ok || len(values) == 0 {
			return nil, fmt.Errorf("%w: partition %q has no declared values", ErrMissingProbability, p)
		}
		cum := make([]float64, len(values))
		sum := 0.0
		for i, v := range values {
			pr, ok := labels.Probability(sentence.Label{Partition: p, Value: v})
			if !ok {
				return nil, fmt.Errorf("%w: %s=%s", ErrMissingProbability, p, v)
			}
			sum += pr
			cum[i] = sum
		}
		dists = append(dists, partitionDist{partition: p, values: values, cum: cum})
	}
	return dists, nil
}

// sampleWorld draws one full world: one value per partition in dists, using
// a dedicated RNG source keyed by subSeed so the result is a pure function
// of subSeed alone.
func sampleWorld(dists []partitionDist, subSeed int64) sentence.World {
	rng := rand.New(rand.NewSource(subSeed))
	world := make(sentence.World, len(dists))
	for _, d := range dists {
		world[d.partition] = d.draw(rng)
	}
	return world
}

// deriveSeed maps a (base seed, sample index) pair to an independent 64-bit
// seed via splitmix64's mixing step, so that sample i's world never depends
// on the order in which other samples were drawn: the sequence only needs
// to be reproducible per (seed, sample index), not per execution order.
func deriveSeed(base int64, index int) int64 {
	x := uint64(base) + uint64(index)*0x9E3779B97F4A7C15
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return int64(x)
}

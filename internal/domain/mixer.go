package domain

import (
	"errors"
	"fmt"
	"math"
)

// MixingStrategy configures how ranked pools are combined into one feed.
// it is configuration, never mutated at runtime.
type MixingStrategy struct {
	// Ratios is the target share of the output per mix group.
	// must sum to at most 1.0.
	Ratios map[MixGroup]float64

	// MaxConsecutiveSameCategory caps runs of the same group.
	MaxConsecutiveSameCategory int

	// RedistributeShortfall hands the slots an exhausted pool could not
	// fill, and the slots lost to rounding targets down, to the pools that
	// still have posts, in declaration order.
	RedistributeShortfall bool

	// TrendingInjectInterval is reserved for injecting trending posts
	// every N positions. the mixer does not read it.
	TrendingInjectInterval int
}

// ratioTolerance absorbs float error in ratio sums and floor().
const ratioTolerance = 1e-9

var (
	ErrRatiosExceedOne      = errors.New("mixing ratios must sum to at most 1.0")
	ErrNegativeRatio        = errors.New("mixing ratios must be non-negative")
	ErrMaxConsecutiveTooLow = errors.New("max consecutive same category must be at least 1")
)

// HomeMixingStrategy returns the mix used by the home feed.
func HomeMixingStrategy() MixingStrategy {
	return MixingStrategy{
		Ratios: map[MixGroup]float64{
			MixGroupSocial:              0.35,
			MixGroupPurchase:            0.30,
			MixGroupEventRecommendation: 0.25,
			MixGroupSponsored:           0.10,
		},
		MaxConsecutiveSameCategory: 3,
		RedistributeShortfall:      true,
	}
}

// Validate checks the strategy invariants.
func (s MixingStrategy) Validate() error {
	var sum float64
	for group, ratio := range s.Ratios {
		if ratio < 0 || math.IsNaN(ratio) {
			return fmt.Errorf("%w: %s=%v", ErrNegativeRatio, group, ratio)
		}
		sum += ratio
	}
	if sum > 1+ratioTolerance {
		return fmt.Errorf("%w: got %.3f", ErrRatiosExceedOne, sum)
	}
	if s.MaxConsecutiveSameCategory < 1 {
		return ErrMaxConsecutiveTooLow
	}
	return nil
}

// TargetCount returns floor(total x ratio) for a group.
func (s MixingStrategy) TargetCount(group MixGroup, total int) int {
	ratio := s.Ratios[group]
	if ratio <= 0 || total <= 0 {
		return 0
	}
	return int(math.Floor(float64(total)*ratio + ratioTolerance))
}

// slotBudget is how many posts the ratios together allow out of total.
func (s MixingStrategy) slotBudget(total int) int {
	var sum float64
	for _, group := range mixGroupOrder {
		sum += max(0, s.Ratios[group])
	}
	return min(total, int(math.Floor(float64(total)*sum+ratioTolerance)))
}

// Mix combines ranked pools into one sequence.
// pools must already be in pool order (see SortRanked). inputs are not modified.
//
// algorithm:
// 1. total = sum of pool sizes, empty input yields empty output
// 2. each group keeps the first floor(total x ratio) posts of its pool
// 3. optionally, slots left by short pools or by rounding go to pools with
// leftovers, up to floor(total x sum of ratios)
// 4. groups are visited round-robin in declaration order; a group whose
// run already hit the consecutive cap is skipped for that step, and the
// mix stops early rather than break the cap
func Mix(pools map[MixGroup][]RankedPost, strategy MixingStrategy) []RankedPost {
	total := 0
	for _, group := range mixGroupOrder {
		total += len(pools[group])
	}
	if total == 0 {
		return []RankedPost{}
	}

	selected := selectQuotas(pools, strategy, total)
	return interleave(selected, strategy.MaxConsecutiveSameCategory)
}

// selectQuotas slices the front of each pool according to the targets.
func selectQuotas(pools map[MixGroup][]RankedPost, strategy MixingStrategy, total int) [][]RankedPost {
	take := make([]int, len(mixGroupOrder))
	taken := 0
	for i, group := range mixGroupOrder {
		target := strategy.TargetCount(group, total)
		take[i] = min(target, len(pools[group]))
		taken += take[i]
	}

	if strategy.RedistributeShortfall {
		shortfall := strategy.slotBudget(total) - taken
		for i, group := range mixGroupOrder {
			if shortfall <= 0 {
				break
			}
			if strategy.Ratios[group] <= 0 {
				continue
			}
			extra := min(len(pools[group])-take[i], shortfall)
			take[i] += extra
			shortfall -= extra
		}
	}

	selected := make([][]RankedPost, len(mixGroupOrder))
	for i, group := range mixGroupOrder {
		selected[i] = pools[group][:take[i]]
	}
	return selected
}

// interleave walks the selected slices by index, never mutating them.
func interleave(selected [][]RankedPost, maxConsecutive int) []RankedPost {
	if maxConsecutive < 1 {
		maxConsecutive = 1
	}

	remaining := 0
	for _, s := range selected {
		remaining += len(s)
	}
	out := make([]RankedPost, 0, remaining)

	n := len(selected)
	next := make([]int, n)
	turn := 0
	last := -1
	run := 0

	for len(out) < cap(out) {
		emitted := false

		for step := 0; step < n; step++ {
			g := (turn + step) % n
			if next[g] >= len(selected[g]) {
				continue
			}
			if g == last && run >= maxConsecutive {
				continue
			}

			out = append(out, selected[g][next[g]])
			next[g]++
			if g == last {
				run++
			} else {
				last = g
				run = 1
			}
			turn = (g + 1) % n
			emitted = true
			break
		}

		if !emitted {
			// every group left would break the run cap
			break
		}
	}

	return out
}
